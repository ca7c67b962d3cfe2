package session

import (
	"errors"
	"path/filepath"
	"strings"
	"time"

	"github.com/cfoust/sortie/pkg/protocol"
)

// ConnID identifies a connection for the lifetime of the process. Bots have
// none.
type ConnID uint32

const NoConn ConnID = 0

type DisconnectReason string

const (
	ReasonNone     DisconnectReason = ""
	ReasonIdle     DisconnectReason = "idle"
	ReasonKicked   DisconnectReason = "kicked"
	ReasonBanned   DisconnectReason = "banned"
	ReasonShutdown DisconnectReason = "shutdown"
	ReasonFlooding DisconnectReason = "flooding"
)

// Transport delivers messages to connections. Every message is sent on the
// channel for its ordering class and implementations must never block the
// caller.
type Transport interface {
	Send(conn ConnID, messages ...protocol.Message)
	// Scope replaces the set of objects replicated to the connection.
	Scope(conn ConnID, objects []protocol.GhostState)
	Disconnect(conn ConnID, reason DisconnectReason)
	Address(conn ConnID) string
	RoundTrip(conn ConnID) time.Duration
}

// BotFactory starts robots. The script runtime lives outside the session.
type BotFactory interface {
	NewBot(script string, args []string) (name string, err error)
}

// NamedBots names robots after their script.
type NamedBots struct{}

var ErrNoScript = errors.New("no robot script configured")

func (NamedBots) NewBot(script string, args []string) (string, error) {
	if script == "" {
		return "Robot", nil
	}

	name := strings.TrimSuffix(filepath.Base(script), filepath.Ext(script))
	if name == "" {
		return "", ErrNoScript
	}
	return name, nil
}

var _ BotFactory = NamedBots{}

type VoteKind int

const (
	VoteSetTime VoteKind = iota
	VoteAddTime
	VoteSetWinningScore
	VoteResetScore
	VoteChangeTeam
)

func (k VoteKind) String() string {
	switch k {
	case VoteSetTime:
		return "set time"
	case VoteAddTime:
		return "add time"
	case VoteSetWinningScore:
		return "set winning score"
	case VoteResetScore:
		return "reset score"
	case VoteChangeTeam:
		return "change team"
	}
	return "unknown"
}

// VoteHandler may take over a command and resolve it by vote. Start reports
// whether it did.
type VoteHandler interface {
	Start(client *Client, kind VoteKind, value int32) bool
	Cast(client *Client, yes bool)
}

// NoVotes declines every vote so commands run directly.
type NoVotes struct{}

func (NoVotes) Start(*Client, VoteKind, int32) bool { return false }
func (NoVotes) Cast(*Client, bool)                  {}

var _ VoteHandler = NoVotes{}

// ChatHook sees every chat message sent by a human.
type ChatHook func(sender *Client, text string, global bool)

func safeFilename(name string) bool {
	if name == "" || strings.Contains(name, "..") {
		return false
	}
	return !strings.ContainsAny(name, `/\:`)
}
