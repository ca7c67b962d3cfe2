package session

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/cfoust/sortie/pkg/config"
	"github.com/cfoust/sortie/pkg/game/balance"
	"github.com/cfoust/sortie/pkg/protocol"
)

// ServerCommand is a "#" command typed into chat.
type ServerCommand struct {
	name        string
	argsFormat  string
	aliases     []string
	description string
	minRole     protocol.Role
	f           func(c *Coordinator, client *Client, args []string)
}

func (cmd *ServerCommand) String() string {
	if cmd.argsFormat == "" {
		return "#" + cmd.name
	}
	return fmt.Sprintf("#%s %s", cmd.name, cmd.argsFormat)
}

func (cmd *ServerCommand) Detailed() string {
	aliases := ""
	if len(cmd.aliases) > 0 {
		aliases = fmt.Sprintf(" (alias %s)", strings.Join(cmd.aliases, ", "))
	}
	return fmt.Sprintf("%s:%s %s", cmd.String(), aliases, cmd.description)
}

type ServerCommands struct {
	c       *Coordinator
	byName  map[string]*ServerCommand
	byAlias map[string]*ServerCommand
}

func NewCommands(c *Coordinator, cmds ...*ServerCommand) *ServerCommands {
	sc := &ServerCommands{
		c:       c,
		byName:  map[string]*ServerCommand{},
		byAlias: map[string]*ServerCommand{},
	}
	for _, cmd := range cmds {
		sc.Register(cmd)
	}
	return sc
}

func (sc *ServerCommands) Register(cmd *ServerCommand) {
	sc.byName[cmd.name] = cmd
	sc.byAlias[cmd.name] = cmd
	for _, alias := range cmd.aliases {
		sc.byAlias[alias] = cmd
	}
}

func (sc *ServerCommands) PrintCommands(client *Client) {
	lines := []string{}
	for _, cmd := range sc.byName {
		if client.Role >= cmd.minRole {
			lines = append(lines, cmd.String())
		}
	}
	sort.Strings(lines)
	sc.c.tell(client, "Available commands: "+strings.Join(lines, ", "))
}

// Handle runs a command line without its leading "#".
func (sc *ServerCommands) Handle(client *Client, msg string) {
	parts := strings.Fields(msg)
	if len(parts) == 0 {
		sc.c.fail(client, "!!! Invalid Command")
		return
	}
	command, args := strings.ToLower(parts[0]), parts[1:]

	switch command {
	case "help", "commands":
		if len(args) == 0 {
			sc.PrintCommands(client)
			return
		}
		name := strings.TrimPrefix(args[0], "#")
		if cmd, ok := sc.byAlias[name]; ok {
			sc.c.tell(client, cmd.Detailed())
		} else {
			sc.c.fail(client, "!!! Invalid Command")
		}

	default:
		cmd, ok := sc.byAlias[command]
		if !ok {
			sc.c.fail(client, "!!! Invalid Command")
			return
		}

		if client.Role < cmd.minRole {
			sc.c.fail(client, "!!! Need "+cmd.minRole.String())
			return
		}

		cmd.f(sc.c, client, args)
	}
}

// RunCommand handles a "#" command sent by a client.
func (c *Coordinator) RunCommand(client *Client, line string) {
	c.commands.Handle(client, line)
}

var VoteYes = &ServerCommand{
	name:        "yes",
	description: "votes for the running proposal",
	f: func(c *Coordinator, client *Client, args []string) {
		c.votes.Cast(client, true)
	},
}

var VoteNo = &ServerCommand{
	name:        "no",
	description: "votes against the running proposal",
	f: func(c *Coordinator, client *Client, args []string) {
		c.votes.Cast(client, false)
	},
}

var ReloadConfig = &ServerCommand{
	name:        "reloadconfig",
	aliases:     []string{"loadini", "loadsetting"},
	description: "rereads the server configuration",
	minRole:     protocol.RoleAdmin,
	f: func(c *Coordinator, client *Client, args []string) {
		if c.reload == nil {
			c.fail(client, "!!! This server cannot reload its configuration")
			return
		}

		settings, err := c.reload()
		if err != nil {
			c.logger.Error().Err(err).Msg("could not reload configuration")
			c.fail(client, "!!! "+err.Error())
			return
		}

		c.ApplySettings(settings)
		c.tell(client, "Configuration settings loaded")
	},
}

var GameTime = &ServerCommand{
	name:        "gametime",
	aliases:     []string{"time"},
	description: "shows how much time the game has left",
	f: func(c *Coordinator, client *Client, args []string) {
		if c.clock.IsUnlimited() {
			c.tell(client, "This game has no time limit")
			return
		}
		c.tell(client, fmt.Sprintf(
			"Time remaining: %s",
			c.clock.Current().Truncate(time.Second),
		))
	},
}

var RevealBots = &ServerCommand{
	name:        "reveal",
	description: "shows every robot on the commander map",
	minRole:     protocol.RoleAdmin,
	f: func(c *Coordinator, client *Client, args []string) {
		c.scope.RevealBots = !c.scope.RevealBots

		state := "disabled"
		if c.scope.RevealBots {
			state = "enabled"
		}
		c.Message(fmt.Sprintf("Show all robots option %s by %s", state, client.Name))
	},
}

var defaultCommands = []*ServerCommand{
	VoteYes,
	VoteNo,
	ReloadConfig,
	GameTime,
	RevealBots,
}

// ApplySettings swaps in new configuration mid-match. Clients are told when
// voice chat is switched on or off.
func (c *Coordinator) ApplySettings(settings config.ServerSettings) {
	voiceChanged := settings.Game.VoiceChat != c.settings.Game.VoiceChat
	c.settings = settings

	c.balancer = balance.New(population{c}, c.balanceSettings())
	c.scope.SetRanges(c.scopeRanges())
	c.interest.SetRanges(c.interestRanges())

	if voiceChanged {
		for _, client := range c.clients {
			c.send(client, protocol.VoiceMuted{
				Muted: !settings.Game.VoiceChat || client.muted,
			})
		}
	}

	c.logger.Info().Msg("configuration reloaded")
}
