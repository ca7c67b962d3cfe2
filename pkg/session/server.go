package session

import (
	"context"
	"fmt"
	"time"

	"github.com/ivahaev/timer"
	"github.com/rs/zerolog/log"

	"github.com/cfoust/sortie/pkg/chanlock"
	"github.com/cfoust/sortie/pkg/game/score"
	"github.com/cfoust/sortie/pkg/protocol"
	"github.com/cfoust/sortie/pkg/utils"
)

type Packet struct {
	Conn    ConnID
	Message protocol.Message
}

type inboundKind uint8

const (
	inboundJoin inboundKind = iota
	inboundLeave
	inboundPacket
)

// inbound is one thing ingress handed over. Joins, leaves and packets share a
// queue so a connection's events are handled in the order they happened.
type inbound struct {
	kind   inboundKind
	join   Join
	packet Packet
}

type EventKind int

const (
	EventLevelStarted EventKind = iota
	EventGameOver
)

type Event struct {
	Kind  EventKind
	Level string
	Code  string
}

// Server runs a Coordinator on its own goroutine. Ingress talks to it only
// through channels, so the coordinator never needs locking.
type Server struct {
	utils.Session

	Events *utils.Topic[Event]

	coordinator *Coordinator
	levels      []*Level
	levelIndex  int

	intermission *timer.Timer

	inbox  chan inbound
	rotate chan struct{}
}

// NewServer builds the rotation from the configured levels. Levels that fail
// to parse are skipped; with none left a default arena is used.
func NewServer(ctx context.Context, options Options) *Server {
	s := &Server{
		Session: utils.NewSession(ctx),
		Events:  utils.NewTopic[Event](16),
		inbox:   make(chan inbound, 256),
		rotate:  make(chan struct{}, 1),
	}

	onOver := options.OnGameOver
	options.OnGameOver = func() {
		s.startIntermission()
		if onOver != nil {
			onOver()
		}
	}

	s.coordinator = New(options)

	for _, entry := range options.Settings.Levels {
		level, err := LevelFromConfig(entry)
		if err != nil {
			log.Warn().Err(err).Str("level", entry.Name).Msg("skipping level")
			continue
		}
		s.levels = append(s.levels, level)
	}

	if len(s.levels) == 0 {
		s.levels = append(s.levels, NewLevel("Arena", score.Bitmatch))
	}

	return s
}

func (s *Server) Coordinator() *Coordinator {
	return s.coordinator
}

func (s *Server) Levels() []*Level {
	return s.levels
}

func (s *Server) push(event inbound) {
	select {
	case s.inbox <- event:
	case <-s.Ctx().Done():
	}
}

// Connect asks for a new connection to join the match.
func (s *Server) Connect(join Join) {
	s.push(inbound{kind: inboundJoin, join: join})
}

func (s *Server) Leave(conn ConnID) {
	s.push(inbound{kind: inboundLeave, packet: Packet{Conn: conn}})
}

// Deliver queues a message from a joined connection.
func (s *Server) Deliver(packet Packet) {
	s.push(inbound{kind: inboundPacket, packet: packet})
}

func (s *Server) handle(event inbound) {
	switch event.kind {
	case inboundJoin:
		s.coordinator.AddClient(event.join)
	case inboundLeave:
		s.coordinator.Leave(event.packet.Conn)
	case inboundPacket:
		s.coordinator.Handle(event.packet.Conn, event.packet.Message)
	}
}

func (event inbound) String() string {
	switch event.kind {
	case inboundJoin:
		return fmt.Sprintf("join %d", event.join.Conn)
	case inboundLeave:
		return fmt.Sprintf("leave %d", event.packet.Conn)
	default:
		return fmt.Sprintf("message %s from %d", protocol.NameOf(event.packet.Message), event.packet.Conn)
	}
}

// step advances the coordinator in whole ticks and returns the time left over.
func (s *Server) step(pending, interval time.Duration) time.Duration {
	for pending >= interval {
		s.coordinator.Tick(interval)
		pending -= interval
	}
	return pending
}

func (s *Server) tickInterval() time.Duration {
	interval := s.coordinator.Settings().TickInterval.Std()
	if interval <= 0 {
		interval = 33 * time.Millisecond
	}
	return interval
}

// NextLevel starts the level after the current one in the rotation.
func (s *Server) NextLevel() {
	if s.intermission != nil {
		s.intermission.Stop()
		s.intermission = nil
	}

	level := s.levels[s.levelIndex%len(s.levels)]
	s.levelIndex++

	s.coordinator.Start(level)
	s.Events.Publish(Event{
		Kind:  EventLevelStarted,
		Level: level.Name,
		Code:  level.LevelCode(),
	})
}

func (s *Server) startIntermission() {
	level := s.coordinator.Level()
	s.Events.Publish(Event{
		Kind:  EventGameOver,
		Level: level.Name,
		Code:  level.LevelCode(),
	})

	delay := s.coordinator.Settings().Game.Intermission.Std()
	s.intermission = timer.AfterFunc(delay, func() {
		select {
		case s.rotate <- struct{}{}:
		default:
		}
	})
	s.intermission.Start()
}

// Poll runs the simulation loop until the session is cancelled.
func (s *Server) Poll() {
	logger := log.With().Str("component", "server").Logger()
	lock := chanlock.New(logger)
	health := lock.Poll(s.Ctx())

	interval := s.tickInterval()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.NextLevel()
	last := time.Now()
	var pending time.Duration

	for {
		select {
		case <-s.Ctx().Done():
			if s.intermission != nil {
				s.intermission.Stop()
			}
			return
		case <-health:
			continue
		case now := <-ticker.C:
			lock.Mark("tick")
			pending = s.step(pending+now.Sub(last), interval)
			last = now
		case event := <-s.inbox:
			lock.Mark(event.String())
			s.handle(event)
		case <-s.rotate:
			lock.Mark("rotate")
			s.NextLevel()
		}
	}
}
