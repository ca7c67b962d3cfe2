package session

import (
	"fmt"
	"time"

	"github.com/cfoust/sortie/pkg/config"
	"github.com/cfoust/sortie/pkg/game/score"
	"github.com/cfoust/sortie/pkg/game/teams"
	"github.com/cfoust/sortie/pkg/protocol"
	"github.com/cfoust/sortie/pkg/stats"
)

type recorder struct {
	sent      map[ConnID][]protocol.Message
	scoped    map[ConnID][]protocol.GhostState
	dropped   map[ConnID]DisconnectReason
	addresses map[ConnID]string
	ping      time.Duration
}

func newRecorder() *recorder {
	return &recorder{
		sent:      make(map[ConnID][]protocol.Message),
		scoped:    make(map[ConnID][]protocol.GhostState),
		dropped:   make(map[ConnID]DisconnectReason),
		addresses: make(map[ConnID]string),
	}
}

func (r *recorder) Send(conn ConnID, messages ...protocol.Message) {
	r.sent[conn] = append(r.sent[conn], messages...)
}

func (r *recorder) Scope(conn ConnID, objects []protocol.GhostState) {
	r.scoped[conn] = objects
}

func (r *recorder) Disconnect(conn ConnID, reason DisconnectReason) {
	r.dropped[conn] = reason
}

func (r *recorder) Address(conn ConnID) string {
	if address, ok := r.addresses[conn]; ok {
		return address
	}
	return fmt.Sprintf("10.0.0.%d", conn)
}

func (r *recorder) RoundTrip(conn ConnID) time.Duration {
	return r.ping
}

func (r *recorder) clear() {
	for conn := range r.sent {
		delete(r.sent, conn)
	}
}

func received[T protocol.Message](r *recorder, conn ConnID) []T {
	var found []T
	for _, message := range r.sent[conn] {
		if typed, ok := message.(T); ok {
			found = append(found, typed)
		}
	}
	return found
}

func texts(r *recorder, conn ConnID) []string {
	var lines []string
	for _, message := range r.sent[conn] {
		switch m := message.(type) {
		case protocol.DisplayMessage:
			lines = append(lines, m.Text)
		case protocol.DisplayErrorMessage:
			lines = append(lines, m.Text)
		}
	}
	return lines
}

type vote struct {
	client *Client
	kind   VoteKind
	value  int32
}

type fakeVotes struct {
	accept  bool
	started []vote
	cast    []bool
}

func (v *fakeVotes) Start(client *Client, kind VoteKind, value int32) bool {
	v.started = append(v.started, vote{client, kind, value})
	return v.accept
}

func (v *fakeVotes) Cast(client *Client, yes bool) {
	v.cast = append(v.cast, yes)
}

type fakeStats struct {
	snapshots []stats.Snapshot
}

func (f *fakeStats) Submit(snapshot stats.Snapshot) bool {
	f.snapshots = append(f.snapshots, snapshot)
	return true
}

func duration(d time.Duration) config.Duration {
	return config.Duration(d)
}

func testSettings() config.ServerSettings {
	var settings config.ServerSettings
	settings.Name = "Test Server"
	settings.TickInterval = duration(33 * time.Millisecond)
	settings.Game = config.GameSettings{
		MaxGameTime:            duration(999 * time.Minute),
		DefaultGameTime:        duration(10 * time.Minute),
		RespawnDelay:           duration(1500 * time.Millisecond),
		SwitchTeamsDelay:       duration(time.Minute),
		ScoreboardUpdatePeriod: duration(3 * time.Second),
		TimeSyncPeriod:         duration(30 * time.Second),
		MaxPing:                duration(999 * time.Millisecond),
		KickIdleAtGameOver:     true,
		Intermission:           duration(10 * time.Second),
		VoiceChat:              true,
		Passwords: config.Passwords{
			Owner:       "owner",
			Admin:       "admin",
			LevelChange: "level",
		},
	}
	settings.Bots = config.BotSettings{
		MinBalancedPlayers: 6,
		MaxBots:            10,
		BalancePeriod:      duration(10 * time.Second),
		FirstBalance:       duration(2 * time.Second),
	}
	settings.Scope = config.ScopeSettings{
		Normal:        config.Extent{X: 600, Y: 400},
		Sensor:        config.Extent{X: 1000, Y: 600},
		SpyBug:        300,
		PassiveVisual: config.Extent{X: 600, Y: 400},
		PassiveSensor: config.Extent{X: 1000, Y: 600},
	}
	settings.Bans = config.BanSettings{
		DefaultDuration: duration(time.Hour),
		KickDuration:    duration(30 * time.Second),
	}
	settings.Stats.Enabled = true
	return settings
}

func soloLevel() *Level {
	return NewLevel("Solo", score.Bitmatch)
}

func teamLevel(names ...string) *Level {
	level := NewLevel("Teams", score.CaptureTheFlag)
	for i, name := range names {
		color := teams.Blue
		if i%2 == 1 {
			color = teams.Red
		}
		level.Teams = append(level.Teams, LevelTeam{Name: name, Color: color})
	}
	return level
}

type fixture struct {
	c     *Coordinator
	rec   *recorder
	votes *fakeVotes
	stats *fakeStats
}

func newFixture(level *Level, configure ...func(*Options)) *fixture {
	f := &fixture{
		rec:   newRecorder(),
		votes: &fakeVotes{},
		stats: &fakeStats{},
	}

	options := Options{
		Settings:  testSettings(),
		Transport: f.rec,
		Votes:     f.votes,
		Stats:     f.stats,
	}
	for _, fn := range configure {
		fn(&options)
	}

	f.c = New(options)
	f.c.Start(level)
	return f
}

// join adds a human and completes its setup handshake.
func (f *fixture) join(conn ConnID, name, password string) *Client {
	client := f.c.AddClient(Join{Conn: conn, Name: name, Password: password})
	f.c.SyncComplete(client, client.sequence)
	return client
}
