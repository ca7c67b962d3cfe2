package session

import (
	"fmt"
	"time"

	"github.com/repeale/fp-go/option"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/cfoust/sortie/pkg/bans"
	"github.com/cfoust/sortie/pkg/config"
	"github.com/cfoust/sortie/pkg/game/balance"
	"github.com/cfoust/sortie/pkg/game/clock"
	"github.com/cfoust/sortie/pkg/game/interest"
	"github.com/cfoust/sortie/pkg/game/scope"
	"github.com/cfoust/sortie/pkg/game/score"
	"github.com/cfoust/sortie/pkg/game/teams"
	"github.com/cfoust/sortie/pkg/game/world"
	"github.com/cfoust/sortie/pkg/protocol"
	"github.com/cfoust/sortie/pkg/stats"
)

// Hard limit regardless of configuration
const AbsoluteMaxBots = 255

type State int

const (
	StatePreMatch State = iota
	StateActive
	StateOver
)

func (s State) String() string {
	switch s {
	case StatePreMatch:
		return "pre-match"
	case StateActive:
		return "active"
	case StateOver:
		return "over"
	}
	return "unknown"
}

// StatsSink receives the final snapshot of every match.
type StatsSink interface {
	Submit(snapshot stats.Snapshot) bool
}

type Options struct {
	Settings  config.ServerSettings
	Transport Transport
	Bots      BotFactory
	Votes     VoteHandler
	Bans      *bans.List
	Stats     StatsSink
	OnChat    ChatHook
	// Rereads the configuration for the loadini and reloadconfig commands
	Reload func() (config.ServerSettings, error)
	// Called once per match when it ends
	OnGameOver func()
}

// Coordinator owns the authoritative state of a match. It is not safe for
// concurrent use: every method must be called from the simulation loop.
type Coordinator struct {
	logger zerolog.Logger

	settings  config.ServerSettings
	transport Transport
	bots      BotFactory
	votes     VoteHandler
	banList   *bans.List
	stats     StatsSink
	onChat    ChatHook
	reload    func() (config.ServerSettings, error)
	onOver    func()

	state      State
	level      *Level
	levelID    uint32
	world      *world.World
	controller world.Handle
	teams      *teams.Registry
	board      *score.Board
	clock      *clock.GameClock
	scope      *scope.Query
	interest   *interest.Tracker
	balancer   *balance.Balancer
	commands   *ServerCommands

	clients      []*Client
	nextID       int32
	nextSequence uint32
	elapsed      time.Duration

	scoreboardTimer      clock.Countdown
	timeSyncTimer        clock.Countdown
	balanceTimer         clock.Countdown
	botBalancingDisabled bool
}

func New(options Options) *Coordinator {
	c := &Coordinator{
		logger:    log.With().Str("component", "session").Logger(),
		settings:  options.Settings,
		transport: options.Transport,
		bots:      options.Bots,
		votes:     options.Votes,
		banList:   options.Bans,
		stats:     options.Stats,
		onChat:    options.OnChat,
		reload:    options.Reload,
		onOver:    options.OnGameOver,
		nextID:    1,
	}

	if c.bots == nil {
		c.bots = NamedBots{}
	}
	if c.votes == nil {
		c.votes = NoVotes{}
	}

	c.commands = NewCommands(c, defaultCommands...)
	c.resetLevelState(NewLevel("", score.Bitmatch))
	return c
}

func (c *Coordinator) scopeRanges() scope.Ranges {
	settings := c.settings.Scope
	return scope.Ranges{
		Normal: world.Point{X: settings.Normal.X, Y: settings.Normal.Y},
		Sensor: world.Point{X: settings.Sensor.X, Y: settings.Sensor.Y},
		SpyBug: settings.SpyBug,
	}
}

func (c *Coordinator) interestRanges() interest.Ranges {
	settings := c.settings.Scope
	return interest.Ranges{
		Visual: world.Point{X: settings.PassiveVisual.X, Y: settings.PassiveVisual.Y},
		Sensor: world.Point{X: settings.PassiveSensor.X, Y: settings.PassiveSensor.Y},
	}
}

func (c *Coordinator) balanceSettings() balance.Settings {
	return balance.Settings{
		MinPlayers:    c.settings.Bots.MinBalancedPlayers,
		AlwaysBalance: c.settings.Bots.AlwaysBalanceTeams,
	}
}

func (c *Coordinator) resetLevelState(level *Level) {
	game := c.settings.Game

	c.level = level
	c.levelID = level.ID()
	c.logger = log.With().
		Str("level", level.Name).
		Str("mode", level.Mode.Info().Short).
		Logger()

	c.world = world.New(world.DefaultCellSize)
	c.controller = c.world.Add(world.Object{
		Kind:  world.KindController,
		Team:  world.TeamNeutral,
		Owner: world.NoOwner,
	})
	c.teams = level.Registry()
	c.board = score.NewBoard(level.Mode, c.teams, broadcaster{c}, level.WinningScore)
	c.clock = clock.New(game.MaxGameTime.Std())
	c.clock.Reset(level.GameTime)
	c.scope = scope.New(c.world, c.scopeRanges())
	c.scope.RevealBots = game.RevealBots
	c.interest = interest.New(c.world, c.interestRanges())
	c.balancer = balance.New(population{c}, c.balanceSettings())

	c.scoreboardTimer = clock.NewCountdown(game.ScoreboardUpdatePeriod.Std())
	c.timeSyncTimer = clock.NewCountdown(game.TimeSyncPeriod.Std())
	c.balanceTimer = clock.NewCountdown(c.settings.Bots.FirstBalance.Std())
	c.botBalancingDisabled = false
	c.elapsed = 0
}

// Start begins a match on the level. Connected clients carry over: their
// scores are cleared, they are put on teams again and receive the setup
// sequence for the new level.
func (c *Coordinator) Start(level *Level) {
	existing := c.clients
	c.clients = nil

	c.resetLevelState(level)
	c.state = StateActive

	c.logger.Info().
		Str("code", level.LevelCode()).
		Uint32("id", c.levelID).
		Msg("starting level")

	for _, client := range existing {
		client.score = 0
		client.played = 0
		client.Stats = Statistics{}
		client.Moved = false
		client.Avatar = world.NoHandle
		client.ready = false
		client.Team = -1
		client.respawn = clock.Countdown{}
		client.switchTeams = clock.Countdown{}
		c.clients = append(c.clients, client)
	}

	for _, client := range c.clients {
		c.assignTeam(client, -1)
	}

	for _, client := range c.clients {
		if client.Bot {
			c.spawn(client)
			continue
		}
		c.sendSetup(client)
	}
}

func (c *Coordinator) State() State {
	return c.state
}

func (c *Coordinator) Level() *Level {
	return c.level
}

func (c *Coordinator) LevelID() uint32 {
	return c.levelID
}

func (c *Coordinator) World() *world.World {
	return c.world
}

func (c *Coordinator) Teams() *teams.Registry {
	return c.teams
}

func (c *Coordinator) Board() *score.Board {
	return c.board
}

func (c *Coordinator) Interest() *interest.Tracker {
	return c.interest
}

func (c *Coordinator) Clock() *clock.GameClock {
	return c.clock
}

func (c *Coordinator) Settings() config.ServerSettings {
	return c.settings
}

func (c *Coordinator) IsOver() bool {
	return c.state == StateOver
}

func (c *Coordinator) IsTeamGame() bool {
	return c.teams.Len() > 1
}

func (c *Coordinator) Clients() []*Client {
	return c.clients
}

func (c *Coordinator) ClientByConn(conn ConnID) opt.Option[*Client] {
	for _, client := range c.clients {
		if !client.Bot && client.Conn == conn {
			return opt.Some(client)
		}
	}
	return opt.None[*Client]()
}

func (c *Coordinator) ClientByName(name string) opt.Option[*Client] {
	for _, client := range c.clients {
		if client.Name == name {
			return opt.Some(client)
		}
	}
	return opt.None[*Client]()
}

func (c *Coordinator) clientByID(id int32) opt.Option[*Client] {
	if id == world.NoOwner {
		return opt.None[*Client]()
	}
	for _, client := range c.clients {
		if client.ID == id {
			return opt.Some(client)
		}
	}
	return opt.None[*Client]()
}

func (c *Coordinator) indexOf(target *Client) int {
	for i, client := range c.clients {
		if client == target {
			return i
		}
	}
	return -1
}

func (c *Coordinator) humanCount() int {
	count := 0
	for _, client := range c.clients {
		if !client.Bot {
			count++
		}
	}
	return count
}

func (c *Coordinator) BotCount() int {
	return len(c.clients) - c.humanCount()
}

func (c *Coordinator) send(client *Client, messages ...protocol.Message) {
	if client.Bot || c.transport == nil {
		return
	}
	c.transport.Send(client.Conn, messages...)
}

// Broadcast sends to every connected human.
func (c *Coordinator) Broadcast(messages ...protocol.Message) {
	for _, client := range c.clients {
		c.send(client, messages...)
	}
}

func (c *Coordinator) broadcastExcept(except *Client, messages ...protocol.Message) {
	for _, client := range c.clients {
		if client == except {
			continue
		}
		c.send(client, messages...)
	}
}

func (c *Coordinator) Message(text string) {
	c.Broadcast(protocol.DisplayMessage{Text: text})
}

func (c *Coordinator) tell(client *Client, text string) {
	c.send(client, protocol.DisplayMessage{Text: text})
}

func (c *Coordinator) fail(client *Client, text string) {
	c.send(client, protocol.DisplayErrorMessage{Text: text})
}

func (c *Coordinator) remainingTime() protocol.NewTimeRemaining {
	return protocol.NewTimeRemaining{
		RemainingMs:    int32(c.clock.Current().Milliseconds()),
		Unlimited:      c.clock.IsUnlimited(),
		RenderOffsetMs: int32(c.clock.RenderingOffset().Milliseconds()),
	}
}

func (c *Coordinator) broadcastNewRemainingTime() {
	c.Broadcast(c.remainingTime())
}

// Tick advances the match by one simulation step.
func (c *Coordinator) Tick(delta time.Duration) {
	if c.state == StatePreMatch {
		return
	}

	c.elapsed += delta
	c.interest.Update()

	needsScoreboardUpdate := c.scoreboardTimer.Update(delta)
	if needsScoreboardUpdate {
		c.scoreboardTimer.Reset()
	}

	maxPing := c.settings.Game.MaxPing.Std()
	for _, client := range append([]*Client(nil), c.clients...) {
		if !client.Bot {
			client.idle += delta
		}

		if client.respawn.Update(delta) {
			c.spawn(client)
		}

		if client.Bot {
			continue
		}

		if needsScoreboardUpdate {
			if c.transport != nil {
				client.Ping = c.transport.RoundTrip(client.Conn)
			}
			if client.Ping > maxPing {
				client.Ping = maxPing
			}

			if c.IsOver() || client.wantsScoreboard {
				c.sendScoreboard(client)
			}
		}

		if client.switchTeams.Update(delta) {
			c.send(client, protocol.CanSwitchTeams{Allowed: true})
		}
	}

	if c.timeSyncTimer.Update(delta) {
		c.Broadcast(protocol.TimeSync{
			RemainingMs: int32(c.clock.Current().Milliseconds()),
		})
		c.timeSyncTimer.Reset()
	}

	if !c.botBalancingDisabled && c.settings.Bots.BalanceTeams && c.balanceTimer.Update(delta) {
		result := c.balancer.Rebalance()
		if result.Added > 0 || result.Removed > 0 {
			c.logger.Info().
				Int("added", result.Added).
				Int("removed", result.Removed).
				Msg("balanced teams")
		}
		c.balanceTimer.ResetTo(c.settings.Bots.BalancePeriod.Std())
	}

	if c.clock.Update(delta) {
		c.GameOver()
	}

	c.updateScope()
}

func (c *Coordinator) updateScope() {
	if c.transport == nil {
		return
	}

	c.scope.Prune()
	teamGame := c.IsTeamGame()

	for _, client := range c.clients {
		if client.Bot {
			continue
		}

		handles := c.scope.Compute(scope.Viewer{
			Controller: c.controller,
			Ready:      client.ready,
			Avatar:     client.Avatar,
			Team:       client.Team,
			Commander:  client.Commander,
		}, teamGame)

		objects := make([]protocol.GhostState, 0, len(handles))
		for _, h := range handles {
			object := c.world.Get(h)
			if opt.IsNone(object) {
				continue
			}
			o := object.Value
			objects = append(objects, protocol.GhostState{
				Handle:    uint64(o.Handle),
				Kind:      uint8(o.Kind),
				Team:      int32(o.Team),
				X:         float32(o.Pos.X),
				Y:         float32(o.Pos.Y),
				MountedOn: uint64(o.MountedOn),
			})
		}

		c.transport.Scope(client.Conn, objects)
	}
}

func (c *Coordinator) sendScoreboard(client *Client) {
	maxPing := c.settings.Game.MaxPing.Std()

	update := protocol.ScoreboardUpdate{
		Pings:   make([]uint16, 0, len(c.clients)),
		Ratings: make([]float32, 0, len(c.clients)),
	}
	for _, other := range c.clients {
		ping := other.Ping
		if ping > maxPing {
			ping = maxPing
		}
		update.Pings = append(update.Pings, uint16(ping.Milliseconds()))
		update.Ratings = append(update.Ratings, float32(other.Rating()))
	}

	c.send(client, update)
}

// broadcaster relays score changes to every client.
type broadcaster struct {
	c *Coordinator
}

func (b broadcaster) PlayerScoreChanged(p score.Participant, value int32) {
	client, ok := p.(*Client)
	if !ok {
		return
	}
	b.c.Broadcast(protocol.SetPlayerScore{
		Index: int32(b.c.indexOf(client)),
		Score: value,
	})
}

func (b broadcaster) TeamScoreChanged(team int, value int32) {
	b.c.Broadcast(protocol.SetTeamScore{
		Team:  int32(team),
		Score: value,
	})
}

var _ score.Listener = broadcaster{}

// UpdateScore scores an event for a client and their team.
func (c *Coordinator) UpdateScore(client *Client, event score.Event, data int32) {
	if client == nil {
		return
	}
	c.applyScore(client, client.Team, event, data)
}

// UpdateTeamScore scores an event for a team alone.
func (c *Coordinator) UpdateTeamScore(team int, event score.Event, data int32) {
	c.applyScore(nil, team, event, data)
}

func (c *Coordinator) applyScore(client *Client, team int, event score.Event, data int32) {
	if c.IsOver() || c.state == StatePreMatch {
		return
	}

	var actor score.Participant
	var before int32
	if client != nil {
		actor = client
		before = client.score
	}

	ended := c.board.Apply(actor, team, event, data)

	if client != nil && event == score.CaptureFlag {
		client.Stats.FlagCaptures++
		if client.Stats.FlagCaptures == BadgeFlagCaptures {
			c.achieve(client, protocol.BadgeTwentyFiveFlags)
		}
	}

	if client != nil {
		delta := client.score - before
		if delta < 0 {
			delta = -delta
		}
		if delta != 0 {
			for _, other := range c.clients {
				other.played += delta
			}
		}
	}

	if ended {
		c.GameOver()
	}
}

// GameOver ends the match. It only runs once per level.
func (c *Coordinator) GameOver() {
	if c.state != StateActive {
		return
	}

	c.announceWinner()

	c.state = StateOver
	c.board.MarkOver()
	c.Broadcast(protocol.SetGameOver{Over: true})
	c.clock.MarkOver()

	c.logger.Info().Dur("elapsed", c.elapsed).Msg("game over")

	c.saveStats()

	if c.settings.Game.KickIdleAtGameOver {
		for _, client := range append([]*Client(nil), c.clients...) {
			if client.Bot || client.Moved || client.Local {
				continue
			}
			c.disconnect(client, ReasonIdle)
		}
	}

	if c.onOver != nil {
		c.onOver()
	}
}

func (c *Coordinator) announceWinner() {
	winner := opt.None[string]()

	if c.IsTeamGame() {
		team := score.Winner(c.teams.Scores())
		if opt.IsSome(team) {
			winner = opt.Some("Team " + c.teams.All()[team.Value].Name)
		}
	} else {
		scores := make([]int32, len(c.clients))
		for i, client := range c.clients {
			scores[i] = client.score
		}
		player := score.Winner(scores)
		if opt.IsSome(player) {
			winner = opt.Some(c.clients[player.Value].Name)
		}
	}

	if opt.IsNone(winner) {
		c.Message("The game ended in a tie.")
		return
	}

	c.Message(fmt.Sprintf("%s wins the game!", winner.Value))
}

// Leaders returns the first and second place players by raw score. Ties go to
// whoever joined first.
func (c *Coordinator) Leaders() (first, second opt.Option[*Client]) {
	scores := make([]int32, len(c.clients))
	for i, client := range c.clients {
		scores[i] = client.score
	}

	ranked := score.RankPlayers(scores)
	first, second = opt.None[*Client](), opt.None[*Client]()
	if ranked.First >= 0 {
		first = opt.Some(c.clients[ranked.First])
	}
	if ranked.Second >= 0 {
		second = opt.Some(c.clients[ranked.Second])
	}
	return first, second
}

// Snapshot captures the statistics of the match as it stands.
func (c *Coordinator) Snapshot() stats.Snapshot {
	snapshot := stats.Snapshot{
		Server:   c.settings.Name,
		Level:    c.level.Name,
		LevelID:  c.levelID,
		Mode:     c.level.Mode.Info().Name,
		TeamGame: c.IsTeamGame(),
		Duration: c.elapsed,
		Finished: time.Now(),
	}

	for _, team := range c.teams.All() {
		snapshot.Teams = append(snapshot.Teams, stats.TeamSnapshot{
			Name:  team.Name,
			Color: team.Color.Hex(),
			Score: team.Score,
		})
	}

	for _, client := range c.clients {
		if !c.teams.Valid(client.Team) {
			continue
		}

		team := &snapshot.Teams[client.Team]
		team.Players = append(team.Players, stats.PlayerSnapshot{
			Name:          client.Name,
			Bot:           client.Bot,
			Authenticated: client.Authenticated,
			Team:          client.Team,
			Points:        client.score,
			Kills:         client.Stats.Kills,
			Deaths:        client.Stats.Deaths,
			Suicides:      client.Stats.Suicides,
			Fratricides:   client.Stats.Fratricides,
			SwitchedTeams: client.Stats.SwitchedTeams,
			Role:          client.Role.String(),
			Active:        client.Bot || client.Moved,
		})
	}

	first, second := c.Leaders()
	if opt.IsSome(first) {
		snapshot.Leader = first.Value.Name
	}
	if opt.IsSome(second) {
		snapshot.RunnerUp = second.Value.Name
	}

	snapshot.Resolve()
	return snapshot
}

func (c *Coordinator) saveStats() {
	if c.stats == nil || !c.settings.Stats.Enabled {
		return
	}

	if !c.stats.Submit(c.Snapshot()) {
		c.logger.Warn().Msg("stats queue full, dropping match")
	}
}
