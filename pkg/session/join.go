package session

import (
	"fmt"
	"strings"

	"github.com/repeale/fp-go/option"

	"github.com/cfoust/sortie/pkg/game/balance"
	"github.com/cfoust/sortie/pkg/game/teams"
	"github.com/cfoust/sortie/pkg/game/world"
	"github.com/cfoust/sortie/pkg/protocol"
)

// Join describes a connection that wants to enter the match.
type Join struct {
	Conn          ConnID
	Name          string
	Password      string
	Authenticated bool
	Badges        uint32
	Local         bool
}

// UniqueName appends a number to the name until no other participant uses
// it.
func (c *Coordinator) UniqueName(name string, except *Client) string {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "ChumpChange"
	}

	taken := func(candidate string) bool {
		for _, client := range c.clients {
			if client != except && strings.EqualFold(client.Name, candidate) {
				return true
			}
		}
		return false
	}

	candidate := name
	for i := 1; taken(candidate); i++ {
		candidate = fmt.Sprintf("%s.%d", name, i)
	}
	return candidate
}

// roleFor grants the role matching a password. With no level change password
// configured everyone may change levels.
func (c *Coordinator) roleFor(password string) protocol.Role {
	passwords := c.settings.Game.Passwords

	switch {
	case password != "" && password == passwords.Owner:
		return protocol.RoleOwner
	case password != "" && password == passwords.Admin:
		return protocol.RoleAdmin
	case passwords.LevelChange == "" || password == passwords.LevelChange:
		return protocol.RoleLevelChanger
	}
	return protocol.RoleNone
}

// AddClient brings a new connection into the match. Every existing
// participant hears about it before any of its objects are scoped, then the
// new connection receives the setup sequence.
func (c *Coordinator) AddClient(join Join) *Client {
	if existing := c.ClientByConn(join.Conn); opt.IsSome(existing) {
		return existing.Value
	}

	client := &Client{
		ID:            c.nextID,
		Conn:          join.Conn,
		Authenticated: join.Authenticated,
		Badges:        join.Badges,
		Local:         join.Local,
		Role:          c.roleFor(join.Password),
		Team:          -1,
		Avatar:        world.NoHandle,
	}
	c.nextID++
	client.Name = c.UniqueName(join.Name, client)

	c.join(client, -1)
	c.sendSetup(client)

	c.logger.Info().
		Str("client", client.String()).
		Str("role", client.Role.String()).
		Int("team", client.Team).
		Msg("client joined")

	return client
}

func (c *Coordinator) join(client *Client, requestedTeam int) {
	c.assignTeam(client, requestedTeam)
	c.clients = append(c.clients, client)

	c.broadcastExcept(client, protocol.AddClient{
		Name:          client.Name,
		Authenticated: client.Authenticated,
		Badges:        client.Badges,
		Role:          client.Role,
		IsBot:         client.Bot,
		SpawnDelayed:  client.SpawnDelayed,
		Busy:          client.Busy,
		PlayJoinSound: true,
		Announce:      true,
	})

	if client.Team >= 0 {
		c.broadcastExcept(client, protocol.ClientJoinedTeam{
			Name:     client.Name,
			Team:     int32(client.Team),
			Announce: c.IsTeamGame() && !c.IsOver(),
		})
	}

	if client.Bot {
		c.spawn(client)
	}
}

// assignTeam puts the client on the least populated team, then the lowest
// rated. Bots may ask for a team of their own.
func (c *Coordinator) assignTeam(client *Client, requested int) {
	c.recount()

	team := c.teams.Weakest()
	if client.Bot && requested >= 0 && c.teams.Valid(requested) {
		team = requested
	}

	client.Team = team
}

func (c *Coordinator) recount() {
	c.teams.ClearCounts()
	for _, client := range c.clients {
		c.teams.Count(client.Team, client.Bot, client.Rating())
	}
}

func (c *Coordinator) sendSetup(client *Client) {
	if client.Bot {
		return
	}

	c.nextSequence++
	client.sequence = c.nextSequence
	client.ready = false

	level := c.level
	messages := []protocol.Message{
		protocol.SetLevelInfo{
			Name:            level.Name,
			Description:     level.Description,
			TeamScoreLimit:  c.board.WinningScore(),
			Credits:         level.Credits,
			ObjectCount:     int32(c.world.Len()),
			Bounds:          level.Bounds,
			HasLoadoutZone:  level.HasLoadoutZone,
			EngineerEnabled: level.EngineerEnabled,
			AllowBots:       level.BotsAllowed,
			LevelID:         c.levelID,
		},
	}

	for i, team := range c.teams.All() {
		messages = append(messages, protocol.AddTeam{
			Name:  team.Name,
			Color: protocol.Color{R: team.Color.R, G: team.Color.G, B: team.Color.B},
			Score: team.Score,
			First: i == 0,
		})
	}

	messages = append(messages, protocol.FlagPossession{Bits: c.flagBits()})

	for _, other := range c.clients {
		messages = append(messages, protocol.AddClient{
			Name:          other.Name,
			Authenticated: other.Authenticated,
			Badges:        other.Badges,
			IsSelf:        other == client,
			Role:          other.Role,
			IsBot:         other.Bot,
			SpawnDelayed:  other.SpawnDelayed,
			Busy:          other.Busy,
		})

		if other.Team >= 0 {
			messages = append(messages, protocol.ClientJoinedTeam{
				Name: other.Name,
				Team: int32(other.Team),
			})
		}
	}

	// An empty wall clears whatever the client had from the last level
	messages = append(messages, protocol.AddWalls{})
	for _, wall := range level.Walls {
		messages = append(messages, protocol.AddWalls{
			Vertices: wall.Vertices,
			Width:    wall.Width,
			Solid:    wall.Solid,
		})
	}

	messages = append(messages,
		c.remainingTime(),
		protocol.SetGameOver{Over: c.IsOver()},
		protocol.SyncMessagesComplete{Sequence: client.sequence},
	)

	c.send(client, messages...)
}

// SyncComplete handles the client echoing the end of its setup sequence.
// Stale echoes from an earlier level are ignored.
func (c *Coordinator) SyncComplete(client *Client, sequence uint32) {
	if sequence != client.sequence || client.ready {
		return
	}

	client.ready = true
	if client.Avatar == world.NoHandle && !client.respawn.Running() {
		c.spawn(client)
	}
}

// RemoveClient takes a participant out of the match.
func (c *Coordinator) RemoveClient(client *Client) {
	index := c.indexOf(client)
	if index < 0 {
		return
	}

	c.killAvatar(client)
	c.clients = append(c.clients[:index], c.clients[index+1:]...)
	c.Broadcast(protocol.RemoveClient{Name: client.Name})

	c.logger.Info().Str("client", client.String()).Msg("client left")
}

// Leave is called by the transport once a connection is gone.
func (c *Coordinator) Leave(conn ConnID) {
	client := c.ClientByConn(conn)
	if opt.IsNone(client) {
		return
	}
	c.RemoveClient(client.Value)
}

func (c *Coordinator) disconnect(client *Client, reason DisconnectReason) {
	c.RemoveClient(client)
	if c.transport != nil && !client.Bot {
		c.transport.Disconnect(client.Conn, reason)
	}
}

func (c *Coordinator) spawn(client *Client) {
	if client.SpawnDelayed {
		return
	}

	if c.isIdle(client) {
		c.setSpawnDelayed(client, true)
		return
	}

	c.killAvatar(client)

	kind := world.KindShip
	if client.Bot {
		kind = world.KindRobot
	}

	client.Avatar = c.world.Add(world.Object{
		Kind:   kind,
		Team:   client.Team,
		Pos:    c.level.SpawnPoint(client.Team, client.spawns),
		Radius: 24,
		Owner:  client.ID,
	})
	client.spawns++
	client.respawn.Clear()
}

func (c *Coordinator) killAvatar(client *Client) {
	if client.Avatar == world.NoHandle {
		return
	}

	hadFlag := c.carriesFlag(client)
	c.world.Remove(client.Avatar)
	client.Avatar = world.NoHandle

	if hadFlag {
		c.Broadcast(protocol.FlagPossession{Bits: c.flagBits()})
	}
}

func (c *Coordinator) carriesFlag(client *Client) bool {
	if client.Avatar == world.NoHandle {
		return false
	}
	for _, h := range c.world.MountedItems(client.Avatar) {
		item := c.world.Get(h)
		if opt.IsSome(item) && item.Value.Kind == world.KindFlag {
			return true
		}
	}
	return false
}

// flagBits has a bit set for every client carrying a flag.
func (c *Coordinator) flagBits() uint32 {
	var bits uint32
	for i, client := range c.clients {
		if i >= 32 {
			break
		}
		if c.carriesFlag(client) {
			bits |= 1 << uint(i)
		}
	}
	return bits
}

// ChangeClientTeam moves a client to another team. A negative team picks the
// next one.
func (c *Coordinator) ChangeClientTeam(client *Client, team int) {
	numTeams := c.teams.Len()
	if numTeams <= 1 || team >= numTeams || team == client.Team {
		return
	}

	if client.Avatar != world.NoHandle {
		// Mines and spy bugs stop belonging to the player
		c.world.Each(func(o *world.Object) {
			if (o.Kind == world.KindMine || o.Kind == world.KindSpyBug) && o.Owner == client.ID {
				o.Owner = world.NoOwner
			}
		})

		if !client.Bot {
			client.respawn.Clear()
		}
		c.killAvatar(client)
	}

	if team < 0 {
		team = (client.Team + 1) % numTeams
	}
	client.Team = team

	c.Broadcast(protocol.ClientJoinedTeam{
		Name:     client.Name,
		Team:     int32(team),
		Announce: !c.IsOver(),
	})

	c.spawn(client)

	if !client.Bot {
		client.Stats.SwitchedTeams++
	}
}

// population lets the balancer add and remove bots.
type population struct {
	c *Coordinator
}

func (p population) Recount() {
	p.c.recount()
}

func (p population) Teams() *teams.Registry {
	return p.c.teams
}

func (p population) ClientCount() int {
	return len(p.c.clients)
}

func (p population) RemoveBotFromTeam(team int) bool {
	for i := len(p.c.clients) - 1; i >= 0; i-- {
		client := p.c.clients[i]
		if client.Bot && client.Team == team {
			p.c.RemoveClient(client)
			return true
		}
	}
	return false
}

func (p population) AddBot() bool {
	_, err := p.c.addBot(nil)
	if err != nil {
		p.c.logger.Warn().Err(err).Msg("could not add balancing bot")
		return false
	}
	return true
}

var _ balance.Population = population{}

// addBot starts a robot. The first argument is its team, the second its
// script and the rest go to the script.
func (c *Coordinator) addBot(args []string) (*Client, error) {
	team := -1
	if len(args) > 0 {
		if _, err := fmt.Sscanf(args[0], "%d", &team); err != nil {
			team = -1
		}
	}

	script := c.settings.Bots.DefaultScript
	var scriptArgs []string
	if len(args) > 1 {
		script = args[1]
		scriptArgs = args[2:]
	}

	name, err := c.bots.NewBot(script, scriptArgs)
	if err != nil {
		return nil, err
	}

	client := &Client{
		ID:     c.nextID,
		Bot:    true,
		Team:   -1,
		Avatar: world.NoHandle,
	}
	c.nextID++
	client.Name = c.UniqueName(name, client)

	c.join(client, team)

	c.logger.Info().
		Str("client", client.String()).
		Int("team", client.Team).
		Msg("robot added")

	return client, nil
}
