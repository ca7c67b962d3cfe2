package session

import (
	"fmt"
	"net/netip"
	"time"

	"github.com/repeale/fp-go/option"

	"github.com/cfoust/sortie/pkg/game/teams"
	"github.com/cfoust/sortie/pkg/protocol"
)

func (c *Coordinator) hasLevelChangePassword() bool {
	return c.settings.Game.Passwords.LevelChange != ""
}

// outranks reports whether source may moderate target.
func outranks(source, target *Client) bool {
	return source != target && source.Role > target.Role
}

// changeGameTime handles both setting and extending the clock.
func (c *Coordinator) changeGameTime(client *Client, amount time.Duration, add bool) {
	if !client.IsLevelChanger() || c.IsOver() {
		return
	}

	if negativeGameTime(amount, add, c.clock.Current()) {
		c.fail(client, "!!! Game time cannot be negative")
		return
	}

	if !client.IsAdmin() && !c.hasLevelChangePassword() && c.humanCount() > 1 {
		kind := VoteSetTime
		if add {
			kind = VoteAddTime
		}
		if c.votes.Start(client, kind, int32(amount.Milliseconds())) {
			return
		}
	}

	c.applyGameTime(client.Name, amount, add)
}

func negativeGameTime(amount time.Duration, add bool, current time.Duration) bool {
	if add {
		return amount+current < 0
	}
	return amount < 0
}

func (c *Coordinator) applyGameTime(changer string, amount time.Duration, add bool) {
	// the clock may have run down while a vote was open
	if negativeGameTime(amount, add, c.clock.Current()) {
		return
	}

	unlimited := !add && amount == 0
	if add {
		amount += c.clock.Current()
	}
	if amount > c.clock.Max() {
		amount = c.clock.Max()
	}

	switch {
	case unlimited:
		c.clock.SetTimeRemaining(c.clock.Max(), true)
	case !add || !c.clock.IsUnlimited():
		c.clock.SetTimeRemaining(amount, false)
	default:
		return
	}

	c.broadcastNewRemainingTime()
	c.Message(fmt.Sprintf("%s has changed the game time", changer))
}

func (c *Coordinator) SetTime(client *Client, amount time.Duration) {
	c.changeGameTime(client, amount, false)
}

func (c *Coordinator) AddTime(client *Client, amount time.Duration) {
	c.changeGameTime(client, amount, true)
}

// ChangeTeams is a player asking to switch teams.
func (c *Coordinator) ChangeTeams(client *Client, team int) {
	if c.IsOver() {
		return
	}

	if !client.IsAdmin() && client.switchTeams.Running() {
		c.send(client, protocol.CanSwitchTeams{Allowed: false})
		return
	}

	if (!client.IsLevelChanger() || !c.hasLevelChangePassword()) && c.humanCount() > 1 {
		if c.votes.Start(client, VoteChangeTeam, int32(team)) {
			return
		}
	}

	// a team change is activity; spawning on the new team must not be delayed
	client.idle = 0
	c.ChangeClientTeam(client, team)

	if !client.IsAdmin() && c.humanCount() > 1 {
		c.send(client, protocol.CanSwitchTeams{Allowed: false})
		client.switchTeams.ResetTo(c.settings.Game.SwitchTeamsDelay.Std())
	}
}

func (c *Coordinator) SetWinningScore(client *Client, value int32) {
	if !client.IsLevelChanger() || value <= 0 {
		return
	}

	if !c.level.Mode.Info().CanChangeWinningScore {
		return
	}

	if !client.IsAdmin() && !c.hasLevelChangePassword() && c.humanCount() > 1 {
		if c.votes.Start(client, VoteSetWinningScore, value) {
			return
		}
	}

	c.applyWinningScore(client.Name, value)
}

func (c *Coordinator) applyWinningScore(changer string, value int32) {
	c.board.SetWinningScore(value)
	c.Broadcast(protocol.WinningScoreChanged{Score: value, Changer: changer})
}

func (c *Coordinator) ResetScore(client *Client) {
	if !client.IsLevelChanger() {
		return
	}

	if !c.level.Mode.Info().CanChangeWinningScore {
		return
	}

	if c.votes.Start(client, VoteResetScore, 0) {
		return
	}

	c.applyResetScore(client.Name)
}

func (c *Coordinator) applyResetScore(changer string) {
	for i, client := range c.clients {
		if client.score != 0 {
			c.Broadcast(protocol.SetPlayerScore{Index: int32(i), Score: 0})
		}
		client.score = 0
	}

	for i, team := range c.teams.All() {
		if team.Score != 0 {
			c.Broadcast(protocol.SetTeamScore{Team: int32(i), Score: 0})
		}
	}
	c.teams.ResetScores()
	c.board.RecalculateLeader()

	c.Message(fmt.Sprintf("%s has reset the score of the game", changer))
}

// ApplyVote runs a command whose vote passed.
func (c *Coordinator) ApplyVote(initiator *Client, kind VoteKind, value int32) {
	switch kind {
	case VoteSetTime:
		c.applyGameTime(initiator.Name, time.Duration(value)*time.Millisecond, false)
	case VoteAddTime:
		c.applyGameTime(initiator.Name, time.Duration(value)*time.Millisecond, true)
	case VoteSetWinningScore:
		c.applyWinningScore(initiator.Name, value)
	case VoteResetScore:
		c.applyResetScore(initiator.Name)
	case VoteChangeTeam:
		c.ChangeClientTeam(initiator, int(value))
	}
}

// AddBot handles a client asking for a robot.
func (c *Coordinator) AddBot(client *Client, args []string) {
	bots := c.settings.Bots

	switch {
	case c.level.BotZoneFailed:
		c.fail(client, "!!! Zone creation failed for this level -- bots disabled")
	case !c.level.BotsAllowed && !client.IsAdmin():
		c.fail(client, "!!! This level does not allow robots")
	case !client.IsAdmin() && bots.DefaultScript == "" && len(args) < 2:
		c.fail(client, "!!! This server doesn't have default robots configured")
	case !client.IsLevelChanger():
		return
	case (c.BotCount() >= bots.MaxBots && !client.IsAdmin()) || c.BotCount() >= AbsoluteMaxBots:
		c.fail(client, "!!! Can't add more bots -- this server is full")
	case len(args) >= 2 && !safeFilename(args[1]):
		c.fail(client, "!!! Invalid filename")
	default:
		if _, err := c.addBot(args); err != nil {
			c.fail(client, "!!! "+err.Error())
			return
		}

		c.botBalancingDisabled = true
		c.Message(fmt.Sprintf("Robot added by %s", client.Name))
	}
}

// AddBots keeps adding robots until the count is reached or one fails.
func (c *Coordinator) AddBots(client *Client, count int, args []string) {
	if !client.IsLevelChanger() {
		return
	}

	previous := -1
	for count > 0 && previous != c.BotCount() {
		count--
		previous = c.BotCount()
		c.AddBot(client, args)
	}
}

// KickBot removes one robot from the largest team that has any.
func (c *Coordinator) KickBot(client *Client) {
	if !client.IsLevelChanger() {
		return
	}

	if c.BotCount() == 0 {
		c.fail(client, "!!! There are no robots to kick")
		return
	}

	c.recount()
	team := c.teams.Largest(func(t *teams.Team) bool { return t.Bots > 0 })
	population{c}.RemoveBotFromTeam(team)

	c.botBalancingDisabled = true
	c.Message(fmt.Sprintf("Robot kicked by %s", client.Name))
}

func (c *Coordinator) KickBots(client *Client) {
	if !client.IsLevelChanger() {
		return
	}

	if c.BotCount() == 0 {
		c.fail(client, "!!! There are no robots to kick")
		return
	}

	c.removeBots(func(*Client) bool { return true })

	c.botBalancingDisabled = true
	c.Message(fmt.Sprintf("All robots kicked by %s", client.Name))
}

func (c *Coordinator) removeBots(match func(*Client) bool) int {
	removed := 0
	for _, client := range append([]*Client(nil), c.clients...) {
		if client.Bot && match(client) {
			c.RemoveClient(client)
			removed++
		}
	}
	return removed
}

// ShowBots toggles revealing every robot on commander maps. Only testing
// servers allow it.
func (c *Coordinator) ShowBots(client *Client) {
	if !c.settings.Bots.Testing {
		return
	}

	c.scope.RevealBots = !c.scope.RevealBots

	if c.BotCount() == 0 {
		c.fail(client, "!!! There are no robots to show")
		return
	}

	state := "disabled"
	if c.scope.RevealBots {
		state = "enabled"
	}
	c.Message(fmt.Sprintf("Show all robots option %s by %s", state, client.Name))
}

func (c *Coordinator) SetMaxBots(client *Client, count int) {
	if !client.IsAdmin() || count <= 0 {
		return
	}

	c.settings.Bots.MaxBots = count
	c.tell(client, fmt.Sprintf("Maximum bots was changed to %d", count))
}

// banDuration falls back to the default for anything but a positive count, so
// a bad value never turns into a permanent ban.
func (c *Coordinator) banDuration(minutes int32) time.Duration {
	if minutes <= 0 {
		return c.settings.Bans.DefaultDuration.Std()
	}
	return time.Duration(minutes) * time.Minute
}

func (c *Coordinator) address(client *Client) string {
	if c.transport == nil || client.Bot {
		return ""
	}
	return c.transport.Address(client.Conn)
}

func (c *Coordinator) BanPlayer(client *Client, name string, minutes int32) {
	if !client.IsAdmin() {
		return
	}

	found := c.ClientByName(name)
	if opt.IsNone(found) {
		return
	}
	target := found.Value

	if target.Bot || !outranks(client, target) {
		return
	}

	duration := c.banDuration(minutes)
	address := c.address(target)
	if c.banList != nil && address != "" {
		if err := c.banList.Add(address, duration, "banned by "+client.Name, !target.Authenticated); err != nil {
			c.logger.Error().Err(err).Str("address", address).Msg("could not ban player")
		}
	}

	c.logger.Info().
		Str("address", address).
		Dur("duration", duration).
		Msgf("%s was banned", target.Name)

	c.disconnect(target, ReasonBanned)
	c.tell(client, "Player was banned")
}

func (c *Coordinator) BanIP(client *Client, ip string, minutes int32) {
	if !client.IsAdmin() {
		return
	}

	address, err := netip.ParseAddr(ip)
	if err != nil {
		return
	}

	duration := c.banDuration(minutes)

	var targets []*Client
	for _, other := range c.clients {
		connected, err := netip.ParseAddr(c.address(other))
		if err != nil || connected != address {
			continue
		}

		if other == client {
			c.tell(client, "Can't ban yourself")
			return
		}
		targets = append(targets, other)
	}

	for _, target := range targets {
		c.disconnect(target, ReasonBanned)
	}

	if c.banList != nil {
		if err := c.banList.Add(address.String(), duration, "banned by "+client.Name, true); err != nil {
			c.logger.Error().Err(err).Str("address", ip).Msg("could not ban address")
		}
	}

	c.logger.Info().Str("address", ip).Dur("duration", duration).Msg("address banned")

	if len(targets) == 0 {
		c.tell(client, "Client has been banned but is no longer connected")
	} else {
		c.tell(client, "Client was banned and kicked")
	}
}

func (c *Coordinator) RenamePlayer(client *Client, name, newName string) {
	if !client.IsAdmin() {
		return
	}

	found := c.ClientByName(name)
	if opt.IsNone(found) {
		return
	}
	target := found.Value

	if target.Authenticated || !outranks(client, target) {
		return
	}

	unique := c.UniqueName(newName, target)
	old := target.Name
	target.Name = unique
	target.Badges = 0

	c.Broadcast(protocol.ClientRenamed{Old: old, New: unique})
	c.tell(client, "Player has been renamed")
}

func (c *Coordinator) GlobalMutePlayer(client *Client, name string) {
	if !client.IsAdmin() {
		return
	}

	found := c.ClientByName(name)
	if opt.IsNone(found) {
		return
	}
	target := found.Value

	if target.Bot || !outranks(client, target) {
		return
	}

	target.muted = !target.muted

	if c.settings.Game.VoiceChat {
		c.send(target, protocol.VoiceMuted{Muted: target.muted})
	}

	if target.muted {
		c.tell(client, "Player is muted")
	} else {
		c.tell(client, "Player is unmuted")
	}
}

func (c *Coordinator) TriggerTeamChange(client *Client, name string, team int) {
	if !client.IsAdmin() {
		return
	}

	found := c.ClientByName(name)
	if opt.IsNone(found) {
		return
	}
	target := found.Value

	c.ChangeClientTeam(target, team)

	if !target.Bot {
		c.tell(target, "An admin has shuffled you to a different team")
	}
}

func (c *Coordinator) KickPlayer(client *Client, name string) {
	if !client.IsAdmin() {
		return
	}

	found := c.ClientByName(name)
	if opt.IsNone(found) {
		return
	}
	target := found.Value

	if !target.Bot {
		if !outranks(client, target) {
			if target != client {
				c.fail(client, "Can't kick an administrator!")
			}
			return
		}

		address := c.address(target)
		if c.banList != nil && address != "" {
			if err := c.banList.Kick(address, c.settings.Bans.KickDuration.Std()); err != nil {
				c.logger.Error().Err(err).Str("address", address).Msg("could not kick")
			}
		}
		c.disconnect(target, ReasonKicked)
	}

	c.removeBots(func(bot *Client) bool { return bot.Name == name })

	c.Message(fmt.Sprintf("%s was kicked from the game by %s.", name, client.Name))
}

// SubmitPassword upgrades the client's role when the password matches.
func (c *Coordinator) SubmitPassword(client *Client, password string) {
	role := c.roleFor(password)
	if role <= client.Role {
		return
	}

	client.Role = role
	c.Broadcast(protocol.ClientRoleChanged{
		Name:     client.Name,
		Role:     role,
		Announce: true,
	})

	c.logger.Info().Str("client", client.String()).Str("role", role.String()).Msg("role changed")
}
