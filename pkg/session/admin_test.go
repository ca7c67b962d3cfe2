package session

import (
	"errors"
	"testing"
	"time"

	"github.com/cfoust/sortie/pkg/bans"
	"github.com/cfoust/sortie/pkg/config"
	"github.com/cfoust/sortie/pkg/protocol"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitPassword(t *testing.T) {
	f := newFixture(soloLevel())
	a := f.join(1, "a", "")
	f.join(2, "b", "")
	assert.Equal(t, protocol.RoleNone, a.Role)

	f.c.SubmitPassword(a, "wrong")
	assert.Equal(t, protocol.RoleNone, a.Role)

	f.c.SubmitPassword(a, "admin")
	assert.True(t, a.IsAdmin())
	assert.Equal(t,
		[]protocol.ClientRoleChanged{{Name: "a", Role: protocol.RoleAdmin, Announce: true}},
		received[protocol.ClientRoleChanged](f.rec, 2),
	)

	// never a downgrade
	f.c.SubmitPassword(a, "level")
	assert.Equal(t, protocol.RoleAdmin, a.Role)
}

func TestEveryoneChangesLevelsWithoutPassword(t *testing.T) {
	f := newFixture(soloLevel(), func(o *Options) {
		o.Settings.Game.Passwords.LevelChange = ""
	})
	a := f.join(1, "a", "")
	assert.True(t, a.IsLevelChanger())
	assert.False(t, a.IsAdmin())
}

func TestSetTime(t *testing.T) {
	f := newFixture(soloLevel())
	admin := f.join(1, "admin", "admin")
	player := f.join(2, "player", "")

	f.c.SetTime(player, 5*time.Minute)
	assert.Equal(t, 10*time.Minute, f.c.Clock().Current())

	f.c.SetTime(admin, 5*time.Minute)
	assert.Equal(t, 5*time.Minute, f.c.Clock().Current())
	assert.Contains(t, texts(f.rec, 2), "admin has changed the game time")

	f.c.AddTime(admin, time.Minute)
	assert.Equal(t, 6*time.Minute, f.c.Clock().Current())

	f.c.SetTime(admin, 2000*time.Minute)
	assert.Equal(t, 999*time.Minute, f.c.Clock().Current())

	f.c.SetTime(admin, 0)
	assert.True(t, f.c.Clock().IsUnlimited())
	remaining := received[protocol.NewTimeRemaining](f.rec, 2)
	assert.True(t, remaining[len(remaining)-1].Unlimited)

	// adding to an unlimited game does nothing
	f.c.AddTime(admin, time.Minute)
	assert.True(t, f.c.Clock().IsUnlimited())
}

func TestNegativeGameTime(t *testing.T) {
	for _, test := range []struct {
		name   string
		change func(c *Coordinator, admin *Client)
	}{
		{"set below zero", func(c *Coordinator, admin *Client) { c.SetTime(admin, -time.Second) }},
		{"add past zero", func(c *Coordinator, admin *Client) { c.AddTime(admin, -6*time.Minute) }},
	} {
		t.Run(test.name, func(t *testing.T) {
			f := newFixture(soloLevel())
			admin := f.join(1, "admin", "admin")
			f.c.SetTime(admin, 5*time.Minute)
			f.rec.clear()

			test.change(f.c, admin)
			assert.Equal(t, 5*time.Minute, f.c.Clock().Current())
			assert.False(t, f.c.Clock().IsUnlimited())
			assert.Equal(t, []string{"!!! Game time cannot be negative"}, texts(f.rec, 1))
			assert.Empty(t, received[protocol.NewTimeRemaining](f.rec, 1))
		})
	}

	f := newFixture(soloLevel())
	admin := f.join(1, "admin", "admin")
	f.c.SetTime(admin, 5*time.Minute)
	f.c.AddTime(admin, -2*time.Minute)
	assert.Equal(t, 3*time.Minute, f.c.Clock().Current())
}

func TestCommandsStartVotes(t *testing.T) {
	f := newFixture(soloLevel(), func(o *Options) {
		o.Settings.Game.Passwords.LevelChange = ""
	})
	f.votes.accept = true
	a := f.join(1, "a", "")

	// alone there is nobody to vote with
	f.c.SetTime(a, 5*time.Minute)
	assert.Equal(t, 5*time.Minute, f.c.Clock().Current())
	assert.Empty(t, f.votes.started)

	f.join(2, "b", "")
	f.c.SetTime(a, 3*time.Minute)
	assert.Equal(t, 5*time.Minute, f.c.Clock().Current())
	require.Len(t, f.votes.started, 1)
	assert.Equal(t, vote{a, VoteSetTime, 180000}, f.votes.started[0])

	f.c.ApplyVote(a, VoteSetTime, 180000)
	assert.Equal(t, 3*time.Minute, f.c.Clock().Current())

	f.c.SetWinningScore(a, 20)
	assert.Equal(t, int32(8), f.c.Board().WinningScore())
	f.c.ApplyVote(a, VoteSetWinningScore, 20)
	assert.Equal(t, int32(20), f.c.Board().WinningScore())
	assert.Contains(t, received[protocol.WinningScoreChanged](f.rec, 2), protocol.WinningScoreChanged{Score: 20, Changer: "a"})
}

func TestSetWinningScore(t *testing.T) {
	f := newFixture(soloLevel())
	admin := f.join(1, "admin", "admin")

	f.c.SetWinningScore(admin, 0)
	assert.Equal(t, int32(8), f.c.Board().WinningScore())

	f.c.SetWinningScore(admin, 12)
	assert.Equal(t, int32(12), f.c.Board().WinningScore())
}

func TestResetScore(t *testing.T) {
	f := newFixture(teamLevel("Blue", "Red"))
	admin := f.join(1, "admin", "admin")
	other := f.join(2, "other", "")

	other.AddScore(3)
	f.c.Teams().AddTeamScore(1, 4)

	f.c.ResetScore(admin)

	assert.Equal(t, int32(0), other.Score())
	assert.Equal(t, int32(0), f.c.Teams().TeamScore(1))
	assert.Contains(t, received[protocol.SetPlayerScore](f.rec, 2), protocol.SetPlayerScore{Index: 1, Score: 0})
	assert.Contains(t, received[protocol.SetTeamScore](f.rec, 2), protocol.SetTeamScore{Team: 1, Score: 0})
	assert.Contains(t, texts(f.rec, 2), "admin has reset the score of the game")
}

func TestAddBotDenials(t *testing.T) {
	f := newFixture(soloLevel(), func(o *Options) {
		o.Settings.Game.Passwords.LevelChange = ""
		o.Settings.Bots.MaxBots = 1
	})
	a := f.join(1, "a", "")

	f.c.AddBot(a, nil)
	assert.Equal(t, []string{"!!! This server doesn't have default robots configured"}, texts(f.rec, 1)[0:1])

	f.c.settings.Bots.DefaultScript = "scripts/hunter.bot"
	f.rec.clear()
	f.c.AddBot(a, nil)
	assert.Equal(t, []string{"Robot added by a"}, texts(f.rec, 1))
	require.Equal(t, 1, f.c.BotCount())
	assert.Equal(t, "hunter", f.c.Clients()[1].Name)

	f.rec.clear()
	f.c.AddBot(a, nil)
	assert.Equal(t, []string{"!!! Can't add more bots -- this server is full"}, texts(f.rec, 1))

	f.c.settings.Bots.MaxBots = 5
	f.rec.clear()
	f.c.AddBot(a, []string{"0", "../secret"})
	assert.Equal(t, []string{"!!! Invalid filename"}, texts(f.rec, 1))

	f.c.level.BotsAllowed = false
	f.rec.clear()
	f.c.AddBot(a, nil)
	assert.Equal(t, []string{"!!! This level does not allow robots"}, texts(f.rec, 1))
}

type failingBots struct{}

func (failingBots) NewBot(string, []string) (string, error) {
	return "", errors.New("script crashed")
}

func TestAddBotFailure(t *testing.T) {
	f := newFixture(soloLevel(), func(o *Options) {
		o.Bots = failingBots{}
	})
	admin := f.join(1, "admin", "admin")

	f.c.AddBot(admin, []string{"0", "bot.lua"})
	assert.Equal(t, []string{"!!! script crashed"}, texts(f.rec, 1))
	assert.Equal(t, 0, f.c.BotCount())
}

func TestAddBotsStopsWhenFull(t *testing.T) {
	f := newFixture(soloLevel(), func(o *Options) {
		o.Settings.Bots.DefaultScript = "bot"
		o.Settings.Bots.MaxBots = 3
	})
	changer := f.join(1, "changer", "level")

	f.c.AddBots(changer, 10, nil)
	assert.Equal(t, 3, f.c.BotCount())
}

func TestKickBots(t *testing.T) {
	f := newFixture(teamLevel("Blue", "Red"))
	admin := f.join(1, "admin", "admin")

	f.c.KickBot(admin)
	assert.Equal(t, []string{"!!! There are no robots to kick"}, texts(f.rec, 1))

	_, err := f.c.addBot([]string{"1"})
	require.NoError(t, err)
	_, err = f.c.addBot([]string{"1"})
	require.NoError(t, err)

	f.rec.clear()
	f.c.KickBot(admin)
	assert.Equal(t, []string{"Robot kicked by admin"}, texts(f.rec, 1))
	f.c.recount()
	assert.Equal(t, 1, f.c.Teams().All()[1].Bots)
	assert.True(t, f.c.botBalancingDisabled)

	f.rec.clear()
	f.c.KickBots(admin)
	assert.Equal(t, 0, f.c.BotCount())
	assert.Equal(t, []string{"All robots kicked by admin"}, texts(f.rec, 1))
}

func TestShowBots(t *testing.T) {
	f := newFixture(soloLevel())
	a := f.join(1, "a", "")

	f.c.ShowBots(a)
	assert.False(t, f.c.scope.RevealBots)

	f.c.settings.Bots.Testing = true
	f.c.ShowBots(a)
	assert.True(t, f.c.scope.RevealBots)
	assert.Equal(t, []string{"!!! There are no robots to show"}, texts(f.rec, 1))
}

func TestSetMaxBots(t *testing.T) {
	f := newFixture(soloLevel())
	admin := f.join(1, "admin", "admin")

	f.c.SetMaxBots(admin, 0)
	assert.Equal(t, 10, f.c.Settings().Bots.MaxBots)

	f.c.SetMaxBots(admin, 4)
	assert.Equal(t, 4, f.c.Settings().Bots.MaxBots)
	assert.Equal(t, []string{"Maximum bots was changed to 4"}, texts(f.rec, 1))
}

func TestBanPlayer(t *testing.T) {
	list := bans.New(&bans.MemoryStore{})
	f := newFixture(soloLevel(), func(o *Options) {
		o.Bans = list
	})
	admin := f.join(1, "admin", "admin")
	owner := f.join(2, "owner", "owner")
	f.join(3, "target", "")

	f.c.BanPlayer(admin, "owner", 0)
	assert.Contains(t, f.c.Clients(), owner)

	f.c.BanPlayer(admin, "target", 5)
	assert.Equal(t, ReasonBanned, f.rec.dropped[3])
	assert.True(t, list.IsBanned("10.0.0.3", false))
	assert.False(t, list.IsBanned("10.0.0.3", true))
	assert.Contains(t, texts(f.rec, 1), "Player was banned")
	assert.Len(t, f.c.Clients(), 2)
}

func TestBanNegativeMinutes(t *testing.T) {
	list := bans.New(&bans.MemoryStore{})
	f := newFixture(soloLevel(), func(o *Options) {
		o.Bans = list
	})
	admin := f.join(1, "admin", "admin")
	f.join(2, "target", "")

	f.c.BanPlayer(admin, "target", -5)
	assert.Equal(t, ReasonBanned, f.rec.dropped[2])

	entries := list.Entries()
	require.Len(t, entries, 1)
	require.False(t, entries[0].Expires.IsZero())
	assert.WithinDuration(t, time.Now().Add(time.Hour), entries[0].Expires, time.Minute)
}

func TestBanIP(t *testing.T) {
	list := bans.New(&bans.MemoryStore{})
	f := newFixture(soloLevel(), func(o *Options) {
		o.Bans = list
	})
	admin := f.join(1, "admin", "admin")
	f.join(2, "target", "")

	f.c.BanIP(admin, "10.0.0.1", 0)
	assert.Equal(t, []string{"Can't ban yourself"}, texts(f.rec, 1))
	assert.False(t, list.IsBanned("10.0.0.1", false))

	f.rec.clear()
	f.c.BanIP(admin, "10.0.0.2", 0)
	assert.Equal(t, ReasonBanned, f.rec.dropped[2])
	assert.True(t, list.IsBanned("10.0.0.2", false))
	assert.False(t, list.IsBanned("10.0.0.2", true))
	assert.Equal(t, []string{"Client was banned and kicked"}, texts(f.rec, 1))

	f.rec.clear()
	f.c.BanIP(admin, "10.0.0.9", 0)
	assert.Equal(t, []string{"Client has been banned but is no longer connected"}, texts(f.rec, 1))
}

func TestKickPlayer(t *testing.T) {
	list := bans.New(&bans.MemoryStore{})
	f := newFixture(soloLevel(), func(o *Options) {
		o.Bans = list
	})
	admin := f.join(1, "admin", "admin")
	f.join(2, "other", "admin")
	f.join(3, "target", "")

	f.c.KickPlayer(admin, "other")
	assert.Equal(t, []string{"Can't kick an administrator!"}, texts(f.rec, 1))
	assert.Empty(t, f.rec.dropped)

	f.rec.clear()
	f.c.KickPlayer(admin, "target")
	assert.Equal(t, ReasonKicked, f.rec.dropped[3])
	assert.True(t, list.IsBanned("10.0.0.3", true))
	assert.Contains(t, texts(f.rec, 1), "target was kicked from the game by admin.")
}

func TestKickPlayerRemovesBots(t *testing.T) {
	f := newFixture(soloLevel())
	admin := f.join(1, "admin", "admin")
	_, err := f.c.addBot(nil)
	require.NoError(t, err)

	f.c.KickPlayer(admin, "Robot")
	assert.Equal(t, 0, f.c.BotCount())
}

func TestRenamePlayer(t *testing.T) {
	f := newFixture(soloLevel())
	admin := f.join(1, "admin", "admin")
	target := f.join(2, "target", "")
	f.join(3, "taken", "")

	f.c.RenamePlayer(admin, "target", "taken")
	assert.Equal(t, "taken.1", target.Name)
	assert.Contains(t, received[protocol.ClientRenamed](f.rec, 3), protocol.ClientRenamed{Old: "target", New: "taken.1"})
	assert.Contains(t, texts(f.rec, 1), "Player has been renamed")

	target.Authenticated = true
	f.c.RenamePlayer(admin, "taken.1", "other")
	assert.Equal(t, "taken.1", target.Name)

	f.rec.clear()
	f.c.RenamePlayer(admin, "admin", "boss")
	assert.Equal(t, "admin", admin.Name)
	assert.Empty(t, received[protocol.ClientRenamed](f.rec, 3))
}

func TestGlobalMute(t *testing.T) {
	f := newFixture(soloLevel())
	admin := f.join(1, "admin", "admin")
	target := f.join(2, "target", "")

	f.c.GlobalMutePlayer(admin, "target")
	assert.True(t, target.IsMuted())
	assert.Equal(t, []protocol.VoiceMuted{{Muted: true}}, received[protocol.VoiceMuted](f.rec, 2))
	assert.Equal(t, []string{"Player is muted"}, texts(f.rec, 1))

	f.rec.clear()
	f.c.Chat(target, "hello", true)
	assert.Empty(t, received[protocol.DisplayChatMessage](f.rec, 1))

	f.rec.clear()
	f.c.GlobalMutePlayer(admin, "target")
	assert.False(t, target.IsMuted())
	assert.Equal(t, []string{"Player is unmuted"}, texts(f.rec, 1))

	// admins cannot mute themselves or their equals
	f.c.GlobalMutePlayer(admin, "admin")
	assert.False(t, admin.IsMuted())
}

func TestTriggerTeamChange(t *testing.T) {
	f := newFixture(teamLevel("Blue", "Red"))
	admin := f.join(1, "admin", "admin")
	target := f.join(2, "target", "")
	require.Equal(t, 1, target.Team)

	f.c.TriggerTeamChange(admin, "target", 0)
	assert.Equal(t, 0, target.Team)
	assert.Equal(t, []string{"An admin has shuffled you to a different team"}, texts(f.rec, 2))
}

func TestReloadConfig(t *testing.T) {
	reloaded := testSettings()
	reloaded.Game.VoiceChat = false
	reloaded.Bots.MaxBots = 3

	f := newFixture(soloLevel(), func(o *Options) {
		o.Reload = func() (config.ServerSettings, error) {
			return reloaded, nil
		}
	})
	admin := f.join(1, "admin", "admin")
	player := f.join(2, "player", "")

	f.c.Chat(player, "#loadini", true)
	assert.Equal(t, []string{"!!! Need admin"}, texts(f.rec, 2))

	f.c.Chat(admin, "#loadsetting", true)
	assert.Equal(t, 3, f.c.Settings().Bots.MaxBots)
	assert.Contains(t, texts(f.rec, 1), "Configuration settings loaded")
	assert.Equal(t, []protocol.VoiceMuted{{Muted: true}}, received[protocol.VoiceMuted](f.rec, 2))
}
