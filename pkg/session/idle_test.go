package session

import (
	"testing"
	"time"

	"github.com/cfoust/sortie/pkg/game/score"
	"github.com/cfoust/sortie/pkg/game/world"
	"github.com/cfoust/sortie/pkg/protocol"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func idleFixture() *fixture {
	return newFixture(soloLevel(), func(o *Options) {
		o.Settings.Game.IdleSpawnDelay = duration(20 * time.Second)
	})
}

func TestIdleSpawnDelay(t *testing.T) {
	f := idleFixture()
	a := f.join(1, "a", "")
	f.join(2, "b", "")

	// idling only matters once the ship is gone
	f.c.Tick(30 * time.Second)
	require.NotEqual(t, world.NoHandle, a.Avatar)
	assert.False(t, a.SpawnDelayed)

	f.c.ClientKilled(a, world.NoHandle)
	f.c.Tick(2 * time.Second)
	assert.True(t, a.SpawnDelayed)
	assert.Equal(t, world.NoHandle, a.Avatar)
	assert.Contains(t, received[protocol.SpawnDelayed](f.rec, 2), protocol.SpawnDelayed{Name: "a", Delayed: true})

	// a delayed player stays delayed until they ask
	f.c.Tick(time.Minute)
	assert.Equal(t, world.NoHandle, a.Avatar)

	f.rec.clear()
	f.c.Handle(1, protocol.SpawnUndelayed{})
	assert.False(t, a.SpawnDelayed)
	assert.NotEqual(t, world.NoHandle, a.Avatar)
	assert.Equal(t, []protocol.SpawnDelayed{{Name: "a", Delayed: false}}, received[protocol.SpawnDelayed](f.rec, 2))

	// nothing happens for a player who was never delayed
	f.rec.clear()
	f.c.Handle(1, protocol.SpawnUndelayed{})
	assert.Empty(t, received[protocol.SpawnDelayed](f.rec, 2))
}

func TestMovingKeepsPlayerActive(t *testing.T) {
	f := idleFixture()
	a := f.join(1, "a", "")

	f.c.Tick(15 * time.Second)
	f.c.MoveObject(a.Avatar, world.Point{X: 10})
	f.c.Tick(15 * time.Second)

	f.c.ClientKilled(a, world.NoHandle)
	f.c.Tick(2 * time.Second)
	assert.False(t, a.SpawnDelayed)
	assert.NotEqual(t, world.NoHandle, a.Avatar)
}

func TestBotsNeverIdle(t *testing.T) {
	f := idleFixture()
	f.c.settings.Bots.DefaultScript = "scripts/hunter.bot"
	admin := f.join(1, "admin", "admin")
	f.c.AddBot(admin, nil)

	var bot *Client
	for _, client := range f.c.Clients() {
		if client.Bot {
			bot = client
		}
	}
	require.NotNil(t, bot)

	f.c.Tick(time.Minute)
	f.c.ClientKilled(bot, world.NoHandle)
	f.c.Tick(2 * time.Second)
	assert.False(t, bot.SpawnDelayed)
	assert.NotEqual(t, world.NoHandle, bot.Avatar)
}

func TestSetBusy(t *testing.T) {
	f := idleFixture()
	a := f.join(1, "a", "")
	f.join(2, "b", "")

	f.c.Handle(1, protocol.SetBusy{Busy: true})
	assert.True(t, a.Busy)
	assert.Equal(t, []protocol.ClientBusy{{Name: "a", Busy: true}}, received[protocol.ClientBusy](f.rec, 2))

	f.c.Handle(1, protocol.SetBusy{Busy: true})
	assert.Len(t, received[protocol.ClientBusy](f.rec, 2), 1)

	// leaving the chat prompt counts as activity
	f.c.Tick(30 * time.Second)
	f.c.Handle(1, protocol.SetBusy{Busy: false})
	assert.False(t, a.Busy)

	f.c.ClientKilled(a, world.NoHandle)
	f.c.Tick(2 * time.Second)
	assert.False(t, a.SpawnDelayed)
}

func TestFlagCaptureBadge(t *testing.T) {
	level := teamLevel("Blue", "Red")
	level.WinningScore = 10000
	f := newFixture(level)
	a := f.join(1, "a", "")
	f.join(2, "b", "")

	for i := 0; i < BadgeFlagCaptures-1; i++ {
		f.c.UpdateScore(a, score.CaptureFlag, 0)
	}
	assert.Empty(t, received[protocol.AchievementMessage](f.rec, 2))
	assert.Zero(t, a.Badges)

	f.c.UpdateScore(a, score.CaptureFlag, 0)
	assert.Equal(t,
		[]protocol.AchievementMessage{{Achievement: protocol.BadgeTwentyFiveFlags, Name: "a"}},
		received[protocol.AchievementMessage](f.rec, 2),
	)
	assert.Equal(t, uint32(1)<<protocol.BadgeTwentyFiveFlags, a.Badges)
	assert.Equal(t, BadgeFlagCaptures, a.Stats.FlagCaptures)

	f.c.UpdateScore(a, score.CaptureFlag, 0)
	assert.Len(t, received[protocol.AchievementMessage](f.rec, 2), 1)
}
