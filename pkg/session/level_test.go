package session

import (
	"testing"
	"time"

	"github.com/cfoust/sortie/pkg/config"
	"github.com/cfoust/sortie/pkg/game/score"
	"github.com/cfoust/sortie/pkg/game/teams"
	"github.com/cfoust/sortie/pkg/game/world"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelFromConfig(t *testing.T) {
	level, err := LevelFromConfig(config.Level{
		Name:     "Twin Flags",
		Mode:     "CTFGameType",
		Args:     "8 5",
		Specials: "Specials Engineer NoBots Gravity",
		Walls: []config.Wall{
			{Vertices: []float32{0, -400, 0, 400}, Width: 40},
		},
		Teams: []config.Team{
			{Name: "Blue", Color: "0000FF", Spawns: [][2]float64{{-1800, 0}, {-1700, 50}}},
			{Name: "Red", Color: "#ff0000"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, score.CaptureTheFlag, level.Mode)
	assert.Equal(t, 8*time.Minute, level.GameTime)
	assert.Equal(t, int32(5), level.WinningScore)
	assert.True(t, level.EngineerEnabled)
	assert.False(t, level.BotsAllowed)
	assert.Len(t, level.Walls, 1)
	require.Len(t, level.Teams, 2)
	assert.Equal(t, teams.Red, level.Teams[1].Color)

	assert.Equal(t, "CTFGameType 8 5", level.LevelCode())
	assert.Equal(t, "Specials Engineer NoBots", level.SpecialsLine())

	assert.Equal(t, world.Point{X: -1800}, level.SpawnPoint(0, 0))
	assert.Equal(t, world.Point{X: -1700, Y: 50}, level.SpawnPoint(0, 1))
	assert.Equal(t, world.Point{X: -1800}, level.SpawnPoint(0, 2))
	assert.Equal(t, world.Point{}, level.SpawnPoint(1, 0))
}

func TestLevelFromConfigErrors(t *testing.T) {
	_, err := LevelFromConfig(config.Level{Name: "x", Mode: "PoolGameType"})
	assert.Error(t, err)

	_, err = LevelFromConfig(config.Level{Name: "x", Mode: "GameType", Args: "ten"})
	assert.Error(t, err)

	_, err = LevelFromConfig(config.Level{
		Name:  "x",
		Mode:  "GameType",
		Teams: []config.Team{{Name: "Blue", Color: "blue"}},
	})
	assert.Error(t, err)
}

func TestLevelCode(t *testing.T) {
	level := NewLevel("Arena", score.Bitmatch)
	assert.Equal(t, "GameType 10 8", level.LevelCode())

	require.NoError(t, level.ProcessArguments([]string{"0", "3"}))
	assert.Equal(t, "GameType 0 3", level.LevelCode())

	require.NoError(t, level.ProcessArguments([]string{"2.5"}))
	assert.Equal(t, "GameType 2.5 3", level.LevelCode())

	level.ProcessSpecials("engineerunrestricted")
	assert.Equal(t, "Specials EngineerUnrestricted", level.SpecialsLine())
	assert.False(t, level.ProcessSpecials("Gravity"))
}

func TestLevelID(t *testing.T) {
	a := NewLevel("Arena", score.Bitmatch)
	b := NewLevel("Arena", score.Bitmatch)
	assert.Equal(t, a.ID(), b.ID())

	b.WinningScore = 9
	assert.NotEqual(t, a.ID(), b.ID())

	c := NewLevel("Other", score.Bitmatch)
	assert.NotEqual(t, a.ID(), c.ID())
}

func TestLevelWithoutTeams(t *testing.T) {
	registry := NewLevel("Arena", score.Bitmatch).Registry()
	require.Equal(t, 1, registry.Len())
	assert.Equal(t, teams.MissingTeamName, registry.All()[0].Name)
}

func TestUnlimitedLevelClock(t *testing.T) {
	level := NewLevel("Arena", score.Bitmatch)
	level.GameTime = 0
	f := newFixture(level)

	assert.True(t, f.c.Clock().IsUnlimited())
	f.c.Tick(time.Hour)
	assert.Equal(t, StateActive, f.c.State())
}
