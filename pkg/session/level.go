package session

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/repeale/fp-go/option"
	"github.com/rs/zerolog/log"

	"github.com/cfoust/sortie/pkg/config"
	"github.com/cfoust/sortie/pkg/game/clock"
	"github.com/cfoust/sortie/pkg/game/score"
	"github.com/cfoust/sortie/pkg/game/teams"
	"github.com/cfoust/sortie/pkg/game/world"
)

type Wall struct {
	Vertices []float32
	Width    float32
	Solid    bool
}

type LevelTeam struct {
	Name   string
	Color  teams.Color
	Spawns []world.Point
}

// Level describes everything the session needs to run a match on a level.
// Geometry beyond walls and spawns belongs to the physics side.
type Level struct {
	Name        string
	Description string
	Credits     string
	Mode        score.Mode

	// Zero means unlimited
	GameTime     time.Duration
	WinningScore int32

	EngineerEnabled      bool
	EngineerUnrestricted bool
	BotsAllowed          bool

	Bounds         [4]float32
	Walls          []Wall
	Teams          []LevelTeam
	HasLoadoutZone bool
	// Set when the navigation zones bots need could not be built
	BotZoneFailed bool
}

func NewLevel(name string, mode score.Mode) *Level {
	return &Level{
		Name:         name,
		Mode:         mode,
		GameTime:     clock.DefaultGameTime,
		WinningScore: 8,
		BotsAllowed:  true,
	}
}

// LevelFromConfig builds a level from its configuration entry. Specials the
// server does not understand are logged and skipped.
func LevelFromConfig(entry config.Level) (*Level, error) {
	mode := score.ParseMode(entry.Mode)
	if opt.IsNone(mode) {
		return nil, fmt.Errorf("unknown game type %q", entry.Mode)
	}

	level := NewLevel(entry.Name, mode.Value)
	level.Description = entry.Description
	level.Credits = entry.Credits
	level.Bounds = entry.Bounds

	if err := level.ProcessArguments(strings.Fields(entry.Args)); err != nil {
		return nil, err
	}

	for _, param := range strings.Fields(entry.Specials) {
		if strings.EqualFold(param, "Specials") {
			continue
		}
		if !level.ProcessSpecials(param) {
			log.Warn().Str("level", entry.Name).Msgf("unknown special %q", param)
		}
	}

	for _, wall := range entry.Walls {
		level.Walls = append(level.Walls, Wall{
			Vertices: wall.Vertices,
			Width:    wall.Width,
			Solid:    wall.Solid,
		})
	}

	for _, team := range entry.Teams {
		color, err := teams.ParseColor(team.Color)
		if err != nil {
			return nil, fmt.Errorf("team %s: %w", team.Name, err)
		}

		spawns := make([]world.Point, 0, len(team.Spawns))
		for _, spawn := range team.Spawns {
			spawns = append(spawns, world.Point{X: spawn[0], Y: spawn[1]})
		}

		level.Teams = append(level.Teams, LevelTeam{
			Name:   team.Name,
			Color:  color,
			Spawns: spawns,
		})
	}

	return level, nil
}

// ProcessArguments reads the game type line: game length in minutes, then
// the winning score.
func (l *Level) ProcessArguments(args []string) error {
	if len(args) > 0 {
		minutes, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return fmt.Errorf("invalid game time %q: %w", args[0], err)
		}
		l.GameTime = time.Duration(minutes * float64(time.Minute))
	}

	if len(args) > 1 {
		winning, err := strconv.ParseInt(args[1], 10, 32)
		if err != nil {
			return fmt.Errorf("invalid winning score %q: %w", args[1], err)
		}
		l.WinningScore = int32(winning)
	}

	return nil
}

func (l *Level) ProcessSpecials(param string) bool {
	switch {
	case strings.EqualFold(param, "Engineer"):
		l.EngineerEnabled = true
	case strings.EqualFold(param, "EngineerUnrestricted"):
		l.EngineerEnabled = true
		l.EngineerUnrestricted = true
	case strings.EqualFold(param, "NoBots"):
		l.BotsAllowed = false
	default:
		return false
	}
	return true
}

func (l *Level) SpecialsLine() string {
	line := "Specials"

	if l.EngineerEnabled {
		if l.EngineerUnrestricted {
			line += " EngineerUnrestricted"
		} else {
			line += " Engineer"
		}
	}

	if !l.BotsAllowed {
		line += " NoBots"
	}

	return line
}

func (l *Level) minutes() string {
	if l.GameTime <= 0 {
		return "0"
	}
	return strconv.FormatFloat(l.GameTime.Minutes(), 'f', -1, 64)
}

// LevelCode is the game type line as written in level files.
func (l *Level) LevelCode() string {
	return fmt.Sprintf(
		"%s %s %d",
		l.Mode.Info().ClassName,
		l.minutes(),
		l.WinningScore,
	)
}

// ID is a stable identifier for the level used to key stored statistics.
func (l *Level) ID() uint32 {
	digest := xxhash.New()
	fmt.Fprintf(digest, "%s\n%s\n%s\n", l.Name, l.LevelCode(), l.SpecialsLine())
	for _, team := range l.Teams {
		fmt.Fprintf(digest, "team %s %s\n", team.Name, team.Color.Hex())
	}
	for _, wall := range l.Walls {
		fmt.Fprintf(digest, "wall %v %v %v\n", wall.Vertices, wall.Width, wall.Solid)
	}
	return uint32(digest.Sum64())
}

// Registry creates the team list for a match on this level. Levels without
// teams get a placeholder so there is always one.
func (l *Level) Registry() *teams.Registry {
	list := make([]*teams.Team, 0, len(l.Teams))
	for _, team := range l.Teams {
		list = append(list, teams.NewTeam(team.Name, team.Color))
	}
	return teams.NewRegistry(list...)
}

// SpawnPoint picks a spawn for the team, cycling through the ones the level
// defines. Teams without spawns start at the origin.
func (l *Level) SpawnPoint(team, n int) world.Point {
	if team < 0 || team >= len(l.Teams) || len(l.Teams[team].Spawns) == 0 {
		return world.Point{}
	}
	spawns := l.Teams[team].Spawns
	return spawns[n%len(spawns)]
}
