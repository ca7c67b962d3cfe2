package score

import (
	"fmt"
	"strings"

	"github.com/repeale/fp-go/option"
)

// Value is the point value of an event in one scoring group. The zero Value
// does not apply.
type Value struct {
	points      int32
	fromPayload bool
	applies     bool
}

func Fixed(points int32) Value {
	return Value{points: points, applies: true}
}

// Payload values take their points from the event's numeric payload.
func Payload() Value {
	return Value{fromPayload: true, applies: true}
}

var NotApplicable = Value{}

func (v Value) Resolve(data int32) opt.Option[int32] {
	if !v.applies {
		return opt.None[int32]()
	}
	if v.fromPayload {
		return opt.Some(data)
	}
	return opt.Some(v.points)
}

func (v Value) String() string {
	switch {
	case !v.applies:
		return "N/A"
	case v.fromPayload:
		return "varies"
	default:
		return fmt.Sprint(v.points)
	}
}

type Rule struct {
	Team       Value
	Individual Value
}

// Rules resolves the points an event is worth in a scoring group.
type Rules interface {
	Points(group Group, event Event, data int32) opt.Option[int32]
}

// Table is a static event to rule mapping. Missing events do not apply.
type Table map[Event]Rule

func (t Table) Points(group Group, event Event, data int32) opt.Option[int32] {
	rule, ok := t[event]
	if !ok {
		return opt.None[int32]()
	}
	if group == TeamScore {
		return rule.Team.Resolve(data)
	}
	return rule.Individual.Resolve(data)
}

// Describe renders the rule table the way it is shown to players.
func (t Table) Describe() []string {
	lines := []string{}
	for _, event := range Events() {
		rule, ok := t[event]
		if !ok || (!rule.Team.applies && !rule.Individual.applies) {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s: team %s, individual %s", event, rule.Team, rule.Individual))
	}
	return lines
}

var _ Rules = Table(nil)

func both(points int32) Rule {
	return Rule{Team: Fixed(points), Individual: Fixed(points)}
}

func split(team, individual int32) Rule {
	return Rule{Team: Fixed(team), Individual: Fixed(individual)}
}

// baseTable is used by free-for-all and team deathmatch.
var baseTable = Table{
	KillEnemy:        both(1),
	KilledByAsteroid: both(-1),
	KilledByTurret:   both(-1),
	KillSelf:         both(-1),
	KillTeammate:     both(-1),
	KillEnemyTurret:  both(0),
	KillOwnTurret:    both(0),
}

// objectiveKills is shared by the objective modes, where kills only count
// towards the individual score.
var objectiveKills = Table{
	KillEnemy:        split(0, 1),
	KillSelf:         split(0, -1),
	KillTeammate:     split(0, 0),
	KillEnemyTurret:  split(0, 1),
	KillOwnTurret:    split(0, -1),
	KilledByAsteroid: split(0, 0),
	KilledByTurret:   split(0, 0),
}

func extend(base Table, rules Table) Table {
	merged := Table{}
	for event, rule := range base {
		merged[event] = rule
	}
	for event, rule := range rules {
		merged[event] = rule
	}
	return merged
}

type Mode int

const (
	Bitmatch Mode = iota
	CaptureTheFlag
	ZoneControl
	HuntTheFlag
	Rabbit
	Nexus
	Retrieve
	Soccer
	Core
)

type ModeInfo struct {
	// Name of the game type as written in level code
	ClassName string
	Name      string
	Short     string
	Table     Table
	// Some modes derive their winning score from the level
	CanChangeWinningScore bool
}

var modes = map[Mode]ModeInfo{
	Bitmatch: {
		ClassName:             "GameType",
		Name:                  "Bitmatch",
		Short:                 "BM",
		Table:                 baseTable,
		CanChangeWinningScore: true,
	},
	CaptureTheFlag: {
		ClassName: "CTFGameType",
		Name:      "Capture the Flag",
		Short:     "CTF",
		Table: extend(objectiveKills, Table{
			CaptureFlag:    split(1, 5),
			ReturnTeamFlag: split(0, 1),
		}),
		CanChangeWinningScore: true,
	},
	ZoneControl: {
		ClassName: "ZoneControlGameType",
		Name:      "Zone Control",
		Short:     "ZC",
		Table: extend(objectiveKills, Table{
			CaptureZone:   split(1, 1),
			UncaptureZone: split(0, -1),
		}),
		CanChangeWinningScore: true,
	},
	HuntTheFlag: {
		ClassName: "HTFGameType",
		Name:      "Hold the Flag",
		Short:     "HTF",
		Table: extend(objectiveKills, Table{
			HoldFlagInZone:          split(1, 1),
			RemoveFlagFromEnemyZone: split(0, 1),
		}),
		CanChangeWinningScore: true,
	},
	Rabbit: {
		ClassName: "RabbitGameType",
		Name:      "Rabbit",
		Short:     "Rab",
		Table: extend(objectiveKills, Table{
			KillEnemy:       split(0, 0),
			RabbitHoldsFlag: both(1),
			RabbitKilled:    both(5),
			RabbitKills:     both(5),
		}),
		CanChangeWinningScore: true,
	},
	Nexus: {
		ClassName: "NexusGameType",
		Name:      "Nexus",
		Short:     "Nex",
		Table: extend(objectiveKills, Table{
			ReturnFlagsToNexus: {Team: Payload(), Individual: Payload()},
		}),
		CanChangeWinningScore: true,
	},
	Retrieve: {
		ClassName: "RetrieveGameType",
		Name:      "Retrieve",
		Short:     "Ret",
		Table: extend(objectiveKills, Table{
			ReturnFlagToZone: split(1, 2),
			LostFlag:         split(-1, 0),
		}),
		CanChangeWinningScore: true,
	},
	Soccer: {
		ClassName: "SoccerGameType",
		Name:      "Soccer",
		Short:     "S",
		Table: extend(objectiveKills, Table{
			ScoreGoalEnemyTeam:   split(1, 5),
			ScoreGoalHostileTeam: split(1, 5),
			ScoreGoalOwnTeam:     split(-1, -5),
		}),
		CanChangeWinningScore: true,
	},
	Core: {
		ClassName: "CoreGameType",
		Name:      "Core",
		Short:     "Core",
		Table: extend(objectiveKills, Table{
			EnemyCoreDestroyed: split(1, 5),
			OwnCoreDestroyed:   split(-1, -5),
		}),
		CanChangeWinningScore: false,
	},
}

func (m Mode) Info() ModeInfo {
	info, ok := modes[m]
	if !ok {
		return modes[Bitmatch]
	}
	return info
}

func (m Mode) String() string {
	return m.Info().Name
}

func (m Mode) Points(group Group, event Event, data int32) opt.Option[int32] {
	return m.Info().Table.Points(group, event, data)
}

var _ Rules = Bitmatch

// ParseMode finds a mode by its level code class name or its short name.
func ParseMode(name string) opt.Option[Mode] {
	for mode, info := range modes {
		if strings.EqualFold(info.ClassName, name) || strings.EqualFold(info.Short, name) {
			return opt.Some(mode)
		}
	}
	return opt.None[Mode]()
}
