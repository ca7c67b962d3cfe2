package stats

import (
	"time"
)

type Result string

const (
	Win  Result = "W"
	Loss Result = "L"
	Tie  Result = "T"
)

type PlayerSnapshot struct {
	Name          string `json:"name"`
	Bot           bool   `json:"bot"`
	Authenticated bool   `json:"authenticated"`
	Team          int    `json:"team"`
	Points        int32  `json:"points"`
	Kills         int    `json:"kills"`
	Deaths        int    `json:"deaths"`
	Suicides      int    `json:"suicides"`
	Fratricides   int    `json:"fratricides"`
	SwitchedTeams int    `json:"switchedTeams"`
	Role          string `json:"role"`
	// Humans that never did anything are left out of ratings
	Active bool   `json:"active"`
	Result Result `json:"result"`
}

type TeamSnapshot struct {
	Name    string           `json:"name"`
	Color   string           `json:"color"`
	Score   int32            `json:"score"`
	Result  Result           `json:"result"`
	Players []PlayerSnapshot `json:"players"`
}

// Snapshot is the immutable record of a finished match handed from the
// session to the stats worker.
type Snapshot struct {
	Server   string         `json:"server"`
	Level    string         `json:"level"`
	LevelID  uint32         `json:"levelId"`
	Mode     string         `json:"mode"`
	TeamGame bool           `json:"teamGame"`
	Duration time.Duration  `json:"duration"`
	Finished time.Time      `json:"finished"`
	Teams    []TeamSnapshot `json:"teams"`
	// First and second place players by points
	Leader   string `json:"leader,omitempty"`
	RunnerUp string `json:"runnerUp,omitempty"`
}

func (s *Snapshot) Players() []PlayerSnapshot {
	var players []PlayerSnapshot
	for _, team := range s.Teams {
		players = append(players, team.Players...)
	}
	return players
}

// Clone copies the snapshot so that it shares no slices with the original.
func (s Snapshot) Clone() Snapshot {
	teams := make([]TeamSnapshot, len(s.Teams))
	for i, team := range s.Teams {
		team.Players = append([]PlayerSnapshot(nil), team.Players...)
		teams[i] = team
	}
	s.Teams = teams
	return s
}

func resultsFor(scores []int32) []Result {
	results := make([]Result, len(scores))
	if len(scores) == 0 {
		return results
	}

	best := scores[0]
	for _, score := range scores {
		if score > best {
			best = score
		}
	}

	leaders := 0
	for _, score := range scores {
		if score == best {
			leaders++
		}
	}

	for i, score := range scores {
		switch {
		case score != best:
			results[i] = Loss
		case leaders > 1:
			results[i] = Tie
		default:
			results[i] = Win
		}
	}
	return results
}

// Resolve fills in the result of every team and player. In team games
// players share their team's result, otherwise players are ranked by their
// own points.
func (s *Snapshot) Resolve() {
	if s.TeamGame {
		scores := make([]int32, len(s.Teams))
		for i, team := range s.Teams {
			scores[i] = team.Score
		}

		for i, result := range resultsFor(scores) {
			team := &s.Teams[i]
			team.Result = result
			for j := range team.Players {
				team.Players[j].Result = result
			}
		}
		return
	}

	var scores []int32
	for _, team := range s.Teams {
		for _, player := range team.Players {
			scores = append(scores, player.Points)
		}
	}

	results := resultsFor(scores)
	index := 0
	for i := range s.Teams {
		team := &s.Teams[i]
		team.Result = ""
		for j := range team.Players {
			team.Players[j].Result = results[index]
			index++
		}
	}
}
