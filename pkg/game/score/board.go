package score

import (
	"github.com/repeale/fp-go/option"
)

// Participant is anything that carries an individual score.
type Participant interface {
	Score() int32
	AddScore(points int32)
}

// Roster exposes the team ledger the board mutates.
type Roster interface {
	Len() int
	TeamScore(index int) int32
	AddTeamScore(index int, points int32)
}

// Listener is told about every score mutation so it can be broadcast.
type Listener interface {
	PlayerScoreChanged(p Participant, score int32)
	TeamScoreChanged(team int, score int32)
}

// ownGoals award their points to every team except the one that scored.
var ownGoals = map[Event]struct{}{
	ScoreGoalOwnTeam: {},
}

func IsOwnGoal(event Event) bool {
	_, ok := ownGoals[event]
	return ok
}

type Board struct {
	rules    Rules
	roster   Roster
	listener Listener

	winningScore int32
	over         bool

	leadingTeam      int
	leadingTeamScore int32
}

func NewBoard(rules Rules, roster Roster, listener Listener, winningScore int32) *Board {
	return &Board{
		rules:        rules,
		roster:       roster,
		listener:     listener,
		winningScore: winningScore,
		leadingTeam:  -1,
	}
}

func (b *Board) WinningScore() int32 {
	return b.winningScore
}

func (b *Board) SetWinningScore(score int32) {
	b.winningScore = score
}

func (b *Board) IsOver() bool {
	return b.over
}

func (b *Board) MarkOver() {
	b.over = true
}

func (b *Board) IsTeamGame() bool {
	return b.roster.Len() > 1
}

// LeadingTeam is -1 until some team has taken the lead.
func (b *Board) LeadingTeam() (int, int32) {
	return b.leadingTeam, b.leadingTeamScore
}

// Apply scores an event for the actor and its team and reports whether the
// match has been won. A nil actor scores for the team alone.
func (b *Board) Apply(actor Participant, team int, event Event, data int32) bool {
	if b.over {
		return false
	}

	var newScore int32

	playerPoints := b.rules.Points(IndividualScore, event, data)
	if actor != nil && opt.IsSome(playerPoints) && playerPoints.Value != 0 {
		actor.AddScore(playerPoints.Value)
		newScore = actor.Score()

		if !b.IsTeamGame() && b.listener != nil {
			b.listener.PlayerScoreChanged(actor, newScore)
		}
	}

	if b.IsTeamGame() {
		if team < 0 || team >= b.roster.Len() {
			return false
		}

		teamPoints := b.rules.Points(TeamScore, event, data)
		if opt.IsNone(teamPoints) || teamPoints.Value == 0 {
			return false
		}

		if IsOwnGoal(event) {
			for i := 0; i < b.roster.Len(); i++ {
				if i == team {
					continue
				}
				b.addTeamScore(i, -teamPoints.Value)
			}
		} else {
			b.addTeamScore(team, teamPoints.Value)
		}

		newScore = b.leadingTeamScore
	}

	if b.winningScore > 0 && newScore >= b.winningScore {
		b.over = true
		return true
	}

	return false
}

func (b *Board) addTeamScore(team int, points int32) {
	b.roster.AddTeamScore(team, points)
	score := b.roster.TeamScore(team)

	if b.listener != nil {
		b.listener.TeamScoreChanged(team, score)
	}

	b.RecalculateLeader()
}

// RecalculateLeader only moves the lead when a team is strictly ahead of the
// current leader.
func (b *Board) RecalculateLeader() {
	numTeams := b.roster.Len()
	if b.leadingTeam >= numTeams {
		b.leadingTeam = -1
	}
	if b.leadingTeam >= 0 {
		b.leadingTeamScore = b.roster.TeamScore(b.leadingTeam)
	}

	for i := 0; i < numTeams; i++ {
		score := b.roster.TeamScore(i)
		if b.leadingTeam < 0 || score > b.leadingTeamScore {
			b.leadingTeam = i
			b.leadingTeamScore = score
		}
	}
}

// Reset clears the lead and the over flag. Callers zero the scores themselves.
func (b *Board) Reset() {
	b.over = false
	b.leadingTeam = -1
	b.leadingTeamScore = 0
}

// Leaders are the first and second place players, -1 when absent.
type Leaders struct {
	First       int
	FirstScore  int32
	Second      int
	SecondScore int32
}

// RankPlayers finds the two best scores. Ties go to the player found first.
func RankPlayers(scores []int32) Leaders {
	l := Leaders{First: -1, Second: -1}

	for i, score := range scores {
		switch {
		case l.First < 0 || score > l.FirstScore:
			l.Second, l.SecondScore = l.First, l.FirstScore
			l.First, l.FirstScore = i, score
		case l.Second < 0 || score > l.SecondScore:
			l.Second, l.SecondScore = i, score
		}
	}

	if l.Second < 0 {
		l.SecondScore = 0
	}

	return l
}

// Winner finds the unique highest score. A tie for first yields none.
func Winner(scores []int32) opt.Option[int] {
	best := -1
	tied := false
	for i, score := range scores {
		switch {
		case best < 0 || score > scores[best]:
			best = i
			tied = false
		case score == scores[best]:
			tied = true
		}
	}

	if best < 0 || tied {
		return opt.None[int]()
	}
	return opt.Some(best)
}
