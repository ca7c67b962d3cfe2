package balance

import (
	"testing"

	"github.com/cfoust/sortie/pkg/game/teams"

	"github.com/stretchr/testify/assert"
)

type member struct {
	team int
	bot  bool
}

type fakePopulation struct {
	registry *teams.Registry
	members  []member
	full     bool
}

func newPopulation(numTeams int) *fakePopulation {
	registry := teams.NewRegistry()
	for i := 1; i < numTeams; i++ {
		registry.Add(teams.NewTeam("Team", teams.Red))
	}
	return &fakePopulation{registry: registry}
}

func (p *fakePopulation) with(team, humans, bots int) *fakePopulation {
	for i := 0; i < humans; i++ {
		p.members = append(p.members, member{team: team})
	}
	for i := 0; i < bots; i++ {
		p.members = append(p.members, member{team: team, bot: true})
	}
	return p
}

func (p *fakePopulation) Recount() {
	p.registry.ClearCounts()
	for _, m := range p.members {
		p.registry.Count(m.team, m.bot, 0)
	}
}

func (p *fakePopulation) Teams() *teams.Registry { return p.registry }

func (p *fakePopulation) ClientCount() int { return len(p.members) }

func (p *fakePopulation) RemoveBotFromTeam(team int) bool {
	for i := len(p.members) - 1; i >= 0; i-- {
		if p.members[i].team == team && p.members[i].bot {
			p.members = append(p.members[:i], p.members[i+1:]...)
			return true
		}
	}
	return false
}

func (p *fakePopulation) AddBot() bool {
	if p.full {
		return false
	}
	p.Recount()
	p.members = append(p.members, member{team: p.registry.Weakest(), bot: true})
	return true
}

func (p *fakePopulation) sizes() (humans, bots []int) {
	p.Recount()
	for _, team := range p.registry.All() {
		humans = append(humans, team.Players)
		bots = append(bots, team.Bots)
	}
	return
}

func TestMaxPerTeam(t *testing.T) {
	assert.Equal(t, 3, MaxPerTeam(6, 2))
	assert.Equal(t, 3, MaxPerTeam(7, 3))
	assert.Equal(t, 0, MaxPerTeam(0, 2))
	assert.Equal(t, 5, MaxPerTeam(5, 0))
}

func TestFillsToMinimum(t *testing.T) {
	p := newPopulation(2).with(0, 1, 0)
	result := New(p, Settings{MinPlayers: 4}).Rebalance()

	assert.Equal(t, Result{Added: 3}, result)
	humans, bots := p.sizes()
	assert.Equal(t, []int{1, 0}, humans)
	assert.Equal(t, []int{1, 2}, bots)
}

func TestRemovesOnlyBots(t *testing.T) {
	// Three humans on one team are never touched even though the cap is two
	p := newPopulation(2).with(0, 3, 2).with(1, 0, 1)
	result := New(p, Settings{MinPlayers: 4}).Rebalance()

	assert.Equal(t, 2, result.Removed)
	humans, bots := p.sizes()
	assert.Equal(t, []int{3, 0}, humans)
	assert.Equal(t, []int{0, 1}, bots)
}

func TestAlwaysBalance(t *testing.T) {
	p := newPopulation(2).with(0, 4, 0).with(1, 1, 0)
	balancer := New(p, Settings{MinPlayers: 2, AlwaysBalance: true})

	minimum, perTeam := balancer.Target(p.registry)
	// Counts are stale until the next recount, so only the floor applies
	assert.Equal(t, 2, minimum)
	assert.Equal(t, 1, perTeam)

	result := balancer.Rebalance()
	assert.Equal(t, Result{Added: 3}, result)
	humans, bots := p.sizes()
	assert.Equal(t, []int{4, 1}, humans)
	assert.Equal(t, []int{0, 3}, bots)
}

func TestAlwaysBalanceSpreadHumans(t *testing.T) {
	// Humans are spread out but the floor is higher, so every team is filled
	p := newPopulation(3).with(0, 1, 0).with(1, 1, 0)
	result := New(p, Settings{MinPlayers: 7, AlwaysBalance: true}).Rebalance()

	assert.Equal(t, 7, result.Added)
	humans, bots := p.sizes()
	assert.Equal(t, []int{1, 1, 0}, humans)
	assert.Equal(t, []int{2, 2, 3}, bots)
}

func TestStopsWhenFull(t *testing.T) {
	p := newPopulation(2)
	p.full = true
	assert.Equal(t, Result{}, New(p, Settings{MinPlayers: 4}).Rebalance())
}
