package balance

import (
	"github.com/cfoust/sortie/pkg/game/teams"
)

// Population is the roster the balancer adjusts. AddBot places the new bot
// with the regular join rules.
type Population interface {
	// Recount refreshes the per team player and bot counts
	Recount()
	Teams() *teams.Registry
	ClientCount() int
	RemoveBotFromTeam(team int) bool
	AddBot() bool
}

type Settings struct {
	// Total participants the server tries to reach with bots
	MinPlayers int
	// Fill every team up to the largest human team
	AlwaysBalance bool
}

type Result struct {
	Removed int
	Added   int
}

// MaxPerTeam is the size of the largest team when players are spread evenly.
func MaxPerTeam(players, numTeams int) int {
	if numTeams <= 0 {
		return players
	}
	return (players + numTeams - 1) / numTeams
}

type Balancer struct {
	settings   Settings
	population Population
}

func New(population Population, settings Settings) *Balancer {
	return &Balancer{
		settings:   settings,
		population: population,
	}
}

func (b *Balancer) SetSettings(settings Settings) {
	b.settings = settings
}

// Target computes the adjusted minimum population and the resulting cap per
// team for the current counts.
func (b *Balancer) Target(registry *teams.Registry) (minimum, perTeam int) {
	numTeams := registry.Len()
	minimum = b.settings.MinPlayers
	perTeam = MaxPerTeam(minimum, numTeams)

	largestHumans := 0
	for _, team := range registry.All() {
		if team.Players > largestHumans {
			largestHumans = team.Players
		}
	}

	if b.settings.AlwaysBalance && numTeams > 1 {
		balanced := largestHumans * numTeams
		if balanced > minimum {
			minimum = balanced
		} else if balanced < minimum {
			minimum = perTeam * numTeams
		}
	}

	return minimum, MaxPerTeam(minimum, numTeams)
}

// Rebalance trims bots from overfull teams, then adds bots until the server
// reaches its minimum population. Humans are never removed.
func (b *Balancer) Rebalance() Result {
	var result Result

	b.population.Recount()
	registry := b.population.Teams()
	minimum, perTeam := b.Target(registry)

	for i, team := range registry.All() {
		if team.Bots == 0 || team.Size() <= perTeam {
			continue
		}

		excess := team.Size() - perTeam
		if excess > team.Bots {
			excess = team.Bots
		}

		for j := 0; j < excess; j++ {
			if b.population.RemoveBotFromTeam(i) {
				result.Removed++
			}
		}
	}

	b.population.Recount()

	count := b.population.ClientCount()
	for i := 0; i < minimum-count; i++ {
		if !b.population.AddBot() {
			break
		}
		result.Added++
	}

	return result
}
