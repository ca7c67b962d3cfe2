package teams

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/repeale/fp-go/option"
)

type Color struct {
	R float32
	G float32
	B float32
}

var (
	Blue = Color{0, 0, 1}
	Red  = Color{1, 0, 0}
)

// Hex renders the color the way level code writes it.
func (c Color) Hex() string {
	return fmt.Sprintf("%02X%02X%02X", channel(c.R), channel(c.G), channel(c.B))
}

func channel(v float32) uint8 {
	return uint8(math.Round(float64(v) * 255))
}

// ParseColor reads a six digit hex color such as "FF0000".
func ParseColor(hex string) (Color, error) {
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) != 6 {
		return Color{}, fmt.Errorf("invalid color %q", hex)
	}

	value, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("invalid color %q: %w", hex, err)
	}

	return Color{
		R: float32((value>>16)&0xFF) / 255,
		G: float32((value>>8)&0xFF) / 255,
		B: float32(value&0xFF) / 255,
	}, nil
}

type Team struct {
	Index int
	Name  string
	Color Color
	Score int32

	// Recounted from the roster whenever membership changes
	Players int
	Bots    int
	Rating  float64
}

func NewTeam(name string, color Color) *Team {
	return &Team{
		Name:  name,
		Color: color,
	}
}

func (t *Team) Size() int {
	return t.Players + t.Bots
}

// sorts teams ascending by size, then rating, then index
type BySizeAndRating []*Team

func (teams BySizeAndRating) Len() int {
	return len(teams)
}

func (teams BySizeAndRating) Swap(i, j int) {
	teams[i], teams[j] = teams[j], teams[i]
}

func (teams BySizeAndRating) Less(i, j int) bool {
	if teams[i].Size() != teams[j].Size() {
		return teams[i].Size() < teams[j].Size()
	}
	if teams[i].Rating != teams[j].Rating {
		return teams[i].Rating < teams[j].Rating
	}
	return teams[i].Index < teams[j].Index
}

const MissingTeamName = "Missing Team"

// Registry is the ordered set of teams shared by the level and the session.
// It always holds at least one team.
type Registry struct {
	teams []*Team
}

func NewRegistry(teams ...*Team) *Registry {
	r := &Registry{}
	for _, team := range teams {
		r.Add(team)
	}
	r.EnsureOne()
	return r
}

func (r *Registry) Add(team *Team) {
	team.Index = len(r.teams)
	r.teams = append(r.teams, team)
}

// EnsureOne injects a default team into an empty registry.
func (r *Registry) EnsureOne() bool {
	if len(r.teams) > 0 {
		return false
	}
	r.Add(NewTeam(MissingTeamName, Blue))
	return true
}

func (r *Registry) Len() int {
	return len(r.teams)
}

func (r *Registry) Valid(index int) bool {
	return index >= 0 && index < len(r.teams)
}

func (r *Registry) Get(index int) opt.Option[*Team] {
	if !r.Valid(index) {
		return opt.None[*Team]()
	}
	return opt.Some(r.teams[index])
}

func (r *Registry) All() []*Team {
	return r.teams
}

func (r *Registry) FindByName(name string) opt.Option[*Team] {
	for _, team := range r.teams {
		if strings.EqualFold(team.Name, name) {
			return opt.Some(team)
		}
	}
	return opt.None[*Team]()
}

func (r *Registry) TeamScore(index int) int32 {
	return r.teams[index].Score
}

func (r *Registry) AddTeamScore(index int, points int32) {
	r.teams[index].Score += points
}

func (r *Registry) Scores() []int32 {
	scores := make([]int32, len(r.teams))
	for i, team := range r.teams {
		scores[i] = team.Score
	}
	return scores
}

func (r *Registry) ResetScores() {
	for _, team := range r.teams {
		team.Score = 0
	}
}

// ClearCounts zeroes the population and rating of every team ahead of a
// recount.
func (r *Registry) ClearCounts() {
	for _, team := range r.teams {
		team.Players = 0
		team.Bots = 0
		team.Rating = 0
	}
}

// Count adds one member to a team's population.
func (r *Registry) Count(index int, bot bool, rating float64) {
	if !r.Valid(index) {
		return
	}

	team := r.teams[index]
	if bot {
		team.Bots++
	} else {
		team.Players++
	}
	team.Rating += rating
}

// Weakest finds the least populated team, breaking ties by the lowest rating
// and then by index.
func (r *Registry) Weakest() int {
	sorted := make([]*Team, len(r.teams))
	copy(sorted, r.teams)
	sort.Sort(BySizeAndRating(sorted))
	return sorted[0].Index
}

// Largest finds the most populated team among those the filter accepts, -1
// when none do.
func (r *Registry) Largest(accept func(*Team) bool) int {
	largest := -1
	for i, team := range r.teams {
		if accept != nil && !accept(team) {
			continue
		}
		if largest < 0 || team.Size() > r.teams[largest].Size() {
			largest = i
		}
	}
	return largest
}
