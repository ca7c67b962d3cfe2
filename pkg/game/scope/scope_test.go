package scope

import (
	"testing"

	"github.com/cfoust/sortie/pkg/game/world"

	"github.com/stretchr/testify/assert"
)

var testRanges = Ranges{
	Normal: world.Point{X: 100, Y: 100},
	Sensor: world.Point{X: 300, Y: 300},
	SpyBug: 50,
}

type fixture struct {
	world      *world.World
	query      *Query
	controller world.Handle
}

func newFixture() *fixture {
	w := world.New(64)
	return &fixture{
		world:      w,
		query:      New(w, testRanges),
		controller: w.Add(world.Object{Kind: world.KindController, Pos: world.Point{X: -10000, Y: -10000}}),
	}
}

func (f *fixture) add(kind world.Kind, team int, x, y float64) world.Handle {
	return f.world.Add(world.Object{Kind: kind, Team: team, Pos: world.Point{X: x, Y: y}, Radius: 1})
}

func TestNotReady(t *testing.T) {
	f := newFixture()
	ship := f.add(world.KindShip, 0, 0, 0)
	f.query.AddAlways(f.add(world.KindGoalZone, 0, 5000, 5000))

	got := f.query.Compute(Viewer{Controller: f.controller, Avatar: ship}, false)
	assert.Equal(t, []world.Handle{f.controller}, got)
}

func TestProximity(t *testing.T) {
	f := newFixture()
	ship := f.add(world.KindShip, 0, 0, 0)
	near := f.add(world.KindAsteroid, -1, 50, 50)
	mid := f.add(world.KindAsteroid, -1, 200, 0)
	f.add(world.KindAsteroid, -1, 2000, 0)

	viewer := Viewer{Controller: f.controller, Ready: true, Avatar: ship}
	assert.Equal(t, []world.Handle{f.controller, ship, near}, f.query.Compute(viewer, false))

	// The sensor module widens the rectangle
	f.world.Get(ship).Value.Sensor = true
	assert.Equal(t, []world.Handle{f.controller, ship, near, mid}, f.query.Compute(viewer, false))
}

func TestMemoryless(t *testing.T) {
	f := newFixture()
	ship := f.add(world.KindShip, 0, 0, 0)
	enemy := f.add(world.KindShip, 1, 20, 0)
	viewer := Viewer{Controller: f.controller, Ready: true, Avatar: ship}

	first := f.query.Compute(viewer, true)
	assert.Equal(t, first, f.query.Compute(viewer, true))
	assert.Contains(t, first, enemy)

	f.world.Move(enemy, world.Point{X: 5000, Y: 0})
	assert.NotContains(t, f.query.Compute(viewer, true), enemy)
}

func TestAlwaysList(t *testing.T) {
	f := newFixture()
	ship := f.add(world.KindShip, 0, 0, 0)
	carrier := f.add(world.KindShip, 1, 9000, 9000)
	goal := f.add(world.KindGoalZone, 0, 5000, 5000)
	flag := f.add(world.KindFlag, 1, 7000, 7000)
	f.query.AddAlways(goal)
	f.query.AddAlways(flag)

	viewer := Viewer{Controller: f.controller, Ready: true, Avatar: ship}

	got := f.query.Compute(viewer, true)
	assert.Contains(t, got, goal)
	assert.Contains(t, got, flag)

	// A carried flag is only visible through its carrier
	f.world.Mount(flag, carrier)
	got = f.query.Compute(viewer, true)
	assert.Contains(t, got, goal)
	assert.NotContains(t, got, flag)
	assert.NotContains(t, got, carrier)

	f.world.Move(carrier, world.Point{X: 10, Y: 10})
	got = f.query.Compute(viewer, true)
	assert.Contains(t, got, carrier)
	assert.Contains(t, got, flag)

	f.world.Remove(goal)
	f.query.Prune()
	assert.NotContains(t, f.query.Compute(viewer, true), goal)
}

func TestCommanderMap(t *testing.T) {
	f := newFixture()
	ship := f.add(world.KindShip, 0, 0, 0)
	mate := f.add(world.KindShip, 0, 3000, 0)
	hidden := f.add(world.KindMine, 1, 3050, 0)
	shown := f.add(world.KindTurret, 1, 3000, 50)
	f.world.Get(shown).Value.OnCommanderMap = true
	ownMine := f.add(world.KindMine, 1, 50, 0)

	viewer := Viewer{Controller: f.controller, Ready: true, Avatar: ship, Team: 0, Commander: true}
	got := f.query.Compute(viewer, true)
	assert.Contains(t, got, mate)
	assert.Contains(t, got, shown)
	assert.Contains(t, got, ownMine, "own avatar sees everything nearby")
	assert.NotContains(t, got, hidden)

	f.world.Get(mate).Value.Sensor = true
	assert.Contains(t, f.query.Compute(viewer, true), hidden)

	// Without teams the overview is just the local view
	assert.NotContains(t, f.query.Compute(viewer, false), mate)
}

func TestSpyBugs(t *testing.T) {
	f := newFixture()
	ship := f.add(world.KindShip, 0, 0, 0)
	bug := f.add(world.KindSpyBug, 0, 4000, 0)
	enemyBug := f.add(world.KindSpyBug, 1, 6000, 0)
	watched := f.add(world.KindShip, 1, 4020, 0)
	unwatched := f.add(world.KindShip, 0, 6020, 0)
	f.query.AddSpyBug(bug)
	f.query.AddSpyBug(enemyBug)

	viewer := Viewer{Controller: f.controller, Ready: true, Avatar: ship, Team: 0}
	got := f.query.Compute(viewer, true)
	assert.Contains(t, got, bug)
	assert.Contains(t, got, watched)
	assert.NotContains(t, got, unwatched)

	// Every bug reports in games without teams
	assert.Contains(t, f.query.Compute(viewer, false), unwatched)
}

func TestRevealBots(t *testing.T) {
	f := newFixture()
	ship := f.add(world.KindShip, 0, 0, 0)
	bot := f.add(world.KindRobot, 1, 9000, 9000)
	f.query.RevealBots = true

	viewer := Viewer{Controller: f.controller, Ready: true, Avatar: ship}
	assert.NotContains(t, f.query.Compute(viewer, true), bot)

	viewer.Commander = true
	assert.Contains(t, f.query.Compute(viewer, true), bot)
}
