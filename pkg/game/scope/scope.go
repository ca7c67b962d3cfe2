package scope

import (
	"github.com/cfoust/sortie/pkg/game/world"

	"github.com/repeale/fp-go/option"
)

// Ranges are half extents of the rectangles used for proximity queries.
type Ranges struct {
	Normal world.Point
	Sensor world.Point
	SpyBug float64
}

var DefaultRanges = Ranges{
	Normal: world.Point{X: 750, Y: 600},
	Sensor: world.Point{X: 1040, Y: 800},
	SpyBug: 300,
}

func (r Ranges) around(pos world.Point, sensor bool) world.Rect {
	extent := r.Normal
	if sensor {
		extent = r.Sensor
	}
	return world.RectAround(pos, extent.X, extent.Y)
}

// Viewer is the per-connection state a scope query depends on.
type Viewer struct {
	// The connection's own controller object, always in scope
	Controller world.Handle
	// Set once the client acknowledged the setup messages
	Ready     bool
	Avatar    world.Handle
	Team      int
	Commander bool
}

// Query computes which world objects each connection may currently receive.
// It keeps no per-connection state between calls.
type Query struct {
	world  *world.World
	ranges Ranges

	always  []world.Handle
	spyBugs []world.Handle

	// Whether bots are shown on the commander's map regardless of distance
	RevealBots bool
}

func New(w *world.World, ranges Ranges) *Query {
	return &Query{
		world:  w,
		ranges: ranges,
	}
}

func (q *Query) SetRanges(ranges Ranges) {
	q.ranges = ranges
}

// AddAlways marks an object as permanently visible to everyone.
func (q *Query) AddAlways(h world.Handle) {
	q.always = append(q.always, h)
}

func (q *Query) AddSpyBug(h world.Handle) {
	q.spyBugs = append(q.spyBugs, h)
}

// Prune forgets destroyed objects.
func (q *Query) Prune() {
	q.always = q.live(q.always)
	q.spyBugs = q.live(q.spyBugs)
}

func (q *Query) live(handles []world.Handle) []world.Handle {
	alive := handles[:0]
	for _, h := range handles {
		if q.world.Exists(h) {
			alive = append(alive, h)
		}
	}
	return alive
}

// onCommanderMap reports whether an object shows on a teammate's overview.
func onCommanderMap(o *world.Object, sensor bool) bool {
	if o.OnCommanderMap || o.Kind.IsAvatar() {
		return true
	}
	if !sensor {
		return false
	}
	switch o.Kind {
	case world.KindProjectile, world.KindMine, world.KindSpyBug:
		return true
	}
	return false
}

// Compute returns the handles in scope for the viewer, sorted.
func (q *Query) Compute(viewer Viewer, teamGame bool) []world.Handle {
	found := make(map[world.Handle]struct{})
	add := func(handles ...world.Handle) {
		for _, h := range handles {
			found[h] = struct{}{}
		}
	}

	if viewer.Controller != world.NoHandle {
		add(viewer.Controller)
	}

	if !viewer.Ready {
		return collect(found)
	}

	for _, h := range q.always {
		object := q.world.Get(h)
		if opt.IsNone(object) {
			continue
		}
		if object.Value.Kind == world.KindFlag && object.Value.IsMounted() {
			continue
		}
		add(h)
	}

	avatar := q.world.Get(viewer.Avatar)
	if opt.IsSome(avatar) {
		add(viewer.Avatar)

		if teamGame && viewer.Commander {
			q.world.Each(func(teammate *world.Object) {
				if !teammate.Kind.IsAvatar() || teammate.Team != viewer.Team {
					return
				}

				var test func(*world.Object) bool
				if teammate.Handle != viewer.Avatar {
					sensor := teammate.Sensor
					test = func(o *world.Object) bool {
						return onCommanderMap(o, sensor)
					}
				}

				add(q.world.Query(q.ranges.around(teammate.Pos, teammate.Sensor), test)...)
			})
		} else {
			add(q.world.Query(q.ranges.around(avatar.Value.Pos, avatar.Value.Sensor), nil)...)
		}
	}

	for _, h := range q.spyBugs {
		bug := q.world.Get(h)
		if opt.IsNone(bug) {
			continue
		}
		if teamGame && bug.Value.Team != viewer.Team {
			continue
		}

		r := world.RectAround(bug.Value.Pos, q.ranges.SpyBug, q.ranges.SpyBug)
		add(q.world.Query(r, nil)...)
	}

	// Carried items follow their carrier into scope
	for _, h := range collect(found) {
		object := q.world.Get(h)
		if opt.IsSome(object) && object.Value.Kind.IsAvatar() {
			add(q.world.MountedItems(h)...)
		}
	}

	if q.RevealBots && viewer.Commander {
		q.world.Each(func(o *world.Object) {
			if o.Kind == world.KindRobot {
				add(o.Handle)
			}
		})
	}

	return collect(found)
}

func collect(found map[world.Handle]struct{}) []world.Handle {
	handles := make([]world.Handle, 0, len(found))
	for h := range found {
		handles = append(handles, h)
	}
	world.SortHandles(handles)
	return handles
}
