package interest

import (
	"math"

	"github.com/cfoust/sortie/pkg/game/world"

	"github.com/repeale/fp-go/option"
)

// Ranges are the passive detection half extents. The sensor range is the
// larger of the two.
type Ranges struct {
	Visual world.Point
	Sensor world.Point
}

var DefaultRanges = Ranges{
	Visual: world.Point{X: 600, Y: 450},
	Sensor: world.Point{X: 800, Y: 600},
}

type item struct {
	handle world.Handle
	mask   uint32
}

// Tracker keeps a team visibility mask for a few flagged items, such as
// dropped flags, based on which avatars are close enough to notice them.
type Tracker struct {
	world  *world.World
	ranges Ranges
	items  []item
}

func New(w *world.World, ranges Ranges) *Tracker {
	return &Tracker{
		world:  w,
		ranges: ranges,
	}
}

func (t *Tracker) SetRanges(ranges Ranges) {
	t.ranges = ranges
}

// Add registers an item. Registering the same item twice is a no-op.
func (t *Tracker) Add(h world.Handle) {
	for _, existing := range t.items {
		if existing.handle == h {
			return
		}
	}
	t.items = append(t.items, item{handle: h})
}

func (t *Tracker) Len() int {
	return len(t.items)
}

// Mask reports which teams can currently see the item, one bit per team.
func (t *Tracker) Mask(h world.Handle) uint32 {
	for _, item := range t.items {
		if item.handle == h {
			return item.mask
		}
	}
	return 0
}

func (t *Tracker) VisibleTo(h world.Handle, team int) bool {
	if team < 0 || team >= 32 {
		return false
	}
	return t.Mask(h)&(1<<uint(team)) != 0
}

// Update recomputes every mask from scratch and drops items whose object is
// gone.
func (t *Tracker) Update() {
	live := t.items[:0]
	for _, it := range t.items {
		object := t.world.Get(it.handle)
		if opt.IsNone(object) {
			continue
		}

		it.mask = t.detect(object.Value.Pos)
		live = append(live, it)
	}
	t.items = live
}

func (t *Tracker) detect(pos world.Point) uint32 {
	var mask uint32

	r := world.RectAround(pos, t.ranges.Sensor.X, t.ranges.Sensor.Y)
	avatars := t.world.Query(r, func(o *world.Object) bool {
		return o.Kind.IsAvatar()
	})

	for _, h := range avatars {
		avatar := t.world.Get(h).Value
		if avatar.Team < 0 || avatar.Team >= 32 {
			continue
		}

		dx := math.Abs(avatar.Pos.X - pos.X)
		dy := math.Abs(avatar.Pos.Y - pos.Y)

		sees := dx < t.ranges.Visual.X && dy < t.ranges.Visual.Y
		if avatar.Sensor {
			sees = sees || (dx < t.ranges.Sensor.X && dy < t.ranges.Sensor.Y)
		}

		if sees {
			mask |= 1 << uint(avatar.Team)
		}
	}

	return mask
}
