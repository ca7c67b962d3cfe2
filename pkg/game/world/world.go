package world

import (
	"sort"

	"github.com/repeale/fp-go/option"
)

const DefaultCellSize = 256

// Handle addresses an object in the arena. Handles are never reused: a slot
// that is freed gets a new generation, so stale handles simply fail lookups.
type Handle uint64

const NoHandle Handle = 0

func makeHandle(index, generation uint32) Handle {
	return Handle(uint64(generation)<<32 | uint64(index))
}

func (h Handle) index() uint32 {
	return uint32(h)
}

func (h Handle) generation() uint32 {
	return uint32(h >> 32)
}

type Kind int

const (
	KindShip Kind = iota
	KindRobot
	KindFlag
	KindTurret
	KindForceFieldProjector
	KindAsteroid
	KindMine
	KindSpyBug
	KindProjectile
	KindGoalZone
	KindNexus
	KindCore
	KindSoccerBall
	KindLoadoutZone
	// The replicated object that carries session state to every client
	KindController
)

func (k Kind) IsAvatar() bool {
	return k == KindShip || k == KindRobot
}

// Team values for objects that do not belong to a playing team.
const (
	TeamNeutral = -1
	TeamHostile = -2
)

// NoOwner marks objects not controlled by any client.
const NoOwner int32 = -1

type Object struct {
	Handle Handle
	Kind   Kind
	Team   int
	Pos    Point
	Radius float64

	// Client that owns or controls the object
	Owner int32
	// The object that fired a projectile, laid a mine or placed a spy bug
	Shooter Handle
	// The avatar an item is mounted on
	MountedOn Handle

	// Avatars with the sensor module see further
	Sensor bool
	// Whether the object shows up on the commander's map without a sensor
	OnCommanderMap bool

	// Weapon properties for projectiles and mines
	SelfDamage     float64
	DamagesFriends bool
}

func (o *Object) Bounds() Rect {
	return RectAround(o.Pos, o.Radius, o.Radius)
}

func (o *Object) IsMounted() bool {
	return o.MountedOn != NoHandle
}

type slot struct {
	generation uint32
	object     *Object
}

// World is the arena of live objects plus the spatial index the physics side
// keeps up to date through Move.
type World struct {
	slots  []slot
	free   []uint32
	grid   *Grid
	mounts map[Handle][]Handle
}

func New(cellSize float64) *World {
	return &World{
		// slot 0 is reserved so that NoHandle never resolves
		slots:  make([]slot, 1),
		grid:   NewGrid(cellSize),
		mounts: make(map[Handle][]Handle),
	}
}

func (w *World) Add(o Object) Handle {
	var index uint32
	if n := len(w.free); n > 0 {
		index = w.free[n-1]
		w.free = w.free[:n-1]
	} else {
		index = uint32(len(w.slots))
		w.slots = append(w.slots, slot{})
	}

	s := &w.slots[index]
	s.generation++
	handle := makeHandle(index, s.generation)

	object := o
	object.Handle = handle
	object.MountedOn = NoHandle
	s.object = &object

	w.grid.Insert(handle, object.Bounds())
	return handle
}

func (w *World) lookup(h Handle) *Object {
	index := h.index()
	if h == NoHandle || int(index) >= len(w.slots) {
		return nil
	}
	s := w.slots[index]
	if s.object == nil || s.generation != h.generation() {
		return nil
	}
	return s.object
}

func (w *World) Get(h Handle) opt.Option[*Object] {
	object := w.lookup(h)
	if object == nil {
		return opt.None[*Object]()
	}
	return opt.Some(object)
}

func (w *World) Exists(h Handle) bool {
	return w.lookup(h) != nil
}

// Remove destroys an object. Items it was carrying are dropped in place.
func (w *World) Remove(h Handle) {
	object := w.lookup(h)
	if object == nil {
		return
	}

	for _, item := range w.mounts[h] {
		if mounted := w.lookup(item); mounted != nil {
			mounted.MountedOn = NoHandle
		}
	}
	delete(w.mounts, h)

	if object.IsMounted() {
		w.Unmount(h)
	}

	w.grid.Remove(h)

	index := h.index()
	w.slots[index].object = nil
	w.free = append(w.free, index)
}

// Move relocates an object along with anything mounted on it.
func (w *World) Move(h Handle, pos Point) {
	object := w.lookup(h)
	if object == nil {
		return
	}

	object.Pos = pos
	w.grid.Insert(h, object.Bounds())

	for _, item := range w.mounts[h] {
		w.Move(item, pos)
	}
}

func (w *World) Mount(item, carrier Handle) bool {
	object := w.lookup(item)
	holder := w.lookup(carrier)
	if object == nil || holder == nil || item == carrier || holder.MountedOn == item {
		return false
	}

	if object.IsMounted() {
		w.Unmount(item)
	}

	object.MountedOn = carrier
	w.mounts[carrier] = append(w.mounts[carrier], item)
	w.Move(item, holder.Pos)
	return true
}

func (w *World) Unmount(item Handle) {
	object := w.lookup(item)
	if object == nil || !object.IsMounted() {
		return
	}

	carrier := object.MountedOn
	object.MountedOn = NoHandle

	items := w.mounts[carrier]
	for i, other := range items {
		if other == item {
			items = append(items[:i], items[i+1:]...)
			break
		}
	}
	if len(items) == 0 {
		delete(w.mounts, carrier)
	} else {
		w.mounts[carrier] = items
	}
}

// MountedItems lists the live items carried by an object.
func (w *World) MountedItems(carrier Handle) []Handle {
	items := []Handle{}
	for _, item := range w.mounts[carrier] {
		if w.lookup(item) != nil {
			items = append(items, item)
		}
	}
	return items
}

// Query finds every object whose extent overlaps the rectangle and passes
// the test. Results are sorted by handle.
func (w *World) Query(r Rect, test func(*Object) bool) []Handle {
	found := []Handle{}
	for h := range w.grid.Candidates(r) {
		object := w.lookup(h)
		if object == nil || !object.Bounds().Intersects(r) {
			continue
		}
		if test != nil && !test(object) {
			continue
		}
		found = append(found, h)
	}

	SortHandles(found)
	return found
}

// Each visits live objects in handle index order.
func (w *World) Each(do func(*Object)) {
	for _, s := range w.slots {
		if s.object != nil {
			do(s.object)
		}
	}
}

func (w *World) Len() int {
	return w.grid.Len()
}

func SortHandles(handles []Handle) {
	sort.Slice(handles, func(i, j int) bool {
		return handles[i] < handles[j]
	})
}
