package protocol

import (
	"fmt"
	"reflect"

	"github.com/fxamacker/cbor/v2"
	"github.com/repeale/fp-go/option"
)

type Kind uint16

type Direction uint8

const (
	ServerToClient Direction = iota
	ClientToServer
	Bidirectional
)

func (d Direction) String() string {
	switch d {
	case ServerToClient:
		return "S"
	case ClientToServer:
		return "C"
	}
	return "C/S"
}

// Ordering is the delivery class a message kind is always sent with.
type Ordering uint8

const (
	// Guaranteed and delivered in order
	Ordered Ordering = iota
	// May be dropped or arrive out of order
	Unguaranteed
	// Guaranteed and ordered, sent on its own channel for large payloads
	Bulk
)

func (o Ordering) String() string {
	switch o {
	case Ordered:
		return "O"
	case Unguaranteed:
		return "U"
	case Bulk:
		return "B"
	}
	return "?"
}

// Channel is the transport channel used for an ordering class.
func (o Ordering) Channel() uint8 {
	return uint8(o)
}

type Message interface {
	Kind() Kind
}

type Entry struct {
	Kind      Kind
	Name      string
	Direction Direction
	Ordering  Ordering
	decode    func(data []byte) (Message, error)
}

func (e Entry) String() string {
	return fmt.Sprintf("%s (%s, %s)", e.Name, e.Direction, e.Ordering)
}

func entry[T Message](direction Direction, ordering Ordering) Entry {
	var zero T
	return Entry{
		Kind:      zero.Kind(),
		Name:      reflect.TypeOf(zero).Name(),
		Direction: direction,
		Ordering:  ordering,
		decode: func(data []byte) (Message, error) {
			var message T
			err := cbor.Unmarshal(data, &message)
			return message, err
		},
	}
}

var catalog = map[Kind]Entry{}

func register(entries ...Entry) {
	for _, e := range entries {
		if _, ok := catalog[e.Kind]; ok {
			panic(fmt.Sprintf("message kind %d registered twice", e.Kind))
		}
		catalog[e.Kind] = e
	}
}

func Lookup(kind Kind) opt.Option[Entry] {
	e, ok := catalog[kind]
	if !ok {
		return opt.None[Entry]()
	}
	return opt.Some(e)
}

// OrderingOf reports the delivery class of a message. Unknown kinds are
// treated as ordered.
func OrderingOf(message Message) Ordering {
	e, ok := catalog[message.Kind()]
	if !ok {
		return Ordered
	}
	return e.Ordering
}

func NameOf(message Message) string {
	e, ok := catalog[message.Kind()]
	if !ok {
		return fmt.Sprintf("unknown(%d)", message.Kind())
	}
	return e.Name
}

// Entries lists the catalog in kind order.
func Entries() []Entry {
	entries := make([]Entry, 0, len(catalog))
	for kind := Kind(0); int(kind) < int(numKinds); kind++ {
		if e, ok := catalog[kind]; ok {
			entries = append(entries, e)
		}
	}
	return entries
}
