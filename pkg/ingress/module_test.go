package ingress

import (
	"testing"
	"time"

	"github.com/cfoust/sortie/pkg/bans"
	"github.com/cfoust/sortie/pkg/config"
	"github.com/cfoust/sortie/pkg/protocol"
	"github.com/cfoust/sortie/pkg/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sink struct {
	joins    chan session.Join
	leaves   chan session.ConnID
	incoming chan session.Packet
}

func newSink() *sink {
	return &sink{
		joins:    make(chan session.Join, 16),
		leaves:   make(chan session.ConnID, 16),
		incoming: make(chan session.Packet, 16),
	}
}

func (s *sink) Connect(join session.Join)     { s.joins <- join }
func (s *sink) Leave(conn session.ConnID)     { s.leaves <- conn }
func (s *sink) Deliver(packet session.Packet) { s.incoming <- packet }

type sent struct {
	channel uint8
	frame   []byte
}

type fakeConn struct {
	host   string
	sent   []sent
	closed []session.DisconnectReason
}

func (c *fakeConn) Host() string                          { return c.host }
func (c *fakeConn) Type() ClientType                      { return ClientTypeWS }
func (c *fakeConn) DeviceType() string                    { return "desktop" }
func (c *fakeConn) Send(channel uint8, frame []byte)      { c.sent = append(c.sent, sent{channel, frame}) }
func (c *fakeConn) Close(reason session.DisconnectReason) { c.closed = append(c.closed, reason) }
func (c *fakeConn) RoundTrip() time.Duration              { return 40 * time.Millisecond }

func encode(t *testing.T, message protocol.Message) []byte {
	frame, err := protocol.Encode(message)
	require.NoError(t, err)
	return frame
}

func TestRouterHello(t *testing.T) {
	router := NewRouter(nil, config.RateLimit{})
	s := newSink()
	router.Bind(s)

	conn := &fakeConn{host: "10.0.0.1:4000"}
	id, err := router.Add(conn)
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.1", router.Address(id))
	assert.Equal(t, 40*time.Millisecond, router.RoundTrip(id))

	router.Receive(id, encode(t, protocol.SendChat{Text: "early"}))
	assert.Empty(t, s.incoming)

	router.Receive(id, encode(t, protocol.Hello{Name: "a", Password: "pw"}))
	require.Len(t, s.joins, 1)
	assert.Equal(t, session.Join{Conn: id, Name: "a", Password: "pw"}, <-s.joins)

	router.Receive(id, encode(t, protocol.Hello{Name: "again"}))
	assert.Empty(t, s.joins)

	router.Receive(id, encode(t, protocol.SendChat{Global: true, Text: "hi"}))
	require.Len(t, s.incoming, 1)
	assert.Equal(t, session.Packet{Conn: id, Message: protocol.SendChat{Global: true, Text: "hi"}}, <-s.incoming)

	router.Receive(id, encode(t, protocol.DisplayMessage{Text: "spoofed"}))
	router.Receive(id, []byte{0xff})
	assert.Empty(t, s.incoming)

	router.Remove(id)
	assert.Equal(t, id, <-s.leaves)
	assert.Equal(t, 0, router.Count())
}

func TestRouterLeaveBeforeHello(t *testing.T) {
	router := NewRouter(nil, config.RateLimit{})
	s := newSink()
	router.Bind(s)

	id, err := router.Add(&fakeConn{host: "10.0.0.1:4000"})
	require.NoError(t, err)

	router.Remove(id)
	router.Remove(id)
	assert.Empty(t, s.leaves)
}

func TestRouterSend(t *testing.T) {
	router := NewRouter(nil, config.RateLimit{})
	router.Bind(newSink())

	conn := &fakeConn{host: "10.0.0.1:4000"}
	id, err := router.Add(conn)
	require.NoError(t, err)

	router.Send(id, protocol.DisplayMessage{Text: "hi"})
	router.Scope(id, []protocol.GhostState{{Handle: 7}})
	require.Len(t, conn.sent, 2)

	assert.Equal(t, protocol.Ordered.Channel(), conn.sent[0].channel)
	message, err := protocol.Decode(conn.sent[0].frame)
	require.NoError(t, err)
	assert.Equal(t, protocol.DisplayMessage{Text: "hi"}, message)

	assert.Equal(t, protocol.Unguaranteed.Channel(), conn.sent[1].channel)
	message, err = protocol.Decode(conn.sent[1].frame)
	require.NoError(t, err)
	assert.Equal(t, protocol.GhostUpdate{Objects: []protocol.GhostState{{Handle: 7}}}, message)

	router.Disconnect(id, session.ReasonKicked)
	assert.Equal(t, []session.DisconnectReason{session.ReasonKicked}, conn.closed)

	router.Send(99, protocol.DisplayMessage{Text: "nobody"})
	assert.Equal(t, "", router.Address(99))
}

func TestRouterFlooding(t *testing.T) {
	router := NewRouter(nil, config.RateLimit{PerSecond: 1, Burst: 2})
	s := newSink()
	router.Bind(s)

	conn := &fakeConn{host: "10.0.0.1:4000"}
	id, err := router.Add(conn)
	require.NoError(t, err)

	router.Receive(id, encode(t, protocol.Hello{Name: "a"}))
	router.Receive(id, encode(t, protocol.SendChat{Text: "one"}))
	router.Receive(id, encode(t, protocol.SendChat{Text: "two"}))

	assert.Len(t, s.incoming, 1)
	assert.Equal(t, []session.DisconnectReason{session.ReasonFlooding}, conn.closed)
}

func TestRouterBans(t *testing.T) {
	list := bans.New(&bans.MemoryStore{})
	require.NoError(t, list.Add("10.0.0.2", time.Hour, "test", false))

	router := NewRouter(list, config.RateLimit{})
	router.Bind(newSink())

	_, err := router.Add(&fakeConn{host: "10.0.0.2:5000"})
	assert.ErrorIs(t, err, ErrBanned)

	_, err = router.Add(&fakeConn{host: "10.0.0.3:5000"})
	assert.NoError(t, err)
	assert.Equal(t, 1, router.Count())
}
