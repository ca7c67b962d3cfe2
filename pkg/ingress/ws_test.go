package ingress

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/fxamacker/cbor/v2"
	"nhooyr.io/websocket"

	"github.com/cfoust/sortie/pkg/config"
	"github.com/cfoust/sortie/pkg/protocol"
	"github.com/cfoust/sortie/pkg/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFrame(t *testing.T, ctx context.Context, c *websocket.Conn, message protocol.Message) {
	bytes, err := cbor.Marshal(Frame{
		Channel: protocol.OrderingOf(message).Channel(),
		Data:    encode(t, message),
	})
	require.NoError(t, err)
	require.NoError(t, c.Write(ctx, websocket.MessageBinary, bytes))
}

func TestWSIngress(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	router := NewRouter(nil, config.RateLimit{})
	s := newSink()
	router.Bind(s)

	ingress := NewWSIngress(router)
	ingress.PingInterval = 0

	server := httptest.NewServer(ingress)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	c, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	defer c.Close(websocket.StatusNormalClosure, "")

	writeFrame(t, ctx, c, protocol.Hello{Name: "web"})

	var join session.Join
	select {
	case join = <-s.joins:
	case <-ctx.Done():
		t.Fatal("client never joined")
	}
	assert.Equal(t, "web", join.Name)
	assert.Equal(t, "127.0.0.1", router.Address(join.Conn))

	router.Send(join.Conn, protocol.DisplayMessage{Text: "welcome"})

	typ, data, err := c.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, websocket.MessageBinary, typ)

	var frame Frame
	require.NoError(t, cbor.Unmarshal(data, &frame))
	assert.Equal(t, protocol.Ordered.Channel(), frame.Channel)
	message, err := protocol.Decode(frame.Data)
	require.NoError(t, err)
	assert.Equal(t, protocol.DisplayMessage{Text: "welcome"}, message)

	writeFrame(t, ctx, c, protocol.SendChat{Global: true, Text: "hello"})
	select {
	case packet := <-s.incoming:
		assert.Equal(t, session.Packet{Conn: join.Conn, Message: protocol.SendChat{Global: true, Text: "hello"}}, packet)
	case <-ctx.Done():
		t.Fatal("message never arrived")
	}

	router.Disconnect(join.Conn, session.ReasonKicked)
	_, _, err = c.Read(ctx)
	assert.Equal(t, websocket.StatusPolicyViolation, websocket.CloseStatus(err))

	select {
	case conn := <-s.leaves:
		assert.Equal(t, join.Conn, conn)
	case <-ctx.Done():
		t.Fatal("client never left")
	}
}
