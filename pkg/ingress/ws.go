package ingress

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/mileusna/useragent"
	"github.com/rs/zerolog/log"
	"nhooyr.io/websocket"

	"github.com/cfoust/sortie/pkg/session"
)

// Frame wraps every websocket message with the channel it belongs to.
type Frame struct {
	Channel uint8  `cbor:"1,keyasint"`
	Data    []byte `cbor:"2,keyasint"`
}

type WSClient struct {
	host   string
	device string

	send      chan []byte
	closed    chan struct{}
	closeOnce sync.Once
	reason    session.DisconnectReason

	roundTrip atomic.Int64
}

func NewWSClient(host string, device string) *WSClient {
	return &WSClient{
		host:   host,
		device: device,
		send:   make(chan []byte, CLIENT_MESSAGE_LIMIT),
		closed: make(chan struct{}),
	}
}

func (c *WSClient) Host() string {
	return c.host
}

func (c *WSClient) Type() ClientType {
	return ClientTypeWS
}

func (c *WSClient) DeviceType() string {
	return c.device
}

func (c *WSClient) Send(channel uint8, frame []byte) {
	bytes, err := cbor.Marshal(Frame{Channel: channel, Data: frame})
	if err != nil {
		log.Error().Err(err).Msg("failed to encode ws frame")
		return
	}

	select {
	case c.send <- bytes:
	default:
		c.Close(session.ReasonFlooding)
	}
}

func (c *WSClient) Close(reason session.DisconnectReason) {
	c.closeOnce.Do(func() {
		c.reason = reason
		close(c.closed)
	})
}

func (c *WSClient) RoundTrip() time.Duration {
	return time.Duration(c.roundTrip.Load())
}

var _ Connection = (*WSClient)(nil)

type WSIngress struct {
	router     *Router
	httpServer *http.Server

	PingInterval time.Duration
}

func NewWSIngress(router *Router) *WSIngress {
	return &WSIngress{
		router:       router,
		PingInterval: 5 * time.Second,
	}
}

func WriteTimeout(ctx context.Context, timeout time.Duration, c *websocket.Conn, msg []byte) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.Write(ctx, websocket.MessageBinary, msg)
}

func (server *WSIngress) HandleClient(ctx context.Context, c *websocket.Conn, client *WSClient) error {
	id, err := server.router.Add(client)
	if err != nil {
		c.Close(websocket.StatusPolicyViolation, err.Error())
		return nil
	}
	defer server.router.Remove(id)

	logger := log.With().
		Uint32("conn", uint32(id)).
		Str("host", client.host).
		Str("device", client.device).
		Logger()
	logger.Info().Msg("client connected")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		for {
			typ, message, err := c.Read(ctx)
			if err != nil {
				cancel()
				return
			}
			if typ != websocket.MessageBinary {
				continue
			}

			var frame Frame
			if err := cbor.Unmarshal(message, &frame); err != nil {
				logger.Debug().Err(err).Msg("dropping bad ws frame")
				continue
			}
			server.router.Receive(id, frame.Data)
		}
	}()

	go func() {
		if server.PingInterval <= 0 {
			return
		}

		ticker := time.NewTicker(server.PingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				start := time.Now()
				if err := c.Ping(ctx); err != nil {
					return
				}
				client.roundTrip.Store(int64(time.Since(start)))
			}
		}
	}()

	for {
		select {
		case msg := <-client.send:
			err := WriteTimeout(ctx, time.Second*5, c, msg)
			if err != nil {
				logger.Error().Msg("client missed write timeout; disconnecting")
				return err
			}
		case <-client.closed:
			// Frames queued before the close still go out.
		flush:
			for {
				select {
				case msg := <-client.send:
					if err := WriteTimeout(ctx, time.Second, c, msg); err != nil {
						return err
					}
				default:
					break flush
				}
			}
			return c.Close(websocket.StatusPolicyViolation, string(client.reason))
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (server *WSIngress) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})

	if err != nil {
		log.Error().Err(err).Msg("error accepting client connection")
		return
	}

	defer c.Close(websocket.StatusInternalError, "operational fault during relay")

	// We use nginx for ingress everywhere, so check this first
	hostname := r.RemoteAddr

	original, ok := r.Header["X-Forwarded-For"]
	if ok {
		hostname = original[0]
	}

	device := "desktop"
	agent := useragent.Parse(r.UserAgent())
	switch {
	case agent.Mobile:
		device = "mobile"
	case agent.Tablet:
		device = "tablet"
	case agent.Bot:
		device = "bot"
	}

	client := NewWSClient(hostname, device)

	err = server.HandleClient(r.Context(), c, client)
	if errors.Is(err, context.Canceled) {
		return
	}
	if websocket.CloseStatus(err) == websocket.StatusNormalClosure ||
		websocket.CloseStatus(err) == websocket.StatusGoingAway {
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("failed to close client port")
		return
	}
}

func (server *WSIngress) Serve(ctx context.Context, port int) error {
	listen, err := net.Listen("tcp", fmt.Sprintf("0.0.0.0:%d", port))
	if err != nil {
		log.Error().Err(err).Msg("failed to bind WebSocket port")
		return err
	}

	log.Info().Msgf("listening on http://%v", listen.Addr())

	server.httpServer = &http.Server{
		Handler: server,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	return server.httpServer.Serve(listen)
}

func (server *WSIngress) Shutdown(ctx context.Context) {
	if server.httpServer == nil {
		return
	}
	server.httpServer.Shutdown(ctx)
}
