package ingress

import (
	"errors"
	"net/netip"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sasha-s/go-deadlock"
	"golang.org/x/time/rate"

	"github.com/cfoust/sortie/pkg/bans"
	"github.com/cfoust/sortie/pkg/config"
	"github.com/cfoust/sortie/pkg/protocol"
	"github.com/cfoust/sortie/pkg/session"
)

type ClientType uint8

const (
	ClientTypeWS ClientType = iota
	ClientTypeENet
)

func (t ClientType) String() string {
	if t == ClientTypeENet {
		return "enet"
	}
	return "ws"
}

const (
	CLIENT_MESSAGE_LIMIT int = 64
)

var ErrBanned = errors.New("address is banned")

// Connection is one client's link to an ingress.
type Connection interface {
	Host() string
	Type() ClientType
	DeviceType() string
	// Send queues a frame on a channel and never blocks.
	Send(channel uint8, frame []byte)
	// Close forcibly disconnects the client.
	Close(reason session.DisconnectReason)
	RoundTrip() time.Duration
}

// Sink is where connections and their messages end up. A connection's calls
// must be handled in the order they were made.
type Sink interface {
	Connect(join session.Join)
	Leave(conn session.ConnID)
	Deliver(packet session.Packet)
}

type route struct {
	conn    Connection
	limiter *rate.Limiter
	joined  bool
	logger  zerolog.Logger
}

// Router assigns connection ids and moves messages between the ingresses and
// the session server.
type Router struct {
	mutex  deadlock.Mutex
	routes map[session.ConnID]*route
	nextID session.ConnID

	sink  Sink
	bans  *bans.List
	limit config.RateLimit
}

func NewRouter(banList *bans.List, limit config.RateLimit) *Router {
	return &Router{
		routes: make(map[session.ConnID]*route),
		bans:   banList,
		limit:  limit,
	}
}

// Bind sets the sink. It must be called before any connection is added.
func (r *Router) Bind(sink Sink) {
	r.sink = sink
}

func (r *Router) newLimiter() *rate.Limiter {
	if r.limit.PerSecond <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}

	burst := r.limit.Burst
	if burst <= 0 {
		burst = int(r.limit.PerSecond)
	}
	return rate.NewLimiter(rate.Limit(r.limit.PerSecond), burst)
}

// Add registers a connection. Banned addresses are refused.
func (r *Router) Add(conn Connection) (session.ConnID, error) {
	address := hostOnly(conn.Host())
	if r.bans != nil && r.bans.IsBanned(address, false) {
		return session.NoConn, ErrBanned
	}

	r.mutex.Lock()
	r.nextID++
	id := r.nextID
	r.routes[id] = &route{
		conn:    conn,
		limiter: r.newLimiter(),
		logger: log.With().
			Uint32("conn", uint32(id)).
			Str("type", conn.Type().String()).
			Str("host", address).
			Logger(),
	}
	r.mutex.Unlock()

	return id, nil
}

// Remove forgets a connection after it closed.
func (r *Router) Remove(id session.ConnID) {
	r.mutex.Lock()
	route, ok := r.routes[id]
	delete(r.routes, id)
	r.mutex.Unlock()

	if !ok {
		return
	}

	route.logger.Info().Msg("client left")
	if route.joined {
		r.sink.Leave(id)
	}
}

// Receive handles one frame read from a connection. The first message must be
// a Hello; nothing is forwarded before it.
func (r *Router) Receive(id session.ConnID, frame []byte) {
	r.mutex.Lock()
	route, ok := r.routes[id]
	if !ok {
		r.mutex.Unlock()
		return
	}

	if !route.limiter.Allow() {
		r.mutex.Unlock()
		route.logger.Warn().Msg("client is flooding")
		route.conn.Close(session.ReasonFlooding)
		return
	}

	message, err := protocol.DecodeFromClient(frame)
	if err != nil {
		r.mutex.Unlock()
		route.logger.Debug().Err(err).Msg("dropping bad frame")
		return
	}

	joined := route.joined
	hello, isHello := message.(protocol.Hello)
	if !joined && isHello {
		route.joined = true
	}
	r.mutex.Unlock()

	switch {
	case !joined && isHello:
		route.logger.Info().Str("name", hello.Name).Msg("client joined")
		r.sink.Connect(session.Join{
			Conn:     id,
			Name:     hello.Name,
			Password: hello.Password,
		})
	case !joined:
		route.logger.Debug().Str("message", protocol.NameOf(message)).Msg("message before hello")
	case isHello:
	default:
		r.sink.Deliver(session.Packet{Conn: id, Message: message})
	}
}

func (r *Router) get(id session.ConnID) *route {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.routes[id]
}

func (r *Router) Count() int {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return len(r.routes)
}

func (r *Router) Send(id session.ConnID, messages ...protocol.Message) {
	route := r.get(id)
	if route == nil {
		return
	}

	for _, message := range messages {
		frame, err := protocol.Encode(message)
		if err != nil {
			route.logger.Error().Err(err).Msg("failed to encode message")
			continue
		}
		route.conn.Send(protocol.OrderingOf(message).Channel(), frame)
	}
}

func (r *Router) Scope(id session.ConnID, objects []protocol.GhostState) {
	r.Send(id, protocol.GhostUpdate{Objects: objects})
}

func (r *Router) Disconnect(id session.ConnID, reason session.DisconnectReason) {
	route := r.get(id)
	if route == nil {
		return
	}

	route.logger.Info().Str("reason", string(reason)).Msg("disconnecting client")
	route.conn.Close(reason)
}

func (r *Router) Address(id session.ConnID) string {
	route := r.get(id)
	if route == nil {
		return ""
	}
	return hostOnly(route.conn.Host())
}

func (r *Router) RoundTrip(id session.ConnID) time.Duration {
	route := r.get(id)
	if route == nil {
		return 0
	}
	return route.conn.RoundTrip()
}

var _ session.Transport = (*Router)(nil)
var _ Sink = (*session.Server)(nil)

func hostOnly(host string) string {
	if addrPort, err := netip.ParseAddrPort(host); err == nil {
		return addrPort.Addr().String()
	}
	return host
}
