package ingress

import (
	"context"
	"errors"
	"time"

	"github.com/codecat/go-enet"
	"github.com/rs/zerolog/log"
	"github.com/sasha-s/go-deadlock"

	"github.com/cfoust/sortie/pkg/session"
)

const enetChannels = 3

// Disconnect codes sent to desktop clients.
var disconnectCodes = map[session.DisconnectReason]uint32{
	session.ReasonNone:     0,
	session.ReasonKicked:   2,
	session.ReasonBanned:   3,
	session.ReasonFlooding: 4,
	session.ReasonIdle:     5,
	session.ReasonShutdown: 6,
}

func channelFlags(channel uint8) enet.PacketFlags {
	if channel == 1 {
		return enet.PacketFlagUnsequenced
	}
	return enet.PacketFlagReliable
}

type outgoing struct {
	peer    enet.Peer
	channel uint8
	data    []byte
	// Set when the peer should be dropped instead.
	close  bool
	reason session.DisconnectReason
}

// ENetClient is a desktop client. The host is not safe for concurrent use, so
// every operation is queued onto the ingress loop.
type ENetClient struct {
	id      session.ConnID
	peer    enet.Peer
	host    string
	ingress *ENetIngress
}

func (c *ENetClient) Host() string {
	return c.host
}

func (c *ENetClient) Type() ClientType {
	return ClientTypeENet
}

func (c *ENetClient) DeviceType() string {
	return "desktop"
}

func (c *ENetClient) Send(channel uint8, frame []byte) {
	c.ingress.queue(outgoing{
		peer:    c.peer,
		channel: channel,
		data:    frame,
	})
}

func (c *ENetClient) Close(reason session.DisconnectReason) {
	c.ingress.queue(outgoing{
		peer:   c.peer,
		close:  true,
		reason: reason,
	})
}

func (c *ENetClient) RoundTrip() time.Duration {
	return 0
}

var _ Connection = (*ENetClient)(nil)

type ENetIngress struct {
	router *Router
	host   enet.Host

	mutex   deadlock.Mutex
	clients map[enet.Peer]*ENetClient

	outgoing chan outgoing
}

func NewENetIngress(router *Router) *ENetIngress {
	return &ENetIngress{
		router:   router,
		clients:  make(map[enet.Peer]*ENetClient),
		outgoing: make(chan outgoing, 1024),
	}
}

func (server *ENetIngress) Serve(port int, peers int) error {
	if port <= 0 || port > 65535 {
		return errors.New("invalid enet port")
	}
	if peers <= 0 {
		peers = 128
	}

	enet.Initialize()

	host, err := enet.NewHost(enet.NewListenAddress(uint16(port)), uint64(peers), enetChannels, 0, 0)
	if err != nil {
		return err
	}
	server.host = host

	log.Info().Int("port", port).Msg("listening for desktop clients")
	return nil
}

func (server *ENetIngress) queue(packet outgoing) {
	select {
	case server.outgoing <- packet:
	default:
		log.Warn().Msg("enet send queue full; dropping packet")
	}
}

func (server *ENetIngress) FindClientForPeer(peer enet.Peer) *ENetClient {
	server.mutex.Lock()
	defer server.mutex.Unlock()
	return server.clients[peer]
}

func (server *ENetIngress) flush() {
	for {
		select {
		case packet := <-server.outgoing:
			if packet.close {
				packet.peer.DisconnectLater(disconnectCodes[packet.reason])
				continue
			}

			err := packet.peer.SendBytes(packet.data, packet.channel, channelFlags(packet.channel))
			if err != nil {
				log.Debug().Err(err).Msg("failed to send enet packet")
			}
		default:
			return
		}
	}
}

func (server *ENetIngress) handleConnect(peer enet.Peer) {
	client := &ENetClient{
		peer:    peer,
		host:    peer.GetAddress().String(),
		ingress: server,
	}

	id, err := server.router.Add(client)
	if err != nil {
		log.Info().Err(err).Str("host", client.host).Msg("refusing desktop client")
		peer.DisconnectNow(disconnectCodes[session.ReasonBanned])
		return
	}
	client.id = id

	server.mutex.Lock()
	server.clients[peer] = client
	server.mutex.Unlock()

	log.Info().Uint32("conn", uint32(id)).Str("host", client.host).Msg("client connected (desktop)")
}

func (server *ENetIngress) handleDisconnect(peer enet.Peer) {
	server.mutex.Lock()
	client, ok := server.clients[peer]
	delete(server.clients, peer)
	server.mutex.Unlock()

	if !ok {
		return
	}
	server.router.Remove(client.id)
}

// Poll services the host until the context is cancelled.
func (server *ENetIngress) Poll(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		server.flush()

		event := server.host.Service(5)
		switch event.GetType() {
		case enet.EventConnect:
			server.handleConnect(event.GetPeer())
		case enet.EventDisconnect:
			server.handleDisconnect(event.GetPeer())
		case enet.EventReceive:
			packet := event.GetPacket()
			data := append([]byte(nil), packet.GetData()...)
			packet.Destroy()

			target := server.FindClientForPeer(event.GetPeer())
			if target == nil {
				continue
			}
			server.router.Receive(target.id, data)
		}
	}
}

// Shutdown must only be called after Poll has returned.
func (server *ENetIngress) Shutdown() {
	if server.host == nil {
		return
	}

	server.mutex.Lock()
	for peer := range server.clients {
		peer.DisconnectNow(disconnectCodes[session.ReasonShutdown])
	}
	server.mutex.Unlock()

	server.host.Destroy()
	enet.Deinitialize()
}
