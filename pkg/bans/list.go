package bans

import (
	"context"
	"errors"
	"net/netip"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sasha-s/go-deadlock"
)

var ErrInvalidAddress = errors.New("invalid address")

const KICK_REASON = "kicked"

type entry struct {
	network netip.Prefix
	ban     Ban
}

// List holds the active IP bans. Every change marks the list dirty and Run
// writes it out to the store in the background.
type List struct {
	store  Store
	logger zerolog.Logger
	now    func() time.Time
	bans   map[netip.Prefix]entry
	dirty  chan struct{}
	mutex  deadlock.Mutex
}

func New(store Store) *List {
	return &List{
		store:  store,
		logger: log.With().Str("component", "bans").Logger(),
		now:    time.Now,
		bans:   make(map[netip.Prefix]entry),
		dirty:  make(chan struct{}, 1),
	}
}

// Load replaces the list with the contents of the store. A store with
// nothing in it yields an empty list.
func (l *List) Load(ctx context.Context) error {
	bans, err := l.store.Load(ctx)
	if errors.Is(err, ErrMissing) {
		return nil
	}
	if err != nil {
		return err
	}

	l.mutex.Lock()
	defer l.mutex.Unlock()

	l.bans = make(map[netip.Prefix]entry)
	now := l.now()
	for _, ban := range bans {
		network, err := ParseNetwork(ban.Network)
		if err != nil {
			l.logger.Warn().Err(err).Msg("skipping stored ban")
			continue
		}
		if ban.Expired(now) {
			continue
		}
		ban.Network = network.String()
		l.bans[network] = entry{network, ban}
	}
	return nil
}

func (l *List) markDirty() {
	select {
	case l.dirty <- struct{}{}:
	default:
	}
}

// Add bans an address or range for the given duration. A non-positive
// duration bans forever.
func (l *List) Add(address string, duration time.Duration, reason string, nonAuthenticatedOnly bool) error {
	network, err := ParseNetwork(address)
	if err != nil {
		return err
	}

	ban := Ban{
		Network:              network.String(),
		Reason:               reason,
		NonAuthenticatedOnly: nonAuthenticatedOnly,
	}
	if duration > 0 {
		ban.Expires = l.now().Add(duration)
	}

	l.mutex.Lock()
	l.bans[network] = entry{network, ban}
	l.mutex.Unlock()

	l.logger.Info().Str("ban", ban.String()).Msg("added ban")
	l.markDirty()
	return nil
}

// Kick keeps an address out for a short while, regardless of
// authentication.
func (l *List) Kick(address string, duration time.Duration) error {
	return l.Add(address, duration, KICK_REASON, false)
}

func (l *List) Remove(address string) bool {
	network, err := ParseNetwork(address)
	if err != nil {
		return false
	}

	l.mutex.Lock()
	_, ok := l.bans[network]
	delete(l.bans, network)
	l.mutex.Unlock()

	if ok {
		l.markDirty()
	}
	return ok
}

// IsBanned reports whether a connection from the address should be
// refused. Expired bans are dropped as they are found.
func (l *List) IsBanned(address string, authenticated bool) bool {
	addr, err := netip.ParseAddr(address)
	if err != nil {
		return false
	}
	addr = addr.Unmap()

	l.mutex.Lock()
	defer l.mutex.Unlock()

	now := l.now()
	banned := false
	for network, entry := range l.bans {
		if entry.ban.Expired(now) {
			delete(l.bans, network)
			continue
		}
		if !network.Contains(addr) {
			continue
		}
		if entry.ban.NonAuthenticatedOnly && authenticated {
			continue
		}
		banned = true
	}
	return banned
}

// Entries returns the unexpired bans ordered by network.
func (l *List) Entries() []Ban {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	now := l.now()
	bans := make([]Ban, 0, len(l.bans))
	for _, entry := range l.bans {
		if entry.ban.Expired(now) {
			continue
		}
		bans = append(bans, entry.ban)
	}
	sort.Slice(bans, func(i, j int) bool {
		return bans[i].Network < bans[j].Network
	})
	return bans
}

func (l *List) save(ctx context.Context) {
	if err := l.store.Save(ctx, l.Entries()); err != nil {
		l.logger.Error().Err(err).Msg("failed to persist bans")
	}
}

// Run persists the list whenever it changes until the context is done, then
// flushes any pending change.
func (l *List) Run(ctx context.Context) {
	for {
		select {
		case <-l.dirty:
			l.save(ctx)
		case <-ctx.Done():
			select {
			case <-l.dirty:
				l.save(context.Background())
			default:
			}
			return
		}
	}
}
