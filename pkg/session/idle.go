package session

import (
	"github.com/cfoust/sortie/pkg/protocol"
)

// BadgeFlagCaptures is how many flags a player captures in one match to earn
// the flag badge.
const BadgeFlagCaptures = 25

// isIdle reports whether a player has been inactive long enough that their
// next spawn waits until they come back. Bots never idle.
func (c *Coordinator) isIdle(client *Client) bool {
	limit := c.settings.Game.IdleSpawnDelay.Std()
	return !client.Bot && limit > 0 && client.idle >= limit
}

func (c *Coordinator) setSpawnDelayed(client *Client, delayed bool) {
	client.SpawnDelayed = delayed
	c.Broadcast(protocol.SpawnDelayed{Name: client.Name, Delayed: delayed})

	c.logger.Debug().
		Str("client", client.String()).
		Bool("delayed", delayed).
		Msg("spawn delay changed")
}

// UndelaySpawn is an idle player returning. Their ship spawns right away.
func (c *Coordinator) UndelaySpawn(client *Client) {
	client.idle = 0
	if !client.SpawnDelayed {
		return
	}

	c.setSpawnDelayed(client, false)
	if client.ready && c.state != StatePreMatch {
		c.spawn(client)
	}
}

// SetBusy marks a player who is chatting or in a menu. Coming back counts as
// activity.
func (c *Coordinator) SetBusy(client *Client, busy bool) {
	if !busy {
		client.idle = 0
	}
	if client.Busy == busy {
		return
	}

	client.Busy = busy
	c.Broadcast(protocol.ClientBusy{Name: client.Name, Busy: busy})
}

// achieve awards a badge once and tells everyone about it.
func (c *Coordinator) achieve(client *Client, badge uint32) {
	bit := uint32(1) << badge
	if client.Bot || client.Badges&bit != 0 {
		return
	}

	client.Badges |= bit
	c.Broadcast(protocol.AchievementMessage{Achievement: badge, Name: client.Name})

	c.logger.Info().
		Str("client", client.String()).
		Uint32("badge", badge).
		Msg("achievement earned")
}
