package session

import (
	"fmt"
	"time"

	"github.com/cfoust/sortie/pkg/game/clock"
	"github.com/cfoust/sortie/pkg/game/score"
	"github.com/cfoust/sortie/pkg/game/world"
	"github.com/cfoust/sortie/pkg/protocol"
)

type Statistics struct {
	Kills         int
	Deaths        int
	Suicides      int
	Fratricides   int
	SwitchedTeams int
	FlagCaptures  int
}

// Describes a participant in the match, human or robot.
type Client struct {
	// Owner id used for world objects
	ID   int32
	Conn ConnID
	Name string
	Team int
	Role protocol.Role

	Authenticated bool
	Badges        uint32
	Bot           bool
	SpawnDelayed  bool
	Busy          bool
	// The hosting player is never kicked for idling
	Local bool

	Ping time.Duration

	Avatar    world.Handle
	Commander bool

	Stats Statistics
	Moved bool

	score int32
	// Total points scored by anyone while this client was present
	played int32

	ready           bool
	sequence        uint32
	wantsScoreboard bool
	muted           bool
	spawns          int
	// Time since the player last did anything
	idle time.Duration

	respawn     clock.Countdown
	switchTeams clock.Countdown
}

var _ score.Participant = (*Client)(nil)

func (c *Client) String() string {
	if c.Bot {
		return fmt.Sprintf("%s (bot %d)", c.Name, c.ID)
	}
	return fmt.Sprintf("%s (%d:%d)", c.Name, c.ID, c.Conn)
}

func (c *Client) Score() int32 {
	return c.score
}

func (c *Client) AddScore(points int32) {
	c.score += points
}

func (c *Client) IsLevelChanger() bool {
	return c.Role >= protocol.RoleLevelChanger
}

func (c *Client) IsAdmin() bool {
	return c.Role >= protocol.RoleAdmin
}

func (c *Client) IsOwner() bool {
	return c.Role >= protocol.RoleOwner
}

func (c *Client) IsReady() bool {
	return c.ready
}

func (c *Client) IsMuted() bool {
	return c.muted
}

func (c *Client) WantsScoreboard() bool {
	return c.wantsScoreboard
}

// CanSwitchTeams is false while the anti-abuse cooldown runs.
func (c *Client) CanSwitchTeams() bool {
	return !c.switchTeams.Running()
}

// Rating is this client's share of the points scored while they played,
// between -1 and 1.
func (c *Client) Rating() float64 {
	if c.played == 0 {
		return 0
	}

	rating := float64(c.score) / float64(c.played)
	switch {
	case rating > 1:
		return 1
	case rating < -1:
		return -1
	}
	return rating
}
