package session

import (
	"github.com/repeale/fp-go/option"

	"github.com/cfoust/sortie/pkg/game/score"
	"github.com/cfoust/sortie/pkg/game/world"
	"github.com/cfoust/sortie/pkg/protocol"
)

var killStrings = map[world.Kind]string{
	world.KindProjectile: "blasted",
	world.KindMine:       "mined",
	world.KindSpyBug:     "bugged",
	world.KindAsteroid:   "crushed",
	world.KindTurret:     "turreted",
}

// AddObject registers an object created by the physics side. Flags are
// tracked for passive visibility and spy bugs scope their surroundings for
// their team. Always visible objects are replicated to everyone.
func (c *Coordinator) AddObject(object world.Object, alwaysVisible bool) world.Handle {
	h := c.world.Add(object)

	if alwaysVisible {
		c.scope.AddAlways(h)
	}

	switch object.Kind {
	case world.KindFlag:
		c.interest.Add(h)
	case world.KindSpyBug:
		c.scope.AddSpyBug(h)
	}

	return h
}

func (c *Coordinator) RemoveObject(h world.Handle) {
	c.world.Remove(h)
}

// MoveObject relocates an object. Moving an avatar counts as activity for
// its owner.
func (c *Coordinator) MoveObject(h world.Handle, pos world.Point) {
	object := c.world.Get(h)
	if opt.IsNone(object) {
		return
	}

	c.world.Move(h, pos)

	if object.Value.Kind.IsAvatar() {
		owner := c.clientByID(object.Value.Owner)
		if opt.IsSome(owner) {
			owner.Value.Moved = true
			owner.Value.idle = 0
		}
	}
}

// MountItem puts an item on an avatar and tells everyone who has the flag.
func (c *Coordinator) MountItem(item, carrier world.Handle) bool {
	if !c.world.Mount(item, carrier) {
		return false
	}
	c.Broadcast(protocol.FlagPossession{Bits: c.flagBits()})
	return true
}

// DropItems unmounts everything the client's avatar carries.
func (c *Coordinator) DropItems(client *Client) {
	if client.Avatar == world.NoHandle {
		return
	}

	items := c.world.MountedItems(client.Avatar)
	if len(items) == 0 {
		return
	}

	for _, item := range items {
		c.world.Unmount(item)
	}
	c.Broadcast(protocol.FlagPossession{Bits: c.flagBits()})
}

// ObjectCanDamageObject decides whether a damaging object may hurt another.
func (c *Coordinator) ObjectCanDamageObject(damager, victim world.Handle) bool {
	source := c.world.Get(damager)
	if opt.IsNone(source) {
		return true
	}

	target := c.world.Get(victim)
	if opt.IsNone(target) || target.Value.Owner == world.NoOwner {
		return true
	}

	d, v := source.Value, target.Value

	switch d.Kind {
	case world.KindAsteroid:
		return true
	case world.KindProjectile, world.KindMine, world.KindSpyBug:
	default:
		return false
	}

	if d.Owner != world.NoOwner && d.Owner == v.Owner {
		return d.SelfDamage != 0
	}

	if d.Team == v.Team && v.Kind != world.KindSpyBug {
		return !c.IsTeamGame() || d.DamagesFriends
	}

	return true
}

// ClientKilled scores the death of a client's avatar. The killer is whatever
// object dealt the final blow.
func (c *Coordinator) ClientKilled(victim *Client, killer world.Handle) {
	if c.IsOver() || victim == nil {
		return
	}

	victim.Stats.Deaths++

	object := c.world.Get(killer)
	description := ""
	owner := opt.None[*Client]()
	if opt.IsSome(object) {
		description = killStrings[object.Value.Kind]
		owner = c.clientByID(object.Value.Owner)
	}

	victimTeam := victim.Team
	if avatar := c.world.Get(victim.Avatar); opt.IsSome(avatar) {
		victimTeam = avatar.Value.Team
	}

	if opt.IsSome(owner) {
		k := owner.Value
		switch {
		case k == victim:
			k.Stats.Suicides++
			c.UpdateScore(k, score.KillSelf, 0)
		case c.IsTeamGame() && k.Team == victim.Team:
			k.Stats.Fratricides++
			c.UpdateScore(k, score.KillTeammate, 0)
		default:
			k.Stats.Kills++
			c.UpdateScore(k, score.KillEnemy, 0)
		}

		c.Broadcast(protocol.KillMessage{
			Victim:      victim.Name,
			Killer:      k.Name,
			Description: description,
		})
	} else {
		if opt.IsSome(object) {
			o := object.Value
			switch {
			case o.Kind == world.KindAsteroid:
				c.UpdateScore(victim, score.KilledByAsteroid, 0)
			case c.teams.Valid(o.Team) && c.IsTeamGame():
				event := score.KillEnemy
				if victimTeam == o.Team {
					event = score.KillTeammate
				}
				c.UpdateTeamScore(o.Team, event, 0)
			default:
				shooter := c.world.Get(o.Shooter)
				if opt.IsSome(shooter) && shooter.Value.Kind == world.KindTurret {
					c.UpdateScore(victim, score.KilledByTurret, 0)
				}
			}
		}

		c.Broadcast(protocol.KillMessage{
			Victim:      victim.Name,
			Description: description,
		})
	}

	c.killAvatar(victim)
	victim.respawn.ResetTo(c.settings.Game.RespawnDelay.Std())
}
