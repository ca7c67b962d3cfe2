package session

import (
	"strings"

	"github.com/repeale/fp-go/option"

	"github.com/cfoust/sortie/pkg/protocol"
)

const MaxChatLength = 2048

// checkMessage drops chat from muted clients and anything empty or too long.
func (c *Coordinator) checkMessage(client *Client, text string) bool {
	if client.muted {
		return false
	}

	trimmed := strings.TrimSpace(text)
	return trimmed != "" && len(text) <= MaxChatLength
}

// Chat relays a message to everyone or to the sender's team. Lines starting
// with "#" are server commands.
func (c *Coordinator) Chat(client *Client, text string, global bool) {
	if strings.HasPrefix(text, "#") {
		c.RunCommand(client, text[1:])
		return
	}

	if !c.checkMessage(client, text) {
		return
	}

	message := protocol.DisplayChatMessage{
		Global: global,
		From:   client.Name,
		Text:   text,
	}

	for _, other := range c.clients {
		if global || other.Team == client.Team {
			c.send(other, message)
		}
	}

	if c.onChat != nil && !client.Bot {
		c.onChat(client, text, global)
	}
}

func (c *Coordinator) PrivateMessage(client *Client, to, text string) {
	if !c.checkMessage(client, text) {
		return
	}

	target := c.ClientByName(to)
	if opt.IsNone(target) {
		c.fail(client, "!!! Player not found")
		return
	}

	message := protocol.DisplayChatPM{
		From: client.Name,
		To:   target.Value.Name,
		Text: text,
	}
	c.send(target.Value, message)
	c.send(client, message)
}

func (c *Coordinator) Announce(client *Client, text string) {
	if !client.IsAdmin() || !c.checkMessage(client, text) {
		return
	}

	c.Broadcast(protocol.DisplayAnnouncement{
		From: client.Name,
		Text: text,
	})
}

// Voice forwards a voice packet to the sender's team.
func (c *Coordinator) Voice(client *Client, data []byte, echo bool) {
	if client.muted || !c.settings.Game.VoiceChat {
		return
	}

	message := protocol.VoiceData{From: client.Name, Data: data}
	for _, other := range c.clients {
		if other.Team != client.Team {
			continue
		}
		if other == client && !echo {
			continue
		}
		c.send(other, message)
	}
}
