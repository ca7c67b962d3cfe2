package session

import (
	"strings"
	"time"

	"github.com/repeale/fp-go/option"

	"github.com/cfoust/sortie/pkg/protocol"
)

// Handle routes a message from a connection that has already joined.
// Messages from unknown connections are dropped.
func (c *Coordinator) Handle(conn ConnID, message protocol.Message) {
	found := c.ClientByConn(conn)
	if opt.IsNone(found) {
		c.logger.Debug().
			Uint32("conn", uint32(conn)).
			Str("type", protocol.NameOf(message)).
			Msg("message from unknown connection")
		return
	}
	client := found.Value

	switch msg := message.(type) {
	case protocol.SyncMessagesComplete:
		c.SyncComplete(client, msg.Sequence)
	case protocol.SendChat:
		c.Chat(client, msg.Text, msg.Global)
	case protocol.SendChatPM:
		c.PrivateMessage(client, msg.To, msg.Text)
	case protocol.SendAnnouncement:
		c.Announce(client, msg.Text)
	case protocol.VoiceChat:
		c.Voice(client, msg.Data, msg.Echo)
	case protocol.SubmitPassword:
		c.SubmitPassword(client, msg.Password)
	case protocol.AddBot:
		c.AddBot(client, msg.Args)
	case protocol.AddBots:
		c.AddBots(client, int(msg.Count), msg.Args)
	case protocol.KickBot:
		c.KickBot(client)
	case protocol.KickBots:
		c.KickBots(client)
	case protocol.ShowBots:
		c.ShowBots(client)
	case protocol.SetMaxBots:
		c.SetMaxBots(client, int(msg.Count))
	case protocol.BanPlayer:
		c.BanPlayer(client, msg.Name, msg.Minutes)
	case protocol.BanIP:
		c.BanIP(client, msg.IP, msg.Minutes)
	case protocol.RenamePlayer:
		c.RenamePlayer(client, msg.Old, msg.New)
	case protocol.GlobalMutePlayer:
		c.GlobalMutePlayer(client, msg.Name)
	case protocol.TriggerTeamChange:
		c.TriggerTeamChange(client, msg.Name, int(msg.Team))
	case protocol.KickPlayer:
		c.KickPlayer(client, msg.Name)
	case protocol.SetWinningScore:
		c.SetWinningScore(client, msg.Score)
	case protocol.ResetScore:
		c.ResetScore(client)
	case protocol.ChangeTeams:
		c.ChangeTeams(client, int(msg.Team))
	case protocol.SetTime:
		c.SetTime(client, time.Duration(msg.TimeMs)*time.Millisecond)
	case protocol.AddTime:
		c.AddTime(client, time.Duration(msg.TimeMs)*time.Millisecond)
	case protocol.SendCommand:
		c.RunCommand(client, strings.Join(append([]string{msg.Name}, msg.Args...), " "))
	case protocol.RequestScoreboardUpdates:
		client.wantsScoreboard = msg.Enabled
		if msg.Enabled {
			c.sendScoreboard(client)
		}
	case protocol.DropItem:
		c.DropItems(client)
	case protocol.SpawnUndelayed:
		c.UndelaySpawn(client)
	case protocol.SetBusy:
		c.SetBusy(client, msg.Busy)
	case protocol.SetCommanderMap:
		client.Commander = msg.Enabled
	default:
		c.logger.Debug().
			Str("client", client.String()).
			Str("type", protocol.NameOf(message)).
			Msg("unhandled message")
	}
}
