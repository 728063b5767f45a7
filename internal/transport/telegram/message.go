package telegram

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sandevgo/samara/internal/core"
	tele "gopkg.in/telebot.v3"
)

// Resolver looks up known participants by name. Plain @username mentions
// carry no user ID, so they are resolved against the directory.
type Resolver interface {
	Resolve(name string) (core.Subject, bool)
}

// converter turns Telegram messages into chat events. Users matching the
// bot's own account are replaced by the agent's identity.
type converter struct {
	me       *tele.User
	self     core.Subject
	resolver Resolver
}

func (c converter) subject(u *tele.User) core.Subject {
	if u == nil {
		return core.Subject{}
	}
	if c.me != nil && u.ID == c.me.ID {
		return c.self
	}

	name := u.Username
	tag := ""
	if name == "" {
		name = strings.TrimSpace(u.FirstName + " " + u.LastName)
	} else {
		tag = "@" + u.Username
	}
	return core.Subject{
		ID:   strconv.FormatInt(u.ID, 10),
		Name: name,
		Tag:  tag,
	}
}

func (c converter) inbound(m *tele.Message) core.InboundMessage {
	in := core.InboundMessage{
		ChatMessage: core.ChatMessage{
			ID:        messageID(m),
			Content:   m.Text,
			Author:    c.subject(m.Sender),
			Channel:   channelName(m.Chat),
			Timestamp: m.Time().UTC(),
		},
		FromBot: m.Sender != nil && m.Sender.IsBot,
	}

	if m.Private() {
		in.Addressed = true
	}

	if m.ReplyTo != nil && m.ReplyTo.Sender != nil {
		target := c.subject(m.ReplyTo.Sender)
		in.ReplyTo = &target
		if target.ID == c.self.ID {
			in.Addressed = true
		}
	}

	seen := map[string]bool{}
	for _, e := range m.Entities {
		var s core.Subject
		switch e.Type {
		case tele.EntityTMention:
			s = c.subject(e.User)
		case tele.EntityMention:
			username := strings.TrimPrefix(m.EntityText(e), "@")
			if c.me != nil && strings.EqualFold(username, c.me.Username) {
				s = c.self
			} else if c.resolver != nil {
				found, ok := c.resolver.Resolve(username)
				if !ok {
					continue
				}
				s = found
			}
		default:
			continue
		}

		if s.ID == "" || seen[s.ID] {
			continue
		}
		seen[s.ID] = true

		if s.ID == c.self.ID {
			in.Addressed = true
		}
		in.Mentions = append(in.Mentions, s)
	}

	return in
}

func messageID(m *tele.Message) string {
	if m.Chat == nil {
		return strconv.Itoa(m.ID)
	}
	return fmt.Sprintf("%d:%d", m.Chat.ID, m.ID)
}

// channelName derives a slug from the chat title, so a group called
// "Chat General" matches the monitored channel "chat-general".
func channelName(chat *tele.Chat) string {
	if chat == nil {
		return ""
	}
	switch {
	case chat.Title != "":
		return strings.Join(strings.Fields(strings.ToLower(chat.Title)), "-")
	case chat.Username != "":
		return strings.ToLower(chat.Username)
	}
	return strconv.FormatInt(chat.ID, 10)
}
