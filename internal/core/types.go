package core

import (
	"strings"
	"time"
)

const (
	AppName          = "Samara"
	AppUserAgent     = "Samara-Bot/0.1"
	AppRepositoryURL = "https://github.com/sandevgo/samara"
	AppVersion       = "0.1.0"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single role-tagged block exchanged with the language model.
type Message struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	Reasoning string `json:"reasoning,omitempty"`
}

// Subject is a chat participant. ID is stable, Name and Tag may change.
type Subject struct {
	ID   string `json:"id"`
	Name string `json:"username"`
	Tag  string `json:"tag,omitempty"`
}

// DisplayName returns the tag when present, otherwise the name.
func (s Subject) DisplayName() string {
	if s.Tag != "" {
		return s.Tag
	}
	return s.Name
}

// ChatMessage is one recorded chat message. It is never mutated after it is
// appended to the ledger.
type ChatMessage struct {
	ID        string    `json:"id,omitempty"`
	Content   string    `json:"content"`
	Author    Subject   `json:"author"`
	Channel   string    `json:"channel"`
	Timestamp time.Time `json:"timestamp"`
	Mentions  []Subject `json:"mentions,omitempty"`
}

// InboundMessage is a chat event delivered by a transport.
type InboundMessage struct {
	ChatMessage

	// Addressed is set when the message mentions or replies to the bot.
	Addressed bool
	// ReplyTo is the author of the message being replied to, if any.
	ReplyTo *Subject
	// Edited marks a re-delivery of an existing message with new content.
	Edited bool
	// FromBot is set for messages written by any bot account.
	FromBot bool
}

// Lower returns the lowercased, trimmed content used by every matcher.
func (m ChatMessage) Lower() string {
	return strings.ToLower(strings.TrimSpace(m.Content))
}
