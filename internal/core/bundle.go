package core

// Intent classifies what an incoming message is asking about.
type Intent struct {
	AboutPerson       bool
	AboutMessages     bool
	AboutInteractions bool
}

// Any reports whether at least one flag is set.
func (i Intent) Any() bool {
	return i.AboutPerson || i.AboutMessages || i.AboutInteractions
}

// SubjectProfile is what is known about a participant matched by name.
type SubjectProfile struct {
	Subject        Subject
	Facts          []string
	RecentMessages []ChatMessage
}

// ChannelHistory is the tail of one channel, or of all monitored channels
// when Channel is empty.
type ChannelHistory struct {
	Channel  string
	Messages []ChatMessage
	Authors  []string
}

// InteractionCheck records the lookup done for one candidate name.
type InteractionCheck struct {
	Name   string
	Result InteractionLookup
}

// ContextBundle is the bounded context assembled for one addressed message.
// It lives only for the duration of one reply.
type ContextBundle struct {
	Message        ChatMessage
	Intent         Intent
	CandidateNames []string

	AuthorFacts         []string
	AuthorRelationships []Relationship

	ExternalMatches []Document
	RecentMessages  []ChatMessage
	Profiles        []SubjectProfile
	ChannelHistory  *ChannelHistory
	Interactions    []InteractionCheck
	Conversations   []Conversation
}
