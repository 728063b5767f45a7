package core

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Fact is a short statement about a subject produced by extraction.
type Fact struct {
	Subject    string
	Value      FactValue
	Confidence float64
}

// FactValue is one of PlainFact, TypedFact or OpaqueFact.
type FactValue interface {
	canonical() string
}

// PlainFact is free text.
type PlainFact string

// TypedFact is a categorized fact stored as "type: value".
type TypedFact struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// OpaqueFact holds any other structured payload. It is stored as compact JSON.
type OpaqueFact struct {
	Raw json.RawMessage
}

func (f PlainFact) canonical() string { return string(f) }

func (f TypedFact) canonical() string { return fmt.Sprintf("%s: %s", f.Type, f.Value) }

func (f OpaqueFact) canonical() string {
	var v any
	if err := json.Unmarshal(f.Raw, &v); err != nil {
		return string(f.Raw)
	}
	out, err := json.Marshal(v)
	if err != nil {
		return string(f.Raw)
	}
	return string(out)
}

// NormalizeFact returns the canonical storage form of a fact value.
func NormalizeFact(v FactValue) string {
	if v == nil {
		return ""
	}
	return strings.TrimSpace(v.canonical())
}

// ParseFactValue decodes a raw JSON fact into its variant.
// Objects with a "content" field collapse to PlainFact.
func ParseFactValue(raw json.RawMessage) FactValue {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return PlainFact(s)
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err == nil {
		var typ, val, content string
		_, hasType := obj["type"]
		_, hasValue := obj["value"]
		if hasType && hasValue &&
			json.Unmarshal(obj["type"], &typ) == nil &&
			json.Unmarshal(obj["value"], &val) == nil {
			return TypedFact{Type: typ, Value: val}
		}
		if c, ok := obj["content"]; ok && json.Unmarshal(c, &content) == nil {
			return PlainFact(content)
		}
	}

	return OpaqueFact{Raw: raw}
}

// Relationship links two subjects. At most one record exists per unordered pair.
type Relationship struct {
	SubjectA      string    `json:"subjectA"`
	SubjectB      string    `json:"subjectB"`
	Type          string    `json:"type"`
	Source        string    `json:"source,omitempty"`
	SourceContent string    `json:"content"`
	Timestamp     time.Time `json:"timestamp"`
}

// Involves reports whether the relationship references the subject.
func (r Relationship) Involves(subjectID string) bool {
	return r.SubjectA == subjectID || r.SubjectB == subjectID
}

// Other returns the counterpart of subjectID.
func (r Relationship) Other(subjectID string) string {
	if r.SubjectA == subjectID {
		return r.SubjectB
	}
	return r.SubjectA
}

type InteractionKind string

const (
	KindMessage  InteractionKind = "message"
	KindMention  InteractionKind = "mention"
	KindReply    InteractionKind = "reply"
	KindResponse InteractionKind = "response"
)

// Received returns the mirrored kind recorded for the target side.
func (k InteractionKind) Received() InteractionKind {
	return "received_" + k
}

// Interaction summarizes one exchange from Subject towards Target.
type Interaction struct {
	Subject   Subject         `json:"subject"`
	Target    Subject         `json:"target"`
	Kind      InteractionKind `json:"type"`
	Content   string          `json:"content"`
	Timestamp time.Time       `json:"timestamp"`
}

// InteractionLookup is the answer to "has the bot interacted with X".
type InteractionLookup struct {
	Found        bool
	Interaction  *Interaction
	Message      *ChatMessage
	Conversation *Conversation
	Subject      *Subject
}

// Participant is an entry of the directory of chat identities seen so far.
type Participant struct {
	Subject
	LastSeen time.Time `json:"lastSeen"`
}

// Conversation is one exchange the bot answered: what Subject said and the
// reply it got.
type Conversation struct {
	Subject   Subject   `json:"subject"`
	Content   string    `json:"content"`
	Response  string    `json:"response"`
	Channel   string    `json:"channel"`
	Timestamp time.Time `json:"timestamp"`
}
