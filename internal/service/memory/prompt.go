package memory

import (
	"context"
	"fmt"
	"strings"

	"github.com/sandevgo/samara/internal/core"
	"github.com/sandevgo/samara/pkg/log"
)

const timeLayout = "2006-01-02 15:04"

// TokenCounter measures prompt size. rag.CountTokens satisfies it.
type TokenCounter func(text string) int

// Prompter renders a ContextBundle into the messages sent to the model.
type Prompter struct {
	persona   *Persona
	directory *Directory
	count     TokenCounter
}

func NewPrompter(persona *Persona, directory *Directory, count TokenCounter) *Prompter {
	return &Prompter{
		persona:   persona,
		directory: directory,
		count:     count,
	}
}

func (p *Prompter) Build(ctx context.Context, bundle core.ContextBundle) []core.Message {
	system := p.persona.Text()
	if notes := p.RenderContext(bundle); notes != "" {
		system += "\n\n" + notes
	}

	user := fmt.Sprintf("%s: %s", bundle.Message.Author.DisplayName(), bundle.Message.Content)

	if p.count != nil {
		log.FromCtx(ctx).Debug().
			Int("system_tokens", p.count(system)).
			Int("user_tokens", p.count(user)).
			Msg("prompt built")
	}

	return []core.Message{
		{Role: core.RoleSystem, Content: system},
		{Role: core.RoleUser, Content: user},
	}
}

// RenderContext formats the memory sections. Empty sections are omitted.
func (p *Prompter) RenderContext(b core.ContextBundle) string {
	var sb strings.Builder
	author := b.Message.Author.DisplayName()

	if len(b.AuthorFacts) > 0 {
		fmt.Fprintf(&sb, "### What you know about %s\n", author)
		writeList(&sb, b.AuthorFacts)
	}

	if len(b.AuthorRelationships) > 0 {
		fmt.Fprintf(&sb, "\n### Relationships of %s\n", author)
		for _, rel := range b.AuthorRelationships {
			fmt.Fprintf(&sb, "- %s with %s\n", rel.Type, p.nameOf(rel.Other(b.Message.Author.ID)))
		}
	}

	if len(b.Conversations) > 0 {
		fmt.Fprintf(&sb, "\n### Previous conversations with %s\n", author)
		for _, c := range b.Conversations {
			fmt.Fprintf(&sb, "- [%s] #%s they said %q, you answered %q\n",
				c.Timestamp.Format(timeLayout), c.Channel, c.Content, c.Response)
		}
	}

	if len(b.ExternalMatches) > 0 {
		sb.WriteString("\n### Related messages\n")
		for _, d := range b.ExternalMatches {
			fmt.Fprintf(&sb, "- [%s] #%s %s: %s\n",
				d.Metadata.Timestamp.Format(timeLayout), d.Metadata.Channel, d.Metadata.Author, d.Text)
		}
	}

	if len(b.RecentMessages) > 0 {
		sb.WriteString("\n### Recent messages\n")
		writeMessages(&sb, b.RecentMessages)
	}

	for _, profile := range b.Profiles {
		fmt.Fprintf(&sb, "\n### About %s\n", profile.Subject.DisplayName())
		writeList(&sb, profile.Facts)
		if len(profile.RecentMessages) > 0 {
			sb.WriteString("Latest messages:\n")
			writeMessages(&sb, profile.RecentMessages)
		}
	}

	if h := b.ChannelHistory; h != nil {
		channel := "monitored channels"
		if h.Channel != "" {
			channel = "#" + h.Channel
		}
		fmt.Fprintf(&sb, "\n### History of %s\n", channel)
		if len(h.Messages) == 0 {
			sb.WriteString("No messages recorded yet.\n")
		} else {
			writeMessages(&sb, h.Messages)
			fmt.Fprintf(&sb, "Participants: %s\n", strings.Join(h.Authors, ", "))
		}
	}

	if len(b.Interactions) > 0 {
		sb.WriteString("\n### Your interactions\n")
		for _, check := range b.Interactions {
			sb.WriteString(DescribeLookup(check))
		}
	}

	return strings.TrimSpace(sb.String())
}

func (p *Prompter) nameOf(id string) string {
	if s, ok := p.directory.Get(id); ok {
		return s.DisplayName()
	}
	return id
}

// DescribeLookup renders one interaction check as a bullet line.
func DescribeLookup(check core.InteractionCheck) string {
	r := check.Result
	switch {
	case !r.Found:
		return fmt.Sprintf("- %s: no record of ever interacting with them\n", check.Name)
	case r.Interaction != nil:
		return fmt.Sprintf("- %s: yes, last %s at %s: %q\n",
			r.Interaction.Target.DisplayName(), r.Interaction.Kind,
			r.Interaction.Timestamp.Format(timeLayout), r.Interaction.Content)
	case r.Message != nil:
		return fmt.Sprintf("- %s: seen in chat, latest message at %s: %q\n",
			r.Message.Author.DisplayName(), r.Message.Timestamp.Format(timeLayout), r.Message.Content)
	case r.Conversation != nil:
		return fmt.Sprintf("- %s: yes, talked at %s, they said %q\n",
			r.Conversation.Subject.DisplayName(), r.Conversation.Timestamp.Format(timeLayout), r.Conversation.Content)
	default:
		return fmt.Sprintf("- %s: known from earlier conversations\n", r.Subject.DisplayName())
	}
}

func writeList(sb *strings.Builder, items []string) {
	for _, item := range items {
		sb.WriteString("- ")
		sb.WriteString(item)
		sb.WriteByte('\n')
	}
}

func writeMessages(sb *strings.Builder, msgs []core.ChatMessage) {
	for _, m := range msgs {
		fmt.Fprintf(sb, "- [%s] #%s %s: %s\n",
			m.Timestamp.Format(timeLayout), m.Channel, m.Author.DisplayName(), m.Content)
	}
}

// FormatMessages renders messages as bullet lines with time, channel and author.
func FormatMessages(msgs []core.ChatMessage) string {
	var sb strings.Builder
	writeMessages(&sb, msgs)
	return sb.String()
}
