package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/samber/lo"
	"github.com/sandevgo/samara/internal/core"
	"github.com/sandevgo/samara/internal/service/memory"
)

type FactsCommand struct {
	mem *memory.Memory
}

func NewFactsCommand(mem *memory.Memory) *FactsCommand {
	return &FactsCommand{
		mem: mem,
	}
}

func (c *FactsCommand) Name() string {
	return "facts"
}

func (c *FactsCommand) Description() string {
	return "Show what is known about you or someone else"
}

func (c *FactsCommand) Execute(ctx context.Context, msg core.InboundMessage, args []string) (string, error) {
	subject := msg.Author
	if len(args) > 0 {
		name := strings.Join(args, " ")
		found, ok := c.mem.Directory.Resolve(name)
		if !ok {
			return combine(
				heading(fmt.Sprintf("I don't know anyone called %q", name)),
				usage("/facts [name]"),
			), nil
		}
		subject = found
	}

	facts := c.mem.Facts.GetFacts(subject.ID)
	rels := c.mem.Relationships.ForSubject(subject.ID)

	if len(facts) == 0 && len(rels) == 0 {
		return combine(
			heading(fmt.Sprintf("Nothing known about %s yet", subject.DisplayName())),
			tip("facts are learned from what people say in the chat"),
		), nil
	}

	sections := []string{heading(fmt.Sprintf("Facts about %s", subject.DisplayName()))}
	if len(facts) > 0 {
		sections = append(sections, bullets(facts))
	}
	if len(rels) > 0 {
		lines := lo.Map(rels, func(r core.Relationship, _ int) string {
			other := r.Other(subject.ID)
			if s, ok := c.mem.Directory.Get(other); ok {
				other = s.DisplayName()
			}
			return fmt.Sprintf("%s with %s", r.Type, other)
		})
		sections = append(sections, section("🔗", "Relationships", bullets(lines)))
	}

	return combine(sections...), nil
}
