package command

import (
	"context"
	"strconv"

	"github.com/sandevgo/samara/internal/core"
	"github.com/sandevgo/samara/internal/service/memory"
)

type MemoryCommand struct {
	mem *memory.Memory
}

func NewMemoryCommand(mem *memory.Memory) *MemoryCommand {
	return &MemoryCommand{
		mem: mem,
	}
}

func (c *MemoryCommand) Name() string {
	return "memory"
}

func (c *MemoryCommand) Description() string {
	return "Show the size of every memory store"
}

func (c *MemoryCommand) Execute(ctx context.Context, _ core.InboundMessage, _ []string) (string, error) {
	stats := c.mem.Stats()
	return combine(
		heading("Memory"),
		label("Messages", strconv.Itoa(stats.Messages)),
		label("Facts", strconv.Itoa(stats.Facts)),
		label("Relationships", strconv.Itoa(stats.Relationships)),
		label("Interactions", strconv.Itoa(stats.Interactions)),
		label("Participants", strconv.Itoa(stats.Participants)),
		label("Conversations", strconv.Itoa(stats.Conversations)),
	), nil
}
