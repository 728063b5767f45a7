package command

import (
	"github.com/sandevgo/samara/internal/core"
	"github.com/sandevgo/samara/internal/service/memory"
)

func NewCommands(
	provider string,
	switcher ModelSwitcher,
	mem *memory.Memory,
) []core.Command {
	return []core.Command{
		NewModelCommand(provider, switcher),
		NewFactsCommand(mem),
		NewMemoryCommand(mem),
	}
}
