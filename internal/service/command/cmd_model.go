package command

import (
	"context"
	"fmt"

	"github.com/sandevgo/samara/internal/core"
)

type ModelSwitcher interface {
	GetModel() string
	SetModel(ctx context.Context, model string) error
}

type ModelCommand struct {
	provider string
	switcher ModelSwitcher
}

func NewModelCommand(provider string, switcher ModelSwitcher) *ModelCommand {
	return &ModelCommand{
		provider: provider,
		switcher: switcher,
	}
}

func (c *ModelCommand) Name() string {
	return "model"
}

func (c *ModelCommand) Description() string {
	return "Show or change current model"
}

func (c *ModelCommand) Execute(ctx context.Context, _ core.InboundMessage, args []string) (string, error) {
	if len(args) == 0 {
		return combine(
			heading("Current Model"),
			label("Provider", c.provider),
			label("Model", c.switcher.GetModel()),
			usage("/model [model]"),
			examples(
				"/model gpt-4o-mini",
				"/model anthropic/claude-3.5-sonnet",
				"/model llama3.1:8b",
			),
		), nil
	}

	if err := c.switcher.SetModel(ctx, args[0]); err != nil {
		return "", fmt.Errorf("failed to set model: %w", err)
	}

	return success(fmt.Sprintf("Model changed to: `%s/%s`", c.provider, c.switcher.GetModel())), nil
}
