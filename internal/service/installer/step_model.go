package installer

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

var defaultModels = map[string]string{
	"openrouter": "google/gemma-3-27b-it:free",
	"openai":     "gpt-4o-mini",
	"anthropic":  "claude-3-5-haiku-latest",
	"ollama":     "llama3.1:8b",
}

// ModelStep asks for the chat model, suggesting a default for the provider.
type ModelStep struct {
	input    textinput.Model
	provider string
	err      error
}

func NewModelStep() Step {
	return &ModelStep{}
}

func (s *ModelStep) Init() tea.Cmd {
	return textinput.Blink
}

func (s *ModelStep) setup(state *InstallState) {
	if s.provider != "" {
		return
	}
	s.provider = state.EnvVars["LLM_PROVIDER"]
	s.input = newInput(defaultModels[s.provider], false)
}

func (s *ModelStep) Update(msg tea.Msg, state *InstallState, width, height int) (Step, tea.Cmd) {
	if s.provider == "" {
		s.setup(state)
		return s, textinput.Blink
	}

	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)

	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "enter" {
		val := strings.TrimSpace(s.input.Value())
		if val == "" {
			val = defaultModels[s.provider]
		}
		if val == "" {
			s.err = fmt.Errorf("enter the model name your endpoint serves")
			return s, nil
		}
		state.EnvVars["LLM_MODEL"] = val
		return nil, nil
	}
	return s, cmd
}

func (s *ModelStep) View(state *InstallState) string {
	s.setup(state)

	view := fmt.Sprintf("Enter the %s model to use (Enter keeps the suggestion):\n\n%s\n\n", s.provider, s.input.View())
	if s.err != nil {
		view += errorStyle.Render(s.err.Error()) + "\n\n"
	}
	return view + "(press enter to confirm)\n"
}
