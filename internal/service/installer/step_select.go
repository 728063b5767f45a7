package installer

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

type option struct {
	value string
	label string
}

// SelectStep lets the user pick one option and stores its value under envKey.
type SelectStep struct {
	title   string
	envKey  string
	options []option
	cursor  int
	when    func(state *InstallState) bool
}

// Init emits a message right away so a skipped step does not wait for a key.
func (s *SelectStep) Init() tea.Cmd {
	if s.when == nil {
		return nil
	}
	return func() tea.Msg { return nextMsg{} }
}

func (s *SelectStep) Update(msg tea.Msg, state *InstallState, width, height int) (Step, tea.Cmd) {
	if s.when != nil && !s.when(state) {
		return nil, nil
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			if s.cursor > 0 {
				s.cursor--
			}
		case "down", "j":
			if s.cursor < len(s.options)-1 {
				s.cursor++
			}
		case "enter":
			state.EnvVars[s.envKey] = s.options[s.cursor].value
			return nil, nil
		}
	}
	return s, nil
}

func (s *SelectStep) View(state *InstallState) string {
	var b strings.Builder
	b.WriteString(s.title + ":\n\n")
	for i, opt := range s.options {
		if s.cursor == i {
			b.WriteString(selStyle.Render(fmt.Sprintf("❯ %s", opt.label)) + "\n")
		} else {
			b.WriteString(itemStyle.Render(fmt.Sprintf("  %s", opt.label)) + "\n")
		}
	}
	b.WriteString("\n(press ctrl+c to quit)\n")
	return b.String()
}

func NewProviderStep() Step {
	return &SelectStep{
		title:  "Select your AI Provider",
		envKey: "LLM_PROVIDER",
		options: []option{
			{"openrouter", "OpenRouter"},
			{"openai", "OpenAI"},
			{"anthropic", "Anthropic"},
			{"ollama", "Ollama"},
			{"custom", "Custom OpenAI-compatible endpoint"},
		},
	}
}

func NewVectorStep() Step {
	return &SelectStep{
		title:  "Where should old messages be indexed for semantic search",
		envKey: "VECTOR_PROVIDER",
		options: []option{
			{"sqlite", "Local SQLite file (sqlite-vec)"},
			{"qdrant", "Qdrant server"},
			{"none", "Disabled"},
		},
	}
}

func NewEmbeddingStep() Step {
	return &SelectStep{
		title:  "Select the embedding provider",
		envKey: "EMBEDDING_PROVIDER",
		options: []option{
			{"openai", "OpenAI"},
			{"ollama", "Ollama"},
		},
		when: func(state *InstallState) bool { return !state.is("VECTOR_PROVIDER", "none") },
	}
}

func NewChannelStep() Step {
	return &SelectStep{
		title:  "Select your Chat Channel",
		envKey: channelKey,
		options: []option{
			{"telegram", "Telegram"},
			{"console", "Console only"},
		},
	}
}
