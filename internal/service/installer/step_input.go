package installer

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// InputStep collects one free text value. Optional steps accept an empty
// answer and store fallback instead, when set.
type InputStep struct {
	input    textinput.Model
	title    string
	envKey   string
	optional bool
	fallback string
	when     func(state *InstallState) bool
	validate func(value string) error
	err      error
}

func newInput(placeholder string, secret bool) textinput.Model {
	ti := textinput.New()
	ti.Focus()
	ti.CharLimit = 255
	ti.Width = 50
	ti.Placeholder = placeholder
	if secret {
		ti.EchoMode = textinput.EchoPassword
		ti.EchoCharacter = '•'
	}
	return ti
}

func (s *InputStep) Init() tea.Cmd {
	return textinput.Blink
}

func (s *InputStep) Update(msg tea.Msg, state *InstallState, width, height int) (Step, tea.Cmd) {
	if s.when != nil && !s.when(state) {
		return nil, nil
	}

	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)

	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "enter" {
		val := strings.TrimSpace(s.input.Value())
		if val == "" {
			if !s.optional {
				s.err = fmt.Errorf("a value is required")
				return s, nil
			}
			val = s.fallback
		}
		if s.validate != nil && val != "" {
			if err := s.validate(val); err != nil {
				s.err = err
				return s, nil
			}
		}
		if val != "" {
			state.EnvVars[s.envKey] = val
		}
		return nil, nil
	}
	return s, cmd
}

func (s *InputStep) View(state *InstallState) string {
	hint := ""
	if s.optional {
		hint = " (optional - press Enter to skip)"
	}
	view := fmt.Sprintf("%s%s:\n\n%s\n\n", s.title, hint, s.input.View())
	if s.err != nil {
		view += errorStyle.Render(s.err.Error()) + "\n\n"
	}
	return view + "(press enter to confirm)\n"
}

func NewCustomURLStep() Step {
	return &InputStep{
		input:  newInput("https://api.example.com", false),
		title:  "Enter Custom OpenAI Base URL",
		envKey: "CUSTOM_OPENAI_BASE_URL",
		when:   func(state *InstallState) bool { return state.is("LLM_PROVIDER", "custom") },
	}
}

func NewOllamaURLStep() Step {
	return &InputStep{
		input:    newInput("http://127.0.0.1:11434", false),
		title:    "Enter Ollama Base URL",
		envKey:   "OLLAMA_BASE_URL",
		optional: true,
		fallback: "http://127.0.0.1:11434",
		when: func(state *InstallState) bool {
			return state.is("LLM_PROVIDER", "ollama") || state.is("EMBEDDING_PROVIDER", "ollama")
		},
	}
}

func NewQdrantHostStep() Step {
	return &InputStep{
		input:    newInput("localhost", false),
		title:    "Enter the Qdrant host",
		envKey:   "QDRANT_HOST",
		optional: true,
		fallback: "localhost",
		when:     func(state *InstallState) bool { return state.is("VECTOR_PROVIDER", "qdrant") },
	}
}

func NewTelegramTokenStep() Step {
	return &InputStep{
		input:  newInput("123456789:ABCDEF...", true),
		title:  "Enter your Telegram Bot Token",
		envKey: "TELEGRAM_TOKEN",
		when:   isTelegram,
	}
}

func NewTelegramChatsStep() Step {
	return &InputStep{
		input:    newInput("-1001234567890,-1009876543210", false),
		title:    "Restrict the bot to these chat IDs, comma separated",
		envKey:   "TELEGRAM_ALLOWED_CHATS",
		optional: true,
		when:     isTelegram,
		validate: validateChatIDs,
	}
}

func NewBotNameStep() Step {
	return &InputStep{
		input:    newInput("Samara", false),
		title:    "How should the bot be called",
		envKey:   "BOT_NAME",
		optional: true,
		fallback: "Samara",
	}
}

func isTelegram(state *InstallState) bool {
	return state.is(channelKey, "telegram")
}
