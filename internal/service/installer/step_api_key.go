package installer

import (
	"fmt"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

type keyPrompt struct {
	envKey      string
	title       string
	placeholder string
	optional    bool
}

var apiKeys = map[string]keyPrompt{
	"anthropic":  {"ANTHROPIC_API_KEY", "Anthropic API Key", "sk-ant-...", false},
	"openai":     {"OPENAI_API_KEY", "OpenAI API Key", "sk-...", false},
	"openrouter": {"OPENROUTER_API_KEY", "OpenRouter API Key", "sk-or-v1-...", false},
	"ollama":     {"OLLAMA_API_KEY", "Ollama API Key", "press Enter to skip", true},
	"custom":     {"CUSTOM_OPENAI_API_KEY", "Custom endpoint API Key", "press Enter to skip", true},
}

// APIKeyStep collects the key of the selected provider. The field is chosen
// once the provider is known.
type APIKeyStep struct {
	inner *InputStep
}

func NewAPIKeyStep() Step {
	return &APIKeyStep{}
}

func (s *APIKeyStep) Init() tea.Cmd {
	return func() tea.Msg { return nextMsg{} }
}

func (s *APIKeyStep) resolve(state *InstallState) bool {
	if s.inner != nil {
		return true
	}
	kp, ok := apiKeys[state.EnvVars["LLM_PROVIDER"]]
	if !ok {
		return false
	}
	s.inner = &InputStep{
		input:    newInput(kp.placeholder, !kp.optional),
		title:    fmt.Sprintf("Enter your %s", kp.title),
		envKey:   kp.envKey,
		optional: kp.optional,
	}
	return true
}

func (s *APIKeyStep) Update(msg tea.Msg, state *InstallState, width, height int) (Step, tea.Cmd) {
	if s.inner == nil {
		if !s.resolve(state) {
			return nil, nil
		}
		return s, textinput.Blink
	}

	next, cmd := s.inner.Update(msg, state, width, height)
	if next == nil {
		return nil, cmd
	}
	return s, cmd
}

func (s *APIKeyStep) View(state *InstallState) string {
	if !s.resolve(state) {
		return "Loading..."
	}
	return s.inner.View(state)
}

// NewEmbeddingKeyStep asks for an OpenAI key for embeddings when the chat
// provider is not OpenAI.
func NewEmbeddingKeyStep() Step {
	return &InputStep{
		input:  newInput("sk-...", true),
		title:  "Enter an OpenAI API Key for embeddings",
		envKey: "EMBEDDING_API_KEY",
		when: func(state *InstallState) bool {
			return state.is("EMBEDDING_PROVIDER", "openai") &&
				!state.is("VECTOR_PROVIDER", "none") &&
				!state.is("LLM_PROVIDER", "openai")
		},
	}
}
