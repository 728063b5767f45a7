package installer

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// channelKey only lives in the wizard state.
const channelKey = "CHAT_CHANNEL"

// FinalizationStep computes derived values and final env var formatting
type FinalizationStep struct{}

func NewFinalizationStep() Step {
	return &FinalizationStep{}
}

func (s *FinalizationStep) Init() tea.Cmd {
	return func() tea.Msg { return nextMsg{} }
}

func (s *FinalizationStep) Update(msg tea.Msg, state *InstallState, width, height int) (Step, tea.Cmd) {
	finalize(state)
	return nil, nil
}

func (s *FinalizationStep) View(state *InstallState) string {
	return "Finalizing configuration...\n"
}

func finalize(state *InstallState) {
	telegram := isTelegram(state) && state.EnvVars["TELEGRAM_TOKEN"] != ""
	state.EnvVars["ENABLE_TELEGRAM"] = strconv.FormatBool(telegram)
	state.EnvVars["ENABLE_CLI"] = strconv.FormatBool(!telegram)

	if state.EnvVars["SAMARA_DEBUG"] == "" {
		state.EnvVars["SAMARA_DEBUG"] = "0"
	}

	if state.is("VECTOR_PROVIDER", "none") {
		delete(state.EnvVars, "EMBEDDING_PROVIDER")
	}

	// Only used as intermediate state
	delete(state.EnvVars, channelKey)
}

func validateChatIDs(value string) error {
	for _, part := range strings.Split(value, ",") {
		if _, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64); err != nil {
			return fmt.Errorf("%q is not a chat ID", strings.TrimSpace(part))
		}
	}
	return nil
}
