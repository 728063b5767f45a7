package installer

import (
	"os"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/sandevgo/samara/internal/service/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	enter = tea.KeyMsg{Type: tea.KeyEnter}
	down  = tea.KeyMsg{Type: tea.KeyDown}
)

func typeText(t *testing.T, step Step, state *InstallState, text string) Step {
	t.Helper()
	for _, r := range text {
		next, _ := step.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}, state, 80, 24)
		require.NotNil(t, next)
		step = next
	}
	return step
}

func TestSelectStep(t *testing.T) {
	state := NewInstallState()
	step := NewProviderStep()

	next, _ := step.Update(down, state, 80, 24)
	require.NotNil(t, next)
	assert.Contains(t, next.View(state), "❯ OpenAI")

	next, _ = next.Update(enter, state, 80, 24)
	assert.Nil(t, next)
	assert.Equal(t, "openai", state.EnvVars["LLM_PROVIDER"])
}

func TestSelectStep_SkipsWhenNotApplicable(t *testing.T) {
	state := NewInstallState()
	state.EnvVars["VECTOR_PROVIDER"] = "none"

	step := NewEmbeddingStep()
	require.NotNil(t, step.Init())

	next, _ := step.Update(nextMsg{}, state, 80, 24)
	assert.Nil(t, next)
	assert.Empty(t, state.EnvVars["EMBEDDING_PROVIDER"])
}

func TestInputStep(t *testing.T) {
	t.Run("required value", func(t *testing.T) {
		state := NewInstallState()
		state.EnvVars[channelKey] = "telegram"

		step := NewTelegramTokenStep()
		next, _ := step.Update(enter, state, 80, 24)
		require.NotNil(t, next, "empty token is rejected")
		assert.Contains(t, next.View(state), "a value is required")

		next = typeText(t, next, state, "123:abc")
		next, _ = next.Update(enter, state, 80, 24)
		assert.Nil(t, next)
		assert.Equal(t, "123:abc", state.EnvVars["TELEGRAM_TOKEN"])
	})

	t.Run("optional fallback", func(t *testing.T) {
		state := NewInstallState()
		next, _ := NewBotNameStep().Update(enter, state, 80, 24)
		assert.Nil(t, next)
		assert.Equal(t, "Samara", state.EnvVars["BOT_NAME"])
	})

	t.Run("validation", func(t *testing.T) {
		state := NewInstallState()
		state.EnvVars[channelKey] = "telegram"

		step := typeText(t, NewTelegramChatsStep(), state, "-100, abc")
		next, _ := step.Update(enter, state, 80, 24)
		require.NotNil(t, next)
		assert.Contains(t, next.View(state), `"abc" is not a chat ID`)
		assert.Empty(t, state.EnvVars["TELEGRAM_ALLOWED_CHATS"])
	})

	t.Run("skipped for console", func(t *testing.T) {
		state := NewInstallState()
		state.EnvVars[channelKey] = "console"
		next, _ := NewTelegramTokenStep().Update(enter, state, 80, 24)
		assert.Nil(t, next)
		assert.NotContains(t, state.EnvVars, "TELEGRAM_TOKEN")
	})
}

func TestAPIKeyStep(t *testing.T) {
	state := NewInstallState()
	state.EnvVars["LLM_PROVIDER"] = "anthropic"

	step := NewAPIKeyStep()
	next, _ := step.Update(nextMsg{}, state, 80, 24)
	require.NotNil(t, next)
	assert.Contains(t, next.View(state), "Anthropic API Key")

	next = typeText(t, next, state, "sk-ant-1")
	next, _ = next.Update(enter, state, 80, 24)
	assert.Nil(t, next)
	assert.Equal(t, "sk-ant-1", state.EnvVars["ANTHROPIC_API_KEY"])

	unknown := NewInstallState()
	next, _ = NewAPIKeyStep().Update(nextMsg{}, unknown, 80, 24)
	assert.Nil(t, next)
}

func TestModelStep_UsesProviderDefault(t *testing.T) {
	state := NewInstallState()
	state.EnvVars["LLM_PROVIDER"] = "ollama"

	step := NewModelStep()
	next, _ := step.Update(nextMsg{}, state, 80, 24)
	require.NotNil(t, next)
	next, _ = next.Update(enter, state, 80, 24)
	assert.Nil(t, next)
	assert.Equal(t, "llama3.1:8b", state.EnvVars["LLM_MODEL"])
}

func TestFinalize(t *testing.T) {
	tests := []struct {
		name     string
		vars     map[string]string
		telegram string
		cli      string
	}{
		{
			name:     "telegram with token",
			vars:     map[string]string{channelKey: "telegram", "TELEGRAM_TOKEN": "x", "VECTOR_PROVIDER": "none", "EMBEDDING_PROVIDER": "openai"},
			telegram: "true",
			cli:      "false",
		},
		{
			name:     "console",
			vars:     map[string]string{channelKey: "console"},
			telegram: "false",
			cli:      "true",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := NewInstallState()
			for k, v := range tt.vars {
				state.EnvVars[k] = v
			}
			finalize(state)

			assert.Equal(t, tt.telegram, state.EnvVars["ENABLE_TELEGRAM"])
			assert.Equal(t, tt.cli, state.EnvVars["ENABLE_CLI"])
			assert.Equal(t, "0", state.EnvVars["SAMARA_DEBUG"])
			assert.NotContains(t, state.EnvVars, channelKey)
			if tt.vars["VECTOR_PROVIDER"] == "none" {
				assert.NotContains(t, state.EnvVars, "EMBEDDING_PROVIDER")
			}
		})
	}
}

func TestSaveEnvAndDefaults(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "runtime")

	require.NoError(t, saveEnv(dir, map[string]string{"LLM_PROVIDER": "openai", "BOT_NAME": "Samara Two"}))
	values, err := godotenv.Read(filepath.Join(dir, ".env"))
	require.NoError(t, err)
	assert.Equal(t, "Samara Two", values["BOT_NAME"])

	assert.Error(t, saveEnv(dir, map[string]string{}), "an existing .env is never overwritten")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "IDENTITY.md"), []byte("custom"), 0o644))
	require.NoError(t, writeDefaults(dir))

	identity, err := os.ReadFile(filepath.Join(dir, "IDENTITY.md"))
	require.NoError(t, err)
	assert.Equal(t, "custom", string(identity))

	system, err := os.ReadFile(filepath.Join(dir, "SYSTEM.md"))
	require.NoError(t, err)
	assert.Equal(t, memory.DefaultSystem, string(system))
	assert.DirExists(t, filepath.Join(dir, "data"))
}
