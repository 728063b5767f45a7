package installer

import (
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/sandevgo/samara/internal/config"
	"github.com/sandevgo/samara/internal/service/memory"
)

// SaveEnvStep writes the collected configuration to .env file
type SaveEnvStep struct {
	runtimePath string
	err         error
	saved       bool
}

func NewSaveEnvStep(runtimePath string) Step {
	return &SaveEnvStep{runtimePath: runtimePath}
}

func (s *SaveEnvStep) Init() tea.Cmd {
	return func() tea.Msg { return nextMsg{} }
}

func (s *SaveEnvStep) Update(msg tea.Msg, state *InstallState, width, height int) (Step, tea.Cmd) {
	if s.saved {
		return nil, nil
	}
	if err := saveEnv(s.runtimePath, state.EnvVars); err != nil {
		s.err = err
		return s, nil
	}
	s.saved = true
	return nil, nil
}

func (s *SaveEnvStep) View(state *InstallState) string {
	if s.err != nil {
		return errorStyle.Render(fmt.Sprintf("Error: %v", s.err)) + "\n\n(press ctrl+c to quit)\n"
	}
	if s.saved {
		return "Configuration saved successfully!\n"
	}
	return "Saving configuration...\n"
}

func saveEnv(runtimePath string, values map[string]string) error {
	if err := os.MkdirAll(runtimePath, 0755); err != nil {
		return fmt.Errorf("failed to create runtime directory: %w", err)
	}

	envPath := filepath.Join(runtimePath, ".env")
	if _, err := os.Stat(envPath); err == nil {
		return fmt.Errorf(".env file already exists at %s", envPath)
	}

	if err := godotenv.Write(values, envPath); err != nil {
		return fmt.Errorf("failed to write %s: %w", envPath, err)
	}
	return os.Chmod(envPath, 0600)
}

// InitializeFilesStep writes the default persona files to the runtime
// directory so they can be edited. Existing files are kept.
type InitializeFilesStep struct {
	runtimePath string
	err         error
	done        bool
}

func NewInitializeFilesStep(runtimePath string) Step {
	return &InitializeFilesStep{runtimePath: runtimePath}
}

func (s *InitializeFilesStep) Init() tea.Cmd {
	return nil
}

func (s *InitializeFilesStep) Update(msg tea.Msg, state *InstallState, width, height int) (Step, tea.Cmd) {
	if s.done {
		return nil, nil
	}
	if err := writeDefaults(s.runtimePath); err != nil {
		s.err = err
		return s, nil
	}
	s.done = true
	return nil, nil
}

func (s *InitializeFilesStep) View(state *InstallState) string {
	if s.err != nil {
		return errorStyle.Render(fmt.Sprintf("Error: %v", s.err)) + "\n\n(press ctrl+c to quit)\n"
	}
	if s.done {
		return "Runtime files initialized successfully!\n"
	}
	return "Initializing runtime files...\n"
}

func writeDefaults(runtimePath string) error {
	for _, dir := range []string{runtimePath, filepath.Join(runtimePath, "data")} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	files := map[string]string{
		"IDENTITY.md": memory.DefaultIdentity,
		"SYSTEM.md":   memory.DefaultSystem,
	}
	for name, content := range files {
		dst := filepath.Join(runtimePath, name)
		if _, err := os.Stat(dst); err == nil {
			continue
		}
		if err := os.WriteFile(dst, []byte(content), 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", dst, err)
		}
	}
	return nil
}

func runtimePath() string {
	return config.GetRuntimePath()
}
