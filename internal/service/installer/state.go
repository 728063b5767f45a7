package installer

import "strings"

type InstallState struct {
	EnvVars map[string]string
}

func NewInstallState() *InstallState {
	return &InstallState{
		EnvVars: make(map[string]string),
	}
}

// is reports whether key holds value, ignoring case.
func (s *InstallState) is(key, value string) bool {
	return strings.EqualFold(s.EnvVars[key], value)
}
