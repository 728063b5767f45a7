package env

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name     string        `env:"NAME"`
	Token    string        `env:"TOKEN,required" secret:"true"`
	Port     int           `env:"PORT"`
	Debug    bool          `env:"DEBUG"`
	Channels []string      `env:"CHANNELS" envSeparator:","`
	Timeout  time.Duration `env:"TIMEOUT"`
	Skipped  string
	hidden   string `env:"HIDDEN"`
}

func TestMarshalEnv(t *testing.T) {
	c := &sample{
		Name:     "samara",
		Token:    "abc",
		Port:     8080,
		Channels: []string{"general", "random"},
		Timeout:  10 * time.Second,
		Skipped:  "x",
		hidden:   "y",
	}

	tests := []struct {
		name     string
		opts     Options
		expected string
	}{
		{
			name:     "plain",
			opts:     Options{},
			expected: "NAME=samara\nTOKEN=abc\nPORT=8080\nCHANNELS=general,random\nTIMEOUT=10s\n",
		},
		{
			name:     "redacted",
			opts:     Options{Redact: true},
			expected: "NAME=samara\nTOKEN=********\nPORT=8080\nCHANNELS=general,random\nTIMEOUT=10s\n",
		},
		{
			name:     "with zero values",
			opts:     Options{IncludeZero: true},
			expected: "NAME=samara\nTOKEN=abc\nPORT=8080\nDEBUG=false\nCHANNELS=general,random\nTIMEOUT=10s\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MarshalEnv(c, tt.opts)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestMarshalEnv_NotStruct(t *testing.T) {
	_, err := MarshalEnv(42, Options{})
	assert.Error(t, err)
}
