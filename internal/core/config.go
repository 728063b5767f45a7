package core

import "time"

type AppConfig interface {
	GetRuntimePath() string
	GetDataPath() string
	GetDatabasePath() string
	GetBotName() string
	IsTelegramSelected() bool
}

type PromptConfig interface {
	GetSystemPath() string
	GetIdentityPath() string
	GetBotName() string
}

type ProviderConfig interface {
	GetProvider() string
	GetModel() string
	SetModel(model string) error
	GetAPIKey() string
	GetBaseURL() string
}

// MemoryConfig holds the limits of the memory layers and the context assembler.
type MemoryConfig struct {
	LedgerLimit       int
	InteractionLimit  int
	ConversationLimit int
	MonitoredChannels []string
	SearchTimeout     time.Duration
}
