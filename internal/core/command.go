package core

import "context"

// CmdRouter answers slash commands before a message reaches the agent.
type CmdRouter interface {
	// Execute returns false when msg is not a command.
	Execute(ctx context.Context, msg InboundMessage) (string, bool)
	ListCommands() []Command
}

// Command is one slash command. Replies are markdown.
type Command interface {
	Name() string
	Description() string
	Execute(ctx context.Context, msg InboundMessage, args []string) (string, error)
}
