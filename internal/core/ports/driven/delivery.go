package driven

import "context"

// DeliveryService delivers follow-up messages to the chat platform and
// performs one-time command registration.
type DeliveryService interface {
	// EditOriginal patches the deferred acknowledgment of an interaction
	// with the final content, using the interaction's token.
	EditOriginal(ctx context.Context, applicationID, token, content string) error

	// RegisterCommand registers the slash command with the platform.
	// One-time setup; requires bot credentials.
	RegisterCommand(ctx context.Context, applicationID string, cmd Command) error
}

// Command describes a slash command to register.
type Command struct {
	// Name is the command name (e.g., "watcher").
	Name string

	// Description is shown in the platform's command picker.
	Description string

	// OptionName is the name of the single required free-text argument.
	OptionName string

	// OptionDescription describes the argument.
	OptionDescription string
}
