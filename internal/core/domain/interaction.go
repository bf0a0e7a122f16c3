package domain

import "time"

// Interaction types on the chat-platform wire.
const (
	// InteractionPing is a liveness probe from the platform.
	InteractionPing = 1

	// InteractionCommand is a slash-command invocation.
	InteractionCommand = 2
)

// Response types sent back to the chat platform.
const (
	// ResponsePong acknowledges a ping.
	ResponsePong = 1

	// ResponseMessage is an immediate reply carrying content.
	ResponseMessage = 4

	// ResponseDeferred acknowledges the command and promises a
	// follow-up delivery via the interaction token.
	ResponseDeferred = 5
)

// DefaultQuery is substituted when a command arrives without a query option.
const DefaultQuery = "What do you see?"

// InteractionRequest is one inbound command invocation. It is created on
// webhook receipt and consumed by at most one background answer task.
type InteractionRequest struct {
	// Token is the opaque interaction token used for deferred delivery.
	Token string

	// ApplicationID identifies the application on the chat platform.
	ApplicationID string

	// RawQuery is the user's free-form question text.
	RawQuery string

	// ReceivedAt is when the webhook request arrived.
	ReceivedAt time.Time
}
