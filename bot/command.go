package bot

import (
	"context"
	"encoding/json"

	"github.com/mbocsi/sparkbot/proto"
	"github.com/mbocsi/sparkbot/webex"
)

// Card input keys used to route submissions back to commands.
const (
	CallbackKeywordKey = "callback_keyword"
	CommandKeywordKey  = "command_keyword"
)

// Request carries one triggering event into a command handler.
// Message is set for text events, Action for card submissions.
type Request struct {
	// Args is the message text with the matched keyword stripped.
	Args     string
	Message  *webex.Message
	Action   *webex.AttachmentAction
	Activity *proto.Activity
}

// Handler is one phase of a command. The returned payload may be a
// string, a *webex.Response, or a slice of either; nil means no
// reply. Returning a *BotError turns into a reply to the user and
// short-circuits later phases.
type Handler func(ctx context.Context, req Request) (any, error)

// Command is a registered handler. Immutable after registration.
type Command struct {
	// Keyword invokes the command from message text. Optional when
	// CallbackKeyword is set.
	Keyword string
	// ExactMatch requires the whole message to equal the keyword
	// instead of merely containing it.
	ExactMatch bool
	// CallbackKeyword routes card submissions carrying it back to
	// this command. Unique across the registry.
	CallbackKeyword string
	// Help is the short description shown on the help card.
	Help string
	// Card, when set, is a static adaptive card sent in place of
	// running Execute for text invocations.
	Card json.RawMessage
	// DeletePrevious deletes the card which invoked this command
	// before the main handler runs.
	DeletePrevious bool
	// ApprovedRooms restricts the command to members of these rooms.
	ApprovedRooms []string
	// Chained commands are registered together with this one.
	Chained []*Command

	// PreCardLoadReply runs before a static card send. Optional.
	PreCardLoadReply Handler
	// PreExecute runs before Execute, for quick acknowledgements on
	// long-running commands. Optional.
	PreExecute Handler
	// Execute is the main handler.
	Execute Handler
}

// BotError is a handler failure that should be relayed to the chat
// user. It is the only error text a user ever sees; everything else
// stays in the logs.
type BotError struct {
	DebugMessage string
	ReplyMessage string
	OneToOne     bool
}

func (e *BotError) Error() string {
	return e.DebugMessage
}

// ExecutionResult is the normalized output of one command phase.
type ExecutionResult struct {
	// Payload may be empty (no reply), a string, a *webex.Response,
	// or a slice of either.
	Payload any
	// OneToOne redirects plain-text payloads to the user's direct
	// space.
	OneToOne bool
}
