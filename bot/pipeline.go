package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mbocsi/sparkbot/card"
)

// target is where an invocation's replies go.
type target struct {
	roomID     string
	email      string
	isOneOnOne bool
}

// execute runs the resolved command's phases against one event.
//
// Text invocations of a command carrying a static card send the card
// (preceded by an optional pre-card-load reply) instead of running
// the handler. Everything else runs pre-execute then execute. A
// BotError from any phase becomes the reply and short-circuits later
// phases; any other handler error aborts the invocation.
func (b *Bot) execute(ctx context.Context, cmd *Command, req Request, isCallback bool, dst target) {
	if cmd.DeletePrevious {
		if id := previousMessageID(req); id != "" {
			slog.Info("Deleting previous message", "message_id", id)
			if err := b.api.MessageDelete(ctx, id); err != nil {
				slog.Warn("Failed to delete previous message", "message_id", id, "error", err)
			}
		}
	}

	if !isCallback && cmd.Card != nil {
		res, _, err := b.runPhase(ctx, "pre_card_load_reply", cmd.PreCardLoadReply, req)
		if err != nil {
			slog.Error("Pre-card-load reply failed", "keyword", cmd.Keyword, "error", err)
			return
		}
		b.deliver(ctx, res, dst)
		b.deliver(ctx, ExecutionResult{Payload: card.RawResponse(cmd.Card)}, dst)
		return
	}

	res, failed, err := b.runPhase(ctx, "pre_execute", cmd.PreExecute, req)
	if err != nil {
		slog.Error("Pre-execute failed", "keyword", cmd.Keyword, "error", err)
		return
	}
	interim := b.deliver(ctx, res, dst)
	if failed {
		return
	}

	if cmd.DeletePrevious {
		for _, id := range interim {
			if err := b.api.MessageDelete(ctx, id); err != nil {
				slog.Warn("Failed to delete interim reply", "message_id", id, "error", err)
			}
		}
	}

	res, _, err = b.runPhase(ctx, "execute", cmd.Execute, req)
	if err != nil {
		slog.Error("Command execution failed", "keyword", cmd.Keyword, "error", err)
		return
	}
	b.deliver(ctx, res, dst)
}

// runPhase invokes one phase and translates a BotError into an
// ExecutionResult. The second return value reports whether the result
// came from a BotError, which stops the remaining phases.
func (b *Bot) runPhase(ctx context.Context, name string, fn Handler, req Request) (ExecutionResult, bool, error) {
	if fn == nil {
		return ExecutionResult{}, false, nil
	}
	payload, err := fn(ctx, req)
	if err != nil {
		var berr *BotError
		if errors.As(err, &berr) {
			slog.Warn("Command reported user-facing failure",
				"phase", name, "debug", berr.DebugMessage)
			return ExecutionResult{Payload: berr.ReplyMessage, OneToOne: berr.OneToOne}, true, nil
		}
		return ExecutionResult{}, false, fmt.Errorf("%s: %w", name, err)
	}
	return ExecutionResult{Payload: payload}, false, nil
}

// deliver normalizes a result and sends each draft, returning the ids
// of the created messages.
func (b *Bot) deliver(ctx context.Context, res ExecutionResult, dst target) []string {
	var ids []string
	for _, draft := range Normalize(res, dst.roomID, dst.email, dst.isOneOnOne) {
		msg, err := b.api.MessageCreate(ctx, draft)
		if err != nil {
			slog.Error("Failed to send reply", "room_id", draft.RoomID, "to", draft.ToPersonEmail, "error", err)
			continue
		}
		if msg != nil && msg.ID != "" {
			ids = append(ids, msg.ID)
		}
	}
	return ids
}

// previousMessageID is the id of the message that triggered this
// invocation, when the event carries one. Only card submissions
// reference their originating message.
func previousMessageID(req Request) string {
	if req.Action != nil {
		return req.Action.MessageID
	}
	return ""
}
