package realtime

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/mbocsi/sparkbot/proto"
	"github.com/mbocsi/sparkbot/webex"
)

// Acker marshals an acknowledgement onto the connection goroutine.
type Acker interface {
	Ack(messageID string)
}

type classifierAPI interface {
	MessageGet(ctx context.Context, id string) (*webex.Message, error)
	AttachmentActionGet(ctx context.Context, id string) (*webex.AttachmentAction, error)
	ObjectID(ctx context.Context, objectURL string) (string, error)
}

// Classifier turns raw envelopes into domain events: a posted message
// or a submitted card action. Everything else is ignored. It runs on
// worker goroutines, one per frame, with no cross-frame ordering.
type Classifier struct {
	api          classifierAPI
	acker        Acker
	onMessage    func(ctx context.Context, msg *webex.Message, act *proto.Activity)
	onCardAction func(ctx context.Context, action *webex.AttachmentAction, act *proto.Activity)

	// A share activity parks its object id here for the update that
	// follows it. Single slot, like the stream's own pairing.
	mu      sync.Mutex
	shareID string
}

func NewClassifier(
	api classifierAPI,
	onMessage func(ctx context.Context, msg *webex.Message, act *proto.Activity),
	onCardAction func(ctx context.Context, action *webex.AttachmentAction, act *proto.Activity),
) *Classifier {
	return &Classifier{api: api, onMessage: onMessage, onCardAction: onCardAction}
}

// SetAcker wires the connection after construction; the classifier
// and the connection reference each other.
func (cl *Classifier) SetAcker(a Acker) {
	cl.acker = a
}

func (cl *Classifier) Process(ctx context.Context, env proto.Envelope) {
	if env.Data.EventType != proto.EventConversationActivity {
		slog.Debug("Ignoring event", "event_type", env.Data.EventType)
		return
	}
	act := env.Data.Activity

	switch act.Verb {
	case proto.VerbPost:
		cl.emitMessage(ctx, act)

	case proto.VerbShare:
		cl.mu.Lock()
		cl.shareID = act.ID
		cl.mu.Unlock()
		slog.Debug("Recorded share for following update", "share_id", act.ID)

	case proto.VerbUpdate:
		if !safeDocumentUpdate(act.Object) {
			slog.Debug("Ignoring update", "activity_id", act.ID)
			return
		}
		cl.emitMessage(ctx, act)

	case proto.VerbCardAction:
		cl.emitCardAction(ctx, act)

	default:
		slog.Debug("Ignoring activity", "verb", act.Verb)
	}
}

// safeDocumentUpdate reports whether an update activity carries a
// document-category content object whose files all passed malware
// scanning.
func safeDocumentUpdate(obj *proto.Object) bool {
	if obj == nil || obj.ObjectType != "content" || obj.ContentCategory != "documents" {
		return false
	}
	return obj.Files.Safe()
}

func (cl *Classifier) emitMessage(ctx context.Context, act *proto.Activity) {
	objectID, err := cl.resolveObjectID(ctx, act, "messages")
	if err != nil {
		slog.Warn("Failed to resolve message id", "activity_id", act.ID, "error", err)
		return
	}
	msg, err := cl.api.MessageGet(ctx, objectID)
	if err != nil {
		slog.Warn("Failed to fetch message", "message_id", objectID, "error", err)
		return
	}
	cl.ack(objectID)
	if cl.onMessage != nil {
		cl.onMessage(ctx, msg, act)
	}
}

func (cl *Classifier) emitCardAction(ctx context.Context, act *proto.Activity) {
	objectID, err := cl.resolveObjectID(ctx, act, "attachment/actions")
	if err != nil {
		slog.Warn("Failed to resolve attachment action id", "activity_id", act.ID, "error", err)
		return
	}
	action, err := cl.api.AttachmentActionGet(ctx, objectID)
	if err != nil {
		slog.Warn("Failed to fetch attachment action", "action_id", objectID, "error", err)
		return
	}
	cl.ack(objectID)
	if cl.onCardAction != nil {
		cl.onCardAction(ctx, action, act)
	}
}

func (cl *Classifier) ack(messageID string) {
	if cl.acker != nil {
		cl.acker.Ack(messageID)
	}
}

// resolveObjectID computes the object's address by swapping the
// conversation segment of the target URL for the object segment, then
// asks the backend for the object's own id. The indirection exists
// because the conversation URL may point at a different data-center
// than the one serving individual objects.
func (cl *Classifier) resolveObjectID(ctx context.Context, act *proto.Activity, segment string) (string, error) {
	activityID := act.ID
	if act.Verb == proto.VerbUpdate {
		cl.mu.Lock()
		if cl.shareID != "" {
			activityID = cl.shareID
			cl.shareID = ""
		}
		cl.mu.Unlock()
	}
	addr := strings.Replace(act.Target.URL,
		"conversations/"+act.Target.ID,
		segment+"/"+activityID, 1)
	return cl.api.ObjectID(ctx, addr)
}
