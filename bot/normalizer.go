package bot

import (
	"fmt"
	"log/slog"

	"github.com/mbocsi/sparkbot/webex"
)

// Normalize converts an execution result into zero or more concrete
// outbound message drafts. The result's payload is never mutated;
// room defaulting happens on copies, so normalizing the same result
// twice produces identical drafts.
func Normalize(res ExecutionResult, roomID, personEmail string, isOneOnOne bool) []*webex.Response {
	return normalizePayload(res.Payload, res.OneToOne, roomID, personEmail, isOneOnOne)
}

func normalizePayload(payload any, oneToOne bool, roomID, personEmail string, isOneOnOne bool) []*webex.Response {
	switch v := payload.(type) {
	case nil:
		return nil

	case *webex.Response:
		if v == nil {
			return nil
		}
		out := *v
		if out.RoomID == "" && out.ToPersonEmail == "" {
			out.RoomID = roomID
		}
		return []*webex.Response{&out}

	case webex.Response:
		return normalizePayload(&v, oneToOne, roomID, personEmail, isOneOnOne)

	case string:
		if v == "" {
			return nil
		}
		return normalizeText(v, oneToOne, roomID, personEmail, isOneOnOne)

	case []*webex.Response:
		var out []*webex.Response
		for _, r := range v {
			out = append(out, normalizePayload(r, oneToOne, roomID, personEmail, isOneOnOne)...)
		}
		return out

	case []string:
		var out []*webex.Response
		for _, s := range v {
			out = append(out, normalizePayload(s, oneToOne, roomID, personEmail, isOneOnOne)...)
		}
		return out

	case []any:
		var out []*webex.Response
		for _, item := range v {
			out = append(out, normalizePayload(item, oneToOne, roomID, personEmail, isOneOnOne)...)
		}
		return out

	default:
		slog.Warn("Unsupported reply payload type, dropping", "type", fmt.Sprintf("%T", payload))
		return nil
	}
}

// normalizeText applies the one-to-one redirection rule: a direct
// reply from a group space first leaves a heads-up notice in the
// room, then goes to the user's own space.
func normalizeText(text string, oneToOne bool, roomID, personEmail string, isOneOnOne bool) []*webex.Response {
	if !oneToOne {
		return []*webex.Response{{RoomID: roomID, Markdown: text}}
	}
	var out []*webex.Response
	if !isOneOnOne {
		headsUp := webex.QuoteInfo(fmt.Sprintf("%s I've messaged you 1-1. Please reply to me there.", personEmail))
		out = append(out, &webex.Response{RoomID: roomID, Markdown: headsUp})
	}
	return append(out, &webex.Response{ToPersonEmail: personEmail, Markdown: text})
}
