package proto

import (
	"encoding/json"
	"errors"
	"slices"
)

// Event types carried in Envelope.Data.EventType.
const (
	EventConversationActivity = "conversation.activity"
)

// Activity verbs the backend emits against a conversation.
const (
	VerbPost       = "post"
	VerbShare      = "share"
	VerbUpdate     = "update"
	VerbCardAction = "cardAction"
)

// Actor types.
const (
	ActorPerson = "PERSON"
	ActorBot    = "BOT"
)

const tagOneOnOne = "ONE_ON_ONE"

var ErrMalformedEnvelope = errors.New("malformed envelope")

// Envelope is a single inbound frame from the realtime stream.
type Envelope struct {
	ID   string    `json:"id,omitempty"`
	Data EventData `json:"data"`
}

type EventData struct {
	EventType string    `json:"eventType"`
	Activity  *Activity `json:"activity,omitempty"`
}

// Activity describes an action taken by an actor against a target
// conversation. Object is only populated for share/update verbs.
type Activity struct {
	ID     string          `json:"id"`
	Verb   string          `json:"verb"`
	Actor  Actor           `json:"actor"`
	Target Target          `json:"target"`
	Object *Object         `json:"object,omitempty"`
	Parent json.RawMessage `json:"parent,omitempty"`
}

type Actor struct {
	Type         string `json:"type"`
	EmailAddress string `json:"emailAddress"`
}

type Target struct {
	ID   string   `json:"id"`
	URL  string   `json:"url"`
	Tags []string `json:"tags,omitempty"`
}

// IsOneOnOne reports whether the target conversation is a direct
// (1:1) space rather than a group space.
func (t Target) IsOneOnOne() bool {
	return slices.Contains(t.Tags, tagOneOnOne)
}

// Object is the content object attached to share/update activities.
type Object struct {
	ObjectType      string    `json:"objectType"`
	ContentCategory string    `json:"contentCategory"`
	Files           *FileList `json:"files,omitempty"`
}

type FileList struct {
	Items []File `json:"items"`
}

type File struct {
	MalwareQuarantineState string `json:"malwareQuarantineState"`
}

// Safe reports whether every attached file passed its malware scan.
func (fl *FileList) Safe() bool {
	if fl == nil {
		return false
	}
	for _, f := range fl.Items {
		if f.MalwareQuarantineState != "safe" {
			return false
		}
	}
	return true
}

// AuthFrame is the first frame sent after the stream opens.
type AuthFrame struct {
	ID   string   `json:"id"`
	Type string   `json:"type"`
	Data AuthData `json:"data"`
}

type AuthData struct {
	Token string `json:"token"`
}

func NewAuthFrame(id, token string) AuthFrame {
	return AuthFrame{ID: id, Type: "authorization", Data: AuthData{Token: "Bearer " + token}}
}

// AckFrame acknowledges a processed activity so the backend stops
// redelivering it.
type AckFrame struct {
	Type      string `json:"type"`
	MessageID string `json:"messageId"`
}

func NewAckFrame(messageID string) AckFrame {
	return AckFrame{Type: "ack", MessageID: messageID}
}

// Decode parses a raw frame into an Envelope. Frames that do not
// carry the fields required for classification return
// ErrMalformedEnvelope instead of surfacing partially-formed data.
func Decode(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, errors.Join(ErrMalformedEnvelope, err)
	}
	if env.Data.EventType == "" {
		return Envelope{}, ErrMalformedEnvelope
	}
	if env.Data.EventType == EventConversationActivity {
		act := env.Data.Activity
		if act == nil || act.ID == "" || act.Verb == "" || act.Target.ID == "" || act.Target.URL == "" {
			return Envelope{}, ErrMalformedEnvelope
		}
	}
	return env, nil
}
