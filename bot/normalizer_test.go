package bot

import (
	"reflect"
	"testing"

	"github.com/mbocsi/sparkbot/webex"
)

func TestNormalize_EmptyPayload(t *testing.T) {
	if got := Normalize(ExecutionResult{}, "room-1", "a@example.com", false); got != nil {
		t.Errorf("Expected no sends for nil payload, got %v", got)
	}
	if got := Normalize(ExecutionResult{Payload: ""}, "room-1", "a@example.com", false); got != nil {
		t.Errorf("Expected no sends for empty string, got %v", got)
	}
}

func TestNormalize_TextToRoom(t *testing.T) {
	got := Normalize(ExecutionResult{Payload: "hello"}, "room-1", "a@example.com", false)
	if len(got) != 1 {
		t.Fatalf("Expected 1 send, got %d", len(got))
	}
	if got[0].RoomID != "room-1" || got[0].Markdown != "hello" {
		t.Errorf("Unexpected draft: %+v", got[0])
	}
}

func TestNormalize_OneToOneFromGroupSpace(t *testing.T) {
	got := Normalize(ExecutionResult{Payload: "secret", OneToOne: true}, "room-1", "a@example.com", false)
	if len(got) != 2 {
		t.Fatalf("Expected heads-up plus direct send, got %d", len(got))
	}
	if got[0].RoomID != "room-1" || got[0].ToPersonEmail != "" {
		t.Errorf("Expected first send to be the room heads-up, got %+v", got[0])
	}
	if got[1].ToPersonEmail != "a@example.com" || got[1].Markdown != "secret" {
		t.Errorf("Expected second send to be direct, got %+v", got[1])
	}
}

func TestNormalize_OneToOneAlreadyDirect(t *testing.T) {
	got := Normalize(ExecutionResult{Payload: "secret", OneToOne: true}, "room-1", "a@example.com", true)
	if len(got) != 1 {
		t.Fatalf("Expected single direct send without heads-up, got %d", len(got))
	}
	if got[0].ToPersonEmail != "a@example.com" {
		t.Errorf("Expected direct send, got %+v", got[0])
	}
}

func TestNormalize_ResponseDefaultsRoom(t *testing.T) {
	res := ExecutionResult{Payload: &webex.Response{Markdown: "card text"}}
	got := Normalize(res, "room-1", "a@example.com", false)
	if len(got) != 1 || got[0].RoomID != "room-1" {
		t.Fatalf("Expected room defaulted, got %+v", got)
	}
}

func TestNormalize_ResponseKeepsExplicitTarget(t *testing.T) {
	res := ExecutionResult{Payload: &webex.Response{RoomID: "other-room", Markdown: "x"}}
	got := Normalize(res, "room-1", "a@example.com", false)
	if got[0].RoomID != "other-room" {
		t.Errorf("Expected explicit room kept, got %+v", got[0])
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	payload := &webex.Response{Markdown: "again"}
	res := ExecutionResult{Payload: payload}

	first := Normalize(res, "room-1", "a@example.com", false)
	second := Normalize(res, "room-1", "a@example.com", false)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("Expected identical sends, got %+v then %+v", first, second)
	}
	if payload.RoomID != "" {
		t.Errorf("Expected original payload untouched, got room %q", payload.RoomID)
	}
}

func TestNormalize_MixedList(t *testing.T) {
	res := ExecutionResult{
		Payload:  []any{&webex.Response{Markdown: "card"}, "plain"},
		OneToOne: true,
	}
	got := Normalize(res, "room-1", "a@example.com", true)
	if len(got) != 2 {
		t.Fatalf("Expected 2 sends, got %d", len(got))
	}
	if got[0].RoomID != "room-1" {
		t.Errorf("Expected structured item to target room, got %+v", got[0])
	}
	if got[1].ToPersonEmail != "a@example.com" {
		t.Errorf("Expected plain item to follow one-to-one rule, got %+v", got[1])
	}
}

func TestNormalize_UnsupportedType(t *testing.T) {
	if got := Normalize(ExecutionResult{Payload: 42}, "room-1", "a@example.com", false); got != nil {
		t.Errorf("Expected unsupported payload dropped, got %v", got)
	}
}
