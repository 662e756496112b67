package webex

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

// newTestClient points a client at a test server for both the public
// API and the device management service.
func newTestClient(srv *httptest.Server) *Client {
	return NewClient("secret", WithAPIURL(srv.URL), WithDeviceURL(srv.URL+"/wdm"))
}

func TestClient_RequestHeaders(t *testing.T) {
	var gotAuth, gotContentType, gotTracking string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		gotTracking = r.Header.Get("TrackingID")
		json.NewEncoder(w).Encode(Person{ID: "me"})
	}))
	defer srv.Close()

	c := newTestClient(srv)
	if _, err := c.Me(t.Context()); err != nil {
		t.Fatalf("Me failed: %v", err)
	}
	if gotAuth != "Bearer secret" {
		t.Errorf("Expected bearer auth header, got %q", gotAuth)
	}
	if gotContentType != "application/json;charset=utf-8" {
		t.Errorf("Unexpected content type %q", gotContentType)
	}
	if gotTracking != c.TrackingID() {
		t.Errorf("Expected tracking id %q, got %q", c.TrackingID(), gotTracking)
	}
}

func TestClient_MessageGet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/messages/msg-1" {
			t.Errorf("Unexpected request %s %s", r.Method, r.URL.Path)
		}
		json.NewEncoder(w).Encode(Message{ID: "msg-1", RoomID: "room-1", Text: "hello"})
	}))
	defer srv.Close()

	msg, err := newTestClient(srv).MessageGet(t.Context(), "msg-1")
	if err != nil {
		t.Fatalf("MessageGet failed: %v", err)
	}
	if msg.ID != "msg-1" || msg.RoomID != "room-1" || msg.Text != "hello" {
		t.Errorf("Unexpected message %+v", msg)
	}
}

func TestClient_MessageCreate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/messages" {
			t.Errorf("Unexpected request %s %s", r.Method, r.URL.Path)
		}
		var draft Response
		if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
			t.Errorf("Decoding draft: %v", err)
		}
		if draft.RoomID != "room-1" || draft.Markdown != "**hi**" {
			t.Errorf("Unexpected draft %+v", draft)
		}
		json.NewEncoder(w).Encode(Message{ID: "msg-9", RoomID: draft.RoomID})
	}))
	defer srv.Close()

	msg, err := newTestClient(srv).MessageCreate(t.Context(), &Response{RoomID: "room-1", Markdown: "**hi**"})
	if err != nil {
		t.Fatalf("MessageCreate failed: %v", err)
	}
	if msg.ID != "msg-9" {
		t.Errorf("Expected created message id msg-9, got %q", msg.ID)
	}
}

func TestClient_MessageDelete(t *testing.T) {
	var gotMethod, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath = r.Method, r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	if err := newTestClient(srv).MessageDelete(t.Context(), "msg-1"); err != nil {
		t.Fatalf("MessageDelete failed: %v", err)
	}
	if gotMethod != http.MethodDelete || gotPath != "/messages/msg-1" {
		t.Errorf("Unexpected request %s %s", gotMethod, gotPath)
	}
}

func TestClient_MembershipList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/memberships" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("roomId") != "room-1" || q.Get("personEmail") != "a@example.com" {
			t.Errorf("Unexpected query %v", q)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"items": []Membership{{ID: "m-1", RoomID: "room-1", PersonEmail: "a@example.com"}},
		})
	}))
	defer srv.Close()

	items, err := newTestClient(srv).MembershipList(t.Context(), "room-1", "a@example.com")
	if err != nil {
		t.Fatalf("MembershipList failed: %v", err)
	}
	if len(items) != 1 || items[0].ID != "m-1" {
		t.Errorf("Unexpected memberships %+v", items)
	}
}

func TestClient_DeviceEndpoints(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/wdm/devices" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		switch r.Method {
		case http.MethodGet:
			json.NewEncoder(w).Encode(map[string]any{
				"devices": []Device{{Name: "go-spark-client", WebSocketURL: "wss://mercury.example.com"}},
			})
		case http.MethodPost:
			var desc DeviceDescriptor
			json.NewDecoder(r.Body).Decode(&desc)
			json.NewEncoder(w).Encode(Device{Name: desc.Name, WebSocketURL: "wss://mercury.example.com"})
		default:
			t.Errorf("Unexpected method %s", r.Method)
		}
	}))
	defer srv.Close()

	c := newTestClient(srv)
	devices, err := c.DeviceList(t.Context())
	if err != nil {
		t.Fatalf("DeviceList failed: %v", err)
	}
	if len(devices) != 1 || devices[0].WebSocketURL == "" {
		t.Errorf("Unexpected devices %+v", devices)
	}

	dev, err := c.DeviceCreate(t.Context(), DefaultDeviceDescriptor())
	if err != nil {
		t.Fatalf("DeviceCreate failed: %v", err)
	}
	if dev.Name != "go-spark-client" {
		t.Errorf("Expected descriptor name echoed back, got %q", dev.Name)
	}
}

func TestClient_ObjectID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/messages/act-1" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]string{"id": "backend-id"})
	}))
	defer srv.Close()

	id, err := newTestClient(srv).ObjectID(t.Context(), srv.URL+"/messages/act-1")
	if err != nil {
		t.Fatalf("ObjectID failed: %v", err)
	}
	if id != "backend-id" {
		t.Errorf("Expected backend-id, got %q", id)
	}
}

func TestClient_ObjectIDMissingID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{})
	}))
	defer srv.Close()

	if _, err := newTestClient(srv).ObjectID(t.Context(), srv.URL+"/messages/act-1"); err == nil {
		t.Error("Expected error when object has no id")
	}
}

func TestClient_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such message", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := newTestClient(srv).MessageGet(t.Context(), "missing")
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("Expected StatusError, got %v", err)
	}
	if se.StatusCode != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", se.StatusCode)
	}
	if se.Method != http.MethodGet {
		t.Errorf("Expected GET recorded, got %q", se.Method)
	}
}
