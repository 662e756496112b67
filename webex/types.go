package webex

import "encoding/json"

// Device is a backend-side registration record identifying this
// client instance. Replaced wholesale on refresh, never mutated.
type Device struct {
	URL          string `json:"url,omitempty"`
	Name         string `json:"name"`
	DeviceName   string `json:"deviceName,omitempty"`
	DeviceType   string `json:"deviceType,omitempty"`
	Model        string `json:"model,omitempty"`
	SystemName   string `json:"systemName,omitempty"`
	WebSocketURL string `json:"webSocketUrl,omitempty"`
}

// DeviceDescriptor is the registration request body.
type DeviceDescriptor struct {
	Name           string `json:"name"`
	DeviceName     string `json:"deviceName"`
	DeviceType     string `json:"deviceType"`
	LocalizedModel string `json:"localizedModel"`
	Model          string `json:"model"`
	SystemName     string `json:"systemName"`
	SystemVersion  string `json:"systemVersion"`
}

// DefaultDeviceDescriptor describes this client to the device
// management service. The fixed Name is what existing registrations
// are matched against on startup.
func DefaultDeviceDescriptor() DeviceDescriptor {
	return DeviceDescriptor{
		Name:           "go-spark-client",
		DeviceName:     "gowebsocket-client",
		DeviceType:     "DESKTOP",
		LocalizedModel: "go",
		Model:          "go",
		SystemName:     "go-spark-client",
		SystemVersion:  "0.1",
	}
}

type Message struct {
	ID          string   `json:"id"`
	RoomID      string   `json:"roomId"`
	RoomType    string   `json:"roomType,omitempty"`
	Text        string   `json:"text,omitempty"`
	Markdown    string   `json:"markdown,omitempty"`
	HTML        string   `json:"html,omitempty"`
	PersonID    string   `json:"personId,omitempty"`
	PersonEmail string   `json:"personEmail,omitempty"`
	ParentID    string   `json:"parentId,omitempty"`
	Files       []string `json:"files,omitempty"`
}

// AttachmentAction is a submitted card action.
type AttachmentAction struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	MessageID string         `json:"messageId"`
	RoomID    string         `json:"roomId"`
	PersonID  string         `json:"personId,omitempty"`
	Inputs    map[string]any `json:"inputs"`
}

// Input returns a string-valued card input, or "" if absent.
func (a *AttachmentAction) Input(key string) string {
	if a == nil || a.Inputs == nil {
		return ""
	}
	s, _ := a.Inputs[key].(string)
	return s
}

type Membership struct {
	ID          string `json:"id"`
	RoomID      string `json:"roomId"`
	PersonID    string `json:"personId,omitempty"`
	PersonEmail string `json:"personEmail"`
}

type Person struct {
	ID          string   `json:"id"`
	DisplayName string   `json:"displayName"`
	Emails      []string `json:"emails"`
	Avatar      string   `json:"avatar,omitempty"`
}

// Response is an outbound message draft. Exactly one of RoomID or
// ToPersonEmail should be set by the time it is sent; the dispatcher
// defaults RoomID to the originating room when both are empty.
type Response struct {
	RoomID        string       `json:"roomId,omitempty"`
	ToPersonEmail string       `json:"toPersonEmail,omitempty"`
	ParentID      string       `json:"parentId,omitempty"`
	Text          string       `json:"text,omitempty"`
	Markdown      string       `json:"markdown,omitempty"`
	Attachments   []Attachment `json:"attachments,omitempty"`
}

type Attachment struct {
	ContentType string          `json:"contentType"`
	Content     json.RawMessage `json:"content"`
}

const CardContentType = "application/vnd.microsoft.card.adaptive"
