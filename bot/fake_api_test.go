package bot

import (
	"context"
	"sync"

	"github.com/mbocsi/sparkbot/webex"
)

// fakeAPI implements webex.API with overridable behaviour and a
// record of every outbound send and delete.
type fakeAPI struct {
	mu       sync.Mutex
	sent     []*webex.Response
	deleted  []string
	sendErr  error
	memberOf map[string][]string // roomID -> member emails

	messages map[string]*webex.Message
	actions  map[string]*webex.AttachmentAction
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		memberOf: make(map[string][]string),
		messages: make(map[string]*webex.Message),
		actions:  make(map[string]*webex.AttachmentAction),
	}
}

func (f *fakeAPI) DeviceList(ctx context.Context) ([]webex.Device, error) {
	return nil, nil
}

func (f *fakeAPI) DeviceCreate(ctx context.Context, desc webex.DeviceDescriptor) (*webex.Device, error) {
	return &webex.Device{Name: desc.Name, WebSocketURL: "wss://example.com/ws"}, nil
}

func (f *fakeAPI) MessageGet(ctx context.Context, id string) (*webex.Message, error) {
	return f.messages[id], nil
}

func (f *fakeAPI) MessageCreate(ctx context.Context, draft *webex.Response) (*webex.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	f.sent = append(f.sent, draft)
	return &webex.Message{ID: "sent-msg"}, nil
}

func (f *fakeAPI) MessageDelete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeAPI) AttachmentActionGet(ctx context.Context, id string) (*webex.AttachmentAction, error) {
	return f.actions[id], nil
}

func (f *fakeAPI) MembershipList(ctx context.Context, roomID, personEmail string) ([]webex.Membership, error) {
	var out []webex.Membership
	for _, email := range f.memberOf[roomID] {
		if personEmail == "" || personEmail == email {
			out = append(out, webex.Membership{RoomID: roomID, PersonEmail: email})
		}
	}
	return out, nil
}

func (f *fakeAPI) Me(ctx context.Context) (*webex.Person, error) {
	return &webex.Person{DisplayName: "Test Bot", Emails: []string{"bot@example.com"}}, nil
}

func (f *fakeAPI) ObjectID(ctx context.Context, objectURL string) (string, error) {
	return objectURL, nil
}

func (f *fakeAPI) sentDrafts() []*webex.Response {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*webex.Response, len(f.sent))
	copy(out, f.sent)
	return out
}

func (f *fakeAPI) deletedIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.deleted))
	copy(out, f.deleted)
	return out
}
