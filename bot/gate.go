package bot

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/mbocsi/sparkbot/webex"
)

type membershipAPI interface {
	MembershipList(ctx context.Context, roomID, personEmail string) ([]webex.Membership, error)
}

// Gate approves or rejects the originating user of an event against
// the configured allow-lists. With all lists empty the gate is open
// to anyone, which is advised once in the logs.
type Gate struct {
	api     membershipAPI
	users   []string
	domains []string

	openOnce sync.Once
}

func NewGate(api membershipAPI, users, domains []string) *Gate {
	return &Gate{api: api, users: users, domains: domains}
}

// Approve reports whether the user may proceed. approvedRooms is the
// room allow-list for this check: the bot-wide one for inbound
// messages, a command's own for command-level restrictions.
func (g *Gate) Approve(ctx context.Context, email string, approvedRooms []string) bool {
	if len(g.users) == 0 && len(g.domains) == 0 && len(approvedRooms) == 0 {
		g.openOnce.Do(func() {
			slog.Warn("Bot is open to anyone on the backend. " +
				"Consider limiting this with approved users, domains or rooms.")
		})
		return true
	}

	switch {
	case len(g.domains) > 0 && slices.Contains(g.domains, emailDomain(email)):
		return true
	case len(g.users) > 0 && slices.Contains(g.users, email):
		return true
	case len(approvedRooms) > 0 && g.memberOfAny(ctx, email, approvedRooms):
		return true
	}

	slog.Warn("User is not approved to interact, ignoring", "email", email)
	return false
}

// memberOfAny checks room membership via the collaborator API,
// short-circuiting on the first match.
func (g *Gate) memberOfAny(ctx context.Context, email string, rooms []string) bool {
	for _, roomID := range rooms {
		members, err := g.api.MembershipList(ctx, roomID, email)
		if err != nil {
			slog.Warn("Membership lookup failed", "room_id", roomID, "error", err)
			continue
		}
		for _, m := range members {
			if strings.EqualFold(m.PersonEmail, email) {
				return true
			}
		}
	}
	return false
}

func emailDomain(email string) string {
	_, domain, ok := strings.Cut(email, "@")
	if !ok {
		return ""
	}
	return domain
}
