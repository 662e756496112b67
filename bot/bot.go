// Package bot dispatches realtime backend events to registered
// command handlers.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/mbocsi/sparkbot/device"
	"github.com/mbocsi/sparkbot/proto"
	"github.com/mbocsi/sparkbot/realtime"
	"github.com/mbocsi/sparkbot/webex"
)

type Config struct {
	Token string

	// Name and HelpSubtitle appear on the generated help card.
	Name         string
	HelpSubtitle string

	// Empty allow-lists leave the bot open to anyone.
	ApprovedUsers   []string
	ApprovedDomains []string
	ApprovedRooms   []string

	// IncludeDemo registers the echo demo command.
	IncludeDemo bool

	// Realtime tunables; Token is filled in from above.
	Realtime realtime.Config

	// APIURL and DeviceURL override the backend endpoints, mainly
	// for tests.
	APIURL    string
	DeviceURL string
}

func (c *Config) applyDefaults() {
	if c.Name == "" {
		c.Name = "Spark Bot"
	}
	if c.HelpSubtitle == "" {
		c.HelpSubtitle = "Here are my available commands. Click one to begin."
	}
}

// Bot ties the realtime connection to the command dispatch engine.
type Bot struct {
	cfg      Config
	api      webex.API
	registry *Registry
	gate     *Gate
	help     *Command
	session  *device.Session
	conn     *realtime.Conn

	mu sync.RWMutex
	me *webex.Person
}

func New(cfg Config) *Bot {
	var opts []webex.ClientOption
	if cfg.APIURL != "" {
		opts = append(opts, webex.WithAPIURL(cfg.APIURL))
	}
	if cfg.DeviceURL != "" {
		opts = append(opts, webex.WithDeviceURL(cfg.DeviceURL))
	}
	return NewWithAPI(cfg, webex.NewClient(cfg.Token, opts...))
}

// NewWithAPI constructs a bot over an explicit collaborator client.
func NewWithAPI(cfg Config, api webex.API) *Bot {
	cfg.applyDefaults()
	cfg.Realtime.Token = cfg.Token

	b := &Bot{
		cfg:      cfg,
		api:      api,
		registry: NewRegistry(),
		gate:     NewGate(api, cfg.ApprovedUsers, cfg.ApprovedDomains),
	}
	b.help = newHelpCommand(b)
	if err := b.registry.Add(b.help); err != nil {
		// The registry is empty at this point; the help command
		// cannot collide.
		panic("bot: register help command: " + err.Error())
	}
	if cfg.IncludeDemo {
		if err := b.RegisterCommand(NewEchoCommand()); err != nil {
			panic("bot: register demo commands: " + err.Error())
		}
	}

	b.session = device.NewSession(api, webex.DefaultDeviceDescriptor())
	classifier := realtime.NewClassifier(api, b.onMessage, b.onCardAction)
	b.conn = realtime.NewConn(cfg.Realtime, b.session, classifier)
	classifier.SetAcker(b.conn)
	return b
}

// RegisterCommand adds a command before the bot starts. A duplicate
// callback keyword is a configuration error and is surfaced
// immediately.
func (b *Bot) RegisterCommand(cmd *Command) error {
	return b.registry.Add(cmd)
}

// Run fetches the bot's identity and drives the realtime connection
// until Stop or a fatal error.
func (b *Bot) Run(ctx context.Context) error {
	if err := b.loadIdentity(ctx); err != nil {
		return err
	}
	return b.conn.Run(ctx)
}

// RunAsync runs the bot on its own goroutine, reporting the result of
// Run on the returned channel.
func (b *Bot) RunAsync(ctx context.Context) <-chan error {
	done := make(chan error, 1)
	go func() {
		done <- b.Run(ctx)
	}()
	return done
}

// Stop signals the realtime loop to exit. Idempotent.
func (b *Bot) Stop() {
	b.conn.Stop()
}

// ConnectionState exposes the realtime link's current phase.
func (b *Bot) ConnectionState() realtime.State {
	return b.conn.State()
}

// Commands returns the registered commands.
func (b *Bot) Commands() []*Command {
	return b.registry.Commands()
}

// Send delivers an outbound draft through the collaborator API.
func (b *Bot) Send(ctx context.Context, draft *webex.Response) (*webex.Message, error) {
	return b.api.MessageCreate(ctx, draft)
}

func (b *Bot) loadIdentity(ctx context.Context) error {
	me, err := b.api.Me(ctx)
	if err != nil {
		return fmt.Errorf("fetch bot identity: %w", err)
	}
	b.mu.Lock()
	b.me = me
	b.mu.Unlock()
	slog.Info("Running as bot", "display_name", me.DisplayName, "emails", me.Emails)
	return nil
}

// DisplayName is the backend-reported identity, or the configured
// name before Run has fetched it.
func (b *Bot) DisplayName() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.me != nil && b.me.DisplayName != "" {
		return b.me.DisplayName
	}
	return b.cfg.Name
}

func (b *Bot) avatar() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.me != nil {
		return b.me.Avatar
	}
	return ""
}

// onMessage handles a classified message-posted event.
func (b *Bot) onMessage(ctx context.Context, msg *webex.Message, act *proto.Activity) {
	if act.Actor.Type != proto.ActorPerson {
		slog.Debug("Message is from a bot, ignoring")
		return
	}
	email := msg.PersonEmail
	slog.Info("Message received", "from", email, "room_id", msg.RoomID)

	if !b.gate.Approve(ctx, email, b.cfg.ApprovedRooms) {
		return
	}

	isOneOnOne := act.Target.IsOneOnOne()
	text := msg.Text
	if !isOneOnOne {
		// Mentioning the bot prefixes its display name to the text.
		text = strings.TrimSpace(strings.ReplaceAll(text, b.DisplayName(), ""))
	}

	b.dispatch(ctx, text, Request{Message: msg, Activity: act}, false,
		target{roomID: msg.RoomID, email: email, isOneOnOne: isOneOnOne})
}

// onCardAction handles a classified card-submitted event.
func (b *Bot) onCardAction(ctx context.Context, action *webex.AttachmentAction, act *proto.Activity) {
	callback := action.Input(CallbackKeywordKey)
	keyword := action.Input(CommandKeywordKey)
	isCallback := callback != ""
	raw := callback
	if raw == "" {
		raw = keyword
	}
	slog.Debug("Card action received", "raw", raw, "is_callback", isCallback)

	b.dispatch(ctx, raw, Request{Action: action, Activity: act}, isCallback,
		target{roomID: action.RoomID, email: act.Actor.EmailAddress, isOneOnOne: act.Target.IsOneOnOne()})
}

func (b *Bot) dispatch(ctx context.Context, raw string, req Request, isCallback bool, dst target) {
	cmd := b.registry.Resolve(raw, isCallback)
	if cmd == nil {
		slog.Warn("No command matched, defaulting to help", "input", raw)
		cmd = b.help
	} else {
		slog.Info("Resolved command", "keyword", cmd.Keyword, "callback_keyword", cmd.CallbackKeyword)
		if len(cmd.ApprovedRooms) > 0 && !b.gate.Approve(ctx, dst.email, cmd.ApprovedRooms) {
			slog.Info("User not allowed to run command", "email", dst.email, "keyword", cmd.Keyword)
			return
		}
	}

	req.Args = stripKeyword(cmd.Keyword, raw)
	b.execute(ctx, cmd, req, isCallback, dst)
}

// stripKeyword removes the keyword prefix from the message so
// handlers see only their arguments.
func stripKeyword(keyword, message string) string {
	if keyword != "" && strings.HasPrefix(strings.ToLower(message), strings.ToLower(keyword)) {
		return strings.TrimSpace(message[len(keyword):])
	}
	return message
}
