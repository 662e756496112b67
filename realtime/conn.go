package realtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/mbocsi/sparkbot/device"
	"github.com/mbocsi/sparkbot/proto"
)

var (
	// ErrAlreadyRunning is returned by Run when the connection loop
	// is already being driven elsewhere.
	ErrAlreadyRunning = errors.New("realtime connection is already running")

	// ErrRegistrationExhausted is returned after repeated stale
	// device registration signals. The process needs a restart.
	ErrRegistrationExhausted = errors.New("device registration rejected repeatedly, giving up")

	errStaleRegistration = errors.New("device registration is stale")
)

// Config carries the connection manager's tunables. Zero values take
// the defaults applied by NewConn.
type Config struct {
	Token string

	// RegistrationRetries bounds consecutive stale-registration
	// refresh attempts before the connection gives up.
	RegistrationRetries int
	// RegistrationDelay is the fixed wait between a forced device
	// refresh and the next connect attempt.
	RegistrationDelay time.Duration

	BackoffBase    time.Duration
	BackoffCeiling time.Duration

	// AckTimeout bounds how long a worker waits to marshal an ack
	// onto the connection goroutine before abandoning it.
	AckTimeout time.Duration
}

func (c *Config) applyDefaults() {
	if c.RegistrationRetries == 0 {
		c.RegistrationRetries = 3
	}
	if c.RegistrationDelay == 0 {
		c.RegistrationDelay = 2 * time.Second
	}
	if c.BackoffBase == 0 {
		c.BackoffBase = time.Second
	}
	if c.BackoffCeiling == 0 {
		c.BackoffCeiling = 240 * time.Second
	}
	if c.AckTimeout == 0 {
		c.AckTimeout = 10 * time.Second
	}
}

// FrameHandler consumes decoded envelopes off the receive path.
type FrameHandler interface {
	Process(ctx context.Context, env proto.Envelope)
}

// Conn owns the lifecycle of the realtime stream: device resolution,
// dial, authorization, the receive loop and reconnect policy. One
// Conn drives at most one connection loop; Stop is terminal.
type Conn struct {
	cfg     Config
	session *device.Session
	handler FrameHandler

	state   atomic.Int32
	running atomic.Bool

	stopOnce sync.Once
	stopCh   chan struct{}
	ackCh    chan ackRequest
}

type ackRequest struct {
	messageID string
	done      chan error
}

func NewConn(cfg Config, session *device.Session, handler FrameHandler) *Conn {
	cfg.applyDefaults()
	return &Conn{
		cfg:     cfg,
		session: session,
		handler: handler,
		stopCh:  make(chan struct{}),
		ackCh:   make(chan ackRequest),
	}
}

// State returns the current connection phase.
func (c *Conn) State() State {
	return State(c.state.Load())
}

func (c *Conn) setState(s State) {
	old := State(c.state.Swap(int32(s)))
	if old != s {
		slog.Debug("Connection state changed", "from", old, "to", s)
	}
}

// Run drives the connect/listen/backoff loop until Stop is called or
// a fatal error occurs. It fails fast if the loop is already running
// rather than nesting a second one.
func (c *Conn) Run(ctx context.Context) error {
	if !c.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer c.running.Store(false)
	defer c.setState(Stopped)

	staleCount := 0
	backoff := newExpBackoff(c.cfg.BackoffBase, c.cfg.BackoffCeiling)

	for {
		if c.stopRequested(ctx) {
			return nil
		}
		c.setState(Connecting)

		ws, err := c.connect(ctx)
		if err != nil {
			if errors.Is(err, errStaleRegistration) {
				staleCount++
				if staleCount > c.cfg.RegistrationRetries {
					slog.Error("Device registration still stale after retries", "attempts", staleCount)
					return ErrRegistrationExhausted
				}
				slog.Warn("Stale device registration, refreshing", "attempt", staleCount)
				if _, rerr := c.session.Resolve(ctx, true); rerr != nil {
					slog.Warn("Device refresh failed", "error", rerr)
				}
				if !c.wait(ctx, c.cfg.RegistrationDelay) {
					return nil
				}
				continue
			}
			c.setState(BackingOff)
			delay := backoff.Next()
			slog.Warn("Connect failed, backing off", "error", err, "delay", delay)
			if !c.wait(ctx, delay) {
				return nil
			}
			continue
		}

		staleCount = 0
		backoff.Reset()
		c.setState(Authenticated)
		c.setState(Listening)

		err = c.listen(ctx, ws)
		ws.Close()
		if err == nil {
			return nil
		}
		c.setState(BackingOff)
		delay := backoff.Next()
		slog.Warn("Connection lost, backing off", "error", err, "delay", delay)
		if !c.wait(ctx, delay) {
			return nil
		}
	}
}

// RunAsync starts Run on its own goroutine and reports its result on
// the returned channel.
func (c *Conn) RunAsync(ctx context.Context) <-chan error {
	done := make(chan error, 1)
	go func() {
		done <- c.Run(ctx)
	}()
	return done
}

// Stop signals the running loop to exit after the current receive
// attempt. Idempotent and safe from any goroutine; it does not race
// with an in-flight connect.
func (c *Conn) Stop() {
	c.stopOnce.Do(func() {
		close(c.stopCh)
	})
}

func (c *Conn) stopRequested(ctx context.Context) bool {
	select {
	case <-c.stopCh:
		return true
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

// wait sleeps for d unless stopped first. Returns false when the loop
// should exit.
func (c *Conn) wait(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-c.stopCh:
		return false
	case <-ctx.Done():
		return false
	}
}

// connect resolves the device registration, dials its advertised
// endpoint and sends the authorization frame. A 404 on the handshake
// means the registration went stale and is reported as such; every
// other failure is a transport error for the backoff path.
func (c *Conn) connect(ctx context.Context) (*websocket.Conn, error) {
	dev, err := c.session.Resolve(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("resolve device registration: %w", err)
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+c.cfg.Token)

	slog.Info("Opening websocket connection", "url", dev.WebSocketURL)
	ws, resp, err := websocket.DefaultDialer.DialContext(ctx, dev.WebSocketURL, header)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("handshake to %s: %w", dev.WebSocketURL, errStaleRegistration)
		}
		return nil, fmt.Errorf("dial %s: %w", dev.WebSocketURL, err)
	}

	auth := proto.NewAuthFrame(uuid.NewString(), c.cfg.Token)
	if err := ws.WriteJSON(auth); err != nil {
		ws.Close()
		return nil, fmt.Errorf("send authorization frame: %w", err)
	}
	slog.Info("Websocket opened and authorized")
	return ws, nil
}

// listen owns the live stream. Received frames are handed to the
// frame handler on worker goroutines so classification and its
// collaborator calls never block the next receive; ack writes from
// those workers are marshalled back here because only this goroutine
// may write to the stream. Returns nil on stop, the receive error on
// connection loss.
func (c *Conn) listen(ctx context.Context, ws *websocket.Conn) error {
	frames := make(chan []byte)
	readErr := make(chan error, 1)
	done := make(chan struct{})
	defer close(done)

	go func() {
		for {
			_, data, err := ws.ReadMessage()
			if err != nil {
				readErr <- err
				return
			}
			select {
			case frames <- data:
			case <-done:
				return
			}
		}
	}()

	for {
		select {
		case <-c.stopCh:
			return nil
		case <-ctx.Done():
			return nil
		case err := <-readErr:
			return fmt.Errorf("receive: %w", err)
		case req := <-c.ackCh:
			req.done <- ws.WriteJSON(proto.NewAckFrame(req.messageID))
		case data := <-frames:
			env, err := proto.Decode(data)
			if err != nil {
				slog.Warn("Dropping malformed frame", "error", err, "size", len(data))
				continue
			}
			go c.handler.Process(ctx, env)
		}
	}
}

// Ack acknowledges a processed activity. Callable from any goroutine;
// the write is performed by the connection goroutine. A timed-out ack
// is abandoned, not retried: the backend tolerates duplicate
// delivery.
func (c *Conn) Ack(messageID string) {
	req := ackRequest{messageID: messageID, done: make(chan error, 1)}
	t := time.NewTimer(c.cfg.AckTimeout)
	defer t.Stop()

	select {
	case c.ackCh <- req:
	case <-t.C:
		slog.Warn("Ack not accepted before timeout, abandoning", "message_id", messageID)
		return
	case <-c.stopCh:
		return
	}

	select {
	case err := <-req.done:
		if err != nil {
			slog.Warn("Ack send failed", "message_id", messageID, "error", err)
			return
		}
		slog.Debug("Acked message", "message_id", messageID)
	case <-t.C:
		slog.Warn("Ack send timed out, abandoning", "message_id", messageID)
	}
}
