package device

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mbocsi/sparkbot/webex"
)

// Session resolves and caches this client's device registration with
// the backend. The cached record is replaced wholesale under the
// lock, so readers always observe a fully-formed record or none.
type Session struct {
	api  deviceAPI
	desc webex.DeviceDescriptor

	mu      sync.RWMutex
	current *webex.Device
}

type deviceAPI interface {
	DeviceList(ctx context.Context) ([]webex.Device, error)
	DeviceCreate(ctx context.Context, desc webex.DeviceDescriptor) (*webex.Device, error)
}

func NewSession(api deviceAPI, desc webex.DeviceDescriptor) *Session {
	return &Session{api: api, desc: desc}
}

// Resolve returns the current device registration. With force=false a
// cached record is returned if present, then an existing backend
// registration matching the descriptor name, then a new registration.
// With force=true a new registration is always created (used after
// the backend signals the current one is stale).
func (s *Session) Resolve(ctx context.Context, force bool) (*webex.Device, error) {
	if !force {
		if dev := s.Current(); dev != nil {
			return dev, nil
		}
		if dev := s.lookup(ctx); dev != nil {
			s.store(dev)
			return dev, nil
		}
		slog.Info("Device registration not found, creating", "name", s.desc.Name)
	} else {
		slog.Info("Forcing new device registration", "name", s.desc.Name)
	}

	dev, err := s.api.DeviceCreate(ctx, s.desc)
	if err != nil {
		return nil, fmt.Errorf("device registration failed: %w", err)
	}
	if dev.WebSocketURL == "" {
		return nil, fmt.Errorf("device registration failed: record has no websocket url")
	}
	slog.Debug("Created device registration", "name", dev.Name, "url", dev.URL)
	s.store(dev)
	return dev, nil
}

func (s *Session) lookup(ctx context.Context) *webex.Device {
	devices, err := s.api.DeviceList(ctx)
	if err != nil {
		slog.Warn("Device list failed", "error", err)
		return nil
	}
	for i := range devices {
		if devices[i].Name == s.desc.Name && devices[i].WebSocketURL != "" {
			slog.Debug("Found existing device registration", "name", devices[i].Name)
			return &devices[i]
		}
	}
	return nil
}

// Current returns the cached record without touching the network.
func (s *Session) Current() *webex.Device {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Invalidate drops the cached record so the next Resolve goes back to
// the backend.
func (s *Session) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = nil
}

func (s *Session) store(dev *webex.Device) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = dev
}
