package gate

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"campus-gate-control/internal/events"
	"campus-gate-control/internal/store"
)

// ErrUnavailable is returned when a gate cannot be opened because it is
// not online
var ErrUnavailable = errors.New("gate unavailable")

// Store is the slice of the repository the controller needs
type Store interface {
	GetGate(id string) (*store.Gate, error)
	UpdateGate(id string, update store.GateUpdate) (*store.Gate, error)
}

// Config holds configuration for the gate controller
type Config struct {
	AutoCloseDelay time.Duration // delay before an opened gate closes itself
}

// DefaultConfig returns the default gate controller configuration
func DefaultConfig() Config {
	return Config{AutoCloseDelay: 3 * time.Second}
}

// Controller applies authorization decisions to gate state. Every open
// schedules an auto-close; the pending close is keyed to an open epoch so
// a stale timer can never close a gate that was re-opened afterwards.
type Controller struct {
	mu     sync.Mutex
	store  Store
	bus    *events.Bus
	logger *logrus.Logger
	config Config

	epochs map[string]uint64
	timers map[string]*time.Timer

	// Statistics
	openCount  int64
	closeCount int64
	lastOpen   time.Time
}

// ControllerOption is a functional option for configuring the Controller
type ControllerOption func(*Controller)

// WithLogger sets the logger for the controller
func WithLogger(logger *logrus.Logger) ControllerOption {
	return func(c *Controller) {
		c.logger = logger
	}
}

// NewController creates a gate controller
func NewController(config Config, st Store, bus *events.Bus, opts ...ControllerOption) *Controller {
	c := &Controller{
		store:  st,
		bus:    bus,
		logger: logrus.New(),
		config: config,
		epochs: make(map[string]uint64),
		timers: make(map[string]*time.Timer),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Open opens a gate and schedules its auto-close. Gates that are not
// online are refused with ErrUnavailable.
func (c *Controller) Open(ctx context.Context, gateID string) (*store.Gate, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	gate, err := c.store.GetGate(gateID)
	if err != nil {
		return nil, err
	}

	if gate.Status != store.GateOnline {
		return nil, fmt.Errorf("gate %q is %s: %w", gate.Name, gate.Status, ErrUnavailable)
	}

	isOpen := true
	gate, err = c.store.UpdateGate(gateID, store.GateUpdate{IsOpen: &isOpen})
	if err != nil {
		return nil, err
	}

	// Supersede any pending auto-close and start a new open session
	c.cancelTimerLocked(gateID)
	c.epochs[gateID]++
	epoch := c.epochs[gateID]

	c.timers[gateID] = time.AfterFunc(c.config.AutoCloseDelay, func() {
		c.autoClose(gateID, epoch)
	})

	c.openCount++
	c.lastOpen = time.Now()

	c.logger.WithFields(logrus.Fields{
		"gate_id":       gateID,
		"gate_name":     gate.Name,
		"auto_close_in": c.config.AutoCloseDelay.String(),
		"total_opens":   c.openCount,
	}).Info("Gate opened")

	c.bus.Publish(events.EventGateOpened, gate)

	return gate, nil
}

// Close closes a gate and cancels any pending auto-close
func (c *Controller) Close(ctx context.Context, gateID string) (*store.Gate, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.closeLocked(gateID)
}

func (c *Controller) closeLocked(gateID string) (*store.Gate, error) {
	// Bumping the epoch invalidates any in-flight auto-close for this gate
	c.cancelTimerLocked(gateID)
	c.epochs[gateID]++

	isOpen := false
	gate, err := c.store.UpdateGate(gateID, store.GateUpdate{IsOpen: &isOpen})
	if err != nil {
		return nil, err
	}

	c.closeCount++

	c.logger.WithFields(logrus.Fields{
		"gate_id":   gateID,
		"gate_name": gate.Name,
	}).Info("Gate closed")

	c.bus.Publish(events.EventGateClosed, gate)

	return gate, nil
}

// autoClose fires when an open session's timer expires. A session whose
// epoch has been superseded by a later open or close is a no-op.
func (c *Controller) autoClose(gateID string, epoch uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.epochs[gateID] != epoch {
		c.logger.WithField("gate_id", gateID).Debug("Stale auto-close superseded, ignoring")
		return
	}
	delete(c.timers, gateID)

	if _, err := c.closeLocked(gateID); err != nil {
		c.logger.WithError(err).WithField("gate_id", gateID).Error("Auto-close failed")
	}
}

func (c *Controller) cancelTimerLocked(gateID string) {
	if timer, ok := c.timers[gateID]; ok {
		timer.Stop()
		delete(c.timers, gateID)
	}
}

// Shutdown cancels all pending auto-close timers
func (c *Controller) Shutdown(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for gateID := range c.timers {
		c.cancelTimerLocked(gateID)
		c.epochs[gateID]++
	}

	c.logger.Info("Gate controller shut down")
}

// GetStats returns gate controller statistics
func (c *Controller) GetStats() map[string]interface{} {
	c.mu.Lock()
	defer c.mu.Unlock()

	return map[string]interface{}{
		"openCount":    c.openCount,
		"closeCount":   c.closeCount,
		"lastOpenTime": c.lastOpen,
		"pendingClose": len(c.timers),
	}
}
