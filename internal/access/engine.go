package access

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"campus-gate-control/internal/events"
	"campus-gate-control/internal/store"
)

// Store covers the persistence the authorization engine needs beyond
// credential resolution.
type Store interface {
	ResolverStore
	GetGate(id string) (*store.Gate, error)
	FindOnlineGate() (*store.Gate, error)
	CreateAccessLog(log *store.AccessLog) error
}

// GateController drives physical gate state on behalf of the engine.
type GateController interface {
	Open(ctx context.Context, gateID string) (*store.Gate, error)
	Close(ctx context.Context, gateID string) (*store.Gate, error)
}

// ScanResult describes a successful authorization decision. Gate is nil
// when no online gate could serve the grant; the grant itself still
// stands and is recorded in the ledger.
type ScanResult struct {
	Kind          CredentialKind
	Vehicle       *store.Vehicle
	Visitor       *store.Visitor
	Gate          *store.Gate
	GateAvailable bool
	Log           *store.AccessLog
	Message       string
}

// Engine makes access decisions for scanned credentials. Every decision
// that resolves to a known credential is appended to the access ledger
// before any gate hardware is driven, so a storage failure leaves the
// gates untouched.
type Engine struct {
	store    Store
	resolver *Resolver
	gates    GateController
	bus      *events.Bus
	logger   *logrus.Logger
	now      func() time.Time
}

type EngineOption func(*Engine)

func WithEngineLogger(logger *logrus.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithClock overrides the engine's time source.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		e.now = now
	}
}

func NewEngine(s Store, gates GateController, bus *events.Bus, opts ...EngineOption) *Engine {
	e := &Engine{
		store:    s,
		resolver: NewResolver(s),
		gates:    gates,
		bus:      bus,
		logger:   logrus.New(),
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Scan resolves a raw scanned code and makes the access decision for it.
// Unrecognized codes return ErrInvalidCode with no side effects. Denials
// return DeniedError after the denial has been logged. Grants log an
// entry, then open the first online gate when one is available.
func (e *Engine) Scan(ctx context.Context, code string) (*ScanResult, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, &ValidationError{Message: "code is required"}
	}

	resolution, err := e.resolver.Resolve(code)
	if err != nil {
		return nil, err
	}

	switch resolution.Kind {
	case KindVehicle:
		return e.scanVehicle(ctx, code, resolution.Vehicle)
	case KindVisitor:
		return e.scanVisitor(ctx, resolution.Visitor)
	default:
		e.logger.WithField("code", code).Warn("Scan did not match any credential")
		return nil, ErrInvalidCode
	}
}

func (e *Engine) scanVehicle(ctx context.Context, code string, vehicle *store.Vehicle) (*ScanResult, error) {
	method := store.MethodRFID
	if strings.HasPrefix(code, "QR-") {
		method = store.MethodQRCode
	}

	if !vehicle.IsActive {
		log := &store.AccessLog{
			VehicleID:  vehicle.ID,
			UserID:     vehicle.UserID,
			Action:     store.ActionEntry,
			AuthMethod: method,
			Status:     store.StatusDenied,
			Reason:     "vehicle inactive",
			Timestamp:  e.now(),
		}
		if err := e.store.CreateAccessLog(log); err != nil {
			return nil, fmt.Errorf("failed to record denial: %w", err)
		}
		e.publish(events.EventAccessDenied, map[string]interface{}{
			"vehicleId":    vehicle.ID,
			"licensePlate": vehicle.LicensePlate,
			"reason":       "vehicle inactive",
			"log":          log,
		})
		e.logger.WithFields(logrus.Fields{
			"vehicle_id":    vehicle.ID,
			"license_plate": vehicle.LicensePlate,
		}).Warn("Access denied for inactive vehicle")
		return nil, &DeniedError{Reason: "vehicle inactive"}
	}

	result, err := e.grant(ctx, &store.AccessLog{
		VehicleID:  vehicle.ID,
		UserID:     vehicle.UserID,
		Action:     store.ActionEntry,
		AuthMethod: method,
		Status:     store.StatusAuthorized,
		Timestamp:  e.now(),
	})
	if err != nil {
		return nil, err
	}
	result.Kind = KindVehicle
	result.Vehicle = vehicle

	e.publish(events.EventAccessGranted, map[string]interface{}{
		"vehicleId":    vehicle.ID,
		"licensePlate": vehicle.LicensePlate,
		"gateId":       gateID(result.Gate),
		"log":          result.Log,
	})
	return result, nil
}

func (e *Engine) scanVisitor(ctx context.Context, visitor *store.Visitor) (*ScanResult, error) {
	now := e.now()
	valid := visitor.IsActive && !now.Before(visitor.ValidFrom) && !now.After(visitor.ValidUntil)
	if !valid {
		log := &store.AccessLog{
			VisitorID:  visitor.ID,
			Action:     store.ActionEntry,
			AuthMethod: store.MethodQRCode,
			Status:     store.StatusDenied,
			Reason:     "visitor pass expired or inactive",
			Timestamp:  now,
		}
		if err := e.store.CreateAccessLog(log); err != nil {
			return nil, fmt.Errorf("failed to record denial: %w", err)
		}
		e.publish(events.EventAccessDenied, map[string]interface{}{
			"visitorId": visitor.ID,
			"reason":    "visitor pass expired or inactive",
			"log":       log,
		})
		e.logger.WithFields(logrus.Fields{
			"visitor_id":  visitor.ID,
			"valid_from":  visitor.ValidFrom,
			"valid_until": visitor.ValidUntil,
		}).Warn("Access denied for visitor pass")
		return nil, &DeniedError{Reason: "visitor pass expired or inactive"}
	}

	result, err := e.grant(ctx, &store.AccessLog{
		VisitorID:  visitor.ID,
		Action:     store.ActionEntry,
		AuthMethod: store.MethodQRCode,
		Status:     store.StatusAuthorized,
		Timestamp:  now,
	})
	if err != nil {
		return nil, err
	}
	result.Kind = KindVisitor
	result.Visitor = visitor

	e.publish(events.EventAccessGranted, map[string]interface{}{
		"visitorId": visitor.ID,
		"gateId":    gateID(result.Gate),
		"log":       result.Log,
	})
	return result, nil
}

// grant appends the authorized ledger entry and then drives the gate. The
// ledger write always happens first; a gate that goes offline between
// selection and the open command downgrades the result to no-gate rather
// than failing the grant.
func (e *Engine) grant(ctx context.Context, log *store.AccessLog) (*ScanResult, error) {
	target, err := e.store.FindOnlineGate()
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("failed to select gate: %w", err)
	}

	if target != nil {
		log.GateID = target.ID
	}
	if err := e.store.CreateAccessLog(log); err != nil {
		return nil, fmt.Errorf("failed to record access: %w", err)
	}

	result := &ScanResult{Log: log, Message: "Access granted"}
	if target == nil {
		result.Message = "Access granted, no gate available"
		e.logger.Warn("Access granted but no gate is online")
		return result, nil
	}

	opened, err := e.gates.Open(ctx, target.ID)
	if err != nil {
		e.logger.WithFields(logrus.Fields{
			"gate_id": target.ID,
			"error":   err.Error(),
		}).Warn("Gate refused open command after grant")
		result.Message = "Access granted, no gate available"
		return result, nil
	}

	result.Gate = opened
	result.GateAvailable = true
	return result, nil
}

func (e *Engine) publish(eventType events.EventType, data map[string]interface{}) {
	if e.bus != nil {
		e.bus.Publish(eventType, data)
	}
}

func gateID(g *store.Gate) string {
	if g == nil {
		return ""
	}
	return g.ID
}
