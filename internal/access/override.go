package access

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"campus-gate-control/internal/events"
	"campus-gate-control/internal/gate"
	"campus-gate-control/internal/store"
)

// OverrideRequest is a manual open or close issued by a security officer.
type OverrideRequest struct {
	GateID string
	Action string // "open" or "close"
	Reason string
	UserID string
}

// OverrideResult carries the gate state after the override and the ledger
// entry that recorded it.
type OverrideResult struct {
	Gate *store.Gate
	Log  *store.AccessLog
}

// Override manually opens or closes a gate, bypassing credential checks.
// The reason is mandatory and the override is always logged before the
// gate is driven. An open command against a gate that is not online is
// refused with gate.ErrUnavailable before anything is written.
func (e *Engine) Override(ctx context.Context, req OverrideRequest) (*OverrideResult, error) {
	req.Reason = strings.TrimSpace(req.Reason)
	if req.Reason == "" {
		return nil, &ValidationError{Message: "reason is required for manual override"}
	}
	if req.Action != "open" && req.Action != "close" {
		return nil, &ValidationError{Message: "action must be \"open\" or \"close\""}
	}

	target, err := e.store.GetGate(req.GateID)
	if err != nil {
		return nil, err
	}
	if req.Action == "open" && target.Status != store.GateOnline {
		return nil, fmt.Errorf("gate %q is %s: %w", target.Name, target.Status, gate.ErrUnavailable)
	}

	action := store.ActionEntry
	if req.Action == "close" {
		action = store.ActionExit
	}
	log := &store.AccessLog{
		GateID:      target.ID,
		UserID:      req.UserID,
		Action:      action,
		AuthMethod:  store.MethodManualOverride,
		Status:      store.StatusManualOverride,
		Reason:      req.Reason,
		ProcessedBy: req.UserID,
		Timestamp:   e.now(),
	}
	if err := e.store.CreateAccessLog(log); err != nil {
		return nil, fmt.Errorf("failed to record override: %w", err)
	}

	var updated *store.Gate
	if req.Action == "open" {
		updated, err = e.gates.Open(ctx, target.ID)
	} else {
		updated, err = e.gates.Close(ctx, target.ID)
	}
	if err != nil {
		return nil, err
	}

	e.publish(events.EventGateOverride, map[string]interface{}{
		"gateId": target.ID,
		"action": req.Action,
		"reason": req.Reason,
		"userId": req.UserID,
		"log":    log,
	})
	e.logger.WithFields(logrus.Fields{
		"gate_id": target.ID,
		"action":  req.Action,
		"user_id": req.UserID,
	}).Info("Manual gate override executed")

	return &OverrideResult{Gate: updated, Log: log}, nil
}
