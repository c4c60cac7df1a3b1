package access

import (
	"errors"
	"fmt"

	"campus-gate-control/internal/store"
)

// CredentialKind identifies what a scanned code resolved to.
type CredentialKind string

const (
	KindVehicle    CredentialKind = "vehicle"
	KindVisitor    CredentialKind = "visitor"
	KindUnresolved CredentialKind = "unresolved"
)

// Resolution is the outcome of resolving a raw scanned code. Exactly one
// of Vehicle or Visitor is set when Kind is not KindUnresolved.
type Resolution struct {
	Kind    CredentialKind
	Vehicle *store.Vehicle
	Visitor *store.Visitor
}

// ResolverStore covers the credential lookups the resolver needs.
type ResolverStore interface {
	GetVehicleByQRCode(qrCode string) (*store.Vehicle, error)
	GetVehicleByRFID(rfidTag string) (*store.Vehicle, error)
	GetVisitorByQRCode(qrCode string) (*store.Visitor, error)
}

// Resolver maps raw scanned codes to registered credentials. Lookup order
// is fixed: vehicle QR code, then vehicle RFID tag, then visitor QR code.
// The first index that matches wins.
type Resolver struct {
	store ResolverStore
}

func NewResolver(s ResolverStore) *Resolver {
	return &Resolver{store: s}
}

// Resolve looks the code up against each credential index in order. A code
// matching no index returns KindUnresolved with a nil error; errors are
// reserved for storage failures.
func (r *Resolver) Resolve(code string) (*Resolution, error) {
	vehicle, err := r.store.GetVehicleByQRCode(code)
	if err == nil {
		return &Resolution{Kind: KindVehicle, Vehicle: vehicle}, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("failed to resolve vehicle QR code: %w", err)
	}

	vehicle, err = r.store.GetVehicleByRFID(code)
	if err == nil {
		return &Resolution{Kind: KindVehicle, Vehicle: vehicle}, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("failed to resolve vehicle RFID tag: %w", err)
	}

	visitor, err := r.store.GetVisitorByQRCode(code)
	if err == nil {
		return &Resolution{Kind: KindVisitor, Visitor: visitor}, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("failed to resolve visitor QR code: %w", err)
	}

	return &Resolution{Kind: KindUnresolved}, nil
}
