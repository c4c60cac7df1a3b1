package api

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"campus-gate-control/internal/store"
)

// LoginRequest represents a login attempt
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (r *LoginRequest) Validate() error {
	if strings.TrimSpace(r.Username) == "" {
		return fmt.Errorf("username is required")
	}
	if r.Password == "" {
		return fmt.Errorf("password is required")
	}
	return nil
}

// LoginResponse carries the session token and the authenticated user
type LoginResponse struct {
	Token string      `json:"token"`
	User  *store.User `json:"user"`
}

// ScanRequest represents a scanned credential presented at a gate
type ScanRequest struct {
	Code string `json:"code"`
}

// ScanResponse represents the outcome of an access decision
type ScanResponse struct {
	Success       bool             `json:"success"`
	Authorized    bool             `json:"authorized"`
	Message       string           `json:"message"`
	Type          string           `json:"type"`
	LicensePlate  string           `json:"licensePlate,omitempty"`
	Vehicle       *store.Vehicle   `json:"vehicle,omitempty"`
	Visitor       *store.Visitor   `json:"visitor,omitempty"`
	Gate          *store.Gate      `json:"gate,omitempty"`
	GateAvailable bool             `json:"gateAvailable"`
	Log           *store.AccessLog `json:"log,omitempty"`
}

// OverrideRequest represents a manual gate override
type OverrideRequest struct {
	GateID string `json:"gateId,omitempty"`
	Action string `json:"action"`
	Reason string `json:"reason"`
}

// OverrideResponse represents the result of a manual override
type OverrideResponse struct {
	Success bool             `json:"success"`
	Message string           `json:"message"`
	Gate    *store.Gate      `json:"gate"`
	Log     *store.AccessLog `json:"log"`
}

// CreateUserRequest represents a new user registration
type CreateUserRequest struct {
	Username    string         `json:"username"`
	Password    string         `json:"password"`
	Role        store.UserRole `json:"role"`
	FullName    string         `json:"fullName"`
	Email       string         `json:"email"`
	PhoneNumber string         `json:"phoneNumber,omitempty"`
}

func (r *CreateUserRequest) Validate() error {
	if strings.TrimSpace(r.Username) == "" {
		return fmt.Errorf("username is required")
	}
	if r.Password == "" {
		return fmt.Errorf("password is required")
	}
	if strings.TrimSpace(r.FullName) == "" {
		return fmt.Errorf("fullName is required")
	}
	switch r.Role {
	case store.RoleAdmin, store.RoleSecurityOfficer, store.RoleStudentStaff, store.RoleVisitor:
		return nil
	default:
		return fmt.Errorf("invalid role %q", r.Role)
	}
}

// UpdateUserRequest represents a partial user update
type UpdateUserRequest struct {
	Username    *string         `json:"username,omitempty"`
	Password    *string         `json:"password,omitempty"`
	Role        *store.UserRole `json:"role,omitempty"`
	FullName    *string         `json:"fullName,omitempty"`
	Email       *string         `json:"email,omitempty"`
	PhoneNumber *string         `json:"phoneNumber,omitempty"`
}

// CreateVehicleRequest represents a new vehicle registration. RFID tags
// and QR codes are generated server side and cannot be supplied.
type CreateVehicleRequest struct {
	UserID       string `json:"userId"`
	LicensePlate string `json:"licensePlate"`
	Make         string `json:"make"`
	Model        string `json:"model"`
	Color        string `json:"color"`
}

func (r *CreateVehicleRequest) Validate() error {
	if strings.TrimSpace(r.UserID) == "" {
		return fmt.Errorf("userId is required")
	}
	if strings.TrimSpace(r.LicensePlate) == "" {
		return fmt.Errorf("licensePlate is required")
	}
	return nil
}

// UpdateVehicleRequest represents a partial vehicle update
type UpdateVehicleRequest struct {
	LicensePlate *string `json:"licensePlate,omitempty"`
	Make         *string `json:"make,omitempty"`
	Model        *string `json:"model,omitempty"`
	Color        *string `json:"color,omitempty"`
	IsActive     *bool   `json:"isActive,omitempty"`
}

// CreateGateRequest represents a new gate registration
type CreateGateRequest struct {
	Name            string           `json:"name"`
	Location        string           `json:"location"`
	Status          store.GateStatus `json:"status,omitempty"`
	AssignedOfficer string           `json:"assignedOfficer,omitempty"`
}

func (r *CreateGateRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if strings.TrimSpace(r.Location) == "" {
		return fmt.Errorf("location is required")
	}
	switch r.Status {
	case "", store.GateOnline, store.GateOffline, store.GateMaintenance:
		return nil
	default:
		return fmt.Errorf("invalid status %q", r.Status)
	}
}

// UpdateGateRequest represents a partial gate update
type UpdateGateRequest struct {
	Name            *string           `json:"name,omitempty"`
	Location        *string           `json:"location,omitempty"`
	Status          *store.GateStatus `json:"status,omitempty"`
	IsOpen          *bool             `json:"isOpen,omitempty"`
	AssignedOfficer *string           `json:"assignedOfficer,omitempty"`
}

// CreateVisitorRequest represents a new visitor pass registration
type CreateVisitorRequest struct {
	FullName     string    `json:"fullName"`
	Email        string    `json:"email"`
	PhoneNumber  string    `json:"phoneNumber"`
	Purpose      string    `json:"purpose"`
	HostName     string    `json:"hostName"`
	HostContact  string    `json:"hostContact"`
	VehiclePlate string    `json:"vehiclePlate,omitempty"`
	ValidFrom    time.Time `json:"validFrom"`
	ValidUntil   time.Time `json:"validUntil"`
}

func (r *CreateVisitorRequest) Validate() error {
	if strings.TrimSpace(r.FullName) == "" {
		return fmt.Errorf("fullName is required")
	}
	if strings.TrimSpace(r.Purpose) == "" {
		return fmt.Errorf("purpose is required")
	}
	if r.ValidFrom.IsZero() || r.ValidUntil.IsZero() {
		return fmt.Errorf("validFrom and validUntil are required")
	}
	if r.ValidUntil.Before(r.ValidFrom) {
		return fmt.Errorf("validUntil must not be before validFrom")
	}
	return nil
}

// UpdateVisitorRequest represents a partial visitor pass update
type UpdateVisitorRequest struct {
	FullName     *string    `json:"fullName,omitempty"`
	Email        *string    `json:"email,omitempty"`
	PhoneNumber  *string    `json:"phoneNumber,omitempty"`
	Purpose      *string    `json:"purpose,omitempty"`
	HostName     *string    `json:"hostName,omitempty"`
	HostContact  *string    `json:"hostContact,omitempty"`
	VehiclePlate *string    `json:"vehiclePlate,omitempty"`
	ValidFrom    *time.Time `json:"validFrom,omitempty"`
	ValidUntil   *time.Time `json:"validUntil,omitempty"`
	IsActive     *bool      `json:"isActive,omitempty"`
}

// HealthCheckResponse represents the service health summary
type HealthCheckResponse struct {
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
	Version     string    `json:"version"`
	Uptime      string    `json:"uptime"`
	OnlineGates int       `json:"onlineGates"`
}

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Error     string    `json:"error"`
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"requestId,omitempty"`
	Path      string    `json:"path,omitempty"`
	Method    string    `json:"method,omitempty"`
	Status    int       `json:"status"`
}

// ErrorCode represents standardized error codes
type ErrorCode string

const (
	ErrorCodeUnauthorized       ErrorCode = "UNAUTHORIZED"
	ErrorCodeForbidden          ErrorCode = "FORBIDDEN"
	ErrorCodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	ErrorCodeInvalidToken       ErrorCode = "INVALID_TOKEN"

	ErrorCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrorCodeInvalidJSON      ErrorCode = "INVALID_JSON"

	ErrorCodeNotFound ErrorCode = "NOT_FOUND"
	ErrorCodeConflict ErrorCode = "CONFLICT"

	ErrorCodeAccessDenied    ErrorCode = "ACCESS_DENIED"
	ErrorCodeInvalidCode     ErrorCode = "INVALID_CODE"
	ErrorCodeGateUnavailable ErrorCode = "GATE_UNAVAILABLE"

	ErrorCodeRateLimitExceeded ErrorCode = "RATE_LIMIT_EXCEEDED"
	ErrorCodeInternalError     ErrorCode = "INTERNAL_ERROR"
)

// statusForCode maps error codes to HTTP status codes
func statusForCode(code ErrorCode) int {
	switch code {
	case ErrorCodeUnauthorized, ErrorCodeInvalidCredentials, ErrorCodeInvalidToken:
		return http.StatusUnauthorized
	case ErrorCodeForbidden, ErrorCodeAccessDenied:
		return http.StatusForbidden
	case ErrorCodeValidationFailed, ErrorCodeInvalidJSON:
		return http.StatusBadRequest
	case ErrorCodeNotFound, ErrorCodeInvalidCode:
		return http.StatusNotFound
	case ErrorCodeConflict, ErrorCodeGateUnavailable:
		return http.StatusConflict
	case ErrorCodeRateLimitExceeded:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// NewErrorResponse creates a standardized error response for a request
func NewErrorResponse(code ErrorCode, message string, r *http.Request, requestID string) *ErrorResponse {
	return &ErrorResponse{
		Error:     "true",
		Code:      code,
		Message:   message,
		Timestamp: time.Now().UTC(),
		RequestID: requestID,
		Path:      r.URL.Path,
		Method:    r.Method,
		Status:    statusForCode(code),
	}
}
