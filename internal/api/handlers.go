package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"campus-gate-control/internal/access"
	"campus-gate-control/internal/auth"
	"campus-gate-control/internal/config"
	"campus-gate-control/internal/events"
	"campus-gate-control/internal/gate"
	"campus-gate-control/internal/store"
)

// Handlers contains all HTTP handlers for the API
type Handlers struct {
	config    *config.Config
	logger    *logrus.Logger
	db        *store.DB
	engine    *access.Engine
	tokens    *auth.Manager
	wsManager *WebSocketManager
	version   string
	startTime time.Time
}

// NewHandlers creates the handler set with its dependencies
func NewHandlers(cfg *config.Config, logger *logrus.Logger, db *store.DB, engine *access.Engine, tokens *auth.Manager, bus *events.Bus, version string) *Handlers {
	h := &Handlers{
		config:    cfg,
		logger:    logger,
		db:        db,
		engine:    engine,
		tokens:    tokens,
		version:   version,
		startTime: time.Now(),
	}
	if bus != nil {
		h.wsManager = NewWebSocketManager(bus, logger)
	}
	return h
}

// HealthCheck handles GET /api/v1/health
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	onlineGates := 0
	gates, err := h.db.ListGates()
	if err != nil {
		h.logger.WithError(err).Error("Failed to count gates for health check")
	} else {
		for _, g := range gates {
			if g.Status == store.GateOnline {
				onlineGates++
			}
		}
	}

	status := "healthy"
	statusCode := http.StatusOK
	if err != nil {
		status = "degraded"
	}

	h.writeJSONResponse(w, HealthCheckResponse{
		Status:      status,
		Timestamp:   time.Now().UTC(),
		Version:     h.version,
		Uptime:      time.Since(h.startTime).Round(time.Second).String(),
		OnlineGates: onlineGates,
	}, statusCode)
}

// Login handles POST /api/v1/auth/login. Credentials are not verified
// against a directory; the role is taken from the stored account, or
// inferred from the username for accounts that do not exist yet.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeErrorResponse(w, r, ErrorCodeInvalidJSON, "Invalid JSON in request body")
		return
	}
	if err := req.Validate(); err != nil {
		h.writeErrorResponse(w, r, ErrorCodeValidationFailed, err.Error())
		return
	}

	user, err := h.db.GetUserByUsername(req.Username)
	if errors.Is(err, store.ErrNotFound) {
		user = &store.User{
			Username: req.Username,
			Password: req.Password,
			Role:     inferRole(req.Username),
			FullName: req.Username,
		}
		if err := h.db.CreateUser(user); err != nil {
			h.handleStoreError(w, r, err)
			return
		}
	} else if err != nil {
		h.handleStoreError(w, r, err)
		return
	}

	token, err := h.tokens.Issue(user)
	if err != nil {
		h.logger.WithError(err).Error("Failed to issue session token")
		h.writeErrorResponse(w, r, ErrorCodeInternalError, "Failed to issue token")
		return
	}

	h.logger.WithFields(logrus.Fields{
		"username": user.Username,
		"role":     user.Role,
	}).Info("User logged in")

	h.writeJSONResponse(w, LoginResponse{Token: token, User: sanitizeUser(user)}, http.StatusOK)
}

// inferRole derives a role from a username for first-time logins
func inferRole(username string) store.UserRole {
	name := strings.ToLower(username)
	switch {
	case strings.Contains(name, "admin"):
		return store.RoleAdmin
	case strings.Contains(name, "security"), strings.Contains(name, "officer"):
		return store.RoleSecurityOfficer
	case strings.Contains(name, "student"), strings.Contains(name, "staff"):
		return store.RoleStudentStaff
	default:
		return store.RoleVisitor
	}
}

// CurrentUser handles GET /api/v1/auth/me
func (h *Handlers) CurrentUser(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	if claims == nil {
		h.writeErrorResponse(w, r, ErrorCodeUnauthorized, "Authentication required")
		return
	}

	user, err := h.db.GetUser(claims.Subject)
	if err != nil {
		h.handleStoreError(w, r, err)
		return
	}
	h.writeJSONResponse(w, sanitizeUser(user), http.StatusOK)
}

// Scan handles POST /api/v1/access/scan. This is the endpoint gate
// scanners call with a raw QR or RFID code.
func (h *Handlers) Scan(w http.ResponseWriter, r *http.Request) {
	var req ScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeErrorResponse(w, r, ErrorCodeInvalidJSON, "Invalid JSON in request body")
		return
	}

	result, err := h.engine.Scan(r.Context(), req.Code)
	if err != nil {
		var validationErr *access.ValidationError
		var deniedErr *access.DeniedError
		switch {
		case errors.As(err, &validationErr):
			h.writeErrorResponse(w, r, ErrorCodeValidationFailed, validationErr.Message)
		case errors.Is(err, access.ErrInvalidCode):
			h.writeErrorResponse(w, r, ErrorCodeInvalidCode, "Invalid or unrecognized code")
		case errors.As(err, &deniedErr):
			h.writeErrorResponse(w, r, ErrorCodeAccessDenied, "Access denied: "+deniedErr.Reason)
		default:
			h.logger.WithError(err).Error("Scan failed")
			h.writeErrorResponse(w, r, ErrorCodeInternalError, "Failed to process scan")
		}
		return
	}

	response := ScanResponse{
		Success:       true,
		Authorized:    true,
		Message:       result.Message,
		Type:          string(result.Kind),
		Vehicle:       result.Vehicle,
		Visitor:       result.Visitor,
		Gate:          result.Gate,
		GateAvailable: result.GateAvailable,
		Log:           result.Log,
	}
	if result.Vehicle != nil {
		response.LicensePlate = result.Vehicle.LicensePlate
	}
	h.writeJSONResponse(w, response, http.StatusOK)
}

// ListGates handles GET /api/v1/gates
func (h *Handlers) ListGates(w http.ResponseWriter, r *http.Request) {
	gates, err := h.db.ListGatesWithOfficers()
	if err != nil {
		h.handleStoreError(w, r, err)
		return
	}
	for _, g := range gates {
		if g.Officer != nil {
			g.Officer = sanitizeUser(g.Officer)
		}
	}
	h.writeJSONResponse(w, gates, http.StatusOK)
}

// CreateGate handles POST /api/v1/gates
func (h *Handlers) CreateGate(w http.ResponseWriter, r *http.Request) {
	if !h.requireRole(w, r, store.RoleAdmin) {
		return
	}

	var req CreateGateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeErrorResponse(w, r, ErrorCodeInvalidJSON, "Invalid JSON in request body")
		return
	}
	if err := req.Validate(); err != nil {
		h.writeErrorResponse(w, r, ErrorCodeValidationFailed, err.Error())
		return
	}

	status := req.Status
	if status == "" {
		status = store.GateOnline
	}
	g := &store.Gate{
		Name:            req.Name,
		Location:        req.Location,
		Status:          status,
		AssignedOfficer: req.AssignedOfficer,
	}
	if err := h.db.CreateGate(g); err != nil {
		h.handleStoreError(w, r, err)
		return
	}
	h.writeJSONResponse(w, g, http.StatusCreated)
}

// GetGate handles GET /api/v1/gates/{id}
func (h *Handlers) GetGate(w http.ResponseWriter, r *http.Request) {
	g, err := h.db.GetGate(mux.Vars(r)["id"])
	if err != nil {
		h.handleStoreError(w, r, err)
		return
	}
	h.writeJSONResponse(w, g, http.StatusOK)
}

// UpdateGate handles PUT /api/v1/gates/{id}
func (h *Handlers) UpdateGate(w http.ResponseWriter, r *http.Request) {
	if !h.requireRole(w, r, store.RoleAdmin, store.RoleSecurityOfficer) {
		return
	}

	var req UpdateGateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeErrorResponse(w, r, ErrorCodeInvalidJSON, "Invalid JSON in request body")
		return
	}

	g, err := h.db.UpdateGate(mux.Vars(r)["id"], store.GateUpdate{
		Name:            req.Name,
		Location:        req.Location,
		Status:          req.Status,
		IsOpen:          req.IsOpen,
		AssignedOfficer: req.AssignedOfficer,
	})
	if err != nil {
		h.handleStoreError(w, r, err)
		return
	}
	h.writeJSONResponse(w, g, http.StatusOK)
}

// OverrideGate handles POST /api/v1/gates/{id}/override and
// POST /api/v1/gates/override (gate ID in the request body)
func (h *Handlers) OverrideGate(w http.ResponseWriter, r *http.Request) {
	if !h.requireRole(w, r, store.RoleAdmin, store.RoleSecurityOfficer) {
		return
	}

	var req OverrideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeErrorResponse(w, r, ErrorCodeInvalidJSON, "Invalid JSON in request body")
		return
	}

	userID := ""
	if claims := claimsFromContext(r.Context()); claims != nil {
		userID = claims.Subject
	}

	gateID := mux.Vars(r)["id"]
	if gateID == "" {
		gateID = req.GateID
	}

	result, err := h.engine.Override(r.Context(), access.OverrideRequest{
		GateID: gateID,
		Action: req.Action,
		Reason: req.Reason,
		UserID: userID,
	})
	if err != nil {
		var validationErr *access.ValidationError
		switch {
		case errors.As(err, &validationErr):
			h.writeErrorResponse(w, r, ErrorCodeValidationFailed, validationErr.Message)
		case errors.Is(err, store.ErrNotFound):
			h.writeErrorResponse(w, r, ErrorCodeNotFound, "Gate not found")
		case errors.Is(err, gate.ErrUnavailable):
			h.writeErrorResponse(w, r, ErrorCodeGateUnavailable, "Gate is not online")
		default:
			h.logger.WithError(err).Error("Gate override failed")
			h.writeErrorResponse(w, r, ErrorCodeInternalError, "Failed to override gate")
		}
		return
	}

	h.writeJSONResponse(w, OverrideResponse{
		Success: true,
		Message: "Gate " + req.Action + " executed",
		Gate:    result.Gate,
		Log:     result.Log,
	}, http.StatusOK)
}

// ListVehicles handles GET /api/v1/vehicles with an optional userId filter
func (h *Handlers) ListVehicles(w http.ResponseWriter, r *http.Request) {
	var (
		vehicles []*store.Vehicle
		err      error
	)
	if userID := r.URL.Query().Get("userId"); userID != "" {
		vehicles, err = h.db.ListVehiclesByUser(userID)
	} else {
		vehicles, err = h.db.ListVehicles()
	}
	if err != nil {
		h.handleStoreError(w, r, err)
		return
	}
	h.writeJSONResponse(w, vehicles, http.StatusOK)
}

// CreateVehicle handles POST /api/v1/vehicles
func (h *Handlers) CreateVehicle(w http.ResponseWriter, r *http.Request) {
	var req CreateVehicleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeErrorResponse(w, r, ErrorCodeInvalidJSON, "Invalid JSON in request body")
		return
	}
	if err := req.Validate(); err != nil {
		h.writeErrorResponse(w, r, ErrorCodeValidationFailed, err.Error())
		return
	}

	if _, err := h.db.GetUser(req.UserID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.writeErrorResponse(w, r, ErrorCodeNotFound, "Owner not found")
			return
		}
		h.handleStoreError(w, r, err)
		return
	}

	v := &store.Vehicle{
		UserID:       req.UserID,
		LicensePlate: req.LicensePlate,
		Make:         req.Make,
		Model:        req.Model,
		Color:        req.Color,
	}
	if err := h.db.CreateVehicle(v); err != nil {
		h.handleStoreError(w, r, err)
		return
	}
	h.writeJSONResponse(w, v, http.StatusCreated)
}

// GetVehicle handles GET /api/v1/vehicles/{id}
func (h *Handlers) GetVehicle(w http.ResponseWriter, r *http.Request) {
	v, err := h.db.GetVehicle(mux.Vars(r)["id"])
	if err != nil {
		h.handleStoreError(w, r, err)
		return
	}
	h.writeJSONResponse(w, v, http.StatusOK)
}

// UpdateVehicle handles PUT /api/v1/vehicles/{id}
func (h *Handlers) UpdateVehicle(w http.ResponseWriter, r *http.Request) {
	var req UpdateVehicleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeErrorResponse(w, r, ErrorCodeInvalidJSON, "Invalid JSON in request body")
		return
	}

	v, err := h.db.UpdateVehicle(mux.Vars(r)["id"], store.VehicleUpdate{
		LicensePlate: req.LicensePlate,
		Make:         req.Make,
		Model:        req.Model,
		Color:        req.Color,
		IsActive:     req.IsActive,
	})
	if err != nil {
		h.handleStoreError(w, r, err)
		return
	}
	h.writeJSONResponse(w, v, http.StatusOK)
}

// DeleteVehicle handles DELETE /api/v1/vehicles/{id}
func (h *Handlers) DeleteVehicle(w http.ResponseWriter, r *http.Request) {
	if err := h.db.DeleteVehicle(mux.Vars(r)["id"]); err != nil {
		h.handleStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListUsers handles GET /api/v1/users
func (h *Handlers) ListUsers(w http.ResponseWriter, r *http.Request) {
	if !h.requireRole(w, r, store.RoleAdmin, store.RoleSecurityOfficer) {
		return
	}

	users, err := h.db.ListUsers()
	if err != nil {
		h.handleStoreError(w, r, err)
		return
	}
	for i, u := range users {
		users[i] = sanitizeUser(u)
	}
	h.writeJSONResponse(w, users, http.StatusOK)
}

// CreateUser handles POST /api/v1/users
func (h *Handlers) CreateUser(w http.ResponseWriter, r *http.Request) {
	if !h.requireRole(w, r, store.RoleAdmin) {
		return
	}

	var req CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeErrorResponse(w, r, ErrorCodeInvalidJSON, "Invalid JSON in request body")
		return
	}
	if err := req.Validate(); err != nil {
		h.writeErrorResponse(w, r, ErrorCodeValidationFailed, err.Error())
		return
	}

	u := &store.User{
		Username:    req.Username,
		Password:    req.Password,
		Role:        req.Role,
		FullName:    req.FullName,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
	}
	if err := h.db.CreateUser(u); err != nil {
		h.handleStoreError(w, r, err)
		return
	}
	h.writeJSONResponse(w, sanitizeUser(u), http.StatusCreated)
}

// GetUser handles GET /api/v1/users/{id}
func (h *Handlers) GetUser(w http.ResponseWriter, r *http.Request) {
	u, err := h.db.GetUser(mux.Vars(r)["id"])
	if err != nil {
		h.handleStoreError(w, r, err)
		return
	}
	h.writeJSONResponse(w, sanitizeUser(u), http.StatusOK)
}

// UpdateUser handles PUT /api/v1/users/{id}
func (h *Handlers) UpdateUser(w http.ResponseWriter, r *http.Request) {
	if !h.requireRole(w, r, store.RoleAdmin) {
		return
	}

	var req UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeErrorResponse(w, r, ErrorCodeInvalidJSON, "Invalid JSON in request body")
		return
	}

	u, err := h.db.UpdateUser(mux.Vars(r)["id"], store.UserUpdate{
		Username:    req.Username,
		Password:    req.Password,
		Role:        req.Role,
		FullName:    req.FullName,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
	})
	if err != nil {
		h.handleStoreError(w, r, err)
		return
	}
	h.writeJSONResponse(w, sanitizeUser(u), http.StatusOK)
}

// DeleteUser handles DELETE /api/v1/users/{id}
func (h *Handlers) DeleteUser(w http.ResponseWriter, r *http.Request) {
	if !h.requireRole(w, r, store.RoleAdmin) {
		return
	}

	if err := h.db.DeleteUser(mux.Vars(r)["id"]); err != nil {
		h.handleStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListVisitors handles GET /api/v1/visitors with an optional email filter
func (h *Handlers) ListVisitors(w http.ResponseWriter, r *http.Request) {
	var (
		visitors []*store.Visitor
		err      error
	)
	if email := r.URL.Query().Get("email"); email != "" {
		visitors, err = h.db.ListVisitorsByEmail(email)
	} else {
		visitors, err = h.db.ListVisitors()
	}
	if err != nil {
		h.handleStoreError(w, r, err)
		return
	}
	h.writeJSONResponse(w, visitors, http.StatusOK)
}

// CreateVisitor handles POST /api/v1/visitors
func (h *Handlers) CreateVisitor(w http.ResponseWriter, r *http.Request) {
	var req CreateVisitorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeErrorResponse(w, r, ErrorCodeInvalidJSON, "Invalid JSON in request body")
		return
	}
	if err := req.Validate(); err != nil {
		h.writeErrorResponse(w, r, ErrorCodeValidationFailed, err.Error())
		return
	}

	v := &store.Visitor{
		FullName:     req.FullName,
		Email:        req.Email,
		PhoneNumber:  req.PhoneNumber,
		Purpose:      req.Purpose,
		HostName:     req.HostName,
		HostContact:  req.HostContact,
		VehiclePlate: req.VehiclePlate,
		ValidFrom:    req.ValidFrom.UTC(),
		ValidUntil:   req.ValidUntil.UTC(),
		IsActive:     true,
	}
	if err := h.db.CreateVisitor(v); err != nil {
		h.handleStoreError(w, r, err)
		return
	}
	h.writeJSONResponse(w, v, http.StatusCreated)
}

// GetVisitor handles GET /api/v1/visitors/{id}
func (h *Handlers) GetVisitor(w http.ResponseWriter, r *http.Request) {
	v, err := h.db.GetVisitor(mux.Vars(r)["id"])
	if err != nil {
		h.handleStoreError(w, r, err)
		return
	}
	h.writeJSONResponse(w, v, http.StatusOK)
}

// UpdateVisitor handles PUT /api/v1/visitors/{id}
func (h *Handlers) UpdateVisitor(w http.ResponseWriter, r *http.Request) {
	var req UpdateVisitorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeErrorResponse(w, r, ErrorCodeInvalidJSON, "Invalid JSON in request body")
		return
	}

	v, err := h.db.UpdateVisitor(mux.Vars(r)["id"], store.VisitorUpdate{
		FullName:     req.FullName,
		Email:        req.Email,
		PhoneNumber:  req.PhoneNumber,
		Purpose:      req.Purpose,
		HostName:     req.HostName,
		HostContact:  req.HostContact,
		VehiclePlate: req.VehiclePlate,
		ValidFrom:    req.ValidFrom,
		ValidUntil:   req.ValidUntil,
		IsActive:     req.IsActive,
	})
	if err != nil {
		h.handleStoreError(w, r, err)
		return
	}
	h.writeJSONResponse(w, v, http.StatusOK)
}

// ListAccessLogs handles GET /api/v1/access-logs
func (h *Handlers) ListAccessLogs(w http.ResponseWriter, r *http.Request) {
	if !h.requireRole(w, r, store.RoleAdmin, store.RoleSecurityOfficer) {
		return
	}

	logs, err := h.db.ListAccessLogsWithDetails()
	if err != nil {
		h.handleStoreError(w, r, err)
		return
	}
	h.writeJSONResponse(w, logs, http.StatusOK)
}

// RecentAccessLogs handles GET /api/v1/access-logs/recent
func (h *Handlers) RecentAccessLogs(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 500 {
			h.writeErrorResponse(w, r, ErrorCodeValidationFailed, "limit must be between 1 and 500")
			return
		}
		limit = parsed
	}

	logs, err := h.db.ListRecentAccessLogsWithDetails(limit)
	if err != nil {
		h.handleStoreError(w, r, err)
		return
	}
	h.writeJSONResponse(w, logs, http.StatusOK)
}

// MyAccessHistory handles GET /api/v1/my-access-history
func (h *Handlers) MyAccessHistory(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	if claims == nil {
		h.writeErrorResponse(w, r, ErrorCodeUnauthorized, "Authentication required")
		return
	}

	logs, err := h.db.ListAccessLogsByUser(claims.Subject)
	if err != nil {
		h.handleStoreError(w, r, err)
		return
	}
	h.writeJSONResponse(w, logs, http.StatusOK)
}

// Stats handles GET /api/v1/stats
func (h *Handlers) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.db.GetStats(time.Now().UTC())
	if err != nil {
		h.handleStoreError(w, r, err)
		return
	}
	h.writeJSONResponse(w, stats, http.StatusOK)
}

// MyStats handles GET /api/v1/my-stats
func (h *Handlers) MyStats(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	if claims == nil {
		h.writeErrorResponse(w, r, ErrorCodeUnauthorized, "Authentication required")
		return
	}

	stats, err := h.db.GetUserStats(claims.Subject)
	if err != nil {
		h.handleStoreError(w, r, err)
		return
	}
	h.writeJSONResponse(w, stats, http.StatusOK)
}

// Reports handles GET /api/v1/reports
func (h *Handlers) Reports(w http.ResponseWriter, r *http.Request) {
	period := r.URL.Query().Get("period")
	if period == "" {
		period = "day"
	}
	switch period {
	case "day", "week", "month":
	default:
		h.writeErrorResponse(w, r, ErrorCodeValidationFailed, "period must be day, week or month")
		return
	}

	report, err := h.db.GetReport(period, time.Now().UTC())
	if err != nil {
		h.handleStoreError(w, r, err)
		return
	}
	h.writeJSONResponse(w, report, http.StatusOK)
}

// WebSocket handles GET /api/v1/ws
func (h *Handlers) WebSocket(w http.ResponseWriter, r *http.Request) {
	if h.wsManager == nil {
		h.writeErrorResponse(w, r, ErrorCodeInternalError, "WebSocket support is not enabled")
		return
	}
	h.wsManager.HandleConnection(w, r)
}

// requireRole rejects the request unless the authenticated user has one
// of the given roles. Role checks are skipped when auth is disabled.
func (h *Handlers) requireRole(w http.ResponseWriter, r *http.Request, roles ...store.UserRole) bool {
	if !h.config.AuthEnabled {
		return true
	}

	claims := claimsFromContext(r.Context())
	if claims == nil {
		h.writeErrorResponse(w, r, ErrorCodeUnauthorized, "Authentication required")
		return false
	}
	for _, role := range roles {
		if claims.Role == role {
			return true
		}
	}

	h.logger.WithFields(logrus.Fields{
		"user_id": claims.Subject,
		"role":    claims.Role,
		"path":    r.URL.Path,
	}).Warn("Insufficient role for request")
	h.writeErrorResponse(w, r, ErrorCodeForbidden, "Insufficient permissions")
	return false
}

// sanitizeUser strips the password before a user leaves the API
func sanitizeUser(u *store.User) *store.User {
	clean := *u
	clean.Password = ""
	return &clean
}

// writeJSONResponse writes a JSON response
func (h *Handlers) writeJSONResponse(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.WithError(err).Error("Failed to encode JSON response")
	}
}

// writeErrorResponse writes a standardized JSON error response
func (h *Handlers) writeErrorResponse(w http.ResponseWriter, r *http.Request, code ErrorCode, message string) {
	response := NewErrorResponse(code, message, r, "")

	h.logger.WithFields(logrus.Fields{
		"error_code": code,
		"message":    message,
		"status":     response.Status,
		"path":       response.Path,
		"method":     response.Method,
	}).Error("API error response")

	h.writeJSONResponse(w, response, response.Status)
}

// handleStoreError maps storage errors to API error responses
func (h *Handlers) handleStoreError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		h.writeErrorResponse(w, r, ErrorCodeNotFound, "Resource not found")
	case errors.Is(err, store.ErrConflict):
		h.writeErrorResponse(w, r, ErrorCodeConflict, "Resource already exists")
	default:
		h.logger.WithError(err).Error("Storage operation failed")
		h.writeErrorResponse(w, r, ErrorCodeInternalError, "Internal server error")
	}
}
