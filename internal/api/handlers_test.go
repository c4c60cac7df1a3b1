package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campus-gate-control/internal/access"
	"campus-gate-control/internal/auth"
	"campus-gate-control/internal/config"
	"campus-gate-control/internal/events"
	"campus-gate-control/internal/gate"
	"campus-gate-control/internal/store"
)

type apiTestEnv struct {
	server *Server
	db     *store.DB
	tokens *auth.Manager
	cfg    *config.Config
}

func setupAPI(t *testing.T, authEnabled bool) *apiTestEnv {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "campus-gate-control-test-*")
	require.NoError(t, err)

	db, err := store.NewDB(store.Config{DatabasePath: filepath.Join(tempDir, "test.db")})
	require.NoError(t, err)

	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	bus := events.NewBus(logger)
	controller := gate.NewController(gate.Config{AutoCloseDelay: time.Hour}, db, bus, gate.WithLogger(logger))
	engine := access.NewEngine(db, controller, bus, access.WithEngineLogger(logger))
	tokens := auth.NewManager("test-secret", time.Hour)

	cfg := config.DefaultConfig()
	cfg.AuthEnabled = authEnabled
	cfg.JWTSecret = "test-secret"

	handlers := NewHandlers(cfg, logger, db, engine, tokens, nil, "test")
	server := NewServer(cfg, logger, handlers, tokens)

	t.Cleanup(func() {
		bus.Close()
		db.Close()
		os.RemoveAll(tempDir)
	})

	return &apiTestEnv{server: server, db: db, tokens: tokens, cfg: cfg}
}

func (env *apiTestEnv) request(t *testing.T, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	recorder := httptest.NewRecorder()
	env.server.router.ServeHTTP(recorder, req)
	return recorder
}

func decodeJSON(t *testing.T, recorder *httptest.ResponseRecorder, into interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), into))
}

func TestHealthCheck(t *testing.T) {
	env := setupAPI(t, false)

	recorder := env.request(t, http.MethodGet, "/api/v1/health", nil, "")
	assert.Equal(t, http.StatusOK, recorder.Code)

	var response HealthCheckResponse
	decodeJSON(t, recorder, &response)
	assert.Equal(t, "healthy", response.Status)
	assert.Equal(t, "test", response.Version)
}

func TestLoginInfersRole(t *testing.T) {
	env := setupAPI(t, false)

	tests := []struct {
		username string
		role     store.UserRole
	}{
		{"admin", store.RoleAdmin},
		{"security2", store.RoleSecurityOfficer},
		{"student42", store.RoleStudentStaff},
		{"staff.jane", store.RoleStudentStaff},
		{"jane.doe", store.RoleVisitor},
	}

	for _, tt := range tests {
		recorder := env.request(t, http.MethodPost, "/api/v1/auth/login",
			LoginRequest{Username: tt.username, Password: "pass"}, "")
		require.Equal(t, http.StatusOK, recorder.Code, "login for %s", tt.username)

		var response LoginResponse
		decodeJSON(t, recorder, &response)
		assert.NotEmpty(t, response.Token)
		assert.Equal(t, tt.role, response.User.Role)
		assert.Empty(t, response.User.Password, "password must not leak")
	}
}

func TestLoginValidation(t *testing.T) {
	env := setupAPI(t, false)

	recorder := env.request(t, http.MethodPost, "/api/v1/auth/login",
		LoginRequest{Username: "", Password: "pass"}, "")
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestScanEndpoint(t *testing.T) {
	env := setupAPI(t, false)

	owner := &store.User{Username: "owner", Password: "x", Role: store.RoleStudentStaff, FullName: "Owner"}
	require.NoError(t, env.db.CreateUser(owner))
	vehicle := &store.Vehicle{UserID: owner.ID, LicensePlate: "ABC-123"}
	require.NoError(t, env.db.CreateVehicle(vehicle))
	g := &store.Gate{Name: "Main Gate", Location: "Main", Status: store.GateOnline}
	require.NoError(t, env.db.CreateGate(g))

	recorder := env.request(t, http.MethodPost, "/api/v1/access/scan",
		ScanRequest{Code: vehicle.QRCode}, "")
	require.Equal(t, http.StatusOK, recorder.Code)

	var response ScanResponse
	decodeJSON(t, recorder, &response)
	assert.True(t, response.Success)
	assert.True(t, response.Authorized)
	assert.Equal(t, "vehicle", response.Type)
	assert.Equal(t, "ABC-123", response.LicensePlate)
	assert.True(t, response.GateAvailable)
	require.NotNil(t, response.Gate)
	assert.True(t, response.Gate.IsOpen)

	// The wire shape carries authorized and licensePlate at the top level
	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &raw))
	assert.Equal(t, true, raw["authorized"])
	assert.Equal(t, "ABC-123", raw["licensePlate"])
}

func TestScanEndpointInvalidCode(t *testing.T) {
	env := setupAPI(t, false)

	recorder := env.request(t, http.MethodPost, "/api/v1/access/scan",
		ScanRequest{Code: "QR-unknown"}, "")
	assert.Equal(t, http.StatusNotFound, recorder.Code)

	var response ErrorResponse
	decodeJSON(t, recorder, &response)
	assert.Equal(t, ErrorCodeInvalidCode, response.Code)
}

func TestScanEndpointDenied(t *testing.T) {
	env := setupAPI(t, false)

	owner := &store.User{Username: "owner", Password: "x", Role: store.RoleStudentStaff, FullName: "Owner"}
	require.NoError(t, env.db.CreateUser(owner))
	vehicle := &store.Vehicle{UserID: owner.ID, LicensePlate: "ABC-123"}
	require.NoError(t, env.db.CreateVehicle(vehicle))
	inactive := false
	_, err := env.db.UpdateVehicle(vehicle.ID, store.VehicleUpdate{IsActive: &inactive})
	require.NoError(t, err)

	recorder := env.request(t, http.MethodPost, "/api/v1/access/scan",
		ScanRequest{Code: vehicle.QRCode}, "")
	assert.Equal(t, http.StatusForbidden, recorder.Code)

	var response ErrorResponse
	decodeJSON(t, recorder, &response)
	assert.Equal(t, ErrorCodeAccessDenied, response.Code)
}

func TestCreateVehicleEndpoint(t *testing.T) {
	env := setupAPI(t, false)

	// Unknown owner is rejected
	recorder := env.request(t, http.MethodPost, "/api/v1/vehicles",
		CreateVehicleRequest{UserID: "missing", LicensePlate: "ABC-123"}, "")
	assert.Equal(t, http.StatusNotFound, recorder.Code)

	owner := &store.User{Username: "owner", Password: "x", Role: store.RoleStudentStaff, FullName: "Owner"}
	require.NoError(t, env.db.CreateUser(owner))

	recorder = env.request(t, http.MethodPost, "/api/v1/vehicles",
		CreateVehicleRequest{UserID: owner.ID, LicensePlate: "ABC-123", Make: "Toyota"}, "")
	require.Equal(t, http.StatusCreated, recorder.Code)

	var created store.Vehicle
	decodeJSON(t, recorder, &created)
	assert.NotEmpty(t, created.QRCode)
	assert.NotEmpty(t, created.RFIDTag)
	assert.True(t, created.IsActive)

	// Duplicate plate conflicts
	recorder = env.request(t, http.MethodPost, "/api/v1/vehicles",
		CreateVehicleRequest{UserID: owner.ID, LicensePlate: "ABC-123"}, "")
	assert.Equal(t, http.StatusConflict, recorder.Code)

	var response ErrorResponse
	decodeJSON(t, recorder, &response)
	assert.Equal(t, ErrorCodeConflict, response.Code)
}

func TestOverrideEndpoint(t *testing.T) {
	env := setupAPI(t, false)

	g := &store.Gate{Name: "Main Gate", Location: "Main", Status: store.GateOnline}
	require.NoError(t, env.db.CreateGate(g))

	// Reason is mandatory
	recorder := env.request(t, http.MethodPost, "/api/v1/gates/"+g.ID+"/override",
		OverrideRequest{Action: "open", Reason: ""}, "")
	assert.Equal(t, http.StatusBadRequest, recorder.Code)

	recorder = env.request(t, http.MethodPost, "/api/v1/gates/"+g.ID+"/override",
		OverrideRequest{Action: "open", Reason: "delivery truck"}, "")
	require.Equal(t, http.StatusOK, recorder.Code)

	var response OverrideResponse
	decodeJSON(t, recorder, &response)
	assert.True(t, response.Success)
	assert.True(t, response.Gate.IsOpen)
	assert.Equal(t, store.StatusManualOverride, response.Log.Status)

	// Gate ID may also be supplied in the request body
	recorder = env.request(t, http.MethodPost, "/api/v1/gates/override",
		OverrideRequest{GateID: g.ID, Action: "close", Reason: "end of delivery"}, "")
	require.Equal(t, http.StatusOK, recorder.Code)
	decodeJSON(t, recorder, &response)
	assert.False(t, response.Gate.IsOpen)
}

func TestOverrideEndpointOfflineGate(t *testing.T) {
	env := setupAPI(t, false)

	g := &store.Gate{Name: "East Gate", Location: "East", Status: store.GateOffline}
	require.NoError(t, env.db.CreateGate(g))

	recorder := env.request(t, http.MethodPost, "/api/v1/gates/"+g.ID+"/override",
		OverrideRequest{Action: "open", Reason: "testing"}, "")
	assert.Equal(t, http.StatusConflict, recorder.Code)

	var response ErrorResponse
	decodeJSON(t, recorder, &response)
	assert.Equal(t, ErrorCodeGateUnavailable, response.Code)
}

func TestReportsValidation(t *testing.T) {
	env := setupAPI(t, false)

	recorder := env.request(t, http.MethodGet, "/api/v1/reports?period=year", nil, "")
	assert.Equal(t, http.StatusBadRequest, recorder.Code)

	recorder = env.request(t, http.MethodGet, "/api/v1/reports?period=week", nil, "")
	assert.Equal(t, http.StatusOK, recorder.Code)
}

func TestAuthenticationRequired(t *testing.T) {
	env := setupAPI(t, true)

	// Protected endpoint without a token
	recorder := env.request(t, http.MethodGet, "/api/v1/gates", nil, "")
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)

	// Health stays public
	recorder = env.request(t, http.MethodGet, "/api/v1/health", nil, "")
	assert.Equal(t, http.StatusOK, recorder.Code)

	// A valid token passes
	user := &store.User{Username: "officer1", Password: "x", Role: store.RoleSecurityOfficer, FullName: "Officer"}
	require.NoError(t, env.db.CreateUser(user))
	token, err := env.tokens.Issue(user)
	require.NoError(t, err)

	recorder = env.request(t, http.MethodGet, "/api/v1/gates", nil, token)
	assert.Equal(t, http.StatusOK, recorder.Code)

	// Garbage tokens are rejected
	recorder = env.request(t, http.MethodGet, "/api/v1/gates", nil, "garbage")
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}

func TestRoleEnforcement(t *testing.T) {
	env := setupAPI(t, true)

	student := &store.User{Username: "student1", Password: "x", Role: store.RoleStudentStaff, FullName: "Student"}
	require.NoError(t, env.db.CreateUser(student))
	studentToken, err := env.tokens.Issue(student)
	require.NoError(t, err)

	admin := &store.User{Username: "admin", Password: "x", Role: store.RoleAdmin, FullName: "Admin"}
	require.NoError(t, env.db.CreateUser(admin))
	adminToken, err := env.tokens.Issue(admin)
	require.NoError(t, err)

	// Listing users requires an elevated role
	recorder := env.request(t, http.MethodGet, "/api/v1/users", nil, studentToken)
	assert.Equal(t, http.StatusForbidden, recorder.Code)

	recorder = env.request(t, http.MethodGet, "/api/v1/users", nil, adminToken)
	assert.Equal(t, http.StatusOK, recorder.Code)

	// Overrides are for officers and admins
	g := &store.Gate{Name: "Main Gate", Location: "Main", Status: store.GateOnline}
	require.NoError(t, env.db.CreateGate(g))

	recorder = env.request(t, http.MethodPost, "/api/v1/gates/"+g.ID+"/override",
		OverrideRequest{Action: "open", Reason: "testing"}, studentToken)
	assert.Equal(t, http.StatusForbidden, recorder.Code)
}

func TestMyStatsAndHistory(t *testing.T) {
	env := setupAPI(t, true)

	user := &store.User{Username: "student1", Password: "x", Role: store.RoleStudentStaff, FullName: "Student"}
	require.NoError(t, env.db.CreateUser(user))
	token, err := env.tokens.Issue(user)
	require.NoError(t, err)

	vehicle := &store.Vehicle{UserID: user.ID, LicensePlate: "ABC-123"}
	require.NoError(t, env.db.CreateVehicle(vehicle))
	require.NoError(t, env.db.CreateAccessLog(&store.AccessLog{
		VehicleID:  vehicle.ID,
		UserID:     user.ID,
		Action:     store.ActionEntry,
		AuthMethod: store.MethodQRCode,
		Status:     store.StatusAuthorized,
	}))

	recorder := env.request(t, http.MethodGet, "/api/v1/my-stats", nil, token)
	require.Equal(t, http.StatusOK, recorder.Code)

	var stats store.UserStats
	decodeJSON(t, recorder, &stats)
	assert.Equal(t, 1, stats.TotalEntries)
	assert.Equal(t, 1, stats.VehicleCount)

	recorder = env.request(t, http.MethodGet, "/api/v1/my-access-history", nil, token)
	require.Equal(t, http.StatusOK, recorder.Code)

	var logs []*store.AccessLog
	decodeJSON(t, recorder, &logs)
	assert.Len(t, logs, 1)
}
