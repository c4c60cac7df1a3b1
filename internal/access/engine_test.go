package access

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campus-gate-control/internal/events"
	"campus-gate-control/internal/gate"
	"campus-gate-control/internal/store"
)

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	db         *store.DB
	engine     *Engine
	controller *gate.Controller
	clock      *time.Time
}

func setupEngine(t *testing.T) *testEnv {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "campus-gate-control-test-*")
	require.NoError(t, err)

	db, err := store.NewDB(store.Config{DatabasePath: filepath.Join(tempDir, "test.db")})
	require.NoError(t, err)

	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)
	bus := events.NewBus(logger)

	controller := gate.NewController(gate.Config{AutoCloseDelay: time.Hour}, db, bus, gate.WithLogger(logger))

	clock := testNow
	engine := NewEngine(db, controller, bus,
		WithEngineLogger(logger),
		WithClock(func() time.Time { return clock }),
	)

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		controller.Shutdown(ctx)
		bus.Close()
		db.Close()
		os.RemoveAll(tempDir)
	})

	return &testEnv{db: db, engine: engine, controller: controller, clock: &clock}
}

func (env *testEnv) addVehicle(t *testing.T, plate string) *store.Vehicle {
	t.Helper()

	owner := &store.User{Username: "owner-" + plate, Password: "x", Role: store.RoleStudentStaff, FullName: "Owner"}
	require.NoError(t, env.db.CreateUser(owner))

	vehicle := &store.Vehicle{UserID: owner.ID, LicensePlate: plate, Make: "Toyota", Model: "Corolla", Color: "Blue"}
	require.NoError(t, env.db.CreateVehicle(vehicle))
	return vehicle
}

func (env *testEnv) addGate(t *testing.T, name string, status store.GateStatus) *store.Gate {
	t.Helper()

	g := &store.Gate{Name: name, Location: name, Status: status}
	require.NoError(t, env.db.CreateGate(g))
	return g
}

func (env *testEnv) addVisitor(t *testing.T, from, until time.Time) *store.Visitor {
	t.Helper()

	visitor := &store.Visitor{
		FullName:   "Visitor",
		Email:      "visitor@example.com",
		Purpose:    "Meeting",
		ValidFrom:  from,
		ValidUntil: until,
		IsActive:   true,
	}
	require.NoError(t, env.db.CreateVisitor(visitor))
	return visitor
}

func TestScanUnknownCode(t *testing.T) {
	env := setupEngine(t)
	env.addGate(t, "Main Gate", store.GateOnline)

	_, err := env.engine.Scan(context.Background(), "QR-not-registered")
	assert.ErrorIs(t, err, ErrInvalidCode)

	// Unrecognized codes leave no trace
	logs, err := env.db.ListAccessLogs()
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func TestScanEmptyCode(t *testing.T) {
	env := setupEngine(t)

	_, err := env.engine.Scan(context.Background(), "   ")
	var validationErr *ValidationError
	assert.ErrorAs(t, err, &validationErr)
}

func TestScanVehicleQRCode(t *testing.T) {
	env := setupEngine(t)
	vehicle := env.addVehicle(t, "ABC-123")
	g := env.addGate(t, "Main Gate", store.GateOnline)

	result, err := env.engine.Scan(context.Background(), vehicle.QRCode)
	require.NoError(t, err)

	assert.Equal(t, KindVehicle, result.Kind)
	assert.Equal(t, vehicle.ID, result.Vehicle.ID)
	assert.True(t, result.GateAvailable)
	require.NotNil(t, result.Gate)
	assert.Equal(t, g.ID, result.Gate.ID)
	assert.True(t, result.Gate.IsOpen)

	require.NotNil(t, result.Log)
	assert.Equal(t, store.MethodQRCode, result.Log.AuthMethod)
	assert.Equal(t, store.StatusAuthorized, result.Log.Status)
	assert.Equal(t, store.ActionEntry, result.Log.Action)
	assert.Equal(t, g.ID, result.Log.GateID)
	assert.True(t, result.Log.Timestamp.Equal(testNow))
}

func TestScanVehicleRFIDTag(t *testing.T) {
	env := setupEngine(t)
	vehicle := env.addVehicle(t, "ABC-123")
	env.addGate(t, "Main Gate", store.GateOnline)

	result, err := env.engine.Scan(context.Background(), vehicle.RFIDTag)
	require.NoError(t, err)

	assert.Equal(t, KindVehicle, result.Kind)
	assert.Equal(t, store.MethodRFID, result.Log.AuthMethod)
}

func TestScanInactiveVehicleDenied(t *testing.T) {
	env := setupEngine(t)
	vehicle := env.addVehicle(t, "ABC-123")
	g := env.addGate(t, "Main Gate", store.GateOnline)

	inactive := false
	_, err := env.db.UpdateVehicle(vehicle.ID, store.VehicleUpdate{IsActive: &inactive})
	require.NoError(t, err)

	_, err = env.engine.Scan(context.Background(), vehicle.QRCode)
	var deniedErr *DeniedError
	require.ErrorAs(t, err, &deniedErr)
	assert.Equal(t, "vehicle inactive", deniedErr.Reason)

	// The denial is on the ledger
	logs, err := env.db.ListAccessLogs()
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, store.StatusDenied, logs[0].Status)
	assert.Equal(t, vehicle.ID, logs[0].VehicleID)
	assert.Equal(t, "vehicle inactive", logs[0].Reason)

	// And the gate stayed closed
	fetched, err := env.db.GetGate(g.ID)
	require.NoError(t, err)
	assert.False(t, fetched.IsOpen)
}

func TestScanGrantWithNoOnlineGate(t *testing.T) {
	env := setupEngine(t)
	vehicle := env.addVehicle(t, "ABC-123")
	env.addGate(t, "Main Gate", store.GateOffline)

	result, err := env.engine.Scan(context.Background(), vehicle.QRCode)
	require.NoError(t, err)

	assert.False(t, result.GateAvailable)
	assert.Nil(t, result.Gate)
	assert.Equal(t, "Access granted, no gate available", result.Message)

	// The grant is still on the ledger, with no gate reference
	logs, err := env.db.ListAccessLogs()
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, store.StatusAuthorized, logs[0].Status)
	assert.Empty(t, logs[0].GateID)
}

func TestScanVisitorPass(t *testing.T) {
	env := setupEngine(t)
	visitor := env.addVisitor(t, testNow.Add(-time.Hour), testNow.Add(time.Hour))
	g := env.addGate(t, "Main Gate", store.GateOnline)

	result, err := env.engine.Scan(context.Background(), visitor.QRCode)
	require.NoError(t, err)

	assert.Equal(t, KindVisitor, result.Kind)
	assert.Equal(t, visitor.ID, result.Visitor.ID)
	assert.True(t, result.GateAvailable)

	require.NotNil(t, result.Log)
	assert.Equal(t, visitor.ID, result.Log.VisitorID)
	assert.Empty(t, result.Log.VehicleID)
	assert.Equal(t, store.MethodQRCode, result.Log.AuthMethod)
	assert.Equal(t, g.ID, result.Log.GateID)
}

func TestScanVisitorValidityBoundaries(t *testing.T) {
	env := setupEngine(t)
	env.addGate(t, "Main Gate", store.GateOnline)

	from := testNow
	until := testNow.Add(2 * time.Hour)
	visitor := env.addVisitor(t, from, until)

	// Both boundary instants are inclusive
	*env.clock = from
	_, err := env.engine.Scan(context.Background(), visitor.QRCode)
	assert.NoError(t, err, "scan at validFrom should be granted")

	*env.clock = until
	_, err = env.engine.Scan(context.Background(), visitor.QRCode)
	assert.NoError(t, err, "scan at validUntil should be granted")

	*env.clock = until.Add(time.Second)
	_, err = env.engine.Scan(context.Background(), visitor.QRCode)
	var deniedErr *DeniedError
	assert.ErrorAs(t, err, &deniedErr, "scan after validUntil should be denied")

	*env.clock = from.Add(-time.Second)
	_, err = env.engine.Scan(context.Background(), visitor.QRCode)
	assert.ErrorAs(t, err, &deniedErr, "scan before validFrom should be denied")
}

func TestScanInactiveVisitorDenied(t *testing.T) {
	env := setupEngine(t)
	env.addGate(t, "Main Gate", store.GateOnline)
	visitor := env.addVisitor(t, testNow.Add(-time.Hour), testNow.Add(time.Hour))

	inactive := false
	_, err := env.db.UpdateVisitor(visitor.ID, store.VisitorUpdate{IsActive: &inactive})
	require.NoError(t, err)

	_, err = env.engine.Scan(context.Background(), visitor.QRCode)
	var deniedErr *DeniedError
	require.ErrorAs(t, err, &deniedErr)

	logs, err := env.db.ListAccessLogs()
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, store.StatusDenied, logs[0].Status)
	assert.Equal(t, visitor.ID, logs[0].VisitorID)
}

func TestScanResolutionPrecedence(t *testing.T) {
	env := setupEngine(t)
	env.addGate(t, "Main Gate", store.GateOnline)
	vehicle := env.addVehicle(t, "ABC-123")
	env.addVisitor(t, testNow.Add(-time.Hour), testNow.Add(time.Hour))

	// A vehicle QR code resolves to the vehicle even when visitor passes
	// exist
	result, err := env.engine.Scan(context.Background(), vehicle.QRCode)
	require.NoError(t, err)
	assert.Equal(t, KindVehicle, result.Kind)
}
