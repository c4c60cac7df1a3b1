package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"campus-gate-control/internal/config"
	"campus-gate-control/internal/logging"
	"campus-gate-control/internal/store"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with demo accounts, gates and vehicles",
	Long: `Populates the database with a demo data set: an admin account, a
security officer, a student with a registered vehicle, three gates and a
visitor pass valid for the next 24 hours. Existing records with the
same usernames or plates are left untouched.`,
	RunE: runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	logger := logging.Initialize(cfg.LogLevel)

	db, err := store.NewDB(store.Config{DatabasePath: cfg.DatabasePath})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	users := []*store.User{
		{Username: "admin", Password: "admin123", Role: store.RoleAdmin, FullName: "System Administrator", Email: "admin@campus.edu"},
		{Username: "security1", Password: "security123", Role: store.RoleSecurityOfficer, FullName: "Main Gate Officer", Email: "security1@campus.edu"},
		{Username: "student1", Password: "student123", Role: store.RoleStudentStaff, FullName: "Demo Student", Email: "student1@campus.edu"},
	}
	byUsername := make(map[string]*store.User)
	for _, u := range users {
		if err := db.CreateUser(u); err != nil {
			if errors.Is(err, store.ErrConflict) {
				existing, lookupErr := db.GetUserByUsername(u.Username)
				if lookupErr != nil {
					return lookupErr
				}
				byUsername[u.Username] = existing
				logger.WithField("username", u.Username).Info("User already exists, skipping")
				continue
			}
			return fmt.Errorf("failed to seed user %s: %w", u.Username, err)
		}
		byUsername[u.Username] = u
		logger.WithField("username", u.Username).Info("Seeded user")
	}

	gates := []*store.Gate{
		{Name: "Main Gate", Location: "Campus Main Entrance", Status: store.GateOnline, AssignedOfficer: byUsername["security1"].ID},
		{Name: "North Gate", Location: "North Campus Entrance", Status: store.GateOnline},
		{Name: "East Gate", Location: "East Service Entrance", Status: store.GateOffline},
	}
	existingGates, err := db.ListGates()
	if err != nil {
		return err
	}
	haveGate := make(map[string]bool)
	for _, g := range existingGates {
		haveGate[g.Name] = true
	}
	for _, g := range gates {
		if haveGate[g.Name] {
			logger.WithField("gate", g.Name).Info("Gate already exists, skipping")
			continue
		}
		if err := db.CreateGate(g); err != nil {
			return fmt.Errorf("failed to seed gate %s: %w", g.Name, err)
		}
		logger.WithField("gate", g.Name).Info("Seeded gate")
	}

	vehicle := &store.Vehicle{
		UserID:       byUsername["student1"].ID,
		LicensePlate: "ABC-123",
		Make:         "Toyota",
		Model:        "Corolla",
		Color:        "Blue",
	}
	if err := db.CreateVehicle(vehicle); err != nil {
		if errors.Is(err, store.ErrConflict) {
			logger.WithField("plate", vehicle.LicensePlate).Info("Vehicle already exists, skipping")
		} else {
			return fmt.Errorf("failed to seed vehicle: %w", err)
		}
	} else {
		logger.WithFields(map[string]interface{}{
			"plate":   vehicle.LicensePlate,
			"qr_code": vehicle.QRCode,
			"rfid":    vehicle.RFIDTag,
		}).Info("Seeded vehicle")
	}

	now := time.Now().UTC()
	visitor := &store.Visitor{
		FullName:    "Demo Visitor",
		Email:       "visitor@example.com",
		PhoneNumber: "555-0100",
		Purpose:     "Campus tour",
		HostName:    "Demo Student",
		HostContact: "student1@campus.edu",
		ValidFrom:   now,
		ValidUntil:  now.Add(24 * time.Hour),
		IsActive:    true,
	}
	if err := db.CreateVisitor(visitor); err != nil {
		return fmt.Errorf("failed to seed visitor: %w", err)
	}
	logger.WithField("qr_code", visitor.QRCode).Info("Seeded visitor pass")

	logger.Info("Seeding complete")
	return nil
}
