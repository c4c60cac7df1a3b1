package store

import "time"

// UserRole represents the role assigned to a user account
type UserRole string

const (
	RoleAdmin           UserRole = "admin"
	RoleSecurityOfficer UserRole = "security_officer"
	RoleStudentStaff    UserRole = "student_staff"
	RoleVisitor         UserRole = "visitor"
)

// GateStatus represents the operational status of a gate
type GateStatus string

const (
	GateOnline      GateStatus = "online"
	GateOffline     GateStatus = "offline"
	GateMaintenance GateStatus = "maintenance"
)

// LogAction represents the direction of an access event
type LogAction string

const (
	ActionEntry LogAction = "entry"
	ActionExit  LogAction = "exit"
)

// AuthMethod represents how a credential was presented
type AuthMethod string

const (
	MethodQRCode         AuthMethod = "qr_code"
	MethodRFID           AuthMethod = "rfid"
	MethodManualOverride AuthMethod = "manual_override"
)

// LogStatus represents the outcome recorded in an access log entry
type LogStatus string

const (
	StatusAuthorized     LogStatus = "authorized"
	StatusDenied         LogStatus = "denied"
	StatusManualOverride LogStatus = "manual_override"
)

// User represents a registered account
type User struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	Password    string    `json:"password"`
	Role        UserRole  `json:"role"`
	FullName    string    `json:"fullName"`
	Email       string    `json:"email"`
	PhoneNumber string    `json:"phoneNumber,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Vehicle represents a registered vehicle with its generated credentials
type Vehicle struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	LicensePlate string    `json:"licensePlate"`
	Make         string    `json:"make"`
	Model        string    `json:"model"`
	Color        string    `json:"color"`
	RFIDTag      string    `json:"rfidTag"`
	QRCode       string    `json:"qrCode"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Gate represents a physical access point
type Gate struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	Location        string     `json:"location"`
	Status          GateStatus `json:"status"`
	IsOpen          bool       `json:"isOpen"`
	LastActivity    *time.Time `json:"lastActivity,omitempty"`
	AssignedOfficer string     `json:"assignedOfficer,omitempty"`
}

// AccessLog is one immutable entry in the append-only audit ledger.
// Entity references are optional: overrides carry no vehicle, visitor
// entries carry no user, and grants with no online gate carry no gate.
type AccessLog struct {
	ID          string     `json:"id"`
	VehicleID   string     `json:"vehicleId,omitempty"`
	UserID      string     `json:"userId,omitempty"`
	VisitorID   string     `json:"visitorId,omitempty"`
	GateID      string     `json:"gateId,omitempty"`
	Timestamp   time.Time  `json:"timestamp"`
	Action      LogAction  `json:"action"`
	AuthMethod  AuthMethod `json:"authMethod"`
	Status      LogStatus  `json:"status"`
	Reason      string     `json:"reason,omitempty"`
	ProcessedBy string     `json:"processedBy,omitempty"`
}

// Visitor represents a visitor pass with a validity window
type Visitor struct {
	ID           string    `json:"id"`
	FullName     string    `json:"fullName"`
	Email        string    `json:"email"`
	PhoneNumber  string    `json:"phoneNumber"`
	Purpose      string    `json:"purpose"`
	HostName     string    `json:"hostName"`
	HostContact  string    `json:"hostContact"`
	VehiclePlate string    `json:"vehiclePlate,omitempty"`
	QRCode       string    `json:"qrCode"`
	ValidFrom    time.Time `json:"validFrom"`
	ValidUntil   time.Time `json:"validUntil"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
}

// GateWithOfficer joins a gate with its assigned officer, if any
type GateWithOfficer struct {
	Gate
	Officer *User `json:"officer,omitempty"`
}

// AccessLogDetails joins a log entry with its referenced entities
type AccessLogDetails struct {
	AccessLog
	Vehicle         *Vehicle `json:"vehicle,omitempty"`
	User            *User    `json:"user,omitempty"`
	Visitor         *Visitor `json:"visitor,omitempty"`
	Gate            *Gate    `json:"gate,omitempty"`
	ProcessedByUser *User    `json:"processedByUser,omitempty"`
}

// UserUpdate holds a partial user update; nil fields are left unchanged
type UserUpdate struct {
	Username    *string
	Password    *string
	Role        *UserRole
	FullName    *string
	Email       *string
	PhoneNumber *string
}

// VehicleUpdate holds a partial vehicle update; nil fields are left unchanged
type VehicleUpdate struct {
	LicensePlate *string
	Make         *string
	Model        *string
	Color        *string
	IsActive     *bool
}

// GateUpdate holds a partial gate update; nil fields are left unchanged.
// Applying any update refreshes the gate's last_activity timestamp.
type GateUpdate struct {
	Name            *string
	Location        *string
	Status          *GateStatus
	IsOpen          *bool
	AssignedOfficer *string
}

// VisitorUpdate holds a partial visitor update; nil fields are left unchanged
type VisitorUpdate struct {
	FullName     *string
	Email        *string
	PhoneNumber  *string
	Purpose      *string
	HostName     *string
	HostContact  *string
	VehiclePlate *string
	ValidFrom    *time.Time
	ValidUntil   *time.Time
	IsActive     *bool
}
