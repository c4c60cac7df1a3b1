package store

import (
	"fmt"
	"time"
)

// Stats holds campus-wide counters derived from the current entities and
// the ledger
type Stats struct {
	EntriesToday   int `json:"entriesToday"`
	ExitsToday     int `json:"exitsToday"`
	DeniedToday    int `json:"deniedToday"`
	OverridesToday int `json:"overridesToday"`
	ActiveVehicles int `json:"activeVehicles"`
	OnlineGates    int `json:"onlineGates"`
	VisitorsToday  int `json:"visitorsToday"`
}

// UserStats holds per-user counters derived from the ledger
type UserStats struct {
	TotalEntries int        `json:"totalEntries"`
	VehicleCount int        `json:"vehicleCount"`
	LastEntry    *time.Time `json:"lastEntry,omitempty"`
}

// HourlyTraffic is one hour bucket of a traffic report
type HourlyTraffic struct {
	Hour    string `json:"hour"`
	Entries int    `json:"entries"`
	Exits   int    `json:"exits"`
}

// DailyTraffic is one day bucket of a traffic report
type DailyTraffic struct {
	Date  string `json:"date"`
	Total int    `json:"total"`
}

// GateUsage counts ledger entries per gate
type GateUsage struct {
	Gate  string `json:"gate"`
	Count int    `json:"count"`
}

// StatusCount counts ledger entries per decision status
type StatusCount struct {
	Status LogStatus `json:"status"`
	Count  int       `json:"count"`
}

// Report is the traffic report computed over the ledger for a period
type Report struct {
	HourlyTraffic      []HourlyTraffic `json:"hourlyTraffic"`
	DailyTraffic       []DailyTraffic  `json:"dailyTraffic"`
	GateUsage          []GateUsage     `json:"gateUsage"`
	StatusDistribution []StatusCount   `json:"statusDistribution"`
}

// GetStats computes campus-wide counters as of now
func (db *DB) GetStats(now time.Time) (*Stats, error) {
	stats := &Stats{}
	dayStart := startOfDay(now)

	logs, err := db.ListAccessLogsBetween(dayStart, dayStart.Add(24*time.Hour))
	if err != nil {
		return nil, err
	}

	for _, log := range logs {
		switch log.Status {
		case StatusAuthorized:
			if log.Action == ActionEntry {
				stats.EntriesToday++
			} else {
				stats.ExitsToday++
			}
			if log.VisitorID != "" {
				stats.VisitorsToday++
			}
		case StatusDenied:
			stats.DeniedToday++
		case StatusManualOverride:
			stats.OverridesToday++
		}
	}

	if err := db.conn.QueryRow("SELECT COUNT(*) FROM vehicles WHERE is_active").Scan(&stats.ActiveVehicles); err != nil {
		return nil, fmt.Errorf("failed to count active vehicles: %w", err)
	}
	if err := db.conn.QueryRow("SELECT COUNT(*) FROM gates WHERE status = 'online'").Scan(&stats.OnlineGates); err != nil {
		return nil, fmt.Errorf("failed to count online gates: %w", err)
	}

	return stats, nil
}

// GetUserStats computes a user's counters over the full ledger
func (db *DB) GetUserStats(userID string) (*UserStats, error) {
	stats := &UserStats{}

	logs, err := db.ListAccessLogsByUser(userID)
	if err != nil {
		return nil, err
	}

	for _, log := range logs {
		if log.Status == StatusAuthorized && log.Action == ActionEntry {
			stats.TotalEntries++
			if stats.LastEntry == nil || log.Timestamp.After(*stats.LastEntry) {
				ts := log.Timestamp
				stats.LastEntry = &ts
			}
		}
	}

	vehicles, err := db.ListVehiclesByUser(userID)
	if err != nil {
		return nil, err
	}
	stats.VehicleCount = len(vehicles)

	return stats, nil
}

// GetReport aggregates the ledger into a traffic report. Period is one of
// "day", "week", "month"; it bounds the daily series and all counters.
func (db *DB) GetReport(period string, now time.Time) (*Report, error) {
	days := 7
	switch period {
	case "day":
		days = 1
	case "month":
		days = 30
	}

	periodStart := startOfDay(now).AddDate(0, 0, -(days - 1))
	logs, err := db.ListAccessLogsBetween(periodStart, startOfDay(now).Add(24*time.Hour))
	if err != nil {
		return nil, err
	}

	report := &Report{
		HourlyTraffic: make([]HourlyTraffic, 24),
		DailyTraffic:  make([]DailyTraffic, days),
	}

	for hour := 0; hour < 24; hour++ {
		report.HourlyTraffic[hour].Hour = fmt.Sprintf("%02d:00", hour)
	}

	dayIndex := make(map[string]int, days)
	for i := 0; i < days; i++ {
		date := periodStart.AddDate(0, 0, i)
		key := date.Format("2006-01-02")
		report.DailyTraffic[i].Date = date.Format("Jan 2")
		dayIndex[key] = i
	}

	gateCounts := make(map[string]int)
	statusCounts := map[LogStatus]int{
		StatusAuthorized:     0,
		StatusDenied:         0,
		StatusManualOverride: 0,
	}

	for _, log := range logs {
		ts := log.Timestamp.UTC()

		if log.Status == StatusAuthorized || log.Status == StatusManualOverride {
			if log.Action == ActionEntry {
				report.HourlyTraffic[ts.Hour()].Entries++
			} else {
				report.HourlyTraffic[ts.Hour()].Exits++
			}
			if i, ok := dayIndex[ts.Format("2006-01-02")]; ok {
				report.DailyTraffic[i].Total++
			}
		}

		if log.GateID != "" {
			gateCounts[log.GateID]++
		}
		statusCounts[log.Status]++
	}

	gates, err := db.ListGates()
	if err != nil {
		return nil, err
	}
	for _, gate := range gates {
		report.GateUsage = append(report.GateUsage, GateUsage{
			Gate:  gate.Name,
			Count: gateCounts[gate.ID],
		})
	}

	for _, status := range []LogStatus{StatusAuthorized, StatusDenied, StatusManualOverride} {
		report.StatusDistribution = append(report.StatusDistribution, StatusCount{
			Status: status,
			Count:  statusCounts[status],
		})
	}

	return report, nil
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
