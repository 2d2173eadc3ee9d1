package model

import (
	"time"

	"github.com/google/uuid"
)

// EventKind is the explicit classification reported by a SKUD device.
type EventKind string

const (
	EventEntry  EventKind = "entry"
	EventExit   EventKind = "exit"
	EventDenied EventKind = "denied"
	EventAlarm  EventKind = "alarm"
)

// Direction is the movement resolved for an event after normalization.
// Only entries and exits participate in session building.
type Direction string

const (
	DirectionEntry Direction = "entry"
	DirectionExit  Direction = "exit"
)

// SessionStatus defines how a work session came to exist.
type SessionStatus string

const (
	// SessionAuto marks sessions reconstructed from SKUD events. They are
	// disposable and replaced wholesale on every rebuild.
	SessionAuto SessionStatus = "auto"
	// SessionManual marks sessions authored by a human operator.
	SessionManual SessionStatus = "manual"
	// SessionOpen marks a reconstructed session whose exit was never seen.
	SessionOpen SessionStatus = "open"
	// SessionClosedManual marks an open session closed by a human operator.
	SessionClosedManual SessionStatus = "closed_manual"
)

// SummaryStatus classifies an employee's day.
type SummaryStatus string

const (
	StatusPresent SummaryStatus = "present"
	StatusAbsent  SummaryStatus = "absent"
	StatusExcused SummaryStatus = "excused"
	StatusPartial SummaryStatus = "partial"
	StatusProblem SummaryStatus = "problem"
)

// RawAccessEvent is one badge swipe as delivered by a SKUD device. The core
// never creates these; it only reads them and flips IsProcessed.
type RawAccessEvent struct {
	ID          uuid.UUID  `json:"id"`
	DeviceID    string     `json:"deviceId"`
	EmployeeID  *uuid.UUID `json:"employeeId,omitempty"`
	CardNumber  string     `json:"cardNumber"`
	EventType   EventKind  `json:"eventType"`
	EventTime   time.Time  `json:"eventTime"`
	RawData     string     `json:"rawData,omitempty"`
	IsProcessed bool       `json:"isProcessed"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// Session is one continuous presence interval for an employee.
type Session struct {
	ID              uuid.UUID     `json:"id"`
	EmployeeID      uuid.UUID     `json:"employeeId"`
	Date            time.Time     `json:"date"`
	StartTime       time.Time     `json:"startTime"`
	EndTime         *time.Time    `json:"endTime,omitempty"`
	DurationSeconds int64         `json:"durationSeconds"`
	Status          SessionStatus `json:"status"`
	SourceEventIDs  []uuid.UUID   `json:"sourceEventIds,omitempty"`
	ManualReason    string        `json:"manualReason,omitempty"`
	CorrectedBy     string        `json:"correctedBy,omitempty"`
}

// IsOpen reports whether the session has no recorded exit.
func (s Session) IsOpen() bool {
	return s.Status == SessionOpen || s.EndTime == nil
}

// Duration returns the session length. Open sessions are measured up to now,
// so the value keeps growing until the session is closed.
func (s Session) Duration(now time.Time) time.Duration {
	if s.EndTime != nil {
		return s.EndTime.Sub(s.StartTime)
	}
	return now.Sub(s.StartTime)
}

// DaySummary is the per-employee-per-date aggregate. There is exactly one row
// per (employee, date); reprocessing overwrites it in place.
type DaySummary struct {
	ID                   uuid.UUID     `json:"id"`
	EmployeeID           uuid.UUID     `json:"employeeId"`
	Date                 time.Time     `json:"date"`
	FirstEntry           *time.Time    `json:"firstEntry,omitempty"`
	LastExit             *time.Time    `json:"lastExit,omitempty"`
	TotalSecondsInOffice int64         `json:"totalSecondsInOffice"`
	ExpectedSeconds      int64         `json:"expectedSeconds"`
	OvertimeSeconds      int64         `json:"overtimeSeconds"`
	UnderworkSeconds     int64         `json:"underworkSeconds"`
	SessionsCount        int           `json:"sessionsCount"`
	Status               SummaryStatus `json:"status"`
	HasMissingExit       bool          `json:"hasMissingExit"`
	HasManualCorrections bool          `json:"hasManualCorrections"`
	UpdatedAt            time.Time     `json:"updatedAt"`
}

// Employee carries the work-schedule facts the aggregator needs. Vacation and
// business-trip lookups go through the directory, not this struct.
type Employee struct {
	ID           uuid.UUID `json:"id"`
	ExternalID   string    `json:"externalId"`
	FullName     string    `json:"fullName"`
	CardNumber   string    `json:"cardNumber"`
	Email        string    `json:"email"`
	DailyHours   float64   `json:"dailyHours"`
	WorkFraction float64   `json:"workFraction"`
	IsActive     bool      `json:"isActive"`
}

// DateOf truncates a timestamp to its calendar date in UTC. Dates are stored
// as midnight-UTC timestamps throughout.
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
