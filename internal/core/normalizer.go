package core

import (
	"context"
	"encoding/json"
	"strings"

	"attendance.service/internal/core/model"
	"attendance.service/internal/ports/repository"
	"github.com/rs/zerolog/log"
)

// NormalizedEvent is a RawAccessEvent with its movement direction resolved
// and, when the badge matched, the acting employee attached.
type NormalizedEvent struct {
	Event     model.RawAccessEvent
	Direction model.Direction
	Employee  *model.Employee
}

// Normalizer classifies raw SKUD events and resolves badge tokens against the
// employee directory.
type Normalizer struct {
	employees repository.EmployeeDirectory
}

func NewNormalizer(employees repository.EmployeeDirectory) *Normalizer {
	return &Normalizer{employees: employees}
}

// Normalize resolves the direction and employee for one raw event. Events with
// an unmatched badge come back with a nil Employee; they are still stored by
// the caller but never contribute to sessions.
func (n *Normalizer) Normalize(ctx context.Context, ev model.RawAccessEvent) (NormalizedEvent, error) {
	out := NormalizedEvent{
		Event:     ev,
		Direction: ResolveDirection(ev),
	}

	if ev.EmployeeID != nil {
		emp, err := n.employees.Get(ctx, *ev.EmployeeID)
		if err != nil {
			return out, err
		}
		out.Employee = emp
		return out, nil
	}

	if ev.CardNumber == "" {
		return out, nil
	}

	emp, err := n.employees.FindByCard(ctx, ev.CardNumber)
	if err != nil {
		return out, err
	}
	if emp == nil {
		log.Ctx(ctx).Info().
			Str("device_id", ev.DeviceID).
			Str("card_number", ev.CardNumber).
			Msg("No employee matches badge token, event kept without owner")
	}
	out.Employee = emp
	return out, nil
}

var (
	entryWords = map[string]struct{}{"entry": {}, "in": {}, "вход": {}}
	exitWords  = map[string]struct{}{"exit": {}, "out": {}, "выход": {}}
)

// ResolveDirection decides whether an event is an entry or an exit. The
// explicit event type wins; otherwise the raw payload is inspected for a
// direction field; anything still unresolved counts as an entry.
func ResolveDirection(ev model.RawAccessEvent) model.Direction {
	if d, ok := matchDirection(string(ev.EventType)); ok {
		return d
	}

	if ev.RawData != "" {
		var payload struct {
			Direction string `json:"direction"`
		}
		if err := json.Unmarshal([]byte(ev.RawData), &payload); err == nil {
			if d, ok := matchDirection(payload.Direction); ok {
				return d
			}
		}
	}

	return model.DirectionEntry
}

func matchDirection(word string) (model.Direction, bool) {
	word = strings.ToLower(strings.TrimSpace(word))
	if _, ok := entryWords[word]; ok {
		return model.DirectionEntry, true
	}
	if _, ok := exitWords[word]; ok {
		return model.DirectionExit, true
	}
	return "", false
}
