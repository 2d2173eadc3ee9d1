package core

import (
	"context"
	"testing"

	"attendance.service/internal/core/model"
	"attendance.service/internal/ports/repository/memory"
	"github.com/google/uuid"
)

func TestResolveDirection(t *testing.T) {
	cases := []struct {
		name string
		ev   model.RawAccessEvent
		want model.Direction
	}{
		{"explicit entry", model.RawAccessEvent{EventType: model.EventEntry}, model.DirectionEntry},
		{"explicit exit", model.RawAccessEvent{EventType: model.EventExit}, model.DirectionExit},
		{"payload in", model.RawAccessEvent{RawData: `{"direction":"in"}`}, model.DirectionEntry},
		{"payload OUT uppercase", model.RawAccessEvent{RawData: `{"direction":"OUT"}`}, model.DirectionExit},
		{"payload cyrillic entry", model.RawAccessEvent{RawData: `{"direction":"вход"}`}, model.DirectionEntry},
		{"payload cyrillic exit", model.RawAccessEvent{RawData: `{"direction":"выход"}`}, model.DirectionExit},
		{"denied falls back to payload", model.RawAccessEvent{EventType: model.EventDenied, RawData: `{"direction":"exit"}`}, model.DirectionExit},
		{"alarm defaults to entry", model.RawAccessEvent{EventType: model.EventAlarm}, model.DirectionEntry},
		{"malformed payload defaults to entry", model.RawAccessEvent{RawData: `{"direction":`}, model.DirectionEntry},
		{"unknown direction word defaults to entry", model.RawAccessEvent{RawData: `{"direction":"sideways"}`}, model.DirectionEntry},
		{"nothing at all defaults to entry", model.RawAccessEvent{}, model.DirectionEntry},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ResolveDirection(tc.ev); got != tc.want {
				t.Errorf("ResolveDirection = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestNormalize_ResolvesBadgeToken(t *testing.T) {
	store := memory.NewStore()
	emp := model.Employee{ID: uuid.New(), FullName: "Badge Owner", CardNumber: "CARD-42", IsActive: true}
	store.AddEmployee(emp)

	n := NewNormalizer(store)

	got, err := n.Normalize(context.Background(), model.RawAccessEvent{
		CardNumber: "CARD-42",
		EventType:  model.EventEntry,
	})
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if got.Employee == nil || got.Employee.ID != emp.ID {
		t.Fatalf("expected badge to resolve to %s, got %+v", emp.ID, got.Employee)
	}
	if got.Direction != model.DirectionEntry {
		t.Errorf("direction = %q, want entry", got.Direction)
	}
}

func TestNormalize_UnmatchedBadgeKeepsNilEmployee(t *testing.T) {
	store := memory.NewStore()
	n := NewNormalizer(store)

	got, err := n.Normalize(context.Background(), model.RawAccessEvent{
		CardNumber: "UNKNOWN",
		EventType:  model.EventEntry,
	})
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if got.Employee != nil {
		t.Fatalf("expected nil employee for unknown badge, got %+v", got.Employee)
	}
}

func TestNormalize_PrefersPreresolvedEmployee(t *testing.T) {
	store := memory.NewStore()
	emp := model.Employee{ID: uuid.New(), FullName: "Known", CardNumber: "CARD-1", IsActive: true}
	store.AddEmployee(emp)

	n := NewNormalizer(store)
	id := emp.ID

	got, err := n.Normalize(context.Background(), model.RawAccessEvent{
		EmployeeID: &id,
		CardNumber: "stale-token",
	})
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if got.Employee == nil || got.Employee.ID != emp.ID {
		t.Fatalf("expected pre-resolved employee to win, got %+v", got.Employee)
	}
}
