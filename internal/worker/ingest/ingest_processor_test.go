package ingest

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"attendance.service/internal/core"
	"attendance.service/internal/core/model"
	"attendance.service/internal/ports/repository/memory"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/google/uuid"
)

func newTestProcessor(store *memory.Store) *EventProcessor {
	return NewProcessor(store, core.NewNormalizer(store), core.NewProcessor(store, store))
}

func deviceMessage(t *testing.T, body DeviceEventMessage) types.Message {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal message body: %v", err)
	}
	s := string(raw)
	return types.Message{Body: &s}
}

func TestProcess_RedeliveredMessageStoresOneEvent(t *testing.T) {
	store := memory.NewStore()
	store.AddEmployee(model.Employee{
		ID:           uuid.New(),
		FullName:     "Badge Owner",
		CardNumber:   "CARD-7",
		DailyHours:   8,
		WorkFraction: 1,
		IsActive:     true,
	})

	p := newTestProcessor(store)
	msg := deviceMessage(t, DeviceEventMessage{
		DeviceID:   "door-1",
		CardNumber: "CARD-7",
		EventType:  "entry",
		EventTime:  time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC),
	})

	for i := 0; i < 2; i++ {
		retry, _, err := p.Process(context.Background(), msg)
		if err != nil {
			t.Fatalf("delivery %d: %v", i+1, err)
		}
		if retry {
			t.Fatalf("delivery %d asked for a retry", i+1)
		}
	}

	if got := len(store.Events()); got != 1 {
		t.Fatalf("stored events = %d after redelivery, want 1", got)
	}
}

func TestProcess_DistinctSwipesAreBothStored(t *testing.T) {
	store := memory.NewStore()
	store.AddEmployee(model.Employee{
		ID:           uuid.New(),
		FullName:     "Badge Owner",
		CardNumber:   "CARD-7",
		DailyHours:   8,
		WorkFraction: 1,
		IsActive:     true,
	})

	p := newTestProcessor(store)
	for _, kind := range []string{"entry", "exit"} {
		at := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
		if kind == "exit" {
			at = at.Add(8 * time.Hour)
		}
		msg := deviceMessage(t, DeviceEventMessage{
			DeviceID:   "door-1",
			CardNumber: "CARD-7",
			EventType:  kind,
			EventTime:  at,
		})
		if retry, _, err := p.Process(context.Background(), msg); err != nil || retry {
			t.Fatalf("%s swipe: retry=%v err=%v", kind, retry, err)
		}
	}

	if got := len(store.Events()); got != 2 {
		t.Fatalf("stored events = %d, want 2", got)
	}
}

func TestProcess_MalformedMessageIsNotRetried(t *testing.T) {
	store := memory.NewStore()
	p := newTestProcessor(store)

	body := `{"deviceId":`
	retry, _, err := p.Process(context.Background(), types.Message{Body: &body})
	if err == nil {
		t.Fatal("expected an error for a malformed body")
	}
	if retry {
		t.Fatal("malformed message must not be retried")
	}
}

func TestProcess_UnmatchedBadgeIsStoredAndAcked(t *testing.T) {
	store := memory.NewStore()
	p := newTestProcessor(store)

	msg := deviceMessage(t, DeviceEventMessage{
		DeviceID:   "door-1",
		CardNumber: "UNKNOWN",
		EventType:  "entry",
		EventTime:  time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC),
	})
	retry, _, err := p.Process(context.Background(), msg)
	if err != nil || retry {
		t.Fatalf("retry=%v err=%v, want clean ack", retry, err)
	}

	events := store.Events()
	if len(events) != 1 {
		t.Fatalf("stored events = %d, want 1", len(events))
	}
	if events[0].EmployeeID != nil {
		t.Errorf("unmatched badge resolved to employee %s", events[0].EmployeeID)
	}
}
