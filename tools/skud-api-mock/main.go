package main

import (
	"encoding/json"
	"log"
	"math/rand"
	"net/http"
	"time"
)

// Mirrors the access log shape the real SKUD controller API returns.
type AccessLog struct {
	ID         string    `json:"id"`
	EmployeeID string    `json:"employee_id"`
	DeviceID   string    `json:"device_id"`
	CardNumber string    `json:"card_number"`
	EventType  string    `json:"event_type"`
	EventTime  time.Time `json:"event_time"`
	RawData    string    `json:"raw_data,omitempty"`
}

func accessLogsHandler(w http.ResponseWriter, r *http.Request) {
	employeeID := r.URL.Query().Get("employee_id")
	startDate := r.URL.Query().Get("start_date")
	endDate := r.URL.Query().Get("end_date")
	if employeeID == "" || startDate == "" || endDate == "" {
		http.Error(w, "Missing query parameters", http.StatusBadRequest)
		return
	}

	start, err := time.Parse("2006-01-02", startDate)
	if err != nil {
		http.Error(w, "Bad start_date", http.StatusBadRequest)
		return
	}
	end, err := time.Parse("2006-01-02", endDate)
	if err != nil {
		http.Error(w, "Bad end_date", http.StatusBadRequest)
		return
	}

	var logs []AccessLog
	for date := start; !date.After(end); date = date.AddDate(0, 0, 1) {
		logs = append(logs, generateDay(employeeID, date)...)
	}

	log.Printf("Serving %d access logs for employee %s (%s..%s)", len(logs), employeeID, startDate, endDate)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"data": logs})
}

// generateDay fabricates a plausible working day: morning entry, lunch break,
// evening exit, with some jitter. Roughly one day in ten loses its last exit
// so missing-exit handling can be exercised locally.
func generateDay(employeeID string, date time.Time) []AccessLog {
	entry := date.Add(time.Duration(8*3600+rand.Intn(5400)) * time.Second)
	lunchOut := entry.Add(time.Duration(3*3600+rand.Intn(3600)) * time.Second)
	lunchIn := lunchOut.Add(time.Duration(1800+rand.Intn(1800)) * time.Second)
	exit := lunchIn.Add(time.Duration(4*3600+rand.Intn(3600)) * time.Second)

	logs := []AccessLog{
		event(employeeID, "entry", entry),
		event(employeeID, "exit", lunchOut),
		event(employeeID, "entry", lunchIn),
		event(employeeID, "exit", exit),
	}
	if rand.Intn(10) == 0 {
		logs = logs[:3]
	}
	return logs
}

func event(employeeID, kind string, at time.Time) AccessLog {
	return AccessLog{
		ID:         randomHex(16),
		EmployeeID: employeeID,
		DeviceID:   "turnstile-1",
		CardNumber: "MOCK-" + employeeID,
		EventType:  kind,
		EventTime:  at.UTC(),
	}
}

func randomHex(n int) string {
	const digits = "0123456789abcdef"
	b := make([]byte, n)
	for i := range b {
		b[i] = digits[rand.Intn(len(digits))]
	}
	return string(b)
}

func main() {
	http.HandleFunc("/access-logs", accessLogsHandler)
	log.Println("SKUD API mock server starting on port 8081...")
	log.Fatal(http.ListenAndServe(":8081", nil))
}
