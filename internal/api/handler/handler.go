package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"attendance.service/internal/core"
	"attendance.service/internal/ports/repository"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

const dateLayout = "2006-01-02"

type AttendanceHandler struct {
	Coordinator *core.Processor
	Repo        repository.Repository
}

type ReprocessDayRequest struct {
	EmployeeID string `json:"employeeId"`
	Date       string `json:"date"`
	Force      bool   `json:"force,omitempty"`
}

// ReprocessDay rebuilds one (employee, date) unit.
func (h *AttendanceHandler) ReprocessDay(w http.ResponseWriter, r *http.Request) {
	var req ReprocessDayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	employeeID, err := uuid.Parse(req.EmployeeID)
	if err != nil {
		http.Error(w, "employeeId must be a UUID", http.StatusBadRequest)
		return
	}
	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		http.Error(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	ok := false
	if req.Force {
		ok = h.Coordinator.ProcessDayForced(r.Context(), employeeID, date)
	} else {
		ok = h.Coordinator.ProcessDay(r.Context(), employeeID, date)
	}
	if !ok {
		http.Error(w, "Reprocessing failed, see service logs", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"processed": true})
}

type ReprocessPeriodRequest struct {
	EmployeeID string `json:"employeeId"`
	FromDate   string `json:"fromDate"`
	ToDate     string `json:"toDate"`
}

// ReprocessPeriod rebuilds every date in a range for one employee.
func (h *AttendanceHandler) ReprocessPeriod(w http.ResponseWriter, r *http.Request) {
	var req ReprocessPeriodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	employeeID, err := uuid.Parse(req.EmployeeID)
	if err != nil {
		http.Error(w, "employeeId must be a UUID", http.StatusBadRequest)
		return
	}
	from, err := time.Parse(dateLayout, req.FromDate)
	if err != nil {
		http.Error(w, "fromDate must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	to, err := time.Parse(dateLayout, req.ToDate)
	if err != nil {
		http.Error(w, "toDate must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	if from.After(to) {
		http.Error(w, "fromDate is after toDate", http.StatusBadRequest)
		return
	}

	processed := h.Coordinator.ReprocessPeriod(r.Context(), employeeID, from, to)
	writeJSON(w, http.StatusOK, map[string]any{"processedDays": processed})
}

type ReprocessAllRequest struct {
	Date string `json:"date"`
}

// ReprocessAll rebuilds one date for every active employee.
func (h *AttendanceHandler) ReprocessAll(w http.ResponseWriter, r *http.Request) {
	var req ReprocessAllRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		http.Error(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	result := h.Coordinator.ReprocessAllForDate(r.Context(), date)
	writeJSON(w, http.StatusOK, result)
}

// GetSessions returns the sessions of one employee for one date.
func (h *AttendanceHandler) GetSessions(w http.ResponseWriter, r *http.Request) {
	employeeID, err := uuid.Parse(mux.Vars(r)["employeeId"])
	if err != nil {
		http.Error(w, "employeeId must be a UUID", http.StatusBadRequest)
		return
	}
	date, err := time.Parse(dateLayout, r.URL.Query().Get("date"))
	if err != nil {
		http.Error(w, "date query parameter must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	sessions, err := h.Repo.SessionsForDay(r.Context(), employeeID, date)
	if err != nil {
		http.Error(w, "Failed to load sessions", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": sessions})
}

// GetSummaries returns the day summaries of one employee over a date range.
func (h *AttendanceHandler) GetSummaries(w http.ResponseWriter, r *http.Request) {
	employeeID, err := uuid.Parse(mux.Vars(r)["employeeId"])
	if err != nil {
		http.Error(w, "employeeId must be a UUID", http.StatusBadRequest)
		return
	}
	from, err := time.Parse(dateLayout, r.URL.Query().Get("from"))
	if err != nil {
		http.Error(w, "from query parameter must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	to, err := time.Parse(dateLayout, r.URL.Query().Get("to"))
	if err != nil {
		http.Error(w, "to query parameter must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	summaries, err := h.Repo.ListSummaries(r.Context(), employeeID, from, to)
	if err != nil {
		http.Error(w, "Failed to load summaries", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"summaries": summaries})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
