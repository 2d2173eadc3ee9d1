package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"attendance.service/internal/api/handler"
	"attendance.service/internal/core"
	"attendance.service/internal/ports/repository"
)

// NewRouter sets up the gorilla/mux router and defines all API routes.
func NewRouter(coordinator *core.Processor, repo repository.Repository) *mux.Router {

	attendanceHandler := handler.AttendanceHandler{
		Coordinator: coordinator,
		Repo:        repo,
	}

	r := mux.NewRouter()

	api := r.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/reprocess", attendanceHandler.ReprocessDay).Methods(http.MethodPost)
	api.HandleFunc("/reprocess/period", attendanceHandler.ReprocessPeriod).Methods(http.MethodPost)
	api.HandleFunc("/reprocess/all", attendanceHandler.ReprocessAll).Methods(http.MethodPost)
	api.HandleFunc("/employees/{employeeId}/sessions", attendanceHandler.GetSessions).Methods(http.MethodGet)
	api.HandleFunc("/employees/{employeeId}/summaries", attendanceHandler.GetSummaries).Methods(http.MethodGet)
	api.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Service is operational."))
	}).Methods(http.MethodGet)

	return r
}
