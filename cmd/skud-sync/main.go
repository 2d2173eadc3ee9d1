// skud-sync pulls access logs from the SKUD vendor API for every active
// employee and rebuilds the affected days. Run it from cron to backfill days
// the push-based ingestion missed.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"attendance.service/internal/config"
	"attendance.service/internal/core"
	"attendance.service/internal/core/model"
	"attendance.service/internal/ports/repository"
	"attendance.service/internal/worker/skudapi"
	"attendance.service/pkg/database"
	"attendance.service/pkg/logger"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

func main() {
	dateFlag := flag.String("date", "", "date to sync (YYYY-MM-DD, default yesterday)")
	force := flag.Bool("force", false, "also replace manually corrected sessions")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Could not load configuration")
	}
	logger.Setup(cfg.IsLocalDev)

	date := model.DateOf(time.Now().UTC().AddDate(0, 0, -1))
	if *dateFlag != "" {
		parsed, err := time.Parse("2006-01-02", *dateFlag)
		if err != nil {
			log.Fatal().Err(err).Msg("Invalid -date, use YYYY-MM-DD")
		}
		date = model.DateOf(parsed)
	}

	db, err := database.NewConnection(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Error opening database")
	}
	defer db.Close()

	repo := repository.NewAttendanceRepository(db)
	employees := repository.NewPostgresEmployeeDirectory(db)
	coordinator := core.NewProcessor(repo, employees)
	coordinator.Concurrency = cfg.RebuildWorkers
	client := skudapi.NewHTTPClient(cfg.SKUDAPIURL, cfg.SKUDAPIKey)

	ctx := context.Background()

	active, err := employees.ListActive(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to list active employees")
	}

	synced, failed := 0, 0
	for _, emp := range active {
		if err := syncEmployee(ctx, client, repo, emp, date); err != nil {
			log.Error().Err(err).Str("employee_id", emp.ID.String()).Msg("Sync failed")
			failed++
			continue
		}

		ok := false
		if *force {
			ok = coordinator.ProcessDayForced(ctx, emp.ID, date)
		} else {
			ok = coordinator.ProcessDay(ctx, emp.ID, date)
		}
		if !ok {
			failed++
			continue
		}
		synced++
	}

	log.Info().
		Str("date", date.Format("2006-01-02")).
		Int("synced", synced).
		Int("failed", failed).
		Msg("SKUD sync finished")

	if failed > 0 {
		os.Exit(1)
	}
}

func syncEmployee(ctx context.Context, client skudapi.Client, repo repository.Repository, emp model.Employee, date time.Time) error {
	logs, err := client.GetAccessLogs(ctx, emp.ExternalID, date, date)
	if err != nil {
		return err
	}

	for _, rec := range logs {
		id := emp.ID
		ev := model.RawAccessEvent{
			ID:         syncEventID(emp.ID, rec),
			DeviceID:   rec.DeviceID,
			EmployeeID: &id,
			CardNumber: rec.CardNumber,
			EventType:  model.EventKind(rec.EventType),
			EventTime:  rec.EventTime.UTC(),
			RawData:    rec.RawData,
		}
		if err := repo.InsertEvent(ctx, &ev); err != nil {
			return err
		}
	}
	return nil
}

// syncEventID derives a stable ID from the record's identity, so re-syncing
// the same day is a no-op instead of a duplicate insert.
func syncEventID(employeeID uuid.UUID, rec skudapi.AccessLog) uuid.UUID {
	key := fmt.Sprintf("%s|%s|%s|%s", employeeID, rec.DeviceID, rec.EventType, rec.EventTime.UTC().Format(time.RFC3339))
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(key))
}
