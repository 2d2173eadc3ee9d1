package core

import (
	"math"
	"time"

	"attendance.service/internal/core/model"
)

// DayFacts are the per-date schedule facts needed to judge a day. Excused is
// true when an approved vacation or business trip covers the date.
type DayFacts struct {
	Excused bool
}

// AggregateDay folds the full session set of one (employee, date) unit into
// its day summary. The summary identity (ID) is assigned by the store; this
// function only computes field values.
//
// Open sessions are measured up to now, so a summary that includes one stays
// volatile until the session is closed or the day is reprocessed.
func AggregateDay(employee model.Employee, date time.Time, sessions []model.Session, facts DayFacts, now time.Time) model.DaySummary {
	summary := model.DaySummary{
		EmployeeID:    employee.ID,
		Date:          date,
		SessionsCount: len(sessions),
	}

	var total int64
	for _, s := range sessions {
		total += int64(s.Duration(now).Seconds())

		if summary.FirstEntry == nil || s.StartTime.Before(*summary.FirstEntry) {
			start := s.StartTime
			summary.FirstEntry = &start
		}
		if s.EndTime != nil && (summary.LastExit == nil || s.EndTime.After(*summary.LastExit)) {
			end := *s.EndTime
			summary.LastExit = &end
		}

		if s.IsOpen() {
			summary.HasMissingExit = true
		}
		if s.Status != model.SessionAuto {
			summary.HasManualCorrections = true
		}
	}

	summary.TotalSecondsInOffice = total
	summary.ExpectedSeconds = expectedSeconds(employee, facts)
	if diff := total - summary.ExpectedSeconds; diff > 0 {
		summary.OvertimeSeconds = diff
	} else {
		summary.UnderworkSeconds = -diff
	}

	summary.Status = dayStatus(sessions, summary, facts)
	return summary
}

// expectedSeconds is the scheduled workload: daily hours scaled by the
// employment fraction. Vacation or business trip zeroes it regardless of any
// recorded events.
func expectedSeconds(employee model.Employee, facts DayFacts) int64 {
	if facts.Excused {
		return 0
	}
	return int64(math.Round(employee.DailyHours * employee.WorkFraction * 3600))
}

// dayStatus classifies the day. First matching rule wins.
func dayStatus(sessions []model.Session, summary model.DaySummary, facts DayFacts) model.SummaryStatus {
	switch {
	case facts.Excused:
		return model.StatusExcused
	case len(sessions) == 0:
		return model.StatusAbsent
	case summary.HasMissingExit:
		return model.StatusProblem
	case summary.HasManualCorrections:
		return model.StatusPartial
	case summary.ExpectedSeconds > 0 && summary.TotalSecondsInOffice*2 < summary.ExpectedSeconds:
		return model.StatusPartial
	default:
		return model.StatusPresent
	}
}
