package registry

import (
	"fmt"
	"sort"
	"time"

	"github.com/linesmerrill/causelist-api/models"
)

// ComputeDerivedAlerts builds the dashboard alert feed, most recent first. Every active
// hearing still PENDING or NOT_READY past its deadline is flagged as overdue; readiness
// and order events recorded by the registry follow in reverse order of occurrence.
func (r *Registry) ComputeDerivedAlerts() []models.Alert {
	s := r.state.Load()
	now := r.now()

	alerts := make([]models.Alert, 0, len(s.events)+len(s.hearings))
	for _, h := range s.hearings {
		if !overdue(h, now) {
			continue
		}
		alerts = append(alerts, models.Alert{
			ID:        "overdue-" + h.ID,
			Type:      models.AlertSystem,
			Message:   fmt.Sprintf("Deadline passed for %s. Auto-flagged %s.", h.CaseNumber, h.Status),
			CreatedAt: now,
		})
	}
	for i := len(s.events) - 1; i >= 0; i-- {
		alerts = append(alerts, s.events[i])
	}

	sort.SliceStable(alerts, func(i, j int) bool {
		return alerts[i].CreatedAt.After(alerts[j].CreatedAt)
	})
	for i := range alerts {
		alerts[i].Time = relativeTime(now, alerts[i].CreatedAt)
	}
	return alerts
}

func overdue(h models.Hearing, now time.Time) bool {
	if h.Status != models.StatusPending && h.Status != models.StatusNotReady {
		return false
	}
	return !h.Deadline.IsZero() && h.Deadline.Before(now)
}

func relativeTime(now, t time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d/time.Minute))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d/time.Hour))
	default:
		return fmt.Sprintf("%dd ago", int(d/(24*time.Hour)))
	}
}
