// Package seed supplies the initial docket the registry starts from.
package seed

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/linesmerrill/causelist-api/models"
	"github.com/linesmerrill/causelist-api/registry"
)

// Data is everything the registry is seeded with
type Data struct {
	Hearings    []models.Hearing
	Stats       models.Stats
	CaseSummary models.CaseSummary
	Alerts      []models.Alert
}

// Options converts the seeded dashboard values into registry options
func (d Data) Options() []registry.Option {
	return []registry.Option{
		registry.WithStats(d.Stats),
		registry.WithCaseSummary(d.CaseSummary),
		registry.WithAlerts(d.Alerts),
	}
}

// Default returns the demonstration docket for courtroom CR-04
func Default(now time.Time) Data {
	overdue := now.Add(-48 * time.Hour)
	tomorrow := now.Add(24 * time.Hour)

	return Data{
		Hearings: []models.Hearing{
			{
				ID:                "h1",
				TimeSlot:          "10:30 AM",
				Courtroom:         "CR-04",
				CaseNumber:        "WP/2241/2022",
				PartyA:            "Global Tech Solutions",
				PartyB:            "Ministry of IT",
				CaseType:          "Writ Petition",
				Status:            models.StatusReady,
				AttendanceCount:   4,
				PredictedDuration: "45 mins",
				Stage:             "Final Hearing",
				Priority:          models.PriorityHigh,
				AdvocatePresent:   true,
				Deadline:          overdue,
			},
			{
				ID:                "h2",
				TimeSlot:          "11:15 AM",
				Courtroom:         "CR-04",
				CaseNumber:        "OS/455/2021",
				PartyA:            "Amit Kumar",
				PartyB:            "Vikas Builders Ltd.",
				CaseType:          "Civil Suit",
				Status:            models.StatusReady,
				AttendanceCount:   2,
				PredictedDuration: "20 mins",
				Stage:             "Evidence",
				Priority:          models.PriorityMedium,
				AdvocatePresent:   true,
				Deadline:          tomorrow,
			},
			{
				ID:                "h3",
				TimeSlot:          "12:00 PM",
				Courtroom:         "CR-04",
				CaseNumber:        "CA/88/2023",
				PartyA:            "Realty Corp",
				PartyB:            "Zonal Authority",
				CaseType:          "Commercial Arbitration",
				Status:            models.StatusNotReady,
				ReadinessReason:   "Witness unavailable",
				AttendanceCount:   1,
				PredictedDuration: "60 mins",
				Stage:             "Arguments",
				Priority:          models.PriorityHigh,
				Deadline:          overdue,
			},
			{
				ID:                "h4",
				TimeSlot:          "02:30 PM",
				Courtroom:         "CR-04",
				CaseNumber:        "MS/12/2024",
				PartyA:            "Sarah Jenkins",
				PartyB:            "City Municipal",
				CaseType:          "Miscellaneous",
				Status:            models.StatusPending,
				PredictedDuration: "15 mins",
				Stage:             "Admission",
				Priority:          models.PriorityLow,
				Deadline:          tomorrow,
			},
		},
		Stats: models.Stats{
			Today:                   12,
			Month:                   145,
			TotalPending:            842,
			AvgDuration:             "28m",
			ReadinessCompliance:     78,
			TranscriptionEfficiency: 92,
		},
		CaseSummary: models.CaseSummary{
			Over10Years:    42,
			FiveToTenYears: 128,
			OneToFiveYears: 672,
		},
		Alerts: []models.Alert{
			{ID: "a1", Type: models.AlertReadiness, Message: "WP/2241 Advocate confirmed readiness.", CreatedAt: now.Add(-10 * time.Minute)},
			{ID: "a2", Type: models.AlertSystem, Message: "Deadline passed for MS/12. Auto-flagged PENDING.", CreatedAt: now.Add(-time.Hour)},
		},
	}
}

// fileHearing lets a docket file give the deadline relative to load time
type fileHearing struct {
	models.Hearing `yaml:",inline"`
	DeadlineIn     string `yaml:"deadlineIn"`
}

type fileAlert struct {
	models.Alert `yaml:",inline"`
	Ago          string `yaml:"ago"`
}

type file struct {
	Hearings    []fileHearing      `yaml:"hearings"`
	Stats       models.Stats       `yaml:"stats"`
	CaseSummary models.CaseSummary `yaml:"caseSummary"`
	Alerts      []fileAlert        `yaml:"alerts"`
}

// LoadFile reads a YAML docket. A hearing may give `deadlineIn` (a Go duration such as
// "-48h") instead of an absolute `deadline`; alerts may give `ago`.
func LoadFile(path string, now time.Time) (Data, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Data{}, fmt.Errorf("failed to read seed file: %w", err)
	}
	return Parse(b, now)
}

// Parse decodes a YAML docket, see LoadFile
func Parse(b []byte, now time.Time) (Data, error) {
	var f file
	if err := yaml.Unmarshal(b, &f); err != nil {
		return Data{}, fmt.Errorf("failed to decode seed file: %w", err)
	}

	d := Data{Stats: f.Stats, CaseSummary: f.CaseSummary}
	for _, fh := range f.Hearings {
		h := fh.Hearing
		if fh.DeadlineIn != "" {
			dur, err := time.ParseDuration(fh.DeadlineIn)
			if err != nil {
				return Data{}, fmt.Errorf("hearing %s: bad deadlineIn: %w", h.ID, err)
			}
			h.Deadline = now.Add(dur)
		}
		if h.Status == "" {
			h.Status = models.StatusPending
		}
		d.Hearings = append(d.Hearings, h)
	}
	for _, fa := range f.Alerts {
		a := fa.Alert
		if fa.Ago != "" {
			dur, err := time.ParseDuration(fa.Ago)
			if err != nil {
				return Data{}, fmt.Errorf("alert %s: bad ago: %w", a.ID, err)
			}
			a.CreatedAt = now.Add(-dur)
		}
		d.Alerts = append(d.Alerts, a)
	}
	return d, nil
}
