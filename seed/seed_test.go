package seed_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linesmerrill/causelist-api/models"
	"github.com/linesmerrill/causelist-api/registry"
	"github.com/linesmerrill/causelist-api/seed"
)

var now = time.Date(2025, 7, 8, 9, 0, 0, 0, time.UTC)

func TestDefault_SeedsRegistry(t *testing.T) {
	d := seed.Default(now)

	r, err := registry.New(d.Hearings, append(d.Options(), registry.WithClock(func() time.Time { return now }))...)
	require.NoError(t, err)

	hs := r.ListActiveHearings()
	require.Len(t, hs, 4)
	assert.Equal(t, "h1", hs[0].ID)
	assert.Equal(t, "h2", hs[1].ID)
	assert.Equal(t, 12, r.Stats().Today)
	assert.Equal(t, 42, r.CaseSummary().Over10Years)

	alerts := r.ComputeDerivedAlerts()
	// h3 is NOT_READY past its deadline, plus the two feed alerts
	require.Len(t, alerts, 3)
	assert.Equal(t, "overdue-h3", alerts[0].ID)
	assert.Equal(t, "a1", alerts[1].ID)
	assert.Equal(t, "a2", alerts[2].ID)
}

func TestLoadFile(t *testing.T) {
	d, err := seed.LoadFile("testdata/docket.yaml", now)
	require.NoError(t, err)

	require.Len(t, d.Hearings, 2)
	h10 := d.Hearings[0]
	assert.Equal(t, "CRL/17/2020", h10.CaseNumber)
	assert.Equal(t, models.StatusNotReady, h10.Status)
	assert.Equal(t, "Documents pending", h10.ReadinessReason)
	assert.Equal(t, models.PriorityHigh, h10.Priority)
	assert.Equal(t, now.Add(-48*time.Hour), h10.Deadline)

	h11 := d.Hearings[1]
	assert.Equal(t, models.StatusPending, h11.Status, "status defaults to PENDING")
	assert.Equal(t, time.Date(2030, 1, 2, 10, 0, 0, 0, time.UTC), h11.Deadline.UTC())

	assert.Equal(t, 310, d.Stats.TotalPending)
	assert.Equal(t, 245, d.CaseSummary.OneToFiveYears)
	require.Len(t, d.Alerts, 1)
	assert.Equal(t, models.AlertReview, d.Alerts[0].Type)
	assert.Equal(t, now.Add(-2*time.Hour), d.Alerts[0].CreatedAt)

	_, err = registry.New(d.Hearings, d.Options()...)
	assert.NoError(t, err)
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := seed.LoadFile("testdata/nope.yaml", now)
	assert.Error(t, err)
}

func TestParse_BadDuration(t *testing.T) {
	_, err := seed.Parse([]byte("hearings:\n  - id: h1\n    deadlineIn: soon\n"), now)
	assert.ErrorContains(t, err, "bad deadlineIn")
}
