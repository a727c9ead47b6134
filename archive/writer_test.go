package archive_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/goleak"

	"github.com/linesmerrill/causelist-api/archive"
	"github.com/linesmerrill/causelist-api/databases/mocks"
	"github.com/linesmerrill/causelist-api/models"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestWriter_DrainsOnStop(t *testing.T) {
	store := &mocks.ArchiveDatabase{}
	store.On("Archive", mock.Anything, mock.AnythingOfType("models.Hearing")).Return(nil)

	w := archive.NewWriter(store, 10, time.Second)
	w.Start()
	assert.True(t, w.Enqueue(models.Hearing{ID: "h1"}))
	assert.True(t, w.Enqueue(models.Hearing{ID: "h2"}))

	assert.NoError(t, w.Stop(context.Background()))
	store.AssertNumberOfCalls(t, "Archive", 2)
	store.AssertCalled(t, "Archive", mock.Anything, models.Hearing{ID: "h1"})
	store.AssertCalled(t, "Archive", mock.Anything, models.Hearing{ID: "h2"})
}

func TestWriter_StoreErrorDoesNotStopWorker(t *testing.T) {
	store := &mocks.ArchiveDatabase{}
	store.On("Archive", mock.Anything, models.Hearing{ID: "bad"}).Return(errors.New("mocked-error"))
	store.On("Archive", mock.Anything, models.Hearing{ID: "good"}).Return(nil)

	w := archive.NewWriter(store, 10, time.Second)
	w.Start()
	w.Enqueue(models.Hearing{ID: "bad"})
	w.Enqueue(models.Hearing{ID: "good"})

	assert.NoError(t, w.Stop(context.Background()))
	store.AssertNumberOfCalls(t, "Archive", 2)
}

func TestWriter_EnqueueDropsWhenFull(t *testing.T) {
	store := &mocks.ArchiveDatabase{}
	store.On("Archive", mock.Anything, mock.Anything).Return(nil)

	// not started, so nothing drains the queue
	w := archive.NewWriter(store, 1, time.Second)
	assert.True(t, w.Enqueue(models.Hearing{ID: "h1"}))
	assert.False(t, w.Enqueue(models.Hearing{ID: "h2"}))

	assert.NoError(t, w.Stop(context.Background()))
	store.AssertNumberOfCalls(t, "Archive", 1)
}

func TestWriter_StopHonoursContext(t *testing.T) {
	release := make(chan struct{})
	store := &mocks.ArchiveDatabase{}
	store.On("Archive", mock.Anything, mock.Anything).Return(nil).Run(func(mock.Arguments) {
		<-release
	})

	w := archive.NewWriter(store, 1, time.Second)
	w.Start()
	w.Enqueue(models.Hearing{ID: "slow"})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, w.Stop(ctx), context.DeadlineExceeded)

	close(release)
	assert.NoError(t, w.Stop(context.Background()))
}

func TestWriter_EnqueueAfterStop(t *testing.T) {
	store := &mocks.ArchiveDatabase{}
	store.On("Archive", mock.Anything, mock.Anything).Return(nil)

	w := archive.NewWriter(store, 10, time.Second)
	w.Start()
	assert.NoError(t, w.Stop(context.Background()))

	assert.NotPanics(t, func() {
		assert.False(t, w.Enqueue(models.Hearing{ID: "late"}))
	})
	assert.NoError(t, w.Stop(context.Background()), "stopping twice is a no-op")
	store.AssertNotCalled(t, "Archive", mock.Anything, mock.Anything)
}
