package jobs_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"carservice/internal/core/application/usecases/commands"
	"carservice/internal/jobs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockPendingOrderExpirer struct{ mock.Mock }

func (m *MockPendingOrderExpirer) Handle(ctx context.Context, cmd commands.ExpirePendingOrdersCommand) (int, error) {
	args := m.Called(ctx, cmd)
	return args.Int(0), args.Error(1)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func olderThan(d time.Duration) any {
	return mock.MatchedBy(func(cmd commands.ExpirePendingOrdersCommand) bool {
		return cmd.Validate() == nil && cmd.OlderThan() == d
	})
}

func TestPendingExpiryJob_RunOnce(t *testing.T) {
	handler := new(MockPendingOrderExpirer)
	handler.On("Handle", mock.Anything, olderThan(2*time.Hour)).Return(3, nil).Once()

	job := jobs.NewPendingExpiryJob(handler, "", 2*time.Hour, discardLogger())

	assert.Equal(t, 3, job.RunOnce(t.Context()))
	handler.AssertExpectations(t)
}

func TestPendingExpiryJob_RunOnceReportsPartialProgress(t *testing.T) {
	handler := new(MockPendingOrderExpirer)
	handler.On("Handle", mock.Anything, mock.Anything).Return(1, errors.New("connection reset")).Once()

	job := jobs.NewPendingExpiryJob(handler, "", time.Hour, discardLogger())

	assert.Equal(t, 1, job.RunOnce(t.Context()))
}

func TestPendingExpiryJob_RunOnceWithInvalidTTL(t *testing.T) {
	handler := new(MockPendingOrderExpirer)
	job := jobs.NewPendingExpiryJob(handler, "", 0, discardLogger())

	assert.Zero(t, job.RunOnce(t.Context()))
	handler.AssertNotCalled(t, "Handle", mock.Anything, mock.Anything)
}

func TestPendingExpiryJob_RunsOnSchedule(t *testing.T) {
	handler := new(MockPendingOrderExpirer)
	called := make(chan struct{}, 8)
	handler.On("Handle", mock.Anything, olderThan(time.Hour)).
		Run(func(mock.Arguments) { called <- struct{}{} }).
		Return(0, nil)

	job := jobs.NewPendingExpiryJob(handler, "@every 1s", time.Hour, discardLogger())
	require.NoError(t, job.Start())
	defer job.Stop()

	select {
	case <-called:
	case <-time.After(5 * time.Second):
		t.Fatal("job did not run on its schedule")
	}
}

func TestPendingExpiryJob_RejectsInvalidSchedule(t *testing.T) {
	job := jobs.NewPendingExpiryJob(new(MockPendingOrderExpirer), "every minute", time.Hour, discardLogger())

	assert.Error(t, job.Start())
}

type fakeJob struct {
	name     string
	startErr error
	events   *[]string
}

func (j fakeJob) Start() error {
	if j.startErr != nil {
		return j.startErr
	}
	*j.events = append(*j.events, "start "+j.name)
	return nil
}

func (j fakeJob) Stop() {
	*j.events = append(*j.events, "stop "+j.name)
}

func TestJobManager_StartAndStopInReverseOrder(t *testing.T) {
	var events []string
	manager := jobs.NewJobManager(fakeJob{name: "a", events: &events}, fakeJob{name: "b", events: &events})

	require.NoError(t, manager.StartAll())
	manager.StopAll()
	manager.StopAll()

	assert.Equal(t, []string{"start a", "start b", "stop b", "stop a"}, events)
}

func TestJobManager_StopsStartedJobsWhenOneFails(t *testing.T) {
	var events []string
	startErr := errors.New("bad schedule")
	manager := jobs.NewJobManager(
		fakeJob{name: "a", events: &events},
		fakeJob{name: "b", events: &events, startErr: startErr},
		fakeJob{name: "c", events: &events},
	)

	err := manager.StartAll()

	require.ErrorIs(t, err, startErr)
	assert.Equal(t, []string{"start a", "stop a"}, events)
}
