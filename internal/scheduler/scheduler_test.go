package scheduler

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Niiaks/Ledgerly/internal/ledger"
	"github.com/Niiaks/Ledgerly/internal/middleware"
	"github.com/Niiaks/Ledgerly/internal/model"
	"github.com/Niiaks/Ledgerly/internal/testutil"
)

type MockLoader struct {
	mock.Mock
}

func (m *MockLoader) LoadAll(ctx context.Context) ([]model.Transaction, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Transaction), args.Error(1)
}

type MockDueRunner struct {
	mock.Mock
}

func (m *MockDueRunner) RunDue(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func quietLogger() zerolog.Logger {
	return zerolog.New(nil).Level(zerolog.Disabled)
}

func TestLedgerRefreshJobReloadsStore(t *testing.T) {
	store := ledger.NewStore(nil)
	loader := new(MockLoader)
	loader.On("LoadAll", mock.Anything).Return([]model.Transaction{
		testutil.NewTransaction("t-1", "100"),
		testutil.NewTransaction("t-2", "50"),
	}, nil)

	job := NewLedgerRefreshJob(loader, store, quietLogger())
	require.NoError(t, job.Run(context.Background()))

	assert.Equal(t, 2, store.Snapshot().Len())
	loader.AssertExpectations(t)
}

func TestLedgerRefreshJobKeepsSnapshotOnInvalidRows(t *testing.T) {
	store := ledger.NewStore(nil)
	bad := testutil.NewTransaction("t-1", "100")
	bad.NetToSeller = bad.Amount

	loader := new(MockLoader)
	loader.On("LoadAll", mock.Anything).Return([]model.Transaction{bad}, nil)

	err := NewLedgerRefreshJob(loader, store, quietLogger()).Run(context.Background())
	var invErr *model.DataInvariantError
	require.True(t, errors.As(err, &invErr))
	assert.Zero(t, store.Snapshot().Len())
}

func TestPayoutRunJobRefreshesFirst(t *testing.T) {
	store := ledger.NewStore(nil)
	loader := new(MockLoader)
	loader.On("LoadAll", mock.Anything).Return([]model.Transaction{testutil.NewTransaction("t-1", "100")}, nil)
	runner := new(MockDueRunner)
	runner.On("RunDue", mock.Anything).Return(1, nil)

	job := NewPayoutRunJob(NewLedgerRefreshJob(loader, store, quietLogger()), runner, quietLogger())
	require.NoError(t, job.Run(context.Background()))

	loader.AssertExpectations(t)
	runner.AssertExpectations(t)
}

func TestPayoutRunJobSkipsRunWhenRefreshFails(t *testing.T) {
	loader := new(MockLoader)
	loader.On("LoadAll", mock.Anything).Return(nil, errors.New("db down"))
	runner := new(MockDueRunner)

	job := NewPayoutRunJob(NewLedgerRefreshJob(loader, ledger.NewStore(nil), quietLogger()), runner, quietLogger())
	assert.Error(t, job.Run(context.Background()))
	runner.AssertNotCalled(t, "RunDue", mock.Anything)
}

type countingJob struct {
	runs   int
	err    error
	runIDs []string
}

func (j *countingJob) Run(ctx context.Context) error {
	j.runs++
	j.runIDs = append(j.runIDs, middleware.GetRequestIDFromContext(ctx))
	return j.err
}

func (j *countingJob) Name() string { return "counting" }

func TestSchedulerAddJobRejectsBadSpec(t *testing.T) {
	s := New(quietLogger())
	assert.Error(t, s.AddJob("every now and then", &countingJob{}))
	assert.NoError(t, s.AddJob("@every 15m", &countingJob{}))
	assert.NoError(t, s.AddJob("0 0 1,15 * *", &countingJob{}))
}

func TestSchedulerRunNow(t *testing.T) {
	s := New(quietLogger())
	job := &countingJob{}
	require.NoError(t, s.RunNow(job))
	assert.Equal(t, 1, job.runs)

	job.err = errors.New("boom")
	assert.EqualError(t, s.RunNow(job), "boom")

	require.Len(t, job.runIDs, 2)
	assert.NotEmpty(t, job.runIDs[0])
	assert.NotEqual(t, job.runIDs[0], job.runIDs[1], "every run is correlated separately")
}
