package jobstorage

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/atlanticdynamic/appforge/internal/job"
	"github.com/atlanticdynamic/appforge/internal/job/finitestate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newJob(t *testing.T) *job.BuildJob {
	t.Helper()
	j, err := job.New([]byte(`{}`), "", slog.Default().Handler())
	require.NoError(t, err)
	return j
}

func finishedJob(t *testing.T) *job.BuildJob {
	t.Helper()
	j := newJob(t)
	require.NoError(t, j.Advance(finitestate.StageValidating))
	require.NoError(t, j.MarkFailed(errors.New("invalid")))
	return j
}

func TestMemoryStorage_AddAndGet(t *testing.T) {
	t.Parallel()

	s := NewMemoryStorage()
	a, b := newJob(t), newJob(t)
	require.NoError(t, s.Add(a))
	require.NoError(t, s.Add(b))
	require.NoError(t, s.Add(nil))

	assert.Same(t, a, s.GetByID(a.ID.String()))
	assert.Same(t, b, s.GetByID(b.ID.String()))
	assert.Nil(t, s.GetByID("missing"))
	assert.Equal(t, []*job.BuildJob{a, b}, s.GetAll())
}

func TestMemoryStorage_HistoryKeepsActiveJobs(t *testing.T) {
	t.Parallel()

	s := NewMemoryStorage(WithMaxHistory(2))
	running := newJob(t)
	require.NoError(t, s.Add(running))

	var finished []*job.BuildJob
	for range 4 {
		j := finishedJob(t)
		finished = append(finished, j)
		require.NoError(t, s.Add(j))
	}

	all := s.GetAll()
	require.Len(t, all, 3)
	assert.Same(t, running, all[0], "active jobs are never trimmed")
	assert.Same(t, finished[2], all[1])
	assert.Same(t, finished[3], all[2])
	assert.Equal(t, []*job.BuildJob{running}, s.Active())
}

func TestMemoryStorage_TrimAfterJobsFinish(t *testing.T) {
	t.Parallel()

	s := NewMemoryStorage(WithMaxHistory(1))
	a, b := newJob(t), newJob(t)
	require.NoError(t, s.Add(a))
	require.NoError(t, s.Add(b))

	for _, j := range []*job.BuildJob{a, b} {
		require.NoError(t, j.Advance(finitestate.StageValidating))
		require.NoError(t, j.MarkFailed(errors.New("invalid")))
	}
	assert.Len(t, s.GetAll(), 2)

	s.Trim()
	assert.Equal(t, []*job.BuildJob{b}, s.GetAll())
}
