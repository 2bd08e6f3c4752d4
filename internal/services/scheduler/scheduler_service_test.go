package scheduler

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/golfstats/internal/common"
)

func newTestService() *Service {
	return NewService(common.GetLogger())
}

func TestRegisterJob(t *testing.T) {
	s := newTestService()

	err := s.RegisterJob("daily-etl", "0 5 * * *", "Nightly scrape run", func() error { return nil })
	require.NoError(t, err)

	status, err := s.GetJobStatus("daily-etl")
	require.NoError(t, err)
	assert.Equal(t, "daily-etl", status.Name)
	assert.Equal(t, "0 5 * * *", status.Schedule)
	assert.True(t, status.Enabled)
	assert.Nil(t, status.LastRun)
}

func TestRegisterJobDuplicate(t *testing.T) {
	s := newTestService()

	require.NoError(t, s.RegisterJob("daily-etl", "0 5 * * *", "", func() error { return nil }))
	err := s.RegisterJob("daily-etl", "0 6 * * *", "", func() error { return nil })
	assert.Error(t, err)
}

func TestRegisterJobInvalidSchedule(t *testing.T) {
	s := newTestService()

	assert.Error(t, s.RegisterJob("bad", "not a cron expr", "", func() error { return nil }))
	// Sub-5-minute intervals are rejected to protect the vendor sites.
	assert.Error(t, s.RegisterJob("too-fast", "*/1 * * * *", "", func() error { return nil }))
}

func TestEnableDisableJob(t *testing.T) {
	s := newTestService()

	require.NoError(t, s.RegisterJob("weekly-report", "0 6 * * 1", "", func() error { return nil }))

	require.NoError(t, s.DisableJob("weekly-report"))
	status, err := s.GetJobStatus("weekly-report")
	require.NoError(t, err)
	assert.False(t, status.Enabled)
	assert.Nil(t, status.NextRun)

	require.NoError(t, s.EnableJob("weekly-report"))
	status, err = s.GetJobStatus("weekly-report")
	require.NoError(t, err)
	assert.True(t, status.Enabled)

	// Enabling an enabled job is a no-op.
	assert.NoError(t, s.EnableJob("weekly-report"))

	assert.Error(t, s.EnableJob("missing"))
	assert.Error(t, s.DisableJob("missing"))
}

func TestTriggerJobNow(t *testing.T) {
	s := newTestService()

	var calls int32
	require.NoError(t, s.RegisterJob("spool-gc", "0 4 * * *", "", func() error {
		atomic.AddInt32(&calls, 1)
		return nil
	}))

	require.NoError(t, s.TriggerJobNow("spool-gc"))

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&calls) == 1
	}, 2*time.Second, 10*time.Millisecond)

	require.Eventually(t, func() bool {
		status, err := s.GetJobStatus("spool-gc")
		return err == nil && status.LastRun != nil && !status.IsRunning
	}, 2*time.Second, 10*time.Millisecond)

	assert.Error(t, s.TriggerJobNow("missing"))
}

func TestJobFailureRecorded(t *testing.T) {
	s := newTestService()

	require.NoError(t, s.RegisterJob("daily-etl", "0 5 * * *", "", func() error {
		return fmt.Errorf("vendor unreachable")
	}))

	s.executeJob("daily-etl")

	status, err := s.GetJobStatus("daily-etl")
	require.NoError(t, err)
	assert.Equal(t, "vendor unreachable", status.LastError)
	assert.NotNil(t, status.LastRun)
}

func TestJobPanicRecovered(t *testing.T) {
	s := newTestService()

	require.NoError(t, s.RegisterJob("daily-etl", "0 5 * * *", "", func() error {
		panic("scraper blew up")
	}))

	s.executeJob("daily-etl")

	status, err := s.GetJobStatus("daily-etl")
	require.NoError(t, err)
	assert.Contains(t, status.LastError, "panic")
	assert.False(t, status.IsRunning)
}

func TestStartStop(t *testing.T) {
	s := newTestService()

	require.NoError(t, s.RegisterJob("daily-etl", "0 5 * * *", "", func() error { return nil }))

	require.NoError(t, s.Start())
	assert.True(t, s.IsRunning())
	assert.Error(t, s.Start())

	// NextRun is populated once the cron loop is live.
	status, err := s.GetJobStatus("daily-etl")
	require.NoError(t, err)
	assert.NotNil(t, status.NextRun)

	require.NoError(t, s.Stop())
	assert.False(t, s.IsRunning())
	assert.NoError(t, s.Stop())
}

func TestGetAllJobStatuses(t *testing.T) {
	s := newTestService()

	require.NoError(t, s.RegisterJob("daily-etl", "0 5 * * *", "", func() error { return nil }))
	require.NoError(t, s.RegisterJob("weekly-report", "0 6 * * 1", "", func() error { return nil }))

	statuses := s.GetAllJobStatuses()
	assert.Len(t, statuses, 2)
	assert.Contains(t, statuses, "daily-etl")
	assert.Contains(t, statuses, "weekly-report")
}
