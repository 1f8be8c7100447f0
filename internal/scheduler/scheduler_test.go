package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"ywbilling/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCore struct {
	calls atomic.Int32
	err   error
}

func (f *fakeCore) MarkOverdue(_ context.Context) (int, error) {
	f.calls.Add(1)
	return 2, f.err
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestStartRejectsBadSchedule(t *testing.T) {
	s := New(config.Scheduler{Overdue: "not a schedule"}, &fakeCore{}, nil, discard())
	assert.Error(t, s.Start())
}

func TestStartStop(t *testing.T) {
	s := New(config.Scheduler{Overdue: "0 * * * *"}, &fakeCore{}, nil, discard())
	require.NoError(t, s.Start())
	assert.Len(t, s.cron.Entries(), 1)
	<-s.Stop().Done()
}

func TestOverdueJob(t *testing.T) {
	core := &fakeCore{}
	s := New(config.Scheduler{}, core, nil, discard())
	s.overdueJob()
	assert.Equal(t, int32(1), core.calls.Load())

	core.err = errors.New("store down")
	s.overdueJob()
	assert.Equal(t, int32(2), core.calls.Load())
}
