package cron

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qs3c/comment_go_server/internal/service"
)

type fakePurger struct {
	mu     sync.Mutex
	calls  int
	batch  int
	dryRun bool
	result *service.PurgeResult
	err    error
}

func (f *fakePurger) PurgeExpired(ctx context.Context, batch int, dryRun bool) (*service.PurgeResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.batch = batch
	f.dryRun = dryRun
	return f.result, f.err
}

func (f *fakePurger) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestNewService_DefaultInterval(t *testing.T) {
	logger, _ := test.NewNullLogger()

	svc := NewService(&fakePurger{}, 0, 50, logger)
	assert.Equal(t, 10*time.Minute, svc.interval)

	svc = NewService(&fakePurger{}, 3, 50, logger)
	assert.Equal(t, 3*time.Minute, svc.interval)
}

func TestService_RunNow(t *testing.T) {
	logger, hook := test.NewNullLogger()
	purger := &fakePurger{result: &service.PurgeResult{Scanned: 3, Deleted: 2, Failed: 1}}
	svc := NewService(purger, 1, 25, logger)

	result, err := svc.RunNow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, result.Deleted)
	assert.Equal(t, 25, purger.batch)
	assert.False(t, purger.dryRun)

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.InfoLevel, entry.Level)
	assert.Equal(t, 1, entry.Data["failed"])
}

func TestService_RunNow_NothingExpired(t *testing.T) {
	logger, hook := test.NewNullLogger()
	svc := NewService(&fakePurger{result: &service.PurgeResult{}}, 1, 25, logger)

	_, err := svc.RunNow(context.Background())
	require.NoError(t, err)
	assert.Empty(t, hook.AllEntries())
}

func TestService_RunNow_Error(t *testing.T) {
	logger, _ := test.NewNullLogger()
	svc := NewService(&fakePurger{err: errors.New("db down")}, 1, 25, logger)

	_, err := svc.RunNow(context.Background())
	assert.EqualError(t, err, "db down")
}

func TestService_StartAndStop(t *testing.T) {
	logger, _ := test.NewNullLogger()
	purger := &fakePurger{result: &service.PurgeResult{}}
	svc := NewService(purger, 1, 25, logger)
	svc.interval = 5 * time.Millisecond

	svc.Start()
	assert.Eventually(t, func() bool { return purger.callCount() >= 2 }, time.Second, 5*time.Millisecond)
	svc.Stop()

	stopped := purger.callCount()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, stopped, purger.callCount())
}

func TestService_StopTwice(t *testing.T) {
	logger, _ := test.NewNullLogger()
	svc := NewService(&fakePurger{result: &service.PurgeResult{}}, 1, 25, logger)

	svc.Start()
	svc.Stop()
	assert.NotPanics(t, svc.Stop)
}
