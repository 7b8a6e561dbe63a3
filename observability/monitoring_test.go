package observability

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func TestMonitoringManager_CountersAndStats(t *testing.T) {
	req := require.New(t)
	mm := NewMonitoringManager(logs.GetLoggerFromLevel(slog.LevelDebug), 5*time.Millisecond)

	// Given some watcher activity
	mm.IncrFetch()
	mm.IncrFetch()
	mm.IncrFetchFailure()
	mm.IncrDetection()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- mm.Run(ctx) }()

	// Then the stats carry both counters and process figures
	req.Eventually(func() bool { return !mm.GetLatest().UpdatedAt.IsZero() }, time.Second, time.Millisecond)
	stats := mm.GetLatest()
	req.Equal(uint64(2), stats.Fetches)
	req.Equal(uint64(1), stats.FetchFailures)
	req.Equal(uint64(1), stats.Detections)
	req.Positive(stats.Goroutines)

	// And Run returns cleanly on cancel
	cancel()
	req.NoError(<-done)
}
