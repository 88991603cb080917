package breaker_test

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/chaptrailapp/chaptrail-server/internal/breaker"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRecordFatalTripsImmediately(t *testing.T) {
	b := breaker.New(5, nil, testLogger())

	require.False(t, b.IsDown("Asuracomic"))
	b.RecordFatal("Asuracomic", "status 521")
	require.True(t, b.IsDown("Asuracomic"))
	require.False(t, b.IsDown("Mangabuddy"))
}

func TestRecordTimeoutTripsAtThreshold(t *testing.T) {
	b := breaker.New(3, nil, testLogger())

	require.False(t, b.RecordTimeout("Asuracomic"))
	require.False(t, b.RecordTimeout("Asuracomic"))
	require.False(t, b.IsDown("Asuracomic"))

	// The third strike tips it; later strikes report false because the
	// origin is already down.
	require.True(t, b.RecordTimeout("Asuracomic"))
	require.True(t, b.IsDown("Asuracomic"))
	require.False(t, b.RecordTimeout("Asuracomic"))
}

func TestRecordTimeoutCountsPerOrigin(t *testing.T) {
	b := breaker.New(2, nil, testLogger())

	require.False(t, b.RecordTimeout("Asuracomic"))
	require.False(t, b.RecordTimeout("Mangabuddy"))
	require.False(t, b.IsDown("Asuracomic"))
	require.False(t, b.IsDown("Mangabuddy"))
}

func TestTimeoutThresholdOverride(t *testing.T) {
	b := breaker.New(2, map[string]int{"Asuracomic": 4}, testLogger())

	require.False(t, b.RecordTimeout("Asuracomic"))
	require.False(t, b.RecordTimeout("Asuracomic"))
	require.False(t, b.RecordTimeout("Asuracomic"))
	require.True(t, b.RecordTimeout("Asuracomic"))

	// Other origins still use the default.
	require.False(t, b.RecordTimeout("Mangabuddy"))
	require.True(t, b.RecordTimeout("Mangabuddy"))
}

func TestResetAllClearsExclusionsAndStrikes(t *testing.T) {
	b := breaker.New(2, nil, testLogger())

	b.RecordFatal("Asuracomic", "status 403")
	require.False(t, b.RecordTimeout("Mangabuddy"))

	b.ResetAll()

	require.False(t, b.IsDown("Asuracomic"))
	require.Empty(t, b.Down())
	// Strike counts start over too.
	require.False(t, b.RecordTimeout("Mangabuddy"))
}

func TestDownListsExcludedOrigins(t *testing.T) {
	b := breaker.New(5, nil, testLogger())

	b.RecordFatal("Asuracomic", "name not resolved")
	b.RecordFatal("Flamescans", "status 521")

	down := b.Down()
	require.Len(t, down, 2)
	require.Contains(t, down, "Asuracomic")
	require.Contains(t, down, "Flamescans")
}

func TestLoadStatsAccumulatesPerOrigin(t *testing.T) {
	stats := breaker.NewLoadStats()

	stats.Add("Asuracomic", 2*time.Second)
	stats.Add("Asuracomic", 4*time.Second)
	stats.Add("Mangabuddy", time.Second)

	reports := stats.Slowest(10)
	require.Len(t, reports, 2)

	// Ordered by total time, longest first.
	require.Equal(t, "Asuracomic", reports[0].Origin)
	require.Equal(t, 2, reports[0].Fetches)
	require.Equal(t, 2*time.Second, reports[0].Shortest)
	require.Equal(t, 4*time.Second, reports[0].Longest)
	require.Equal(t, 3*time.Second, reports[0].Average)
	require.Equal(t, 6*time.Second, reports[0].Total)

	require.Equal(t, "Mangabuddy", reports[1].Origin)
}

func TestLoadStatsSlowestRespectsLimit(t *testing.T) {
	stats := breaker.NewLoadStats()
	stats.Add("Asuracomic", 3*time.Second)
	stats.Add("Mangabuddy", 2*time.Second)
	stats.Add("Flamescans", time.Second)

	reports := stats.Slowest(2)
	require.Len(t, reports, 2)
	require.Equal(t, "Asuracomic", reports[0].Origin)
	require.Equal(t, "Mangabuddy", reports[1].Origin)
}

func TestLoadStatsReset(t *testing.T) {
	stats := breaker.NewLoadStats()
	stats.Add("Asuracomic", time.Second)

	stats.Reset()

	require.Empty(t, stats.Slowest(10))
}
