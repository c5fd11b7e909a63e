package sweeper

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/voluntaria/platform/internal/clock"
	eventdomain "github.com/voluntaria/platform/internal/event/domain"
	eventrepository "github.com/voluntaria/platform/internal/event/repository"
	identitydomain "github.com/voluntaria/platform/internal/identity/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupSweeper(t *testing.T, start time.Time) (*Sweeper, *clock.FakeClock, *gorm.DB, *snowflake.Node) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&identitydomain.Organization{}, &eventdomain.Event{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	fc := clock.NewFakeClock(start)
	s := New(Params{
		DB:    db,
		Log:   zap.NewNop(),
		Clock: fc,
		Repo:  eventrepository.Provide(),
	})
	return s, fc, db, node
}

func createEvent(t *testing.T, db *gorm.DB, node *snowflake.Node, date time.Time, duration string, status eventdomain.Status) eventdomain.Event {
	t.Helper()
	event := eventdomain.Event{
		ID:             node.Generate(),
		OrganizationID: node.Generate(),
		Title:          "evento",
		Date:           date,
		Duration:       duration,
		Status:         status,
	}
	require.NoError(t, db.Create(&event).Error)
	return event
}

func eventStatus(t *testing.T, db *gorm.DB, id snowflake.ID) eventdomain.Status {
	t.Helper()
	var event eventdomain.Event
	require.NoError(t, db.First(&event, "id = ?", id).Error)
	return event.Status
}

func TestSweepRespectsDuration(t *testing.T) {
	start := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	s, fc, db, node := setupSweeper(t, start)

	// Started an hour ago with a two-hour duration: still running.
	running := createEvent(t, db, node, start.Add(-90*time.Minute), "2 horas", eventdomain.StatusOpen)

	result, err := s.Sweep(context.Background(), false)
	require.NoError(t, err)
	assert.Empty(t, result.CompletedIDs)
	assert.Equal(t, []string{running.ID.String()}, result.SkippedIDs)
	assert.Equal(t, eventdomain.StatusOpen, eventStatus(t, db, running.ID))

	// Past the computed end, the same event completes.
	fc.Advance(31 * time.Minute)
	result, err = s.Sweep(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, []string{running.ID.String()}, result.CompletedIDs)
	assert.Equal(t, 1, result.CompletedCount)
	assert.Equal(t, eventdomain.StatusCompleted, eventStatus(t, db, running.ID))
}

func TestSweepPartitionsMixedStatuses(t *testing.T) {
	start := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	s, _, db, node := setupSweeper(t, start)

	expiredOpen := createEvent(t, db, node, start.Add(-3*time.Hour), "1h", eventdomain.StatusOpen)
	expiredClosed := createEvent(t, db, node, start.Add(-3*time.Hour), "", eventdomain.StatusClosed)
	future := createEvent(t, db, node, start.Add(24*time.Hour), "2h", eventdomain.StatusOpen)
	alreadyDone := createEvent(t, db, node, start.Add(-48*time.Hour), "1h", eventdomain.StatusCompleted)

	result, err := s.Sweep(context.Background(), false)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{expiredOpen.ID.String(), expiredClosed.ID.String()}, result.CompletedIDs)
	assert.Equal(t, 2, result.CompletedCount)

	assert.Equal(t, eventdomain.StatusCompleted, eventStatus(t, db, expiredOpen.ID))
	assert.Equal(t, eventdomain.StatusCompleted, eventStatus(t, db, expiredClosed.ID))
	assert.Equal(t, eventdomain.StatusOpen, eventStatus(t, db, future.ID))
	assert.Equal(t, eventdomain.StatusCompleted, eventStatus(t, db, alreadyDone.ID))
}

func TestSweepDryRunWritesNothing(t *testing.T) {
	start := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	s, _, db, node := setupSweeper(t, start)

	expired := createEvent(t, db, node, start.Add(-3*time.Hour), "1h", eventdomain.StatusOpen)

	result, err := s.Sweep(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, []string{expired.ID.String()}, result.CompletedIDs)
	assert.Equal(t, 1, result.CompletedCount)
	assert.Equal(t, eventdomain.StatusOpen, eventStatus(t, db, expired.ID))
}

func TestSweepIdempotent(t *testing.T) {
	start := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	s, _, db, node := setupSweeper(t, start)

	createEvent(t, db, node, start.Add(-3*time.Hour), "1h", eventdomain.StatusOpen)

	first, err := s.Sweep(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 1, first.CompletedCount)

	second, err := s.Sweep(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 0, second.CompletedCount)
	assert.Empty(t, second.CompletedIDs)
}

func TestSweepEmptyDatabase(t *testing.T) {
	start := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	s, _, _, _ := setupSweeper(t, start)

	result, err := s.Sweep(context.Background(), false)
	require.NoError(t, err)
	assert.NotNil(t, result.CompletedIDs)
	assert.NotNil(t, result.SkippedIDs)
	assert.Empty(t, result.CompletedIDs)
	assert.Equal(t, 0, result.CompletedCount)
}

func TestSweepUnparsableDurationEndsAtStart(t *testing.T) {
	start := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	s, _, db, node := setupSweeper(t, start)

	garbled := createEvent(t, db, node, start.Add(-time.Minute), "whenever", eventdomain.StatusOpen)

	result, err := s.Sweep(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, []string{garbled.ID.String()}, result.CompletedIDs)
}
