package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"ischolar/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newThresholdFixture(t *testing.T, maxSlots int, approved int64) (*thresholdService, *fakeCycleRepo, *fakeAuditRepo, *fakeNotificationRepo, *model.ProgramCycle) {
	t.Helper()

	admin := &model.Profile{UserID: "admin-1", Email: "admin@ischolar.test", Role: model.RoleAdmin}
	reviewer := &model.Profile{UserID: "reviewer-1", Email: "reviewer@ischolar.test", Role: model.RoleReviewer}
	approver := &model.Profile{UserID: "approver-1", Email: "approver@ischolar.test", Role: model.RoleApprover}
	profiles := newFakeProfileRepo(admin, reviewer, approver)

	cycle := &model.ProgramCycle{
		Program:  model.Program{Name: "Merit Scholarship", Code: "MERIT"},
		AyTerm:   "AY2025-2026 1st Sem",
		MaxSlots: maxSlots,
	}
	cycles := newFakeCycleRepo(cycle)
	cycles.approved[cycle.ID] = approved

	audits := &fakeAuditRepo{}
	notifications := &fakeNotificationRepo{}
	notifier := NewNotificationService(notifications, profiles)

	svc := NewThresholdService(cycles, audits, notifier, DefaultAlertWindow).(*thresholdService)
	return svc, cycles, audits, notifications, cycle
}

func TestCheckThresholdsBelowEightyPercent(t *testing.T) {
	svc, cycles, audits, notifications, cycle := newThresholdFixture(t, 50, 39) // 78%

	alerts, err := svc.CheckThresholds(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, alerts)
	assert.Empty(t, notifications.notifications)

	// The scan itself is always audited, alerts or not
	entries := audits.byAction(model.ActionCheckThresholds)
	require.Len(t, entries, 1)
	assert.Nil(t, entries[0].ActorID)

	stored, err := cycles.GetByID(context.Background(), cycle.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.LastAlertAt)
}

func TestCheckThresholdsHighAtEightyPercent(t *testing.T) {
	svc, cycles, _, notifications, cycle := newThresholdFixture(t, 50, 40) // exactly 80%

	alerts, err := svc.CheckThresholds(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, model.PriorityHigh, alerts[0].Priority)
	assert.Contains(t, alerts[0].Title, "approaching capacity")
	assert.Contains(t, alerts[0].Body, "40 out of 50 slots filled (80.0%)")
	assert.Contains(t, alerts[0].Body, "Only 10 slots remaining")

	// One THRESHOLD_WARNING row per staff profile
	var warnings int
	for _, n := range notifications.notifications {
		if n.Type == model.NotifThresholdWarning {
			warnings++
			assert.Equal(t, model.PriorityHigh, n.Priority)
		}
	}
	assert.Equal(t, 3, warnings)

	stored, err := cycles.GetByID(context.Background(), cycle.ID)
	require.NoError(t, err)
	assert.NotNil(t, stored.LastAlertAt)
}

func TestCheckThresholdsUrgentAtFullCapacity(t *testing.T) {
	svc, _, _, _, _ := newThresholdFixture(t, 50, 50)

	alerts, err := svc.CheckThresholds(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, model.PriorityUrgent, alerts[0].Priority)
	assert.Contains(t, alerts[0].Title, "at full capacity")
	assert.Contains(t, alerts[0].Body, "All 50 slots have been filled")
}

func TestCheckThresholdsSkipsUnlimitedCycles(t *testing.T) {
	svc, _, _, notifications, _ := newThresholdFixture(t, 0, 500)

	alerts, err := svc.CheckThresholds(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, alerts)
	assert.Empty(t, notifications.notifications)
}

func TestCheckThresholdsSuppressionWindow(t *testing.T) {
	svc, _, _, notifications, _ := newThresholdFixture(t, 50, 45) // 90%

	base := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }

	alerts, err := svc.CheckThresholds(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	firstCount := len(notifications.notifications)

	// A re-scan inside the window stays silent
	svc.now = func() time.Time { return base.Add(time.Hour) }
	alerts, err = svc.CheckThresholds(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, alerts)
	assert.Len(t, notifications.notifications, firstCount)

	// Once the window has passed the cycle alerts again
	svc.now = func() time.Time { return base.Add(DefaultAlertWindow + time.Minute) }
	alerts, err = svc.CheckThresholds(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Greater(t, len(notifications.notifications), firstCount)
}

func TestCheckThresholdsFanOutFailureIsBestEffort(t *testing.T) {
	svc, cycles, _, notifications, cycle := newThresholdFixture(t, 50, 45)
	notifications.createErr = errors.New("insert failed")

	alerts, err := svc.CheckThresholds(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, alerts)

	// The failed cycle stays eligible for the next scan
	stored, err := cycles.GetByID(context.Background(), cycle.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.LastAlertAt)
}
