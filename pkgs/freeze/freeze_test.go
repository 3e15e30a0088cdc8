package freeze

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/triadbank/ledger-core/pkgs/errs"
	"github.com/triadbank/ledger-core/pkgs/store"
)

type stepClock struct{ now time.Time }

func (c *stepClock) Now() time.Time { return c.now.UTC() }

func newTestMachine(t *testing.T) (*Machine, *stepClock, *store.MemoryStore) {
	t.Helper()
	clock := &stepClock{now: time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)}
	mem := store.NewMemoryStore()
	m, err := NewMachine(MachineOpts{Logger: zaptest.NewLogger(t), Clock: clock, Store: mem})
	require.NoError(t, err)
	return m, clock, mem
}

func TestMonthlyEscalation(t *testing.T) {
	m, clock, _ := newTestMachine(t)

	// First trigger of the month: 24 hours.
	rec, err := m.TriggerFreeze("idx-u", "tx-1", "structuring")
	require.NoError(t, err)
	require.Equal(t, 24, rec.DurationHours)
	require.Equal(t, 1, rec.InvestigationNum)
	require.Equal(t, "2026-01", rec.Month)

	// Second trigger the same month: 72 hours.
	clock.now = time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	rec, err = m.TriggerFreeze("idx-u", "tx-2", "velocity")
	require.NoError(t, err)
	require.Equal(t, 72, rec.DurationHours)
	require.Equal(t, 2, rec.InvestigationNum)

	// New month resets the counter: 24 hours again.
	clock.now = time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	rec, err = m.TriggerFreeze("idx-u", "tx-3", "structuring")
	require.NoError(t, err)
	require.Equal(t, 24, rec.DurationHours)
	require.Equal(t, 1, rec.InvestigationNum)
	require.Equal(t, "2026-02", rec.Month)
}

func TestCountersArePerUser(t *testing.T) {
	m, _, _ := newTestMachine(t)
	_, err := m.TriggerFreeze("idx-u", "tx-1", "r")
	require.NoError(t, err)
	rec, err := m.TriggerFreeze("idx-v", "tx-2", "r")
	require.NoError(t, err)
	require.Equal(t, 24, rec.DurationHours)
}

func TestExpirySweepRespectsSiblingFreezes(t *testing.T) {
	m, clock, _ := newTestMachine(t)
	_, err := m.TriggerFreeze("idx-u", "tx-1", "first")
	require.NoError(t, err)

	clock.now = clock.now.Add(2 * time.Hour)
	_, err = m.TriggerFreeze("idx-u", "tx-2", "second")
	require.NoError(t, err)
	require.True(t, m.IsFrozen("idx-u"))
	require.Len(t, m.ActiveFreezes("idx-u"), 2)

	// 24h freeze expires, 72h sibling still active: user stays frozen.
	clock.now = clock.now.Add(23 * time.Hour)
	unfrozen, err := m.CheckAndUnfreezeExpired()
	require.NoError(t, err)
	require.Empty(t, unfrozen)
	require.True(t, m.IsFrozen("idx-u"))
	require.Len(t, m.ActiveFreezes("idx-u"), 1)

	// After the sibling expires too, the user is unfrozen.
	clock.now = clock.now.Add(72 * time.Hour)
	unfrozen, err = m.CheckAndUnfreezeExpired()
	require.NoError(t, err)
	require.Equal(t, []string{"idx-u"}, unfrozen)
	require.False(t, m.IsFrozen("idx-u"))
}

func TestManualUnfreezeClearsEverything(t *testing.T) {
	m, clock, _ := newTestMachine(t)
	_, err := m.TriggerFreeze("idx-u", "tx-1", "first")
	require.NoError(t, err)
	clock.now = clock.now.Add(time.Hour)
	_, err = m.TriggerFreeze("idx-u", "tx-2", "second")
	require.NoError(t, err)

	require.NoError(t, m.ManuallyUnfreeze("idx-u", "rbi", "investigation closed"))
	require.False(t, m.IsFrozen("idx-u"))
	require.Empty(t, m.ActiveFreezes("idx-u"))

	// Nothing left to unfreeze.
	err = m.ManuallyUnfreeze("idx-u", "rbi", "again")
	var state *errs.StateError
	require.ErrorAs(t, err, &state)
}

func TestStateSurvivesRestart(t *testing.T) {
	m, clock, mem := newTestMachine(t)
	_, err := m.TriggerFreeze("idx-u", "tx-1", "first")
	require.NoError(t, err)

	restarted, err := NewMachine(MachineOpts{Clock: clock, Store: mem})
	require.NoError(t, err)
	require.True(t, restarted.IsFrozen("idx-u"))

	// The monthly counter also survives: next trigger escalates to 72h.
	rec, err := restarted.TriggerFreeze("idx-u", "tx-2", "second")
	require.NoError(t, err)
	require.Equal(t, 72, rec.DurationHours)

	// A deactivated record stays deactivated across restarts.
	require.NoError(t, restarted.ManuallyUnfreeze("idx-u", "rbi", "closed"))
	again, err := NewMachine(MachineOpts{Clock: clock, Store: mem})
	require.NoError(t, err)
	require.False(t, again.IsFrozen("idx-u"))
}

func TestTriggerValidation(t *testing.T) {
	m, _, _ := newTestMachine(t)
	_, err := m.TriggerFreeze("", "tx", "r")
	require.Error(t, err)
}
