// Package freeze implements the account freeze state machine: the policy
// layer that turns executed consortium proposals and anomaly-key usage into
// time-boxed investigation freezes.
//
// A user's first trigger in a calendar month freezes for 24 hours; any
// further trigger that month freezes for 72. A user can carry several
// concurrent investigation freezes; expiry of one does not unfreeze the
// user while a sibling freeze is still active.
package freeze

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/triadbank/ledger-core/pkgs/errs"
	"github.com/triadbank/ledger-core/pkgs/store"
	"github.com/triadbank/ledger-core/pkgs/utils"
)

// Freeze durations by monthly trigger count.
const (
	FirstFreezeDuration  = 24 * time.Hour
	RepeatFreezeDuration = 72 * time.Hour
)

const monthKeyFormat = "2006-01"

// Record is one investigation freeze. Records are persisted as append-only
// state snapshots; the latest snapshot per ID is authoritative.
type Record struct {
	ID               string    `json:"id"`
	User             string    `json:"user"`
	Transaction      string    `json:"transaction"`
	Reason           string    `json:"reason"`
	DurationHours    int       `json:"duration_hours"`
	Month            string    `json:"month"`
	InvestigationNum int       `json:"investigation_number_this_month"`
	TriggeredAt      time.Time `json:"triggered_at"`
	ExpiresAt        time.Time `json:"expires_at"`
	Active           bool      `json:"is_active"`
	ManuallyUnfrozen bool      `json:"manually_unfrozen"`
	UnfrozenBy       string    `json:"unfrozen_by,omitempty"`
}

// AuditSink mirrors the governance sink: best-effort event recording.
type AuditSink interface {
	Record(eventType string, eventData map[string]any) error
}

// Machine drives freeze lifecycles for all users.
type Machine struct {
	mu      sync.Mutex
	logger  *zap.Logger
	clock   utils.Clock
	store   store.AppendStore
	audit   AuditSink
	records map[string]*Record
	monthly map[string]int
}

// MachineOpts carries Machine construction parameters.
type MachineOpts struct {
	Logger *zap.Logger
	Clock  utils.Clock
	Store  store.AppendStore
	Audit  AuditSink
}

// NewMachine builds a machine, replaying persisted snapshots so active
// freezes and monthly counters survive a restart.
func NewMachine(opts MachineOpts) (*Machine, error) {
	if opts.Store == nil {
		return nil, errors.New("freeze: store is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := opts.Clock
	if clock == nil {
		clock = utils.RealClock{}
	}
	m := &Machine{
		logger:  logger,
		clock:   clock,
		store:   opts.Store,
		audit:   opts.Audit,
		records: make(map[string]*Record),
		monthly: make(map[string]int),
	}
	entries, err := opts.Store.Range(store.KindFreeze, 0, 0)
	if err != nil {
		return nil, errors.Wrap(err, "could not replay freeze records")
	}
	for _, e := range entries {
		rec := &Record{}
		if err := json.Unmarshal(e.Data, rec); err != nil {
			return nil, errors.Wrap(err, "could not decode freeze record")
		}
		m.records[rec.ID] = rec
		key := monthKey(rec.User, rec.Month)
		if rec.InvestigationNum > m.monthly[key] {
			m.monthly[key] = rec.InvestigationNum
		}
	}
	return m, nil
}

// TriggerFreeze opens a new investigation freeze for user, choosing the
// duration from the user's trigger count in the current calendar month.
func (m *Machine) TriggerFreeze(user, transaction, reason string) (*Record, error) {
	if user == "" {
		return nil, errs.Validation("user", "must not be empty")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()
	month := now.Format(monthKeyFormat)
	key := monthKey(user, month)
	num := m.monthly[key] + 1
	duration := FirstFreezeDuration
	if num > 1 {
		duration = RepeatFreezeDuration
	}
	rec := &Record{
		ID:               uuid.NewString(),
		User:             user,
		Transaction:      transaction,
		Reason:           reason,
		DurationHours:    int(duration.Hours()),
		Month:            month,
		InvestigationNum: num,
		TriggeredAt:      now,
		ExpiresAt:        now.Add(duration),
		Active:           true,
	}
	if err := m.persistLocked(rec); err != nil {
		return nil, err
	}
	m.monthly[key] = num
	m.records[rec.ID] = rec
	m.recordEvent("freeze_triggered", map[string]any{
		"user":           user,
		"record_id":      rec.ID,
		"duration_hours": rec.DurationHours,
		"investigation":  num,
	})
	m.logger.Info("freeze triggered",
		zap.String("user", user),
		zap.Int("duration_hours", rec.DurationHours),
		zap.Int("investigation", num))
	copied := *rec
	return &copied, nil
}

// CheckAndUnfreezeExpired deactivates every freeze past its expiry and
// returns the users who are now fully unfrozen. A user with a sibling
// freeze still active stays frozen.
func (m *Machine) CheckAndUnfreezeExpired() ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()
	expiredUsers := make(map[string]bool)
	for _, rec := range m.records {
		if rec.Active && !now.Before(rec.ExpiresAt) {
			rec.Active = false
			if err := m.persistLocked(rec); err != nil {
				return nil, err
			}
			expiredUsers[rec.User] = true
			m.recordEvent("freeze_expired", map[string]any{
				"user":      rec.User,
				"record_id": rec.ID,
			})
		}
	}
	var unfrozen []string
	for user := range expiredUsers {
		if !m.isFrozenLocked(user) {
			unfrozen = append(unfrozen, user)
			m.logger.Info("user unfrozen on expiry", zap.String("user", user))
		}
	}
	return unfrozen, nil
}

// ManuallyUnfreeze clears every active freeze for user immediately,
// independent of expiry.
func (m *Machine) ManuallyUnfreeze(user, authority, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cleared := 0
	for _, rec := range m.records {
		if rec.User != user || !rec.Active {
			continue
		}
		rec.Active = false
		rec.ManuallyUnfrozen = true
		rec.UnfrozenBy = authority
		if err := m.persistLocked(rec); err != nil {
			return err
		}
		cleared++
	}
	if cleared == 0 {
		return errs.State("manually unfreeze "+user, "UNFROZEN")
	}
	m.recordEvent("manual_unfreeze", map[string]any{
		"user":      user,
		"authority": authority,
		"reason":    reason,
		"cleared":   cleared,
	})
	m.logger.Info("user manually unfrozen",
		zap.String("user", user),
		zap.String("authority", authority),
		zap.Int("cleared", cleared))
	return nil
}

// IsFrozen reports whether user has any active freeze.
func (m *Machine) IsFrozen(user string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.isFrozenLocked(user)
}

// ActiveFreezes returns copies of the user's active freeze records.
func (m *Machine) ActiveFreezes(user string) []*Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Record
	for _, rec := range m.records {
		if rec.User == user && rec.Active {
			copied := *rec
			out = append(out, &copied)
		}
	}
	return out
}

func (m *Machine) isFrozenLocked(user string) bool {
	for _, rec := range m.records {
		if rec.User == user && rec.Active {
			return true
		}
	}
	return false
}

func (m *Machine) persistLocked(rec *Record) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return errors.Wrap(err, "could not encode freeze record")
	}
	if _, err := m.store.Insert(store.KindFreeze, raw); err != nil {
		return errors.Wrap(err, "could not persist freeze record")
	}
	return nil
}

func (m *Machine) recordEvent(eventType string, data map[string]any) {
	if m.audit == nil {
		return
	}
	if err := m.audit.Record(eventType, data); err != nil {
		m.logger.Warn("audit record failed", zap.String("event", eventType), zap.Error(err))
	}
}

func monthKey(user, month string) string { return user + "|" + month }
