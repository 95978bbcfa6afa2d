package rules

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store owns the rule set and the active rule id.
// Every mutation is built on a copy, checked, persisted and only then
// committed, so a failed save leaves the in-memory state unchanged.
type Store struct {
	mu        sync.RWMutex
	persister Persister
	now       func() time.Time

	rules    []Rule
	activeID string
}

// Option configures a Store
type Option func(*Store)

// WithClock overrides the time source used for timestamps
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore creates a store backed by p. Call Initialize before use.
func NewStore(p Persister, opts ...Option) *Store {
	if p == nil {
		p = NewMemoryPersister(Snapshot{})
	}
	s := &Store{
		persister: p,
		now:       time.Now,
		activeID:  DefaultRuleID,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.rules = []Rule{DefaultRule(s.now())}
	return s
}

// Initialize loads persisted rules, seeding and repairing as needed
func (s *Store) Initialize(ctx context.Context) error {
	snap, err := s.persister.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load rules: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := snap.clone()
	dirty := false

	if len(next.Rules) == 0 {
		next.Rules = []Rule{DefaultRule(s.now())}
		next.ActiveRuleID = DefaultRuleID
		dirty = true
	}

	if indexOf(next.Rules, DefaultRuleID) < 0 {
		next.Rules = append([]Rule{DefaultRule(s.now())}, next.Rules...)
		dirty = true
	}

	if indexOf(next.Rules, next.ActiveRuleID) < 0 {
		next.ActiveRuleID = DefaultRuleID
		dirty = true
	}

	if syncActiveFlags(next.Rules, next.ActiveRuleID) {
		dirty = true
	}

	if dirty {
		if err := s.persister.Save(ctx, next); err != nil {
			return fmt.Errorf("failed to save rules: %w", err)
		}
	}

	s.rules = next.Rules
	s.activeID = next.ActiveRuleID
	return nil
}

// CreateRule adds a new, inactive rule
func (s *Store) CreateRule(ctx context.Context, body RuleBody) (Rule, error) {
	if err := Validate(body); err != nil {
		return Rule{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	rule := Rule{
		ID:        newCustomID(),
		RuleBody:  body,
		CreatedAt: now,
		UpdatedAt: now,
	}
	rule.QualityFactors = body.QualityFactors.clone()

	next := s.snapshot()
	next.Rules = append(next.Rules, rule)

	if err := s.commit(ctx, next); err != nil {
		return Rule{}, err
	}
	return rule.Clone(), nil
}

// UpdateRule merges the non-nil fields of u into the rule
func (s *Store) UpdateRule(ctx context.Context, id string, u RuleUpdate) (Rule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.snapshot()
	idx := indexOf(next.Rules, id)
	if idx < 0 {
		return Rule{}, fmt.Errorf("%w: %s", ErrRuleNotFound, id)
	}

	rule := next.Rules[idx]
	rule.RuleBody = u.apply(rule.RuleBody)
	if err := Validate(rule.RuleBody); err != nil {
		return Rule{}, err
	}

	// keep UpdatedAt strictly increasing even with a coarse clock
	now := s.now()
	if !now.After(rule.UpdatedAt) {
		now = rule.UpdatedAt.Add(time.Millisecond)
	}
	rule.UpdatedAt = now
	next.Rules[idx] = rule

	if err := s.commit(ctx, next); err != nil {
		return Rule{}, err
	}
	return rule.Clone(), nil
}

// DeleteRule removes a rule. The default rule is protected; deleting the
// active rule makes the default rule active.
func (s *Store) DeleteRule(ctx context.Context, id string) error {
	if id == DefaultRuleID {
		return ErrProtectedRule
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.snapshot()
	idx := indexOf(next.Rules, id)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrRuleNotFound, id)
	}

	next.Rules = append(next.Rules[:idx], next.Rules[idx+1:]...)
	if next.ActiveRuleID == id {
		next.ActiveRuleID = DefaultRuleID
	}

	return s.commit(ctx, next)
}

// ActivateRule makes id the single active rule
func (s *Store) ActivateRule(ctx context.Context, id string) (Rule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.snapshot()
	idx := indexOf(next.Rules, id)
	if idx < 0 {
		return Rule{}, fmt.Errorf("%w: %s", ErrRuleNotFound, id)
	}
	next.ActiveRuleID = id

	if err := s.commit(ctx, next); err != nil {
		return Rule{}, err
	}
	return s.rules[idx].Clone(), nil
}

// ApplyPreset copies a preset into a new rule and activates it
func (s *Store) ApplyPreset(ctx context.Context, presetID string) (Rule, error) {
	preset, err := PresetByID(presetID)
	if err != nil {
		return Rule{}, err
	}

	body := preset.Body()
	if err := Validate(body); err != nil {
		return Rule{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	rule := Rule{
		ID:        newCustomID(),
		RuleBody:  body,
		CreatedAt: now,
		UpdatedAt: now,
	}

	next := s.snapshot()
	next.Rules = append(next.Rules, rule)
	next.ActiveRuleID = rule.ID

	if err := s.commit(ctx, next); err != nil {
		return Rule{}, err
	}
	return s.rules[len(s.rules)-1].Clone(), nil
}

// GetActiveRule returns the active rule, or the default rule if the active
// id is somehow unknown
func (s *Store) GetActiveRule() Rule {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if idx := indexOf(s.rules, s.activeID); idx >= 0 {
		return s.rules[idx].Clone()
	}
	if idx := indexOf(s.rules, DefaultRuleID); idx >= 0 {
		return s.rules[idx].Clone()
	}
	return DefaultRule(s.now())
}

// ActiveRuleID returns the id of the active rule
func (s *Store) ActiveRuleID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeID
}

// GetRule returns a rule by id
func (s *Store) GetRule(id string) (Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := indexOf(s.rules, id)
	if idx < 0 {
		return Rule{}, fmt.Errorf("%w: %s", ErrRuleNotFound, id)
	}
	return s.rules[idx].Clone(), nil
}

// ListRules returns every rule in creation order
func (s *Store) ListRules() []Rule {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Rule, len(s.rules))
	for i, r := range s.rules {
		out[i] = r.Clone()
	}
	return out
}

// snapshot copies the current state; callers hold the lock
func (s *Store) snapshot() Snapshot {
	return Snapshot{Rules: s.rules, ActiveRuleID: s.activeID}.clone()
}

// commit checks the single-active invariant, persists, then swaps state in.
// Callers hold the write lock.
func (s *Store) commit(ctx context.Context, next Snapshot) error {
	syncActiveFlags(next.Rules, next.ActiveRuleID)
	if err := checkInvariant(next); err != nil {
		return err
	}

	if err := s.persister.Save(ctx, next); err != nil {
		return fmt.Errorf("failed to save rules: %w", err)
	}

	s.rules = next.Rules
	s.activeID = next.ActiveRuleID
	return nil
}

func checkInvariant(snap Snapshot) error {
	active := 0
	for _, r := range snap.Rules {
		if r.IsActive {
			active++
			if r.ID != snap.ActiveRuleID {
				return fmt.Errorf("active flag set on %s but active id is %s", r.ID, snap.ActiveRuleID)
			}
		}
	}
	if active != 1 {
		return fmt.Errorf("expected exactly one active rule, found %d", active)
	}
	if indexOf(snap.Rules, DefaultRuleID) < 0 {
		return fmt.Errorf("default rule missing")
	}
	return nil
}

// syncActiveFlags sets IsActive from activeID and reports whether anything changed
func syncActiveFlags(rules []Rule, activeID string) bool {
	changed := false
	for i := range rules {
		want := rules[i].ID == activeID
		if rules[i].IsActive != want {
			rules[i].IsActive = want
			changed = true
		}
	}
	return changed
}

func indexOf(rules []Rule, id string) int {
	for i, r := range rules {
		if r.ID == id {
			return i
		}
	}
	return -1
}

func newCustomID() string {
	return "custom-" + uuid.New().String()
}
