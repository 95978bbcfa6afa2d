package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/vijay-prabhu/researchdesk/internal/rules"
)

// RuleRepository persists the rule set and the active rule id
type RuleRepository struct {
	db *DB
}

var _ rules.Persister = (*RuleRepository)(nil)

// NewRuleRepository creates a repository on top of db
func NewRuleRepository(db *DB) *RuleRepository {
	return &RuleRepository{db: db}
}

// Load returns every stored rule in insertion order plus the active rule id.
// An empty database yields an empty snapshot.
func (r *RuleRepository) Load(ctx context.Context) (rules.Snapshot, error) {
	var rows []ruleRow
	if err := r.db.SelectContext(ctx, &rows, `
		SELECT id, position, name, description,
		       weight_relevance, weight_quality, weight_freshness, weight_external,
		       expand_threshold, min_word_count, max_days_for_fresh,
		       preferred_domains, keyword_bonus, minimum_content_length,
		       created_at, updated_at
		FROM rules ORDER BY position ASC
	`); err != nil {
		return rules.Snapshot{}, fmt.Errorf("failed to list rules: %w", err)
	}

	active, err := r.db.GetSetting(ctx, SettingActiveRuleID)
	if err != nil {
		return rules.Snapshot{}, err
	}

	snap := rules.Snapshot{Rules: make([]rules.Rule, 0, len(rows))}
	if active != nil {
		snap.ActiveRuleID = *active
	}

	for _, row := range rows {
		rule, err := row.rule(snap.ActiveRuleID)
		if err != nil {
			return rules.Snapshot{}, err
		}
		snap.Rules = append(snap.Rules, rule)
	}

	return snap, nil
}

// Save replaces the stored rule set atomically
func (r *RuleRepository) Save(ctx context.Context, snap rules.Snapshot) error {
	return r.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM rules`); err != nil {
			return fmt.Errorf("failed to clear rules: %w", err)
		}

		for i, rule := range snap.Rules {
			row, err := newRuleRow(rule, i)
			if err != nil {
				return err
			}
			if _, err := tx.NamedExecContext(ctx, `
				INSERT INTO rules (
					id, position, name, description,
					weight_relevance, weight_quality, weight_freshness, weight_external,
					expand_threshold, min_word_count, max_days_for_fresh,
					preferred_domains, keyword_bonus, minimum_content_length,
					created_at, updated_at
				) VALUES (
					:id, :position, :name, :description,
					:weight_relevance, :weight_quality, :weight_freshness, :weight_external,
					:expand_threshold, :min_word_count, :max_days_for_fresh,
					:preferred_domains, :keyword_bonus, :minimum_content_length,
					:created_at, :updated_at
				)
			`, row); err != nil {
				return fmt.Errorf("failed to insert rule %s: %w", rule.ID, err)
			}
		}

		if err := setSetting(ctx, tx, SettingActiveRuleID, snap.ActiveRuleID); err != nil {
			return err
		}
		return nil
	})
}

// GetSetting reads a setting; a missing key yields nil
func (db *DB) GetSetting(ctx context.Context, key string) (*string, error) {
	var value sql.NullString
	err := db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read setting %s: %w", key, err)
	}
	return StringPtr(value), nil
}

func setSetting(ctx context.Context, tx *sqlx.Tx, key, value string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to write setting %s: %w", key, err)
	}
	return nil
}
