package seed

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/Simplici0/partpricing/internal/pricing"
)

// Config contains the values required by startup seed.
type Config struct {
	AdminEmail    string
	AdminPassword string
}

// Stats contains seed operation counters.
type Stats struct {
	Inserts int
	Updates int
}

// Run executes the startup seed in an idempotent way. Configuration tables are
// only filled when empty, so operator edits survive restarts.
func Run(ctx context.Context, db *sql.DB, cfg Config) (Stats, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return Stats{}, fmt.Errorf("begin seed transaction: %w", err)
	}

	stats := Stats{}

	if err := seedAdmin(ctx, tx, cfg.AdminEmail, cfg.AdminPassword, &stats); err != nil {
		_ = tx.Rollback()
		return Stats{}, err
	}
	if err := ensureMarkupBands(ctx, tx, &stats); err != nil {
		_ = tx.Rollback()
		return Stats{}, err
	}
	if err := ensureCategoryMultipliers(ctx, tx, &stats); err != nil {
		_ = tx.Rollback()
		return Stats{}, err
	}

	if err := tx.Commit(); err != nil {
		return Stats{}, fmt.Errorf("commit seed transaction: %w", err)
	}

	return stats, nil
}

func seedAdmin(ctx context.Context, tx *sql.Tx, email, password string, stats *Stats) error {
	if email == "" || password == "" {
		return nil
	}

	var exists bool
	if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE email = ? LIMIT 1)`, email).Scan(&exists); err != nil {
		return fmt.Errorf("check admin user existence: %w", err)
	}
	if exists {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `INSERT INTO users (email, password_hash) VALUES (?, ?)`, email, string(hash)); err != nil {
		return fmt.Errorf("insert admin user: %w", err)
	}
	stats.Inserts++
	return nil
}

func ensureMarkupBands(ctx context.Context, tx *sql.Tx, stats *Stats) error {
	var exists bool
	if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM markup_bands LIMIT 1)`).Scan(&exists); err != nil {
		return fmt.Errorf("check markup bands existence: %w", err)
	}
	if exists {
		return nil
	}

	now := time.Now().UTC()
	for _, b := range pricing.DefaultMarkupTable().Bands() {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO markup_bands (from_price, to_price, rrpp_markup, change_type, updated_at)
			VALUES (?, ?, ?, 'initial_load', ?)
		`, b.Lower, b.Upper, b.Factor, now); err != nil {
			return fmt.Errorf("insert default markup band: %w", err)
		}
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO config_versions (change_type, target) VALUES ('initial_load', 'markup_table')
	`); err != nil {
		return fmt.Errorf("record markup seed version: %w", err)
	}
	stats.Inserts++
	return nil
}

func ensureCategoryMultipliers(ctx context.Context, tx *sql.Tx, stats *Stats) error {
	var exists bool
	if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM category_multipliers LIMIT 1)`).Scan(&exists); err != nil {
		return fmt.Errorf("check category multipliers existence: %w", err)
	}
	if exists {
		return nil
	}

	now := time.Now().UTC()
	defaults := pricing.DefaultCategoryMultipliers()
	for _, category := range defaults.Categories() {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO category_multipliers (category, multiplier, change_type, updated_at)
			VALUES (?, ?, 'initial_load', ?)
		`, category, defaults.Lookup(category), now); err != nil {
			return fmt.Errorf("insert default category multiplier: %w", err)
		}
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO config_versions (change_type, target) VALUES ('initial_load', 'category_multipliers')
	`); err != nil {
		return fmt.Errorf("record multiplier seed version: %w", err)
	}
	stats.Inserts++
	return nil
}
