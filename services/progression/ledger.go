// Copyright (C) 2025 FocusFlow Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package progression implements the focus-tree progression ledger: the
// session outcome processor, the idle-decay evaluator, and the
// achievement rule engine.
//
// # Model
//
// Each user owns one FocusTree row (the ledger), created lazily on first
// access. Completed sessions feed experience into the tree; experience
// drives level-ups (levels 1-10) and, once the tree is maxed, garden
// growth (levels 0-20). Abandoned sessions and idle days cost health.
//
//	session end ──► outcome processor ──► ledger write
//	                      │
//	                      └──► achievement rule engine ──► unlock rows
//
//	ledger read ──► decay evaluator (persists at most once per day)
//
// # Concurrency
//
// The engine holds no cross-request state besides the read-only
// achievement catalog. All mutation happens inside a single gorm
// transaction per request; duplicate achievement unlocks under racing
// requests are absorbed by a unique index rather than surfaced.
package progression

import (
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"gorm.io/gorm"

	"github.com/focusflowhq/focusflow/services/api/models"
)

var tracer = otel.Tracer("focusflow.progression")

// Level and garden caps. The growth loops are bounded by these even
// under adversarial experience inputs.
const (
	MaxLevel       = 10
	MaxGardenLevel = 20
)

// ErrSessionNotFound is returned when a session id does not exist or
// does not belong to the calling user.
var ErrSessionNotFound = errors.New("focus session not found")

// GetOrCreateTree returns the user's ledger row, creating it with
// defaults (level 1, full health) on first access.
func GetOrCreateTree(db *gorm.DB, userID uint) (*models.FocusTree, error) {
	tree := models.FocusTree{UserID: userID}
	err := db.Where(models.FocusTree{UserID: userID}).
		Attrs(models.FocusTree{Level: 1, Health: 100, TreeType: "oak"}).
		FirstOrCreate(&tree).Error
	if err != nil {
		return nil, fmt.Errorf("get or create focus tree: %w", err)
	}
	return &tree, nil
}

// ExpForNextLevel returns the experience threshold for the tree's next
// level-up. The threshold scales with the current level.
func ExpForNextLevel(tree *models.FocusTree) int {
	return tree.Level * 100
}

// Decay applies idle-day health decay to the tree in place and reports
// whether anything changed. Per idle day beyond the first, the tree
// loses 5 health, floored at 10 (idleness alone never kills the tree;
// the 0 floor is reserved for abandoned-session penalties). Missing more
// than one day also resets the streak.
//
// Decay computes from the tree's current health; once-per-day
// application is ApplyDecay's job.
func Decay(tree *models.FocusTree, today time.Time) bool {
	if tree.LastSessionDate == nil {
		return false
	}
	idleDays := daysBetween(*tree.LastSessionDate, today)
	if idleDays <= 1 {
		return false
	}

	changed := false
	healthLoss := (idleDays - 1) * 5
	if newHealth := max(10, tree.Health-healthLoss); newHealth != tree.Health {
		tree.Health = newHealth
		changed = true
	}
	if tree.StreakDays > 0 {
		tree.StreakDays = 0
		changed = true
	}
	return changed
}

// ApplyDecay runs the decay evaluator against the stored ledger and
// persists the result. The tree carries the date decay was last
// evaluated, and evaluation runs at most once per calendar day, so a
// second read the same day never re-applies the loss. The returned flag
// lets the caller animate the change exactly once.
func ApplyDecay(db *gorm.DB, tree *models.FocusTree, today time.Time) (bool, error) {
	if tree.LastDecayDate != nil && daysBetween(*tree.LastDecayDate, today) <= 0 {
		return false, nil
	}
	if !Decay(tree, today) {
		return false, nil
	}
	day := dateOnly(today)
	tree.LastDecayDate = &day
	if err := db.Save(tree).Error; err != nil {
		return false, fmt.Errorf("persist decay: %w", err)
	}
	return true, nil
}

// dateOnly truncates a timestamp to its UTC calendar date.
func dateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// daysBetween counts whole calendar days from a to b, ignoring the time
// of day on either side. Both sides are normalized to UTC first so that
// stored UTC dates compare cleanly against server-local clocks.
func daysBetween(a, b time.Time) int {
	return int(dateOnly(b).Sub(dateOnly(a)).Hours() / 24)
}
