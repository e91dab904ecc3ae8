// Copyright (C) 2025 FocusFlow Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package progression

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"

	"github.com/focusflowhq/focusflow/services/api/models"
)

// Outcome is the ledger snapshot returned to the client after a session
// ends.
type Outcome struct {
	Level      int `json:"level"`
	Experience int `json:"experience"`
	Health     int `json:"health"`
	ExpGained  int `json:"exp_gained"`
}

// StartSession creates a session record for the user and returns it.
// The duration is what the client requested; the actual minutes are
// measured at session end.
func StartSession(db *gorm.DB, userID uint, taskID, playlistID *uint, durationMinutes int) (*models.FocusSession, error) {
	session := models.FocusSession{
		UserID:          userID,
		TaskID:          taskID,
		PlaylistID:      playlistID,
		DurationMinutes: durationMinutes,
	}
	if err := db.Create(&session).Error; err != nil {
		return nil, fmt.Errorf("create focus session: %w", err)
	}
	return &session, nil
}

// AddDistraction increments the session's distraction count and applies
// a small immediate health penalty to the tree. Returns the new count.
func AddDistraction(db *gorm.DB, userID, sessionID uint) (int, error) {
	var session models.FocusSession
	if err := db.Where("id = ? AND user_id = ?", sessionID, userID).First(&session).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return 0, ErrSessionNotFound
		}
		return 0, err
	}
	session.Distractions++
	if err := db.Save(&session).Error; err != nil {
		return 0, err
	}

	tree, err := GetOrCreateTree(db, userID)
	if err != nil {
		return 0, err
	}
	tree.Health = max(0, tree.Health-2)
	if err := db.Save(tree).Error; err != nil {
		return 0, err
	}
	return session.Distractions, nil
}

// EndSession is the session outcome processor. It closes the session,
// applies the experience/health/streak rules to the ledger, and runs the
// achievement rule engine, all inside one transaction so a crash cannot
// leave a completed session without its achievement evaluation.
//
// Returns ErrSessionNotFound when the session does not exist or belongs
// to another user.
func EndSession(ctx context.Context, db *gorm.DB, userID, sessionID uint, completed bool, distractions int, now time.Time) (Outcome, []Unlocked, error) {
	ctx, span := tracer.Start(ctx, "EndSession")
	defer span.End()

	var outcome Outcome
	unlocked := []Unlocked{}

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var session models.FocusSession
		if err := tx.Where("id = ? AND user_id = ?", sessionID, userID).First(&session).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return ErrSessionNotFound
			}
			return err
		}

		ended := now
		session.EndedAt = &ended
		session.IsCompleted = completed
		session.Distractions = distractions

		tree, err := GetOrCreateTree(tx, userID)
		if err != nil {
			return err
		}

		actualMinutes := session.DurationMinutes
		if session.EndedAt != nil && !session.StartedAt.IsZero() {
			actualMinutes = int(session.EndedAt.Sub(session.StartedAt).Minutes())
		}

		if completed {
			expGained := ApplyCompletion(tree, actualMinutes, distractions)
			UpdateStreak(tree, now)
			session.TreeGrowth = expGained
			outcome.ExpGained = expGained
		} else {
			ApplyAbandonment(tree, distractions)
		}

		if err := tx.Save(&session).Error; err != nil {
			return fmt.Errorf("save session: %w", err)
		}
		if err := tx.Save(tree).Error; err != nil {
			return fmt.Errorf("save focus tree: %w", err)
		}

		outcome.Level = tree.Level
		outcome.Experience = tree.Experience
		outcome.Health = tree.Health

		if completed {
			statUnlocks, err := CheckAndUnlock(tx, userID)
			if err != nil {
				return err
			}
			unlocked = append(unlocked, statUnlocks...)

			special, err := sessionUnlocks(tx, userID, &session)
			if err != nil {
				return err
			}
			unlocked = append(unlocked, special...)
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Outcome{}, nil, err
	}
	return outcome, unlocked, nil
}

// sessionUnlocks checks the three achievements keyed on the session
// itself rather than on aggregate stats: zero distractions, a start
// before 07:00, and a start at or after 23:00.
func sessionUnlocks(db *gorm.DB, userID uint, session *models.FocusSession) ([]Unlocked, error) {
	candidates := []struct {
		typ string
		hit bool
	}{
		{"perfect_session", session.Distractions == 0},
		{"early_bird", session.StartedAt.Hour() < 7},
		{"night_owl", session.StartedAt.Hour() >= 23},
	}

	var unlocked []Unlocked
	for _, c := range candidates {
		if !c.hit {
			continue
		}
		isNew, err := unlockOne(db, userID, c.typ)
		if err != nil {
			return nil, err
		}
		if isNew {
			d := catalogByType[c.typ]
			unlocked = append(unlocked, Unlocked{Type: d.Type, Name: d.Name, Icon: d.Icon})
		}
	}
	return unlocked, nil
}

// ApplyCompletion credits a completed session to the tree in place and
// returns the experience gained.
//
// Experience is 2 points per minute, with a 1.5x bonus (truncated) for a
// distraction-free session. Completing a session restores 5 health.
// Level-ups consume level*100 experience per level; the threshold is
// recomputed each iteration since it scales with the new level. Once the
// tree is at the max level, experience feeds garden growth instead,
// against a (garden_level+1)*200 threshold.
func ApplyCompletion(tree *models.FocusTree, actualMinutes, distractions int) int {
	expGained := actualMinutes * 2
	if distractions == 0 {
		expGained = expGained * 3 / 2
	}

	tree.Experience += expGained
	tree.TotalFocusMinutes += actualMinutes
	tree.TotalSessions++
	tree.Health = min(100, tree.Health+5)

	for tree.Experience >= ExpForNextLevel(tree) && tree.Level < MaxLevel {
		tree.Experience -= ExpForNextLevel(tree)
		tree.Level++
	}

	if tree.Level >= MaxLevel {
		tree.GardenExp += expGained
		for tree.GardenExp >= (tree.GardenLevel+1)*200 && tree.GardenLevel < MaxGardenLevel {
			tree.GardenExp -= (tree.GardenLevel + 1) * 200
			tree.GardenLevel++
		}
	}
	return expGained
}

// ApplyAbandonment penalizes an abandoned session: 10 health plus 5 per
// distraction, floored at 0. No experience, no streak change.
func ApplyAbandonment(tree *models.FocusTree, distractions int) {
	tree.Health = max(0, tree.Health-10-distractions*5)
}

// UpdateStreak advances the daily streak for a completed session. A
// session exactly one day after the previous one extends the streak; a
// second session on the same day leaves it unchanged; anything longer
// (or a first-ever session) restarts it at 1.
func UpdateStreak(tree *models.FocusTree, now time.Time) {
	if tree.LastSessionDate != nil {
		switch days := daysBetween(*tree.LastSessionDate, now); {
		case days == 1:
			tree.StreakDays++
		case days > 1:
			tree.StreakDays = 1
		}
	} else {
		tree.StreakDays = 1
	}
	today := dateOnly(now)
	tree.LastSessionDate = &today
}
