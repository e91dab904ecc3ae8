// Copyright (C) 2025 FocusFlow Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package progression

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/focusflowhq/focusflow/services/api/models"
)

func TestApplyCompletion(t *testing.T) {
	t.Run("zero distractions earn the 1.5x bonus truncated", func(t *testing.T) {
		tree := &models.FocusTree{Level: 1, Health: 90}

		gained := ApplyCompletion(tree, 25, 0)

		if gained != 75 { // 25*2 = 50, *1.5 = 75
			t.Errorf("exp gained = %d, want 75", gained)
		}
		if tree.Health != 95 {
			t.Errorf("health = %d, want 95", tree.Health)
		}
		if tree.TotalFocusMinutes != 25 || tree.TotalSessions != 1 {
			t.Errorf("totals = (%d min, %d sessions), want (25, 1)",
				tree.TotalFocusMinutes, tree.TotalSessions)
		}
	})

	t.Run("distracted sessions earn the base rate", func(t *testing.T) {
		tree := &models.FocusTree{Level: 1}
		if gained := ApplyCompletion(tree, 25, 3); gained != 50 {
			t.Errorf("exp gained = %d, want 50", gained)
		}
	})

	t.Run("bonus truncates odd products", func(t *testing.T) {
		tree := &models.FocusTree{Level: 1}
		// 7 minutes: 14 exp, *1.5 = 21 exactly; 3 minutes: 6*1.5 = 9.
		if gained := ApplyCompletion(tree, 3, 0); gained != 9 {
			t.Errorf("exp gained = %d, want 9", gained)
		}
	})

	t.Run("level-up consumes the scaled threshold", func(t *testing.T) {
		tree := &models.FocusTree{Level: 1, Experience: 95}

		gained := ApplyCompletion(tree, 15, 0) // 15*2*1.5 = 45

		if gained != 45 {
			t.Fatalf("exp gained = %d, want 45", gained)
		}
		// 95+45 = 140, one level-up consumes 100, leaving 40 at level 2.
		if tree.Level != 2 || tree.Experience != 40 {
			t.Errorf("tree = level %d exp %d, want level 2 exp 40", tree.Level, tree.Experience)
		}
	})

	t.Run("multiple level-ups in one session", func(t *testing.T) {
		tree := &models.FocusTree{Level: 1, Experience: 0}

		ApplyCompletion(tree, 120, 0) // 360 exp: 100 to level 2, 200 to level 3

		if tree.Level != 3 || tree.Experience != 60 {
			t.Errorf("tree = level %d exp %d, want level 3 exp 60", tree.Level, tree.Experience)
		}
	})

	t.Run("garden never grows below max level", func(t *testing.T) {
		tree := &models.FocusTree{Level: 5, Experience: 0}

		ApplyCompletion(tree, 60, 0)

		if tree.GardenLevel != 0 || tree.GardenExp != 0 {
			t.Errorf("garden = level %d exp %d, want untouched below tree level 10",
				tree.GardenLevel, tree.GardenExp)
		}
	})

	t.Run("at max level experience routes into the garden", func(t *testing.T) {
		tree := &models.FocusTree{Level: MaxLevel, Experience: 0, GardenLevel: 0, GardenExp: 150}

		gained := ApplyCompletion(tree, 25, 0) // 75 exp

		if gained != 75 {
			t.Fatalf("exp gained = %d, want 75", gained)
		}
		// 150+75 = 225; first garden level costs 200, leaving 25.
		if tree.GardenLevel != 1 || tree.GardenExp != 25 {
			t.Errorf("garden = level %d exp %d, want level 1 exp 25",
				tree.GardenLevel, tree.GardenExp)
		}
		if tree.Level != MaxLevel {
			t.Errorf("tree level moved past cap: %d", tree.Level)
		}
	})

	t.Run("garden level caps at 20", func(t *testing.T) {
		tree := &models.FocusTree{Level: MaxLevel, GardenLevel: MaxGardenLevel, GardenExp: 0}

		ApplyCompletion(tree, 10000, 0)

		if tree.GardenLevel != MaxGardenLevel {
			t.Errorf("garden level = %d, want capped at %d", tree.GardenLevel, MaxGardenLevel)
		}
	})
}

func TestApplyAbandonment(t *testing.T) {
	tree := &models.FocusTree{Health: 50}

	ApplyAbandonment(tree, 2)

	if tree.Health != 30 { // 50 - 10 - 2*5
		t.Errorf("health = %d, want 30", tree.Health)
	}

	ApplyAbandonment(tree, 10)
	if tree.Health != 0 {
		t.Errorf("health = %d, want floor of 0", tree.Health)
	}
}

func TestUpdateStreak(t *testing.T) {
	now := time.Date(2025, 6, 10, 14, 30, 0, 0, time.UTC)
	today := date(2025, 6, 10)

	cases := []struct {
		name string
		last *time.Time
		from int
		want int
	}{
		{"first session starts the streak", nil, 0, 1},
		{"yesterday extends it", ptr(date(2025, 6, 9)), 4, 5},
		{"same day leaves it unchanged", ptr(today), 4, 4},
		{"three days ago resets to one", ptr(date(2025, 6, 7)), 9, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tree := &models.FocusTree{StreakDays: tc.from, LastSessionDate: tc.last}

			UpdateStreak(tree, now)

			if tree.StreakDays != tc.want {
				t.Errorf("streak = %d, want %d", tree.StreakDays, tc.want)
			}
			if tree.LastSessionDate == nil || !tree.LastSessionDate.Equal(today) {
				t.Errorf("last session date = %v, want %v", tree.LastSessionDate, today)
			}
		})
	}

	t.Run("local clock stamps the UTC date", func(t *testing.T) {
		tree := &models.FocusTree{StreakDays: 4, LastSessionDate: ptr(date(2025, 6, 9))}
		// 00:30 on June 11 at UTC+13 is still June 10 in UTC.
		local := time.Date(2025, 6, 11, 0, 30, 0, 0, time.FixedZone("UTC+13", 13*3600))

		UpdateStreak(tree, local)

		if tree.StreakDays != 5 {
			t.Errorf("streak = %d, want 5", tree.StreakDays)
		}
		if !tree.LastSessionDate.Equal(today) {
			t.Errorf("last session date = %v, want %v", tree.LastSessionDate, today)
		}
	})
}

func ptr(t time.Time) *time.Time { return &t }

func TestEndSession(t *testing.T) {
	ctx := context.Background()

	t.Run("completed session updates ledger and unlocks", func(t *testing.T) {
		db := openTestDB(t)

		session := models.FocusSession{
			UserID:          1,
			DurationMinutes: 25,
			StartedAt:       time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC),
		}
		require.NoError(t, db.Create(&session).Error)

		now := session.StartedAt.Add(25 * time.Minute)
		outcome, unlocked, err := EndSession(ctx, db, 1, session.ID, true, 0, now)
		require.NoError(t, err)

		require.Equal(t, 75, outcome.ExpGained)
		require.Equal(t, 1, outcome.Level)
		require.Equal(t, 75, outcome.Experience)
		require.Equal(t, 100, outcome.Health)

		types := unlockedTypes(unlocked)
		require.Contains(t, types, "first_session")
		require.Contains(t, types, "perfect_session")
		require.NotContains(t, types, "early_bird")
		require.NotContains(t, types, "night_owl")

		var saved models.FocusSession
		require.NoError(t, db.First(&saved, session.ID).Error)
		require.True(t, saved.IsCompleted)
		require.NotNil(t, saved.EndedAt)
		require.Equal(t, 75, saved.TreeGrowth)
	})

	t.Run("elapsed wall clock wins over requested duration", func(t *testing.T) {
		db := openTestDB(t)
		session := models.FocusSession{
			UserID:          1,
			DurationMinutes: 25,
			StartedAt:       time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC),
		}
		require.NoError(t, db.Create(&session).Error)

		// Ended after only 10 minutes: exp follows the measured time.
		now := session.StartedAt.Add(10 * time.Minute)
		outcome, _, err := EndSession(ctx, db, 1, session.ID, true, 1, now)
		require.NoError(t, err)
		require.Equal(t, 20, outcome.ExpGained)
	})

	t.Run("abandoned session costs health only", func(t *testing.T) {
		db := openTestDB(t)
		session := models.FocusSession{
			UserID:          1,
			DurationMinutes: 25,
			StartedAt:       time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC),
		}
		require.NoError(t, db.Create(&session).Error)

		outcome, unlocked, err := EndSession(ctx, db, 1, session.ID, false, 2,
			session.StartedAt.Add(5*time.Minute))
		require.NoError(t, err)

		require.Equal(t, 80, outcome.Health) // 100 - 10 - 2*5
		require.Zero(t, outcome.ExpGained)
		require.Empty(t, unlocked)

		tree, err := GetOrCreateTree(db, 1)
		require.NoError(t, err)
		require.Zero(t, tree.StreakDays)
		require.Nil(t, tree.LastSessionDate)
	})

	t.Run("night session unlocks night_owl from its start time", func(t *testing.T) {
		db := openTestDB(t)
		session := models.FocusSession{
			UserID:          1,
			DurationMinutes: 25,
			StartedAt:       time.Date(2025, 6, 10, 23, 30, 0, 0, time.UTC),
		}
		require.NoError(t, db.Create(&session).Error)

		_, unlocked, err := EndSession(ctx, db, 1, session.ID, true, 1,
			session.StartedAt.Add(25*time.Minute))
		require.NoError(t, err)
		require.Contains(t, unlockedTypes(unlocked), "night_owl")
	})

	t.Run("unknown or foreign session is not found", func(t *testing.T) {
		db := openTestDB(t)
		session := models.FocusSession{UserID: 2, DurationMinutes: 25, StartedAt: time.Now()}
		require.NoError(t, db.Create(&session).Error)

		_, _, err := EndSession(ctx, db, 1, session.ID, true, 0, time.Now())
		require.True(t, errors.Is(err, ErrSessionNotFound))

		_, _, err = EndSession(ctx, db, 1, 9999, true, 0, time.Now())
		require.True(t, errors.Is(err, ErrSessionNotFound))
	})
}

func TestAddDistraction(t *testing.T) {
	db := openTestDB(t)
	session := models.FocusSession{UserID: 1, DurationMinutes: 25, StartedAt: time.Now()}
	require.NoError(t, db.Create(&session).Error)

	count, err := AddDistraction(db, 1, session.ID)
	require.NoError(t, err)
	require.Equal(t, 1, count)

	count, err = AddDistraction(db, 1, session.ID)
	require.NoError(t, err)
	require.Equal(t, 2, count)

	tree, err := GetOrCreateTree(db, 1)
	require.NoError(t, err)
	require.Equal(t, 96, tree.Health)

	_, err = AddDistraction(db, 2, session.ID)
	require.True(t, errors.Is(err, ErrSessionNotFound))
}

func unlockedTypes(unlocked []Unlocked) []string {
	types := make([]string, 0, len(unlocked))
	for _, u := range unlocked {
		types = append(types, u.Type)
	}
	return types
}
