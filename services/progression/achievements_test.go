// Copyright (C) 2025 FocusFlow Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package progression

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/focusflowhq/focusflow/services/api/models"
)

func TestEvaluate(t *testing.T) {
	t.Run("empty snapshot satisfies nothing", func(t *testing.T) {
		if got := Evaluate(StatsSnapshot{}); len(got) != 0 {
			t.Errorf("Evaluate(zero) = %v, want none", got)
		}
	})

	t.Run("thresholds are inclusive", func(t *testing.T) {
		got := Evaluate(StatsSnapshot{
			TotalSessions:     10,
			StreakDays:        3,
			TotalFocusMinutes: 600,
			TreeLevel:         5,
			CompletedTasks:    10,
			GratitudeEntries:  7,
			MoodEntries:       7,
			BestMemoryLevel:   10,
		})
		want := []string{
			"first_session", "sessions_10", "streak_3", "hours_10",
			"tree_level_5", "tasks_10", "gratitude_7", "mood_streak_7",
			"memory_master",
		}
		require.Equal(t, want, got)
	})

	t.Run("results follow catalog order", func(t *testing.T) {
		got := Evaluate(StatsSnapshot{TotalSessions: 100, StreakDays: 30})
		want := []string{
			"first_session", "sessions_10", "sessions_50", "sessions_100",
			"streak_3", "streak_7", "streak_30",
		}
		require.Equal(t, want, got)
	})

	t.Run("session-time achievements are never stat-evaluated", func(t *testing.T) {
		got := Evaluate(StatsSnapshot{
			TotalSessions: 1000, StreakDays: 1000, TotalFocusMinutes: 100000,
			TreeLevel: 10, CompletedTasks: 1000, GratitudeEntries: 1000,
			MoodEntries: 1000, BestMemoryLevel: 100,
		})
		for _, typ := range got {
			if typ == "perfect_session" || typ == "early_bird" || typ == "night_owl" {
				t.Errorf("%s unlocked from stats", typ)
			}
		}
	})
}

func TestCatalog(t *testing.T) {
	seen := map[string]bool{}
	for _, d := range Catalog {
		if d.Type == "" || d.Name == "" || d.Icon == "" {
			t.Errorf("incomplete definition: %+v", d)
		}
		if seen[d.Type] {
			t.Errorf("duplicate achievement type %s", d.Type)
		}
		seen[d.Type] = true
	}
	if len(Catalog) != 20 {
		t.Errorf("catalog has %d entries, want 20", len(Catalog))
	}
}

func TestCheckAndUnlock(t *testing.T) {
	db := openTestDB(t)

	tree, err := GetOrCreateTree(db, 1)
	require.NoError(t, err)
	tree.TotalSessions = 12
	tree.StreakDays = 3
	require.NoError(t, db.Save(tree).Error)

	unlocked, err := CheckAndUnlock(db, 1)
	require.NoError(t, err)
	require.Equal(t, []string{"first_session", "sessions_10", "streak_3"}, unlockedTypes(unlocked))

	// Unlock payload carries display data for the client.
	require.Equal(t, "First Step", unlocked[0].Name)
	require.Equal(t, "🌱", unlocked[0].Icon)

	// Idempotent: unchanged stats unlock nothing new.
	unlocked, err = CheckAndUnlock(db, 1)
	require.NoError(t, err)
	require.Empty(t, unlocked)

	// Growing stats only surface the delta.
	tree.StreakDays = 7
	require.NoError(t, db.Save(tree).Error)
	unlocked, err = CheckAndUnlock(db, 1)
	require.NoError(t, err)
	require.Equal(t, []string{"streak_7"}, unlockedTypes(unlocked))

	// The unlocked set only ever grows.
	var count int64
	require.NoError(t, db.Model(&models.Achievement{}).Where("user_id = ?", 1).Count(&count).Error)
	require.EqualValues(t, 4, count)
}

func TestCheckAndUnlockCrossAggregates(t *testing.T) {
	db := openTestDB(t)

	for i := 0; i < 10; i++ {
		done := time.Now()
		require.NoError(t, db.Create(&models.Task{
			UserID: 1, Title: "t", Status: models.TaskCompleted, CompletedAt: &done,
		}).Error)
	}
	for i := 0; i < 7; i++ {
		require.NoError(t, db.Create(&models.GratitudeEntry{
			UserID: 1, Content: "g", Date: date(2025, 6, 1).AddDate(0, 0, i),
		}).Error)
	}
	require.NoError(t, db.Create(&models.MemoryGameScore{
		UserID: 1, GameType: "sequence", Score: 900, Level: 11,
	}).Error)

	unlocked, err := CheckAndUnlock(db, 1)
	require.NoError(t, err)
	require.Equal(t, []string{"tasks_10", "gratitude_7", "memory_master"}, unlockedTypes(unlocked))
}

func TestUnlockOneAbsorbsDuplicates(t *testing.T) {
	db := openTestDB(t)

	isNew, err := unlockOne(db, 1, "first_session")
	require.NoError(t, err)
	require.True(t, isNew)

	// The unique index turns a racing duplicate into a silent no-op.
	isNew, err = unlockOne(db, 1, "first_session")
	require.NoError(t, err)
	require.False(t, isNew)

	// Other users are unaffected.
	isNew, err = unlockOne(db, 2, "first_session")
	require.NoError(t, err)
	require.True(t, isNew)
}

func TestLoadStats(t *testing.T) {
	db := openTestDB(t)

	// A brand-new user gets a zero snapshot plus the lazily created tree.
	snap, err := LoadStats(db, 1)
	require.NoError(t, err)
	require.Equal(t, 1, snap.TreeLevel)
	require.Zero(t, snap.TotalSessions)
	require.Zero(t, snap.BestMemoryLevel)

	require.NoError(t, db.Create(&models.MoodEntry{UserID: 1, Mood: 4, Date: date(2025, 6, 1)}).Error)
	require.NoError(t, db.Create(&models.MemoryGameScore{UserID: 1, GameType: "cards", Score: 10, Level: 3}).Error)
	require.NoError(t, db.Create(&models.MemoryGameScore{UserID: 1, GameType: "cards", Score: 20, Level: 8}).Error)

	snap, err = LoadStats(db, 1)
	require.NoError(t, err)
	require.EqualValues(t, 1, snap.MoodEntries)
	require.Equal(t, 8, snap.BestMemoryLevel)
}
