// Copyright (C) 2025 FocusFlow Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package progression

import (
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/focusflowhq/focusflow/services/api/models"
)

// Unlocked describes one newly unlocked achievement, in the shape the
// client renders (type key, display name, icon).
type Unlocked struct {
	Type string `json:"type"`
	Name string `json:"name"`
	Icon string `json:"icon"`
}

// StatsSnapshot is a user's aggregate stats assembled with one read per
// source. Achievement predicates are pure functions over this snapshot,
// so the rules are testable without touching storage.
type StatsSnapshot struct {
	TotalSessions     int
	StreakDays        int
	TotalFocusMinutes int
	TreeLevel         int
	CompletedTasks    int64
	GratitudeEntries  int64
	MoodEntries       int64
	BestMemoryLevel   int
}

// Definition is one entry of the static achievement catalog. Check is
// nil for the session-time achievements (perfect_session, early_bird,
// night_owl), which are unlocked by the outcome processor from the
// session itself rather than from aggregate stats.
type Definition struct {
	Type        string
	Name        string
	Icon        string
	Description string
	Check       func(StatsSnapshot) bool
}

// Catalog is the full achievement table. It is constructed once at
// process start and never mutated; evaluation order for CheckAndUnlock
// is the declaration order of the stat-based entries.
var Catalog = []Definition{
	{"first_session", "First Step", "🌱", "Complete your first focus session",
		func(s StatsSnapshot) bool { return s.TotalSessions >= 1 }},
	{"sessions_10", "Beginner", "🌿", "Complete 10 sessions",
		func(s StatsSnapshot) bool { return s.TotalSessions >= 10 }},
	{"sessions_50", "Practitioner", "🌳", "Complete 50 sessions",
		func(s StatsSnapshot) bool { return s.TotalSessions >= 50 }},
	{"sessions_100", "Focus Master", "🏆", "Complete 100 sessions",
		func(s StatsSnapshot) bool { return s.TotalSessions >= 100 }},
	{"streak_3", "Three in a Row", "🔥", "3 days in a row with sessions",
		func(s StatsSnapshot) bool { return s.StreakDays >= 3 }},
	{"streak_7", "Week of Strength", "💪", "7 days in a row with sessions",
		func(s StatsSnapshot) bool { return s.StreakDays >= 7 }},
	{"streak_30", "Month of Discipline", "⭐", "30 days in a row",
		func(s StatsSnapshot) bool { return s.StreakDays >= 30 }},
	{"hours_10", "10 Hours of Focus", "⏰", "Accumulate 10 hours of focus",
		func(s StatsSnapshot) bool { return s.TotalFocusMinutes >= 600 }},
	{"hours_50", "50 Hours of Focus", "🎯", "Accumulate 50 hours of focus",
		func(s StatsSnapshot) bool { return s.TotalFocusMinutes >= 3000 }},
	{"hours_100", "Centurion", "👑", "Accumulate 100 hours of focus",
		func(s StatsSnapshot) bool { return s.TotalFocusMinutes >= 6000 }},
	{"perfect_session", "Perfect Session", "✨", "A session with zero distractions", nil},
	{"early_bird", "Early Bird", "🌅", "A session before 7 AM", nil},
	{"night_owl", "Night Owl", "🦉", "A session after 11 PM", nil},
	{"tree_level_5", "Gardener", "🌲", "Tree reached level 5",
		func(s StatsSnapshot) bool { return s.TreeLevel >= 5 }},
	{"tree_level_10", "Forester", "🌴", "Tree reached level 10",
		func(s StatsSnapshot) bool { return s.TreeLevel >= 10 }},
	{"tasks_10", "Productive", "📋", "Complete 10 tasks",
		func(s StatsSnapshot) bool { return s.CompletedTasks >= 10 }},
	{"tasks_50", "Machine", "🚀", "Complete 50 tasks",
		func(s StatsSnapshot) bool { return s.CompletedTasks >= 50 }},
	{"gratitude_7", "Grateful", "🙏", "7 gratitude entries",
		func(s StatsSnapshot) bool { return s.GratitudeEntries >= 7 }},
	{"mood_streak_7", "Self-Aware", "💭", "7 mood journal entries",
		func(s StatsSnapshot) bool { return s.MoodEntries >= 7 }},
	{"memory_master", "Sharp Mind", "🧠", "Reach level 10 in a memory game",
		func(s StatsSnapshot) bool { return s.BestMemoryLevel >= 10 }},
}

// catalogByType is derived from Catalog at init and shared read-only.
var catalogByType = func() map[string]Definition {
	m := make(map[string]Definition, len(Catalog))
	for _, d := range Catalog {
		m[d.Type] = d
	}
	return m
}()

// LoadStats assembles the stats snapshot for a user: the ledger row plus
// one count per collaborating aggregate source.
func LoadStats(db *gorm.DB, userID uint) (StatsSnapshot, error) {
	var snap StatsSnapshot

	tree, err := GetOrCreateTree(db, userID)
	if err != nil {
		return snap, err
	}
	snap.TotalSessions = tree.TotalSessions
	snap.StreakDays = tree.StreakDays
	snap.TotalFocusMinutes = tree.TotalFocusMinutes
	snap.TreeLevel = tree.Level

	if err := db.Model(&models.Task{}).
		Where("user_id = ? AND status = ?", userID, models.TaskCompleted).
		Count(&snap.CompletedTasks).Error; err != nil {
		return snap, fmt.Errorf("count completed tasks: %w", err)
	}
	if err := db.Model(&models.GratitudeEntry{}).
		Where("user_id = ?", userID).
		Count(&snap.GratitudeEntries).Error; err != nil {
		return snap, fmt.Errorf("count gratitude entries: %w", err)
	}
	if err := db.Model(&models.MoodEntry{}).
		Where("user_id = ?", userID).
		Count(&snap.MoodEntries).Error; err != nil {
		return snap, fmt.Errorf("count mood entries: %w", err)
	}
	var best *int
	if err := db.Model(&models.MemoryGameScore{}).
		Where("user_id = ?", userID).
		Select("max(level)").Scan(&best).Error; err != nil {
		return snap, fmt.Errorf("best memory level: %w", err)
	}
	if best != nil {
		snap.BestMemoryLevel = *best
	}
	return snap, nil
}

// Evaluate returns the types of all stat-based achievements satisfied by
// the snapshot, in catalog order. Pure function; it does not consult the
// unlocked set.
func Evaluate(snap StatsSnapshot) []string {
	var satisfied []string
	for _, d := range Catalog {
		if d.Check != nil && d.Check(snap) {
			satisfied = append(satisfied, d.Type)
		}
	}
	return satisfied
}

// CheckAndUnlock evaluates every stat-based achievement for the user and
// records any that are satisfied but not yet unlocked. It returns only
// the newly unlocked subset; calling it twice with unchanged stats
// returns an empty list the second time.
//
// The membership check and the insert are made atomic by the unique
// index on (user_id, achievement_type): a concurrent duplicate insert is
// absorbed by ON CONFLICT DO NOTHING rather than raised as an error.
func CheckAndUnlock(db *gorm.DB, userID uint) ([]Unlocked, error) {
	snap, err := LoadStats(db, userID)
	if err != nil {
		return nil, err
	}

	unlocked := []Unlocked{}
	for _, typ := range Evaluate(snap) {
		isNew, err := unlockOne(db, userID, typ)
		if err != nil {
			return nil, err
		}
		if isNew {
			d := catalogByType[typ]
			unlocked = append(unlocked, Unlocked{Type: d.Type, Name: d.Name, Icon: d.Icon})
		}
	}
	return unlocked, nil
}

// unlockOne inserts the unlock record if it does not exist yet and
// reports whether this call created it.
func unlockOne(db *gorm.DB, userID uint, achievementType string) (bool, error) {
	rec := models.Achievement{UserID: userID, AchievementType: achievementType}
	res := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&rec)
	if res.Error != nil {
		return false, fmt.Errorf("unlock %s: %w", achievementType, res.Error)
	}
	return res.RowsAffected > 0, nil
}
