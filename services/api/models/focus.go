// Copyright (C) 2025 FocusFlow Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package models

import "time"

// FocusSession is one timed focus interval. It is created at session
// start, mutated once at session end, and immutable afterward.
type FocusSession struct {
	ID              uint       `json:"id" gorm:"primaryKey"`
	UserID          uint       `json:"-" gorm:"index;not null"`
	TaskID          *uint      `json:"task_id"`
	PlaylistID      *uint      `json:"playlist_id"`
	DurationMinutes int        `json:"duration_minutes" gorm:"not null"`
	StartedAt       time.Time  `json:"started_at" gorm:"autoCreateTime"`
	EndedAt         *time.Time `json:"ended_at"`
	IsCompleted     bool       `json:"is_completed"`
	Distractions    int        `json:"distractions"`
	TreeGrowth      int        `json:"tree_growth"` // experience awarded by this session
}

// FocusTree is the per-user progression ledger. One row per user,
// created lazily on first access.
//
// Invariant: Experience < Level*100 whenever Level < 10. Garden fields
// only advance once Level has reached 10.
type FocusTree struct {
	ID                uint       `json:"id" gorm:"primaryKey"`
	UserID            uint       `json:"-" gorm:"uniqueIndex;not null"`
	Level             int        `json:"level" gorm:"default:1"`   // 1-10
	Experience        int        `json:"experience"`               // resets partially on level-up
	Health            int        `json:"health" gorm:"default:100"` // 0-100
	TotalFocusMinutes int        `json:"total_focus_minutes"`
	TotalSessions     int        `json:"total_sessions"`
	StreakDays        int        `json:"streak_days"`
	LastSessionDate   *time.Time `json:"last_session_date" gorm:"type:date"`
	LastDecayDate     *time.Time `json:"-" gorm:"type:date"`
	TreeType          string     `json:"tree_type" gorm:"size:20;default:oak"`
	GardenLevel       int        `json:"garden_level"` // 0-20
	GardenExp         int        `json:"garden_exp"`
	CreatedAt         time.Time  `json:"created_at"`
}

type FocusSettings struct {
	ID                      uint   `json:"-" gorm:"primaryKey"`
	UserID                  uint   `json:"-" gorm:"uniqueIndex;not null"`
	WorkDuration            int    `json:"work_duration" gorm:"default:25"`
	ShortBreak              int    `json:"short_break" gorm:"default:5"`
	LongBreak               int    `json:"long_break" gorm:"default:15"`
	SessionsBeforeLongBreak int    `json:"sessions_before_long_break" gorm:"default:4"`
	BlockNotifications      bool   `json:"block_notifications" gorm:"default:true"`
	FullscreenMode          bool   `json:"fullscreen_mode"`
	AmbientSound            string `json:"ambient_sound" gorm:"size:50;default:none"`
	AmbientVolume           int    `json:"ambient_volume" gorm:"default:50"`
	Theme                   string `json:"theme" gorm:"size:20;default:dark"`
	WaterReminder           bool   `json:"water_reminder" gorm:"default:true"`
	WaterInterval           int    `json:"water_interval" gorm:"default:30"`
	EyeReminder             bool   `json:"eye_reminder" gorm:"default:true"`
	EyeInterval             int    `json:"eye_interval" gorm:"default:20"`
}

// Achievement records a one-time unlock of an achievement type for a
// user. The composite unique index makes the membership check and the
// insert atomic: a racing duplicate insert is absorbed by the store.
type Achievement struct {
	ID              uint      `json:"id" gorm:"primaryKey"`
	UserID          uint      `json:"-" gorm:"not null;uniqueIndex:idx_user_achievement"`
	AchievementType string    `json:"type" gorm:"size:50;not null;uniqueIndex:idx_user_achievement"`
	UnlockedAt      time.Time `json:"unlocked_at" gorm:"autoCreateTime"`
}
