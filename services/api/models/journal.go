// Copyright (C) 2025 FocusFlow Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package models

import "time"

// MoodEntry is one journal entry per user per calendar day.
type MoodEntry struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"-" gorm:"index;not null"`
	Mood      int       `json:"mood" gorm:"not null"`      // 1-5
	Energy    int       `json:"energy" gorm:"default:3"`   // 1-5
	Note      string    `json:"note"`
	Tags      string    `json:"-" gorm:"size:500"` // comma-separated
	Date      time.Time `json:"date" gorm:"type:date"`
	CreatedAt time.Time `json:"created_at"`
}

type GratitudeEntry struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"-" gorm:"index;not null"`
	Content   string    `json:"content" gorm:"not null"`
	Category  string    `json:"category" gorm:"size:50;default:general"`
	Date      time.Time `json:"date" gorm:"type:date"`
	CreatedAt time.Time `json:"created_at"`
}

type MemoryGameScore struct {
	ID       uint      `json:"id" gorm:"primaryKey"`
	UserID   uint      `json:"-" gorm:"index;not null"`
	GameType string    `json:"game_type" gorm:"size:50;not null"` // sequence, cards, numbers
	Score    int       `json:"score" gorm:"not null"`
	Level    int       `json:"level" gorm:"default:1"`
	PlayedAt time.Time `json:"played_at" gorm:"autoCreateTime"`
}
