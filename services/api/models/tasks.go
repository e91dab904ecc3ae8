// Copyright (C) 2025 FocusFlow Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package models

import "time"

// Task statuses.
const (
	TaskPending    = "pending"
	TaskInProgress = "in_progress"
	TaskCompleted  = "completed"
)

type Task struct {
	ID            uint       `json:"id" gorm:"primaryKey"`
	UserID        uint       `json:"-" gorm:"index;not null"`
	Title         string     `json:"title" gorm:"size:200;not null"`
	Description   string     `json:"description"`
	Status        string     `json:"status" gorm:"size:20;default:pending"`
	Priority      int        `json:"priority" gorm:"default:1"` // 1-3
	TimerMinutes  int        `json:"timer_minutes" gorm:"default:25"`
	BreakMinutes  int        `json:"break_minutes" gorm:"default:5"`
	SessionsCount int        `json:"sessions_count" gorm:"default:4"`
	FocusPreset   string     `json:"focus_preset" gorm:"size:20;default:pomodoro"`
	AmbientSound  string     `json:"ambient_sound" gorm:"size:50;default:none"`
	PlaylistID    *uint      `json:"playlist_id"`
	CreatedAt     time.Time  `json:"created_at"`
	CompletedAt   *time.Time `json:"completed_at"`
}

type Subtask struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	TaskID      uint      `json:"task_id" gorm:"index;not null"`
	Title       string    `json:"title" gorm:"size:200;not null"`
	IsCompleted bool      `json:"is_completed"`
	Order       int       `json:"order" gorm:"column:sort_order"`
	CreatedAt   time.Time `json:"created_at"`
}

// TaskTemplate is a reusable task preset. Subtask titles are stored as a
// JSON array so templates stay a single row.
type TaskTemplate struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	UserID        uint      `json:"-" gorm:"index;not null"`
	Name          string    `json:"name" gorm:"size:100;not null"`
	Description   string    `json:"description"`
	Icon          string    `json:"icon" gorm:"size:10;default:📋"`
	Color         string    `json:"color" gorm:"size:20;default:primary"`
	TimerMinutes  int       `json:"timer_minutes" gorm:"default:25"`
	BreakMinutes  int       `json:"break_minutes" gorm:"default:5"`
	SessionsCount int       `json:"sessions_count" gorm:"default:4"`
	FocusPreset   string    `json:"focus_preset" gorm:"size:20;default:pomodoro"`
	AmbientSound  string    `json:"ambient_sound" gorm:"size:50;default:none"`
	SubtasksJSON  string    `json:"-" gorm:"column:subtasks_json;default:[]"`
	IsDefault     bool      `json:"is_default"`
	CreatedAt     time.Time `json:"created_at"`
}

type Note struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"-" gorm:"index;not null"`
	Title     string    `json:"title" gorm:"size:200"`
	Content   string    `json:"content" gorm:"not null"`
	IsPinned  bool      `json:"is_pinned"`
	Color     string    `json:"color" gorm:"size:20;default:default"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
