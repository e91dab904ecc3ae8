// Copyright (C) 2025 FocusFlow Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package models defines the gorm models for every FocusFlow table.
//
// All rows are owned by exactly one user. Nullable columns use pointer
// types so that partial updates can distinguish "absent" from "zero".
package models

import "time"

// User is an account. PasswordHash is empty for OAuth-only accounts.
type User struct {
	ID               uint      `json:"id" gorm:"primaryKey"`
	Email            string    `json:"email" gorm:"size:120;uniqueIndex;not null"`
	Username         string    `json:"username" gorm:"size:50;uniqueIndex;not null"`
	PasswordHash     string    `json:"-" gorm:"size:128"`
	Name             string    `json:"name" gorm:"size:100"`
	Bio              string    `json:"bio"`
	AvatarURL        string    `json:"avatar_url" gorm:"size:500"`
	GoogleID         *string   `json:"-" gorm:"size:100;uniqueIndex"`
	PinnedPlaylistID *uint     `json:"pinned_playlist_id"`
	CreatedAt        time.Time `json:"created_at"`
	LastSeen         time.Time `json:"last_seen"`
}
