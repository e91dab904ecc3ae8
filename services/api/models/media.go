// Copyright (C) 2025 FocusFlow Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package models

import "time"

type Playlist struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	UserID      uint      `json:"-" gorm:"index;not null"`
	Name        string    `json:"name" gorm:"size:100;not null"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// Track belongs to a playlist. URL is either an external link or a
// "cloud:{id}" reference to a CloudFile row.
type Track struct {
	ID         uint   `json:"id" gorm:"primaryKey"`
	PlaylistID uint   `json:"playlist_id" gorm:"index;not null"`
	Title      string `json:"title" gorm:"size:200;not null"`
	Artist     string `json:"artist" gorm:"size:200"`
	URL        string `json:"url" gorm:"size:500;not null"`
	Duration   int    `json:"duration"` // seconds
	Order      int    `json:"order" gorm:"column:sort_order"`
}

// YandexDiskToken holds a user's OAuth credentials for Yandex Disk.
type YandexDiskToken struct {
	ID           uint       `json:"-" gorm:"primaryKey"`
	UserID       uint       `json:"-" gorm:"uniqueIndex;not null"`
	AccessToken  string     `json:"-" gorm:"not null"`
	RefreshToken string     `json:"-"`
	ExpiresAt    *time.Time `json:"expires_at"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// CloudFile indexes a file stored on the user's Yandex Disk.
type CloudFile struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"-" gorm:"index;not null"`
	Filename  string    `json:"filename" gorm:"size:255;not null"`
	CloudPath string    `json:"cloud_path" gorm:"size:500;not null"`
	FileType  string    `json:"file_type" gorm:"size:50;default:music"`
	Size      int64     `json:"size"`
	MimeType  string    `json:"mime_type" gorm:"size:100"`
	Title     string    `json:"title" gorm:"size:255"`
	Artist    string    `json:"artist" gorm:"size:255"`
	Duration  int       `json:"duration"` // seconds
	CreatedAt time.Time `json:"created_at"`
}
