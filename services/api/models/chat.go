// Copyright (C) 2025 FocusFlow Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package models

import "time"

// Chat types.
const (
	ChatPrivate = "private"
	ChatGroup   = "group"
	ChatChannel = "channel"
)

// Member roles.
const (
	RoleOwner  = "owner"
	RoleAdmin  = "admin"
	RoleMember = "member"
)

type Chat struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	Name           *string   `json:"name" gorm:"size:100"` // nil for private chats
	Description    string    `json:"description"`
	AvatarURL      string    `json:"avatar_url" gorm:"size:500"`
	ChatType       string    `json:"chat_type" gorm:"size:20;default:private"`
	IsWorkChat     bool      `json:"is_work_chat"` // exempt from focus mode
	IsPublic       bool      `json:"is_public"`
	Username       *string   `json:"username" gorm:"size:50;uniqueIndex"`
	InviteLink     *string   `json:"invite_link" gorm:"size:100;uniqueIndex"`
	// No column default: gorm drops zero values for defaulted columns
	// on insert, which would silently turn a channel's false into true.
	// Every creation path sets this explicitly.
	MembersCanSend bool      `json:"members_can_send"`
	MembersCanAdd  bool      `json:"members_can_add"`
	MembersCanPin  bool      `json:"members_can_pin"`
	SlowMode       int       `json:"slow_mode"` // seconds between messages
	OwnerID        *uint     `json:"owner_id"`
	CreatedAt      time.Time `json:"created_at"`
}

type ChatMember struct {
	ID              uint       `json:"-" gorm:"primaryKey"`
	ChatID          uint       `json:"chat_id" gorm:"not null;uniqueIndex:idx_chat_member"`
	UserID          uint       `json:"user_id" gorm:"not null;uniqueIndex:idx_chat_member"`
	Role            string     `json:"role" gorm:"size:20;default:member"`
	JoinedAt        time.Time  `json:"joined_at" gorm:"autoCreateTime"`
	IsMuted         bool       `json:"is_muted"`
	MutedUntil      *time.Time `json:"muted_until"`
	CanSendMessages bool       `json:"can_send_messages" gorm:"default:true"`
	CanSendMedia    bool       `json:"can_send_media" gorm:"default:true"`
}

type Message struct {
	ID        uint       `json:"id" gorm:"primaryKey"`
	ChatID    uint       `json:"chat_id" gorm:"index;not null"`
	SenderID  uint       `json:"sender_id" gorm:"not null"`
	Content   string     `json:"content" gorm:"not null"`
	CreatedAt time.Time  `json:"created_at"`
	EditedAt  *time.Time `json:"edited_at"`
	IsRead    bool       `json:"is_read"`
	ReplyToID *uint      `json:"reply_to_id"`
}
