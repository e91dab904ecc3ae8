// Copyright (C) 2025 FocusFlow Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/focusflowhq/focusflow/services/api/middleware"
	"github.com/focusflowhq/focusflow/services/api/models"
)

func newInviteLink() string {
	return uuid.NewString()
}

func chatMembership(db *gorm.DB, chatID, userID uint) (*models.ChatMember, error) {
	var member models.ChatMember
	err := db.Where("chat_id = ? AND user_id = ?", chatID, userID).First(&member).Error
	if err != nil {
		return nil, err
	}
	return &member, nil
}

func isChatAdmin(db *gorm.DB, chat *models.Chat, userID uint) bool {
	if chat.OwnerID != nil && *chat.OwnerID == userID {
		return true
	}
	member, err := chatMembership(db, chat.ID, userID)
	return err == nil && (member.Role == models.RoleOwner || member.Role == models.RoleAdmin)
}

func chatDisplayName(db *gorm.DB, chat *models.Chat, userID uint) (string, *models.User) {
	if chat.ChatType != models.ChatPrivate {
		if chat.Name != nil {
			return *chat.Name, nil
		}
		return "Group", nil
	}
	var other models.User
	err := db.Joins("JOIN chat_members ON chat_members.user_id = users.id").
		Where("chat_members.chat_id = ? AND users.id <> ?", chat.ID, userID).
		First(&other).Error
	if err != nil {
		return "Chat", nil
	}
	if other.Name != "" {
		return other.Name, &other
	}
	return other.Username, &other
}

// ListChats returns the caller's chats ordered by most recent message,
// with unread counts and a last-message preview.
func ListChats(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := middleware.UserID(c)

		var chats []models.Chat
		err := db.Joins("JOIN chat_members ON chat_members.chat_id = chats.id").
			Where("chat_members.user_id = ?", userID).Find(&chats).Error
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load chats"})
			return
		}

		type entry struct {
			payload gin.H
			lastAt  time.Time
		}
		entries := make([]entry, 0, len(chats))
		for i := range chats {
			chat := &chats[i]

			var last models.Message
			hasLast := db.Where("chat_id = ?", chat.ID).
				Order("created_at desc").First(&last).Error == nil

			var unread int64
			db.Model(&models.Message{}).
				Where("chat_id = ? AND sender_id <> ? AND is_read = ?", chat.ID, userID, false).
				Count(&unread)

			var membersCount int64
			db.Model(&models.ChatMember{}).Where("chat_id = ?", chat.ID).Count(&membersCount)

			name, other := chatDisplayName(db, chat, userID)

			payload := gin.H{
				"id":            chat.ID,
				"name":          name,
				"chat_type":     chat.ChatType,
				"is_group":      chat.ChatType != models.ChatPrivate,
				"members_count": membersCount,
				"unread_count":  unread,
			}
			if other != nil {
				payload["other_user_id"] = other.ID
				payload["other_username"] = other.Username
				payload["avatar"] = other.AvatarURL
			} else {
				payload["avatar"] = chat.AvatarURL
			}
			var lastAt time.Time
			if hasLast {
				lastAt = last.CreatedAt
				payload["last_message"] = gin.H{
					"content":    last.Content,
					"sender_id":  last.SenderID,
					"created_at": last.CreatedAt,
					"is_mine":    last.SenderID == userID,
				}
			} else {
				payload["last_message"] = nil
			}
			entries = append(entries, entry{payload, lastAt})
		}

		// Most recently active chat first.
		for i := 0; i < len(entries); i++ {
			for j := i + 1; j < len(entries); j++ {
				if entries[j].lastAt.After(entries[i].lastAt) {
					entries[i], entries[j] = entries[j], entries[i]
				}
			}
		}
		result := make([]gin.H, 0, len(entries))
		for _, e := range entries {
			result = append(result, e.payload)
		}
		c.JSON(http.StatusOK, result)
	}
}

type createChatRequest struct {
	ChatType       string `json:"chat_type"`
	Name           string `json:"name"`
	Description    string `json:"description"`
	IsPublic       bool   `json:"is_public"`
	Username       string `json:"username"`
	UserID         *uint  `json:"user_id"` // peer, for private chats
	MemberIDs      []uint `json:"member_ids"`
	MembersCanSend *bool  `json:"members_can_send"`
	MembersCanAdd  bool   `json:"members_can_add"`
	MembersCanPin  bool   `json:"members_can_pin"`
	SlowMode       int    `json:"slow_mode"`
}

// CreateChat creates a private, group, or channel chat. Creating a
// private chat with an existing peer returns the existing chat.
func CreateChat(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := middleware.UserID(c)

		var req createChatRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		chatType := defaultStr(req.ChatType, models.ChatPrivate)

		if chatType == models.ChatPrivate {
			if req.UserID == nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
				return
			}
			var peer models.User
			if err := db.First(&peer, *req.UserID).Error; err != nil {
				c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
				return
			}

			// Reuse an existing private chat with this peer.
			var existing models.Chat
			err := db.Where("chat_type = ?", models.ChatPrivate).
				Joins("JOIN chat_members m1 ON m1.chat_id = chats.id AND m1.user_id = ?", userID).
				Joins("JOIN chat_members m2 ON m2.chat_id = chats.id AND m2.user_id = ?", peer.ID).
				First(&existing).Error
			if err == nil {
				c.JSON(http.StatusOK, gin.H{"success": true, "id": existing.ID, "existing": true})
				return
			}

			var chatID uint
			err = db.Transaction(func(tx *gorm.DB) error {
				chat := models.Chat{ChatType: models.ChatPrivate, MembersCanSend: true}
				if err := tx.Create(&chat).Error; err != nil {
					return err
				}
				chatID = chat.ID
				for _, id := range []uint{userID, peer.ID} {
					if err := tx.Create(&models.ChatMember{
						ChatID: chat.ID, UserID: id, Role: models.RoleMember,
						CanSendMessages: true, CanSendMedia: true,
					}).Error; err != nil {
						return err
					}
				}
				return nil
			})
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create chat"})
				return
			}
			c.JSON(http.StatusOK, gin.H{"success": true, "id": chatID})
			return
		}

		if req.Name == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
			return
		}

		membersCanSend := chatType != models.ChatChannel
		if req.MembersCanSend != nil && chatType != models.ChatChannel {
			membersCanSend = *req.MembersCanSend
		}

		invite := newInviteLink()
		chat := models.Chat{
			Name:           &req.Name,
			Description:    req.Description,
			ChatType:       chatType,
			IsPublic:       req.IsPublic,
			OwnerID:        &userID,
			InviteLink:     &invite,
			MembersCanSend: membersCanSend,
			MembersCanAdd:  req.MembersCanAdd,
			MembersCanPin:  req.MembersCanPin,
			SlowMode:       req.SlowMode,
		}
		if req.Username != "" {
			var count int64
			db.Model(&models.Chat{}).Where("username = ?", req.Username).Count(&count)
			if count == 0 {
				chat.Username = &req.Username
			}
		}

		err := db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&chat).Error; err != nil {
				return err
			}
			if err := tx.Create(&models.ChatMember{
				ChatID: chat.ID, UserID: userID, Role: models.RoleOwner,
				CanSendMessages: true, CanSendMedia: true,
			}).Error; err != nil {
				return err
			}
			for _, id := range req.MemberIDs {
				if id == userID {
					continue
				}
				var user models.User
				if err := tx.First(&user, id).Error; err != nil {
					continue
				}
				if err := tx.Create(&models.ChatMember{
					ChatID: chat.ID, UserID: id, Role: models.RoleMember,
					CanSendMessages: true, CanSendMedia: true,
				}).Error; err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create chat"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "id": chat.ID})
	}
}

// GetChat returns the chat details for a member, including their role.
func GetChat(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := middleware.UserID(c)
		chatID, ok := paramID(c, "id")
		if !ok {
			return
		}

		var chat models.Chat
		if err := db.First(&chat, chatID).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "chat not found"})
			return
		}
		membership, err := chatMembership(db, chatID, userID)
		if err != nil {
			c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
			return
		}

		var members []models.User
		db.Joins("JOIN chat_members ON chat_members.user_id = users.id").
			Where("chat_members.chat_id = ?", chatID).Find(&members)

		memberList := make([]gin.H, 0, len(members))
		for _, m := range members {
			memberList = append(memberList, gin.H{
				"id":         m.ID,
				"username":   m.Username,
				"name":       m.Name,
				"avatar_url": m.AvatarURL,
			})
		}

		name, other := chatDisplayName(db, &chat, userID)
		payload := gin.H{
			"id":               chat.ID,
			"name":             name,
			"description":      chat.Description,
			"avatar_url":       chat.AvatarURL,
			"chat_type":        chat.ChatType,
			"is_group":         chat.ChatType != models.ChatPrivate,
			"is_public":        chat.IsPublic,
			"is_work_chat":     chat.IsWorkChat,
			"username":         chat.Username,
			"invite_link":      chat.InviteLink,
			"members_can_send": chat.MembersCanSend,
			"members_can_add":  chat.MembersCanAdd,
			"members_can_pin":  chat.MembersCanPin,
			"slow_mode":        chat.SlowMode,
			"owner_id":         chat.OwnerID,
			"user_role":        membership.Role,
			"members":          memberList,
		}
		if other != nil {
			payload["other_user"] = gin.H{
				"id":         other.ID,
				"username":   other.Username,
				"name":       other.Name,
				"avatar_url": other.AvatarURL,
			}
		} else {
			payload["other_user"] = nil
		}
		c.JSON(http.StatusOK, payload)
	}
}

type updateChatRequest struct {
	Name           *string `json:"name"`
	Description    *string `json:"description"`
	AvatarURL      *string `json:"avatar_url"`
	IsPublic       *bool   `json:"is_public"`
	IsWorkChat     *bool   `json:"is_work_chat"`
	MembersCanSend *bool   `json:"members_can_send"`
	MembersCanAdd  *bool   `json:"members_can_add"`
	MembersCanPin  *bool   `json:"members_can_pin"`
	SlowMode       *int    `json:"slow_mode"`
}

// UpdateChat changes group settings. Admin only; private chats have no
// settings to change.
func UpdateChat(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := middleware.UserID(c)
		chatID, ok := paramID(c, "id")
		if !ok {
			return
		}

		var chat models.Chat
		if err := db.First(&chat, chatID).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "chat not found"})
			return
		}
		if chat.ChatType == models.ChatPrivate {
			c.JSON(http.StatusBadRequest, gin.H{"error": "private chats have no settings"})
			return
		}
		if !isChatAdmin(db, &chat, userID) {
			c.JSON(http.StatusForbidden, gin.H{"error": "not allowed"})
			return
		}

		var req updateChatRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if req.Name != nil && strings.TrimSpace(*req.Name) != "" {
			chat.Name = req.Name
		}
		if req.Description != nil {
			chat.Description = *req.Description
		}
		if req.AvatarURL != nil {
			chat.AvatarURL = *req.AvatarURL
		}
		if req.IsPublic != nil {
			chat.IsPublic = *req.IsPublic
		}
		if req.IsWorkChat != nil {
			chat.IsWorkChat = *req.IsWorkChat
		}
		if req.MembersCanSend != nil && chat.ChatType != models.ChatChannel {
			chat.MembersCanSend = *req.MembersCanSend
		}
		if req.MembersCanAdd != nil {
			chat.MembersCanAdd = *req.MembersCanAdd
		}
		if req.MembersCanPin != nil {
			chat.MembersCanPin = *req.MembersCanPin
		}
		if req.SlowMode != nil {
			chat.SlowMode = clamp(*req.SlowMode, 0, 3600)
		}

		if err := db.Save(&chat).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update chat"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}

// DeleteChat leaves a group chat (deleting it once empty) or deletes a
// private chat outright.
func DeleteChat(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := middleware.UserID(c)
		chatID, ok := paramID(c, "id")
		if !ok {
			return
		}

		var chat models.Chat
		if err := db.First(&chat, chatID).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "chat not found"})
			return
		}
		if _, err := chatMembership(db, chatID, userID); err != nil {
			c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
			return
		}

		err := db.Transaction(func(tx *gorm.DB) error {
			if chat.ChatType == models.ChatPrivate {
				if err := tx.Where("chat_id = ?", chatID).Delete(&models.Message{}).Error; err != nil {
					return err
				}
				if err := tx.Where("chat_id = ?", chatID).Delete(&models.ChatMember{}).Error; err != nil {
					return err
				}
				return tx.Delete(&chat).Error
			}

			if err := tx.Where("chat_id = ? AND user_id = ?", chatID, userID).
				Delete(&models.ChatMember{}).Error; err != nil {
				return err
			}
			var remaining int64
			if err := tx.Model(&models.ChatMember{}).Where("chat_id = ?", chatID).
				Count(&remaining).Error; err != nil {
				return err
			}
			if remaining == 0 {
				if err := tx.Where("chat_id = ?", chatID).Delete(&models.Message{}).Error; err != nil {
					return err
				}
				return tx.Delete(&chat).Error
			}
			return nil
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete chat"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}

// ---------------------------------------------------------------------------
// Members
// ---------------------------------------------------------------------------

func ListChatMembers(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := middleware.UserID(c)
		chatID, ok := paramID(c, "id")
		if !ok {
			return
		}
		if _, err := chatMembership(db, chatID, userID); err != nil {
			c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
			return
		}

		var rows []struct {
			ID              uint
			Username        string
			Name            string
			AvatarURL       string
			Role            string
			CanSendMessages bool
		}
		db.Model(&models.ChatMember{}).
			Select("users.id, users.username, users.name, users.avatar_url, chat_members.role, chat_members.can_send_messages").
			Joins("JOIN users ON users.id = chat_members.user_id").
			Where("chat_members.chat_id = ?", chatID).
			Scan(&rows)

		result := make([]gin.H, 0, len(rows))
		for _, r := range rows {
			result = append(result, gin.H{
				"id":                r.ID,
				"username":          r.Username,
				"name":              r.Name,
				"avatar_url":        r.AvatarURL,
				"role":              r.Role,
				"can_send_messages": r.CanSendMessages,
			})
		}
		c.JSON(http.StatusOK, result)
	}
}

func AddChatMember(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := middleware.UserID(c)
		chatID, ok := paramID(c, "id")
		if !ok {
			return
		}

		var chat models.Chat
		if err := db.First(&chat, chatID).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "chat not found"})
			return
		}
		if !isChatAdmin(db, &chat, userID) && !chat.MembersCanAdd {
			c.JSON(http.StatusForbidden, gin.H{"error": "not allowed to add members"})
			return
		}

		var req struct {
			UserID uint `json:"user_id" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		var user models.User
		if err := db.First(&user, req.UserID).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		if _, err := chatMembership(db, chatID, req.UserID); err == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "user is already a member"})
			return
		}

		member := models.ChatMember{
			ChatID: chatID, UserID: req.UserID, Role: models.RoleMember,
			CanSendMessages: true, CanSendMedia: true,
		}
		if err := db.Create(&member).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to add member"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}

// RemoveChatMember removes a member. Anyone may remove themselves;
// removing others requires admin rights.
func RemoveChatMember(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := middleware.UserID(c)
		chatID, ok := paramID(c, "id")
		if !ok {
			return
		}
		targetID, err := strconv.ParseUint(c.Param("userId"), 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
			return
		}

		var chat models.Chat
		if err := db.First(&chat, chatID).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "chat not found"})
			return
		}
		if uint(targetID) != userID && !isChatAdmin(db, &chat, userID) {
			c.JSON(http.StatusForbidden, gin.H{"error": "not allowed"})
			return
		}

		db.Where("chat_id = ? AND user_id = ?", chatID, uint(targetID)).Delete(&models.ChatMember{})
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}

// UpdateMemberRole promotes or demotes a member. Owner only.
func UpdateMemberRole(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := middleware.UserID(c)
		chatID, ok := paramID(c, "id")
		if !ok {
			return
		}
		targetID, err := strconv.ParseUint(c.Param("userId"), 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
			return
		}

		var chat models.Chat
		if err := db.First(&chat, chatID).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "chat not found"})
			return
		}
		if chat.OwnerID == nil || *chat.OwnerID != userID {
			c.JSON(http.StatusForbidden, gin.H{"error": "only the owner can change roles"})
			return
		}

		var req struct {
			Role string `json:"role" binding:"required,oneof=admin member"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		member, err := chatMembership(db, chatID, uint(targetID))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "member not found"})
			return
		}
		member.Role = req.Role
		if err := db.Save(member).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update role"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}

// JoinChatByLink adds the caller to the chat behind an invite link.
func JoinChatByLink(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := middleware.UserID(c)
		link := c.Param("link")

		var chat models.Chat
		if err := db.Where("invite_link = ?", link).First(&chat).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "invite link not found"})
			return
		}
		if _, err := chatMembership(db, chat.ID, userID); err == nil {
			c.JSON(http.StatusOK, gin.H{"success": true, "id": chat.ID, "already_member": true})
			return
		}

		member := models.ChatMember{
			ChatID: chat.ID, UserID: userID, Role: models.RoleMember,
			CanSendMessages: true, CanSendMedia: true,
		}
		if err := db.Create(&member).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to join chat"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "id": chat.ID})
	}
}

// RegenerateInviteLink rotates the invite link. Admin only.
func RegenerateInviteLink(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := middleware.UserID(c)
		chatID, ok := paramID(c, "id")
		if !ok {
			return
		}

		var chat models.Chat
		if err := db.First(&chat, chatID).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "chat not found"})
			return
		}
		if !isChatAdmin(db, &chat, userID) {
			c.JSON(http.StatusForbidden, gin.H{"error": "not allowed"})
			return
		}

		invite := newInviteLink()
		chat.InviteLink = &invite
		if err := db.Save(&chat).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to rotate link"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "invite_link": invite})
	}
}

// ---------------------------------------------------------------------------
// Messages
// ---------------------------------------------------------------------------

func messagePayload(db *gorm.DB, m *models.Message, userID uint) gin.H {
	var sender models.User
	db.First(&sender, m.SenderID)

	payload := gin.H{
		"id":              m.ID,
		"content":         m.Content,
		"sender_id":       m.SenderID,
		"sender_name":     defaultStr(sender.Name, sender.Username),
		"sender_username": sender.Username,
		"sender_avatar":   sender.AvatarURL,
		"created_at":      m.CreatedAt,
		"edited_at":       m.EditedAt,
		"is_read":         m.IsRead,
		"is_mine":         m.SenderID == userID,
		"reply_to":        nil,
	}
	if m.ReplyToID != nil {
		var replied models.Message
		if db.First(&replied, *m.ReplyToID).Error == nil {
			var repliedSender models.User
			db.First(&repliedSender, replied.SenderID)
			content := replied.Content
			if len(content) > 100 {
				content = content[:100]
			}
			payload["reply_to"] = gin.H{
				"id":          replied.ID,
				"content":     content,
				"sender_name": defaultStr(repliedSender.Name, repliedSender.Username),
			}
		}
	}
	return payload
}

// ListMessages returns a page of messages in chronological order and
// marks the chat read for the caller.
func ListMessages(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := middleware.UserID(c)
		chatID, ok := paramID(c, "id")
		if !ok {
			return
		}
		if _, err := chatMembership(db, chatID, userID); err != nil {
			c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
			return
		}

		page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
		perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "50"))
		if page < 1 {
			page = 1
		}
		if perPage < 1 || perPage > 200 {
			perPage = 50
		}

		var total int64
		db.Model(&models.Message{}).Where("chat_id = ?", chatID).Count(&total)

		var messages []models.Message
		db.Where("chat_id = ?", chatID).Order("created_at desc").
			Offset((page - 1) * perPage).Limit(perPage).Find(&messages)

		db.Model(&models.Message{}).
			Where("chat_id = ? AND sender_id <> ? AND is_read = ?", chatID, userID, false).
			Update("is_read", true)

		// Newest page fetched descending, returned oldest-first.
		result := make([]gin.H, 0, len(messages))
		for i := len(messages) - 1; i >= 0; i-- {
			result = append(result, messagePayload(db, &messages[i], userID))
		}
		c.JSON(http.StatusOK, gin.H{
			"messages": result,
			"has_more": int64(page*perPage) < total,
			"total":    total,
		})
	}
}

// SendMessage posts a message, honoring channel and per-member send
// restrictions.
func SendMessage(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := middleware.UserID(c)
		chatID, ok := paramID(c, "id")
		if !ok {
			return
		}

		var chat models.Chat
		if err := db.First(&chat, chatID).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "chat not found"})
			return
		}
		member, err := chatMembership(db, chatID, userID)
		if err != nil {
			c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
			return
		}
		if !member.CanSendMessages ||
			(!chat.MembersCanSend && member.Role == models.RoleMember) {
			c.JSON(http.StatusForbidden, gin.H{"error": "sending is restricted in this chat"})
			return
		}

		var req struct {
			Content   string `json:"content"`
			ReplyToID *uint  `json:"reply_to_id"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		content := strings.TrimSpace(req.Content)
		if content == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "message cannot be empty"})
			return
		}

		message := models.Message{
			ChatID:    chatID,
			SenderID:  userID,
			Content:   content,
			ReplyToID: req.ReplyToID,
		}
		if err := db.Create(&message).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to send message"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": messagePayload(db, &message, userID),
		})
	}
}

// EditMessage updates the caller's own message content.
func EditMessage(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := middleware.UserID(c)
		chatID, ok := paramID(c, "id")
		if !ok {
			return
		}
		messageID, err := strconv.ParseUint(c.Param("messageId"), 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message id"})
			return
		}

		var message models.Message
		if err := db.Where("id = ? AND chat_id = ? AND sender_id = ?",
			uint(messageID), chatID, userID).First(&message).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "message not found"})
			return
		}

		var req struct {
			Content string `json:"content"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		content := strings.TrimSpace(req.Content)
		if content == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "message cannot be empty"})
			return
		}

		now := time.Now()
		message.Content = content
		message.EditedAt = &now
		if err := db.Save(&message).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to edit message"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "message": gin.H{
			"id":        message.ID,
			"content":   message.Content,
			"edited_at": message.EditedAt,
		}})
	}
}

// DeleteMessage removes the caller's own message.
func DeleteMessage(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := middleware.UserID(c)
		chatID, ok := paramID(c, "id")
		if !ok {
			return
		}
		messageID, err := strconv.ParseUint(c.Param("messageId"), 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message id"})
			return
		}

		result := db.Where("id = ? AND chat_id = ? AND sender_id = ?",
			uint(messageID), chatID, userID).Delete(&models.Message{})
		if result.Error != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete message"})
			return
		}
		if result.RowsAffected == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "message not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}

// MarkChatRead marks every foreign message in the chat as read.
func MarkChatRead(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := middleware.UserID(c)
		chatID, ok := paramID(c, "id")
		if !ok {
			return
		}
		if _, err := chatMembership(db, chatID, userID); err != nil {
			c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
			return
		}

		db.Model(&models.Message{}).
			Where("chat_id = ? AND sender_id <> ? AND is_read = ?", chatID, userID, false).
			Update("is_read", true)
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}
