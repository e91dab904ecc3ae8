// Copyright (C) 2025 FocusFlow Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/focusflowhq/focusflow/services/api/middleware"
	"github.com/focusflowhq/focusflow/services/api/models"
)

func ListNotes(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := middleware.UserID(c)

		var notes []models.Note
		if err := db.Where("user_id = ?", userID).
			Order("is_pinned desc, updated_at desc").Find(&notes).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load notes"})
			return
		}
		c.JSON(http.StatusOK, notes)
	}
}

func CreateNote(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := middleware.UserID(c)

		var req struct {
			Title   string `json:"title"`
			Content string `json:"content" binding:"required"`
			Color   string `json:"color"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		note := models.Note{
			UserID:  userID,
			Title:   req.Title,
			Content: req.Content,
			Color:   defaultStr(req.Color, "default"),
		}
		if err := db.Create(&note).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create note"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "id": note.ID})
	}
}

func UpdateNote(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := middleware.UserID(c)
		noteID, ok := paramID(c, "id")
		if !ok {
			return
		}

		var note models.Note
		if err := db.Where("id = ? AND user_id = ?", noteID, userID).First(&note).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "note not found"})
			return
		}

		var req struct {
			Title    *string `json:"title"`
			Content  *string `json:"content"`
			IsPinned *bool   `json:"is_pinned"`
			Color    *string `json:"color"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		if req.Title != nil {
			note.Title = *req.Title
		}
		if req.Content != nil {
			note.Content = *req.Content
		}
		if req.IsPinned != nil {
			note.IsPinned = *req.IsPinned
		}
		if req.Color != nil {
			note.Color = *req.Color
		}
		if err := db.Save(&note).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update note"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}

func DeleteNote(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := middleware.UserID(c)
		noteID, ok := paramID(c, "id")
		if !ok {
			return
		}

		result := db.Where("id = ? AND user_id = ?", noteID, userID).Delete(&models.Note{})
		if result.Error != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete note"})
			return
		}
		if result.RowsAffected == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "note not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}
