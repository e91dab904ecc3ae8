// Copyright (C) 2025 FocusFlow Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/focusflowhq/focusflow/services/api/middleware"
	"github.com/focusflowhq/focusflow/services/api/models"
	"github.com/focusflowhq/focusflow/services/progression"
)

// ListAchievements merges the static catalog with the caller's unlock
// records, preserving catalog order.
func ListAchievements(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := middleware.UserID(c)

		var unlocked []models.Achievement
		if err := db.Where("user_id = ?", userID).Find(&unlocked).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load achievements"})
			return
		}
		unlockedAt := make(map[string]string, len(unlocked))
		for _, a := range unlocked {
			unlockedAt[a.AchievementType] = a.UnlockedAt.UTC().Format("2006-01-02T15:04:05Z07:00")
		}

		result := make([]gin.H, 0, len(progression.Catalog))
		for _, def := range progression.Catalog {
			at, ok := unlockedAt[def.Type]
			entry := gin.H{
				"type":        def.Type,
				"name":        def.Name,
				"icon":        def.Icon,
				"description": def.Description,
				"unlocked":    ok,
			}
			if ok {
				entry["unlocked_at"] = at
			} else {
				entry["unlocked_at"] = nil
			}
			result = append(result, entry)
		}

		c.JSON(http.StatusOK, gin.H{
			"achievements":   result,
			"unlocked_count": len(unlocked),
			"total_count":    len(progression.Catalog),
		})
	}
}

// CheckAchievements forces a re-evaluation of stat-based achievements
// and returns only the newly unlocked ones.
func CheckAchievements(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := middleware.UserID(c)

		unlocked, err := progression.CheckAndUnlock(db, userID)
		if err != nil {
			slog.Error("achievement check failed", "user_id", userID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "achievement check failed"})
			return
		}
		middleware.CountAchievements(len(unlocked))
		c.JSON(http.StatusOK, gin.H{"unlocked": unlocked})
	}
}
