// Copyright (C) 2025 FocusFlow Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/focusflowhq/focusflow/services/api/middleware"
	"github.com/focusflowhq/focusflow/services/api/models"
	"github.com/focusflowhq/focusflow/services/progression"
)

func StartFocusSession(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := middleware.UserID(c)

		var req struct {
			TaskID          *uint `json:"task_id"`
			PlaylistID      *uint `json:"playlist_id"`
			DurationMinutes int   `json:"duration_minutes"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		session, err := progression.StartSession(db, userID, req.TaskID, req.PlaylistID,
			defaultInt(req.DurationMinutes, 25))
		if err != nil {
			slog.Error("failed to start focus session", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to start session"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "session_id": session.ID})
	}
}

// EndFocusSession closes a session and returns the resulting ledger
// state plus any achievements the session unlocked.
func EndFocusSession(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := middleware.UserID(c)
		sessionID, ok := paramID(c, "id")
		if !ok {
			return
		}

		var req struct {
			Completed    bool `json:"completed"`
			Distractions int  `json:"distractions" binding:"min=0"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		outcome, unlocked, err := progression.EndSession(
			c.Request.Context(), db, userID, sessionID, req.Completed, req.Distractions, time.Now().UTC())
		if err != nil {
			if errors.Is(err, progression.ErrSessionNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
				return
			}
			slog.Error("failed to end focus session", "session_id", sessionID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to end session"})
			return
		}

		middleware.CountSessionOutcome(req.Completed)
		middleware.CountAchievements(len(unlocked))

		c.JSON(http.StatusOK, gin.H{
			"success":  true,
			"tree":     outcome,
			"unlocked": unlocked,
		})
	}
}

func ReportDistraction(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := middleware.UserID(c)
		sessionID, ok := paramID(c, "id")
		if !ok {
			return
		}

		count, err := progression.AddDistraction(db, userID, sessionID)
		if err != nil {
			if errors.Is(err, progression.ErrSessionNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record distraction"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "distractions": count})
	}
}

// GetFocusTree returns the ledger snapshot after applying idle decay.
// health_changed signals the client to play the withering animation.
func GetFocusTree(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := middleware.UserID(c)

		tree, err := progression.GetOrCreateTree(db, userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load tree"})
			return
		}

		healthChanged, err := progression.ApplyDecay(db, tree, time.Now().UTC())
		if err != nil {
			slog.Error("failed to persist decay", "user_id", userID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update tree"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"level":               tree.Level,
			"experience":          tree.Experience,
			"exp_for_next_level":  progression.ExpForNextLevel(tree),
			"health":              tree.Health,
			"total_focus_minutes": tree.TotalFocusMinutes,
			"total_sessions":      tree.TotalSessions,
			"streak_days":         tree.StreakDays,
			"tree_type":           tree.TreeType,
			"garden_level":        tree.GardenLevel,
			"garden_exp":          tree.GardenExp,
			"health_changed":      healthChanged,
		})
	}
}

// ---------------------------------------------------------------------------
// Settings
// ---------------------------------------------------------------------------

func getOrCreateSettings(db *gorm.DB, userID uint) (*models.FocusSettings, error) {
	var settings models.FocusSettings
	err := db.Where(models.FocusSettings{UserID: userID}).
		Attrs(models.FocusSettings{
			WorkDuration:            25,
			ShortBreak:              5,
			LongBreak:               15,
			SessionsBeforeLongBreak: 4,
			BlockNotifications:      true,
			AmbientSound:            "none",
			AmbientVolume:           50,
			Theme:                   "dark",
			WaterReminder:           true,
			WaterInterval:           30,
			EyeReminder:             true,
			EyeInterval:             20,
		}).
		FirstOrCreate(&settings).Error
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

func GetFocusSettings(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := middleware.UserID(c)

		settings, err := getOrCreateSettings(db, userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load settings"})
			return
		}
		c.JSON(http.StatusOK, settings)
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// UpdateFocusSettings applies partial updates, clamping numeric fields
// to their allowed ranges.
func UpdateFocusSettings(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := middleware.UserID(c)

		settings, err := getOrCreateSettings(db, userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load settings"})
			return
		}

		var req struct {
			WorkDuration            *int    `json:"work_duration"`
			ShortBreak              *int    `json:"short_break"`
			LongBreak               *int    `json:"long_break"`
			SessionsBeforeLongBreak *int    `json:"sessions_before_long_break"`
			BlockNotifications      *bool   `json:"block_notifications"`
			FullscreenMode          *bool   `json:"fullscreen_mode"`
			AmbientSound            *string `json:"ambient_sound"`
			AmbientVolume           *int    `json:"ambient_volume"`
			Theme                   *string `json:"theme"`
			WaterReminder           *bool   `json:"water_reminder"`
			WaterInterval           *int    `json:"water_interval"`
			EyeReminder             *bool   `json:"eye_reminder"`
			EyeInterval             *int    `json:"eye_interval"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		if req.WorkDuration != nil {
			settings.WorkDuration = clamp(*req.WorkDuration, 1, 120)
		}
		if req.ShortBreak != nil {
			settings.ShortBreak = clamp(*req.ShortBreak, 1, 30)
		}
		if req.LongBreak != nil {
			settings.LongBreak = clamp(*req.LongBreak, 5, 60)
		}
		if req.SessionsBeforeLongBreak != nil {
			settings.SessionsBeforeLongBreak = clamp(*req.SessionsBeforeLongBreak, 2, 10)
		}
		if req.BlockNotifications != nil {
			settings.BlockNotifications = *req.BlockNotifications
		}
		if req.FullscreenMode != nil {
			settings.FullscreenMode = *req.FullscreenMode
		}
		if req.AmbientSound != nil {
			settings.AmbientSound = *req.AmbientSound
		}
		if req.AmbientVolume != nil {
			settings.AmbientVolume = clamp(*req.AmbientVolume, 0, 100)
		}
		if req.Theme != nil {
			settings.Theme = *req.Theme
		}
		if req.WaterReminder != nil {
			settings.WaterReminder = *req.WaterReminder
		}
		if req.WaterInterval != nil {
			settings.WaterInterval = clamp(*req.WaterInterval, 10, 120)
		}
		if req.EyeReminder != nil {
			settings.EyeReminder = *req.EyeReminder
		}
		if req.EyeInterval != nil {
			settings.EyeInterval = clamp(*req.EyeInterval, 10, 60)
		}

		if err := db.Save(settings).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update settings"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}

// ---------------------------------------------------------------------------
// Stats
// ---------------------------------------------------------------------------

// FocusStats summarizes completed sessions for today, the trailing
// week, and all time.
func FocusStats(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := middleware.UserID(c)

		now := time.Now().UTC()
		today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		weekAgo := today.AddDate(0, 0, -7)

		var sessions []models.FocusSession
		if err := db.Where("user_id = ? AND is_completed = ? AND started_at >= ?",
			userID, true, weekAgo).Find(&sessions).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load sessions"})
			return
		}

		todayMinutes, todayCount := 0, 0
		weekMinutes := 0
		daily := map[string]gin.H{}
		for _, s := range sessions {
			weekMinutes += s.DurationMinutes
			day := s.StartedAt.UTC().Format("2006-01-02")
			if entry, ok := daily[day]; ok {
				daily[day] = gin.H{
					"minutes":  entry["minutes"].(int) + s.DurationMinutes,
					"sessions": entry["sessions"].(int) + 1,
				}
			} else {
				daily[day] = gin.H{"minutes": s.DurationMinutes, "sessions": 1}
			}
			if !s.StartedAt.Before(today) {
				todayMinutes += s.DurationMinutes
				todayCount++
			}
		}

		tree, err := progression.GetOrCreateTree(db, userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load tree"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"today": gin.H{"minutes": todayMinutes, "sessions": todayCount},
			"week": gin.H{
				"total_minutes":  weekMinutes,
				"total_sessions": len(sessions),
				"daily":          daily,
			},
			"all_time": gin.H{
				"total_minutes":  tree.TotalFocusMinutes,
				"total_sessions": tree.TotalSessions,
				"streak_days":    tree.StreakDays,
			},
		})
	}
}
