// Copyright (C) 2025 FocusFlow Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"math"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/focusflowhq/focusflow/services/api/middleware"
	"github.com/focusflowhq/focusflow/services/api/models"
	"github.com/focusflowhq/focusflow/services/progression"
)

func queryDays(c *gin.Context, def int) int {
	days, err := strconv.Atoi(c.DefaultQuery("days", strconv.Itoa(def)))
	if err != nil || days <= 0 {
		return def
	}
	return days
}

func splitTags(tags string) []string {
	if tags == "" {
		return []string{}
	}
	parts := strings.Split(tags, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func ListMoodEntries(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := middleware.UserID(c)
		start := time.Now().UTC().AddDate(0, 0, -queryDays(c, 30))

		var entries []models.MoodEntry
		if err := db.Where("user_id = ? AND date >= ?", userID, start).
			Order("date desc").Find(&entries).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load mood entries"})
			return
		}

		result := make([]gin.H, 0, len(entries))
		for _, e := range entries {
			result = append(result, gin.H{
				"id":         e.ID,
				"mood":       e.Mood,
				"energy":     e.Energy,
				"note":       e.Note,
				"tags":       splitTags(e.Tags),
				"date":       e.Date.Format("2006-01-02"),
				"created_at": e.CreatedAt,
			})
		}
		c.JSON(http.StatusOK, result)
	}
}

type moodRequest struct {
	Mood   int      `json:"mood" binding:"required,min=1,max=5"`
	Energy int      `json:"energy" binding:"omitempty,min=1,max=5"`
	Note   string   `json:"note"`
	Tags   []string `json:"tags"`
}

// SaveMoodEntry upserts today's mood entry: one row per user per
// calendar day.
func SaveMoodEntry(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := middleware.UserID(c)

		var req moodRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		now := time.Now().UTC()
		today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

		var existing models.MoodEntry
		err := db.Where("user_id = ? AND date = ?", userID, today).First(&existing).Error
		if err == nil {
			existing.Mood = req.Mood
			if req.Energy != 0 {
				existing.Energy = req.Energy
			}
			existing.Note = req.Note
			existing.Tags = strings.Join(req.Tags, ",")
			if err := db.Save(&existing).Error; err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update mood entry"})
				return
			}
			c.JSON(http.StatusOK, gin.H{"success": true, "id": existing.ID, "updated": true})
			return
		}

		entry := models.MoodEntry{
			UserID: userID,
			Mood:   req.Mood,
			Energy: defaultInt(req.Energy, 3),
			Note:   req.Note,
			Tags:   strings.Join(req.Tags, ","),
			Date:   today,
		}
		if err := db.Create(&entry).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create mood entry"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "id": entry.ID})
	}
}

func MoodStats(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := middleware.UserID(c)
		start := time.Now().UTC().AddDate(0, 0, -queryDays(c, 30))

		var entries []models.MoodEntry
		if err := db.Where("user_id = ? AND date >= ?", userID, start).
			Order("date").Find(&entries).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load mood entries"})
			return
		}

		if len(entries) == 0 {
			c.JSON(http.StatusOK, gin.H{
				"avg_mood":      0,
				"avg_energy":    0,
				"entries_count": 0,
				"mood_trend":    []gin.H{},
				"common_tags":   []gin.H{},
			})
			return
		}

		moodSum, energySum := 0, 0
		trend := make([]gin.H, 0, len(entries))
		tagCounts := map[string]int{}
		for _, e := range entries {
			moodSum += e.Mood
			energySum += e.Energy
			trend = append(trend, gin.H{
				"date":   e.Date.Format("2006-01-02"),
				"mood":   e.Mood,
				"energy": e.Energy,
			})
			for _, tag := range splitTags(e.Tags) {
				tagCounts[tag]++
			}
		}

		type tagCount struct {
			tag   string
			count int
		}
		tags := make([]tagCount, 0, len(tagCounts))
		for tag, count := range tagCounts {
			tags = append(tags, tagCount{tag, count})
		}
		sort.Slice(tags, func(i, j int) bool { return tags[i].count > tags[j].count })
		if len(tags) > 10 {
			tags = tags[:10]
		}
		commonTags := make([]gin.H, 0, len(tags))
		for _, t := range tags {
			commonTags = append(commonTags, gin.H{"tag": t.tag, "count": t.count})
		}

		n := float64(len(entries))
		c.JSON(http.StatusOK, gin.H{
			"avg_mood":      math.Round(float64(moodSum)/n*10) / 10,
			"avg_energy":    math.Round(float64(energySum)/n*10) / 10,
			"entries_count": len(entries),
			"mood_trend":    trend,
			"common_tags":   commonTags,
		})
	}
}

// ---------------------------------------------------------------------------
// Gratitude
// ---------------------------------------------------------------------------

func ListGratitudeEntries(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := middleware.UserID(c)
		start := time.Now().UTC().AddDate(0, 0, -queryDays(c, 30))

		var entries []models.GratitudeEntry
		if err := db.Where("user_id = ? AND date >= ?", userID, start).
			Order("date desc").Find(&entries).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load gratitude entries"})
			return
		}

		result := make([]gin.H, 0, len(entries))
		for _, e := range entries {
			result = append(result, gin.H{
				"id":         e.ID,
				"content":    e.Content,
				"category":   e.Category,
				"date":       e.Date.Format("2006-01-02"),
				"created_at": e.CreatedAt,
			})
		}
		c.JSON(http.StatusOK, result)
	}
}

// CreateGratitudeEntry saves a gratitude note and re-evaluates
// achievements, since gratitude_7 depends on the running count.
func CreateGratitudeEntry(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := middleware.UserID(c)

		var req struct {
			Content  string `json:"content" binding:"required"`
			Category string `json:"category"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		now := time.Now().UTC()
		entry := models.GratitudeEntry{
			UserID:   userID,
			Content:  req.Content,
			Category: defaultStr(req.Category, "general"),
			Date:     time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC),
		}
		if err := db.Create(&entry).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create gratitude entry"})
			return
		}

		unlocked, err := progression.CheckAndUnlock(db, userID)
		if err != nil {
			unlocked = []progression.Unlocked{}
		}
		middleware.CountAchievements(len(unlocked))
		c.JSON(http.StatusOK, gin.H{"success": true, "id": entry.ID, "unlocked": unlocked})
	}
}

func DeleteGratitudeEntry(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := middleware.UserID(c)
		entryID, ok := paramID(c, "id")
		if !ok {
			return
		}

		result := db.Where("id = ? AND user_id = ?", entryID, userID).Delete(&models.GratitudeEntry{})
		if result.Error != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete entry"})
			return
		}
		if result.RowsAffected == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "entry not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}

// ---------------------------------------------------------------------------
// Memory games
// ---------------------------------------------------------------------------

// MemoryScores returns the caller's personal best and a top-10
// leaderboard for the requested game type.
func MemoryScores(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := middleware.UserID(c)
		gameType := c.DefaultQuery("type", "sequence")

		var best models.MemoryGameScore
		personal := gin.H{"level": 0, "score": 0}
		err := db.Where("user_id = ? AND game_type = ?", userID, gameType).
			Order("level desc").First(&best).Error
		if err == nil {
			personal = gin.H{"level": best.Level, "score": best.Score}
		}

		var rows []struct {
			UserID    uint
			Username  string
			BestLevel int
		}
		db.Model(&models.MemoryGameScore{}).
			Select("memory_game_scores.user_id, users.username, max(memory_game_scores.level) as best_level").
			Joins("JOIN users ON users.id = memory_game_scores.user_id").
			Where("memory_game_scores.game_type = ?", gameType).
			Group("memory_game_scores.user_id, users.username").
			Order("best_level desc").
			Limit(10).
			Scan(&rows)

		leaderboard := make([]gin.H, 0, len(rows))
		for _, r := range rows {
			leaderboard = append(leaderboard, gin.H{
				"username": r.Username,
				"level":    r.BestLevel,
				"is_me":    r.UserID == userID,
			})
		}

		c.JSON(http.StatusOK, gin.H{
			"personal_best": personal,
			"leaderboard":   leaderboard,
		})
	}
}

// SaveMemoryScore records a game result and re-evaluates achievements,
// since memory_master depends on the best level reached.
func SaveMemoryScore(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := middleware.UserID(c)

		var req struct {
			GameType string `json:"game_type" binding:"required"`
			Score    int    `json:"score" binding:"min=0"`
			Level    int    `json:"level" binding:"required,min=1"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		score := models.MemoryGameScore{
			UserID:   userID,
			GameType: req.GameType,
			Score:    req.Score,
			Level:    req.Level,
		}
		if err := db.Create(&score).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save score"})
			return
		}

		unlocked, err := progression.CheckAndUnlock(db, userID)
		if err != nil {
			unlocked = []progression.Unlocked{}
		}
		middleware.CountAchievements(len(unlocked))
		c.JSON(http.StatusOK, gin.H{"success": true, "unlocked": unlocked})
	}
}
