// Copyright (C) 2025 FocusFlow Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/focusflowhq/focusflow/services/api/middleware"
	"github.com/focusflowhq/focusflow/services/api/models"
)

// duplicateWindow guards against double-submits from the client: a task
// with the same title created inside the window is returned instead of
// a second row.
const duplicateWindow = 5 * time.Second

func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return uint(id), true
}

func ListTasks(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := middleware.UserID(c)

		var tasks []models.Task
		if err := db.Where("user_id = ?", userID).Order("created_at desc").Find(&tasks).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load tasks"})
			return
		}

		result := make([]gin.H, 0, len(tasks))
		for _, t := range tasks {
			var subtasks []models.Subtask
			db.Where("task_id = ?", t.ID).Order("sort_order").Find(&subtasks)

			completed := 0
			for _, s := range subtasks {
				if s.IsCompleted {
					completed++
				}
			}
			result = append(result, gin.H{
				"id":                 t.ID,
				"title":              t.Title,
				"description":        t.Description,
				"status":             t.Status,
				"priority":           t.Priority,
				"timer_minutes":      t.TimerMinutes,
				"break_minutes":      t.BreakMinutes,
				"sessions_count":     t.SessionsCount,
				"focus_preset":       t.FocusPreset,
				"ambient_sound":      t.AmbientSound,
				"playlist_id":        t.PlaylistID,
				"created_at":         t.CreatedAt,
				"subtasks":           subtasks,
				"subtasks_completed": completed,
				"subtasks_total":     len(subtasks),
			})
		}
		c.JSON(http.StatusOK, result)
	}
}

type createTaskRequest struct {
	Title         string `json:"title" binding:"required,max=200"`
	Description   string `json:"description"`
	Priority      int    `json:"priority"`
	TimerMinutes  int    `json:"timer_minutes"`
	BreakMinutes  int    `json:"break_minutes"`
	SessionsCount int    `json:"sessions_count"`
	FocusPreset   string `json:"focus_preset"`
	AmbientSound  string `json:"ambient_sound"`
	PlaylistID    *uint  `json:"playlist_id"`
}

func CreateTask(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := middleware.UserID(c)

		var req createTaskRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		var recent models.Task
		err := db.Where("user_id = ? AND title = ? AND created_at >= ?",
			userID, req.Title, time.Now().Add(-duplicateWindow)).First(&recent).Error
		if err == nil {
			c.JSON(http.StatusOK, gin.H{"success": true, "id": recent.ID, "duplicate": true})
			return
		}

		task := models.Task{
			UserID:        userID,
			Title:         req.Title,
			Description:   req.Description,
			Priority:      defaultInt(req.Priority, 1),
			TimerMinutes:  defaultInt(req.TimerMinutes, 25),
			BreakMinutes:  defaultInt(req.BreakMinutes, 5),
			SessionsCount: defaultInt(req.SessionsCount, 4),
			FocusPreset:   defaultStr(req.FocusPreset, "pomodoro"),
			AmbientSound:  defaultStr(req.AmbientSound, "none"),
			PlaylistID:    req.PlaylistID,
		}
		if err := db.Create(&task).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create task"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "id": task.ID})
	}
}

type updateTaskRequest struct {
	Title        *string `json:"title"`
	Description  *string `json:"description"`
	Status       *string `json:"status"`
	Priority     *int    `json:"priority"`
	TimerMinutes *int    `json:"timer_minutes"`
}

func UpdateTask(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := middleware.UserID(c)
		taskID, ok := paramID(c, "id")
		if !ok {
			return
		}

		var task models.Task
		if err := db.Where("id = ? AND user_id = ?", taskID, userID).First(&task).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
			return
		}

		var req updateTaskRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		if req.Title != nil {
			task.Title = *req.Title
		}
		if req.Description != nil {
			task.Description = *req.Description
		}
		if req.Status != nil {
			task.Status = *req.Status
		}
		if req.Priority != nil {
			task.Priority = *req.Priority
		}
		if req.TimerMinutes != nil {
			task.TimerMinutes = *req.TimerMinutes
		}

		// completed_at marks the first transition only.
		if task.Status == models.TaskCompleted && task.CompletedAt == nil {
			now := time.Now()
			task.CompletedAt = &now
		}

		if err := db.Save(&task).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update task"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}

func DeleteTask(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := middleware.UserID(c)
		taskID, ok := paramID(c, "id")
		if !ok {
			return
		}

		var task models.Task
		if err := db.Where("id = ? AND user_id = ?", taskID, userID).First(&task).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
			return
		}
		db.Where("task_id = ?", task.ID).Delete(&models.Subtask{})
		if err := db.Delete(&task).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete task"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}

// ---------------------------------------------------------------------------
// Subtasks
// ---------------------------------------------------------------------------

func ListSubtasks(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := middleware.UserID(c)
		taskID, ok := paramID(c, "id")
		if !ok {
			return
		}

		var task models.Task
		if err := db.Where("id = ? AND user_id = ?", taskID, userID).First(&task).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
			return
		}

		var subtasks []models.Subtask
		db.Where("task_id = ?", taskID).Order("sort_order").Find(&subtasks)
		c.JSON(http.StatusOK, subtasks)
	}
}

func CreateSubtask(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := middleware.UserID(c)
		taskID, ok := paramID(c, "id")
		if !ok {
			return
		}

		var task models.Task
		if err := db.Where("id = ? AND user_id = ?", taskID, userID).First(&task).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
			return
		}

		var req struct {
			Title string `json:"title" binding:"required,max=200"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		var maxOrder int
		db.Model(&models.Subtask{}).Where("task_id = ?", taskID).
			Select("coalesce(max(sort_order), 0)").Scan(&maxOrder)

		subtask := models.Subtask{TaskID: taskID, Title: req.Title, Order: maxOrder + 1}
		if err := db.Create(&subtask).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create subtask"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"success":      true,
			"id":           subtask.ID,
			"title":        subtask.Title,
			"is_completed": subtask.IsCompleted,
			"order":        subtask.Order,
		})
	}
}

// loadOwnedSubtask resolves a subtask through its parent task's owner.
func loadOwnedSubtask(db *gorm.DB, userID, subtaskID uint) (*models.Subtask, error) {
	var subtask models.Subtask
	if err := db.First(&subtask, subtaskID).Error; err != nil {
		return nil, err
	}
	var task models.Task
	if err := db.Where("id = ? AND user_id = ?", subtask.TaskID, userID).First(&task).Error; err != nil {
		return nil, err
	}
	return &subtask, nil
}

func UpdateSubtask(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := middleware.UserID(c)
		subtaskID, ok := paramID(c, "id")
		if !ok {
			return
		}

		subtask, err := loadOwnedSubtask(db, userID, subtaskID)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "subtask not found"})
			return
		}

		var req struct {
			Title       *string `json:"title"`
			IsCompleted *bool   `json:"is_completed"`
			Order       *int    `json:"order"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		if req.Title != nil {
			subtask.Title = *req.Title
		}
		if req.IsCompleted != nil {
			subtask.IsCompleted = *req.IsCompleted
		}
		if req.Order != nil {
			subtask.Order = *req.Order
		}
		if err := db.Save(subtask).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update subtask"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}

func DeleteSubtask(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := middleware.UserID(c)
		subtaskID, ok := paramID(c, "id")
		if !ok {
			return
		}

		subtask, err := loadOwnedSubtask(db, userID, subtaskID)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "subtask not found"})
			return
		}
		if err := db.Delete(subtask).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete subtask"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}

// ---------------------------------------------------------------------------
// Templates
// ---------------------------------------------------------------------------

func ListTemplates(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := middleware.UserID(c)

		var templates []models.TaskTemplate
		if err := db.Where("user_id = ? OR is_default = ?", userID, true).
			Order("created_at desc").Find(&templates).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load templates"})
			return
		}

		result := make([]gin.H, 0, len(templates))
		for _, t := range templates {
			var subtasks []string
			if t.SubtasksJSON != "" {
				_ = json.Unmarshal([]byte(t.SubtasksJSON), &subtasks)
			}
			result = append(result, gin.H{
				"id":             t.ID,
				"name":           t.Name,
				"description":    t.Description,
				"icon":           t.Icon,
				"color":          t.Color,
				"timer_minutes":  t.TimerMinutes,
				"break_minutes":  t.BreakMinutes,
				"sessions_count": t.SessionsCount,
				"focus_preset":   t.FocusPreset,
				"ambient_sound":  t.AmbientSound,
				"subtasks":       subtasks,
				"is_default":     t.IsDefault,
				"is_own":         t.UserID == userID,
			})
		}
		c.JSON(http.StatusOK, result)
	}
}

type templateRequest struct {
	Name          string   `json:"name" binding:"required,max=100"`
	Description   string   `json:"description"`
	Icon          string   `json:"icon"`
	Color         string   `json:"color"`
	TimerMinutes  int      `json:"timer_minutes"`
	BreakMinutes  int      `json:"break_minutes"`
	SessionsCount int      `json:"sessions_count"`
	FocusPreset   string   `json:"focus_preset"`
	AmbientSound  string   `json:"ambient_sound"`
	Subtasks      []string `json:"subtasks"`
}

func CreateTemplate(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := middleware.UserID(c)

		var req templateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		subtasksJSON, _ := json.Marshal(req.Subtasks)
		template := models.TaskTemplate{
			UserID:        userID,
			Name:          req.Name,
			Description:   req.Description,
			Icon:          defaultStr(req.Icon, "📋"),
			Color:         defaultStr(req.Color, "primary"),
			TimerMinutes:  defaultInt(req.TimerMinutes, 25),
			BreakMinutes:  defaultInt(req.BreakMinutes, 5),
			SessionsCount: defaultInt(req.SessionsCount, 4),
			FocusPreset:   defaultStr(req.FocusPreset, "pomodoro"),
			AmbientSound:  defaultStr(req.AmbientSound, "none"),
			SubtasksJSON:  string(subtasksJSON),
		}
		if err := db.Create(&template).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create template"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "id": template.ID})
	}
}

func UpdateTemplate(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := middleware.UserID(c)
		templateID, ok := paramID(c, "id")
		if !ok {
			return
		}

		var template models.TaskTemplate
		if err := db.Where("id = ? AND user_id = ?", templateID, userID).First(&template).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "template not found"})
			return
		}

		var req struct {
			Name          *string   `json:"name"`
			Description   *string   `json:"description"`
			Icon          *string   `json:"icon"`
			Color         *string   `json:"color"`
			TimerMinutes  *int      `json:"timer_minutes"`
			BreakMinutes  *int      `json:"break_minutes"`
			SessionsCount *int      `json:"sessions_count"`
			FocusPreset   *string   `json:"focus_preset"`
			AmbientSound  *string   `json:"ambient_sound"`
			Subtasks      *[]string `json:"subtasks"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		if req.Name != nil {
			template.Name = *req.Name
		}
		if req.Description != nil {
			template.Description = *req.Description
		}
		if req.Icon != nil {
			template.Icon = *req.Icon
		}
		if req.Color != nil {
			template.Color = *req.Color
		}
		if req.TimerMinutes != nil {
			template.TimerMinutes = *req.TimerMinutes
		}
		if req.BreakMinutes != nil {
			template.BreakMinutes = *req.BreakMinutes
		}
		if req.SessionsCount != nil {
			template.SessionsCount = *req.SessionsCount
		}
		if req.FocusPreset != nil {
			template.FocusPreset = *req.FocusPreset
		}
		if req.AmbientSound != nil {
			template.AmbientSound = *req.AmbientSound
		}
		if req.Subtasks != nil {
			subtasksJSON, _ := json.Marshal(*req.Subtasks)
			template.SubtasksJSON = string(subtasksJSON)
		}

		if err := db.Save(&template).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update template"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}

func DeleteTemplate(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := middleware.UserID(c)
		templateID, ok := paramID(c, "id")
		if !ok {
			return
		}

		result := db.Where("id = ? AND user_id = ?", templateID, userID).Delete(&models.TaskTemplate{})
		if result.Error != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete template"})
			return
		}
		if result.RowsAffected == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "template not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}

func CreateTaskFromTemplate(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := middleware.UserID(c)

		var req struct {
			TemplateID  uint    `json:"template_id" binding:"required"`
			Title       *string `json:"title"`
			Description *string `json:"description"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		var template models.TaskTemplate
		if err := db.First(&template, req.TemplateID).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "template not found"})
			return
		}

		title := template.Name
		if req.Title != nil && *req.Title != "" {
			title = *req.Title
		}
		description := template.Description
		if req.Description != nil {
			description = *req.Description
		}

		var recent models.Task
		err := db.Where("user_id = ? AND title = ? AND created_at >= ?",
			userID, title, time.Now().Add(-duplicateWindow)).First(&recent).Error
		if err == nil {
			c.JSON(http.StatusOK, gin.H{"success": true, "task_id": recent.ID, "duplicate": true})
			return
		}

		var taskID uint
		err = db.Transaction(func(tx *gorm.DB) error {
			task := models.Task{
				UserID:        userID,
				Title:         title,
				Description:   description,
				TimerMinutes:  template.TimerMinutes,
				BreakMinutes:  template.BreakMinutes,
				SessionsCount: template.SessionsCount,
				FocusPreset:   template.FocusPreset,
				AmbientSound:  template.AmbientSound,
			}
			if err := tx.Create(&task).Error; err != nil {
				return err
			}
			taskID = task.ID

			var subtasks []string
			if template.SubtasksJSON != "" {
				_ = json.Unmarshal([]byte(template.SubtasksJSON), &subtasks)
			}
			for i, title := range subtasks {
				subtask := models.Subtask{TaskID: task.ID, Title: title, Order: i}
				if err := tx.Create(&subtask).Error; err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create task"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "task_id": taskID})
	}
}

// ---------------------------------------------------------------------------
// Progress
// ---------------------------------------------------------------------------

// TaskProgress reports status counts, a filled 7-day completion series,
// per-priority totals, and the overall completion rate.
func TaskProgress(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := middleware.UserID(c)

		var tasks []models.Task
		if err := db.Where("user_id = ?", userID).Find(&tasks).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load tasks"})
			return
		}

		status := map[string]int{
			models.TaskPending:    0,
			models.TaskInProgress: 0,
			models.TaskCompleted:  0,
		}
		byPriority := map[int]gin.H{}
		priorityTotals := map[int]int{}
		priorityCompleted := map[int]int{}
		weeklyCounts := map[string]int{}

		today := time.Now().UTC().Truncate(24 * time.Hour)
		weekAgo := today.AddDate(0, 0, -7)

		for _, t := range tasks {
			status[t.Status]++
			priorityTotals[t.Priority]++
			if t.Status == models.TaskCompleted {
				priorityCompleted[t.Priority]++
				if t.CompletedAt != nil && !t.CompletedAt.Before(weekAgo) {
					weeklyCounts[t.CompletedAt.UTC().Format("2006-01-02")]++
				}
			}
		}

		weekly := make([]gin.H, 0, 7)
		for i := 0; i < 7; i++ {
			day := today.AddDate(0, 0, i-6).Format("2006-01-02")
			weekly = append(weekly, gin.H{"date": day, "completed": weeklyCounts[day]})
		}

		for p, total := range priorityTotals {
			byPriority[p] = gin.H{"total": total, "completed": priorityCompleted[p]}
		}

		total := len(tasks)
		rate := 0.0
		if total > 0 {
			rate = float64(status[models.TaskCompleted]) / float64(total) * 100
		}

		c.JSON(http.StatusOK, gin.H{
			"status": gin.H{
				"pending":     status[models.TaskPending],
				"in_progress": status[models.TaskInProgress],
				"completed":   status[models.TaskCompleted],
			},
			"weekly":          weekly,
			"by_priority":     byPriority,
			"completion_rate": math.Round(rate*10) / 10,
		})
	}
}

func defaultInt(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}

func defaultStr(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
