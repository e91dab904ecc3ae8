// Copyright (C) 2025 FocusFlow Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package routes wires the HTTP surface: public auth endpoints, the
// JWT-protected /api group, and the operational endpoints.
package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/focusflowhq/focusflow/services/api/config"
	"github.com/focusflowhq/focusflow/services/api/handlers"
	"github.com/focusflowhq/focusflow/services/api/middleware"
)

// Setup registers every route on the engine.
func Setup(r *gin.Engine, db *gorm.DB, cfg config.Config) {
	r.Use(middleware.Metrics())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Public auth endpoints. The OAuth redirect targets live under
	// /auth to match the registered redirect URIs.
	r.POST("/api/register", handlers.Register(db, cfg.JWTSecret))
	r.POST("/api/login", handlers.Login(db, cfg.JWTSecret))
	r.GET("/auth/google", handlers.GoogleLogin(cfg))
	r.GET("/auth/google/callback", handlers.GoogleCallback(db, cfg, cfg.JWTSecret))

	// Connecting a disk requires a logged-in user, unlike Google login
	// which establishes one.
	r.GET("/auth/yandex", middleware.RequireAuth(cfg.JWTSecret), handlers.YandexLogin(cfg))
	r.GET("/auth/yandex/callback", middleware.RequireAuth(cfg.JWTSecret), handlers.YandexCallback(db, cfg))

	api := r.Group("/api", middleware.RequireAuth(cfg.JWTSecret))
	{
		api.POST("/logout", handlers.Logout())
		api.GET("/me", handlers.Me(db))

		// Tasks and subtasks.
		api.GET("/tasks", handlers.ListTasks(db))
		api.POST("/tasks", handlers.CreateTask(db))
		api.PUT("/tasks/:id", handlers.UpdateTask(db))
		api.DELETE("/tasks/:id", handlers.DeleteTask(db))
		api.GET("/tasks/:id/subtasks", handlers.ListSubtasks(db))
		api.POST("/tasks/:id/subtasks", handlers.CreateSubtask(db))
		api.PUT("/subtasks/:id", handlers.UpdateSubtask(db))
		api.DELETE("/subtasks/:id", handlers.DeleteSubtask(db))
		api.GET("/tasks/progress", handlers.TaskProgress(db))

		// Task templates.
		api.GET("/templates", handlers.ListTemplates(db))
		api.POST("/templates", handlers.CreateTemplate(db))
		api.PUT("/templates/:id", handlers.UpdateTemplate(db))
		api.DELETE("/templates/:id", handlers.DeleteTemplate(db))
		api.POST("/tasks/from-template", handlers.CreateTaskFromTemplate(db))

		// Focus sessions, tree, and settings.
		api.POST("/focus/session/start", handlers.StartFocusSession(db))
		api.POST("/focus/session/:id/end", handlers.EndFocusSession(db))
		api.POST("/focus/session/:id/distraction", handlers.ReportDistraction(db))
		api.GET("/focus/tree", handlers.GetFocusTree(db))
		api.GET("/focus/settings", handlers.GetFocusSettings(db))
		api.PUT("/focus/settings", handlers.UpdateFocusSettings(db))
		api.GET("/focus/stats", handlers.FocusStats(db))

		// Achievements.
		api.GET("/achievements", handlers.ListAchievements(db))
		api.POST("/achievements/check", handlers.CheckAchievements(db))

		// Notes.
		api.GET("/notes", handlers.ListNotes(db))
		api.POST("/notes", handlers.CreateNote(db))
		api.PUT("/notes/:id", handlers.UpdateNote(db))
		api.DELETE("/notes/:id", handlers.DeleteNote(db))

		// Playlists and tracks.
		api.GET("/playlists", handlers.ListPlaylists(db))
		api.POST("/playlists", handlers.CreatePlaylist(db))
		api.DELETE("/playlists/:id", handlers.DeletePlaylist(db))
		api.GET("/playlists/:id/tracks", handlers.ListTracks(db))
		api.POST("/playlists/:id/tracks", handlers.AddTrack(db))
		api.POST("/playlists/:id/tracks/from-cloud", handlers.AddTracksFromCloud(db))
		api.PUT("/tracks/:id", handlers.UpdateTrack(db))
		api.DELETE("/tracks/:id", handlers.DeleteTrack(db))
		api.PUT("/playlists/pinned", handlers.SetPinnedPlaylist(db))

		// Mood and gratitude journal, memory game.
		api.GET("/mood", handlers.ListMoodEntries(db))
		api.POST("/mood", handlers.SaveMoodEntry(db))
		api.GET("/mood/stats", handlers.MoodStats(db))
		api.GET("/gratitude", handlers.ListGratitudeEntries(db))
		api.POST("/gratitude", handlers.CreateGratitudeEntry(db))
		api.DELETE("/gratitude/:id", handlers.DeleteGratitudeEntry(db))
		api.GET("/memory-game/scores", handlers.MemoryScores(db))
		api.POST("/memory-game/scores", handlers.SaveMemoryScore(db))

		// Chats.
		api.GET("/chats", handlers.ListChats(db))
		api.POST("/chats", handlers.CreateChat(db))
		api.GET("/chats/:id", handlers.GetChat(db))
		api.PUT("/chats/:id", handlers.UpdateChat(db))
		api.DELETE("/chats/:id", handlers.DeleteChat(db))
		api.GET("/chats/:id/members", handlers.ListChatMembers(db))
		api.POST("/chats/:id/members", handlers.AddChatMember(db))
		api.DELETE("/chats/:id/members/:userId", handlers.RemoveChatMember(db))
		api.PUT("/chats/:id/members/:userId/role", handlers.UpdateMemberRole(db))
		api.POST("/chats/join/:link", handlers.JoinChatByLink(db))
		api.POST("/chats/:id/invite-link", handlers.RegenerateInviteLink(db))
		api.GET("/chats/:id/messages", handlers.ListMessages(db))
		api.POST("/chats/:id/messages", handlers.SendMessage(db))
		api.PUT("/chats/:id/messages/:messageId", handlers.EditMessage(db))
		api.DELETE("/chats/:id/messages/:messageId", handlers.DeleteMessage(db))
		api.POST("/chats/:id/read", handlers.MarkChatRead(db))

		// Yandex Disk integration.
		api.GET("/yandex/status", handlers.YandexStatus(db))
		api.POST("/yandex/disconnect", handlers.YandexDisconnect(db))
		api.GET("/yandex/files", handlers.YandexFiles(db))
		api.GET("/yandex/files/:id/download", handlers.YandexDownload(db))
		api.DELETE("/yandex/files/:id", handlers.YandexDeleteFile(db))
	}
}
