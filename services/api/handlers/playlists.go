// Copyright (C) 2025 FocusFlow Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/focusflowhq/focusflow/services/api/middleware"
	"github.com/focusflowhq/focusflow/services/api/models"
)

func ListPlaylists(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := middleware.UserID(c)

		var playlists []models.Playlist
		if err := db.Where("user_id = ?", userID).Find(&playlists).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load playlists"})
			return
		}

		result := make([]gin.H, 0, len(playlists))
		for _, p := range playlists {
			var count int64
			db.Model(&models.Track{}).Where("playlist_id = ?", p.ID).Count(&count)
			result = append(result, gin.H{
				"id":           p.ID,
				"name":         p.Name,
				"description":  p.Description,
				"tracks_count": count,
			})
		}
		c.JSON(http.StatusOK, result)
	}
}

func CreatePlaylist(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := middleware.UserID(c)

		var req struct {
			Name        string `json:"name" binding:"required,max=100"`
			Description string `json:"description"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		playlist := models.Playlist{UserID: userID, Name: req.Name, Description: req.Description}
		if err := db.Create(&playlist).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create playlist"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "id": playlist.ID})
	}
}

func DeletePlaylist(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := middleware.UserID(c)
		playlistID, ok := paramID(c, "id")
		if !ok {
			return
		}

		var playlist models.Playlist
		if err := db.Where("id = ? AND user_id = ?", playlistID, userID).First(&playlist).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "playlist not found"})
			return
		}

		err := db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Where("playlist_id = ?", playlist.ID).Delete(&models.Track{}).Error; err != nil {
				return err
			}
			return tx.Delete(&playlist).Error
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete playlist"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}

// ---------------------------------------------------------------------------
// Tracks
// ---------------------------------------------------------------------------

func loadOwnedPlaylist(db *gorm.DB, userID, playlistID uint) (*models.Playlist, error) {
	var playlist models.Playlist
	err := db.Where("id = ? AND user_id = ?", playlistID, userID).First(&playlist).Error
	if err != nil {
		return nil, err
	}
	return &playlist, nil
}

func ListTracks(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := middleware.UserID(c)
		playlistID, ok := paramID(c, "id")
		if !ok {
			return
		}
		if _, err := loadOwnedPlaylist(db, userID, playlistID); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "playlist not found"})
			return
		}

		var tracks []models.Track
		db.Where("playlist_id = ?", playlistID).Order("sort_order").Find(&tracks)
		c.JSON(http.StatusOK, tracks)
	}
}

type addTrackRequest struct {
	Title    string `json:"title" binding:"required,max=200"`
	Artist   string `json:"artist"`
	URL      string `json:"url" binding:"required,max=500"`
	Duration int    `json:"duration"`
}

func AddTrack(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := middleware.UserID(c)
		playlistID, ok := paramID(c, "id")
		if !ok {
			return
		}
		if _, err := loadOwnedPlaylist(db, userID, playlistID); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "playlist not found"})
			return
		}

		var req addTrackRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		var maxOrder int
		db.Model(&models.Track{}).Where("playlist_id = ?", playlistID).
			Select("coalesce(max(sort_order), 0)").Scan(&maxOrder)

		track := models.Track{
			PlaylistID: playlistID,
			Title:      req.Title,
			Artist:     req.Artist,
			URL:        req.URL,
			Duration:   req.Duration,
			Order:      maxOrder + 1,
		}
		if err := db.Create(&track).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to add track"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "id": track.ID})
	}
}

// AddTracksFromCloud links CloudFile rows into a playlist as tracks
// with "cloud:{id}" URLs. Files that do not belong to the caller are
// skipped silently.
func AddTracksFromCloud(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := middleware.UserID(c)
		playlistID, ok := paramID(c, "id")
		if !ok {
			return
		}
		if _, err := loadOwnedPlaylist(db, userID, playlistID); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "playlist not found"})
			return
		}

		var req struct {
			FileIDs []uint `json:"file_ids" binding:"required,min=1"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "no files selected"})
			return
		}

		var count int64
		db.Model(&models.YandexDiskToken{}).Where("user_id = ?", userID).Count(&count)
		if count == 0 {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "yandex disk is not connected"})
			return
		}

		var maxOrder int
		db.Model(&models.Track{}).Where("playlist_id = ?", playlistID).
			Select("coalesce(max(sort_order), 0)").Scan(&maxOrder)

		added := 0
		for _, fileID := range req.FileIDs {
			var file models.CloudFile
			if err := db.Where("id = ? AND user_id = ?", fileID, userID).First(&file).Error; err != nil {
				continue
			}
			maxOrder++
			track := models.Track{
				PlaylistID: playlistID,
				Title:      defaultStr(file.Title, file.Filename),
				Artist:     file.Artist,
				URL:        fmt.Sprintf("cloud:%d", file.ID),
				Duration:   file.Duration,
				Order:      maxOrder,
			}
			if err := db.Create(&track).Error; err != nil {
				continue
			}
			added++
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "added": added})
	}
}

// loadOwnedTrack resolves a track through its playlist's owner.
func loadOwnedTrack(db *gorm.DB, userID, trackID uint) (*models.Track, error) {
	var track models.Track
	if err := db.First(&track, trackID).Error; err != nil {
		return nil, err
	}
	if _, err := loadOwnedPlaylist(db, userID, track.PlaylistID); err != nil {
		return nil, err
	}
	return &track, nil
}

func UpdateTrack(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := middleware.UserID(c)
		trackID, ok := paramID(c, "id")
		if !ok {
			return
		}

		track, err := loadOwnedTrack(db, userID, trackID)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "track not found"})
			return
		}

		var req struct {
			Title  *string `json:"title"`
			Artist *string `json:"artist"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		if req.Title != nil {
			track.Title = *req.Title
		}
		if req.Artist != nil {
			track.Artist = *req.Artist
		}
		if err := db.Save(track).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update track"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "track": gin.H{
			"id":     track.ID,
			"title":  track.Title,
			"artist": track.Artist,
		}})
	}
}

func DeleteTrack(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := middleware.UserID(c)
		trackID, ok := paramID(c, "id")
		if !ok {
			return
		}

		track, err := loadOwnedTrack(db, userID, trackID)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "track not found"})
			return
		}
		if err := db.Delete(track).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete track"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}

// SetPinnedPlaylist pins one of the caller's playlists to their profile.
// A null playlist_id clears the pin.
func SetPinnedPlaylist(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := middleware.UserID(c)

		var req struct {
			PlaylistID *uint `json:"playlist_id"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		if req.PlaylistID != nil {
			if _, err := loadOwnedPlaylist(db, userID, *req.PlaylistID); err != nil {
				c.JSON(http.StatusNotFound, gin.H{"error": "playlist not found"})
				return
			}
		}
		if err := db.Model(&models.User{}).Where("id = ?", userID).
			Update("pinned_playlist_id", req.PlaylistID).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update profile"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}
