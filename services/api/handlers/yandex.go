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

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/focusflowhq/focusflow/services/api/config"
	"github.com/focusflowhq/focusflow/services/api/middleware"
	"github.com/focusflowhq/focusflow/services/api/models"
	"github.com/focusflowhq/focusflow/services/yandexdisk"
)

func loadDiskToken(db *gorm.DB, userID uint) (*models.YandexDiskToken, error) {
	var token models.YandexDiskToken
	if err := db.Where("user_id = ?", userID).First(&token).Error; err != nil {
		return nil, err
	}
	return &token, nil
}

// YandexLogin redirects the user into the Yandex OAuth consent flow.
func YandexLogin(cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.YandexClientID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "yandex disk is not configured"})
			return
		}
		url := yandexdisk.OAuthConfig(cfg.YandexClientID, cfg.YandexClientSecret,
			cfg.YandexRedirectURL).AuthCodeURL("state")
		c.Redirect(http.StatusFound, url)
	}
}

// YandexCallback exchanges the authorization code for a token, stores
// it, and bootstraps the application folder on the user's disk.
func YandexCallback(db *gorm.DB, cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := middleware.UserID(c)

		if errParam := c.Query("error"); errParam != "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": errParam})
			return
		}
		code := c.Query("code")
		if code == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing code"})
			return
		}

		oauthCfg := yandexdisk.OAuthConfig(cfg.YandexClientID, cfg.YandexClientSecret, cfg.YandexRedirectURL)
		token, err := oauthCfg.Exchange(c.Request.Context(), code)
		if err != nil {
			slog.Error("yandex code exchange failed", "error", err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "token exchange failed"})
			return
		}

		record, err := loadDiskToken(db, userID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			record = &models.YandexDiskToken{UserID: userID}
		} else if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load token"})
			return
		}
		record.AccessToken = token.AccessToken
		record.RefreshToken = token.RefreshToken
		if !token.Expiry.IsZero() {
			expiry := token.Expiry
			record.ExpiresAt = &expiry
		}
		if err := db.Save(record).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store token"})
			return
		}

		if err := yandexdisk.New(token.AccessToken).EnsureAppFolder(c.Request.Context()); err != nil {
			slog.Warn("failed to bootstrap app folder", "user_id", userID, "error", err)
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "connected": true})
	}
}

// YandexStatus reports whether the disk is connected and, if so, the
// quota info. A stored but invalid token reports connected=false.
func YandexStatus(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := middleware.UserID(c)

		token, err := loadDiskToken(db, userID)
		if err != nil {
			c.JSON(http.StatusOK, gin.H{"connected": false})
			return
		}

		info, err := yandexdisk.New(token.AccessToken).GetDiskInfo(c.Request.Context())
		if err != nil {
			slog.Warn("yandex disk status check failed", "user_id", userID, "error", err)
			c.JSON(http.StatusOK, gin.H{"connected": false, "error": "invalid_token"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"connected":   true,
			"total_space": info.TotalSpace,
			"used_space":  info.UsedSpace,
			"user":        info.User,
		})
	}
}

func YandexDisconnect(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := middleware.UserID(c)
		db.Where("user_id = ?", userID).Delete(&models.YandexDiskToken{})
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}

// YandexFiles lists the caller's indexed cloud files, optionally
// filtered by type.
func YandexFiles(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := middleware.UserID(c)

		query := db.Where("user_id = ?", userID)
		if fileType := c.DefaultQuery("type", "all"); fileType != "all" {
			query = query.Where("file_type = ?", fileType)
		}

		var files []models.CloudFile
		if err := query.Order("created_at desc").Find(&files).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load files"})
			return
		}
		c.JSON(http.StatusOK, files)
	}
}

// YandexDownload resolves a cloud file to a short-lived download URL.
func YandexDownload(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := middleware.UserID(c)
		fileID, ok := paramID(c, "id")
		if !ok {
			return
		}

		var file models.CloudFile
		if err := db.Where("id = ? AND user_id = ?", fileID, userID).First(&file).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
			return
		}

		token, err := loadDiskToken(db, userID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "yandex disk is not connected"})
			return
		}

		url, err := yandexdisk.New(token.AccessToken).DownloadURL(c.Request.Context(), file.CloudPath)
		if err != nil {
			slog.Error("failed to resolve download url", "file_id", fileID, "error", err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "failed to get download link"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"url": url})
	}
}

// YandexDeleteFile removes a file from the disk and drops its index
// row. The remote delete is best-effort; the index row always goes.
func YandexDeleteFile(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := middleware.UserID(c)
		fileID, ok := paramID(c, "id")
		if !ok {
			return
		}

		var file models.CloudFile
		if err := db.Where("id = ? AND user_id = ?", fileID, userID).First(&file).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
			return
		}

		token, err := loadDiskToken(db, userID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "yandex disk is not connected"})
			return
		}

		if err := yandexdisk.New(token.AccessToken).Delete(c.Request.Context(), file.CloudPath, false); err != nil {
			slog.Warn("remote delete failed", "file_id", fileID, "error", err)
		}
		if err := db.Delete(&file).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete file"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}
