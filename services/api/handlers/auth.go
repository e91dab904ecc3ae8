// Copyright (C) 2025 FocusFlow Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package handlers contains the gin handlers for the FocusFlow API,
// one file per resource. Handlers are closures over their dependencies
// (gorm.DB, config) and map errors to gin.H JSON bodies.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"gorm.io/gorm"

	"github.com/focusflowhq/focusflow/services/api/config"
	"github.com/focusflowhq/focusflow/services/api/middleware"
	"github.com/focusflowhq/focusflow/services/api/models"
)

type registerRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Username string `json:"username" binding:"required,min=2,max=50"`
	Password string `json:"password" binding:"required,min=6"`
	Name     string `json:"name"`
}

func Register(db *gorm.DB, secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req registerRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		var count int64
		db.Model(&models.User{}).Where("email = ?", req.Email).Count(&count)
		if count > 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "email already registered"})
			return
		}
		db.Model(&models.User{}).Where("username = ?", req.Username).Count(&count)
		if count > 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "username already taken"})
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to hash password"})
			return
		}

		name := req.Name
		if name == "" {
			name = req.Username
		}
		user := models.User{
			Email:        req.Email,
			Username:     req.Username,
			PasswordHash: string(hash),
			Name:         name,
		}
		if err := db.Create(&user).Error; err != nil {
			slog.Error("failed to create user", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create user"})
			return
		}

		token, err := middleware.IssueToken(secret, user.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue token"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"token":   token,
			"user":    gin.H{"id": user.ID, "username": user.Username},
		})
	}
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func Login(db *gorm.DB, secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		var user models.User
		err := db.Where("email = ?", req.Email).First(&user).Error
		if err == nil && user.PasswordHash != "" {
			err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password))
		} else {
			err = errors.New("no password account")
		}
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
			return
		}

		token, err := middleware.IssueToken(secret, user.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue token"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"token":   token,
			"user":    gin.H{"id": user.ID, "username": user.Username},
		})
	}
}

// Logout exists for API symmetry. Tokens are stateless; the client
// discards its copy.
func Logout() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}

func Me(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := middleware.UserID(c)
		var user models.User
		if err := db.First(&user, userID).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"id":         user.ID,
			"email":      user.Email,
			"username":   user.Username,
			"name":       user.Name,
			"bio":        user.Bio,
			"avatar_url": user.AvatarURL,
		})
	}
}

// googleOAuthConfig builds the oauth2 config from app configuration.
func googleOAuthConfig(cfg config.Config) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.GoogleRedirectURL,
		Scopes:       []string{"openid", "email", "profile"},
		Endpoint:     google.Endpoint,
	}
}

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

func GoogleLogin(cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.GoogleClientID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "google oauth is not configured"})
			return
		}
		url := googleOAuthConfig(cfg).AuthCodeURL("state", oauth2.AccessTypeOnline)
		c.Redirect(http.StatusFound, url)
	}
}

type googleUserInfo struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

func GoogleCallback(db *gorm.DB, cfg config.Config, secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		code := c.Query("code")
		if code == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing code"})
			return
		}

		oauthCfg := googleOAuthConfig(cfg)
		token, err := oauthCfg.Exchange(c.Request.Context(), code)
		if err != nil {
			slog.Error("google code exchange failed", "error", err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "code exchange failed"})
			return
		}

		resp, err := oauthCfg.Client(c.Request.Context(), token).Get(googleUserInfoURL)
		if err != nil {
			slog.Error("google userinfo request failed", "error", err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "failed to fetch user info"})
			return
		}
		defer resp.Body.Close()

		var info googleUserInfo
		if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": "failed to decode user info"})
			return
		}

		user, err := findOrCreateGoogleUser(db, info)
		if err != nil {
			slog.Error("failed to resolve google user", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve user"})
			return
		}

		jwtToken, err := middleware.IssueToken(secret, user.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue token"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"token":   jwtToken,
			"user":    gin.H{"id": user.ID, "username": user.Username},
		})
	}
}

// findOrCreateGoogleUser resolves an OAuth identity to a local account:
// match by google_id, then by email (linking the identity), then create
// a new account with a deduplicated username.
func findOrCreateGoogleUser(db *gorm.DB, info googleUserInfo) (*models.User, error) {
	var user models.User
	err := db.Where("google_id = ?", info.ID).First(&user).Error
	if err == nil {
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	err = db.Where("email = ?", info.Email).First(&user).Error
	if err == nil {
		user.GoogleID = &info.ID
		if err := db.Save(&user).Error; err != nil {
			return nil, err
		}
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	base := strings.SplitN(info.Email, "@", 2)[0]
	username := base
	for counter := 1; ; counter++ {
		var count int64
		if err := db.Model(&models.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
			return nil, err
		}
		if count == 0 {
			break
		}
		username = fmt.Sprintf("%s%d", base, counter)
	}

	name := info.Name
	if name == "" {
		name = username
	}
	user = models.User{
		Email:     info.Email,
		Username:  username,
		Name:      name,
		GoogleID:  &info.ID,
		AvatarURL: info.Picture,
	}
	if err := db.Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}
