// Copyright (C) 2025 FocusFlow Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package middleware provides HTTP middleware for the FocusFlow API.
//
// # Authentication Flow
//
// The auth middleware extracts a bearer token from the Authorization
// header, verifies it as an HMAC-signed JWT, and stores the user ID in
// the Gin context for downstream handlers.
//
//	Request
//	   │
//	   ▼
//	RequireAuth
//	   │
//	   ├─► Extract token from "Authorization: Bearer <token>"
//	   │
//	   ├─► Parse and verify JWT signature + expiry
//	   │
//	   └─► Store user ID in context
//	           │
//	           ▼
//	       Handler (retrieves via UserID)
package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// =============================================================================
// Context Keys
// =============================================================================

// userIDKey is the context key for the authenticated user's ID.
// Using a namespaced key prevents collisions with other context values.
const userIDKey = "focusflow_user_id"

// TokenTTL is how long issued tokens stay valid.
const TokenTTL = 30 * 24 * time.Hour

var (
	// ErrInvalidToken is returned when a token fails signature or
	// expiry verification.
	ErrInvalidToken = errors.New("invalid token")
)

// =============================================================================
// Token Issue / Verify
// =============================================================================

// IssueToken signs a JWT for the given user, valid for TokenTTL.
func IssueToken(secret string, userID uint) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": fmt.Sprintf("%d", userID),
		"iat": now.Unix(),
		"exp": now.Add(TokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// VerifyToken parses a signed token and returns the user ID it carries.
// Expired or tampered tokens return ErrInvalidToken.
func VerifyToken(secret, tokenString string) (uint, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return 0, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, ErrInvalidToken
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return 0, ErrInvalidToken
	}

	var userID uint
	if _, err := fmt.Sscanf(sub, "%d", &userID); err != nil || userID == 0 {
		return 0, ErrInvalidToken
	}
	return userID, nil
}

// =============================================================================
// Auth Middleware
// =============================================================================

// RequireAuth creates a Gin middleware that rejects requests without a
// valid bearer token and stores the authenticated user ID in the
// context for downstream handlers.
func RequireAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractBearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "authentication required",
			})
			return
		}

		userID, err := VerifyToken(secret, token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "invalid or expired token",
			})
			return
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}

// UserID retrieves the authenticated user's ID from the Gin context.
// The second return is false when the request is not authenticated.
func UserID(c *gin.Context) (uint, bool) {
	if v, exists := c.Get(userIDKey); exists {
		if id, ok := v.(uint); ok {
			return id, true
		}
	}
	return 0, false
}

// =============================================================================
// Helper Functions
// =============================================================================

// extractBearerToken extracts the token from the Authorization header.
// The "Bearer" prefix is case-insensitive per RFC 7235. Returns empty
// string if the header is missing or malformed.
func extractBearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}

	// Expected format: "Bearer <token>"
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}
