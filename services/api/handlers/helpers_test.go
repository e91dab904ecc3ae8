// Copyright (C) 2025 FocusFlow Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/focusflowhq/focusflow/services/api/config"
	"github.com/focusflowhq/focusflow/services/api/middleware"
	"github.com/focusflowhq/focusflow/services/api/models"
	"github.com/focusflowhq/focusflow/services/api/routes"
)

const testSecret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

// newTestRouter spins up the full route table against a fresh in-memory
// database. Each test gets its own named database so tests stay isolated.
func newTestRouter(t *testing.T) (*gorm.DB, *gin.Engine) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared",
		strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.All()...))

	r := gin.New()
	routes.Setup(r, db, config.Config{JWTSecret: testSecret})
	return db, r
}

// createUser inserts a user directly and returns it with a valid token.
func createUser(t *testing.T, db *gorm.DB, username string) (models.User, string) {
	t.Helper()

	user := models.User{
		Email:    username + "@example.com",
		Username: username,
		Name:     username,
	}
	require.NoError(t, db.Create(&user).Error)

	token, err := middleware.IssueToken(testSecret, user.ID)
	require.NoError(t, err)
	return user, token
}

// doJSON performs a request against the router with an optional JSON
// body and bearer token.
func doJSON(t *testing.T, r *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeMap(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func decodeList(t *testing.T, w *httptest.ResponseRecorder) []map[string]any {
	t.Helper()
	var body []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}
