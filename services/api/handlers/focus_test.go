// Copyright (C) 2025 FocusFlow Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers_test

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/focusflowhq/focusflow/services/api/models"
)

func TestFocusSessionLifecycle(t *testing.T) {
	db, r := newTestRouter(t)
	_, token := createUser(t, db, "alice")

	w := doJSON(t, r, http.MethodPost, "/api/focus/session/start", token, map[string]any{
		"duration_minutes": 25,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	sessionID := uint(decodeMap(t, w)["session_id"].(float64))

	// Backdate the start so the measured duration is 25 minutes.
	require.NoError(t, db.Model(&models.FocusSession{}).
		Where("id = ?", sessionID).
		Update("started_at", time.Now().Add(-25*time.Minute)).Error)

	w = doJSON(t, r, http.MethodPost,
		fmt.Sprintf("/api/focus/session/%d/distraction", sessionID), token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decodeMap(t, w)["distractions"])

	w = doJSON(t, r, http.MethodPost,
		fmt.Sprintf("/api/focus/session/%d/end", sessionID), token, map[string]any{
			"completed":    true,
			"distractions": 1,
		})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decodeMap(t, w)

	// 25 minutes at 2 exp/minute, no zero-distraction bonus.
	tree := body["tree"].(map[string]any)
	assert.EqualValues(t, 50, tree["exp_gained"])
	assert.EqualValues(t, 1, tree["level"])
	assert.EqualValues(t, 50, tree["experience"])

	unlocked := body["unlocked"].([]any)
	types := make([]string, 0, len(unlocked))
	for _, u := range unlocked {
		types = append(types, u.(map[string]any)["type"].(string))
	}
	assert.Contains(t, types, "first_session")
	assert.NotContains(t, types, "perfect_session")
}

func TestEndFocusSession_NotFound(t *testing.T) {
	db, r := newTestRouter(t)
	_, token := createUser(t, db, "bob")

	w := doJSON(t, r, http.MethodPost, "/api/focus/session/999/end", token, map[string]any{
		"completed": true,
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestEndFocusSession_OwnershipEnforced(t *testing.T) {
	db, r := newTestRouter(t)
	_, token := createUser(t, db, "carol")
	_, otherToken := createUser(t, db, "mallory")

	w := doJSON(t, r, http.MethodPost, "/api/focus/session/start", token, map[string]any{})
	require.Equal(t, http.StatusOK, w.Code)
	sessionID := uint(decodeMap(t, w)["session_id"].(float64))

	w = doJSON(t, r, http.MethodPost,
		fmt.Sprintf("/api/focus/session/%d/end", sessionID), otherToken, map[string]any{
			"completed": true,
		})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetFocusTree_Defaults(t *testing.T) {
	db, r := newTestRouter(t)
	_, token := createUser(t, db, "dave")

	w := doJSON(t, r, http.MethodGet, "/api/focus/tree", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decodeMap(t, w)
	assert.EqualValues(t, 1, body["level"])
	assert.EqualValues(t, 100, body["health"])
	assert.EqualValues(t, 100, body["exp_for_next_level"])
	assert.Equal(t, false, body["health_changed"])
}

func TestFocusSettings_DefaultsAndClamping(t *testing.T) {
	db, r := newTestRouter(t)
	_, token := createUser(t, db, "erin")

	w := doJSON(t, r, http.MethodGet, "/api/focus/settings", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	settings := decodeMap(t, w)
	assert.EqualValues(t, 25, settings["work_duration"])
	assert.EqualValues(t, 5, settings["short_break"])

	w = doJSON(t, r, http.MethodPut, "/api/focus/settings", token, map[string]any{
		"work_duration":  999,
		"ambient_volume": -5,
		"eye_interval":   5,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, r, http.MethodGet, "/api/focus/settings", token, nil)
	settings = decodeMap(t, w)
	assert.EqualValues(t, 120, settings["work_duration"])
	assert.EqualValues(t, 0, settings["ambient_volume"])
	assert.EqualValues(t, 10, settings["eye_interval"])
}

func TestFocusStats_CountsCompletedSessions(t *testing.T) {
	db, r := newTestRouter(t)
	_, token := createUser(t, db, "frank")

	w := doJSON(t, r, http.MethodPost, "/api/focus/session/start", token, map[string]any{
		"duration_minutes": 30,
	})
	require.Equal(t, http.StatusOK, w.Code)
	sessionID := uint(decodeMap(t, w)["session_id"].(float64))

	w = doJSON(t, r, http.MethodPost,
		fmt.Sprintf("/api/focus/session/%d/end", sessionID), token, map[string]any{
			"completed": true,
		})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/focus/stats", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decodeMap(t, w)
	week := body["week"].(map[string]any)
	assert.EqualValues(t, 1, week["total_sessions"])
	allTime := body["all_time"].(map[string]any)
	assert.EqualValues(t, 1, allTime["total_sessions"])
}
