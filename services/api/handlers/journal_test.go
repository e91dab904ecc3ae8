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

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveMoodEntry_UpsertsPerDay(t *testing.T) {
	db, r := newTestRouter(t)
	_, token := createUser(t, db, "alice")

	w := doJSON(t, r, http.MethodPost, "/api/mood", token, map[string]any{
		"mood": 3,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, r, http.MethodPost, "/api/mood", token, map[string]any{
		"mood":   5,
		"energy": 4,
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decodeMap(t, w)["updated"])

	w = doJSON(t, r, http.MethodGet, "/api/mood", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	entries := decodeList(t, w)
	require.Len(t, entries, 1)
	assert.EqualValues(t, 5, entries[0]["mood"])
	assert.EqualValues(t, 4, entries[0]["energy"])
}

func TestSaveMoodEntry_RejectsOutOfRange(t *testing.T) {
	db, r := newTestRouter(t)
	_, token := createUser(t, db, "bob")

	w := doJSON(t, r, http.MethodPost, "/api/mood", token, map[string]any{"mood": 6})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = doJSON(t, r, http.MethodPost, "/api/mood", token, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGratitude_SeventhEntryUnlocksAchievement(t *testing.T) {
	db, r := newTestRouter(t)
	_, token := createUser(t, db, "carol")

	var lastUnlocked []any
	for i := 0; i < 7; i++ {
		w := doJSON(t, r, http.MethodPost, "/api/gratitude", token, map[string]any{
			"content": fmt.Sprintf("grateful for thing %d", i),
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		lastUnlocked = decodeMap(t, w)["unlocked"].([]any)
	}

	types := make([]string, 0, len(lastUnlocked))
	for _, u := range lastUnlocked {
		types = append(types, u.(map[string]any)["type"].(string))
	}
	assert.Contains(t, types, "gratitude_7")
}

func TestMemoryScores_LeaderboardUsesBestLevel(t *testing.T) {
	db, r := newTestRouter(t)
	_, aliceToken := createUser(t, db, "alice")
	_, bobToken := createUser(t, db, "bob")

	for _, score := range []struct {
		token string
		level int
	}{
		{aliceToken, 3},
		{aliceToken, 8},
		{bobToken, 5},
	} {
		w := doJSON(t, r, http.MethodPost, "/api/memory-game/scores", score.token, map[string]any{
			"game_type": "sequence",
			"score":     score.level * 100,
			"level":     score.level,
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}

	w := doJSON(t, r, http.MethodGet, "/api/memory-game/scores?type=sequence", aliceToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decodeMap(t, w)

	leaderboard := body["leaderboard"].([]any)
	require.Len(t, leaderboard, 2)
	top := leaderboard[0].(map[string]any)
	assert.Equal(t, "alice", top["username"])
	assert.EqualValues(t, 8, top["level"])
	assert.Equal(t, true, top["is_me"])
}

func TestNotes_PinnedFirst(t *testing.T) {
	db, r := newTestRouter(t)
	_, token := createUser(t, db, "dave")

	w := doJSON(t, r, http.MethodPost, "/api/notes", token, map[string]any{
		"title": "first", "content": "plain note",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/notes", token, map[string]any{
		"title": "second", "content": "important note",
	})
	require.Equal(t, http.StatusOK, w.Code)
	pinnedID := uint(decodeMap(t, w)["id"].(float64))

	w = doJSON(t, r, http.MethodPut, fmt.Sprintf("/api/notes/%d", pinnedID), token,
		map[string]any{"is_pinned": true})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/notes", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	notes := decodeList(t, w)
	require.Len(t, notes, 2)
	assert.Equal(t, "second", notes[0]["title"])
	assert.Equal(t, true, notes[0]["is_pinned"])
}
