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

	"github.com/focusflowhq/focusflow/services/api/models"
)

func TestTasks_CreateListDefaults(t *testing.T) {
	db, r := newTestRouter(t)
	_, token := createUser(t, db, "alice")

	w := doJSON(t, r, http.MethodPost, "/api/tasks", token, map[string]any{
		"title": "Write report",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, r, http.MethodGet, "/api/tasks", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	tasks := decodeList(t, w)
	require.Len(t, tasks, 1)
	assert.Equal(t, "Write report", tasks[0]["title"])
	assert.EqualValues(t, 25, tasks[0]["timer_minutes"])
	assert.EqualValues(t, 4, tasks[0]["sessions_count"])
	assert.Equal(t, "pomodoro", tasks[0]["focus_preset"])
	assert.EqualValues(t, 0, tasks[0]["subtasks_total"])
}

func TestTasks_DuplicateTitleWithinWindow(t *testing.T) {
	db, r := newTestRouter(t)
	_, token := createUser(t, db, "bob")

	w := doJSON(t, r, http.MethodPost, "/api/tasks", token, map[string]any{"title": "Same"})
	require.Equal(t, http.StatusOK, w.Code)
	first := decodeMap(t, w)

	w = doJSON(t, r, http.MethodPost, "/api/tasks", token, map[string]any{"title": "Same"})
	require.Equal(t, http.StatusOK, w.Code)
	second := decodeMap(t, w)

	assert.Equal(t, first["id"], second["id"])
	assert.Equal(t, true, second["duplicate"])

	w = doJSON(t, r, http.MethodGet, "/api/tasks", token, nil)
	assert.Len(t, decodeList(t, w), 1)
}

func TestTasks_CompletionSetsTimestamp(t *testing.T) {
	db, r := newTestRouter(t)
	_, token := createUser(t, db, "carol")

	w := doJSON(t, r, http.MethodPost, "/api/tasks", token, map[string]any{"title": "Finish"})
	require.Equal(t, http.StatusOK, w.Code)
	id := uint(decodeMap(t, w)["id"].(float64))

	w = doJSON(t, r, http.MethodPut, fmt.Sprintf("/api/tasks/%d", id), token, map[string]any{
		"status": "completed",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var task models.Task
	require.NoError(t, db.First(&task, id).Error)
	assert.Equal(t, models.TaskCompleted, task.Status)
	require.NotNil(t, task.CompletedAt)
}

func TestSubtasks_OrderedAndCounted(t *testing.T) {
	db, r := newTestRouter(t)
	_, token := createUser(t, db, "dave")

	w := doJSON(t, r, http.MethodPost, "/api/tasks", token, map[string]any{"title": "Parent"})
	require.Equal(t, http.StatusOK, w.Code)
	taskID := uint(decodeMap(t, w)["id"].(float64))

	for _, title := range []string{"first", "second"} {
		w = doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/tasks/%d/subtasks", taskID),
			token, map[string]any{"title": title})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}

	w = doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/tasks/%d/subtasks", taskID), token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	subtasks := decodeList(t, w)
	require.Len(t, subtasks, 2)
	assert.Equal(t, "first", subtasks[0]["title"])
	assert.Equal(t, "second", subtasks[1]["title"])

	// Tasks cannot be touched across accounts.
	_, otherToken := createUser(t, db, "mallory")
	w = doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/tasks/%d/subtasks", taskID), otherToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTaskProgress_CompletionRate(t *testing.T) {
	db, r := newTestRouter(t)
	_, token := createUser(t, db, "erin")

	for i, status := range []string{"completed", "pending"} {
		w := doJSON(t, r, http.MethodPost, "/api/tasks", token,
			map[string]any{"title": fmt.Sprintf("task-%d", i)})
		require.Equal(t, http.StatusOK, w.Code)
		id := uint(decodeMap(t, w)["id"].(float64))
		if status == "completed" {
			w = doJSON(t, r, http.MethodPut, fmt.Sprintf("/api/tasks/%d", id), token,
				map[string]any{"status": status})
			require.Equal(t, http.StatusOK, w.Code)
		}
	}

	w := doJSON(t, r, http.MethodGet, "/api/tasks/progress", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decodeMap(t, w)
	assert.EqualValues(t, 50, body["completion_rate"])
}
