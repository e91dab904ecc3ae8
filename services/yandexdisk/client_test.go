// Copyright (C) 2025 FocusFlow Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package yandexdisk

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := New("test-token")
	client.base = server.URL
	return client
}

func TestGetDiskInfo(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "OAuth test-token", r.Header.Get("Authorization"))
		assert.Equal(t, "/", r.URL.Path)
		w.Write([]byte(`{"total_space": 1000, "used_space": 250, "user": {"login": "alice"}}`))
	})

	info, err := client.GetDiskInfo(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1000, info.TotalSpace)
	assert.EqualValues(t, 250, info.UsedSpace)
	assert.Equal(t, "alice", info.User.Login)
}

func TestGetDiskInfo_InvalidToken(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message": "token is invalid"}`))
	})

	_, err := client.GetDiskInfo(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "token is invalid")
}

func TestCreateFolder_ExistingIsNotAnError(t *testing.T) {
	for _, status := range []int{http.StatusCreated, http.StatusConflict} {
		client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPut, r.Method)
			assert.Equal(t, "/resources", r.URL.Path)
			w.WriteHeader(status)
		})
		assert.NoError(t, client.CreateFolder(context.Background(), AppFolder))
	}
}

func TestEnsureAppFolder(t *testing.T) {
	var paths []string
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Query().Get("path"))
		w.WriteHeader(http.StatusCreated)
	})

	require.NoError(t, client.EnsureAppFolder(context.Background()))
	// Root folder plus one subfolder per file type.
	require.Len(t, paths, 7)
	assert.Equal(t, AppFolder, paths[0])
	assert.Contains(t, paths, AppFolder+"/music")
}

func TestDownloadURL(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/resources/download", r.URL.Path)
		assert.Equal(t, "app:/FocusFlow/music/track.mp3", r.URL.Query().Get("path"))
		w.Write([]byte(`{"href": "https://downloader.example/abc"}`))
	})

	href, err := client.DownloadURL(context.Background(), "app:/FocusFlow/music/track.mp3")
	require.NoError(t, err)
	assert.Equal(t, "https://downloader.example/abc", href)
}

func TestListFiles(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"_embedded": {"items": [
			{"name": "a.mp3", "path": "app:/FocusFlow/music/a.mp3", "type": "file", "size": 123},
			{"name": "b.mp3", "path": "app:/FocusFlow/music/b.mp3", "type": "file", "size": 456}
		]}}`))
	})

	items, err := client.ListFiles(context.Background(), AppFolder+"/music", 100)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "a.mp3", items[0].Name)
	assert.EqualValues(t, 456, items[1].Size)
}

func TestDelete(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "false", r.URL.Query().Get("permanently"))
		w.WriteHeader(http.StatusNoContent)
	})
	assert.NoError(t, client.Delete(context.Background(), AppFolder+"/music/a.mp3", false))
}

func TestClassifyFile(t *testing.T) {
	cases := map[string]string{
		"song.MP3":     "music",
		"photo.jpeg":   "image",
		"report.pdf":   "document",
		"clip.webm":    "video",
		"backup.tar":   "archive",
		"mystery.xyz":  "other",
		"no-extension": "other",
	}
	for filename, want := range cases {
		assert.Equal(t, want, ClassifyFile(filename), filename)
	}
}

func TestOAuthConfigScopes(t *testing.T) {
	cfg := OAuthConfig("id", "secret", "http://localhost/cb")
	assert.Equal(t, Endpoint.AuthURL, cfg.Endpoint.AuthURL)
	assert.Len(t, cfg.Scopes, 4)
}
