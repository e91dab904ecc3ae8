// Copyright (C) 2025 FocusFlow Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package yandexdisk is a client for the Yandex Disk REST API.
//
// FocusFlow keeps user media in a dedicated application folder
// ("app:/FocusFlow") with one subfolder per file type. The client
// covers the operations the API needs: OAuth code exchange, disk info,
// folder bootstrap, upload/download URL negotiation, listing, and
// deletion. Calls are synchronous and are not retried; a failed call
// surfaces as an error to the handler.
package yandexdisk

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

const (
	baseURL  = "https://cloud-api.yandex.net/v1/disk"
	oauthURL = "https://oauth.yandex.ru"

	// AppFolder is the application's root folder on the user's disk.
	AppFolder = "app:/FocusFlow"
)

// fileTypeFolders are the subfolders created under AppFolder.
var fileTypeFolders = []string{"music", "image", "document", "video", "archive", "other"}

// Endpoint is the Yandex OAuth endpoint for x/oauth2.
var Endpoint = oauth2.Endpoint{
	AuthURL:  oauthURL + "/authorize",
	TokenURL: oauthURL + "/token",
}

// OAuthConfig builds the oauth2 config for the disk scopes.
func OAuthConfig(clientID, clientSecret, redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Endpoint:     Endpoint,
		Scopes: []string{
			"cloud_api:disk.app_folder",
			"cloud_api:disk.read",
			"cloud_api:disk.write",
			"cloud_api:disk.info",
		},
	}
}

// Client talks to the Yandex Disk API on behalf of one user.
type Client struct {
	token string
	base  string
	http  *http.Client
}

// New creates a Client for the given access token.
func New(accessToken string) *Client {
	return &Client{
		token: accessToken,
		base:  baseURL,
		http:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) do(ctx context.Context, method, path string, params url.Values) (*http.Response, error) {
	u := c.base + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "OAuth "+c.token)
	req.Header.Set("Content-Type", "application/json")
	return c.http.Do(req)
}

// apiError extracts the error description from a non-2xx response.
func apiError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var parsed struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Message != "" {
		return fmt.Errorf("yandex disk: %s (%s)", parsed.Message, resp.Status)
	}
	return fmt.Errorf("yandex disk: unexpected status %s", resp.Status)
}

// DiskInfo describes the user's disk quota and account.
type DiskInfo struct {
	TotalSpace int64 `json:"total_space"`
	UsedSpace  int64 `json:"used_space"`
	User       struct {
		Login       string `json:"login"`
		DisplayName string `json:"display_name"`
	} `json:"user"`
}

// GetDiskInfo fetches quota and account info; it doubles as a token
// validity check.
func (c *Client) GetDiskInfo(ctx context.Context) (*DiskInfo, error) {
	resp, err := c.do(ctx, http.MethodGet, "/", nil)
	if err != nil {
		return nil, fmt.Errorf("disk info: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, apiError(resp)
	}
	var info DiskInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("decode disk info: %w", err)
	}
	return &info, nil
}

// CreateFolder creates a folder; an already-existing folder is not an
// error.
func (c *Client) CreateFolder(ctx context.Context, path string) error {
	resp, err := c.do(ctx, http.MethodPut, "/resources", url.Values{"path": {path}})
	if err != nil {
		return fmt.Errorf("create folder: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusCreated || resp.StatusCode == http.StatusConflict {
		return nil
	}
	return apiError(resp)
}

// EnsureAppFolder creates the application folder and its per-type
// subfolders.
func (c *Client) EnsureAppFolder(ctx context.Context) error {
	if err := c.CreateFolder(ctx, AppFolder); err != nil {
		return err
	}
	for _, folder := range fileTypeFolders {
		if err := c.CreateFolder(ctx, AppFolder+"/"+folder); err != nil {
			return err
		}
	}
	return nil
}

type hrefResponse struct {
	Href string `json:"href"`
}

// UploadURL negotiates a one-time URL the file content should be PUT to.
func (c *Client) UploadURL(ctx context.Context, path string, overwrite bool) (string, error) {
	params := url.Values{"path": {path}, "overwrite": {fmt.Sprintf("%t", overwrite)}}
	resp, err := c.do(ctx, http.MethodGet, "/resources/upload", params)
	if err != nil {
		return "", fmt.Errorf("upload url: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", apiError(resp)
	}
	var href hrefResponse
	if err := json.NewDecoder(resp.Body).Decode(&href); err != nil {
		return "", fmt.Errorf("decode upload url: %w", err)
	}
	return href.Href, nil
}

// Upload streams content to the disk at the given path.
func (c *Client) Upload(ctx context.Context, path string, content io.Reader, overwrite bool) error {
	uploadURL, err := c.UploadURL(ctx, path, overwrite)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, content)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("upload: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusAccepted {
		return apiError(resp)
	}
	return nil
}

// DownloadURL returns a short-lived URL the file can be fetched from.
func (c *Client) DownloadURL(ctx context.Context, path string) (string, error) {
	resp, err := c.do(ctx, http.MethodGet, "/resources/download", url.Values{"path": {path}})
	if err != nil {
		return "", fmt.Errorf("download url: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", apiError(resp)
	}
	var href hrefResponse
	if err := json.NewDecoder(resp.Body).Decode(&href); err != nil {
		return "", fmt.Errorf("decode download url: %w", err)
	}
	return href.Href, nil
}

// Resource describes a file or folder on the disk.
type Resource struct {
	Name     string    `json:"name"`
	Path     string    `json:"path"`
	Type     string    `json:"type"` // "file" or "dir"
	Size     int64     `json:"size"`
	MimeType string    `json:"mime_type"`
	Created  time.Time `json:"created"`
}

// GetResourceInfo fetches metadata for one path.
func (c *Client) GetResourceInfo(ctx context.Context, path string) (*Resource, error) {
	resp, err := c.do(ctx, http.MethodGet, "/resources", url.Values{"path": {path}})
	if err != nil {
		return nil, fmt.Errorf("resource info: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, apiError(resp)
	}
	var res Resource
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return nil, fmt.Errorf("decode resource info: %w", err)
	}
	return &res, nil
}

// ListFiles returns the entries of a folder, up to limit.
func (c *Client) ListFiles(ctx context.Context, path string, limit int) ([]Resource, error) {
	params := url.Values{"path": {path}, "limit": {fmt.Sprintf("%d", limit)}}
	resp, err := c.do(ctx, http.MethodGet, "/resources", params)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, apiError(resp)
	}
	var parsed struct {
		Embedded struct {
			Items []Resource `json:"items"`
		} `json:"_embedded"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode file list: %w", err)
	}
	return parsed.Embedded.Items, nil
}

// Delete removes a file or folder. Deletion is asynchronous on the
// Yandex side; 202 and 204 both count as success.
func (c *Client) Delete(ctx context.Context, path string, permanently bool) error {
	params := url.Values{"path": {path}, "permanently": {fmt.Sprintf("%t", permanently)}}
	resp, err := c.do(ctx, http.MethodDelete, "/resources", params)
	if err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusAccepted || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	return apiError(resp)
}

// CloudPath builds the canonical storage path for an uploaded file.
func CloudPath(fileType, uniqueName string) string {
	return fmt.Sprintf("%s/%s/%s", AppFolder, fileType, uniqueName)
}

// ClassifyFile maps a filename extension to the folder taxonomy.
func ClassifyFile(filename string) string {
	idx := strings.LastIndex(filename, ".")
	if idx < 0 {
		return "other"
	}
	switch strings.ToLower(filename[idx+1:]) {
	case "mp3", "wav", "ogg", "m4a", "flac", "aac", "wma":
		return "music"
	case "jpg", "jpeg", "png", "gif", "webp", "bmp", "svg":
		return "image"
	case "pdf", "doc", "docx", "xls", "xlsx", "ppt", "pptx", "txt", "rtf":
		return "document"
	case "mp4", "avi", "mkv", "mov", "wmv", "webm":
		return "video"
	case "zip", "rar", "7z", "tar", "gz":
		return "archive"
	default:
		return "other"
	}
}
