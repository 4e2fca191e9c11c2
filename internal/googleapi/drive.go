package googleapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// driveFilesURL is a var, not a const, so tests can point it at an
// httptest.Server standing in for googleapis.com.
var driveFilesURL = "https://www.googleapis.com/drive/v3/files"

// WithDriveURLForTest points ListFiles and DownloadFileText at an
// alternate endpoint and returns a func that restores the original.
func WithDriveURLForTest(url string) func() {
	original := driveFilesURL
	driveFilesURL = url
	return func() { driveFilesURL = original }
}

// File is the subset of a Drive API file resource the gateway needs.
type File struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type filesListResponse struct {
	Files []File `json:"files"`
}

// ListFiles returns files whose name contains namePrefix, most
// recently modified first — used both by the drive intent and by
// meeting-sync's transcript lookup.
func ListFiles(ctx context.Context, accessToken, namePrefix string) ([]File, error) {
	v := url.Values{}
	v.Set("q", fmt.Sprintf("name contains '%s' and trashed = false", escapeQuery(namePrefix)))
	v.Set("orderBy", "modifiedTime desc")
	v.Set("fields", "files(id,name)")
	v.Set("pageSize", "10")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, driveFilesURL+"?"+v.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("googleapi: build drive request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	var out filesListResponse
	if err := do(req, &out); err != nil {
		return nil, err
	}
	return out.Files, nil
}

// DownloadFileText fetches a file's raw content as text (transcripts
// and plain-text documents only; no export-format negotiation).
func DownloadFileText(ctx context.Context, accessToken, fileID string) (string, error) {
	endpoint := fmt.Sprintf("%s/%s?alt=media", driveFilesURL, url.PathEscape(fileID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("googleapi: build download request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("googleapi: download request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("googleapi: read download response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("googleapi: download returned status %d", resp.StatusCode)
	}
	return string(raw), nil
}

type filePatch struct {
	Name string `json:"name,omitempty"`
}

// CreateFile creates an empty metadata-only file with the given name —
// enough for the drive intent's "create a doc named X" requests, which
// don't need content uploaded in the same call.
func CreateFile(ctx context.Context, accessToken, name string) (File, error) {
	body, err := json.Marshal(filePatch{Name: name})
	if err != nil {
		return File{}, fmt.Errorf("googleapi: marshal create-file body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, driveFilesURL, bytes.NewReader(body))
	if err != nil {
		return File{}, fmt.Errorf("googleapi: build create-file request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	var out File
	if err := do(req, &out); err != nil {
		return File{}, err
	}
	return out, nil
}

// UpdateFile renames a file.
func UpdateFile(ctx context.Context, accessToken, fileID, newName string) (File, error) {
	body, err := json.Marshal(filePatch{Name: newName})
	if err != nil {
		return File{}, fmt.Errorf("googleapi: marshal update-file body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, driveFilesURL+"/"+url.PathEscape(fileID), bytes.NewReader(body))
	if err != nil {
		return File{}, fmt.Errorf("googleapi: build update-file request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	var out File
	if err := do(req, &out); err != nil {
		return File{}, err
	}
	return out, nil
}

// DeleteFile removes a file by id.
func DeleteFile(ctx context.Context, accessToken, fileID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, driveFilesURL+"/"+url.PathEscape(fileID), nil)
	if err != nil {
		return fmt.Errorf("googleapi: build delete-file request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	return do(req, &struct{}{})
}

func escapeQuery(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\'' {
			out = append(out, '\\')
		}
		out = append(out, s[i])
	}
	return string(out)
}
