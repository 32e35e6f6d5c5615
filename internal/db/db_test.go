package db

import (
	"encoding/json"
	"testing"
	"time"
)

// Unit tests cover serialization of the row types; database operations are
// exercised against a live PostgreSQL instance in integration environments.

func TestCacheRowRoundTrip(t *testing.T) {
	row := &CacheRow{
		ContentHash:    "deadbeef",
		AnalysisResult: []byte(`{"overall_score":85}`),
		ExpiresAt:      time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	data, err := json.Marshal(row)
	if err != nil {
		t.Fatalf("Failed to marshal cache row: %v", err)
	}

	var back CacheRow
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Failed to unmarshal: %v", err)
	}
	if back.ContentHash != "deadbeef" {
		t.Errorf("ContentHash = %q, want 'deadbeef'", back.ContentHash)
	}
	if !back.ExpiresAt.Equal(row.ExpiresAt) {
		t.Errorf("ExpiresAt = %v, want %v", back.ExpiresAt, row.ExpiresAt)
	}
}

func TestFileContentNotSerialized(t *testing.T) {
	f := &File{
		Filename: "a.pdf",
		Content:  []byte("raw bytes"),
	}
	data, err := json.Marshal(f)
	if err != nil {
		t.Fatalf("Failed to marshal file: %v", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("Failed to unmarshal into map: %v", err)
	}
	if _, ok := raw["content"]; ok {
		t.Error("file content bytes must not leak into JSON responses")
	}
}
