// Package store provides a minimal MeetingStore stand-in: a JSON-on-disk
// implementation so the job orchestrator has something to call by default
// when no external metadata database is configured.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/lokutor-ai/meetscribe/pkg/meeting"
)

type JSONStore struct {
	root string
}

func NewJSONStore(root string) *JSONStore {
	return &JSONStore{root: root}
}

func (s *JSONStore) SaveMeeting(ctx context.Context, record *meeting.MeetingRecord) error {
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return fmt.Errorf("create store root: %w", err)
	}
	path := filepath.Join(s.root, record.MeetingID+".json")
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal meeting record: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write meeting record: %w", err)
	}
	return nil
}

var _ meeting.MeetingStore = (*JSONStore)(nil)
