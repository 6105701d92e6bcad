package meeting

import (
	"context"
	"time"
)

// Utterance is one caption line attributed to a speaker.
type Utterance struct {
	SpeakerName    string
	Text           string
	StartTimestamp string // HH:MM:SS or MM:SS, elapsed from meeting start
	EndTimestamp   string
}

// DiarizedUtterance is one speaker turn produced by the transcription
// provider from the recorded audio.
type DiarizedUtterance struct {
	SpeakerLabel string // opaque ASR identifier, e.g. "spk_0"
	Text         string
	StartMS      int64
	EndMS        int64
}

// MergedSegment pairs a caption Utterance with a DiarizedUtterance.
type MergedSegment struct {
	ID              int
	SpeakerLabel    string
	SpeakerName     string
	Text            string
	StartTimestamp  string
	EndTimestamp    string
	DurationSeconds float64
}

// CaptionTrackerState is per-speaker transient state held only inside the
// Caption Scraper.
type CaptionTrackerState struct {
	CurrentText        string
	LastChangeMonotonic time.Time
	Finalized           bool
	LastFinalizedText   string
}

// NoteItem is one topical note in a MeetingSummary.
type NoteItem struct {
	Topic string   `json:"topic"`
	Start string   `json:"start"`
	End   string   `json:"end"`
	Items []string `json:"items"`
}

// ActionItem is one action item in a MeetingSummary.
type ActionItem struct {
	Assignee string   `json:"assignee,omitempty"`
	Items    []string `json:"items"`
}

// MeetingSummary is strictly a tree; no cross-references.
type MeetingSummary struct {
	Overview    string       `json:"overview"`
	Notes       []NoteItem   `json:"notes"`
	ActionItems []ActionItem `json:"action_items"`
}

// SpeakerStat is the per-speaker talk-time and word-count statistics.
type SpeakerStat struct {
	Segments           int
	TotalDuration       float64
	TotalWords          int
	TotalCharacters     int
	PercentageOfTime    float64
	AvgSegmentDuration  float64
}

// MeetingRecord is the boundary object handed to external persistence.
type MeetingRecord struct {
	MeetingID    string
	MeetingURL   string
	UserID       string
	Participants []string
	StartTime    time.Time
	Transcript   []DiarizedUtterance
	Captions     []Utterance
	Merged       []MergedSegment
	Stats        map[string]SpeakerStat
	Summary      MeetingSummary
	AudioBlobKey string
	Status       Kind
	FieldErrors  map[string]string
}

// JobInput is the payload that starts one meeting capture job.
type JobInput struct {
	MeetURL           string
	GuestName         string
	UserID            string
	MeetKey           string
	RecordingBudget   time.Duration
}

// TextChunk is one overlapping window handed to the Vector Indexer.
type TextChunk struct {
	Index int
	Text  string
}

// --- external collaborator ports ---

type ASRProvider interface {
	Transcribe(ctx context.Context, audioPath string) ([]DiarizedUtterance, error)
}

type LLMProvider interface {
	Complete(ctx context.Context, prompt string) (string, error)
	CompleteGrounded(ctx context.Context, prompt string) (string, error)
	CompleteStructured(ctx context.Context, prompt string, out interface{}) error
	Name() string
}

type EmbeddingProvider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type TTSStreamProvider interface {
	StreamSynthesize(ctx context.Context, text string, onChunk func([]byte) error) error
	Abort() error
	Name() string
}

type VectorStore interface {
	Upsert(ctx context.Context, meetingID string, chunks []TextChunk, embed EmbeddingProvider) error
}

type BlobStore interface {
	Upload(ctx context.Context, localPath, key string) (string, error)
	Presign(ctx context.Context, key string, ttl time.Duration) (string, error)
}

type MeetingStore interface {
	SaveMeeting(ctx context.Context, record *MeetingRecord) error
}
