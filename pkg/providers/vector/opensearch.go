// Package vector splits transcript text into overlapping windows, embeds
// each, and upserts into a remote k-NN-enabled collection idempotently per
// (meeting_id, chunk_index).
package vector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/opensearch-project/opensearch-go/v2"

	"github.com/lokutor-ai/meetscribe/pkg/meeting"
	"github.com/lokutor-ai/meetscribe/pkg/summarizer"
)

const (
	indexChunkSize    = 1000
	indexChunkOverlap = 200
)

// Store upserts transcript chunk embeddings into a named OpenSearch index.
type Store struct {
	client    *opensearch.Client
	indexName string
}

func NewStore(client *opensearch.Client, indexName string) *Store {
	return &Store{client: client, indexName: indexName}
}

type indexedChunk struct {
	MeetingID  string    `json:"meeting_id"`
	ChunkIndex int       `json:"chunk_index"`
	Text       string    `json:"text"`
	Embedding  []float32 `json:"embedding"`
}

// Upsert embeds each chunk and indexes it with a deterministic document id
// "<meetingID>:<chunkIndex>" so re-indexing replaces rather than duplicates.
func (s *Store) Upsert(ctx context.Context, meetingID string, chunks []meeting.TextChunk, embed meeting.EmbeddingProvider) error {
	for _, c := range chunks {
		vec, err := embed.Embed(ctx, c.Text)
		if err != nil {
			return meeting.NewJobError(meeting.KindIndexingFailed, fmt.Errorf("embed chunk %d: %w", c.Index, err))
		}

		doc := indexedChunk{MeetingID: meetingID, ChunkIndex: c.Index, Text: c.Text, Embedding: vec}
		body, err := json.Marshal(doc)
		if err != nil {
			return meeting.NewJobError(meeting.KindIndexingFailed, err)
		}

		docID := fmt.Sprintf("%s:%d", meetingID, c.Index)
		req := opensearch.IndexRequest{
			Index:      s.indexName,
			DocumentID: docID,
			Body:       bytes.NewReader(body),
		}
		resp, err := req.Do(ctx, s.client)
		if err != nil {
			return meeting.NewJobError(meeting.KindIndexingFailed, fmt.Errorf("index chunk %d: %w", c.Index, err))
		}
		defer resp.Body.Close()
		if resp.IsError() {
			return meeting.NewJobError(meeting.KindIndexingFailed, fmt.Errorf("opensearch index error: %s", resp.String()))
		}
	}
	return nil
}

// ChunkTranscript splits transcript text into the 1000/200 overlapping
// windows the indexer uses (distinct from the summarizer's 1000/100).
func ChunkTranscript(transcript string) []meeting.TextChunk {
	pieces := summarizer.Chunk(transcript, indexChunkSize, indexChunkOverlap)
	chunks := make([]meeting.TextChunk, len(pieces))
	for i, p := range pieces {
		chunks[i] = meeting.TextChunk{Index: i, Text: p}
	}
	return chunks
}
