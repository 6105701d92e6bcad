// Package summarizer chunks a transcript, summarizes each chunk freeform,
// then merges the chunk summaries into a single structured MeetingSummary.
package summarizer

import (
	"context"
	"fmt"
	"strings"

	"github.com/lokutor-ai/meetscribe/pkg/meeting"
)

const (
	chunkSize    = 1000
	chunkOverlap = 100
)

const chunkPromptTemplate = "Summarize this meeting transcript chunk, preserving timestamps and speaker names:\n\n%s"

const mergePromptTemplate = `Merge the following chunk summaries of a meeting into a single structured
summary with an overview, a list of topical notes (each with a topic, start
time, end time, and bullet items), and a list of action items (each with an
optional assignee and bullet items). Respond as JSON matching that shape.

Chunk summaries:
%s`

// Summarize produces a MeetingSummary for a full transcript text.
func Summarize(ctx context.Context, transcript string, llm meeting.LLMProvider) (meeting.MeetingSummary, error) {
	chunks := Chunk(transcript, chunkSize, chunkOverlap)

	chunkSummaries := make([]string, 0, len(chunks))
	for _, c := range chunks {
		summary, err := llm.Complete(ctx, fmt.Sprintf(chunkPromptTemplate, c))
		if err != nil {
			return meeting.MeetingSummary{}, meeting.NewJobError(meeting.KindSummarizationFailed, fmt.Errorf("summarize chunk: %w", err))
		}
		chunkSummaries = append(chunkSummaries, summary)
	}

	var out meeting.MeetingSummary
	prompt := fmt.Sprintf(mergePromptTemplate, strings.Join(chunkSummaries, "\n\n"))
	if err := llm.CompleteStructured(ctx, prompt, &out); err != nil {
		return meeting.MeetingSummary{}, meeting.NewJobError(meeting.KindSummarizationFailed, fmt.Errorf("merge summary: %w", err))
	}
	return out, nil
}
