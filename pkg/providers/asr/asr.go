// Package asr submits a recorded audio file to a remote diarizing
// transcription endpoint and returns an ordered list of DiarizedUtterances.
package asr

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"encoding/json"

	"github.com/lokutor-ai/meetscribe/pkg/meeting"
)

// Client is a raw-HTTP diarizing ASR client.
type Client struct {
	apiKey string
	url    string
	client *http.Client
}

func NewClient(apiKey string) *Client {
	return &Client{
		apiKey: apiKey,
		url:    "https://api.deepgram.com/v1/listen",
		client: http.DefaultClient,
	}
}

type transcriptResponse struct {
	Results struct {
		Channels []struct {
			Alternatives []struct {
				Transcript string `json:"transcript"`
				Words      []struct {
					Word    string  `json:"word"`
					Start   float64 `json:"start"`
					End     float64 `json:"end"`
					Speaker int     `json:"speaker"`
				} `json:"words"`
			} `json:"alternatives"`
		} `json:"channels"`
	} `json:"results"`
}

// Transcribe uploads the audio file at audioPath and returns an ordered,
// speaker-merged list of DiarizedUtterances.
func (c *Client) Transcribe(ctx context.Context, audioPath string) ([]meeting.DiarizedUtterance, error) {
	f, err := os.Open(audioPath)
	if err != nil {
		return nil, meeting.NewJobError(meeting.KindTranscriptionFailed, fmt.Errorf("open audio file: %w", err))
	}
	defer f.Close()

	u, err := url.Parse(c.url)
	if err != nil {
		return nil, meeting.NewJobError(meeting.KindTranscriptionFailed, err)
	}
	params := u.Query()
	params.Set("model", "nova-2")
	params.Set("smart_format", "true")
	params.Set("punctuate", "true")
	params.Set("diarize", "true")
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), f)
	if err != nil {
		return nil, meeting.NewJobError(meeting.KindTranscriptionFailed, err)
	}
	req.Header.Set("Authorization", "Token "+c.apiKey)
	req.Header.Set("Content-Type", "audio/wav")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, meeting.NewJobError(meeting.KindTranscriptionFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, meeting.NewJobError(meeting.KindTranscriptionFailed, fmt.Errorf("asr error (status %d): %s", resp.StatusCode, body))
	}

	var parsed transcriptResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, meeting.NewJobError(meeting.KindTranscriptionFailed, fmt.Errorf("decode asr response: %w", err))
	}

	if len(parsed.Results.Channels) == 0 || len(parsed.Results.Channels[0].Alternatives) == 0 {
		return nil, nil
	}

	words := parsed.Results.Channels[0].Alternatives[0].Words
	return MergeBySpeaker(wordsToUtterances(words)), nil
}

func wordsToUtterances(words []struct {
	Word    string  `json:"word"`
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Speaker int     `json:"speaker"`
}) []meeting.DiarizedUtterance {
	var out []meeting.DiarizedUtterance
	for _, w := range words {
		out = append(out, meeting.DiarizedUtterance{
			SpeakerLabel: fmt.Sprintf("spk_%d", w.Speaker),
			Text:         w.Word,
			StartMS:      int64(w.Start * 1000),
			EndMS:        int64(w.End * 1000),
		})
	}
	return out
}

// MergeBySpeaker merges consecutive utterances sharing a speaker label: end
// advances, text concatenated with a single space.
func MergeBySpeaker(utts []meeting.DiarizedUtterance) []meeting.DiarizedUtterance {
	var out []meeting.DiarizedUtterance
	for _, u := range utts {
		if n := len(out); n > 0 && out[n-1].SpeakerLabel == u.SpeakerLabel {
			out[n-1].Text = strings.TrimSpace(out[n-1].Text + " " + u.Text)
			out[n-1].EndMS = u.EndMS
			continue
		}
		out = append(out, u)
	}
	return out
}
