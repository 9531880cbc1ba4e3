package quranapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/murattal/recite/internal/domain"
)

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// GetReciters lists the available chapter reciters
func (c *Client) GetReciters(ctx context.Context) ([]domain.Reciter, error) {
	url := fmt.Sprintf("%s/resources/chapter_reciters", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	var result struct {
		Reciters []reciterResponse `json:"reciters"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	reciters := make([]domain.Reciter, len(result.Reciters))
	for i, r := range result.Reciters {
		reciters[i] = domain.Reciter{
			ID:         r.ID,
			Name:       r.Name,
			ArabicName: r.ArabicName,
		}
	}

	return reciters, nil
}

// GetChapterAudio fetches the stream URL and verse-timing index for one
// (reciter, chapter) pairing
func (c *Client) GetChapterAudio(ctx context.Context, reciterID, chapterID int) (*domain.ChapterAudioFile, error) {
	url := fmt.Sprintf("%s/chapter_recitations/%d/%d?segments=true", c.baseURL, reciterID, chapterID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("reciter %d chapter %d: %w", reciterID, chapterID, domain.ErrChapterNotAvailable)
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	var result struct {
		AudioFile audioFileResponse `json:"audio_file"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if result.AudioFile.AudioURL == "" {
		return nil, fmt.Errorf("reciter %d chapter %d: %w", reciterID, chapterID, domain.ErrChapterNotAvailable)
	}

	return mapAudioFile(reciterID, chapterID, &result.AudioFile), nil
}

type reciterResponse struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	ArabicName string `json:"arabic_name"`
}

type audioFileResponse struct {
	AudioURL     string                `json:"audio_url"`
	Duration     int64                 `json:"duration"`
	VerseTimings []verseTimingResponse `json:"verse_timings"`
}

type verseTimingResponse struct {
	VerseKey      string    `json:"verse_key"`
	TimestampFrom int64     `json:"timestamp_from"`
	TimestampTo   int64     `json:"timestamp_to"`
	Segments      [][]int64 `json:"segments"` // [word_position, start_ms, end_ms]
}

func mapAudioFile(reciterID, chapterID int, a *audioFileResponse) *domain.ChapterAudioFile {
	file := &domain.ChapterAudioFile{
		ReciterID:    reciterID,
		ChapterID:    chapterID,
		AudioURL:     a.AudioURL,
		DurationMs:   a.Duration,
		VerseTimings: make([]domain.VerseTiming, len(a.VerseTimings)),
	}

	for i, vt := range a.VerseTimings {
		timing := domain.VerseTiming{
			VerseKey:      vt.VerseKey,
			TimestampFrom: vt.TimestampFrom,
			TimestampTo:   vt.TimestampTo,
		}
		for _, seg := range vt.Segments {
			// Malformed segment triples are skipped rather than failing the
			// whole fetch; the upstream index is known to be approximate.
			if len(seg) < 3 {
				continue
			}
			timing.Segments = append(timing.Segments, domain.WordSegment{
				Position: int(seg[0]),
				FromMs:   seg[1],
				ToMs:     seg[2],
			})
		}
		file.VerseTimings[i] = timing
	}

	return file
}
