package domain

// Reciter identifies one narrator of chapter recordings.
type Reciter struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	ArabicName string `json:"arabic_name"`
}

// WordSegment gives per-word timing within a verse.
// Position is 1-based; FromMs/ToMs are millisecond offsets into the stream.
type WordSegment struct {
	Position int   `json:"position"`
	FromMs   int64 `json:"from_ms"`
	ToMs     int64 `json:"to_ms"`
}

// VerseTiming bounds one verse's recitation within the audio stream.
// Entries are ordered by ascending TimestampFrom; segments by ascending FromMs.
// Upstream timestamps systematically run early relative to the true audio
// content, which the playback engine compensates for with tuned buffers.
type VerseTiming struct {
	VerseKey      string        `json:"verse_key"` // "chapter:verse", e.g. "2:255"
	TimestampFrom int64         `json:"timestamp_from"`
	TimestampTo   int64         `json:"timestamp_to"`
	Segments      []WordSegment `json:"segments"`
}

// ChapterAudioFile is the metadata for one (chapter, reciter) pairing.
// Immutable once fetched; replaced wholesale on chapter or reciter change.
type ChapterAudioFile struct {
	ReciterID    int           `json:"reciter_id"`
	ChapterID    int           `json:"chapter_id"`
	AudioURL     string        `json:"audio_url"`
	DurationMs   int64         `json:"duration_ms"`
	VerseTimings []VerseTiming `json:"verse_timings"`
}

// TimingFor returns the timing entry for the given verse number, or nil.
func (f *ChapterAudioFile) TimingFor(verse int) *VerseTiming {
	key := VerseKey(f.ChapterID, verse)
	for i := range f.VerseTimings {
		if f.VerseTimings[i].VerseKey == key {
			return &f.VerseTimings[i]
		}
	}
	return nil
}

// PlaybackState represents the coarse lifecycle of a playback session.
type PlaybackState string

const (
	StateIdle    PlaybackState = "idle"    // nothing loaded
	StateLoading PlaybackState = "loading" // fetch + resource open in flight
	StatePlaying PlaybackState = "playing" // resource open, sample loop active
	StatePaused  PlaybackState = "paused"  // resource open, sample loop stopped
	StateError   PlaybackState = "error"   // load or playback failed, needs explicit clear
)

// IsActive reports whether a resource is open.
func (s PlaybackState) IsActive() bool {
	return s == StatePlaying || s == StatePaused
}

// HighlightState is the derived verse/word highlight for one position sample.
// Recomputed fully on every tick; never persisted.
type HighlightState struct {
	CurrentVerseKey     string // empty when position falls outside all verses
	CurrentWordPosition int    // 0 when no word is current
	CompletedVerseKeys  map[string]struct{}
}

// NewHighlightState returns an empty highlight state.
func NewHighlightState() HighlightState {
	return HighlightState{CompletedVerseKeys: make(map[string]struct{})}
}

// Clone returns an independent copy, safe to hand to the presentation layer.
func (h HighlightState) Clone() HighlightState {
	c := HighlightState{
		CurrentVerseKey:     h.CurrentVerseKey,
		CurrentWordPosition: h.CurrentWordPosition,
		CompletedVerseKeys:  make(map[string]struct{}, len(h.CompletedVerseKeys)),
	}
	for k := range h.CompletedVerseKeys {
		c.CompletedVerseKeys[k] = struct{}{}
	}
	return c
}

// VerseRange bounds playback to a subset of the chapter.
// Zero values mean the whole chapter plays.
type VerseRange struct {
	StartVerse int
	EndVerse   int
}

// IsSet reports whether any bound is active.
func (r VerseRange) IsSet() bool {
	return r.StartVerse > 0 || r.EndVerse > 0
}

// LoopSettings controls repeat iterations of the active range.
// A zero LoopCount with IsInfinite false means "play once".
type LoopSettings struct {
	LoopCount        int
	IsInfinite       bool
	CurrentIteration int
}

// ShouldContinue reports whether another iteration should start after the
// current one finishes.
func (l LoopSettings) ShouldContinue() bool {
	if l.IsInfinite {
		return true
	}
	return l.LoopCount > 0 && l.CurrentIteration < l.LoopCount
}

// Language represents supported languages.
type Language string

const (
	LangEnglish Language = "en"
	LangArabic  Language = "ar"
	LangRussian Language = "ru"
)
