package domain

import "context"

// RecitationCatalogPort defines the interface for the upstream recitation
// content API.
type RecitationCatalogPort interface {
	// GetReciters lists the available reciters.
	GetReciters(ctx context.Context) ([]Reciter, error)

	// GetChapterAudio fetches the stream URL and verse-timing index for one
	// (reciter, chapter) pairing. Returns ErrChapterNotAvailable when the
	// reciter has no recording for the chapter.
	GetChapterAudio(ctx context.Context, reciterID, chapterID int) (*ChapterAudioFile, error)
}

// StatusUpdate is one playback-status sample delivered by an audio resource.
type StatusUpdate struct {
	PositionMs    int64
	IsLoaded      bool
	DidJustFinish bool
}

// AudioResource is one open playable stream. Implementations deliver
// StatusUpdate callbacks at their own cadence; the engine additionally polls
// Position for sub-second highlight granularity.
type AudioResource interface {
	// Play starts or resumes playback.
	Play() error

	// Pause suspends playback, keeping the stream open.
	Pause() error

	// Seek repositions playback to an absolute millisecond offset.
	Seek(positionMs int64) error

	// Position returns the current playback position in milliseconds.
	Position() (int64, error)

	// Duration returns the total stream duration in milliseconds.
	Duration() (int64, error)

	// OnUpdate registers the status callback. At most one callback is
	// active; registering replaces the previous one.
	OnUpdate(fn func(StatusUpdate))

	// Unload stops playback and releases the resource. Safe to call on an
	// already-released resource.
	Unload() error
}

// AudioSourcePort opens playable resources for stream URLs.
type AudioSourcePort interface {
	// Open prepares the URL for playback without auto-starting, positioned
	// at startMs (0 for the beginning).
	Open(ctx context.Context, url string, startMs int64) (AudioResource, error)
}

// I18nPort defines the interface for internationalization.
type I18nPort interface {
	// Get retrieves a translated message.
	Get(lang Language, key string, args ...interface{}) string
}
