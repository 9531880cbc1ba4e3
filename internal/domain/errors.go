package domain

import "errors"

var (
	// ErrChapterNotAvailable is returned when the selected reciter has no
	// recording for the requested chapter. Distinguished from generic fetch
	// failures so the engine can surface a more specific message.
	ErrChapterNotAvailable = errors.New("chapter not available for reciter")

	// ErrNoReciterSelected is returned when a chapter load is requested
	// before any reciter has been selected.
	ErrNoReciterSelected = errors.New("no reciter selected")

	// ErrNoAudioLoaded is returned by commands that require an open resource.
	ErrNoAudioLoaded = errors.New("no audio loaded")

	// ErrInvalidVerseRange is returned when a requested range does not fit
	// the loaded chapter.
	ErrInvalidVerseRange = errors.New("invalid verse range")
)
