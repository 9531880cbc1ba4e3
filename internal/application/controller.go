// Package application implements the synchronized recitation playback
// engine: a controller that streams chapter audio, tracks position against
// the verse-timing index for live highlighting, and supports bounded
// verse-range playback with looping.
package application

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/murattal/recite/internal/domain"
	"github.com/sirupsen/logrus"
)

// Tuning holds the timing compensation values of the engine. They are tuned
// against the upstream timestamp provider; see config defaults.
type Tuning struct {
	HighlightDelayMs   int64
	RangeStartBufferMs int64
	RangeEndBufferMs   int64
	RestartGuardMs     int64
	PollInterval       time.Duration
	PreferredReciter   string
}

// DefaultTuning returns the values tuned against the default provider.
func DefaultTuning() Tuning {
	return Tuning{
		HighlightDelayMs:   200,
		RangeStartBufferMs: 250,
		RangeEndBufferMs:   200,
		RestartGuardMs:     500,
		PollInterval:       100 * time.Millisecond,
		PreferredReciter:   "Alafasy",
	}
}

// Controller owns the one open audio resource and the playback lifecycle.
// All mutable state is confined behind the mutex; the sample-loop goroutine
// and the resource status callback both read the latest values through it
// rather than capturing them at registration time.
type Controller struct {
	catalog domain.RecitationCatalogPort
	source  domain.AudioSourcePort
	i18n    domain.I18nPort
	lang    domain.Language
	tuning  Tuning

	mu sync.Mutex

	state      domain.PlaybackState
	chapterID  int
	audioFile  *domain.ChapterAudioFile
	resource   domain.AudioResource
	positionMs int64
	durationMs int64
	highlight  domain.HighlightState
	errMsg     string

	reciters        []domain.Reciter
	selected        *domain.Reciter
	loadingReciters bool

	verseRange domain.VerseRange
	loop       domain.LoopSettings

	loading       bool  // single-flight chapter load
	startOffsetMs int64 // cached effective start offset, -1 when not computed
	isRestarting  bool
	lastRestart   time.Time

	stopPoll chan struct{}
}

// NewController creates an engine instance. Hosts construct one controller
// per playback surface; nothing here is process-global.
func NewController(catalog domain.RecitationCatalogPort, source domain.AudioSourcePort, i18n domain.I18nPort, lang domain.Language, tuning Tuning) *Controller {
	return &Controller{
		catalog:       catalog,
		source:        source,
		i18n:          i18n,
		lang:          lang,
		tuning:        tuning,
		state:         domain.StateIdle,
		highlight:     domain.NewHighlightState(),
		startOffsetMs: -1,
	}
}

// Snapshot is the read-only observable state handed to the host.
type Snapshot struct {
	State             domain.PlaybackState
	ChapterID         int
	AudioFile         *domain.ChapterAudioFile
	PositionMs        int64
	DurationMs        int64
	Highlight         domain.HighlightState
	ErrorMessage      string
	Reciters          []domain.Reciter
	SelectedReciter   *domain.Reciter
	IsLoadingReciters bool
	VerseRange        domain.VerseRange
	LoopSettings      domain.LoopSettings
}

// Snapshot returns a consistent copy of the observable state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{
		State:             c.state,
		ChapterID:         c.chapterID,
		AudioFile:         c.audioFile,
		PositionMs:        c.positionMs,
		DurationMs:        c.durationMs,
		Highlight:         c.highlight.Clone(),
		ErrorMessage:      c.errMsg,
		Reciters:          append([]domain.Reciter(nil), c.reciters...),
		IsLoadingReciters: c.loadingReciters,
		VerseRange:        c.verseRange,
		LoopSettings:      c.loop,
	}
	if c.selected != nil {
		sel := *c.selected
		snap.SelectedReciter = &sel
	}
	return snap
}

// LoadChapter fetches the audio metadata for the selected reciter and the
// given chapter and opens it paused. Loads are single-flight: a call made
// while another is in progress is dropped silently. Loading the chapter
// that is already open is a no-op.
func (c *Controller) LoadChapter(ctx context.Context, chapterID int) {
	c.mu.Lock()
	if c.loading {
		c.mu.Unlock()
		logrus.WithField("chapter", chapterID).Debug("chapter load already in flight, dropping request")
		return
	}
	if c.selected == nil {
		logrus.WithError(domain.ErrNoReciterSelected).WithField("chapter", chapterID).Warn("chapter load rejected")
		c.state = domain.StateError
		c.errMsg = c.i18n.Get(c.lang, "error.no_reciter")
		c.mu.Unlock()
		return
	}
	if c.chapterID == chapterID && c.resource != nil {
		c.mu.Unlock()
		return
	}

	c.loading = true
	old := c.resource
	c.resource = nil
	c.stopPollLocked()
	c.state = domain.StateLoading
	c.chapterID = chapterID
	c.audioFile = nil
	c.positionMs = 0
	c.durationMs = 0
	c.highlight = domain.NewHighlightState()
	c.errMsg = ""
	c.startOffsetMs = -1
	c.isRestarting = false
	reciterID := c.selected.ID
	c.mu.Unlock()

	if old != nil {
		_ = old.Unload()
	}

	file, err := c.catalog.GetChapterAudio(ctx, reciterID, chapterID)
	if err != nil {
		c.failLoad(reciterID, chapterID, err)
		return
	}

	res, err := c.source.Open(ctx, file.AudioURL, 0)
	if err != nil {
		c.failLoad(reciterID, chapterID, err)
		return
	}

	dur, err := res.Duration()
	if err != nil {
		_ = res.Unload()
		c.failLoad(reciterID, chapterID, err)
		return
	}

	res.OnUpdate(c.onStatusUpdate)

	c.mu.Lock()
	c.resource = res
	c.audioFile = file
	c.durationMs = dur
	c.state = domain.StatePaused
	c.loading = false
	c.mu.Unlock()
}

func (c *Controller) failLoad(reciterID, chapterID int, err error) {
	logrus.WithError(err).WithFields(logrus.Fields{
		"reciter": reciterID,
		"chapter": chapterID,
	}).Error("chapter load failed")

	key := "error.load_failed"
	if errors.Is(err, domain.ErrChapterNotAvailable) {
		key = "error.chapter_not_available"
	}

	c.mu.Lock()
	c.loading = false
	c.state = domain.StateError
	c.errMsg = c.i18n.Get(c.lang, key)
	c.mu.Unlock()
}

// Play starts playback. When a verse range with a start verse is active the
// resource is reloaded positioned at the effective start offset, so the
// first play and every loop iteration begin from identical conditions.
func (c *Controller) Play(ctx context.Context) {
	c.mu.Lock()
	if c.resource == nil || c.state == domain.StateError {
		if c.resource == nil {
			logrus.WithError(domain.ErrNoAudioLoaded).Debug("play ignored")
		}
		c.mu.Unlock()
		return
	}

	if c.verseRange.StartVerse > 0 && c.audioFile != nil {
		offset := c.startOffsetLocked()
		url := c.audioFile.AudioURL
		old := c.resource
		c.resource = nil
		c.stopPollLocked()
		c.mu.Unlock()

		_ = old.Unload()

		res, err := c.source.Open(ctx, url, offset)
		if err != nil {
			c.failPlay(err)
			return
		}
		res.OnUpdate(c.onStatusUpdate)

		c.mu.Lock()
		c.resource = res
		c.positionMs = offset
		c.highlight = domain.NewHighlightState()
	}

	res := c.resource
	c.mu.Unlock()

	if err := res.Play(); err != nil {
		c.failPlay(err)
		return
	}

	c.mu.Lock()
	c.state = domain.StatePlaying
	c.startPollLocked()
	c.mu.Unlock()
}

func (c *Controller) failPlay(err error) {
	logrus.WithError(err).Error("playback failed")

	c.mu.Lock()
	c.state = domain.StateError
	c.errMsg = c.i18n.Get(c.lang, "error.playback_failed")
	c.mu.Unlock()
}

// Pause suspends playback and the sample loop. A failed pause is logged and
// ignored; it is less disruptive than a failed play.
func (c *Controller) Pause() {
	c.mu.Lock()
	res := c.resource
	if res == nil {
		c.mu.Unlock()
		return
	}
	c.stopPollLocked()
	c.state = domain.StatePaused
	c.mu.Unlock()

	if err := res.Pause(); err != nil {
		logrus.WithError(err).Warn("pause failed")
	}
}

// SeekTo repositions playback and recomputes the highlight immediately
// rather than waiting for the next sample tick.
func (c *Controller) SeekTo(positionMs int64) {
	c.mu.Lock()
	res := c.resource
	c.mu.Unlock()
	if res == nil {
		return
	}

	if err := res.Seek(positionMs); err != nil {
		logrus.WithError(err).Warn("seek failed")
		return
	}

	c.mu.Lock()
	if c.resource == res {
		c.positionMs = positionMs
		if c.audioFile != nil {
			c.highlight = resolveHighlight(c.audioFile.VerseTimings, positionMs, c.tuning.HighlightDelayMs)
		}
	}
	c.mu.Unlock()
}

// Reset tears down the session back to idle. Safe to call when already
// idle. The selected reciter and the playback settings survive; only
// ResetPlaybackSettings and SelectReciter clear those.
func (c *Controller) Reset() {
	c.mu.Lock()
	c.stopPollLocked()
	old := c.resource
	c.resource = nil
	c.state = domain.StateIdle
	c.chapterID = 0
	c.audioFile = nil
	c.positionMs = 0
	c.durationMs = 0
	c.highlight = domain.NewHighlightState()
	c.errMsg = ""
	c.loading = false
	c.startOffsetMs = -1
	c.isRestarting = false
	c.mu.Unlock()

	if old != nil {
		_ = old.Unload()
	}
}

// ClearError acknowledges an error state. With a resource still open the
// session returns to paused, otherwise to idle.
func (c *Controller) ClearError() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != domain.StateError {
		return
	}
	c.errMsg = ""
	if c.resource != nil {
		c.state = domain.StatePaused
	} else {
		c.state = domain.StateIdle
	}
}

// startPollLocked starts the sample loop for the current resource. The loop
// gives highlighting sub-second granularity independent of the resource's
// own status callback cadence.
func (c *Controller) startPollLocked() {
	if c.stopPoll != nil {
		return
	}
	stop := make(chan struct{})
	c.stopPoll = stop
	go c.pollLoop(c.resource, stop)
}

func (c *Controller) stopPollLocked() {
	if c.stopPoll != nil {
		close(c.stopPoll)
		c.stopPoll = nil
	}
}

func (c *Controller) pollLoop(res domain.AudioResource, stop <-chan struct{}) {
	ticker := time.NewTicker(c.tuning.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		pos, err := res.Position()
		if err != nil {
			continue
		}

		c.mu.Lock()
		// A stale loop can tick once after a reload or settle; only the
		// loop bound to the live, still-playing resource may update state.
		if c.resource == res && c.state == domain.StatePlaying {
			c.positionMs = pos
			if c.audioFile != nil {
				c.highlight = resolveHighlight(c.audioFile.VerseTimings, pos, c.tuning.HighlightDelayMs)
			}
		}
		c.mu.Unlock()
	}
}
