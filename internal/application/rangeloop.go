package application

import (
	"context"
	"time"

	"github.com/murattal/recite/internal/domain"
	"github.com/sirupsen/logrus"
)

// SetVerseRange bounds playback to [start, end]. Validated against the
// loaded chapter's verse count when one is known. Takes effect on the next
// Play; it does not reload audio by itself.
func (c *Controller) SetVerseRange(start, end int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if start < 0 || end < 0 || (start > 0 && end > 0 && end < start) {
		return domain.ErrInvalidVerseRange
	}
	if c.chapterID > 0 {
		if ch := domain.ChapterByNumber(c.chapterID); ch != nil && (start > ch.Verses || end > ch.Verses) {
			return domain.ErrInvalidVerseRange
		}
	}

	c.verseRange = domain.VerseRange{StartVerse: start, EndVerse: end}
	c.startOffsetMs = -1
	return nil
}

// ClearVerseRange removes the range bounds; the whole chapter plays on the
// next Play.
func (c *Controller) ClearVerseRange() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.verseRange = domain.VerseRange{}
	c.startOffsetMs = -1
}

// SetLoopSettings configures repeats of the active range. The iteration
// counter resets to 1 whenever the settings are (re)configured.
func (c *Controller) SetLoopSettings(count int, infinite bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loop = domain.LoopSettings{LoopCount: count, IsInfinite: infinite, CurrentIteration: 1}
}

// ClearLoopSettings returns to play-once behavior.
func (c *Controller) ClearLoopSettings() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loop = domain.LoopSettings{}
}

// ResetPlaybackSettings clears both the verse range and the loop settings.
// Hosts call this when navigating away from a chapter.
func (c *Controller) ResetPlaybackSettings() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.verseRange = domain.VerseRange{}
	c.loop = domain.LoopSettings{}
	c.startOffsetMs = -1
}

// startOffsetLocked returns the effective start offset for the active
// range, computing and caching it on first use so every loop iteration
// starts from exactly the same point.
func (c *Controller) startOffsetLocked() int64 {
	if c.startOffsetMs >= 0 {
		return c.startOffsetMs
	}
	c.startOffsetMs = computeStartOffset(c.audioFile, c.verseRange.StartVerse, c.tuning.RangeStartBufferMs)
	return c.startOffsetMs
}

// computeStartOffset derives where playback of startVerse should begin.
// For verses past the first, the previous verse's end plus a small buffer
// is more reliable than the verse's own timestamp_from: upstream start
// timestamps run early, causing bleed from the preceding verse.
func computeStartOffset(file *domain.ChapterAudioFile, startVerse int, bufferMs int64) int64 {
	if file == nil || startVerse <= 0 {
		return 0
	}
	if startVerse == 1 {
		if t := file.TimingFor(1); t != nil {
			return t.TimestampFrom
		}
		return 0
	}
	if prev := file.TimingFor(startVerse - 1); prev != nil {
		return prev.TimestampTo + bufferMs
	}
	if t := file.TimingFor(startVerse); t != nil {
		return t.TimestampFrom
	}
	return 0
}

// onStatusUpdate is the resource's per-update callback. It detects the end
// of the active verse range a little before the end verse's timestamp_to so
// playback stops before the audio bleeds into the next verse, and funnels
// both that and natural end-of-stream into finishPlayback.
func (c *Controller) onStatusUpdate(u domain.StatusUpdate) {
	c.mu.Lock()

	if c.state != domain.StatePlaying || c.resource == nil {
		c.mu.Unlock()
		return
	}

	// Re-entrancy guard: a stale update from the previous iteration and the
	// freshly attached callback can both report the same boundary right
	// after a restart.
	if c.isRestarting || time.Since(c.lastRestart) < time.Duration(c.tuning.RestartGuardMs)*time.Millisecond {
		c.mu.Unlock()
		return
	}

	finished := u.DidJustFinish
	if !finished && u.IsLoaded && c.verseRange.EndVerse > 0 && c.audioFile != nil {
		if t := c.audioFile.TimingFor(c.verseRange.EndVerse); t != nil {
			if u.PositionMs >= t.TimestampTo-c.tuning.RangeEndBufferMs {
				finished = true
			}
		}
	}

	if !finished {
		c.mu.Unlock()
		return
	}

	c.isRestarting = true
	c.mu.Unlock()

	c.finishPlayback()
}

// finishPlayback handles a finished iteration: either restart for the next
// loop iteration or settle paused at the range start.
func (c *Controller) finishPlayback() {
	c.mu.Lock()

	if c.loop.ShouldContinue() {
		if !c.loop.IsInfinite {
			c.loop.CurrentIteration++
		}
		c.restartFromStartOffset()
		return
	}

	// Looping exhausted (or never requested): come to rest at the range
	// start so the user can replay the same range.
	offset := c.startOffsetLocked()
	res := c.resource
	c.highlight = domain.NewHighlightState()
	c.positionMs = offset
	c.state = domain.StatePaused
	c.stopPollLocked()
	c.isRestarting = false
	c.mu.Unlock()

	if res != nil {
		if err := res.Pause(); err != nil {
			logrus.WithError(err).Warn("pause at finish failed")
		}
		if err := res.Seek(offset); err != nil {
			logrus.WithError(err).Warn("seek to range start failed")
		}
	}
}

// restartFromStartOffset fully releases and reopens the resource at the
// cached start offset. A plain seek was not enough in practice: residual
// decode buffer from the previous iteration bled audible fragments of the
// adjacent verse into the restart. Called with the lock held; releases it.
func (c *Controller) restartFromStartOffset() {
	offset := c.startOffsetLocked()
	var url string
	if c.audioFile != nil {
		url = c.audioFile.AudioURL
	}
	old := c.resource
	c.resource = nil
	c.stopPollLocked()
	c.highlight = domain.NewHighlightState()
	iteration := c.loop.CurrentIteration
	c.mu.Unlock()

	if old != nil {
		_ = old.Unload()
	}

	logrus.WithFields(logrus.Fields{
		"iteration": iteration,
		"offset_ms": offset,
	}).Debug("restarting loop iteration")

	res, err := c.source.Open(context.Background(), url, offset)
	if err != nil {
		c.mu.Lock()
		c.isRestarting = false
		c.mu.Unlock()
		c.failPlay(err)
		return
	}
	res.OnUpdate(c.onStatusUpdate)

	if err := res.Play(); err != nil {
		_ = res.Unload()
		c.mu.Lock()
		c.isRestarting = false
		c.mu.Unlock()
		c.failPlay(err)
		return
	}

	c.mu.Lock()
	c.resource = res
	c.positionMs = offset
	c.lastRestart = time.Now()
	c.isRestarting = false
	c.startPollLocked()
	c.mu.Unlock()
}
