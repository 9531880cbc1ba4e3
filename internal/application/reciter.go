package application

import (
	"context"
	"strings"

	"github.com/murattal/recite/internal/domain"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
)

// LoadReciters fetches the reciter list. If no reciter is selected yet, a
// default is picked: the first whose name contains the configured preferred
// substring, else the first entry.
func (c *Controller) LoadReciters(ctx context.Context) {
	c.mu.Lock()
	if c.loadingReciters {
		c.mu.Unlock()
		return
	}
	c.loadingReciters = true
	c.mu.Unlock()

	reciters, err := c.catalog.GetReciters(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.loadingReciters = false

	if err != nil {
		logrus.WithError(err).Error("load reciters failed")
		c.errMsg = c.i18n.Get(c.lang, "error.reciters_failed")
		// An active playback session is not torn down over a list refresh
		// failure.
		if !c.state.IsActive() {
			c.state = domain.StateError
		}
		return
	}

	c.reciters = reciters
	if c.selected == nil && len(reciters) > 0 {
		r := defaultReciter(reciters, c.tuning.PreferredReciter)
		c.selected = &r
	}
}

func defaultReciter(reciters []domain.Reciter, preferred string) domain.Reciter {
	if preferred != "" {
		needle := strings.ToLower(preferred)
		if r, ok := lo.Find(reciters, func(r domain.Reciter) bool {
			return strings.Contains(strings.ToLower(r.Name), needle)
		}); ok {
			return r
		}
	}
	return reciters[0]
}

// SelectReciter tears down the current session and sets the new reciter.
// It deliberately does not reload a chapter: the host's own effect calls
// LoadChapter once it observes the change, which keeps reciter selection
// decoupled from whether a chapter is currently open.
func (c *Controller) SelectReciter(r domain.Reciter) {
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
	sel := r
	c.selected = &sel
	c.mu.Unlock()

	if old != nil {
		_ = old.Unload()
	}
}
