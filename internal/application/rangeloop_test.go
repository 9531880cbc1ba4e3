package application

import (
	"context"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/murattal/recite/internal/domain"
)

func TestComputeStartOffset(t *testing.T) {
	Convey("Start offset computation", t, func() {
		file := &domain.ChapterAudioFile{
			ChapterID: 1,
			VerseTimings: []domain.VerseTiming{
				{VerseKey: "1:1", TimestampFrom: 100, TimestampTo: 1500},
				{VerseKey: "1:2", TimestampFrom: 1400, TimestampTo: 3000},
			},
		}

		Convey("The first verse starts at its own timestamp", func() {
			So(computeStartOffset(file, 1, 250), ShouldEqual, 100)
		})

		Convey("Later verses anchor to the previous verse's end plus the buffer", func() {
			// 1500 + 250, not verse 2's early timestamp_from of 1400.
			So(computeStartOffset(file, 2, 250), ShouldEqual, 1750)
		})

		Convey("A missing previous timing falls back to the verse's own start", func() {
			sparse := &domain.ChapterAudioFile{
				ChapterID: 1,
				VerseTimings: []domain.VerseTiming{
					{VerseKey: "1:3", TimestampFrom: 5000, TimestampTo: 7000},
				},
			}
			So(computeStartOffset(sparse, 3, 250), ShouldEqual, 5000)
		})

		Convey("No file or no start verse means the stream beginning", func() {
			So(computeStartOffset(nil, 2, 250), ShouldEqual, 0)
			So(computeStartOffset(file, 0, 250), ShouldEqual, 0)
		})
	})
}

func TestVerseRangeSettings(t *testing.T) {
	Convey("Verse range and loop settings", t, func() {
		c, _, src := newTestEngine()

		Convey("Rejects an inverted range", func() {
			So(c.SetVerseRange(5, 2), ShouldEqual, domain.ErrInvalidVerseRange)
		})

		Convey("Rejects a range beyond the chapter's verse count", func() {
			loadReady(c) // chapter 2 (Al-Baqarah, 286 verses)
			So(c.SetVerseRange(1, 287), ShouldEqual, domain.ErrInvalidVerseRange)
			So(c.SetVerseRange(280, 286), ShouldBeNil)
		})

		Convey("Setting a range does not reload audio by itself", func() {
			loadReady(c)
			So(c.SetVerseRange(2, 3), ShouldBeNil)
			So(src.openCount(), ShouldEqual, 1)
		})

		Convey("SetLoopSettings resets the iteration counter", func() {
			c.SetLoopSettings(5, false)
			So(c.Snapshot().LoopSettings.CurrentIteration, ShouldEqual, 1)
			c.SetLoopSettings(2, false)
			So(c.Snapshot().LoopSettings.CurrentIteration, ShouldEqual, 1)
		})

		Convey("ResetPlaybackSettings clears both", func() {
			So(c.SetVerseRange(2, 3), ShouldBeNil)
			c.SetLoopSettings(2, true)
			c.ResetPlaybackSettings()

			snap := c.Snapshot()
			So(snap.VerseRange.IsSet(), ShouldBeFalse)
			So(snap.LoopSettings.LoopCount, ShouldEqual, 0)
			So(snap.LoopSettings.IsInfinite, ShouldBeFalse)
		})
	})
}

func TestRangePlayback(t *testing.T) {
	Convey("Bounded range playback", t, func() {
		c, _, src := newTestEngine()
		loadReady(c)

		Convey("Play with a start verse reloads at the effective offset", func() {
			So(c.SetVerseRange(2, 3), ShouldBeNil)
			c.Play(context.Background())

			// Verse 2:1 ends at 2000; buffer 250.
			So(src.openCount(), ShouldEqual, 2)
			So(src.last().startMs, ShouldEqual, 2250)
			So(src.last().isPlaying(), ShouldBeTrue)
			So(c.Snapshot().State, ShouldEqual, domain.StatePlaying)
		})

		Convey("Reaching the end buffer settles playback at the range start", func() {
			So(c.SetVerseRange(2, 3), ShouldBeNil)
			c.Play(context.Background())
			res := src.last()

			// Verse 2:3 ends at 6000; end buffer 200.
			res.emit(domain.StatusUpdate{PositionMs: 5800, IsLoaded: true})

			snap := c.Snapshot()
			So(snap.State, ShouldEqual, domain.StatePaused)
			So(snap.PositionMs, ShouldEqual, 2250)
			So(snap.Highlight.CurrentVerseKey, ShouldBeEmpty)
			So(snap.Highlight.CompletedVerseKeys, ShouldBeEmpty)
			So(res.isPlaying(), ShouldBeFalse)
			pos, _ := res.Position()
			So(pos, ShouldEqual, 2250)
		})

		Convey("Positions short of the end buffer do not finish", func() {
			So(c.SetVerseRange(2, 3), ShouldBeNil)
			c.Play(context.Background())

			src.last().emit(domain.StatusUpdate{PositionMs: 5700, IsLoaded: true})

			So(c.Snapshot().State, ShouldEqual, domain.StatePlaying)
		})

		Convey("Natural end of stream settles without a range", func() {
			c.Play(context.Background())
			src.last().emit(domain.StatusUpdate{PositionMs: 6000, IsLoaded: true, DidJustFinish: true})

			snap := c.Snapshot()
			So(snap.State, ShouldEqual, domain.StatePaused)
			So(snap.PositionMs, ShouldEqual, 0)
		})
	})
}

func TestLooping(t *testing.T) {
	Convey("Loop iterations", t, func() {
		c, _, src := newTestEngine()
		loadReady(c)

		finish := domain.StatusUpdate{PositionMs: 5800, IsLoaded: true}
		guard := 60 * time.Millisecond // tuning guard is 50ms in tests

		Convey("A finite loop restarts N-1 times from the identical offset", func() {
			So(c.SetVerseRange(2, 3), ShouldBeNil)
			c.SetLoopSettings(3, false)
			c.Play(context.Background())
			So(src.last().startMs, ShouldEqual, 2250)

			src.last().emit(finish)
			So(c.Snapshot().LoopSettings.CurrentIteration, ShouldEqual, 2)
			So(src.openCount(), ShouldEqual, 3)
			So(src.last().startMs, ShouldEqual, 2250)
			So(src.last().isPlaying(), ShouldBeTrue)

			time.Sleep(guard)
			src.last().emit(finish)
			So(c.Snapshot().LoopSettings.CurrentIteration, ShouldEqual, 3)
			So(src.openCount(), ShouldEqual, 4)
			So(src.last().startMs, ShouldEqual, 2250)

			time.Sleep(guard)
			src.last().emit(finish)

			snap := c.Snapshot()
			So(snap.State, ShouldEqual, domain.StatePaused)
			So(snap.LoopSettings.CurrentIteration, ShouldEqual, 3)
			So(snap.PositionMs, ShouldEqual, 2250)
			So(src.openCount(), ShouldEqual, 4)
		})

		Convey("The restart guard absorbs a duplicate boundary report", func() {
			So(c.SetVerseRange(2, 3), ShouldBeNil)
			c.SetLoopSettings(2, false)
			c.Play(context.Background())

			src.last().emit(finish)
			So(src.openCount(), ShouldEqual, 3)

			// A stale update right after the restart must not re-fire.
			src.last().emit(finish)
			So(src.openCount(), ShouldEqual, 3)
			So(c.Snapshot().LoopSettings.CurrentIteration, ShouldEqual, 2)
		})

		Convey("An infinite loop keeps restarting without counting", func() {
			So(c.SetVerseRange(2, 3), ShouldBeNil)
			c.SetLoopSettings(0, true)
			c.Play(context.Background())

			for i := 0; i < 4; i++ {
				src.last().emit(finish)
				time.Sleep(guard)
			}

			snap := c.Snapshot()
			So(snap.State, ShouldEqual, domain.StatePlaying)
			So(snap.LoopSettings.CurrentIteration, ShouldEqual, 1)
			So(src.openCount(), ShouldEqual, 6) // initial + range reload + 4 restarts
		})

		Convey("Each restart fully releases the previous resource", func() {
			So(c.SetVerseRange(2, 3), ShouldBeNil)
			c.SetLoopSettings(2, false)
			c.Play(context.Background())
			first := src.last()

			first.emit(finish)

			So(first.isUnloaded(), ShouldBeTrue)
			So(src.last(), ShouldNotEqual, first)
		})
	})
}
