package application

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/murattal/recite/internal/domain"
)

func sampleTimings() []domain.VerseTiming {
	return []domain.VerseTiming{
		{
			VerseKey:      "2:1",
			TimestampFrom: 0,
			TimestampTo:   2000,
			Segments: []domain.WordSegment{
				{Position: 1, FromMs: 0, ToMs: 800},
				{Position: 2, FromMs: 800, ToMs: 2000},
			},
		},
		{VerseKey: "2:2", TimestampFrom: 2000, TimestampTo: 4000},
	}
}

func TestResolveHighlight(t *testing.T) {
	Convey("Highlight resolver", t, func() {
		timings := sampleTimings()

		Convey("Reports the first word mid-verse", func() {
			hs := resolveHighlight(timings, 900, 200) // adjusted 700
			So(hs.CurrentVerseKey, ShouldEqual, "2:1")
			So(hs.CurrentWordPosition, ShouldEqual, 1)
			So(hs.CompletedVerseKeys, ShouldBeEmpty)
		})

		Convey("Advances to the second word across its boundary", func() {
			hs := resolveHighlight(timings, 1100, 200) // adjusted 900
			So(hs.CurrentVerseKey, ShouldEqual, "2:1")
			So(hs.CurrentWordPosition, ShouldEqual, 2)
		})

		Convey("Reports nothing current past the last verse, all completed", func() {
			hs := resolveHighlight(timings, 4200, 200) // adjusted 4000
			So(hs.CurrentVerseKey, ShouldBeEmpty)
			So(hs.CurrentWordPosition, ShouldEqual, 0)
			So(hs.CompletedVerseKeys, ShouldContainKey, "2:1")
			So(hs.CompletedVerseKeys, ShouldContainKey, "2:2")
		})

		Convey("Reports no word in a verse without segments", func() {
			hs := resolveHighlight(timings, 2700, 200)
			So(hs.CurrentVerseKey, ShouldEqual, "2:2")
			So(hs.CurrentWordPosition, ShouldEqual, 0)
		})

		Convey("Clamps negative adjusted positions to the stream start", func() {
			hs := resolveHighlight(timings, 50, 200)
			So(hs.CurrentVerseKey, ShouldEqual, "2:1")
			So(hs.CurrentWordPosition, ShouldEqual, 1)
		})

		Convey("Handles a gap between verses", func() {
			gapped := []domain.VerseTiming{
				{VerseKey: "2:1", TimestampFrom: 0, TimestampTo: 1000},
				{VerseKey: "2:2", TimestampFrom: 1500, TimestampTo: 2000},
			}
			hs := resolveHighlight(gapped, 1200, 0)
			So(hs.CurrentVerseKey, ShouldBeEmpty)
			So(hs.CompletedVerseKeys, ShouldContainKey, "2:1")
			So(hs.CompletedVerseKeys, ShouldNotContainKey, "2:2")
		})

		Convey("Reports nothing before the first verse begins", func() {
			late := []domain.VerseTiming{
				{VerseKey: "2:1", TimestampFrom: 500, TimestampTo: 1000},
			}
			hs := resolveHighlight(late, 300, 0)
			So(hs.CurrentVerseKey, ShouldBeEmpty)
			So(hs.CompletedVerseKeys, ShouldBeEmpty)
		})

		Convey("Keeps the last passed word current in a segment gap", func() {
			sparse := []domain.VerseTiming{
				{
					VerseKey:      "1:1",
					TimestampFrom: 0,
					TimestampTo:   1000,
					Segments: []domain.WordSegment{
						{Position: 1, FromMs: 0, ToMs: 300},
						{Position: 2, FromMs: 500, ToMs: 800},
					},
				},
			}
			hs := resolveHighlight(sparse, 400, 0)
			So(hs.CurrentVerseKey, ShouldEqual, "1:1")
			So(hs.CurrentWordPosition, ShouldEqual, 1)
		})

		Convey("Completed set grows monotonically with position", func() {
			prev := map[string]struct{}{}
			for p := int64(0); p <= 4500; p += 100 {
				hs := resolveHighlight(timings, p, 200)
				for k := range prev {
					So(hs.CompletedVerseKeys, ShouldContainKey, k)
				}
				prev = hs.CompletedVerseKeys
			}
		})

		Convey("Never reports more than one current verse", func() {
			for p := int64(0); p <= 4500; p += 50 {
				hs := resolveHighlight(timings, p, 0)
				if hs.CurrentVerseKey != "" {
					So(hs.CompletedVerseKeys, ShouldNotContainKey, hs.CurrentVerseKey)
				}
			}
		})
	})
}
