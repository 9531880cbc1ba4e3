package application

import "github.com/murattal/recite/internal/domain"

// resolveHighlight maps a raw position to verse/word highlight state. It is
// pure: no incremental state survives between calls.
//
// delayMs is subtracted uniformly from the position before lookup to
// compensate for audio output latency and upstream timestamp skew.
func resolveHighlight(timings []domain.VerseTiming, positionMs, delayMs int64) domain.HighlightState {
	p := positionMs - delayMs
	if p < 0 {
		p = 0
	}

	hs := domain.NewHighlightState()

	for _, vt := range timings {
		if vt.TimestampTo <= p {
			hs.CompletedVerseKeys[vt.VerseKey] = struct{}{}
			continue
		}
		if vt.TimestampFrom <= p {
			// The list is ordered, so this is the single matching interval.
			hs.CurrentVerseKey = vt.VerseKey
			hs.CurrentWordPosition = resolveWord(vt.Segments, p)
		}
		// Either the current verse was found or p falls in a gap before
		// this verse; no later entry can match.
		break
	}

	return hs
}

// resolveWord finds the word containing p. When p has passed a word's end
// without reaching the next word's start, the passed word stays current
// (last-completed-word-sticks) rather than reporting no word.
func resolveWord(segments []domain.WordSegment, p int64) int {
	word := 0
	for _, seg := range segments {
		if seg.FromMs <= p && p < seg.ToMs {
			return seg.Position
		}
		if p >= seg.ToMs {
			word = seg.Position
			continue
		}
		break
	}
	return word
}
