package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/spf13/cobra"

	"github.com/murattal/recite/internal/application"
	"github.com/murattal/recite/internal/domain"
)

var (
	playChapter  int
	playReciter  string
	playFrom     int
	playTo       int
	playLoop     int
	playInfinite bool
)

func init() {
	playCmd.Flags().IntVarP(&playChapter, "chapter", "c", 0, "Chapter number to play (1-114)")
	playCmd.Flags().StringVarP(&playReciter, "reciter", "r", "", "Reciter name (fuzzy matched)")
	playCmd.Flags().IntVar(&playFrom, "from", 0, "First verse of the playback range")
	playCmd.Flags().IntVar(&playTo, "to", 0, "Last verse of the playback range")
	playCmd.Flags().IntVar(&playLoop, "loop", 0, "Repeat the range this many times")
	playCmd.Flags().BoolVar(&playInfinite, "infinite", false, "Repeat the range until interrupted")
	_ = playCmd.MarkFlagRequired("chapter")
}

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play a chapter with live verse and word highlighting",
	Example: `  recite play --chapter 1
  recite play --chapter 2 --reciter alafasy --from 255 --to 257 --loop 3`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if domain.ChapterByNumber(playChapter) == nil {
			return fmt.Errorf("chapter %d does not exist", playChapter)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		c := engine.controller
		defer c.Reset()

		c.LoadReciters(ctx)
		snap := c.Snapshot()
		if snap.ErrorMessage != "" {
			return errors.New(snap.ErrorMessage)
		}

		if playReciter != "" {
			r, err := matchReciter(snap.Reciters, playReciter)
			if err != nil {
				return err
			}
			c.SelectReciter(r)
		}

		c.LoadChapter(ctx, playChapter)
		snap = c.Snapshot()
		if snap.State == domain.StateError {
			return errors.New(snap.ErrorMessage)
		}

		if playFrom > 0 || playTo > 0 {
			if err := c.SetVerseRange(playFrom, playTo); err != nil {
				return err
			}
		}
		if playLoop > 0 || playInfinite {
			c.SetLoopSettings(playLoop, playInfinite)
		}

		fmt.Printf("Playing %s (%s) — %s\n",
			domain.ChapterByNumber(playChapter).Name,
			domain.ChapterByNumber(playChapter).ArabicName,
			snap.SelectedReciter.Name,
		)

		c.Play(ctx)
		return followPlayback(ctx, c)
	},
}

// followPlayback renders the live highlight line until the session settles,
// errors, or the user interrupts.
func followPlayback(ctx context.Context, c *application.Controller) error {
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	started := false
	for {
		select {
		case <-ctx.Done():
			fmt.Println()
			return nil
		case <-ticker.C:
		}

		snap := c.Snapshot()
		switch snap.State {
		case domain.StateError:
			fmt.Println()
			return errors.New(snap.ErrorMessage)
		case domain.StatePlaying:
			started = true
			renderStatus(snap)
		case domain.StatePaused:
			if started {
				fmt.Println("\ndone")
				return nil
			}
		}
	}
}

func renderStatus(snap application.Snapshot) {
	verse := snap.Highlight.CurrentVerseKey
	if verse == "" {
		verse = "-"
	}
	word := "-"
	if snap.Highlight.CurrentWordPosition > 0 {
		word = fmt.Sprintf("%d", snap.Highlight.CurrentWordPosition)
	}

	line := fmt.Sprintf("\r%s / %s  verse %s  word %s  (%d done)",
		formatMs(snap.PositionMs), formatMs(snap.DurationMs), verse, word, len(snap.Highlight.CompletedVerseKeys))
	if snap.LoopSettings.IsInfinite {
		line += "  loop ∞"
	} else if snap.LoopSettings.LoopCount > 0 {
		line += fmt.Sprintf("  loop %d/%d", snap.LoopSettings.CurrentIteration, snap.LoopSettings.LoopCount)
	}
	fmt.Print(line)
}

func formatMs(ms int64) string {
	d := time.Duration(ms) * time.Millisecond
	return fmt.Sprintf("%02d:%02d", int(d.Minutes()), int(d.Seconds())%60)
}

func matchReciter(reciters []domain.Reciter, query string) (domain.Reciter, error) {
	names := make([]string, len(reciters))
	for i, r := range reciters {
		names[i] = r.Name
	}

	ranks := fuzzy.RankFindNormalizedFold(query, names)
	if len(ranks) == 0 {
		return domain.Reciter{}, fmt.Errorf("no reciter matches %q", query)
	}
	sort.Sort(ranks)
	return reciters[ranks[0].OriginalIndex], nil
}
