package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	Convey("Config Load", t, func() {
		Convey("Applies defaults on top of a minimal file", func() {
			path := writeConfig(t, "quran_api:\n  base_url: https://api.example.com\n")

			cfg, err := Load(path)

			So(err, ShouldBeNil)
			So(cfg.QuranAPI.BaseURL, ShouldEqual, "https://api.example.com")
			So(cfg.Playback.HighlightDelayMs, ShouldEqual, 200)
			So(cfg.Playback.RangeStartBufferMs, ShouldEqual, 250)
			So(cfg.Playback.RangeEndBufferMs, ShouldEqual, 200)
			So(cfg.Playback.RestartGuardMs, ShouldEqual, 500)
			So(cfg.Playback.PollIntervalMs, ShouldEqual, 100)
			So(cfg.Cache.RecitersTTL, ShouldEqual, time.Hour)
			So(cfg.App.DefaultLanguage, ShouldEqual, "en")
			So(cfg.App.PreferredReciter, ShouldEqual, "Alafasy")
			So(cfg.Log.Level, ShouldEqual, "info")
		})

		Convey("Honors overrides from the file", func() {
			path := writeConfig(t, `
quran_api:
  base_url: https://api.example.com
playback:
  highlight_delay_ms: 150
  poll_interval_ms: 50
app:
  preferred_reciter: Husary
`)

			cfg, err := Load(path)

			So(err, ShouldBeNil)
			So(cfg.Playback.HighlightDelayMs, ShouldEqual, 150)
			So(cfg.Playback.PollIntervalMs, ShouldEqual, 50)
			So(cfg.App.PreferredReciter, ShouldEqual, "Husary")
		})

		Convey("Requires the API base URL", func() {
			path := writeConfig(t, "app:\n  default_language: ar\n")

			_, err := Load(path)

			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "base URL")
		})

		Convey("Rejects a non-positive poll interval", func() {
			path := writeConfig(t, `
quran_api:
  base_url: https://api.example.com
playback:
  poll_interval_ms: 0
`)

			_, err := Load(path)

			So(err, ShouldNotBeNil)
		})

		Convey("Rejects negative buffers", func() {
			path := writeConfig(t, `
quran_api:
  base_url: https://api.example.com
playback:
  range_end_buffer_ms: -1
`)

			_, err := Load(path)

			So(err, ShouldNotBeNil)
		})

		Convey("Fails on a missing file", func() {
			_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))

			So(err, ShouldNotBeNil)
		})
	})
}
