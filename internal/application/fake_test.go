package application

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/murattal/recite/internal/domain"
)

// fakeI18n echoes the message key so tests can assert on keys directly.
type fakeI18n struct{}

func (fakeI18n) Get(_ domain.Language, key string, _ ...interface{}) string { return key }

type fakeCatalog struct {
	mu          sync.Mutex
	reciters    []domain.Reciter
	recitersErr error
	audio       *domain.ChapterAudioFile
	audioErr    error

	// gate, when set, blocks GetChapterAudio until closed. Used to hold a
	// load in flight.
	gate chan struct{}

	audioCalls    int32
	recitersCalls int32
}

func (f *fakeCatalog) GetReciters(_ context.Context) ([]domain.Reciter, error) {
	atomic.AddInt32(&f.recitersCalls, 1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.recitersErr != nil {
		return nil, f.recitersErr
	}
	return append([]domain.Reciter(nil), f.reciters...), nil
}

func (f *fakeCatalog) GetChapterAudio(_ context.Context, reciterID, chapterID int) (*domain.ChapterAudioFile, error) {
	atomic.AddInt32(&f.audioCalls, 1)
	f.mu.Lock()
	gate := f.gate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.audioErr != nil {
		return nil, f.audioErr
	}
	file := *f.audio
	file.ReciterID = reciterID
	file.ChapterID = chapterID
	return &file, nil
}

type fakeResource struct {
	mu       sync.Mutex
	url      string
	startMs  int64
	position int64
	duration int64
	playing  bool
	unloaded bool
	callback func(domain.StatusUpdate)

	playErr  error
	pauseErr error
	seekErr  error
}

func (r *fakeResource) Play() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.playErr != nil {
		return r.playErr
	}
	r.playing = true
	return nil
}

func (r *fakeResource) Pause() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pauseErr != nil {
		return r.pauseErr
	}
	r.playing = false
	return nil
}

func (r *fakeResource) Seek(positionMs int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.seekErr != nil {
		return r.seekErr
	}
	r.position = positionMs
	return nil
}

func (r *fakeResource) Position() (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.position, nil
}

func (r *fakeResource) Duration() (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.duration, nil
}

func (r *fakeResource) OnUpdate(fn func(domain.StatusUpdate)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.callback = fn
}

func (r *fakeResource) Unload() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.unloaded = true
	r.playing = false
	return nil
}

// emit delivers one status update the way the adapter's status loop would.
func (r *fakeResource) emit(u domain.StatusUpdate) {
	r.mu.Lock()
	cb := r.callback
	r.mu.Unlock()
	if cb != nil {
		cb(u)
	}
}

func (r *fakeResource) setPosition(ms int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.position = ms
}

func (r *fakeResource) isPlaying() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.playing
}

func (r *fakeResource) isUnloaded() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.unloaded
}

type fakeSource struct {
	mu       sync.Mutex
	duration int64
	openErr  error
	opened   []*fakeResource
}

func (s *fakeSource) Open(_ context.Context, url string, startMs int64) (domain.AudioResource, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.openErr != nil {
		return nil, s.openErr
	}
	r := &fakeResource{url: url, startMs: startMs, position: startMs, duration: s.duration}
	s.opened = append(s.opened, r)
	return r, nil
}

func (s *fakeSource) openCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.opened)
}

func (s *fakeSource) last() *fakeResource {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.opened) == 0 {
		return nil
	}
	return s.opened[len(s.opened)-1]
}
