package pipeline

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/clipfetch/clipfetch/config"
	"github.com/clipfetch/clipfetch/internal/domain/media/entities"
	mediaerrors "github.com/clipfetch/clipfetch/internal/domain/media/errors"
	"github.com/clipfetch/clipfetch/internal/domain/media/formats"
)

const (
	mib     = int64(1024 * 1024)
	ceiling = 50 * mib
)

// fakeExtractor implements deps.Extractor. Download writes a real sparse file
// so the post-fetch size check and the cleanup guarantee are exercised for
// real.
type fakeExtractor struct {
	mu sync.Mutex

	probeErrs   map[string]error                     // keyed by probe format
	probeMetas  map[string]*entities.MediaMetadata   // keyed by probe format
	failFormats map[string]bool                      // download formats that fail
	fileBytes   int64

	probeFormats    []string
	downloadFormats []string
}

func (f *fakeExtractor) Probe(_ context.Context, _, format string) (*entities.MediaMetadata, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.probeFormats = append(f.probeFormats, format)

	if err := f.probeErrs[format]; err != nil {
		return nil, err
	}
	if m, ok := f.probeMetas[format]; ok {
		return m, nil
	}
	return &entities.MediaMetadata{
		ID:       "vid123",
		Title:    "Some Title",
		Uploader: "Some Uploader",
		Size:     entities.KnownSize(1 * mib),
	}, nil
}

func (f *fakeExtractor) Download(_ context.Context, _, format, outputTemplate string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.downloadFormats = append(f.downloadFormats, format)

	if f.failFormats[format] {
		return "", fmt.Errorf("format %q not available", format)
	}

	path := strings.Replace(outputTemplate, "%(ext)s", "mp4", 1)
	file, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	size := f.fileBytes
	if size == 0 {
		size = 1 * mib
	}
	if err := file.Truncate(size); err != nil {
		return "", err
	}
	return path, nil
}

func (f *fakeExtractor) downloadCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.downloadFormats)
}

// fakeSender implements deps.StatusSender and records every transport call
type fakeSender struct {
	mu sync.Mutex

	statuses  []string // texts of sends and edits, in order
	deleted   []int
	videos    []string // uploaded video paths
	audios    []string // uploaded audio paths
	uploadErr error

	nextID int
}

func (s *fakeSender) SendStatus(_ context.Context, _ int64, text string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	s.statuses = append(s.statuses, text)
	return s.nextID, nil
}

func (s *fakeSender) EditStatus(_ context.Context, _ int64, _ int, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses = append(s.statuses, text)
	return nil
}

func (s *fakeSender) DeleteStatus(_ context.Context, _ int64, messageID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, messageID)
	return nil
}

func (s *fakeSender) SendVideo(_ context.Context, _ int64, path, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.uploadErr != nil {
		return s.uploadErr
	}
	s.videos = append(s.videos, path)
	return nil
}

func (s *fakeSender) SendAudio(_ context.Context, _ int64, path, _, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.uploadErr != nil {
		return s.uploadErr
	}
	s.audios = append(s.audios, path)
	return nil
}

func (s *fakeSender) lastStatus() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.statuses) == 0 {
		return ""
	}
	return s.statuses[len(s.statuses)-1]
}

func newTestPipeline(t *testing.T, ex *fakeExtractor, sender *fakeSender, skipAudio bool) (*Pipeline, string) {
	t.Helper()

	dir := t.TempDir()
	p, err := NewPipeline(&config.PipelineConfig{
		MaxUploadBytes:          ceiling,
		DownloadDir:             dir,
		SkipAudioOnVideoFailure: skipAudio,
	}, ex, zerolog.Nop())
	require.NoError(t, err)

	p.SetSender(sender)
	return p, dir
}

func stagedPath(dir string, kind entities.Kind) string {
	return strings.Replace(formats.OutputTemplate(dir, "vid123", kind), "%(ext)s", "mp4", 1)
}

func TestRun_OversizedEstimateHaltsBeforeFetch(t *testing.T) {
	ex := &fakeExtractor{
		probeMetas: map[string]*entities.MediaMetadata{
			formats.VideoPrimary: {ID: "vid123", Title: "big", Size: entities.KnownSize(60 * mib)},
		},
	}
	sender := &fakeSender{}
	p, _ := newTestPipeline(t, ex, sender, true)

	outcomes := p.Run(context.Background(), &entities.MediaRequest{ChatID: 1, URL: "https://youtu.be/x", Kind: entities.KindVideo})

	require.Len(t, outcomes, 1)
	require.Equal(t, entities.StatusRejectedSize, outcomes[0].Status)
	require.Contains(t, outcomes[0].Message, "60.00 MB")
	require.Zero(t, ex.downloadCalls(), "fetch must not run after a pre-check rejection")
	require.Contains(t, sender.lastStatus(), "60.00 MB")
}

func TestRun_UnknownSizeIsRejected(t *testing.T) {
	ex := &fakeExtractor{
		probeMetas: map[string]*entities.MediaMetadata{
			formats.VideoPrimary: {ID: "vid123", Title: "mystery", Size: entities.UnknownSize()},
		},
	}
	sender := &fakeSender{}
	p, _ := newTestPipeline(t, ex, sender, true)

	outcomes := p.Run(context.Background(), &entities.MediaRequest{ChatID: 1, URL: "https://youtu.be/x", Kind: entities.KindVideo})

	require.Equal(t, entities.StatusRejectedSize, outcomes[0].Status)
	require.Contains(t, outcomes[0].Message, "could not be determined")
	require.Zero(t, ex.downloadCalls())
}

func TestRun_RestrictedAndUnavailableAreDistinct(t *testing.T) {
	restricted := &fakeExtractor{probeErrs: map[string]error{
		formats.VideoPrimary: fmt.Errorf("probe: %w", mediaerrors.ErrRestricted),
	}}
	restrictedSender := &fakeSender{}
	p1, _ := newTestPipeline(t, restricted, restrictedSender, true)
	o1 := p1.Run(context.Background(), &entities.MediaRequest{ChatID: 1, URL: "u", Kind: entities.KindVideo})

	unavailable := &fakeExtractor{probeErrs: map[string]error{
		formats.VideoPrimary: fmt.Errorf("probe: %w", mediaerrors.ErrUnavailable),
	}}
	unavailableSender := &fakeSender{}
	p2, _ := newTestPipeline(t, unavailable, unavailableSender, true)
	o2 := p2.Run(context.Background(), &entities.MediaRequest{ChatID: 1, URL: "u", Kind: entities.KindVideo})

	require.Equal(t, entities.StatusRejectedRestricted, o1[0].Status)
	require.Equal(t, entities.StatusFailed, o2[0].Status)
	require.NotEqual(t, o1[0].Message, o2[0].Message, "restricted and unavailable must show different guidance")
	require.Contains(t, o1[0].Message, "cookies.txt")
	require.Zero(t, restricted.downloadCalls())
	require.Zero(t, unavailable.downloadCalls())
}

func TestRun_FallbackFormatDeliversAndCleansUp(t *testing.T) {
	ex := &fakeExtractor{
		failFormats: map[string]bool{formats.VideoPrimary: true},
		fileBytes:   10 * mib,
	}
	sender := &fakeSender{}
	p, dir := newTestPipeline(t, ex, sender, true)

	outcomes := p.Run(context.Background(), &entities.MediaRequest{ChatID: 1, URL: "u", Kind: entities.KindVideo})

	require.Equal(t, entities.StatusDelivered, outcomes[0].Status)
	require.Equal(t, []string{formats.VideoPrimary, formats.VideoDegraded}, ex.downloadFormats)
	require.Len(t, sender.videos, 1)
	require.Len(t, sender.deleted, 1, "status message is deleted on success")
	require.NoFileExists(t, stagedPath(dir, entities.KindVideo), "staged file must be gone after the run")
}

func TestRun_AllFormatsFailing(t *testing.T) {
	ex := &fakeExtractor{
		failFormats: map[string]bool{
			formats.VideoPrimary:  true,
			formats.VideoDegraded: true,
		},
	}
	sender := &fakeSender{}
	p, _ := newTestPipeline(t, ex, sender, true)

	outcomes := p.Run(context.Background(), &entities.MediaRequest{ChatID: 1, URL: "u", Kind: entities.KindVideo})

	require.Equal(t, entities.StatusFailed, outcomes[0].Status)
	require.Equal(t, 2, ex.downloadCalls())
	require.Empty(t, sender.videos)
}

func TestRun_PostCheckRejectsOversizedFile(t *testing.T) {
	// The probe under-reported; the true on-disk size is authoritative
	ex := &fakeExtractor{
		probeMetas: map[string]*entities.MediaMetadata{
			formats.VideoPrimary: {ID: "vid123", Title: "liar", Size: entities.KnownSize(1 * mib)},
		},
		fileBytes: 60 * mib,
	}
	sender := &fakeSender{}
	p, dir := newTestPipeline(t, ex, sender, true)

	outcomes := p.Run(context.Background(), &entities.MediaRequest{ChatID: 1, URL: "u", Kind: entities.KindVideo})

	require.Equal(t, entities.StatusRejectedSize, outcomes[0].Status)
	require.Contains(t, outcomes[0].Message, "60.00 MB")
	require.Empty(t, sender.videos, "no upload after a post-check rejection")
	require.NoFileExists(t, stagedPath(dir, entities.KindVideo))
}

func TestRun_DeliveryFailureCleansUp(t *testing.T) {
	ex := &fakeExtractor{fileBytes: 5 * mib}
	sender := &fakeSender{uploadErr: fmt.Errorf("telegram: 502")}
	p, dir := newTestPipeline(t, ex, sender, true)

	outcomes := p.Run(context.Background(), &entities.MediaRequest{ChatID: 1, URL: "u", Kind: entities.KindVideo})

	require.Equal(t, entities.StatusFailed, outcomes[0].Status)
	require.NoFileExists(t, stagedPath(dir, entities.KindVideo))
}

func TestRun_BothSkipsAudioAfterVideoFailure(t *testing.T) {
	ex := &fakeExtractor{probeErrs: map[string]error{
		formats.VideoPrimary: fmt.Errorf("probe: %w", mediaerrors.ErrRestricted),
	}}
	sender := &fakeSender{}
	p, _ := newTestPipeline(t, ex, sender, true)

	outcomes := p.Run(context.Background(), &entities.MediaRequest{ChatID: 1, URL: "u", Kind: entities.KindBoth})

	require.Len(t, outcomes, 1, "audio leg must be skipped")
	require.Equal(t, entities.StatusRejectedRestricted, outcomes[0].Status)
	require.Zero(t, ex.downloadCalls())
	require.NotContains(t, ex.probeFormats, formats.AudioPrimary, "audio must never be probed under the skip policy")
}

func TestRun_BothRunsAudioWhenSkipPolicyOff(t *testing.T) {
	ex := &fakeExtractor{
		probeErrs: map[string]error{
			formats.VideoPrimary: fmt.Errorf("probe: %w", mediaerrors.ErrRestricted),
		},
		probeMetas: map[string]*entities.MediaMetadata{
			formats.AudioPrimary: {ID: "vid123", Title: "tune", Uploader: "band", Size: entities.KnownSize(3 * mib)},
		},
		fileBytes: 3 * mib,
	}
	sender := &fakeSender{}
	p, _ := newTestPipeline(t, ex, sender, false)

	outcomes := p.Run(context.Background(), &entities.MediaRequest{ChatID: 1, URL: "u", Kind: entities.KindBoth})

	require.Len(t, outcomes, 2)
	require.Equal(t, entities.StatusRejectedRestricted, outcomes[0].Status)
	require.Equal(t, entities.StatusDelivered, outcomes[1].Status)
	require.Len(t, sender.audios, 1)
}

func TestRun_BothDeliversVideoThenAudio(t *testing.T) {
	ex := &fakeExtractor{fileBytes: 2 * mib}
	sender := &fakeSender{}
	p, dir := newTestPipeline(t, ex, sender, true)

	outcomes := p.Run(context.Background(), &entities.MediaRequest{ChatID: 1, URL: "u", Kind: entities.KindBoth})

	require.Len(t, outcomes, 2)
	require.Equal(t, entities.KindVideo, outcomes[0].Kind)
	require.Equal(t, entities.KindAudio, outcomes[1].Kind)
	require.True(t, outcomes[0].Delivered())
	require.True(t, outcomes[1].Delivered())
	require.Equal(t, []string{formats.VideoPrimary, formats.AudioPrimary}, ex.probeFormats, "video leg completes before audio begins")
	require.NoFileExists(t, stagedPath(dir, entities.KindVideo))
	require.NoFileExists(t, stagedPath(dir, entities.KindAudio))
}

func TestCleanup_IsIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := stagedPath(dir, entities.KindVideo)
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	p, err := NewPipeline(&config.PipelineConfig{MaxUploadBytes: ceiling, DownloadDir: dir}, &fakeExtractor{}, zerolog.Nop())
	require.NoError(t, err)

	staged := &entities.StagedFile{Path: path, Size: 1}

	// Double delete and a nil file must both be harmless
	p.cleanup(staged, zerolog.Nop())
	p.cleanup(staged, zerolog.Nop())
	p.cleanup(nil, zerolog.Nop())

	require.NoFileExists(t, path)
}
