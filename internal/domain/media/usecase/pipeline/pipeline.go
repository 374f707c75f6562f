// Package pipeline contains the fetch-verify-deliver use case: probe the
// source, gate on the estimated size, fetch, gate on the true on-disk size,
// upload, and clean the staged file up on every exit path.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clipfetch/clipfetch/config"
	"github.com/clipfetch/clipfetch/internal/domain/media/deps"
	"github.com/clipfetch/clipfetch/internal/domain/media/entities"
	mediaerrors "github.com/clipfetch/clipfetch/internal/domain/media/errors"
	"github.com/clipfetch/clipfetch/internal/domain/media/formats"
	"github.com/clipfetch/clipfetch/internal/domain/media/sizegate"
)

// User-facing terminal messages. RESTRICTED and UNAVAILABLE are deliberately
// distinct strings: a restricted source needs credentials, not a retry.
const (
	msgRestricted  = "🔒 This media is restricted (age gate, login requirement, or private). A cookies.txt credential file would be required to fetch it."
	msgUnavailable = "❌ Could not resolve this link. The media may have been removed, or the extractor failed."
	msgRetrieval   = "❌ Download failed, even after falling back to the lowest quality. Please try again later."
	msgDelivery    = "❌ Upload to Telegram failed. Please try again."
)

// Pipeline orchestrates one (URL, kind) request through the state machine
// PROBING → SIZE_CHECK_PRE → FETCHING → SIZE_CHECK_POST → UPLOADING → DONE,
// with ABORTED reachable from every state.
type Pipeline struct {
	extractor deps.Extractor
	sender    deps.StatusSender
	logger    zerolog.Logger

	ceiling     int64
	downloadDir string
	skipAudio   bool
}

// NewPipeline creates the delivery pipeline and ensures the staging directory
// exists.
// Note: sender is not passed here to break the cyclic dependency with the
// Telegram handlers. Use SetSender after creating them.
func NewPipeline(cfg *config.PipelineConfig, extractor deps.Extractor, logger zerolog.Logger) (*Pipeline, error) {
	if err := os.MkdirAll(cfg.DownloadDir, 0o755); err != nil {
		return nil, fmt.Errorf("create download dir: %w", err)
	}

	return &Pipeline{
		extractor:   extractor,
		logger:      logger,
		ceiling:     cfg.MaxUploadBytes,
		downloadDir: cfg.DownloadDir,
		skipAudio:   cfg.SkipAudioOnVideoFailure,
	}, nil
}

// SetSender sets the StatusSender after construction.
// This is called by fx.Invoke to resolve the cyclic dependency.
func (p *Pipeline) SetSender(sender deps.StatusSender) {
	p.sender = sender
}

// Run executes the pipeline for a request and returns one outcome per media
// leg. A BOTH request runs the video leg to a terminal state before the audio
// leg starts; when the skip policy is on, a failed video leg suppresses the
// audio leg entirely.
func (p *Pipeline) Run(ctx context.Context, req *entities.MediaRequest) []entities.Outcome {
	if req.Kind != entities.KindBoth {
		return []entities.Outcome{p.runOne(ctx, req.ChatID, req.URL, req.Kind)}
	}

	video := p.runOne(ctx, req.ChatID, req.URL, entities.KindVideo)
	if !video.Delivered() && p.skipAudio {
		p.logger.Info().
			Int64("chat_id", req.ChatID).
			Str("video_status", string(video.Status)).
			Msg("Skipping audio leg after failed video leg")
		return []entities.Outcome{video}
	}

	audio := p.runOne(ctx, req.ChatID, req.URL, entities.KindAudio)
	return []entities.Outcome{video, audio}
}

// runOne drives a single (URL, kind) leg through every state. All failures
// are converted into a terminal status edit; nothing escapes to the caller.
func (p *Pipeline) runOne(ctx context.Context, chatID int64, url string, kind entities.Kind) entities.Outcome {
	logger := p.logger.With().
		Str("request_id", uuid.NewString()).
		Int64("chat_id", chatID).
		Str("kind", string(kind)).
		Logger()

	logger.Info().Str("url", url).Msg("Pipeline run started")

	statusID, err := p.sender.SendStatus(ctx, chatID, checkingText(kind))
	if err != nil {
		logger.Error().Err(err).Msg("Failed to send status message")
		return entities.Outcome{Kind: kind, Status: entities.StatusFailed, Message: msgDelivery}
	}

	chain := formats.ChainFor(kind)

	// PROBING: metadata only, no media bytes
	meta, err := p.extractor.Probe(ctx, url, chain.Probe)
	if err != nil {
		return p.abortForProbeError(ctx, chatID, statusID, kind, err, logger)
	}

	// SIZE_CHECK_PRE: gate on the estimate; unknown size is rejected outright
	if d := sizegate.Evaluate(meta.Size, p.ceiling); !d.Allowed {
		logger.Info().Bool("size_known", meta.Size.Known).Int64("size_bytes", meta.Size.Bytes).Msg("Rejected by pre-fetch size check")
		return p.abort(ctx, chatID, statusID, kind, entities.StatusRejectedSize, "❌ "+d.Message, logger)
	}

	// FETCHING: one retry loop over the declarative format chain
	if err := p.sender.EditStatus(ctx, chatID, statusID, downloadingText(kind)); err != nil {
		logger.Warn().Err(err).Msg("Failed to edit status message")
	}

	staged, err := p.fetch(ctx, url, meta.ID, kind, chain, logger)
	if err != nil {
		logger.Error().Err(err).Msg("Retrieval failed for every format preference")
		return p.abort(ctx, chatID, statusID, kind, entities.StatusFailed, msgRetrieval, logger)
	}

	// The staged file is removed on every exit path from here on
	defer p.cleanup(staged, logger)

	// SIZE_CHECK_POST: the true on-disk size is authoritative, the estimate
	// may have been wrong or the stream re-resolved differently at fetch time
	if d := sizegate.Evaluate(entities.KnownSize(staged.Size), p.ceiling); !d.Allowed {
		logger.Info().Int64("size_bytes", staged.Size).Msg("Rejected by post-fetch size check")
		return p.abort(ctx, chatID, statusID, kind, entities.StatusRejectedSize, "❌ "+d.Message, logger)
	}

	// UPLOADING
	if err := p.sender.EditStatus(ctx, chatID, statusID, uploadingText(kind)); err != nil {
		logger.Warn().Err(err).Msg("Failed to edit status message")
	}

	if err := p.deliver(ctx, chatID, kind, staged, meta); err != nil {
		logger.Error().Err(err).Msg("Delivery to chat transport failed")
		return p.abort(ctx, chatID, statusID, kind, entities.StatusFailed, msgDelivery, logger)
	}

	// DONE: the delivered media is the terminal feedback, drop the status line
	if err := p.sender.DeleteStatus(ctx, chatID, statusID); err != nil {
		logger.Warn().Err(err).Msg("Failed to delete status message")
	}

	logger.Info().Int64("size_bytes", staged.Size).Msg("Pipeline run delivered")
	return entities.Outcome{Kind: kind, Status: entities.StatusDelivered}
}

// fetch consumes the download preference chain, most-preferred first, and
// stages the first successful transfer
func (p *Pipeline) fetch(ctx context.Context, url, contentID string, kind entities.Kind, chain formats.Chain, logger zerolog.Logger) (*entities.StagedFile, error) {
	tmpl := formats.OutputTemplate(p.downloadDir, contentID, kind)

	var lastErr error
	for _, format := range chain.Download {
		path, err := p.extractor.Download(ctx, url, format, tmpl)
		if err != nil {
			logger.Warn().Err(err).Str("format", format).Msg("Format preference failed, trying next")
			lastErr = err
			continue
		}

		info, err := os.Stat(path)
		if err != nil {
			lastErr = fmt.Errorf("stat staged file: %w", err)
			continue
		}

		return &entities.StagedFile{Path: path, Size: info.Size()}, nil
	}

	return nil, fmt.Errorf("%w: %v", mediaerrors.ErrRetrievalFailed, lastErr)
}

// deliver hands the staged file to the chat transport with kind-specific
// semantics
func (p *Pipeline) deliver(ctx context.Context, chatID int64, kind entities.Kind, staged *entities.StagedFile, meta *entities.MediaMetadata) error {
	switch kind {
	case entities.KindAudio:
		title := meta.Title
		if title == "" {
			title = "Audio"
		}
		return p.sender.SendAudio(ctx, chatID, staged.Path, title, meta.Uploader)
	default:
		caption := meta.Title
		if caption == "" {
			caption = "Video"
		}
		return p.sender.SendVideo(ctx, chatID, staged.Path, caption)
	}
}

// abortForProbeError distinguishes restricted sources from unavailable ones;
// the two need different user guidance
func (p *Pipeline) abortForProbeError(ctx context.Context, chatID int64, statusID int, kind entities.Kind, err error, logger zerolog.Logger) entities.Outcome {
	if errors.Is(err, mediaerrors.ErrRestricted) {
		logger.Info().Err(err).Msg("Probe rejected: restricted source")
		return p.abort(ctx, chatID, statusID, kind, entities.StatusRejectedRestricted, msgRestricted, logger)
	}

	logger.Error().Err(err).Msg("Probe failed: source unavailable")
	return p.abort(ctx, chatID, statusID, kind, entities.StatusFailed, msgUnavailable, logger)
}

// abort edits the status message to the terminal text and builds the outcome
func (p *Pipeline) abort(ctx context.Context, chatID int64, statusID int, kind entities.Kind, status entities.OutcomeStatus, message string, logger zerolog.Logger) entities.Outcome {
	if err := p.sender.EditStatus(ctx, chatID, statusID, message); err != nil {
		logger.Error().Err(err).Msg("Failed to edit terminal status message")
	}
	return entities.Outcome{Kind: kind, Status: status, Message: message}
}

// cleanup removes the staged file. Idempotent: an already-absent file is not
// an error. Failures are logged, never surfaced to the user.
func (p *Pipeline) cleanup(staged *entities.StagedFile, logger zerolog.Logger) {
	if staged == nil {
		return
	}

	if err := os.Remove(staged.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Error().Err(err).Str("path", staged.Path).Msg("Failed to remove staged file")
		return
	}

	logger.Debug().Str("path", staged.Path).Msg("Staged file removed")
}

func checkingText(kind entities.Kind) string {
	if kind == entities.KindAudio {
		return "🔍 Checking audio details..."
	}
	return "🔍 Checking video details..."
}

func downloadingText(kind entities.Kind) string {
	if kind == entities.KindAudio {
		return "Downloading audio... 🎵"
	}
	return "Downloading video... 🎬"
}

func uploadingText(kind entities.Kind) string {
	if kind == entities.KindAudio {
		return "Uploading audio... 🚀"
	}
	return "Uploading video... 🚀"
}
