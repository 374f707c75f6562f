// Package ytdlp wraps the yt-dlp binary as the media extraction capability.
// Probe and Download are two independent invocations against a live source;
// the chosen stream may differ between them if the upstream catalog changed.
// The pipeline treats the post-download size as authoritative for that reason.
package ytdlp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/clipfetch/clipfetch/config"
	"github.com/clipfetch/clipfetch/internal/domain/media/entities"
	mediaerrors "github.com/clipfetch/clipfetch/internal/domain/media/errors"
)

// Client executes yt-dlp for metadata probes and downloads
type Client struct {
	binPath     string
	cookiesFile string
	cfg         config.YtDlpConfig
	logger      zerolog.Logger
}

// NewClient creates a new yt-dlp client. The binary is resolved lazily; a
// missing binary only surfaces a warning here and fails the first request.
func NewClient(cfg *config.YtDlpConfig, logger zerolog.Logger) (*Client, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("yt-dlp binary path is required")
	}

	if _, err := exec.LookPath(cfg.Path); err != nil {
		logger.Warn().Str("path", cfg.Path).Msg("yt-dlp binary not found in PATH, requests will fail until it is installed")
	}

	return &Client{
		binPath:     cfg.Path,
		cookiesFile: cfg.CookiesFile,
		cfg:         *cfg,
		logger:      logger,
	}, nil
}

// probeInfo is the subset of yt-dlp's JSON output the probe cares about
type probeInfo struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	Uploader       string `json:"uploader"`
	Ext            string `json:"ext"`
	Filesize       *int64 `json:"filesize"`
	FilesizeApprox *int64 `json:"filesize_approx"`
}

// Probe runs a metadata-only query for the given format selection. No media
// bytes are transferred.
func (c *Client) Probe(ctx context.Context, url, format string) (*entities.MediaMetadata, error) {
	probeCtx, cancel := context.WithTimeout(ctx, c.cfg.ProbeTimeout)
	defer cancel()

	args := c.baseArgs(format)
	args = append(args, "--skip-download", "--dump-json", url)

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(probeCtx, c.binPath, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	c.logger.Debug().Str("url", url).Str("format", format).Msg("Probing media metadata")

	if err := cmd.Run(); err != nil {
		if errors.Is(probeCtx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: metadata probe timed out", mediaerrors.ErrUnavailable)
		}
		return nil, classifyExtractionError(stderr.String(), err)
	}

	meta, err := parseProbeOutput(stdout.Bytes())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", mediaerrors.ErrUnavailable, err)
	}

	c.logger.Debug().
		Str("content_id", meta.ID).
		Str("title", meta.Title).
		Bool("size_known", meta.Size.Known).
		Int64("size_bytes", meta.Size.Bytes).
		Msg("Probe completed")

	return meta, nil
}

// Download fetches media for the given format selection into the output
// template and returns the path of the staged file. Partial files are removed
// on failure; the caller owns the returned file.
func (c *Client) Download(ctx context.Context, url, format, outputTemplate string) (string, error) {
	dlCtx, cancel := context.WithTimeout(ctx, c.cfg.DownloadTimeout)
	defer cancel()

	args := c.baseArgs(format)
	args = append(args, "--no-progress", "-o", outputTemplate, url)

	var stderr bytes.Buffer
	cmd := exec.CommandContext(dlCtx, c.binPath, args...)
	cmd.Stderr = &stderr

	c.logger.Debug().Str("url", url).Str("format", format).Str("template", outputTemplate).Msg("Downloading media")

	if err := cmd.Run(); err != nil {
		removePartials(outputTemplate)
		if errors.Is(dlCtx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("download timed out after %s", c.cfg.DownloadTimeout)
		}
		return "", fmt.Errorf("yt-dlp failed: %v: %s", err, strings.TrimSpace(stderr.String()))
	}

	path, err := locateStagedFile(outputTemplate)
	if err != nil {
		return "", err
	}

	c.logger.Debug().Str("path", path).Msg("Download completed")
	return path, nil
}

// baseArgs mirrors the option surface probes and downloads share
func (c *Client) baseArgs(format string) []string {
	args := []string{
		"-f", format,
		"--no-playlist",
		"-q",
		"--no-warnings",
		"--no-check-certificates",
	}

	// A cookie file unlocks login-gated content; it is picked up only when
	// actually present so the bot runs credential-less by default.
	if c.cookiesFile != "" {
		if _, err := os.Stat(c.cookiesFile); err == nil {
			args = append(args, "--cookies", c.cookiesFile)
		}
	}

	return args
}

// parseProbeOutput decodes yt-dlp's --dump-json output into metadata.
// filesize wins over filesize_approx; absence of both yields an unknown size.
func parseProbeOutput(out []byte) (*entities.MediaMetadata, error) {
	var info probeInfo
	if err := json.Unmarshal(out, &info); err != nil {
		return nil, fmt.Errorf("parse probe output: %w", err)
	}

	size := entities.UnknownSize()
	if info.Filesize != nil && *info.Filesize > 0 {
		size = entities.KnownSize(*info.Filesize)
	} else if info.FilesizeApprox != nil && *info.FilesizeApprox > 0 {
		size = entities.KnownSize(*info.FilesizeApprox)
	}

	return &entities.MediaMetadata{
		ID:       info.ID,
		Title:    info.Title,
		Uploader: info.Uploader,
		Size:     size,
		Ext:      info.Ext,
	}, nil
}

// restrictedMarkers are stderr fragments yt-dlp emits for age gates, login
// walls and private videos. Matched case-insensitively.
var restrictedMarkers = []string{
	"sign in to confirm your age",
	"age-restricted",
	"age restricted",
	"private video",
	"this video is private",
	"login required",
	"members-only",
	"join this channel",
}

// classifyExtractionError maps yt-dlp stderr to the domain error taxonomy:
// restricted sources need credentials, everything else is unavailable.
func classifyExtractionError(stderr string, err error) error {
	detail := strings.TrimSpace(stderr)
	lower := strings.ToLower(detail)

	for _, marker := range restrictedMarkers {
		if strings.Contains(lower, marker) {
			return fmt.Errorf("%w: %s", mediaerrors.ErrRestricted, detail)
		}
	}

	if detail == "" {
		detail = err.Error()
	}
	return fmt.Errorf("%w: %s", mediaerrors.ErrUnavailable, detail)
}

// locateStagedFile resolves the file yt-dlp wrote for an output template with
// an %(ext)s placeholder
func locateStagedFile(outputTemplate string) (string, error) {
	pattern := strings.Replace(outputTemplate, "%(ext)s", "*", 1)
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return "", fmt.Errorf("glob staged file: %w", err)
	}

	for _, m := range matches {
		if strings.HasSuffix(m, ".part") || strings.HasSuffix(m, ".ytdl") {
			continue
		}
		return m, nil
	}

	return "", fmt.Errorf("no staged file found for template %s", outputTemplate)
}

// removePartials drops leftover partial downloads for a template
func removePartials(outputTemplate string) {
	pattern := strings.Replace(outputTemplate, "%(ext)s", "*", 1)
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return
	}
	for _, m := range matches {
		_ = os.Remove(m)
	}
}
