// Package deps contains interface definitions for the media domain dependencies
package deps

import (
	"context"

	"github.com/clipfetch/clipfetch/internal/domain/media/entities"
)

// Extractor defines the media extraction capability consumed by the pipeline.
// Probe must not transfer media bytes; Download stages the media locally and
// hands ownership of the file to the caller.
type Extractor interface {
	// Probe runs a metadata-only query for the given format selection
	Probe(ctx context.Context, url, format string) (*entities.MediaMetadata, error)

	// Download fetches media into the output template and returns the staged
	// file path
	Download(ctx context.Context, url, format, outputTemplate string) (string, error)
}

// StatusSender defines the chat transport operations the pipeline needs.
// This interface breaks the cyclic dependency between the pipeline and the
// Telegram handlers that implement it.
type StatusSender interface {
	// SendStatus sends a new status message and returns its message ID
	SendStatus(ctx context.Context, chatID int64, text string) (int, error)

	// EditStatus rewrites an existing status message in place
	EditStatus(ctx context.Context, chatID int64, messageID int, text string) error

	// DeleteStatus removes a status message
	DeleteStatus(ctx context.Context, chatID int64, messageID int) error

	// SendVideo uploads a staged video file with a caption
	SendVideo(ctx context.Context, chatID int64, path, caption string) error

	// SendAudio uploads a staged audio file with title and performer
	SendAudio(ctx context.Context, chatID int64, path, title, performer string) error
}
