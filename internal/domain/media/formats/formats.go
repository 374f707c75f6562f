// Package formats declares the stream format preference chains per media
// kind. A chain is an ordered list consumed by a single retry loop in the
// fetch step, most-preferred first; the last entry is a deliberately degraded
// selection for sources that block the primary format.
package formats

import (
	"fmt"
	"path/filepath"

	"github.com/clipfetch/clipfetch/internal/domain/media/entities"
)

// Format selection strings in yt-dlp's preference grammar
const (
	// VideoPrimary prefers a resolution-capped mp4+m4a combination, then any
	// mp4, then whatever the source calls best.
	VideoPrimary = "bestvideo[height<=1080][ext=mp4]+bestaudio[ext=m4a]/best[ext=mp4]/best"

	// VideoDegraded is the lowest-quality selection, used as the single
	// fallback when the primary is blocked.
	VideoDegraded = "worstvideo+worstaudio/worst"

	AudioPrimary  = "bestaudio[ext=m4a]/bestaudio"
	AudioDegraded = "worstaudio/worst"
)

// Chain is the format policy for one media kind
type Chain struct {
	// Probe is the selection used for the metadata-only query
	Probe string

	// Download is the ordered fetch preference list, most-preferred first
	Download []string
}

// ChainFor returns the format chain for a media kind. KindBoth has no chain
// of its own; the pipeline splits it into video and audio legs first.
func ChainFor(kind entities.Kind) Chain {
	switch kind {
	case entities.KindAudio:
		return Chain{
			Probe:    AudioPrimary,
			Download: []string{AudioPrimary, AudioDegraded},
		}
	default:
		return Chain{
			Probe:    VideoPrimary,
			Download: []string{VideoPrimary, VideoDegraded},
		}
	}
}

// OutputTemplate builds the staging path template for a fetch. The content ID
// plus the kind suffix keeps concurrent video and audio fetches of the same
// URL from colliding.
func OutputTemplate(dir, contentID string, kind entities.Kind) string {
	return filepath.Join(dir, fmt.Sprintf("%s.%s.%%(ext)s", contentID, kind.Suffix()))
}
