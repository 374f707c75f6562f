// Package ytdlp wraps the yt-dlp binary
package ytdlp

import (
	"go.uber.org/fx"
)

// Module provides the yt-dlp client for fx dependency injection
var Module = fx.Module("ytdlp",
	fx.Provide(NewClient),
)
