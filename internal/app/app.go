// Package app contains application bootstrap
package app

import (
	"go.uber.org/fx"

	"github.com/clipfetch/clipfetch/config"
	"github.com/clipfetch/clipfetch/internal/domain"
	"github.com/clipfetch/clipfetch/internal/infrastructure"
)

// CreateApp creates fx application with all modules
func CreateApp() fx.Option {
	return fx.Options(
		// Configuration
		fx.Provide(config.Out),

		// Infrastructure (logger, telegram bot, yt-dlp client)
		infrastructure.Module,

		// Domain (media pipeline)
		domain.Module,
	)
}
