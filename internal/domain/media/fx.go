// Package media contains the media domain module
package media

import (
	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"github.com/clipfetch/clipfetch/config"
	telegramDelivery "github.com/clipfetch/clipfetch/internal/domain/media/delivery/telegram"
	"github.com/clipfetch/clipfetch/internal/domain/media/deps"
	"github.com/clipfetch/clipfetch/internal/domain/media/session"
	"github.com/clipfetch/clipfetch/internal/domain/media/usecase/pipeline"
	"github.com/clipfetch/clipfetch/internal/infrastructure/telegram"
	"github.com/clipfetch/clipfetch/internal/infrastructure/ytdlp"
)

// Module provides media domain components for fx dependency injection
var Module = fx.Module("media",
	fx.Provide(provideSessionStore),
	fx.Provide(provideExtractor),

	// UseCase
	fx.Provide(pipeline.NewPipeline),

	// Delivery - Telegram (needs raw bot from infrastructure)
	fx.Provide(provideTelegramHandlers),
	fx.Provide(telegramDelivery.NewRouter),

	// Wire cyclic dependency and register routes
	fx.Invoke(wireAndRegister),
)

// provideSessionStore creates the pending-link session store
func provideSessionStore(cfg *config.SessionConfig) *session.Store {
	return session.NewStore(cfg.TTL)
}

// provideExtractor exposes the yt-dlp client as the domain Extractor
func provideExtractor(client *ytdlp.Client) deps.Extractor {
	return client
}

// provideTelegramHandlers creates Telegram handlers with the raw bot
func provideTelegramHandlers(p *pipeline.Pipeline, sessions *session.Store, bot *telegram.Bot, cfg *config.TelegramConfig, logger zerolog.Logger) *telegramDelivery.Handlers {
	return telegramDelivery.NewHandlers(p, sessions, bot.Raw(), cfg.UploadTimeout, logger)
}

// wireAndRegister resolves the cyclic dependency and registers routes
func wireAndRegister(
	p *pipeline.Pipeline,
	handlers *telegramDelivery.Handlers,
	router *telegramDelivery.Router,
	bot *telegram.Bot,
) {
	// Handlers implements deps.StatusSender.
	// This resolves the cycle: Pipeline -> StatusSender <- Handlers -> Pipeline
	p.SetSender(handlers)

	router.RegisterRoutes(bot.Raw())
}
