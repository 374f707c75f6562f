// Package telegram contains Telegram delivery layer
package telegram

import (
	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/rs/zerolog"

	"github.com/clipfetch/clipfetch/internal/domain/media/consts"
)

// Router registers Telegram bot handlers
type Router struct {
	handlers *Handlers
	logger   zerolog.Logger
}

// NewRouter creates new Telegram router
func NewRouter(handlers *Handlers, logger zerolog.Logger) *Router {
	return &Router{
		handlers: handlers,
		logger:   logger,
	}
}

// RegisterRoutes registers all command, message and callback handlers on the bot
func (r *Router) RegisterRoutes(bot *tgbot.Bot) {
	bot.RegisterHandler(tgbot.HandlerTypeMessageText, "/"+consts.CommandStart.Name, tgbot.MatchTypeExact, r.handlers.HandleStart)
	bot.RegisterHandler(tgbot.HandlerTypeMessageText, "/"+consts.CommandHelp.Name, tgbot.MatchTypeExact, r.handlers.HandleHelp)

	// Inline keyboard button presses
	bot.RegisterHandler(tgbot.HandlerTypeCallbackQueryData, consts.CallbackPrefix, tgbot.MatchTypePrefix, r.handlers.HandleDownloadCallback)

	// Any plain text message is a candidate link
	bot.RegisterHandlerMatchFunc(isPlainTextMessage, r.handlers.HandleLink)

	r.logger.Info().Msg("All Telegram handlers registered successfully")
}

// isPlainTextMessage matches non-command text messages
func isPlainTextMessage(update *models.Update) bool {
	if update.Message == nil || update.Message.Text == "" {
		return false
	}
	return update.Message.Text[0] != '/'
}
