// Package telegram contains Telegram delivery handlers
package telegram

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/rs/zerolog"

	"github.com/clipfetch/clipfetch/internal/domain/media/consts"
	"github.com/clipfetch/clipfetch/internal/domain/media/entities"
	"github.com/clipfetch/clipfetch/internal/domain/media/session"
	"github.com/clipfetch/clipfetch/internal/domain/media/usecase/pipeline"
)

// Constants for Telegram API
const (
	MaxCaptionLength   = 1024
	MaxAudioTagLength  = 64
	RequestTimeout     = 30 * time.Second
	DefaultUploadLimit = 2 * time.Minute
)

// Handlers contains Telegram command, message and callback handlers.
// Implements deps.StatusSender for the pipeline.
type Handlers struct {
	pipeline      *pipeline.Pipeline
	sessions      *session.Store
	bot           *tgbot.Bot
	logger        zerolog.Logger
	uploadTimeout time.Duration
}

// NewHandlers creates new Telegram handlers
func NewHandlers(p *pipeline.Pipeline, sessions *session.Store, bot *tgbot.Bot, uploadTimeout time.Duration, logger zerolog.Logger) *Handlers {
	if uploadTimeout <= 0 {
		uploadTimeout = DefaultUploadLimit
	}
	return &Handlers{
		pipeline:      p,
		sessions:      sessions,
		bot:           bot,
		logger:        logger,
		uploadTimeout: uploadTimeout,
	}
}

// HandleStart handles /start command
func (h *Handlers) HandleStart(ctx context.Context, bot *tgbot.Bot, update *models.Update) {
	userID := update.Message.From.ID
	chatID := update.Message.Chat.ID

	h.logCommand(userID, "/start", "processing")

	message := "👋 Hi! Send me a YouTube link and I will fetch the video, the audio, or both for you.\n\n" +
		"Files up to 50 MB can be delivered. Type /help for details."

	h.sendResponse(ctx, chatID, message)
	h.logCommand(userID, "/start", "success")
}

// HandleHelp handles /help command
func (h *Handlers) HandleHelp(ctx context.Context, bot *tgbot.Bot, update *models.Update) {
	userID := update.Message.From.ID
	chatID := update.Message.Chat.ID

	h.logCommand(userID, "/help", "processing")

	message := "📚 How to use this bot:\n\n" +
		"1. Send a YouTube link (youtube.com or youtu.be).\n" +
		"2. Pick 🎬 Video, 🎵 Audio, or 📦 Both.\n" +
		"3. Wait for the upload.\n\n" +
		"Limits:\n" +
		"• Telegram only accepts uploads up to 50 MB, larger media is rejected before downloading.\n" +
		"• Age-restricted or private media needs a cookies.txt credential file next to the bot."

	h.sendResponse(ctx, chatID, message)
	h.logCommand(userID, "/help", "success")
}

// HandleLink handles free-text messages that look like media links. The URL
// is parked in the session until the user picks a media kind.
func (h *Handlers) HandleLink(ctx context.Context, bot *tgbot.Bot, update *models.Update) {
	userID := update.Message.From.ID
	chatID := update.Message.Chat.ID
	text := strings.TrimSpace(update.Message.Text)

	if !IsSupportedURL(text) {
		h.sendResponse(ctx, chatID, "🤔 That does not look like a link I can handle. Send a YouTube link, or /help.")
		return
	}

	h.sessions.Put(chatID, userID, text)
	h.logger.Info().Int64("user_id", userID).Int64("chat_id", chatID).Msg("Link accepted, awaiting kind selection")

	kb := &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{
				{Text: "🎬 Video", CallbackData: consts.CallbackVideo},
				{Text: "🎵 Audio", CallbackData: consts.CallbackAudio},
			},
			{
				{Text: "📦 Both", CallbackData: consts.CallbackBoth},
			},
		},
	}

	msgCtx, cancel := context.WithTimeout(ctx, RequestTimeout)
	defer cancel()

	_, err := h.bot.SendMessage(msgCtx, &tgbot.SendMessageParams{
		ChatID:      chatID,
		Text:        "What would you like me to fetch?",
		ReplyMarkup: kb,
	})
	if err != nil {
		h.logger.Error().Int64("chat_id", chatID).Err(err).Msg("Failed to send kind selection keyboard")
	}
}

// HandleDownloadCallback handles the inline button press and drives the
// pipeline to a terminal state
func (h *Handlers) HandleDownloadCallback(ctx context.Context, bot *tgbot.Bot, update *models.Update) {
	cb := update.CallbackQuery
	if cb == nil {
		return
	}

	// Acknowledge the button press so the client stops its spinner
	msgCtx, cancel := context.WithTimeout(ctx, RequestTimeout)
	_, err := h.bot.AnswerCallbackQuery(msgCtx, &tgbot.AnswerCallbackQueryParams{
		CallbackQueryID: cb.ID,
	})
	cancel()
	if err != nil {
		h.logger.Warn().Err(err).Msg("Failed to answer callback query")
	}

	userID := cb.From.ID
	chatID := userID
	if cb.Message.Message != nil {
		chatID = cb.Message.Message.Chat.ID
	}

	kind, ok := kindFromCallback(cb.Data)
	if !ok {
		h.logger.Warn().Str("data", cb.Data).Msg("Unknown callback payload")
		return
	}

	url, ok := h.sessions.Consume(chatID, userID)
	if !ok {
		h.sendResponse(ctx, chatID, "⏳ I no longer have your link. Please send it again.")
		return
	}

	req := &entities.MediaRequest{
		ChatID: chatID,
		UserID: userID,
		URL:    url,
		Kind:   kind,
	}

	outcomes := h.pipeline.Run(ctx, req)
	for _, o := range outcomes {
		h.logger.Info().
			Int64("user_id", userID).
			Str("kind", string(o.Kind)).
			Str("status", string(o.Status)).
			Msg("Pipeline run finished")
	}
}

// IsSupportedURL reports whether a message text contains a known media host
func IsSupportedURL(text string) bool {
	lower := strings.ToLower(text)
	for _, host := range consts.KnownHosts {
		if strings.Contains(lower, host) {
			return true
		}
	}
	return false
}

func kindFromCallback(data string) (entities.Kind, bool) {
	switch data {
	case consts.CallbackVideo:
		return entities.KindVideo, true
	case consts.CallbackAudio:
		return entities.KindAudio, true
	case consts.CallbackBoth:
		return entities.KindBoth, true
	default:
		return "", false
	}
}

// --- deps.StatusSender implementation ---

// SendStatus implements deps.StatusSender
func (h *Handlers) SendStatus(ctx context.Context, chatID int64, text string) (int, error) {
	msgCtx, cancel := context.WithTimeout(ctx, RequestTimeout)
	defer cancel()

	msg, err := h.bot.SendMessage(msgCtx, &tgbot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
	if err != nil {
		return 0, fmt.Errorf("send status: %w", err)
	}
	return msg.ID, nil
}

// EditStatus implements deps.StatusSender
func (h *Handlers) EditStatus(ctx context.Context, chatID int64, messageID int, text string) error {
	msgCtx, cancel := context.WithTimeout(ctx, RequestTimeout)
	defer cancel()

	_, err := h.bot.EditMessageText(msgCtx, &tgbot.EditMessageTextParams{
		ChatID:    chatID,
		MessageID: messageID,
		Text:      Truncate(text, MaxCaptionLength),
	})
	if err != nil {
		return fmt.Errorf("edit status: %w", err)
	}
	return nil
}

// DeleteStatus implements deps.StatusSender
func (h *Handlers) DeleteStatus(ctx context.Context, chatID int64, messageID int) error {
	msgCtx, cancel := context.WithTimeout(ctx, RequestTimeout)
	defer cancel()

	_, err := h.bot.DeleteMessage(msgCtx, &tgbot.DeleteMessageParams{
		ChatID:    chatID,
		MessageID: messageID,
	})
	if err != nil {
		return fmt.Errorf("delete status: %w", err)
	}
	return nil
}

// SendVideo implements deps.StatusSender, uploading a staged video file
func (h *Handlers) SendVideo(ctx context.Context, chatID int64, path, caption string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open staged video: %w", err)
	}
	defer f.Close()

	upCtx, cancel := context.WithTimeout(ctx, h.uploadTimeout)
	defer cancel()

	_, err = h.bot.SendVideo(upCtx, &tgbot.SendVideoParams{
		ChatID:            chatID,
		Video:             &models.InputFileUpload{Filename: filepath.Base(path), Data: f},
		Caption:           Truncate(caption, MaxCaptionLength),
		SupportsStreaming: true,
	})
	if err != nil {
		return fmt.Errorf("send video: %w", err)
	}

	h.logger.Info().Int64("chat_id", chatID).Str("path", path).Msg("Video uploaded")
	return nil
}

// SendAudio implements deps.StatusSender, uploading a staged audio file
func (h *Handlers) SendAudio(ctx context.Context, chatID int64, path, title, performer string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open staged audio: %w", err)
	}
	defer f.Close()

	upCtx, cancel := context.WithTimeout(ctx, h.uploadTimeout)
	defer cancel()

	_, err = h.bot.SendAudio(upCtx, &tgbot.SendAudioParams{
		ChatID:    chatID,
		Audio:     &models.InputFileUpload{Filename: filepath.Base(path), Data: f},
		Title:     Truncate(title, MaxAudioTagLength),
		Performer: Truncate(performer, MaxAudioTagLength),
	})
	if err != nil {
		return fmt.Errorf("send audio: %w", err)
	}

	h.logger.Info().Int64("chat_id", chatID).Str("path", path).Msg("Audio uploaded")
	return nil
}

// Truncate caps a string at max runes, appending an ellipsis when cut
func Truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 1 {
		return string(runes[:max])
	}
	return string(runes[:max-1]) + "…"
}

func (h *Handlers) sendResponse(ctx context.Context, chatID int64, text string) {
	msgCtx, cancel := context.WithTimeout(ctx, RequestTimeout)
	defer cancel()

	_, err := h.bot.SendMessage(msgCtx, &tgbot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
	if err != nil {
		h.logger.Error().Int64("chat_id", chatID).Err(err).Msg("Failed to send Telegram response")
	}
}

// logCommand logs processed commands
func (h *Handlers) logCommand(userID int64, command, result string) {
	h.logger.Info().Int64("user_id", userID).Str("command", command).Str("result", result).Msg("Telegram command processed")
}
