// Package telegram adapts Telegram Bot API updates to conversation engine
// events and renders engine effects back into Telegram messages.
package telegram

import (
	"context"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/rksstudio/detailbot/internal/domain"
	"github.com/rksstudio/detailbot/internal/engine"
	"github.com/rksstudio/detailbot/internal/metrics"
	"github.com/rksstudio/detailbot/internal/ratelimit"
	"github.com/rksstudio/detailbot/internal/service"
	"github.com/rksstudio/detailbot/internal/session"
)

// Handler runs the long-poll loop and drives the conversation engine.
type Handler struct {
	api         *tgbotapi.BotAPI
	engine      *engine.Engine
	sessions    *session.Store
	leads       *service.LeadService
	limiter     *ratelimit.Limiter
	metrics     *metrics.Metrics
	logger      *zap.Logger
	pollTimeout int
}

// NewHandler creates a new Handler.
func NewHandler(
	api *tgbotapi.BotAPI,
	eng *engine.Engine,
	sessions *session.Store,
	leads *service.LeadService,
	limiter *ratelimit.Limiter,
	m *metrics.Metrics,
	logger *zap.Logger,
	pollTimeout int,
) *Handler {
	if pollTimeout <= 0 {
		pollTimeout = 30
	}
	return &Handler{
		api:         api,
		engine:      eng,
		sessions:    sessions,
		leads:       leads,
		limiter:     limiter,
		metrics:     m,
		logger:      logger,
		pollTimeout: pollTimeout,
	}
}

// Run polls for updates until the context is cancelled. It returns after
// the update channel is drained.
func (h *Handler) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = h.pollTimeout
	updates := h.api.GetUpdatesChan(u)

	h.logger.Info("telegram poller started",
		zap.String("bot", h.api.Self.UserName),
		zap.Int("poll_timeout", h.pollTimeout),
	)

	for {
		select {
		case <-ctx.Done():
			h.api.StopReceivingUpdates()
			// Drain what the library already buffered.
			for range updates {
			}
			h.logger.Info("telegram poller stopped")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			h.handleUpdate(ctx, update)
		}
	}
}

// handleUpdate processes one update. A panic in the engine or renderer is
// contained here so the poll loop survives malformed updates.
func (h *Handler) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	start := time.Now()
	defer func() {
		h.metrics.HandleDuration.Observe(time.Since(start).Seconds())
		if r := recover(); r != nil {
			h.metrics.HandlerErrorsTotal.Inc()
			h.logger.Error("panic while handling update",
				zap.Int("update_id", update.UpdateID),
				zap.Any("panic", r),
			)
		}
	}()

	ev, chatID, username, ok := h.eventFor(update)
	if !ok {
		return
	}
	h.metrics.UpdatesTotal.WithLabelValues(string(ev.Kind)).Inc()

	if h.limiter != nil && !h.limiter.Allow(chatID) {
		h.metrics.UpdatesDropped.Inc()
		return
	}

	var result engine.Result
	err := h.sessions.Do(chatID, username, func(sess *domain.Session) error {
		result = h.engine.Handle(ctx, sess, ev)
		return nil
	})
	if err != nil {
		h.metrics.HandlerErrorsTotal.Inc()
		h.logger.Error("failed to handle update", zap.Int64("chat_id", chatID), zap.Error(err))
		return
	}
	h.metrics.SessionsActive.Set(float64(h.sessions.Active()))

	if update.CallbackQuery != nil {
		// Stop the client-side spinner regardless of the outcome.
		if _, err := h.api.Request(tgbotapi.NewCallback(update.CallbackQuery.ID, "")); err != nil {
			h.logger.Debug("failed to answer callback query", zap.Error(err))
		}
	}

	h.render(chatID, callbackMessageID(update), result.Effects)

	if result.Lead != nil {
		reached, err := h.leads.Submit(ctx, result.Lead)
		if err != nil {
			h.metrics.HandlerErrorsTotal.Inc()
			h.logger.Error("lead submission failed",
				zap.Int64("chat_id", chatID),
				zap.Error(err),
			)
			return
		}
		if reached == 0 {
			h.send(tgbotapi.NewMessage(chatID, engine.NoOperatorsText))
		}
	}
}

// eventFor maps a Telegram update onto an engine event. Updates the bot
// does not understand are dropped.
func (h *Handler) eventFor(update tgbotapi.Update) (ev engine.Event, chatID int64, username string, ok bool) {
	switch {
	case update.CallbackQuery != nil && update.CallbackQuery.Message != nil:
		cq := update.CallbackQuery
		return engine.Callback(cq.Data), cq.Message.Chat.ID, cq.From.UserName, true

	case update.Message != nil && update.Message.Contact != nil:
		msg := update.Message
		return engine.Contact(msg.Contact.PhoneNumber), msg.Chat.ID, msg.From.UserName, true

	case update.Message != nil && update.Message.IsCommand():
		msg := update.Message
		return engine.Command(msg.Command()), msg.Chat.ID, msg.From.UserName, true

	case update.Message != nil && update.Message.Text != "":
		msg := update.Message
		return engine.Text(msg.Text), msg.Chat.ID, msg.From.UserName, true
	}
	return engine.Event{}, 0, "", false
}

// callbackMessageID returns the ID of the message the pressed button is
// attached to, or 0 for non-callback updates.
func callbackMessageID(update tgbotapi.Update) int {
	if update.CallbackQuery != nil && update.CallbackQuery.Message != nil {
		return update.CallbackQuery.Message.MessageID
	}
	return 0
}

// render turns engine effects into Telegram API calls, in order.
func (h *Handler) render(chatID int64, messageID int, effects []engine.Effect) {
	for _, eff := range effects {
		if eff.EditKeyboard && eff.Keyboard != nil && messageID != 0 {
			markup := inlineMarkup(eff.Keyboard.Rows)
			edit := tgbotapi.NewEditMessageReplyMarkup(chatID, messageID, markup)
			if _, err := h.api.Request(edit); err != nil {
				h.logger.Warn("failed to edit keyboard",
					zap.Int64("chat_id", chatID),
					zap.Int("message_id", messageID),
					zap.Error(err),
				)
			}
			continue
		}

		msg := tgbotapi.NewMessage(chatID, eff.Text)
		if kb := eff.Keyboard; kb != nil {
			switch {
			case len(kb.Rows) > 0:
				msg.ReplyMarkup = inlineMarkup(kb.Rows)
			case kb.RequestContact:
				btn := tgbotapi.NewKeyboardButtonContact(kb.ContactLabel)
				reply := tgbotapi.NewReplyKeyboard(tgbotapi.NewKeyboardButtonRow(btn))
				reply.ResizeKeyboard = true
				reply.OneTimeKeyboard = true
				msg.ReplyMarkup = reply
			case kb.Remove:
				msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(true)
			}
		}
		h.send(msg)
	}
}

func (h *Handler) send(msg tgbotapi.MessageConfig) {
	if _, err := h.api.Send(msg); err != nil {
		h.logger.Warn("failed to send message",
			zap.Int64("chat_id", msg.ChatID),
			zap.Error(err),
		)
	}
}

func inlineMarkup(rows [][]engine.Button) tgbotapi.InlineKeyboardMarkup {
	out := make([][]tgbotapi.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(b.Label, b.Data))
		}
		out = append(out, buttons)
	}
	return tgbotapi.InlineKeyboardMarkup{InlineKeyboard: out}
}
