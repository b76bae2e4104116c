// Package telegram is the chat front end: it walks each chat through
// mode → language → (research) → voice → draft → visual → publish.
package telegram

import (
	"context"
	"fmt"
	"html"
	"net/http"
	"regexp"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"linketron/internal/auth"
	"linketron/internal/credentials"
	"linketron/internal/imagery"
	"linketron/internal/linkedin"
	"linketron/internal/logging"
	"linketron/internal/pipeline"
	"linketron/internal/research"
	"linketron/internal/session"
	"linketron/internal/storage"
)

// Options carries the collaborators the bot drives. WebImages, Generator and
// Journal may be nil; the matching features then report themselves unavailable.
type Options struct {
	Auth        *auth.Service
	Sessions    *session.Manager
	Researcher  *research.Researcher
	Pipeline    *pipeline.Pipeline
	WebImages   *imagery.WebFinder
	Generator   *imagery.Generator
	OAuth       *linkedin.OAuth
	Publisher   *linkedin.Publisher
	Credentials credentials.Repository
	Journal     storage.Recorder
	HTTPClient  *http.Client
	ParseMode   string
	Timeout     time.Duration
	Logger      *zap.Logger
}

type Bot struct {
	api       *tgbotapi.BotAPI
	s         sender
	authSvc   *auth.Service
	sessions  *session.Manager
	research  *research.Researcher
	pipeline  *pipeline.Pipeline
	web       *imagery.WebFinder
	generator *imagery.Generator
	oauth     *linkedin.OAuth
	publisher *linkedin.Publisher
	creds     credentials.Repository
	journal   storage.Recorder
	http      *http.Client
	parseMode string
	timeout   time.Duration
	logger    *zap.Logger

	// download saves a Telegram file to dest; replaced in tests.
	download func(ctx context.Context, fileID, dest string) error
	nowUTC   func() time.Time

	wg sync.WaitGroup
}

func New(botToken string, opts Options) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, err
	}
	b := newBot(botAPISender{api: api}, opts)
	b.api = api
	return b, nil
}

func newBot(s sender, opts Options) *Bot {
	if opts.Sessions == nil {
		opts.Sessions = session.NewManager("")
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: opts.Timeout}
	}
	b := &Bot{
		s:         s,
		authSvc:   opts.Auth,
		sessions:  opts.Sessions,
		research:  opts.Researcher,
		pipeline:  opts.Pipeline,
		web:       opts.WebImages,
		generator: opts.Generator,
		oauth:     opts.OAuth,
		publisher: opts.Publisher,
		creds:     opts.Credentials,
		journal:   opts.Journal,
		http:      opts.HTTPClient,
		parseMode: opts.ParseMode,
		timeout:   opts.Timeout,
		logger:    logging.OrNop(opts.Logger),
		nowUTC:    func() time.Time { return time.Now().UTC() },
	}
	b.download = b.downloadFile
	return b
}

// Start polls for updates until ctx is done. Each update runs in its own
// goroutine; updates of one chat are serialized by the session lock.
func (b *Bot) Start(ctx context.Context) {
	if b.api == nil {
		return
	}
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.wg.Wait()
			return
		case update, ok := <-updates:
			if !ok {
				b.wg.Wait()
				return
			}
			b.wg.Add(1)
			go func() {
				defer b.wg.Done()
				b.handleUpdate(ctx, update)
			}()
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	chatID := chatOf(update)
	if chatID == 0 {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("handler panic", zap.Int64("chat_id", chatID), zap.Any("panic", r), zap.Stack("stack"))
		}
	}()

	unlock := b.sessions.Lock(chatID)
	defer unlock()

	switch {
	case update.Message != nil:
		b.handleIncomingMessage(ctx, update.Message)
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	}
}

func chatOf(update tgbotapi.Update) int64 {
	switch {
	case update.Message != nil && update.Message.Chat != nil:
		return update.Message.Chat.ID
	case update.CallbackQuery != nil && update.CallbackQuery.Message != nil && update.CallbackQuery.Message.Chat != nil:
		return update.CallbackQuery.Message.Chat.ID
	}
	return 0
}

// withTimeout bounds one outbound stage by REQUEST_TIMEOUT.
func (b *Bot) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if b.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, b.timeout)
}

func (b *Bot) record(userID int64, kind storage.Kind, ok bool, detail string) {
	if b.journal == nil {
		return
	}
	if err := b.journal.Append(storage.NewEvent(userID, kind, ok, detail)); err != nil {
		b.logger.Warn("journal append failed", logging.UserID(userID), zap.Error(err))
	}
}

func (b *Bot) downloadFile(ctx context.Context, fileID, dest string) error {
	url, err := b.s.GetFileDirectURL(fileID)
	if err != nil {
		return fmt.Errorf("get file: %w", err)
	}
	return imagery.Download(ctx, b.http, url, dest)
}

// --- sending ---

var tagPattern = regexp.MustCompile(`</?[a-z]+[^>]*>`)

func (b *Bot) parseModeValue() string {
	if strings.EqualFold(b.parseMode, tgbotapi.ModeHTML) || b.parseMode == "" {
		return tgbotapi.ModeHTML
	}
	return ""
}

// render drops the HTML markup when the bot runs without a parse mode.
func (b *Bot) render(text string) string {
	if b.parseModeValue() == tgbotapi.ModeHTML {
		return text
	}
	return html.UnescapeString(tagPattern.ReplaceAllString(text, ""))
}

func (b *Bot) sendMessage(chatID int64, text string) int {
	return b.sendWithMarkup(chatID, text, nil)
}

// sendWithMarkup returns the sent message id, or 0 when sending failed.
func (b *Bot) sendWithMarkup(chatID int64, text string, markup *tgbotapi.InlineKeyboardMarkup) int {
	msg := tgbotapi.NewMessage(chatID, b.render(text))
	msg.ParseMode = b.parseModeValue()
	msg.DisableWebPagePreview = true
	if markup != nil {
		msg.ReplyMarkup = *markup
	}
	sent, err := b.s.Send(msg)
	if err != nil {
		b.logger.Warn("failed to send message", zap.Int64("chat_id", chatID), zap.Error(err))
		return 0
	}
	return sent.MessageID
}

func (b *Bot) editMessage(chatID int64, messageID int, text string, markup *tgbotapi.InlineKeyboardMarkup) {
	if messageID == 0 {
		b.sendWithMarkup(chatID, text, markup)
		return
	}
	edit := tgbotapi.NewEditMessageText(chatID, messageID, b.render(text))
	edit.ParseMode = b.parseModeValue()
	edit.DisableWebPagePreview = true
	edit.ReplyMarkup = markup
	if _, err := b.s.Send(edit); err != nil {
		b.logger.Warn("failed to edit message", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (b *Bot) deleteMessage(chatID int64, messageID int) {
	if messageID == 0 {
		return
	}
	if _, err := b.s.Request(tgbotapi.NewDeleteMessage(chatID, messageID)); err != nil {
		b.logger.Debug("failed to delete message", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (b *Bot) clearMarkup(chatID int64, messageID int) {
	if messageID == 0 {
		return
	}
	empty := tgbotapi.InlineKeyboardMarkup{InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{}}
	if _, err := b.s.Request(tgbotapi.NewEditMessageReplyMarkup(chatID, messageID, empty)); err != nil {
		b.logger.Debug("failed to clear markup", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (b *Bot) sendPhoto(chatID int64, path string) error {
	_, err := b.s.Send(tgbotapi.NewPhoto(chatID, tgbotapi.FilePath(path)))
	return err
}

func (b *Bot) answerCallback(cb *tgbotapi.CallbackQuery, text string) {
	if _, err := b.s.Request(tgbotapi.NewCallback(cb.ID, text)); err != nil {
		b.logger.Debug("failed to answer callback", zap.Error(err))
	}
}

func kb(m tgbotapi.InlineKeyboardMarkup) *tgbotapi.InlineKeyboardMarkup { return &m }
