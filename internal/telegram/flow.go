package telegram

import (
	"context"
	"errors"
	"html"
	"os"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"linketron/internal/credentials"
	"linketron/internal/imagery"
	"linketron/internal/language"
	"linketron/internal/linkedin"
	"linketron/internal/logging"
	"linketron/internal/pipeline"
	"linketron/internal/research"
	"linketron/internal/session"
	"linketron/internal/storage"
	"linketron/internal/writer"
)

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if cb.From == nil || cb.Message == nil {
		return
	}
	chatID := cb.Message.Chat.ID
	messageID := cb.Message.MessageID
	userID := cb.From.ID
	data := cb.Data

	switch {
	case strings.HasPrefix(data, approvePrefix), strings.HasPrefix(data, denyPrefix):
		b.handleAccessDecision(cb)
		return
	case !b.allowed(userID):
		b.answerCallback(cb, "Нет доступа")
		return
	}
	b.answerCallback(cb, "")

	switch {
	case data == cbModeStory:
		b.chooseMode(chatID, messageID, session.ModeStory)
	case data == cbModeGenerator:
		b.chooseMode(chatID, messageID, session.ModeResearch)
	case strings.HasPrefix(data, cbLangPrefix):
		b.chooseLanguage(chatID, messageID, strings.TrimPrefix(data, cbLangPrefix))
	case data == research.CustomLensKey:
		b.sessions.Update(chatID, func(s *session.Session) {
			s.Mode = session.ModeResearch
			s.State = session.StateAwaitingCustomTopic
			s.Lens = research.CustomLensKey
		})
		b.sendWithMarkup(chatID, textCustomTopic, kb(backMenu()))
	case strings.HasPrefix(data, cbLensPrefix):
		b.runBriefing(ctx, chatID, userID, data, "")
	case data == cbBackToRoot:
		b.sessions.Update(chatID, func(s *session.Session) {
			s.State = session.StateIdle
			s.Mode = session.ModeNone
			s.Card = nil
			s.AuthState = ""
		})
		b.editMessage(chatID, messageID, textRoot, kb(rootMenu()))
	case data == cbVisualWeb, data == cbVisualAI, data == cbVisualUpload, data == cbVisualSkip:
		b.chooseVisual(ctx, chatID, messageID, userID, data)
	case data == cbPublish:
		b.publish(ctx, chatID, userID)
	case data == cbCancel:
		b.clearMarkup(chatID, messageID)
		b.sessions.Reset(chatID)
		b.sendMessage(chatID, textCancelled)
	case data == cbAuthConnect:
		b.startAuth(chatID, messageID)
	case data == cbLogout:
		b.logout(ctx, chatID, messageID, userID)
	default:
		b.logger.Warn("unknown callback", logging.UserID(userID), zap.String("data", data))
	}
}

func (b *Bot) handleAccessDecision(cb *tgbotapi.CallbackQuery) {
	if !b.isAdmin(cb.From.ID) {
		b.answerCallback(cb, "Только для администратора")
		return
	}
	approve := strings.HasPrefix(cb.Data, approvePrefix)
	raw := strings.TrimPrefix(strings.TrimPrefix(cb.Data, approvePrefix), denyPrefix)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		b.answerCallback(cb, "Неверный id")
		return
	}
	chatID, messageID := cb.Message.Chat.ID, cb.Message.MessageID
	if approve {
		if _, err := b.approveUser(id); err != nil {
			b.answerCallback(cb, "Ошибка")
			b.logger.Error("approve failed", logging.UserID(id), zap.Error(err))
			return
		}
		b.answerCallback(cb, "Разрешено")
		b.editMessage(chatID, messageID, "Пользователь "+raw+" добавлен", nil)
		return
	}
	if err := b.denyUser(id); err != nil {
		b.answerCallback(cb, "Ошибка")
		b.logger.Error("deny failed", logging.UserID(id), zap.Error(err))
		return
	}
	b.answerCallback(cb, "Отклонено")
	b.editMessage(chatID, messageID, "Заявка "+raw+" отклонена", nil)
}

// chooseMode starts a new cycle: the previous draft is dropped.
func (b *Bot) chooseMode(chatID int64, messageID int, mode session.Mode) {
	b.sessions.Update(chatID, func(s *session.Session) {
		s.ClearDraft()
		s.Card = nil
		s.Lens = ""
		s.Mode = mode
		s.State = session.StateChoosingLanguage
	})
	b.editMessage(chatID, messageID, textChooseLang, kb(languageMenu()))
}

func (b *Bot) chooseLanguage(chatID int64, messageID int, code string) {
	l := language.OrDefault(code)
	sess := b.sessions.Update(chatID, func(s *session.Session) {
		s.Language = l
		switch s.Mode {
		case session.ModeStory:
			s.State = session.StateAwaitingVoice
		default:
			s.State = session.StateIdle
		}
	})
	switch sess.Mode {
	case session.ModeStory:
		b.editMessage(chatID, messageID, textStory, kb(backMenu()))
	case session.ModeResearch:
		b.editMessage(chatID, messageID, textGenerator, kb(lensMenu(b.research.Catalog())))
	default:
		b.editMessage(chatID, messageID, languageSet(l)+"\n\n"+textRoot, kb(rootMenu()))
	}
}

// runBriefing researches a lens and shows the briefing card. A failed search
// leaves the session where it was.
func (b *Bot) runBriefing(ctx context.Context, chatID, userID int64, lensKey, customTopic string) {
	status := b.sendMessage(chatID, textInvestigating)

	rctx, cancel := b.withTimeout(ctx)
	card := b.research.Research(rctx, lensKey, customTopic)
	cancel()

	b.record(userID, storage.KindResearch, !card.Failed(), lensKey)
	if card.Failed() {
		b.logger.Warn("briefing failed", logging.UserID(userID), logging.Stage("research"), zap.String("lens", lensKey))
		b.editMessage(chatID, status, research.FormatCard(card), kb(lensMenu(b.research.Catalog())))
		return
	}

	b.sessions.Update(chatID, func(s *session.Session) {
		s.ClearDraft()
		c := card
		s.Card = &c
		s.Lens = lensKey
		s.Mode = session.ModeResearch
		s.State = session.StateAwaitingReaction
	})
	b.deleteMessage(chatID, status)
	b.sendMessage(chatID, research.FormatCard(card))
}

// processVoice drafts a post from a voice note (fileID) or typed text. In
// awaiting_reaction the stored card selects the research path.
func (b *Bot) processVoice(ctx context.Context, chatID, userID int64, sess session.Session, fileID, text string) {
	statusText := textWriting
	if fileID != "" {
		statusText = textTranscribing
	}
	status := b.sendMessage(chatID, statusText)

	in := pipeline.Input{UserID: userID, Text: text, Language: sess.Language}
	if sess.State == session.StateAwaitingReaction && sess.Card != nil {
		in.Card = sess.Card
	}

	rctx, cancel := b.withTimeout(ctx)
	defer cancel()

	if fileID != "" {
		path, err := b.sessions.ArtifactPath(chatID, "voice_"+fileID+".ogg")
		if err == nil {
			err = b.download(rctx, fileID, path)
		}
		if err != nil {
			b.logger.Error("voice download failed", logging.UserID(userID), zap.Error(err))
			b.editMessage(chatID, status, "❌ <b>System Error:</b> "+html.EscapeString(err.Error()), nil)
			return
		}
		defer os.Remove(path)
		in.AudioPath = path
	}

	res := b.pipeline.Run(rctx, in)
	b.record(userID, storage.KindDraft, !res.Failed(), res.Status.String())
	if res.Failed() {
		b.editMessage(chatID, status, "❌ <b>Writer Error:</b> "+html.EscapeString(res.Post.Text), nil)
		return
	}

	post := res.Post
	b.sessions.Update(chatID, func(s *session.Session) {
		s.ClearDraft()
		s.Draft = &post
		s.Card = nil
		s.State = session.StateAwaitingVisualChoice
	})
	b.deleteMessage(chatID, status)
	b.sendWithMarkup(chatID, draftCreated(post), kb(visualMenu()))
}

func (b *Bot) chooseVisual(ctx context.Context, chatID int64, messageID int, userID int64, choice string) {
	sess := b.sessions.Get(chatID)
	if sess.State != session.StateAwaitingVisualChoice || !sess.HasDraft() {
		b.sendWithMarkup(chatID, textStaleDraft, kb(rootMenu()))
		return
	}
	draft := *sess.Draft

	switch choice {
	case cbVisualSkip:
		b.sessions.Update(chatID, func(s *session.Session) {
			s.ImagePath = ""
			s.ImageNote = ""
		})
		b.editMessage(chatID, messageID, preview(draft, "👇 <i>Ready to Post.</i>"), kb(publishMenu()))
	case cbVisualUpload:
		b.sessions.Update(chatID, func(s *session.Session) { s.State = session.StateAwaitingUpload })
		b.editMessage(chatID, messageID, textUploadMode, nil)
	case cbVisualWeb:
		b.editMessage(chatID, messageID, textSearching, nil)
		b.attachWebImage(ctx, chatID, userID, draft)
		b.deleteMessage(chatID, messageID)
	case cbVisualAI:
		b.editMessage(chatID, messageID, textDirector, nil)
		b.attachGeneratedImage(ctx, chatID, userID, draft)
		b.deleteMessage(chatID, messageID)
	}
}

func (b *Bot) attachWebImage(ctx context.Context, chatID, userID int64, draft writer.Post) {
	rctx, cancel := b.withTimeout(ctx)
	defer cancel()

	res := imagery.WebResult{Query: "", Err: errors.New("web image search is not configured")}
	if b.web != nil {
		res = b.web.Find(rctx, draft.Text)
	}
	footer := "📷 <i>Image Source:</i> " + html.EscapeString(res.Query)
	if !res.Found() {
		b.record(userID, storage.KindImage, false, "web: "+errText(res.Err))
		b.sendWithMarkup(chatID, "⚠️ <b>No Image Found.</b> Sending text only.\n\n"+preview(draft, footer), kb(publishMenu()))
		return
	}

	path, err := b.sessions.ArtifactPath(chatID, "web_image.jpg")
	if err == nil {
		err = imagery.Download(rctx, b.http, res.URL, path)
	}
	if err == nil {
		err = b.sendPhoto(chatID, path)
	}
	b.record(userID, storage.KindImage, err == nil, "web: "+res.Query)
	if err != nil {
		b.logger.Warn("web image failed", logging.UserID(userID), logging.Stage("image"), zap.String("url", res.URL), zap.Error(err))
		b.sendWithMarkup(chatID, "⚠️ <b>Image Error.</b> Text below:\n\n"+preview(draft, footer), kb(publishMenu()))
		return
	}
	b.sessions.Update(chatID, func(s *session.Session) {
		s.ImagePath = path
		s.ImageNote = res.Query
	})
	b.sendWithMarkup(chatID, preview(draft, footer), kb(publishMenu()))
}

func (b *Bot) attachGeneratedImage(ctx context.Context, chatID, userID int64, draft writer.Post) {
	rctx, cancel := b.withTimeout(ctx)
	defer cancel()

	res := imagery.GenResult{Reason: "image generation is not configured"}
	path, err := b.sessions.ArtifactPath(chatID, "generated.png")
	if err != nil {
		res.Reason = err.Error()
	} else if b.generator != nil {
		res = b.generator.Generate(rctx, draft.Text, path)
	}
	if res.OK() {
		if err := b.sendPhoto(chatID, res.Path); err != nil {
			b.logger.Warn("send generated image failed", logging.UserID(userID), zap.Error(err))
		}
	}
	b.record(userID, storage.KindImage, res.OK(), "ai: "+res.Subject+res.Reason)

	footer := "🎨 <i>AI Concept:</i> " + html.EscapeString(res.Subject)
	if !res.OK() {
		b.sendWithMarkup(chatID, "⚠️ <b>Generation Failed:</b> "+html.EscapeString(res.Reason)+"\n\n"+preview(draft, footer), kb(publishMenu()))
		return
	}
	b.sessions.Update(chatID, func(s *session.Session) {
		s.ImagePath = res.Path
		s.ImageNote = res.Subject
	})
	b.sendWithMarkup(chatID, preview(draft, footer), kb(publishMenu()))
}

func (b *Bot) processUpload(ctx context.Context, chatID, userID int64, sess session.Session, fileID string) {
	if !sess.HasDraft() {
		b.sendWithMarkup(chatID, textStaleDraft, kb(rootMenu()))
		return
	}
	rctx, cancel := b.withTimeout(ctx)
	defer cancel()

	path, err := b.sessions.ArtifactPath(chatID, "upload.jpg")
	if err == nil {
		err = b.download(rctx, fileID, path)
	}
	b.record(userID, storage.KindImage, err == nil, "upload")
	if err != nil {
		b.logger.Error("photo download failed", logging.UserID(userID), zap.Error(err))
		b.sendMessage(chatID, "⚠️ <b>Image Error:</b> "+html.EscapeString(err.Error())+"\nTry again or send /cancel.")
		return
	}
	b.sessions.Update(chatID, func(s *session.Session) {
		s.ImagePath = path
		s.ImageNote = "User Upload"
		s.State = session.StateAwaitingVisualChoice
	})
	if _, err := b.s.Send(tgbotapi.NewPhoto(chatID, tgbotapi.FileID(fileID))); err != nil {
		b.logger.Warn("echo upload failed", logging.UserID(userID), zap.Error(err))
	}
	b.sendWithMarkup(chatID, preview(*sess.Draft, "📷 <i>Image Source:</i> User Upload"), kb(publishMenu()))
}

// publish sends the live draft. The draft survives a failed attempt so the
// user can press publish again.
func (b *Bot) publish(ctx context.Context, chatID, userID int64) {
	sess := b.sessions.Get(chatID)
	if !sess.HasDraft() {
		b.sendWithMarkup(chatID, textStaleDraft, kb(rootMenu()))
		return
	}
	rec, ok, err := credentials.Lookup(ctx, b.creds, userID)
	if err != nil {
		b.logger.Error("credential lookup failed", logging.UserID(userID), zap.Error(err))
	}
	if !ok {
		b.sendWithMarkup(chatID, textNeedLogin, kb(loginMenu()))
		return
	}

	status := b.sendMessage(chatID, textConnecting)
	rctx, cancel := b.withTimeout(ctx)
	postID, err := b.publisher.Publish(rctx, rec, sess.Draft.Text, sess.ImagePath)
	cancel()
	b.record(userID, storage.KindPublish, err == nil, postID)

	if err != nil {
		b.logger.Error("publish failed", logging.UserID(userID), logging.Stage("publish"), zap.Error(err))
		var apiErr *linkedin.APIError
		if errors.As(err, &apiErr) {
			b.editMessage(chatID, status, "❌ LinkedIn API Error: "+html.EscapeString(apiErr.Body), kb(publishMenu()))
			return
		}
		b.editMessage(chatID, status, "⚠️ Publish Failed: "+html.EscapeString(err.Error()), kb(publishMenu()))
		return
	}
	b.logger.Info("published", logging.UserID(userID), logging.Stage("publish"), zap.String("post_id", postID))
	b.editMessage(chatID, status, "✅ <b>Published Successfully!</b>\nID: "+html.EscapeString(postID), nil)
	b.sessions.Reset(chatID)
}

func errText(err error) string {
	if err == nil {
		return "no results"
	}
	return err.Error()
}
