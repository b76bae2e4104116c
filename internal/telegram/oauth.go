package telegram

import (
	"context"
	"errors"
	"html"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"linketron/internal/credentials"
	"linketron/internal/linkedin"
	"linketron/internal/logging"
	"linketron/internal/session"
	"linketron/internal/storage"
)

// startAuth issues a fresh state token and shows the consent link. The user
// then pastes the code (or the redirect address) into the chat, or the side
// server's callback completes the login directly.
func (b *Bot) startAuth(chatID int64, messageID int) {
	if b.oauth == nil || !b.oauth.Configured() {
		b.editMessage(chatID, messageID, textNoOAuth, kb(loginMenu()))
		return
	}
	state := uuid.NewString()
	b.sessions.Update(chatID, func(s *session.Session) {
		s.AuthState = state
		s.State = session.StateAwaitingAuthCode
	})
	b.editMessage(chatID, messageID, authPrompt(), kb(authURLMenu(b.oauth.AuthURL(state))))
}

func (b *Bot) finishAuth(ctx context.Context, chatID, userID int64, sess session.Session, input string) {
	if err := b.exchangeAndStore(ctx, userID, input, sess.AuthState); err != nil {
		msg := "❌ <b>Login Failed.</b> " + html.EscapeString(err.Error())
		if errors.Is(err, linkedin.ErrNoCode) {
			// keep waiting: the user may have pasted something else by mistake
			b.sendMessage(chatID, msg+"\nPaste the code or the full address.")
			return
		}
		b.sessions.Update(chatID, func(s *session.Session) {
			s.AuthState = ""
			s.State = session.StateIdle
		})
		b.sendWithMarkup(chatID, msg, kb(loginMenu()))
		return
	}
	b.sessions.Update(chatID, func(s *session.Session) {
		s.AuthState = ""
		s.State = session.StateIdle
	})
	b.sendWithMarkup(chatID, textLoginOK, kb(rootMenu()))
}

func (b *Bot) exchangeAndStore(ctx context.Context, userID int64, input, state string) error {
	rctx, cancel := b.withTimeout(ctx)
	defer cancel()

	rec, err := b.oauth.Exchange(rctx, input, state)
	if err == nil {
		err = b.creds.Put(rctx, userID, rec)
	}
	b.record(userID, storage.KindAuth, err == nil, "connect")
	if err != nil {
		b.logger.Warn("linkedin login failed", logging.UserID(userID), zap.Error(err))
		return err
	}
	b.logger.Info("linkedin connected", logging.UserID(userID), zap.String("token", credentials.Mask(rec.AccessToken)))
	return nil
}

// CompleteAuth finishes a login started in chat when LinkedIn redirects to
// the side server. It reports false when no chat is waiting for state.
// Bot chats are private, so the chat id is the user id.
func (b *Bot) CompleteAuth(ctx context.Context, state, code string) (bool, error) {
	if state == "" || b.oauth == nil {
		return false, nil
	}
	chatID, ok := b.sessions.FindByAuthState(state)
	if !ok {
		return false, nil
	}
	unlock := b.sessions.Lock(chatID)
	defer unlock()

	// the chat may have moved on while we waited for the lock
	sess := b.sessions.Get(chatID)
	if sess.State != session.StateAwaitingAuthCode || sess.AuthState != state {
		return false, nil
	}
	if err := b.exchangeAndStore(ctx, chatID, code, state); err != nil {
		b.sendWithMarkup(chatID, "❌ <b>Login Failed.</b> "+html.EscapeString(err.Error()), kb(loginMenu()))
		b.sessions.Update(chatID, func(s *session.Session) {
			s.AuthState = ""
			s.State = session.StateIdle
		})
		return true, err
	}
	b.sessions.Update(chatID, func(s *session.Session) {
		s.AuthState = ""
		s.State = session.StateIdle
	})
	b.sendWithMarkup(chatID, textLoginOK, kb(rootMenu()))
	return true, nil
}

func (b *Bot) logout(ctx context.Context, chatID int64, messageID int, userID int64) {
	err := b.creds.Delete(ctx, userID)
	if err != nil && !errors.Is(err, credentials.ErrNotFound) {
		b.logger.Error("credential delete failed", logging.UserID(userID), zap.Error(err))
		b.sendMessage(chatID, "⚠️ Could not disconnect: "+html.EscapeString(err.Error()))
		return
	}
	b.record(userID, storage.KindAuth, true, "disconnect")
	b.sessions.Reset(chatID)
	b.editMessage(chatID, messageID, textDisconnected, kb(loginMenu()))
}
