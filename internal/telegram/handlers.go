package telegram

import (
	"context"
	"fmt"
	"html"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"linketron/internal/analytics"
	"linketron/internal/auth"
	"linketron/internal/credentials"
	"linketron/internal/language"
	"linketron/internal/logging"
	"linketron/internal/research"
	"linketron/internal/session"
)

func (b *Bot) handleIncomingMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}
	chatID := msg.Chat.ID
	userID := msg.From.ID

	if !b.allowed(userID) {
		b.requestAccess(msg)
		return
	}

	if msg.IsCommand() {
		b.handleCommand(ctx, msg)
		return
	}

	sess := b.sessions.Get(chatID)
	switch {
	case msg.Voice != nil:
		if !sess.AcceptsVoice() {
			b.logger.Info("voice outside a voice state", logging.UserID(userID), zap.String("state", string(sess.State)))
			b.sendWithMarkup(chatID, textStaleVoice, kb(rootMenu()))
			return
		}
		b.processVoice(ctx, chatID, userID, sess, msg.Voice.FileID, "")
	case len(msg.Photo) > 0:
		if sess.State != session.StateAwaitingUpload {
			b.sendMessage(chatID, textNoPhotoWanted)
			return
		}
		// the last size is the largest
		b.processUpload(ctx, chatID, userID, sess, msg.Photo[len(msg.Photo)-1].FileID)
	case strings.TrimSpace(msg.Text) != "":
		b.handleText(ctx, chatID, userID, sess, strings.TrimSpace(msg.Text))
	}
}

func (b *Bot) handleText(ctx context.Context, chatID, userID int64, sess session.Session, text string) {
	switch sess.State {
	case session.StateAwaitingCustomTopic:
		b.runBriefing(ctx, chatID, userID, research.CustomLensKey, text)
	case session.StateAwaitingVoice, session.StateAwaitingReaction:
		// a typed story or reaction goes through the same pipeline as a voice note
		b.processVoice(ctx, chatID, userID, sess, "", text)
	case session.StateAwaitingAuthCode:
		b.finishAuth(ctx, chatID, userID, sess, text)
	default:
		b.sendMessage(chatID, textUseMenu)
	}
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	userID := msg.From.ID
	args := strings.TrimSpace(msg.CommandArguments())

	switch msg.Command() {
	case "start":
		b.sessions.Reset(chatID)
		b.showHome(ctx, chatID, userID, 0)
	case "cancel":
		b.sessions.Reset(chatID)
		b.sendMessage(chatID, textCancelled)
	case "help":
		text := textHelp
		if b.isAdmin(userID) {
			text += textAdminHelp
		}
		b.sendMessage(chatID, text)
	case "language":
		if l, ok := language.Parse(args); ok {
			b.sessions.Update(chatID, func(s *session.Session) { s.Language = l })
			b.sendMessage(chatID, languageSet(l))
			return
		}
		b.sessions.Update(chatID, func(s *session.Session) {
			s.Mode = session.ModeNone
			s.State = session.StateChoosingLanguage
		})
		b.sendWithMarkup(chatID, textChooseLang, kb(languageMenu()))
	case "allowlist", "pending", "approve", "deny", "remove", "report":
		if !b.isAdmin(userID) {
			b.sendMessage(chatID, "Команда доступна только администратору")
			return
		}
		b.handleAdminCommand(ctx, chatID, msg.Command(), args)
	default:
		b.sendMessage(chatID, textUseMenu)
	}
}

// showHome answers /start: the root menu when LinkedIn is connected, the
// login menu otherwise. messageID > 0 edits that message in place.
func (b *Bot) showHome(ctx context.Context, chatID, userID int64, messageID int) {
	_, ok, err := credentials.Lookup(ctx, b.creds, userID)
	if err != nil {
		b.logger.Error("credential lookup failed", logging.UserID(userID), zap.Error(err))
	}
	if ok {
		b.editMessage(chatID, messageID, textWelcomeBack, kb(rootMenu()))
		return
	}
	b.editMessage(chatID, messageID, textWelcome, kb(loginMenu()))
}

// --- access control ---

func (b *Bot) allowed(userID int64) bool {
	return b.authSvc == nil || b.authSvc.IsAllowed(userID)
}

func (b *Bot) isAdmin(userID int64) bool {
	return b.authSvc != nil && b.authSvc.IsAdmin(userID)
}

func (b *Bot) requestAccess(msg *tgbotapi.Message) {
	u := auth.User{ID: msg.From.ID, Username: msg.From.UserName, FirstName: msg.From.FirstName, LastName: msg.From.LastName}
	b.logger.Info("unauthorized access attempt", logging.UserID(u.ID), zap.String("username", u.Username))
	created, err := b.authSvc.Request(u)
	if err != nil {
		b.logger.Error("failed to persist access request", logging.UserID(u.ID), zap.Error(err))
	}
	if created {
		b.notifyAdminRequest(u.ID, u.Username)
	}
	b.sendMessage(msg.Chat.ID, textAccessSent)
}

func (b *Bot) notifyAdminRequest(userID int64, username string) {
	if b.authSvc == nil || b.authSvc.AdminID() == 0 {
		return
	}
	text := fmt.Sprintf("Пользователь @%s с id %d хочет пользоваться ботом", html.EscapeString(username), userID)
	menu := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("разрешить", approvePrefix+strconv.FormatInt(userID, 10)),
			tgbotapi.NewInlineKeyboardButtonData("запретить", denyPrefix+strconv.FormatInt(userID, 10)),
		),
	)
	b.sendWithMarkup(b.authSvc.AdminID(), text, &menu)
}

func (b *Bot) approveUser(userID int64) (auth.User, error) {
	u, ok, err := b.authSvc.Approve(userID)
	if err != nil {
		return u, err
	}
	if !ok {
		u = auth.User{ID: userID}
		if err := b.authSvc.Upsert(u); err != nil {
			return u, err
		}
	}
	b.sendMessage(userID, "✅ Доступ разрешён. Нажмите /start")
	return u, nil
}

func (b *Bot) denyUser(userID int64) error {
	_, _, err := b.authSvc.Deny(userID)
	if err != nil {
		return err
	}
	b.sendMessage(userID, "⛔ В доступе отказано")
	return nil
}

func (b *Bot) handleAdminCommand(ctx context.Context, chatID int64, cmd, args string) {
	switch cmd {
	case "allowlist":
		users := b.authSvc.List()
		if len(users) == 0 {
			b.sendMessage(chatID, "Allowlist пуст")
			return
		}
		b.sendMessage(chatID, "Allowlist:\n"+formatUsers(users))
	case "pending":
		users := b.authSvc.Pending()
		if len(users) == 0 {
			b.sendMessage(chatID, "Нет ожидающих заявок")
			return
		}
		b.sendMessage(chatID, "Ожидают подтверждения:\n"+formatUsers(users))
	case "approve", "deny", "remove":
		id, err := strconv.ParseInt(args, 10, 64)
		if err != nil {
			b.sendMessage(chatID, fmt.Sprintf("Использование: /%s &lt;user_id&gt;", cmd))
			return
		}
		switch cmd {
		case "approve":
			if _, err := b.approveUser(id); err != nil {
				b.sendMessage(chatID, "Ошибка: "+html.EscapeString(err.Error()))
				return
			}
			b.sendMessage(chatID, fmt.Sprintf("Пользователь %d добавлен", id))
		case "deny":
			if err := b.denyUser(id); err != nil {
				b.sendMessage(chatID, "Ошибка: "+html.EscapeString(err.Error()))
				return
			}
			b.sendMessage(chatID, fmt.Sprintf("Заявка %d отклонена", id))
		case "remove":
			if err := b.authSvc.Remove(id); err != nil {
				b.sendMessage(chatID, "Ошибка: "+html.EscapeString(err.Error()))
				return
			}
			b.sendMessage(chatID, fmt.Sprintf("Пользователь %d удалён", id))
		}
	case "report":
		if err := b.sendReport(chatID); err != nil {
			b.sendMessage(chatID, "Ошибка отчёта: "+html.EscapeString(err.Error()))
		}
	}
}

func formatUsers(users []auth.User) string {
	var sb strings.Builder
	for _, u := range users {
		name := strings.TrimSpace(u.FirstName + " " + u.LastName)
		fmt.Fprintf(&sb, "• %d", u.ID)
		if u.Username != "" {
			fmt.Fprintf(&sb, " @%s", html.EscapeString(u.Username))
		}
		if name != "" {
			fmt.Fprintf(&sb, " (%s)", html.EscapeString(name))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// SendDailyReport sends today's journal summary to the admin. It is the
// scheduler's report job.
func (b *Bot) SendDailyReport(_ context.Context) error {
	if b.authSvc == nil || b.authSvc.AdminID() == 0 {
		return fmt.Errorf("no admin configured")
	}
	return b.sendReport(b.authSvc.AdminID())
}

func (b *Bot) sendReport(chatID int64) error {
	if b.journal == nil {
		return fmt.Errorf("journal is not configured")
	}
	events, err := b.journal.Load()
	if err != nil {
		return fmt.Errorf("load journal: %w", err)
	}
	stats := analytics.AnalyzeDailyLogs(events, b.nowUTC())
	b.sendMessage(chatID, "<pre>"+html.EscapeString(stats.GenerateReportSummary())+"</pre>")
	return nil
}
