package telegram

import (
	"fmt"
	"html"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"linketron/internal/language"
	"linketron/internal/research"
	"linketron/internal/writer"
)

// callback data
const (
	cbModeStory     = "mode_story"
	cbModeGenerator = "mode_generator"
	cbLangPrefix    = "lang_"
	cbLensPrefix    = "lens_"
	cbBackToRoot    = "back_to_root"
	cbVisualWeb     = "visual_web"
	cbVisualAI      = "visual_ai"
	cbVisualUpload  = "visual_upload"
	cbVisualSkip    = "visual_skip"
	cbPublish       = "action_publish"
	cbCancel        = "action_cancel"
	cbAuthConnect   = "auth_connect"
	cbLogout        = "logout"

	approvePrefix = "approve_"
	denyPrefix    = "deny_"
)

const (
	textWelcomeBack = "✅ <b>System Online.</b> Welcome back!\n\n" +
		"👇 <b>How do you want to create today?</b>\n\n" +
		"🎙️ <b>Story Mode:</b> You talk, I write.\n" +
		"🧠 <b>Generator Mode:</b> I research, you react."
	textWelcome     = "👋 <b>Welcome.</b>\nI need to connect to your LinkedIn to start."
	textRoot        = "👇 <b>How do you want to create today?</b>"
	textChooseLang  = "🌐 <b>Which language should the post be in?</b>"
	textGenerator   = "🧠 <b>Generator Mode Active</b>\n\n👇 <b>Choose a Lens to research:</b>"
	textStory       = "🎙️ <b>Story Mode Active</b>\n\n👇 <b>Record a Voice Note</b> (English or Russian).\nI will transcribe it and structure it into a post."
	textCustomTopic = "💡 <b>Custom Idea Mode</b>\n👇 <b>Type your topic below:</b>"
	textStaleVoice  = "⚠️ <b>I received your voice, but I wasn't ready.</b>\n\n" +
		"This happens if the bot was restarted.\n👇 <b>Please click a mode to start:</b>"
	textStaleDraft    = "⚠️ <b>There is no draft to work with.</b>\n\nThis happens if the bot was restarted.\n👇 <b>Please click a mode to start:</b>"
	textInvestigating = "🕵️ <b>Investigating...</b>\nSearching for a unique angle on this..."
	textTranscribing  = "✅ <b>Voice received.</b> Transcribing..."
	textWriting       = "✍️ <b>Writing...</b>"
	textIllustrate    = "👇 <b>How should we illustrate this?</b>"
	textSearching     = "🌍 <b>Searching &amp; Downloading...</b>"
	textDirector      = "🎨 <b>Director is thinking...</b>"
	textUploadMode    = "📤 <b>Upload Mode Active</b>\n\n👇 <b>Drop your photo here.</b>\n<i>(Send it as a Photo, not a File)</i>"
	textConnecting    = "⏳ <b>Connecting to LinkedIn...</b>"
	textCancelled     = "✅ <b>Action Cancelled.</b>"
	textDisconnected  = "🔌 <b>Disconnected.</b>"
	textNeedLogin     = "🔐 <b>Connect LinkedIn first.</b>\nPublishing needs your account."
	textLoginOK       = "✅ <b>Login Verified!</b>\n\n" + textRoot
	textNoOAuth       = "⚠️ LinkedIn login is not configured on this bot."
	textAccessSent    = "⏳ Access request sent to the admin."
	textNoPhotoWanted = "🤔 I was not expecting a photo. Use /start to open the menu."
	textUseMenu       = "👇 Use /start to open the menu."
	textHelp          = "<b>Linketron</b> turns a voice note into a LinkedIn post.\n\n" +
		"/start open the menu\n/language change the post language\n/cancel drop the current draft\n/help this message"
	textAdminHelp = "\n\n<b>Admin</b>\n/allowlist\n/pending\n/approve &lt;id&gt;\n/deny &lt;id&gt;\n/remove &lt;id&gt;\n/report"
)

func rootMenu() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("🎙️ I have a Story (Voice)", cbModeStory)),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("🧠 I need Ideas (Generator)", cbModeGenerator)),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("❌ Disconnect", cbLogout)),
	)
}

func languageMenu() tgbotapi.InlineKeyboardMarkup {
	var row []tgbotapi.InlineKeyboardButton
	for _, l := range language.Supported {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(flag(l)+" "+l.Name, cbLangPrefix+l.Code))
	}
	return tgbotapi.NewInlineKeyboardMarkup(row, backRow())
}

func flag(l language.Language) string {
	if l.IsRussian() {
		return "🇷🇺"
	}
	return "🇬🇧"
}

// lensMenu lays the catalog out two per row, custom topic and back last.
func lensMenu(catalog *research.Catalog) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton
	for _, l := range catalog.List() {
		if l.Key == research.CustomLensKey {
			continue
		}
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(l.Name, l.Key))
		if len(row) == 2 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	rows = append(rows,
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("💡 Suggest Idea (Custom)", research.CustomLensKey)),
		backRow(),
	)
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func backRow() []tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("🔙 Back", cbBackToRoot))
}

func backMenu() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(backRow())
}

func loginMenu() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("🔗 Connect LinkedIn", cbAuthConnect)),
	)
}

func authURLMenu(url string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonURL("🔓 Open LinkedIn", url)),
		backRow(),
	)
}

func visualMenu() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("🌍 Auto-Web Photo", cbVisualWeb)),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("🎨 Generate AI (Imagen)", cbVisualAI)),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("📤 Upload Own", cbVisualUpload)),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("⏩ Skip (Text Only)", cbVisualSkip)),
	)
}

func publishMenu() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("🚀 Publish to LinkedIn", cbPublish)),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("❌ Done (Cancel)", cbCancel)),
	)
}

func authPrompt() string {
	return "🔐 <b>Connect LinkedIn</b>\n\n" +
		"1. Open the link below and allow access.\n" +
		"2. Paste the code, or the whole address you land on, here."
}

func draftCreated(p writer.Post) string {
	return fmt.Sprintf("✅ <b>Draft Created.</b>\nStrategy Used: %s\n\n%s\n\n%s",
		html.EscapeString(p.Title), html.EscapeString(p.Text), textIllustrate)
}

// preview is the final post as it will be published, with a footer line.
func preview(p writer.Post, footer string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🚀 <b>%s</b>\n\n%s\n\n-----------------------------\n", html.EscapeString(p.Title), html.EscapeString(p.Text))
	b.WriteString(footer)
	return b.String()
}

func languageSet(l language.Language) string {
	return fmt.Sprintf("🌐 Posts will be written in <b>%s</b>.", html.EscapeString(l.Name))
}
