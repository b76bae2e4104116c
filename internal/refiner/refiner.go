// Package refiner applies a minimal-edit style pass to a finished draft.
package refiner

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"linketron/internal/language"
	"linketron/internal/llm"
	"linketron/internal/logging"
	"linketron/internal/writer"
)

const promptEN = `### ROLE
You are an uncompromising technical proofreader. You do not rewrite the text; you strip out every sign that a machine wrote it.

### OBJECTIVE
Edit the text while keeping its structure, the order of its thoughts and the author's style. Intervene minimally: fix grammar, remove filler, replace forbidden constructions.

### RULES
1. Keep the author's phrases. If a thought is clear, leave it alone. Never rewrite from scratch.
2. Dashes used to connect thoughts are forbidden. Replace each with a fitting verb (is, means, consists of, allows).
3. If sentences are choppy, merge them with participial phrases or connectors so the prose reads as professional.
4. Remove and replace: unlock, potential, journey, transformation, dive, unique, key to success.
5. Remove "not X, but Y" and "better than" structures. State facts directly.
6. Remove added drama (battles, chaos, challenges) that the source did not contain.

### LANGUAGE
You MUST write in English.

### TEXT TO CLEAN
{text}

### OUTPUT FORMAT (JSON ONLY)
{"title": "the original title or a slightly shorter one", "text": "the cleaned text in the author's voice"}`

const promptRU = `### РОЛЬ
Вы бескомпромиссный технический корректор. Вы не переписываете текст, а убираете из него признаки машинного письма.

### ЗАДАЧА
Отредактируйте текст, сохранив структуру, порядок мыслей и авторский стиль. Вмешательство минимальное: грамматика, слова-паразиты, запрещённые конструкции.

### ПРАВИЛА
1. Сохраняйте авторские формулировки. Ясную мысль не трогайте. Не переписывайте пост заново.
2. Тире как связка между мыслями запрещено. Замените его подходящим глаголом (является, означает, заключается в, позволяет).
3. Слишком короткие и рубленые предложения объединяйте деепричастными оборотами или связками.
4. Удаляйте штампы: «раскрыть», «потенциал», «путешествие», «трансформация», «погрузиться», «уникальный», «ключ к успеху».
5. Удаляйте конструкции «не Х, а Y» и «лучше, чем». Утверждайте факты прямо.
6. Удаляйте пафос («битвы», «хаос», «вызовы»), которого не было в исходнике.

### ЯЗЫК
Вы ОБЯЗАНЫ писать на русском языке.

### ТЕКСТ ДЛЯ ОЧИСТКИ
{text}

### ФОРМАТ ВЫВОДА (ТОЛЬКО JSON)
{"title": "исходный заголовок или его чуть более короткая версия", "text": "очищенный текст с сохранением авторского голоса"}`

var ErrNoText = errors.New("no text to refine")

type Refiner struct {
	client llm.Client
	logger *zap.Logger
}

func New(client llm.Client, logger *zap.Logger) *Refiner {
	return &Refiner{client: client, logger: logging.OrNop(logger)}
}

// Refine returns the cleaned post. On any failure it returns post unchanged with
// StatusFallback, so the result is never empty.
func (r *Refiner) Refine(ctx context.Context, post writer.Post, lang language.Language) (writer.Post, writer.Status) {
	if strings.TrimSpace(post.Text) == "" {
		r.logger.Warn("refine skipped", zap.Error(ErrNoText))
		return post, writer.StatusFallback
	}
	tmpl := promptEN
	if lang.IsRussian() {
		tmpl = promptRU
	}
	prompt := strings.Replace(tmpl, "{text}", post.Text, 1)

	resp, err := r.client.Generate(ctx, []llm.Message{llm.User(prompt)})
	if err != nil {
		r.logger.Warn("refine call failed, keeping draft", zap.Error(err))
		return post, writer.StatusFallback
	}
	refined, err := writer.ParsePost(resp.Content)
	if err != nil {
		r.logger.Warn("refine reply unusable, keeping draft", zap.Error(err))
		return post, writer.StatusFallback
	}
	if refined.Title == "" {
		refined.Title = post.Title
	}
	return refined, writer.StatusOK
}
