// Package server exposes the health probe and the LinkedIn OAuth redirect target.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"linketron/internal/logging"
)

// AuthCompleter finishes a login started in chat. handled is false when the
// state belongs to no waiting chat.
type AuthCompleter interface {
	CompleteAuth(ctx context.Context, state, code string) (handled bool, err error)
}

type Server struct {
	completer AuthCompleter
	logger    *zap.Logger
}

func New(completer AuthCompleter, logger *zap.Logger) *Server {
	return &Server{completer: completer, logger: logging.OrNop(logger)}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(60 * time.Second))

	r.Get("/health", s.health)
	r.Get("/oauth/linkedin/callback", s.callback)
	return r
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

var page = template.Must(template.New("callback").Parse(`<!doctype html>
<html><head><meta charset="utf-8"><title>Linketron</title></head>
<body style="font-family: sans-serif; max-width: 40em; margin: 3em auto">
{{if .Error}}<h2>LinkedIn login failed</h2><p>{{.Error}}</p>
{{else if .Done}}<h2>LinkedIn connected</h2><p>You can return to Telegram.</p>
{{else}}<h2>Almost there</h2><p>Paste this code into the chat with the bot:</p>
<pre style="padding: 1em; background: #eee; word-break: break-all">{{.Code}}</pre>{{end}}
</body></html>`))

type pageData struct {
	Code  string
	Error string
	Done  bool
}

func (s *Server) callback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	code, state := q.Get("code"), q.Get("state")
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	if code == "" {
		msg := q.Get("error_description")
		if msg == "" {
			msg = q.Get("error")
		}
		if msg == "" {
			msg = "missing authorization code"
		}
		w.WriteHeader(http.StatusBadRequest)
		_ = page.Execute(w, pageData{Error: msg})
		return
	}

	if s.completer != nil && state != "" {
		handled, err := s.completer.CompleteAuth(r.Context(), state, code)
		switch {
		case err != nil:
			s.logger.Warn("oauth callback failed", zap.Error(err))
			w.WriteHeader(http.StatusBadGateway)
			_ = page.Execute(w, pageData{Error: err.Error()})
			return
		case handled:
			_ = page.Execute(w, pageData{Done: true})
			return
		}
	}
	_ = page.Execute(w, pageData{Code: code})
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
