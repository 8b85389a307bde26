// Package web serves the single-page research form.
package web

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/bitrise-io/bitrise-plugins-ai-research/common"
	"github.com/bitrise-io/bitrise-plugins-ai-research/credential"
	"github.com/bitrise-io/bitrise-plugins-ai-research/logger"
	"github.com/bitrise-io/bitrise-plugins-ai-research/render"
	"github.com/bitrise-io/bitrise-plugins-ai-research/research"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

//go:embed templates/index.html
var templates embed.FS

// Generator produces a report for a topic
type Generator interface {
	Generate(ctx context.Context, cfg research.Config, topic string) (string, error)
}

// Server renders the form and runs one report per submission
type Server struct {
	settings  common.Settings
	resolver  credential.Resolver
	generator Generator
	tmpl      *template.Template
}

type page struct {
	Form              Form
	EnvVar            string
	EnvAvailable      bool
	CanRun            bool
	CredentialMessage string
	Warning           string
	Error             string
	HasReport         bool
	Report            template.HTML
	MinMaxTokens      int
	MaxTokensStep     int
}

// NewServer parses the page template and wires the dependencies
func NewServer(settings common.Settings, resolver credential.Resolver, generator Generator) (*Server, error) {
	tmpl, err := template.ParseFS(templates, "templates/index.html")
	if err != nil {
		return nil, err
	}

	return &Server{
		settings:  settings,
		resolver:  resolver,
		generator: generator,
		tmpl:      tmpl,
	}, nil
}

// Handler returns the HTTP routes
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /{$}", s.handleRun)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	return withRequestID(mux)
}

// ListenAndServe serves until ctx is cancelled
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          zap.NewStdLog(logger.GetLogger()),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("Serving research form on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		logger.Info("Shutting down research form server")
		return srv.Shutdown(shutdownCtx)
	}
}

// newPage never carries the manual PAT: the page is rendered with an empty
// PAT field, so a manual credential has to be entered again for the next run.
func (s *Server) newPage(form Form) page {
	available := s.resolver.Available(true, "")
	form.PAT = ""
	p := page{
		Form:          form,
		EnvVar:        s.resolver.EnvVar,
		EnvAvailable:  available,
		CanRun:        s.resolver.Available(form.UseEnv, ""),
		MinMaxTokens:  common.MinMaxTokens,
		MaxTokensStep: common.MaxTokensStep,
	}
	p.CredentialMessage = credentialMessage(s.resolver.EnvVar)
	return p
}

func credentialMessage(envVar string) string {
	if envVar == credential.DefaultEnvVar {
		return "Please enter a valid Clarifai PAT or use the existing environment key."
	}
	return "Please enter a valid Clarifai PAT or set " + envVar + " in the environment."
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, s.newPage(DefaultForm(s.settings)))
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	log := requestLogger(r)

	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	form := ParseForm(r.PostForm, s.settings)
	p := s.newPage(form)

	_, apiKey, err := s.resolver.Resolve(form.UseEnv, form.PAT)
	if err != nil {
		log.Warnw("Run blocked, no credential", "use_env", form.UseEnv)
		s.render(w, r, http.StatusOK, p)
		return
	}

	topic := strings.TrimSpace(form.Topic)
	if topic == "" {
		p.Warning = "Please enter a research topic."
		s.render(w, r, http.StatusOK, p)
		return
	}

	cfg := form.Config(s.settings, apiKey)
	log.Infow("Running research",
		"topic", topic,
		"model", cfg.Model,
		"temperature", cfg.Temperature,
		"max_tokens", cfg.MaxTokens,
		"credential", credential.Mask(apiKey),
	)

	started := time.Now()
	report, err := s.generator.Generate(r.Context(), cfg, topic)
	if err != nil {
		log.Errorw("Research failed", "error", err, "duration", time.Since(started))
		p.Error = err.Error()
		s.render(w, r, http.StatusBadGateway, p)
		return
	}
	log.Infow("Research finished", "duration", time.Since(started), "length", len(report))

	html, err := render.HTML(report)
	if err != nil {
		// Fall back to the escaped raw text, still verbatim
		html = template.HTML("<pre>" + template.HTMLEscapeString(report) + "</pre>")
	}
	p.HasReport = true
	p.Report = html

	s.render(w, r, http.StatusOK, p)
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, p page) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.tmpl.Execute(w, p); err != nil {
		requestLogger(r).Errorw("Failed to render page", "error", err)
	}
}

type requestIDKey struct{}

func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", id)
		ctx := context.WithValue(r.Context(), requestIDKey{}, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func requestLogger(r *http.Request) *zap.SugaredLogger {
	id, _ := r.Context().Value(requestIDKey{}).(string)
	return logger.With("request_id", id, "method", r.Method, "path", r.URL.Path)
}
