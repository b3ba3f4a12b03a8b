// Package slack serves the HTTP endpoint that Slack delivers slash commands,
// interactive payloads and Events API callbacks to.
package slack

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/slack-go/slack"

	"github.com/gapless/explainbot/internal/config"
	"github.com/gapless/explainbot/internal/format"
	"github.com/gapless/explainbot/internal/logger"
	"github.com/gapless/explainbot/internal/router"
)

const shutdownTimeout = 10 * time.Second

// Deps provides the collaborators of the Slack server.
type Deps struct {
	Logger    *slog.Logger
	Explainer router.Explainer
	Formatter *format.Formatter
}

// Option customizes a Server.
type Option func(*Server)

// WithAPIURL points the Web API client at url, which must end in a slash.
func WithAPIURL(url string) Option {
	return func(s *Server) {
		s.apiOptions = append(s.apiOptions, slack.OptionAPIURL(url))
	}
}

// WithHTTPClient sets the client used for the Web API and response URLs.
func WithHTTPClient(hc *http.Client) Option {
	return func(s *Server) {
		s.httpClient = hc
		s.apiOptions = append(s.apiOptions, slack.OptionHTTPClient(hc))
	}
}

// Server is the Slack HTTP endpoint.
type Server struct {
	cfg  config.SlackConfig
	deps Deps
	log  *slog.Logger

	api        *slack.Client
	apiOptions []slack.Option
	httpClient *http.Client
	botUserID  string
}

func New(cfg config.SlackConfig, deps Deps, opts ...Option) *Server {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	s := &Server{
		cfg:        cfg,
		deps:       deps,
		log:        deps.Logger.With("component", "slack"),
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.api = slack.New(cfg.BotToken, s.apiOptions...)
	if cfg.SigningSecret == "" {
		s.log.Warn("No signing secret configured, request signatures will not be verified")
	}
	return s
}

// Identify resolves the bot's user id, used to recognise the bot's own
// channel joins.
func (s *Server) Identify(ctx context.Context) error {
	resp, err := s.api.AuthTestContext(ctx)
	if err != nil {
		return fmt.Errorf("slack auth.test failed: %w", err)
	}
	s.botUserID = resp.UserID
	s.log.InfoContext(ctx, "Slack bot identified", "user_id", resp.UserID, "team", resp.Team)
	return nil
}

// Handler builds the HTTP handler. Call Identify first so that greetings
// can be sent.
func (s *Server) Handler() http.Handler {
	r := router.NewSlack(router.SlackDeps{
		Logger:    s.deps.Logger,
		Explainer: s.deps.Explainer,
		Formatter: s.deps.Formatter,
		Responder: responder{api: s.api, httpClient: s.httpClient},
		BotUserID: s.botUserID,
	})
	h := &handler{router: r, log: s.log}

	engine := gin.New()
	engine.Use(Recovery(s.log))
	engine.Use(logger.GinMiddleware(s.log))

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	engine.POST("/", VerifySignature(s.cfg.SigningSecret, s.log), h.Handle)
	return engine
}

// Run serves until ctx is done, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	if err := s.Identify(ctx); err != nil {
		s.log.WarnContext(ctx, "Could not identify bot user, channel greetings disabled", "error", err)
	}

	server := &http.Server{
		Addr:              ":" + strconv.Itoa(s.cfg.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.InfoContext(ctx, "Slack server listening", "port", s.cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("slack server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.log.Info("Shutdown signal received, stopping slack server...")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		s.log.Error("Slack server shutdown error", "error", err)
		return err
	}
	s.log.Info("Slack server stopped gracefully.")
	return nil
}
