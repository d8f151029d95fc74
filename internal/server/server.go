package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const (
	readHeaderTimeout = 10 * time.Second
	readTimeout       = 60 * time.Second
	// パネル生成は1枚ずつ間隔を空けて行うため、書き込みのタイムアウトは長めに取ります。
	writeTimeout = 10 * time.Minute
	idleTimeout  = 120 * time.Second
)

// Server は comico の HTTP API です。
type Server struct {
	router     chi.Router
	httpServer *http.Server
}

// NewServer は chi のルーターを組み立てて Server を返します。
func NewServer(addr string, comics ComicService, assistant Assistant, logger *slog.Logger) (*Server, error) {
	if comics == nil {
		return nil, fmt.Errorf("ComicService は必須です")
	}
	if assistant == nil {
		return nil, fmt.Errorf("Assistant は必須です")
	}
	if logger == nil {
		logger = slog.Default()
	}

	h := &handlers{comics: comics, assistant: assistant}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, requestLogger(logger), middleware.Recoverer)
	r.Use(middleware.CleanPath)

	r.Get("/health", h.health)

	r.Route("/api", func(api chi.Router) {
		api.Post("/analyze-photo", h.analyzePhoto)
		api.Post("/generate-story", h.generateStory)

		api.Route("/comics", func(cr chi.Router) {
			cr.Post("/", h.createComic)
			cr.Get("/{comicID}", h.getComic)
			cr.Delete("/{comicID}", h.deleteComic)
			cr.Post("/{comicID}/generate", h.generateComic)
			cr.Post("/{comicID}/panels/{panelNumber}/regenerate", h.regeneratePanel)
		})

		api.Route("/orders", func(or chi.Router) {
			or.Post("/", h.placeOrder)
			or.Get("/{orderID}", h.getOrder)
		})

		api.Get("/users/{userID}/comics", h.listComics)
		api.Get("/users/{userID}/orders", h.listOrders)
	})

	return &Server{
		router: r,
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           r,
			ReadHeaderTimeout: readHeaderTimeout,
			ReadTimeout:       readTimeout,
			WriteTimeout:      writeTimeout,
			IdleTimeout:       idleTimeout,
		},
	}, nil
}

// Handler はルーターを返します。
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe は ctx がキャンセルされるまでリクエストを受け付け、キャンセル後は処理中のリクエストを待って停止します。
func (s *Server) ListenAndServe(ctx context.Context, shutdownTimeout time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		slog.InfoContext(ctx, "HTTP server starting", "addr", s.httpServer.Addr)
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("HTTP サーバーが停止しました: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("HTTP server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTP サーバーの停止に失敗しました: %w", err)
	}
	return nil
}
