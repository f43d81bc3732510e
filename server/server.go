// Package server 暴露推荐与发现会话的 HTTP API。
//
// 错误映射约定：
//   - INVALID_INPUT            -> 400
//   - NOT_FOUND                -> 404
//   - ARTIFACTS_NOT_LOADED     -> 503（进程级故障，重启恢复）
//   - 其他                     -> 500
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	json "github.com/goccy/go-json"
	"golang.org/x/sync/errgroup"

	"github.com/VibhavTh/Sniftr/core"
	"github.com/VibhavTh/Sniftr/feedback"
	"github.com/VibhavTh/Sniftr/recommend"
	"github.com/VibhavTh/Sniftr/session"
)

// BottleReader 在边界契约之上增加单条读取（详情页用）。
type BottleReader interface {
	core.Catalog
	FetchByID(ctx context.Context, id int64) (*core.Item, error)
}

// Server 持有全部请求处理依赖。engine 以引用注入，
// 进程生命周期内共享同一份工件。
type Server struct {
	engine    *recommend.Engine
	catalog   BottleReader
	sessions  *session.Manager
	collector *feedback.Collector

	http *http.Server
}

// New 组装路由并返回 Server。collector 可为 nil（不收集反馈）。
func New(addr string, engine *recommend.Engine, catalog BottleReader, sessions *session.Manager, collector *feedback.Collector) *Server {
	s := &Server{
		engine:    engine,
		catalog:   catalog,
		sessions:  sessions,
		collector: collector,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Get("/health", s.handleHealth)
	r.Get("/recommendations", s.handleRecommendations)
	r.Get("/swipe/candidates", s.handleCandidates)
	r.Get("/bottles/random", s.handleRandomBottles)
	r.Get("/bottles/{bottleID}", s.handleBottleByID)
	r.Post("/swipes", s.handleSwipe)

	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", s.handleSessionCreate)
		r.Get("/{sessionID}", s.handleSessionGet)
		r.Post("/{sessionID}/like", s.handleSessionLike)
		r.Post("/{sessionID}/pass", s.handleSessionPass)
		r.Delete("/{sessionID}", s.handleSessionEnd)
	})

	s.http = &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler 返回路由（httptest 用）。
func (s *Server) Handler() http.Handler { return s.http.Handler }

// Run 启动服务并阻塞到 ctx 取消，随后优雅关停。
func (s *Server) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("http server listening", "addr", s.http.Addr)
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.http.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		slog.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start))
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("encode response failed", "err", err)
	}
}

// writeError 按领域错误分类映射 HTTP 状态码。
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	code := core.ErrorCodeInternalError

	if de := core.GetDomainError(err); de != nil {
		code = de.Code
		switch {
		case core.IsInvalidInput(err):
			status = http.StatusBadRequest
		case core.IsNotFound(err):
			status = http.StatusNotFound
		case core.IsUnavailable(err):
			status = http.StatusServiceUnavailable
		case core.IsEmptyPool(err):
			status = http.StatusNotFound
		}
	}
	writeJSON(w, status, errorResponse{Error: err.Error(), Code: code})
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg, Code: core.ErrorCodeInvalidInput})
}
