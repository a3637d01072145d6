// Package server: HTTP API поиска мест и отчётов о дорожной обстановке.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ilkoid/saigon-traffic/pkg/app"
	"github.com/ilkoid/saigon-traffic/pkg/config"
	"github.com/ilkoid/saigon-traffic/pkg/utils"
)

// shutdownTimeout: сколько ждать завершения активных запросов.
const shutdownTimeout = 10 * time.Second

// Server обслуживает JSON API поверх компонентов приложения.
type Server struct {
	comps     *app.Components
	cfg       config.ServerConfig
	maxUpload int64
	handler   http.Handler
}

// New создаёт сервер и регистрирует маршруты.
func New(comps *app.Components, cfg config.ServerConfig) *Server {
	cfg = cfg.GetDefaults()
	s := &Server{
		comps:     comps,
		cfg:       cfg,
		maxUpload: int64(cfg.MaxUploadMB) << 20,
	}

	mux := http.NewServeMux()
	s.registerHandlers(mux)
	s.handler = s.withRecover(s.withLogging(mux))
	return s
}

// Handler возвращает корневой обработчик (для httptest).
func (s *Server) Handler() http.Handler {
	return s.handler
}

// registerHandlers описывает все маршруты API.
func (s *Server) registerHandlers(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", s.handleHealth)

	mux.HandleFunc("GET /api/search", s.handleSearch)
	mux.HandleFunc("GET /api/search/suggestions", s.handleSuggestions)
	mux.HandleFunc("GET /api/search/place/{name}", s.handlePlace)
	mux.HandleFunc("GET /api/search/reverse", s.handleReverse)
	mux.HandleFunc("GET /api/search/test-api", s.handleTestAPI)
	mux.HandleFunc("GET /api/search/history", s.handleHistory)

	mux.HandleFunc("GET /api/hazards", s.handleListHazards)
	mux.HandleFunc("POST /api/hazards", s.handleCreateHazard)
	mux.HandleFunc("GET /api/hazards/{id}", s.handleGetHazard)
	mux.HandleFunc("PATCH /api/hazards/{id}", s.handleUpdateHazard)
	mux.HandleFunc("DELETE /api/hazards/{id}", s.handleDeleteHazard)

	mux.HandleFunc("GET /api/incidents", s.handleListIncidents)
	mux.HandleFunc("POST /api/incidents", s.handleCreateIncident)
	mux.HandleFunc("GET /api/incidents/{id}", s.handleGetIncident)
	mux.HandleFunc("DELETE /api/incidents/{id}", s.handleDeleteIncident)
	mux.HandleFunc("POST /api/incidents/{id}/verify", s.handleVerifyIncident)

	mux.HandleFunc("GET "+app.UploadsURLPrefix+"/{key...}", s.handleUpload)
}

// Run слушает server.addr до отмены ctx.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve обслуживает соединения из ln до отмены ctx, затем корректно
// завершает активные запросы.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:      s.handler,
		ReadTimeout:  config.Duration(s.cfg.ReadTimeout, 15*time.Second),
		WriteTimeout: config.Duration(s.cfg.WriteTimeout, 30*time.Second),
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		utils.Info("HTTP server listening", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		utils.Info("HTTP server shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// statusRecorder запоминает код ответа и то, начат ли ответ.
type statusRecorder struct {
	http.ResponseWriter
	status int
	wrote  bool
}

func (r *statusRecorder) WriteHeader(code int) {
	if !r.wrote {
		r.status = code
		r.wrote = true
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	r.wrote = true
	return r.ResponseWriter.Write(b)
}

func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		utils.Info("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds())
	})
}

// withRecover отвечает 500 на панику обработчика.
//
// Если ответ уже начат, соединение обрывается через http.ErrAbortHandler.
func (s *Server) withRecover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		defer func() {
			v := recover()
			if v == nil {
				return
			}
			if v == http.ErrAbortHandler {
				panic(v)
			}
			utils.Error("Panic in HTTP handler", "path", r.URL.Path, "panic", v, "response_started", rec.wrote)
			if rec.wrote {
				panic(http.ErrAbortHandler)
			}
			writeJSON(w, http.StatusInternalServerError, errorBody{Message: "Internal server error"})
		}()
		next.ServeHTTP(rec, r)
	})
}
