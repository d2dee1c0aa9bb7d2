package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"winnow/internal/config"
	"winnow/internal/logging"
	"winnow/internal/page"
	"winnow/internal/settings"
)

type apiServer struct {
	bind   string
	logger *slog.Logger
	daemon *Daemon

	listener net.Listener
	server   *http.Server
}

type createSessionRequest struct {
	URL  string `json:"url"`
	HTML string `json:"html"`
}

type sessionResponse struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
	Mode      string `json:"mode"`
}

type snapshotRequest struct {
	HTML string `json:"html"`
}

type navigateRequest struct {
	URL string `json:"url"`
}

type documentResponse struct {
	URL  string `json:"url"`
	Mode string `json:"mode"`
	HTML string `json:"html"`
}

type tileDecision struct {
	TileID   string `json:"tile_id"`
	Decision string `json:"decision"`
}

type decisionsResponse struct {
	Decisions []tileDecision `json:"decisions"`
}

type statusResponse struct {
	Running         bool   `json:"running"`
	Sessions        int    `json:"sessions"`
	SettingsDBPath  string `json:"settings_db_path"`
	LockFilePath    string `json:"lock_file_path"`
	SettingsVersion int64  `json:"settings_version"`
}

type topicsResponse struct {
	Topics []string `json:"topics"`
}

type topicRequest struct {
	Topic string `json:"topic"`
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) (*apiServer, error) {
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if bind == "" {
		return nil, errors.New("api bind address required")
	}

	srv := &apiServer{
		bind:   bind,
		logger: logger.With(logging.String("component", "api-server")),
		daemon: d,
	}

	router := chi.NewRouter()
	router.Route("/api", func(r chi.Router) {
		r.Get("/status", srv.handleStatus)

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", srv.handleCreateSession)
			r.Route("/{id}", func(r chi.Router) {
				r.Delete("/", srv.handleDeleteSession)
				r.Put("/snapshot", srv.handleSnapshot)
				r.Put("/url", srv.handleNavigate)
				r.Get("/document", srv.handleDocument)
				r.Get("/decisions", srv.handleDecisions)
			})
		})

		r.Route("/topics", func(r chi.Router) {
			r.Get("/", srv.handleListTopics)
			r.Post("/", srv.handleAddTopic)
			r.Delete("/{topic}", srv.handleRemoveTopic)
		})
	})
	router.Method(http.MethodGet, "/metrics", promhttp.Handler())

	srv.server = &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv, nil
}

func (s *apiServer) start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

func (s *apiServer) addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := s.daemon.Status(r.Context())
	s.writeJSON(w, http.StatusOK, statusResponse{
		Running:         status.Running,
		Sessions:        status.Sessions,
		SettingsDBPath:  status.SettingsDBPath,
		LockFilePath:    status.LockFilePath,
		SettingsVersion: status.SettingsVer,
	})
}

func (s *apiServer) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.HTML) == "" {
		s.writeError(w, http.StatusBadRequest, "html snapshot required")
		return
	}
	sess, err := s.daemon.sessions.create(req.URL, req.HTML)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	pageURL, mode := sess.pageInfo()
	s.writeJSON(w, http.StatusCreated, sessionResponse{
		SessionID: sess.id,
		URL:       pageURL,
		Mode:      string(mode),
	})
}

func (s *apiServer) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if !s.daemon.sessions.remove(chi.URLParam(r, "id")) {
		s.writeError(w, http.StatusNotFound, "session not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *apiServer) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	if sess == nil {
		return
	}
	var req snapshotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := sess.replaceSnapshot(req.HTML); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	sess.reactor.Signal(page.Signal{Kind: page.SignalMutation})
	w.WriteHeader(http.StatusNoContent)
}

func (s *apiServer) handleNavigate(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	if sess == nil {
		return
	}
	var req navigateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	sess.navigate(req.URL)
	sess.reactor.Signal(page.Signal{Kind: page.SignalNavigation, URL: req.URL})
	w.WriteHeader(http.StatusNoContent)
}

func (s *apiServer) handleDocument(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	if sess == nil {
		return
	}
	rendered, err := sess.render()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	pageURL, mode := sess.pageInfo()
	s.writeJSON(w, http.StatusOK, documentResponse{
		URL:  pageURL,
		Mode: string(mode),
		HTML: rendered,
	})
}

func (s *apiServer) handleDecisions(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	if sess == nil {
		return
	}
	byID := sess.decisions()
	decisions := make([]tileDecision, 0, len(byID))
	for id, decision := range byID {
		decisions = append(decisions, tileDecision{TileID: id, Decision: decision.String()})
	}
	s.writeJSON(w, http.StatusOK, decisionsResponse{Decisions: decisions})
}

func (s *apiServer) handleListTopics(w http.ResponseWriter, r *http.Request) {
	topics, err := s.daemon.store.Topics(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, topicsResponse{Topics: topics})
}

func (s *apiServer) handleAddTopic(w http.ResponseWriter, r *http.Request) {
	var req topicRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.daemon.store.AddTopic(r.Context(), req.Topic); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, settings.ErrDuplicateTopic) {
			status = http.StatusConflict
		}
		s.writeError(w, status, err.Error())
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (s *apiServer) handleRemoveTopic(w http.ResponseWriter, r *http.Request) {
	topic, err := url.PathUnescape(chi.URLParam(r, "topic"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid topic")
		return
	}
	if err := s.daemon.store.RemoveTopic(r.Context(), topic); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, settings.ErrTopicNotFound) {
			status = http.StatusNotFound
		}
		s.writeError(w, status, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *apiServer) session(w http.ResponseWriter, r *http.Request) *session {
	sess := s.daemon.sessions.get(chi.URLParam(r, "id"))
	if sess == nil {
		s.writeError(w, http.StatusNotFound, "session not found")
	}
	return sess
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
