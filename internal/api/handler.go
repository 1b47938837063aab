package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/robot-zoo/robotzoo/internal/biz/domain"
	"github.com/robot-zoo/robotzoo/internal/biz/usecase"
)

// Server provides the admin HTTP API. Mutations go through the command
// usecase so they reply and persist exactly like direct-message commands.
type Server struct {
	bot       string
	commandUC *usecase.CommandUsecase // nil for bots without terms
	alarmUC   *usecase.AlarmUsecase   // nil for bots without alarms
	matcher   *domain.Matcher         // nil for bots without terms
	metrics   http.Handler            // nil disables /metrics

	logger *zap.Logger
	server *http.Server
	port   int
}

// Options wires the optional parts of the API
type Options struct {
	Commands *usecase.CommandUsecase
	Alarms   *usecase.AlarmUsecase
	Matcher  *domain.Matcher
	Metrics  http.Handler
}

// NewServer creates a new API server
func NewServer(bot string, opts Options, port int, logger *zap.Logger) *Server {
	return &Server{
		bot:       bot,
		commandUC: opts.Commands,
		alarmUC:   opts.Alarms,
		matcher:   opts.Matcher,
		metrics:   opts.Metrics,
		logger:    logger.Named("api"),
		port:      port,
	}
}

// Handler returns the API routes
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Term management
	mux.HandleFunc("/api/terms", s.handleTerms)
	mux.HandleFunc("/api/terms/", s.handleTermItem)

	// Chance
	mux.HandleFunc("/api/chance", s.handleChance)

	// Alarms
	mux.HandleFunc("/api/alarms", s.handleAlarms)

	// Matcher
	mux.HandleFunc("/api/matcher", s.handleMatcher)

	if s.metrics != nil {
		mux.Handle("/metrics", s.metrics)
	}

	// Health check
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		s.writeJSON(w, map[string]string{"status": "ok", "bot": s.bot})
	})

	return mux
}

// Run serves the API until ctx ends
func (s *Server) Run(ctx context.Context) error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf("127.0.0.1:%d", s.port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", zap.Int("port", s.port))
		errCh <- s.server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("api server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("api shutdown: %w", err)
		}
		<-errCh
		return nil
	}
}

// GetPort returns the server port
func (s *Server) GetPort() int {
	return s.port
}

// ============ Term Handlers ============

func (s *Server) handleTerms(w http.ResponseWriter, r *http.Request) {
	if s.commandUC == nil {
		s.notAvailable(w)
		return
	}

	switch r.Method {
	case http.MethodGet:
		terms := s.commandUC.Terms()
		if terms == nil {
			terms = []string{}
		}
		s.writeJSON(w, map[string]any{"terms": terms})

	case http.MethodPost:
		var req struct {
			Term string `json:"term"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		term := strings.ToLower(strings.TrimSpace(req.Term))
		if !usecase.ValidTerm(term) {
			http.Error(w, "term must be letters a-z", http.StatusBadRequest)
			return
		}
		s.execute(w, r, "+"+term)

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleTermItem(w http.ResponseWriter, r *http.Request) {
	if s.commandUC == nil {
		s.notAvailable(w)
		return
	}
	if r.Method != http.MethodDelete {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	term := strings.ToLower(strings.TrimPrefix(r.URL.Path, "/api/terms/"))
	if !usecase.ValidTerm(term) {
		http.Error(w, "term must be letters a-z", http.StatusBadRequest)
		return
	}
	s.execute(w, r, "-"+term)
}

// ============ Chance Handlers ============

func (s *Server) handleChance(w http.ResponseWriter, r *http.Request) {
	if s.commandUC == nil {
		s.notAvailable(w)
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.writeJSON(w, map[string]any{"chance": s.commandUC.Chance()})

	case http.MethodPut:
		var req struct {
			Chance *int `json:"chance"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if req.Chance == nil || *req.Chance < 0 || *req.Chance > 100 {
			http.Error(w, "chance must be between 0 and 100", http.StatusBadRequest)
			return
		}
		s.execute(w, r, fmt.Sprintf("%d%%", *req.Chance))

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// ============ Alarm / Matcher Handlers ============

func (s *Server) handleAlarms(w http.ResponseWriter, r *http.Request) {
	if s.alarmUC == nil {
		s.notAvailable(w)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.writeJSON(w, map[string]any{"alarms": s.alarmUC.List()})
}

func (s *Server) handleMatcher(w http.ResponseWriter, r *http.Request) {
	if s.matcher == nil {
		s.notAvailable(w)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	// Terms may have changed since the last inspected post
	if s.commandUC != nil {
		s.matcher.Update(s.commandUC.Terms())
	}
	s.writeJSON(w, map[string]any{"pattern": s.matcher.Pattern()})
}

// ============ Helpers ============

// CommandResponse is the body returned by every mutation
type CommandResponse struct {
	Command string `json:"command"`
	Reply   string `json:"reply"`
	Changed bool   `json:"changed"`
}

func (s *Server) execute(w http.ResponseWriter, r *http.Request, text string) {
	res, err := s.commandUC.Execute(r.Context(), text)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.logger.Info("command via api", zap.String("command", res.Command), zap.String("reply", res.Reply))
	s.writeJSON(w, CommandResponse{Command: res.Command, Reply: res.Reply, Changed: res.Changed})
}

func (s *Server) notAvailable(w http.ResponseWriter) {
	http.Error(w, "not available for bot "+s.bot, http.StatusNotFound)
}

func (s *Server) writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
