package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"microblog/internal/app"
	"microblog/internal/ratelimit"
	"microblog/internal/util"
	"microblog/pkg/domain"
)

// Config wires required dependencies for the HTTP server.
type Config struct {
	App *app.App

	// Rate limiting for the account endpoints. Zero limits disable it;
	// a positive limit requires RedisAddr.
	RedisAddr                  string
	RedisPassword              string
	RegisterRateLimitPerMinute int
	LoginRateLimitPerMinute    int
}

// Server exposes the HTTP endpoints for accounts and messages.
type Server struct {
	app             *app.App
	mux             *http.ServeMux
	registerLimiter *ratelimit.FixedWindowLimiter
	loginLimiter    *ratelimit.FixedWindowLimiter
}

// New constructs the server with routes configured.
func New(cfg Config) (*Server, error) {
	s := &Server{
		app: cfg.App,
		mux: http.NewServeMux(),
	}
	rateWindow := time.Minute
	if cfg.RegisterRateLimitPerMinute > 0 {
		limiter, err := ratelimit.NewRedisFixedWindowLimiter(
			cfg.RedisAddr, cfg.RedisPassword, "microblog:ratelimit:register",
			cfg.RegisterRateLimitPerMinute, rateWindow)
		if err != nil {
			return nil, fmt.Errorf("init register limiter: %w", err)
		}
		s.registerLimiter = limiter
	}
	if cfg.LoginRateLimitPerMinute > 0 {
		limiter, err := ratelimit.NewRedisFixedWindowLimiter(
			cfg.RedisAddr, cfg.RedisPassword, "microblog:ratelimit:login",
			cfg.LoginRateLimitPerMinute, rateWindow)
		if err != nil {
			return nil, fmt.Errorf("init login limiter: %w", err)
		}
		s.loginLimiter = limiter
	}
	s.routes()
	return s, nil
}

// Router returns the configured handler wrapped in the middleware chain.
func (s *Server) Router() http.Handler {
	return util.WithRequestID(util.WithRequestLog(util.WithSecurityHeaders(util.WithCORS(s.mux))))
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)

	// accounts
	s.mux.HandleFunc("/register", s.handleRegister)
	s.mux.HandleFunc("/login", s.handleLogin)
	s.mux.HandleFunc("/accounts/", s.handleAccountMessages)

	// messages
	s.mux.HandleFunc("/messages", s.handleMessages)
	s.mux.HandleFunc("/messages/", s.handleMessageByID)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// POST /register
//
// Success echoes the stored account, id included, with status 200.
// Every failure, validation or storage, is a plain 400.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if !s.allowRate(w, r, s.registerLimiter, "too many registration attempts") {
		return
	}
	var req accountRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	account, err := s.app.Register(req.Username, req.Password)
	if err != nil {
		s.logFailure(r, "register", err)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, account)
}

// POST /login
//
// A miss is always a 401; no detail leaks about which half failed.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if !s.allowRate(w, r, s.loginLimiter, "too many login attempts") {
		return
	}
	var req accountRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusUnauthorized, "invalid JSON body")
		return
	}
	account, err := s.app.Login(req.Username, req.Password)
	if err != nil {
		s.logFailure(r, "login", err)
		writeError(w, http.StatusUnauthorized, app.ErrInvalidCredentials.Error())
		return
	}
	writeJSON(w, http.StatusOK, account)
}

// POST /messages and GET /messages.
func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var req messageRequest
		if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		msg, err := s.app.PostMessage(req.PostedBy, req.MessageText, req.TimePostedEpoch)
		if err != nil {
			s.logFailure(r, "post message", err)
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, msg)
	case http.MethodGet:
		msgs, err := s.app.Messages()
		if err != nil {
			// Storage errors collapse to an empty result.
			s.logFailure(r, "list messages", err)
			msgs = nil
		}
		if msgs == nil {
			msgs = []domain.Message{}
		}
		writeJSON(w, http.StatusOK, msgs)
	default:
		methodNotAllowed(w)
	}
}

// GET, DELETE and PATCH /messages/{message_id}.
//
// Reads and deletes answer 200 with an empty body when the id is
// absent; deleting twice looks the same as deleting a ghost.
func (s *Server) handleMessageByID(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimPrefix(r.URL.Path, "/messages/")
	if raw == "" || strings.Contains(raw, "/") {
		http.NotFound(w, r)
		return
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "message_id must be an integer")
		return
	}
	switch r.Method {
	case http.MethodGet:
		msg, ok, err := s.app.MessageByID(id)
		if err != nil {
			s.logFailure(r, "get message", err)
			w.WriteHeader(http.StatusOK)
			return
		}
		if !ok {
			w.WriteHeader(http.StatusOK)
			return
		}
		writeJSON(w, http.StatusOK, msg)
	case http.MethodDelete:
		msg, ok, err := s.app.DeleteMessage(id)
		if err != nil {
			s.logFailure(r, "delete message", err)
			w.WriteHeader(http.StatusOK)
			return
		}
		if !ok {
			w.WriteHeader(http.StatusOK)
			return
		}
		writeJSON(w, http.StatusOK, msg)
	case http.MethodPatch:
		var req updateMessageRequest
		if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		msg, err := s.app.UpdateMessageText(id, req.MessageText)
		if err != nil {
			s.logFailure(r, "update message", err)
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, msg)
	default:
		methodNotAllowed(w)
	}
}

// GET /accounts/{account_id}/messages.
func (s *Server) handleAccountMessages(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/accounts/")
	parts := strings.SplitN(path, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] != "messages" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	accountID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "account_id must be an integer")
		return
	}
	msgs, err := s.app.MessagesByAccount(accountID)
	if err != nil {
		// Storage errors collapse to an empty result.
		s.logFailure(r, "list account messages", err)
		msgs = nil
	}
	if msgs == nil {
		msgs = []domain.Message{}
	}
	writeJSON(w, http.StatusOK, msgs)
}

func (s *Server) allowRate(w http.ResponseWriter, r *http.Request, limiter *ratelimit.FixedWindowLimiter, msg string) bool {
	if limiter == nil {
		return true
	}
	key := r.URL.Path + "|" + clientIP(r)
	if limiter.Allow(key) {
		return true
	}
	w.Header().Set("Retry-After", "60")
	writeError(w, http.StatusTooManyRequests, msg)
	return false
}

// logFailure records rejected requests. Validation misses log at debug,
// anything else (storage, connectivity) at error; either way the client
// only sees the endpoint's fixed failure shape.
func (s *Server) logFailure(r *http.Request, op string, err error) {
	logger := util.LoggerFromContext(r.Context())
	if isValidationErr(err) {
		logger.Debug(op+" rejected", "reason", err.Error())
		return
	}
	logger.Error(op+" failed", "err", err)
}

func isValidationErr(err error) bool {
	for _, sentinel := range []error{
		app.ErrUsernameRequired,
		app.ErrPasswordTooShort,
		app.ErrUsernameTaken,
		app.ErrInvalidCredentials,
		app.ErrMessageTextRequired,
		app.ErrMessageTextTooLong,
		app.ErrUnknownAccount,
		app.ErrMessageNotFound,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

func clientIP(r *http.Request) string {
	if xfwd := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); xfwd != "" {
		parts := strings.Split(xfwd, ",")
		if len(parts) > 0 {
			ip := strings.TrimSpace(parts[0])
			if ip != "" {
				return ip
			}
		}
	}
	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		return realIP
	}
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil && host != "" {
		return host
	}
	return strings.TrimSpace(r.RemoteAddr)
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

type accountRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type messageRequest struct {
	PostedBy        int64  `json:"posted_by"`
	MessageText     string `json:"message_text"`
	TimePostedEpoch int64  `json:"time_posted_epoch"`
}

type updateMessageRequest struct {
	MessageText string `json:"message_text"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
