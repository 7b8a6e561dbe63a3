package server

import (
	"context"
	"encoding/json"
	"fmt"
	"inbox-lab/auth"
	"inbox-lab/contract"
	"inbox-lab/domain"
	"inbox-lab/errors"
	"inbox-lab/observability"
	"inbox-lab/services"
	"log/slog"
	"net/http"
	"time"
)

const maxBodyBytes = 1 << 20

type loginResponse struct {
	Token string `json:"token"`
}

type sendBody struct {
	Text string `json:"text"`
}

type watchResponse struct {
	ThreadID string `json:"thread_id"`
	Watching bool   `json:"watching"`
}

type healthResponse struct {
	Status   string                        `json:"status"`
	Clients  int                           `json:"clients"`
	Watchers int                           `json:"watchers"`
	Stats    observability.MonitoringStats `json:"stats"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// HTTPServer exposes the inbox service as a small JSON API.
type HTTPServer struct {
	log      *slog.Logger
	auth     services.IAuthService
	inbox    services.IInboxService
	clients  contract.IClientRegistry
	watchers contract.IWatcherRegistry
	monitor  *observability.MonitoringManager
	issuer   *auth.TokenIssuer
}

func NewHTTPServer(
	log *slog.Logger,
	authService services.IAuthService,
	inbox services.IInboxService,
	clients contract.IClientRegistry,
	watchers contract.IWatcherRegistry,
	monitor *observability.MonitoringManager,
	issuer *auth.TokenIssuer,
) *HTTPServer {
	return &HTTPServer{
		log:      log,
		auth:     authService,
		inbox:    inbox,
		clients:  clients,
		watchers: watchers,
		monitor:  monitor,
		issuer:   issuer,
	}
}

func (s *HTTPServer) Handler() http.Handler {
	api := http.NewServeMux()
	api.HandleFunc("POST /logout", s.logout)
	api.HandleFunc("GET /api/threads", s.listThreads)
	api.HandleFunc("POST /api/threads/{id}/watch", s.openWatch)
	api.HandleFunc("DELETE /api/threads/{id}/watch", s.closeWatch)
	api.HandleFunc("GET /api/messages/{id}", s.getMessages)
	api.HandleFunc("POST /api/send/{id}", s.send)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /login", s.login)
	mux.HandleFunc("GET /healthz", s.health)
	mux.Handle("/", auth.Middleware(s.issuer, api))
	return mux
}

func (s *HTTPServer) login(w http.ResponseWriter, r *http.Request) {
	var req auth.LoginRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	token, err := s.auth.Login(r.Context(), domain.UserID(req.Username), req.Password)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{Token: token.String()})
}

func (s *HTTPServer) logout(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserFromContext(r.Context())
	// The remote logout must finish even if the client goes away
	s.auth.Logout(context.WithoutCancel(r.Context()), userID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *HTTPServer) listThreads(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserFromContext(r.Context())
	threads, err := s.inbox.ListThreads(r.Context(), userID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, threads)
}

func (s *HTTPServer) openWatch(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserFromContext(r.Context())
	threadID := r.PathValue("id")
	if err := s.inbox.OpenThreadWatch(userID, domain.ThreadID(threadID)); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, watchResponse{ThreadID: threadID, Watching: true})
}

func (s *HTTPServer) closeWatch(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserFromContext(r.Context())
	threadID := r.PathValue("id")
	s.inbox.CloseThreadWatch(userID, domain.ThreadID(threadID))
	writeJSON(w, http.StatusOK, watchResponse{ThreadID: threadID, Watching: false})
}

func (s *HTTPServer) getMessages(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserFromContext(r.Context())
	thread, err := s.inbox.GetNormalizedThread(
		r.Context(), userID, domain.ThreadID(r.PathValue("id")), r.URL.Query().Get("timezone"),
	)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, thread)
}

func (s *HTTPServer) send(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserFromContext(r.Context())
	var body sendBody
	if err := decodeBody(w, r, &body); err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.inbox.Send(r.Context(), userID, domain.ThreadID(r.PathValue("id")), body.Text); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *HTTPServer) health(w http.ResponseWriter, _ *http.Request) {
	resp := healthResponse{
		Status:   "ok",
		Clients:  s.clients.Len(),
		Watchers: len(s.watchers.Keys()),
	}
	if s.monitor != nil {
		resp.Stats = s.monitor.GetLatest()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *HTTPServer) writeError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		s.log.Error("Request failed", "status", status, "error", err)
	} else {
		s.log.Debug("Request rejected", "status", status, "error", err)
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

// StatusFor maps a service error to its HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, errors.ErrAuthenticationFailed),
		errors.Is(err, errors.ErrNotAuthenticated),
		errors.Is(err, errors.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, errors.ErrInvalidRequest),
		errors.Is(err, errors.ErrInvalidTimezone):
		return http.StatusBadRequest
	case errors.Is(err, errors.ErrFetchFailed),
		errors.Is(err, errors.ErrSendFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: malformed body: %v", errors.ErrInvalidRequest, err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// NewServer builds the listening server with conservative timeouts.
func NewServer(address string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              address,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
	}
}
