package http

import (
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/aryaduta/workhub-realtime/internal/config"
	"github.com/aryaduta/workhub-realtime/internal/delivery/ws"
	"github.com/aryaduta/workhub-realtime/internal/usecase"
)

// Handler wires the HTTP surface: the WebSocket upgrade endpoint and the
// internal trigger API the marketplace backend calls into
type Handler struct {
	cfg      *config.Config
	gateway  *ws.Gateway
	hub      *ws.Hub
	notifier *usecase.Notifier
	recent   *ws.RecentEvents
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

// NewHandler creates the HTTP handler set
func NewHandler(cfg *config.Config, gateway *ws.Gateway, hub *ws.Hub, notifier *usecase.Notifier, recent *ws.RecentEvents, logger *slog.Logger) *Handler {
	h := &Handler{
		cfg:      cfg,
		gateway:  gateway,
		hub:      hub,
		notifier: notifier,
		recent:   recent,
		logger:   logger.With(slog.String("component", "http")),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return h.isOriginAllowed(r.Header.Get("Origin"))
		},
	}
	return h
}

// isOriginAllowed checks if the origin is in the allowed list
func (h *Handler) isOriginAllowed(origin string) bool {
	// Empty origin is allowed (same-origin and non-browser clients)
	if origin == "" {
		return true
	}

	for _, allowed := range h.cfg.AllowedOrigins {
		if allowed == "*" || origin == allowed {
			return true
		}
	}
	return false
}

// HandleWebSocket upgrades the request and hands the connection to the
// gateway, which authenticates it before anything else happens
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	h.gateway.Accept(conn, r)
}

// requireServiceToken guards the internal API with the shared service
// token. Returns false after writing the error response.
func (h *Handler) requireServiceToken(w http.ResponseWriter, r *http.Request) bool {
	if h.cfg.ServiceToken == "" {
		http.Error(w, "Internal API not configured", http.StatusServiceUnavailable)
		return false
	}
	token := r.Header.Get("X-Service-Token")
	if subtle.ConstantTimeCompare([]byte(token), []byte(h.cfg.ServiceToken)) != 1 {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return false
	}
	return true
}

func (h *Handler) decodeTrigger(w http.ResponseWriter, r *http.Request, dst any) bool {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return false
	}
	return true
}

func (h *Handler) triggerResult(w http.ResponseWriter, err error) {
	if err != nil {
		h.logger.Error("trigger dispatch failed", slog.Any("error", err))
		http.Error(w, "Invalid payload", http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "dispatched"})
}

// HandleKYCStatusChanged triggers "KYC status changed": subject's personal
// group plus the admin group
func (h *Handler) HandleKYCStatusChanged(w http.ResponseWriter, r *http.Request) {
	if !h.requireServiceToken(w, r) {
		return
	}

	var req struct {
		UserID  string          `json:"user_id"`
		Payload json.RawMessage `json:"payload"`
	}
	if !h.decodeTrigger(w, r, &req) {
		return
	}
	if req.UserID == "" {
		http.Error(w, "user_id required", http.StatusBadRequest)
		return
	}
	h.triggerResult(w, h.notifier.KYCStatusChanged(req.UserID, req.Payload))
}

// HandleJobApproved triggers "job approved": the student role group, or
// every connection when broadcast is requested
func (h *Handler) HandleJobApproved(w http.ResponseWriter, r *http.Request) {
	if !h.requireServiceToken(w, r) {
		return
	}

	var req struct {
		Broadcast bool            `json:"broadcast"`
		Payload   json.RawMessage `json:"payload"`
	}
	if !h.decodeTrigger(w, r, &req) {
		return
	}
	if req.Broadcast {
		h.triggerResult(w, h.notifier.JobApprovedBroadcast(req.Payload))
		return
	}
	h.triggerResult(w, h.notifier.JobApproved(req.Payload))
}

// HandleJobRejected triggers "job rejected": the employer's personal group
func (h *Handler) HandleJobRejected(w http.ResponseWriter, r *http.Request) {
	if !h.requireServiceToken(w, r) {
		return
	}

	var req struct {
		EmployerID string          `json:"employer_id"`
		Payload    json.RawMessage `json:"payload"`
	}
	if !h.decodeTrigger(w, r, &req) {
		return
	}
	if req.EmployerID == "" {
		http.Error(w, "employer_id required", http.StatusBadRequest)
		return
	}
	h.triggerResult(w, h.notifier.JobRejected(req.EmployerID, req.Payload))
}

// HandleNewApplication triggers "new application received": the employer's
// personal group plus the job's topic group
func (h *Handler) HandleNewApplication(w http.ResponseWriter, r *http.Request) {
	if !h.requireServiceToken(w, r) {
		return
	}

	var req struct {
		EmployerID string          `json:"employer_id"`
		JobID      string          `json:"job_id"`
		Payload    json.RawMessage `json:"payload"`
	}
	if !h.decodeTrigger(w, r, &req) {
		return
	}
	if req.EmployerID == "" || req.JobID == "" {
		http.Error(w, "employer_id and job_id required", http.StatusBadRequest)
		return
	}
	h.triggerResult(w, h.notifier.NewApplication(req.EmployerID, req.JobID, req.Payload))
}

// HandleApplicationStatusUpdated triggers "application status updated":
// the student's personal group
func (h *Handler) HandleApplicationStatusUpdated(w http.ResponseWriter, r *http.Request) {
	if !h.requireServiceToken(w, r) {
		return
	}

	var req struct {
		StudentID string          `json:"student_id"`
		Payload   json.RawMessage `json:"payload"`
	}
	if !h.decodeTrigger(w, r, &req) {
		return
	}
	if req.StudentID == "" {
		http.Error(w, "student_id required", http.StatusBadRequest)
		return
	}
	h.triggerResult(w, h.notifier.ApplicationStatusUpdated(req.StudentID, req.Payload))
}

// HandlePresence reports whether a user currently has open connections
func (h *Handler) HandlePresence(w http.ResponseWriter, r *http.Request) {
	if !h.requireServiceToken(w, r) {
		return
	}

	userID := r.URL.Query().Get("user")
	if userID == "" {
		http.Error(w, "user query parameter required", http.StatusBadRequest)
		return
	}

	registry := h.hub.Registry()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"user_id":     userID,
		"online":      registry.IsOnline(userID),
		"connections": len(registry.ConnectionsFor(userID)),
	})
}

// HandleRecentEvents returns the recently dispatched events for debugging
func (h *Handler) HandleRecentEvents(w http.ResponseWriter, r *http.Request) {
	if !h.requireServiceToken(w, r) {
		return
	}

	records := h.recent.Snapshot()
	if records == nil {
		records = []ws.EventRecord{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(records)
}

// HandleHealth is the liveness probe
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":      "ok",
		"connections": h.hub.ClientCount(),
	})
}
