// Package server handles HTTP endpoints and request routing.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"darshan-notifier/auth"
	"darshan-notifier/pkg/booking"
)

// Poller interface for triggering poll ticks.
type Poller interface {
	RunTick(ctx context.Context, token string, testMode bool) (*booking.TickResult, error)
}

// SlotLister interface for the per-kind read endpoints.
type SlotLister interface {
	AvailableSlots(ctx context.Context, token string, kind booking.Kind) ([]booking.AvailableSlot, error)
}

// TokenResolver interface for picking the active token for a request.
type TokenResolver interface {
	Resolve(explicit, cookie string) (string, error)
}

// OTPClient interface for the two-step login exchange.
type OTPClient interface {
	SendOTP(ctx context.Context, req auth.SendOTPRequest) (*auth.SendOTPResponse, error)
	ValidateOTP(ctx context.Context, req auth.ValidateOTPRequest) (*auth.ValidateOTPResponse, error)
}

// Server handles HTTP requests.
type Server struct {
	poller   Poller
	lister   SlotLister
	resolver TokenResolver
	otp      OTPClient
	logger   *slog.Logger
	validate *validator.Validate
}

// Config holds server configuration.
type Config struct {
	Poller   Poller
	Lister   SlotLister
	Resolver TokenResolver
	OTP      OTPClient
	Logger   *slog.Logger
}

// New creates a new HTTP server handler.
func New(cfg *Config) *Server {
	return &Server{
		poller:   cfg.Poller,
		lister:   cfg.Lister,
		resolver: cfg.Resolver,
		otp:      cfg.OTP,
		logger:   cfg.Logger,
		validate: validator.New(),
	}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleRoot)
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/poll", s.handlePoll)
	mux.HandleFunc("/darshan", s.handleKind(booking.Darshan))
	mux.HandleFunc("/aarti", s.handleKind(booking.Aarti))
	mux.HandleFunc("/auth/send-otp", s.handleSendOTP)
	mux.HandleFunc("/auth/validate-otp", s.handleValidateOTP)
	return mux
}

// ListenAndServe starts the server on the given port.
func (s *Server) ListenAndServe(port string) error {
	// Configure server with timeouts to prevent resource exhaustion
	server := &http.Server{
		Addr:              ":" + port,
		Handler:           s.Handler(),
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      90 * time.Second, // a poll tick walks every candidate date upstream
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	s.logger.Info("Starting HTTP server", "port", port)
	return server.ListenAndServe()
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("Failed to write response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
