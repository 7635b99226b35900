package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"darshan-notifier/auth"
	"darshan-notifier/pkg/booking"
)

const (
	tokenCookieName = "auth_token"
	tokenHeaderName = "x-auth-token"

	tokenCookieMaxAge = 30 * 24 * 60 * 60 // 30 days, matching the upstream token lifetime
)

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{
		"service": "darshan-notifier",
		"status":  "ok",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// requestToken resolves the active token for a request: explicit header
// first, then the client's cookie, then whatever the resolver holds.
func (s *Server) requestToken(r *http.Request) (string, error) {
	return s.resolver.Resolve(r.Header.Get(tokenHeaderName), tokenCookie(r))
}

func (s *Server) handlePoll(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	token, err := s.requestToken(r)
	if err != nil {
		s.writeError(w, http.StatusUnauthorized, "Authentication token required")
		return
	}

	testMode := r.URL.Query().Has("test_mode")
	s.logger.Info("Poll endpoint triggered", "test_mode", testMode)

	result, err := s.poller.RunTick(r.Context(), token, testMode)
	if err != nil {
		if booking.IsUnauthorized(err) {
			s.writeError(w, http.StatusUnauthorized, "Authentication token expired or invalid")
			return
		}
		s.logger.Error("Poll tick failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "Failed to check slot availability")
		return
	}

	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleKind(kind booking.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		token, err := s.requestToken(r)
		if err != nil {
			s.writeError(w, http.StatusUnauthorized, "Authentication token required")
			return
		}

		slots, err := s.lister.AvailableSlots(r.Context(), token, kind)
		if err != nil {
			if booking.IsUnauthorized(err) {
				s.writeError(w, http.StatusUnauthorized, "Authentication token expired or invalid")
				return
			}
			s.logger.Error("Availability fetch failed", "kind", kind, "error", err)
			s.writeError(w, http.StatusInternalServerError, "Failed to get available slots")
			return
		}

		if slots == nil {
			slots = []booking.AvailableSlot{}
		}
		s.writeJSON(w, http.StatusOK, map[string][]booking.AvailableSlot{"availableSlots": slots})
	}
}

func (s *Server) handleSendOTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req auth.SendOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		s.writeError(w, http.StatusBadRequest, "A valid emailId and otpType are required")
		return
	}

	resp, err := s.otp.SendOTP(r.Context(), req)
	if err != nil {
		s.logger.Error("Send OTP failed", "error", err)
		s.writeError(w, upstreamStatus(err), "Failed to send OTP")
		return
	}

	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleValidateOTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req auth.ValidateOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		s.writeError(w, http.StatusBadRequest, "userId, otp and otpType are required")
		return
	}

	resp, err := s.otp.ValidateOTP(r.Context(), req)
	if err != nil {
		s.logger.Error("Validate OTP failed", "error", err)
		s.writeError(w, upstreamStatus(err), "Failed to validate OTP")
		return
	}

	// Mirror a fresh token onto the client cookie so the dashboard stays
	// logged in across visits.
	if resp.AuthTokenPresent {
		setTokenCookie(w, resp.AuthToken)
	}

	s.writeJSON(w, http.StatusOK, resp)
}

// upstreamStatus maps an OTP exchange failure to the status we surface:
// the upstream's own status when known, 502 otherwise.
func upstreamStatus(err error) int {
	var be *booking.Error
	if errors.As(err, &be) && be.Status >= 400 {
		return be.Status
	}
	return http.StatusBadGateway
}

func setTokenCookie(w http.ResponseWriter, token string) {
	cookie := &http.Cookie{
		Name:     tokenCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   tokenCookieMaxAge,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	}
	http.SetCookie(w, cookie)
}

func tokenCookie(r *http.Request) string {
	cookie, err := r.Cookie(tokenCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}
