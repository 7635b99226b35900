package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"darshan-notifier/pkg/booking"
)

// Header names the upstream may deliver a fresh token on. The tof header
// takes precedence when both are present.
const (
	tokenHeader    = "tof-auth-token"
	altTokenHeader = "x-auth-token"
)

// SendOTPRequest asks the upstream to mail a one-time code.
type SendOTPRequest struct {
	EmailID   string `json:"emailId"   validate:"required,email"`
	OTPType   string `json:"otpType"   validate:"required"`
	EmailFlag int    `json:"emailFlag"`
	AartiFlag int    `json:"aartiFlag"`
}

// SendOTPResponse carries the user identifier the code was issued against.
type SendOTPResponse struct {
	UserID        string `json:"userId"`
	StatusMessage string `json:"statusMessage"`
	ActionMsg     string `json:"actionMsg"`
}

// ValidateOTPRequest submits the code for a pending login.
type ValidateOTPRequest struct {
	UserID  string `json:"userId"  validate:"required"`
	OTP     string `json:"otp"     validate:"required"`
	OTPType string `json:"otpType" validate:"required"`
}

// ValidateOTPResponse reports the login outcome. AuthToken is filled from the
// response header when the upstream delivered one, body otherwise.
type ValidateOTPResponse struct {
	LoginSuccess     bool   `json:"loginSuccess"`
	StatusMessage    string `json:"statusMessage"`
	AuthToken        string `json:"authToken,omitempty"`
	AuthTokenPresent bool   `json:"authTokenPresent"`
}

// Login drives the two-step OTP exchange against the upstream account API.
// OTP calls attach whatever token is currently resolvable but don't require
// one: logging in is how an expired token gets replaced.
type Login struct {
	httpClient *http.Client
	logger     *slog.Logger
	resolver   *Resolver
	baseURL    string
}

// NewLogin creates a new OTP login client.
func NewLogin(httpClient *http.Client, baseURL string, resolver *Resolver, logger *slog.Logger) *Login {
	return &Login{
		httpClient: httpClient,
		logger:     logger,
		resolver:   resolver,
		baseURL:    baseURL,
	}
}

// SendOTP requests a one-time code for the given email. Fails when the
// upstream returns no user identifier.
func (l *Login) SendOTP(ctx context.Context, req SendOTPRequest) (*SendOTPResponse, error) {
	var out SendOTPResponse
	if _, err := l.postJSON(ctx, l.baseURL+"/account/resendOtp", req, &out); err != nil {
		return nil, fmt.Errorf("send otp: %w", err)
	}
	if out.UserID == "" {
		return nil, &booking.Error{Kind: booking.ErrUpstream, Message: "no userId returned from upstream"}
	}
	l.logger.Info("OTP requested", "user_id", out.UserID)
	return &out, nil
}

// ValidateOTP submits the code. On success the fresh token is written to the
// resolver; the caller is responsible for mirroring it onto a cookie.
func (l *Login) ValidateOTP(ctx context.Context, req ValidateOTPRequest) (*ValidateOTPResponse, error) {
	var out ValidateOTPResponse
	header, err := l.postJSON(ctx, l.baseURL+"/account/validateOtp", req, &out)
	if err != nil {
		return nil, fmt.Errorf("validate otp: %w", err)
	}

	token := header.Get(tokenHeader)
	if token == "" {
		token = header.Get(altTokenHeader)
	}
	if token != "" {
		out.AuthToken = token
	}
	out.AuthTokenPresent = out.AuthToken != ""

	if out.LoginSuccess && out.AuthTokenPresent {
		l.resolver.Store(out.AuthToken)
		l.logger.Info("OTP login succeeded, token stored", "user_id", req.UserID)
	} else {
		l.logger.Warn("OTP validation did not yield a login",
			"user_id", req.UserID,
			"login_success", out.LoginSuccess,
			"token_present", out.AuthTokenPresent)
	}

	return &out, nil
}

func (l *Login) postJSON(ctx context.Context, url string, in, out any) (http.Header, error) {
	body, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token, tokenErr := l.resolver.Resolve("", ""); tokenErr == nil {
		req.Header.Set(tokenHeader, token)
	}

	startTime := time.Now()
	resp, err := l.httpClient.Do(req)
	duration := time.Since(startTime)

	if err != nil {
		l.logger.Warn("OTP request failed",
			"url", url,
			"duration_ms", duration.Milliseconds(),
			"error", err)
		return nil, booking.NewUpstream(0, "request failed", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			l.logger.Warn("Failed to close response body", "error", closeErr)
		}
	}()

	l.logger.Debug("OTP request completed",
		"url", url,
		"status_code", resp.StatusCode,
		"duration_ms", duration.Milliseconds())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, booking.NewUpstream(resp.StatusCode, fmt.Sprintf("HTTP %d", resp.StatusCode), nil)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return nil, booking.NewUpstream(resp.StatusCode, "decode response", err)
	}

	return resp.Header, nil
}
