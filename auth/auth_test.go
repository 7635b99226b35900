package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"darshan-notifier/pkg/booking"
)

type testWriter struct{}

func (testWriter) Write(p []byte) (int, error) { return len(p), nil }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(testWriter{}, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name     string
		explicit string
		cookie   string
		stored   string
		fallback string
		want     string
		wantErr  bool
	}{
		{
			name:     "explicit wins over everything",
			explicit: "header-tok",
			cookie:   "cookie-tok",
			stored:   "stored-tok",
			fallback: "fallback-tok",
			want:     "header-tok",
		},
		{
			name:     "cookie wins over stored and fallback",
			cookie:   "cookie-tok",
			stored:   "stored-tok",
			fallback: "fallback-tok",
			want:     "cookie-tok",
		},
		{
			name:     "stored wins over fallback",
			stored:   "stored-tok",
			fallback: "fallback-tok",
			want:     "stored-tok",
		},
		{
			name:     "fallback alone",
			fallback: "fallback-tok",
			want:     "fallback-tok",
		},
		{
			name:    "nothing resolvable",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResolver(tt.fallback)
			if tt.stored != "" {
				r.Store(tt.stored)
			}

			got, err := r.Resolve(tt.explicit, tt.cookie)
			if tt.wantErr {
				if !booking.IsUnauthorized(err) {
					t.Errorf("expected Unauthorized, got token=%q err=%v", got, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Resolve() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResolveStoreOverwrites(t *testing.T) {
	r := NewResolver("")
	r.Store("first")
	r.Store("second")

	got, err := r.Resolve("", "")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got != "second" {
		t.Errorf("Resolve() = %q, want latest stored token", got)
	}
}

func TestSendOTP(t *testing.T) {
	var gotPath string
	var gotReq SendOTPRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(SendOTPResponse{UserID: "user-42", StatusMessage: "OTP sent"})
	}))
	defer srv.Close()

	login := NewLogin(srv.Client(), srv.URL, NewResolver(""), testLogger())

	resp, err := login.SendOTP(context.Background(), SendOTPRequest{
		EmailID: "pilgrim@example.com",
		OTPType: "L",
	})
	if err != nil {
		t.Fatalf("SendOTP() error = %v", err)
	}

	if gotPath != "/account/resendOtp" {
		t.Errorf("path = %q, want /account/resendOtp", gotPath)
	}
	if gotReq.EmailID != "pilgrim@example.com" {
		t.Errorf("forwarded emailId = %q", gotReq.EmailID)
	}
	if resp.UserID != "user-42" {
		t.Errorf("UserID = %q, want user-42", resp.UserID)
	}
}

func TestSendOTPNoUserID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(SendOTPResponse{StatusMessage: "unknown email"})
	}))
	defer srv.Close()

	login := NewLogin(srv.Client(), srv.URL, NewResolver(""), testLogger())

	if _, err := login.SendOTP(context.Background(), SendOTPRequest{EmailID: "x@example.com", OTPType: "L"}); !booking.IsUpstream(err) {
		t.Errorf("expected upstream error when no userId is returned, got %v", err)
	}
}

func TestValidateOTPHeaderTokenPrecedence(t *testing.T) {
	tests := []struct {
		name      string
		headers   map[string]string
		bodyToken string
		wantToken string
	}{
		{
			name:      "tof header over alt header and body",
			headers:   map[string]string{"tof-auth-token": "tof-tok", "x-auth-token": "alt-tok"},
			bodyToken: "body-tok",
			wantToken: "tof-tok",
		},
		{
			name:      "alt header over body",
			headers:   map[string]string{"x-auth-token": "alt-tok"},
			bodyToken: "body-tok",
			wantToken: "alt-tok",
		},
		{
			name:      "body token when headers absent",
			bodyToken: "body-tok",
			wantToken: "body-tok",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				for k, v := range tt.headers {
					w.Header().Set(k, v)
				}
				json.NewEncoder(w).Encode(ValidateOTPResponse{
					LoginSuccess:  true,
					StatusMessage: "ok",
					AuthToken:     tt.bodyToken,
				})
			}))
			defer srv.Close()

			resolver := NewResolver("")
			login := NewLogin(srv.Client(), srv.URL, resolver, testLogger())

			resp, err := login.ValidateOTP(context.Background(), ValidateOTPRequest{
				UserID: "user-42", OTP: "123456", OTPType: "L",
			})
			if err != nil {
				t.Fatalf("ValidateOTP() error = %v", err)
			}

			if !resp.AuthTokenPresent || resp.AuthToken != tt.wantToken {
				t.Errorf("AuthToken = %q (present=%v), want %q", resp.AuthToken, resp.AuthTokenPresent, tt.wantToken)
			}

			stored, err := resolver.Resolve("", "")
			if err != nil || stored != tt.wantToken {
				t.Errorf("resolver token = %q (err=%v), want %q stored", stored, err, tt.wantToken)
			}
		})
	}
}

func TestValidateOTPFailedLoginNotStored(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(ValidateOTPResponse{LoginSuccess: false, StatusMessage: "wrong otp"})
	}))
	defer srv.Close()

	resolver := NewResolver("")
	login := NewLogin(srv.Client(), srv.URL, resolver, testLogger())

	resp, err := login.ValidateOTP(context.Background(), ValidateOTPRequest{UserID: "u", OTP: "0", OTPType: "L"})
	if err != nil {
		t.Fatalf("ValidateOTP() error = %v", err)
	}
	if resp.LoginSuccess || resp.AuthTokenPresent {
		t.Errorf("unexpected success: %+v", resp)
	}
	if _, err := resolver.Resolve("", ""); !booking.IsUnauthorized(err) {
		t.Errorf("failed login must not store a token, got %v", err)
	}
}

func TestValidateOTPUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	login := NewLogin(srv.Client(), srv.URL, NewResolver(""), testLogger())

	_, err := login.ValidateOTP(context.Background(), ValidateOTPRequest{UserID: "u", OTP: "0", OTPType: "L"})
	if !booking.IsUpstream(err) {
		t.Fatalf("expected upstream error, got %v", err)
	}
	var be *booking.Error
	if !errors.As(err, &be) || be.Status != http.StatusBadRequest {
		t.Errorf("expected status 400 carried through, got %+v", be)
	}
}
