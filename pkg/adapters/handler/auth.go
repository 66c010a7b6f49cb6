package handler

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/linkshala/linkshala-api/pkg/config"
	apperr "github.com/linkshala/linkshala-api/pkg/errors"
	"github.com/linkshala/linkshala-api/pkg/validation"
	"github.com/rs/zerolog/hlog"
	"golang.org/x/crypto/bcrypt"
)

// adminSubject is the only subject ever issued; there is one admin role.
const adminSubject = "admin"

type AuthHandler struct {
	password  string
	jwtSecret []byte
	ttl       time.Duration
	validate  *validation.Validator
	now       func() time.Time
}

func NewAuthHandler(cfg *config.Config, v *validation.Validator) *AuthHandler {
	return &AuthHandler{
		password:  cfg.AdminPassword,
		jwtSecret: []byte(cfg.JWTSecret),
		ttl:       cfg.TokenTTL,
		validate:  v,
		now:       time.Now,
	}
}

type LoginRequest struct {
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Login exchanges the admin secret for a signed token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.validate.Validate(req); err != nil {
		writeError(w, r, err)
		return
	}

	if !h.checkPassword(req.Password) {
		hlog.FromRequest(r).Warn().Msg("Admin login failed")
		writeError(w, r, apperr.Unauthorized("invalid password"))
		return
	}

	expiresAt := h.now().Add(h.ttl).UTC()
	claims := &jwt.RegisteredClaims{
		Subject:   adminSubject,
		IssuedAt:  jwt.NewNumericDate(h.now()),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(h.jwtSecret)
	if err != nil {
		writeError(w, r, apperr.Internal(err, "failed to sign token"))
		return
	}

	hlog.FromRequest(r).Info().Msg("Admin logged in")
	writeJSON(w, http.StatusOK, LoginResponse{Token: token, ExpiresAt: expiresAt})
}

// Verify sits behind the guard, so reaching it means the token is good.
func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"valid": true})
}

// checkPassword accepts a bcrypt hash or a plaintext secret. An empty
// configured secret disables login.
func (h *AuthHandler) checkPassword(candidate string) bool {
	if h.password == "" {
		return false
	}
	if strings.HasPrefix(h.password, "$2a$") || strings.HasPrefix(h.password, "$2b$") || strings.HasPrefix(h.password, "$2y$") {
		return bcrypt.CompareHashAndPassword([]byte(h.password), []byte(candidate)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(h.password), []byte(candidate)) == 1
}
