package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"pixvip/api/internal/logger"
)

// BotClaims identifies the Discord bot calling the token validation endpoint.
type BotClaims struct {
	Bot string `json:"bot,omitempty"`
	jwt.RegisteredClaims
}

// BotAuth requires an HS256 bearer token signed with secret. An empty secret
// disables the check.
func BotAuth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if secret == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}
			raw, ok := bearerToken(r)
			if !ok {
				unauthorized(w, "Cabeçalho Authorization ausente.")
				return
			}
			claims, err := ParseBotToken(raw, secret)
			if err != nil {
				logger.Warnf("[AUTH] token do bot rejeitado: %v", err)
				unauthorized(w, "Token de autenticação inválido.")
				return
			}
			logger.Debugf("[AUTH] bot autenticado: %s", claims.Subject)
			next.ServeHTTP(w, r)
		})
	}
}

// ParseBotToken validates signature, algorithm and expiry.
func ParseBotToken(raw, secret string) (*BotClaims, error) {
	claims := &BotClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("parse bot token: %w", err)
	}
	return claims, nil
}

// IssueBotToken signs a token for the bot; used by vipctl.
func IssueBotToken(subject, secret string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("BOT_JWT_SECRET não configurado")
	}
	now := time.Now()
	claims := BotClaims{
		Bot: subject,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  subject,
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return "", false
	}
	return strings.TrimSpace(h[len(prefix):]), true
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"valid":   false,
		"reason":  "UNAUTHORIZED",
		"message": message,
	})
}
