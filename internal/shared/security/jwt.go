package security

import (
	"errors"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrJWTSecretMissing = errors.New("JWT_SECRET is not set")
	ErrTicketClaims     = errors.New("ticket claims incomplete")
)

// TicketClaims 是断线重连票据：凭它可以不带 player_id 重新加入原会话。
type TicketClaims struct {
	SessionID string `json:"session_id"`
	PlayerID  string `json:"player_id"`
	jwt.RegisteredClaims
}

func jwtSecret() ([]byte, error) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return nil, ErrJWTSecretMissing
	}
	return []byte(secret), nil
}

// IssueTicket 签发重连票据，ttl<=0 时默认 24 小时。
func IssueTicket(sessionID, playerID string, ttl time.Duration) (string, error) {
	key, err := jwtSecret()
	if err != nil {
		return "", err
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	now := time.Now()
	claims := &TicketClaims{
		SessionID: sessionID,
		PlayerID:  playerID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   playerID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(key)
}

// ParseTicket 解析并验证票据。
func ParseTicket(tokenStr string) (*TicketClaims, error) {
	key, err := jwtSecret()
	if err != nil {
		return nil, err
	}

	claims := &TicketClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return key, nil
	})
	if err != nil {
		return nil, err
	}
	if token == nil || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	if claims.SessionID == "" || claims.PlayerID == "" {
		return nil, ErrTicketClaims
	}
	return claims, nil
}
