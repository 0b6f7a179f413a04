package middleware

import (
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
)

// UserLocalKey is the fiber locals key holding the authenticated user id.
const UserLocalKey = "user_id"

type sessionClaims struct {
	WalletAddress string `json:"wallet_address"`
	jwt.RegisteredClaims
}

// MintSessionToken issues an HMAC session token for a wallet address, valid
// for 24 hours. userID is stored as the subject so handlers can attribute
// rows without another lookup.
func MintSessionToken(secret, walletAddress string, userID uint) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("session secret is not configured")
	}
	claims := sessionClaims{
		WalletAddress: walletAddress,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("%d", userID),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// SessionAuth validates an optional Bearer session token. Requests without a
// token proceed anonymously; a present but invalid token is rejected.
func SessionAuth(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			return c.Next()
		}
		if secret == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "sessions are not enabled on this server",
			})
		}

		tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		claims := &sessionClaims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid or expired session token",
			})
		}

		c.Locals(UserLocalKey, claims.Subject)
		return c.Next()
	}
}

// UserID returns the authenticated user id from locals, or nil for anonymous
// requests.
func UserID(c *fiber.Ctx) *string {
	if v, ok := c.Locals(UserLocalKey).(string); ok && v != "" {
		return &v
	}
	return nil
}
