package server

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// Locals keys set by AuthMiddleware.
const (
	localOwner      = "owner"
	localCredential = "mailboxCredential"
)

// devOwner identifies requests when no JWT secret is configured.
const devOwner = "local"

// mailboxTokenHeader carries the caller's Gmail OAuth token. It is passed
// through to the mailbox service and never stored.
const mailboxTokenHeader = "X-Mailbox-Token"

// GenerateToken signs a session token for the given owner.
func GenerateToken(owner, secret string) (string, error) {
	claims := jwt.MapClaims{
		"sub": owner,
		"exp": time.Now().Add(24 * time.Hour).Unix(),
		"iat": time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseToken validates a session token and extracts the owner.
func ParseToken(tokenStr, secret string) (string, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", jwt.ErrTokenMalformed
	}

	owner, ok := claims["sub"].(string)
	if !ok || owner == "" {
		return "", jwt.ErrTokenMalformed
	}

	return owner, nil
}

// extractBearer returns the bearer token from the Authorization header,
// or "" when absent or malformed.
func extractBearer(c *fiber.Ctx) string {
	auth := c.Get(fiber.HeaderAuthorization)
	if auth == "" {
		return ""
	}

	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}

	return parts[1]
}

// AuthMiddleware resolves the request owner from the Authorization bearer
// token and stashes it in locals, along with the mailbox credential header.
// With an empty secret every request runs as the shared dev owner.
func AuthMiddleware(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		owner := devOwner
		if secret != "" {
			token := extractBearer(c)
			if token == "" {
				return fiber.NewError(fiber.StatusUnauthorized, "missing bearer token")
			}

			var err error
			owner, err = ParseToken(token, secret)
			if err != nil {
				return fiber.NewError(fiber.StatusUnauthorized, "invalid token")
			}
		}

		c.Locals(localOwner, owner)
		c.Locals(localCredential, c.Get(mailboxTokenHeader))
		return c.Next()
	}
}

func owner(c *fiber.Ctx) string {
	if v, ok := c.Locals(localOwner).(string); ok && v != "" {
		return v
	}
	return devOwner
}

func credential(c *fiber.Ctx) string {
	v, _ := c.Locals(localCredential).(string)
	return v
}
