package api

import (
	"context"
	"crypto/subtle"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/keyauth"
)

// ErrUnauthenticated is returned for mutating requests whose caller could
// not be established.
var ErrUnauthenticated = errors.New("api: missing or invalid credentials")

// Authenticator resolves a bearer credential to a caller identity.
type Authenticator interface {
	Authenticate(ctx context.Context, key string) (identity string, err error)
}

// Client binds an API key to the identity it authenticates.
type Client struct {
	Identity string `json:"identity" mapstructure:"identity"`
	Key      string `json:"key" mapstructure:"key"`
}

// StaticKeys authenticates against a fixed set of clients.
type StaticKeys []Client

func (k StaticKeys) Authenticate(_ context.Context, key string) (string, error) {
	for _, c := range k {
		if c.Key != "" && subtle.ConstantTimeCompare([]byte(c.Key), []byte(key)) == 1 {
			return c.Identity, nil
		}
	}
	return "", ErrUnauthenticated
}

const identityLocal = "vesting.identity"

// authenticate verifies the Authorization bearer key of mutating requests.
// Reads pass through untouched.
func (s *Server) authenticate() fiber.Handler {
	return keyauth.New(keyauth.Config{
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodGet || c.Method() == fiber.MethodHead
		},
		Validator: func(c *fiber.Ctx, key string) (bool, error) {
			identity, err := s.auth.Authenticate(c.UserContext(), key)
			if err != nil || identity == "" {
				return false, ErrUnauthenticated
			}
			c.Locals(identityLocal, identity)
			return true, nil
		},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			s.logger.Warn("api request rejected",
				"method", c.Method(),
				"path", c.Path(),
				"error", err,
			)
			return ErrUnauthenticated
		},
	})
}

// caller returns the authenticated identity of the request, or the
// CallerHeader value when the server trusts it.
func (s *Server) caller(c *fiber.Ctx) string {
	if identity, ok := c.Locals(identityLocal).(string); ok && identity != "" {
		return identity
	}
	if s.trustHeader {
		return c.Get(CallerHeader)
	}
	return ""
}
