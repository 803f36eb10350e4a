package main

import (
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	jwtware "github.com/gofiber/jwt/v3"
	"github.com/golang-jwt/jwt/v5"
)

func registerBaseRoutes(app *fiber.App, db *sql.DB) {
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"name": "LOWKEY chat API", "status": "ok"})
	})
	app.Get("/health", func(c *fiber.Ctx) error {
		if err := db.Ping(); err != nil {
			return c.Status(http.StatusServiceUnavailable).SendString("db: down")
		}
		return c.SendString("ok")
	})
	app.Get("/time", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"utc": time.Now().UTC()})
	})
	app.Get("/version", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"version": os.Getenv("LOWKEY_VERSION")})
	})
}

// registerAuthMiddleware returns the /api group every chat route hangs
// off. Tokens are minted by the main LOWKEY API; this service only
// validates them with the shared secret.
func registerAuthMiddleware(app *fiber.App, jwtSecret []byte) fiber.Router {
	return app.Group("/api",
		jwtware.New(jwtware.Config{
			SigningKey: jwtSecret,
			ContextKey: "jwt",
			ErrorHandler: func(c *fiber.Ctx, err error) error {
				return c.Status(http.StatusUnauthorized).JSON(fiber.Map{
					"success": false,
					"message": "unauthorized",
				})
			},
		}),
	)
}

// helper: get user ID (sub) from the Authorization header
func getUserID(c *fiber.Ctx) (string, error) {
	auth := c.Get("Authorization")
	if auth == "" {
		auth = c.Get("authorization")
	}
	const p = "Bearer "
	if !strings.HasPrefix(auth, p) {
		return "", fmt.Errorf("no bearer")
	}
	tokenStr := strings.TrimSpace(auth[len(p):])

	tok, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected alg")
		}
		return []byte(env("JWT_SECRET", "dev-secret-please-change")), nil
	})
	if err != nil || !tok.Valid {
		return "", fmt.Errorf("invalid token")
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("bad claims")
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return "", fmt.Errorf("no sub")
	}
	return sub, nil
}
