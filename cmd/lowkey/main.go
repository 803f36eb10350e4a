package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	// --- Config ---
	dsn := env("DATABASE_URL", "")
	if dsn == "" {
		dsn = fmt.Sprintf(
			"postgres://%s:%s@%s:%s/%s?sslmode=disable",
			env("DB_USER", "lowkey"),
			env("DB_PASSWORD", "lowkey123"),
			env("DB_HOST", "127.0.0.1"),
			env("DB_PORT", "5432"),
			env("DB_NAME", "lowkeydb"),
		)
	}
	jwtSecret := []byte(env("JWT_SECRET", "dev-secret-please-change"))

	// --- DB + migrations ---
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		log.Fatal("sql.Open:", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		log.Fatal("db ping:", err)
	}
	if err := runMigrations(ctx, db); err != nil {
		log.Fatal("migrate:", err)
	}

	// --- Redis (online presence) ---
	rdb := redis.NewClient(&redis.Options{
		Addr:     env("REDIS_ADDR", "127.0.0.1:6379"),
		Password: env("REDIS_PASSWORD", ""),
		DB:       0,
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Fatal("redis ping:", err)
	}
	online := newOnlineStore(
		rdb,
		time.Duration(envInt("PRESENCE_TTL_SECONDS", 60))*time.Second,
		time.Duration(envInt("PRESENCE_TICK_SECONDS", 20))*time.Second,
	)

	// --- Stores + gateway ---
	rooms := newRoomStore(db)
	msgs := newMessageStore(db, rooms)
	gw := &gateway{
		hub:     newHub(),
		tracker: newPresenceTracker(),
		online:  online,
		rooms:   rooms,
		msgs:    msgs,
	}

	// --- App + routes ---
	app := fiber.New()
	registerBaseRoutes(app, db)
	protected := registerAuthMiddleware(app, jwtSecret)
	registerRoomRoutes(protected, rooms)
	registerMessageRoutes(protected, msgs)
	registerPresenceRoutes(protected, rooms, online)
	registerWebsocket(app, gw, jwtSecret)

	go func() {
		if err := app.Listen(":" + env("PORT", "8080")); err != nil {
			log.Fatal("listen:", err)
		}
	}()
	log.Printf("LOWKEY chat API running on port %s", env("PORT", "8080"))

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		envDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		map[string]gfshutdown.Operation{
			"fiber": func(ctx context.Context) error {
				return app.ShutdownWithContext(ctx)
			},
			"postgres": func(ctx context.Context) error {
				return db.Close()
			},
			"redis": func(ctx context.Context) error {
				return rdb.Close()
			},
		},
	)
	os.Exit(<-wait)
}
