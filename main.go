package main

import (
	"context"
	"os"
	"strconv"
	"time"

	"github.com/MicahParks/keyfunc"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"kanmind-api/api"
	"kanmind-api/storage"
)

func main() {
	// A missing .env is fine in production; config comes from the real
	// environment there.
	_ = godotenv.Load()

	if dbg, err := strconv.ParseBool(os.Getenv("DEBUG")); err == nil && dbg {
		log.SetLevel(log.DebugLevel)
	}

	ctx := context.Background()

	dsn, err := storage.DSNFromEnv()
	if err != nil {
		log.Fatalf("database config: %v", err)
	}
	store, err := storage.New(ctx, dsn)
	if err != nil {
		log.Fatalf("storage: %v", err)
	}
	defer store.Close()

	var revoker api.Revoker
	if redisConn := os.Getenv("REDIS_CONNECTION_STRING"); redisConn != "" {
		redisOpts, err := redis.ParseURL(redisConn)
		if err != nil {
			log.Fatalf("invalid REDIS_CONNECTION_STRING: %v", err)
		}
		revoker = api.NewRedisRevoker(redis.NewClient(redisOpts))
	} else {
		log.Warn("REDIS_CONNECTION_STRING not set; logout will not revoke tokens")
	}

	tokenTTL := time.Duration(0)
	if v := os.Getenv("TOKEN_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			log.Fatalf("invalid TOKEN_TTL: %v", err)
		}
		tokenTTL = d
	}

	var auth *api.Auth
	var issuer api.TokenIssuer
	if jwksURL := os.Getenv("AUTH_JWKS_URL"); jwksURL != "" {
		jwks, err := keyfunc.Get(jwksURL, keyfunc.Options{})
		if err != nil {
			log.Fatalf("jwks: %v", err)
		}
		auth = api.NewAuth(jwks, os.Getenv("AUTH_AUDIENCE"), os.Getenv("AUTH_ISSUER"), nil, tokenTTL)
	} else {
		secret := os.Getenv("AUTH_SECRET")
		if secret == "" {
			log.Fatal("missing auth config: set AUTH_JWKS_URL or AUTH_SECRET")
		}
		auth = api.NewAuth(nil, os.Getenv("AUTH_AUDIENCE"), os.Getenv("AUTH_ISSUER"), []byte(secret), tokenTTL)
		issuer = auth
	}
	resolver := &api.Resolver{Auth: auth, Users: store, Revoked: revoker}

	e := echo.New()
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	logger := log.New()
	api.Register(e, store, resolver, issuer, revoker, logger)

	listenAddr := ":8080"
	if port := os.Getenv("SERVER_PORT"); port != "" {
		listenAddr = ":" + port
	}

	e.Logger.Fatal(e.Start(listenAddr))
}
