package main // Entry point package

import (
	"log"  // Logging library
	"time" // basket TTL

	"github.com/joho/godotenv"    // .env loader for local development
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/iliyamo/rewear-exchange/internal/config"     // Internal config loader
	"github.com/iliyamo/rewear-exchange/internal/database"   // MySQL connection
	"github.com/iliyamo/rewear-exchange/internal/handler"    // HTTP handlers
	"github.com/iliyamo/rewear-exchange/internal/ledger"     // exchange accounting core
	"github.com/iliyamo/rewear-exchange/internal/middleware" // rate limiting and caching
	"github.com/iliyamo/rewear-exchange/internal/queue"      // background event consumer
	"github.com/iliyamo/rewear-exchange/internal/repository" // DB repositories
	"github.com/iliyamo/rewear-exchange/internal/router"     // route registration
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load() // Load environment config

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis backs the basket, the rate limiter and the response cache.
	// A nil client disables all three; the API itself keeps working.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable; basket, rate limiting and caching disabled")
	}

	// repositories
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	items := repository.NewItemRepo(db)
	swaps := repository.NewSwapRepo(db)
	cats := repository.NewCategoryPointsRepo(db)
	reds := repository.NewRedemptionRepo(db)
	baskets := repository.NewBasketRepo(rdb, time.Duration(cfg.BasketTTLDays)*24*time.Hour)

	// the accounting core all contended mutations go through
	led := ledger.New(db, users, items, swaps, cats, reds)

	// handlers
	authH := handler.NewAuthHandler(cfg, users, tokens, baskets)
	publicH := handler.NewPublicHandler(items, users, cats)
	profileH := handler.NewProfileHandler(users, reds)
	itemH := handler.NewItemHandler(items, cats)
	basketH := handler.NewBasketHandler(baskets, items, users)
	redeemH := handler.NewRedeemHandler(led, baskets)
	swapH := handler.NewSwapHandler(led, swaps)
	adminH := handler.NewAdminHandler(led, items, users)

	e := echo.New()
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, cfg.JWTSecret))
	e.Use(middleware.NewRedisCache(config.LoadCacheConfig(), rdb))

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, cfg.JWTSecret)
	router.RegisterPublic(e, publicH, cfg.JWTSecret)
	router.RegisterUser(e, cfg.JWTSecret, profileH, itemH, basketH, redeemH, swapH)
	router.RegisterAdmin(e, cfg.JWTSecret, adminH)

	// background consumer logging swap and redemption events
	go func() {
		if err := queue.StartExchangeConsumer(); err != nil {
			log.Printf("exchange consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port                                // Address string with port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

	if err := e.Start(addr); err != nil { // Start HTTP server
		log.Fatal(err) // Log and exit if server fails
	}
}
