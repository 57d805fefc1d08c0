package commands

import (
	"fmt"
	"time"

	"github.com/nmillrr/sec-clearance-algo/internal/backtest"
	"github.com/nmillrr/sec-clearance-algo/internal/engine"
	"github.com/nmillrr/sec-clearance-algo/internal/external/edgar"
	"github.com/nmillrr/sec-clearance-algo/internal/external/newswire"
	"github.com/nmillrr/sec-clearance-algo/internal/external/yahoo"
	"github.com/nmillrr/sec-clearance-algo/internal/sentiment"
	"github.com/nmillrr/sec-clearance-algo/internal/store"
	"github.com/nmillrr/sec-clearance-algo/pkg/config"
	"github.com/nmillrr/sec-clearance-algo/pkg/database"
	"github.com/nmillrr/sec-clearance-algo/pkg/httputil"
	"github.com/nmillrr/sec-clearance-algo/pkg/logger"
	"github.com/nmillrr/sec-clearance-algo/pkg/redis"
)

const (
	priceCacheTTL     = 24 * time.Hour
	sentimentCacheTTL = 6 * time.Hour
)

// deps holds everything a command may need, wired once.
type deps struct {
	cfg     *config.Config
	logger  *logger.Logger
	filings *edgar.Client
	service *backtest.Service
	cache   *redis.Client
	db      *database.DB
	repo    *store.Repository
}

func (d *deps) close() {
	if d.db != nil {
		d.db.Close()
	}
	if d.cache != nil {
		d.cache.Close()
	}
}

// initDeps loads config and wires the collaborators behind the backtest
// service. The database is optional and only connected when enabled.
// mutate, if non-nil, adjusts the loaded config before wiring.
func initDeps(mutate func(*config.Config)) (*deps, error) {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	if mutate != nil {
		mutate(cfg)
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	// 3. Create HTTP clients. EDGAR and Yahoo throttle aggressively, so
	// both get a token-bucket limit on top of retries.
	edgarHTTP := httputil.New(log, 30*time.Second).WithRateLimit(5, 5)
	newsHTTP := httputil.New(log, 15*time.Second)
	yahooHTTP := httputil.New(log, 15*time.Second).WithRateLimit(2, 4)

	// 4. Create cache (no-op when REDIS_ENABLED=false)
	redisClient, err := redis.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	// 5. Create external API clients
	filings := edgar.NewClient(cfg, edgarHTTP, log)

	var news sentiment.Source = newswire.NewFallbackSource(
		newswire.NewClient(cfg, newsHTTP, log),
		newswire.NewScraper(newsHTTP, log),
		log,
	)
	news = newswire.NewCachedSource(news, redis.NewCache(redisClient, "sentiment"), sentimentCacheTTL)

	var prices engine.PriceSource = yahoo.NewClient(cfg, yahooHTTP, log)
	prices = yahoo.NewCachedSource(prices, redis.NewCache(redisClient, "prices"), priceCacheTTL)

	// 6. Create the backtest service
	service := backtest.NewService(filings, prices, news, log, cfg.Backtest)

	d := &deps{
		cfg:     cfg,
		logger:  log,
		filings: filings,
		service: service,
		cache:   redisClient,
	}

	// 7. Connect to database when enabled
	if cfg.Database.Enabled {
		db, err := database.New(cfg)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		d.db = db
		d.repo = store.NewRepository(db.Pool)
		log.Info("Connected to database")
	}

	return d, nil
}
