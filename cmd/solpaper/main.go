package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/adshao/go-binance/v2"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"solpaper/config"
	"solpaper/internal/services/engine"
	"solpaper/internal/services/pricer"
	"solpaper/internal/storage/accounts"
	"solpaper/internal/telegram"
	"solpaper/internal/web"
	"solpaper/pkg/retrier"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	// .env is optional, real env vars win either way
	_ = godotenv.Load()

	cfg, err := config.Get()
	if err != nil {
		logger.Fatal("failed to get configuration", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	jupiterProvider, err := pricer.NewJupiter()
	if err != nil {
		logger.Fatal("failed to create jupiter client", zap.Error(err))
	}

	birdeye := pricer.NewBirdeye(cfg.BirdeyeURL, cfg.BirdeyeAPIKey, cfg.ProviderTimeout)
	dexscreener := pricer.NewDexScreener(cfg.DexScreenerURL, cfg.ProviderTimeout)
	pumpfun := pricer.NewPumpFun(cfg.PumpFunURL, cfg.ProviderTimeout)

	resolver := pricer.NewResolver(
		logger,
		pricer.NewCache(cfg.CacheTTL),
		[]pricer.TokenProvider{birdeye, dexscreener, jupiterProvider, pumpfun},
		[]pricer.PriceProvider{birdeye, dexscreener},
	)

	store := accounts.NewStore(cfg.StartingBalance)

	var usdPricer engine.USDPricer
	if cfg.SolPricer {
		usdPricer = pricer.NewSolPricer(binance.NewClient("", ""))
	}

	eng := engine.New(logger, resolver, store, usdPricer)

	// telegram's API can flap on startup, retry the initial handshake
	bot, err := retrier.DoWithData(retrier.New(), ctx, func(ctx context.Context) (*telegram.Bot, error) {
		return telegram.NewBot(cfg.TelegramToken, eng, logger)
	})
	if err != nil {
		logger.Fatal("failed to connect to telegram", zap.Error(err))
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return bot.Run(ctx)
	})
	g.Go(func() error {
		return web.NewServer(cfg.ListenAddr, logger).Start(ctx)
	})

	logger.Info("started",
		zap.String("listen_addr", cfg.ListenAddr),
		zap.String("starting_balance", cfg.StartingBalance.String()))

	if err := g.Wait(); err != nil {
		logger.Error(err.Error())
	}
}
