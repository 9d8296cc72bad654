package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"univendor/internal/config"
	"univendor/internal/db"
	"univendor/internal/httpserver"
	"univendor/internal/logging"
	cartrepo "univendor/internal/repository/cart"
	orderrepo "univendor/internal/repository/order"
	otprepo "univendor/internal/repository/otp"
	productrepo "univendor/internal/repository/product"
	sessionrepo "univendor/internal/repository/session"
	userrepo "univendor/internal/repository/user"
	vendorrepo "univendor/internal/repository/vendor"
	authsvc "univendor/internal/service/auth"
	cartsvc "univendor/internal/service/cart"
	ordersvc "univendor/internal/service/order"
	productsvc "univendor/internal/service/product"
)

func main() {
	cfg := config.FromEnv()
	logger, err := logging.New(cfg.LogLevel, !cfg.Production)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	logger = logger.Named("api")

	ctx := context.Background()
	poolOpts := db.DefaultPoolOptions("univendor-api")
	poolOpts.MaxConns = cfg.DBMaxConns
	poolOpts.MinConns = cfg.DBMinConns
	dbpool, err := db.Connect(ctx, cfg.DBConnString, poolOpts, logger)
	if err != nil {
		logger.Fatal("connect to db", zap.Error(err))
	}
	defer dbpool.Close()

	productService := productsvc.New(productrepo.NewPostgres(dbpool, logger), vendorrepo.NewPostgres(dbpool))
	cartService := cartsvc.New(cartrepo.NewPostgres(dbpool, logger), logger)
	orderService := ordersvc.New(orderrepo.NewPostgres(dbpool, logger), logger)
	authService := authsvc.New(
		userrepo.NewPostgres(dbpool, logger),
		otprepo.NewPostgres(dbpool),
		sessionrepo.NewPostgres(dbpool),
		authsvc.Options{
			OTPTTL:          cfg.OTPTTL,
			SessionTTL:      cfg.SessionTTL,
			AllowEmailLogin: cfg.AllowEmailLogin,
			Logger:          logger.Named("auth"),
		},
	)

	srv, err := httpserver.New(cfg.HTTPAddr, logger, dbpool, httpserver.Deps{
		Auth:     authService,
		Cart:     cartService,
		Orders:   orderService,
		Products: productService,
	}, httpserver.Options{
		ClientURL:    cfg.ClientURL,
		Production:   cfg.Production,
		CookieDomain: cfg.CookieDomain,
	})
	if err != nil {
		logger.Fatal("init server", zap.Error(err))
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("starting http server", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
	case err := <-serverErr:
		logger.Error("server error", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	} else {
		logger.Info("server stopped")
	}
}
