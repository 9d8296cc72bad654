package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"univendor/internal/cartapi"
	"univendor/internal/config"
	"univendor/internal/guestcart"
	"univendor/internal/localstore"
	"univendor/internal/logging"
	"univendor/internal/shop"
)

// tokenKey holds the session cookie between invocations.
const tokenKey = "session_token"

var (
	configPath string
	baseURL    string
	timeout    time.Duration

	// app is built by the root command before any subcommand runs.
	app *storefront
)

type storefront struct {
	out      io.Writer
	logger   *zap.Logger
	storage  localstore.Storage
	closer   io.Closer
	client   *cartapi.Client
	guest    *guestcart.Store
	cart     *shop.ServerCart
	session  *shop.Session
	view     *shop.CartView
	checkout *shop.Checkout
}

var rootCmd = &cobra.Command{
	Use:           "shop",
	Short:         "Terminal storefront for the univendor API",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStorefront(cmd.Context(), cmd.OutOrStdout())
		if err != nil {
			return err
		}
		app = s
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultClientPath(), "client config file")
	rootCmd.PersistentFlags().StringVar(&baseURL, "api", "", "API base URL (overrides config)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 15*time.Second, "per-request timeout")

	rootCmd.AddCommand(productsCmd, cartCmd, addCmd, qtyCmd, incCmd, decCmd, rmCmd)
	rootCmd.AddCommand(loginCmd, registerCmd, logoutCmd, whoamiCmd)
	rootCmd.AddCommand(checkoutCmd, ordersCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	// state is saved even when the command failed
	if app != nil {
		if cerr := app.close(context.Background()); cerr != nil && err == nil {
			err = cerr
		}
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func openStorefront(ctx context.Context, out io.Writer) (*storefront, error) {
	cfg, err := config.LoadClient(configPath)
	if err != nil {
		return nil, err
	}
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	logger, err := logging.New(cfg.LogLevel, true)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	storage, closer, err := localstore.Open(ctx, cfg.Storage.Driver, cfg.Storage.Path)
	if err != nil {
		return nil, err
	}
	client, err := cartapi.New(cfg.BaseURL, nil)
	if err != nil {
		_ = closer.Close()
		return nil, err
	}
	if raw, err := storage.Get(ctx, tokenKey); err == nil {
		client.SetSessionToken(string(raw))
	} else if !errors.Is(err, localstore.ErrNotFound) {
		logger.Debug("reading saved session failed", zap.Error(err))
	}

	notices := shop.NotifierFunc(func(n shop.Notice) {
		prefix := "info:"
		if n.Kind == shop.NoticeError {
			prefix = "error:"
		}
		fmt.Fprintln(os.Stderr, prefix, n.Message)
	})
	nav := shop.NavigatorFunc(func(path string) {
		fmt.Fprintf(out, "→ %s\n", path)
	})

	s := &storefront{
		out:     out,
		logger:  logger,
		storage: storage,
		closer:  closer,
		client:  client,
		guest:   guestcart.Open(ctx, storage, logger),
		cart:    shop.NewServerCart(client, notices, logger),
	}
	redirects := shop.NewRedirectStore(storage)
	s.session = shop.NewSession(client, shop.SessionOptions{
		Migrator:  shop.NewMigrator(s.guest, client, logger),
		Cart:      s.cart,
		Redirects: redirects,
		Navigator: nav,
		Logger:    logger,
	})
	s.view = shop.NewCartView(s.session, s.guest, s.cart)
	s.checkout = shop.NewCheckout(s.session, s.view, client, shop.CheckoutOptions{
		Redirects: redirects,
		Navigator: nav,
		Notifier:  notices,
		Logger:    logger,
	})

	if client.SessionToken() != "" {
		rctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		if _, err := s.session.Restore(rctx); err != nil {
			logger.Warn("restoring session failed", zap.Error(err))
		}
	}
	return s, nil
}

// close saves the session token and releases storage.
func (s *storefront) close(ctx context.Context) error {
	var err error
	if token := s.client.SessionToken(); token != "" {
		err = s.storage.Set(ctx, tokenKey, []byte(token))
	} else {
		err = s.storage.Delete(ctx, tokenKey)
	}
	if cerr := s.closer.Close(); err == nil {
		err = cerr
	}
	_ = s.logger.Sync()
	return err
}

func withTimeout(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), timeout)
}
