// Package bootstrap wires all dependencies and starts the application.
package bootstrap

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/artpar/invoicer/adapters/clock"
	"github.com/artpar/invoicer/adapters/email"
	apihttp "github.com/artpar/invoicer/adapters/http"
	"github.com/artpar/invoicer/adapters/idgen"
	"github.com/artpar/invoicer/adapters/memory"
	"github.com/artpar/invoicer/adapters/metrics"
	"github.com/artpar/invoicer/adapters/pdf"
	"github.com/artpar/invoicer/adapters/random"
	"github.com/artpar/invoicer/adapters/sealer"
	"github.com/artpar/invoicer/adapters/sqlite"
	"github.com/artpar/invoicer/app"
	"github.com/artpar/invoicer/config"
	"github.com/artpar/invoicer/ports"
	"github.com/rs/zerolog"
)

// App represents the running application.
type App struct {
	Logger     zerolog.Logger
	Config     *config.Config
	DB         *sqlite.DB // nil with the memory driver
	HTTPServer *http.Server
	Metrics    *metrics.Collector

	Invoices *app.InvoiceService
	Gateways *app.GatewaySettingsService
	Sweeper  *app.OverdueSweeper

	holder *config.Holder
	cancel context.CancelFunc
}

// Options adjusts how New builds the application.
type Options struct {
	// LogOutput overrides stdout for logs.
	LogOutput io.Writer

	// DisableMetrics skips Prometheus registration even when enabled in config.
	// Useful when building more than one App in a process.
	DisableMetrics bool
}

// New creates and initializes the application from cfg.
func New(cfg *config.Config) (*App, error) {
	return NewWithOptions(cfg, Options{})
}

// NewWithHotReload loads the config file at path and reloads invoicing,
// sweep and logging settings whenever the file changes or SIGHUP arrives.
func NewWithHotReload(path string) (*App, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	a, err := New(cfg)
	if err != nil {
		return nil, err
	}

	holder, err := config.NewHolder(path, a.Logger)
	if err != nil {
		a.Shutdown()
		return nil, err
	}
	holder.OnChange(a.applyConfig)
	holder.OnError(func(error) {
		if a.Metrics != nil {
			a.Metrics.ConfigReloadErrors.Inc()
		}
	})
	if err := holder.WatchFile(); err != nil {
		a.Logger.Warn().Err(err).Msg("config file watch unavailable, SIGHUP only")
	}
	holder.WatchSignals()
	a.holder = holder
	return a, nil
}

// NewWithOptions creates and initializes the application.
func NewWithOptions(cfg *config.Config, opts Options) (*App, error) {
	out := opts.LogOutput
	if out == nil {
		out = os.Stdout
	}
	logger := setupLogger(cfg.Logging, out)

	logger.Info().
		Str("driver", cfg.Database.Driver).
		Str("pattern", cfg.Invoicing.NumberPattern).
		Msg("initializing invoicer")

	a := &App{
		Logger: logger,
		Config: cfg,
	}

	if cfg.Metrics.Enabled && !opts.DisableMetrics {
		a.Metrics = metrics.New()
		logger.Info().Str("path", cfg.Metrics.Path).Msg("prometheus metrics enabled")
	}

	stores, err := a.initStores()
	if err != nil {
		return nil, fmt.Errorf("init stores: %w", err)
	}

	if err := a.initServices(stores); err != nil {
		a.closeDB()
		return nil, fmt.Errorf("init services: %w", err)
	}

	a.initHTTPServer()
	return a, nil
}

type storeSet struct {
	invoices ports.InvoiceStore
	payments ports.PaymentStore
	gateways ports.GatewaySettingsStore
}

func (a *App) initStores() (storeSet, error) {
	if a.Config.Database.Driver == "memory" {
		a.Logger.Warn().Msg("using in-memory storage; data is lost on exit")
		invoices := memory.NewInvoiceStore()
		return storeSet{
			invoices: invoices,
			payments: memory.NewPaymentStore(invoices),
			gateways: memory.NewGatewaySettingsStore(),
		}, nil
	}

	dsn := a.Config.Database.DSN
	db, err := sqlite.Open(dsn)
	if err != nil {
		return storeSet{}, err
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		return storeSet{}, fmt.Errorf("migrate: %w", err)
	}
	a.DB = db
	a.Logger.Info().Str("dsn", dsn).Msg("database initialized")

	return storeSet{
		invoices: sqlite.NewInvoiceStore(db),
		payments: sqlite.NewPaymentStore(db),
		gateways: sqlite.NewGatewaySettingsStore(db),
	}, nil
}

func (a *App) initServices(stores storeSet) error {
	cfg := a.Config

	loc, err := clock.LoadLocation(cfg.Invoicing.Timezone)
	if err != nil {
		return fmt.Errorf("timezone: %w", err)
	}
	clk := clock.Real{Location: loc}

	invoiceIDs, err := idgen.New(cfg.IDs.Strategy, "inv_", cfg.IDs.Node)
	if err != nil {
		return err
	}
	paymentIDs, err := idgen.New(cfg.IDs.Strategy, "pay_", cfg.IDs.Node)
	if err != nil {
		return err
	}

	sender, err := email.NewSender(cfg.Email)
	if err != nil {
		return fmt.Errorf("email: %w", err)
	}

	var renderer ports.InvoiceRenderer
	if cfg.PDF.Enabled {
		renderer = pdf.Renderer{
			CompanyName:    cfg.PDF.CompanyName,
			CompanyAddress: cfg.PDF.CompanyAddress,
		}
	}

	a.Invoices, err = app.NewInvoiceService(app.InvoiceDeps{
		Invoices:   stores.invoices,
		Payments:   stores.payments,
		Clock:      clk,
		InvoiceIDs: invoiceIDs,
		PaymentIDs: paymentIDs,
		Random:     random.Real{},
		Email:      sender,
		Renderer:   renderer,
		Metrics:    a.Metrics,
		Logger:     a.Logger.With().Str("component", "invoices").Logger(),
	}, invoiceOptions(cfg))
	if err != nil {
		return err
	}

	var seal ports.Sealer = sealer.Plain{}
	if cfg.Secrets.Key != "" {
		seal, err = sealer.NewXChaChaHex(cfg.Secrets.Key, random.Real{})
		if err != nil {
			return fmt.Errorf("secrets: %w", err)
		}
	} else {
		a.Logger.Warn().Msg("secrets.key not set; gateway secrets are stored unsealed")
	}
	a.Gateways = app.NewGatewaySettingsService(stores.gateways, seal, clk, a.Logger)

	a.Sweeper = app.NewOverdueSweeper(a.Invoices, cfg.Invoicing.OverdueSweepInterval, a.Metrics,
		a.Logger.With().Str("component", "overdue").Logger())
	return nil
}

func (a *App) initHTTPServer() {
	cfg := a.Config

	var health apihttp.HealthChecker
	if a.DB != nil {
		health = a.DB
	}

	router := apihttp.NewRouter(apihttp.RouterConfig{
		Invoices:      a.Invoices,
		Gateways:      a.Gateways,
		Health:        health,
		Metrics:       a.Metrics,
		MetricsPath:   cfg.Metrics.Path,
		EnableOpenAPI: cfg.OpenAPI.Enabled,
		Timeout:       cfg.Server.WriteTimeout,
	}, a.Logger)

	a.HTTPServer = &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
}

// applyConfig applies the reloadable parts of a new configuration.
func (a *App) applyConfig(cfg *config.Config) {
	if err := a.Invoices.UpdateOptions(invoiceOptions(cfg)); err != nil {
		a.Logger.Error().Err(err).Msg("invoicing options rejected, keeping previous")
	} else {
		a.Logger.Info().
			Str("pattern", cfg.Invoicing.NumberPattern).
			Str("currency", cfg.Invoicing.Currency).
			Int("due_days", cfg.Invoicing.DefaultDueDays).
			Msg("invoicing options updated")
	}

	a.Sweeper.SetInterval(cfg.Invoicing.OverdueSweepInterval)

	if level, err := zerolog.ParseLevel(cfg.Logging.Level); err == nil {
		zerolog.SetGlobalLevel(level)
	}

	if a.Metrics != nil {
		a.Metrics.ConfigReloads.Inc()
		a.Metrics.ConfigLastReload.SetToCurrentTime()
	}
}

func invoiceOptions(cfg *config.Config) app.InvoiceOptions {
	return app.InvoiceOptions{
		NumberPattern:  cfg.Invoicing.NumberPattern,
		Currency:       cfg.Invoicing.Currency,
		DefaultDueDays: cfg.Invoicing.DefaultDueDays,
		PublicURL:      cfg.Server.PublicURL,
	}
}

// Start launches background workers without serving HTTP.
func (a *App) Start(ctx context.Context) {
	ctx, a.cancel = context.WithCancel(ctx)
	a.Sweeper.Start(ctx)
}

// Run starts the HTTP server and blocks until shutdown.
func (a *App) Run() error {
	a.Start(context.Background())

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info().
			Str("addr", a.HTTPServer.Addr).
			Msg("starting http server")
		if err := a.HTTPServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Wait for interrupt or error
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		a.Shutdown()
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		a.Logger.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	return a.Shutdown()
}

// Shutdown gracefully stops the application.
func (a *App) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if a.holder != nil {
		a.holder.Stop()
	}

	if a.Sweeper != nil {
		a.Sweeper.Stop()
	}
	if a.cancel != nil {
		a.cancel()
	}

	// Shutdown HTTP server
	if a.HTTPServer != nil {
		if err := a.HTTPServer.Shutdown(ctx); err != nil {
			a.Logger.Error().Err(err).Msg("http server shutdown error")
		}
	}

	a.closeDB()

	a.Logger.Info().Msg("shutdown complete")
	return nil
}

func (a *App) closeDB() {
	if a.DB == nil {
		return
	}
	if err := a.DB.Close(); err != nil {
		a.Logger.Error().Err(err).Msg("database close error")
	}
	a.DB = nil
}

func setupLogger(cfg config.LoggingConfig, out io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Format == "console" {
		output := zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
		return zerolog.New(output).With().Timestamp().Logger()
	}

	return zerolog.New(out).With().Timestamp().Logger()
}
