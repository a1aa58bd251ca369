// Package server wires a guardian server together: it opens the configured
// record store, builds the services and runs the HTTP and gRPC listeners
// until the process is signalled.
package server

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrijs2005/guardian/internal/logging"
	"github.com/dmitrijs2005/guardian/internal/metrics"
	"github.com/dmitrijs2005/guardian/internal/server/config"
	"github.com/dmitrijs2005/guardian/internal/server/recordstore"
	"github.com/dmitrijs2005/guardian/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/guardian/internal/server/rest"
	"github.com/dmitrijs2005/guardian/internal/server/services"

	gs "github.com/dmitrijs2005/guardian/internal/server/grpc"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	metrics *metrics.Metrics
	store   recordstore.Store
	handler *rest.Handler
}

// NewApp opens the record store selected by c and builds the services on
// top of it. Logs go to w as JSON.
func NewApp(ctx context.Context, c *config.Config, w io.Writer) (*App, error) {
	logger := logging.NewJSONLogger(w, c.LogLevel)
	m := metrics.New()

	store, err := openStore(ctx, c, logger.With("module", "recordstore"))
	if err != nil {
		return nil, fmt.Errorf("store init error: %w", err)
	}
	store = recordstore.NewInstrumentedStore(store, m)

	rm := repomanager.NewRecordRepositoryManager(store)

	invites := services.NewInviteService(rm, logger.With("module", "invites"))
	users := services.NewUserService(rm, invites, logger.With("module", "users"))
	svc := rest.Services{
		Users:    users,
		Invites:  invites,
		Follows:  services.NewFollowService(rm, logger.With("module", "follows")),
		Duress:   services.NewDuressService(rm, users, c.MapConcurrency, logger.With("module", "duress")),
		Evidence: services.NewEvidenceService(rm, c, logger.With("module", "evidence")),
	}

	return &App{
		config:  c,
		logger:  logger,
		metrics: m,
		store:   store,
		handler: rest.NewHandler(svc, m, logger),
	}, nil
}

// openStore builds the backend named by c.StorageBackend.
func openStore(ctx context.Context, c *config.Config, logger logging.Logger) (recordstore.Store, error) {
	switch c.StorageBackend {
	case config.BackendFile:
		return recordstore.NewFileStore(c.DataDir, logger)
	case config.BackendMemory:
		return recordstore.NewMemoryStore(logger), nil
	case config.BackendPostgres:
		return recordstore.OpenPostgres(ctx, c.DatabaseDSN, logger)
	case config.BackendDynamoDB:
		api, err := recordstore.NewDynamoClient(ctx, recordstore.DynamoOptions{
			Region:          c.DynamoRegion,
			Endpoint:        c.DynamoEndpoint,
			AccessKeyID:     c.AWSAccessKeyID,
			SecretAccessKey: c.AWSSecretAccessKey,
			TablePrefix:     c.DynamoTablePrefix,
		})
		if err != nil {
			return nil, err
		}
		return recordstore.NewDynamoStore(api, c.DynamoTablePrefix, logger), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", c.StorageBackend)
	}
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run serves HTTP and gRPC until ctx is cancelled, a signal arrives or one of
// the listeners fails. The store is closed on the way out.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "backend", app.config.StorageBackend)

	app.initSignalHandler(cancelFunc)

	httpServer := rest.NewHTTPServer(app.config.EndpointAddrHTTP, app.handler.Routes(app.config.CORSOrigin), app.config.ShutdownTimeout, app.logger)
	grpcServer := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.store, app.config.HealthProbeInterval, app.logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return httpServer.Run(gctx) })
	g.Go(func() error { return grpcServer.Run(gctx) })

	err := g.Wait()
	if cerr := app.store.Close(); cerr != nil {
		app.logger.Error(ctx, "store close failed", "error", cerr.Error())
	}
	if err != nil {
		app.logger.Error(ctx, "server stopped with error", "error", err.Error())
		return err
	}

	app.logger.Info(ctx, "App stopped")
	return nil
}
