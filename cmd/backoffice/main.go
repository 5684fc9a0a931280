package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/altamarket/backoffice/internal/common/config"
	"github.com/altamarket/backoffice/internal/domain/cash"
	"github.com/altamarket/backoffice/internal/domain/catalog"
	"github.com/altamarket/backoffice/internal/domain/ledger"
	"github.com/altamarket/backoffice/internal/domain/sync"
	"github.com/altamarket/backoffice/internal/domain/tenant"
	"github.com/altamarket/backoffice/internal/platform/dynamodb"
	dynamoClient "github.com/altamarket/backoffice/internal/platform/dynamodb/client"
	"github.com/altamarket/backoffice/internal/platform/sqlite"
	"github.com/altamarket/backoffice/internal/platform/token"
)

// Runtime bundles the wired services of one terminal process.
type Runtime struct {
	Identity tenant.IdentityProvider
	Monitor  *sync.Monitor
	Outbox   *sync.Outbox
	Catalog  *catalog.Service
	Ledger   *ledger.Service
	Cash     *cash.Service

	local *sqlite.Store
}

// Close releases the runtime's resources
func (r *Runtime) Close() error {
	return r.local.Close()
}

// NewRuntime wires the full terminal stack: durable SQLite truth, the
// DynamoDB replica, and the domain services on top. Terminals start
// offline; connectivity is reported by the embedding application
// through Monitor.SetOnline, which also triggers the outbox drain.
func NewRuntime(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Runtime, error) {
	local, err := sqlite.New(cfg.SQLitePath)
	if err != nil {
		return nil, err
	}

	client, err := dynamoClient.NewDynamoDBClient(ctx, cfg.AWSRegion)
	if err != nil {
		local.Close()
		return nil, err
	}
	cloud := dynamodb.NewCloudStore(client, cfg.DynamoDBTableName, log)

	paths := tenant.NewPathResolver()
	monitor := sync.NewMonitor(false)
	outbox := sync.NewOutbox(local, cloud, paths, log)
	identity := token.NewProvider([]byte(cfg.AuthTokenSecret), cfg.DeviceID)

	monitor.OnOnline(func() {
		id, err := identity.Current(ctx)
		if err != nil {
			log.Warn("skipping outbox drain, no identity bound", zap.Error(err))
			return
		}
		if err := outbox.Drain(ctx, id); err != nil {
			log.Warn("outbox drain failed", zap.Error(err))
		}
	})

	cashService := cash.NewService(local, cloud, paths, monitor, outbox, log)
	return &Runtime{
		Identity: identity,
		Monitor:  monitor,
		Outbox:   outbox,
		Catalog:  catalog.NewService(local, cloud, paths, monitor, outbox, log),
		Ledger:   ledger.NewService(local, cloud, paths, monitor, outbox, cashService, log),
		Cash:     cashService,
		local:    local,
	}, nil
}

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		os.Stderr.WriteString("failed to load configuration: " + err.Error() + "\n")
		os.Exit(1)
	}

	var log *zap.Logger
	if cfg.IsProd() {
		log, err = zap.NewProduction()
	} else {
		log, err = zap.NewDevelopment()
	}
	if err != nil {
		os.Stderr.WriteString("failed to initialize logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runtime, err := NewRuntime(ctx, cfg, log)
	if err != nil {
		log.Fatal("failed to wire terminal runtime", zap.Error(err))
	}
	defer runtime.Close()

	log.Info("terminal runtime ready",
		zap.String("environment", cfg.Environment),
		zap.String("deviceId", cfg.DeviceID),
		zap.String("sqlitePath", cfg.SQLitePath))

	<-ctx.Done()
	log.Info("shutting down")
}
