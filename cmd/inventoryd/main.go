package main

import (
	"context"
	"database/sql"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/rl1809/warehouse-console/internal/adapter/handler"
	"github.com/rl1809/warehouse-console/internal/adapter/storage"
	"github.com/rl1809/warehouse-console/internal/config"
	"github.com/rl1809/warehouse-console/internal/core/service"
	"github.com/rl1809/warehouse-console/internal/logging"
	"github.com/rl1809/warehouse-console/internal/port"
)

const healthInterval = 10 * time.Second

func main() {
	app := &cli.App{
		Name:  "inventoryd",
		Usage: "reference inventory service for wmsctl",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "http-addr", Usage: "HTTP listen address"},
			&cli.StringFlag{Name: "grpc-addr", Usage: "gRPC health listen address"},
			&cli.StringFlag{Name: "storage", Usage: "mysql or memory"},
			&cli.StringFlag{Name: "mysql-dsn", Usage: "MySQL DSN"},
			&cli.StringFlag{Name: "redis-addr", Usage: "Redis address"},
			&cli.IntFlag{Name: "workers", Usage: "allocation workers"},
			&cli.DurationFlag{Name: "allocation-delay", Usage: "delay before a new order is allocated"},
			&cli.StringFlag{Name: "log-level", Usage: "log level"},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		logrus.WithError(err).Fatal("inventoryd failed")
	}
}

// serverConfig reads INVENTORYD_* and lets explicit flags win.
func serverConfig(c *cli.Context) (config.Server, error) {
	cfg, err := config.LoadServer()
	if err != nil {
		return config.Server{}, err
	}
	if c.IsSet("http-addr") {
		cfg.HTTPAddr = c.String("http-addr")
	}
	if c.IsSet("grpc-addr") {
		cfg.GRPCAddr = c.String("grpc-addr")
	}
	if c.IsSet("storage") {
		cfg.Storage = c.String("storage")
	}
	if c.IsSet("mysql-dsn") {
		cfg.MySQLDSN = c.String("mysql-dsn")
	}
	if c.IsSet("redis-addr") {
		cfg.RedisAddr = c.String("redis-addr")
	}
	if c.IsSet("workers") {
		cfg.Workers = c.Int("workers")
	}
	if c.IsSet("allocation-delay") {
		cfg.AllocationDelay = c.Duration("allocation-delay")
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	if cfg.Workers <= 0 {
		return config.Server{}, errors.Errorf("workers must be positive, got %d", cfg.Workers)
	}
	return cfg, nil
}

type backends struct {
	db    port.DatabaseRepository
	cache port.CacheRepository
	close func()
}

func openBackends(ctx context.Context, cfg config.Server, log logrus.FieldLogger) (backends, error) {
	if cfg.Storage == config.StorageMemory {
		log.Warn("using in-memory storage, data is lost on exit")
		return backends{db: storage.NewMemoryDatabase(), cache: storage.NewMemoryCache(), close: func() {}}, nil
	}

	// Initialize MySQL
	dsn, err := storage.MySQLDSN(cfg.MySQLDSN)
	if err != nil {
		return backends{}, err
	}
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return backends{}, errors.Wrap(err, "open mysql")
	}
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return backends{}, errors.Wrap(err, "ping mysql")
	}
	mysqlAdapter := storage.NewMySQLAdapter(db)
	if err := mysqlAdapter.EnsureSchema(ctx); err != nil {
		db.Close()
		return backends{}, err
	}
	log.Info("connected to mysql")

	// Initialize Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		PoolSize: 100,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		db.Close()
		return backends{}, errors.Wrap(err, "ping redis")
	}
	log.Info("connected to redis")

	return backends{
		db:    mysqlAdapter,
		cache: storage.NewRedisAdapter(rdb),
		close: func() {
			rdb.Close()
			db.Close()
		},
	}, nil
}

func run(c *cli.Context) error {
	cfg, err := serverConfig(c)
	if err != nil {
		return err
	}
	log, err := logging.New(logging.Options{Level: cfg.LogLevel, Format: logging.FormatJSON})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := openBackends(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		store.close()
		log.Info("connections closed")
	}()

	catalog := service.NewCatalogService(store.db, store.cache, log)
	orders := service.NewOrderService(store.db, store.cache, cfg.QueueSize, log)
	tasks := service.NewTaskService(store.db, log)
	allocator := service.NewAllocator(store.db, cfg.AllocationDelay, log)

	// Sync stock to the cache
	if err := catalog.SeedCache(ctx); err != nil {
		return errors.Wrap(err, "seed stock cache")
	}

	// workers outlive ctx so they can drain the queue after shutdown starts
	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	defer cancelWorkers()
	var wg sync.WaitGroup
	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			allocator.Run(workerCtx, id, orders.Queue())
		}(i)
	}
	log.WithField("workers", cfg.Workers).Info("started allocation workers")

	if n, err := orders.RequeuePending(ctx); err != nil {
		log.WithError(err).Warn("requeue pending orders")
	} else if n > 0 {
		log.WithField("orders", n).Info("requeued pending orders")
	}

	health := handler.NewHealthReporter(map[string]handler.Pinger{"database": store.db, "cache": store.cache}, log)
	health.Check(ctx)

	grpcServer := grpc.NewServer()
	health.Register(grpcServer)
	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		return errors.Wrap(err, "listen grpc")
	}

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler.NewHTTPHandler(catalog, orders, tasks, health, log).Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.WithField("addr", cfg.GRPCAddr).Info("gRPC server listening")
		return grpcServer.Serve(lis)
	})
	g.Go(func() error {
		log.WithField("addr", cfg.HTTPAddr).Info("HTTP server listening")
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		health.Run(gctx, healthInterval)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down...")

		// Stop HTTP server
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("HTTP shutdown")
		}
		log.Info("HTTP server stopped")

		// Stop gRPC server
		health.Shutdown()
		grpcServer.GracefulStop()
		log.Info("gRPC server stopped")
		return nil
	})

	serveErr := g.Wait()

	// Close order queue and wait for workers; anything still queued after the grace
	// period stays NEW and is requeued on the next start.
	orders.Close()
	drained := make(chan struct{})
	go func() {
		wg.Wait()
		close(drained)
	}()
	select {
	case <-drained:
	case <-time.After(cfg.ShutdownTimeout):
		cancelWorkers()
		<-drained
	}
	log.Info("workers stopped")

	if serveErr != nil && !errors.Is(serveErr, grpc.ErrServerStopped) {
		return serveErr
	}
	return nil
}
