// Command configorm-demo declares a small schema against a chosen backing
// store, reconciles the store and prints the resolved configuration.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	configorm "github.com/YADRO-KNS/ConfigORM"
	"github.com/YADRO-KNS/ConfigORM/envsource"
	"github.com/YADRO-KNS/ConfigORM/filestore"
	"github.com/YADRO-KNS/ConfigORM/memstore"
	"github.com/YADRO-KNS/ConfigORM/redisstore"
	"github.com/YADRO-KNS/ConfigORM/sqlstore"
	"github.com/YADRO-KNS/ConfigORM/vaultstore"
)

// Server holds the HTTP listener settings.
type Server struct {
	configorm.Section
	Host     *configorm.Field[string] `configorm:"host"`
	Port     *configorm.Field[int64]  `configorm:"port"`
	LogLevel *configorm.Field[string] `configorm:"log_level"`
}

// Database holds the connection pool settings.
type Database struct {
	configorm.Section
	URL         *configorm.Field[string]   `configorm:"url"`
	MaxConns    *configorm.Field[int64]    `configorm:"max_conns"`
	IdleTimeout *configorm.Field[string]   `configorm:"idle_timeout"`
	Replicas    *configorm.Field[[]string] `configorm:"replicas"`
}

// Features holds feature toggles.
type Features struct {
	configorm.Section
	RateLimit *configorm.Field[bool]    `configorm:"rate_limit"`
	Caching   *configorm.Field[bool]    `configorm:"caching"`
	Sampling  *configorm.Field[float64] `configorm:"sampling"`
}

type options struct {
	store      string
	configPath string
	dotenv     string
	vaultAddr  string
	vaultToken string
	vaultMount string
	redisAddr  string
	dsn        string
	watch      bool
	debug      bool
}

func main() {
	var opts options
	flag.StringVar(&opts.store, "store", "file", "backing store: file, vault, redis, postgres or memory")
	flag.StringVar(&opts.configPath, "config", "", "config file path (file store); discovered when empty")
	flag.StringVar(&opts.dotenv, "dotenv", "", "optional .env file consulted after the process environment")
	flag.StringVar(&opts.vaultAddr, "vault-addr", "http://127.0.0.1:8200", "Vault address")
	flag.StringVar(&opts.vaultToken, "vault-token", os.Getenv("VAULT_TOKEN"), "Vault token")
	flag.StringVar(&opts.vaultMount, "vault-mount", "secret", "Vault KV v2 mount")
	flag.StringVar(&opts.redisAddr, "redis-addr", "127.0.0.1:6379", "Redis address")
	flag.StringVar(&opts.dsn, "dsn", "postgres://localhost/configorm?sslmode=disable", "PostgreSQL DSN")
	flag.BoolVar(&opts.watch, "watch", false, "keep running and report file changes (file store)")
	flag.BoolVar(&opts.debug, "debug", false, "print per-field resolution details")
	flag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(opts, logger); err != nil {
		logger.Fatal("demo failed", zap.Error(err))
	}
}

func run(opts options, logger *zap.Logger) error {
	env := envsource.Process()
	if opts.dotenv != "" {
		env = envsource.Chain(envsource.Process(), envsource.DotEnv(opts.dotenv))
	}

	store, closeStore, err := openStore(opts, env, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	root, err := configorm.NewSectionBuilder("App").
		WithStore(store).
		WithLogger(logger).
		Build()
	if err != nil {
		return err
	}

	server := &Server{
		Host:     configorm.String(configorm.Default("localhost"), configorm.EnvOverride()),
		Port:     configorm.Integer(configorm.Default(8080), configorm.EnvOverride(), configorm.Rule("min=1,max=65535")),
		LogLevel: configorm.String(configorm.Default("info"), configorm.Rule("oneof=debug info warn error")),
	}
	database := &Database{
		URL:         configorm.String(configorm.Null(), configorm.EnvOverride()),
		MaxConns:    configorm.Integer(configorm.Default(10), configorm.Rule("min=1")),
		IdleTimeout: configorm.String(configorm.Default("30s")),
		Replicas:    configorm.List[string](configorm.Default([]string{})),
	}
	features := &Features{
		RateLimit: configorm.Boolean(configorm.Default(true)),
		Caching:   configorm.Boolean(configorm.Default(false), configorm.EnvOverride()),
		Sampling:  configorm.Float(configorm.Default(0.1), configorm.Rule("gte=0,lte=1")),
	}
	for _, schema := range []any{server, database, features} {
		if err := configorm.Declare(schema, configorm.Meta{Parent: root, Logger: logger}); err != nil {
			return err
		}
	}

	if err := root.CheckIntegrity(); err != nil {
		return err
	}

	if opts.debug {
		fmt.Print(root.Debug())
	}
	if err := root.Dump(os.Stdout); err != nil {
		return err
	}

	if !opts.watch {
		return nil
	}
	fs, ok := store.(*filestore.Store)
	if !ok {
		return fmt.Errorf("-watch requires the file store, got %q", opts.store)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("watching for configuration changes, press Ctrl+C to exit", zap.String("path", fs.Path()))
	return fs.Watch(ctx, func() {
		port, err := server.Port.Get()
		if err != nil {
			logger.Warn("server port unreadable", zap.Error(err))
			return
		}
		caching, err := features.Caching.Get()
		if err != nil {
			logger.Warn("caching flag unreadable", zap.Error(err))
			return
		}
		logger.Info("configuration changed",
			zap.Int64("server.port", port),
			zap.Bool("features.caching", caching))
	})
}

func openStore(opts options, env envsource.Source, logger *zap.Logger) (configorm.Store, func(), error) {
	noop := func() {}

	switch opts.store {
	case "file":
		path := opts.configPath
		if path == "" {
			discovery := filestore.DefaultDiscoveryOptions("configorm-demo")
			discovered, ok := filestore.Discover(discovery)
			if !ok {
				discovered = "configorm-demo.toml"
			}
			path = discovered
		}
		store, err := filestore.New(path, filestore.WithEnv(env), filestore.WithLogger(logger))
		return store, noop, err

	case "vault":
		store, err := vaultstore.Dial(opts.vaultAddr, opts.vaultToken, opts.vaultMount,
			vaultstore.WithEnv(env), vaultstore.WithLogger(logger))
		return store, noop, err

	case "redis":
		client := redis.NewClient(&redis.Options{Addr: opts.redisAddr})
		store := redisstore.New(client, redisstore.WithEnv(env), redisstore.WithLogger(logger))
		return store, func() { _ = client.Close() }, nil

	case "postgres":
		db, err := sqlx.Open("pgx", opts.dsn)
		if err != nil {
			return nil, noop, fmt.Errorf("failed to open postgres connection: %w", err)
		}
		if err := db.Ping(); err != nil {
			db.Close()
			return nil, noop, fmt.Errorf("failed to ping postgres: %w", err)
		}
		store, err := sqlstore.New(db, sqlstore.WithEnv(env), sqlstore.WithLogger(logger))
		if err != nil {
			db.Close()
			return nil, noop, err
		}
		return store, func() { _ = db.Close() }, nil

	case "memory":
		return memstore.New(memstore.WithEnv(env), memstore.WithLogger(logger)), noop, nil
	}

	return nil, noop, fmt.Errorf("unknown store %q", opts.store)
}
