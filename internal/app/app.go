package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/niksmo/storefront/config"
	"github.com/niksmo/storefront/internal/adapter/httphandler"
	"github.com/niksmo/storefront/internal/adapter/images"
	"github.com/niksmo/storefront/internal/adapter/kafka"
	"github.com/niksmo/storefront/internal/adapter/session"
	"github.com/niksmo/storefront/internal/adapter/storage"
	"github.com/niksmo/storefront/internal/adapter/token"
	"github.com/niksmo/storefront/internal/core/port"
	"github.com/niksmo/storefront/internal/core/service"
	"github.com/niksmo/storefront/pkg/schema"
	"github.com/redis/go-redis/v9"
)

type repositories struct {
	products storage.ProductsRepository
	users    storage.UsersRepository
	baskets  storage.BasketsRepository
}

type imageStore struct {
	storage port.ImageStorage
	// local is set only for the local backend, which is served by the app.
	local   *images.LocalStorage
}

type broker struct {
	producer *kafka.ProductsProducer
	consumer *kafka.ProductsConsumer
}

type App struct {
	ctx            context.Context
	cfg            config.Config
	tracer         *sdktrace.TracerProvider
	sqldb          storage.SQLDB
	repos          repositories
	redis          *redis.Client
	sessions       httphandler.Sessions
	images         imageStore
	broker         broker
	service        service.Service
	httpServer     httphandler.HTTPServer
	consumerCancel context.CancelFunc
}

func New(ctx context.Context, cfg config.Config) *App {
	app := &App{ctx: ctx, cfg: cfg}

	app.initLogger()
	app.initTracing()
	app.initStorage()
	app.initSessions()
	app.initImages()
	app.initProducer()
	app.initService()
	app.initConsumer()
	app.initImport()
	app.initHTTP()

	return app
}

func (app *App) initLogger() {
	opts := &slog.HandlerOptions{Level: app.cfg.LogLevel}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, opts))
	slog.SetDefault(logger)
}

func (app *App) initTracing() {
	const op = "App.initTracing"

	if !app.cfg.Tracing.Stdout {
		return
	}

	exporter, err := stdouttrace.New(stdouttrace.WithWriter(os.Stdout))
	if err != nil {
		app.fallDown(op, err)
	}
	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
	otel.SetTracerProvider(tp)
	app.tracer = tp
}

func (app *App) initStorage() {
	const op = "App.initStorage"

	sqldb, err := storage.NewSQLDB(app.ctx, app.cfg.SQLDB)
	if err != nil {
		app.fallDown(op, err)
	}
	app.sqldb = sqldb

	if app.cfg.SQLMigrate {
		if err := sqldb.Migrate(); err != nil {
			app.fallDown(op, err)
		}
	}

	app.repos = repositories{
		products: storage.NewProductsRepository(sqldb),
		users:    storage.NewUsersRepository(sqldb),
		baskets:  storage.NewBasketsRepository(sqldb),
	}
}

func (app *App) initSessions() {
	const op = "App.initSessions"
	cfg := app.cfg.Session

	var store session.Store
	switch cfg.Backend {
	case config.SessionRedis:
		cl, err := session.DialRedis(app.ctx, cfg.RedisURL)
		if err != nil {
			app.fallDown(op, err)
		}
		app.redis = cl
		store = session.NewRedisStore(cl, cfg.TTL)
	default:
		store = session.NewMemoryStore()
	}

	var opts []httphandler.SessionsOpt
	if secret := app.cfg.Auth.RememberSecret; secret != "" {
		remember, err := token.NewRemember(secret, app.cfg.Auth.RememberTTL)
		if err != nil {
			app.fallDown(op, err)
		}
		opts = append(opts, httphandler.RememberOpt(remember))
	}

	cookie := httphandler.CookieConfig{
		Name:   cfg.CookieName,
		Secure: cfg.CookieSecure,
	}
	app.sessions = httphandler.NewSessions(store, cookie, opts...)
}

func (app *App) initImages() {
	const op = "App.initImages"
	cfg := app.cfg.Images

	switch cfg.Backend {
	case config.ImagesS3:
		s3, err := images.NewS3Storage(app.ctx, cfg.S3Bucket, cfg.S3Region, cfg.S3BaseURL)
		if err != nil {
			app.fallDown(op, err)
		}
		app.images.storage = s3
	default:
		local, err := images.NewLocalStorage(cfg.Dir, cfg.URLPrefix)
		if err != nil {
			app.fallDown(op, err)
		}
		app.images.storage = local
		app.images.local = &local
	}
}

func (app *App) clientConfig() kafka.ClientConfig {
	const op = "App.clientConfig"
	cfg := app.cfg.Broker

	cc := kafka.ClientConfig{SeedBrokers: cfg.SeedBrokers}
	if cfg.TLS.Enabled {
		tlsCfg, err := kafka.MakeTLSConfig(cfg.TLS.CAFile, cfg.TLS.CertFile, cfg.TLS.KeyFile)
		if err != nil {
			app.fallDown(op, err)
		}
		cc.TLS = tlsCfg
	}
	return cc
}

func (app *App) newSerde(topic string) schema.Serde {
	const op = "App.newSerde"

	identifier, err := schema.NewRegistryIdentifier(app.cfg.Broker.SchemaRegistryURLs)
	if err != nil {
		app.fallDown(op, err)
	}
	serde, err := schema.NewSerdeProductV1(
		app.ctx,
		schema.SubjectOpt(schema.ValueSubject(topic)),
		schema.SchemaIdentifierOpt(identifier),
	)
	if err != nil {
		app.fallDown(op, err)
	}
	return serde
}

func (app *App) initProducer() {
	const op = "App.initProducer"

	if !app.cfg.Broker.Enabled {
		return
	}
	topic := app.cfg.Broker.Topics.ProductsCreated

	producer, err := kafka.NewProductsProducer(
		kafka.ProducerClientOpt(app.ctx, app.clientConfig(), topic),
		kafka.ProducerEncoderOpt(app.newSerde(topic)),
	)
	if err != nil {
		app.fallDown(op, err)
	}
	app.broker.producer = &producer
}

func (app *App) initService() {
	const op = "App.initService"

	opts := []service.Opt{service.PasswordCostOpt(app.cfg.Auth.PasswordCost)}
	if app.broker.producer != nil {
		opts = append(opts, service.EventsProducerOpt(app.broker.producer))
	}

	s, err := service.New(
		app.repos.products,
		app.repos.users,
		app.repos.baskets,
		opts...,
	)
	if err != nil {
		app.fallDown(op, err)
	}
	app.service = s
}

func (app *App) initConsumer() {
	const op = "App.initConsumer"

	if !app.cfg.Broker.Enabled {
		return
	}
	cfg := app.cfg.Broker

	consumer, err := kafka.NewProductsConsumer(
		kafka.ConsumerClientOpt(
			app.clientConfig(),
			cfg.Topics.ProductsFeed,
			cfg.Consumers.ProductsFeedGroup,
		),
		kafka.ConsumerIngesterOpt(app.service),
		kafka.ConsumerDecoderOpt(app.newSerde(cfg.Topics.ProductsFeed)),
	)
	if err != nil {
		app.fallDown(op, err)
	}
	app.broker.consumer = &consumer
}

func (app *App) initImport() {
	const op = "App.initImport"
	log := slog.With("op", op)
	cfg := app.cfg.Import

	if cfg.File == "" {
		return
	}

	mode, err := service.ParseImportMode(cfg.OnError)
	if err != nil {
		app.fallDown(op, err)
	}

	n, err := app.service.ImportProductsFile(app.ctx, cfg.File, cfg.Delimiter, mode)
	if err != nil {
		app.fallDown(op, err)
	}
	log.Info("products imported", "file", cfg.File, "created", n)
}

func (app *App) initHTTP() {
	const op = "App.initHTTP"

	opts := httphandler.RouterOpts{
		Images:   app.images.storage,
		Sessions: app.sessions,
		Tracing:  app.tracer != nil,
	}
	if local := app.images.local; local != nil {
		opts.StaticPrefix = local.URLPrefix()
		opts.Static = local.Handler()
	}

	handler, err := httphandler.NewRouter(
		httphandler.Services{
			Catalog:  app.service,
			Identity: app.service,
			Basket:   app.service,
		},
		opts,
	)
	if err != nil {
		app.fallDown(op, err)
	}
	app.httpServer = httphandler.NewHTTPServer(app.cfg.HTTPServerAddr, handler)
}

func (app *App) Run(stopFn context.CancelFunc) {
	go app.httpServer.Run(stopFn)

	if app.broker.consumer != nil {
		ctx, cancel := context.WithCancel(app.ctx)
		app.consumerCancel = cancel
		go app.broker.consumer.Run(ctx)
	}

	slog.Info("application is running")
}

func (app *App) Close(ctx context.Context) {
	const op = "App.Close"
	log := slog.With("op", op)

	log.Info("application is closing...")

	app.httpServer.Close(ctx)

	if app.consumerCancel != nil {
		app.consumerCancel()
	}
	if app.broker.consumer != nil {
		app.broker.consumer.Close()
	}
	if app.broker.producer != nil {
		app.broker.producer.Close()
	}
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			log.Error("failed to close redis client", "err", err)
		}
	}
	app.sqldb.Close()

	if app.tracer != nil {
		if err := app.tracer.Shutdown(ctx); err != nil {
			log.Error("failed to flush traces", "err", err)
		}
	}

	log.Info("application is closed")
}

func (app *App) fallDown(op string, err error) {
	panic(fmt.Errorf("%s: %w", op, err))
}

