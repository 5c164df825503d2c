package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/md-rashed-zaman/clinicagenda/libs/db"
	"github.com/md-rashed-zaman/clinicagenda/libs/grpcx"
	"github.com/md-rashed-zaman/clinicagenda/libs/httpx"
	"github.com/md-rashed-zaman/clinicagenda/libs/kafkax"
	otelx "github.com/md-rashed-zaman/clinicagenda/libs/otel"
	"github.com/md-rashed-zaman/clinicagenda/libs/runtime"
	"github.com/md-rashed-zaman/clinicagenda/services/agenda-service/internal/appointments"
	"github.com/md-rashed-zaman/clinicagenda/services/agenda-service/internal/availability"
	"github.com/md-rashed-zaman/clinicagenda/services/agenda-service/internal/cache"
	"github.com/md-rashed-zaman/clinicagenda/services/agenda-service/internal/civil"
	"github.com/md-rashed-zaman/clinicagenda/services/agenda-service/internal/handlers"
	"github.com/md-rashed-zaman/clinicagenda/services/agenda-service/internal/outbox"
	"github.com/md-rashed-zaman/clinicagenda/services/agenda-service/internal/storage"
	"github.com/md-rashed-zaman/clinicagenda/services/agenda-service/migrations"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	logger := runtime.NewLogger("agenda-service")
	s, err := loadSettings()
	if err != nil {
		logger.Error("invalid configuration", "err", err)
		os.Exit(1)
	}
	logger = runtime.NewLogger(s.service)

	ctx, stop := runtime.SignalContext()
	defer stop()

	var closers []runtime.Closer

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(s.service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		closers = append(closers, runtime.Closer{Name: "otel", Close: otelShutdown})
	}

	pool, err := db.Open(ctx, s.databaseURL, db.Options{})
	if err != nil {
		logger.Error("db connection failed", "err", err)
		os.Exit(1)
	}
	closers = append(closers, runtime.Closer{Name: "db", Close: func(context.Context) error {
		pool.Close()
		return nil
	}})
	if s.migrate {
		if err := db.Migrate(ctx, pool, migrations.FS, logger); err != nil {
			logger.Error("migrations failed", "err", err)
			os.Exit(1)
		}
	}

	readyChecks := []runtime.ReadyCheck{{Name: "db", Check: db.ReadyCheck(pool)}}

	var (
		rdb        *redis.Client
		slotCache  availability.Cache
		apptCache  appointments.Cache
		practCache handlers.SlotInvalidator
	)
	if s.redisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: s.redisAddr, Password: s.redisPassword, DB: s.redisDB})
		closers = append(closers, runtime.Closer{Name: "redis", Close: func(context.Context) error { return rdb.Close() }})
		rc := cache.New(rdb, cache.Config{AvailabilityTTL: s.availTTL, ListTTL: s.listTTL})
		slotCache, apptCache, practCache = rc, rc, rc
		readyChecks = append(readyChecks, runtime.ReadyCheck{Name: "redis", Check: cache.ReadyCheck(rdb), Optional: true})
	} else {
		logger.Warn("redis not configured; caching disabled")
	}
	if len(s.kafkaBrokers) > 0 {
		readyChecks = append(readyChecks, runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(s.kafkaBrokers), Optional: true})
	}

	zone := civil.Clinic
	outboxRepo := outbox.NewRepository()
	practitionerRepo := storage.NewPractitionerRepository(pool)
	appointmentRepo := storage.NewAppointmentRepository(pool, outboxRepo, zone)

	availabilitySvc := availability.NewService(practitionerRepo, appointmentRepo, slotCache, logger, availability.Config{
		Zone: zone,
		Step: s.step,
	})
	appointmentSvc := appointments.NewService(appointmentRepo, practitionerRepo, availabilitySvc, apptCache, logger, appointments.Config{
		Zone: zone,
	})

	publisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
		Brokers:   s.kafkaBrokers,
		PollEvery: s.outboxPoll,
	})
	publisherDone := make(chan struct{})
	go func() {
		defer close(publisherDone)
		publisher.Run(ctx)
	}()

	api := handlers.New(handlers.Deps{
		Availability:  availabilitySvc,
		Appointments:  appointmentSvc,
		Practitioners: practitionerRepo,
		SlotCache:     practCache,
		Zone:          zone,
		Logger:        logger,
	})
	if s.jwtSecret == "" {
		logger.Warn("AUTH_JWT_SECRET not set; trusting gateway clinic header", "header", handlers.ClinicHeader)
	}

	mux := runtime.NewBaseMuxWithReady(readyChecks...)
	mux.Handle("/api/", api.Routes(handlers.RequireClinic(s.jwtSecret, logger)))

	var rateLimit httpx.Middleware
	if s.rateLimit > 0 {
		var limiter httpx.Limiter = httpx.NewMemoryLimiter(s.rateLimit, time.Minute)
		if rdb != nil {
			limiter = httpx.NewRedisLimiter(rdb, s.rateLimit, time.Minute, "agenda:rl")
		}
		rateLimit = httpx.WithRateLimit(limiter, logger, true)
	}

	httpHandler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithRecover(logger),
		httpx.WithAccessLog(logger),
		httpx.WithCORS(httpx.CORSPolicy{AllowedOrigins: s.corsOrigins, MaxAge: 10 * time.Minute}),
		rateLimit,
		httpx.WithBodyLimit(1<<20),
		httpx.WithTimeout(15*time.Second),
	)
	httpHandler = otelhttp.NewHandler(httpHandler, "agenda")
	srv := &http.Server{
		Addr:              ":" + s.port,
		Handler:           httpHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	grpcSrv := grpcx.NewHealthServer(logger)
	lis, err := net.Listen("tcp", ":"+s.grpcPort)
	if err != nil {
		logger.Error("grpc listen failed", "err", err)
		os.Exit(1)
	}

	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "err", err)
			stop()
		}
	}()
	go func() {
		if err := grpcSrv.Serve(lis); err != nil {
			logger.Error("grpc server error", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	closers = append(closers,
		runtime.Closer{Name: "outbox", Close: waitFor(publisherDone)},
		runtime.Closer{Name: "grpc", Close: grpcSrv.Shutdown},
		runtime.Closer{Name: "http", Close: srv.Shutdown},
	)
	runtime.Shutdown(logger, 10*time.Second, closers...)
	logger.Info("stopped")
}

func waitFor(done <-chan struct{}) func(context.Context) error {
	return func(ctx context.Context) error {
		select {
		case <-done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

