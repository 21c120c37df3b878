package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"gitlab.com/vtindex/backoffice_api/actions"
	"gitlab.com/vtindex/backoffice_api/config"
	"gitlab.com/vtindex/backoffice_api/crons"
	"gitlab.com/vtindex/backoffice_api/featureflags"
	"gitlab.com/vtindex/backoffice_api/monitor"
	"gitlab.com/vtindex/backoffice_api/mt5"
	"gitlab.com/vtindex/backoffice_api/net/kafka"
	"gitlab.com/vtindex/backoffice_api/queries"
	"gitlab.com/vtindex/backoffice_api/service"
)

// Server interface
type Server interface {
	Listen()
}

type server struct {
	config   config.Config
	actions  *actions.Actions
	service  *service.Service
	repo     *queries.Repo
	producer *kafka.Producer
	jobs     *crons.Crons
	ctx      context.Context
	close    context.CancelFunc
	HTTP     *http.Server
}

// NewServer wires the database cluster, the MT5 gateway and the service
// layer together and returns a server ready to Listen.
func NewServer(cfg config.Config) Server {
	ctx, close := context.WithCancel(context.Background())

	featureflags.Init(cfg.Unleash)

	repo := queries.NewRepo(cfg.DatabaseCluster)
	gateway := mt5.NewClient(cfg.MT5)
	producer := kafka.NewProducer(cfg.Kafka)

	backofficeService := service.NewService(ctx, cfg, repo, gateway, producer)
	userActions := actions.NewActions(cfg, backofficeService, ctx)

	return &server{
		config:   cfg,
		actions:  userActions,
		service:  backofficeService,
		repo:     repo,
		producer: producer,
		ctx:      ctx,
		close:    close,
	}
}

// Listen starts the HTTP server, the monitoring endpoint and the cron
// scheduler, then blocks until a termination signal arrives.
func (srv *server) Listen() {
	srv.jobs = crons.Start(srv.ctx, srv.service, srv.config)

	go srv.ListenToRequests()
	monitor.Start(srv.config.Server.Monitoring)

	srv.stopOnSignal()
}

func (srv *server) stopOnSignal() {
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigc

	log.Info().
		Str("section", "server").
		Str("app_event", "terminate").
		Str("signal", sig.String()).
		Msg("Shutting down services")
	srv.closeApp(5 * time.Second)
}

func (srv *server) closeApp(timeout time.Duration) {
	// force the exit if the graceful path stalls
	timeoutFunc := time.AfterFunc(timeout, func() {
		log.Printf("timeout %d ms has been elapsed, force exit", timeout.Milliseconds())
		os.Exit(0)
	})
	defer timeoutFunc.Stop()

	if srv.HTTP != nil {
		if err := srv.HTTP.Shutdown(context.Background()); err != nil {
			log.Error().Err(err).
				Str("section", "server").
				Str("action", "terminate").
				Msg("Unable to shutdown HTTP server")
		}
	}

	if srv.jobs != nil {
		srv.jobs.Stop()
	}

	// flush the audit sink before dropping database connections
	srv.service.Stop(context.Background())

	srv.close()
	if srv.producer != nil {
		if err := srv.producer.Close(); err != nil {
			log.Error().Err(err).
				Str("section", "server").
				Str("action", "terminate").
				Msg("Unable to close the kafka producer")
		}
	}
	srv.repo.Close()

	log.Info().
		Str("section", "server").
		Str("app_event", "terminate").
		Str("state", "complete").
		Msg("All workers terminated")
}
