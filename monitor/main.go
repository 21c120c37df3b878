package monitor

import (
	"net/http"
	"net/http/pprof"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// Config for the monitoring endpoint
type Config struct {
	Enabled bool   `mapstructure:"enabled"`
	Address string `mapstructure:"address"`
}

var (
	// CommissionsCreated counts ledger rows created per source
	CommissionsCreated = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "backoffice",
		Name:      "commissions_created_total",
		Help:      "Number of commission ledger rows created",
	}, []string{"source"})

	// CommissionCreditFailures counts credit pushes to MT5 that failed after
	// the ledger row was written
	CommissionCreditFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "backoffice",
		Name:      "commission_credit_failures_total",
		Help:      "Number of MT5 credit_in failures for created commissions",
	}, []string{})

	// TransactionsResolved counts approvals and rejections per type
	TransactionsResolved = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "backoffice",
		Name:      "transactions_resolved_total",
		Help:      "Number of transactions moved to a terminal status",
	}, []string{"transaction_type", "status"})

	// MT5Requests counts manager bridge calls per operation and outcome
	MT5Requests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "backoffice",
		Name:      "mt5_requests_total",
		Help:      "Number of MT5 manager bridge requests",
	}, []string{"operation", "outcome"})

	// AuditQueueDepth tracks the audit sink channel backlog
	AuditQueueDepth = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "backoffice",
		Name:      "audit_queue_depth",
		Help:      "Number of audit events waiting to be persisted",
	}, []string{})

	// RequestDuration tracks API latency per route group
	RequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "backoffice",
		Name:      "request_duration_seconds",
		Help:      "API request duration",
	}, []string{"method", "route"})
)

func init() {
	prometheus.MustRegister(
		CommissionsCreated,
		CommissionCreditFailures,
		TransactionsResolved,
		MT5Requests,
		AuditQueueDepth,
		RequestDuration,
	)
}

// Start exposes the prometheus and pprof endpoints on a separate listener
// so they never share a port with the public API.
func Start(cfg Config) {
	if !cfg.Enabled {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	go func() {
		log.Info().
			Str("section", "monitor").
			Str("action", "start").
			Str("address", cfg.Address).
			Msg("Monitoring endpoint started")
		if err := http.ListenAndServe(cfg.Address, mux); err != nil {
			log.Error().Err(err).
				Str("section", "monitor").
				Str("action", "start").
				Msg("Monitoring endpoint stopped")
		}
	}()
}
