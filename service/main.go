package service

import (
	"context"

	"gitlab.com/vtindex/backoffice_api/config"
	"gitlab.com/vtindex/backoffice_api/lib/sendgrid"
	"gitlab.com/vtindex/backoffice_api/mt5"
	"gitlab.com/vtindex/backoffice_api/net/kafka"
	"gitlab.com/vtindex/backoffice_api/queries"
	"gitlab.com/vtindex/backoffice_api/service/audit"
	"gitlab.com/vtindex/backoffice_api/service/commission"
)

// Service structure
type Service struct {
	repo     *queries.Repo
	cfg      config.Config
	sendgrid sendgrid.Sendgrid
	gateway  mt5.Gateway
	engine   *commission.Engine
	audit    *audit.Sink
	ctx      context.Context
}

// NewService constructor
func NewService(
	ctx context.Context,
	cfg config.Config,
	repo *queries.Repo,
	gateway mt5.Gateway,
	producer *kafka.Producer,
) *Service {
	engine := commission.NewEngine(repo, gateway, cfg.FeatureFlags, cfg.Commission)
	sink := audit.NewSink(repo, producer)
	return &Service{
		repo:     repo,
		cfg:      cfg,
		sendgrid: sendgrid.NewClient(cfg.Server.Sendgrid),
		gateway:  gateway,
		engine:   engine,
		audit:    sink,
		ctx:      ctx,
	}
}

// GetRepo returns the database cluster repo
func (service *Service) GetRepo() *queries.Repo {
	return service.repo
}

// GetConfig returns the loaded configuration
func (service *Service) GetConfig() config.Config {
	return service.cfg
}

// GetCommissionEngine returns the commission engine
func (service *Service) GetCommissionEngine() *commission.Engine {
	return service.engine
}

// GetAudit returns the audit sink
func (service *Service) GetAudit() *audit.Sink {
	return service.audit
}

// GetMT5 returns the MT5 gateway
func (service *Service) GetMT5() mt5.Gateway {
	return service.gateway
}

// Stop flushes background workers
func (service *Service) Stop(ctx context.Context) {
	service.audit.Stop(ctx)
}
