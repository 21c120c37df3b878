package actions

import (
	"context"

	"gitlab.com/vtindex/backoffice_api/config"
	"gitlab.com/vtindex/backoffice_api/service"
)

// Actions structure
type Actions struct {
	ctx              context.Context
	cfg              config.Config
	service          *service.Service
	jwtTokenSecret   string
	jwtRefreshSecret string
}

// NewActions constructor
func NewActions(cfg config.Config, srv *service.Service, ctx context.Context) *Actions {
	return &Actions{
		ctx:              ctx,
		cfg:              cfg,
		service:          srv,
		jwtTokenSecret:   cfg.Server.API.JWTTokenSecret,
		jwtRefreshSecret: cfg.Server.API.JWTRefreshSecret,
	}
}
