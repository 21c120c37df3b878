package commission

import (
	"context"
	"sync"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/ericlagergren/decimal"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"gitlab.com/vtindex/backoffice_api/config"
	"gitlab.com/vtindex/backoffice_api/mt5"
	"gitlab.com/vtindex/backoffice_api/queries"
)

func setupDB() (*gorm.DB, sqlmock.Sqlmock) {
	logger := log.With().Str("test", "commission").Str("method", "setupDB").Logger()
	db, mock, err := sqlmock.New()
	if err != nil {
		logger.Fatal().Msgf("can't create sqlmock: %s", err)
	}

	dialector := postgres.New(postgres.Config{
		DSN:                  "postgres-mock",
		DriverName:           "postgres",
		Conn:                 db,
		PreferSimpleProtocol: true,
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		logger.Fatal().Msgf("can't open gorm connection: %s", err)
	}
	return gormDB, mock
}

func setupRepo() (*queries.Repo, sqlmock.Sqlmock) {
	db, mock := setupDB()
	return &queries.Repo{
		Conn:            db,
		ConnReader:      db,
		ConnReaderAdmin: db,
	}, mock
}

func setupEngine(gateway mt5.Gateway, killSwitch bool) (*Engine, sqlmock.Sqlmock) {
	repo, mock := setupRepo()
	engine := NewEngine(repo, gateway,
		config.FeatureFlagsConfig{DisableCommissionCreation: killSwitch},
		config.CommissionConfig{MaxDepth: 16},
	)
	return engine, mock
}

type creditCall struct {
	Login   string
	Amount  string
	Comment string
}

// fakeGateway records money movements and answers reads with empty data
type fakeGateway struct {
	mu          sync.Mutex
	credits     []creditCall
	deposits    []creditCall
	withdrawals []creditCall
	creditErr   error
	depositErr  error
	withdrawErr error
}

func (g *fakeGateway) record(calls *[]creditCall, login string, amount *decimal.Big, comment string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	*calls = append(*calls, creditCall{Login: login, Amount: amount.String(), Comment: comment})
}

func (g *fakeGateway) Deposit(ctx context.Context, login string, amount *decimal.Big, comment string) error {
	g.record(&g.deposits, login, amount, comment)
	return g.depositErr
}

func (g *fakeGateway) Withdraw(ctx context.Context, login string, amount *decimal.Big, comment string) error {
	g.record(&g.withdrawals, login, amount, comment)
	return g.withdrawErr
}

func (g *fakeGateway) CreditIn(ctx context.Context, login string, amount *decimal.Big, comment string) error {
	g.record(&g.credits, login, amount, comment)
	return g.creditErr
}

func (g *fakeGateway) CreditOut(ctx context.Context, login string, amount *decimal.Big, comment string) error {
	return nil
}

func (g *fakeGateway) GetBalance(ctx context.Context, login string) (*decimal.Big, error) {
	return decimal.New(0, 0), nil
}

func (g *fakeGateway) GetClosedTrades(ctx context.Context, from, to time.Time) ([]mt5.Deal, error) {
	return []mt5.Deal{}, nil
}

func (g *fakeGateway) GetOpenPositions(ctx context.Context, login string) ([]mt5.Position, error) {
	return []mt5.Position{}, nil
}

func (g *fakeGateway) creditCalls() []creditCall {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]creditCall, len(g.credits))
	copy(out, g.credits)
	return out
}
