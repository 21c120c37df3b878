package service

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
	"gitlab.com/vtindex/backoffice_api/service/audit"
	"gitlab.com/vtindex/backoffice_api/service/commission"
)

func setupDB() (*gorm.DB, sqlmock.Sqlmock) {
	logger := log.With().Str("test", "service").Str("method", "setupDB").Logger()
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

// newTestService wires a service onto a mocked repo. The audit sink drains
// into a second mock so its async inserts never race the assertions.
func newTestService(gateway mt5.Gateway) (*Service, sqlmock.Sqlmock, *fakeSender) {
	svc, mock, _, sender := newTestServiceWithAudit(gateway)
	return svc, mock, sender
}

// newTestServiceWithAudit also exposes the audit mock; flush the sink with
// Stop before asserting on it.
func newTestServiceWithAudit(gateway mt5.Gateway) (*Service, sqlmock.Sqlmock, sqlmock.Sqlmock, *fakeSender) {
	repo, mock := setupRepo()
	auditRepo, auditMock := setupRepo()
	sender := &fakeSender{}

	cfg := config.Config{
		Emails: []string{"ops@vtindex.com"},
	}

	svc := &Service{
		repo:     repo,
		cfg:      cfg,
		sendgrid: sender,
		gateway:  gateway,
		engine:   commission.NewEngine(repo, gateway, cfg.FeatureFlags, cfg.Commission),
		audit:    audit.NewSink(auditRepo, nil),
		ctx:      context.Background(),
	}
	return svc, mock, auditMock, sender
}

type sentEmail struct {
	To       string
	Template string
	Vars     map[string]string
}

type fakeSender struct {
	mu      sync.Mutex
	emails  []sentEmail
	batches []sentEmail
}

func (s *fakeSender) SendEmail(email, language, template string, vars map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.emails = append(s.emails, sentEmail{To: email, Template: template, Vars: vars})
	return nil
}

func (s *fakeSender) SendBatch(emails []string, language, template string, vars map[string]string) (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches = append(s.batches, sentEmail{To: emails[0], Template: template, Vars: vars})
	return len(emails), 0
}

func (s *fakeSender) batchCalls() []sentEmail {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]sentEmail, len(s.batches))
	copy(out, s.batches)
	return out
}

type moneyCall struct {
	Login  string
	Amount string
}

// fakeGateway records money movements and answers reads with empty data
type fakeGateway struct {
	mu          sync.Mutex
	deposits    []moneyCall
	withdrawals []moneyCall
	depositErr  error
	withdrawErr error
	balance     *decimal.Big
	balanceErr  error
}

func (g *fakeGateway) record(calls *[]moneyCall, login string, amount *decimal.Big) {
	g.mu.Lock()
	defer g.mu.Unlock()
	*calls = append(*calls, moneyCall{Login: login, Amount: amount.String()})
}

func (g *fakeGateway) Deposit(ctx context.Context, login string, amount *decimal.Big, comment string) error {
	g.record(&g.deposits, login, amount)
	return g.depositErr
}

func (g *fakeGateway) Withdraw(ctx context.Context, login string, amount *decimal.Big, comment string) error {
	g.record(&g.withdrawals, login, amount)
	return g.withdrawErr
}

func (g *fakeGateway) CreditIn(ctx context.Context, login string, amount *decimal.Big, comment string) error {
	return nil
}

func (g *fakeGateway) CreditOut(ctx context.Context, login string, amount *decimal.Big, comment string) error {
	return nil
}

func (g *fakeGateway) GetBalance(ctx context.Context, login string) (*decimal.Big, error) {
	if g.balanceErr != nil {
		return nil, g.balanceErr
	}
	if g.balance != nil {
		return g.balance, nil
	}
	return decimal.New(0, 0), nil
}

func (g *fakeGateway) GetClosedTrades(ctx context.Context, from, to time.Time) ([]mt5.Deal, error) {
	return []mt5.Deal{}, nil
}

func (g *fakeGateway) GetOpenPositions(ctx context.Context, login string) ([]mt5.Position, error) {
	return []mt5.Position{}, nil
}

func (g *fakeGateway) depositCalls() []moneyCall {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]moneyCall, len(g.deposits))
	copy(out, g.deposits)
	return out
}

func (g *fakeGateway) withdrawalCalls() []moneyCall {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]moneyCall, len(g.withdrawals))
	copy(out, g.withdrawals)
	return out
}
