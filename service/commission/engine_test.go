package commission

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/ericlagergren/decimal"
	. "github.com/smartystreets/goconvey/convey"

	"gitlab.com/vtindex/backoffice_api/config"
)

func d(s string) *decimal.Big {
	v, _ := new(decimal.Big).SetString(s)
	return v
}

func expectAccount(mock sqlmock.Sqlmock, id uint64, accountID string, userID uint64, accountType, groupName string) {
	mock.ExpectQuery(`SELECT (.+) FROM "trading_accounts" WHERE account_id`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "account_id", "user_id", "account_type", "group_name"}).
			AddRow(id, accountID, userID, accountType, groupName))
}

func expectTradeGroupMiss(mock sqlmock.Sqlmock) {
	mock.ExpectQuery(`SELECT (.+) FROM "trade_groups" WHERE group_name`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "group_name", "is_demo"}))
}

func expectUser(mock sqlmock.Sqlmock, id uint64, parentID interface{}, ibStatus bool, profileID interface{}) {
	mock.ExpectQuery(`SELECT (.+) FROM "users" WHERE id`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "ib_status", "parent_ib_id", "commission_profile_id"}).
			AddRow(id, "user@vtindex.com", ibStatus, parentID, profileID))
}

func expectProfile(mock sqlmock.Sqlmock, id uint64, usePct bool, dynamicLevels, approvedGroups string) {
	mock.ExpectQuery(`SELECT (.+) FROM "commission_profiles" WHERE id`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "use_percentage_based", "dynamic_levels", "approved_groups"}).
			AddRow(id, "profile", usePct, dynamicLevels, approvedGroups))
}

func expectOverrideMiss(mock sqlmock.Sqlmock) {
	mock.ExpectQuery(`SELECT (.+) FROM "profile_group_overrides" WHERE profile_id`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "profile_id", "group_name", "amounts"}))
}

func expectOverride(mock sqlmock.Sqlmock, profileID uint64, groupName, amounts string) {
	mock.ExpectQuery(`SELECT (.+) FROM "profile_group_overrides" WHERE profile_id`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "profile_id", "group_name", "amounts"}).
			AddRow(1, profileID, groupName, amounts))
}

func expectLedgerInsertCreated(mock sqlmock.Sqlmock, id uint64) {
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "commission_transactions"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(id))
	mock.ExpectCommit()
}

func expectLedgerInsertDuplicate(mock sqlmock.Sqlmock) {
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "commission_transactions"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectCommit()
}

func expectIBAccount(mock sqlmock.Sqlmock, userID uint64, login string) {
	mock.ExpectQuery(`SELECT (.+) FROM "trading_accounts" WHERE user_id`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "account_id", "user_id", "account_type", "group_name"}).
			AddRow(99, login, userID, "standard", "real-A"))
}

func TestOnTradeClosedSingleLevel(t *testing.T) {
	gateway := &fakeGateway{}
	engine, mock := setupEngine(gateway, false)

	Convey("it should credit a single-level IB with usd per lot", t, func() {
		expectAccount(mock, 1, "7000100", 100, "standard", "real-A")
		expectTradeGroupMiss(mock)
		expectUser(mock, 100, 200, false, nil)
		expectUser(mock, 200, nil, true, 1)
		expectProfile(mock, 1, false, `[{"level":1,"usd_per_lot":"50"}]`, "{}")
		expectOverrideMiss(mock)
		expectLedgerInsertCreated(mock, 1)
		expectIBAccount(mock, 200, "7000200")

		err := engine.OnTradeClosed(context.Background(), TradeEvent{
			PositionID:      "P1",
			TradingAccount:  "7000100",
			TotalCommission: d("0"),
			LotSize:         d("2.0"),
			Profit:          d("10"),
		})
		So(err, ShouldBeNil)
		So(mock.ExpectationsWereMet(), ShouldBeNil)

		credits := gateway.creditCalls()
		So(len(credits), ShouldEqual, 1)
		So(credits[0].Login, ShouldEqual, "7000200")
		So(credits[0].Amount, ShouldEqual, "100.00")
		So(credits[0].Comment, ShouldContainSubstring, "IB Commission L1")
	})
}

func TestOnTradeClosedPercentageChain(t *testing.T) {
	gateway := &fakeGateway{}
	engine, mock := setupEngine(gateway, false)

	levels := `[{"level":1,"percentage":"80"},{"level":2,"percentage":"15"},{"level":3,"percentage":"5"}]`

	Convey("it should pay every IB in the chain at its absolute level", t, func() {
		expectAccount(mock, 1, "7000100", 100, "standard", "real-A")
		expectTradeGroupMiss(mock)
		expectUser(mock, 100, 200, false, nil)

		expectUser(mock, 200, 300, true, 1)
		expectProfile(mock, 1, true, levels, "{}")
		expectLedgerInsertCreated(mock, 1)
		expectIBAccount(mock, 200, "7000200")

		expectUser(mock, 300, 400, true, 1)
		expectProfile(mock, 1, true, levels, "{}")
		expectLedgerInsertCreated(mock, 2)
		expectIBAccount(mock, 300, "7000300")

		expectUser(mock, 400, nil, true, 1)
		expectProfile(mock, 1, true, levels, "{}")
		expectLedgerInsertCreated(mock, 3)
		expectIBAccount(mock, 400, "7000400")

		err := engine.OnTradeClosed(context.Background(), TradeEvent{
			PositionID:      "P2",
			TradingAccount:  "7000100",
			TotalCommission: d("100"),
			LotSize:         d("1"),
			Profit:          d("0"),
		})
		So(err, ShouldBeNil)
		So(mock.ExpectationsWereMet(), ShouldBeNil)

		credits := gateway.creditCalls()
		So(len(credits), ShouldEqual, 3)
		So(credits[0].Amount, ShouldEqual, "80.00")
		So(credits[1].Amount, ShouldEqual, "15.00")
		So(credits[2].Amount, ShouldEqual, "5.00")
	})
}

func TestOnTradeClosedMissingProfileMidChain(t *testing.T) {
	gateway := &fakeGateway{}
	engine, mock := setupEngine(gateway, false)

	Convey("it should skip an IB without a profile and keep walking", t, func() {
		expectAccount(mock, 1, "7000100", 100, "standard", "real-A")
		expectTradeGroupMiss(mock)
		expectUser(mock, 100, 200, false, nil)

		expectUser(mock, 200, 300, true, 1)
		expectProfile(mock, 1, false, `[{"level":1,"usd_per_lot":"50"}]`, "{}")
		expectOverrideMiss(mock)
		expectLedgerInsertCreated(mock, 1)
		expectIBAccount(mock, 200, "7000200")

		// no profile: only the user row is fetched
		expectUser(mock, 300, 400, true, nil)

		expectUser(mock, 400, nil, true, 3)
		expectProfile(mock, 3, false, `[{"level":3,"usd_per_lot":"10"}]`, "{}")
		expectOverrideMiss(mock)
		expectLedgerInsertCreated(mock, 2)
		expectIBAccount(mock, 400, "7000400")

		err := engine.OnTradeClosed(context.Background(), TradeEvent{
			PositionID:      "P3",
			TradingAccount:  "7000100",
			TotalCommission: d("0"),
			LotSize:         d("2"),
			Profit:          d("0"),
		})
		So(err, ShouldBeNil)
		So(mock.ExpectationsWereMet(), ShouldBeNil)

		credits := gateway.creditCalls()
		So(len(credits), ShouldEqual, 2)
		So(credits[0].Amount, ShouldEqual, "100.00")
		So(credits[0].Comment, ShouldContainSubstring, "L1")
		So(credits[1].Amount, ShouldEqual, "20.00")
		So(credits[1].Comment, ShouldContainSubstring, "L3")
	})
}

func TestOnTradeClosedDuplicateEvent(t *testing.T) {
	gateway := &fakeGateway{}
	engine, mock := setupEngine(gateway, false)

	Convey("a replayed trade event must not credit MT5 again", t, func() {
		expectAccount(mock, 1, "7000100", 100, "standard", "real-A")
		expectTradeGroupMiss(mock)
		expectUser(mock, 100, 200, false, nil)
		expectUser(mock, 200, nil, true, 1)
		expectProfile(mock, 1, false, `[{"level":1,"usd_per_lot":"50"}]`, "{}")
		expectOverrideMiss(mock)

		expectLedgerInsertDuplicate(mock)
		mock.ExpectQuery(`SELECT (.+) FROM "commission_transactions" WHERE position_id`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "position_id", "client_trading_account", "ib_user_id", "ib_level", "commission_to_ib"}).
				AddRow(1, "P1", "7000100", 200, 1, "100.00"))
		mock.ExpectExec(`UPDATE commission_transactions`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := engine.OnTradeClosed(context.Background(), TradeEvent{
			PositionID:      "P1",
			TradingAccount:  "7000100",
			TotalCommission: d("0"),
			LotSize:         d("2.0"),
			Profit:          d("10"),
		})
		So(err, ShouldBeNil)
		So(mock.ExpectationsWereMet(), ShouldBeNil)
		So(len(gateway.creditCalls()), ShouldEqual, 0)
	})
}

func TestOnTradeClosedReplayKeepsCompleteRow(t *testing.T) {
	gateway := &fakeGateway{}
	engine, mock := setupEngine(gateway, false)

	Convey("a replay backfills null columns only and never rewrites the source", t, func() {
		expectAccount(mock, 1, "7000100", 100, "standard", "real-A")
		expectTradeGroupMiss(mock)
		expectUser(mock, 100, 200, false, nil)
		expectUser(mock, 200, nil, true, 1)
		expectProfile(mock, 1, false, `[{"level":1,"usd_per_lot":"50"}]`, "{}")
		expectOverrideMiss(mock)

		expectLedgerInsertDuplicate(mock)
		mock.ExpectQuery(`SELECT (.+) FROM "commission_transactions" WHERE position_id`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "position_id", "client_trading_account", "ib_user_id", "ib_level", "commission_to_ib", "lot_size", "profit"}).
				AddRow(1, "P1", "7000100", 200, 1, "100.00", "2.00", "0"))
		// the null guard keeps a breakeven row with profit 0 untouched
		mock.ExpectExec(`(?s)UPDATE commission_transactions.+COALESCE\(lot_size.+COALESCE\(profit.+lot_size IS NULL OR profit IS NULL`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := engine.OnTradeClosed(context.Background(), TradeEvent{
			PositionID:      "P1",
			TradingAccount:  "7000100",
			TotalCommission: d("0"),
			LotSize:         d("2.0"),
			Profit:          d("0"),
		})
		So(err, ShouldBeNil)
		So(mock.ExpectationsWereMet(), ShouldBeNil)
		So(len(gateway.creditCalls()), ShouldEqual, 0)
	})
}

func TestOnTradeClosedGroupOverride(t *testing.T) {
	gateway := &fakeGateway{}
	engine, mock := setupEngine(gateway, false)

	Convey("a group override wins over the dynamic level table", t, func() {
		expectAccount(mock, 1, "7000100", 100, "standard", "gold-B")
		expectTradeGroupMiss(mock)
		expectUser(mock, 100, 200, false, nil)
		expectUser(mock, 200, nil, true, 1)
		expectProfile(mock, 1, false, `[{"level":1,"usd_per_lot":"50"}]`, "{}")
		expectOverride(mock, 1, "gold-B", `["75","25"]`)
		expectLedgerInsertCreated(mock, 1)
		expectIBAccount(mock, 200, "7000200")

		err := engine.OnTradeClosed(context.Background(), TradeEvent{
			PositionID:      "P5",
			TradingAccount:  "7000100",
			TotalCommission: d("0"),
			LotSize:         d("1"),
			Profit:          d("0"),
		})
		So(err, ShouldBeNil)
		So(mock.ExpectationsWereMet(), ShouldBeNil)

		credits := gateway.creditCalls()
		So(len(credits), ShouldEqual, 1)
		So(credits[0].Amount, ShouldEqual, "75.00")
	})
}

func TestOnTradeClosedGroupGate(t *testing.T) {
	gateway := &fakeGateway{}
	engine, mock := setupEngine(gateway, false)

	Convey("an unapproved group stops the walk without a ledger row", t, func() {
		expectAccount(mock, 1, "7000100", 100, "standard", "real-A")
		expectTradeGroupMiss(mock)
		expectUser(mock, 100, 200, false, nil)
		expectUser(mock, 200, nil, true, 1)
		expectProfile(mock, 1, false, `[{"level":1,"usd_per_lot":"50"}]`, `{gold-B}`)

		err := engine.OnTradeClosed(context.Background(), TradeEvent{
			PositionID:      "P6",
			TradingAccount:  "7000100",
			TotalCommission: d("0"),
			LotSize:         d("1"),
			Profit:          d("0"),
		})
		So(err, ShouldBeNil)
		So(mock.ExpectationsWereMet(), ShouldBeNil)
		So(len(gateway.creditCalls()), ShouldEqual, 0)
	})
}

func TestOnTradeClosedDemoExclusion(t *testing.T) {
	Convey("a demo account type never produces commissions", t, func() {
		gateway := &fakeGateway{}
		engine, mock := setupEngine(gateway, false)

		expectAccount(mock, 1, "7000100", 100, "demo", "real-A")

		err := engine.OnTradeClosed(context.Background(), TradeEvent{
			PositionID:      "P7",
			TradingAccount:  "7000100",
			TotalCommission: d("100"),
			LotSize:         d("1"),
			Profit:          d("0"),
		})
		So(err, ShouldBeNil)
		So(mock.ExpectationsWereMet(), ShouldBeNil)
		So(len(gateway.creditCalls()), ShouldEqual, 0)
	})

	Convey("a demo group name never produces commissions", t, func() {
		gateway := &fakeGateway{}
		engine, mock := setupEngine(gateway, false)

		expectAccount(mock, 1, "7000100", 100, "standard", `Demo\USD`)

		err := engine.OnTradeClosed(context.Background(), TradeEvent{
			PositionID:      "P8",
			TradingAccount:  "7000100",
			TotalCommission: d("100"),
			LotSize:         d("1"),
			Profit:          d("0"),
		})
		So(err, ShouldBeNil)
		So(mock.ExpectationsWereMet(), ShouldBeNil)
		So(len(gateway.creditCalls()), ShouldEqual, 0)
	})

	Convey("a group flagged demo in the classification table is excluded", t, func() {
		gateway := &fakeGateway{}
		engine, mock := setupEngine(gateway, false)

		expectAccount(mock, 1, "7000100", 100, "standard", "practice-A")
		mock.ExpectQuery(`SELECT (.+) FROM "trade_groups" WHERE group_name`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "group_name", "is_demo"}).
				AddRow(1, "practice-A", true))

		err := engine.OnTradeClosed(context.Background(), TradeEvent{
			PositionID:      "P9",
			TradingAccount:  "7000100",
			TotalCommission: d("100"),
			LotSize:         d("1"),
			Profit:          d("0"),
		})
		So(err, ShouldBeNil)
		So(mock.ExpectationsWereMet(), ShouldBeNil)
		So(len(gateway.creditCalls()), ShouldEqual, 0)
	})
}

func TestOnTradeClosedKillSwitch(t *testing.T) {
	gateway := &fakeGateway{}
	engine, mock := setupEngine(gateway, true)

	Convey("the kill switch short-circuits before any database access", t, func() {
		err := engine.OnTradeClosed(context.Background(), TradeEvent{
			PositionID:      "P10",
			TradingAccount:  "7000100",
			TotalCommission: d("100"),
			LotSize:         d("1"),
			Profit:          d("0"),
		})
		So(err, ShouldBeNil)
		So(mock.ExpectationsWereMet(), ShouldBeNil)
		So(len(gateway.creditCalls()), ShouldEqual, 0)
	})
}

func TestOnTradeClosedDepthBound(t *testing.T) {
	gateway := &fakeGateway{}
	repo, mock := setupRepo()
	engine := NewEngine(repo, gateway,
		config.FeatureFlagsConfig{},
		config.CommissionConfig{MaxDepth: 2},
	)

	levels := `[{"level":1,"usd_per_lot":"10"},{"level":2,"usd_per_lot":"5"},{"level":3,"usd_per_lot":"1"}]`

	Convey("the walk never exceeds the configured depth bound", t, func() {
		expectAccount(mock, 1, "7000100", 100, "standard", "real-A")
		expectTradeGroupMiss(mock)
		expectUser(mock, 100, 200, false, nil)

		expectUser(mock, 200, 300, true, 1)
		expectProfile(mock, 1, false, levels, "{}")
		expectOverrideMiss(mock)
		expectLedgerInsertCreated(mock, 1)
		expectIBAccount(mock, 200, "7000200")

		expectUser(mock, 300, 400, true, 1)
		expectProfile(mock, 1, false, levels, "{}")
		expectOverrideMiss(mock)
		expectLedgerInsertCreated(mock, 2)
		expectIBAccount(mock, 300, "7000300")

		err := engine.OnTradeClosed(context.Background(), TradeEvent{
			PositionID:      "P11",
			TradingAccount:  "7000100",
			TotalCommission: d("0"),
			LotSize:         d("1"),
			Profit:          d("0"),
		})
		So(err, ShouldBeNil)
		So(mock.ExpectationsWereMet(), ShouldBeNil)
		So(len(gateway.creditCalls()), ShouldEqual, 2)
	})
}

func TestOnTradeClosedCycleDetection(t *testing.T) {
	gateway := &fakeGateway{}
	engine, mock := setupEngine(gateway, false)

	Convey("a corrupted parent cycle stops the walk instead of spinning", t, func() {
		expectAccount(mock, 1, "7000100", 100, "standard", "real-A")
		expectTradeGroupMiss(mock)
		expectUser(mock, 100, 200, false, nil)
		expectUser(mock, 200, 300, true, nil)
		expectUser(mock, 300, 200, true, nil)

		err := engine.OnTradeClosed(context.Background(), TradeEvent{
			PositionID:      "P12",
			TradingAccount:  "7000100",
			TotalCommission: d("0"),
			LotSize:         d("1"),
			Profit:          d("0"),
		})
		So(err, ShouldBeNil)
		So(mock.ExpectationsWereMet(), ShouldBeNil)
		So(len(gateway.creditCalls()), ShouldEqual, 0)
	})
}

func TestOnTradeClosedUnknownAccount(t *testing.T) {
	gateway := &fakeGateway{}
	engine, mock := setupEngine(gateway, false)

	Convey("a trade on an unknown account is skipped without error", t, func() {
		mock.ExpectQuery(`SELECT (.+) FROM "trading_accounts" WHERE account_id`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		err := engine.OnTradeClosed(context.Background(), TradeEvent{
			PositionID:      "P13",
			TradingAccount:  "9999999",
			TotalCommission: d("100"),
			LotSize:         d("1"),
			Profit:          d("0"),
		})
		So(err, ShouldBeNil)
		So(mock.ExpectationsWereMet(), ShouldBeNil)
	})
}
