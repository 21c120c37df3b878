package service

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/ericlagergren/decimal"
	. "github.com/smartystreets/goconvey/convey"

	"gitlab.com/vtindex/backoffice_api/model"
)

func TestRefreshAccountSnapshot(t *testing.T) {
	Convey("Given a user with a linked trading account", t, func() {
		gateway := &fakeGateway{balance: decimal.New(125050, 2)}
		svc, mock, _ := newTestService(gateway)

		mock.ExpectQuery(`SELECT count(.+) FROM "trading_accounts" WHERE user_id = (.+) AND account_id = (.+)`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
		mock.ExpectQuery(`SELECT (.+) FROM "trading_accounts" WHERE account_id = (.+)`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "account_id", "user_id", "account_type", "group_name"}).
				AddRow(4, "7000100", 7000001, "standard", "real\\standard"))
		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE "trading_accounts" SET`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		Convey("When the snapshot is refreshed", func() {
			account, err := svc.RefreshAccountSnapshot(context.Background(), 7000001, "7000100")

			Convey("Then the MT5 balance lands in the snapshot", func() {
				So(err, ShouldBeNil)
				So(account.Balance, ShouldNotBeNil)
				So(account.Balance.V.String(), ShouldEqual, "1250.50")
			})
		})
	})

	Convey("Given an account the user does not own", t, func() {
		gateway := &fakeGateway{}
		svc, mock, _ := newTestService(gateway)

		mock.ExpectQuery(`SELECT count(.+) FROM "trading_accounts" WHERE user_id = (.+) AND account_id = (.+)`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

		Convey("When the snapshot is refreshed", func() {
			_, err := svc.RefreshAccountSnapshot(context.Background(), 7000002, "7000100")

			Convey("Then the account is reported missing", func() {
				So(requestStatus(err), ShouldEqual, 404)
			})
		})
	})

	Convey("Given a bridge that cannot answer", t, func() {
		gateway := &fakeGateway{balanceErr: errors.New("bridge down")}
		svc, mock, _ := newTestService(gateway)

		mock.ExpectQuery(`SELECT count(.+) FROM "trading_accounts" WHERE user_id = (.+) AND account_id = (.+)`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
		mock.ExpectQuery(`SELECT (.+) FROM "trading_accounts" WHERE account_id = (.+)`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "account_id", "user_id", "account_type", "group_name"}).
				AddRow(4, "7000100", 7000001, "standard", "real\\standard"))

		Convey("When the snapshot is refreshed", func() {
			_, err := svc.RefreshAccountSnapshot(context.Background(), 7000001, "7000100")

			Convey("Then the failure maps to a gateway error", func() {
				So(requestStatus(err), ShouldEqual, 502)
			})
		})
	})
}

func TestCreateTradingAccountValidation(t *testing.T) {
	Convey("Given an invalid account type", t, func() {
		svc, _, _ := newTestService(&fakeGateway{})

		Convey("When the staff links the account", func() {
			_, err := svc.CreateTradingAccount(2, 7000001, "7000100", model.AccountType("vip"), "real\\standard")

			Convey("Then the request is rejected", func() {
				So(requestStatus(err), ShouldEqual, 400)
			})
		})
	})

	Convey("Given an empty account id", t, func() {
		svc, _, _ := newTestService(&fakeGateway{})

		Convey("When the staff links the account", func() {
			_, err := svc.CreateTradingAccount(2, 7000001, "", model.AccountTypeStandard, "")

			Convey("Then the request is rejected", func() {
				So(requestStatus(err), ShouldEqual, 400)
			})
		})
	})
}
