package service

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	. "github.com/smartystreets/goconvey/convey"

	"gitlab.com/vtindex/backoffice_api/lib/httputils"
	"gitlab.com/vtindex/backoffice_api/model"
)

func expectTxForUpdate(mock sqlmock.Sqlmock, id string, userID uint64, txType model.TransactionType, status model.TransactionStatus, amount, account, from, to string) {
	mock.ExpectQuery(`SELECT (.+) FROM "transactions" WHERE id = (.+) FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "user_id", "transaction_type", "amount", "status",
			"trading_account", "from_account", "to_account",
		}).AddRow(id, userID, txType, amount, status, account, from, to))
}

func expectUserRow(mock sqlmock.Sqlmock, id uint64, verified, ib bool) {
	docStatus := model.KycDocumentStatusNotUploaded
	if verified {
		docStatus = model.KycDocumentStatusApproved
	}
	var profileID interface{}
	if ib {
		profileID = 1
	}
	mock.ExpectQuery(`SELECT (.+) FROM "users" WHERE id`).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "email", "first_name", "last_name", "ib_status",
			"commission_profile_id", "identity_doc_status", "residence_doc_status",
		}).AddRow(id, "user@vtindex.com", "Jane", "Doe", ib, profileID, docStatus, docStatus))
}

func expectDedupCheck(mock sqlmock.Sqlmock, alreadySent bool) {
	count := 0
	if alreadySent {
		count = 1
	}
	mock.ExpectQuery(`SELECT count(.+) FROM "mt5_send_dedup"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(count))
}

func expectDedupInsert(mock sqlmock.Sqlmock) {
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "mt5_send_dedup"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()
}

func expectResolveUpdate(mock sqlmock.Sqlmock) {
	mock.ExpectExec(`UPDATE "transactions" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
}

func requestStatus(err error) int {
	var reqErr *httputils.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.Status
	}
	return 0
}

func TestApproveDeposit(t *testing.T) {
	gateway := &fakeGateway{}
	svc, mock, sender := newTestService(gateway)

	Convey("it should push the deposit to MT5 and approve", t, func() {
		mock.ExpectBegin()
		expectTxForUpdate(mock, "tx-1", 100, model.TransactionType_DepositTrading, model.TransactionStatus_Pending, "250.00", "7000100", "", "")
		expectUserRow(mock, 100, true, false)
		expectDedupCheck(mock, false)
		expectDedupInsert(mock)
		expectResolveUpdate(mock)
		mock.ExpectCommit()

		tx, err := svc.ApproveTransaction(context.Background(), 1, "tx-1", "looks fine")
		So(err, ShouldBeNil)
		So(mock.ExpectationsWereMet(), ShouldBeNil)
		So(tx.Status, ShouldEqual, model.TransactionStatus_Approved)

		deposits := gateway.depositCalls()
		So(len(deposits), ShouldEqual, 1)
		So(deposits[0].Login, ShouldEqual, "7000100")
		So(deposits[0].Amount, ShouldEqual, "250.00")

		So(len(sender.emails), ShouldEqual, 1)
		So(sender.emails[0].Template, ShouldEqual, "transaction_approved")
	})
}

func TestApproveWithdrawalBlockedByKyc(t *testing.T) {
	gateway := &fakeGateway{}
	svc, mock, auditMock, _ := newTestServiceWithAudit(gateway)

	Convey("it should refuse a withdrawal for an unverified user", t, func() {
		mock.ExpectBegin()
		expectTxForUpdate(mock, "tx-2", 100, model.TransactionType_WithdrawTrading, model.TransactionStatus_Pending, "50.00", "7000100", "", "")
		expectUserRow(mock, 100, false, false)
		mock.ExpectRollback()

		// the refusal leaves an audit row naming the admin and the user
		auditMock.ExpectBegin()
		auditMock.ExpectExec(`INSERT INTO "activity_logs"`).
			WithArgs(
				sqlmock.AnyArg(),
				int64(1),
				"Blocked withdrawal tx-2: user 100 is not KYC verified",
				sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
				"update",
				"management",
				sqlmock.AnyArg(), sqlmock.AnyArg(),
			).
			WillReturnResult(sqlmock.NewResult(0, 1))
		auditMock.ExpectCommit()

		tx, err := svc.ApproveTransaction(context.Background(), 1, "tx-2", "")
		So(tx, ShouldBeNil)
		So(requestStatus(err), ShouldEqual, 403)
		So(mock.ExpectationsWereMet(), ShouldBeNil)

		So(len(gateway.depositCalls()), ShouldEqual, 0)
		So(len(gateway.withdrawalCalls()), ShouldEqual, 0)

		svc.Stop(context.Background())
		So(auditMock.ExpectationsWereMet(), ShouldBeNil)
	})
}

func TestApproveAlreadyResolved(t *testing.T) {
	gateway := &fakeGateway{}
	svc, mock, _ := newTestService(gateway)

	Convey("it should answer conflict for a terminal transaction", t, func() {
		mock.ExpectBegin()
		expectTxForUpdate(mock, "tx-3", 100, model.TransactionType_DepositTrading, model.TransactionStatus_Approved, "250.00", "7000100", "", "")
		mock.ExpectRollback()

		tx, err := svc.ApproveTransaction(context.Background(), 1, "tx-3", "")
		So(tx, ShouldBeNil)
		So(requestStatus(err), ShouldEqual, 409)
		So(mock.ExpectationsWereMet(), ShouldBeNil)
		So(len(gateway.depositCalls()), ShouldEqual, 0)
	})
}

func TestApproveCommissionWithdrawalBalanceGate(t *testing.T) {
	gateway := &fakeGateway{}
	svc, mock, _ := newTestService(gateway)

	Convey("it should refuse an amount above the available commission balance", t, func() {
		mock.ExpectBegin()
		expectTxForUpdate(mock, "tx-4", 100, model.TransactionType_CommissionWithdrawal, model.TransactionStatus_Pending, "100.00", "7000100", "", "")
		expectUserRow(mock, 100, true, true)
		mock.ExpectQuery(`SELECT (.+) FROM commission_transactions AS ct`).
			WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow("80.00"))
		mock.ExpectQuery(`SELECT (.+) FROM "transactions" WHERE user_id`).
			WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow("30.00"))
		mock.ExpectRollback()

		tx, err := svc.ApproveTransaction(context.Background(), 1, "tx-4", "")
		So(tx, ShouldBeNil)
		So(requestStatus(err), ShouldEqual, 400)
		So(mock.ExpectationsWereMet(), ShouldBeNil)
		So(len(gateway.depositCalls()), ShouldEqual, 0)
	})
}

func TestApproveMT5FailureLeavesPending(t *testing.T) {
	gateway := &fakeGateway{depositErr: errors.New("bridge down")}
	svc, mock, _ := newTestService(gateway)

	Convey("it should roll back when the MT5 call fails", t, func() {
		mock.ExpectBegin()
		expectTxForUpdate(mock, "tx-5", 100, model.TransactionType_DepositTrading, model.TransactionStatus_Pending, "250.00", "7000100", "", "")
		expectUserRow(mock, 100, true, false)
		expectDedupCheck(mock, false)
		mock.ExpectRollback()

		tx, err := svc.ApproveTransaction(context.Background(), 1, "tx-5", "")
		So(tx, ShouldBeNil)
		So(requestStatus(err), ShouldEqual, 500)
		So(mock.ExpectationsWereMet(), ShouldBeNil)
	})
}

func TestApproveSkipsAlreadySentLeg(t *testing.T) {
	gateway := &fakeGateway{}
	svc, mock, _ := newTestService(gateway)

	Convey("it should not resend a movement already recorded", t, func() {
		mock.ExpectBegin()
		expectTxForUpdate(mock, "tx-6", 100, model.TransactionType_DepositTrading, model.TransactionStatus_Pending, "250.00", "7000100", "", "")
		expectUserRow(mock, 100, true, false)
		expectDedupCheck(mock, true)
		expectResolveUpdate(mock)
		mock.ExpectCommit()

		tx, err := svc.ApproveTransaction(context.Background(), 1, "tx-6", "")
		So(err, ShouldBeNil)
		So(tx.Status, ShouldEqual, model.TransactionStatus_Approved)
		So(mock.ExpectationsWereMet(), ShouldBeNil)
		So(len(gateway.depositCalls()), ShouldEqual, 0)
	})
}

func TestApproveTransferCompensation(t *testing.T) {
	gateway := &fakeGateway{depositErr: errors.New("credit refused")}
	svc, mock, sender := newTestService(gateway)

	Convey("a failed credit after a successful debit still approves and alerts once", t, func() {
		mock.ExpectBegin()
		expectTxForUpdate(mock, "tx-7", 100, model.TransactionType_InternalTransfer, model.TransactionStatus_Pending, "40.00", "", "7000100", "7000200")
		expectUserRow(mock, 100, true, false)
		expectDedupCheck(mock, false)
		expectDedupInsert(mock)
		expectDedupCheck(mock, false)
		expectResolveUpdate(mock)
		mock.ExpectCommit()

		tx, err := svc.ApproveTransaction(context.Background(), 1, "tx-7", "")
		So(err, ShouldBeNil)
		So(tx.Status, ShouldEqual, model.TransactionStatus_Approved)
		So(mock.ExpectationsWereMet(), ShouldBeNil)

		withdrawals := gateway.withdrawalCalls()
		So(len(withdrawals), ShouldEqual, 1)
		So(withdrawals[0].Login, ShouldEqual, "7000100")
		deposits := gateway.depositCalls()
		So(len(deposits), ShouldEqual, 1)
		So(deposits[0].Login, ShouldEqual, "7000200")

		batches := sender.batchCalls()
		So(len(batches), ShouldEqual, 1)
		So(batches[0].Template, ShouldEqual, "transfer_compensation_alert")
		So(batches[0].Vars["transaction_id"], ShouldEqual, "tx-7")
	})
}

func TestRejectTransaction(t *testing.T) {
	gateway := &fakeGateway{}
	svc, mock, sender := newTestService(gateway)

	Convey("it should reject without touching MT5", t, func() {
		mock.ExpectBegin()
		expectTxForUpdate(mock, "tx-8", 100, model.TransactionType_WithdrawTrading, model.TransactionStatus_Pending, "50.00", "7000100", "", "")
		expectResolveUpdate(mock)
		mock.ExpectCommit()
		expectUserRow(mock, 100, true, false)

		tx, err := svc.RejectTransaction(1, "tx-8", "suspicious")
		So(err, ShouldBeNil)
		So(tx.Status, ShouldEqual, model.TransactionStatus_Rejected)
		So(mock.ExpectationsWereMet(), ShouldBeNil)

		So(len(gateway.depositCalls()), ShouldEqual, 0)
		So(len(gateway.withdrawalCalls()), ShouldEqual, 0)
		So(len(sender.emails), ShouldEqual, 1)
		So(sender.emails[0].Template, ShouldEqual, "transaction_rejected")
	})
}
