package service

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	. "github.com/smartystreets/goconvey/convey"

	"gitlab.com/vtindex/backoffice_api/model"
)

func otpTestUser() *model.User {
	return &model.User{
		ID:        7000001,
		Email:     "client@vtindex.com",
		FirstName: "Eva",
		LastName:  "Kim",
	}
}

func TestIssueLoginOTP(t *testing.T) {
	Convey("Given a login from a new address", t, func() {
		svc, mock, sender := newTestService(&fakeGateway{})
		user := otpTestUser()

		mock.ExpectBegin()
		mock.ExpectExec(`DELETE FROM "login_otps" WHERE user_id = (.+) AND used = false`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()
		mock.ExpectBegin()
		mock.ExpectQuery(`INSERT INTO "login_otps"`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
		mock.ExpectCommit()

		Convey("When a code is issued", func() {
			err := svc.IssueLoginOTP(user, "203.0.113.7")

			Convey("Then the code goes out by email", func() {
				So(err, ShouldBeNil)
				So(sender.emails, ShouldHaveLength, 1)
				So(sender.emails[0].To, ShouldEqual, user.Email)
				So(sender.emails[0].Template, ShouldEqual, "login_otp")
				So(sender.emails[0].Vars["code"], ShouldHaveLength, 6)
			})
		})
	})
}

func TestVerifyLoginOTP(t *testing.T) {
	otpColumns := []string{"id", "user_id", "code_hash", "remote_ip", "used", "created_at"}

	Convey("Given a fresh code", t, func() {
		svc, mock, _ := newTestService(&fakeGateway{})
		user := otpTestUser()

		mock.ExpectQuery(`SELECT (.+) FROM "login_otps" WHERE user_id = (.+) AND used = false`).
			WillReturnRows(sqlmock.NewRows(otpColumns).
				AddRow(1, user.ID, model.HashOTPCode("482913"), "203.0.113.7", false, time.Now()))
		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE "login_otps" SET`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		Convey("When the right code is submitted", func() {
			err := svc.VerifyLoginOTP(user, "482913")

			Convey("Then the code is consumed", func() {
				So(err, ShouldBeNil)
				So(mock.ExpectationsWereMet(), ShouldBeNil)
			})
		})
	})

	Convey("Given a fresh code and a wrong guess", t, func() {
		svc, mock, _ := newTestService(&fakeGateway{})
		user := otpTestUser()

		mock.ExpectQuery(`SELECT (.+) FROM "login_otps" WHERE user_id = (.+) AND used = false`).
			WillReturnRows(sqlmock.NewRows(otpColumns).
				AddRow(1, user.ID, model.HashOTPCode("482913"), "203.0.113.7", false, time.Now()))

		Convey("When the wrong code is submitted", func() {
			err := svc.VerifyLoginOTP(user, "000000")

			Convey("Then the login is refused and the code stays usable", func() {
				So(requestStatus(err), ShouldEqual, 401)
				So(mock.ExpectationsWereMet(), ShouldBeNil)
			})
		})
	})

	Convey("Given a code older than the ttl", t, func() {
		svc, mock, _ := newTestService(&fakeGateway{})
		user := otpTestUser()

		mock.ExpectQuery(`SELECT (.+) FROM "login_otps" WHERE user_id = (.+) AND used = false`).
			WillReturnRows(sqlmock.NewRows(otpColumns).
				AddRow(1, user.ID, model.HashOTPCode("482913"), "203.0.113.7", false, time.Now().Add(-2*time.Minute)))

		Convey("When the right code arrives too late", func() {
			err := svc.VerifyLoginOTP(user, "482913")

			Convey("Then the login is refused", func() {
				So(requestStatus(err), ShouldEqual, 401)
			})
		})
	})

	Convey("Given no active code", t, func() {
		svc, mock, _ := newTestService(&fakeGateway{})
		user := otpTestUser()

		mock.ExpectQuery(`SELECT (.+) FROM "login_otps" WHERE user_id = (.+) AND used = false`).
			WillReturnRows(sqlmock.NewRows(otpColumns))

		Convey("When a code is submitted anyway", func() {
			err := svc.VerifyLoginOTP(user, "482913")

			Convey("Then the login is refused", func() {
				So(requestStatus(err), ShouldEqual, 401)
			})
		})
	})
}
