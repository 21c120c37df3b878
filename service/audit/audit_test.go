package audit

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/rs/zerolog/log"
	. "github.com/smartystreets/goconvey/convey"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"gitlab.com/vtindex/backoffice_api/model"
	"gitlab.com/vtindex/backoffice_api/queries"
)

func setupSink() (*Sink, sqlmock.Sqlmock) {
	logger := log.With().Str("test", "audit").Logger()
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

	repo := &queries.Repo{Conn: gormDB, ConnReader: gormDB, ConnReaderAdmin: gormDB}
	return NewSink(repo, nil), mock
}

func TestSinkFlushOnStop(t *testing.T) {
	Convey("Given a sink holding one event", t, func() {
		sink, mock := setupSink()

		mock.ExpectBegin()
		mock.ExpectExec(`INSERT INTO "activity_logs"`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		sink.Record(Event{
			UserID:   1,
			Activity: "Signed in from 203.0.113.7",
			Type:     model.ActivityType_Create,
			Category: model.ActivityCategory_Client,
		})

		Convey("When the sink stops", func() {
			sink.Stop(context.Background())

			Convey("Then the event is persisted before Stop returns", func() {
				So(mock.ExpectationsWereMet(), ShouldBeNil)
			})
		})
	})
}

func TestSinkRecordAfterStop(t *testing.T) {
	Convey("Given a stopped sink", t, func() {
		sink, mock := setupSink()
		sink.Stop(context.Background())

		Convey("When a late request records an event", func() {
			record := func() {
				sink.Record(Event{
					UserID:   1,
					Activity: "Signed in from 203.0.113.7",
					Type:     model.ActivityType_Create,
					Category: model.ActivityCategory_Client,
				})
			}

			Convey("Then the event is dropped instead of panicking", func() {
				So(record, ShouldNotPanic)
				So(mock.ExpectationsWereMet(), ShouldBeNil)
			})
		})

		Convey("When the sink is stopped twice", func() {
			Convey("Then the second stop is a no-op", func() {
				So(func() { sink.Stop(context.Background()) }, ShouldNotPanic)
			})
		})
	})
}
