package queries

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"gitlab.com/vtindex/backoffice_api/config"
)

// Repo holds the database cluster connections. Writes go through Conn,
// user-facing reads through ConnReader and heavy admin listings through
// ConnReaderAdmin so report queries never starve the cabinet.
type Repo struct {
	Conn            *gorm.DB
	ConnReader      *gorm.DB
	ConnReaderAdmin *gorm.DB
}

// NewRepo connects to the database cluster
func NewRepo(cfg config.DatabaseClusterConfig) *Repo {
	return &Repo{
		Conn:            connect(cfg.Writer),
		ConnReader:      connect(cfg.Reader),
		ConnReaderAdmin: connect(cfg.ReaderAdmin),
	}
}

// Close releases every pool in the cluster
func (repo *Repo) Close() {
	for _, conn := range []*gorm.DB{repo.Conn, repo.ConnReader, repo.ConnReaderAdmin} {
		if conn == nil {
			continue
		}
		if db, err := conn.DB(); err == nil {
			_ = db.Close()
		}
	}
}

func connect(cfg config.DatabaseConfig) *gorm.DB {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s dbname=%s password=%s sslmode=%s application_name=%s",
		cfg.Host, cfg.Port, cfg.Username, cfg.Name, cfg.Password, cfg.SSLmode, cfg.ApplicationName,
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal().Err(err).
			Str("section", "queries").
			Str("action", "connect").
			Str("host", cfg.Host).
			Msg("Unable to connect to the database")
	}
	return db
}
