package repo

import (
	"context"

	"github.com/gocql/gocql"

	"custody/config"
)

type Repo struct {
	db   *gocql.Session
	conf *config.CustodyConfModel
}
type Imply interface {
	DBHealthCheck(context.Context) error
}

// NewRepo
func NewRepo(db *gocql.Session, conf *config.CustodyConfModel) Imply {
	return &Repo{db: db, conf: conf}
}

// HealthHandler
func (repo *Repo) DBHealthCheck(ctx context.Context) error {
	if err := repo.db.Query("SELECT now() FROM system.local").WithContext(ctx).Exec(); err != nil {
		return err
	}
	return nil
}
