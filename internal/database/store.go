package database

import (
	"database/sql"
	"errors"

	"stayhub/internal/config"
	"stayhub/internal/domain"

	"github.com/jmoiron/sqlx"
)

// store implements domain.Tx over either the connection pool or a single
// transaction.
type store struct {
	q         sqlx.ExtContext
	forUpdate string
}

var _ domain.Tx = (*store)(nil)

func newStore(q sqlx.ExtContext) *store {
	s := &store{q: q}
	if q.DriverName() == config.DriverPostgres {
		s.forUpdate = " FOR UPDATE"
	}
	return s
}

func (s *store) rebind(query string) string {
	return s.q.Rebind(query)
}

func notFoundOr(err error, entity string, id int64, op string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NotFound(entity, id)
	}
	return domain.Storage(op, err)
}

func rowsAffected(res sql.Result, op string) (int64, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return 0, domain.Storage(op, err)
	}
	return n, nil
}
