package db

import (
	"context"
)

func (s *SQLite) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
