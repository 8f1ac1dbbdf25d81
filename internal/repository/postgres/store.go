package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mkowalczyk/magazyn/internal/domain"
)

// DB is the querying surface shared by *pgxpool.Pool and pgx.Tx, so every
// repository can run either standalone or inside a transaction.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store bundles all repositories over one connection pool and implements
// domain.UnitOfWork.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) Devices() domain.DeviceRepository             { return NewDeviceRepo(s.pool) }
func (s *Store) Returns() domain.ReturnRepository             { return NewReturnRepo(s.pool) }
func (s *Store) Installations() domain.InstallationRepository { return NewInstallationRepo(s.pool) }
func (s *Store) Activity() domain.ActivityRepository          { return NewActivityRepo(s.pool) }
func (s *Store) Users() domain.UserRepository                 { return NewUserRepo(s.pool) }

// WithinTx runs fn with every repository bound to a single transaction.
// Any error from fn rolls the whole unit of work back.
func (s *Store) WithinTx(ctx context.Context, fn func(tx domain.RepoSet) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(&txRepoSet{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

type txRepoSet struct {
	tx pgx.Tx
}

func (t *txRepoSet) Devices() domain.DeviceRepository             { return NewDeviceRepo(t.tx) }
func (t *txRepoSet) Returns() domain.ReturnRepository             { return NewReturnRepo(t.tx) }
func (t *txRepoSet) Installations() domain.InstallationRepository { return NewInstallationRepo(t.tx) }
func (t *txRepoSet) Activity() domain.ActivityRepository          { return NewActivityRepo(t.tx) }
