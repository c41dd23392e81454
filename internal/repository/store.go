package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Querier is the subset of pgx satisfied by both *pgxpool.Pool and
// pgx.Tx, so every repository works inside and outside a transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store bundles all repositories behind one acquisition point. InTx
// hands the callback a store bound to a single transaction; any error
// rolls the whole transaction back.
type Store interface {
	InTx(ctx context.Context, fn func(Store) error) error
	Materials() MaterialRepository
	WorkCenters() WorkCenterRepository
	Stocks() StockRepository
	BOMs() BOMRepository
	Routings() RoutingRepository
	Orders() OrderRepository
	Confirmations() ConfirmationRepository
	Movements() MovementRepository
	Planning() PlanningRepository
	History() ChangeHistoryRepository
}

// PgStore implements Store on PostgreSQL.
type PgStore struct {
	pool *pgxpool.Pool
	db   Querier
}

// NewPgStore creates a store bound to the connection pool.
func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool, db: pool}
}

// InTx runs fn inside a single transaction. Inside an already-open
// transaction a nested call becomes a savepoint, so a failed best-effort
// step can be discarded without poisoning the outer transaction.
func (s *PgStore) InTx(ctx context.Context, fn func(Store) error) error {
	if s.pool != nil {
		return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
			return fn(&PgStore{db: tx})
		})
	}
	if tx, ok := s.db.(pgx.Tx); ok {
		return pgx.BeginFunc(ctx, tx, func(nested pgx.Tx) error {
			return fn(&PgStore{db: nested})
		})
	}
	return fn(s)
}

func (s *PgStore) Materials() MaterialRepository {
	return &materialRepository{db: s.db}
}

func (s *PgStore) WorkCenters() WorkCenterRepository {
	return &workCenterRepository{db: s.db}
}

func (s *PgStore) Stocks() StockRepository {
	return &stockRepository{db: s.db}
}

func (s *PgStore) BOMs() BOMRepository {
	return &bomRepository{db: s.db}
}

func (s *PgStore) Routings() RoutingRepository {
	return &routingRepository{db: s.db}
}

func (s *PgStore) Orders() OrderRepository {
	return &orderRepository{db: s.db}
}

func (s *PgStore) Confirmations() ConfirmationRepository {
	return &confirmationRepository{db: s.db}
}

func (s *PgStore) Movements() MovementRepository {
	return &movementRepository{db: s.db}
}

func (s *PgStore) Planning() PlanningRepository {
	return &planningRepository{db: s.db}
}

func (s *PgStore) History() ChangeHistoryRepository {
	return &changeHistoryRepository{db: s.db}
}
