package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound          = errors.New("resource not found")
	QueryTimeoutDuration = time.Second * 5
)

type Storage struct {
	Transactions interface {
		Create(context.Context, *Transaction) error
		GetByCheckoutRequestID(context.Context, string) (*Transaction, error)
	}
}

func NewStorage(db *pgxpool.Pool) Storage {
	return Storage{
		Transactions: &TransactionsStore{db},
	}
}
