package db

import "context"

type Client interface {
	Close() error
	PutSuspension(ctx context.Context, suspension *Suspension) error
	GetSuspension(ctx context.Context, userID string) (*Suspension, error)
	DeleteSuspension(ctx context.Context, userID string) (bool, error)
	DeleteAllSuspensions(ctx context.Context) (int64, error)
	FindSuspendedUserID(ctx context.Context, name string) (string, error)
	ListSuspensions(ctx context.Context) ([]*Suspension, error)
}
