package secretkeys

import "context"

type Repository interface {
	Exists(ctx context.Context, key string) (bool, error)
	Create(ctx context.Context, key string) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) ([]string, error)
}
