// Package store opens the user store selected by the DATABASE_URL scheme.
package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/ErlanBelekov/auth-service/internal/health"
	"github.com/ErlanBelekov/auth-service/internal/infrastructure/mongo"
	"github.com/ErlanBelekov/auth-service/internal/infrastructure/postgres"
	"github.com/ErlanBelekov/auth-service/internal/repository"
)

type Backend string

const (
	BackendMongo    Backend = "mongo"
	BackendPostgres Backend = "postgres"
)

type Store struct {
	Backend Backend
	Users   repository.UserRepository
	Pinger  health.Pinger

	close func()
}

func (s *Store) Close() {
	if s.close != nil {
		s.close()
	}
}

// BackendFor maps a connection URL onto a backend.
func BackendFor(databaseURL string) (Backend, error) {
	switch {
	case strings.HasPrefix(databaseURL, "mongodb://"), strings.HasPrefix(databaseURL, "mongodb+srv://"):
		return BackendMongo, nil
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		return BackendPostgres, nil
	default:
		return "", fmt.Errorf("unsupported database url scheme")
	}
}

// Open connects, ensures indexes or schema, and returns a ready store.
// databaseName is only used by the mongo backend.
func Open(ctx context.Context, databaseURL, databaseName string) (*Store, error) {
	backend, err := BackendFor(databaseURL)
	if err != nil {
		return nil, err
	}

	switch backend {
	case BackendMongo:
		client, err := mongo.Connect(ctx, databaseURL, databaseName)
		if err != nil {
			return nil, err
		}
		if err := client.EnsureIndexes(ctx); err != nil {
			client.Close()
			return nil, err
		}
		return &Store{
			Backend: backend,
			Users:   mongo.NewUserRepository(client),
			Pinger:  client,
			close:   client.Close,
		}, nil

	default:
		pool, err := postgres.NewPool(ctx, databaseURL)
		if err != nil {
			return nil, err
		}
		if err := postgres.EnsureSchema(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		return &Store{
			Backend: backend,
			Users:   postgres.NewUserRepository(pool),
			Pinger:  pool,
			close:   pool.Close,
		}, nil
	}
}
