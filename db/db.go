// Package db persists itinerary records.
package db

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"tripsheet/config"
	"tripsheet/models"
)

// ErrNotFound is returned when no record has the requested id.
var ErrNotFound = errors.New("itinerary not found")

// Repository is the storage boundary for itinerary records.
type Repository interface {
	// Create stores a new record and returns the store-assigned id.
	Create(ctx context.Context, rec models.ItineraryRecord) (string, error)
	// ListAll returns every record, newest first.
	ListAll(ctx context.Context) ([]models.ItineraryRecord, error)
	GetByID(ctx context.Context, id string) (models.ItineraryRecord, error)
	// Update replaces name, details, days and total cost of an existing record.
	Update(ctx context.Context, id string, rec models.ItineraryRecord) error
	DeleteByID(ctx context.Context, id string) error
	Close(ctx context.Context) error
}

// StorageError wraps any backend failure other than a missing record.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func storageErr(op string, err error, msg string) error {
	return &StorageError{Op: op, Err: errors.Wrap(err, msg)}
}

// Open connects the backend named by cfg.Backend.
func Open(ctx context.Context, cfg config.StoreConfig, log *logrus.Entry) (Repository, error) {
	log = log.WithField("backend", cfg.Backend)
	switch cfg.Backend {
	case "mongo":
		repo, err := NewMongoRepository(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.Collection, cfg.Timeout)
		if err != nil {
			return nil, err
		}
		log.Infof("connected to mongo database %s", cfg.MongoDatabase)
		return repo, nil
	case "sqlite":
		repo, err := NewSQLRepository(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		log.Infof("opened sqlite store at %s", cfg.SQLitePath)
		return repo, nil
	case "memory":
		log.Warn("using in-memory store; records are lost on exit")
		return NewMemoryRepository(), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}
