package app

import (
	"context"
	"fmt"

	"github.com/yungbote/pao-report-backend/internal/convert"
	"github.com/yungbote/pao-report-backend/internal/data/db"
	"github.com/yungbote/pao-report-backend/internal/data/repos/records"
	"github.com/yungbote/pao-report-backend/internal/platform/firestoredb"
	"github.com/yungbote/pao-report-backend/internal/platform/gcp"
	"github.com/yungbote/pao-report-backend/internal/platform/logger"
	"github.com/yungbote/pao-report-backend/internal/platform/mongodb"
	"github.com/yungbote/pao-report-backend/internal/platform/redislock"
)

type Clients struct {
	Records   records.RecordStore
	Bucket    gcp.BucketService
	Converter convert.Converter
	Locker    *redislock.Locker

	closers []func() error
}

func (c *Clients) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		_ = c.closers[i]()
	}
	c.closers = nil
}

func wireClients(ctx context.Context, log *logger.Logger, cfg Config) (*Clients, error) {
	log.Info("Wiring clients...")
	c := &Clients{}

	store, err := wireRecordStore(ctx, log, cfg)
	if err != nil {
		return nil, err
	}
	c.Records = store
	c.closers = append(c.closers, store.Close)

	bucket, err := gcp.NewBucketService(log, cfg.Storage, cfg.Bucket)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("init bucket client: %w", err)
	}
	c.Bucket = bucket
	c.closers = append(c.closers, bucket.Close)

	conv, err := convert.New(log, cfg.Converter)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("init converter: %w", err)
	}
	c.Converter = conv

	locker, err := redislock.New(ctx, log, cfg.Lock)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("init generation lock: %w", err)
	}
	if locker != nil {
		c.Locker = locker
		c.closers = append(c.closers, locker.Close)
	}
	return c, nil
}

func wireRecordStore(ctx context.Context, log *logger.Logger, cfg Config) (records.RecordStore, error) {
	switch cfg.RecordStore {
	case StoreMongo:
		client, dbName, err := mongodb.Connect(ctx, log, cfg.MongoURI)
		if err != nil {
			return nil, fmt.Errorf("init mongo: %w", err)
		}
		return records.NewMongoStore(log, client, dbName, cfg.Collections), nil
	case StorePostgres, StoreSQLite:
		svc, err := db.NewService(log, cfg.SQL)
		if err != nil {
			return nil, fmt.Errorf("init %s: %w", cfg.RecordStore, err)
		}
		if err := db.AutoMigrateAll(svc.DB()); err != nil {
			_ = svc.Close()
			return nil, fmt.Errorf("%s automigrate: %w", cfg.RecordStore, err)
		}
		return &sqlRecordStore{RecordStore: records.NewGormStore(log, svc.DB()), svc: svc}, nil
	default:
		client, err := firestoredb.NewClient(ctx, log, cfg.FirestoreProject)
		if err != nil {
			return nil, fmt.Errorf("init firestore: %w", err)
		}
		return records.NewFirestoreStore(log, client, cfg.Collections), nil
	}
}

// sqlRecordStore closes the pool owned by the db service.
type sqlRecordStore struct {
	records.RecordStore
	svc *db.Service
}

func (s *sqlRecordStore) Close() error { return s.svc.Close() }
