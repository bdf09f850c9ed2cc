// Package storage selects the artifact store driver from configuration.
package storage

import (
	"fmt"

	"github.com/kailas-cloud/modelserve/internal/config"
	"github.com/kailas-cloud/modelserve/internal/db"
	"github.com/kailas-cloud/modelserve/internal/db/memory"
	dbRedis "github.com/kailas-cloud/modelserve/internal/db/redis"
	"github.com/kailas-cloud/modelserve/internal/db/sqlite"
)

// Open creates the store for cfg.Driver. Valkey and Redis share the rueidis driver.
func Open(cfg config.StorageConfig) (db.Store, error) {
	switch cfg.Driver {
	case config.DriverValkey, config.DriverRedis:
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Addrs,
			Username: cfg.Username,
			Password: cfg.Password,
			DB:       cfg.DB,
		})
		if err != nil {
			return nil, fmt.Errorf("open %s store: %w", cfg.Driver, err)
		}
		return s, nil
	case config.DriverSQLite:
		s, err := sqlite.NewStore(sqlite.Config{Path: cfg.SQLitePath})
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return s, nil
	case config.DriverMemory:
		return memory.NewStore(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
