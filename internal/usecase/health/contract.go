package health

import (
	"context"

	"github.com/kailas-cloud/modelserve/internal/domain/model"
)

// DBPinger checks database availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// ModelGetter resolves a registered model.
type ModelGetter interface {
	Get(ctx context.Context, name string) (*model.Model, error)
}
