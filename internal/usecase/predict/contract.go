package predict

import (
	"context"

	"github.com/kailas-cloud/modelserve/internal/domain/model"
)

// ModelGetter resolves a registered model by name.
type ModelGetter interface {
	Get(ctx context.Context, name string) (*model.Model, error)
}
