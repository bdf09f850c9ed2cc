package registry

import (
	"context"

	domart "github.com/kailas-cloud/modelserve/internal/domain/artifact"
)

// Repository defines the storage contract for model artifacts.
type Repository interface {
	Save(ctx context.Context, a domart.Artifact) error
	Get(ctx context.Context, name string) (domart.Artifact, error)
	List(ctx context.Context) ([]domart.Artifact, error)
	Delete(ctx context.Context, name string) error
}
