package artifact

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"slices"
	"time"

	"github.com/kailas-cloud/modelserve/internal/domain"
	"github.com/kailas-cloud/modelserve/internal/domain/forest"
	"github.com/kailas-cloud/modelserve/internal/domain/model/kind"
)

var nameRegex = regexp.MustCompile(`^[a-zA-Z0-9_.-]+$`)

// MaxNameLength bounds model names.
const MaxNameLength = 64

// Artifact is a stored model export plus the metadata needed to reload it
// (immutable value object).
type Artifact struct {
	name         string
	kind         kind.Kind
	featureNames []string
	vote         forest.Vote
	data         []byte
	checksum     string
	createdAt    int64
}

// ValidateName checks a model name: ^[a-zA-Z0-9_.-]+$, 1-64 chars.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: name is required", domain.ErrInvalidName)
	}
	if len(name) > MaxNameLength {
		return fmt.Errorf("%w: name too long (max %d)", domain.ErrInvalidName, MaxNameLength)
	}
	if !nameRegex.MatchString(name) || name == "." || name == ".." {
		return fmt.Errorf("%w: name must be alphanumeric with dots, underscores and hyphens", domain.ErrInvalidName)
	}
	return nil
}

// New validates and creates an Artifact. The kind must already be resolved.
func New(name string, k kind.Kind, data []byte, featureNames []string, vote forest.Vote) (Artifact, error) {
	if err := ValidateName(name); err != nil {
		return Artifact{}, err
	}
	if !k.IsValid() {
		return Artifact{}, domain.NewUnsupportedModelKind(string(k))
	}
	if len(data) == 0 {
		return Artifact{}, domain.NewSchemaError("$", "artifact is empty")
	}
	if k != kind.Forest {
		vote = ""
	}
	return Artifact{
		name:         name,
		kind:         k,
		featureNames: slices.Clone(featureNames),
		vote:         vote,
		data:         slices.Clone(data),
		checksum:     Checksum(data),
		createdAt:    time.Now().UnixMilli(),
	}, nil
}

// Reconstruct creates an Artifact without validation (storage hydration).
func Reconstruct(
	name string, k kind.Kind, data []byte, featureNames []string,
	vote forest.Vote, checksum string, createdAt int64,
) Artifact {
	if checksum == "" {
		checksum = Checksum(data)
	}
	return Artifact{
		name:         name,
		kind:         k,
		featureNames: featureNames,
		vote:         vote,
		data:         data,
		checksum:     checksum,
		createdAt:    createdAt,
	}
}

// Checksum returns the hex SHA-256 of the artifact bytes.
func Checksum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// Name returns the model name.
func (a Artifact) Name() string { return a.name }

// Kind returns the resolved model kind.
func (a Artifact) Kind() kind.Kind { return a.kind }

// FeatureNames returns the declared feature names, if any.
func (a Artifact) FeatureNames() []string { return a.featureNames }

// Vote returns the forest vote policy; empty for other kinds.
func (a Artifact) Vote() forest.Vote { return a.vote }

// Data returns the raw artifact JSON.
func (a Artifact) Data() []byte { return a.data }

// Checksum returns the hex SHA-256 of Data.
func (a Artifact) Checksum() string { return a.checksum }

// CreatedAt returns the registration timestamp (unix millis).
func (a Artifact) CreatedAt() int64 { return a.createdAt }
