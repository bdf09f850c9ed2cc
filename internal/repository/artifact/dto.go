package artifact

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/kailas-cloud/modelserve/internal/domain/artifact"
	"github.com/kailas-cloud/modelserve/internal/domain/forest"
	"github.com/kailas-cloud/modelserve/internal/domain/model/kind"
)

// artifactToHash converts a domain Artifact to a map for HSET.
// Every field is always written so an overwrite leaves nothing stale.
func artifactToHash(a artifact.Artifact) (map[string]string, error) {
	names := a.FeatureNames()
	if names == nil {
		names = []string{}
	}
	namesJSON, err := json.Marshal(names)
	if err != nil {
		return nil, fmt.Errorf("marshal feature names: %w", err)
	}
	return map[string]string{
		"name":               a.Name(),
		"kind":               string(a.Kind()),
		"feature_names_json": string(namesJSON),
		"vote":               string(a.Vote()),
		"checksum":           a.Checksum(),
		"created_at":         strconv.FormatInt(a.CreatedAt(), 10),
		"data":               string(a.Data()),
	}, nil
}

// artifactFromHash hydrates a domain Artifact from an HGETALL result map.
func artifactFromHash(m map[string]string) (artifact.Artifact, error) {
	name := m["name"]
	if name == "" {
		return artifact.Artifact{}, fmt.Errorf("missing name")
	}

	createdAt, err := strconv.ParseInt(m["created_at"], 10, 64)
	if err != nil {
		return artifact.Artifact{}, fmt.Errorf("invalid created_at: %w", err)
	}

	var names []string
	if s := m["feature_names_json"]; s != "" {
		if err := json.Unmarshal([]byte(s), &names); err != nil {
			return artifact.Artifact{}, fmt.Errorf("unmarshal feature names: %w", err)
		}
	}
	if len(names) == 0 {
		names = nil
	}

	k := kind.Kind(m["kind"])
	if !k.IsValid() {
		return artifact.Artifact{}, fmt.Errorf("invalid kind %q", m["kind"])
	}

	return artifact.Reconstruct(
		name, k, []byte(m["data"]), names,
		forest.Vote(m["vote"]), m["checksum"], createdAt,
	), nil
}
