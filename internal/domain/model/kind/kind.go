package kind

import (
	"strings"

	"github.com/kailas-cloud/modelserve/internal/domain"
)

// Kind is the closed set of supported model families.
type Kind string

// Model kind constants.
const (
	Logistic Kind = "logistic"
	Tree     Kind = "tree"
	Forest   Kind = "forest"
)

// aliases accepts the model_architecture names used by the exporting side.
var aliases = map[string]Kind{
	"logistic":               Logistic,
	"logistic_regression":    Logistic,
	"logisticregression":     Logistic,
	"tree":                   Tree,
	"decisiontree":           Tree,
	"decision_tree":          Tree,
	"decisiontreeclassifier": Tree,
	"forest":                 Forest,
	"randomforest":           Forest,
	"random_forest":          Forest,
	"randomforestclassifier": Forest,
}

// IsValid checks if the kind is one of the supported values.
func (k Kind) IsValid() bool {
	return k == Logistic || k == Tree || k == Forest
}

func (k Kind) String() string { return string(k) }

// Parse resolves a kind name or alias. An empty string yields ("", nil),
// meaning the caller wants the kind detected from the artifact.
func Parse(s string) (Kind, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}
	if k, ok := aliases[strings.ToLower(s)]; ok {
		return k, nil
	}
	return "", domain.NewUnsupportedModelKind(s)
}
