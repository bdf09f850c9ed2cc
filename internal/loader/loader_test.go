package loader

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/kailas-cloud/modelserve/internal/domain"
	"github.com/kailas-cloud/modelserve/internal/domain/features"
	"github.com/kailas-cloud/modelserve/internal/domain/forest"
	"github.com/kailas-cloud/modelserve/internal/domain/model/kind"
)

const (
	logisticJSON = `{"weight":[0.5,-0.25],"bias":[0.1]}`
	ageTreeJSON  = `{"feature":"Age","threshold":30.0,
		"left":{"value":[[10.0,0.0]]},
		"right":{"value":[[0.0,10.0]]}}`
	forestJSON = `[
		{"feature":"x","threshold":1.0,"left":{"value":[[3,1]]},"right":{"value":[[0,4]]}},
		{"feature":"x","threshold":2.0,"left":{"value":[[2,2]]},"right":{"value":[[1,3]]}},
		{"feature":"x","threshold":0.5,"left":{"value":[[4,0]]},"right":{"value":[[0,4]]}}
	]`
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-4
}

func TestLoad_Logistic(t *testing.T) {
	m, err := Load([]byte(logisticJSON))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if m.Kind() != kind.Logistic {
		t.Fatalf("expected logistic, got %s", m.Kind())
	}
	if got := m.Schema().Names(); len(got) != 2 || got[0] != "f1" || got[1] != "f2" {
		t.Errorf("unexpected default names: %v", got)
	}

	p, err := m.Predict(features.NamedFloats(map[string]float64{"f1": 2.0, "f2": 1.0}))
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if p.Label() != 1 {
		t.Errorf("expected label 1, got %d", p.Label())
	}
	if !almostEqual(p.Scores()[1], 0.6900) {
		t.Errorf("expected p≈0.6900, got %f", p.Scores()[1])
	}
	z, ok := p.Decision()
	if !ok || !almostEqual(z, 0.8) {
		t.Errorf("expected decision 0.8, got %f (%v)", z, ok)
	}
}

func TestLoad_LogisticScalarBias(t *testing.T) {
	m, err := Load([]byte(`{"weight":[1.0],"bias":-0.5}`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	lm, ok := m.Logistic()
	if !ok || lm.Bias() != -0.5 {
		t.Errorf("expected bias -0.5, got %v", lm.Bias())
	}
}

func TestLoad_LogisticNamed(t *testing.T) {
	m, err := Load([]byte(logisticJSON), WithFeatureNames([]string{"Age", "Fare"}))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, err := m.Predict(features.NamedFloats(map[string]float64{"Age": 1, "Fare": 1})); err != nil {
		t.Fatalf("Predict: %v", err)
	}

	_, err = Load([]byte(logisticJSON), WithFeatureNames([]string{"Age"}))
	if !errors.Is(err, domain.ErrSchema) {
		t.Errorf("expected schema error for name count mismatch, got %v", err)
	}
}

func TestLoad_Tree(t *testing.T) {
	m, err := Load([]byte(ageTreeJSON))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if m.Kind() != kind.Tree {
		t.Fatalf("expected tree, got %s", m.Kind())
	}

	tests := []struct {
		age   float64
		label int
	}{
		{25, 0},
		{30, 0},
		{45, 1},
	}
	for _, tt := range tests {
		p, err := m.Predict(features.NamedFloats(map[string]float64{"Age": tt.age}))
		if err != nil {
			t.Fatalf("Predict(%v): %v", tt.age, err)
		}
		if p.Label() != tt.label {
			t.Errorf("Age=%v: expected %d, got %d", tt.age, tt.label, p.Label())
		}
	}

	_, err = m.Predict(features.NamedFloats(map[string]float64{"Fare": 7.25}))
	var mf *domain.MissingFeatureError
	if !errors.As(err, &mf) || mf.Feature != "Age" {
		t.Errorf("expected missing feature Age, got %v", err)
	}
}

func TestLoad_TreeFlatLeaf(t *testing.T) {
	m, err := Load([]byte(`{"value":[1,3]}`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	p, err := m.Predict(features.NamedFloats(nil))
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if p.Label() != 1 || p.Scores()[1] != 0.75 {
		t.Errorf("unexpected prediction: %d %v", p.Label(), p.Scores())
	}
}

func TestLoad_Forest(t *testing.T) {
	m, err := Load([]byte(forestJSON), WithVote(forest.Hard))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if m.Kind() != kind.Forest {
		t.Fatalf("expected forest, got %s", m.Kind())
	}
	p, err := m.Predict(features.NamedFloats(map[string]float64{"x": 1.5}))
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	// votes: 1, 0 (tie resolves low), 1
	if p.Label() != 1 {
		t.Errorf("expected label 1, got %d", p.Label())
	}
	if !almostEqual(p.Scores()[1], 2.0/3.0) {
		t.Errorf("expected 2/3 vote share, got %v", p.Scores())
	}
}

func TestLoad_ForestSoftDefault(t *testing.T) {
	m, err := Load([]byte(forestJSON))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	f, _ := m.Forest()
	if f.Vote() != forest.Soft {
		t.Errorf("expected soft vote, got %s", f.Vote())
	}
	p, err := m.Predict(features.NamedFloats(map[string]float64{"x": 1.5}))
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	// (1 + 0.5 + 1) / 3
	if !almostEqual(p.Scores()[1], 2.5/3.0) {
		t.Errorf("unexpected soft scores: %v", p.Scores())
	}
}

func TestLoad_Envelope(t *testing.T) {
	data := `{"kind":"random_forest","feature_names":["x","unused"],"vote":"hard","model":` + forestJSON + `}`
	m, err := Load([]byte(data))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if m.Kind() != kind.Forest {
		t.Fatalf("expected forest, got %s", m.Kind())
	}
	if got := m.Schema().Names(); len(got) != 2 || got[1] != "unused" {
		t.Errorf("expected declared names, got %v", got)
	}
	f, _ := m.Forest()
	if f.Vote() != forest.Hard {
		t.Errorf("expected hard vote from envelope, got %s", f.Vote())
	}

	p, err := m.Predict(features.Dense([]float64{1.5, 0}))
	if err != nil {
		t.Fatalf("Predict dense: %v", err)
	}
	if p.Label() != 1 {
		t.Errorf("expected label 1, got %d", p.Label())
	}
}

func TestLoad_EnvelopeKindConflict(t *testing.T) {
	data := `{"kind":"tree","model":` + ageTreeJSON + `}`
	_, err := Load([]byte(data), WithKind(kind.Logistic))
	if !errors.Is(err, domain.ErrSchema) {
		t.Errorf("expected schema error, got %v", err)
	}
}

func TestLoad_UnsupportedKind(t *testing.T) {
	_, err := Load([]byte(`{"kind":"svm","model":{"weight":[1],"bias":[0]}}`))
	var uk *domain.UnsupportedModelKindError
	if !errors.As(err, &uk) || uk.Kind != "svm" {
		t.Errorf("expected unsupported kind svm, got %v", err)
	}

	_, err = Load([]byte(logisticJSON), WithKind(kind.Kind("svm")))
	if !errors.Is(err, domain.ErrUnsupportedModelKind) {
		t.Errorf("expected unsupported kind, got %v", err)
	}
}

func TestLoad_DeclaredKindShapeMismatch(t *testing.T) {
	_, err := Load([]byte(ageTreeJSON), WithKind(kind.Forest))
	if !errors.Is(err, domain.ErrSchema) {
		t.Errorf("expected schema error for object declared as forest, got %v", err)
	}
	_, err = Load([]byte(forestJSON), WithKind(kind.Logistic))
	if !errors.Is(err, domain.ErrSchema) {
		t.Errorf("expected schema error for array declared as logistic, got %v", err)
	}
}

func TestLoad_Rejections(t *testing.T) {
	tests := []struct {
		name string
		data string
		kind kind.Kind
		path string
	}{
		{"empty", ``, "", "$"},
		{"invalid json", `{"weight":`, "", "$"},
		{"scalar", `42`, "", "$"},
		{"unknown keys", `{"coef":[1]}`, "", "$"},
		{"missing weight", `{"bias":[0]}`, kind.Logistic, "$.weight"},
		{"missing bias", `{"weight":[1]}`, "", "$.bias"},
		{"empty weight", `{"weight":[],"bias":[0]}`, "", "$.weight"},
		{"string weight", `{"weight":[1,"2"],"bias":[0]}`, "", "$.weight[1]"},
		{"null weight", `{"weight":[null],"bias":[0]}`, "", "$.weight[0]"},
		{"two biases", `{"weight":[1],"bias":[0,1]}`, "", "$.bias"},
		{"string bias", `{"weight":[1],"bias":"0"}`, "", "$.bias"},
		{"huge weight", `{"weight":[1e400],"bias":[0]}`, "", "$.weight[0]"},
		{"split without left", `{"feature":"a","threshold":1,"right":{"value":[[1]]}}`, "", "$"},
		{"leaf and split", `{"feature":"a","threshold":1,"left":{"value":[[1]]},"right":{"value":[[1]]},"value":[[1]]}`, "", "$"},
		{"empty node", `{"feature":"a","threshold":1,"left":{},"right":{"value":[[1]]}}`, "", "$.left"},
		{"string threshold", `{"feature":"a","threshold":"1","left":{"value":[[1]]},"right":{"value":[[1]]}}`, "", "$.threshold"},
		{"numeric feature", `{"feature":3,"threshold":1,"left":{"value":[[1]]},"right":{"value":[[1]]}}`, "", "$.feature"},
		{"empty feature", `{"feature":"","threshold":1,"left":{"value":[[1]]},"right":{"value":[[1]]}}`, "", "$"},
		{"empty value", `{"value":[]}`, "", "$.value"},
		{"empty row", `{"value":[[]]}`, "", "$.value"},
		{"multi-row value", `{"value":[[1,2],[3,4]]}`, "", "$.value"},
		{"non-numeric value", `{"value":[["a"]]}`, "", "$.value[0][0]"},
		{"negative count", `{"value":[[-1,2]]}`, "", "$.value"},
		{"value not array", `{"value":3}`, "", "$.value"},
		{"class mismatch", `{"feature":"a","threshold":1,"left":{"value":[[1,2]]},"right":{"value":[[1,2,3]]}}`, "", "$"},
		{"empty forest", `[]`, "", "$"},
		{"bad forest member", `[{"value":[[1]]},{"feature":"a"}]`, "", "$[1]"},
		{"forest class mismatch", `[{"value":[[1,2]]},{"value":[[1,2,3]]}]`, "", "$"},
		{"nested error path", `{"feature":"a","threshold":1,"left":{"value":[[1]]},"right":{"feature":"b","threshold":2,"left":{"value":[[1]]},"right":{"value":"x"}}}`, "", "$.right.right.value"},
		{"envelope without model", `{"kind":"tree","model":null}`, "", "$.model"},
		{"bad envelope vote", `{"kind":"forest","vote":"mean","model":[{"value":[[1]]}]}`, "", "$.vote"},
		{"duplicate feature names", `{"kind":"logistic","feature_names":["a","a"],"model":{"weight":[1,2],"bias":[0]}}`, "", "$.feature_names"},
		{"names miss split feature", `{"kind":"tree","feature_names":["b"],"model":{"feature":"a","threshold":1,"left":{"value":[[1]]},"right":{"value":[[1]]}}}`, "", "$.feature_names"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var opts []Option
			if tt.kind != "" {
				opts = append(opts, WithKind(tt.kind))
			}
			m, err := Load([]byte(tt.data), opts...)
			if m != nil {
				t.Errorf("expected no model, got %s", m.Kind())
			}
			var se *domain.SchemaError
			if !errors.As(err, &se) {
				t.Fatalf("expected SchemaError, got %v", err)
			}
			if se.Path != tt.path {
				t.Errorf("expected path %q, got %q (%s)", tt.path, se.Path, se.Reason)
			}
		})
	}
}

func TestLoad_DepthLimit(t *testing.T) {
	deep := strings.Repeat(`{"feature":"a","threshold":1,"left":{"value":[[1]]},"right":`, MaxDepth+1) +
		`{"value":[[1]]}` + strings.Repeat(`}`, MaxDepth+1)
	_, err := Load([]byte(deep))
	if !errors.Is(err, domain.ErrSchema) {
		t.Fatalf("expected schema error, got %v", err)
	}

	ok := strings.Repeat(`{"feature":"a","threshold":1,"left":{"value":[[1]]},"right":`, 50) +
		`{"value":[[1]]}` + strings.Repeat(`}`, 50)
	m, err := Load([]byte(ok))
	if err != nil {
		t.Fatalf("Load depth 50: %v", err)
	}
	tr, _ := m.Tree()
	if tr.Depth() != 50 {
		t.Errorf("expected depth 50, got %d", tr.Depth())
	}
}

func TestLoad_Idempotent(t *testing.T) {
	for _, data := range []string{logisticJSON, ageTreeJSON, forestJSON} {
		a, err := Load([]byte(data))
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		b, err := Load([]byte(data))
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		in := features.Dense(make([]float64, a.Schema().Len()))
		pa, err := a.Predict(in)
		if err != nil {
			t.Fatalf("Predict: %v", err)
		}
		pb, err := b.Predict(in)
		if err != nil {
			t.Fatalf("Predict: %v", err)
		}
		if pa.Label() != pb.Label() {
			t.Errorf("labels differ across loads: %d vs %d", pa.Label(), pb.Label())
		}
		for i := range pa.Scores() {
			if pa.Scores()[i] != pb.Scores()[i] {
				t.Errorf("scores differ across loads: %v vs %v", pa.Scores(), pb.Scores())
			}
		}
	}
}

func TestLoadReader(t *testing.T) {
	m, err := LoadReader(strings.NewReader(ageTreeJSON), WithKind(kind.Tree))
	if err != nil {
		t.Fatalf("LoadReader: %v", err)
	}
	if m.Kind() != kind.Tree {
		t.Errorf("expected tree, got %s", m.Kind())
	}
}
