package modelserve

import (
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"slices"
	"testing"
)

type dataset struct {
	XTest []map[string]any `json:"x_test"`
	YTest []int            `json:"y_test"`
}

func loadDataset(t *testing.T) dataset {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", "titanic", "dataset.json"))
	if err != nil {
		t.Fatal(err)
	}
	var ds dataset
	if err := json.Unmarshal(data, &ds); err != nil {
		t.Fatal(err)
	}
	return ds
}

func TestLoadFile_Titanic(t *testing.T) {
	ds := loadDataset(t)

	tests := []struct {
		file string
		kind Kind
	}{
		{"logistic.json", Logistic},
		{"tree.json", Tree},
		{"forest.json", Forest},
	}
	for _, tc := range tests {
		t.Run(tc.file, func(t *testing.T) {
			m, err := LoadFile(filepath.Join("testdata", "titanic", tc.file))
			if err != nil {
				t.Fatalf("LoadFile: %v", err)
			}
			if m.Kind() != tc.kind {
				t.Errorf("Kind() = %q, want %q", m.Kind(), tc.kind)
			}
			if m.Classes() != 2 {
				t.Errorf("Classes() = %d, want 2", m.Classes())
			}
			for i, row := range ds.XTest {
				p, err := m.Predict(row)
				if err != nil {
					t.Fatalf("row %d: %v", i, err)
				}
				if p.Label != ds.YTest[i] {
					t.Errorf("row %d: label = %d, want %d", i, p.Label, ds.YTest[i])
				}
				if len(p.Scores) != 2 {
					t.Errorf("row %d: scores = %v", i, p.Scores)
				}
			}
		})
	}
}

func TestLoadFile_Missing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestModel_LogisticDecision(t *testing.T) {
	m, err := LoadFile(filepath.Join("testdata", "titanic", "logistic.json"))
	if err != nil {
		t.Fatal(err)
	}
	p, err := m.PredictDense([]float64{3, 22, 7.25, 1})
	if err != nil {
		t.Fatal(err)
	}
	if p.Decision == nil {
		t.Fatal("expected decision value for logistic model")
	}
	if math.Abs(*p.Decision-(-2.231)) > 1e-9 {
		t.Errorf("decision = %v, want -2.231", *p.Decision)
	}
	if p.Label != 0 {
		t.Errorf("label = %d, want 0", p.Label)
	}
	if math.Abs(p.Scores[0]+p.Scores[1]-1) > 1e-12 {
		t.Errorf("scores do not sum to 1: %v", p.Scores)
	}
}

func TestModel_TreeFeatureOrder(t *testing.T) {
	m, err := LoadFile(filepath.Join("testdata", "titanic", "tree.json"))
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"Age", "Fare", "Pclass", "Sex_male"}
	if got := m.FeatureNames(); !slices.Equal(got, want) {
		t.Fatalf("FeatureNames() = %v, want %v", got, want)
	}

	p, err := m.PredictDense([]float64{38, 71.2833, 1, 0})
	if err != nil {
		t.Fatal(err)
	}
	if p.Label != 1 || p.Decision != nil {
		t.Errorf("prediction = %+v", p)
	}
}

func TestModel_FeatureNamesCopy(t *testing.T) {
	m, err := LoadFile(filepath.Join("testdata", "titanic", "logistic.json"))
	if err != nil {
		t.Fatal(err)
	}
	names := m.FeatureNames()
	names[0] = "mutated"
	if m.FeatureNames()[0] != "Pclass" {
		t.Error("FeatureNames must return a copy")
	}
}

func TestLoad_Options(t *testing.T) {
	artifact := []byte(`{"weight": [1.5, -2.0], "bias": [0.25]}`)

	m, err := Load(artifact)
	if err != nil {
		t.Fatal(err)
	}
	if got := m.FeatureNames(); !slices.Equal(got, []string{"f1", "f2"}) {
		t.Errorf("default names = %v", got)
	}

	m, err = Load(artifact, WithKind(Logistic), WithFeatureNames("income", "debt"))
	if err != nil {
		t.Fatal(err)
	}
	p, err := m.Predict(map[string]any{"income": 1.0, "debt": 0.0})
	if err != nil {
		t.Fatal(err)
	}
	if p.Label != 1 {
		t.Errorf("label = %d, want 1", p.Label)
	}

	if _, err := Load(artifact, WithKind(Tree)); !errors.Is(err, ErrSchema) {
		t.Errorf("declared tree on logistic artifact: got %v, want ErrSchema", err)
	}
}

func TestLoad_HardVote(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("testdata", "titanic", "forest.json"))
	if err != nil {
		t.Fatal(err)
	}
	m, err := Load(data, WithVote(HardVote))
	if err != nil {
		t.Fatal(err)
	}
	// Trees vote 1, 1, 0.
	p, err := m.Predict(map[string]any{"Pclass": 3, "Age": 26.0, "Fare": 7.925, "Sex_male": false})
	if err != nil {
		t.Fatal(err)
	}
	if p.Label != 1 {
		t.Errorf("label = %d, want 1", p.Label)
	}
	if math.Abs(p.Scores[1]-2.0/3.0) > 1e-12 {
		t.Errorf("scores = %v, want vote shares", p.Scores)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name   string
		data   string
		opts   []ModelOption
		target error
	}{
		{"empty", ``, nil, ErrSchema},
		{"not json", `{weight`, nil, ErrSchema},
		{"unknown shape", `{"foo": 1}`, nil, ErrSchema},
		{"unsupported kind", `{"weight": [1], "bias": 0}`, []ModelOption{WithKind("svm")}, ErrUnsupportedModelKind},
		{"envelope kind", `{"kind": "svm", "model": {}}`, nil, ErrUnsupportedModelKind},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load([]byte(tc.data), tc.opts...)
			if !errors.Is(err, tc.target) {
				t.Fatalf("got %v, want %v", err, tc.target)
			}
		})
	}
}

func TestModel_PredictErrors(t *testing.T) {
	m, err := LoadFile(filepath.Join("testdata", "titanic", "tree.json"))
	if err != nil {
		t.Fatal(err)
	}

	_, err = m.Predict(map[string]any{"Age": 30.0, "Fare": 10.0, "Pclass": 2})
	var missing *MissingFeatureError
	if !errors.As(err, &missing) || missing.Feature != "Sex_male" {
		t.Errorf("missing feature: got %v", err)
	}

	_, err = m.Predict(map[string]any{"Age": "old", "Fare": 10.0, "Pclass": 2, "Sex_male": 1})
	var invalid *InvalidFeatureValueError
	if !errors.As(err, &invalid) || invalid.Feature != "Age" {
		t.Errorf("invalid value: got %v", err)
	}

	if _, err := m.PredictDense([]float64{1, 2}); err == nil {
		t.Error("expected error for short dense vector")
	}
}

func TestParseKindAndVote(t *testing.T) {
	k, err := ParseKind("randomforest")
	if err != nil || k != Forest {
		t.Errorf("ParseKind(randomforest) = %q, %v", k, err)
	}
	if _, err := ParseKind("svm"); !errors.Is(err, ErrUnsupportedModelKind) {
		t.Errorf("ParseKind(svm) error = %v", err)
	}
	v, err := ParseVote("")
	if err != nil || v != SoftVote {
		t.Errorf("ParseVote(\"\") = %q, %v", v, err)
	}
	if _, err := ParseVote("weighted"); err == nil {
		t.Error("expected error for unknown vote")
	}
}

func TestModel_PredictValues(t *testing.T) {
	m, err := LoadFile(filepath.Join("testdata", "titanic", "logistic.json"))
	if err != nil {
		t.Fatal(err)
	}
	p, err := m.PredictValues([]any{1, json.Number("38"), 71.2833, false})
	if err != nil {
		t.Fatal(err)
	}
	if p.Label != 1 {
		t.Errorf("label = %d, want 1", p.Label)
	}

	_, err = m.PredictValues([]any{1, 38.0, 71.2833, false, 9})
	if !errors.Is(err, ErrInvalidFeatureValue) {
		t.Errorf("extra value: got %v, want ErrInvalidFeatureValue", err)
	}
	_, err = m.PredictValues([]any{1, 38.0, "cheap", false})
	var invalid *InvalidFeatureValueError
	if !errors.As(err, &invalid) || invalid.Feature != "Fare" {
		t.Errorf("invalid value: got %v", err)
	}
}
