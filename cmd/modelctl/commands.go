package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/modelserve"
	"github.com/kailas-cloud/modelserve/internal/version"
)

// loadFlags are shared by every command that opens an artifact.
type loadFlags struct {
	kind  string
	vote  string
	names []string
}

func (f *loadFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.kind, "kind", "k", "",
		"model kind: logistic, tree (decisiontree) or forest (randomforest); detected when empty")
	cmd.Flags().StringVar(&f.vote, "vote", "", "forest vote policy: soft or hard")
	cmd.Flags().StringSliceVar(&f.names, "names", nil, "feature names in binding order")
}

func (f *loadFlags) options() ([]modelserve.ModelOption, error) {
	var opts []modelserve.ModelOption
	k, err := modelserve.ParseKind(f.kind)
	if err != nil {
		return nil, err
	}
	if k != "" {
		opts = append(opts, modelserve.WithKind(k))
	}
	if f.vote != "" {
		v, err := modelserve.ParseVote(f.vote)
		if err != nil {
			return nil, err
		}
		opts = append(opts, modelserve.WithVote(v))
	}
	if len(f.names) > 0 {
		opts = append(opts, modelserve.WithFeatureNames(f.names...))
	}
	return opts, nil
}

func (f *loadFlags) load(path string) (*modelserve.Model, error) {
	opts, err := f.options()
	if err != nil {
		return nil, err
	}
	return modelserve.LoadFile(path, opts...)
}

type modelInfo struct {
	Kind         modelserve.Kind `json:"kind"`
	FeatureNames []string        `json:"feature_names"`
	Classes      int             `json:"classes"`
}

type predictionOutput struct {
	Label    int       `json:"label"`
	Scores   []float64 `json:"scores"`
	Decision *float64  `json:"decision,omitempty"`
}

func inspectCmd() *cobra.Command {
	var lf loadFlags
	cmd := &cobra.Command{
		Use:   "inspect ARTIFACT",
		Short: "validate an artifact and print its kind, features and class count",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := lf.load(args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd, modelInfo{
				Kind:         m.Kind(),
				FeatureNames: m.FeatureNames(),
				Classes:      m.Classes(),
			})
		},
	}
	lf.register(cmd)
	return cmd
}

func predictCmd() *cobra.Command {
	var lf loadFlags
	var raw string
	cmd := &cobra.Command{
		Use:   "predict ARTIFACT",
		Short: "classify one feature set given as a JSON object or array",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := lf.load(args[0])
			if err != nil {
				return err
			}
			p, err := predictRaw(m, []byte(raw))
			if err != nil {
				return err
			}
			return writeJSON(cmd, predictionOutput{Label: p.Label, Scores: p.Scores, Decision: p.Decision})
		},
	}
	lf.register(cmd)
	cmd.Flags().StringVarP(&raw, "features", "f", "", "features as a JSON object (by name) or array (model order)")
	_ = cmd.MarkFlagRequired("features")
	return cmd
}

// dataset is the offline evaluation file: feature records and optional
// expected labels.
type dataset struct {
	XTest []json.RawMessage `json:"x_test"`
	YTest []int             `json:"y_test"`
}

func runCmd() *cobra.Command {
	var lf loadFlags
	cmd := &cobra.Command{
		Use:   "run ARTIFACT DATASET",
		Short: "classify every record of a dataset and report accuracy",
		Long: "Reads DATASET as {\"x_test\": [...], \"y_test\": [...]} and prints\n" +
			"\"index label [expected]\" per record. Records that fail are reported\n" +
			"and skipped.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := lf.load(args[0])
			if err != nil {
				return err
			}
			ds, err := readDataset(args[1])
			if err != nil {
				return err
			}
			runDataset(cmd, m, ds)
			return nil
		},
	}
	lf.register(cmd)
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "print the build version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}

func readDataset(path string) (dataset, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return dataset{}, fmt.Errorf("read dataset: %w", err)
	}
	var ds dataset
	if err := json.Unmarshal(data, &ds); err != nil {
		return dataset{}, fmt.Errorf("parse dataset: %w", err)
	}
	if len(ds.YTest) > 0 && len(ds.YTest) != len(ds.XTest) {
		return dataset{}, fmt.Errorf("dataset has %d records but %d labels", len(ds.XTest), len(ds.YTest))
	}
	return ds, nil
}

func runDataset(cmd *cobra.Command, m *modelserve.Model, ds dataset) {
	out := cmd.OutOrStdout()
	start := time.Now()
	var ok, correct int
	for i, rec := range ds.XTest {
		p, err := predictRaw(m, rec)
		if err != nil {
			fmt.Fprintf(out, "%d error: %v\n", i, err)
			continue
		}
		ok++
		if len(ds.YTest) == 0 {
			fmt.Fprintf(out, "%d %d\n", i, p.Label)
			continue
		}
		if p.Label == ds.YTest[i] {
			correct++
		}
		fmt.Fprintf(out, "%d %d %d\n", i, p.Label, ds.YTest[i])
	}
	elapsed := time.Since(start)

	fmt.Fprintf(out, "predicted %d/%d records in %s\n", ok, len(ds.XTest), elapsed)
	if len(ds.YTest) > 0 && ok > 0 {
		fmt.Fprintf(out, "accuracy %.4f (%d/%d)\n", float64(correct)/float64(ok), correct, ok)
	}
}

// predictRaw classifies a JSON object (named features) or array (model order).
func predictRaw(m *modelserve.Model, raw []byte) (modelserve.Prediction, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return modelserve.Prediction{}, fmt.Errorf("features are required")
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	switch raw[0] {
	case '{':
		var named map[string]any
		if err := dec.Decode(&named); err != nil {
			return modelserve.Prediction{}, fmt.Errorf("parse features: %w", err)
		}
		return m.Predict(named)
	case '[':
		var values []any
		if err := dec.Decode(&values); err != nil {
			return modelserve.Prediction{}, fmt.Errorf("parse features: %w", err)
		}
		return m.PredictValues(values)
	default:
		return modelserve.Prediction{}, fmt.Errorf("features must be a JSON object or array")
	}
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
