package sdk

import (
	gen "github.com/kailas-cloud/modelserve/internal/transport/generated"
)

func modelFromGen(d gen.ModelDescription) Model {
	m := Model{
		Name:         d.Name,
		Kind:         Kind(d.Kind),
		FeatureNames: d.FeatureNames,
		Classes:      d.Classes,
		Checksum:     d.Checksum,
		CreatedAt:    d.CreatedAt,
		Bias:         d.Bias,
	}
	if d.Weights != nil {
		m.Weights = *d.Weights
	}
	if d.Depth != nil {
		m.Depth = *d.Depth
	}
	if d.Leaves != nil {
		m.Leaves = *d.Leaves
	}
	if d.Trees != nil {
		m.Trees = *d.Trees
	}
	if d.Vote != nil {
		m.Vote = Vote(*d.Vote)
	}
	return m
}

func predictionFromGen(r gen.PredictResponse) Prediction {
	return Prediction{
		ID:       r.Id.String(),
		Model:    r.Model,
		Label:    r.Label,
		Scores:   r.Scores,
		Decision: r.Decision,
	}
}

func batchFromGen(r gen.BatchPredictResponse) BatchResult {
	out := BatchResult{
		ID:        r.Id.String(),
		Model:     r.Model,
		Succeeded: r.Succeeded,
		Failed:    r.Failed,
		Items:     make([]BatchItem, len(r.Items)),
	}
	for i, it := range r.Items {
		item := BatchItem{Index: it.Index, Decision: it.Decision}
		if it.Status != gen.BatchPredictItemStatusOk {
			apiErr := &APIError{Code: string(gen.ErrorResponseCodeBadRequest)}
			if it.Error != nil {
				apiErr.Code = string(it.Error.Code)
				apiErr.Message = it.Error.Message
			}
			item.Err = apiErr
		}
		if it.Label != nil {
			item.Label = *it.Label
		}
		if it.Scores != nil {
			item.Scores = *it.Scores
		}
		out.Items[i] = item
	}
	return out
}

func healthFromGen(r gen.HealthResponse) HealthStatus {
	checks := make(map[string]string, len(r.Checks))
	for k, v := range r.Checks {
		checks[k] = string(v)
	}
	return HealthStatus{Status: string(r.Status), Checks: checks}
}
