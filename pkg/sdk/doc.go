// Package sdk is a Go client for the modelserve HTTP API.
//
//	c, _ := sdk.New("http://localhost:8080", sdk.WithAPIKey(os.Getenv("MODELSERVE_API_KEY")))
//	_, _ = c.RegisterModel(ctx, "titanic", artifact, sdk.RegisterOptions{Kind: sdk.KindForest})
//	p, _ := c.Predict(ctx, "titanic", map[string]any{"Age": 22, "Sex_male": true})
//
// Features may be any JSON-encodable value: an object keyed by feature name
// or an array in the model's feature order.
package sdk
