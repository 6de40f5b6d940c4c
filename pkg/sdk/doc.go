// Package sdk provides a Go client for the docdex HTTP API.
//
// Docdex answers natural-language queries with documents drawn from a remote
// file-storage listing and a local embedding index, in three modes:
//
//	client, _ := sdk.New("http://localhost:8080", sdk.WithAPIKey("secret"))
//
//	// Remote listing with cursor pagination.
//	page, _ := client.DriveSearch(ctx, "invoices from march", &sdk.DriveOptions{PageSize: 20})
//	more, _ := client.DriveSearch(ctx, "invoices from march", &sdk.DriveOptions{PageToken: page.NextPageToken})
//
//	// Embedding similarity over the local index.
//	res, _ := client.SemanticSearch(ctx, "supplier contracts", 10, nil)
//
//	// Both legs merged, with a generated answer.
//	res, _ = client.HybridSearch(ctx, "what did we pay acme?", &sdk.HybridOptions{WithAnswer: true})
//
// Failures carry the API's error code; match them with errors.Is against the
// exported sentinels (ErrProviderTimeout, ErrIndexUnavailable, ...).
package sdk
