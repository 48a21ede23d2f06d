// Package embedding provides the text-to-vector inference boundary.
//
// The package hides all provider details (inference endpoints, HTTP, SDKs)
// behind the [Provider] interface and exposes a single [Client] facade.
// Embedding inference itself is treated as an opaque function: this package
// ships the input texts out and hands the resulting vectors back, nothing
// more.
//
// Two providers are included:
//
//   - [InferenceProvider]: talks to any OpenAI-compatible /embeddings
//     endpoint over plain HTTP with bearer-token auth.
//   - [OpenAIProvider]: wraps the official OpenAI API via go-openai.
//
// # Direct usage
//
//	cfg := embedding.NewConfig()
//	client, err := embedding.NewClient(cfg)
//	if err != nil { ... }
//	vectors, err := client.Embed(ctx, "text-embedding-3-small", "hello", "world")
//
// # Fx usage
//
//	app := fx.New(
//	    embedding.FXModule,
//	    // other modules...
//	)
package embedding
