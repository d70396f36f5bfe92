// Package newsdex provides an embedded Go client for the newsdex news
// entity index backed by Valkey or Redis with search modules.
//
// The client wires the full ingestion and search pipeline in-process:
// text extraction, heuristic entity recognition, TF-IDF relevance
// weighting, entity search and the semantic query cache.
//
//	client, _ := newsdex.New(ctx, newsdex.WithRedis("localhost:6379", ""))
//	defer client.Close()
//
//	doc, _ := client.IngestText(ctx, articleBody, "news://example/1", true)
//	results, _ := client.Search(ctx, "John Matthews Boston", 10)
//
// The query cache needs an embedder:
//
//	client, _ := newsdex.New(ctx,
//	    newsdex.WithRedis("localhost:6379", ""),
//	    newsdex.WithEmbedder(myEmbedder),
//	)
package newsdex
