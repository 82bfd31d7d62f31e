// Package bookwise provides an embeddable Go client for the bookwise
// semantic book recommender: the same retrieval pipeline the HTTP server
// runs, wired directly against Redis without a server in between.
//
//	client, _ := bookwise.New(ctx,
//	    bookwise.WithRedis("localhost:6379", ""),
//	    bookwise.WithOpenAI(apiKey, "text-embedding-3-small", 1536),
//	    bookwise.WithCatalogFile("books_with_emotions.csv"),
//	)
//	defer client.Close()
//
//	_ = client.Ingest(ctx)
//	recs, _ := client.Recommend(ctx, "a story about forgiveness",
//	    bookwise.InCategory("Fiction"),
//	    bookwise.WithTone("Happy"),
//	)
package bookwise
