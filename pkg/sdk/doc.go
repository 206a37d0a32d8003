// Package scout embeds the travel experience search pipeline in a Go program.
//
// The client ranks a fixed catalog against a free-text query with a language
// model, drops anything the model invented, and filters by price:
//
//	client, _ := scout.New(ctx,
//	    scout.WithOpenAI(os.Getenv("OPENAI_API_KEY"), "gpt-4o-mini"),
//	    scout.WithRateLimit(10, time.Minute),
//	)
//	res, err := client.Search(ctx, "surfing and beaches",
//	    scout.MaxPrice(100),
//	    scout.PreferTags("beach"),
//	)
//	for _, m := range res.Matches {
//	    fmt.Println(m.Experience.Title, m.Score, m.Reason)
//	}
//
// A model that answers with garbage, times out or errors yields an empty
// result with a message, never an error.
package scout
