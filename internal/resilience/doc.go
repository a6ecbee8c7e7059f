// Package resilience holds the fault tolerance pieces the engine leans
// on when Postgres or the scoring pipeline misbehaves: a circuit
// breaker around per-user scoring and retry with exponential backoff
// for startup connections.
//
//	cb := circuitbreaker.New(circuitbreaker.ScoringConfig())
//	entries, err := cb.Execute(func() (interface{}, error) {
//	    return scoreUser(ctx, userID)
//	})
//
//	err := retry.WithBackoff(ctx, retry.DefaultConfig(), func() error {
//	    return db.PingContext(ctx)
//	})
package resilience
