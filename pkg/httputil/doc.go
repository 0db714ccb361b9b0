// Package httputil provides retry helpers for the chain API client.
//
// Wrap transient failures with [Retryable] and run the request under a
// [Policy]:
//
//	err := httputil.DefaultPolicy.Do(ctx, func() error {
//	    resp, err := http.Get(url)
//	    if err != nil {
//	        return httputil.Retryable(err)
//	    }
//	    ...
//	})
//
// Only errors wrapped with [RetryableError] are retried. Delays double after
// each attempt, capped by Policy.MaxDelay. A wrapped
// [errors.RateLimitedError] with RetryAfter set waits that many seconds
// instead.
//
// [errors.RateLimitedError]: github.com/matzehuels/trustchain/pkg/errors.RateLimitedError
package httputil
