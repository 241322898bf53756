// Package resilience provides the fault-tolerance primitives used around
// external collaborators.
//
//   - Bulkhead caps concurrent ffmpeg/ffprobe invocations.
//   - CircuitBreaker fails fast while the transcription backend is down.
//   - Retry repeats transient transcription calls with backoff.
//   - RateLimiter and KeyedRateLimiter throttle uploads per client.
//
// They compose from the outside in:
//
//	text, err := resilience.Retry(ctx, retryCfg, func() (string, error) {
//		var out string
//		err := breaker.Execute(func() error {
//			var err error
//			out, err = call(ctx)
//			return err
//		})
//		return out, err
//	})
package resilience
