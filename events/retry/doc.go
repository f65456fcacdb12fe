// Package retry runs fallible operations with bounded retries and capped
// exponential backoff.
//
// Failures are classified as transient (retried) or permanent (abort
// immediately) via the Retryable error interface; Transient and Permanent
// wrap arbitrary errors with an explicit classification. When all attempts
// are exhausted the last error is wrapped in an ExhaustedError carrying the
// operation name and attempt count.
//
//	ex, err := retry.NewExecutor(retry.DefaultConfig(), logger)
//	if err != nil {
//	    return err
//	}
//	err = ex.Do(ctx, "submit-order", func(ctx context.Context) error {
//	    return submit(ctx, order)
//	})
package retry
