// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared across stages.
package httputil

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"
)

// RetryBaseDelay controls the base duration for exponential backoff on
// HTTP 429 and 5xx responses. Tests override this to avoid real sleeps.
var RetryBaseDelay = 10 * time.Second

const defaultMaxRetries = 5

// RetryClass categorizes a response for retry purposes.
type RetryClass int

const (
	// ClassOK is any 2xx response; no retry needed.
	ClassOK RetryClass = iota
	// ClassRetryable covers 429 and 5xx: worth retrying with backoff.
	ClassRetryable
	// ClassPermanent covers 404/401/403 and other 4xx: retrying won't help.
	ClassPermanent
)

// Classify maps an HTTP status code to a RetryClass per the transient/
// permanent error taxonomy: 429 and 5xx are retryable, 4xx (other than
// 429) is permanent, 2xx is ClassOK.
func Classify(status int) RetryClass {
	switch {
	case status >= 200 && status < 300:
		return ClassOK
	case status == http.StatusTooManyRequests:
		return ClassRetryable
	case status >= 500:
		return ClassRetryable
	default:
		return ClassPermanent
	}
}

// DoWithRetry executes an HTTP request and retries on retryable responses
// (HTTP 429 and 5xx, per Classify) with exponential backoff. The delay
// starts at RetryBaseDelay (10 s) and doubles each attempt: 10 s, 20 s,
// 40 s, 80 s, 160 s.
//
// When maxRetries is 0 the default (5) is used. On each retryable response
// the body is drained and closed before sleeping. If the context is
// cancelled during a backoff wait the function returns ctx.Err(). After
// exhausting retries the last response is returned as-is so the caller can
// inspect it.
func DoWithRetry(ctx context.Context, client *http.Client, req *http.Request, maxRetries int) (*http.Response, error) {
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	for attempt := 0; ; attempt++ {
		resp, err := client.Do(req.Clone(ctx))
		if err != nil {
			return nil, err
		}

		if Classify(resp.StatusCode) != ClassRetryable {
			return resp, nil
		}

		// Exhausted retries — return the response as-is.
		if attempt >= maxRetries {
			return resp, nil
		}

		// Drain and close the body before retrying.
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		backoff := time.Duration(math.Pow(2, float64(attempt))) * RetryBaseDelay
		fmt.Fprintf(io.Discard, "retryable status %d, retrying in %v (attempt %d/%d)\n", resp.StatusCode, backoff, attempt+1, maxRetries)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}
}
