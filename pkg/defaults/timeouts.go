/*
Copyright © 2025 the commodore authors
SPDX-License-Identifier: Apache-2.0
*/

package defaults

import "time"

// Pipeline timeouts for the per-component stages of a compile run.
const (
	// FetchTimeout bounds a single component clone/fetch, including
	// retries for transient failures.
	FetchTimeout = 5 * time.Minute

	// RenderTimeout bounds a single rendering engine invocation.
	RenderTimeout = 10 * time.Minute

	// PushTimeout bounds a catalog push, including conflict retries.
	PushTimeout = 2 * time.Minute
)

// Retry bounds for transient network failures. Configuration and template
// errors are never retried.
const (
	// FetchRetryMax is the number of retry attempts for transient fetch
	// failures after the initial attempt.
	FetchRetryMax = 3

	// PushRetryMax is the number of recommit attempts after a push
	// conflict before the run fails.
	PushRetryMax = 3

	// RetryInitialInterval is the starting backoff interval.
	RetryInitialInterval = 500 * time.Millisecond

	// RetryMaxInterval caps the backoff interval between attempts.
	RetryMaxInterval = 10 * time.Second
)

// Concurrency limits for a compile run.
const (
	// ComponentConcurrency is the default bound on concurrent component
	// fetch/render operations within one compile run.
	ComponentConcurrency = 4
)

// Server timeouts for the commodored HTTP server.
const (
	// ServerReadTimeout is the maximum duration for reading a request.
	ServerReadTimeout = 10 * time.Second

	// ServerReadHeaderTimeout prevents slow header attacks.
	ServerReadHeaderTimeout = 5 * time.Second

	// ServerWriteTimeout is the maximum duration for writing a response.
	// Compile requests are long-running, so this is generous.
	ServerWriteTimeout = 15 * time.Minute

	// ServerIdleTimeout is the maximum duration to wait for the next request.
	ServerIdleTimeout = 120 * time.Second

	// ServerShutdownTimeout is the maximum duration for graceful shutdown.
	ServerShutdownTimeout = 30 * time.Second

	// CompileHandlerTimeout bounds one API-triggered compile run.
	CompileHandlerTimeout = 15 * time.Minute
)

// Registry client timeouts for the cluster management API.
const (
	// RegistryRequestTimeout bounds one cluster/tenant lookup.
	RegistryRequestTimeout = 30 * time.Second
)
