// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package metrics holds the Prometheus collectors exported at /metrics.

Each Metrics value owns its registry:

	m := metrics.New()
	mux.Handle("GET /metrics", m.Handler())

# Collectors

All names carry the rollcall_ prefix:

  - roll_verifications_total{verdict}
  - roll_match_score (only when a roll record was found)
  - registrations_total{status}
  - ballots_total{kind} where kind is new or changed
  - http_request_duration_seconds{method, route, status}

The Go runtime and process collectors are registered alongside.
*/
package metrics
