// Package client provides the REST transport shared by every cdfx API.
//
// # Overview
//
// A Client wraps net/http with the conventions of the data platform API:
//
//   - Request paths are project-relative. "/context/entitymatching/jobs/12"
//     becomes {base_url}/api/{api_version}/projects/{project}/context/entitymatching/jobs/12.
//   - Bodies are JSON. Responses are decoded into the value passed as out.
//   - Every request carries X-Request-Id, X-Cdp-App and X-Cdp-Sdk headers.
//   - Non-2xx responses become *APIError values carrying the status code, the
//     server message and any missing/duplicated identifiers.
//
// # Authentication
//
// Either an API key (api-key header) or OAuth client credentials. With client
// credentials the token endpoint may be given directly (token_url) or
// discovered from an OpenID issuer (issuer).
//
// # Error Handling
//
// Connection errors and 429/502/503/504 responses are retried with
// exponential backoff up to max_retries times. All other failures, including
// 404, are returned on the first attempt. Higher layers such as job polling
// do not add their own retries.
//
// # Observability
//
//   - Debug logs per request through hclog
//   - Optional Prometheus counters and latency histograms (WithMetrics)
//   - Optional Datadog tracing of the HTTP client (trace = true)
package client
