// Package health tracks store reachability. A Checker pings the document
// and graph stores on an interval, a Monitor holds the latest per-store
// status, and status messages are sanitized so connection strings and
// credentials never leak into health output.
package health
