// Package airtable implements the destination-store contract against the
// Airtable REST API: record creation, formula-filtered queries with offset
// paging, and chunked batch deletes. Transient failures (rate limiting,
// server errors, network) are retried with exponential backoff; a 422
// payload rejection is permanent and surfaces as store.ErrInvalidPayload.
package airtable
