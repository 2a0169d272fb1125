// Package escribe talks to the public eScribe meeting portal: the calendar
// endpoint that lists meetings for a date range, and the published minutes
// pages themselves. Both calls retry transient failures with exponential
// backoff; a page that keeps failing is skipped by the caller, never fatal.
package escribe
