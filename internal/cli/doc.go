// Package cli wires the council-votes command line: the default sync run
// over a date range of meetings, and the destructive clear subcommand that
// empties the destination store after interactive confirmation.
package cli
