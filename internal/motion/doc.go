// Package motion provides the domain types and normalization rules for
// recorded council votes.
//
// A Motion is one recorded vote event inside a meeting's minutes: an optional
// title, the raw outcome text as scraped, a normalized outcome, and the
// ordered lists of councillor names voting for and against. The package also
// carries the pure text heuristics the parser relies on: splitting a
// free-text cell of names into individual names, mapping outcome phrases to
// Passed/Failed, and removing motions the source page lists twice.
package motion
