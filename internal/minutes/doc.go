// Package minutes parses published council meeting-minutes HTML into
// recorded vote data.
//
// The parser targets one specific markup convention: agenda items live in
// .AgendaItemContainer fragments, each optionally carrying a title, a
// .MotionResult outcome, and a .MotionVoters table whose rows pair a
// For/Against label cell with a cell listing the voting councillors. Pages
// that violate the convention degrade to empty or partial results; a bad
// page never aborts a batch run.
package minutes
