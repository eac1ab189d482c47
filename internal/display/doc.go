// Package display renders the run's live progress: a status line of
// plain-text per-outcome counters (no color), an optional scoreboard line (shown
// once any instance carries a digest), and a total progress bar that
// switches to an indeterminate "postprocessing" style once the instance
// iterator is exhausted. Counters are atomic so FinishJob can be called
// from any number of concurrent job tasks without locking.
package display
