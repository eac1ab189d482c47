// Package jobprocessor drives a single instance through the
// Starting -> Running -> Checking -> Finished state machine: it builds a
// solverexec.Executor, waits for the child, and on success hands the
// produced stdout off to the checker package for validation. Progress is
// published to an atomic int32 so a concurrently-running display can
// observe transitions without locking.
package jobprocessor
