// Package scheduler drives the bounded-parallelism dispatch loop: it pulls
// instances one at a time, acquires a permit from a counting semaphore of
// capacity P, and spawns an independent task per instance. Each task runs
// the Job Processor, releases its permit as soon as the Job Processor
// returns (the child has exited and its output has been checked), and
// only then performs the cheap postprocessing (upload,
// summary row, working-directory bucketing) — so network latency never
// serializes behind compute parallelism.
package scheduler
