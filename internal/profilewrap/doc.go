// Package profilewrap implements the hidden "profile" subcommand: it
// exec-launches the real solver, forwards stdio, forwards SIGTERM to the
// child while killing it immediately on SIGINT, and on child exit prints
// a set of "#s <key> <value>" lines reporting wall time and the
// children's resource usage (CPU time, peak RSS, page faults, context
// switches). It exits with the child's exit code.
package profilewrap
