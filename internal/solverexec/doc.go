// Package solverexec spawns one solver child process per instance with
// redirected stdin/stdout/stderr and enforces the timeout -> SIGTERM ->
// grace -> SIGKILL escalation.
//
// # Usage
//
//	ex := solverexec.New(solverexec.Config{
//	    InstancePath: instancePath,
//	    WorkingDir:   workDir,
//	    SolverPath:   solverPath,
//	    Args:         solverArgs,
//	    Env:          append(os.Environ(), "STRIDE_INSTANCE_PATH="+instancePath),
//	    Timeout:      softTimeout,
//	    Grace:        grace,
//	})
//	status, err := ex.Run(ctx)
//
// Run blocks until the child exits, is killed after the grace period, or
// ctx is cancelled (which kills the child immediately, mirroring the
// original's kill_on_drop semantics). The returned ChildExitStatus
// distinguishes BeforeTimeout, WithinGrace and a hard Timeout.
package solverexec
