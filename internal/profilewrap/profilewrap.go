package profilewrap

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// Run exec-launches solverPath with solverArgs, stdio inherited from the
// current process, and blocks until it exits. It returns the exit code the
// caller should terminate the process with; the resource-usage lines have
// already been written to stdout by the time Run returns.
func Run(solverPath string, solverArgs []string, stdout io.Writer) int {
	start := time.Now()

	cmd := exec.Command(solverPath, solverArgs...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "profile: spawn %q: %v\n", solverPath, err)
		return 1
	}

	sigCh := make(chan os.Signal, 4)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	code := 1
	for {
		select {
		case sig := <-sigCh:
			switch sig {
			case syscall.SIGINT:
				_ = cmd.Process.Kill()
			case syscall.SIGTERM:
				_ = cmd.Process.Signal(syscall.SIGTERM)
			}
		case err := <-done:
			code = exitCodeOf(err)
			wtime := time.Since(start).Seconds()
			fmt.Fprintf(stdout, "#s s_wtime %f\n", wtime)
			reportRusage(stdout)
			return code
		}
	}
}

func exitCodeOf(err error) int {
	if err == nil {
		return 0
	}
	if exitErr, ok := err.(*exec.ExitError); ok {
		return exitErr.ExitCode()
	}
	return 1
}

// reportRusage queries RUSAGE_CHILDREN and prints the #s lines described
// in the profile wrapper's resource-accounting step. maxrss is reported in
// bytes: unix.Rusage.Maxrss is already in bytes on Darwin, but in
// kilobytes on Linux, so it is scaled by 1024 there.
func reportRusage(w io.Writer) {
	var usage unix.Rusage
	if err := unix.Getrusage(unix.RUSAGE_CHILDREN, &usage); err != nil {
		fmt.Fprintf(os.Stderr, "profile: getrusage: %v\n", err)
		return
	}

	utime := time.Duration(usage.Utime.Sec)*time.Second + time.Duration(usage.Utime.Usec)*time.Microsecond
	stime := time.Duration(usage.Stime.Sec)*time.Second + time.Duration(usage.Stime.Usec)*time.Microsecond

	fmt.Fprintf(w, "#s s_utime %f\n", utime.Seconds())
	fmt.Fprintf(w, "#s s_stime %f\n", stime.Seconds())
	fmt.Fprintf(w, "#s s_maxrss %d\n", maxrssBytes(usage.Maxrss))
	fmt.Fprintf(w, "#s s_minflt %d\n", usage.Minflt)
	fmt.Fprintf(w, "#s s_majflt %d\n", usage.Majflt)
	fmt.Fprintf(w, "#s s_nvcsw %d\n", usage.Nvcsw)
	fmt.Fprintf(w, "#s s_nivcsw %d\n", usage.Nivcsw)
}
