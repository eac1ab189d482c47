package profilewrap

import (
	"bytes"
	"strings"
	"testing"
)

func TestRun_ReportsResourceUsageLines(t *testing.T) {
	var buf bytes.Buffer
	code := Run("/bin/sh", []string{"-c", "exit 0"}, &buf)

	if code != 0 {
		t.Fatalf("code = %d, want 0", code)
	}

	out := buf.String()
	for _, key := range []string{"s_wtime", "s_utime", "s_stime", "s_maxrss", "s_minflt", "s_majflt", "s_nvcsw", "s_nivcsw"} {
		if !strings.Contains(out, "#s "+key+" ") {
			t.Errorf("missing %q line in output:\n%s", key, out)
		}
	}
}

func TestRun_PropagatesExitCode(t *testing.T) {
	var buf bytes.Buffer
	code := Run("/bin/sh", []string{"-c", "exit 7"}, &buf)

	if code != 7 {
		t.Fatalf("code = %d, want 7", code)
	}
}
