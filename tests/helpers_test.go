package tests_test

import (
	"fmt"
	"os"
	"strings"

	"github.com/containerd/nerdctl/mod/tigron/test"
	"github.com/containerd/nerdctl/mod/tigron/tig"
)

// expectNote returns a comparator verifying that the summary settled on the given note.
// Console output renders the summary as "summary: <hz> Hz +/- <margin> Hz (<note> <cents> cents)".
func expectNote(note string) test.Comparator {
	return func(stdout string, testing tig.T) {
		testing.Helper()

		for line := range strings.SplitSeq(stdout, "\n") {
			if strings.Contains(line, "summary:") && strings.Contains(line, "("+note+" ") {
				return
			}
		}

		testing.Log(fmt.Sprintf("expected note %q not found in summary:\n%s", note, stdout))
		testing.Fail()
	}
}

// expectContains returns a comparator verifying the output contains a substring.
func expectContains(substr string) test.Comparator {
	return func(stdout string, testing tig.T) {
		testing.Helper()

		if !strings.Contains(stdout, substr) {
			testing.Log(fmt.Sprintf("expected substring %q not found in output:\n%s", substr, stdout))
			testing.Fail()
		}
	}
}

// expectNotContains returns a comparator verifying the output does not contain a substring.
func expectNotContains(substr string) test.Comparator {
	return func(stdout string, testing tig.T) {
		testing.Helper()

		if strings.Contains(stdout, substr) {
			testing.Log(fmt.Sprintf("unexpected substring %q found in output:\n%s", substr, stdout))
			testing.Fail()
		}
	}
}

// expectFile returns a comparator verifying that a non-empty file exists at path.
func expectFile(path string) test.Comparator {
	return func(_ string, testing tig.T) {
		testing.Helper()

		info, err := os.Stat(path)
		if err != nil || info.Size() == 0 {
			testing.Log(fmt.Sprintf("expected non-empty file at %s (%v)", path, err))
			testing.Fail()
		}
	}
}
