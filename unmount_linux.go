package fuse

import (
	"bytes"
	"fmt"
	"os/exec"
)

// execOutputError pairs a failed command's error with its combined
// stdout/stderr, since fusermount3's diagnostics go to its own output
// rather than into the returned *exec.ExitError.
type execOutputError struct {
	err    error
	output []byte
}

func (e *execOutputError) Error() string {
	out := bytes.TrimRight(e.output, "\n")
	if len(out) == 0 {
		return e.err.Error()
	}
	return fmt.Sprintf("%v: %s", e.err, out)
}

func (e *execOutputError) Unwrap() error { return e.err }

// fusermountCmd is the lazy-unmount helper shipped with libfuse3. fusermount3
// (not the bazil-era fusermount) is required: -zuq and -- are both libfuse3
// flags.
const fusermountCmd = "fusermount3"

func unmount(dir string) error {
	return fuserunmount(dir)
}

func fuserunmount(dir string) error {
	path, err := exec.LookPath(fusermountCmd)
	if err != nil {
		return fusermountError(err)
	}

	// -z: lazy unmount, detach now and clean up once nothing references the
	// mount any more. -u: unmount. -q: quiet.
	cmd := exec.Command(path, "-zuq", "--", dir)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fusermountError(&execOutputError{err: err, output: output})
	}

	return nil
}
