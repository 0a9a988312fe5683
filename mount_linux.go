package fuse

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"golang.org/x/sys/unix"
)

// MountOptions is a comma-joined "-o" option string for fusermount3, built up
// incrementally the way the mount helper itself expects: no embedded commas
// or equals signs inside a single key or value.
type MountOptions struct {
	parts []string
}

// FsName sets the "fsname" option, shown in mount(8) output as the source
// device name.
func (o *MountOptions) FsName(name string) *MountOptions {
	return o.KeyValue("fsname", name)
}

// ReadOnly sets the "ro" option.
func (o *MountOptions) ReadOnly() *MountOptions {
	return o.Option("ro")
}

// Option appends a bare option such as "ro" or "allow_other".
func (o *MountOptions) Option(opt string) *MountOptions {
	assertValidPart(opt)
	o.parts = append(o.parts, opt)
	return o
}

// KeyValue appends a "key=value" option.
func (o *MountOptions) KeyValue(key, value string) *MountOptions {
	assertValidPart(key)
	assertValidPart(value)
	o.parts = append(o.parts, key+"="+value)
	return o
}

func assertValidPart(part string) {
	if part == "" || strings.ContainsAny(part, ",=") {
		panic(fmt.Sprintf("fuse: invalid mount option %q", part))
	}
}

func (o *MountOptions) String() string {
	return strings.Join(o.parts, ",")
}

// mountSync runs fusermount3 as a child process and returns the kernel
// session file descriptor it hands back over a Unix domain socket, per the
// SUID-helper protocol libfuse implements: a socketpair is created, the
// child's end is passed to fusermount3 via _FUSE_COMMFD, and fusermount3
// replies with the real /dev/fuse descriptor as an SCM_RIGHTS ancillary
// message once it has completed the privileged mount(2) call.
func mountSync(mountpoint string, opts *MountOptions) (*os.File, error) {
	path, err := exec.LookPath(fusermountCmd)
	if err != nil {
		return nil, fusermountError(err)
	}

	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	if err != nil {
		return nil, ioError(err)
	}
	localFd, remoteFd := fds[0], fds[1]

	local := os.NewFile(uintptr(localFd), "fuse-mount-local")
	remote := os.NewFile(uintptr(remoteFd), "fuse-mount-remote")
	defer local.Close()

	args := []string{}
	if s := opts.String(); s != "" {
		args = append(args, "-o", s)
	}
	args = append(args, "--", mountpoint)

	cmd := exec.Command(path, args...)
	cmd.ExtraFiles = []*os.File{remote}
	cmd.Env = append(os.Environ(), "_FUSE_COMMFD=3")
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		remote.Close()
		return nil, fusermountError(err)
	}

	// fusermount3 holds the only remaining reference to the remote side
	// once it execs; closing our copy means recvmsg below fails cleanly if
	// the child exits without ever sending a reply.
	remote.Close()

	sessionFd, recvErr := recvSessionFd(localFd)

	if recvErr != nil {
		_ = cmd.Wait()
		return nil, fusermountError(recvErr)
	}

	if err := cmd.Wait(); err != nil {
		unix.Close(sessionFd)
		return nil, fusermountError(err)
	}

	return os.NewFile(uintptr(sessionFd), "/dev/fuse"), nil
}

func recvSessionFd(localFd int) (int, error) {
	oob := make([]byte, unix.CmsgSpace(4))
	_, oobn, _, _, err := unix.Recvmsg(localFd, nil, oob, 0)
	if err != nil {
		return 0, err
	}

	scms, err := unix.ParseSocketControlMessage(oob[:oobn])
	if err != nil {
		return 0, err
	}
	if len(scms) == 0 {
		return 0, fmt.Errorf("fusermount3 sent no control message")
	}

	rights, err := unix.ParseUnixRights(&scms[0])
	if err != nil {
		return 0, err
	}
	if len(rights) == 0 {
		return 0, fmt.Errorf("fusermount3 sent no file descriptor")
	}

	return rights[0], nil
}
