package fuse

import "golang.org/x/sys/unix"

// writev issues a single scatter-gather write of iov to fd, retrying on
// EINTR. It is a thin wrapper so session.go's Send does not need to import
// golang.org/x/sys/unix directly.
func writev(fd int, iov [][]byte) (int, error) {
	for {
		n, err := unix.Writev(fd, iov)
		if err == unix.EINTR {
			continue
		}
		return n, err
	}
}
