// Copyright 2015 Google Inc. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package fuse

import (
	"errors"
	"os"
	"testing"

	"golang.org/x/sys/unix"
)

func TestMountOptionsString(t *testing.T) {
	var o MountOptions
	o.FsName("myfs").ReadOnly().Option("allow_other")

	got := o.String()
	want := "fsname=myfs,ro,allow_other"
	if got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestMountOptionsEmpty(t *testing.T) {
	var o MountOptions
	if got := o.String(); got != "" {
		t.Errorf("String() on an empty MountOptions = %q, want \"\"", got)
	}
}

func TestMountOptionsRejectsEmbeddedComma(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("KeyValue with a comma in the value did not panic")
		}
	}()
	var o MountOptions
	o.KeyValue("fsname", "a,b")
}

func TestMountOptionsRejectsEmbeddedEquals(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("Option with an equals sign did not panic")
		}
	}()
	var o MountOptions
	o.Option("a=b")
}

func TestMountOptionsRejectsEmptyPart(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("Option(\"\") did not panic")
		}
	}()
	var o MountOptions
	o.Option("")
}

// TestRecvSessionFdParsesSCMRights exercises the SCM_RIGHTS parsing path
// recvSessionFd shares with fusermount3's real reply, without spawning the
// helper: a socketpair stands in for the local/remote ends, and one side
// sends a real file descriptor as ancillary data the way fusermount3 does.
func TestRecvSessionFdParsesSCMRights(t *testing.T) {
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	if err != nil {
		t.Fatalf("Socketpair: %v", err)
	}
	localFd, remoteFd := fds[0], fds[1]
	defer unix.Close(remoteFd)

	devNull, err := os.Open(os.DevNull)
	if err != nil {
		t.Fatalf("os.Open(DevNull): %v", err)
	}
	defer devNull.Close()

	rights := unix.UnixRights(int(devNull.Fd()))
	if err := unix.Sendmsg(remoteFd, nil, rights, nil, 0); err != nil {
		t.Fatalf("Sendmsg: %v", err)
	}

	gotFd, err := recvSessionFd(localFd)
	if err != nil {
		t.Fatalf("recvSessionFd: %v", err)
	}
	defer unix.Close(gotFd)

	if gotFd <= 0 {
		t.Errorf("recvSessionFd returned fd %d, want a positive descriptor", gotFd)
	}
}

func TestRecvSessionFdNoMessage(t *testing.T) {
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	if err != nil {
		t.Fatalf("Socketpair: %v", err)
	}
	localFd, remoteFd := fds[0], fds[1]
	defer unix.Close(localFd)

	// Closing the remote end with no message sent makes Recvmsg return a
	// clean io.EOF-equivalent rather than blocking.
	unix.Close(remoteFd)

	if _, err := recvSessionFd(localFd); err == nil {
		t.Fatal("recvSessionFd succeeded despite no control message ever being sent")
	}
}

func TestExecOutputErrorIncludesOutput(t *testing.T) {
	underlying := errors.New("exit status 1")
	e := &execOutputError{err: underlying, output: []byte("fusermount3: failed to unmount\n")}

	got := e.Error()
	want := "exit status 1: fusermount3: failed to unmount"
	if got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(e, underlying) {
		t.Error("errors.Is did not see through Unwrap to the underlying error")
	}
}

func TestExecOutputErrorEmptyOutput(t *testing.T) {
	underlying := errors.New("exit status 1")
	e := &execOutputError{err: underlying}

	if got := e.Error(); got != underlying.Error() {
		t.Errorf("Error() = %q, want %q", got, underlying.Error())
	}
}
