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
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"sync"
)

var fEnableDebug = flag.Bool(
	"fuse.debug",
	false,
	"Write FUSE debugging messages to stderr.")

var gLogger *log.Logger
var gLoggerOnce sync.Once

func initLogger() {
	var writer io.Writer = io.Discard
	if flag.Parsed() && *fEnableDebug {
		writer = os.Stderr
	}

	const flags = log.Ldate | log.Ltime | log.Lmicroseconds | log.Lshortfile
	gLogger = log.New(writer, "fuse: ", flags)
}

func getLogger() *log.Logger {
	gLoggerOnce.Do(initLogger)
	return gLogger
}

// debugLog writes a debug-level trace line, gated on -fuse.debug the same
// way getLogger's writer is.
func debugLog(unique uint64, format string, args ...any) {
	getLogger().Output(2, fmt.Sprintf("[%d] "+format, append([]any{unique}, args...)...))
}

// warnLog always writes, regardless of -fuse.debug: it is reserved for the
// handful of conditions worth a warning (a malformed request body, a
// batch forget whose count disagrees with its body, a reply write that
// failed or came up short).
// fuseops cannot import this package, so its Fail logs its own
// fail(errno<=0) warning in the same "fuse: warning:" format.
func warnLog(format string, args ...any) {
	log.Printf("fuse: warning: "+format, args...)
}
