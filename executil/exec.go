// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

// Package executil implements the child-process execution engine shared
// by every plugin: running a command and reporting its error, capturing
// its output, or feeding it input on stdin, with every invocation logged
// through blockdevlog.
package executil

import (
	"bytes"
	"context"
	"os/exec"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/dswarbrick/blockdev/bderrors"
	"github.com/dswarbrick/blockdev/blockdevlog"
)

var idCounter uint64

// nextTaskID returns a process-wide monotonically increasing task id,
// mirroring the mutex-guarded id_counter in the source (here a simple
// atomic increment suffices, since Go has no equivalent need for a
// separately lockable counter).
func nextTaskID() uint64 {
	return atomic.AddUint64(&idCounter, 1)
}

func logRunning(argv []string) uint64 {
	id := nextTaskID()
	blockdevlog.Log(blockdevlog.CategoryTaskStart, id, "Running ["+strconv.FormatUint(id, 10)+"] "+strings.Join(argv, " ")+" ...")
	return id
}

func logOut(id uint64, stdout, stderr string) {
	blockdevlog.Log(blockdevlog.CategoryStdout, id, stdout)
	blockdevlog.Log(blockdevlog.CategoryStderr, id, stderr)
}

func logDone(id uint64, exitCode int) {
	blockdevlog.Log(blockdevlog.CategoryTaskEnd, id, "...done (exit code: "+strconv.Itoa(exitCode)+")")
}

// run spawns argv[0] with argv[1:], capturing stdout/stderr separately, and
// returns them along with the process exit code. A failure to spawn the
// child at all is reported via spawnErr; a non-zero exit is reflected only
// in the returned code, mirroring g_spawn_sync's success/status split.
func run(ctx context.Context, argv []string, stdin string) (stdout, stderr string, code int, spawnErr error) {
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	if stdin != "" {
		cmd.Stdin = strings.NewReader(stdin)
	}

	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf

	err := cmd.Run()
	stdout, stderr = outBuf.String(), errBuf.String()

	if err == nil {
		return stdout, stderr, 0, nil
	}

	var exitErr *exec.ExitError
	if ok := errorsAs(err, &exitErr); ok {
		return stdout, stderr, exitErr.ExitCode(), nil
	}

	return stdout, stderr, -1, err
}

// errorsAs is a tiny local shim so this file only needs one import line for
// the common ExitError extraction used by both entry points below.
func errorsAs(err error, target **exec.ExitError) bool {
	if ee, ok := err.(*exec.ExitError); ok {
		*target = ee
		return true
	}
	return false
}

// ExecAndReportError runs argv to completion and returns an error unless
// the process spawned successfully and exited zero (bd_utils_exec_and_report_error).
func ExecAndReportError(ctx context.Context, argv []string) error {
	id := logRunning(argv)
	stdout, stderr, code, spawnErr := run(ctx, argv, "")
	logOut(id, stdout, stderr)
	logDone(id, code)

	if spawnErr != nil {
		return bderrors.Wrap(bderrors.KindSpawnFailed, spawnErr, "failed to start %s", argv[0])
	}

	if code != 0 {
		msg := stderr
		if msg == "" {
			msg = stdout
		}
		return bderrors.New(bderrors.KindProcessFailed, "process reported exit code %d: %s", code, msg)
	}

	return nil
}

// ExecAndCaptureOutput runs argv to completion and returns its stdout,
// trimmed of a single trailing newline as g_spawn_sync-derived callers
// conventionally expect. It fails if the process did not exit zero or
// produced no stdout at all (bd_utils_exec_and_capture_output).
func ExecAndCaptureOutput(ctx context.Context, argv []string) (string, error) {
	return execAndCaptureOutput(ctx, argv, "")
}

// ExecWithInput is ExecAndCaptureOutput, additionally feeding input to the
// child's stdin (bd_utils_exec_and_capture_output_with_input).
func ExecWithInput(ctx context.Context, argv []string, input string) (string, error) {
	return execAndCaptureOutput(ctx, argv, input)
}

func execAndCaptureOutput(ctx context.Context, argv []string, stdin string) (string, error) {
	id := logRunning(argv)
	stdout, stderr, code, spawnErr := run(ctx, argv, stdin)
	logOut(id, stdout, stderr)
	logDone(id, code)

	if spawnErr != nil {
		return "", bderrors.Wrap(bderrors.KindSpawnFailed, spawnErr, "failed to start %s", argv[0])
	}

	if code != 0 || stdout == "" {
		if stderr != "" {
			if code != 0 {
				return "", bderrors.New(bderrors.KindProcessFailed, "process reported exit code %d: %s", code, stderr)
			}
			return "", bderrors.New(bderrors.KindNoOutput, "process didn't provide any data on standard output. Error output: %s", stderr)
		}
		if code != 0 {
			return "", bderrors.New(bderrors.KindProcessFailed, "process reported exit code %d", code)
		}
		return "", bderrors.New(bderrors.KindNoOutput, "process didn't provide any data on standard output")
	}

	return strings.TrimSuffix(stdout, "\n"), nil
}

// ProgressExtract parses a line of subprocess output into a completion
// percentage, returning ok=false when the line carries no progress
// information. Callers (e.g. the LVM/mdraid plugins) supply a regexp-backed
// implementation of this signature to ExecWithProgress.
type ProgressExtract func(line string) (percent int, ok bool)

// ExecWithProgress runs argv to completion and returns its stdout like
// ExecAndCaptureOutput, but additionally scans each newline-terminated
// line of stdout through extract and forwards any recognized percentage
// to blockdevlog.Progress, tagged with token (pass nil if the caller
// never mutes itself) and the task id assigned to this invocation
// (bd_utils_exec_and_report_progress). Stderr is captured separately and
// its lines are not passed to extract, nor is a final stdout fragment
// without a trailing newline. Unlike ExecAndCaptureOutput, an empty
// stdout on a zero exit is not an error.
func ExecWithProgress(ctx context.Context, argv []string, token interface{}, extract ProgressExtract) (string, error) {
	id := logRunning(argv)

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return "", bderrors.Wrap(bderrors.KindSpawnFailed, err, "failed to start %s", argv[0])
	}
	var errBuf bytes.Buffer
	cmd.Stderr = &errBuf

	if err := cmd.Start(); err != nil {
		return "", bderrors.Wrap(bderrors.KindSpawnFailed, err, "failed to start %s", argv[0])
	}

	var outBuf bytes.Buffer
	buf := make([]byte, 4096)
	var partial string
	for {
		n, rerr := stdoutPipe.Read(buf)
		if n > 0 {
			chunk := string(buf[:n])
			outBuf.WriteString(chunk)
			partial += chunk
			for {
				idx := strings.IndexByte(partial, '\n')
				if idx < 0 {
					break
				}
				line := partial[:idx]
				partial = partial[idx+1:]
				if extract != nil {
					if pct, ok := extract(line); ok {
						blockdevlog.Progress(token, id, pct, line)
					}
				}
			}
		}
		if rerr != nil {
			break
		}
	}

	waitErr := cmd.Wait()
	stdout, stderr := outBuf.String(), errBuf.String()
	code := 0
	if waitErr != nil {
		var exitErr *exec.ExitError
		if errorsAs(waitErr, &exitErr) {
			code = exitErr.ExitCode()
		} else {
			logOut(id, stdout, stderr)
			logDone(id, -1)
			return "", bderrors.Wrap(bderrors.KindSpawnFailed, waitErr, "failed to run %s", argv[0])
		}
	}

	logOut(id, stdout, stderr)
	logDone(id, code)

	if code != 0 {
		msg := stderr
		if msg == "" {
			msg = stdout
		}
		return "", bderrors.New(bderrors.KindProcessFailed, "process reported exit code %d: %s", code, msg)
	}

	return strings.TrimSuffix(stdout, "\n"), nil
}
