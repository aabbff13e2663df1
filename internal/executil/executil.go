// Package executil runs the external editor process and mirrors its log
// output while it is running.
package executil

import (
	"bytes"
	"errors"
	"os"
	"os/exec"
	"strings"
	"time"

	ucomerrors "github.com/jakkovanhunen/ucom-sub000/core/errors"
	"github.com/jakkovanhunen/ucom-sub000/internal/logging"
)

// CommandLine returns the full command line string for display, quoting
// the program and any argument that contains whitespace.
func CommandLine(cmd *exec.Cmd) string {
	line := cmd.Path
	if strings.ContainsAny(line, " \t") {
		line = `"` + line + `"`
	}

	// cmd.Args[0] is the program itself.
	for _, arg := range cmd.Args[1:] {
		line += " "
		if strings.ContainsAny(arg, " \t") {
			line += `"` + arg + `"`
		} else {
			line += arg
		}
	}
	return line
}

// RunForget spawns the command and returns without waiting for it to
// finish. Output is piped but discarded.
func RunForget(cmd *exec.Cmd) error {
	cmd.Stdout = nil
	cmd.Stderr = nil
	if err := cmd.Start(); err != nil {
		return ucomerrors.NewSpawn(cmd.Path, err)
	}

	logging.ProcessSpawned(cmd.Path, cmd.Args[1:])

	// Reap the process in the background so it does not linger as a zombie
	// for the lifetime of this process.
	go func() { _ = cmd.Wait() }()
	return nil
}

// RunAttached spawns the command with stdout/stderr inherited from this
// process and blocks until it exits.
func RunAttached(cmd *exec.Cmd) error {
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return runAndWait(cmd, nil)
}

// RunQuiet spawns the command with output captured and blocks until it
// exits. Captured stderr is attached to the error on failure.
func RunQuiet(cmd *exec.Cmd) error {
	var stderr bytes.Buffer
	cmd.Stdout = nil
	cmd.Stderr = &stderr
	return runAndWait(cmd, &stderr)
}

// RunWithLogEcho spawns the command and echoes the log file it writes to
// stdout while blocking until the command exits. The tailer is joined
// before this function returns, so all log content written by the
// process has been flushed by then.
func RunWithLogEcho(cmd *exec.Cmd, logPath string) error {
	var stderr bytes.Buffer
	cmd.Stdout = nil
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return ucomerrors.NewSpawn(cmd.Path, err)
	}

	logging.ProcessSpawned(cmd.Path, cmd.Args[1:], "log_file", logPath)
	start := time.Now()

	monitor := StartMonitor(logPath, os.Stdout, DefaultPollInterval)

	waitErr := cmd.Wait()
	monitor.Stop()

	logging.ProcessExited(cmd.Path, exitCode(cmd, waitErr), time.Since(start))

	if waitErr != nil {
		return processError(cmd, waitErr, &stderr)
	}
	return nil
}

func runAndWait(cmd *exec.Cmd, stderr *bytes.Buffer) error {
	if err := cmd.Start(); err != nil {
		return ucomerrors.NewSpawn(cmd.Path, err)
	}

	logging.ProcessSpawned(cmd.Path, cmd.Args[1:])
	start := time.Now()

	waitErr := cmd.Wait()
	logging.ProcessExited(cmd.Path, exitCode(cmd, waitErr), time.Since(start))

	if waitErr != nil {
		return processError(cmd, waitErr, stderr)
	}
	return nil
}

func exitCode(cmd *exec.Cmd, waitErr error) int {
	if cmd.ProcessState != nil {
		return cmd.ProcessState.ExitCode()
	}
	if waitErr != nil {
		return -1
	}
	return 0
}

func processError(cmd *exec.Cmd, waitErr error, stderr *bytes.Buffer) error {
	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		pe := &ucomerrors.ProcessError{ExitCode: exitErr.ExitCode()}
		if stderr != nil {
			pe.Stderr = strings.TrimSpace(stderr.String())
		}
		return pe
	}
	return ucomerrors.NewSpawn(cmd.Path, waitErr)
}
