package build

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"

	ucomerrors "github.com/jakkovanhunen/ucom-sub000/core/errors"
	"github.com/jakkovanhunen/ucom-sub000/core/editor"
	"github.com/jakkovanhunen/ucom-sub000/core/ipc"
	"github.com/jakkovanhunen/ucom-sub000/internal/executil"
	"github.com/jakkovanhunen/ucom-sub000/internal/logging"
)

// Remote is the live-editor build channel. *ipc.Client implements it.
type Remote interface {
	EditorRunning() bool
	ExecuteBuild(cmd ipc.Command) (*ipc.Result, error)
}

// Outcome is the unified result of one build, independent of whether it
// ran through the live editor or a batch subprocess.
type Outcome struct {
	Success bool
	Message string
	Elapsed time.Duration

	// Remote is true when a live editor served the build; Result then
	// carries the editor's report.
	Remote bool
	Result *ipc.Result
}

// Coordinator drives one build request to completion. It tries the
// live-editor channel first and falls back to a batch subprocess.
type Coordinator struct {
	Project   *editor.Project
	Version   editor.Version
	EditorExe string
	Request   *Request

	// Remote may be nil to disable the live-editor path entirely.
	Remote Remote

	// ForcePlatformSwitch lets a live editor switch its active platform
	// to serve the build; ForcePlayModeExit lets it leave play mode.
	ForcePlatformSwitch bool
	ForcePlayModeExit   bool

	// Out receives status lines and the build report; defaults to
	// stdout.
	Out io.Writer
}

func (c *Coordinator) out() io.Writer {
	if c.Out != nil {
		return c.Out
	}
	return os.Stdout
}

// Run executes the build.
func (c *Coordinator) Run() (*Outcome, error) {
	start := time.Now()
	req := c.Request

	outputDir, err := req.ResolveOutputDir(c.Project)
	if err != nil {
		return nil, err
	}
	logPath, err := req.ResolveLogPath(c.Project)
	if err != nil {
		return nil, err
	}

	if req.DryRun {
		cmd := req.EditorCommand(c.EditorExe, c.Project, outputDir, logPath)
		fmt.Fprintln(c.out(), executil.CommandLine(cmd))
		return &Outcome{Success: true, Message: "dry run"}, nil
	}

	if c.Remote != nil && c.Remote.EditorRunning() {
		return c.runRemote(outputDir, logPath, start)
	}
	return c.runBatch(outputDir, logPath, start)
}

// runRemote delegates the build to the already-running editor.
func (c *Coordinator) runRemote(outputDir, logPath string, start time.Time) (*Outcome, error) {
	req := c.Request
	bold := color.New(color.Bold)
	bold.Fprintf(c.out(), "Building %s %s project through running editor in: %s\n",
		c.Version, req.Target.EditorName(), c.Project.Path())
	logging.BuildEvent("remote_build_started", c.Project.Path(),
		"target", req.Target.ScriptName())

	cmd := ipc.NewBuildCommand(
		req.Target.ScriptName(),
		outputDir,
		logPath,
		int(req.OptionFlags()),
		req.DevelopmentBuild,
	)
	cmd.ForcePlatformSwitch = c.ForcePlatformSwitch
	cmd.ForcePlayModeExit = c.ForcePlayModeExit

	result, err := c.Remote.ExecuteBuild(cmd)
	elapsed := time.Since(start)
	if err != nil {
		c.printStatus(false, elapsed)
		return nil, err
	}
	logging.BuildEvent("remote_build_finished", c.Project.Path(),
		"success", result.Succeeded(), "elapsed_ms", elapsed.Milliseconds())

	outcome := &Outcome{
		Success: result.Succeeded(),
		Message: result.Message,
		Elapsed: elapsed,
		Remote:  true,
		Result:  result,
	}

	if result.PlatformSwitched {
		fmt.Fprintf(c.out(), "Editor switched platform from %s to %s (%.2fs)\n",
			result.OriginalPlatform, result.SwitchedTo, result.PlatformSwitchTimeSeconds)
	}

	if !result.Succeeded() {
		c.printStatus(false, elapsed)
		if result.ErrorCode == ipc.ErrorCodePlatformSwitchFailed {
			return outcome, platformSwitchError(req.Target, result)
		}
		if result.Message != "" {
			return outcome, errors.New(result.Message)
		}
		return outcome, fmt.Errorf("editor reported status %q with no message", result.Status)
	}

	c.printStatus(true, elapsed)
	printRemoteSummary(c.out(), result)
	return outcome, nil
}

// platformSwitchError turns the protocol's platform-switch failure code
// into a diagnostic the operator can act on.
func platformSwitchError(target Target, result *ipc.Result) error {
	msg := result.Message
	if msg == "" {
		msg = "the editor could not switch to the requested platform"
	}
	return fmt.Errorf(`%s
The build never started because switching to %s failed. Possible causes:
- the %s build module is not installed for this editor version
- the editor is busy with another build or a long import
- the project is in play mode and was not forced out of it`,
		msg, target.EditorName(), target.EditorName())
}

func printRemoteSummary(out io.Writer, result *ipc.Result) {
	if result.BuildResult != "" {
		fmt.Fprintf(out, "    Build result: %s\n", result.BuildResult)
	}
	if result.Platform != "" {
		fmt.Fprintf(out, "    Platform:     %s\n", result.Platform)
	}
	if result.OutputPath != "" {
		fmt.Fprintf(out, "    Output path:  %s\n", result.OutputPath)
	}
	if result.TotalSize > 0 {
		fmt.Fprintf(out, "    Total size:   %d bytes\n", result.TotalSize)
	}
	fmt.Fprintf(out, "    Errors:       %d\n", result.TotalErrors)
	fmt.Fprintf(out, "    Warnings:     %d\n", result.TotalWarnings)
	fmt.Fprintf(out, "    Build time:   %.2fs\n", result.BuildTimeSeconds)
}

// runBatch spawns the editor subprocess with the build hook in place.
func (c *Coordinator) runBatch(outputDir, logPath string, start time.Time) (*Outcome, error) {
	req := c.Request

	// A log left over from a previous run would confuse both the tailer
	// and the error collector.
	if err := os.Remove(logPath); err != nil && !os.IsNotExist(err) {
		return nil, ucomerrors.Wrapf(err, "cannot remove stale log file %s", logPath)
	}

	bold := color.New(color.Bold)
	bold.Fprintf(c.out(), "Building %s %s project in: %s\n",
		c.Version, req.Target.EditorName(), c.Project.Path())
	logging.BuildEvent("batch_build_started", c.Project.Path(),
		"target", req.Target.ScriptName())

	hooks := PrepareHook(c.Project, req.Hook)
	if err := hooks.Inject(); err != nil {
		return nil, err
	}

	cmd := req.EditorCommand(c.EditorExe, c.Project, outputDir, logPath)

	var runErr error
	if req.Mode.IsBatch() && !req.Quiet {
		runErr = executil.RunWithLogEcho(cmd, logPath)
	} else {
		runErr = executil.RunAttached(cmd)
	}

	// The hook is removed even when the build failed; a stray script in
	// the project is worse than a failed build.
	if err := hooks.Cleanup(); err != nil {
		logging.CleanupWarning("remove build hook", c.Project.Path(), err)
	}

	elapsed := time.Since(start)

	var spawnErr *ucomerrors.SpawnError
	if errors.As(runErr, &spawnErr) {
		return nil, runErr
	}

	success := runErr == nil
	if success && req.Clean {
		if err := PruneOutputDir(outputDir); err != nil {
			logging.CleanupWarning("prune output directory", outputDir, err)
		}
	}

	logging.BuildEvent("batch_build_finished", c.Project.Path(),
		"success", success, "elapsed_ms", elapsed.Milliseconds())

	c.printStatus(success, elapsed)
	PrintReport(logPath, c.out())

	if success {
		return &Outcome{Success: true, Message: "build succeeded", Elapsed: elapsed}, nil
	}

	// The exit code alone says nothing useful; the log usually does.
	err := CollectLogErrors(logPath)
	return &Outcome{Success: false, Message: err.Error(), Elapsed: elapsed}, err
}

func (c *Coordinator) printStatus(success bool, elapsed time.Duration) {
	if success {
		status := color.New(color.FgGreen, color.Bold)
		status.Fprintf(c.out(), "Build succeeded")
		fmt.Fprintf(c.out(), " in %.2fs\n", elapsed.Seconds())
		return
	}
	status := color.New(color.FgRed, color.Bold)
	status.Fprintf(c.out(), "Build failed")
	fmt.Fprintf(c.out(), " after %.2fs\n", elapsed.Seconds())
}
