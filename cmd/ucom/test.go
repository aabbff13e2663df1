package main

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/fatih/color"

	ucomerrors "github.com/jakkovanhunen/ucom-sub000/core/errors"
	"github.com/jakkovanhunen/ucom-sub000/core/nunit"
	"github.com/jakkovanhunen/ucom-sub000/internal/executil"
)

// testPlatform couples a test platform to the build target the project
// is opened with while the tests run.
type testPlatform struct {
	// Name is the value for the editor's -testPlatform argument.
	Name string
	// BuildTarget is the default -buildTarget; edit and play mode tests
	// run on the standalone target.
	BuildTarget string
}

var testPlatforms = map[string]testPlatform{
	"editmode": {"EditMode", "Standalone"},
	"playmode": {"PlayMode", "Standalone"},
	"macos":    {"StandaloneOSX", "OSXUniversal"},
	"win32":    {"StandaloneWindows", "Win"},
	"win64":    {"StandaloneWindows64", "Win64"},
	"linux64":  {"StandaloneLinux64", "Linux64"},
	"ios":      {"iOS", "iOS"},
	"android":  {"Android", "Android"},
	"webgl":    {"WebGL", "WebGL"},
}

// testsFailedExitCode is what the editor returns when the run finished
// but some tests failed. It is not treated as a spawn failure.
const testsFailedExitCode = 2

// TestCmd runs the project's tests in the editor's test mode.
type TestCmd struct {
	Platform   string `arg:"" enum:"editmode,playmode,macos,win32,win64,linux64,ios,android,webgl" help:"Test platform"`
	ProjectDir string `arg:"" optional:"" default:"." type:"existingdir" help:"Project directory"`

	Target      string `short:"t" placeholder:"NAME" help:"Build target to open the project with (default: derived from the platform)"`
	ShowResults string `short:"r" name:"show-results" enum:"all,errors,none" default:"all" help:"The test results to display"`
	NoBatchMode bool   `name:"no-batch-mode" help:"Run with the graphics device enabled"`
	Forget      bool   `name:"forget-project-path" help:"Keep the project out of the launcher history"`
	Categories  string `placeholder:"LIST" help:"Semicolon-separated test categories to include"`
	Tests       string `placeholder:"LIST" help:"Semicolon-separated test names, or a regex over full names"`
	Assemblies  string `placeholder:"LIST" help:"Semicolon-separated test assemblies to include"`

	Quiet  bool `short:"q" help:"Suppress ucom messages"`
	DryRun bool `short:"n" help:"Show the command without executing it"`

	EditorArgs []string `arg:"" optional:"" passthrough:"" help:"Arguments passed directly to the editor"`
}

func (c *TestCmd) Run() error {
	start := time.Now()
	project, err := openProject(c.ProjectDir)
	if err != nil {
		return err
	}
	if err := project.CheckAssetsDir(); err != nil {
		return err
	}

	_, editorExe, err := editorForProject(project)
	if err != nil {
		return err
	}

	platform := testPlatforms[c.Platform]
	resultsPath := project.Join(fmt.Sprintf("tests-%s-%s.xml", platform.Name, start.Format("20060102150405")))
	cmd := c.editorCommand(editorExe, project.Path(), platform, resultsPath)

	if c.DryRun {
		fmt.Println(executil.CommandLine(cmd))
		return nil
	}

	if !c.Quiet {
		bold.Printf("Running %s tests for project in: %s\n", platform.Name, project.Path())
	}

	run := executil.RunAttached
	if c.Quiet {
		run = executil.RunQuiet
	}
	runErr := run(cmd)
	if runErr != nil {
		var procErr *ucomerrors.ProcessError
		if !errors.As(runErr, &procErr) || procErr.ExitCode != testsFailedExitCode {
			return runErr
		}
	}

	if _, err := os.Stat(resultsPath); err != nil {
		// The editor exits without an error when the project is open
		// elsewhere, and writes no results.
		return errors.New("no test results; is another editor instance running with this project open?")
	}

	testRun, err := nunit.ParseFile(resultsPath)
	if err != nil {
		return err
	}

	if !c.Quiet {
		c.printResults(testRun, resultsPath, time.Since(start))
	}

	if !testRun.Passed() {
		return fmt.Errorf("%d of %d tests failed", testRun.Stats.Failed, testRun.Stats.Total)
	}
	return nil
}

func (c *TestCmd) editorCommand(editorExe, projectPath string, platform testPlatform, resultsPath string) *exec.Cmd {
	buildTarget := c.Target
	if buildTarget == "" {
		buildTarget = platform.BuildTarget
	}

	args := []string{
		"-projectPath", projectPath,
		"-runTests",
		"-testPlatform", platform.Name,
		"-buildTarget", buildTarget,
	}
	if !c.NoBatchMode {
		args = append(args, "-batchmode")
	}
	if c.Forget {
		args = append(args, "-forgetProjectPath")
	}
	if c.Categories != "" {
		args = append(args, "-testCategory", c.Categories)
	}
	if c.Tests != "" {
		args = append(args, "-testFilter", c.Tests)
	}
	if c.Assemblies != "" {
		args = append(args, "-assemblyNames", c.Assemblies)
	}
	args = append(args, "-testResults", resultsPath)
	args = append(args, c.EditorArgs...)

	return exec.Command(editorExe, args...)
}

func (c *TestCmd) printResults(run *nunit.TestRun, resultsPath string, elapsed time.Duration) {
	fmt.Printf("Report: %s\n", resultsPath)

	var cases []nunit.TestCase
	switch c.ShowResults {
	case "all":
		cases = run.TestCases
	case "errors":
		cases = run.FailedCases()
	}

	if len(cases) > 0 {
		fmt.Println()
	}
	for _, testCase := range cases {
		line := fmt.Sprintf("%s: %s; finished in %.2fs", testCase.Result, testCase.FullName, testCase.Duration)
		if testCase.Result == nunit.ResultPassed {
			fmt.Println(line)
		} else {
			color.Red(line)
		}
	}

	fmt.Println()
	status := color.New(color.FgGreen, color.Bold)
	if !run.Passed() {
		status = color.New(color.FgRed, color.Bold)
	}
	status.Printf("%d total; %d passed; %d failed; %d inconclusive; %d skipped; %d asserts",
		run.Stats.Total, run.Stats.Passed, run.Stats.Failed,
		run.Stats.Inconclusive, run.Stats.Skipped, run.Stats.Asserts)
	fmt.Printf("; finished in %.2fs\n", elapsed.Seconds())
}
