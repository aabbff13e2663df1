// Command ucom is a command-line interface for Unity projects.
// It builds, tests, runs, and inspects projects, and tracks editor
// releases.
package main

import (
	"fmt"

	"github.com/alecthomas/kong"
	"github.com/fatih/color"

	"github.com/jakkovanhunen/ucom-sub000/core/editor"
	ucomerrors "github.com/jakkovanhunen/ucom-sub000/core/errors"
	"github.com/jakkovanhunen/ucom-sub000/core/releases"
	"github.com/jakkovanhunen/ucom-sub000/internal/logging"
)

const version = "0.5.0"

const indent = "  "

// CLI defines the command-line interface for ucom.
var CLI struct {
	// Global flags
	LogLevel string `name:"log-level" help:"Log level (debug, info, warn, error)" default:"warn"`

	Build   BuildCmd   `cmd:"" help:"Build the project for a target platform"`
	Test    TestCmd    `cmd:"" help:"Run the project's tests and report the results"`
	Run     RunCmd     `cmd:"" aliases:"r" help:"Run the editor with the given arguments"`
	Open    OpenCmd    `cmd:"" aliases:"o" help:"Open the project in the editor"`
	List    ListCmd    `cmd:"" help:"List installed editor versions or available updates"`
	Info    InfoCmd    `cmd:"" help:"Show project information"`
	Updates UpdatesCmd `cmd:"" help:"Check for editor updates to the project's version"`
	Add     AddCmd     `cmd:"" help:"Add a build hook or config file to the project"`
	Cache   CacheCmd   `cmd:"" help:"Manage the download cache"`
	Version VersionCmd `cmd:"" help:"Print version information"`
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Printf("ucom %s\n", version)
	return nil
}

var (
	bold   = color.New(color.Bold)
	yellow = color.New(color.FgYellow)
)

// openProject validates dir as a project root.
func openProject(dir string) (*editor.Project, error) {
	return editor.NewProject(dir)
}

// editorForProject resolves the editor executable for the version the
// project was last opened with.
func editorForProject(project *editor.Project) (editor.Version, string, error) {
	projectVersion, err := project.Version()
	if err != nil {
		return editor.Version{}, "", err
	}

	root, err := editor.InstallRoot()
	if err != nil {
		return editor.Version{}, "", err
	}

	exe, err := editor.ExecutablePath(root, projectVersion)
	if err != nil {
		return editor.Version{}, "", ucomerrors.Wrapf(err,
			"project uses version %s which is not installed", projectVersion)
	}
	return projectVersion, exe, nil
}

// latestEditor resolves the newest installed editor matching the
// pattern; an empty pattern matches everything.
func latestEditor(pattern string) (editor.Version, string, error) {
	root, err := editor.InstallRoot()
	if err != nil {
		return editor.Version{}, "", err
	}

	latest, err := editor.LatestInstalled(root, pattern)
	if err != nil {
		return editor.Version{}, "", err
	}

	exe, err := editor.ExecutablePath(root, latest)
	if err != nil {
		return editor.Version{}, "", err
	}
	return latest, exe, nil
}

// openReleaseClient opens a release API client backed by the default
// cache location.
func openReleaseClient() (*releases.Client, func(), error) {
	path, err := releases.DefaultCachePath()
	if err != nil {
		return nil, nil, err
	}
	cache, err := releases.OpenCache(path, releases.CacheEnabledFromEnv())
	if err != nil {
		return nil, nil, err
	}
	return releases.NewClient(cache), func() { cache.Close() }, nil
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("ucom"),
		kong.Description("Unity Commander - a command line interface for Unity projects"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)
	logging.InitLogger(logging.ParseLevel(CLI.LogLevel), logging.FormatText)
	err := ctx.Run(ctx)
	ctx.FatalIfErrorf(err)
}
