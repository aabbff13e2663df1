package main

import (
	"fmt"
	"os/exec"

	"github.com/jakkovanhunen/ucom-sub000/core/editor"
	"github.com/jakkovanhunen/ucom-sub000/core/releases"
	"github.com/jakkovanhunen/ucom-sub000/internal/executil"
)

// RunCmd runs an editor with raw arguments, without a project.
type RunCmd struct {
	Unity string `short:"u" env:"UCOM_DEFAULT_VERSION" placeholder:"VERSION" help:"Editor version to run; a partial version picks the newest match"`

	Wait   bool `short:"w" help:"Wait for the editor to exit before returning"`
	Quiet  bool `short:"q" help:"Suppress ucom messages"`
	DryRun bool `short:"n" help:"Show the command without executing it"`

	EditorArgs []string `arg:"" passthrough:"" help:"Arguments passed directly to the editor"`
}

func (c *RunCmd) Run() error {
	runVersion, editorExe, err := latestEditor(c.Unity)
	if err != nil {
		return err
	}

	cmd := exec.Command(editorExe, c.EditorArgs...)
	if c.DryRun {
		fmt.Println(executil.CommandLine(cmd))
		return nil
	}

	if !c.Quiet {
		bold.Printf("Running editor %s\n", runVersion)
	}
	if c.Wait {
		return executil.RunAttached(cmd)
	}
	return executil.RunForget(cmd)
}

// OpenCmd opens a project in the editor.
type OpenCmd struct {
	ProjectDir string `arg:"" type:"existingdir" help:"Project directory"`

	Unity  string `short:"u" env:"UCOM_DEFAULT_VERSION" placeholder:"VERSION" help:"Editor version to open the project with; use it to open with a newer version"`
	Target string `short:"t" placeholder:"NAME" help:"Active build target to open the project with"`
	Quit   bool   `help:"Quit the editor after the project loaded"`

	Wait   bool `short:"w" help:"Wait for the editor to exit before returning"`
	Quiet  bool `short:"q" help:"Suppress ucom messages"`
	DryRun bool `short:"n" help:"Show the command without executing it"`

	EditorArgs []string `arg:"" optional:"" passthrough:"" help:"Arguments passed directly to the editor"`
}

func (c *OpenCmd) Run() error {
	project, err := openProject(c.ProjectDir)
	if err != nil {
		return err
	}
	if err := project.CheckAssetsDir(); err != nil {
		return err
	}

	var openVersion editor.Version
	var editorExe string
	if c.Unity != "" {
		openVersion, editorExe, err = latestEditor(c.Unity)
	} else {
		openVersion, editorExe, err = editorForProject(project)
	}
	if err != nil {
		return err
	}

	args := []string{"-projectPath", project.Path()}
	if c.Target != "" {
		args = append(args, "-buildTarget", c.Target)
	}
	if c.Quit {
		args = append(args, "-quit")
	}
	args = append(args, c.EditorArgs...)
	cmd := exec.Command(editorExe, args...)

	if c.DryRun {
		fmt.Println(executil.CommandLine(cmd))
		return nil
	}

	if !c.Quiet {
		bold.Printf("Opening %s project in: %s\n", openVersion, project.Path())
	}
	if c.Wait {
		return executil.RunAttached(cmd)
	}
	return executil.RunForget(cmd)
}

// ListCmd lists installed editor versions, available updates, or the
// latest releases per stream.
type ListCmd struct {
	Kind  string `arg:"" optional:"" enum:"installed,updates,latest" default:"installed" help:"What to list"`
	Unity string `short:"u" placeholder:"VERSION" help:"Versions to list; a partial version filters the result"`
}

func (c *ListCmd) Run() error {
	root, err := editor.InstallRoot()
	if err != nil {
		return err
	}
	installed, err := editor.FindInstallations(root)
	if err != nil {
		return err
	}
	if c.Unity != "" {
		installed, err = installed.FilterByPrefix(c.Unity)
		if err != nil {
			return err
		}
	}

	switch c.Kind {
	case "updates":
		return c.listUpdates(installed)
	case "latest":
		return c.listLatest(installed)
	default:
		return c.listInstalled(installed)
	}
}

func (c *ListCmd) listInstalled(installed *editor.Installations) error {
	bold.Printf("Installed editor versions in: %s\n", installed.Root)
	latest := installed.Latest()
	for _, v := range installed.Versions {
		marker := " "
		if v == latest {
			marker = "*"
		}
		fmt.Printf("%s %s - %s\n", marker, v, releases.NotesURL(v))
	}
	return nil
}

func (c *ListCmd) listUpdates(installed *editor.Installations) error {
	available, err := fetchReleases()
	if err != nil {
		return err
	}

	bold.Printf("Updates for editor versions in: %s\n", installed.Root)
	if available.SuggestedVersion != nil {
		fmt.Printf("%ssuggested version: %s\n", indent, *available.SuggestedVersion)
	}

	for _, v := range installed.Versions {
		stream := v.MajorMinor()
		newest, ok := available.Latest(func(r releases.Release) bool {
			return r.Version.MajorMinor() == stream
		})
		switch {
		case !ok || newest.Version.Compare(v) <= 0:
			fmt.Printf("  %s - up to date\n", v)
		default:
			yellow.Printf("  %s - update available: %s (%s)\n", v, newest.Version, releases.NotesURL(newest.Version))
		}
	}
	return nil
}

func (c *ListCmd) listLatest(installed *editor.Installations) error {
	available, err := fetchReleases()
	if err != nil {
		return err
	}

	bold.Println("Latest available releases per stream")
	seen := map[string]bool{}
	// Releases are sorted ascending; walk backwards so the first hit
	// per stream is the newest.
	for i := len(available.Releases) - 1; i >= 0; i-- {
		release := available.Releases[i]
		stream := release.Version.MajorMinor()
		if seen[stream] {
			continue
		}
		seen[stream] = true

		marker := " "
		if editor.IsInstalled(installed.Root, release.Version) {
			marker = "*"
		}
		fmt.Printf("%s %s - %s\n", marker, release.Version, releases.NotesURL(release.Version))
	}
	return nil
}

// fetchReleases pulls the full release listing through the cache.
func fetchReleases() (*releases.Releases, error) {
	client, closeCache, err := openReleaseClient()
	if err != nil {
		return nil, err
	}
	defer closeCache()
	return client.FetchAll(nil)
}
