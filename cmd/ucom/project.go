package main

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"github.com/jakkovanhunen/ucom-sub000/core/build"
	"github.com/jakkovanhunen/ucom-sub000/core/editor"
	"github.com/jakkovanhunen/ucom-sub000/core/releases"
)

// InfoCmd shows project information.
type InfoCmd struct {
	ProjectDir string `arg:"" optional:"" default:"." type:"existingdir" help:"Project directory"`
	Packages   string `short:"p" enum:"none,custom,all" default:"none" help:"Package listing detail (custom skips registry and builtin packages)"`
}

func (c *InfoCmd) Run() error {
	project, err := openProject(c.ProjectDir)
	if err != nil {
		return err
	}
	projectVersion, err := project.Version()
	if err != nil {
		return err
	}

	bold.Printf("Project info for: %s\n", project.Path())

	settings, err := project.LoadSettings()
	if err != nil {
		yellow.Printf("%scould not read project settings: %v\n", indent, err)
	} else {
		fmt.Printf("%sProduct name:  %s\n", indent, settings.PlayerSettings.ProductName)
		fmt.Printf("%sCompany name:  %s\n", indent, settings.PlayerSettings.CompanyName)
		fmt.Printf("%sVersion:       %s\n", indent, settings.PlayerSettings.BundleVersion)
	}

	root, rootErr := editor.InstallRoot()
	installed := rootErr == nil && editor.IsInstalled(root, projectVersion)
	marker := "*"
	if !installed {
		marker = "!"
	}
	fmt.Printf("%s Editor version: %s - %s\n", marker, projectVersion, releases.NotesURL(projectVersion))
	if !installed {
		yellow.Printf("%sversion %s is not installed\n", indent, projectVersion)
	}

	if build.HasPersistentHook(project) {
		fmt.Printf("%sBuild hook installed at: %s\n", indent, build.PersistentHookPath)
	}

	if c.Packages != "none" {
		c.printPackages(project)
	}
	return nil
}

func (c *InfoCmd) printPackages(project *editor.Project) {
	availability, packages, err := project.LoadPackages()
	if err != nil {
		yellow.Printf("%scould not read packages: %v\n", indent, err)
		return
	}

	switch availability {
	case editor.PackagesNoManifest:
		fmt.Printf("%sNo package manifest\n", indent)
		return
	case editor.PackagesLockFileDisabled:
		fmt.Printf("%sPackage lock file is disabled\n", indent)
		return
	case editor.PackagesNoLockFile:
		fmt.Printf("%sNo package lock file\n", indent)
		return
	}

	names := make([]string, 0, len(packages.Dependencies))
	for name := range packages.Dependencies {
		info := packages.Dependencies[name]
		if c.Packages == "custom" && (info.Source == editor.SourceRegistry || info.Source == editor.SourceBuiltin) {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	if len(names) == 0 {
		return
	}
	bold.Printf("%sPackages (L=local, E=embedded, G=git, T=tarball, R=registry, B=builtin)\n", indent)
	for _, name := range names {
		info := packages.Dependencies[name]
		fmt.Printf("%s%s %s (%s)\n", indent, info.Source.ShortString(), name, info.Version)
	}
}

// UpdatesCmd checks the release listing for updates to the version the
// project uses.
type UpdatesCmd struct {
	ProjectDir string `arg:"" optional:"" default:"." type:"existingdir" help:"Project directory"`
	Report     bool   `short:"r" help:"Print a Markdown report with the release notes of newer versions"`
}

func (c *UpdatesCmd) Run() error {
	project, err := openProject(c.ProjectDir)
	if err != nil {
		return err
	}
	projectVersion, err := project.Version()
	if err != nil {
		return err
	}

	client, closeCache, err := openReleaseClient()
	if err != nil {
		return err
	}
	defer closeCache()

	available, err := client.FetchAll(nil)
	if err != nil {
		return err
	}

	stream := projectVersion.MajorMinor()
	var newer []releases.Release
	for _, release := range available.Releases {
		if release.Version.MajorMinor() == stream && release.Version.Compare(projectVersion) > 0 {
			newer = append(newer, release)
		}
	}

	if c.Report {
		return c.printReport(client, project, projectVersion, newer)
	}

	bold.Printf("Updates for project in: %s\n", project.Path())
	fmt.Printf("%sUses version: %s\n", indent, projectVersion)
	if available.SuggestedVersion != nil {
		fmt.Printf("%sSuggested version: %s\n", indent, *available.SuggestedVersion)
	}
	if len(newer) == 0 {
		fmt.Printf("%sUp to date\n", indent)
		return nil
	}
	for _, release := range newer {
		yellow.Printf("%sUpdate available: %s (%s) - %s\n",
			indent, release.Version, release.ReleaseDate.Format("2006-01-02"), releases.NotesURL(release.Version))
	}
	return nil
}

// printReport writes a Markdown report with the notes of every release
// newer than the project's version.
func (c *UpdatesCmd) printReport(client *releases.Client, project *editor.Project, current editor.Version, newer []releases.Release) error {
	fmt.Printf("# Update report for %s\n\n", project.Path())
	fmt.Printf("Current version: %s\n", current)

	for _, release := range newer {
		fmt.Printf("\n## %s\n\n", release.Version)
		fmt.Printf("Released %s - [release notes](%s)\n", release.ReleaseDate.Format("2006-01-02"), releases.NotesURL(release.Version))

		notesURL := release.ReleaseNotes.URL
		if notesURL == "" {
			notesURL = releases.NotesURL(release.Version)
		}
		topics, err := client.FetchReleaseNotes(notesURL)
		if err != nil {
			fmt.Printf("\nCould not fetch release notes: %v\n", err)
			continue
		}
		for _, topic := range topics {
			fmt.Printf("\n### %s\n\n", topic.Header)
			for _, entry := range topic.Entries {
				fmt.Printf("- %s\n", entry)
			}
		}
	}
	return nil
}

//go:embed assets/unity.gitignore
var unityGitignore []byte

// AddCmd adds a template file to the project.
type AddCmd struct {
	Asset      string `arg:"" enum:"builder,gitignore" help:"The file to add (builder: persistent build hook, gitignore: Unity .gitignore)"`
	ProjectDir string `arg:"" optional:"" default:"." type:"existingdir" help:"Project directory"`

	Force   bool `short:"f" help:"Overwrite the file if it already exists"`
	Content bool `short:"c" help:"Print the file content instead of adding it"`
}

func (c *AddCmd) Run() error {
	if c.Content {
		switch c.Asset {
		case "builder":
			fmt.Print(string(build.BuildScript()))
		case "gitignore":
			fmt.Print(string(unityGitignore))
		}
		return nil
	}

	project, err := openProject(c.ProjectDir)
	if err != nil {
		return err
	}

	switch c.Asset {
	case "builder":
		destination := project.Join(build.PersistentHookPath)
		if !c.Force {
			if _, err := os.Stat(destination); err == nil {
				return fmt.Errorf("file already exists, add --force to overwrite: %s", destination)
			}
		}
		if err := build.InstallPersistentHook(project); err != nil {
			return err
		}
		fmt.Printf("Added: %s\n", build.PersistentHookPath)

	case "gitignore":
		destination := project.Join(".gitignore")
		if !c.Force {
			if _, err := os.Stat(destination); err == nil {
				return fmt.Errorf("file already exists, add --force to overwrite: %s", destination)
			}
		}
		if err := os.WriteFile(destination, unityGitignore, 0644); err != nil {
			return err
		}
		fmt.Println("Added: .gitignore")
	}
	return nil
}

// CacheCmd manages the download cache.
type CacheCmd struct {
	Clear CacheClearCmd `cmd:"" help:"Remove all cached downloads"`
	Show  CacheShowCmd  `cmd:"" help:"Show cache location and usage"`
}

type CacheClearCmd struct{}

func (c *CacheClearCmd) Run() error {
	cache, path, err := openDefaultCache()
	if err != nil {
		return err
	}
	defer cache.Close()

	if err := cache.Clear(); err != nil {
		return err
	}
	fmt.Printf("Cleared cache: %s\n", path)
	return nil
}

type CacheShowCmd struct{}

func (c *CacheShowCmd) Run() error {
	cache, path, err := openDefaultCache()
	if err != nil {
		return err
	}
	defer cache.Close()

	entries, size, err := cache.Stats()
	if err != nil {
		return err
	}

	state := "enabled"
	if !releases.CacheEnabledFromEnv() {
		state = "disabled (" + releases.EnvEnableCache + ")"
	}
	fmt.Printf("Cache: %s (%s)\n", path, state)
	fmt.Printf("%s%d entries, %s\n", indent, entries, formatSize(size))
	return nil
}

func openDefaultCache() (*releases.Cache, string, error) {
	path, err := releases.DefaultCachePath()
	if err != nil {
		return nil, "", err
	}
	cache, err := releases.OpenCache(path, releases.CacheEnabledFromEnv())
	if err != nil {
		return nil, "", err
	}
	return cache, path, nil
}

func formatSize(bytes int64) string {
	switch {
	case bytes >= 1<<20:
		return fmt.Sprintf("%.1f MiB", float64(bytes)/(1<<20))
	case bytes >= 1<<10:
		return fmt.Sprintf("%.1f KiB", float64(bytes)/(1<<10))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
