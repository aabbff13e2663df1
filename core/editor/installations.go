package editor

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	ucomerrors "github.com/jakkovanhunen/ucom-sub000/core/errors"
)

// EnvEditorDir overrides the directory that editor installations are
// discovered in.
const EnvEditorDir = "UCOM_EDITOR_DIR"

// executableSubPath is the path from an installation's version directory
// to the editor executable.
func executableSubPath() string {
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join("Unity.app", "Contents", "MacOS", "Unity")
	case "windows":
		return filepath.Join("Editor", "Unity.exe")
	default:
		return filepath.Join("Editor", "Unity")
	}
}

// defaultInstallRoot is where the hub installs editors when no override
// is set.
func defaultInstallRoot() (string, error) {
	switch runtime.GOOS {
	case "darwin":
		return "/Applications/Unity/Hub/Editor", nil
	case "windows":
		return `C:\Program Files\Unity\Hub\Editor`, nil
	case "linux":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", ucomerrors.Wrap(err, "cannot determine home directory")
		}
		return filepath.Join(home, "Unity", "Hub", "Editor"), nil
	default:
		return "", fmt.Errorf("no default editor directory on %s, set %s", runtime.GOOS, EnvEditorDir)
	}
}

// InstallRoot resolves the parent directory of editor installations. The
// environment override wins; either way the directory must exist.
func InstallRoot() (string, error) {
	if dir := os.Getenv(EnvEditorDir); dir != "" {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			return "", ucomerrors.NewValidation(EnvEditorDir, dir, "not a valid directory")
		}
		return dir, nil
	}

	dir, err := defaultInstallRoot()
	if err != nil {
		return "", err
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return "", ucomerrors.NewNotFound("editor directory", dir, os.ErrNotExist)
	}
	return dir, nil
}

// Installations is the set of editor versions found under a single
// parent directory, sorted from oldest to newest.
type Installations struct {
	Root     string
	Versions []Version
}

// FindInstallations scans root for version-named directories that
// contain an editor executable. It fails when none are found.
func FindInstallations(root string) (*Installations, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, ucomerrors.Wrapf(err, "cannot read editor directory %s", root)
	}

	var versions []Version
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		version, err := ParseVersion(entry.Name())
		if err != nil {
			continue
		}
		exe := filepath.Join(root, entry.Name(), executableSubPath())
		if _, err := os.Stat(exe); err != nil {
			continue
		}
		versions = append(versions, version)
	}

	if len(versions) == 0 {
		return nil, ucomerrors.NewNotFound("editor installations", root, ucomerrors.ErrNotInstalled)
	}

	sort.Slice(versions, func(i, j int) bool {
		return versions[i].Compare(versions[j]) < 0
	})

	return &Installations{Root: root, Versions: versions}, nil
}

// FilterByPrefix keeps versions whose string form starts with prefix,
// e.g. "2021" or "2021.3". An empty prefix keeps everything.
func (l *Installations) FilterByPrefix(prefix string) (*Installations, error) {
	if prefix == "" {
		return l, nil
	}

	var matched []Version
	for _, v := range l.Versions {
		if strings.HasPrefix(v.String(), prefix) {
			matched = append(matched, v)
		}
	}
	if len(matched) == 0 {
		return nil, ucomerrors.NewNotFound("editor installation matching", prefix, ucomerrors.ErrNotInstalled)
	}
	return &Installations{Root: l.Root, Versions: matched}, nil
}

// Latest returns the newest version in the list.
func (l *Installations) Latest() Version {
	return l.Versions[len(l.Versions)-1]
}

// ExecutablePath returns the path to the editor executable of the given
// version under root, failing when the version is not installed.
func ExecutablePath(root string, v Version) (string, error) {
	exe := filepath.Join(root, v.String(), executableSubPath())
	if _, err := os.Stat(exe); err != nil {
		return "", ucomerrors.NewNotFound("editor version", v.String(), ucomerrors.ErrNotInstalled)
	}
	return exe, nil
}

// IsInstalled reports whether the version has an installation directory
// under root.
func IsInstalled(root string, v Version) bool {
	_, err := os.Stat(filepath.Join(root, v.String()))
	return err == nil
}

// LatestInstalled returns the newest installed version matching the
// optional prefix.
func LatestInstalled(root, prefix string) (Version, error) {
	list, err := FindInstallations(root)
	if err != nil {
		return Version{}, err
	}
	list, err = list.FilterByPrefix(prefix)
	if err != nil {
		return Version{}, err
	}
	return list.Latest(), nil
}
