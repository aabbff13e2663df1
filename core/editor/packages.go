package editor

import (
	"encoding/json"
	"os"

	ucomerrors "github.com/jakkovanhunen/ucom-sub000/core/errors"
)

// Manifest is the project's Packages/manifest.json.
type Manifest struct {
	Dependencies   map[string]string `json:"dependencies"`
	EnableLockFile *bool             `json:"enableLockFile"`
}

// PackageSource identifies where a resolved package came from.
type PackageSource string

const (
	SourceLocal        PackageSource = "local"
	SourceEmbedded     PackageSource = "embedded"
	SourceGit          PackageSource = "git"
	SourceLocalTarball PackageSource = "local-tarball"
	SourceRegistry     PackageSource = "registry"
	SourceBuiltin      PackageSource = "builtin"
)

// ShortString returns the single-letter marker used in package listings.
func (s PackageSource) ShortString() string {
	switch s {
	case SourceLocal:
		return "L"
	case SourceEmbedded:
		return "E"
	case SourceGit:
		return "G"
	case SourceLocalTarball:
		return "T"
	case SourceRegistry:
		return "R"
	case SourceBuiltin:
		return "B"
	default:
		return "?"
	}
}

// PackageInfo is one resolved entry in Packages/packages-lock.json.
type PackageInfo struct {
	Version      string            `json:"version"`
	Depth        int               `json:"depth"`
	Source       PackageSource     `json:"source"`
	Dependencies map[string]string `json:"dependencies"`
	URL          string            `json:"url"`
}

// Packages is the resolved package set from the lock file.
type Packages struct {
	Dependencies map[string]PackageInfo `json:"dependencies"`
}

// PackagesAvailability describes what package information a project
// exposes.
type PackagesAvailability int

const (
	// PackagesNoManifest means the project has no manifest file.
	PackagesNoManifest PackagesAvailability = iota
	// PackagesLockFileDisabled means the manifest disables the lock file.
	PackagesLockFileDisabled
	// PackagesNoLockFile means the manifest exists but no lock file does.
	PackagesNoLockFile
	// PackagesAvailable means the lock file was read successfully.
	PackagesAvailable
)

// LoadPackages reads the project's resolved packages. The availability
// value tells the caller which of the partial outcomes occurred; the
// package set is only non-nil for PackagesAvailable.
func (p *Project) LoadPackages() (PackagesAvailability, *Packages, error) {
	manifestPath := p.Join("Packages/manifest.json")
	raw, err := os.ReadFile(manifestPath)
	if err != nil {
		if os.IsNotExist(err) {
			return PackagesNoManifest, nil, nil
		}
		return PackagesNoManifest, nil, ucomerrors.Wrapf(err, "cannot read %s", manifestPath)
	}

	var manifest Manifest
	if err := json.Unmarshal(raw, &manifest); err != nil {
		return PackagesNoManifest, nil, ucomerrors.NewParse("manifest", manifestPath, "invalid manifest file", err)
	}
	if manifest.EnableLockFile != nil && !*manifest.EnableLockFile {
		return PackagesLockFileDisabled, nil, nil
	}

	lockPath := p.Join("Packages/packages-lock.json")
	raw, err = os.ReadFile(lockPath)
	if err != nil {
		if os.IsNotExist(err) {
			return PackagesNoLockFile, nil, nil
		}
		return PackagesNoLockFile, nil, ucomerrors.Wrapf(err, "cannot read %s", lockPath)
	}

	var packages Packages
	if err := json.Unmarshal(raw, &packages); err != nil {
		return PackagesNoLockFile, nil, ucomerrors.NewParse("packages-lock", lockPath, "invalid lock file", err)
	}
	return PackagesAvailable, &packages, nil
}
