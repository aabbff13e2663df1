package editor

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	ucomerrors "github.com/jakkovanhunen/ucom-sub000/core/errors"
)

const projectVersionFile = "ProjectSettings/ProjectVersion.txt"

// Project is a validated path to an editor project directory.
type Project struct {
	path string
}

// NewProject validates that dir contains an editor project and returns
// it with an absolute path.
func NewProject(dir string) (*Project, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, ucomerrors.Wrapf(err, "cannot resolve project path %s", dir)
	}

	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		return nil, ucomerrors.NewNotFound("project directory", abs, os.ErrNotExist)
	}
	if _, err := os.Stat(filepath.Join(abs, filepath.FromSlash(projectVersionFile))); err != nil {
		return nil, ucomerrors.NewValidation("project", abs, "directory does not contain an editor project")
	}

	return &Project{path: abs}, nil
}

// Path returns the absolute project directory.
func (p *Project) Path() string {
	return p.path
}

// Join returns a path inside the project directory. The elements use
// slashes and are converted to the platform separator.
func (p *Project) Join(elem ...string) string {
	parts := make([]string, 0, len(elem)+1)
	parts = append(parts, p.path)
	for _, e := range elem {
		parts = append(parts, filepath.FromSlash(e))
	}
	return filepath.Join(parts...)
}

// Version reads the editor version the project was last opened with
// from ProjectVersion.txt. The file looks like:
//
//	m_EditorVersion: 2021.3.9f1
//	m_EditorVersionWithRevision: 2021.3.9f1 (ad3870b89536)
func (p *Project) Version() (Version, error) {
	path := p.Join(projectVersionFile)
	file, err := os.Open(path)
	if err != nil {
		return Version{}, ucomerrors.Wrapf(err, "cannot read %s", path)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		value, found := strings.CutPrefix(line, "m_EditorVersion:")
		if !found {
			continue
		}
		version, err := ParseVersion(value)
		if err != nil {
			return Version{}, ucomerrors.NewParse("ProjectVersion", path, "invalid editor version", err)
		}
		return version, nil
	}
	if err := scanner.Err(); err != nil {
		return Version{}, ucomerrors.Wrapf(err, "cannot read %s", path)
	}
	return Version{}, ucomerrors.NewParse("ProjectVersion", path, "missing m_EditorVersion line", nil)
}

// CheckAssetsDir verifies that the project has an Assets directory.
// Launching the editor on a project without one silently creates it,
// which is rarely what the user wants.
func (p *Project) CheckAssetsDir() error {
	if _, err := os.Stat(p.Join("Assets")); err != nil {
		return ucomerrors.NewValidation("project", p.path, "project does not have an Assets directory")
	}
	return nil
}

// Settings is the subset of ProjectSettings.asset that is useful for
// reporting.
type Settings struct {
	PlayerSettings PlayerSettings `yaml:"PlayerSettings"`
}

type PlayerSettings struct {
	ProductName   string `yaml:"productName"`
	CompanyName   string `yaml:"companyName"`
	BundleVersion string `yaml:"bundleVersion"`
}

// LoadSettings reads ProjectSettings/ProjectSettings.asset.
func (p *Project) LoadSettings() (*Settings, error) {
	path := p.Join("ProjectSettings/ProjectSettings.asset")
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, ucomerrors.Wrapf(err, "cannot read %s", path)
	}

	var settings Settings
	if err := yaml.Unmarshal(stripAssetTags(raw), &settings); err != nil {
		return nil, ucomerrors.NewParse("ProjectSettings", path, "invalid settings file", err)
	}
	return &settings, nil
}

// stripAssetTags removes the serializer-specific YAML directives and
// document tags (%TAG !u! ..., --- !u!129 &1) that a strict parser
// rejects.
func stripAssetTags(raw []byte) []byte {
	lines := strings.Split(string(raw), "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		switch {
		case strings.HasPrefix(line, "%"):
			continue
		case strings.HasPrefix(line, "--- "):
			out = append(out, "---")
		default:
			out = append(out, line)
		}
	}
	return []byte(strings.Join(out, "\n"))
}
