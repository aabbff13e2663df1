// Package editor locates installed editor versions and inspects editor
// projects on disk.
package editor

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	ucomerrors "github.com/jakkovanhunen/ucom-sub000/core/errors"
)

// BuildType classifies an editor release. The ordering matters: a later
// constant sorts after an earlier one when comparing versions that only
// differ in release stage.
type BuildType int

const (
	BuildTypeAlpha BuildType = iota
	BuildTypeBeta
	BuildTypeReleaseCandidate
	BuildTypeFinal
	BuildTypeFinalPatch
)

// Tag returns the short tag used inside version strings ("f" in
// "2021.3.9f1").
func (b BuildType) Tag() string {
	switch b {
	case BuildTypeAlpha:
		return "a"
	case BuildTypeBeta:
		return "b"
	case BuildTypeReleaseCandidate:
		return "rc"
	case BuildTypeFinal:
		return "f"
	case BuildTypeFinalPatch:
		return "p"
	default:
		return "?"
	}
}

// String returns the long name of the build type.
func (b BuildType) String() string {
	switch b {
	case BuildTypeAlpha:
		return "Alpha"
	case BuildTypeBeta:
		return "Beta"
	case BuildTypeReleaseCandidate:
		return "ReleaseCandidate"
	case BuildTypeFinal:
		return "Final"
	case BuildTypeFinalPatch:
		return "FinalPatch"
	default:
		return "Unknown"
	}
}

func buildTypeFromTag(tag string) (BuildType, bool) {
	switch tag {
	case "a":
		return BuildTypeAlpha, true
	case "b":
		return BuildTypeBeta, true
	case "rc":
		return BuildTypeReleaseCandidate, true
	case "f":
		return BuildTypeFinal, true
	case "p":
		return BuildTypeFinalPatch, true
	default:
		return 0, false
	}
}

// Version is an editor version separated into its components, e.g.
// "2021.3.9f1" is major 2021, minor 3, patch 9, Final build 1.
type Version struct {
	Major int
	Minor int
	Patch int
	Type  BuildType
	Build int
}

// versionGrammar is the participle grammar for editor version strings.
// Examples: "2021.3.9f1", "2023.1.0b12", "2023.2.0rc1"
//
//nolint:govet // participle grammar tags are not standard struct tags
type versionGrammar struct {
	Major int    `@Int "."`
	Minor int    `@Int "."`
	Patch int    `@Int`
	Tag   string `@Tag`
	Build int    `@Int`
}

var versionLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Int", Pattern: `[0-9]+`},
	{Name: "Tag", Pattern: `rc|[abfp]`},
	{Name: "Punct", Pattern: `\.`},
})

var versionParser = participle.MustBuild[versionGrammar](
	participle.Lexer(versionLexer),
)

// ParseVersion parses an editor version string like "2021.3.9f1".
func ParseVersion(s string) (Version, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Version{}, ucomerrors.NewValidation("version", s, "empty version string")
	}

	parsed, err := versionParser.ParseString("", s)
	if err != nil {
		return Version{}, ucomerrors.NewValidation("version", s, "not a valid editor version")
	}

	buildType, ok := buildTypeFromTag(parsed.Tag)
	if !ok {
		return Version{}, ucomerrors.NewValidation("version", s, "unknown build type tag")
	}

	return Version{
		Major: parsed.Major,
		Minor: parsed.Minor,
		Patch: parsed.Patch,
		Type:  buildType,
		Build: parsed.Build,
	}, nil
}

// String formats the version back into its canonical form.
func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d%s%d", v.Major, v.Minor, v.Patch, v.Type.Tag(), v.Build)
}

// MajorMinor returns the "major.minor" prefix of the version.
func (v Version) MajorMinor() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// Compare orders two versions. It returns a negative number when v is
// older than other, zero when equal, and a positive number when newer.
func (v Version) Compare(other Version) int {
	if c := v.Major - other.Major; c != 0 {
		return c
	}
	if c := v.Minor - other.Minor; c != 0 {
		return c
	}
	if c := v.Patch - other.Patch; c != 0 {
		return c
	}
	if c := int(v.Type) - int(other.Type); c != 0 {
		return c
	}
	return v.Build - other.Build
}

// MarshalText implements encoding.TextMarshaler so versions serialize as
// their canonical string form.
func (v Version) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *Version) UnmarshalText(text []byte) error {
	parsed, err := ParseVersion(string(text))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
