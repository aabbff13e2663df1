// Package build orchestrates editor builds, either through a live
// editor instance or a batch subprocess.
package build

import (
	"os/exec"
	"path/filepath"
	"strconv"

	ucomerrors "github.com/jakkovanhunen/ucom-sub000/core/errors"
	"github.com/jakkovanhunen/ucom-sub000/core/editor"
)

// Target is the build platform as the user names it on the command
// line.
type Target string

const (
	TargetWin32   Target = "win32"
	TargetWin64   Target = "win64"
	TargetMacOS   Target = "macos"
	TargetLinux64 Target = "linux64"
	TargetIOS     Target = "ios"
	TargetAndroid Target = "android"
	TargetWebGL   Target = "webgl"
)

// EditorName returns the -buildTarget value the editor expects.
func (t Target) EditorName() string {
	switch t {
	case TargetWin32:
		return "Win"
	case TargetWin64:
		return "Win64"
	case TargetMacOS:
		return "OSXUniversal"
	case TargetLinux64:
		return "Linux64"
	case TargetIOS:
		return "iOS"
	case TargetAndroid:
		return "Android"
	case TargetWebGL:
		return "WebGL"
	default:
		return string(t)
	}
}

// ScriptName returns the BuildTarget enum name used by the in-project
// build hook.
func (t Target) ScriptName() string {
	switch t {
	case TargetWin32:
		return "StandaloneWindows"
	case TargetWin64:
		return "StandaloneWindows64"
	case TargetMacOS:
		return "StandaloneOSX"
	case TargetLinux64:
		return "StandaloneLinux64"
	case TargetIOS:
		return "iOS"
	case TargetAndroid:
		return "Android"
	case TargetWebGL:
		return "WebGL"
	default:
		return string(t)
	}
}

// Valid reports whether t is a known build target.
func (t Target) Valid() bool {
	switch t {
	case TargetWin32, TargetWin64, TargetMacOS, TargetLinux64, TargetIOS, TargetAndroid, TargetWebGL:
		return true
	default:
		return false
	}
}

// Mode selects how the editor process runs the build.
type Mode string

const (
	// ModeBatch runs the editor in batch mode with graphics.
	ModeBatch Mode = "batch"
	// ModeBatchNoGraphics runs the editor headless.
	ModeBatchNoGraphics Mode = "batch-nogfx"
	// ModeEditorQuit opens the editor, builds, and quits.
	ModeEditorQuit Mode = "editor-quit"
	// ModeEditor opens the editor, builds, and stays open.
	ModeEditor Mode = "editor"
)

// Args returns the mode's editor flags.
func (m Mode) Args() []string {
	switch m {
	case ModeBatchNoGraphics:
		return []string{"-batchmode", "-nographics", "-quit"}
	case ModeBatch:
		return []string{"-batchmode", "-quit"}
	case ModeEditorQuit:
		return []string{"-quit"}
	default:
		return nil
	}
}

// IsBatch reports whether the mode runs without an interactive editor
// window, which decides whether log tailing is useful.
func (m Mode) IsBatch() bool {
	return m == ModeBatch || m == ModeBatchNoGraphics
}

// OutputType names the subdirectory builds land in when no output path
// is given.
type OutputType string

const (
	OutputRelease OutputType = "release"
	OutputDebug   OutputType = "debug"
)

// DirName returns the capitalized directory name.
func (o OutputType) DirName() string {
	switch o {
	case OutputDebug:
		return "Debug"
	default:
		return "Release"
	}
}

// Options is the editor's BuildOptions bitmask.
type Options int32

const (
	OptionNone                                Options = 0
	OptionDevelopment                         Options = 1
	OptionAutoRunPlayer                       Options = 4
	OptionShowBuiltPlayer                     Options = 8
	OptionBuildAdditionalStreamedScenes       Options = 16
	OptionAcceptExternalModificationsToPlayer Options = 32
	OptionCleanBuildCache                     Options = 128
	OptionConnectWithProfiler                 Options = 256
	OptionAllowDebugging                      Options = 512
	OptionSymlinkSources                      Options = 1024
	OptionUncompressedAssetBundle             Options = 2048
	OptionConnectToHost                       Options = 4096
	OptionCustomConnectionID                  Options = 8192
	OptionBuildScriptsOnly                    Options = 32768
	OptionPatchPackage                        Options = 65536
	OptionCompressWithLz4                     Options = 262144
	OptionCompressWithLz4HC                   Options = 524288
	OptionStrictMode                          Options = 2097152
	OptionIncludeTestAssemblies               Options = 4194304
	OptionNoUniqueIdentifier                  Options = 8388608
	OptionWaitForPlayerConnection             Options = 33554432
	OptionEnableCodeCoverage                  Options = 67108864
	OptionEnableDeepProfilingSupport          Options = 268435456
	OptionDetailedBuildReport                 Options = 536870912
	OptionShaderLivelinkSupport               Options = 1073741824
)

// optionNames maps the command-line spelling of each option to its
// flag value.
var optionNames = map[string]Options{
	"none":                                     OptionNone,
	"development":                              OptionDevelopment,
	"auto-run-player":                          OptionAutoRunPlayer,
	"show-built-player":                        OptionShowBuiltPlayer,
	"build-additional-streamed-scenes":         OptionBuildAdditionalStreamedScenes,
	"accept-external-modifications-to-player":  OptionAcceptExternalModificationsToPlayer,
	"clean-build-cache":                        OptionCleanBuildCache,
	"connect-with-profiler":                    OptionConnectWithProfiler,
	"allow-debugging":                          OptionAllowDebugging,
	"symlink-sources":                          OptionSymlinkSources,
	"uncompressed-asset-bundle":                OptionUncompressedAssetBundle,
	"connect-to-host":                          OptionConnectToHost,
	"custom-connection-id":                     OptionCustomConnectionID,
	"build-scripts-only":                       OptionBuildScriptsOnly,
	"patch-package":                            OptionPatchPackage,
	"compress-with-lz4":                        OptionCompressWithLz4,
	"compress-with-lz4-hc":                     OptionCompressWithLz4HC,
	"strict-mode":                              OptionStrictMode,
	"include-test-assemblies":                  OptionIncludeTestAssemblies,
	"no-unique-identifier":                     OptionNoUniqueIdentifier,
	"wait-for-player-connection":               OptionWaitForPlayerConnection,
	"enable-code-coverage":                     OptionEnableCodeCoverage,
	"enable-deep-profiling-support":            OptionEnableDeepProfilingSupport,
	"detailed-build-report":                    OptionDetailedBuildReport,
	"shader-livelink-support":                  OptionShaderLivelinkSupport,
}

// ParseOption resolves a command-line option name to its flag value.
func ParseOption(name string) (Options, error) {
	option, ok := optionNames[name]
	if !ok {
		return 0, ucomerrors.NewValidation("build-options", name, "unknown build option")
	}
	return option, nil
}

// HookPolicy selects how the build hook asset is installed into the
// project for the duration of a build.
type HookPolicy string

const (
	// HookEphemeral installs into a unique disposable directory and
	// removes it afterwards, unless the persistent hook already exists.
	HookEphemeral HookPolicy = "auto"
	// HookPersistent installs at the fixed path and leaves it there.
	HookPersistent HookPolicy = "persistent"
	// HookOff assumes the project already has a build entry point.
	HookOff HookPolicy = "off"
)

// Request describes one build invocation. It is assembled by the CLI
// layer and not modified afterwards.
type Request struct {
	Target     Target
	OutputPath string
	OutputType OutputType
	LogFile    string

	DevelopmentBuild    bool
	RunPlayer           bool
	ShowBuiltPlayer     bool
	AllowDebugging      bool
	ConnectWithProfiler bool
	DeepProfiling       bool
	ConnectToHost       bool
	ExtraOptions        []Options

	// PreBuildArgs is passed through verbatim to project-side hooks.
	PreBuildArgs string

	BuildFunction string
	Mode          Mode
	Hook          HookPolicy

	Clean  bool
	Quiet  bool
	DryRun bool

	// EditorArgs is appended verbatim to the editor command line.
	EditorArgs []string
}

// DefaultBuildFunction is the static method the batch invocation calls
// inside the project.
const DefaultBuildFunction = "Ucom.UnityBuilder.Build"

// OptionFlags folds the request's individual switches and the extra
// option list into one bitmask. Switches that overlap an explicitly
// listed option are ORed, so nothing is counted twice.
func (r *Request) OptionFlags() Options {
	var flags Options
	if r.RunPlayer {
		flags |= OptionAutoRunPlayer
	}
	if r.DevelopmentBuild {
		flags |= OptionDevelopment
	}
	if r.ShowBuiltPlayer {
		flags |= OptionShowBuiltPlayer
	}
	if r.AllowDebugging {
		flags |= OptionAllowDebugging
	}
	if r.ConnectWithProfiler {
		flags |= OptionConnectWithProfiler
	}
	if r.DeepProfiling {
		flags |= OptionEnableDeepProfilingSupport
	}
	if r.ConnectToHost {
		flags |= OptionConnectToHost
	}
	for _, o := range r.ExtraOptions {
		flags |= o
	}
	return flags
}

// ResolveOutputDir returns the absolute output directory, defaulting to
// <project>/Builds/<type>/<target>. The project root itself is not a
// valid output directory.
func (r *Request) ResolveOutputDir(project *editor.Project) (string, error) {
	var dir string
	if r.OutputPath != "" {
		abs, err := filepath.Abs(r.OutputPath)
		if err != nil {
			return "", ucomerrors.Wrapf(err, "cannot resolve output path %s", r.OutputPath)
		}
		dir = abs
	} else {
		dir = project.Join("Builds", r.OutputType.DirName(), r.Target.EditorName())
	}

	if dir == project.Path() {
		return "", ucomerrors.NewValidation("output", dir, "output directory cannot be the project directory")
	}
	return dir, nil
}

// ResolveLogPath returns the absolute log file path. A bare file name
// lands in the project's Logs directory; the default name is
// Build-<target>.log.
func (r *Request) ResolveLogPath(project *editor.Project) (string, error) {
	logFile := r.LogFile
	if logFile == "" {
		logFile = "Build-" + r.Target.EditorName() + ".log"
	}

	if filepath.Base(logFile) == logFile {
		return project.Join("Logs", logFile), nil
	}

	abs, err := filepath.Abs(logFile)
	if err != nil {
		return "", ucomerrors.Wrapf(err, "cannot resolve log path %s", logFile)
	}
	return abs, nil
}

// EditorCommand assembles the batch subprocess invocation.
func (r *Request) EditorCommand(editorExe string, project *editor.Project, outputDir, logPath string) *exec.Cmd {
	args := []string{
		"-projectPath", project.Path(),
		"-buildTarget", r.Target.EditorName(),
		"-logFile", logPath,
		"-executeMethod", r.BuildFunction,
		"--ucom-build-output", outputDir,
		"--ucom-build-target", r.Target.ScriptName(),
	}

	if flags := r.OptionFlags(); flags != OptionNone {
		args = append(args, "--ucom-build-options", strconv.Itoa(int(flags)))
	}
	if r.PreBuildArgs != "" {
		args = append(args, "--ucom-pre-build-args", r.PreBuildArgs)
	}

	args = append(args, r.Mode.Args()...)
	args = append(args, r.EditorArgs...)

	return exec.Command(editorExe, args...)
}
