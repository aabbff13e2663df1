package build

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jakkovanhunen/ucom-sub000/core/editor"
)

func testProject(t *testing.T) *editor.Project {
	t.Helper()
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "ProjectSettings"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "ProjectSettings", "ProjectVersion.txt"), []byte("m_EditorVersion: 2021.3.9f1\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(dir, "Assets"), 0755); err != nil {
		t.Fatal(err)
	}
	p, err := editor.NewProject(dir)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestTargetNames(t *testing.T) {
	tests := []struct {
		target     Target
		editorName string
		scriptName string
	}{
		{TargetWin32, "Win", "StandaloneWindows"},
		{TargetWin64, "Win64", "StandaloneWindows64"},
		{TargetMacOS, "OSXUniversal", "StandaloneOSX"},
		{TargetLinux64, "Linux64", "StandaloneLinux64"},
		{TargetIOS, "iOS", "iOS"},
		{TargetAndroid, "Android", "Android"},
		{TargetWebGL, "WebGL", "WebGL"},
	}

	for _, tt := range tests {
		t.Run(string(tt.target), func(t *testing.T) {
			if !tt.target.Valid() {
				t.Errorf("Valid() = false for %s", tt.target)
			}
			if got := tt.target.EditorName(); got != tt.editorName {
				t.Errorf("EditorName() = %s, want %s", got, tt.editorName)
			}
			if got := tt.target.ScriptName(); got != tt.scriptName {
				t.Errorf("ScriptName() = %s, want %s", got, tt.scriptName)
			}
		})
	}

	if Target("gameboy").Valid() {
		t.Error("Valid() = true for unknown target")
	}
}

func TestOptionFlags(t *testing.T) {
	tests := []struct {
		name string
		req  Request
		want Options
	}{
		{
			name: "no options",
			req:  Request{},
			want: OptionNone,
		},
		{
			name: "individual switches",
			req: Request{
				DevelopmentBuild: true,
				RunPlayer:        true,
				AllowDebugging:   true,
			},
			want: OptionDevelopment | OptionAutoRunPlayer | OptionAllowDebugging,
		},
		{
			name: "all switches",
			req: Request{
				DevelopmentBuild:    true,
				RunPlayer:           true,
				ShowBuiltPlayer:     true,
				AllowDebugging:      true,
				ConnectWithProfiler: true,
				DeepProfiling:       true,
				ConnectToHost:       true,
			},
			want: OptionDevelopment | OptionAutoRunPlayer | OptionShowBuiltPlayer |
				OptionAllowDebugging | OptionConnectWithProfiler |
				OptionEnableDeepProfilingSupport | OptionConnectToHost,
		},
		{
			name: "extra options",
			req: Request{
				ExtraOptions: []Options{OptionCompressWithLz4, OptionStrictMode},
			},
			want: OptionCompressWithLz4 | OptionStrictMode,
		},
		{
			name: "switch overlapping an extra option is not double counted",
			req: Request{
				DevelopmentBuild: true,
				ExtraOptions:     []Options{OptionDevelopment, OptionDetailedBuildReport},
			},
			want: OptionDevelopment | OptionDetailedBuildReport,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.req.OptionFlags(); got != tt.want {
				t.Errorf("OptionFlags() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestParseOption(t *testing.T) {
	option, err := ParseOption("detailed-build-report")
	if err != nil {
		t.Fatalf("ParseOption() error: %v", err)
	}
	if option != OptionDetailedBuildReport {
		t.Errorf("ParseOption() = %d, want %d", option, OptionDetailedBuildReport)
	}

	if _, err := ParseOption("turbo-mode"); err == nil {
		t.Error("ParseOption(turbo-mode) = nil error, want failure")
	}
}

func TestResolveOutputDir(t *testing.T) {
	project := testProject(t)

	t.Run("default layout", func(t *testing.T) {
		req := Request{Target: TargetLinux64, OutputType: OutputRelease}
		dir, err := req.ResolveOutputDir(project)
		if err != nil {
			t.Fatal(err)
		}
		want := project.Join("Builds", "Release", "Linux64")
		if dir != want {
			t.Errorf("ResolveOutputDir() = %s, want %s", dir, want)
		}
	})

	t.Run("explicit path", func(t *testing.T) {
		out := filepath.Join(t.TempDir(), "dist")
		req := Request{Target: TargetLinux64, OutputPath: out}
		dir, err := req.ResolveOutputDir(project)
		if err != nil {
			t.Fatal(err)
		}
		if dir != out {
			t.Errorf("ResolveOutputDir() = %s, want %s", dir, out)
		}
	})

	t.Run("project root rejected", func(t *testing.T) {
		req := Request{Target: TargetLinux64, OutputPath: project.Path()}
		if _, err := req.ResolveOutputDir(project); err == nil {
			t.Error("ResolveOutputDir() accepted the project root")
		}
	})
}

func TestResolveLogPath(t *testing.T) {
	project := testProject(t)

	t.Run("default name in Logs", func(t *testing.T) {
		req := Request{Target: TargetAndroid}
		path, err := req.ResolveLogPath(project)
		if err != nil {
			t.Fatal(err)
		}
		if want := project.Join("Logs", "Build-Android.log"); path != want {
			t.Errorf("ResolveLogPath() = %s, want %s", path, want)
		}
	})

	t.Run("bare filename lands in Logs", func(t *testing.T) {
		req := Request{Target: TargetAndroid, LogFile: "my.log"}
		path, err := req.ResolveLogPath(project)
		if err != nil {
			t.Fatal(err)
		}
		if want := project.Join("Logs", "my.log"); path != want {
			t.Errorf("ResolveLogPath() = %s, want %s", path, want)
		}
	})

	t.Run("full path kept", func(t *testing.T) {
		full := filepath.Join(t.TempDir(), "elsewhere.log")
		req := Request{Target: TargetAndroid, LogFile: full}
		path, err := req.ResolveLogPath(project)
		if err != nil {
			t.Fatal(err)
		}
		if path != full {
			t.Errorf("ResolveLogPath() = %s, want %s", path, full)
		}
	})
}

func TestEditorCommand(t *testing.T) {
	project := testProject(t)
	req := Request{
		Target:           TargetWin64,
		Mode:             ModeBatchNoGraphics,
		BuildFunction:    DefaultBuildFunction,
		DevelopmentBuild: true,
		PreBuildArgs:     "version=1.2.3",
		EditorArgs:       []string{"-customFlag"},
	}

	cmd := req.EditorCommand("/opt/unity/Editor/Unity", project, "/tmp/out", "/tmp/build.log")
	args := strings.Join(cmd.Args[1:], " ")

	wantParts := []string{
		"-projectPath " + project.Path(),
		"-buildTarget Win64",
		"-logFile /tmp/build.log",
		"-executeMethod " + DefaultBuildFunction,
		"--ucom-build-output /tmp/out",
		"--ucom-build-target StandaloneWindows64",
		"--ucom-build-options 1",
		"--ucom-pre-build-args version=1.2.3",
		"-batchmode -nographics -quit",
	}
	for _, part := range wantParts {
		if !strings.Contains(args, part) {
			t.Errorf("command line missing %q:\n%s", part, args)
		}
	}
	if !strings.HasSuffix(args, "-customFlag") {
		t.Errorf("pass-through arguments must come last: %s", args)
	}
}

func TestEditorCommandOmitsZeroOptions(t *testing.T) {
	project := testProject(t)
	req := Request{Target: TargetWebGL, Mode: ModeBatch, BuildFunction: DefaultBuildFunction}

	cmd := req.EditorCommand("/opt/unity/Editor/Unity", project, "/tmp/out", "/tmp/build.log")
	for _, arg := range cmd.Args {
		if arg == "--ucom-build-options" {
			t.Error("--ucom-build-options present for an empty bitmask")
		}
	}
}

func TestModeArgs(t *testing.T) {
	tests := []struct {
		mode  Mode
		want  []string
		batch bool
	}{
		{ModeBatchNoGraphics, []string{"-batchmode", "-nographics", "-quit"}, true},
		{ModeBatch, []string{"-batchmode", "-quit"}, true},
		{ModeEditorQuit, []string{"-quit"}, false},
		{ModeEditor, nil, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			got := tt.mode.Args()
			if len(got) != len(tt.want) {
				t.Fatalf("Args() = %v, want %v", got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("Args()[%d] = %s, want %s", i, got[i], tt.want[i])
				}
			}
			if tt.mode.IsBatch() != tt.batch {
				t.Errorf("IsBatch() = %v, want %v", tt.mode.IsBatch(), tt.batch)
			}
		})
	}
}
