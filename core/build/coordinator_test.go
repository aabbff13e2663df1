package build

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"testing"

	"github.com/jakkovanhunen/ucom-sub000/core/editor"
	"github.com/jakkovanhunen/ucom-sub000/core/ipc"
)

// stubEditor writes an executable script that writes logContent to the
// path following -logFile and exits with the given code.
func stubEditor(t *testing.T, logContent string, exitCode int) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("test uses a shell script stub")
	}

	logFile := filepath.Join(t.TempDir(), "content.txt")
	if err := os.WriteFile(logFile, []byte(logContent), 0644); err != nil {
		t.Fatal(err)
	}

	script := "#!/bin/sh\n" +
		"log=\"\"\n" +
		"while [ $# -gt 0 ]; do\n" +
		"  if [ \"$1\" = \"-logFile\" ]; then log=\"$2\"; fi\n" +
		"  shift\n" +
		"done\n" +
		"mkdir -p \"$(dirname \"$log\")\"\n" +
		"cat " + logFile + " > \"$log\"\n" +
		"exit " + strconv.Itoa(exitCode) + "\n"

	path := filepath.Join(t.TempDir(), "unity-stub")
	if err := os.WriteFile(path, []byte(script), 0755); err != nil {
		t.Fatal(err)
	}
	return path
}

func testVersion(t *testing.T) editor.Version {
	t.Helper()
	v, err := editor.ParseVersion("2021.3.9f1")
	if err != nil {
		t.Fatal(err)
	}
	return v
}

func TestCoordinatorBatchSuccess(t *testing.T) {
	project := testProject(t)
	log := "Compiling scripts\n" +
		"[Builder] Build Report\n" +
		"    Build result: Succeeded\n" +
		"    Total size:   1024 bytes\n" +
		"\n" +
		"Exiting\n"

	var out bytes.Buffer
	coordinator := &Coordinator{
		Project:   project,
		Version:   testVersion(t),
		EditorExe: stubEditor(t, log, 0),
		Request: &Request{
			Target:        TargetLinux64,
			OutputType:    OutputRelease,
			Mode:          ModeBatchNoGraphics,
			BuildFunction: DefaultBuildFunction,
			Hook:          HookOff,
			Quiet:         true,
		},
		Out: &out,
	}

	outcome, err := coordinator.Run()
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if !outcome.Success {
		t.Error("outcome.Success = false, want true")
	}
	if !strings.Contains(out.String(), "Build succeeded") {
		t.Errorf("output missing success status:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "    Build result: Succeeded\n    Total size:   1024 bytes\n") {
		t.Errorf("output missing report block:\n%s", out.String())
	}
}

func TestCoordinatorBatchFailure(t *testing.T) {
	project := testProject(t)
	log := "Compiling scripts\n" +
		"error CS1002: ; expected\n" +
		"Exiting\n"

	var out bytes.Buffer
	coordinator := &Coordinator{
		Project:   project,
		Version:   testVersion(t),
		EditorExe: stubEditor(t, log, 2),
		Request: &Request{
			Target:        TargetLinux64,
			OutputType:    OutputRelease,
			Mode:          ModeBatchNoGraphics,
			BuildFunction: DefaultBuildFunction,
			Hook:          HookOff,
			Quiet:         true,
		},
		Out: &out,
	}

	outcome, err := coordinator.Run()
	if err == nil {
		t.Fatal("Run() = nil error, want failure")
	}
	if err.Error() != "error CS1002: ; expected" {
		t.Errorf("Run() error = %q, want %q", err.Error(), "error CS1002: ; expected")
	}
	if outcome == nil || outcome.Success {
		t.Error("outcome should report failure")
	}
	if !strings.Contains(out.String(), "Build failed") {
		t.Errorf("output missing failure status:\n%s", out.String())
	}
}

func TestCoordinatorSpawnFailure(t *testing.T) {
	project := testProject(t)

	coordinator := &Coordinator{
		Project:   project,
		Version:   testVersion(t),
		EditorExe: filepath.Join(t.TempDir(), "missing-editor"),
		Request: &Request{
			Target:        TargetLinux64,
			OutputType:    OutputRelease,
			Mode:          ModeBatch,
			BuildFunction: DefaultBuildFunction,
			Hook:          HookOff,
			Quiet:         true,
		},
		Out: &bytes.Buffer{},
	}

	if _, err := coordinator.Run(); err == nil {
		t.Fatal("Run() = nil error, want spawn failure")
	}
}

func TestCoordinatorDryRun(t *testing.T) {
	project := testProject(t)

	var out bytes.Buffer
	coordinator := &Coordinator{
		Project:   project,
		Version:   testVersion(t),
		EditorExe: "/opt/unity/Editor/Unity",
		Request: &Request{
			Target:        TargetWebGL,
			OutputType:    OutputRelease,
			Mode:          ModeBatch,
			BuildFunction: DefaultBuildFunction,
			Hook:          HookEphemeral,
			DryRun:        true,
		},
		Out: &out,
	}

	outcome, err := coordinator.Run()
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if !outcome.Success {
		t.Error("dry run outcome should be success")
	}
	line := out.String()
	for _, part := range []string{"/opt/unity/Editor/Unity", "-buildTarget WebGL", "-batchmode -quit"} {
		if !strings.Contains(line, part) {
			t.Errorf("dry run output missing %q:\n%s", part, line)
		}
	}
	// Dry run never touches the project tree.
	if dirs := hookDirs(t, project.Join("Assets")); len(dirs) != 0 {
		t.Errorf("dry run injected hooks: %v", dirs)
	}
}

// fakeRemote scripts the live-editor channel.
type fakeRemote struct {
	running bool
	result  *ipc.Result
	err     error

	executed *ipc.Command
}

func (f *fakeRemote) EditorRunning() bool { return f.running }

func (f *fakeRemote) ExecuteBuild(cmd ipc.Command) (*ipc.Result, error) {
	f.executed = &cmd
	if f.err != nil {
		return nil, f.err
	}
	result := *f.result
	result.UUID = cmd.UUID
	return &result, nil
}

func TestCoordinatorRemoteSuccess(t *testing.T) {
	project := testProject(t)
	remote := &fakeRemote{
		running: true,
		result: &ipc.Result{
			Status:           ipc.StatusSuccess,
			Message:          "Build completed",
			BuildTimeSeconds: 42.0,
			BuildResult:      "Succeeded",
		},
	}

	var out bytes.Buffer
	coordinator := &Coordinator{
		Project:   project,
		Version:   testVersion(t),
		EditorExe: "/opt/unity/Editor/Unity",
		Request: &Request{
			Target:           TargetAndroid,
			OutputType:       OutputRelease,
			Mode:             ModeBatch,
			BuildFunction:    DefaultBuildFunction,
			Hook:             HookEphemeral,
			DevelopmentBuild: true,
		},
		Remote: remote,
		Out:    &out,
	}

	outcome, err := coordinator.Run()
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if !outcome.Success || !outcome.Remote {
		t.Errorf("outcome = %+v, want remote success", outcome)
	}

	if remote.executed == nil {
		t.Fatal("no command was sent to the remote editor")
	}
	if remote.executed.Platform != "Android" {
		t.Errorf("command platform = %s, want Android", remote.executed.Platform)
	}
	if remote.executed.BuildOptions != int(OptionDevelopment) {
		t.Errorf("command options = %d, want %d", remote.executed.BuildOptions, OptionDevelopment)
	}
	if !remote.executed.DevelopmentBuild {
		t.Error("command development_build = false, want true")
	}
	if !strings.Contains(out.String(), "Build succeeded") {
		t.Errorf("output missing success status:\n%s", out.String())
	}
}

func TestCoordinatorRemotePlatformSwitchFailure(t *testing.T) {
	project := testProject(t)
	remote := &fakeRemote{
		running: true,
		result: &ipc.Result{
			Status:    ipc.StatusError,
			Message:   "Switching platform failed",
			ErrorCode: ipc.ErrorCodePlatformSwitchFailed,
		},
	}

	coordinator := &Coordinator{
		Project:   project,
		Version:   testVersion(t),
		EditorExe: "/opt/unity/Editor/Unity",
		Request: &Request{
			Target:        TargetIOS,
			OutputType:    OutputRelease,
			Mode:          ModeBatch,
			BuildFunction: DefaultBuildFunction,
			Hook:          HookEphemeral,
		},
		Remote: remote,
		Out:    &bytes.Buffer{},
	}

	_, err := coordinator.Run()
	if err == nil {
		t.Fatal("Run() = nil error, want platform switch failure")
	}
	for _, part := range []string{"Switching platform failed", "build module", "play mode"} {
		if !strings.Contains(err.Error(), part) {
			t.Errorf("error missing %q:\n%s", part, err.Error())
		}
	}
}

func TestCoordinatorRemoteErrorPropagates(t *testing.T) {
	project := testProject(t)
	wantErr := errors.New("protocol violation")
	remote := &fakeRemote{running: true, err: wantErr}

	coordinator := &Coordinator{
		Project:   project,
		Version:   testVersion(t),
		EditorExe: "/opt/unity/Editor/Unity",
		Request: &Request{
			Target:        TargetWin64,
			OutputType:    OutputRelease,
			Mode:          ModeBatch,
			BuildFunction: DefaultBuildFunction,
			Hook:          HookEphemeral,
		},
		Remote: remote,
		Out:    &bytes.Buffer{},
	}

	if _, err := coordinator.Run(); !errors.Is(err, wantErr) {
		t.Errorf("Run() error = %v, want %v", err, wantErr)
	}
}
