package build

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/zeebo/blake3"

	ucomerrors "github.com/jakkovanhunen/ucom-sub000/core/errors"
	"github.com/jakkovanhunen/ucom-sub000/core/editor"
	"github.com/jakkovanhunen/ucom-sub000/internal/fileutil"
	"github.com/jakkovanhunen/ucom-sub000/internal/logging"
)

//go:embed assets/UcomBuilder.cs
var buildScript []byte

const (
	buildScriptName = "UcomBuilder.cs"

	// PersistentHookRoot is the directory the persistent hook lives in,
	// relative to the project.
	PersistentHookRoot = "Assets/Plugins/ucom"

	// PersistentHookPath is the persistent hook's script path, relative
	// to the project.
	PersistentHookPath = PersistentHookRoot + "/Editor/" + buildScriptName

	ephemeralHookPrefix = "Assets/ucom-"
)

// BuildScript returns the embedded hook script content.
func BuildScript() []byte {
	return buildScript
}

// HookActions is the pair of steps that bracket a batch build: Inject
// runs before the editor is spawned, Cleanup runs after it exits.
type HookActions struct {
	Inject  func() error
	Cleanup func() error
}

func noopHooks() HookActions {
	nop := func() error { return nil }
	return HookActions{Inject: nop, Cleanup: nop}
}

// HasPersistentHook reports whether the project contains the hook
// script at its fixed path with the expected content. Content equality
// is a hash comparison, so a stale or truncated copy counts as absent.
func HasPersistentHook(project *editor.Project) bool {
	existing, err := os.ReadFile(project.Join(PersistentHookPath))
	if err != nil {
		return false
	}
	return blake3.Sum256(existing) == blake3.Sum256(buildScript)
}

// PrepareHook returns the inject/cleanup pair for the requested policy.
//
// Ephemeral installs the script under a uniquely named disposable
// directory and removes it afterwards; a project that already carries
// the persistent hook is left alone. Persistent installs at the fixed
// path and keeps it. Off does nothing.
func PrepareHook(project *editor.Project, policy HookPolicy) HookActions {
	switch policy {
	case HookEphemeral:
		if HasPersistentHook(project) {
			return noopHooks()
		}
		root := fmt.Sprintf("%s%s", ephemeralHookPrefix, uuid.New())
		return HookActions{
			Inject:  func() error { return installHook(project.Join(root)) },
			Cleanup: func() error { return removeHook(project.Join(root)) },
		}

	case HookPersistent:
		if HasPersistentHook(project) {
			return noopHooks()
		}
		actions := noopHooks()
		actions.Inject = func() error { return installHook(project.Join(PersistentHookRoot)) }
		return actions

	default:
		return noopHooks()
	}
}

// InstallPersistentHook writes the hook script at its fixed path,
// replacing any outdated copy.
func InstallPersistentHook(project *editor.Project) error {
	if HasPersistentHook(project) {
		return nil
	}
	return installHook(project.Join(PersistentHookRoot))
}

// installHook writes the script under <root>/Editor/. The write goes to
// a temporary name first so a readable script file always has the full
// content.
func installHook(root string) error {
	scriptDir := filepath.Join(root, "Editor")
	if err := os.MkdirAll(scriptDir, 0755); err != nil {
		return ucomerrors.Wrapf(err, "cannot create hook directory %s", scriptDir)
	}

	scriptPath := filepath.Join(scriptDir, buildScriptName)
	fmt.Printf("Injecting build script %s\n", scriptPath)

	if err := fileutil.WriteAtomic(scriptPath, buildScript, 0644); err != nil {
		return ucomerrors.Wrapf(err, "cannot write build script %s", scriptPath)
	}
	return nil
}

// removeHook deletes the ephemeral hook directory and its sidecar .meta
// file. A directory that is already gone is fine.
func removeHook(root string) error {
	if _, err := os.Stat(root); err != nil {
		return nil
	}

	fmt.Printf("Removing temporary build script: %s\n", root)

	if err := os.RemoveAll(root); err != nil {
		return ucomerrors.Wrapf(err, "cannot remove directory %s", root)
	}

	meta := root + ".meta"
	if _, err := os.Stat(meta); err != nil {
		return nil
	}
	if err := os.Remove(meta); err != nil {
		logging.CleanupWarning("remove hook meta file", meta, err)
		return ucomerrors.Wrapf(err, "cannot remove %s", meta)
	}
	return nil
}
