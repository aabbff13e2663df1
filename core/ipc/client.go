package ipc

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shirou/gopsutil/v4/process"

	ucomerrors "github.com/jakkovanhunen/ucom-sub000/core/errors"
	"github.com/jakkovanhunen/ucom-sub000/core/editor"
	"github.com/jakkovanhunen/ucom-sub000/internal/fileutil"
	"github.com/jakkovanhunen/ucom-sub000/internal/logging"
)

// DefaultPollInterval is how often the client checks for a result file.
const DefaultPollInterval = 500 * time.Millisecond

// Client issues build commands to a live editor instance for one
// project.
type Client struct {
	project  *editor.Project
	interval time.Duration

	// hookInstalled reports whether the project carries the persistent
	// build hook the in-editor side of the protocol needs.
	hookInstalled func() bool
}

// NewClient returns a client for the project. hookInstalled is
// consulted before a command is written; a live editor without the hook
// cannot serve the protocol.
func NewClient(project *editor.Project, hookInstalled func() bool) *Client {
	return &Client{
		project:       project,
		interval:      DefaultPollInterval,
		hookInstalled: hookInstalled,
	}
}

// EditorRunning reports whether an editor process already has this
// project open. The check lists running processes and looks for one
// whose command line names the editor and this project path. Platforms
// where enumeration fails report false, which sends the caller down the
// batch path.
func (c *Client) EditorRunning() bool {
	procs, err := process.Processes()
	if err != nil {
		return false
	}

	projectPath := strings.ToLower(c.project.Path())
	for _, p := range procs {
		name, err := p.Name()
		if err != nil || !strings.Contains(strings.ToLower(name), "unity") {
			continue
		}
		args, err := p.CmdlineSlice()
		if err != nil {
			continue
		}
		for i, arg := range args {
			if strings.ToLower(arg) != "-projectpath" || i+1 >= len(args) {
				continue
			}
			if strings.ToLower(filepath.Clean(args[i+1])) == projectPath {
				return true
			}
		}
	}
	return false
}

// NewBuildCommand fills the envelope for one build with a fresh
// correlation id.
func NewBuildCommand(platform, outputPath, logPath string, options int, development bool) Command {
	return Command{
		Command:          CommandBuild,
		UUID:             uuid.New().String(),
		Timestamp:        time.Now().Format(time.RFC3339),
		Platform:         platform,
		OutputPath:       outputPath,
		LogPath:          logPath,
		BuildOptions:     options,
		DevelopmentBuild: development,
	}
}

// ExecuteBuild runs one command through the live editor: verify the
// hook, write the command file, poll for the matching result, and clean
// up both files. The poll has no timeout; editor builds are open-ended
// and the operator's interrupt is the only cancellation.
func (c *Client) ExecuteBuild(cmd Command) (*Result, error) {
	if !c.hookInstalled() {
		return nil, ucomerrors.NewProtocol(
			"the editor is running but the project does not contain the build hook",
			"install it with `ucom add builder` and restart the editor, or close the editor to build in batch mode",
		)
	}

	commandPath, err := c.writeCommand(cmd)
	if err != nil {
		return nil, err
	}

	logging.Debug("command file written, waiting for result", "uuid", cmd.UUID)
	fmt.Printf("Requesting build from running editor (id %s)\n", cmd.UUID)

	resultPath := filepath.Join(c.project.Join(ResultDir), resultFileName(cmd.UUID))
	result, err := c.awaitResult(resultPath, cmd.UUID)

	// Both protocol files are disposable once the result is in hand.
	// Failing to delete them never fails the build.
	for _, path := range []string{commandPath, resultPath} {
		if rmErr := os.Remove(path); rmErr != nil && !os.IsNotExist(rmErr) {
			logging.CleanupWarning("remove protocol file", path, rmErr)
		}
	}

	return result, err
}

func commandFileName(id string) string {
	return "build-" + id + ".json"
}

func resultFileName(id string) string {
	return "build-" + id + ".json"
}

// writeCommand serializes the command into the drop directory. The
// write goes to a temporary name and is renamed into place so the
// watching editor never observes a partial file.
func (c *Client) writeCommand(cmd Command) (string, error) {
	dir := c.project.Join(CommandDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", ucomerrors.Wrapf(err, "cannot create command directory %s", dir)
	}

	payload, err := json.MarshalIndent(cmd, "", "  ")
	if err != nil {
		return "", ucomerrors.Wrap(err, "cannot serialize build command")
	}

	path := filepath.Join(dir, commandFileName(cmd.UUID))
	if err := fileutil.WriteAtomic(path, payload, 0644); err != nil {
		return "", ucomerrors.Wrapf(err, "cannot write command file %s", path)
	}
	return path, nil
}

// awaitResult polls for the result file with the matching correlation
// id. Result files for other ids are left untouched.
func (c *Client) awaitResult(resultPath, id string) (*Result, error) {
	for {
		raw, err := os.ReadFile(resultPath)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, ucomerrors.Wrapf(err, "cannot read result file %s", resultPath)
			}
			time.Sleep(c.interval)
			continue
		}

		var result Result
		if err := json.Unmarshal(raw, &result); err != nil {
			return nil, ucomerrors.NewParse("result", resultPath, "invalid result file", err)
		}
		if result.UUID != id {
			// A result file under our name but with a foreign id is a
			// protocol violation, not ours to consume.
			return nil, ucomerrors.NewProtocol(
				fmt.Sprintf("result file %s carries correlation id %s, expected %s", resultPath, result.UUID, id),
				"remove stale files under "+c.project.Join(ResultDir)+" and retry",
			)
		}
		return &result, nil
	}
}
