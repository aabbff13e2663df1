// Package ipc talks to an already-running editor instance through a
// file-drop protocol inside the project's transient working area.
//
// The CLI writes a command file, the in-editor hook watches the command
// directory, performs the build, and writes a result file with the same
// correlation id. Files survive either side not running, and neither
// side opens a network listener.
package ipc

// Directory layout under the project root.
const (
	CommandDir = "Temp/ucom/commands"
	ResultDir  = "Temp/ucom/results"
)

// CommandBuild is the only command kind the protocol defines.
const CommandBuild = "build"

// Command is the envelope the CLI writes to request a build from the
// live editor. It is written once and never mutated; the CLI deletes
// the file after the result has been consumed.
type Command struct {
	Command   string `json:"command"`
	UUID      string `json:"uuid"`
	Timestamp string `json:"timestamp"`

	Platform     string `json:"platform"`
	OutputPath   string `json:"output_path"`
	LogPath      string `json:"log_path"`
	BuildOptions int    `json:"build_options"`

	DevelopmentBuild    bool `json:"development_build"`
	ForcePlatformSwitch bool `json:"force_platform_switch"`
	ForcePlayModeExit   bool `json:"force_play_mode_exit"`
}

// Status is the terminal state the editor reports.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
	StatusError   Status = "error"
)

// ErrorCodePlatformSwitchFailed marks a build that never started
// because the editor could not switch to the requested platform.
const ErrorCodePlatformSwitchFailed = "platform_switch_failed"

// Result is the envelope the editor writes when the build finishes.
// Written exactly once by the editor, read exactly once by the CLI.
type Result struct {
	UUID    string `json:"uuid"`
	Status  Status `json:"status"`
	Message string `json:"message"`

	ErrorCode string `json:"error_code,omitempty"`

	PlatformSwitched          bool    `json:"platform_switched"`
	OriginalPlatform          string  `json:"original_platform,omitempty"`
	SwitchedTo                string  `json:"switched_to,omitempty"`
	BuildTimeSeconds          float64 `json:"build_time_seconds"`
	PlatformSwitchTimeSeconds float64 `json:"platform_switch_time_seconds"`

	OutputPath    string `json:"output_path,omitempty"`
	BuildResult   string `json:"build_result,omitempty"`
	Platform      string `json:"platform,omitempty"`
	TotalSize     int64  `json:"total_size,omitempty"`
	TotalErrors   int    `json:"total_errors,omitempty"`
	TotalWarnings int    `json:"total_warnings,omitempty"`
}

// Succeeded reports whether the editor completed the build.
func (r *Result) Succeeded() bool {
	return r.Status == StatusSuccess
}
