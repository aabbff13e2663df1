package main

import (
	"errors"
	"fmt"

	"github.com/jakkovanhunen/ucom-sub000/core/build"
	"github.com/jakkovanhunen/ucom-sub000/core/ipc"
)

// BuildCmd builds the project for a target platform.
type BuildCmd struct {
	Target     string `arg:"" env:"UCOM_BUILD_TARGET" enum:"win32,win64,macos,linux64,ios,android,webgl" help:"Target platform for the build"`
	ProjectDir string `arg:"" optional:"" default:"." type:"existingdir" help:"Project directory"`

	Output     string `short:"o" placeholder:"DIRECTORY" help:"Output directory (default: <PROJECT_DIR>/Builds/<TYPE>/<TARGET>)"`
	OutputType string `short:"t" name:"type" enum:"release,debug" default:"release" help:"Output type used in the default output directory"`

	RunPlayer           bool     `short:"r" name:"run" help:"Run the built player (same as --build-options auto-run-player)"`
	Development         bool     `short:"d" help:"Build a development version"`
	Show                bool     `short:"S" help:"Show the built player"`
	Debugging           bool     `short:"D" help:"Allow remote script debugging"`
	Profiling           bool     `short:"p" help:"Connect to the editor profiler"`
	DeepProfiling       bool     `short:"P" help:"Enable deep profiling support"`
	ConnectHost         bool     `short:"H" help:"Connect the player to the editor"`
	BuildOptions        []string `short:"O" placeholder:"OPTION" help:"Extra build options"`
	BuildArgs           string   `short:"a" placeholder:"STRING" help:"Custom argument string for pre-build hooks"`
	Clean               bool     `short:"C" help:"Remove unused files from the output directory"`
	Inject              string   `short:"i" enum:"auto,persistent,off" default:"auto" help:"Build hook injection method"`
	Mode                string   `short:"m" enum:"batch,batch-nogfx,editor-quit,editor" default:"batch" help:"Build mode"`
	BuildFunction       string   `short:"f" default:"Ucom.UnityBuilder.Build" placeholder:"FUNCTION" help:"Static build method in the project"`
	LogFile             string   `short:"l" placeholder:"FILE" help:"Log file for the build output (default: <PROJECT_DIR>/Logs)"`
	Batch               bool     `name:"batch-only" help:"Always build in a subprocess, even when the editor is open"`
	ForcePlatformSwitch bool     `help:"Let an open editor switch platforms to serve the build"`
	ForcePlayModeExit   bool     `help:"Let an open editor exit play mode to serve the build"`

	Quiet  bool `short:"q" help:"Suppress build log output"`
	DryRun bool `short:"n" help:"Show the command without executing it"`

	EditorArgs []string `arg:"" optional:"" passthrough:"" help:"Arguments passed directly to the editor"`
}

func (c *BuildCmd) Run() error {
	project, err := openProject(c.ProjectDir)
	if err != nil {
		return err
	}
	if err := project.CheckAssetsDir(); err != nil {
		return err
	}

	projectVersion, editorExe, err := editorForProject(project)
	if err != nil {
		return err
	}

	request, err := c.buildRequest()
	if err != nil {
		return err
	}

	coordinator := &build.Coordinator{
		Project:   project,
		Version:   projectVersion,
		EditorExe: editorExe,
		Request:   request,
	}
	if !c.Batch {
		coordinator.Remote = ipc.NewClient(project, func() bool {
			return build.HasPersistentHook(project)
		})
		coordinator.ForcePlatformSwitch = c.ForcePlatformSwitch
		coordinator.ForcePlayModeExit = c.ForcePlayModeExit
	}

	outcome, err := coordinator.Run()
	if err != nil {
		return err
	}
	if !outcome.Success {
		return errors.New(outcome.Message)
	}
	return nil
}

func (c *BuildCmd) buildRequest() (*build.Request, error) {
	var extra []build.Options
	for _, name := range c.BuildOptions {
		option, err := build.ParseOption(name)
		if err != nil {
			return nil, err
		}
		extra = append(extra, option)
	}

	target := build.Target(c.Target)
	if !target.Valid() {
		return nil, fmt.Errorf("unknown build target %q", c.Target)
	}

	return &build.Request{
		Target:              target,
		OutputPath:          c.Output,
		OutputType:          build.OutputType(c.OutputType),
		LogFile:             c.LogFile,
		DevelopmentBuild:    c.Development,
		RunPlayer:           c.RunPlayer,
		ShowBuiltPlayer:     c.Show,
		AllowDebugging:      c.Debugging,
		ConnectWithProfiler: c.Profiling,
		DeepProfiling:       c.DeepProfiling,
		ConnectToHost:       c.ConnectHost,
		ExtraOptions:        extra,
		PreBuildArgs:        c.BuildArgs,
		BuildFunction:       c.BuildFunction,
		Mode:                build.Mode(c.Mode),
		Hook:                build.HookPolicy(c.Inject),
		Clean:               c.Clean,
		Quiet:               c.Quiet,
		DryRun:              c.DryRun,
		EditorArgs:          c.EditorArgs,
	}, nil
}
