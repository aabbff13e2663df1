package build

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	ucomerrors "github.com/jakkovanhunen/ucom-sub000/core/errors"
)

// reportMarker starts the summary block the build hook writes at the
// end of the log. The block runs until the next blank line.
const reportMarker = "[Builder] Build Report"

// errorMarkers are the substrings that identify a failure line in the
// editor log.
var errorMarkers = []string{
	"[Builder] Error:",
	"error CS",
	"Fatal Error",
	"Error building Player",
	"error:",
	"BuildFailedException:",
}

func lineHasError(line string) bool {
	for _, marker := range errorMarkers {
		if strings.Contains(line, marker) {
			return true
		}
	}
	return false
}

// CollectLogErrors reduces a completed log file to one error. Matching
// lines are deduplicated in first-seen order: none found yields a
// generic message, a single match is returned verbatim, several become
// a numbered list.
func CollectLogErrors(logPath string) error {
	file, err := os.Open(logPath)
	if err != nil {
		return ucomerrors.Wrapf(err, "failed to open log file %s", logPath)
	}
	defer file.Close()

	seen := make(map[string]struct{})
	var lines []string

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if !lineHasError(line) {
			continue
		}
		if _, dup := seen[line]; dup {
			continue
		}
		seen[line] = struct{}{}
		lines = append(lines, line)
	}

	switch len(lines) {
	case 0:
		return errors.New("no errors found in log")
	case 1:
		return errors.New(lines[0])
	default:
		var sb strings.Builder
		for i, line := range lines {
			fmt.Fprintf(&sb, "%d: %s\n", i+1, line)
		}
		return errors.New(sb.String())
	}
}

// PrintReport copies the build report block from the log to out. A log
// without the marker prints nothing.
func PrintReport(logPath string, out io.Writer) {
	file, err := os.Open(logPath)
	if err != nil {
		return
	}
	defer file.Close()

	inReport := false
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if !inReport {
			inReport = strings.HasPrefix(line, reportMarker)
			continue
		}
		if line == "" {
			return
		}
		fmt.Fprintln(out, line)
	}
}

// prunableSuffixes name the directories next to a built player that
// should not ship with it.
var prunableSuffixes = []string{
	"_BurstDebugInformation_DoNotShip",
	"_BackUpThisFolder_ButDontShipItWithYourGame",
}

// PruneOutputDir removes known non-distributable directories from the
// build output.
func PruneOutputDir(outputDir string) error {
	entries, err := os.ReadDir(outputDir)
	if err != nil {
		return ucomerrors.Wrapf(err, "cannot read output directory %s", outputDir)
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		name := entry.Name()
		prune := false
		for _, suffix := range prunableSuffixes {
			if strings.HasSuffix(name, suffix) {
				prune = true
				break
			}
		}
		if !prune {
			continue
		}
		path := filepath.Join(outputDir, name)
		fmt.Printf("Removing directory: %s\n", path)
		if err := os.RemoveAll(path); err != nil {
			return ucomerrors.Wrapf(err, "could not remove directory %s", path)
		}
	}
	return nil
}
