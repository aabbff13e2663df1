// Package nunit reads the NUnit 3 test-run XML reports the editor's
// test runner produces.
package nunit

import (
	"io"
	"os"
	"strconv"
	"time"

	"github.com/antchfx/xmlquery"

	ucomerrors "github.com/jakkovanhunen/ucom-sub000/core/errors"
)

// Result is the outcome of a test run or a single test case.
type Result int

const (
	ResultPassed Result = iota
	ResultFailed
	ResultInconclusive
	ResultSkipped
	// ResultInvalid marks a result string the report format does not
	// define.
	ResultInvalid
)

// ParseResult maps the report's result strings. A suite that failed
// because a child failed counts as failed.
func ParseResult(s string) Result {
	switch s {
	case "Passed":
		return ResultPassed
	case "Failed", "Failed(Child)":
		return ResultFailed
	case "Inconclusive":
		return ResultInconclusive
	case "Skipped":
		return ResultSkipped
	default:
		return ResultInvalid
	}
}

func (r Result) String() string {
	switch r {
	case ResultPassed:
		return "Passed"
	case ResultFailed:
		return "Failed"
	case ResultInconclusive:
		return "Inconclusive"
	case ResultSkipped:
		return "Skipped"
	default:
		return "Invalid"
	}
}

// Stats are the run-level counters from the test-run element.
type Stats struct {
	TestCaseCount int
	Result        Result
	Total         int
	Passed        int
	Failed        int
	Inconclusive  int
	Skipped       int
	Asserts       int
	StartTime     time.Time
	EndTime       time.Time
	Duration      float64
}

// TestCase is one executed test.
type TestCase struct {
	Name     string
	FullName string
	Result   Result
	Duration float64

	// Message carries the failure message when the case did not pass.
	Message string
}

// TestRun is a parsed report.
type TestRun struct {
	Stats         Stats
	EngineVersion string
	TestCases     []TestCase
}

// Passed reports whether the whole run passed.
func (t *TestRun) Passed() bool {
	return t.Stats.Result == ResultPassed
}

// FailedCases returns the cases that did not pass.
func (t *TestRun) FailedCases() []TestCase {
	var failed []TestCase
	for _, tc := range t.TestCases {
		if tc.Result != ResultPassed {
			failed = append(failed, tc)
		}
	}
	return failed
}

// ParseFile reads a report from disk.
func ParseFile(path string) (*TestRun, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, ucomerrors.Wrapf(err, "cannot open test report %s", path)
	}
	defer file.Close()

	run, err := Parse(file)
	if err != nil {
		return nil, ucomerrors.NewParse("test-run", path, "invalid test report", err)
	}
	return run, nil
}

// Parse reads a test-run report.
func Parse(r io.Reader) (*TestRun, error) {
	doc, err := xmlquery.Parse(r)
	if err != nil {
		return nil, err
	}

	root := xmlquery.FindOne(doc, "//test-run")
	if root == nil {
		return nil, ucomerrors.ErrInvalidInput
	}

	run := &TestRun{
		Stats: Stats{
			TestCaseCount: intAttr(root, "testcasecount"),
			Result:        ParseResult(root.SelectAttr("result")),
			Total:         intAttr(root, "total"),
			Passed:        intAttr(root, "passed"),
			Failed:        intAttr(root, "failed"),
			Inconclusive:  intAttr(root, "inconclusive"),
			Skipped:       intAttr(root, "skipped"),
			Asserts:       intAttr(root, "asserts"),
			StartTime:     timeAttr(root, "start-time"),
			EndTime:       timeAttr(root, "end-time"),
			Duration:      floatAttr(root, "duration"),
		},
		EngineVersion: root.SelectAttr("engine-version"),
	}

	for _, node := range xmlquery.Find(root, "//test-case") {
		tc := TestCase{
			Name:     node.SelectAttr("name"),
			FullName: node.SelectAttr("fullname"),
			Result:   ParseResult(node.SelectAttr("result")),
			Duration: floatAttr(node, "duration"),
		}
		if message := xmlquery.FindOne(node, "failure/message"); message != nil {
			tc.Message = message.InnerText()
		}
		run.TestCases = append(run.TestCases, tc)
	}

	return run, nil
}

func intAttr(node *xmlquery.Node, name string) int {
	v, err := strconv.Atoi(node.SelectAttr(name))
	if err != nil {
		return 0
	}
	return v
}

func floatAttr(node *xmlquery.Node, name string) float64 {
	v, err := strconv.ParseFloat(node.SelectAttr(name), 64)
	if err != nil {
		return 0
	}
	return v
}

// timeAttr parses the report's "2006-01-02 15:04:05Z" timestamps.
func timeAttr(node *xmlquery.Node, name string) time.Time {
	t, err := time.Parse("2006-01-02 15:04:05Z", node.SelectAttr(name))
	if err != nil {
		return time.Time{}
	}
	return t
}
