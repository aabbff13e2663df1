package executil

import (
	"io"
	"os"
	"sync/atomic"
	"time"
)

// DefaultPollInterval is how often the tailer checks the log file for
// new content.
const DefaultPollInterval = 100 * time.Millisecond

// Monitor follows a log file that another process is writing and copies
// new content to an output writer. The file does not have to exist when
// the monitor starts; the editor creates it some time after launch.
type Monitor struct {
	path     string
	out      io.Writer
	interval time.Duration

	stop atomic.Bool
	done chan struct{}
	err  error
}

// StartMonitor begins tailing path on a background goroutine.
func StartMonitor(path string, out io.Writer, interval time.Duration) *Monitor {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	m := &Monitor{
		path:     path,
		out:      out,
		interval: interval,
		done:     make(chan struct{}),
	}

	go func() {
		defer close(m.done)
		m.err = m.follow()
	}()

	return m
}

// Stop signals the monitor to finish and blocks until the background
// goroutine has drained any remaining content. After Stop returns, all
// bytes the producer wrote before Stop was called have been copied out.
func (m *Monitor) Stop() error {
	m.stop.Store(true)
	<-m.done
	return m.err
}

func (m *Monitor) follow() error {
	// Wait until the file exists. If the producer finished without ever
	// creating it, there is nothing to report.
	for {
		if _, err := os.Stat(m.path); err == nil {
			break
		}
		if m.stop.Load() {
			return nil
		}
		time.Sleep(m.interval)
	}

	file, err := os.Open(m.path)
	if err != nil {
		return err
	}
	defer file.Close()

	buf := make([]byte, 64*1024)
	endedWithNewline := false

	for {
		// Check the flag before draining so the final read still sees
		// bytes written just before the producer exited.
		shouldStop := m.stop.Load()

		for {
			n, err := file.Read(buf)
			if n > 0 {
				if _, werr := m.out.Write(buf[:n]); werr != nil {
					return werr
				}
				endedWithNewline = buf[n-1] == '\n'
			}
			if err == io.EOF {
				// Caught up with the writer.
				break
			}
			if err != nil {
				return err
			}
		}

		if shouldStop {
			if !endedWithNewline {
				if _, werr := io.WriteString(m.out, "\n"); werr != nil {
					return werr
				}
			}
			return nil
		}
		time.Sleep(m.interval)
	}
}
