/*
File Name:  Logs.go
Copyright:  2024 Peerchat Project

A bounded tail of the daemon's log stream, fed by subscribing to
core.Backend's Stdout multi-writer so the monitoring surface observes the
exact same stream the log file and the operator console do.
*/

package webapi

import (
	"bytes"
	"net/http"
	"sync"
)

const logTailLines = 200

// logTail is an io.Writer that keeps only the most recent logTailLines
// lines written to it.
type logTail struct {
	mutex sync.Mutex
	lines []string
}

func newLogTail() *logTail {
	return &logTail{}
}

func (t *logTail) Write(p []byte) (n int, err error) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	for _, line := range bytes.Split(bytes.TrimRight(p, "\n"), []byte("\n")) {
		if len(line) == 0 {
			continue
		}
		t.lines = append(t.lines, string(line))
	}
	if overflow := len(t.lines) - logTailLines; overflow > 0 {
		t.lines = t.lines[overflow:]
	}
	return len(p), nil
}

func (t *logTail) snapshot() []string {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	out := make([]string, len(t.lines))
	copy(out, t.lines)
	return out
}

/*
apiLogs returns the most recent log lines observed on the daemon's log
stream.
Request:    GET /logs
Result:     200 with JSON array of strings, oldest first
*/
func (api *WebapiInstance) apiLogs(w http.ResponseWriter, r *http.Request) {
	encodeJSON(w, api.logs.snapshot())
}
