package xtest

import (
	"bytes"
	"regexp"
	"runtime"
	"strconv"
	"strings"
	"testing"
	"time"
)

// stack returns a formatted stack trace of all goroutines.
// It calls runtime.Stack with a large enough buffer to capture the entire trace.
func stack() []byte {
	buf := make([]byte, 1024)
	for {
		n := runtime.Stack(buf, true)
		if n < len(buf) {
			return buf[:n]
		}
		buf = make([]byte, 2*len(buf))
	}
}

type goroutine struct {
	id    int
	name  string
	stack []byte
}

var regexpId = regexp.MustCompile(`^\s*goroutine\s*(\d+)`)

// Leaks remembers the goroutines running when it was created.
type Leaks struct {
	name       string
	goroutines map[int]goroutine
}

// MonitorLeaks starts watching for goroutines that outlive a test:
//
//	defer xtest.MonitorLeaks("name").Check(t)
func MonitorLeaks(name string) Leaks {
	return Leaks{name, collectGoroutines()}
}

func collectGoroutines() map[int]goroutine {
	res := make(map[int]goroutine)
	stacks := bytes.Split(stack(), []byte{'\n', '\n'})

	for _, st := range stacks {
		lines := bytes.Split(st, []byte{'\n'})
		if len(lines) < 2 {
			panic("routine stack has less than two lines: " + string(st))
		}

		idMatches := regexpId.FindSubmatch(lines[0])
		if len(idMatches) < 2 {
			panic("no id found in goroutine stack's first line: " + string(lines[0]))
		}
		id, err := strconv.Atoi(string(idMatches[1]))
		if err != nil {
			panic("converting goroutine id to number error: " + err.Error())
		}
		if _, ok := res[id]; ok {
			panic("2 goroutines with same id: " + strconv.Itoa(id))
		}
		res[id] = goroutine{id, strings.TrimSpace(string(lines[1])), st}
	}
	return res
}

// Leaking returns the goroutines started since the monitor was created
// that are still running.
func (l Leaks) Leaking() []goroutine {
	var res []goroutine
	for id, gr := range collectGoroutines() {
		if _, ok := l.goroutines[id]; !ok {
			res = append(res, gr)
		}
	}
	return res
}

// Check fails t if goroutines started since the monitor was created are
// still running after a grace period.
func (l Leaks) Check(t testing.TB) {
	t.Helper()
	if len(l.Leaking()) == 0 {
		return
	}
	leakTimeout := time.Second
	deadline := time.Now().Add(leakTimeout)
	for time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
		if len(l.Leaking()) == 0 {
			return
		}
	}
	leaking := l.Leaking()
	if len(leaking) == 0 {
		return
	}
	t.Errorf("%s: %d goroutine leaks", l.name, len(leaking))
	for _, gr := range leaking {
		t.Log(gr.name, "\n", string(gr.stack))
	}
}
