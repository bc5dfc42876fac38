// Package matrix provides stand-ins for the key matrix scanner: sources
// of raw key transitions for the bridge.
package matrix

import (
	"bufio"
	"context"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/lestrrat-go/pdebug"
	"github.com/lily58/keystatus/event"
	"github.com/pkg/errors"
)

type step struct {
	ev   event.KeyEvent
	wait time.Duration
}

// Script replays a fixed sequence of transitions. Each line is one of
//
//	press ROW COL
//	release ROW COL
//	tap ROW COL
//	wait DURATION
//
// Blank lines and lines starting with '#' are ignored. tap expands to a
// press followed by a release.
type Script struct {
	mutex  sync.Mutex
	steps  []step
	pos    int
	doneCh chan struct{}
	once   sync.Once
}

// ParseScript reads a script from r.
func ParseScript(r io.Reader) (*Script, error) {
	s := &Script{doneCh: make(chan struct{})}
	scanner := bufio.NewScanner(r)
	lineno := 0
	for scanner.Scan() {
		lineno++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		steps, err := parseLine(line)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", lineno)
		}
		s.steps = append(s.steps, steps...)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to read script")
	}
	if len(s.steps) == 0 {
		s.finish()
	}
	return s, nil
}

// ReadScriptFile parses the script in filename.
func ReadScriptFile(filename string) (*Script, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open script %s", filename)
	}
	defer f.Close()
	return ParseScript(f)
}

func parseLine(line string) ([]step, error) {
	fields := strings.Fields(line)
	switch cmd := fields[0]; cmd {
	case "press", "release", "tap":
		if len(fields) != 3 {
			return nil, errors.Errorf("%s takes ROW COL", cmd)
		}
		row, err := parseCoord(fields[1])
		if err != nil {
			return nil, errors.Wrap(err, "invalid row")
		}
		col, err := parseCoord(fields[2])
		if err != nil {
			return nil, errors.Wrap(err, "invalid column")
		}
		switch cmd {
		case "press":
			return []step{{ev: event.Press(row, col)}}, nil
		case "release":
			return []step{{ev: event.Release(row, col)}}, nil
		}
		return []step{{ev: event.Press(row, col)}, {ev: event.Release(row, col)}}, nil
	case "wait":
		if len(fields) != 2 {
			return nil, errors.New("wait takes a duration")
		}
		d, err := time.ParseDuration(fields[1])
		if err != nil {
			return nil, errors.Wrap(err, "invalid duration")
		}
		if d < 0 {
			return nil, errors.Errorf("negative duration %s", d)
		}
		return []step{{wait: d}}, nil
	default:
		return nil, errors.Errorf("unknown command %q", cmd)
	}
}

func parseCoord(s string) (uint8, error) {
	v, err := strconv.ParseUint(s, 10, 8)
	if err != nil {
		return 0, err
	}
	return uint8(v), nil
}

// Len returns the number of remaining transitions.
func (s *Script) Len() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	n := 0
	for _, st := range s.steps[s.pos:] {
		if st.wait == 0 {
			n++
		}
	}
	return n
}

// Done is closed once the last transition has been handed out.
func (s *Script) Done() <-chan struct{} {
	return s.doneCh
}

func (s *Script) finish() {
	s.once.Do(func() { close(s.doneCh) })
}

// NextEvent returns the next transition, honoring waits. Once the script
// is exhausted it blocks until ctx is done.
func (s *Script) NextEvent(ctx context.Context) (event.KeyEvent, error) {
	for {
		s.mutex.Lock()
		if s.pos >= len(s.steps) {
			s.mutex.Unlock()
			s.finish()
			<-ctx.Done()
			return event.KeyEvent{}, ctx.Err()
		}
		st := s.steps[s.pos]
		s.pos++
		last := s.pos >= len(s.steps)
		s.mutex.Unlock()

		if st.wait > 0 {
			if pdebug.Enabled {
				pdebug.Printf("Script: wait %s", st.wait)
			}
			t := time.NewTimer(st.wait)
			select {
			case <-ctx.Done():
				t.Stop()
				return event.KeyEvent{}, ctx.Err()
			case <-t.C:
			}
			continue
		}
		if last {
			s.finish()
		}
		return st.ev, nil
	}
}
