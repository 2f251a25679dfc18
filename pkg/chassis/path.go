package chassis

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
)

// PathPoint is one waypoint of a precomputed path. Speed is in motor power
// units, the same scale as a motion call's max speed.
type PathPoint struct {
	X, Y  float64
	Speed float64
}

// ParsePath reads a path file: one "x, y, speed" line per waypoint, ended by
// an "endData" line. Anything after endData belongs to the path editor and is
// ignored.
func ParsePath(r io.Reader) ([]PathPoint, error) {
	var pts []PathPoint
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		if text == "endData" {
			break
		}
		fields := strings.Split(text, ",")
		if len(fields) != 3 {
			return nil, fmt.Errorf("line %d: want x, y, speed, got %q", line, text)
		}
		var v [3]float64
		for i, f := range fields {
			n, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			v[i] = n
		}
		pts = append(pts, PathPoint{X: v[0], Y: v[1], Speed: v[2]})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read path: %w", err)
	}
	if len(pts) == 0 {
		return nil, fmt.Errorf("path has no points")
	}
	return pts, nil
}

// PathStore resolves path identifiers to waypoints. Identifiers are the file
// names the routines refer to, such as "abc_1324212332.js".
type PathStore struct {
	mu    sync.RWMutex
	paths map[string][]PathPoint
}

// NewPathStore creates an empty store.
func NewPathStore() *PathStore {
	return &PathStore{paths: make(map[string][]PathPoint)}
}

// LoadPaths reads every regular file in dir into a store keyed by file name.
func LoadPaths(dir string) (*PathStore, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read path dir: %w", err)
	}
	s := NewPathStore()
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		f, err := os.Open(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("open path: %w", err)
		}
		pts, err := ParsePath(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("path %s: %w", e.Name(), err)
		}
		s.Add(e.Name(), pts)
	}
	return s, nil
}

// Add registers pts under name, replacing any previous path.
func (s *PathStore) Add(name string, pts []PathPoint) {
	cp := make([]PathPoint, len(pts))
	copy(cp, pts)
	s.mu.Lock()
	s.paths[name] = cp
	s.mu.Unlock()
}

// Get returns the waypoints for name.
func (s *PathStore) Get(name string) ([]PathPoint, bool) {
	if s == nil {
		return nil, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	pts, ok := s.paths[name]
	return pts, ok
}

// Len returns the number of stored paths.
func (s *PathStore) Len() int {
	if s == nil {
		return 0
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.paths)
}
