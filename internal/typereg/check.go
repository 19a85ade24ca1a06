package typereg

import (
	"context"
	"io/fs"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"ferrite/internal/tabledef"
)

// CheckResult is the outcome of checking one manifest.
type CheckResult struct {
	Path  string
	Table string
	Types int
	Err   error
}

// Event reports checking progress for interactive front ends.
type Event struct {
	Path   string
	Status string // "checking", "ok", "failed"
}

// ListManifests returns the sorted *.toml files under dir.
func ListManifests(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, ".toml") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// CheckDir loads, builds, and verifies every manifest under dir in
// parallel. Results are ordered by path; a manifest's failure is recorded
// in its result, not returned, so one broken table does not hide the rest.
func CheckDir(ctx context.Context, dir string, jobs int, events chan<- Event) ([]CheckResult, error) {
	files, err := ListManifests(dir)
	if err != nil {
		return nil, err
	}
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	results := make([]CheckResult, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, max(len(files), 1)))

	for i, path := range files {
		i, path := i, path
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			emit(events, Event{Path: path, Status: "checking"})
			results[i] = checkManifest(path)
			if results[i].Err != nil {
				emit(events, Event{Path: path, Status: "failed"})
			} else {
				emit(events, Event{Path: path, Status: "ok"})
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

func checkManifest(path string) CheckResult {
	res := CheckResult{Path: path}
	m, err := tabledef.Load(path)
	if err != nil {
		res.Err = err
		return res
	}
	res.Table = m.Table.Name
	table, err := tabledef.Build(m)
	if err != nil {
		res.Err = err
		return res
	}
	res.Types = len(table.Types)
	for _, dt := range table.Types {
		if err := Verify(dt); err != nil {
			res.Err = err
			return res
		}
	}
	return res
}

func emit(events chan<- Event, ev Event) {
	if events == nil {
		return
	}
	events <- ev
}
