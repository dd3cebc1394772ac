package workspace

import (
	"io/fs"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Entry is one directory entry as seen by a scan
type Entry struct {
	Name    string
	Size    int64
	Mode    fs.FileMode
	ModTime time.Time
}

// IsDir reports whether the entry is a directory
func (e Entry) IsDir() bool {
	return e.Mode.IsDir()
}

// Snapshot is the immutable result of one scan, entries sorted directories first then by name
type Snapshot struct {
	Root    string
	Entries []Entry
	Seq     uint64 // Monotonic per scanner
}

// Scan lists root one level deep
// Entries that vanish between listing and stat are skipped
func Scan(root string, showHidden bool) ([]Entry, error) {
	dirEntries, err := os.ReadDir(root)
	if err != nil {
		return nil, errors.Wrapf(err, "scan %s", root)
	}

	entries := make([]Entry, 0, len(dirEntries))
	for _, de := range dirEntries {
		name := de.Name()
		if !showHidden && strings.HasPrefix(name, ".") {
			continue
		}
		info, err := de.Info()
		if err != nil {
			continue
		}
		entries = append(entries, Entry{
			Name:    name,
			Size:    info.Size(),
			Mode:    info.Mode(),
			ModTime: info.ModTime(),
		})
	}

	sortEntries(entries)
	return entries, nil
}

func sortEntries(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].IsDir() != entries[j].IsDir() {
			return entries[i].IsDir()
		}
		return entries[i].Name < entries[j].Name
	})
}

// Diff is the change between two entry lists, each field sorted by name
type Diff struct {
	Added    []string
	Removed  []string
	Modified []string
}

// Empty reports no change
func (d Diff) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Modified) == 0
}

// Compare computes what changed from old to cur
func Compare(old, cur []Entry) Diff {
	prev := make(map[string]Entry, len(old))
	for _, e := range old {
		prev[e.Name] = e
	}

	var d Diff
	for _, e := range cur {
		p, ok := prev[e.Name]
		if !ok {
			d.Added = append(d.Added, e.Name)
			continue
		}
		delete(prev, e.Name)
		if p.Size != e.Size || p.Mode != e.Mode || !p.ModTime.Equal(e.ModTime) {
			d.Modified = append(d.Modified, e.Name)
		}
	}
	for name := range prev {
		d.Removed = append(d.Removed, name)
	}

	sort.Strings(d.Added)
	sort.Strings(d.Removed)
	sort.Strings(d.Modified)
	return d
}
