package blocks

import (
	"sort"
	"strings"
	"time"
)

// FileEntry is one row of the file list.
type FileEntry struct {
	ID      string    `json:"id"`
	Name    string    `json:"name"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
	Dir     bool      `json:"dir"`
}

// Fields exposes the entry to lens filters.
func (e FileEntry) Fields() map[string]any {
	return map[string]any{
		"id":       e.ID,
		"name":     e.Name,
		"size":     e.Size,
		"mod_time": e.ModTime,
		"dir":      e.Dir,
	}
}

// FilesPayload is the wire shape behind the file list block.
type FilesPayload struct {
	Entries []FileEntry `json:"entries"`
}

// FilesDerived holds the display ordering and totals for a file list.
type FilesDerived struct {
	ByID map[string]FileEntry
	// Sorted lists directories first, then files, both by name.
	Sorted    []FileEntry
	TotalSize int64
	DirCount  int
	FileCount int
}

// Files is the file list block.
type Files struct {
	actions
	payload FilesPayload
	derived *FilesDerived
}

// NewFiles creates the block with fallback as its action sink.
func NewFiles(fallback ActionDispatcher) *Files {
	return &Files{actions: actions{fallback: fallback}}
}

// SetPayload replaces the payload and invalidates derived state.
func (f *Files) SetPayload(p FilesPayload) {
	f.payload = p
	f.derived = nil
}

// Payload returns the current payload.
func (f *Files) Payload() FilesPayload { return f.payload }

// Derived returns ordering and totals, computed once per payload.
func (f *Files) Derived() *FilesDerived {
	if f.derived == nil {
		f.derived = deriveFiles(f.payload)
	}
	return f.derived
}

func deriveFiles(p FilesPayload) *FilesDerived {
	d := &FilesDerived{
		ByID:   make(map[string]FileEntry, len(p.Entries)),
		Sorted: make([]FileEntry, len(p.Entries)),
	}
	copy(d.Sorted, p.Entries)
	for _, e := range p.Entries {
		d.ByID[e.ID] = e
		if e.Dir {
			d.DirCount++
			continue
		}
		d.FileCount++
		d.TotalSize += e.Size
	}
	sort.Slice(d.Sorted, func(i, j int) bool {
		a, b := d.Sorted[i], d.Sorted[j]
		if a.Dir != b.Dir {
			return a.Dir
		}
		return strings.ToLower(a.Name) < strings.ToLower(b.Name)
	})
	return d
}

// Open reports a file-open gesture. Unknown ids are ignored.
func (f *Files) Open(id string) {
	entry, ok := f.Derived().ByID[id]
	if !ok {
		return
	}
	f.dispatch("file.open", id, map[string]any{"name": entry.Name, "dir": entry.Dir})
}
