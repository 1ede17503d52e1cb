package project

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/rbxsync/rbxsync-server/internal/rbxtypes"
)

const (
	// SourceDir holds the instance tree inside a project.
	SourceDir = "src"
	// MetaFile is written in every instance directory.
	MetaFile = "_meta.rbxjson"
	// StateDir holds local bookkeeping that is never synced.
	StateDir = ".rbxsync"
)

// Writer lays an extracted instance tree out on disk.
type Writer struct{}

// NewWriter creates a project writer.
func NewWriter() *Writer {
	return &Writer{}
}

// Write replaces <projectDir>/src with roots and returns the number of files
// written. The new tree is built next to the old one and swapped in, so a
// failed write leaves the previous tree in place.
func (w *Writer) Write(projectDir string, roots []rbxtypes.Instance) (int, error) {
	if err := os.MkdirAll(projectDir, 0o755); err != nil {
		return 0, fmt.Errorf("failed to create project directory: %w", err)
	}

	target := filepath.Join(projectDir, SourceDir)
	staging := filepath.Join(projectDir, "."+SourceDir+"-"+uuid.NewString())
	if err := os.Mkdir(staging, 0o755); err != nil {
		return 0, fmt.Errorf("failed to create staging directory: %w", err)
	}

	files := 0
	used := make(map[string]int)
	for i := range roots {
		n, err := writeInstance(staging, &roots[i], used)
		files += n
		if err != nil {
			os.RemoveAll(staging)
			return 0, err
		}
	}

	backup := ""
	if _, err := os.Stat(target); err == nil {
		backup = filepath.Join(projectDir, "."+SourceDir+"-old-"+uuid.NewString())
		if err := os.Rename(target, backup); err != nil {
			os.RemoveAll(staging)
			return 0, fmt.Errorf("failed to move previous tree aside: %w", err)
		}
	}
	if err := os.Rename(staging, target); err != nil {
		if backup != "" {
			os.Rename(backup, target)
		}
		os.RemoveAll(staging)
		return 0, fmt.Errorf("failed to move new tree into place: %w", err)
	}
	if backup != "" {
		os.RemoveAll(backup)
	}
	return files, nil
}

func writeInstance(parent string, inst *rbxtypes.Instance, used map[string]int) (int, error) {
	dir := filepath.Join(parent, uniqueSegment(inst.Name, used))
	if err := os.Mkdir(dir, 0o755); err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", dir, err)
	}

	meta := inst.Meta()
	files := 0

	if ext, ok := rbxtypes.ScriptExtension(inst.ClassName); ok {
		if src, ok := meta.Source(); ok {
			delete(meta.Properties, "Source")
			if len(meta.Properties) == 0 {
				meta.Properties = nil
			}
			if err := os.WriteFile(filepath.Join(dir, "init"+ext), []byte(src), 0o644); err != nil {
				return files, fmt.Errorf("failed to write script source: %w", err)
			}
			files++
		}
	}

	data, err := EncodeMeta(meta)
	if err != nil {
		return files, fmt.Errorf("failed to encode %s: %w", inst.Name, err)
	}
	if err := os.WriteFile(filepath.Join(dir, MetaFile), data, 0o644); err != nil {
		return files, fmt.Errorf("failed to write meta: %w", err)
	}
	files++

	children := make(map[string]int)
	for i := range inst.Children {
		n, err := writeInstance(dir, &inst.Children[i], children)
		files += n
		if err != nil {
			return files, err
		}
	}
	return files, nil
}

// EncodeMeta renders meta the way it is stored in MetaFile.
func EncodeMeta(meta rbxtypes.InstanceMeta) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// uniqueSegment returns a directory name for name that does not collide
// with an earlier sibling. Comparison ignores case so trees survive
// case-insensitive filesystems.
func uniqueSegment(name string, used map[string]int) string {
	base := SanitizeName(name)
	key := strings.ToLower(base)
	n := used[key]
	used[key] = n + 1
	if n == 0 {
		return base
	}
	for {
		n++
		candidate := base + "~" + strconv.Itoa(n)
		ckey := strings.ToLower(candidate)
		if used[ckey] == 0 {
			used[ckey] = 1
			used[key] = n
			return candidate
		}
	}
}

// SanitizeName makes an instance name safe to use as a path segment.
func SanitizeName(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r < 0x20 || r == 0x7f:
			b.WriteByte('_')
		case strings.ContainsRune(`<>:"/\|?*`, r):
			b.WriteByte('_')
		default:
			b.WriteRune(r)
		}
	}
	s := strings.TrimRight(b.String(), ". ")
	if s == "" || s == "." || s == ".." || s == MetaFile || strings.HasPrefix(s, "init.") {
		s = "_" + s
	}
	return s
}
