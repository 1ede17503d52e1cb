package project

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rbxsync/rbxsync-server/internal/rbxtypes"
	"golang.org/x/crypto/blake2b"
)

// Entry is one instance found on disk.
type Entry struct {
	// Path is the instance path on the host, e.g. "Workspace/Model/Part".
	Path string
	// Key is the instance directory relative to the project root, in
	// slash form. It identifies the entry in the watermark.
	Key     string
	Meta    rbxtypes.InstanceMeta
	Source  *string
	Hash    string
	ModTime time.Time
	Size    int64
	// Err is set when some of the instance's values could not be decoded.
	// The entry still has a usable Path.
	Err error
}

// Scan reads every instance under <projectDir>/src. Directories without a
// MetaFile, and everything below them, are not instances and are skipped.
// Entries are returned in Path order. A project without a src directory
// scans as empty.
func Scan(projectDir string) ([]Entry, error) {
	root := filepath.Join(projectDir, SourceDir)
	if _, err := os.Stat(root); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}

	paths := map[string]string{".": ""}
	var entries []Entry

	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() || p == root {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		parentPath, ok := paths[path.Dir(rel)]
		if !ok {
			return fs.SkipDir
		}

		entry, err := readEntry(p)
		if errors.Is(err, fs.ErrNotExist) {
			return fs.SkipDir
		}
		if err != nil {
			return err
		}
		if parentPath == "" {
			entry.Path = entry.Meta.Name
		} else {
			entry.Path = parentPath + "/" + entry.Meta.Name
		}
		entry.Key = path.Join(SourceDir, rel)
		paths[rel] = entry.Path
		entries = append(entries, entry)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", root, err)
	}

	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	return entries, nil
}

func readEntry(dir string) (Entry, error) {
	metaPath := filepath.Join(dir, MetaFile)
	info, err := os.Stat(metaPath)
	if err != nil {
		return Entry{}, err
	}
	data, err := os.ReadFile(metaPath)
	if err != nil {
		return Entry{}, err
	}

	entry := Entry{
		ModTime: info.ModTime(),
		Size:    info.Size(),
	}
	meta, warnings, err := rbxtypes.DecodeMeta(data)
	switch {
	case err != nil:
		entry.Err = err
	case len(warnings) > 0:
		entry.Err = errors.Join(warnings...)
	}
	entry.Meta = meta
	if entry.Meta.Name == "" {
		entry.Meta.Name = filepath.Base(dir)
	}

	h, _ := blake2b.New256(nil)
	h.Write(data)

	if ext, ok := rbxtypes.ScriptExtension(meta.ClassName); ok {
		srcPath := filepath.Join(dir, "init"+ext)
		if srcInfo, err := os.Stat(srcPath); err == nil {
			src, err := os.ReadFile(srcPath)
			if err != nil {
				return Entry{}, err
			}
			s := string(src)
			entry.Source = &s
			entry.Size += srcInfo.Size()
			if srcInfo.ModTime().After(entry.ModTime) {
				entry.ModTime = srcInfo.ModTime()
			}
			h.Write([]byte{0})
			h.Write(src)
		}
	}

	entry.Hash = hex.EncodeToString(h.Sum(nil))
	return entry, nil
}

// IsAncestor reports whether ancestor is a strict ancestor of p in
// slash-separated instance paths.
func IsAncestor(ancestor, p string) bool {
	return len(p) > len(ancestor) && strings.HasPrefix(p, ancestor) && p[len(ancestor)] == '/'
}
