// Package vcs runs the git operations exposed on the control surface.
package vcs

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Status is the working-tree state of a project.
type Status struct {
	IsRepo    bool     `json:"isRepo"`
	Branch    string   `json:"branch,omitempty"`
	Staged    []string `json:"staged"`
	Modified  []string `json:"modified"`
	Untracked []string `json:"untracked"`
}

// CommitResult reports the outcome of a commit. Git failures are returned
// here rather than as errors so callers can show git's own message.
type CommitResult struct {
	Success bool   `json:"success"`
	Hash    string `json:"hash,omitempty"`
	Error   string `json:"error,omitempty"`
}

type StatusRequest struct {
	ProjectDir string `json:"projectDir" binding:"required"`
}

type CommitRequest struct {
	ProjectDir string   `json:"projectDir" binding:"required"`
	Message    string   `json:"message" binding:"required"`
	Files      []string `json:"files,omitempty"`
}

// Git runs the git binary.
type Git struct {
	bin string
}

func New() *Git {
	return &Git{bin: "git"}
}

// Available reports whether the git binary can be found.
func (g *Git) Available() bool {
	_, err := exec.LookPath(g.bin)
	return err == nil
}

func (g *Git) exec(ctx context.Context, dir string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, g.bin, args...)
	cmd.Dir = dir
	output, err := cmd.CombinedOutput()
	if err != nil {
		return output, fmt.Errorf("git %s failed: %w\n%s", strings.Join(args, " "), err, strings.TrimSpace(string(output)))
	}
	return output, nil
}

// Status reports the branch and changed files of the repository containing
// dir. A directory outside any repository gives IsRepo=false.
func (g *Git) Status(ctx context.Context, dir string) (*Status, error) {
	if _, err := g.exec(ctx, dir, "rev-parse", "--is-inside-work-tree"); err != nil {
		return &Status{Staged: []string{}, Modified: []string{}, Untracked: []string{}}, nil
	}

	output, err := g.exec(ctx, dir, "status", "--porcelain=v1", "-b", "--untracked-files=all")
	if err != nil {
		return nil, err
	}
	st := parseStatus(string(output))
	st.IsRepo = true
	return st, nil
}

func parseStatus(output string) *Status {
	st := &Status{Staged: []string{}, Modified: []string{}, Untracked: []string{}}
	for _, line := range strings.Split(output, "\n") {
		if strings.HasPrefix(line, "## ") {
			st.Branch = parseBranch(line[3:])
			continue
		}
		if len(line) < 4 {
			continue
		}
		x, y := line[0], line[1]
		path := line[3:]
		if i := strings.Index(path, " -> "); i >= 0 {
			path = path[i+4:]
		}
		path = strings.Trim(path, `"`)

		if x == '?' && y == '?' {
			st.Untracked = append(st.Untracked, path)
			continue
		}
		if x != ' ' {
			st.Staged = append(st.Staged, path)
		}
		if y != ' ' {
			st.Modified = append(st.Modified, path)
		}
	}
	return st
}

func parseBranch(header string) string {
	if rest, ok := strings.CutPrefix(header, "No commits yet on "); ok {
		return rest
	}
	if rest, ok := strings.CutPrefix(header, "Initial commit on "); ok {
		return rest
	}
	if i := strings.Index(header, "..."); i >= 0 {
		return header[:i]
	}
	if i := strings.Index(header, " "); i >= 0 {
		return header[:i]
	}
	return header
}

// Commit stages files (everything when files is empty) and commits them.
func (g *Git) Commit(ctx context.Context, dir, message string, files []string) (*CommitResult, error) {
	if strings.TrimSpace(message) == "" {
		return &CommitResult{Error: "commit message is required"}, nil
	}

	add := []string{"add", "-A"}
	if len(files) > 0 {
		add = append([]string{"add", "--"}, files...)
	}
	if _, err := g.exec(ctx, dir, add...); err != nil {
		return &CommitResult{Error: err.Error()}, nil
	}
	if _, err := g.exec(ctx, dir, "commit", "-m", message); err != nil {
		return &CommitResult{Error: err.Error()}, nil
	}

	output, err := g.exec(ctx, dir, "rev-parse", "--short", "HEAD")
	if err != nil {
		return nil, err
	}
	return &CommitResult{Success: true, Hash: strings.TrimSpace(string(output))}, nil
}
