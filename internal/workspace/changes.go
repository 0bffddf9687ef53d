package workspace

import (
	"sort"

	"github.com/go-git/go-git/v5"
)

// ChangeDelta describes how the set of modified files moved across a turn.
type ChangeDelta struct {
	Added    []string // dirty now, clean before
	Touched  []string // dirty before and still dirty
	Reverted []string // dirty before, clean now
}

// Empty reports whether the delta carries no changes.
func (d ChangeDelta) Empty() bool {
	return len(d.Added) == 0 && len(d.Touched) == 0 && len(d.Reverted) == 0
}

// ChangedFiles returns the set of files git considers modified, staged, or
// untracked in the repository containing dir. A directory outside any git
// repository yields an empty set; change tracking is best-effort and never
// blocks a turn.
func ChangedFiles(dir string) map[string]bool {
	changed := map[string]bool{}

	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return changed
	}
	wt, err := repo.Worktree()
	if err != nil {
		return changed
	}
	status, err := wt.Status()
	if err != nil {
		return changed
	}
	for path, st := range status {
		if st.Worktree == git.Unmodified && st.Staging == git.Unmodified {
			continue
		}
		changed[path] = true
	}
	return changed
}

// Delta computes the changed-file movement between two snapshots.
func Delta(before, after map[string]bool) ChangeDelta {
	var d ChangeDelta
	for path := range after {
		if before[path] {
			d.Touched = append(d.Touched, path)
		} else {
			d.Added = append(d.Added, path)
		}
	}
	for path := range before {
		if !after[path] {
			d.Reverted = append(d.Reverted, path)
		}
	}
	sort.Strings(d.Added)
	sort.Strings(d.Touched)
	sort.Strings(d.Reverted)
	return d
}
