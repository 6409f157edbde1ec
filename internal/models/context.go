package models

// RepositoryContext is a point-in-time, read-only snapshot of repository
// state. It is computed at most once per session and shared by reference
// across every worker invocation in that session; no component mutates it
// after creation. Fields degrade independently: a shallow clone may leave
// DiffSummary empty without invalidating the rest, so consumers treat every
// field as optional.
type RepositoryContext struct {
	Branch        string   `json:"branch,omitempty"`
	ChangedFiles  []string `json:"changed_files,omitempty"`
	DiffSummary   string   `json:"diff_summary,omitempty"`
	RecentCommits []string `json:"recent_commits,omitempty"`
}

// Empty reports whether every field degraded during extraction.
func (rc *RepositoryContext) Empty() bool {
	return rc.Branch == "" && len(rc.ChangedFiles) == 0 &&
		rc.DiffSummary == "" && len(rc.RecentCommits) == 0
}
