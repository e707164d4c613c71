package domain

// CommitID is an opaque, repository-stable commit identifier.
type CommitID string

func (id CommitID) String() string {
	return string(id)
}

// Short returns the abbreviated form used in log output.
func (id CommitID) Short() string {
	if len(id) > 12 {
		return string(id[:12])
	}
	return string(id)
}

// Commit carries the metadata the decision engine needs for one revision.
// More than one parent marks a merge commit (a PR in this tool's vocabulary).
type Commit struct {
	ID           CommitID
	Message      string
	Author       string
	Parents      []CommitID
	ChangedPaths []string
}

// IsMerge reports whether the commit is a merge commit.
func (c Commit) IsMerge() bool {
	return len(c.Parents) > 1
}

// FirstParent returns the first parent, or an empty ID for a root commit.
func (c Commit) FirstParent() CommitID {
	if len(c.Parents) == 0 {
		return ""
	}
	return c.Parents[0]
}

// Subject returns the first line of the commit message.
func (c Commit) Subject() string {
	for i := 0; i < len(c.Message); i++ {
		if c.Message[i] == '\n' {
			return c.Message[:i]
		}
	}
	return c.Message
}
