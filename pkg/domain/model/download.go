package model

// Workspace is a source tree a job runs against
type Workspace struct {
	Dir     string   // Root of the source tree
	TempDir string   // Directory to remove after the job; empty for caller-owned trees
	Files   []string // Extracted files, when the tree was downloaded
	Size    int64    // Total extracted size in bytes
}
