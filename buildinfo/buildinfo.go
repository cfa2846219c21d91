package buildinfo

var (
	// GitCommit is set by govvv at build time.
	GitCommit = "n/a"
	// GitBranch is set by govvv at build time.
	GitBranch = "n/a"
	// BuildDate is set by govvv at build time.
	BuildDate = "n/a"
	// Version is set by govvv at build time.
	Version = "n/a"
)

// Summary provides a summary of git information in the binary.
type Summary struct {
	GitCommit string `json:"git_commit"`
	GitBranch string `json:"git_branch"`
	BuildDate string `json:"build_date"`
	Version   string `json:"version"`
}

// GetSummary returns a summary of git information.
func GetSummary() Summary {
	return Summary{
		GitCommit: GitCommit,
		GitBranch: GitBranch,
		BuildDate: BuildDate,
		Version:   Version,
	}
}
