// Package buildinfo carries release metadata stamped at link time:
//
//	-X 'github.com/m3rciful/readerbot/core/buildinfo.Version=v0.3.0'
//	-X 'github.com/m3rciful/readerbot/core/buildinfo.Commit=abcdef0'
//	-X 'github.com/m3rciful/readerbot/core/buildinfo.Date=2026-01-30T12:00:00Z'
package buildinfo

var (
	// Version is the release tag.
	Version = "dev"
	// Commit is the source revision.
	Commit = "local"
	// Date is the build time in RFC3339.
	Date = ""
)

// String renders the metadata for log lines and the /stats reply.
func String() string {
	s := Version + " (" + Commit
	if Date != "" {
		s += ", " + Date
	}
	return s + ")"
}
