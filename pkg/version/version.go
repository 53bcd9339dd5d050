package version

// Version and Commit are set at build time, e.g.
// go build -ldflags "-X github.com/lectiohq/lectio/pkg/version.Version=1.0.0 -X github.com/lectiohq/lectio/pkg/version.Commit=abc123".
var (
	Version = "dev"
	Commit  = ""
)

// String is the version with the short commit appended when known.
func String() string {
	if Commit == "" {
		return Version
	}
	c := Commit
	if len(c) > 7 {
		c = c[:7]
	}
	return Version + "+" + c
}
