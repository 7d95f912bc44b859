package scrape

import (
	"fmt"
	"runtime"
	"strings"
)

// Version is reported in the default User-Agent. Set with -ldflags.
var Version = "dev"

// UserAgent builds the User-Agent header sent to Wikimedia, which asks API
// clients to identify themselves and a contact URL.
func UserAgent(version string) string {
	return fmt.Sprintf("wikipron/%s (+https://github.com/hazyhaar/wikipron) Go/%s",
		version, strings.TrimPrefix(runtime.Version(), "go"))
}
