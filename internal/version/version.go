package version

import (
	"fmt"
	"runtime"
)

var (
	// Name of the application
	AppName = "PeerSync"

	// Version of the application, overridable via ldflags
	Version = "0.1.0-dev"

	// Git commit hash of the build
	Revision = "HEAD"
)

func Detailed() string {
	return fmt.Sprintf("%s v%s (%s; %s; %s/%s)", AppName, Version, Revision, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

func UserAgent() string {
	return fmt.Sprintf("%s/%s", AppName, Version)
}
