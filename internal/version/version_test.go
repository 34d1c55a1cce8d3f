package version

import (
	"runtime"
	"testing"
)

func TestGet(t *testing.T) {
	info := Get()
	if info.Version != Version {
		t.Errorf("Version = %q, want %q", info.Version, Version)
	}
	if info.GoVersion != runtime.Version() {
		t.Errorf("GoVersion = %q, want %q", info.GoVersion, runtime.Version())
	}
	if want := runtime.GOOS + "/" + runtime.GOARCH; info.Platform != want {
		t.Errorf("Platform = %q, want %q", info.Platform, want)
	}
}

func TestUserAgent(t *testing.T) {
	old := Version
	Version = "1.2.3"
	defer func() { Version = old }()

	if got := UserAgent(); got != "docscan/1.2.3" {
		t.Errorf("UserAgent() = %q, want docscan/1.2.3", got)
	}
}
