package version

import (
	"runtime"
	"strings"
	"testing"
)

func TestGet(t *testing.T) {
	info := Get()

	if info.Version != Version {
		t.Errorf("Version = %v, want %v", info.Version, Version)
	}
	if info.GoVersion != runtime.Version() {
		t.Errorf("GoVersion = %v, want %v", info.GoVersion, runtime.Version())
	}
	if info.Platform != runtime.GOOS+"/"+runtime.GOARCH {
		t.Errorf("Platform = %v", info.Platform)
	}
}

func TestInfo_String(t *testing.T) {
	tests := []struct {
		name string
		info Info
		want string
	}{
		{"no commit", Info{Version: "1.0.0", GoVersion: "go1.24.0", Platform: "linux/amd64"}, "rechenwerk 1.0.0 go1.24.0 linux/amd64"},
		{"short commit", Info{Version: "1.0.0", Commit: "abc123", GoVersion: "go1.24.0", Platform: "linux/amd64"}, "rechenwerk 1.0.0 (abc123) go1.24.0 linux/amd64"},
		{"long commit", Info{Version: "1.0.0", Commit: "0123456789abcdef", GoVersion: "go1.24.0", Platform: "linux/amd64"}, "rechenwerk 1.0.0 (0123456789ab) go1.24.0 linux/amd64"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.info.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestInfo_StringMentionsVersion(t *testing.T) {
	if !strings.Contains(Get().String(), Version) {
		t.Error("String() should contain the version")
	}
}
