package profile

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name      string
		shellPath string
		wantKind  ShellKind
		wantPath  string
	}{
		{
			name:      "fish",
			shellPath: "/usr/local/bin/fish",
			wantKind:  ShellFish,
			wantPath:  "/home/alice/.config/fish/config.fish",
		},
		{
			name:      "bash",
			shellPath: "/usr/local/bin/bash",
			wantKind:  ShellBash,
			wantPath:  "/home/alice/.bash_profile",
		},
		{
			name:      "zsh",
			shellPath: "/usr/local/bin/zsh",
			wantKind:  ShellZsh,
			wantPath:  "/home/alice/.zshrc",
		},
		{
			name:      "unrecognized shell falls back to POSIX profile",
			shellPath: "/bin/csh",
			wantKind:  ShellPOSIX,
			wantPath:  "/home/alice/.profile",
		},
		{
			name:      "empty shell falls back to POSIX profile",
			shellPath: "",
			wantKind:  ShellPOSIX,
			wantPath:  "/home/alice/.profile",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := Resolve("alice", "/home/alice", tt.shellPath)
			assert.Equal(t, tt.wantKind, target.Shell)
			assert.Equal(t, tt.wantPath, target.ProfilePath)
			assert.Equal(t, "alice", target.UserName)
		})
	}
}
