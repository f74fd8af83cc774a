package wayland

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
)

// swayOutput mirrors the fields of `swaymsg -t get_outputs` we care about.
type swayOutput struct {
	Name        string `json:"name"`
	Active      bool   `json:"active"`
	CurrentMode struct {
		Width  int `json:"width"`
		Height int `json:"height"`
	} `json:"current_mode"`
}

// DetectResolution queries the running compositor for the first active
// output's mode, as "WIDTHxHEIGHT". It only works inside a live session;
// callers fall back to a default resolution when it fails.
func DetectResolution(ctx context.Context) (string, error) {
	cmd := exec.CommandContext(ctx, "swaymsg", "-t", "get_outputs", "--raw")
	output, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return "", fmt.Errorf("swaymsg failed: %w (stderr: %s)", err, string(exitErr.Stderr))
		}
		return "", fmt.Errorf("swaymsg failed: %w", err)
	}

	return parseOutputs(output)
}

func parseOutputs(data []byte) (string, error) {
	var outputs []swayOutput
	if err := json.Unmarshal(data, &outputs); err != nil {
		return "", fmt.Errorf("failed to parse swaymsg output: %w", err)
	}

	for _, out := range outputs {
		if !out.Active {
			continue
		}
		if out.CurrentMode.Width > 0 && out.CurrentMode.Height > 0 {
			return fmt.Sprintf("%dx%d", out.CurrentMode.Width, out.CurrentMode.Height), nil
		}
	}

	return "", fmt.Errorf("no active output with a valid mode")
}
