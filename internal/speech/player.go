package speech

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// DefaultPlayerCommand plays WAV data from stdin through ALSA.
const DefaultPlayerCommand = "aplay -q -"

// CommandPlayer pipes audio into an external player process on stdin.
type CommandPlayer struct {
	name string
	args []string
}

// NewCommandPlayer parses a whitespace-separated command line such as
// "aplay -q -" or "ffplay -nodisp -autoexit -loglevel quiet -".
func NewCommandPlayer(command string) (*CommandPlayer, error) {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return nil, fmt.Errorf("empty player command")
	}
	return &CommandPlayer{name: fields[0], args: fields[1:]}, nil
}

// Play runs the player until it exits. Cancelling ctx kills the process.
func (p *CommandPlayer) Play(ctx context.Context, audio []byte) error {
	cmd := exec.CommandContext(ctx, p.name, p.args...)
	cmd.Stdin = bytes.NewReader(audio)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return fmt.Errorf("player %s: %w: %s", p.name, err, msg)
		}
		return fmt.Errorf("player %s: %w", p.name, err)
	}
	return nil
}
