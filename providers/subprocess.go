package providers

import (
	"context"
	"os/exec"

	"github.com/baxromumarov/greenpatch/primitive"
)

var (
	_ primitive.SubprocessRunner = BlockingSubprocess{}
	_ primitive.SubprocessRunner = CooperativeSubprocess{}
)

// BlockingSubprocess runs the command to completion.
type BlockingSubprocess struct{}

func (BlockingSubprocess) Output(_ context.Context, name string, args ...string) ([]byte, error) {
	return exec.Command(name, args...).Output()
}

// CooperativeSubprocess kills the child when ctx ends.
type CooperativeSubprocess struct{}

func (CooperativeSubprocess) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}
