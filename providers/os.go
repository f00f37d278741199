package providers

import (
	"context"
	"os"

	"github.com/baxromumarov/greenpatch/primitive"
)

var (
	_ primitive.OSProvider = BlockingOS{}
	_ primitive.OSProvider = CooperativeOS{}
)

// BlockingOS performs file and process calls inline.
type BlockingOS struct{}

func (BlockingOS) ReadFile(_ context.Context, name string) ([]byte, error) {
	return os.ReadFile(name)
}

func (BlockingOS) WriteFile(_ context.Context, name string, data []byte, perm os.FileMode) error {
	return os.WriteFile(name, data, perm)
}

func (BlockingOS) WaitProcess(_ context.Context, p *os.Process) (*os.ProcessState, error) {
	return p.Wait()
}

// CooperativeOS parks the caller while the call runs.
type CooperativeOS struct{}

func (CooperativeOS) ReadFile(ctx context.Context, name string) ([]byte, error) {
	return park(ctx, func() ([]byte, error) { return os.ReadFile(name) })
}

func (CooperativeOS) WriteFile(ctx context.Context, name string, data []byte, perm os.FileMode) error {
	_, err := park(ctx, func() (struct{}, error) {
		return struct{}{}, os.WriteFile(name, data, perm)
	})
	return err
}

func (CooperativeOS) WaitProcess(ctx context.Context, p *os.Process) (*os.ProcessState, error) {
	return park(ctx, p.Wait)
}
