package commands

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/baxromumarov/greenpatch"
	"github.com/baxromumarov/greenpatch/internal/cli/output"
	"github.com/baxromumarov/greenpatch/primitive"
)

var activatePatches []string

var activateCmd = &cobra.Command{
	Use:   "activate",
	Short: "Resolve an activation request and show the result",
	Long: `Resolve the patch section of the configuration, plus any --patch flags,
against a fresh environment and print which primitives end up active.

Flags are applied after the configuration, so a flag for the same key wins.

Examples:
  # Default policy
  greenpatch activate

  # Only sockets
  greenpatch activate --patch socket=true

  # Everything except threads
  greenpatch activate --patch all=true --patch thread=false`,
	RunE: runActivate,
}

func init() {
	activateCmd.Flags().StringArrayVarP(&activatePatches, "patch", "p", nil, "activation setting as key=bool (repeatable)")
}

func runActivate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	settings := cfg.Settings()
	flagSettings, err := parsePatches(activatePatches)
	if err != nil {
		return err
	}
	settings = append(settings, flagSettings...)

	rt, _, err := newRuntime(context.Background(), cfg, nil)
	if err != nil {
		return err
	}
	active, err := rt.Env.Activate(settings...)
	if err != nil {
		return err
	}

	tbl := output.NewTable("Primitive", "Active")
	for _, name := range primitive.Names() {
		tbl.AddRow(string(name), strconv.FormatBool(active.Has(name)))
	}
	tbl.Render(cmd.OutOrStdout())
	return nil
}

// parsePatches turns key=bool pairs into settings in argument order.
func parsePatches(raw []string) ([]greenpatch.Setting, error) {
	settings := make([]greenpatch.Setting, 0, len(raw))
	for _, kv := range raw {
		key, val, ok := strings.Cut(kv, "=")
		if !ok {
			return nil, fmt.Errorf("invalid patch %q: expected key=bool", kv)
		}
		enabled, err := strconv.ParseBool(strings.TrimSpace(val))
		if err != nil {
			return nil, fmt.Errorf("invalid patch %q: %w", kv, err)
		}
		settings = append(settings, greenpatch.Patch(strings.TrimSpace(key), enabled))
	}
	return settings, nil
}
