package commands

import (
	"context"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/baxromumarov/greenpatch/internal/cli/output"
	"github.com/baxromumarov/greenpatch/primitive"
	"github.com/baxromumarov/greenpatch/providers"
)

var primitivesCmd = &cobra.Command{
	Use:   "primitives",
	Short: "List substitutable primitives",
	Long: `List every primitive greenpatch can substitute, whether it is installed
in this binary, and whether the built-in default policy activates it.`,
	RunE: runPrimitives,
}

func runPrimitives(cmd *cobra.Command, args []string) error {
	rt, err := providers.Setup(context.Background(), nil)
	if err != nil {
		return err
	}
	defaults, err := rt.Env.Plan()
	if err != nil {
		return err
	}

	reg := rt.Env.Registry()
	tbl := output.NewTable("Name", "Installed", "Default")
	for _, name := range primitive.Names() {
		tbl.AddRow(string(name),
			strconv.FormatBool(reg.Installed(name)),
			strconv.FormatBool(defaults.Has(name)),
		)
	}
	tbl.Render(cmd.OutOrStdout())
	return nil
}
