package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jcodybaker/canctl/pkg/can"
	"github.com/jcodybaker/canctl/pkg/registry"
)

var typesCmd = &cobra.Command{
	RunE:  runTypes,
	Use:   "types",
	Short: "List the interface types which can be brought up on this host",
}

func init() {
	rootCmd.AddCommand(typesCmd)
}

func runTypes(cmd *cobra.Command, args []string) error {
	c, err := newController(viper.GetViper(), registry.NewMemory())
	if err != nil {
		return err
	}
	for _, name := range typeNames(c.GetSupportedInterfaceTypes()) {
		fmt.Fprintln(cmd.OutOrStdout(), name)
	}
	return nil
}

func typeNames(types []can.InterfaceType) []string {
	out := make([]string, 0, len(types))
	for _, t := range types {
		out = append(out, t.String())
	}
	return out
}
