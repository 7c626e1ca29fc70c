package main

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jcodybaker/canctl/pkg/can"
	"github.com/jcodybaker/canctl/pkg/controller"
	"github.com/jcodybaker/canctl/pkg/registry"
)

var errCheckFailed = errors.New("some buses failed validation")

var checkCmd = &cobra.Command{
	RunE:  runCheck,
	Use:   "check",
	Short: "Validate the configured buses without bringing them up",
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	v := viper.GetViper()
	entries, err := busEntries(v)
	if err != nil {
		return err
	}
	c, err := newController(v, registry.NewMemory())
	if err != nil {
		return err
	}
	return checkBuses(cmd.OutOrStdout(), c, entries)
}

// checkBuses writes the result each entry would get from validation, and
// fails if any entry is rejected.
func checkBuses(out io.Writer, c *controller.Controller, entries []busEntry) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tINTERFACE\tBITRATE\tRESULT\tDETAIL")
	failed := false
	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		config, err := e.busConfig()
		if err == nil {
			err = c.Validate(config)
		}
		if _, ok := seen[e.Name]; ok && err == nil {
			err = can.Errorf(can.InvalidState, "%q is listed more than once", e.Name)
		}
		seen[e.Name] = struct{}{}

		detail := ""
		if err != nil {
			failed = true
			detail = err.Error()
			var ce *can.Error
			if errors.As(err, &ce) && ce.Err != nil {
				detail = ce.Err.Error()
			}
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n", e.Name, e.Interface, e.Bitrate, can.ResultOf(err), detail)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if failed {
		return errCheckFailed
	}
	return nil
}
