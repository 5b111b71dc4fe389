package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/stellarlinkco/memory-bench/internal/llm"
)

func newProvidersCmd(st *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "List providers the current config can construct",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return loadConfig(st)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := llm.NewRegistryFromConfig(st.cfg)
			if err != nil {
				return err
			}

			names := reg.Names()
			if len(names) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No providers configured. Set api keys in the config file or environment.")
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "PROVIDER\tMODEL\tDEFAULT")
			for _, name := range names {
				p, _ := reg.Get(name)
				mark := ""
				if name == st.cfg.LLM.DefaultProvider {
					mark = "*"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", name, llm.ModelName(p), mark)
			}
			return tw.Flush()
		},
	}
}
