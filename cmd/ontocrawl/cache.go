package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/c360studio/ontocrawl/storage"
)

func cacheCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect cached answers",
	}

	var match string
	ls := &cobra.Command{
		Use:   "ls",
		Short: "List cached answers",
		Long: `List prints every cached answer as category/concept with its size and
modification time. --match filters with a doublestar pattern over the
escaped path, for example "tools/*" or "*/Dove*".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd, g)
			if err != nil {
				return err
			}
			entries, err := app.store.List(match)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, e := range entries {
				fmt.Fprintf(w, "%s\t%d\t%s\n", e.Key.String(), e.Size, e.ModTime.Format(time.RFC3339))
			}
			return w.Flush()
		},
	}
	ls.Flags().StringVar(&match, "match", "", "Doublestar pattern over category/concept")

	show := &cobra.Command{
		Use:   "show <category> <concept>",
		Short: "Print the cached answer for a concept",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd, g)
			if err != nil {
				return err
			}
			data, err := app.store.Get(storage.Key{Category: args[0], Concept: args[1]})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if _, err := out.Write(data); err != nil {
				return err
			}
			if len(data) > 0 && data[len(data)-1] != '\n' {
				_, err = fmt.Fprintln(out)
			}
			return err
		},
	}

	rm := &cobra.Command{
		Use:   "rm <category> <concept>",
		Short: "Delete a cached answer so the next crawl asks again",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd, g)
			if err != nil {
				return err
			}
			k := storage.Key{Category: args[0], Concept: args[1]}
			if err := app.store.Remove(k); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", k.String())
			return nil
		},
	}

	cmd.AddCommand(ls, show, rm)
	return cmd
}
