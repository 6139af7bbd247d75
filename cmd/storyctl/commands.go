package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"mystic-forest-server/internal/story"

	"github.com/spf13/cobra"
)

// loadGraph загружает файл истории или встроенную историю, если путь не задан.
func loadGraph(args []string) (*story.Graph, error) {
	if len(args) == 0 || args[0] == "" {
		return story.LoadDefault()
	}
	return story.LoadFile(args[0])
}

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "storyctl",
		Short:         "Tools for Mystic Forest story files",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	rootCmd.AddCommand(newValidateCommand(), newOutlineCommand())
	return rootCmd
}

func newValidateCommand() *cobra.Command {
	var strict bool
	cmd := &cobra.Command{
		Use:   "validate [story.yaml]",
		Short: "Validate a story file",
		Long: `Load a story file with the same checks the server runs at startup.
Without an argument the embedded story is validated.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := loadGraph(args)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%q: %d nodes, %d endings\n", g.Title(), g.Len(), len(g.Endings()))

			if unreachable := g.Unreachable(); len(unreachable) > 0 {
				fmt.Fprintf(out, "unreachable nodes: %s\n", strings.Join(unreachable, ", "))
				if strict {
					return errors.New("story has unreachable nodes")
				}
			}
			fmt.Fprintln(out, "ok")
			return nil
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "Fail when some nodes cannot be reached from start")
	return cmd
}

func newOutlineCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "outline [story.yaml]",
		Short: "Print nodes, choices and endings",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := loadGraph(args)
			if err != nil {
				return err
			}
			writeOutline(cmd.OutOrStdout(), g)
			return nil
		},
	}
}

func writeOutline(w io.Writer, g *story.Graph) {
	for _, key := range g.Keys() {
		node, err := g.Lookup(key)
		if err != nil {
			continue
		}
		if node.IsTerminal() {
			fmt.Fprintf(w, "%s [ending: %s]\n", key, node.EndingCategory)
			continue
		}
		fmt.Fprintf(w, "%s\n", key)
		for i, c := range node.Choices {
			fmt.Fprintf(w, "  %d. %s -> %s (%+d, %s)\n", i, c.Text, c.NextNode, c.ScoreModifier, c.Tag)
		}
	}
}
