package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/navgraph/pkg/navgraph"
)

var parseCmd = &cobra.Command{
	Use:   "parse <expression>...",
	Short: "Parse route expressions and print their instruction trees",
	Long: `Parses each route expression, prints the normalized URL and the
viewport instructions it describes. Nothing is resolved against routes.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		useHash, _ := cmd.Flags().GetBool("hash")
		asJSON, _ := cmd.Flags().GetBool("json")
		return runParse(cmd.OutOrStdout(), args, useHash, asJSON)
	},
}

func init() {
	parseCmd.Flags().Bool("hash", false, "Treat expressions as hash URLs (\"/#/a/b\")")
	parseCmd.Flags().Bool("json", false, "Print the result as JSON")
	rootCmd.AddCommand(parseCmd)
}

type parsedInstruction struct {
	Component string              `json:"component"`
	Viewport  string              `json:"viewport,omitempty"`
	Params    navgraph.Params     `json:"params,omitempty"`
	Children  []parsedInstruction `json:"children,omitempty"`
}

type parsedExpression struct {
	Input        string              `json:"input"`
	URL          string              `json:"url"`
	Query        map[string][]string `json:"query,omitempty"`
	Fragment     string              `json:"fragment,omitempty"`
	Instructions []parsedInstruction `json:"instructions"`
}

func runParse(w io.Writer, args []string, useHash, asJSON bool) error {
	results := make([]parsedExpression, 0, len(args))
	for _, arg := range args {
		vit, err := navgraph.ParseInstructions(arg, useHash, navgraph.NavigationOptions{})
		if err != nil {
			return fmt.Errorf("parse %q: %w", arg, err)
		}
		results = append(results, parsedExpression{
			Input:        arg,
			URL:          vit.ToURL(useHash),
			Query:        vit.QueryParams,
			Fragment:     vit.Fragment,
			Instructions: describeInstructions(vit.Children),
		})
	}

	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}
	for _, res := range results {
		fmt.Fprintf(w, "%s\n  url: %s\n", res.Input, res.URL)
		writeInstructions(w, res.Instructions, 1)
	}
	return nil
}

func describeInstructions(in []*navgraph.ViewportInstruction) []parsedInstruction {
	if len(in) == 0 {
		return nil
	}
	out := make([]parsedInstruction, len(in))
	for i, vi := range in {
		out[i] = parsedInstruction{
			Component: vi.Component.Name(),
			Viewport:  vi.Viewport,
			Params:    vi.Params,
			Children:  describeInstructions(vi.Children),
		}
	}
	return out
}

func writeInstructions(w io.Writer, in []parsedInstruction, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, vi := range in {
		line := vi.Component
		if vi.Viewport != "" {
			line += " @" + vi.Viewport
		}
		if len(vi.Params) > 0 {
			line += fmt.Sprintf(" %v", map[string]string(vi.Params))
		}
		fmt.Fprintf(w, "%s- %s\n", indent, line)
		writeInstructions(w, vi.Children, depth+1)
	}
}
