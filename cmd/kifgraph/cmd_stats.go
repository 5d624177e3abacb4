package main

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"kifgraph/internal/graph"
	"kifgraph/internal/pipeline"
)

var statsByType bool

var statsCmd = &cobra.Command{
	Use:   "stats FILE...",
	Short: "Show per-file translation statistics",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runStats,
}

func init() {
	statsCmd.Flags().BoolVarP(&statsByType, "by-type", "t", false, "Also list atom counts per type")
}

func runStats(cmd *cobra.Command, args []string) error {
	var rows [][]string
	totals := make(map[graph.Type]int)
	for _, path := range args {
		space, stats, err := pipeline.TranslateFile(path, symbols)
		if err != nil {
			return err
		}
		nodes, links := space.Size()
		rows = append(rows, []string{
			path,
			strconv.Itoa(stats.Axioms),
			strconv.Itoa(stats.ClosedAxioms),
			strconv.Itoa(nodes),
			strconv.Itoa(links),
			strconv.Itoa(len(graph.Asserted(space))),
		})
		for t, n := range graph.CountByType(space.Atoms()) {
			totals[t] += n
		}
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, renderTable([]string{"File", "Axioms", "Closed", "Nodes", "Links", "Asserted"}, rows))
	if !statsByType {
		return nil
	}

	types := make([]graph.Type, 0, len(totals))
	for t := range totals {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	typeRows := make([][]string, 0, len(types))
	for _, t := range types {
		typeRows = append(typeRows, []string{t.String(), strconv.Itoa(totals[t])})
	}
	fmt.Fprintln(out, renderTable([]string{"Type", "Atoms"}, typeRows))
	return nil
}
