package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Inspect the prerequisite graph",
}

var graphShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print every edge in the graph",
	Run: func(cmd *cobra.Command, args []string) {
		edges, err := store.ListEdges(rootCtx)
		if err != nil {
			fatalf("%v", err)
		}
		if jsonOutput {
			outputJSON(edges)
			return
		}
		if len(edges) == 0 {
			fmt.Println("No edges")
			return
		}
		for _, e := range edges {
			fmt.Printf("%s -> %s\n", e.SkillID, e.PrereqID)
		}
	},
}

var graphCyclesCmd = &cobra.Command{
	Use:   "cycles",
	Short: "Report cycles in the graph",
	Run: func(cmd *cobra.Command, args []string) {
		g, err := store.LoadGraph(rootCtx)
		if err != nil {
			fatalf("%v", err)
		}
		cycles := g.DetectCycles()
		if jsonOutput {
			outputJSON(map[string]interface{}{
				"acyclic": len(cycles) == 0,
				"cycles":  cycles,
			})
			return
		}
		if len(cycles) == 0 {
			fmt.Printf("%s Graph is acyclic (%d skills)\n", green("✓"), g.Len())
			return
		}
		fmt.Printf("%s Found %d cycle(s):\n", red("✗"), len(cycles))
		for _, cycle := range cycles {
			fmt.Printf("  %s\n", strings.Join(cycle, " -> "))
		}
	},
}

var graphOrderCmd = &cobra.Command{
	Use:   "order",
	Short: "Print a prerequisite-respecting learning order",
	Run: func(cmd *cobra.Command, args []string) {
		g, err := store.LoadGraph(rootCtx)
		if err != nil {
			fatalf("%v", err)
		}
		order, ok := g.TopoSort()
		if !ok {
			fatalf("graph has cycles; run 'alearn graph cycles'")
		}
		if jsonOutput {
			outputJSON(order)
			return
		}
		for i, id := range order {
			fmt.Printf("%3d. %s\n", i+1, id)
		}
	},
}

func init() {
	graphCmd.AddCommand(graphShowCmd, graphCyclesCmd, graphOrderCmd)
	rootCmd.AddCommand(graphCmd)
}
