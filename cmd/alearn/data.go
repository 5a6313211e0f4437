package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/LyoshaGodX/adaptivelearn/internal/importer"
)

var exportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Export skills and tasks as JSONL (stdout by default)",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		graphOnly, _ := cmd.Flags().GetBool("graph")

		out := os.Stdout
		if len(args) == 1 {
			f, err := os.Create(args[0])
			if err != nil {
				fatalf("%v", err)
			}
			defer f.Close()
			out = f
		}

		var err error
		if graphOnly {
			err = importer.ExportGraph(rootCtx, store, out)
		} else {
			err = importer.ExportSnapshot(rootCtx, store, out)
		}
		if err != nil {
			fatalf("%v", err)
		}
		if len(args) == 1 {
			fmt.Fprintf(os.Stderr, "%s Exported to %s\n", green("✓"), args[0])
		}
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import a JSONL snapshot or YAML graph",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		graphOnly, _ := cmd.Flags().GetBool("graph")
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		strict, _ := cmd.Flags().GetBool("strict")

		f, err := os.Open(args[0])
		if err != nil {
			fatalf("%v", err)
		}
		defer f.Close()

		opts := importer.Options{DryRun: dryRun, Strict: strict, Actor: getActor()}
		var result *importer.Result
		if graphOnly {
			result, err = importer.ImportGraph(rootCtx, store, f, opts)
		} else {
			result, err = importer.ImportSnapshot(rootCtx, store, f, opts)
		}
		if err != nil {
			fatalf("%v", err)
		}
		if jsonOutput {
			outputJSON(result)
			return
		}
		prefix := green("✓")
		if dryRun {
			prefix = yellow("dry-run:")
		}
		fmt.Printf("%s %d skills created, %d updated; %d tasks created, %d updated; %d edges added\n",
			prefix, result.SkillsCreated, result.SkillsUpdated,
			result.TasksCreated, result.TasksUpdated, result.EdgesAdded)
		for _, msg := range result.Errors {
			fmt.Printf("  %s %s\n", red("✗"), msg)
		}
	},
}

func init() {
	exportCmd.Flags().Bool("graph", false, "Export only the skill graph as YAML")
	importCmd.Flags().Bool("graph", false, "Treat the file as a YAML graph document")
	importCmd.Flags().Bool("dry-run", false, "Preview without applying changes")
	importCmd.Flags().Bool("strict", false, "Fail on the first bad record")
	rootCmd.AddCommand(exportCmd, importCmd)
}
