package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/LyoshaGodX/adaptivelearn/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize an .alearn project directory",
	Run: func(cmd *cobra.Command, args []string) {
		cwd, err := os.Getwd()
		if err != nil {
			fatalf("%v", err)
		}
		dir, err := config.InitProjectDir(cwd)
		if err != nil {
			fatalf("%v", err)
		}
		if jsonOutput {
			outputJSON(map[string]string{
				"dir": dir,
				"db":  filepath.Join(dir, config.DefaultDBFile),
			})
			return
		}
		fmt.Printf("%s Initialized %s\n", green("✓"), dir)
		fmt.Printf("  Database will be created at %s on first use\n",
			filepath.Join(dir, config.DefaultDBFile))
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
