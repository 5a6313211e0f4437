package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Read and write database-backed settings",
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Show one setting",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		value, err := store.GetConfig(rootCtx, args[0])
		if err != nil {
			fatalf("%v", err)
		}
		fmt.Println(value)
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set one setting",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		if err := store.SetConfig(rootCtx, args[0], args[1]); err != nil {
			fatalf("%v", err)
		}
		fmt.Printf("%s %s = %s\n", green("✓"), args[0], args[1])
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show all settings",
	Run: func(cmd *cobra.Command, args []string) {
		all, err := store.GetAllConfig(rootCtx)
		if err != nil {
			fatalf("%v", err)
		}
		if jsonOutput {
			outputJSON(all)
			return
		}
		keys := make([]string, 0, len(all))
		for k := range all {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Printf("%s = %s\n", k, all[k])
		}
	},
}

func init() {
	configCmd.AddCommand(configGetCmd, configSetCmd, configListCmd)
	rootCmd.AddCommand(configCmd)
}
