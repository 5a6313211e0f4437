package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/LyoshaGodX/adaptivelearn/internal/bkt"
	"github.com/LyoshaGodX/adaptivelearn/internal/config"
	"github.com/LyoshaGodX/adaptivelearn/internal/debug"
	"github.com/LyoshaGodX/adaptivelearn/internal/recommender"
	"github.com/LyoshaGodX/adaptivelearn/internal/storage/sqlite"
)

// Version is set at build time via -ldflags.
var Version = "dev"

var (
	dbPath      string
	actorFlag   string
	jsonOutput  bool
	verboseFlag bool
	quietFlag   bool

	cfg    *config.Config
	store  *sqlite.Store
	params *bkt.ParamSource
	mgr    *recommender.Manager

	// Signal-aware context for graceful cancellation
	rootCtx    context.Context
	rootCancel context.CancelFunc
)

// noDbCommands run without opening the database.
var noDbCommands = map[string]bool{
	"init":    true,
	"version": true,
	"help":    true,
}

func isNoDbCommand(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if noDbCommands[c.Name()] {
			return true
		}
	}
	return false
}

// getActor resolves the audit actor.
// Priority: --actor flag > ALEARN_ACTOR env > config > $USER > "unknown"
func getActor() string {
	if actorFlag != "" {
		return actorFlag
	}
	if a := os.Getenv("ALEARN_ACTOR"); a != "" {
		return a
	}
	if cfg.Actor != "" {
		return cfg.Actor
	}
	if user := os.Getenv("USER"); user != "" {
		return user
	}
	return "unknown"
}

func init() {
	if err := config.Initialize(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize config: %v\n", err)
	}

	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Database path (default: auto-discover .alearn/"+config.DefaultDBFile+")")
	rootCmd.PersistentFlags().StringVar(&actorFlag, "actor", "", "Actor name for audit trail (default: $ALEARN_ACTOR, $USER)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Enable verbose/debug output")
	rootCmd.PersistentFlags().BoolVarP(&quietFlag, "quiet", "q", false, "Suppress non-essential output (errors only)")

	rootCmd.Flags().BoolP("version", "V", false, "Print version information")
}

var rootCmd = &cobra.Command{
	Use:   "alearn",
	Short: "alearn - adaptive learning engine",
	Long: `Skill-graph driven adaptive learning. Tracks per-skill mastery from task
attempts and recommends the next task along the prerequisite frontier.`,
	Run: func(cmd *cobra.Command, args []string) {
		if v, _ := cmd.Flags().GetBool("version"); v {
			fmt.Printf("alearn version %s\n", Version)
			return
		}
		_ = cmd.Help()
	},
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verboseFlag {
			debug.SetVerbose(true)
		}
		if quietFlag {
			debug.SetQuiet(true)
		}

		rootCtx, rootCancel = signal.NotifyContext(context.Background(),
			os.Interrupt, syscall.SIGTERM)

		var err error
		cfg, err = config.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if dbPath != "" {
			cfg.DBPath = dbPath
		}

		if isNoDbCommand(cmd) {
			return
		}
		if cfg.DBPath == "" {
			fmt.Fprintf(os.Stderr, "Error: no database found (run 'alearn init' or pass --db)\n")
			os.Exit(1)
		}

		store, err = sqlite.New(rootCtx, cfg.DBPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to open database %s: %v\n", cfg.DBPath, err)
			os.Exit(1)
		}

		params = bkt.NewParamSource()
		if cfg.BKTModelPath != "" {
			if err := params.LoadFile(cfg.BKTModelPath); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
			}
		}
		store.UseParams(params)

		policy := recommender.NewPolicy()
		if cfg.PolicyPath != "" {
			if err := policy.LoadFile(cfg.PolicyPath); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
			}
		}
		mgr = recommender.NewManager(store, policy, cfg.BufferSize)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if store != nil {
			_ = store.Close()
		}
		if rootCancel != nil {
			rootCancel()
		}
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("alearn version %s\n", Version)
	},
}

func main() {
	rootCmd.AddCommand(versionCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
