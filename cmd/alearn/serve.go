package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/LyoshaGodX/adaptivelearn/internal/recommender"
	"github.com/LyoshaGodX/adaptivelearn/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	Run: func(cmd *cobra.Command, args []string) {
		addr, _ := cmd.Flags().GetString("listen")
		if addr == "" {
			addr = cfg.ListenAddr
		}
		watch, _ := cmd.Flags().GetBool("watch-models")
		if !cmd.Flags().Changed("watch-models") {
			watch = cfg.WatchModels
		}

		if watch {
			if cfg.BKTModelPath != "" {
				if err := params.Watch(cfg.BKTModelPath); err != nil {
					fatalf("%v", err)
				}
			}
			if cfg.PolicyPath != "" {
				w, err := recommender.WatchModel(mgr.Policy(), cfg.PolicyPath)
				if err != nil {
					fatalf("%v", err)
				}
				defer func() { _ = w.Close() }()
			}
		}

		srv := server.New(store, mgr, addr)
		fmt.Printf("%s Listening on %s (db: %s)\n", green("✓"), addr, cfg.DBPath)
		if err := srv.Serve(rootCtx); err != nil {
			fatalf("%v", err)
		}
	},
}

func init() {
	serveCmd.Flags().String("listen", "", "Listen address (default from config, "+
		"falls back to the built-in default)")
	serveCmd.Flags().Bool("watch-models", false, "Reload model files when they change on disk")
	rootCmd.AddCommand(serveCmd)
}
