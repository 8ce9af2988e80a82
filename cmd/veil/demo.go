package main

import (
	"github.com/spf13/cobra"

	"github.com/mcrowther/veil/internal/config"
	"github.com/mcrowther/veil/internal/tui"
)

var demoOpts struct {
	watchConfig bool
}

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Launch the interactive overlay demo TUI",
	Long: `Launch the terminal demo host.

The demo composits four overlays into the frame:
  popover   click-toggled panel
  tooltip   hover hint, opens after the configured delay
  dialog    modal whose focus lands on the footer slot
  menu      menu plus pinned submenu, opened as one transition

Key bindings:
  j/k, ↑/↓    Select overlay
  enter       Toggle selected overlay
  h           Simulate hover in/out (tooltip)
  esc         Close all overlays
  ?           Show help
  q           Quit`,
	RunE: runDemo,
}

func init() {
	rootCmd.AddCommand(demoCmd)

	demoCmd.Flags().BoolVar(&demoOpts.watchConfig, "watch-config", false,
		"Reload timing values when the config file changes")
}

func runDemo(cmd *cobra.Command, args []string) error {
	var reloads chan *config.Config
	if demoOpts.watchConfig {
		reloads = make(chan *config.Config, 1)
		fw, err := config.NewFileWatcher(globalOpts.configPath, func(c *config.Config) {
			select {
			case reloads <- c:
			default:
			}
		})
		if err != nil {
			logger.Warn("failed to create config watcher", "error", err)
		} else {
			if err := fw.Start(); err != nil {
				logger.Warn("failed to start config watcher", "error", err)
			}
			defer fw.Stop()
		}
	}

	return tui.Run(tui.RunOptions{
		Config:        cfg,
		Logger:        logger,
		ConfigReloads: reloads,
	})
}
