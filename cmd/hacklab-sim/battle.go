package main

import (
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"hacklab-sim/internal/admin"
	"hacklab-sim/internal/battle"
	"hacklab-sim/internal/config"
	"hacklab-sim/internal/intel"
	"hacklab-sim/internal/logging"
	"hacklab-sim/internal/redteam"
	"hacklab-sim/internal/scenario"
)

var (
	battleScenario     string
	battleScenarioFile string
	battleConfigPath   string
	battleSchemaPath   string
	battleLogFile      string
	battlePrintOnly    bool
	battleColor        bool
	battleTUI          bool
	battleAdminAddr    string
	battleSeed         int64
)

var battleCmd = &cobra.Command{
	Use:   "battle",
	Short: "Run a red-vs-blue battle scenario",
	Long:  "battle runs one scenario through the battle engine, streaming events to the chosen sinks and serving the admin control UI.",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := logging.New()

		scn, err := loadScenario(battleScenario, battleScenarioFile)
		if err != nil {
			return err
		}

		cfg := &config.Config{}
		if battleConfigPath != "" {
			cfg, err = config.Load(battleConfigPath, battleSchemaPath)
			if err != nil {
				return err
			}
		}
		registry, err := cfg.Registry()
		if err != nil {
			return err
		}

		var writer battle.EventWriter
		var scoreWriter battle.ScoreWriter
		var tui *battle.TUIWriter
		cleanup := func() {}
		if battleTUI {
			tui = battle.NewTUIWriter(scn)
			writer, scoreWriter = tui, tui
		} else {
			writer, scoreWriter, cleanup, err = newWriters(scn, battlePrintOnly, battleColor, battleLogFile)
			if err != nil {
				return err
			}
		}
		defer cleanup()

		seed := battleSeed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		rnd := rand.New(rand.NewSource(seed))

		var provider battle.IntelProvider
		backendURL := cfg.BackendURL
		if env := os.Getenv("HACKLAB_BACKEND_URL"); env != "" {
			backendURL = env
		}
		if backendURL != "" {
			provider = intel.NewClient(backendURL)
		}

		aggression := cfg.RedTeamAggression
		if aggression == 0 {
			aggression = 0.5
		}

		engine := battle.NewEngine(battle.Config{
			Registry:     registry,
			Writer:       writer,
			ScoreWriter:  scoreWriter,
			Intel:        provider,
			Picker:       redteam.NewEngine(registry, rnd, aggression),
			Rand:         rnd,
			Logger:       logger,
			EventLogCap:  cfg.EventLogCapacity,
			PollInterval: cfg.PollInterval(),
		})
		if err := engine.Start(scn); err != nil {
			return err
		}

		srv := admin.NewServer(engine)
		go func() {
			logger.Info("admin UI listening", "addr", battleAdminAddr)
			if err := srv.Start(battleAdminAddr); err != nil {
				log.Fatalf("Admin server failed: %v", err)
			}
		}()

		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

		if tui != nil {
			select {
			case <-engine.Done():
				tui.Quit()
			case <-tui.Done():
				engine.Stop()
			case <-sigs:
				engine.Stop()
				tui.Quit()
			}
		} else {
			select {
			case <-engine.Done():
			case <-sigs:
				engine.Stop()
			}
		}

		if winner := engine.Winner(); winner != "" {
			fmt.Printf("Winner: %s\n", winner)
		}
		return nil
	},
}

// loadScenario resolves a built-in scenario by name or loads one from a YAML
// file. The file takes precedence when both are given.
func loadScenario(name, file string) (*scenario.Scenario, error) {
	if file != "" {
		return scenario.Load(file)
	}
	if scn, ok := scenario.BuiltIn()[name]; ok {
		return &scn, nil
	}
	return nil, fmt.Errorf("unknown scenario %q, try the scenarios command", name)
}

func init() {
	battleCmd.Flags().StringVar(&battleScenario, "scenario", "breach-and-defend", "Built-in scenario name")
	battleCmd.Flags().StringVar(&battleScenarioFile, "scenario-file", "", "Path to a scenario YAML file (overrides --scenario)")
	battleCmd.Flags().StringVar(&battleConfigPath, "config", "", "Path to runtime configuration YAML")
	battleCmd.Flags().StringVar(&battleSchemaPath, "schema", "schemas/battle.cue", "Path to CUE schema file")
	battleCmd.Flags().StringVar(&battleLogFile, "log-file", "", "Path to export battle event logs (JSONL)")
	battleCmd.Flags().BoolVar(&battlePrintOnly, "print-only", false, "Print events to STDOUT instead of writing to DB")
	battleCmd.Flags().BoolVar(&battleColor, "color", false, "Colorized STDOUT event stream")
	battleCmd.Flags().BoolVar(&battleTUI, "tui", false, "Render the battle in a terminal dashboard")
	battleCmd.Flags().StringVar(&battleAdminAddr, "admin-addr", ":8080", "Admin UI listen address")
	battleCmd.Flags().Int64Var(&battleSeed, "seed", 0, "Random seed (0 uses the current time)")
}
