// Package probectl implements the scenario control CLI: listing,
// validating, and running conformance scenarios against the simulated VM.
package probectl

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"bindprobe/internal/scenario"
)

// Config carries the persistent CLI settings.
type Config struct {
	ScenariosDir string
	LogLvl       string
}

// Main parses and dispatches the CLI. It returns the process exit code.
func Main(args []string) int {
	cfg := &Config{
		ScenariosDir: envStr("PROBECTL_SCENARIOS_DIR", "./scenarios"),
		LogLvl:       envStr("PROBECTL_LOG_LEVEL", "info"),
	}
	root := buildRootCmdWith(cfg)
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		errorf("%v", err)
		return 1
	}
	return 0
}

// buildRootCmdWith constructs the Cobra command tree.
func buildRootCmdWith(cfg *Config) *cobra.Command {
	root := &cobra.Command{
		Use:           "probectl",
		Short:         "Scenario utilities for the bind-event conformance probe",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Persistent flags -> Config
	root.PersistentFlags().String("scenarios-dir", cfg.ScenariosDir, "Directory to scan for scenario files (defaults PROBECTL_SCENARIOS_DIR or ./scenarios)")
	root.PersistentFlags().String("log-level", cfg.LogLvl, "Log level: debug|info|warn|error (defaults PROBECTL_LOG_LEVEL or info)")
	root.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if f := cmd.InheritedFlags().Lookup("scenarios-dir"); f != nil {
			if v := f.Value.String(); v != "" {
				cfg.ScenariosDir = v
			}
		}
		if f := cmd.InheritedFlags().Lookup("log-level"); f != nil {
			if v := f.Value.String(); v != "" {
				cfg.LogLvl = v
			}
		}
		SetLogLevel(cfg.LogLvl)
	}

	// scenario group
	scenarioCmd := &cobra.Command{Use: "scenario", Short: "Inspect and run scenarios", RunE: func(cmd *cobra.Command, args []string) error {
		return fmt.Errorf("scenario requires a subcommand: list|validate|run")
	}}
	scenarioList := &cobra.Command{Use: "list", Short: "List scenarios in the scenarios directory", Example: "  probectl scenario list", RunE: func(cmd *cobra.Command, args []string) error {
		return fnList(cfg)
	}}
	scenarioValidate := &cobra.Command{Use: "validate [id]", Short: "Validate all scenarios, or one by id", Example: "  probectl scenario validate\n  probectl scenario validate onload-bind", Args: cobra.MaximumNArgs(1), RunE: func(cmd *cobra.Command, args []string) error {
		id := ""
		if len(args) == 1 {
			id = args[0]
		}
		return fnValidate(cfg, id)
	}}
	scenarioRun := &cobra.Command{Use: "run <id>", Short: "Run one scenario and report the verdict", Example: "  probectl scenario run onload-bind", Args: cobra.ExactArgs(1), RunE: func(cmd *cobra.Command, args []string) error {
		return fnRun(cmd.Context(), cfg, args[0])
	}}
	scenarioCmd.AddCommand(scenarioList, scenarioValidate, scenarioRun)
	root.AddCommand(scenarioCmd)

	// completion command
	completionCmd := &cobra.Command{Use: "completion", Short: "Generate the autocompletion script for the specified shell"}
	completionCmd.AddCommand(&cobra.Command{Use: "bash", Short: "Bash completion", RunE: func(cmd *cobra.Command, args []string) error { return root.GenBashCompletion(os.Stdout) }})
	completionCmd.AddCommand(&cobra.Command{Use: "zsh", Short: "Zsh completion", RunE: func(cmd *cobra.Command, args []string) error { return root.GenZshCompletion(os.Stdout) }})
	completionCmd.AddCommand(&cobra.Command{Use: "fish", Short: "Fish completion", RunE: func(cmd *cobra.Command, args []string) error { return root.GenFishCompletion(os.Stdout, true) }})
	completionCmd.AddCommand(&cobra.Command{Use: "powershell", Short: "PowerShell completion", RunE: func(cmd *cobra.Command, args []string) error { return root.GenPowerShellCompletionWithDesc(os.Stdout) }})
	root.AddCommand(completionCmd)

	return root
}

func fnList(cfg *Config) error {
	reg, err := scenario.LoadDir(cfg.ScenariosDir)
	if err != nil {
		return err
	}
	if reg.Len() == 0 {
		warn("no scenarios in %s", cfg.ScenariosDir)
		return nil
	}
	for _, sc := range reg.List() {
		line := sc.ID
		if sc.Description != "" {
			line += "  " + sc.Description
		}
		fmt.Println(line)
	}
	return nil
}

func fnValidate(cfg *Config, id string) error {
	// LoadDir already validates each file; reaching here means all parsed
	reg, err := scenario.LoadDir(cfg.ScenariosDir)
	if err != nil {
		return err
	}
	if id != "" {
		if _, err := reg.Get(id); err != nil {
			return err
		}
		info("scenario %s is valid", id)
		return nil
	}
	info("%d scenarios valid", reg.Len())
	return nil
}

func fnRun(ctx context.Context, cfg *Config, id string) error {
	reg, err := scenario.LoadDir(cfg.ScenariosDir)
	if err != nil {
		return err
	}
	sc, err := reg.Get(id)
	if err != nil {
		return err
	}
	debug("loaded %d scenarios from %s, running %s", reg.Len(), cfg.ScenariosDir, sc.ID)
	if ctx == nil {
		ctx = context.Background()
	}
	runner, err := scenario.NewRunner(scenario.RunnerConfig{})
	if err != nil {
		return err
	}
	res, runErr := runner.Run(ctx, sc)
	r := res.Report
	info("scenario %s: verdict=%s bind_events=%d out_of_phase=%d exit_code=%d",
		sc.ID, r.Verdict, r.BindEvents, r.OutOfPhase, res.ExitCode)
	if runErr != nil {
		// includes expectation mismatches; the CLI treats those as failures
		return runErr
	}
	return nil
}
