package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"ferrite/internal/typereg"
	"ferrite/internal/ui"
)

var (
	checkJobs int
	checkUI   string
)

func init() {
	checkCmd.Flags().IntVarP(&checkJobs, "jobs", "j", 0, "parallel checkers (0 = GOMAXPROCS)")
	checkCmd.Flags().StringVar(&checkUI, "ui", "auto", "interactive progress (auto|on|off)")
}

var checkCmd = &cobra.Command{
	Use:   "check <dir>",
	Short: "Build and verify every manifest under a directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, err := readUIMode(checkUI)
		if err != nil {
			return err
		}

		var results []typereg.CheckResult
		if shouldUseTUI(mode) {
			results, err = checkWithUI(cmd.Context(), args[0])
		} else {
			results, err = typereg.CheckDir(cmd.Context(), args[0], checkJobs, nil)
		}
		if err != nil {
			return err
		}
		return reportResults(cmd, results)
	},
}

type checkOutcome struct {
	results []typereg.CheckResult
	err     error
}

func checkWithUI(ctx context.Context, dir string) ([]typereg.CheckResult, error) {
	files, err := typereg.ListManifests(dir)
	if err != nil {
		return nil, err
	}
	events := make(chan typereg.Event, 256)
	outcomeCh := make(chan checkOutcome, 1)

	go func() {
		results, err := typereg.CheckDir(ctx, dir, checkJobs, events)
		outcomeCh <- checkOutcome{results: results, err: err}
		close(events)
	}()

	model := ui.NewCheckModel("checking type tables", files, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout))
	_, uiErr := program.Run()
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.results, uiErr
	}
	return outcome.results, outcome.err
}

func reportResults(cmd *cobra.Command, results []typereg.CheckResult) error {
	quiet, _ := cmd.Root().PersistentFlags().GetBool("quiet")
	colored := useColor(cmd, os.Stdout)
	okMark := "ok"
	failMark := "FAIL"
	if colored {
		okMark = color.GreenString(okMark)
		failMark = color.RedString(failMark)
	}

	failed := 0
	for _, res := range results {
		if res.Err != nil {
			failed++
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s: %v\n", failMark, res.Path, res.Err)
			continue
		}
		if !quiet {
			fmt.Fprintf(cmd.OutOrStdout(), "%s   %s (%s, %d types)\n", okMark, res.Path, res.Table, res.Types)
		}
	}
	if !quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "\n%d manifests, %d failed\n", len(results), failed)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d manifests failed verification", failed, len(results))
	}
	return nil
}

type uiMode string

const (
	uiModeAuto uiMode = "auto"
	uiModeOn   uiMode = "on"
	uiModeOff  uiMode = "off"
)

func readUIMode(value string) (uiMode, error) {
	switch strings.TrimSpace(strings.ToLower(value)) {
	case "", "auto":
		return uiModeAuto, nil
	case "on":
		return uiModeOn, nil
	case "off":
		return uiModeOff, nil
	default:
		return "", fmt.Errorf("invalid --ui value %q (expected auto|on|off)", value)
	}
}

func shouldUseTUI(mode uiMode) bool {
	switch mode {
	case uiModeOn:
		return true
	case uiModeOff:
		return false
	default:
		return isTerminal(os.Stdout)
	}
}
