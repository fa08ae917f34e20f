package main

import (
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/aldrones/groundrisk/internal/analysis"
	"github.com/aldrones/groundrisk/internal/compliance"
	"github.com/aldrones/groundrisk/internal/kml"
	"github.com/aldrones/groundrisk/internal/report"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <flight-plan.kml>",
	Short: "Analyze the population exposure of a flight plan",
	Long: "Parses the safety-margin layers from a KML flight plan, computes per-layer " +
		"population statistics against the census grid and prints a compliance report. " +
		"Exits non-zero when the overall verdict is non-compliant.",
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringP("format", "f", "", "output format: text, json, yaml, geojson, xlsx (default from config)")
	analyzeCmd.Flags().StringP("output", "o", "", "write the report to this file instead of stdout")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate("analyze"); err != nil {
		return err
	}

	formatName, _ := cmd.Flags().GetString("format")
	if formatName == "" {
		formatName = cfg.Report.Format
	}
	format, err := report.ParseFormat(formatName)
	if err != nil {
		return err
	}
	outPath, _ := cmd.Flags().GetString("output")

	f, err := os.Open(args[0])
	if err != nil {
		return eris.Wrapf(err, "open flight plan %s", args[0])
	}
	doc, parseErr := kml.Parse(f)
	_ = f.Close()
	if parseErr != nil {
		return parseErr
	}

	env, err := initAnalysis(cfg)
	if err != nil {
		return err
	}

	result, err := env.Orchestrator.Run(cmd.Context(), doc)
	if err != nil {
		return err
	}

	stats := env.Tiles.Stats()
	zap.L().Info("analysis complete",
		zap.String("run_id", result.RunID),
		zap.String("overall", result.Overall.String()),
		zap.Int("tiles_loaded", stats.Tiles),
		zap.Int64("tile_fetches", stats.Fetches),
	)

	if err := writeReport(result, format, outPath); err != nil {
		return err
	}

	if result.Overall == compliance.NonCompliant {
		return eris.Errorf("overall verdict for run %s is non-compliant", result.RunID)
	}
	return nil
}

// writeReport renders the report to the chosen destination. The xlsx format
// always goes to a file; the default name lands in the configured out dir.
func writeReport(r *analysis.Report, format report.Format, outPath string) error {
	if format == report.FormatXLSX {
		if outPath == "" {
			outPath = filepath.Join(cfg.Report.OutDir, "exposure-"+r.RunID+".xlsx")
		}
		if err := report.WriteXLSX(outPath, r); err != nil {
			return err
		}
		zap.L().Info("report written", zap.String("path", outPath))
		return nil
	}

	if outPath == "" {
		return report.Write(os.Stdout, format, r)
	}

	f, err := os.Create(outPath)
	if err != nil {
		return eris.Wrapf(err, "create report file %s", outPath)
	}
	defer f.Close() //nolint:errcheck
	if err := report.Write(f, format, r); err != nil {
		return err
	}
	zap.L().Info("report written", zap.String("path", outPath))
	return nil
}
