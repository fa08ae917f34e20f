package main

import (
	"time"

	"github.com/aldrones/groundrisk/internal/analysis"
	"github.com/aldrones/groundrisk/internal/compliance"
	"github.com/aldrones/groundrisk/internal/config"
	"github.com/aldrones/groundrisk/internal/fetcher"
	"github.com/aldrones/groundrisk/internal/geo"
	"github.com/aldrones/groundrisk/internal/ibge"
)

// analysisEnv bundles the wired pipeline components shared by the commands.
type analysisEnv struct {
	Provider     ibge.Provider
	Macro        *ibge.MacroIndex
	Tiles        *ibge.TileCache
	Orchestrator *analysis.Orchestrator
}

func newFetcher(grid config.GridConfig) fetcher.Fetcher {
	timeout := time.Duration(grid.TimeoutSecs) * time.Second
	if grid.Transport == "ftp" {
		return fetcher.NewFTPFetcher(fetcher.FTPOptions{Timeout: timeout})
	}
	return fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		Timeout:    timeout,
		MaxRetries: grid.MaxRetries,
	})
}

// initAnalysis wires the grid provider, caches, engine and evaluator from
// the loaded configuration.
func initAnalysis(c *config.Config) (*analysisEnv, error) {
	provider := ibge.NewArchiveProvider(newFetcher(c.Grid), ibge.ArchiveOptions{
		MacroURL:        c.Grid.MacroURL,
		TileURLTemplate: c.Grid.TileURLTemplate,
		CacheDir:        c.Grid.CacheDir,
	})
	macro := ibge.NewMacroIndex(provider)
	tiles := ibge.NewTileCache(provider)

	engine, err := analysis.NewEngine(macro, tiles,
		analysis.WithProjection(geo.WGS84, c.Analysis.EqualAreaProj))
	if err != nil {
		return nil, err
	}

	eval := compliance.NewEvaluator(compliance.Limits{
		MaxDensity:          c.Compliance.MaxDensityLimit,
		AdjacentMeanDensity: c.Compliance.AdjacentMeanLimit,
	})

	orch := analysis.NewOrchestrator(engine, eval)
	if !c.Operation.IsZero() {
		orch.Operation = &analysis.OperationMeta{
			FlightHeightM:     c.Operation.FlightHeightM,
			ContingencyM:      c.Operation.ContingencyM,
			GroundRiskBufferM: c.Operation.GroundRiskBufferM,
			AdjacentDistanceM: c.Operation.AdjacentDistanceM,
		}
	}

	return &analysisEnv{
		Provider:     provider,
		Macro:        macro,
		Tiles:        tiles,
		Orchestrator: orch,
	}, nil
}
