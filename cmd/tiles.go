package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/aldrones/groundrisk/internal/ibge"
	"github.com/aldrones/groundrisk/internal/kml"
)

var tilesCmd = &cobra.Command{
	Use:   "tiles",
	Short: "Manage the on-disk census grid cache",
}

var tilesPrefetchCmd = &cobra.Command{
	Use:   "prefetch [tile-id...]",
	Short: "Download grid tiles ahead of time",
	Long: "Downloads and extracts the given tile archives into the grid cache. With " +
		"--plan, the tile ids are resolved from a flight plan's layers instead.",
	RunE: runTilesPrefetch,
}

var tilesStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show which tiles are cached on disk",
	RunE:  runTilesStatus,
}

func init() {
	tilesPrefetchCmd.Flags().String("plan", "", "KML flight plan to resolve tile ids from")
	tilesPrefetchCmd.Flags().Int("concurrency", 4, "parallel downloads")
	tilesCmd.AddCommand(tilesPrefetchCmd)
	tilesCmd.AddCommand(tilesStatusCmd)
	rootCmd.AddCommand(tilesCmd)
}

func runTilesPrefetch(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate("tiles"); err != nil {
		return err
	}

	env, err := initAnalysis(cfg)
	if err != nil {
		return err
	}

	ids, err := prefetchIDs(cmd, args, env)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return eris.New("no tile ids given; pass ids or --plan")
	}

	concurrency, _ := cmd.Flags().GetInt("concurrency")
	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(concurrency)
	for _, id := range ids {
		id := id
		g.Go(func() error {
			if _, err := env.Provider.FetchTile(ctx, id); err != nil {
				return eris.Wrapf(err, "prefetch tile %d", int(id))
			}
			zap.L().Info("tile cached", zap.Int("tile", int(id)))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%d tiles cached under %s\n", len(ids), cfg.Grid.CacheDir)
	return nil
}

// prefetchIDs merges explicit tile id arguments with ids resolved from a
// flight plan, deduplicated.
func prefetchIDs(cmd *cobra.Command, args []string, env *analysisEnv) ([]ibge.TileID, error) {
	set := make(map[ibge.TileID]struct{})
	for _, arg := range args {
		n, err := strconv.Atoi(arg)
		if err != nil {
			return nil, eris.Wrapf(err, "invalid tile id %q", arg)
		}
		set[ibge.TileID(n)] = struct{}{}
	}

	planPath, _ := cmd.Flags().GetString("plan")
	if planPath != "" {
		f, err := os.Open(planPath)
		if err != nil {
			return nil, eris.Wrapf(err, "open flight plan %s", planPath)
		}
		doc, parseErr := kml.Parse(f)
		_ = f.Close()
		if parseErr != nil {
			return nil, parseErr
		}
		for _, feature := range doc.Features {
			for _, poly := range feature.Polygons {
				for _, id := range env.Macro.ResolveTiles(cmd.Context(), poly) {
					set[id] = struct{}{}
				}
			}
		}
	}

	ids := make([]ibge.TileID, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	return ids, nil
}

func runTilesStatus(cmd *cobra.Command, _ []string) error {
	if err := cfg.Validate("tiles"); err != nil {
		return err
	}

	entries, err := os.ReadDir(cfg.Grid.CacheDir)
	if err != nil {
		if os.IsNotExist(err) {
			fmt.Fprintf(cmd.OutOrStdout(), "cache dir %s does not exist yet\n", cfg.Grid.CacheDir)
			return nil
		}
		return eris.Wrapf(err, "read cache dir %s", cfg.Grid.CacheDir)
	}

	var tiles, other int
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if strings.HasPrefix(entry.Name(), "grade_id") {
			tiles++
			fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", entry.Name())
		} else {
			other++
		}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d tiles cached, %d other datasets, under %s\n",
		tiles, other, cfg.Grid.CacheDir)
	return nil
}
