// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/trossi/searchlight/blobstore"
	minioblob "github.com/trossi/searchlight/blobstore/minio"
	"github.com/trossi/searchlight/braindata"
	"github.com/trossi/searchlight/internal/config"
	"github.com/trossi/searchlight/internal/logging"
	"github.com/trossi/searchlight/preprocess"
	"github.com/trossi/searchlight/searchlight"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run DATA_DIR OUTPUT",
		Short: "Run a searchlight RSA and write the score volume",
		Long: `Reads DATA_DIR/data.nii[.gz], DATA_DIR/mask.nii[.gz] and DATA_DIR/labels.txt,
detrends and z-scores each voxel within chunks, scores every masked voxel
against a model of the labels (categorical, or ordinal over --levels) and
writes OUTPUT as NIfTI
(gzip-compressed when OUTPUT ends in .gz).`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath, _ := cmd.Flags().GetString("config")
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			if err = applyFlags(cmd, cfg); err != nil {
				return err
			}

			logger := logging.New(cfg.Logging.Level, cfg.Logging.Format, cmd.ErrOrStderr())
			return runAnalysis(cmd.Context(), cmd, cfg, logger, args[0], args[1])
		},
	}

	cmd.Flags().String("config", "", "YAML config file")
	cmd.Flags().Int("radius", searchlight.DefaultRadius, "Searchlight radius in voxels")
	cmd.Flags().Int("workers", 1, "Concurrent locations (0 = one per CPU)")
	cmd.Flags().String("granularity", "sample", "RDM rows: sample or condition")
	cmd.Flags().String("hypothesis", "categorical", "Model RDM: categorical or ordinal")
	cmd.Flags().StringSlice("levels", nil, "Condition order for the ordinal hypothesis (comma separated)")
	cmd.Flags().String("policy", "flag", "Undefined scores: flag (NaN) or fail")
	cmd.Flags().Bool("no-detrend", false, "Skip per-chunk linear detrending")
	cmd.Flags().Bool("no-zscore", false, "Skip per-chunk z-scoring")
	cmd.Flags().String("log-level", "", "Log level: debug, info, warn, error")

	return cmd
}

// applyFlags copies explicitly set flags over the loaded config.
func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("radius") {
		cfg.Analysis.Radius, _ = flags.GetInt("radius")
	}
	if flags.Changed("workers") {
		cfg.Analysis.Workers, _ = flags.GetInt("workers")
	}
	if flags.Changed("granularity") {
		cfg.Analysis.Granularity, _ = flags.GetString("granularity")
	}
	if flags.Changed("hypothesis") {
		cfg.Analysis.Hypothesis, _ = flags.GetString("hypothesis")
	}
	if flags.Changed("levels") {
		cfg.Analysis.Levels, _ = flags.GetStringSlice("levels")
	}
	if flags.Changed("policy") {
		cfg.Analysis.Policy, _ = flags.GetString("policy")
	}
	if v, _ := flags.GetBool("no-detrend"); v {
		cfg.Preprocess.Detrend = false
	}
	if v, _ := flags.GetBool("no-zscore"); v {
		cfg.Preprocess.ZScore = false
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level, _ = flags.GetString("log-level")
	}

	return cfg.Validate()
}

func runAnalysis(ctx context.Context, cmd *cobra.Command, cfg *config.Config, logger *slog.Logger, dataDir, output string) error {
	logger.Info("reading dataset", "dir", dataDir)
	ds, err := braindata.FromDirectory(dataDir, braindata.Options{ApplyMask: cfg.Analysis.ApplyMask})
	if err != nil {
		return err
	}

	logger.Info("preprocessing", "detrend", cfg.Preprocess.Detrend, "zscore", cfg.Preprocess.ZScore)
	ds.Data, err = preprocess.Apply(ds.Data, ds.Chunks, preprocess.Options{
		Detrend: cfg.Preprocess.Detrend,
		ZScore:  cfg.Preprocess.ZScore,
	})
	if err != nil {
		return err
	}
	if ds, err = ds.SortByLabels(); err != nil {
		return err
	}

	workers := cfg.Analysis.Workers
	if workers == 0 {
		workers = runtime.NumCPU()
	}
	res, err := searchlight.Run(ctx, ds.Data, ds.Mask, ds.Labels,
		searchlight.WithRadius(cfg.Analysis.Radius),
		searchlight.WithWorkers(workers),
		searchlight.WithGranularity(cfg.Granularity()),
		searchlight.WithHypothesis(cfg.Hypothesis()),
		searchlight.WithDegeneratePolicy(cfg.Policy()),
		searchlight.WithProgressInterval(cfg.Analysis.ProgressInterval),
		searchlight.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	logger.Info("writing result", "path", output)
	if err = ds.Write(output, res.Scores); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d voxels scored, %d flagged, radius %d (%d-voxel ball)\n",
		output, res.Visited-res.FlagCounts.Total(), res.FlagCounts.Total(), res.Geometry.Radius(), res.Geometry.Len())

	if cfg.Upload.Kind == "" {
		return nil
	}
	store, err := newStore(ctx, cfg.Upload)
	if err != nil {
		return err
	}
	name := filepath.Base(output)
	logger.Info("uploading result", "upload", cfg.Upload.String(), "name", name)

	return blobstore.PutFile(ctx, store, name, output)
}

// newStore builds the upload target described by u.
func newStore(ctx context.Context, u config.UploadConfig) (blobstore.Store, error) {
	switch u.Kind {
	case "local":
		return blobstore.NewLocalStore(u.Dir), nil
	case "minio":
		client, err := minioblob.NewClient(minioblob.Config{
			Endpoint:  u.Endpoint,
			AccessKey: u.AccessKey,
			SecretKey: u.SecretKey,
			Region:    u.Region,
			Secure:    u.Secure,
		})
		if err != nil {
			return nil, err
		}
		store := minioblob.NewStore(client, u.Bucket, u.Prefix)
		if err = store.EnsureBucket(ctx); err != nil {
			return nil, fmt.Errorf("minio bucket %s: %w", u.Bucket, err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown upload kind %q", u.Kind)
	}
}
