package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/datatrails/go-datatrails-common/logger"
	"github.com/forestrie/go-jellyfish/archive"
	"github.com/forestrie/go-jellyfish/checkpoint"
	"github.com/forestrie/go-jellyfish/export"
	"github.com/forestrie/go-jellyfish/ingest"
	"github.com/google/uuid"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [csv]",
	Short: "Replay mints and export a proof and ancestry document for each.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIngest(cmd, args, ingest.ModeExport)
	},
}

var verifyOnlyCmd = &cobra.Command{
	Use:   "verify-only [csv]",
	Short: "Replay mints and export a proof document for each transfer.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIngest(cmd, args, ingest.ModeVerifyOnly)
	},
}

func init() {
	for _, c := range []*cobra.Command{ingestCmd, verifyOnlyCmd} {
		RootCmd.AddCommand(c)
		c.Flags().String("out", "", "Output directory, overrides the configuration")
		c.Flags().Bool("no-archive", false, "Do not persist or resume from the archive")
		c.Flags().Bool("no-sign", false, "Do not sign checkpoints")
	}
}

func runIngest(cmd *cobra.Command, args []string, mode ingest.Mode) error {
	conf, log, err := setup(cmd)
	if err != nil {
		return err
	}
	defer logger.OnExit()

	input := conf.Input
	if len(args) > 0 {
		input = args[0]
	}
	out := conf.ProofsDir
	if mode == ingest.ModeVerifyOnly {
		out = conf.VerifyDir
	}
	if o, _ := cmd.Flags().GetString("out"); o != "" {
		out = o
	}

	w, err := export.NewWriter(out, export.WithConcurrency(conf.Concurrency))
	if err != nil {
		return err
	}
	opts := []ingest.Option{ingest.WithWriter(w)}

	source, err := filepath.Abs(input)
	if err != nil {
		return err
	}

	if noArchive, _ := cmd.Flags().GetBool("no-archive"); !noArchive && conf.ArchiveDir != "" {
		store, err := archive.Open(conf.ArchivePath(mode), archive.WithCacheSize(conf.CacheSize))
		if err != nil {
			return err
		}
		defer func() {
			if err := store.Close(); err != nil {
				log.Infof("archive close: %v", err)
			}
		}()
		opts = append(opts, ingest.WithArchive(store))
	}

	if noSign, _ := cmd.Flags().GetBool("no-sign"); !noSign && conf.Checkpoint.KeyPath != "" {
		signer, logID, err := newSigner(conf)
		if err != nil {
			return err
		}
		opts = append(opts, ingest.WithSigner(signer, logID))
	}

	d, err := ingest.NewDriver(log, ingest.Config{
		Mode:            mode,
		MaxProofs:       conf.MaxProofs,
		BatchSize:       conf.BatchSize,
		Capacity:        conf.Capacity,
		CheckpointEvery: conf.Checkpoint.Every,
		Subject:         conf.Checkpoint.Subject,
		Source:          source,
	}, opts...)
	if err != nil {
		return err
	}

	f, err := os.Open(input)
	if err != nil {
		return err
	}
	defer f.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	log.Infof("%s: %s -> %s", mode, input, out)
	sum, err := d.Run(ctx, f)
	printSummary(cmd.OutOrStdout(), mode, sum)
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("interrupted after %d rows, rerun to resume: %w", sum.Rows, err)
	}
	return err
}

func newSigner(conf *Config) (*checkpoint.Signer, uuid.UUID, error) {
	logID, err := uuid.Parse(conf.Checkpoint.LogID)
	if err != nil {
		return nil, uuid.Nil, fmt.Errorf("checkpoint.log_id: %w", err)
	}
	key, err := checkpoint.LoadECKey(conf.Checkpoint.KeyPath)
	if err != nil {
		return nil, uuid.Nil, err
	}
	codec, err := checkpoint.NewCodec()
	if err != nil {
		return nil, uuid.Nil, err
	}
	signer, err := checkpoint.NewSigner(conf.Checkpoint.Issuer, conf.Checkpoint.KeyID, codec, key)
	if err != nil {
		return nil, uuid.Nil, err
	}
	return signer, logID, nil
}

func printSummary(w io.Writer, mode ingest.Mode, sum ingest.Summary) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{mode.String(), "value"})
	table.AppendBulk([][]string{
		{"rows", fmt.Sprint(sum.Rows)},
		{"skipped", fmt.Sprint(sum.Skipped)},
		{"mints", fmt.Sprint(sum.Mints)},
		{"transfers", fmt.Sprint(sum.Transfers)},
		{"splits", fmt.Sprint(sum.Splits)},
		{"mutations", fmt.Sprint(sum.Mutations)},
		{"documents", fmt.Sprint(sum.Documents)},
		{"checkpoints", fmt.Sprint(sum.Checkpoints)},
		{"capped", fmt.Sprint(sum.Capped)},
		{"rootlog size", fmt.Sprint(sum.LogSize)},
		{"root", sum.Root.String()},
	})
	table.Render()
}
