package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/datatrails/go-datatrails-common/logger"
	"github.com/forestrie/go-jellyfish/ingest"
	"github.com/forestrie/go-jellyfish/jmt"
	"github.com/spf13/cobra"
)

var printCmd = &cobra.Command{
	Use:   "print [token id]",
	Short: "Replay the input and print the trie, or the proof for one token.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  printRun,
}

func init() {
	RootCmd.AddCommand(printCmd)
	printCmd.Flags().String("input", "", "Transfer CSV, overrides the configuration")
}

// replay builds the trie for the configured input in memory.
func replay(cmd *cobra.Command, conf *Config, log logger.Logger) (*ingest.Driver, error) {
	input := conf.Input
	if in, _ := cmd.Flags().GetString("input"); in != "" {
		input = in
	}
	f, err := os.Open(input)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	d, err := ingest.NewDriver(log, ingest.Config{Mode: ingest.ModeExport, Capacity: conf.Capacity})
	if err != nil {
		return nil, err
	}
	if _, err := d.Run(context.Background(), f); err != nil {
		return nil, err
	}
	return d, nil
}

func printRun(cmd *cobra.Command, args []string) error {
	conf, log, err := setup(cmd)
	if err != nil {
		return err
	}
	defer logger.OnExit()

	d, err := replay(cmd, conf, log)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(args) == 0 {
		return jmt.Fprint(out, d.Tree())
	}

	id, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("token id %q: %w", args[0], err)
	}
	key, err := d.Registry().Key(id, false)
	if err != nil {
		return err
	}
	return jmt.FprintProof(out, key, d.Tree().GenerateProof(key))
}
