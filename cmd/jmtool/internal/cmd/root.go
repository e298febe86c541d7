package cmd

import (
	"fmt"
	"os"

	"github.com/datatrails/go-datatrails-common/logger"
	"github.com/spf13/cobra"
)

var RootCmd = &cobra.Command{
	Use:   "jmtool",
	Short: "Jellyfish Merkle Tree proof tool.",
	Long: `jmtool replays token transfer records into a Jellyfish Merkle Tree.

It exports membership and ancestry proofs for an on-chain verifier, keeps a
signed history of trie roots, and checks exported proofs offline.`,
	SilenceUsage: true,
}

func init() {
	RootCmd.PersistentFlags().StringP("config", "c", DefaultConfigFile, "Path to the configuration file")
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup loads the configuration named by --config and starts the logger.
// The caller defers logger.OnExit.
func setup(cmd *cobra.Command) (*Config, logger.Logger, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, nil, err
	}
	conf, err := LoadConfig(path)
	if err != nil {
		return nil, nil, err
	}
	logger.New(conf.Logger.Level)
	return conf, logger.Sugar.WithServiceName("jmtool"), nil
}
