package cmd

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"fmt"
	"os"
	"path/filepath"

	"github.com/forestrie/go-jellyfish/checkpoint"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a configuration file and a checkpoint signing key.",
	RunE:  initRun,
}

func init() {
	RootCmd.AddCommand(initCmd)
	initCmd.Flags().StringP("dir", "d", ".", "Directory for the generated files")
	initCmd.Flags().Bool("no-key", false, "Do not generate a signing key")
	initCmd.Flags().BoolP("force", "f", false, "Overwrite existing files")
}

func initRun(cmd *cobra.Command, args []string) error {
	dir, _ := cmd.Flags().GetString("dir")
	noKey, _ := cmd.Flags().GetBool("no-key")
	force, _ := cmd.Flags().GetBool("force")

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	conf := DefaultConfig()
	confPath := filepath.Join(dir, DefaultConfigFile)
	if err := refuseOverwrite(confPath, force); err != nil {
		return err
	}
	if noKey {
		conf.Checkpoint.KeyPath = ""
	}
	if err := SaveConfig(confPath, conf); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", confPath)
	if noKey {
		return nil
	}

	keyPath := filepath.Join(dir, conf.Checkpoint.KeyPath)
	if err := refuseOverwrite(keyPath, force); err != nil {
		return err
	}
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return err
	}
	data, err := checkpoint.EncodeECKey(key)
	if err != nil {
		return err
	}
	if err := os.WriteFile(keyPath, data, 0o600); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", keyPath)
	return nil
}

func refuseOverwrite(path string, force bool) error {
	if force {
		return nil
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s exists, use --force to overwrite", path)
	}
	return nil
}
