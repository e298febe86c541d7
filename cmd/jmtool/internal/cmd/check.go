package cmd

import (
	"fmt"

	"github.com/datatrails/go-datatrails-common/logger"
	"github.com/forestrie/go-jellyfish/archive"
	"github.com/forestrie/go-jellyfish/checkpoint"
	"github.com/forestrie/go-jellyfish/export"
	"github.com/forestrie/go-jellyfish/ingest"
	"github.com/forestrie/go-jellyfish/jmt"
	"github.com/forestrie/go-jellyfish/rootlog"
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check [dir]",
	Short: "Verify exported documents and the latest archived checkpoint.",
	Long: `Verify exported documents offline.

Every document's proof is checked against its root. With --chain the
documents must also form an unbroken insert history: each ancestry proof has
to reconstruct the root of the document before it, starting from the empty
trie. With --checkpoint the latest signed checkpoint in the archive is
verified against the archived root history. With --archive every archived
mutation is replayed through its ancestry record and every checkpoint along
the way is verified. Checkpoints must be signed by the configured key.

--mode selects which archive, export or verify-only, the archive checks read.`,
	Args: cobra.MaximumNArgs(1),
	RunE: checkRun,
}

func init() {
	RootCmd.AddCommand(checkCmd)
	checkCmd.Flags().Bool("chain", false, "Require an unbroken ancestry chain")
	checkCmd.Flags().Bool("checkpoint", false, "Verify the latest archived checkpoint")
	checkCmd.Flags().Bool("archive", false, "Replay and verify the whole archive")
	checkCmd.Flags().String("mode", ingest.ModeExport.String(), "Archive to check: export or verify-only")
}

func checkRun(cmd *cobra.Command, args []string) error {
	conf, log, err := setup(cmd)
	if err != nil {
		return err
	}
	defer logger.OnExit()

	dir := conf.ProofsDir
	if len(args) > 0 {
		dir = args[0]
	}
	chained, _ := cmd.Flags().GetBool("chain")

	files, err := export.List(dir)
	if err != nil {
		return err
	}
	hasher := jmt.NewHasher()
	chain := export.NewChain(hasher)
	for _, f := range files {
		doc, err := export.ReadDocument(f)
		if err != nil {
			return err
		}
		if chained {
			err = chain.Next(doc)
		} else {
			err = export.Check(hasher, doc)
		}
		if err != nil {
			return fmt.Errorf("%s: %w", f, err)
		}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d documents ok in %s\n", len(files), dir)
	if chained && len(files) > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "chain ends at root %s\n", chain.Root())
	}

	cp, _ := cmd.Flags().GetBool("checkpoint")
	audit, _ := cmd.Flags().GetBool("archive")
	if !cp && !audit {
		return nil
	}
	modeName, _ := cmd.Flags().GetString("mode")
	mode, err := ingest.ParseMode(modeName)
	if err != nil {
		return err
	}
	store, err := archive.Open(conf.ArchivePath(mode))
	if err != nil {
		return err
	}
	defer store.Close()
	verify, err := checkpointVerifier(conf, log, store)
	if err != nil {
		return err
	}

	if cp {
		seq, msg, err := store.LatestCheckpoint()
		if err != nil {
			return err
		}
		state, err := verify(seq, msg)
		if err != nil {
			return err
		}
		log.Infof("checkpoint %d verified: log %s size %d", seq, state.LogID, state.LogSize)
		fmt.Fprintf(cmd.OutOrStdout(), "checkpoint after mutation %d ok: leaves=%d trie root=%x\n", seq, state.Leaves, state.TrieRoot)
	}
	if audit {
		rep, err := store.Audit(func(seq uint64, msg []byte) error {
			_, err := verify(seq, msg)
			return err
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "archive ok: mutations=%d leaves=%d proofs=%d checkpoints=%d root=%s\n",
			rep.Mutations, rep.Leaves, rep.Proofs, rep.Checkpoints, rep.Root)
	}
	return nil
}

// checkpointVerifier verifies checkpoints against the archived rootlog and
// the public half of the configured signing key.
func checkpointVerifier(
	conf *Config, log logger.Logger, store *archive.Store,
) (func(seq uint64, msg []byte) (checkpoint.TreeState, error), error) {
	codec, err := checkpoint.NewCodec()
	if err != nil {
		return nil, err
	}
	var opts []checkpoint.VerifyOption
	if conf.Checkpoint.KeyPath != "" {
		key, err := checkpoint.LoadECKey(conf.Checkpoint.KeyPath)
		if err != nil {
			return nil, fmt.Errorf("trusted checkpoint key: %w", err)
		}
		opts = append(opts, checkpoint.WithTrustedPub(&key.PublicKey))
	} else {
		log.Infof("checkpoint.key_path is empty, trusting the key carried by each checkpoint")
	}

	return func(seq uint64, msg []byte) (checkpoint.TreeState, error) {
		state, err := checkpoint.VerifyFromLog(codec, msg, store, jmt.NewHasher(), opts...)
		if err != nil {
			return state, err
		}
		if n := rootlog.LeafCount(state.LogSize); n != seq {
			return state, fmt.Errorf("checkpoint stored at %d covers %d mutations", seq, n)
		}
		return state, nil
	}, nil
}
