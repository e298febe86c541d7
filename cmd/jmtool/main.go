// Command jmtool replays token transfer records into a Jellyfish Merkle Tree
// and exports, archives, checks and inspects the resulting proofs.
package main

import "github.com/forestrie/go-jellyfish/cmd/jmtool/internal/cmd"

func main() {
	cmd.Execute()
}
