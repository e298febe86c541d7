package cmd

import (
	"fmt"
	"sort"

	"github.com/datatrails/go-datatrails-common/logger"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Replay the input and summarize the trie shape.",
	Args:  cobra.NoArgs,
	RunE:  statsRun,
}

func init() {
	RootCmd.AddCommand(statsCmd)
	statsCmd.Flags().String("input", "", "Transfer CSV, overrides the configuration")
}

func statsRun(cmd *cobra.Command, args []string) error {
	conf, log, err := setup(cmd)
	if err != nil {
		return err
	}
	defer logger.OnExit()

	d, err := replay(cmd, conf, log)
	if err != nil {
		return err
	}
	s := d.Tree().Stats()
	out := cmd.OutOrStdout()

	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"trie", "value"})
	table.AppendBulk([][]string{
		{"leaves", fmt.Sprint(s.Leaves)},
		{"internal nodes", fmt.Sprint(s.Internals)},
		{"max leaf depth", fmt.Sprint(s.MaxDepth)},
		{"tokens minted", fmt.Sprint(d.Registry().Minted())},
		{"next version", fmt.Sprint(d.Registry().Next())},
		{"roots recorded", fmt.Sprint(d.RootLog().Len())},
		{"root", d.Tree().RootDigest().String()},
	})
	table.Render()

	depths := make([]int, 0, len(s.LeafDepths))
	for depth := range s.LeafDepths {
		depths = append(depths, depth)
	}
	sort.Ints(depths)
	hist := tablewriter.NewWriter(out)
	hist.SetHeader([]string{"leaf depth", "leaves"})
	for _, depth := range depths {
		hist.Append([]string{fmt.Sprint(depth), fmt.Sprint(s.LeafDepths[depth])})
	}
	hist.Render()
	return nil
}
