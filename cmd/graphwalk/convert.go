package main

import (
	"fmt"
	"io"
	"os"

	"github.com/hupe1980/graphwalk"
	"github.com/spf13/cobra"
)

func newConvertCmd(flags *globalFlags) *cobra.Command {
	var opts graphwalk.ConvertOptions

	cmd := &cobra.Command{
		Use:   "convert <edge-list|-> <dataset>",
		Short: "Convert a text edge list into a dataset",
		Long: `Convert reads "src dst [weight]" lines (spaces, tabs or commas; '#' and '%'
start comments) and writes the CSR files and the partition for --block-size.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load(cmd)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("block-size") {
				opts.BlockSize = cfg.Engine.BlockSize
			}

			var r io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				r = f
			}

			sess, err := newSession(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer sess.Close()

			info, err := graphwalk.Convert(cmd.Context(), sess.store, args[1], r, opts)
			if err != nil {
				return err
			}
			printInfo(cmd.OutOrStdout(), info)
			return nil
		},
	}
	cmd.Flags().Int64Var(&opts.BlockSize, "block-size", graphwalk.DefaultBlockSize, "partition block size in bytes")
	cmd.Flags().Uint32Var(&opts.NumVertices, "vertices", 0, "vertex count (0 derives it from the largest id)")
	cmd.Flags().BoolVar(&opts.Undirected, "undirected", false, "add the reverse of every edge")
	cmd.Flags().BoolVar(&opts.Weighted, "weighted", false, "keep the third column as edge weight")
	cmd.Flags().BoolVar(&opts.Dedup, "dedup", false, "drop repeated edges")
	cmd.Flags().BoolVar(&opts.Reordered, "reordered", false, "mark vertex ids as locality-ordered")
	cmd.Flags().BoolVar(&opts.ExpectedLengths, "expected-lengths", false, "store per-block expected walk lengths")
	return cmd
}

func printInfo(w io.Writer, info graphwalk.Info) {
	fmt.Fprintf(w, "dataset:          %s\n", info.Name)
	fmt.Fprintf(w, "vertices:         %d\n", info.Vertices)
	fmt.Fprintf(w, "edges:            %d\n", info.Edges)
	fmt.Fprintf(w, "weighted:         %t\n", info.Weighted)
	fmt.Fprintf(w, "reordered:        %t\n", info.Reordered)
	fmt.Fprintf(w, "block size:       %d\n", info.BlockSize)
	fmt.Fprintf(w, "blocks:           %d\n", info.Blocks)
	fmt.Fprintf(w, "max block bytes:  %d\n", info.MaxBlockBytes)
	fmt.Fprintf(w, "expected lengths: %t\n", info.ExpectedLengths)
	if info.Slots > 0 {
		fmt.Fprintf(w, "cache slots:      %d\n", info.Slots)
	}
}
