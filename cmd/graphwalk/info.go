package main

import (
	"github.com/hupe1980/graphwalk"
	"github.com/spf13/cobra"
)

func newInfoCmd(flags *globalFlags) *cobra.Command {
	var blockSize int64

	cmd := &cobra.Command{
		Use:   "info <dataset>",
		Short: "Describe a dataset and its partition",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("block-size") {
				cfg.Engine.BlockSize = blockSize
			}

			sess, err := newSession(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer sess.Close()

			g, err := graphwalk.Open(cmd.Context(), args[0], sess.opts...)
			if err != nil {
				return err
			}
			defer g.Close()

			printInfo(cmd.OutOrStdout(), g.Info())
			return nil
		},
	}
	cmd.Flags().Int64Var(&blockSize, "block-size", graphwalk.DefaultBlockSize, "partition block size in bytes")
	return cmd
}
