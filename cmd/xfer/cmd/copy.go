package cmd

import (
	"github.com/spf13/cobra"

	"github.com/input-output-hk/catalyst-forge-libs/transfer"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/xfertypes"
)

func newCopyCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "copy <src-container>/<src-key> <dst-container>/<dst-key>",
		Short: "Copy an object inside the backend",
		Long: `Copy an object server-side. The source size is looked up on the
backend, and sources above the single copy limit are copied in ranges.`,
		Args: cobra.ExactArgs(2),
		RunE: a.runCopy,
	}
}

func (a *app) runCopy(cmd *cobra.Command, args []string) error {
	srcContainer, srcKey, err := parseLocation(args[0])
	if err != nil {
		return err
	}
	dstContainer, dstKey, err := parseLocation(args[1])
	if err != nil {
		return err
	}

	client, err := newClient(cmd.Context(), a.opts, a.logger)
	if err != nil {
		return err
	}

	result, err := client.CopyObject(cmd.Context(),
		xfertypes.Target{Container: dstContainer, Key: dstKey},
		xfertypes.ObjectRef{Container: srcContainer, Key: srcKey},
		xfertypes.SizeUnknown,
		transfer.WithCopyProgress(newProgressLogger(a.logger, 0)),
	)
	if err != nil {
		return err
	}

	return printResult(cmd.OutOrStdout(), result)
}
