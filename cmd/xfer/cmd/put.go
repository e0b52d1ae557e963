package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/input-output-hk/catalyst-forge-libs/transfer"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/xfertypes"
)

func newPutCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "put <container>/<key> <file|->",
		Short: "Upload a file or standard input",
		Long: `Upload a local file, or standard input when the source is "-".
Standard input is read as a stream of unknown length.`,
		Args: cobra.ExactArgs(2),
		RunE: a.runPut,
	}

	f := cmd.Flags()
	f.String("content-type", "", "Content type (detected when empty)")
	f.String("acl", "", "Canned ACL, e.g. private or public-read")
	f.String("storage-class", "", "Storage class, e.g. STANDARD_IA")
	f.String("sse", "", "Server-side encryption (AES256 or aws:kms)")
	f.String("kms-key-id", "", "KMS key for aws:kms encryption")
	return cmd
}

func (a *app) runPut(cmd *cobra.Command, args []string) error {
	container, key, err := parseLocation(args[0])
	if err != nil {
		return err
	}

	target, err := putTarget(cmd, container, key)
	if err != nil {
		return err
	}

	client, err := newClient(cmd.Context(), a.opts, a.logger)
	if err != nil {
		return err
	}

	var result *xfertypes.Result
	if args[1] == "-" {
		result, err = client.SaveStream(cmd.Context(), target, cmd.InOrStdin(), xfertypes.SizeUnknown,
			transfer.WithProgress(newProgressLogger(a.logger, 0)))
	} else {
		result, err = client.SaveFile(cmd.Context(), target, args[1],
			transfer.WithProgress(newProgressLogger(a.logger, 0)))
	}
	if err != nil {
		return err
	}

	return printResult(cmd.OutOrStdout(), result)
}

func putTarget(cmd *cobra.Command, container, key string) (xfertypes.Target, error) {
	f := cmd.Flags()
	contentType, _ := f.GetString("content-type")
	acl, _ := f.GetString("acl")
	storageClass, _ := f.GetString("storage-class")
	sse, _ := f.GetString("sse")
	kmsKeyID, _ := f.GetString("kms-key-id")

	target := xfertypes.Target{
		Container:    container,
		Key:          key,
		ContentType:  contentType,
		Access:       xfertypes.ObjectACL(acl),
		StorageClass: xfertypes.StorageClass(storageClass),
	}

	switch xfertypes.SSEType(sse) {
	case "":
		if kmsKeyID != "" {
			return target, fmt.Errorf("--kms-key-id requires --sse=%s", xfertypes.SSEKMS)
		}
	case xfertypes.SSES3:
		target.SSE = &xfertypes.SSEConfig{Type: xfertypes.SSES3}
	case xfertypes.SSEKMS:
		target.SSE = &xfertypes.SSEConfig{Type: xfertypes.SSEKMS, KMSKeyID: kmsKeyID}
	default:
		return target, fmt.Errorf("unsupported --sse value %q", sse)
	}
	return target, nil
}

func printResult(w io.Writer, r *xfertypes.Result) error {
	_, err := fmt.Fprintf(w, "%s/%s %s %s parts=%d etag=%s in %s\n",
		r.Container, r.Key, humanize.IBytes(uint64(r.Size)), r.Path, r.Parts, r.ETag, r.Duration.Round(time.Millisecond))
	return err
}
