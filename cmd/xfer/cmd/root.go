// Package cmd implements the xfer command line interface.
package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/input-output-hk/catalyst-forge-libs/transfer/xfertypes"

	// Register the built-in backends.
	_ "github.com/input-output-hk/catalyst-forge-libs/transfer/backend/memory"
	_ "github.com/input-output-hk/catalyst-forge-libs/transfer/backend/minio"
	_ "github.com/input-output-hk/catalyst-forge-libs/transfer/backend/s3"
)

// app carries the state shared by the subcommands of one invocation.
type app struct {
	v      *viper.Viper
	opts   *Options
	logger zerolog.Logger
}

// NewRootCommand builds the xfer command tree.
func NewRootCommand() *cobra.Command {
	a := &app{v: viper.New(), logger: zerolog.Nop()}

	root := &cobra.Command{
		Use:   "xfer",
		Short: "Upload and copy large objects to object storage",
		Long: `xfer stores files and streams in S3-compatible object storage.
Objects above the upload threshold are sent as multipart uploads, and copies
above the backend's single copy limit are split into ranged part copies. A
failed transfer never leaves a partial object behind.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}

	f := root.PersistentFlags()
	addBackendFlags(f)
	addTuningFlags(f)
	f.String("config", "", "Path to a configuration file (yaml, toml or json)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")

	_ = a.v.BindPFlags(f)

	root.AddCommand(newPutCommand(a), newCopyCommand(a))
	return root
}

func addBackendFlags(f *pflag.FlagSet) {
	f.String("backend", "s3", "Backend type (s3, minio, memory)")
	f.String("endpoint", "", "Backend endpoint URL")
	f.String("region", "", "Backend region")
	f.String("access-key", "", "Access key (defaults to the provider credential chain)")
	f.String("secret-key", "", "Secret key")
	f.Bool("path-style", false, "Use path-style bucket addressing")
	f.Bool("use-ssl", true, "Use TLS for endpoints given without a scheme")
}

func addTuningFlags(f *pflag.FlagSet) {
	f.String("upload-threshold", defaultSize(xfertypes.DefaultUploadThreshold), "Size at which uploads switch to multipart")
	f.String("upload-part-size", defaultSize(xfertypes.DefaultUploadPartSize), "Target size of each uploaded part")
	f.String("copy-part-size", defaultSize(xfertypes.DefaultCopyPartSize), "Size of each copied range")
	f.Int("read-block-size", xfertypes.DefaultReadBlockSize, "Size of each read from the source")
	f.Duration("abort-timeout", xfertypes.DefaultAbortTimeout, "Time allowed for cleaning up a failed multipart upload")
}

// setup loads configuration and builds the logger before any subcommand runs.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	a.v.SetEnvPrefix("XFER")
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	a.v.AutomaticEnv()

	if path, _ := cmd.Flags().GetString("config"); path != "" {
		a.v.SetConfigFile(path)
		if err := a.v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	opts, err := loadOptions(NewFlagLoader(cmd, a.v))
	if err != nil {
		return err
	}
	a.opts = opts
	a.logger = zerolog.New(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr(), NoColor: true}).
		Level(opts.LogLevel).
		With().
		Timestamp().
		Logger()
	return nil
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
