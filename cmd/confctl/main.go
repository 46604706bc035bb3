// File: confforge/conf/cmd/confctl/main.go

// Command confctl inspects and manipulates configuration files in any
// format conf understands.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/confforge/conf"
	_ "github.com/confforge/conf/format"
)

var rootCmd = &cobra.Command{
	Use:           "confctl",
	Short:         "Inspect and convert configuration files",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var getCmd = &cobra.Command{
	Use:   "get <file> <path>",
	Short: "Print the value at a dot-separated path",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := conf.New()
		if err := cfg.Load(args[0]); err != nil {
			return err
		}
		v, err := cfg.Get(args[1])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), v.String())
		return nil
	},
}

var setCmd = &cobra.Command{
	Use:   "set <file> <path> <value>",
	Short: "Set a value and write the file back in place",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := conf.New()
		if err := cfg.Load(args[0]); err != nil {
			return err
		}
		if err := cfg.Set(args[1], conf.CoerceScalar(args[2])); err != nil {
			return err
		}
		return cfg.Save()
	},
}

var convertCmd = &cobra.Command{
	Use:   "convert <in> <out>",
	Short: "Re-emit a configuration file in the format of the output extension",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := conf.New()
		if err := cfg.Load(args[0]); err != nil {
			return err
		}
		return cfg.SaveTo(args[1])
	},
}

var validateSchemaFile string

var validateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Check a configuration file against a JSON Schema",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		schemaData, err := os.ReadFile(validateSchemaFile)
		if err != nil {
			return err
		}
		cfg, err := conf.NewBuilder().
			WithFile(args[0]).
			WithSchema(schemaData).
			Build()
		if err != nil {
			return err
		}
		_ = cfg
		fmt.Fprintln(cmd.OutOrStdout(), "valid")
		return nil
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch <file>",
	Short: "Follow a configuration file and report every reload",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := conf.New()
		if err := cfg.Load(args[0]); err != nil {
			return err
		}
		err := cfg.Watch(func(root *conf.Value, err error) {
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "reload failed, previous config retained: %v\n", err)
				return
			}
			fmt.Fprintf(cmd.OutOrStdout(), "reloaded, generation %d\n", cfg.Generation())
		})
		if err != nil {
			return err
		}
		defer cfg.StopWatch()

		fmt.Fprintf(cmd.OutOrStdout(), "watching %s\n", args[0])
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		return nil
	},
}

func init() {
	validateCmd.Flags().StringVar(&validateSchemaFile, "schema", "", "JSON Schema file")
	validateCmd.MarkFlagRequired("schema")

	rootCmd.AddCommand(getCmd, setCmd, convertCmd, validateCmd, watchCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "confctl:", err)
		os.Exit(1)
	}
}
