// Package cli provides glucosectl, a terminal client for the reading API.
package cli

import (
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/quentinrf/glucose-log/internal/client"
	"github.com/quentinrf/glucose-log/internal/config"
	"github.com/quentinrf/glucose-log/pkg/tlsconfig"
)

// Version information (set at build time)
var Version = "dev"

// CLI holds the command-line interface state
type CLI struct {
	rootCmd *cobra.Command
	v       *viper.Viper
	client  *client.Client
}

// New creates a new CLI instance
func New() *CLI {
	c := &CLI{v: viper.New()}
	c.rootCmd = c.newRootCmd()
	return c
}

// SetArgs overrides os.Args[1:]
func (c *CLI) SetArgs(args []string) { c.rootCmd.SetArgs(args) }

// SetOutput redirects command output
func (c *CLI) SetOutput(w io.Writer) {
	c.rootCmd.SetOut(w)
	c.rootCmd.SetErr(w)
}

// Execute runs the CLI and returns the process exit code
func (c *CLI) Execute() int {
	if err := c.rootCmd.Execute(); err != nil {
		fmt.Fprintf(c.rootCmd.ErrOrStderr(), "glucosectl: %v\n", err)
		return 1
	}
	return 0
}

func (c *CLI) newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "glucosectl",
		Short:         "Record and review blood-glucose readings",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.initClient()
		},
	}

	flags := cmd.PersistentFlags()
	flags.String("endpoint", "http://localhost:8080", "HTTP API base URL")
	flags.String("grpc-addr", "localhost:50051", "gRPC health endpoint address")
	flags.String("tls-ca", "", "CA certificate used to verify the server")
	flags.String("tls-cert", "", "client certificate for mTLS")
	flags.String("tls-key", "", "client key for mTLS")
	flags.Bool("json", false, "machine-readable JSON output")

	// GLUCOSE_ENDPOINT, GLUCOSE_GRPC_ADDR, ... override the flag defaults
	c.v.SetEnvPrefix(config.EnvPrefix)
	c.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	c.v.AutomaticEnv()
	_ = c.v.BindPFlags(flags)

	cmd.AddCommand(c.newRecordCmd())
	cmd.AddCommand(c.newListCmd())
	cmd.AddCommand(c.newSummaryCmd())
	cmd.AddCommand(c.newHealthCmd())
	cmd.AddCommand(c.newVersionCmd())

	return cmd
}

func (c *CLI) initClient() error {
	httpClient := &http.Client{}
	if c.v.GetString("tls-ca") != "" || c.v.GetString("tls-cert") != "" {
		tlsCfg, err := c.clientTLS()
		if err != nil {
			return err
		}
		httpClient.Transport = &http.Transport{TLSClientConfig: tlsCfg}
	}
	c.client = client.New(c.v.GetString("endpoint"), httpClient)
	return nil
}

func (c *CLI) clientTLS() (*tls.Config, error) {
	return tlsconfig.LoadClientTLS(c.v.GetString("tls-cert"), c.v.GetString("tls-key"), c.v.GetString("tls-ca"))
}

func (c *CLI) jsonOutput() bool {
	return c.v.GetBool("json")
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Main is the glucosectl entrypoint
func Main() {
	os.Exit(New().Execute())
}
