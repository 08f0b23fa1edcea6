package main

import (
	"io"
	"strings"
	"sync"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/amanyadav21/moody-player/internal/client"
	"github.com/amanyadav21/moody-player/internal/config"
	"github.com/amanyadav21/moody-player/internal/logging"
)

type commandContext struct {
	configFlag *string
	envFlag    *string
	apiFlag    *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newRootCommand() *cobra.Command {
	var configFlag, envFlag, apiFlag string
	ctx := &commandContext{configFlag: &configFlag, envFlag: &envFlag, apiFlag: &apiFlag}

	rootCmd := &cobra.Command{
		Use:           "moodplayer",
		Short:         "Mood-based music player",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path (default ./"+config.DefaultConfigFile+")")
	rootCmd.PersistentFlags().StringVar(&envFlag, "env-file", "", "Environment file path (default ./"+config.DefaultEnvFile+")")
	rootCmd.PersistentFlags().StringVar(&apiFlag, "api", "", "Songs API base URL (overrides client.api_url)")

	rootCmd.AddCommand(newServeCommand(ctx))
	rootCmd.AddCommand(newSongsCommand(ctx))
	rootCmd.AddCommand(newAddCommand(ctx))
	rootCmd.AddCommand(newImportCommand(ctx))
	rootCmd.AddCommand(newListenCommand(ctx))

	return rootCmd
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, err := config.Load(strings.TrimSpace(*c.configFlag), strings.TrimSpace(*c.envFlag))
		if err != nil {
			c.configErr = err
			return
		}
		if api := strings.TrimRight(strings.TrimSpace(*c.apiFlag), "/"); api != "" {
			cfg.Client.APIURL = api
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) logger(w io.Writer) hclog.Logger {
	return logging.New(c.config.Logging, w)
}

func (c *commandContext) client() *client.Client {
	return client.New(c.config.Client.APIURL, client.WithTimeout(c.config.ClientTimeout()))
}
