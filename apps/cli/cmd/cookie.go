package cmd

import (
	"fmt"

	"github.com/abdul-hamid-achik/hitfetch/packages/core/config"
	"github.com/abdul-hamid-achik/hitfetch/packages/http"
	"github.com/abdul-hamid-achik/hitfetch/packages/output"
	"github.com/spf13/cobra"
)

var cookieFileFlag string

var cookieCmd = &cobra.Command{
	Use:   "cookie",
	Short: "Inspect a cookies file",
}

var cookieGetCmd = &cobra.Command{
	Use:   "get <name>",
	Short: "Print the value of a stored cookie",
	Long: `Print the value of the first stored cookie with the given name.

Examples:
  hitfetch cookie get session --cookies jar.json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := cookieClient()
		if err != nil {
			return err
		}

		value, ok, err := client.GetCookie(args[0])
		if err != nil {
			return withExitCode(ExitConfigError, err)
		}
		if !ok {
			return fmt.Errorf("cookie %q not found", args[0])
		}
		fmt.Fprintln(cmd.OutOrStdout(), value)
		return nil
	},
}

var cookieListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print all stored cookies as JSON",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := cookieClient()
		if err != nil {
			return err
		}

		entries, err := client.Cookies()
		if err != nil {
			return withExitCode(ExitConfigError, err)
		}
		return output.NewJSONFormatter(cmd.OutOrStdout()).FormatValue(entries)
	},
}

func init() {
	cookieCmd.PersistentFlags().StringVarP(&cookieFileFlag, "cookies", "c", getEnvString("HITFETCH_COOKIES", ""), "Cookies file (env: HITFETCH_COOKIES)")
	cookieCmd.PersistentFlags().StringVar(&configFlag, "config", getEnvString("HITFETCH_CONFIG", ""), "Path to config file (env: HITFETCH_CONFIG)")
	cookieCmd.AddCommand(cookieGetCmd)
	cookieCmd.AddCommand(cookieListCmd)
}

// cookieClient returns a client reading the cookies file from the flag or config
func cookieClient() (*http.Client, error) {
	path := cookieFileFlag
	if path == "" {
		cfg, err := config.LoadConfig(configFlag)
		if err != nil {
			return nil, withExitCode(ExitConfigError, err)
		}
		path = cfg.CookiesFile
	}
	if path == "" {
		return nil, withExitCode(ExitUsageError, fmt.Errorf("no cookies file given (use --cookies or cookiesFile in the config)"))
	}
	return http.NewClient(http.WithCookiesFile(path)), nil
}
