// Package cli defines the cobra command trees of the API server
// (popfitup-api) and of the admin/browse client (popupctl).
package cli

import (
	"os"

	"github.com/spf13/cobra"

	"popfitup-backend/internal/client"
)

var (
	flagFormat   string
	flagServer   string
	flagSession  string
	flagClientID string
	flagKey      string
)

// NewAPICmd creates the server root command. Running it without a
// subcommand serves the API.
func NewAPICmd() *cobra.Command {
	serve := newServeCmd()
	root := &cobra.Command{
		Use:           "popfitup-api",
		Short:         "Popup store catalog API",
		Long:          "Serves the popfitup catalog, favorites and report moderation API.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serve.RunE,
	}
	root.Flags().AddFlagSet(serve.Flags())

	root.AddCommand(
		serve,
		newMigrateCmd(),
		newSeedCmd(),
	)
	return root
}

// NewCtlCmd creates the popupctl root command with global flags.
func NewCtlCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "popupctl",
		Short:         "Browse popups and moderate reports",
		Long:          "A client for the popfitup API: browse the catalog, manage favorites, file and moderate reports.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&flagFormat, "format", "text", "output format (text|json)")
	root.PersistentFlags().StringVar(&flagServer, "server", envOr("POPFITUP_SERVER", "http://localhost:8080"), "API base URL")
	root.PersistentFlags().StringVar(&flagSession, "session", os.Getenv("POPFITUP_SESSION"), "session cookie value")
	root.PersistentFlags().StringVar(&flagClientID, "client-id", os.Getenv("POPFITUP_CLIENT_ID"), "anonymous device token for reports")
	root.PersistentFlags().StringVar(&flagKey, "key", os.Getenv("POPFITUP_ADMIN_KEY"), "report admin key")

	root.AddCommand(
		newHomeCmd(),
		newSearchCmd(),
		newBrowseCmd(),
		newShowCmd(),
		newMeCmd(),
		newFavoritesCmd(),
		newReportCmd(),
		newAdminCmd(),
	)
	return root
}

// newAPIClient creates an HTTP client for the popfitup API.
func newAPIClient() *client.Client {
	var opts []client.Option
	if flagSession != "" {
		opts = append(opts, client.WithSessionCookie(flagSession))
	}
	if flagClientID != "" {
		opts = append(opts, client.WithClientID(flagClientID))
	}
	return client.New(flagServer, opts...)
}

// isJSON returns true if the --format flag is set to json.
func isJSON() bool {
	return flagFormat == "json"
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
