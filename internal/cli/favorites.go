package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"popfitup-backend/internal/browse"
)

func newFavoritesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "favorites",
		Aliases: []string{"fav"},
		Short:   "List and toggle favorites (requires --session)",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := newAPIClient().Favorites(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if isJSON() {
				return printJSON(out, items)
			}
			return printPopupTable(out, items)
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "toggle <id>",
		Short: "Favorite or unfavorite a popup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid popup ID: %s", args[0])
			}
			api := newAPIClient()
			me, err := api.Me(cmd.Context())
			if err != nil {
				return err
			}
			ledger := browse.NewLedger(api)
			if err := ledger.SetIdentity(cmd.Context(), me.Authenticated); err != nil {
				return err
			}
			on, err := ledger.Toggle(cmd.Context(), id)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if isJSON() {
				return printJSON(out, map[string]interface{}{"popupId": id, "favorited": on})
			}
			if on {
				fmt.Fprintf(out, "Popup #%d added to favorites.\n", id)
			} else {
				fmt.Fprintf(out, "Popup #%d removed from favorites.\n", id)
			}
			return nil
		},
	})

	return cmd
}
