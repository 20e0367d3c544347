package cli

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"

	"popfitup-backend/internal/browse"
	"popfitup-backend/internal/domain"
	"popfitup-backend/internal/interfaces/dto"
)

func newHomeCmd() *cobra.Command {
	var month string

	cmd := &cobra.Command{
		Use:   "home",
		Short: "Show the home buckets",
		Long:  "Show the latest, popular and monthly buckets, or only the monthly bucket of --month.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHome(cmd, month)
		},
	}

	cmd.Flags().StringVar(&month, "month", "", "month to show (YYYY-MM)")

	return cmd
}

func runHome(cmd *cobra.Command, month string) error {
	api := newAPIClient()
	out := cmd.OutOrStdout()

	if month != "" {
		m, err := domain.ParseMonthKey(month)
		if err != nil {
			return err
		}
		items, err := api.Monthly(cmd.Context(), m)
		if err != nil {
			return err
		}
		if isJSON() {
			return printJSON(out, items)
		}
		return printPopupTable(out, items)
	}

	home, err := api.Home(cmd.Context())
	if err != nil {
		return err
	}
	if isJSON() {
		return printJSON(out, home)
	}
	for _, b := range []struct {
		title string
		items []dto.PopupItem
	}{
		{"Latest", home.Latest},
		{"Popular", home.Popular},
		{"This month (" + home.Month + ")", home.Monthly},
	} {
		fmt.Fprintf(out, "== %s ==\n", b.title)
		if err := printPopupTable(out, b.items); err != nil {
			return err
		}
		fmt.Fprintln(out)
	}
	return nil
}

func newSearchCmd() *cobra.Command {
	var (
		filter         domain.SearchFilter
		page, pageSize int
	)

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search popups",
		Long:  "Faceted search by region, category, date and keyword. Empty or \"all\" values match everything.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := newAPIClient().Search(cmd.Context(), filter, page, pageSize)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if isJSON() {
				return printJSON(out, res)
			}
			fmt.Fprintf(out, "%d result(s), page %d\n", res.Total, res.Page)
			return printPopupTable(out, res.Items)
		},
	}

	cmd.Flags().StringVar(&filter.Location, "region", "", "address or region substring")
	cmd.Flags().StringVar(&filter.Category, "category", "", "category code (e.g. fashion, food)")
	cmd.Flags().StringVar(&filter.Date, "date", "", "date the popup must be open on (YYYY-MM-DD)")
	cmd.Flags().StringVar(&filter.Keyword, "keyword", "", "name or description substring")
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().IntVar(&pageSize, "page-size", 0, "page size (default: server setting)")

	return cmd
}

func newBrowseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "browse [query]",
		Short: "Render the catalog view for a URL query",
		Long: "Derive the home/search state from a URL query string (as the web app does) and " +
			"print what it would display, e.g. 'popupctl browse \"category=food&page=2\"'.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw := ""
			if len(args) == 1 {
				raw = args[0]
			}
			q, err := url.ParseQuery(raw)
			if err != nil {
				return fmt.Errorf("invalid query: %w", err)
			}
			s := browse.NewSession(newAPIClient(), q, 0, nil)
			page, err := s.Load(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			st := s.State()
			if isJSON() {
				return printJSON(out, map[string]interface{}{
					"mode":  st.Mode.String(),
					"query": st.Query().Encode(),
					"phase": s.Phase().String(),
					"total": page.Total,
					"items": page.Items,
				})
			}
			fmt.Fprintf(out, "mode=%s query=%q phase=%s total=%d\n", st.Mode, st.Query().Encode(), s.Phase(), page.Total)
			if latest, _, ok := s.Highlights(); ok && st.Mode == browse.ModeHome {
				fmt.Fprintln(out, "== Latest ==")
				if err := printPopupTable(out, latest); err != nil {
					return err
				}
				fmt.Fprintln(out, "== Month ==")
			}
			return printPopupTable(out, page.Items)
		},
	}
}

func newShowCmd() *cobra.Command {
	var similar, nearby bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a popup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid popup ID: %s", args[0])
			}
			api := newAPIClient()
			out := cmd.OutOrStdout()

			if similar || nearby {
				fetch := api.Similar
				if nearby {
					fetch = api.Nearby
				}
				items, err := fetch(cmd.Context(), id)
				if err != nil {
					return err
				}
				if isJSON() {
					return printJSON(out, items)
				}
				return printPopupTable(out, items)
			}

			it, err := api.Popup(cmd.Context(), id)
			if err != nil {
				return err
			}
			if isJSON() {
				return printJSON(out, it)
			}
			printPopup(out, *it)
			return nil
		},
	}

	cmd.Flags().BoolVar(&similar, "similar", false, "list popups sharing a category instead")
	cmd.Flags().BoolVar(&nearby, "nearby", false, "list popups in the same region instead")

	return cmd
}

func newMeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "me",
		Short: "Show the current identity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			me, err := newAPIClient().Me(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if isJSON() {
				return printJSON(out, me)
			}
			if !me.Authenticated {
				fmt.Fprintln(out, "Not logged in.")
				return nil
			}
			fmt.Fprintf(out, "Logged in as %s (%s)\n", me.Nickname, me.Identity)
			return nil
		},
	}
}
