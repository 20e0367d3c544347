package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"popfitup-backend/internal/interfaces/dto"
)

// printJSON marshals v as indented JSON and writes it to w.
func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printPopupTable prints listings as a table.
func printPopupTable(w io.Writer, items []dto.PopupItem) error {
	if len(items) == 0 {
		_, err := fmt.Fprintln(w, "No popups found.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tREGION\tCATEGORY\tPERIOD\tFAV")
	for _, it := range items {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			it.ID, truncate(it.Name, 30), it.Region, it.Category, formatPeriod(it.StartDate, it.EndDate), formatFavorite(it))
	}
	return tw.Flush()
}

// printPopup prints one listing in detail.
func printPopup(w io.Writer, it dto.PopupItem) {
	fmt.Fprintf(w, "Popup #%d\n", it.ID)
	fmt.Fprintf(w, "  Name:      %s\n", it.Name)
	fmt.Fprintf(w, "  Address:   %s\n", it.Address)
	fmt.Fprintf(w, "  Period:    %s\n", formatPeriod(it.StartDate, it.EndDate))
	if len(it.Categories) > 0 {
		fmt.Fprintf(w, "  Category:  %s (%s)\n", it.Category, strings.Join(it.Categories, ", "))
	}
	if it.SiteLink != "" {
		fmt.Fprintf(w, "  Link:      %s\n", it.SiteLink)
	}
	fmt.Fprintf(w, "  Favorites: %d\n", it.FavoriteCount)
	if it.IsFavorited != nil && *it.IsFavorited {
		fmt.Fprintln(w, "  ★ in your favorites")
	}
	if it.Description != "" {
		fmt.Fprintf(w, "\n%s\n", it.Description)
	}
}

// printReportTable prints reports as a table.
func printReportTable(w io.Writer, rs []dto.ReportItem) error {
	if len(rs) == 0 {
		_, err := fmt.Fprintln(w, "No reports.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tADDRESS\tCREATED\tANSWER")
	for _, r := range rs {
		answer := "-"
		if r.Answer != nil {
			answer = truncate(*r.Answer, 40)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", r.ID, truncate(r.Name, 30), truncate(r.Address, 30), r.CreatedAt, answer)
	}
	return tw.Flush()
}

// formatPeriod renders an inclusive date range; missing bounds are open.
func formatPeriod(start, end string) string {
	switch {
	case start == "" && end == "":
		return "상시"
	case end == "":
		return start + " ~"
	case start == "":
		return "~ " + end
	}
	return start + " ~ " + end
}

func formatFavorite(it dto.PopupItem) string {
	mark := ""
	if it.IsFavorited != nil && *it.IsFavorited {
		mark = "★"
	}
	return fmt.Sprintf("%s%d", mark, it.FavoriteCount)
}

// truncate shortens s to max runes.
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}
