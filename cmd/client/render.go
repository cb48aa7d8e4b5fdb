package main

import (
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"inventory-api/internal/client"
	"inventory-api/internal/domain"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

func newTable(out io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleLight)
	return t
}

func renderProducts(out io.Writer, views []domain.ProductView) {
	if len(views) == 0 {
		fmt.Fprintln(out, "No products found.")
		return
	}
	t := newTable(out)
	t.AppendHeader(table.Row{"Name", "Quantity", "Price", "Total with VAT"})
	for _, v := range views {
		t.AppendRow(table.Row{v.ItemName, v.Quantity, v.Price.StringFixed(2), v.TotalPriceWithVat.StringFixed(2)})
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
	})
	t.Render()
}

func renderAudit(out io.Writer, entries []domain.AuditEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(out, "No audit entries found.")
		return
	}
	t := newTable(out)
	t.AppendHeader(table.Row{"ID", "Operation", "Product ID", "User", "Changed At", "Data"})
	for _, e := range entries {
		t.AppendRow(table.Row{
			e.ID,
			e.Operation,
			e.ProductID,
			e.Username,
			e.ChangedAt.UTC().Format(time.RFC3339),
			e.ChangedData,
		})
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 6, WidthMax: 80},
	})
	t.Render()
}

// reportError prints err the way the menu shows failed calls
func reportError(out io.Writer, baseURL string, err error) {
	var apiErr *client.APIError
	var netErr *net.OpError
	switch {
	case errors.As(err, &apiErr):
		msg := apiErr.Message
		if msg == "" {
			msg = fmt.Sprintf("%d", apiErr.Status)
		}
		fmt.Fprintf(out, "Error: %s\n", msg)
		for _, e := range apiErr.Errors {
			fmt.Fprintf(out, "- %s\n", e)
		}
		if apiErr.Detail != "" {
			fmt.Fprintf(out, "- %s\n", apiErr.Detail)
		}
	case errors.Is(err, client.ErrNotLoggedIn):
		fmt.Fprintln(out, "Error: Please login first.")
	case errors.As(err, &netErr):
		fmt.Fprintf(out, "Error: Unable to connect to the API. Ensure it is running at %s\n", baseURL)
	default:
		fmt.Fprintf(out, "Error: %v\n", err)
	}
}
