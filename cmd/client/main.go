package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"inventory-api/internal/client"
	"inventory-api/internal/domain"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

type options struct {
	baseURL string
	token   string
}

func (o *options) session() *client.Session {
	s := client.NewSession(o.baseURL)
	s.Token = o.token
	return s
}

func newRootCmd(opts *options, out io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "inventory-client",
		Short:         "Console client for the inventory API",
		Long:          "Runs an interactive menu against the inventory API, or a single command when one is given.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := newReadlinePrompter()
			if err != nil {
				return err
			}
			defer in.Close()
			return NewMenu(opts.session(), in, out).Run(cmd.Context())
		},
	}
	root.PersistentFlags().StringVar(&opts.baseURL, "url", envOr("INVENTORY_API_URL", client.DefaultBaseURL), "API base URL")
	root.PersistentFlags().StringVar(&opts.token, "token", os.Getenv("INVENTORY_API_TOKEN"), "bearer token from a previous login")

	root.AddCommand(
		newLoginCmd(opts, out),
		newRegisterCmd(opts, out),
		newProductsCmd(opts, out),
		newAuditCmd(opts, out),
	)
	return root
}

func newLoginCmd(opts *options, out io.Writer) *cobra.Command {
	var username, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and print a bearer token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := opts.session().Login(cmd.Context(), username, password)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, token.Token)
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "account name")
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newRegisterCmd(opts *options, out io.Writer) *cobra.Command {
	var username, password string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a user account (Admin)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			msg, err := opts.session().Register(cmd.Context(), username, password)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, msg)
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "account name")
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newProductsCmd(opts *options, out io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "products",
		Aliases: []string{"product"},
		Short:   "Manage products",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List all products",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			views, err := opts.session().ListProducts(cmd.Context())
			if err != nil {
				return err
			}
			renderProducts(out, views)
			return nil
		},
	}

	get := &cobra.Command{
		Use:   "get <id>",
		Short: "Show one product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			view, err := opts.session().GetProduct(cmd.Context(), id)
			if err != nil {
				return err
			}
			renderProducts(out, []domain.ProductView{*view})
			return nil
		},
	}

	var title, price string
	var quantity int
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a product (Admin)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := productInput(title, quantity, price)
			if err != nil {
				return err
			}
			view, err := opts.session().CreateProduct(cmd.Context(), input)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Product created: %s, Total with VAT: %s\n", view.ItemName, view.TotalPriceWithVat.StringFixed(2))
			return nil
		},
	}

	update := &cobra.Command{
		Use:   "update <id>",
		Short: "Replace a product's fields (Admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			input, err := productInput(title, quantity, price)
			if err != nil {
				return err
			}
			if err := opts.session().UpdateProduct(cmd.Context(), id, input); err != nil {
				return err
			}
			fmt.Fprintln(out, "Product updated successfully.")
			return nil
		},
	}

	for _, c := range []*cobra.Command{create, update} {
		c.Flags().StringVar(&title, "title", "", "product title")
		c.Flags().IntVar(&quantity, "quantity", 0, "units in stock")
		c.Flags().StringVar(&price, "price", "", "unit price before VAT")
		_ = c.MarkFlagRequired("title")
		_ = c.MarkFlagRequired("price")
	}

	remove := &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a product (Admin)",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := opts.session().DeleteProduct(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintln(out, "Product deleted successfully.")
			return nil
		},
	}

	cmd.AddCommand(list, get, create, update, remove)
	return cmd
}

func newAuditCmd(opts *options, out io.Writer) *cobra.Command {
	var from, to string
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Show product audit logs (Admin)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := opts.session().AuditLogs(cmd.Context(), from, to)
			if err != nil {
				return err
			}
			renderAudit(out, entries)
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "earliest change, yyyy-mm-dd or RFC 3339")
	cmd.Flags().StringVar(&to, "to", "", "latest change, yyyy-mm-dd or RFC 3339")
	return cmd
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid ID %q", raw)
	}
	return id, nil
}

func productInput(title string, quantity int, price string) (domain.ProductInput, error) {
	if quantity < 0 {
		return domain.ProductInput{}, fmt.Errorf("invalid quantity %d", quantity)
	}
	p, err := decimal.NewFromString(price)
	if err != nil || !p.IsPositive() {
		return domain.ProductInput{}, fmt.Errorf("invalid price %q", price)
	}
	return domain.ProductInput{Title: title, Quantity: quantity, Price: p}, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	// A missing .env file is fine; the environment and flags still apply.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := &options{}
	if err := newRootCmd(opts, os.Stdout).ExecuteContext(ctx); err != nil {
		reportError(os.Stderr, opts.baseURL, err)
		stop()
		os.Exit(1)
	}
}
