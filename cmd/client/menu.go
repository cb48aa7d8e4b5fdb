package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"inventory-api/internal/client"
	"inventory-api/internal/domain"

	"github.com/chzyer/readline"
	"github.com/shopspring/decimal"
)

// errExit ends the menu loop
var errExit = errors.New("exit")

// prompter reads one answer per call
type prompter interface {
	Prompt(label string) (string, error)
	Password(label string) (string, error)
}

type readlinePrompter struct {
	rl *readline.Instance
}

func newReadlinePrompter() (*readlinePrompter, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize readline: %v", err)
	}
	return &readlinePrompter{rl: rl}, nil
}

func (p *readlinePrompter) Prompt(label string) (string, error) {
	p.rl.SetPrompt(label)
	return p.rl.Readline()
}

func (p *readlinePrompter) Password(label string) (string, error) {
	b, err := p.rl.ReadPassword(label)
	return string(b), err
}

func (p *readlinePrompter) Close() error {
	return p.rl.Close()
}

// Menu is the interactive console over an API session
type Menu struct {
	session *client.Session
	in      prompter
	out     io.Writer
}

// NewMenu creates a Menu
func NewMenu(session *client.Session, in prompter, out io.Writer) *Menu {
	return &Menu{session: session, in: in, out: out}
}

// Run shows the menu until the user exits or input ends
func (m *Menu) Run(ctx context.Context) error {
	actions := map[string]func(context.Context) error{
		"1": m.register,
		"2": m.login,
		"3": m.listProducts,
		"4": m.getProduct,
		"5": m.createProduct,
		"6": m.updateProduct,
		"7": m.deleteProduct,
		"8": m.auditLogs,
		"9": func(context.Context) error { return errExit },
	}

	for {
		m.printMenu()
		choice, err := m.in.Prompt("Select an option: ")
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, readline.ErrInterrupt) {
				return nil
			}
			return err
		}

		action, ok := actions[strings.TrimSpace(choice)]
		if !ok {
			fmt.Fprintln(m.out, "Invalid option.")
			continue
		}
		if err := action(ctx); err != nil {
			if errors.Is(err, errExit) {
				return nil
			}
			if errors.Is(err, io.EOF) || errors.Is(err, readline.ErrInterrupt) {
				return nil
			}
			reportError(m.out, m.session.BaseURL, err)
		}
	}
}

func (m *Menu) printMenu() {
	fmt.Fprintln(m.out)
	fmt.Fprintln(m.out, "Inventory API Console")
	fmt.Fprintln(m.out, "1. Register")
	fmt.Fprintln(m.out, "2. Login")
	fmt.Fprintln(m.out, "3. Get All Products")
	fmt.Fprintln(m.out, "4. Get Product by ID")
	fmt.Fprintln(m.out, "5. Create Product (Admin)")
	fmt.Fprintln(m.out, "6. Update Product (Admin)")
	fmt.Fprintln(m.out, "7. Delete Product (Admin)")
	fmt.Fprintln(m.out, "8. Get Audit Logs (Admin)")
	fmt.Fprintln(m.out, "9. Exit")
}

func (m *Menu) credentials() (string, string, error) {
	username, err := m.in.Prompt("Enter username: ")
	if err != nil {
		return "", "", err
	}
	password, err := m.in.Password("Enter password: ")
	if err != nil {
		return "", "", err
	}
	return strings.TrimSpace(username), password, nil
}

func (m *Menu) register(ctx context.Context) error {
	username, password, err := m.credentials()
	if err != nil {
		return err
	}
	msg, err := m.session.Register(ctx, username, password)
	if err != nil {
		return err
	}
	if msg == "" {
		msg = "Registration successful."
	}
	fmt.Fprintln(m.out, msg)
	return nil
}

func (m *Menu) login(ctx context.Context) error {
	username, password, err := m.credentials()
	if err != nil {
		return err
	}
	if _, err := m.session.Login(ctx, username, password); err != nil {
		return err
	}
	fmt.Fprintln(m.out, "Login successful. Token acquired.")
	return nil
}

func (m *Menu) listProducts(ctx context.Context) error {
	views, err := m.session.ListProducts(ctx)
	if err != nil {
		return err
	}
	renderProducts(m.out, views)
	return nil
}

func (m *Menu) getProduct(ctx context.Context) error {
	id, ok, err := m.promptID()
	if err != nil || !ok {
		return err
	}
	view, err := m.session.GetProduct(ctx, id)
	if err != nil {
		return err
	}
	renderProducts(m.out, []domain.ProductView{*view})
	return nil
}

func (m *Menu) createProduct(ctx context.Context) error {
	input, ok, err := m.promptProduct("Enter product name: ", "Enter quantity: ", "Enter price: ")
	if err != nil || !ok {
		return err
	}
	view, err := m.session.CreateProduct(ctx, input)
	if err != nil {
		return err
	}
	fmt.Fprintf(m.out, "Product created: %s, Total with VAT: %s\n", view.ItemName, view.TotalPriceWithVat.StringFixed(2))
	return nil
}

func (m *Menu) updateProduct(ctx context.Context) error {
	id, ok, err := m.promptID()
	if err != nil || !ok {
		return err
	}
	input, ok, err := m.promptProduct("Enter new product name: ", "Enter new quantity: ", "Enter new price: ")
	if err != nil || !ok {
		return err
	}
	if err := m.session.UpdateProduct(ctx, id, input); err != nil {
		return err
	}
	fmt.Fprintln(m.out, "Product updated successfully.")
	return nil
}

func (m *Menu) deleteProduct(ctx context.Context) error {
	id, ok, err := m.promptID()
	if err != nil || !ok {
		return err
	}
	if err := m.session.DeleteProduct(ctx, id); err != nil {
		return err
	}
	fmt.Fprintln(m.out, "Product deleted successfully.")
	return nil
}

func (m *Menu) auditLogs(ctx context.Context) error {
	from, err := m.in.Prompt("Enter from date (yyyy-MM-dd, optional, press Enter to skip): ")
	if err != nil {
		return err
	}
	to, err := m.in.Prompt("Enter to date (yyyy-MM-dd, optional, press Enter to skip): ")
	if err != nil {
		return err
	}
	entries, err := m.session.AuditLogs(ctx, from, to)
	if err != nil {
		return err
	}
	renderAudit(m.out, entries)
	return nil
}

// promptID reads a product id; ok is false when the input was rejected
func (m *Menu) promptID() (int64, bool, error) {
	raw, err := m.in.Prompt("Enter product ID: ")
	if err != nil {
		return 0, false, err
	}
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		fmt.Fprintln(m.out, "Invalid ID.")
		return 0, false, nil
	}
	return id, true, nil
}

// promptProduct reads the editable product fields; ok is false when the input was rejected
func (m *Menu) promptProduct(nameLabel, quantityLabel, priceLabel string) (domain.ProductInput, bool, error) {
	var input domain.ProductInput

	name, err := m.in.Prompt(nameLabel)
	if err != nil {
		return input, false, err
	}
	input.Title = name

	raw, err := m.in.Prompt(quantityLabel)
	if err != nil {
		return input, false, err
	}
	quantity, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || quantity < 0 {
		fmt.Fprintln(m.out, "Invalid quantity.")
		return input, false, nil
	}
	input.Quantity = quantity

	raw, err = m.in.Prompt(priceLabel)
	if err != nil {
		return input, false, err
	}
	price, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil || !price.IsPositive() {
		fmt.Fprintln(m.out, "Invalid price.")
		return input, false, nil
	}
	input.Price = price

	return input, true, nil
}
