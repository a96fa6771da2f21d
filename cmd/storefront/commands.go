package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"sweet-heaven/internal/model"
	"sweet-heaven/internal/report"
	"sweet-heaven/internal/session"
)

// catalog is the part of the API the CLI reads directly.
type catalog interface {
	ListProducts(ctx context.Context, query string, simple bool) ([]model.Product, error)
	TopProducts(ctx context.Context, period string, limit int) ([]model.TopProduct, error)
}

type app struct {
	session *session.Session
	api     catalog
	out     io.Writer
	now     func() time.Time
}

type command struct {
	usage   string
	minArgs int
	run     func(ctx context.Context, a *app, args []string) error
}

var commands = map[string]command{
	"promotions":       {"promotions", 0, listPromotions},
	"announcements":    {"announcements", 0, listAnnouncements},
	"products":         {"products [query]", 0, listProducts},
	"cart":             {"cart", 0, showCart},
	"add":              {"add <productID> [qty]", 1, addToCart},
	"set":              {"set <productID> <qty>", 2, setQuantity},
	"inc":              {"inc <productID>", 1, increaseQuantity},
	"dec":              {"dec <productID>", 1, decreaseQuantity},
	"remove":           {"remove <productID>", 1, removeFromCart},
	"clear":            {"clear", 0, clearCart},
	"checkout":         {"checkout", 0, checkout},
	"orders":           {"orders", 0, listOrders},
	"order":            {"order <id>", 1, showOrder},
	"advance":          {"advance <id>", 1, advanceOrder},
	"upload-slip":      {"upload-slip <id> <file>", 2, uploadSlip},
	"delete-order":     {"delete-order <id>", 1, deleteOrder},
	"create-promotion": {"create-promotion <productID> <discount> <startDay> <endDay> [name] [description]", 4, createPromotion},
	"delete-promotion": {"delete-promotion <id>", 1, deletePromotion},
	"report":           {"report [day|week|month]", 0, showReport},
}

func execute(ctx context.Context, a *app, args []string) error {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		printUsage(a.out)
		return nil
	}

	cmd, ok := commands[args[0]]
	if !ok {
		printUsage(a.out)
		return fmt.Errorf("unknown command %q", args[0])
	}
	if len(args)-1 < cmd.minArgs {
		return fmt.Errorf("usage: storefront %s", cmd.usage)
	}
	return cmd.run(ctx, a, args[1:])
}

func printUsage(w io.Writer) {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(w, "Usage: storefront <command> [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	for _, name := range names {
		fmt.Fprintf(w, "  %s\n", commands[name].usage)
	}
}

func listPromotions(ctx context.Context, a *app, args []string) error {
	tw := newTable(a.out, "ID", "PRODUCT", "DISCOUNT", "START", "END", "ACTIVE", "NAME")
	for _, p := range a.session.Promotions.Promotions() {
		tw.row(p.ID, p.ProductID, fmt.Sprintf("%d%%", p.Discount),
			p.StartDate.Format(time.DateOnly), p.EndDate.Format(time.DateOnly),
			p.Applies(a.now()), p.Name)
	}
	return tw.Flush()
}

func listAnnouncements(ctx context.Context, a *app, args []string) error {
	for _, text := range a.session.Promotions.Engine().ActiveAnnouncements() {
		fmt.Fprintln(a.out, text)
	}
	return nil
}

func listProducts(ctx context.Context, a *app, args []string) error {
	products, err := a.api.ListProducts(ctx, strings.Join(args, " "), false)
	if err != nil {
		return err
	}

	engine := a.session.Promotions.Engine()
	tw := newTable(a.out, "ID", "NAME", "CATEGORY", "PRICE", "SALE", "STOCK")
	for _, p := range products {
		display := engine.PriceDisplay(p)
		sale := "-"
		if display.HasDiscount {
			sale = fmt.Sprintf("%s (-%d%%)", money(display.DiscountedPrice), display.DiscountPercentage)
		}
		tw.row(p.ID, p.Name, p.Category, money(p.Price), sale, p.Stock)
	}
	return tw.Flush()
}

func showCart(ctx context.Context, a *app, args []string) error {
	c := a.session.Cart
	if msg := c.Error(); msg != "" {
		fmt.Fprintf(a.out, "warning: %s\n", msg)
	}

	lines := c.LinesWithPricing()
	if len(lines) == 0 {
		fmt.Fprintln(a.out, "Your cart is empty")
		return nil
	}

	tw := newTable(a.out, "ID", "NAME", "QTY", "UNIT", "TOTAL")
	for _, l := range lines {
		unit := money(l.Pricing.DiscountedPrice)
		if l.Pricing.HasDiscount {
			unit = fmt.Sprintf("%s (was %s)", unit, money(l.Pricing.OriginalPrice))
		}
		tw.row(l.ID, l.Name, l.Quantity, unit, money(l.Total))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(a.out, "\nItems: %d\n", c.TotalItems())
	fmt.Fprintf(a.out, "Subtotal: %s\n", money(c.OriginalTotalPrice()))
	if savings := c.TotalSavings(); savings > 0 {
		fmt.Fprintf(a.out, "Savings: -%s\n", money(savings))
	}
	fmt.Fprintf(a.out, "Total: %s\n", money(c.TotalPrice()))
	return nil
}

func addToCart(ctx context.Context, a *app, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	qty := 1
	if len(args) > 1 {
		if qty, err = strconv.Atoi(args[1]); err != nil {
			return fmt.Errorf("invalid quantity %q", args[1])
		}
	}
	if err := a.session.Cart.AddToCart(ctx, model.Product{ID: id}, qty); err != nil {
		return err
	}
	return showCart(ctx, a, nil)
}

func setQuantity(ctx context.Context, a *app, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	qty, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid quantity %q", args[1])
	}
	if err := a.session.Cart.UpdateQuantity(ctx, id, qty); err != nil {
		return err
	}
	return showCart(ctx, a, nil)
}

func increaseQuantity(ctx context.Context, a *app, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	if err := a.session.Cart.IncreaseQuantity(ctx, id); err != nil {
		return err
	}
	return showCart(ctx, a, nil)
}

func decreaseQuantity(ctx context.Context, a *app, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	if err := a.session.Cart.DecreaseQuantity(ctx, id); err != nil {
		return err
	}
	return showCart(ctx, a, nil)
}

func removeFromCart(ctx context.Context, a *app, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	if err := a.session.Cart.RemoveFromCart(ctx, id); err != nil {
		return err
	}
	return showCart(ctx, a, nil)
}

func clearCart(ctx context.Context, a *app, args []string) error {
	if err := a.session.Cart.ClearCart(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Cart cleared")
	return nil
}

func checkout(ctx context.Context, a *app, args []string) error {
	resp, err := a.session.Cart.Checkout(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Order %s placed, total %s\n", resp.OrderID, money(resp.Total))
	return nil
}

func listOrders(ctx context.Context, a *app, args []string) error {
	if err := a.session.Orders.Reload(ctx); err != nil {
		return err
	}

	orders := a.session.Orders.Orders()
	if len(orders) == 0 {
		fmt.Fprintln(a.out, "No orders")
		return nil
	}

	tw := newTable(a.out, "ID", "CREATED", "STATUS", "ITEMS", "TOTAL", "SLIP")
	for _, o := range orders {
		items := 0
		for _, it := range o.Items {
			items += it.Quantity
		}
		tw.row(o.ID, o.CreatedAt.Local().Format(time.DateTime), o.Status, items, money(o.Total), yesNo(o.HasSlip()))
	}
	return tw.Flush()
}

func showOrder(ctx context.Context, a *app, args []string) error {
	o, err := a.session.Orders.GetByID(ctx, model.OrderID(args[0]))
	if err != nil {
		return err
	}
	printOrder(a.out, o)
	return nil
}

func advanceOrder(ctx context.Context, a *app, args []string) error {
	o, err := a.session.Orders.Advance(ctx, model.OrderID(args[0]))
	if errors.Is(err, model.ErrNoNextStatus) {
		fmt.Fprintf(a.out, "Order %s is already %s\n", o.ID, o.Status)
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Order %s is now %s\n", o.ID, o.Status)
	return nil
}

func uploadSlip(ctx context.Context, a *app, args []string) error {
	data, err := os.ReadFile(args[1])
	if err != nil {
		return fmt.Errorf("failed to read slip: %w", err)
	}
	o, err := a.session.Orders.UploadSlip(ctx, model.OrderID(args[0]), filepath.Base(args[1]), "", data)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Slip uploaded for order %s\n", o.ID)
	return nil
}

func deleteOrder(ctx context.Context, a *app, args []string) error {
	if err := a.session.Orders.Delete(ctx, model.OrderID(args[0])); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Order %s deleted\n", args[0])
	return nil
}

func createPromotion(ctx context.Context, a *app, args []string) error {
	productID, err := parseID(args[0])
	if err != nil {
		return err
	}
	discount, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid discount %q", args[1])
	}
	start, err := time.ParseInLocation(time.DateOnly, args[2], time.Local)
	if err != nil {
		return fmt.Errorf("invalid start day %q: %w", args[2], err)
	}
	end, err := time.ParseInLocation(time.DateOnly, args[3], time.Local)
	if err != nil {
		return fmt.Errorf("invalid end day %q: %w", args[3], err)
	}

	var name, description string
	if len(args) > 4 {
		name = args[4]
	}
	if len(args) > 5 {
		description = strings.Join(args[5:], " ")
	}

	req := model.NewCreatePromotionRequest(productID, name, description, discount, start, end, true)
	p, err := a.session.Promotions.Create(ctx, req)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Promotion %d created: %d%% off product %d\n", p.ID, p.Discount, p.ProductID)
	return nil
}

func deletePromotion(ctx context.Context, a *app, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	if err := a.session.Promotions.Delete(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Promotion %d deleted\n", id)
	return nil
}

func showReport(ctx context.Context, a *app, args []string) error {
	var name string
	if len(args) > 0 {
		name = args[0]
	}
	period, err := report.ParsePeriod(name)
	if err != nil {
		return err
	}

	if err := a.session.Orders.Reload(ctx); err != nil {
		return err
	}
	orders := a.session.Orders.Orders()
	now := a.now()

	top, err := a.api.TopProducts(ctx, string(period), report.DefaultTopLimit)
	if err != nil {
		top = report.TopProducts(orders, period, report.DefaultTopLimit, now)
	}

	fmt.Fprintf(a.out, "Top products (%s)\n", period)
	tw := newTable(a.out, "PRODUCT", "NAME", "SOLD", "REVENUE")
	for _, row := range top {
		tw.row(row.ProductID, row.Name, row.Quantity, money(row.Revenue))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	summary := report.Summary(orders)
	fmt.Fprintf(a.out, "\nOrders: %d  Revenue: %s\n", summary.Orders, money(summary.Revenue))
	for _, status := range []model.OrderStatus{model.StatusPending, model.StatusConfirmed, model.StatusShipping, model.StatusDelivered} {
		fmt.Fprintf(a.out, "  %-10s %d\n", status, summary.ByStatus[status])
	}

	fmt.Fprintf(a.out, "\nSales today\n")
	tw = newTable(a.out, "HOUR", "ORDERS", "TOTAL")
	for _, h := range report.SalesByHour(orders, now) {
		if h.Orders > 0 {
			tw.row(h.Hour, h.Orders, money(h.Total))
		}
	}
	return tw.Flush()
}

func printOrder(w io.Writer, o *model.Order) {
	fmt.Fprintf(w, "Order %s\n", o.ID)
	fmt.Fprintf(w, "Status:  %s\n", o.Status)
	if !o.CreatedAt.IsZero() {
		fmt.Fprintf(w, "Created: %s\n", o.CreatedAt.Local().Format(time.DateTime))
	}
	if o.HasSlip() {
		fmt.Fprintf(w, "Slip:    %s\n", *o.SlipURL)
	}
	if next, ok := o.Status.Next(); ok {
		fmt.Fprintf(w, "Next:    %s\n", next)
	}

	tw := newTable(w, "PRODUCT", "NAME", "QTY", "PRICE")
	for _, it := range o.Items {
		tw.row(it.ProductID, it.Name, it.Quantity, money(it.Price))
	}
	_ = tw.Flush()
	fmt.Fprintf(w, "Total:   %s\n", money(o.Total))
}

type table struct {
	*tabwriter.Writer
}

func newTable(w io.Writer, headers ...string) *table {
	t := &table{tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)}
	fmt.Fprintln(t, strings.Join(headers, "\t"))
	return t
}

func (t *table) row(cols ...any) {
	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = fmt.Sprint(c)
	}
	fmt.Fprintln(t, strings.Join(parts, "\t"))
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func money(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
