package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"univendor/internal/pricing"
	"univendor/internal/shop"
)

var (
	addQty   int
	addSize  string
	addColor string
	vendor   string
)

var productsCmd = &cobra.Command{
	Use:   "products",
	Short: "List the catalog",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := withTimeout(cmd)
		defer cancel()
		products, err := app.client.Products(ctx, vendor)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(app.out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tPRICE\tSIZES\tCOLORS")
		for _, p := range products {
			fmt.Fprintf(w, "%s\t%s\t%s\t%v\t%v\n", p.ID, p.Name, p.Price, p.Sizes, p.Colors)
		}
		return w.Flush()
	},
}

var cartCmd = &cobra.Command{
	Use:   "cart",
	Short: "Show the cart",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		printCart(app.out, app.view)
		return nil
	},
}

var addCmd = &cobra.Command{
	Use:   "add <product-id>",
	Short: "Add a product to the cart",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := withTimeout(cmd)
		defer cancel()
		p, err := app.client.Product(ctx, args[0])
		if err != nil {
			return err
		}
		if err := app.view.Add(ctx, p, addSize, addColor, addQty); err != nil {
			return err
		}
		printCart(app.out, app.view)
		return nil
	},
}

var qtyCmd = &cobra.Command{
	Use:   "qty <line-id> <quantity>",
	Short: "Set the quantity of a cart line",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("quantity %q is not a number", args[1])
		}
		return mutateCart(cmd, func(ctx context.Context, v *shop.CartView) error {
			return v.SetQuantity(ctx, args[0], n)
		})
	},
}

var incCmd = &cobra.Command{
	Use:   "inc <line-id>",
	Short: "Add one to a cart line",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return mutateCart(cmd, func(ctx context.Context, v *shop.CartView) error {
			return v.Increment(ctx, args[0])
		})
	},
}

var decCmd = &cobra.Command{
	Use:   "dec <line-id>",
	Short: "Take one off a cart line (never below one)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return mutateCart(cmd, func(ctx context.Context, v *shop.CartView) error {
			return v.Decrement(ctx, args[0])
		})
	},
}

var rmCmd = &cobra.Command{
	Use:   "rm <line-id>",
	Short: "Remove a cart line",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return mutateCart(cmd, func(ctx context.Context, v *shop.CartView) error {
			return v.Remove(ctx, args[0])
		})
	},
}

func init() {
	productsCmd.Flags().StringVar(&vendor, "vendor", "", "only this vendor's products")
	addCmd.Flags().IntVarP(&addQty, "qty", "q", 1, "quantity")
	addCmd.Flags().StringVar(&addSize, "size", "", "size option")
	addCmd.Flags().StringVar(&addColor, "color", "", "color option")
}

// mutateCart runs fn and prints the settled cart. Failed server mutations
// have already been rolled back and reported.
func mutateCart(cmd *cobra.Command, fn func(context.Context, *shop.CartView) error) error {
	ctx, cancel := withTimeout(cmd)
	defer cancel()
	err := fn(ctx, app.view)
	printCart(app.out, app.view)
	return err
}

func printCart(out io.Writer, view *shop.CartView) {
	items := view.Items()
	if len(items) == 0 {
		fmt.Fprintln(out, "cart is empty")
		return
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "LINE\tPRODUCT\tOPTIONS\tQTY\tPRICE\tTOTAL")
	for _, it := range items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
			it.ID, it.Name, options(it), it.Quantity, pricing.Format(it.Price), pricing.Format(it.LineTotal()))
	}
	_ = w.Flush()
	printTotals(out, view.Totals())
}

func printTotals(out io.Writer, t pricing.Totals) {
	t = t.Rounded()
	fmt.Fprintf(out, "subtotal %s  shipping %s  tax %s  total %s\n",
		pricing.Format(t.Subtotal), pricing.Format(t.Shipping), pricing.Format(t.Tax), pricing.Format(t.Total))
}

func options(it shop.DisplayItem) string {
	switch {
	case it.Size != "" && it.Color != "":
		return it.Size + "/" + it.Color
	case it.Size != "":
		return it.Size
	default:
		return it.Color
	}
}
