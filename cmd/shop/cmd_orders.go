package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"univendor/internal/api"
)

var shipTo api.ShippingAddress

var checkoutCmd = &cobra.Command{
	Use:   "checkout",
	Short: "Place an order for the cart",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := withTimeout(cmd)
		defer cancel()
		ok, err := app.checkout.Begin(ctx, "/checkout")
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(app.out, "sign in first: shop login send <email>")
			return nil
		}
		printCart(app.out, app.view)

		order, err := app.checkout.Submit(ctx, shipTo)
		if err != nil {
			return err
		}
		fmt.Fprintf(app.out, "order %s placed: total %s, status %s\n", order.ID, order.Total, order.Status)
		return nil
	},
}

var ordersCmd = &cobra.Command{
	Use:   "orders",
	Short: "Show order history",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := withTimeout(cmd)
		defer cancel()
		orders, err := app.client.Orders(ctx)
		if err != nil {
			return err
		}
		if len(orders) == 0 {
			fmt.Fprintln(app.out, "no orders yet")
			return nil
		}
		w := tabwriter.NewWriter(app.out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ORDER\tPLACED\tITEMS\tTOTAL\tSTATUS")
		for _, o := range orders {
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n", o.ID, o.CreatedAt.Format("2006-01-02 15:04"), len(o.Items), o.Total, o.Status)
		}
		return w.Flush()
	},
}

func init() {
	f := checkoutCmd.Flags()
	f.StringVar(&shipTo.Name, "name", "", "recipient name")
	f.StringVar(&shipTo.Address, "address", "", "street address")
	f.StringVar(&shipTo.City, "city", "", "city")
	f.StringVar(&shipTo.State, "state", "", "state or region")
	f.StringVar(&shipTo.PostalCode, "postal-code", "", "postal code")
	f.StringVar(&shipTo.Country, "country", "", "country")
	f.StringVar(&shipTo.Phone, "phone", "", "contact phone")
}
