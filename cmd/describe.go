package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"reattach/feature/catalog"

	"github.com/spf13/cobra"
)

var describeOrders bool

// describeCmd prints a customer in its detached form.
var describeCmd = &cobra.Command{
	Use:   "describe <customer-id>",
	Short: "Print a customer with its collection descriptors",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseUint(args[0], 10, 64)
		if err != nil || id == 0 {
			return fmt.Errorf("customer id must be a positive integer: %q", args[0])
		}
		ctx := commandContext(cmd)

		rt, err := newRuntime(true)
		if err != nil {
			return err
		}
		defer rt.Close()

		svc := catalog.NewService(rt.bridge, nil, rt.logger)
		customer, err := svc.GetCustomer(ctx, uint(id), catalog.FetchOptions{Orders: describeOrders})
		if err != nil {
			return err
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(customer)
	},
}

func init() {
	describeCmd.Flags().BoolVar(&describeOrders, "orders", false, "Fetch the orders instead of describing them as lazy")
	RootCmd.AddCommand(describeCmd)
}
