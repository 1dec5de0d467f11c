package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// classifyCmd reports how the ORM sees registered types.
var classifyCmd = &cobra.Command{
	Use:   "classify [type...]",
	Short: "Classify registered types as entity, component, user type or transient",
	Long: `Prints the persistence classification of each named type, for example
"models.Customer" or "models.Address". Without arguments every entity is listed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		jsonOutput, _ := cmd.Flags().GetBool("json")

		rt, err := newRuntime(false)
		if err != nil {
			return err
		}
		defer rt.Close()

		names := args
		if len(names) == 0 {
			for _, et := range rt.meta.Entities() {
				names = append(names, et.Name())
			}
		}

		type result struct {
			Type           string `json:"type"`
			Classification string `json:"classification"`
		}
		results := make([]result, 0, len(names))
		for _, name := range names {
			t, ok := rt.bridge.Introspector().TypeByName(name)
			if !ok {
				return fmt.Errorf("unknown type %q", name)
			}
			c, err := rt.bridge.Classify(t)
			if err != nil {
				return err
			}
			results = append(results, result{Type: name, Classification: c.String()})
		}

		if jsonOutput {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(results)
		}
		for _, r := range results {
			fmt.Printf("%-24s %s\n", r.Type, r.Classification)
		}
		return nil
	},
}

func init() {
	RootCmd.AddCommand(classifyCmd)
}
