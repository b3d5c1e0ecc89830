package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/procurehub/core/internal/services"
	"github.com/spf13/cobra"
)

var (
	vendorName    string
	vendorEmail   string
	vendorContact string
	vendorPhone   string
	vendorNotes   string
)

// vendorCmd represents the vendor command group
var vendorCmd = &cobra.Command{
	Use:   "vendor",
	Short: "Vendor management",
	Long:  `Register and list vendors without going through the HTTP API.`,
}

// vendorAddCmd registers a new vendor
var vendorAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Register a vendor",
	Run: func(cmd *cobra.Command, args []string) {
		vendor, err := vendorService.CreateVendor(services.CreateVendorRequest{
			Name:        vendorName,
			Email:       vendorEmail,
			ContactName: vendorContact,
			Phone:       vendorPhone,
			Notes:       vendorNotes,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to create vendor: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("Vendor created: #%d %s <%s>\n", vendor.ID, vendor.Name, vendor.Email)
	},
}

// vendorListCmd lists all registered vendors
var vendorListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered vendors",
	Run: func(cmd *cobra.Command, args []string) {
		vendors, err := vendorService.ListVendors()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to list vendors: %v\n", err)
			os.Exit(1)
		}

		if len(vendors) == 0 {
			fmt.Println("No vendors registered.")
			return
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tEMAIL\tCONTACT\tPHONE")
		for _, vendor := range vendors {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
				vendor.ID, vendor.Name, vendor.Email, vendor.ContactName, vendor.Phone)
		}
		w.Flush()
	},
}

func init() {
	vendorAddCmd.Flags().StringVarP(&vendorName, "name", "n", "", "Vendor name (required)")
	vendorAddCmd.Flags().StringVarP(&vendorEmail, "email", "e", "", "Vendor email (required)")
	vendorAddCmd.Flags().StringVar(&vendorContact, "contact", "", "Contact person")
	vendorAddCmd.Flags().StringVar(&vendorPhone, "phone", "", "Phone number")
	vendorAddCmd.Flags().StringVar(&vendorNotes, "notes", "", "Free-form notes")
	vendorAddCmd.MarkFlagRequired("name")
	vendorAddCmd.MarkFlagRequired("email")

	vendorCmd.AddCommand(vendorAddCmd)
	vendorCmd.AddCommand(vendorListCmd)
}
