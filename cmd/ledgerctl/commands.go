package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/rkco/fuel-ledger/internal/models"
	"github.com/rkco/fuel-ledger/internal/services"
)

var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create an admin account if the email is not registered",
	Example: `  ledgerctl create-admin --email owner@rkco.app --password 'long-secret' --name "Rashid Khan"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		email, _ := cmd.Flags().GetString("email")
		password, _ := cmd.Flags().GetString("password")
		name, _ := cmd.Flags().GetString("name")

		a, err := bootstrap()
		if err != nil {
			return err
		}
		defer a.Close()

		user, created, err := a.svcs.User.EnsureAdmin(cmd.Context(), name, email, password)
		if err != nil {
			return err
		}
		if created {
			fmt.Fprintf(cmd.OutOrStdout(), "Created admin %s (id %d)\n", user.Email, user.ID)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "User %s already exists (role %s)\n", user.Email, user.Role)
		}
		return nil
	},
}

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "List orders whose stored paid amount or status is inconsistent",
	Long: `reconcile scans every purchase and sale for paid amounts above the total,
negative paid amounts, and statuses that disagree with the paid amount.
Nothing is modified. Use --alert to notify admins as the scheduled job does.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		alert, _ := cmd.Flags().GetBool("alert")

		a, err := bootstrap()
		if err != nil {
			return err
		}
		defer a.Close()

		if alert {
			return a.svcs.Reconciliation.ScanAndAlert(cmd.Context())
		}

		report, err := a.svcs.Reconciliation.Scan(cmd.Context())
		if err != nil {
			return err
		}
		printReconciliation(cmd, report)
		return nil
	},
}

func printReconciliation(cmd *cobra.Command, report *services.ReconciliationReport) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Scanned %d orders, %d findings\n", report.OrdersScanned, len(report.Findings))
	if len(report.Findings) == 0 {
		return
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ORDER\tKIND\tPARTY\tTOTAL\tPAID\tSTATUS\tEXPECTED\tISSUE")
	for _, d := range report.Findings {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			d.OrderID, d.Kind, d.PartyName,
			d.TotalAmount.StringFixed(2), d.StoredPaid.StringFixed(2),
			d.StoredStatus, d.ExpectedStatus, d.Issue)
	}
	tw.Flush()
}

var allocateCmd = &cobra.Command{
	Use:   "allocate",
	Short: "Record a lump-sum payment for a customer or supplier",
	Example: `  ledgerctl allocate --party-type customer --party "Hamza Traders" --amount 25000 --notes "cash at pump"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		partyType, _ := cmd.Flags().GetString("party-type")
		party, _ := cmd.Flags().GetString("party")
		amountStr, _ := cmd.Flags().GetString("amount")
		notes, _ := cmd.Flags().GetString("notes")

		amount, err := decimal.NewFromString(amountStr)
		if err != nil {
			return fmt.Errorf("invalid amount %q: %w", amountStr, err)
		}

		a, err := bootstrap()
		if err != nil {
			return err
		}
		defer a.Close()

		req := services.AllocationRequest{
			PartyType: partyType,
			PartyName: party,
			Amount:    amount,
			UserAgent: "ledgerctl",
		}
		if notes != "" {
			req.Notes = &notes
		}

		result, err := a.svcs.Allocation.Allocate(cmd.Context(), req)
		if err != nil {
			return err
		}
		printAllocation(cmd, result)
		return nil
	},
}

func printAllocation(cmd *cobra.Command, result *services.AllocationResult) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Receipt %s\n", result.Receipt.Reference)

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ORDER\tAPPLIED\tPAID\tSTATUS")
	for _, al := range result.Allocations {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", al.OrderID, al.Allocated.StringFixed(2), al.NewPaid.StringFixed(2), al.Status)
	}
	tw.Flush()

	fmt.Fprintf(out, "Allocated %s", result.AllocatedTotal.StringFixed(2))
	if result.IsWarning() {
		fmt.Fprintf(out, ", %s exceeded the outstanding balance and was not applied", result.Remaining.StringFixed(2))
	}
	fmt.Fprintln(out)
}

func init() {
	createAdminCmd.Flags().String("email", "", "Admin email")
	createAdminCmd.Flags().String("password", "", "Admin password (min 8 characters)")
	createAdminCmd.Flags().String("name", "Administrator", "Display name")
	_ = createAdminCmd.MarkFlagRequired("email")
	_ = createAdminCmd.MarkFlagRequired("password")

	reconcileCmd.Flags().Bool("alert", false, "Notify admins and send the alert email when findings exist")

	allocateCmd.Flags().String("party-type", models.PartyTypeCustomer, "customer or supplier")
	allocateCmd.Flags().String("party", "", "Party name")
	allocateCmd.Flags().String("amount", "", "Payment amount")
	allocateCmd.Flags().String("notes", "", "Receipt notes")
	_ = allocateCmd.MarkFlagRequired("party")
	_ = allocateCmd.MarkFlagRequired("amount")

	rootCmd.AddCommand(createAdminCmd, reconcileCmd, allocateCmd)
}
