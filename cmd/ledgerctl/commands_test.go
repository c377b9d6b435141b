package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"

	"github.com/rkco/fuel-ledger/internal/models"
	"github.com/rkco/fuel-ledger/internal/services"
)

func TestPrintAllocation_Warning(t *testing.T) {
	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)

	printAllocation(cmd, &services.AllocationResult{
		Allocations: []models.ReceiptAllocation{
			{OrderID: 7, Allocated: decimal.NewFromInt(1000), NewPaid: decimal.NewFromInt(1000), Status: models.PaymentStatusPaid},
		},
		AllocatedTotal: decimal.NewFromInt(1000),
		Remaining:      decimal.NewFromInt(250),
		Receipt:        &models.PaymentReceipt{Reference: "ref-1"},
	})

	out := buf.String()
	assert.Contains(t, out, "Receipt ref-1")
	assert.Contains(t, out, "1000.00")
	assert.Contains(t, out, "250.00 exceeded the outstanding balance")
}

func TestPrintReconciliation(t *testing.T) {
	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)

	printReconciliation(cmd, &services.ReconciliationReport{
		ScannedAt:     time.Now(),
		OrdersScanned: 3,
		Findings: []services.Discrepancy{{
			OrderID: 2, Kind: models.OrderKindSale, PartyName: "Bilal Oil",
			TotalAmount: decimal.NewFromInt(500), StoredPaid: decimal.NewFromInt(600),
			StoredStatus: models.PaymentStatusPaid, ExpectedStatus: models.PaymentStatusPaid,
			Issue: services.IssuePaidExceedsTotal,
		}},
	})

	out := buf.String()
	assert.Contains(t, out, "Scanned 3 orders, 1 findings")
	assert.Contains(t, out, "paid_exceeds_total")
	assert.Contains(t, out, "600.00")
}

func TestCommandsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["create-admin"])
	assert.True(t, names["reconcile"])
	assert.True(t, names["allocate"])
}
