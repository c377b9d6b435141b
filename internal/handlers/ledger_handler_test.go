package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rkco/fuel-ledger/internal/models"
	"github.com/rkco/fuel-ledger/internal/services"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderForm_ToInput(t *testing.T) {
	form := orderForm{
		SupplierName: "Shell Depot",
		Product:      " diesel ",
		Liters:       "1200.5",
		RatePerLitre: "280",
		PaidAmount:   "",
		Notes:        "  ",
		Date:         "2026-03-04",
	}

	in, err := form.toInput(models.OrderKindPurchase)
	require.NoError(t, err)
	assert.Equal(t, "Shell Depot", in.PartyName)
	assert.Equal(t, "diesel", in.Product)
	require.NotNil(t, in.Liters)
	assert.True(t, in.Liters.Equal(decimal.RequireFromString("1200.5")))
	assert.Nil(t, in.PaidAmount)
	assert.Nil(t, in.Notes)
	require.NotNil(t, in.Date)
	assert.Equal(t, time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC), *in.Date)
}

func TestOrderForm_ToInputPartyField(t *testing.T) {
	form := orderForm{PartyName: "Fallback", CustomerName: "Hamza Traders", SupplierName: "Shell Depot"}

	sale, err := form.toInput(models.OrderKindSale)
	require.NoError(t, err)
	assert.Equal(t, "Hamza Traders", sale.PartyName)

	form.CustomerName = ""
	sale, err = form.toInput(models.OrderKindSale)
	require.NoError(t, err)
	assert.Equal(t, "Fallback", sale.PartyName)
}

func TestOrderForm_ToInputRejects(t *testing.T) {
	tests := []struct {
		name string
		form orderForm
		want string
	}{
		{"liters", orderForm{Liters: "ten"}, "liters must be a number"},
		{"rate", orderForm{RatePerLitre: "1,000"}, "rate_per_litre must be a number"},
		{"paid", orderForm{PaidAmount: "abc"}, "paid_amount must be a number"},
		{"date", orderForm{Date: "04/03/2026"}, "date must be YYYY-MM-DD"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.form.toInput(models.OrderKindSale)
			assert.EqualError(t, err, tt.want)
		})
	}
}

func TestLedgerHandler_BalanceClampsOverpaidOrders(t *testing.T) {
	gin.SetMode(gin.TestMode)

	overpaid := saleOrder(1, "Hamza Traders", "1000", 1)
	overpaid.PaidAmount = decimal.NewFromInt(1500)
	overpaid.PaymentStatus = models.PaymentStatusPaid

	open := saleOrder(2, "Bilal Oil", "400", 2)

	purchase := saleOrder(3, "Shell Depot", "2000", 3)
	purchase.Kind = models.OrderKindPurchase
	purchase.PaidAmount = decimal.NewFromInt(500)
	purchase.PaymentStatus = models.PaymentStatusPartial

	repo := &stubOrderRepo{outstanding: []models.Order{overpaid, open, purchase}}
	handler := NewLedgerHandler(services.NewBalanceService(repo), nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest("GET", "/ledger/balance", nil)
	handler.Balance(c)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Totals map[string]float64 `json:"totals"`
		Counts map[string]int     `json:"counts"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, float64(1400), resp.Totals["sales"])
	assert.Equal(t, float64(400), resp.Totals["netReceivable"])
	assert.Equal(t, float64(1500), resp.Totals["netPayable"])
	assert.Equal(t, 2, resp.Counts["sales"])
	assert.Equal(t, 1, resp.Counts["purchases"])
}
