package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rkco/fuel-ledger/internal/config"
	"github.com/rkco/fuel-ledger/internal/jobs"
	"github.com/rkco/fuel-ledger/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sale(id uint, party, total, paid, status string, date int) models.Order {
	return models.Order{
		ID:            id,
		Kind:          models.OrderKindSale,
		PartyName:     party,
		Product:       models.ProductDiesel,
		TotalAmount:   dec(total),
		PaidAmount:    dec(paid),
		PaymentStatus: status,
		Date:          day(date),
	}
}

func newAllocator(orders *fakeOrderRepo, receipts *fakeReceiptRepo, locker *PartyLocker) *AllocationService {
	return NewAllocationService(orders, receipts, locker, nil, nil, nil, nil)
}

func customerPayment(party, amount string) AllocationRequest {
	return AllocationRequest{
		PartyType: models.PartyTypeCustomer,
		PartyName: party,
		Amount:    dec(amount),
	}
}

func TestAllocate_ExactAmountSettlesOrder(t *testing.T) {
	orders := newFakeOrderRepo(sale(1, "Ali Traders", "1000", "0", models.PaymentStatusUnpaid, 1))
	receipts := &fakeReceiptRepo{}
	svc := newAllocator(orders, receipts, nil)

	result, err := svc.Allocate(context.Background(), customerPayment("Ali Traders", "1000"))
	require.NoError(t, err)

	assert.True(t, result.Remaining.IsZero())
	assert.True(t, dec("1000").Equal(result.AllocatedTotal))
	assert.False(t, result.IsWarning())
	require.Len(t, result.Allocations, 1)

	a := orders.get(1)
	assert.Equal(t, models.PaymentStatusPaid, a.PaymentStatus)
	assert.True(t, dec("1000").Equal(a.PaidAmount))
	assert.Equal(t, 1, receipts.count())
}

func TestAllocate_PartialThenComplete(t *testing.T) {
	orders := newFakeOrderRepo(
		sale(1, "Ali Traders", "1000", "0", models.PaymentStatusUnpaid, 1),
		sale(2, "Ali Traders", "500", "0", models.PaymentStatusUnpaid, 2),
	)
	svc := newAllocator(orders, &fakeReceiptRepo{}, nil)

	result, err := svc.Allocate(context.Background(), customerPayment("Ali Traders", "1200"))
	require.NoError(t, err)

	assert.True(t, result.Remaining.IsZero())
	require.Len(t, result.Allocations, 2)

	assert.Equal(t, uint(1), result.Allocations[0].OrderID)
	assert.True(t, dec("1000").Equal(result.Allocations[0].Allocated))
	assert.Equal(t, models.PaymentStatusPaid, result.Allocations[0].Status)

	assert.Equal(t, uint(2), result.Allocations[1].OrderID)
	assert.True(t, dec("200").Equal(result.Allocations[1].Allocated))
	assert.True(t, dec("0").Equal(result.Allocations[1].PreviousPaid))
	assert.True(t, dec("200").Equal(result.Allocations[1].NewPaid))
	assert.Equal(t, models.PaymentStatusPartial, result.Allocations[1].Status)

	b := orders.get(2)
	assert.Equal(t, models.PaymentStatusPartial, b.PaymentStatus)
	assert.True(t, dec("200").Equal(b.PaidAmount))
}

func TestAllocate_OverpaymentLeavesRemainder(t *testing.T) {
	orders := newFakeOrderRepo(
		sale(1, "Ali Traders", "1000", "0", models.PaymentStatusUnpaid, 1),
		sale(2, "Ali Traders", "500", "0", models.PaymentStatusUnpaid, 2),
	)
	receipts := &fakeReceiptRepo{}
	svc := newAllocator(orders, receipts, nil)

	result, err := svc.Allocate(context.Background(), customerPayment("Ali Traders", "2000"))
	require.NoError(t, err)

	assert.True(t, result.IsWarning())
	assert.True(t, dec("500").Equal(result.Remaining))
	assert.True(t, dec("1500").Equal(result.AllocatedTotal))

	for _, id := range []uint{1, 2} {
		o := orders.get(id)
		assert.Equal(t, models.PaymentStatusPaid, o.PaymentStatus)
		assert.False(t, o.PaidAmount.GreaterThan(o.TotalAmount), "order %d overpaid", id)
	}

	require.Equal(t, 1, receipts.count())
	receipt := receipts.receipts[0]
	assert.True(t, dec("2000").Equal(receipt.Amount))
	assert.True(t, dec("500").Equal(receipt.Remaining))
	assert.True(t, receipt.IsPartial())
}

func TestAllocate_OldestFirst(t *testing.T) {
	// Inserted newest first; allocation must still start at the oldest
	orders := newFakeOrderRepo(
		sale(1, "Ali Traders", "300", "0", models.PaymentStatusUnpaid, 3),
		sale(2, "Ali Traders", "300", "0", models.PaymentStatusUnpaid, 2),
		sale(3, "Ali Traders", "300", "0", models.PaymentStatusUnpaid, 1),
	)
	svc := newAllocator(orders, &fakeReceiptRepo{}, nil)

	result, err := svc.Allocate(context.Background(), customerPayment("Ali Traders", "250"))
	require.NoError(t, err)

	require.Len(t, result.Allocations, 1)
	assert.Equal(t, uint(3), result.Allocations[0].OrderID)
	assert.True(t, orders.get(1).PaidAmount.IsZero())
	assert.True(t, orders.get(2).PaidAmount.IsZero())
}

func TestAllocate_EqualDatesKeepInsertionOrder(t *testing.T) {
	orders := newFakeOrderRepo(
		sale(1, "Ali Traders", "100", "0", models.PaymentStatusUnpaid, 5),
		sale(2, "Ali Traders", "100", "0", models.PaymentStatusUnpaid, 5),
	)
	svc := newAllocator(orders, &fakeReceiptRepo{}, nil)

	result, err := svc.Allocate(context.Background(), customerPayment("Ali Traders", "150"))
	require.NoError(t, err)

	require.Len(t, result.Allocations, 2)
	assert.Equal(t, uint(1), result.Allocations[0].OrderID)
	assert.Equal(t, models.PaymentStatusPaid, result.Allocations[0].Status)
	assert.Equal(t, uint(2), result.Allocations[1].OrderID)
	assert.Equal(t, models.PaymentStatusPartial, result.Allocations[1].Status)
}

func TestAllocate_ClampsInconsistentStoredPaid(t *testing.T) {
	orders := newFakeOrderRepo(
		// Stale status on an overpaid legacy row: skipped
		sale(1, "Ali Traders", "500", "700", models.PaymentStatusPartial, 1),
		sale(2, "Ali Traders", "400", "100", models.PaymentStatusPartial, 2),
	)
	svc := newAllocator(orders, &fakeReceiptRepo{}, nil)

	result, err := svc.Allocate(context.Background(), customerPayment("Ali Traders", "300"))
	require.NoError(t, err)

	require.Len(t, result.Allocations, 1)
	assert.Equal(t, uint(2), result.Allocations[0].OrderID)
	assert.True(t, dec("100").Equal(result.Allocations[0].PreviousPaid))
	assert.True(t, dec("400").Equal(result.Allocations[0].NewPaid))
	assert.True(t, dec("700").Equal(orders.get(1).PaidAmount), "skipped row is not rewritten")
}

func TestAllocate_DecimalPrecision(t *testing.T) {
	var seed []models.Order
	for i := uint(1); i <= 10; i++ {
		seed = append(seed, sale(i, "Ali Traders", "0.1", "0", models.PaymentStatusUnpaid, int(i)))
	}
	orders := newFakeOrderRepo(seed...)
	svc := newAllocator(orders, &fakeReceiptRepo{}, nil)

	result, err := svc.Allocate(context.Background(), customerPayment("Ali Traders", "1"))
	require.NoError(t, err)

	assert.True(t, result.Remaining.IsZero())
	assert.Len(t, result.Allocations, 10)
	for i := uint(1); i <= 10; i++ {
		assert.Equal(t, models.PaymentStatusPaid, orders.get(i).PaymentStatus)
	}
}

func TestAllocate_RejectsNonPositiveAmount(t *testing.T) {
	for _, amount := range []string{"0", "-50"} {
		orders := newFakeOrderRepo(sale(1, "Ali Traders", "1000", "0", models.PaymentStatusUnpaid, 1))
		receipts := &fakeReceiptRepo{}
		svc := newAllocator(orders, receipts, nil)

		result, err := svc.Allocate(context.Background(), customerPayment("Ali Traders", amount))
		assert.Nil(t, result)
		assert.ErrorIs(t, err, ErrInvalidAmount)
		assert.Equal(t, 0, orders.findCalls, "amount %s must be rejected before any read", amount)
		assert.Equal(t, 0, orders.updateCalls)
		assert.Equal(t, 0, receipts.count())
	}
}

func TestAllocate_NoOutstandingOrders(t *testing.T) {
	orders := newFakeOrderRepo(
		sale(1, "Ali Traders", "1000", "1000", models.PaymentStatusPaid, 1),
		sale(2, "Other Party", "1000", "0", models.PaymentStatusUnpaid, 1),
	)
	receipts := &fakeReceiptRepo{}
	svc := newAllocator(orders, receipts, nil)

	_, err := svc.Allocate(context.Background(), customerPayment("Ali Traders", "100"))
	assert.ErrorIs(t, err, ErrNoOutstandingOrders)
	assert.Equal(t, 0, orders.updateCalls)
	assert.Equal(t, 0, receipts.count())
}

func TestAllocate_SupplierPaysPurchasesOnly(t *testing.T) {
	purchase := sale(1, "Shell Depot", "800", "0", models.PaymentStatusUnpaid, 1)
	purchase.Kind = models.OrderKindPurchase
	orders := newFakeOrderRepo(
		purchase,
		sale(2, "Shell Depot", "800", "0", models.PaymentStatusUnpaid, 1),
	)
	svc := newAllocator(orders, &fakeReceiptRepo{}, nil)

	result, err := svc.Allocate(context.Background(), AllocationRequest{
		PartyType: models.PartyTypeSupplier,
		PartyName: "  Shell Depot ",
		Amount:    dec("800"),
	})
	require.NoError(t, err)

	require.Len(t, result.Allocations, 1)
	assert.Equal(t, uint(1), result.Allocations[0].OrderID)
	assert.Equal(t, "Shell Depot", result.Receipt.PartyName)
	assert.True(t, orders.get(2).PaidAmount.IsZero())
}

func TestAllocate_InvalidPartyType(t *testing.T) {
	svc := newAllocator(newFakeOrderRepo(), &fakeReceiptRepo{}, nil)

	_, err := svc.Allocate(context.Background(), AllocationRequest{PartyType: "vendor", PartyName: "x", Amount: dec("1")})
	assert.ErrorIs(t, err, ErrInvalidPartyType)
}

func TestAllocate_PersistenceFailureKeepsCommittedSteps(t *testing.T) {
	orders := newFakeOrderRepo(
		sale(1, "Ali Traders", "100", "0", models.PaymentStatusUnpaid, 1),
		sale(2, "Ali Traders", "100", "0", models.PaymentStatusUnpaid, 2),
		sale(3, "Ali Traders", "100", "0", models.PaymentStatusUnpaid, 3),
	)
	storeErr := errors.New("connection reset")
	orders.failUpdate[2] = storeErr
	receipts := &fakeReceiptRepo{}
	svc := newAllocator(orders, receipts, nil)

	result, err := svc.Allocate(context.Background(), customerPayment("Ali Traders", "300"))
	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrPersistence)
	assert.ErrorIs(t, err, storeErr)

	var perr *PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, uint(2), perr.OrderID)
	require.Len(t, perr.Completed, 1)
	assert.Equal(t, uint(1), perr.Completed[0].OrderID)

	assert.Equal(t, models.PaymentStatusPaid, orders.get(1).PaymentStatus, "earlier step stays committed")
	assert.Equal(t, models.PaymentStatusUnpaid, orders.get(3).PaymentStatus)
	assert.Equal(t, 0, receipts.count())
}

func TestAllocate_ReceiptFailureIsPersistenceError(t *testing.T) {
	orders := newFakeOrderRepo(sale(1, "Ali Traders", "100", "0", models.PaymentStatusUnpaid, 1))
	receipts := &fakeReceiptRepo{failCreate: errors.New("disk full")}
	svc := newAllocator(orders, receipts, nil)

	_, err := svc.Allocate(context.Background(), customerPayment("Ali Traders", "100"))

	var perr *PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.Zero(t, perr.OrderID)
	assert.Len(t, perr.Completed, 1)
	assert.Equal(t, models.PaymentStatusPaid, orders.get(1).PaymentStatus)
}

func TestAllocate_SerializedConcurrentPayments(t *testing.T) {
	var seed []models.Order
	for i := uint(1); i <= 20; i++ {
		seed = append(seed, sale(i, "Ali Traders", "100", "0", models.PaymentStatusUnpaid, int(i)))
	}
	orders := newFakeOrderRepo(seed...)
	receipts := &fakeReceiptRepo{}
	locker := NewPartyLocker()
	svc := newAllocator(orders, receipts, locker)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = svc.Allocate(context.Background(), customerPayment("Ali Traders", "150"))
		}()
	}
	wg.Wait()

	sum := Summarize(orders.filter(func(models.Order) bool { return true }))
	assert.True(t, dec("1500").Equal(sum.TotalPaid), "paid %s", sum.TotalPaid)
	assert.True(t, dec("500").Equal(sum.Balance))
	assert.Equal(t, 10, receipts.count())
	assert.Equal(t, 0, locker.held())
}

func TestAllocate_BalanceConsistencyAfterSequence(t *testing.T) {
	orders := newFakeOrderRepo(
		sale(1, "Ali Traders", "1000", "0", models.PaymentStatusUnpaid, 1),
		sale(2, "Ali Traders", "250.75", "0", models.PaymentStatusUnpaid, 2),
		sale(3, "Bilal Transport", "600", "0", models.PaymentStatusUnpaid, 1),
		sale(4, "Bilal Transport", "100", "900", models.PaymentStatusPaid, 2),
	)
	svc := newAllocator(orders, &fakeReceiptRepo{}, NewPartyLocker())

	for _, p := range []AllocationRequest{
		customerPayment("Ali Traders", "333.33"),
		customerPayment("Bilal Transport", "100"),
		customerPayment("Ali Traders", "700"),
		customerPayment("Bilal Transport", "1000"),
	} {
		_, err := svc.Allocate(context.Background(), p)
		require.NoError(t, err)
	}

	all := orders.filter(func(models.Order) bool { return true })
	for name, summary := range GroupByParty(all) {
		total, clamped := dec("0"), dec("0")
		for _, o := range all {
			if o.PartyName != name {
				continue
			}
			total = total.Add(o.TotalAmount)
			clamped = clamped.Add(o.ClampedPaid())
		}
		assert.True(t, total.Sub(clamped).Equal(summary.Balance), "party %s", name)
		assert.False(t, summary.TotalPaid.GreaterThan(summary.TotalAmount))
	}
}

func TestAllocate_OverAllocationAlertsAdmins(t *testing.T) {
	orders := newFakeOrderRepo(sale(1, "Ali Traders", "100", "0", models.PaymentStatusUnpaid, 1))
	notifRepo := &fakeNotificationRepo{}
	userRepo := &mockUserRepo{mockFindAdmins: func(ctx context.Context) ([]models.User, error) {
		return []models.User{{ID: 7, Role: models.RoleAdmin}}, nil
	}}
	auditRepo := &fakeAuditRepo{}
	worker := jobs.NewWorker(1)

	svc := NewAllocationService(orders, &fakeReceiptRepo{}, nil,
		NewNotificationService(notifRepo, userRepo),
		NewEmailService(&config.Config{}),
		NewAuditService(auditRepo),
		worker)

	actor := uint(3)
	req := customerPayment("Ali Traders", "150")
	req.ActorID = &actor
	result, err := svc.Allocate(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, result.IsWarning())

	worker.Shutdown()

	notes := notifRepo.all()
	require.Len(t, notes, 1)
	assert.Equal(t, uint(7), notes[0].UserID)
	assert.Equal(t, models.NotificationTypeOverAllocation, *notes[0].NotificationType)

	entries := auditRepo.all()
	require.Len(t, entries, 1)
	assert.Equal(t, models.AuditActionAllocate, entries[0].Action)
	assert.Equal(t, &actor, entries[0].UserID)
}

func TestAllocate_TakesDatabasePartyLock(t *testing.T) {
	orders := newFakeOrderRepo(sale(1, "Ali Traders", "1000", "0", models.PaymentStatusUnpaid, 1))
	receipts := &fakeReceiptRepo{}
	dbLock := &fakePartyLockRepo{}
	svc := newAllocator(orders, receipts, NewDatabasePartyLocker(dbLock))

	_, err := svc.Allocate(context.Background(), customerPayment("  Ali Traders ", "400"))
	require.NoError(t, err)

	assert.Equal(t, []string{"customer:Ali Traders"}, dbLock.keys)
	assert.False(t, dbLock.held)
	assert.Equal(t, 1, receipts.count())
}

func TestAllocate_DatabaseLockFailureWritesNothing(t *testing.T) {
	orders := newFakeOrderRepo(sale(1, "Ali Traders", "1000", "0", models.PaymentStatusUnpaid, 1))
	receipts := &fakeReceiptRepo{}
	dbLock := &fakePartyLockRepo{err: errors.New("failed to acquire party lock: timeout")}
	svc := newAllocator(orders, receipts, NewDatabasePartyLocker(dbLock))

	result, err := svc.Allocate(context.Background(), customerPayment("Ali Traders", "400"))
	assert.Nil(t, result)
	assert.ErrorContains(t, err, "party lock")
	assert.Zero(t, orders.findCalls)
	assert.Zero(t, orders.updateCalls)
	assert.Zero(t, receipts.count())
}
