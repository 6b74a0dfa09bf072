package sqlite_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/artpar/invoicer/adapters/sqlite"
	"github.com/artpar/invoicer/domain/gateway"
	"github.com/artpar/invoicer/domain/invoice"
	"github.com/shopspring/decimal"
)

func setupTestDB(t *testing.T) (*sqlite.DB, func()) {
	t.Helper()

	f, err := os.CreateTemp("", "invoicer-test-*.db")
	if err != nil {
		t.Fatalf("create temp file: %v", err)
	}
	path := f.Name()
	f.Close()

	db, err := sqlite.Open(path)
	if err != nil {
		os.Remove(path)
		t.Fatalf("open database: %v", err)
	}

	if err := db.Migrate(); err != nil {
		db.Close()
		os.Remove(path)
		t.Fatalf("migrate: %v", err)
	}

	cleanup := func() {
		db.Close()
		os.Remove(path)
		os.Remove(path + "-wal")
		os.Remove(path + "-shm")
	}

	return db, cleanup
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

var base = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

func sampleInvoice(id, userID string, created time.Time) invoice.Invoice {
	inv := invoice.New(id, "INV-202403-0001", invoice.Draft{
		UserID:      userID,
		ClientName:  "Acme",
		ClientEmail: "billing@acme.test",
		Currency:    "USD",
		Items: []invoice.LineItem{
			{Description: "Design", Quantity: dec("2"), UnitPrice: dec("50")},
			{Description: "Hosting", Quantity: dec("1"), UnitPrice: dec("100")},
		},
		TaxRate:      dec("10"),
		DiscountRate: dec("5"),
		CostPrice:    dec("150"),
		DueDate:      created.Add(14 * 24 * time.Hour),
	}, created)
	inv.ViewToken = "tok-" + id
	return inv
}

// -----------------------------------------------------------------------------
// Migrations
// -----------------------------------------------------------------------------

func TestMigrate_Idempotent(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	if err := db.Migrate(); err != nil {
		t.Fatalf("second migrate: %v", err)
	}

	versions, err := db.AppliedVersions(context.Background())
	if err != nil {
		t.Fatalf("AppliedVersions: %v", err)
	}
	want := []string{"001_invoices", "002_payments", "003_gateway_settings"}
	if len(versions) != len(want) {
		t.Fatalf("versions = %v, want %v", versions, want)
	}
	for i := range want {
		if versions[i] != want[i] {
			t.Errorf("versions[%d] = %s, want %s", i, versions[i], want[i])
		}
	}
}

// -----------------------------------------------------------------------------
// InvoiceStore Tests
// -----------------------------------------------------------------------------

func TestInvoiceStore_CreateAndGet(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	store := sqlite.NewInvoiceStore(db)
	ctx := context.Background()

	inv := sampleInvoice("inv-1", "user-1", base)
	if err := store.Create(ctx, inv); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := store.Get(ctx, "inv-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}

	if got.Number != inv.Number {
		t.Errorf("Number = %s, want %s", got.Number, inv.Number)
	}
	if got.Status != invoice.StatusDraft {
		t.Errorf("Status = %s, want draft", got.Status)
	}
	if !got.Total.Equal(dec("210")) {
		t.Errorf("Total = %s, want 210", got.Total)
	}
	if !got.TaxRate.Equal(dec("10")) {
		t.Errorf("TaxRate = %s, want 10", got.TaxRate)
	}
	if len(got.Items) != 2 || !got.Items[0].UnitPrice.Equal(dec("50")) {
		t.Errorf("Items = %+v", got.Items)
	}
	if !got.DueDate.Equal(inv.DueDate) {
		t.Errorf("DueDate = %v, want %v", got.DueDate, inv.DueDate)
	}
	if !got.CreatedAt.Equal(base) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, base)
	}
	if got.SentAt != nil || got.PaidAt != nil {
		t.Error("expected nil SentAt and PaidAt")
	}
	if got.ClientEmail != "billing@acme.test" {
		t.Errorf("ClientEmail = %s", got.ClientEmail)
	}
}

func TestInvoiceStore_Get_NotFound(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	store := sqlite.NewInvoiceStore(db)
	if _, err := store.Get(context.Background(), "missing"); !errors.Is(err, sqlite.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestInvoiceStore_Create_Duplicate(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	store := sqlite.NewInvoiceStore(db)
	ctx := context.Background()

	inv := sampleInvoice("inv-1", "user-1", base)
	if err := store.Create(ctx, inv); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.Create(ctx, inv); !errors.Is(err, sqlite.ErrDuplicate) {
		t.Errorf("error = %v, want ErrDuplicate", err)
	}
}

func TestInvoiceStore_DuplicateNumbersAllowed(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	store := sqlite.NewInvoiceStore(db)
	ctx := context.Background()

	a := sampleInvoice("inv-a", "user-1", base)
	b := sampleInvoice("inv-b", "user-1", base)
	if a.Number != b.Number {
		t.Fatal("fixture numbers should match")
	}
	if err := store.Create(ctx, a); err != nil {
		t.Fatalf("create a: %v", err)
	}
	if err := store.Create(ctx, b); err != nil {
		t.Fatalf("create b with same number: %v", err)
	}
}

func TestInvoiceStore_Update(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	store := sqlite.NewInvoiceStore(db)
	ctx := context.Background()

	inv := sampleInvoice("inv-1", "user-1", base)
	if err := store.Create(ctx, inv); err != nil {
		t.Fatalf("create: %v", err)
	}

	sent, err := inv.Send(base.Add(time.Hour))
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	paid, err := sent.ApplyPayment(dec("210"), base.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("apply payment: %v", err)
	}
	if err := store.Update(ctx, paid); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := store.Get(ctx, "inv-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != invoice.StatusPaid {
		t.Errorf("Status = %s, want paid", got.Status)
	}
	if !got.AmountPaid.Equal(dec("210")) {
		t.Errorf("AmountPaid = %s, want 210", got.AmountPaid)
	}
	if got.SentAt == nil || !got.SentAt.Equal(base.Add(time.Hour)) {
		t.Errorf("SentAt = %v", got.SentAt)
	}
	if got.PaidAt == nil || !got.PaidAt.Equal(base.Add(2*time.Hour)) {
		t.Errorf("PaidAt = %v", got.PaidAt)
	}
}

func TestInvoiceStore_Update_NotFound(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	store := sqlite.NewInvoiceStore(db)
	err := store.Update(context.Background(), sampleInvoice("ghost", "user-1", base))
	if !errors.Is(err, sqlite.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestInvoiceStore_GetByViewToken(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	store := sqlite.NewInvoiceStore(db)
	ctx := context.Background()

	if err := store.Create(ctx, sampleInvoice("inv-1", "user-1", base)); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := store.GetByViewToken(ctx, "tok-inv-1")
	if err != nil {
		t.Fatalf("GetByViewToken: %v", err)
	}
	if got.ID != "inv-1" {
		t.Errorf("ID = %s, want inv-1", got.ID)
	}

	if _, err := store.GetByViewToken(ctx, ""); !errors.Is(err, sqlite.ErrNotFound) {
		t.Errorf("empty token error = %v, want ErrNotFound", err)
	}
}

func TestInvoiceStore_ListByUser(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	store := sqlite.NewInvoiceStore(db)
	ctx := context.Background()

	for i, id := range []string{"inv-1", "inv-2", "inv-3"} {
		if err := store.Create(ctx, sampleInvoice(id, "user-1", base.Add(time.Duration(i)*time.Minute))); err != nil {
			t.Fatalf("create %s: %v", id, err)
		}
	}
	if err := store.Create(ctx, sampleInvoice("other", "user-2", base)); err != nil {
		t.Fatalf("create other: %v", err)
	}

	got, err := store.ListByUser(ctx, "user-1", 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	if got[0].ID != "inv-3" {
		t.Errorf("first = %s, want newest inv-3", got[0].ID)
	}

	limited, _ := store.ListByUser(ctx, "user-1", 2)
	if len(limited) != 2 {
		t.Errorf("limited len = %d, want 2", len(limited))
	}
}

func TestInvoiceStore_ListByStatus(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	store := sqlite.NewInvoiceStore(db)
	ctx := context.Background()

	draft := sampleInvoice("draft", "user-1", base)
	sent, _ := sampleInvoice("sent", "user-1", base).Send(base)
	other, _ := sampleInvoice("other", "user-2", base).Send(base)
	for _, inv := range []invoice.Invoice{draft, sent, other} {
		if err := store.Create(ctx, inv); err != nil {
			t.Fatalf("create %s: %v", inv.ID, err)
		}
	}

	got, err := store.ListByStatus(ctx, []invoice.Status{invoice.StatusSent, invoice.StatusViewed}, 100)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("len = %d, want 2", len(got))
	}
	for _, inv := range got {
		if inv.Status != invoice.StatusSent {
			t.Errorf("%s status = %s", inv.ID, inv.Status)
		}
	}

	none, err := store.ListByStatus(ctx, nil, 100)
	if err != nil || len(none) != 0 {
		t.Errorf("ListByStatus(nil) = %v, %v", none, err)
	}
}

func TestInvoiceStore_CountCreatedBetween(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	store := sqlite.NewInvoiceStore(db)
	ctx := context.Background()

	loc := time.FixedZone("UTC+5", 5*3600)
	dayStart := time.Date(2024, 3, 15, 0, 0, 0, 0, loc)
	dayEnd := dayStart.AddDate(0, 0, 1)

	fixtures := []struct {
		id      string
		user    string
		created time.Time
	}{
		{"before", "user-1", dayStart.Add(-time.Nanosecond)},
		{"start", "user-1", dayStart},
		{"mid", "user-1", dayStart.Add(12 * time.Hour)},
		{"last", "user-1", dayEnd.Add(-time.Millisecond)},
		{"end", "user-1", dayEnd},
		{"other-user", "user-2", dayStart.Add(time.Hour)},
	}
	for _, f := range fixtures {
		if err := store.Create(ctx, sampleInvoice(f.id, f.user, f.created)); err != nil {
			t.Fatalf("create %s: %v", f.id, err)
		}
	}

	n, err := store.CountCreatedBetween(ctx, "user-1", dayStart, dayEnd)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 3 {
		t.Errorf("count = %d, want 3", n)
	}
}

// -----------------------------------------------------------------------------
// PaymentStore Tests
// -----------------------------------------------------------------------------

func TestPaymentStore_CreateAndList(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	invoices := sqlite.NewInvoiceStore(db)
	payments := sqlite.NewPaymentStore(db)
	ctx := context.Background()

	if err := invoices.Create(ctx, sampleInvoice("inv-1", "user-1", base)); err != nil {
		t.Fatalf("create invoice: %v", err)
	}

	for i, amount := range []string{"100", "60.5"} {
		p := invoice.Payment{
			ID:        []string{"pay-1", "pay-2"}[i],
			InvoiceID: "inv-1",
			UserID:    "user-1",
			Amount:    dec(amount),
			Method:    invoice.MethodBankTransfer,
			Reference: "ref",
			PaidAt:    base.Add(time.Duration(i) * time.Hour),
		}
		if err := payments.Create(ctx, p); err != nil {
			t.Fatalf("create payment: %v", err)
		}
	}

	got, err := payments.ListByInvoice(ctx, "inv-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].ID != "pay-1" {
		t.Errorf("first = %s, want pay-1", got[0].ID)
	}
	if !invoice.SumPayments(got).Equal(dec("160.5")) {
		t.Errorf("sum = %s, want 160.5", invoice.SumPayments(got))
	}
	if got[1].Method != invoice.MethodBankTransfer {
		t.Errorf("Method = %s", got[1].Method)
	}
}

func TestPaymentStore_UnknownInvoice(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	payments := sqlite.NewPaymentStore(db)
	err := payments.Create(context.Background(), invoice.Payment{
		ID: "pay-1", InvoiceID: "missing", UserID: "user-1", Amount: dec("1"), Method: invoice.MethodCash,
	})
	if err == nil {
		t.Error("expected foreign key error")
	}
}

func TestPaymentStore_Record(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(inv *invoice.Invoice, p *invoice.Payment)
		wantErr error
	}{
		{"saves both", func(inv *invoice.Invoice, p *invoice.Payment) {}, nil},
		{"invoice token taken", func(inv *invoice.Invoice, p *invoice.Payment) {
			inv.ViewToken = "tok-inv-2"
		}, sqlite.ErrDuplicate},
		{"invoice missing", func(inv *invoice.Invoice, p *invoice.Payment) {
			inv.ID = "inv-9"
		}, sqlite.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, cleanup := setupTestDB(t)
			defer cleanup()

			invoices := sqlite.NewInvoiceStore(db)
			payments := sqlite.NewPaymentStore(db)
			ctx := context.Background()

			for _, id := range []string{"inv-1", "inv-2"} {
				if err := invoices.Create(ctx, sampleInvoice(id, "user-1", base)); err != nil {
					t.Fatalf("create invoice: %v", err)
				}
			}

			inv := sampleInvoice("inv-1", "user-1", base)
			inv.AmountPaid = dec("40")
			inv.Status = invoice.StatusPartial
			p := invoice.Payment{
				ID: "pay-1", InvoiceID: "inv-1", UserID: "user-1",
				Amount: dec("40"), Method: invoice.MethodCash, PaidAt: base,
			}
			tt.mutate(&inv, &p)

			err := payments.Record(ctx, p, inv)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Record error = %v, want %v", err, tt.wantErr)
			}

			got, err := payments.ListByInvoice(ctx, "inv-1")
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			stored, err := invoices.Get(ctx, "inv-1")
			if err != nil {
				t.Fatalf("get: %v", err)
			}

			wantPayments, wantPaid := 0, dec("0")
			if tt.wantErr == nil {
				wantPayments, wantPaid = 1, dec("40")
			}
			if len(got) != wantPayments {
				t.Errorf("payments = %d, want %d", len(got), wantPayments)
			}
			if !stored.AmountPaid.Equal(wantPaid) {
				t.Errorf("AmountPaid = %s, want %s", stored.AmountPaid, wantPaid)
			}
			if !invoice.SumPayments(got).Equal(stored.AmountPaid) {
				t.Errorf("payments sum %s != AmountPaid %s", invoice.SumPayments(got), stored.AmountPaid)
			}
		})
	}
}

// -----------------------------------------------------------------------------
// GatewaySettingsStore Tests
// -----------------------------------------------------------------------------

func TestGatewaySettingsStore_SaveGetDelete(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	store := sqlite.NewGatewaySettingsStore(db)
	ctx := context.Background()
	key := gateway.Key{UserID: "user-1", Gateway: gateway.Stripe}

	gs := gateway.Settings{
		UserID:    "user-1",
		Gateway:   gateway.Stripe,
		Mode:      gateway.ModeTest,
		Enabled:   true,
		PublicKey: "pk_test",
		SecretKey: "sealed-secret",
		UpdatedAt: base,
	}
	if err := store.Save(ctx, gs); err != nil {
		t.Fatalf("save: %v", err)
	}

	gs.Mode = gateway.ModeLive
	gs.Enabled = false
	if err := store.Save(ctx, gs); err != nil {
		t.Fatalf("save again: %v", err)
	}

	got, err := store.Get(ctx, key)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Mode != gateway.ModeLive || got.Enabled {
		t.Errorf("upsert not applied: %+v", got)
	}
	if got.SecretKey != "sealed-secret" {
		t.Errorf("SecretKey = %q", got.SecretKey)
	}

	if err := store.Delete(ctx, key); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Get(ctx, key); !errors.Is(err, sqlite.ErrNotFound) {
		t.Errorf("get after delete error = %v, want ErrNotFound", err)
	}
	if err := store.Delete(ctx, key); !errors.Is(err, sqlite.ErrNotFound) {
		t.Errorf("second delete error = %v, want ErrNotFound", err)
	}
}

func TestGatewaySettingsStore_IsolatedPerUser(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	store := sqlite.NewGatewaySettingsStore(db)
	ctx := context.Background()

	for _, s := range []gateway.Settings{
		{UserID: "user-1", Gateway: gateway.Stripe, Mode: gateway.ModeTest, SecretKey: "one"},
		{UserID: "user-1", Gateway: gateway.PayPal, Mode: gateway.ModeTest},
		{UserID: "user-2", Gateway: gateway.Stripe, Mode: gateway.ModeLive, SecretKey: "two"},
	} {
		if err := store.Save(ctx, s); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	list, err := store.ListByUser(ctx, "user-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("len = %d, want 2", len(list))
	}
	if list[0].Gateway != gateway.PayPal {
		t.Errorf("first = %s, want paypal", list[0].Gateway)
	}

	other, _ := store.Get(ctx, gateway.Key{UserID: "user-2", Gateway: gateway.Stripe})
	if other.SecretKey != "two" {
		t.Errorf("user-2 secret = %q, want two", other.SecretKey)
	}
}
