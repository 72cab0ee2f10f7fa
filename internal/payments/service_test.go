package payments

import (
	"context"
	"testing"
	"time"

	"gorm.io/datatypes"

	"canteen-backend/internal/apperr"
	"canteen-backend/internal/events"
	"canteen-backend/internal/models"
)

type fakeOrders struct {
	byID map[string]*models.Order
}

func (f *fakeOrders) Get(tenantID, orderID string) (*models.Order, error) {
	if o, ok := f.byID[orderID]; ok && o.TenantID == tenantID {
		cp := *o
		return &cp, nil
	}
	return nil, apperr.New(apperr.NotFound, "order not found")
}

func (f *fakeOrders) Save(order *models.Order) error {
	cp := *order
	f.byID[order.ID] = &cp
	return nil
}

func (f *fakeOrders) PendingBefore(cutoff time.Time) ([]models.Order, error) {
	var out []models.Order
	for _, o := range f.byID {
		if o.PaymentStatus == models.PaymentPending && o.CreatedAt.Before(cutoff) {
			out = append(out, *o)
		}
	}
	return out, nil
}

type fakeConfigs struct {
	cfg *models.GatewayConfig
}

func (f *fakeConfigs) Get(tenantID, channel string) (*models.GatewayConfig, error) {
	if f.cfg == nil || f.cfg.TenantID != tenantID || f.cfg.Channel != channel {
		return nil, apperr.New(apperr.NotFound, "gateway config not found")
	}
	return f.cfg, nil
}

func (f *fakeConfigs) Upsert(cfg *models.GatewayConfig) error {
	f.cfg = cfg
	return nil
}

type fakeGateway struct {
	created  []int64
	orderID  string
	failWith error
}

func (f *fakeGateway) CreateOrder(_ context.Context, _ *models.GatewayConfig, amountPaise int64, _ string) (string, error) {
	if f.failWith != nil {
		return "", f.failWith
	}
	f.created = append(f.created, amountPaise)
	return f.orderID, nil
}

func fixture() (*Service, *fakeOrders, *fakeGateway, *events.Bus) {
	orders := &fakeOrders{byID: map[string]*models.Order{
		"o1": {
			ID: "o1", TenantID: "t1", OrderNumber: 7, Source: models.SourceQRCode,
			Total: 189, PaymentStatus: models.PaymentPending, CreatedAt: time.Now(),
		},
	}}
	configs := &fakeConfigs{cfg: &models.GatewayConfig{
		ID: "c1", TenantID: "t1", Channel: models.ChannelOnline, Enabled: true,
		Provider: models.ProviderRazorpay, KeyID: "key", KeySecret: "secret",
		AcceptedMethods: datatypes.NewJSONType(models.AcceptedMethods{UPI: true, Card: true}),
	}}
	gw := &fakeGateway{orderID: "pay_abc"}
	bus := events.NewBus()
	return NewService(orders, configs, gw, bus), orders, gw, bus
}

func TestCreateGatewayOrder(t *testing.T) {
	svc, orders, gw, _ := fixture()

	res, err := svc.CreateGatewayOrder(context.Background(), "t1", "o1", "upi")
	if err != nil {
		t.Fatal(err)
	}
	if res.ProviderOrderID != "pay_abc" || res.KeyID != "key" {
		t.Errorf("result = %+v", res)
	}
	if res.AmountPaise != 18900 {
		t.Errorf("amountPaise = %d, want 18900", res.AmountPaise)
	}
	if len(gw.created) != 1 {
		t.Errorf("gateway called %d times", len(gw.created))
	}
	stored := orders.byID["o1"]
	if stored.ProviderOrderID != "pay_abc" || stored.TransactionID == "" {
		t.Errorf("provider refs not persisted: %+v", stored)
	}
}

func TestCreateGatewayOrderNotReady(t *testing.T) {
	svc, _, _, _ := fixture()
	svc.configs.(*fakeConfigs).cfg.Enabled = false

	_, err := svc.CreateGatewayOrder(context.Background(), "t1", "o1", "upi")
	if !apperr.IsKind(err, apperr.Gateway) {
		t.Errorf("disabled config should be a gateway error, got %v", err)
	}
}

func TestCreateGatewayOrderRejectsUnacceptedMethod(t *testing.T) {
	svc, _, _, _ := fixture()
	_, err := svc.CreateGatewayOrder(context.Background(), "t1", "o1", "netbanking")
	if !apperr.IsKind(err, apperr.Validation) {
		t.Errorf("unaccepted method should fail validation, got %v", err)
	}
}

func TestVerifyPaymentIdempotent(t *testing.T) {
	svc, orders, _, bus := fixture()
	paidEvents := 0
	bus.Subscribe(events.OrderPaid, func(events.Event) { paidEvents++ })

	if _, err := svc.CreateGatewayOrder(context.Background(), "t1", "o1", "upi"); err != nil {
		t.Fatal(err)
	}

	cb := Callback{
		TenantID: "t1", OrderID: "o1", ProviderOrderID: "pay_abc",
		PaymentID: "pmt_1",
		Signature: SignPayload("pay_abc", "pmt_1", "secret"),
	}

	order, err := svc.VerifyPayment(cb)
	if err != nil {
		t.Fatal(err)
	}
	if order.PaymentStatus != models.PaymentPaid {
		t.Fatalf("status = %s, want paid", order.PaymentStatus)
	}

	// Same callback again: success, still paid, no second event.
	order, err = svc.VerifyPayment(cb)
	if err != nil {
		t.Fatalf("repeat verify should succeed, got %v", err)
	}
	if order.PaymentStatus != models.PaymentPaid {
		t.Errorf("repeat verify changed status to %s", order.PaymentStatus)
	}
	if paidEvents != 1 {
		t.Errorf("order.paid emitted %d times, want 1", paidEvents)
	}
	if orders.byID["o1"].PaymentStatus != models.PaymentPaid {
		t.Errorf("stored status = %s", orders.byID["o1"].PaymentStatus)
	}
}

func TestVerifyPaymentBadSignature(t *testing.T) {
	svc, orders, _, bus := fixture()
	failedEvents := 0
	bus.Subscribe(events.OrderFailed, func(events.Event) { failedEvents++ })

	if _, err := svc.CreateGatewayOrder(context.Background(), "t1", "o1", "upi"); err != nil {
		t.Fatal(err)
	}

	_, err := svc.VerifyPayment(Callback{
		TenantID: "t1", OrderID: "o1", ProviderOrderID: "pay_abc",
		PaymentID: "pmt_1", Signature: "forged",
	})
	if !apperr.IsKind(err, apperr.Gateway) {
		t.Fatalf("forged signature should be a gateway error, got %v", err)
	}
	if orders.byID["o1"].PaymentStatus != models.PaymentFailed {
		t.Errorf("status = %s, want failed", orders.byID["o1"].PaymentStatus)
	}
	if failedEvents != 1 {
		t.Errorf("order.failed emitted %d times, want 1", failedEvents)
	}

	// failed is terminal: a later valid callback cannot reopen it.
	_, err = svc.VerifyPayment(Callback{
		TenantID: "t1", OrderID: "o1", ProviderOrderID: "pay_abc",
		PaymentID: "pmt_1",
		Signature: SignPayload("pay_abc", "pmt_1", "secret"),
	})
	if !apperr.IsKind(err, apperr.Conflict) {
		t.Errorf("terminal order should conflict, got %v", err)
	}
}

func TestVerifyPaymentMismatchedReference(t *testing.T) {
	svc, _, _, _ := fixture()
	if _, err := svc.CreateGatewayOrder(context.Background(), "t1", "o1", "upi"); err != nil {
		t.Fatal(err)
	}
	_, err := svc.VerifyPayment(Callback{
		TenantID: "t1", OrderID: "o1", ProviderOrderID: "pay_other",
		PaymentID: "pmt_1",
		Signature: SignPayload("pay_other", "pmt_1", "secret"),
	})
	if !apperr.IsKind(err, apperr.Validation) {
		t.Errorf("mismatched provider order id should fail validation, got %v", err)
	}
}

func TestCancelAndSweep(t *testing.T) {
	svc, orders, _, _ := fixture()

	order, err := svc.CancelPayment("t1", "o1")
	if err != nil {
		t.Fatal(err)
	}
	if order.PaymentStatus != models.PaymentCancelled || order.Status != models.OrderCancelled {
		t.Errorf("cancel result: %+v", order)
	}
	if _, err := svc.CancelPayment("t1", "o1"); !apperr.IsKind(err, apperr.Conflict) {
		t.Errorf("double cancel should conflict, got %v", err)
	}

	// Sweep only touches stale pending orders.
	orders.byID["o2"] = &models.Order{
		ID: "o2", TenantID: "t1", Source: models.SourceQRCode,
		PaymentStatus: models.PaymentPending,
		CreatedAt:     time.Now().Add(-time.Hour),
	}
	orders.byID["o3"] = &models.Order{
		ID: "o3", TenantID: "t1", Source: models.SourceQRCode,
		PaymentStatus: models.PaymentPending,
		CreatedAt:     time.Now(),
	}
	if swept := svc.SweepPending(30 * time.Minute); swept != 1 {
		t.Errorf("swept %d, want 1", swept)
	}
	if orders.byID["o2"].PaymentStatus != models.PaymentCancelled {
		t.Error("stale order not cancelled")
	}
	if orders.byID["o3"].PaymentStatus != models.PaymentPending {
		t.Error("fresh order should stay pending")
	}
}

func TestSignatureRoundTrip(t *testing.T) {
	sig := SignPayload("ord_1", "pay_1", "s3cret")
	if !VerifySignature("ord_1", "pay_1", "s3cret", sig) {
		t.Error("valid signature rejected")
	}
	if VerifySignature("ord_1", "pay_1", "other", sig) {
		t.Error("wrong secret accepted")
	}
	if VerifySignature("ord_2", "pay_1", "s3cret", sig) {
		t.Error("wrong payload accepted")
	}
}
