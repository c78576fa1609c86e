package order

import "testing"

func TestComputeSubtotal(t *testing.T) {
	items := []OrderItem{
		{UnitPrice: 100, Quantity: 2},
		{UnitPrice: 50, Quantity: 1},
	}
	if got := ComputeSubtotal(items); got != 250 {
		t.Errorf("ComputeSubtotal = %d, want 250", got)
	}
	if got := ComputeSubtotal(nil); got != 0 {
		t.Errorf("ComputeSubtotal(nil) = %d, want 0", got)
	}
}

func TestComputeTotal(t *testing.T) {
	cases := []struct {
		subtotal, discount, want int64
	}{
		{250, 30, 220},
		{250, 0, 250},
		{100, 100, 0},
		{100, 150, 0}, // 优惠不把应付金额打成负数
	}
	for _, tc := range cases {
		if got := ComputeTotal(tc.subtotal, tc.discount); got != tc.want {
			t.Errorf("ComputeTotal(%d, %d) = %d, want %d", tc.subtotal, tc.discount, got, tc.want)
		}
	}
}

func TestCanCancel(t *testing.T) {
	o := &Order{PaymentStatus: PaymentStatusPending}
	if !o.CanCancel() {
		t.Error("pending order should be cancellable")
	}
	o.PaymentStatus = PaymentStatusCompleted
	if o.CanCancel() {
		t.Error("completed order should not be cancellable")
	}
	o.PaymentStatus = PaymentStatusFailed
	if o.CanCancel() {
		t.Error("failed order should not be cancellable")
	}
}

func TestCanCancelCOD(t *testing.T) {
	o := &Order{
		PaymentMethod:  PaymentMethodCOD,
		PaymentStatus:  PaymentStatusPending,
		ShippingStatus: ShippingStatusPending,
	}
	if !o.CanCancelCOD() {
		t.Error("unshipped cod order should be cancellable")
	}

	shipped := *o
	shipped.ShippingStatus = ShippingStatusShipped
	if shipped.CanCancelCOD() {
		t.Error("shipped cod order should not be cancellable")
	}

	online := *o
	online.PaymentMethod = PaymentMethodOnline
	if online.CanCancelCOD() {
		t.Error("online order should not take the cod cancel path")
	}
}

func TestPayable(t *testing.T) {
	o := &Order{PaymentMethod: PaymentMethodOnline, PaymentStatus: PaymentStatusPending}
	if !o.Payable() {
		t.Error("pending online order should be payable")
	}
	o.PaymentStatus = PaymentStatusCompleted
	if o.Payable() {
		t.Error("paid order should not be payable again")
	}
	cod := &Order{PaymentMethod: PaymentMethodCOD, PaymentStatus: PaymentStatusPending}
	if cod.Payable() {
		t.Error("cod order never goes to the gateway")
	}
}
