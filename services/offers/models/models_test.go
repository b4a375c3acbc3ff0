package models

import (
	"testing"
	"time"
)

func validOffer(now time.Time) Offer {
	return Offer{
		ID:             "o1",
		JobDescription: "Build the checkout flow",
		StartDate:      now.Add(24 * time.Hour),
		EndDate:        now.Add(14 * 24 * time.Hour),
		TotalWorkHours: 80,
		TotalPay:       "2000000000000000000",
		EmployerWallet: "0xaa",
		TalentID:       "t1",
		Status:         StatusWaiting,
	}
}

func TestValidateNew(t *testing.T) {
	now := time.Now()

	if err := func() error { o := validOffer(now); return o.ValidateNew(now) }(); err != nil {
		t.Fatalf("valid offer rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Offer)
	}{
		{"missing description", func(o *Offer) { o.JobDescription = "" }},
		{"missing pay", func(o *Offer) { o.TotalPay = "" }},
		{"missing talent", func(o *Offer) { o.TalentID = "" }},
		{"zero hours", func(o *Offer) { o.TotalWorkHours = 0 }},
		{"end before start", func(o *Offer) { o.EndDate = o.StartDate.Add(-time.Hour) }},
		{"end equals start", func(o *Offer) { o.EndDate = o.StartDate }},
		{"start in the past", func(o *Offer) { o.StartDate = now.Add(-time.Hour) }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			o := validOffer(now)
			tc.mutate(&o)
			if err := o.ValidateNew(now); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestApplyUpdateTransitions(t *testing.T) {
	now := time.Now()

	o := validOffer(now)
	if err := o.ApplyUpdate(UpdateOfferRequest{Status: StatusAccepted}, now); err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	if o.Status != StatusAccepted {
		t.Errorf("status = %s, want accepted", o.Status)
	}

	// Paid requires a payment hash.
	if err := o.ApplyUpdate(UpdateOfferRequest{Status: StatusPaid}, now); err == nil {
		t.Error("expected paid without a payment hash to be rejected")
	}
	if err := o.ApplyUpdate(UpdateOfferRequest{Status: StatusPaid, PaymentTxHash: "0xpay"}, now); err != nil {
		t.Fatalf("paid with hash failed: %v", err)
	}
	if o.PaymentTxHash != "0xpay" {
		t.Errorf("paymentTxHash = %q, want 0xpay", o.PaymentTxHash)
	}

	if err := o.ApplyUpdate(UpdateOfferRequest{Status: StatusWorking}, now); err != nil {
		t.Fatalf("working failed: %v", err)
	}
	if o.WorkStartedAt == nil {
		t.Error("expected workStartedAt stamped on working")
	}
	started := *o.WorkStartedAt

	later := now.Add(time.Hour)
	if err := o.ApplyUpdate(UpdateOfferRequest{Status: StatusFinished}, later); err != nil {
		t.Fatalf("finished failed: %v", err)
	}
	if o.WorkCompletedAt == nil {
		t.Error("expected workCompletedAt stamped on finished")
	}

	// Re-applying working must not re-stamp the start time.
	if err := o.ApplyUpdate(UpdateOfferRequest{Status: StatusWorking}, later); err != nil {
		t.Fatalf("re-working failed: %v", err)
	}
	if !o.WorkStartedAt.Equal(started) {
		t.Error("workStartedAt was re-stamped")
	}
}

func TestApplyUpdateRejectsUnknownStatus(t *testing.T) {
	now := time.Now()
	o := validOffer(now)
	if err := o.ApplyUpdate(UpdateOfferRequest{Status: "cancelled"}, now); err == nil {
		t.Error("expected unknown status to be rejected")
	}
	if o.Status != StatusWaiting {
		t.Errorf("status = %s, rejected update must not change state", o.Status)
	}
}

func TestApplyUpdateHashOnly(t *testing.T) {
	now := time.Now()
	o := validOffer(now)
	if err := o.ApplyUpdate(UpdateOfferRequest{PaymentTxHash: "0xpay"}, now); err != nil {
		t.Fatalf("hash-only update failed: %v", err)
	}
	if o.Status != StatusWaiting {
		t.Errorf("status = %s, hash-only update must not change status", o.Status)
	}
	if o.PaymentTxHash != "0xpay" {
		t.Errorf("paymentTxHash = %q, want 0xpay", o.PaymentTxHash)
	}
}
