package models

import (
	"errors"
	"time"
)

const (
	StatusWaiting  = "waiting"
	StatusAccepted = "accepted"
	StatusPaid     = "paid"
	StatusWorking  = "working"
	StatusFinished = "finished"
)

func ValidStatus(s string) bool {
	switch s {
	case StatusWaiting, StatusAccepted, StatusPaid, StatusWorking, StatusFinished:
		return true
	}
	return false
}

// Offer is a hiring agreement between an employer and a talent. TotalPay is
// a wei amount kept as a string.
type Offer struct {
	ID              string     `json:"id"`
	JobDescription  string     `json:"jobDescription"`
	StartDate       time.Time  `json:"startDate"`
	EndDate         time.Time  `json:"endDate"`
	TotalWorkHours  int        `json:"totalWorkHours"`
	TotalPay        string     `json:"totalPay"`
	EmployerWallet  string     `json:"employerWallet"`
	TalentID        string     `json:"talentId"`
	Status          string     `json:"status"`
	PaymentTxHash   string     `json:"paymentTxHash,omitempty"`
	WorkStartedAt   *time.Time `json:"workStartedAt,omitempty"`
	WorkCompletedAt *time.Time `json:"workCompletedAt,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

type CreateOfferRequest struct {
	JobDescription string    `json:"jobDescription"`
	StartDate      time.Time `json:"startDate"`
	EndDate        time.Time `json:"endDate"`
	TotalWorkHours int       `json:"totalWorkHours"`
	TotalPay       string    `json:"totalPay"`
	TalentID       string    `json:"talentId"`
}

type UpdateOfferRequest struct {
	Status        string `json:"status,omitempty"`
	PaymentTxHash string `json:"paymentTxHash,omitempty"`
}

type ListResponse struct {
	Offers []Offer `json:"offers"`
	Total  int     `json:"total"`
	Page   int     `json:"page"`
	Limit  int     `json:"limit"`
}

// ValidateNew checks invariants for a newly created offer.
func (o *Offer) ValidateNew(now time.Time) error {
	if o.JobDescription == "" || o.TotalPay == "" || o.TalentID == "" {
		return errors.New("job description, total pay, and talent id are required")
	}
	if o.TotalWorkHours < 1 {
		return errors.New("total work hours must be at least 1")
	}
	if !o.EndDate.After(o.StartDate) {
		return errors.New("end date must be after start date")
	}
	if o.StartDate.Before(now) {
		return errors.New("start date cannot be in the past")
	}
	return nil
}

// ApplyUpdate moves the offer to a new status, enforcing status-specific
// requirements and stamping work timestamps.
func (o *Offer) ApplyUpdate(req UpdateOfferRequest, now time.Time) error {
	if req.PaymentTxHash != "" {
		o.PaymentTxHash = req.PaymentTxHash
	}
	if req.Status == "" {
		return nil
	}
	if !ValidStatus(req.Status) {
		return errors.New("invalid status")
	}
	if req.Status == StatusPaid && o.PaymentTxHash == "" {
		return errors.New("payment transaction hash is required when status is paid")
	}
	o.Status = req.Status
	if o.Status == StatusWorking && o.WorkStartedAt == nil {
		o.WorkStartedAt = &now
	}
	if o.Status == StatusFinished && o.WorkCompletedAt == nil {
		o.WorkCompletedAt = &now
	}
	return nil
}
