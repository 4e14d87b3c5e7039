package domain

import "context"

// ChargeStatus is the settlement state the PIX processor reports.
type ChargeStatus string

const (
	ChargeStatusPending  ChargeStatus = "pending"
	ChargeStatusApproved ChargeStatus = "approved"
	ChargeStatusRejected ChargeStatus = "rejected"
)

type CreateChargeRequest struct {
	AmountCents   int64
	CustomerName  string
	CustomerEmail string
	ProductTitle  string
}

// Charge is the processor's view of a created PIX charge.
type Charge struct {
	ID        string
	CopyPaste string
	QRCode    string
	Status    ChargeStatus
}

// Gateway abstracts the external PIX processor. Implementations live in
// internal/pixgateway; tests use stubs.
type Gateway interface {
	CreateCharge(ctx context.Context, req CreateChargeRequest) (Charge, error)
	GetCharge(ctx context.Context, id string) (ChargeStatus, error)
}
