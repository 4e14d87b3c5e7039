package domain

import "errors"

var (
	ErrInvalidName        = errors.New("invalid_customer_name")
	ErrInvalidEmail       = errors.New("invalid_customer_email")
	ErrInvalidPlan        = errors.New("invalid_plan")
	ErrInvalidAmount      = errors.New("invalid_amount")
	ErrAmountTooLarge     = errors.New("amount_too_large")
	ErrInvalidStatus      = errors.New("invalid_status")
	ErrNotFound           = errors.New("attempt_not_found")
	ErrSessionNotFound    = errors.New("session_not_found")
	ErrInvalidTransition  = errors.New("invalid_status_transition")
	ErrGatewayUnavailable = errors.New("gateway_unavailable")
)
