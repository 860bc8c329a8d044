package models

// PaymentMethod is how the customer settles an order.
type PaymentMethod string

const (
	PaymentCOD          PaymentMethod = "cod"
	PaymentUPI          PaymentMethod = "upi"
	PaymentCard         PaymentMethod = "card"
	PaymentBankTransfer PaymentMethod = "bank_transfer"
)

// PaymentStatus of an order.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

// Valid reports whether m is an accepted payment method.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCOD, PaymentUPI, PaymentCard, PaymentBankTransfer:
		return true
	}
	return false
}

// Valid reports whether s is a known payment status.
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentPaid, PaymentFailed, PaymentRefunded:
		return true
	}
	return false
}
