package enums

// PaymentStatus is stored as its single letter code.
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "P"
	PaymentStatusComplete PaymentStatus = "C"
	PaymentStatusFailed   PaymentStatus = "F"
)

var paymentLabels = map[PaymentStatus]string{
	PaymentStatusPending:  "Pending",
	PaymentStatusComplete: "Complete",
	PaymentStatusFailed:   "Failed",
}

func (p PaymentStatus) String() string { return string(p) }

// Label is the display name, empty for unknown codes.
func (p PaymentStatus) Label() string { return paymentLabels[p] }

func (p PaymentStatus) IsValid() bool {
	_, ok := paymentLabels[p]
	return ok
}

func ParsePaymentStatus(value string) (PaymentStatus, error) {
	return parse("payment status", []PaymentStatus{PaymentStatusPending, PaymentStatusComplete, PaymentStatusFailed}, value)
}
