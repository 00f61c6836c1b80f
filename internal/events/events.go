package events

// Operational event types emitted by the payment core. The broadcast
// queue consumes these from the outbox table.
const (
	EventPaymentSettled   = "payment_settled"
	EventPaymentCancelled = "payment_cancelled"
	EventOrderFinished    = "order_finished"
)

// PaymentSettledPayload captures the minimal data a consumer needs to
// notify a customer about a settled allocation batch.
type PaymentSettledPayload struct {
	CustomerID       string `json:"customer_id"`
	InvoiceReference int64  `json:"invoice_reference"`
	PackageCount     int    `json:"package_count"`
	AmountUSD        string `json:"amount_usd"`
	AmountLYD        string `json:"amount_lyd"`
}

// PaymentCancelledPayload captures a reversed order payment.
type PaymentCancelledPayload struct {
	CustomerID     string `json:"customer_id"`
	HistoryEntryID string `json:"history_entry_id"`
	Amount         string `json:"amount"`
	Currency       string `json:"currency"`
}

// ToMap converts a payload to an outbox-friendly map.
func (p PaymentSettledPayload) ToMap() map[string]any {
	return map[string]any{
		"customer_id":       p.CustomerID,
		"invoice_reference": p.InvoiceReference,
		"package_count":     p.PackageCount,
		"amount_usd":        p.AmountUSD,
		"amount_lyd":        p.AmountLYD,
	}
}

// ToMap converts a payload to an outbox-friendly map.
func (p PaymentCancelledPayload) ToMap() map[string]any {
	return map[string]any{
		"customer_id":      p.CustomerID,
		"history_entry_id": p.HistoryEntryID,
		"amount":           p.Amount,
		"currency":         p.Currency,
	}
}
