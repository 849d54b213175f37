package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		invoicesRecordedTotal,
		invoiceAmountTotal,
	)
}

var (
	invoicesRecordedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "invoices_recorded_total",
			Help: "Invoice rows written, by payment status (succeeded/failed) and currency.",
		},
		[]string{"status", "currency"},
	)

	invoiceAmountTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "invoice_amount_total",
			Help: "Sum of successfully paid invoice amounts in major units, labeled by currency.",
		},
		[]string{"currency"},
	)
)

func IncInvoice(status, currency string) {
	invoicesRecordedTotal.WithLabelValues(norm(status), norm(currency)).Inc()
}

// AddInvoiceAmount takes the stored decimal amount, e.g. "19.99".
func AddInvoiceAmount(currency, amount string) {
	v, err := strconv.ParseFloat(amount, 64)
	if err != nil || v <= 0 {
		return
	}
	invoiceAmountTotal.WithLabelValues(norm(currency)).Add(v)
}
