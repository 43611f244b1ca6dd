package payment

import "github.com/gin-gonic/gin"

type IHandler interface {
	// CreatePayment registers a payment intent for an order and returns the
	// deposit address plus wallet-app QR content.
	CreatePayment(c *gin.Context)

	// GetWalletAddress resolves the caller's permanent deposit address,
	// issuing one on first use.
	GetWalletAddress(c *gin.Context)

	// GetPaymentStatus reports an intent's current state for UI polling.
	GetPaymentStatus(c *gin.Context)

	// TriggerCheck runs one debounced reconciliation cycle.
	TriggerCheck(c *gin.Context)

	// Notify ingests a provider push notification and settles the matched
	// intent.
	Notify(c *gin.Context)

	// ConfirmPayment settles an intent manually, for operator intervention.
	ConfirmPayment(c *gin.Context)
}
