package gateway

import (
	"fmt"
	"math"
	"strings"

	"event-ticketing/internal/config"
	"event-ticketing/internal/logger"

	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/refund"
	"github.com/stripe/stripe-go/v82/webhook"
)

// MetadataPaymentIDs is the checkout session metadata key carrying the
// comma separated payment ids the session settles.
const MetadataPaymentIDs = "payment_ids"

// StripeGateway wraps the hosted checkout, refund and webhook pieces of
// the Stripe API. When disabled every call is a no-op returning zero
// values, which keeps local development free of gateway credentials.
type StripeGateway struct {
	webhookSecret string
	currency      string
	baseURL       string
	enabled       bool
	logger        *logger.Logger
}

func NewStripeGateway(cfg config.StripeConfig, baseURL string, log *logger.Logger) *StripeGateway {
	if cfg.Enabled {
		stripe.Key = cfg.SecretKey
	}
	return &StripeGateway{
		webhookSecret: cfg.WebhookSecret,
		currency:      cfg.Currency,
		baseURL:       baseURL,
		enabled:       cfg.Enabled,
		logger:        log,
	}
}

// CreateCheckoutSession builds one hosted payment page for the whole
// batch. The payment ids travel in session metadata so the completion
// webhook can settle every pending row the session covers.
func (g *StripeGateway) CreateCheckoutSession(eventTitle string, quantity int, unitPrice float64, customerID string, paymentIDs []string) (string, error) {
	if !g.enabled {
		return "", nil
	}

	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(g.currency),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(fmt.Sprintf("Ticket: %s", eventTitle)),
					},
					UnitAmount: stripe.Int64(toMinorUnits(unitPrice)),
				},
				Quantity: stripe.Int64(int64(quantity)),
			},
		},
		SuccessURL: stripe.String(g.baseURL + "/checkout/success?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:  stripe.String(g.baseURL + "/checkout/cancel"),
	}
	params.AddMetadata(MetadataPaymentIDs, strings.Join(paymentIDs, ","))
	params.AddMetadata("customer_id", customerID)

	sess, err := session.New(params)
	if err != nil {
		return "", fmt.Errorf("create checkout session: %w", err)
	}

	g.logger.Info("STRIPE", fmt.Sprintf("Checkout session %s created for %d payment(s)", sess.ID, len(paymentIDs)))
	return sess.URL, nil
}

// CreateRefund pushes a refund for the given payment intent.
func (g *StripeGateway) CreateRefund(paymentIntentID string, amount float64) (string, error) {
	if !g.enabled {
		return "", nil
	}

	r, err := refund.New(&stripe.RefundParams{
		PaymentIntent: stripe.String(paymentIntentID),
		Amount:        stripe.Int64(toMinorUnits(amount)),
	})
	if err != nil {
		return "", fmt.Errorf("create refund: %w", err)
	}

	g.logger.Info("STRIPE", fmt.Sprintf("Refund %s created for intent %s", r.ID, paymentIntentID))
	return r.ID, nil
}

// ConstructWebhookEvent verifies the signature header and parses the
// event. API version mismatches between the SDK pin and the account are
// tolerated; the payload shapes this service reads are stable.
func (g *StripeGateway) ConstructWebhookEvent(payload []byte, sigHeader string) (stripe.Event, error) {
	return webhook.ConstructEventWithOptions(payload, sigHeader, g.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
}

func toMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}
