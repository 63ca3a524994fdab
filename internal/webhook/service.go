package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"event-ticketing/internal/gateway"
	"event-ticketing/internal/logger"
	"event-ticketing/internal/models"

	stripe "github.com/stripe/stripe-go/v82"
)

// WebhookError carries both the safe public message and the detailed
// internal one, so handlers can respond without leaking gateway
// internals.
type WebhookError struct {
	Category      string // "configuration", "validation", "processing"
	StatusCode    int
	PublicError   string
	InternalError string
	OriginalErr   error
}

func (e *WebhookError) Error() string {
	return e.InternalError
}

func (e *WebhookError) Unwrap() error {
	return e.OriginalErr
}

// Verifier parses and signature-checks the raw webhook body.
type Verifier interface {
	ConstructWebhookEvent(payload []byte, sigHeader string) (stripe.Event, error)
}

// Dedup is the fast idempotency check in front of the durable ledger.
type Dedup interface {
	MarkSeen(ctx context.Context, eventID string) (bool, error)
	Forget(ctx context.Context, eventID string) error
}

// Ledger is the durable record of processed gateway event ids.
type Ledger interface {
	HasProcessed(eventID string) (bool, error)
	RecordEvent(eventID, eventType string) (bool, error)
}

// PaymentLayer is the slice of the payment service webhook processing
// drives.
type PaymentLayer interface {
	GetPayment(id string) (*models.Payment, error)
	GetPaymentByIntentID(intentID string) (*models.Payment, error)
	AttachPaymentIntent(paymentID, intentID string) error
	MarkCompleted(paymentID string) error
	MarkFailed(paymentID string) error
	MarkDisputed(paymentID string) error
}

// Mailer sends ticket confirmations once payments settle. Deliveries
// run asynchronously.
type Mailer interface {
	SendTicketConfirmations(paymentIDs []string)
}

type Service struct {
	Verifier Verifier
	Dedup    Dedup
	Ledger   Ledger
	Payments PaymentLayer
	Mailer   Mailer
	logger   *logger.Logger
}

func NewService(verifier Verifier, dedup Dedup, ledger Ledger, payments PaymentLayer, mailer Mailer, log *logger.Logger) *Service {
	return &Service{
		Verifier: verifier,
		Dedup:    dedup,
		Ledger:   ledger,
		Payments: payments,
		Mailer:   mailer,
		logger:   log,
	}
}

// HandleStripeWebhook verifies, deduplicates and dispatches one webhook
// delivery. Re-deliveries of an already processed event id return nil
// so the gateway gets a 200 and stops retrying. A processing failure
// clears the fast-path marker before returning, keeping the event
// retryable.
func (s *Service) HandleStripeWebhook(r *http.Request) error {
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		s.logger.LogWebhook("read", fmt.Sprintf("Failed to read webhook payload: %v", err))
		return &WebhookError{
			Category:      "validation",
			StatusCode:    http.StatusBadRequest,
			PublicError:   "Invalid webhook payload",
			InternalError: fmt.Sprintf("Failed to read webhook payload: %v", err),
			OriginalErr:   err,
		}
	}

	event, err := s.Verifier.ConstructWebhookEvent(payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		s.logger.LogWebhook("verify", fmt.Sprintf("Signature verification failed: %v", err))
		return &WebhookError{
			Category:      "validation",
			StatusCode:    http.StatusBadRequest,
			PublicError:   "Invalid webhook signature",
			InternalError: fmt.Sprintf("Signature verification failed: %v", err),
			OriginalErr:   err,
		}
	}

	eventType := string(event.Type)
	s.logger.LogWebhook(eventType, fmt.Sprintf("Received event %s", event.ID))

	ctx := r.Context()

	firstSeen, err := s.Dedup.MarkSeen(ctx, event.ID)
	if err != nil {
		// Redis being down must not drop webhooks; the ledger below
		// still guards against double processing.
		s.logger.LogWebhook(eventType, fmt.Sprintf("Dedup cache unavailable for %s: %v", event.ID, err))
	} else if !firstSeen {
		s.logger.LogWebhook(eventType, fmt.Sprintf("Duplicate delivery of %s ignored", event.ID))
		return nil
	}

	processed, err := s.Ledger.HasProcessed(event.ID)
	if err != nil {
		return s.processingError(event.ID, fmt.Sprintf("Ledger lookup failed for %s: %v", event.ID, err), err)
	}
	if processed {
		s.logger.LogWebhook(eventType, fmt.Sprintf("Event %s already processed, ignoring", event.ID))
		return nil
	}

	if err := s.dispatch(event); err != nil {
		_ = s.Dedup.Forget(ctx, event.ID)
		return err
	}

	if _, err := s.Ledger.RecordEvent(event.ID, eventType); err != nil {
		s.logger.LogWebhook(eventType, fmt.Sprintf("Failed to record event %s in ledger: %v", event.ID, err))
	}
	return nil
}

func (s *Service) dispatch(event stripe.Event) error {
	switch event.Type {
	case "checkout.session.completed":
		return s.handleCheckoutCompleted(event)
	case "payment_intent.succeeded":
		return s.handleIntentSucceeded(event)
	case "payment_intent.payment_failed":
		return s.handleIntentFailed(event)
	case "charge.dispute.created":
		return s.handleDisputeCreated(event)
	default:
		s.logger.LogWebhook(string(event.Type), fmt.Sprintf("Unhandled event type for %s", event.ID))
		return nil
	}
}

// handleCheckoutCompleted settles every pending payment the session
// covers. The payment ids were written into session metadata when the
// checkout was created.
func (s *Service) handleCheckoutCompleted(event stripe.Event) error {
	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return s.unmarshalError(event, err)
	}

	raw, ok := sess.Metadata[gateway.MetadataPaymentIDs]
	if !ok || raw == "" {
		return &WebhookError{
			Category:      "processing",
			StatusCode:    http.StatusBadRequest,
			PublicError:   "Invalid session data",
			InternalError: fmt.Sprintf("Checkout session %s has no payment ids in metadata", sess.ID),
		}
	}

	intentID := ""
	if sess.PaymentIntent != nil {
		intentID = sess.PaymentIntent.ID
	}

	paymentIDs := strings.Split(raw, ",")
	var settled []string
	for _, paymentID := range paymentIDs {
		paymentID = strings.TrimSpace(paymentID)
		if paymentID == "" {
			continue
		}
		payment, err := s.Payments.GetPayment(paymentID)
		if err != nil {
			return s.processingError(event.ID, fmt.Sprintf("Unknown payment %s in session %s: %v", paymentID, sess.ID, err), err)
		}
		if payment.Status != models.PaymentPending {
			s.logger.LogWebhook("checkout.session.completed", fmt.Sprintf("Payment %s already %s, skipping", paymentID, payment.Status))
			continue
		}
		if intentID != "" {
			if err := s.Payments.AttachPaymentIntent(paymentID, intentID); err != nil {
				s.logger.LogWebhook("checkout.session.completed", fmt.Sprintf("Failed to attach intent to payment %s: %v", paymentID, err))
			}
		}
		if err := s.Payments.MarkCompleted(paymentID); err != nil {
			return s.processingError(event.ID, fmt.Sprintf("Failed to complete payment %s: %v", paymentID, err), err)
		}
		settled = append(settled, paymentID)
	}

	// Confirmations go out only for payments this delivery actually
	// settled.
	if s.Mailer != nil && len(settled) > 0 {
		s.Mailer.SendTicketConfirmations(settled)
	}

	s.logger.LogWebhook("checkout.session.completed", fmt.Sprintf("Session %s settled %d of %d payment(s)", sess.ID, len(settled), len(paymentIDs)))
	return nil
}

func (s *Service) handleIntentSucceeded(event stripe.Event) error {
	var intent stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
		return s.unmarshalError(event, err)
	}

	payment, err := s.Payments.GetPaymentByIntentID(intent.ID)
	if err != nil {
		// The checkout.session.completed path normally lands first and
		// attaches the intent; an unknown intent here is not fatal.
		s.logger.LogWebhook("payment_intent.succeeded", fmt.Sprintf("No payment for intent %s", intent.ID))
		return nil
	}
	if payment.Status != models.PaymentPending {
		s.logger.LogWebhook("payment_intent.succeeded", fmt.Sprintf("Payment %s already %s, ignoring", payment.ID, payment.Status))
		return nil
	}

	if err := s.Payments.MarkCompleted(payment.ID); err != nil {
		return s.processingError(event.ID, fmt.Sprintf("Failed to complete payment %s: %v", payment.ID, err), err)
	}
	return nil
}

func (s *Service) handleIntentFailed(event stripe.Event) error {
	var intent stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
		return s.unmarshalError(event, err)
	}

	payment, err := s.Payments.GetPaymentByIntentID(intent.ID)
	if err != nil {
		s.logger.LogWebhook("payment_intent.payment_failed", fmt.Sprintf("No payment for intent %s", intent.ID))
		return nil
	}
	if payment.Status != models.PaymentPending {
		s.logger.LogWebhook("payment_intent.payment_failed", fmt.Sprintf("Payment %s already %s, ignoring", payment.ID, payment.Status))
		return nil
	}

	if err := s.Payments.MarkFailed(payment.ID); err != nil {
		return s.processingError(event.ID, fmt.Sprintf("Failed to fail payment %s: %v", payment.ID, err), err)
	}
	return nil
}

// handleDisputeCreated forces the disputed payment to failed whatever
// its current status; chargebacks arrive long after completion.
func (s *Service) handleDisputeCreated(event stripe.Event) error {
	var dispute stripe.Dispute
	if err := json.Unmarshal(event.Data.Raw, &dispute); err != nil {
		return s.unmarshalError(event, err)
	}

	if dispute.PaymentIntent == nil || dispute.PaymentIntent.ID == "" {
		s.logger.LogWebhook("charge.dispute.created", fmt.Sprintf("Dispute %s has no payment intent", dispute.ID))
		return nil
	}

	payment, err := s.Payments.GetPaymentByIntentID(dispute.PaymentIntent.ID)
	if err != nil {
		s.logger.LogWebhook("charge.dispute.created", fmt.Sprintf("No payment for disputed intent %s", dispute.PaymentIntent.ID))
		return nil
	}

	if err := s.Payments.MarkDisputed(payment.ID); err != nil {
		return s.processingError(event.ID, fmt.Sprintf("Failed to mark payment %s disputed: %v", payment.ID, err), err)
	}

	s.logger.LogWebhook("charge.dispute.created", fmt.Sprintf("Payment %s marked failed after dispute %s", payment.ID, dispute.ID))
	return nil
}

func (s *Service) unmarshalError(event stripe.Event, err error) error {
	return &WebhookError{
		Category:      "processing",
		StatusCode:    http.StatusBadRequest,
		PublicError:   "Invalid event data",
		InternalError: fmt.Sprintf("Failed to unmarshal %s event %s: %v", event.Type, event.ID, err),
		OriginalErr:   err,
	}
}

func (s *Service) processingError(eventID, internal string, err error) error {
	s.logger.LogWebhook("process", internal)
	return &WebhookError{
		Category:      "processing",
		StatusCode:    http.StatusInternalServerError,
		PublicError:   "Failed to process event",
		InternalError: internal,
		OriginalErr:   err,
	}
}
