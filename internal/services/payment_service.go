package services

import (
	"fmt"
	"log"
	"net/url"
	"strings"

	"organicbasket/internal/config"
	"organicbasket/internal/gateway"
	"organicbasket/internal/models"
	"organicbasket/internal/repositories"
	"organicbasket/pkg/rabbitmq"
)

const qrRenderBaseURL = "https://api.qrserver.com/v1/create-qr-code/?size=360x360&data="

// PaymentRequest describes a UPI payment intent for one order, ready to be
// shown to the buyer alongside a QR rendering of the intent URI.
type PaymentRequest struct {
	PayeeID   string `json:"payee_id"`
	PayeeName string `json:"payee_name"`
	Amount    string `json:"amount"`
	Currency  string `json:"currency"`
	Note      string `json:"note"`
	IntentURI string `json:"intent_uri"`
	QRURL     string `json:"qr_url"`
}

// PaymentService owns the two paths that move a pending order to paid: the
// buyer's manual "I paid" submission and the gateway's signed callback.
type PaymentService struct {
	orderRepo repositories.OrderRepository
	gateway   gateway.PaymentGateway
	upi       config.UPIConfig
	mqClient  *rabbitmq.Client
}

// NewPaymentService creates a new PaymentService.
func NewPaymentService(
	orderRepo repositories.OrderRepository,
	gw gateway.PaymentGateway,
	upi config.UPIConfig,
	mqClient *rabbitmq.Client,
) *PaymentService {
	return &PaymentService{
		orderRepo: orderRepo,
		gateway:   gw,
		upi:       upi,
		mqClient:  mqClient,
	}
}

// BuildPaymentRequest builds the UPI payment intent for an order. Pure and
// deterministic given the order and configuration; no side effects.
func (s *PaymentService) BuildPaymentRequest(order *models.Order) PaymentRequest {
	amount := order.TotalAmount.StringFixed(2)
	note := fmt.Sprintf("Order #%s", order.ID)
	intent := fmt.Sprintf(
		"upi://pay?pa=%s&pn=%s&am=%s&cu=%s&tn=%s",
		url.QueryEscape(s.upi.PayeeID),
		url.QueryEscape(s.upi.PayeeName),
		amount,
		checkoutCurrency,
		url.QueryEscape(note),
	)

	qrURL := s.upi.QRImageURL
	if qrURL == "" {
		qrURL = qrRenderBaseURL + url.QueryEscape(intent)
	}

	return PaymentRequest{
		PayeeID:   s.upi.PayeeID,
		PayeeName: s.upi.PayeeName,
		Amount:    amount,
		Currency:  checkoutCurrency,
		Note:      note,
		IntentURI: intent,
		QRURL:     qrURL,
	}
}

// GetPaymentRequest returns the UPI payment request for an order owned by
// the given user.
func (s *PaymentService) GetPaymentRequest(userID, orderID string) (*PaymentRequest, *models.Order, error) {
	order, err := s.ownedOrder(userID, orderID)
	if err != nil {
		return nil, nil, err
	}
	request := s.BuildPaymentRequest(order)
	return &request, order, nil
}

// ConfirmManualPayment records the buyer's self-reported payment. Only the
// owning user may confirm, and only a pending order transitions; a repeat
// submission is absorbed and reported as already submitted. The optional
// free-text reference is stored as the payment reference without any format
// check.
//
// This path performs no cryptographic verification. It is an honor-system
// fallback for when the gateway is unavailable, not a substitute for
// gateway verification.
func (s *PaymentService) ConfirmManualPayment(userID, orderID, submittedRef string) (alreadySubmitted bool, err error) {
	order, err := s.ownedOrder(userID, orderID)
	if err != nil {
		return false, err
	}

	trimmedRef := strings.TrimSpace(submittedRef)
	transitioned, err := s.orderRepo.MarkPaidIfPending(order.ID, trimmedRef)
	if err != nil {
		return false, err
	}
	if !transitioned {
		return true, nil
	}

	// Mirror the transition on the fetched row so the event carries the
	// stored state, not the pre-transition snapshot.
	order.Status = models.OrderStatusPaid
	if trimmedRef != "" {
		order.GatewayPaymentRef = trimmedRef
	}

	if s.mqClient != nil {
		if err := s.mqClient.PublishOrderEvent("order.paid", order); err != nil {
			log.Printf("Warning: Failed to publish order paid event for order %s: %v", order.ID, err)
		}
	}
	return false, nil
}

// VerifyCallback handles the gateway's asynchronous payment confirmation.
// The signature is the only trust anchor; there is no session context.
//
// An invalid signature cancels any order matching the remote reference and
// reports failure. A valid signature marks the matching order paid; if no
// local order matches, the callback still reports success. Either way the
// handler never raises: repo failures are logged and folded into the
// branch's result.
func (s *PaymentService) VerifyCallback(orderRef, paymentRef, signature string) bool {
	if orderRef == "" {
		// Manual-path orders carry an empty gateway reference. A blank
		// callback must never match them, so refuse before any write.
		return false
	}
	if !s.gateway.VerifySignature(orderRef, paymentRef, signature) {
		if err := s.orderRepo.CancelByGatewayRef(orderRef); err != nil {
			log.Printf("Failed to cancel order for gateway ref %s: %v", orderRef, err)
		} else if s.mqClient != nil {
			if err := s.mqClient.Publish("order.cancelled", []byte(orderRef)); err != nil {
				log.Printf("Warning: Failed to publish order cancelled event for gateway ref %s: %v", orderRef, err)
			}
		}
		return false
	}

	found, err := s.orderRepo.MarkPaidByGatewayRef(orderRef, paymentRef, signature)
	if err != nil {
		log.Printf("Failed to record gateway payment for ref %s: %v", orderRef, err)
		return true
	}
	if found && s.mqClient != nil {
		if err := s.mqClient.Publish("order.paid", []byte(orderRef)); err != nil {
			log.Printf("Warning: Failed to publish order paid event for gateway ref %s: %v", orderRef, err)
		}
	}
	return true
}

// ownedOrder fetches an order and checks ownership.
func (s *PaymentService) ownedOrder(userID, orderID string) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, fmt.Errorf("order %s: %w", orderID, ErrNotOwner)
	}
	return order, nil
}
