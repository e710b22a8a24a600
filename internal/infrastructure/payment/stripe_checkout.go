package payment

import (
	"context"
	"fmt"

	appbilling "github.com/facturio/backend/internal/application/billing"
	"github.com/facturio/backend/internal/infrastructure/config"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/checkout/session"
	"go.uber.org/zap"
)

// StripeCheckoutProvider creates hosted checkout sessions for invoice
// payments on the organization's connected Stripe account. It implements
// the application's PaymentLinkProvider port.
type StripeCheckoutProvider struct {
	config config.StripeConfig
	logger *zap.Logger
}

// NewStripeCheckoutProvider creates a new Stripe checkout provider
func NewStripeCheckoutProvider(cfg config.StripeConfig, logger *zap.Logger) *StripeCheckoutProvider {
	stripe.Key = cfg.APIKey

	return &StripeCheckoutProvider{
		config: cfg,
		logger: logger,
	}
}

// CreatePaymentLink creates a checkout session for the remaining invoice
// balance and returns its hosted URL
func (p *StripeCheckoutProvider) CreatePaymentLink(ctx context.Context, req appbilling.PaymentLinkRequest) (string, error) {
	params, err := p.buildSessionParams(req)
	if err != nil {
		return "", err
	}
	params.Context = ctx

	sess, err := session.New(params)
	if err != nil {
		p.logger.Error("Failed to create checkout session",
			zap.String("invoice_id", req.InvoiceID.String()),
			zap.String("reference", req.Reference),
			zap.Error(err))
		return "", fmt.Errorf("stripe: failed to create checkout session: %w", err)
	}

	p.logger.Info("Created checkout session",
		zap.String("invoice_id", req.InvoiceID.String()),
		zap.String("reference", req.Reference),
		zap.String("session_id", sess.ID))

	return sess.URL, nil
}

// buildSessionParams assembles the checkout session parameters for a
// destination charge on the connected account
func (p *StripeCheckoutProvider) buildSessionParams(req appbilling.PaymentLinkRequest) (*stripe.CheckoutSessionParams, error) {
	if req.StripeAccountID == "" {
		return nil, fmt.Errorf("stripe: organization has no connected account")
	}
	if req.AmountMinor <= 0 {
		return nil, fmt.Errorf("stripe: payment amount must be positive")
	}

	successURL := req.SuccessURL
	if successURL == "" {
		successURL = p.config.SuccessURL
	}
	cancelURL := req.CancelURL
	if cancelURL == "" {
		cancelURL = p.config.CancelURL
	}

	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(successURL),
		CancelURL:  stripe.String(cancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Quantity: stripe.Int64(1),
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(req.Currency),
					UnitAmount: stripe.Int64(req.AmountMinor),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String("Invoice " + req.Reference),
					},
				},
			},
		},
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			TransferData: &stripe.CheckoutSessionPaymentIntentDataTransferDataParams{
				Destination: stripe.String(req.StripeAccountID),
			},
		},
		Metadata: map[string]string{
			"invoice_id":      req.InvoiceID.String(),
			"organization_id": req.OrganizationID.String(),
			"reference":       req.Reference,
		},
	}

	if req.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(req.CustomerEmail)
	}

	if fee := p.platformFee(req.AmountMinor); fee > 0 {
		params.PaymentIntentData.ApplicationFeeAmount = stripe.Int64(fee)
	}

	return params, nil
}

// platformFee computes the platform's cut in minor units from the
// configured per-mil rate
func (p *StripeCheckoutProvider) platformFee(amountMinor int64) int64 {
	if p.config.PlatformFeePermil <= 0 {
		return 0
	}
	return amountMinor * int64(p.config.PlatformFeePermil) / 1000
}

// Ensure StripeCheckoutProvider implements PaymentLinkProvider
var _ appbilling.PaymentLinkProvider = (*StripeCheckoutProvider)(nil)
