package payout

import (
	"context"
	"errors"
	"fmt"

	"wallet-ledger/config"
	"wallet-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	stripe "github.com/stripe/stripe-go/v72"
	"github.com/stripe/stripe-go/v72/client"
)

// StripeGateway implements ports.PayoutGateway against the Stripe payout
// API. A nil error from InitiatePayout means the payout is confirmed on the
// processor side; the caller must then commit the matching debit.
type StripeGateway struct {
	api *client.API
	log zerolog.Logger
}

// NewStripeGateway creates a Stripe-backed payout gateway.
func NewStripeGateway(cfg config.PayoutConfig, log zerolog.Logger) *StripeGateway {
	api := &client.API{}
	api.Init(cfg.APIKey, nil)
	return &StripeGateway{
		api: api,
		log: log.With().Str("component", "stripe_gateway").Logger(),
	}
}

// InitiatePayout sends the amount to the external destination and waits for
// the processor's verdict. The returned ref is the processor-side payout id.
func (g *StripeGateway) InitiatePayout(ctx context.Context, userID uuid.UUID, amount int64, destination string) (string, error) {
	params := &stripe.PayoutParams{
		Params: stripe.Params{
			Context: ctx,
		},
		Amount:      stripe.Int64(amount),
		Currency:    stripe.String(string(stripe.CurrencyUSD)),
		Destination: stripe.String(destination),
	}
	params.AddMetadata("user_id", userID.String())

	p, err := g.api.Payouts.New(params)
	if err != nil {
		g.log.Warn().Err(err).
			Str("user_id", userID.String()).
			Int64("amount", amount).
			Msg("Payout rejected by processor")

		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) {
			return "", apperror.ErrPayoutFailed(fmt.Errorf("stripe payout declined: %s", stripeErr.Code))
		}
		return "", apperror.ErrPayoutFailed(fmt.Errorf("stripe payout: %w", err))
	}

	switch p.Status {
	case stripe.PayoutStatusFailed, stripe.PayoutStatusCanceled:
		g.log.Warn().
			Str("user_id", userID.String()).
			Str("payout_id", p.ID).
			Str("status", string(p.Status)).
			Msg("Payout did not complete")
		return "", apperror.ErrPayoutFailed(fmt.Errorf("payout %s status %s", p.ID, p.Status))
	}

	g.log.Info().
		Str("user_id", userID.String()).
		Str("payout_id", p.ID).
		Int64("amount", amount).
		Msg("Payout confirmed")

	return p.ID, nil
}
