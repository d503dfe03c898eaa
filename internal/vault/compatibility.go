package vault

import (
	"context"
	"encoding/json"

	"github.com/arbedge/arbedge-core/internal/apperrors"
)

// arbitrageFeatures and technicalFeatures name the capability labels this
// scoring model recognizes, mirroring
// user_exchange_api.rs::check_exchange_compatibility's feature catalogue.
var (
	arbitrageFeatures = []string{"cross_venue_pricing", "order_book_depth"}
	technicalFeatures = []string{"kline_history", "ticker_stream"}
)

// CheckExchangeCompatibility reports how well owner's active exchange
// credentials support arbitrage (>=2 distinct venues) and technical
// analysis (>=1 venue) features. Results are cached for compatCacheTTL.
func (v *Vault) CheckExchangeCompatibility(ctx context.Context, owner string) (*ExchangeCompatibility, error) {
	if raw, found, err := v.store.Get(ctx, compatKey(owner)); err == nil && found {
		var cached ExchangeCompatibility
		if json.Unmarshal(raw, &cached) == nil {
			return &cached, nil
		}
	}

	handles, err := v.List(ctx, owner)
	if err != nil {
		return nil, err
	}

	venues := make(map[string]bool)
	for _, h := range handles {
		if h.Provider == ProviderExchange && h.Active {
			venues[h.Venue] = true
		}
	}

	result := &ExchangeCompatibility{
		ArbitrageCompatible: len(venues) >= 2,
		TechnicalCompatible: len(venues) >= 1,
	}

	switch {
	case len(venues) >= 2:
		result.SupportedFeatures = append(arbitrageFeatures, technicalFeatures...)
		result.CompatibilityScore = 1.0
	case len(venues) == 1:
		result.SupportedFeatures = technicalFeatures
		result.MissingFeatures = arbitrageFeatures
		result.CompatibilityScore = 0.5
	default:
		result.MissingFeatures = append(arbitrageFeatures, technicalFeatures...)
		result.CompatibilityScore = 0.0
	}

	raw, err := json.Marshal(result)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, err, "marshal compatibility result")
	}
	if err := v.store.Set(ctx, compatKey(owner), raw, compatCacheTTL); err != nil {
		v.log.Warn().Str("owner", owner).Err(err).Msg("failed to cache compatibility result, continuing")
	}

	return result, nil
}
