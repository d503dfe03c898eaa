package market

import "github.com/arbedge/arbedge-core/internal/apperrors"

var (
	errParseEmptySeries  = apperrors.New(apperrors.KindParse, "series has zero parsed points")
	errParseNonMonotonic = apperrors.New(apperrors.KindParse, "series points are not strictly increasing by ts_ms")
	errParseVenueMismatch = apperrors.New(apperrors.KindParse, "series point venue does not match series venue")
)
