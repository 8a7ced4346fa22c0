package recovery

import (
	"context"

	"github.com/agentcommerce/commerce-api-client/pkg/apierror"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// FallbackFunc produces a substitute value for an error the fallback
// strategy accepted. It is invoked once; there is no retry.
type FallbackFunc func(ctx context.Context, err error, rctx *Context) (any, error)

// FallbackStrategy returns a caller-supplied substitute value for a fixed
// set of error kinds. Useful for serving stale or default data when the
// upstream is degraded.
type FallbackStrategy struct {
	fn     FallbackFunc
	kinds  map[apierror.Kind]bool
	logger zerolog.Logger
}

// NewFallbackStrategy creates a fallback strategy that applies to the given
// error kinds.
func NewFallbackStrategy(fn FallbackFunc, kinds ...apierror.Kind) *FallbackStrategy {
	kindSet := make(map[apierror.Kind]bool, len(kinds))
	for _, k := range kinds {
		kindSet[k] = true
	}
	return &FallbackStrategy{
		fn:     fn,
		kinds:  kindSet,
		logger: log.With().Str("component", "recovery").Str("strategy", "fallback").Logger(),
	}
}

// CanRecover reports whether err's kind is registered with this fallback.
func (s *FallbackStrategy) CanRecover(err error) bool {
	return s.kinds[apierror.KindOf(err)]
}

// Recover invokes the fallback function directly, without re-invoking the
// failed operation.
func (s *FallbackStrategy) Recover(ctx context.Context, err error, rctx *Context) (any, error) {
	s.logger.Debug().
		Str("kind", string(apierror.KindOf(err))).
		Msg("Serving fallback value")
	return s.fn(ctx, err, rctx)
}
