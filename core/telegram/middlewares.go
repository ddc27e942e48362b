package telegram

import (
	coreconfig "github.com/m3rciful/readerbot/core/config"
	"github.com/m3rciful/readerbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// DefaultMiddlewares builds the shared chain: panic recovery, request context
// and update counters, then per-user rate limiting when configured.
func DefaultMiddlewares(cfg *coreconfig.Config, metrics *middleware.Metrics, onLimited tele.HandlerFunc) []Middleware {
	mws := []Middleware{
		{Name: "recover", Use: middleware.RecoverMiddleware},
		{Name: "logger", Use: middleware.LoggerMiddleware},
	}
	if metrics != nil {
		mws = append(mws, Middleware{Name: "metrics", Use: metrics.Middleware})
	}
	if cfg != nil && cfg.RateLimit.Interval() > 0 {
		exclude := make(map[string]struct{}, len(cfg.RateLimit.ExcludeUpdates))
		for _, kind := range []string{coreconfig.UpdateCallback, coreconfig.UpdateMessage, coreconfig.UpdateDocument} {
			if cfg.RateLimit.Excluded(kind) {
				exclude[kind] = struct{}{}
			}
		}
		mws = append(mws, Middleware{
			Name: "rate_limit",
			Use: middleware.RateLimitMiddleware(middleware.RateLimitOptions{
				Interval:  cfg.RateLimit.Interval(),
				Exclude:   exclude,
				OnLimited: onLimited,
			}),
		})
	}
	return mws
}
