package services

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// FetchLimiter applies a global rate plus a per-domain rate derived from the
// domain's crawl delay.
type FetchLimiter struct {
	global     *rate.Limiter
	perDomain  sync.Map // map[string]*rate.Limiter
	perUser    sync.Map // map[string]*rate.Limiter
	userRate   float64
	userBurst  int
}

// NewFetchLimiter creates a limiter with the given global and per-user rates
func NewFetchLimiter(globalRate, perUserRate float64) *FetchLimiter {
	return &FetchLimiter{
		global:    rate.NewLimiter(rate.Limit(globalRate), int(globalRate*2)),
		userRate:  perUserRate,
		userBurst: int(perUserRate * 2),
	}
}

// Wait blocks until all tiers admit one request for (userID, domain)
func (fl *FetchLimiter) Wait(ctx context.Context, userID, domain string, crawlDelay time.Duration) error {
	if err := fl.global.Wait(ctx); err != nil {
		return err
	}
	if err := fl.domainLimiter(domain, crawlDelay).Wait(ctx); err != nil {
		return err
	}
	return fl.userLimiter(userID).Wait(ctx)
}

func (fl *FetchLimiter) domainLimiter(domain string, crawlDelay time.Duration) *rate.Limiter {
	if limiter, ok := fl.perDomain.Load(domain); ok {
		return limiter.(*rate.Limiter)
	}

	rps := 1.0 / crawlDelay.Seconds()
	if rps > 5.0 {
		rps = 5.0
	}
	if rps < 0.2 {
		rps = 0.2
	}

	actual, _ := fl.perDomain.LoadOrStore(domain, rate.NewLimiter(rate.Limit(rps), 1))
	return actual.(*rate.Limiter)
}

func (fl *FetchLimiter) userLimiter(userID string) *rate.Limiter {
	if limiter, ok := fl.perUser.Load(userID); ok {
		return limiter.(*rate.Limiter)
	}
	actual, _ := fl.perUser.LoadOrStore(userID, rate.NewLimiter(rate.Limit(fl.userRate), fl.userBurst))
	return actual.(*rate.Limiter)
}
