package module

import (
	"time"

	"likert/internal/platform/config"
	"likert/internal/services/responses/repo"
)

// Options controls store timeouts, the read cache and the admin token
type Options struct {
	StoreTimeout time.Duration
	CacheTTL     time.Duration // 0 disables the read cache
	AdminToken   string        // empty keeps the repair route closed
}

// FromConfig reads responses settings from process config/env
func FromConfig(cfg config.Conf) Options {
	return Options{
		StoreTimeout: cfg.MayDuration("STORE_TIMEOUT", repo.DefaultStoreTimeout),
		CacheTTL:     cfg.MayDuration("CACHE_TTL", repo.DefaultCacheTTL),
		AdminToken:   cfg.MaySecret("ADMIN_TOKEN", ""),
	}
}
