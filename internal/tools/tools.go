package tools

import (
	"github.com/stackoverflowed/nifimcp/internal/config"
	"github.com/stackoverflowed/nifimcp/internal/ratelimit"
	"github.com/stackoverflowed/nifimcp/internal/toolregistry"
)

// RegisterAll wires every tool family into reg. cfg.ExpertHelp and limiter
// configure the rate-limited expert-help tool; the rest need no external
// configuration beyond the per-request NiFi client carried on the
// request context.
func RegisterAll(reg *toolregistry.Registry, cfg config.ExpertHelp, limiter *ratelimit.Limiter) {
	RegisterLookupTools(reg)
	RegisterReviewTools(reg)
	RegisterModificationTools(reg)
	RegisterOperationTools(reg)
	RegisterExpertTools(reg, cfg, limiter)
}
