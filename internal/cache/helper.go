package cache

import (
	"context"

	"github.com/getsentry/sentry-go"
)

// StartCacheSpan opens a db.cache span, or returns nil when no hub is bound to ctx
func StartCacheSpan(ctx context.Context, backend, operation string, params map[string]interface{}) *sentry.Span {
	if sentry.GetHubFromContext(ctx) == nil {
		return nil
	}

	name := "cache." + backend + "." + operation
	span := sentry.StartSpan(ctx, name, sentry.WithDescription(name))
	span.Op = "db.cache"
	span.SetData("cache", backend)
	span.SetData("operation", operation)
	for k, v := range params {
		span.SetData(k, v)
	}
	return span
}

// RecordHit tags a get span with the lookup outcome
func RecordHit(span *sentry.Span, hit bool) {
	if span == nil {
		return
	}
	span.SetData("hit", hit)
	span.Status = sentry.SpanStatusOK
}

func FinishSpan(span *sentry.Span) {
	if span != nil {
		span.Finish()
	}
}
