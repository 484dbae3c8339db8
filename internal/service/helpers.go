package service

import (
	"context"

	sentrygo "github.com/getsentry/sentry-go"
)

func (p ServiceParams) startBillingSpan(ctx context.Context, operation string, params map[string]interface{}) (*sentrygo.Span, context.Context) {
	if p.Sentry == nil {
		return nil, ctx
	}
	return p.Sentry.StartBillingSpan(ctx, operation, params)
}

func (p ServiceParams) tagProfile(ctx context.Context, labels map[string]string, fn func(context.Context)) {
	if p.Pyroscope == nil {
		fn(ctx)
		return
	}
	p.Pyroscope.TagWrapper(ctx, labels, fn)
}

func (p ServiceParams) maxConcurrency() int {
	if p.Config.Dunning.MaxConcurrency < 1 {
		return 1
	}
	return p.Config.Dunning.MaxConcurrency
}
