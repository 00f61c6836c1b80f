// Package auditcontext carries request metadata through a context so
// the audit service can stamp it onto every row it writes. The API
// layer fills it in; core services only read it.
package auditcontext

import "context"

type contextKey struct{}

// Meta is the per-request metadata attached to audit rows.
type Meta struct {
	RequestID string
	ActorType string
	ActorID   string
	IPAddress string
	UserAgent string
}

// WithMeta attaches request metadata to the context. A zero Meta is
// not stored.
func WithMeta(ctx context.Context, meta Meta) context.Context {
	if meta == (Meta{}) {
		return ctx
	}
	return context.WithValue(ctx, contextKey{}, meta)
}

// FromContext returns the attached metadata, or a zero Meta when the
// request carried none.
func FromContext(ctx context.Context) Meta {
	if ctx == nil {
		return Meta{}
	}
	meta, _ := ctx.Value(contextKey{}).(Meta)
	return meta
}
