// Package capability defines the abstract backend traits the core consumes
// (§4.6, §6): Tables, ObjectStore, Mail, LLM, HttpFetch. Concrete
// implementations live under backends/ and are wired together into a Set by
// cmd/botengine; the core never imports a backends/ package directly.
package capability

import "context"

// Row is one result row from a Tables query, exposing typed column access
// already converted per the FIND keyword's type mapping (§4.3).
type Row map[string]any

// Tables is the relational-table capability consumed by FIND/SET and the
// Trigger Loop's table-change detection.
type Tables interface {
	// Query runs a read query and returns each row as a string-keyed map.
	Query(ctx context.Context, sql string, params ...any) ([]Row, error)
	// Execute runs a write statement and returns the affected row count.
	Execute(ctx context.Context, sql string, params ...any) (int64, error)
}

// ObjectStore is the object-storage capability consumed by CREATE SITE.
type ObjectStore interface {
	Put(ctx context.Context, bucket, key string, data []byte) error
	Get(ctx context.Context, bucket, key string) ([]byte, error)
	List(ctx context.Context, bucket, prefix string) ([]string, error)
	Delete(ctx context.Context, bucket, key string) error
}

// Message is one previously-sent mail message as seen by Mail.ListRecentSentTo.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Mail is the SMTP/IMAP capability consumed by CREATE DRAFT.
type Mail interface {
	ListRecentSentTo(ctx context.Context, address string, limit int) ([]Message, error)
	SaveDraft(ctx context.Context, to, subject, body string) error
	Send(ctx context.Context, to, subject, body string) error
}

// LLM is the chat-completion capability consumed by CREATE SITE.
type LLM interface {
	Invoke(ctx context.Context, prompt string) (string, error)
}

// HttpFetch is the outbound fetcher consumed by the GET keyword. The
// backends/httpfetch implementation validates TLS certificates unless its
// InsecureSkipVerify switch is set.
type HttpFetch interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// Set bundles every capability a script invocation may reach. It is built
// once by the host process and handed to each ExecutionContext; nothing in
// the runtime mutates it, so it is safe to share across concurrent
// invocations (§9's "explicit binding table" design note).
type Set struct {
	Tables      Tables
	ObjectStore ObjectStore
	Mail        Mail
	LLM         LLM
	HttpFetch   HttpFetch
	Browser     BrowserPool
}

// BrowserPool is the subset of the Browser Pool (§4.5) the keyword bindings
// need: acquire a lease, use it, release it unconditionally.
type BrowserPool interface {
	WithBrowser(ctx context.Context, fn func(ctx context.Context, session BrowserSession) error) error
}

// BrowserSession is the scoped session handle a BrowserLease wraps.
type BrowserSession interface {
	Navigate(ctx context.Context, url string) error
	Submit(ctx context.Context, selector, value string) error
	WaitVisible(ctx context.Context, selector string) error
	FindFirst(ctx context.Context, selectors []string) (href string, found bool, err error)
	FindAll(ctx context.Context, selectors []string) ([]string, error)
	CurrentURL(ctx context.Context) (string, error)
}
