package core

import (
	"time"
)

// DefaultMaxFileSize is the upload ceiling checked before parsing.
const DefaultMaxFileSize int64 = 50 << 20

// ImportTimeout bounds a single preview or confirm call.
var ImportTimeout = 5 * time.Minute

// Options configures a Service. Zero values select the defaults.
type Options struct {
	MatchRules    []MatchRule
	MaxFileSize   int64
	MaxConcurrent int
	MaxWait       time.Duration
	Timeout       time.Duration
}

// Service runs the graduate import pipeline. It holds no per-import state:
// a preview is returned to the caller in full and the caller sends back the
// rows it wants committed.
type Service struct {
	store       GraduateStore
	audit       AuditSink // nil when the store keeps no audit trail
	rules       []MatchRule
	maxFileSize int64
	timeout     time.Duration
	limiter     *ImportLimiter
}

// NewService creates a Service backed by store. If store also implements
// AuditSink, each confirm is recorded.
func NewService(store GraduateStore, opts Options) *Service {
	s := &Service{
		store:       store,
		rules:       opts.MatchRules,
		maxFileSize: opts.MaxFileSize,
		timeout:     opts.Timeout,
		limiter:     NewImportLimiter(opts.MaxConcurrent, opts.MaxWait),
	}
	if len(s.rules) == 0 {
		s.rules = DefaultMatchRules
	}
	if s.maxFileSize <= 0 {
		s.maxFileSize = DefaultMaxFileSize
	}
	if s.timeout <= 0 {
		s.timeout = ImportTimeout
	}
	if sink, ok := store.(AuditSink); ok {
		s.audit = sink
	}
	return s
}

// MaxFileSize returns the configured upload ceiling in bytes.
func (s *Service) MaxFileSize() int64 {
	return s.maxFileSize
}

// MatchRules returns the duplicate rules in evaluation order.
func (s *Service) MatchRules() []MatchRule {
	return s.rules
}

// Limiter exposes the import limiter for health checks and shutdown.
func (s *Service) Limiter() *ImportLimiter {
	return s.limiter
}
