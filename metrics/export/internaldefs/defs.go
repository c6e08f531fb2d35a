package internaldefs

import (
	"github.com/MrEthical07/guardian"
)

// CounterDef names one engine counter for export.
type CounterDef struct {
	ID   guardian.MetricID
	Name string
	Help string
}

// HistogramDef names one engine latency histogram for export.
type HistogramDef struct {
	ID   guardian.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter in a stable order.
var CounterDefs = []CounterDef{
	{ID: guardian.MetricResolveAuthenticated, Name: "guardian_resolve_authenticated_total", Help: "Bearers resolved to an authenticated user."},
	{ID: guardian.MetricResolveAnonymous, Name: "guardian_resolve_anonymous_total", Help: "Requests resolved without a bearer."},
	{ID: guardian.MetricResolveMalformed, Name: "guardian_resolve_malformed_total", Help: "Bearers rejected as malformed."},
	{ID: guardian.MetricResolveInvalidSignature, Name: "guardian_resolve_invalid_signature_total", Help: "Bearers rejected for signature or algorithm mismatch."},
	{ID: guardian.MetricResolveExpired, Name: "guardian_resolve_expired_total", Help: "Bearers rejected as expired."},
	{ID: guardian.MetricResolveValidation, Name: "guardian_resolve_validation_total", Help: "Bearers rejected for an invalid payload."},
	{ID: guardian.MetricResolveUserNotFound, Name: "guardian_resolve_user_not_found_total", Help: "Bearers naming an unknown or trashed user."},
	{ID: guardian.MetricResolveTokenMismatch, Name: "guardian_resolve_token_mismatch_total", Help: "Bearers whose opaque token is not stored for the user."},
	{ID: guardian.MetricAttemptSuccess, Name: "guardian_attempt_success_total", Help: "Successful credential attempts."},
	{ID: guardian.MetricAttemptFailure, Name: "guardian_attempt_failure_total", Help: "Credential attempts with a wrong password."},
	{ID: guardian.MetricAttemptUnknownUser, Name: "guardian_attempt_unknown_user_total", Help: "Credential attempts for an unknown email."},
	{ID: guardian.MetricAttemptRateLimited, Name: "guardian_attempt_rate_limited_total", Help: "Credential attempts rejected by the throttle."},
	{ID: guardian.MetricTokenCreated, Name: "guardian_token_created_total", Help: "Opaque tokens persisted."},
	{ID: guardian.MetricTokenRevoked, Name: "guardian_token_revoked_total", Help: "Opaque tokens revoked."},
	{ID: guardian.MetricAuthorizeAllowed, Name: "guardian_authorize_allowed_total", Help: "Permission checks that passed."},
	{ID: guardian.MetricAuthorizeDenied, Name: "guardian_authorize_denied_total", Help: "Permission checks that failed."},
	{ID: guardian.MetricAdminDenied, Name: "guardian_admin_denied_total", Help: "Administrator checks that failed."},
}

// HistogramDefs lists every exported latency histogram.
var HistogramDefs = []HistogramDef{
	{ID: guardian.MetricResolveLatency, Name: "guardian_resolve_latency_seconds", Help: "Bearer resolution latency."},
	{ID: guardian.MetricAttemptLatency, Name: "guardian_attempt_latency_seconds", Help: "Credential attempt latency, password check included."},
}

// AuditDroppedName and AuditDroppedHelp describe the dispatcher drop counter.
const (
	AuditDroppedName = "guardian_audit_dropped_total"
	AuditDroppedHelp = "Audit events dropped because the dispatcher buffer was full."
)

// BucketCount is the number of latency buckets including the unbounded one.
const BucketCount = len(guardian.HistogramBucketBounds) + 1

// HistogramBounds returns the finite bucket upper bounds in seconds.
func HistogramBounds() []float64 {
	out := make([]float64, len(guardian.HistogramBucketBounds))
	for i, d := range guardian.HistogramBucketBounds {
		out[i] = d.Seconds()
	}
	return out
}

// HistogramBoundSuffix names each bucket, +Inf last, for backends that
// cannot carry an le label.
var HistogramBoundSuffix = [BucketCount]string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets pads or truncates raw to exactly [BucketCount] entries.
func NormalizeBuckets(raw []uint64) [BucketCount]uint64 {
	var out [BucketCount]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals.
func CumulativeBuckets(raw [BucketCount]uint64) [BucketCount]uint64 {
	var out [BucketCount]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
