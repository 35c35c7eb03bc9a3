package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// ---------------------------------------------------------------------------
// Package-level metric variables. These are set by RegisterBusinessMetrics and
// referenced by the record/increment helpers below. When nil (i.e. before
// RegisterBusinessMetrics is called), callers simply skip recording.
// ---------------------------------------------------------------------------

// Permission evaluation metrics
var (
	permissionChecksTotal *prometheus.CounterVec
)

// Invitation lifecycle metrics
var (
	invitationEventsTotal *prometheus.CounterVec
)

// Audit trail metrics
var (
	auditEntriesTotal *prometheus.CounterVec
)

// RegisterBusinessMetrics registers all business-related Prometheus metrics on
// the provided registry. If reg is nil the call is a no-op.
func RegisterBusinessMetrics(reg *prometheus.Registry) {
	if reg == nil {
		return
	}

	permissionChecksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskpf_permission_checks_total",
			Help: "Total number of permission checks evaluated.",
		},
		[]string{"action", "allowed"},
	)

	invitationEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskpf_invitation_events_total",
			Help: "Total number of invitation lifecycle transitions.",
		},
		[]string{"event"},
	)

	auditEntriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskpf_audit_entries_total",
			Help: "Total number of audit log entries recorded.",
		},
		[]string{"resource_type", "action"},
	)

	reg.MustRegister(
		permissionChecksTotal,
		invitationEventsTotal,
		auditEntriesTotal,
	)
}

// IncPermissionCheck increments the permission check counter. Safe to call
// before RegisterBusinessMetrics (no-op).
func IncPermissionCheck(action string, allowed bool) {
	if permissionChecksTotal == nil {
		return
	}
	permissionChecksTotal.WithLabelValues(action, strconv.FormatBool(allowed)).Inc()
}

// IncInvitationEvent increments the invitation lifecycle counter for the
// given event ("created", "accepted", "cancelled", "expired").
func IncInvitationEvent(event string) {
	if invitationEventsTotal == nil {
		return
	}
	invitationEventsTotal.WithLabelValues(event).Inc()
}

// IncAuditEntry increments the audit entry counter.
func IncAuditEntry(resourceType, action string) {
	if auditEntriesTotal == nil {
		return
	}
	auditEntriesTotal.WithLabelValues(resourceType, action).Inc()
}
