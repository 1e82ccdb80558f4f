// Package queue defines message payloads exchanged over the message broker.
package queue

// AuthQueueName is the durable queue carrying authentication audit events.
const AuthQueueName = "auth.events"

// Event types published by the session facade.
const (
    EventLoginSucceeded   = "login.succeeded"
    EventLoginFailed      = "login.failed"
    EventUserRegistered   = "user.registered"
    EventSessionRefreshed = "session.refreshed"
    EventLogout           = "session.logout"
    EventLogoutAll        = "session.logout_all"
    EventTokenRevoked     = "session.token_revoked"
    EventPasswordChanged  = "password.changed"
    EventAccountUnlocked  = "account.unlocked"
)

// AuthEvent is published whenever an authentication state change happens.
// It carries enough information for audit logging without querying the
// primary database. Secrets and tokens are never included.
type AuthEvent struct {
    ID         string `json:"id"`
    Type       string `json:"type"`
    UserID     uint64 `json:"user_id,omitempty"`
    Username   string `json:"username,omitempty"`
    ClientIP   string `json:"client_ip,omitempty"`
    Reason     string `json:"reason,omitempty"`
    OccurredAt string `json:"occurred_at"`
}
