package model

import (
    "sort"
    "strings"
    "time"
)

// User represents an account record as stored in the `users` table.
// Each field corresponds to a column in the database. The json tags
// are omitted because these structs are used by the repository and
// auth layers; handlers define their own response types.
//
// Fields:
//  ID                  – primary key identifier of the user.
//  Username            – unique login name, also the access token subject.
//  Email               – unique email address.
//  PasswordHash        – bcrypt hash of the password.
//  Role                – role name (USER, MANAGER, ADMIN, SUPER_ADMIN).
//  Enabled             – disabled accounts can never log in.
//  CreatedAt           – timestamp of creation.
//  UpdatedAt           – timestamp of last update.
//  LastLoginAt         – time of the last successful login (nullable).
//  LastLoginIP         – client address of the last successful login.
//  FailedLoginAttempts – consecutive failed logins since the last success.
//  AccountLockedUntil  – lockout expiry (nullable; nil or past means usable).
type User struct {
    ID                  uint64     // users.id
    Username            string     // users.username
    Email               string     // users.email
    PasswordHash        string     // users.password_hash
    Role                Role       // users.role
    Enabled             bool       // users.enabled
    CreatedAt           time.Time  // users.created_at
    UpdatedAt           time.Time  // users.updated_at
    LastLoginAt         *time.Time // users.last_login_at (nullable)
    LastLoginIP         string     // users.last_login_ip
    FailedLoginAttempts int        // users.failed_login_attempts
    AccountLockedUntil  *time.Time // users.account_locked_until (nullable)
}

// IsLocked reports whether the account is locked at the given instant.
func (u *User) IsLocked(now time.Time) bool {
    return u.AccountLockedUntil != nil && u.AccountLockedUntil.After(now)
}

// Unlock clears the lockout and resets the failure counter.
func (u *User) Unlock() {
    u.FailedLoginAttempts = 0
    u.AccountLockedUntil = nil
}

// Role is the name of a role. The set of permissions attached to each
// role is fixed at compile time.
type Role string

const (
    RoleUser       Role = "USER"
    RoleManager    Role = "MANAGER"
    RoleAdmin      Role = "ADMIN"
    RoleSuperAdmin Role = "SUPER_ADMIN"
)

// Permission strings granted through roles.
const (
    PermUserRead      = "user:read"
    PermUserWrite     = "user:write"
    PermUserDelete    = "user:delete"
    PermProductRead   = "product:read"
    PermProductWrite  = "product:write"
    PermProductDelete = "product:delete"
    PermAdminRead     = "admin:read"
    PermAdminWrite    = "admin:write"
    PermAdminDelete   = "admin:delete"
    PermSystemRead    = "system:read"
    PermSystemWrite   = "system:write"
)

var rolePermissions = map[Role][]string{
    RoleUser:    {PermUserRead, PermProductRead},
    RoleManager: {PermUserRead, PermUserWrite, PermProductRead, PermProductWrite},
    RoleAdmin: {
        PermUserRead, PermUserWrite, PermUserDelete,
        PermProductRead, PermProductWrite, PermProductDelete,
        PermAdminRead, PermAdminWrite,
    },
    RoleSuperAdmin: {
        PermUserRead, PermUserWrite, PermUserDelete,
        PermProductRead, PermProductWrite, PermProductDelete,
        PermAdminRead, PermAdminWrite, PermAdminDelete,
        PermSystemRead, PermSystemWrite,
    },
}

// ParseRole normalizes s and reports whether it names a known role.
func ParseRole(s string) (Role, bool) {
    r := Role(strings.ToUpper(strings.TrimSpace(s)))
    _, ok := rolePermissions[r]
    return r, ok
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
    _, ok := rolePermissions[r]
    return ok
}

// Permissions returns the role's permissions sorted and without
// duplicates. Unknown roles have no permissions.
func (r Role) Permissions() []string {
    src := rolePermissions[r]
    out := make([]string, 0, len(src))
    seen := make(map[string]bool, len(src))
    for _, p := range src {
        if !seen[p] {
            seen[p] = true
            out = append(out, p)
        }
    }
    sort.Strings(out)
    return out
}

// Authorities returns ROLE_<ROLE> followed by every permission string.
func (r Role) Authorities() []string {
    perms := r.Permissions()
    out := make([]string, 0, len(perms)+1)
    out = append(out, "ROLE_"+string(r))
    return append(out, perms...)
}

// RefreshToken models an entry in the `refresh_tokens` table. The
// plain token is never stored; only its SHA‑256 hash.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – owner of the token.
//  TokenHash – SHA‑256 hex digest of the token value.
//  ExpiresAt – expiration timestamp of the token.
//  Revoked   – soft deactivation flag set by single-token revoke.
//  CreatedAt – timestamp of creation.
type RefreshToken struct {
    ID        uint64    // refresh_tokens.id
    UserID    uint64    // refresh_tokens.user_id
    TokenHash string    // refresh_tokens.token_hash
    ExpiresAt time.Time // refresh_tokens.expires_at
    Revoked   bool      // refresh_tokens.revoked
    CreatedAt time.Time // refresh_tokens.created_at
}

// Expired reports whether the token is no longer usable at now. The
// expiry instant itself counts as expired.
func (t *RefreshToken) Expired(now time.Time) bool {
    return !t.ExpiresAt.After(now)
}
