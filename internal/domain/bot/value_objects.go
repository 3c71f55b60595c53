package bot

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// BotID is a unique identifier for a BotInstance.
type BotID struct {
	value string
}

// NewBotID mints a new random BotID.
func NewBotID() BotID {
	return BotID{value: uuid.New().String()}
}

// BotIDFromString parses a BotID from its string form.
func BotIDFromString(s string) (BotID, error) {
	if s == "" {
		return BotID{}, ErrInvalidBotID
	}
	if _, err := uuid.Parse(s); err != nil {
		return BotID{}, ErrInvalidBotID
	}
	return BotID{value: s}, nil
}

func (id BotID) String() string   { return id.value }
func (id BotID) IsEmpty() bool    { return id.value == "" }
func (id BotID) Equals(o BotID) bool { return id.value == o.value }

var phonePattern = regexp.MustCompile(`^\d{8,15}$`)

// PhoneNumber is a validated, digits-only WhatsApp phone number (no leading '+').
type PhoneNumber struct {
	value string
}

// NewPhoneNumber validates and constructs a PhoneNumber.
func NewPhoneNumber(raw string) (PhoneNumber, error) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(raw), "+")
	if !phonePattern.MatchString(trimmed) {
		return PhoneNumber{}, ErrInvalidPhoneNumber
	}
	return PhoneNumber{value: trimmed}, nil
}

func (p PhoneNumber) String() string     { return p.value }
func (p PhoneNumber) IsEmpty() bool      { return p.value == "" }
func (p PhoneNumber) Equals(o PhoneNumber) bool { return p.value == o.value }

// TenancyName identifies one tenancy (a "server" in the fleet sense) by name.
type TenancyName struct {
	value string
}

var tenancyPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_-]{1,63}$`)

// NewTenancyName validates and constructs a TenancyName.
func NewTenancyName(raw string) (TenancyName, error) {
	trimmed := strings.TrimSpace(raw)
	if !tenancyPattern.MatchString(trimmed) {
		return TenancyName{}, ErrInvalidTenancyName
	}
	return TenancyName{value: trimmed}, nil
}

func (t TenancyName) String() string        { return t.value }
func (t TenancyName) IsEmpty() bool         { return t.value == "" }
func (t TenancyName) Equals(o TenancyName) bool { return t.value == o.value }

// Status is the coarse runtime status of a bot's worker.
type Status int

const (
	StatusOffline Status = iota
	StatusLoading
	StatusOnline
	StatusError
	StatusDormant
)

func (s Status) String() string {
	switch s {
	case StatusOffline:
		return "offline"
	case StatusLoading:
		return "loading"
	case StatusOnline:
		return "online"
	case StatusError:
		return "error"
	case StatusDormant:
		return "dormant"
	default:
		return "unknown"
	}
}

func (s Status) IsValid() bool {
	return s >= StatusOffline && s <= StatusDormant
}

func StatusFromString(s string) (Status, error) {
	switch strings.ToLower(s) {
	case "offline":
		return StatusOffline, nil
	case "loading":
		return StatusLoading, nil
	case "online":
		return StatusOnline, nil
	case "error":
		return StatusError, nil
	case "dormant":
		return StatusDormant, nil
	default:
		return StatusOffline, fmt.Errorf("invalid status: %s", s)
	}
}

// ApprovalStatus tracks a bot's position in the admin approval lifecycle.
// "dormant" marks a bot whose credentials have passed validation but which
// has not yet received an admin decision, distinct from "pending" (freshly
// registered, not yet validated).
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalDormant  ApprovalStatus = "dormant"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

func (a ApprovalStatus) IsValid() bool {
	switch a {
	case ApprovalPending, ApprovalDormant, ApprovalApproved, ApprovalRejected:
		return true
	}
	return false
}

// CanTransitionTo reports whether an approval-status transition is legal.
// pending -> dormant (credential validation) | approved | rejected
// dormant -> approved | rejected
// approved -> pending (revoke, per the lifecycle orchestrator's revoke op)
func (a ApprovalStatus) CanTransitionTo(next ApprovalStatus) bool {
	switch a {
	case ApprovalPending:
		return next == ApprovalDormant || next == ApprovalApproved || next == ApprovalRejected
	case ApprovalDormant:
		return next == ApprovalApproved || next == ApprovalRejected
	case ApprovalApproved:
		return next == ApprovalPending
	default:
		return false
	}
}

// ProxyType enumerates the proxy schemes a bot's worker connection may use.
type ProxyType string

const (
	ProxyNone   ProxyType = ""
	ProxyHTTP   ProxyType = "http"
	ProxyHTTPS  ProxyType = "https"
	ProxySOCKS4 ProxyType = "socks4"
	ProxySOCKS5 ProxyType = "socks5"
)

// ProxyURL is a validated proxy connection string, or empty for "no proxy".
type ProxyURL struct {
	value string
}

func NewProxyURL(raw string) (ProxyURL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ProxyURL{}, nil
	}
	lower := strings.ToLower(trimmed)
	switch {
	case strings.HasPrefix(lower, "http://"),
		strings.HasPrefix(lower, "https://"),
		strings.HasPrefix(lower, "socks4://"),
		strings.HasPrefix(lower, "socks5://"):
		return ProxyURL{value: trimmed}, nil
	default:
		return ProxyURL{}, ErrInvalidProxyURL
	}
}

func (p ProxyURL) String() string { return p.value }
func (p ProxyURL) IsEmpty() bool  { return p.value == "" }

// Type returns the scheme-derived ProxyType.
func (p ProxyURL) Type() ProxyType {
	if p.IsEmpty() {
		return ProxyNone
	}
	switch {
	case strings.HasPrefix(p.value, "http://"):
		return ProxyHTTP
	case strings.HasPrefix(p.value, "https://"):
		return ProxyHTTPS
	case strings.HasPrefix(p.value, "socks4://"):
		return ProxySOCKS4
	case strings.HasPrefix(p.value, "socks5://"):
		return ProxySOCKS5
	default:
		return ProxyNone
	}
}
