package bot

import "time"

// Flags holds the per-bot feature toggles the core stores and forwards;
// their runtime behavior is implemented elsewhere.
type Flags struct {
	AutoLike            bool `json:"autoLike"`
	AutoReact           bool `json:"autoReact"`
	AutoViewStatus      bool `json:"autoViewStatus"`
	ChatGPTEnabled      bool `json:"chatgptEnabled"`
	AlwaysOnline        bool `json:"alwaysOnline"`
	PresenceAutoSwitch  bool `json:"presenceAutoSwitch"`
}

// BotInstance is one WhatsApp bot, owned by exactly one tenancy at a time.
type BotInstance struct {
	id               BotID
	tenancy          TenancyName
	name             string
	phoneNumber      PhoneNumber
	status           Status
	approvalStatus   ApprovalStatus
	credentials      []byte
	proxyURL         ProxyURL
	flags            Flags
	typingMode       string
	presenceMode     string
	credentialVerified bool
	invalidReason    string
	autoStart        bool
	isGuest          bool
	messagesCount    int64
	commandsCount    int64
	expirationMonths int
	approvalDate     *time.Time
	lastActivity     *time.Time
	createdAt        time.Time
	updatedAt        time.Time
}

// NewBotInstance constructs a freshly registered, pending-approval bot.
func NewBotInstance(tenancy TenancyName, name string, phone PhoneNumber, isGuest bool) *BotInstance {
	now := time.Now()
	return &BotInstance{
		id:             NewBotID(),
		tenancy:        tenancy,
		name:           name,
		phoneNumber:    phone,
		status:         StatusLoading,
		approvalStatus: ApprovalPending,
		autoStart:      true,
		isGuest:        isGuest,
		createdAt:      now,
		updatedAt:      now,
	}
}

// RestoreBotInstance rebuilds a BotInstance from persisted column values.
func RestoreBotInstance(
	id BotID, tenancy TenancyName, name string, phone PhoneNumber,
	status Status, approvalStatus ApprovalStatus, credentials []byte,
	proxyURL ProxyURL, flags Flags, typingMode, presenceMode string,
	credentialVerified bool, invalidReason string, autoStart, isGuest bool,
	messagesCount, commandsCount int64, expirationMonths int,
	approvalDate, lastActivity *time.Time, createdAt, updatedAt time.Time,
) *BotInstance {
	return &BotInstance{
		id: id, tenancy: tenancy, name: name, phoneNumber: phone,
		status: status, approvalStatus: approvalStatus, credentials: credentials,
		proxyURL: proxyURL, flags: flags, typingMode: typingMode, presenceMode: presenceMode,
		credentialVerified: credentialVerified, invalidReason: invalidReason,
		autoStart: autoStart, isGuest: isGuest,
		messagesCount: messagesCount, commandsCount: commandsCount,
		expirationMonths: expirationMonths, approvalDate: approvalDate,
		lastActivity: lastActivity, createdAt: createdAt, updatedAt: updatedAt,
	}
}

// MarkDormant records that credential validation has passed and the bot now
// awaits an admin decision.
func (b *BotInstance) MarkDormant() error {
	if !b.approvalStatus.CanTransitionTo(ApprovalDormant) {
		return ErrInvalidApprovalState
	}
	b.approvalStatus = ApprovalDormant
	b.status = StatusDormant
	b.updatedAt = time.Now()
	return nil
}

// Approve moves a pending/dormant bot into the approved state, starting its
// expiration clock and recording the number of months before it lapses.
func (b *BotInstance) Approve(expirationMonths int) error {
	if !b.approvalStatus.CanTransitionTo(ApprovalApproved) {
		return ErrInvalidApprovalState
	}
	now := time.Now()
	b.approvalStatus = ApprovalApproved
	b.expirationMonths = expirationMonths
	b.approvalDate = &now
	b.status = StatusLoading
	b.updatedAt = now
	return nil
}

// Reject moves a pending/dormant bot into the rejected terminal state.
func (b *BotInstance) Reject() error {
	if !b.approvalStatus.CanTransitionTo(ApprovalRejected) {
		return ErrInvalidApprovalState
	}
	b.approvalStatus = ApprovalRejected
	b.status = StatusOffline
	b.updatedAt = time.Now()
	return nil
}

// Revoke stops an approved bot, returning it to pending and clearing its
// approval date; the caller is responsible for stopping the live worker.
func (b *BotInstance) Revoke() error {
	if !b.approvalStatus.CanTransitionTo(ApprovalPending) {
		return ErrInvalidApprovalState
	}
	b.approvalStatus = ApprovalPending
	b.approvalDate = nil
	b.status = StatusOffline
	b.updatedAt = time.Now()
	return nil
}

// IsExpired reports whether an approved bot's expiration window has elapsed.
// approvalDate + expirationMonths*30d, per the fleet's lifecycle rule.
func (b *BotInstance) IsExpired(now time.Time) bool {
	if b.approvalStatus != ApprovalApproved || b.approvalDate == nil || b.expirationMonths <= 0 {
		return false
	}
	expiry := b.approvalDate.Add(time.Duration(b.expirationMonths) * 30 * 24 * time.Hour)
	return now.After(expiry)
}

// SetOnline marks the worker connected and bumps lastActivity.
func (b *BotInstance) SetOnline() {
	now := time.Now()
	b.status = StatusOnline
	b.lastActivity = &now
	b.updatedAt = now
}

// SetLoading marks the worker as attempting to connect.
func (b *BotInstance) SetLoading() {
	b.status = StatusLoading
	b.updatedAt = time.Now()
}

// SetError marks the worker faulted, recording the failure reason.
func (b *BotInstance) SetError(reason string) {
	b.status = StatusError
	b.invalidReason = reason
	b.updatedAt = time.Now()
}

// SetOffline marks the worker stopped by explicit request.
func (b *BotInstance) SetOffline() {
	b.status = StatusOffline
	b.updatedAt = time.Now()
}

// VerifyCredentials records that the stored credentials match phoneNumber.
func (b *BotInstance) VerifyCredentials(raw []byte) {
	b.credentials = raw
	b.credentialVerified = true
	b.invalidReason = ""
	b.updatedAt = time.Now()
}

// InvalidateCredentials clears the verified flag and records why, without
// discarding the stored blob (an operator may want to inspect it).
func (b *BotInstance) InvalidateCredentials(reason string) {
	b.credentialVerified = false
	b.invalidReason = reason
	b.updatedAt = time.Now()
}

// ClearCredentials removes stored credentials entirely, e.g. on hard logout.
func (b *BotInstance) ClearCredentials() {
	b.credentials = nil
	b.credentialVerified = false
	b.updatedAt = time.Now()
}

func (b *BotInstance) HasCredentials() bool { return len(b.credentials) > 0 }

func (b *BotInstance) SetProxyURL(p ProxyURL) {
	b.proxyURL = p
	b.updatedAt = time.Now()
}

func (b *BotInstance) ClearProxyURL() {
	b.proxyURL = ProxyURL{}
	b.updatedAt = time.Now()
}

// Relocate reassigns this bot to a different tenancy, used by the placement
// engine's migration path. Runtime state is not implied; the caller stops
// and restarts the worker as needed.
func (b *BotInstance) Relocate(target TenancyName) {
	b.tenancy = target
	b.updatedAt = time.Now()
}

func (b *BotInstance) SetFlags(f Flags) {
	b.flags = f
	b.updatedAt = time.Now()
}

func (b *BotInstance) SetPresence(typingMode, presenceMode string) {
	b.typingMode = typingMode
	b.presenceMode = presenceMode
	b.updatedAt = time.Now()
}

func (b *BotInstance) IncrementMessagesCount() {
	b.messagesCount++
	now := time.Now()
	b.lastActivity = &now
	b.updatedAt = now
}

func (b *BotInstance) IncrementCommandsCount() {
	b.commandsCount++
	now := time.Now()
	b.lastActivity = &now
	b.updatedAt = now
}

// Getters.
func (b *BotInstance) ID() BotID                     { return b.id }
func (b *BotInstance) Tenancy() TenancyName           { return b.tenancy }
func (b *BotInstance) Name() string                   { return b.name }
func (b *BotInstance) PhoneNumber() PhoneNumber        { return b.phoneNumber }
func (b *BotInstance) Status() Status                 { return b.status }
func (b *BotInstance) ApprovalStatus() ApprovalStatus { return b.approvalStatus }
func (b *BotInstance) Credentials() []byte            { return b.credentials }
func (b *BotInstance) ProxyURL() ProxyURL             { return b.proxyURL }
func (b *BotInstance) Flags() Flags                   { return b.flags }
func (b *BotInstance) TypingMode() string             { return b.typingMode }
func (b *BotInstance) PresenceMode() string           { return b.presenceMode }
func (b *BotInstance) CredentialVerified() bool       { return b.credentialVerified }
func (b *BotInstance) InvalidReason() string          { return b.invalidReason }
func (b *BotInstance) AutoStart() bool                { return b.autoStart }
func (b *BotInstance) IsGuest() bool                  { return b.isGuest }
func (b *BotInstance) MessagesCount() int64           { return b.messagesCount }
func (b *BotInstance) CommandsCount() int64           { return b.commandsCount }
func (b *BotInstance) ExpirationMonths() int          { return b.expirationMonths }
func (b *BotInstance) ApprovalDate() *time.Time       { return b.approvalDate }
func (b *BotInstance) LastActivity() *time.Time       { return b.lastActivity }
func (b *BotInstance) CreatedAt() time.Time           { return b.createdAt }
func (b *BotInstance) UpdatedAt() time.Time           { return b.updatedAt }

// IsApproved reports whether the bot may be started.
func (b *BotInstance) IsApproved() bool { return b.approvalStatus == ApprovalApproved }

// IsConnected reports whether the worker is live.
func (b *BotInstance) IsConnected() bool { return b.status == StatusOnline }

// EligibleForAutoStart implements the resume-on-startup predicate:
// approved AND (credentialVerified OR no credentials stored at all).
func (b *BotInstance) EligibleForAutoStart() bool {
	return b.approvalStatus == ApprovalApproved && (b.credentialVerified || !b.HasCredentials())
}

// Validate checks invariants that must hold before persistence.
func (b *BotInstance) Validate() error {
	if b.name == "" || len(b.name) < 2 || len(b.name) > 80 {
		return ErrValidationFailed
	}
	if b.phoneNumber.IsEmpty() {
		return ErrInvalidPhoneNumber
	}
	if b.tenancy.IsEmpty() {
		return ErrInvalidTenancyName
	}
	if !b.status.IsValid() {
		return ErrInvalidStatus
	}
	if !b.approvalStatus.IsValid() {
		return ErrInvalidApprovalState
	}
	if b.approvalStatus == ApprovalApproved && b.approvalDate == nil {
		return ErrInvalidApprovalState
	}
	return nil
}
