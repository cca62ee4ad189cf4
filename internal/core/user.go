package core

import (
	"errors"
	"time"
)

const (
	TrackingManual   TrackingMode = "MANUAL"
	TrackingAutoBank TrackingMode = "AUTO_BANK"
)

// TrackingMode says how a user's transactions are recorded: typed in by
// hand, or pulled automatically from their bank.
type TrackingMode string

var ErrMissingBankCredentials = errors.New("bank token and account id are required for auto tracking")

// User owns budgets and transactions and carries the account-level
// switches: tracking mode, premium flag, bank credentials.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	TrackingMode TrackingMode
	IsPremium    bool
	// Bank credentials, set only in AUTO_BANK mode.
	BankToken     string
	BankAccountID string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// CanUseAIAdvisor reports whether the AI advisor is available; it is a
// premium feature.
func (u *User) CanUseAIAdvisor() bool {
	return u.IsPremium
}

// CanUseAutoTracking reports whether automatic bank tracking is fully
// configured.
func (u *User) CanUseAutoTracking() bool {
	return u.TrackingMode == TrackingAutoBank && u.BankToken != ""
}

// SwitchToManualMode disables bank sync and clears the stored bank
// credentials so none linger once the user opts out.
func (u *User) SwitchToManualMode() {
	u.TrackingMode = TrackingManual
	u.BankToken = ""
	u.BankAccountID = ""
	u.UpdatedAt = time.Now().UTC()
}

// SwitchToAutoMode enables bank sync. Both credentials are required.
func (u *User) SwitchToAutoMode(token, accountID string) error {
	if token == "" || accountID == "" {
		return ErrMissingBankCredentials
	}
	u.TrackingMode = TrackingAutoBank
	u.BankToken = token
	u.BankAccountID = accountID
	u.UpdatedAt = time.Now().UTC()
	return nil
}

// EnablePremium activates the premium subscription.
func (u *User) EnablePremium() {
	u.IsPremium = true
	u.UpdatedAt = time.Now().UTC()
}

// DisablePremium deactivates the premium subscription.
func (u *User) DisablePremium() {
	u.IsPremium = false
	u.UpdatedAt = time.Now().UTC()
}
