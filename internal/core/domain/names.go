package domain

import (
	"fmt"
	"strings"
)

var namePrefixByType = map[AccountType]string{
	AccountTypeHD:        "Account",
	AccountTypeImported:  "Imported Account",
	AccountTypeLedger:    "Ledger",
	AccountTypeManagedKT: "Managed KT",
	AccountTypeWatchOnly: "Watch-only Account",
}

// NewAccountName returns the default display name for a new account of the
// given type. Names are numbered after the accounts of the same type and
// the number is bumped until no account uses the name.
func NewAccountName(accounts Accounts, t AccountType) string {
	prefix := namePrefixByType[t]
	for n := len(accounts.OfType(t)) + 1; ; n++ {
		name := fmt.Sprintf("%s %d", prefix, n)
		if !accounts.NameExists(name, "") {
			return name
		}
	}
}

// ValidateAccountName trims the given name and checks that no account other
// than exceptID uses it.
func ValidateAccountName(accounts Accounts, name, exceptID string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrEmptyAccountName
	}
	if accounts.NameExists(name, exceptID) {
		return "", ErrAccountNameExists
	}
	return name, nil
}
