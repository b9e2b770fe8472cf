package validation

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	TxHashLength   = 64
	PolicyIDLength = 56

	MaxAssetNameLength = 64 // hex chars, 32 bytes on-chain
	MaxAddressLength   = 128
	MaxPrizeNameLength = 200
)

var (
	hexRegex = regexp.MustCompile(`^[0-9a-f]*$`)

	// Shelley bech32 addresses (mainnet and testnet) use the bech32 charset after the "1" separator.
	shelleyAddressRegex = regexp.MustCompile(`^(addr|addr_test)1[02-9ac-hj-np-z]+$`)

	// Byron addresses are base58.
	byronAddressRegex = regexp.MustCompile(`^[1-9A-HJ-NP-Za-km-z]{50,}$`)
)

// ValidateTxHash checks a transaction hash (32 bytes, lowercase hex).
func ValidateTxHash(hash string) error {
	if hash == "" {
		return fmt.Errorf("transaction hash cannot be empty")
	}
	if len(hash) != TxHashLength {
		return fmt.Errorf("transaction hash must be %d hex characters", TxHashLength)
	}
	if !hexRegex.MatchString(hash) {
		return fmt.Errorf("transaction hash must be lowercase hex")
	}
	return nil
}

// ValidatePolicyID checks a native asset policy id (28 bytes, lowercase hex).
func ValidatePolicyID(policyID string) error {
	if policyID == "" {
		return fmt.Errorf("policy id cannot be empty")
	}
	if len(policyID) != PolicyIDLength || !hexRegex.MatchString(policyID) {
		return fmt.Errorf("policy id must be %d lowercase hex characters", PolicyIDLength)
	}
	return nil
}

// ValidateAssetName checks a hex-encoded asset name. Empty names are allowed on-chain.
func ValidateAssetName(name string) error {
	if len(name) > MaxAssetNameLength {
		return fmt.Errorf("asset name cannot exceed %d hex characters", MaxAssetNameLength)
	}
	if len(name)%2 != 0 || !hexRegex.MatchString(name) {
		return fmt.Errorf("asset name must be lowercase hex")
	}
	return nil
}

// ValidateAddress checks that a string looks like a Cardano payment address.
// It does not verify the bech32 checksum.
func ValidateAddress(address string) error {
	if address == "" {
		return fmt.Errorf("address cannot be empty")
	}
	if len(address) > MaxAddressLength {
		return fmt.Errorf("address cannot exceed %d characters", MaxAddressLength)
	}
	if shelleyAddressRegex.MatchString(address) || byronAddressRegex.MatchString(address) {
		return nil
	}
	return fmt.Errorf("address is not a valid cardano address")
}

// ValidatePrizeName checks an optional prize descriptor.
func ValidatePrizeName(name string) error {
	if len(strings.TrimSpace(name)) > MaxPrizeNameLength {
		return fmt.Errorf("prize name cannot exceed %d characters", MaxPrizeNameLength)
	}
	return nil
}

// ValidatePositiveInt checks that a number is positive
func ValidatePositiveInt(value int64, fieldName string) error {
	if value <= 0 {
		return fmt.Errorf("%s must be positive", fieldName)
	}
	return nil
}
