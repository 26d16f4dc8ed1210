package payments

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Transaction reference prefixes, one per settlement path. The FAIL
// prefix is synthesized by the caller when a settlement fails without
// producing a reference, so failed attempts stay auditable.
const (
	PrefixGovernment = "GOV"
	PrefixInsurance  = "INS"
	PrefixCash       = "CASH"
	PrefixCard       = "TXN"
	PrefixFailure    = "FAIL"
)

// NewReference generates a globally unique transaction reference of the
// form <PREFIX>-<unix-millis>-<random>.
func NewReference(prefix string) string {
	suffix := strings.ReplaceAll(uuid.New().String(), "-", "")[:12]
	return fmt.Sprintf("%s-%d-%s", prefix, time.Now().UnixMilli(), suffix)
}

// FailureReference generates a synthetic reference for a settlement that
// failed before the gateway assigned one.
func FailureReference() string {
	return NewReference(PrefixFailure)
}
