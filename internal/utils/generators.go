package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// GenerateQrCode returns a unique ticket QR payload of the form
// TKT-<32 hex chars, upper case>.
func GenerateQrCode() string {
	raw := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return "TKT-" + raw
}

// GenerateTransactionID returns a locally unique payment transaction id,
// TXN-<timestamp>-<8 hex chars, upper case>.
func GenerateTransactionID() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:8]
	return fmt.Sprintf("TXN-%s-%s", time.Now().UTC().Format("20060102150405"), suffix)
}
