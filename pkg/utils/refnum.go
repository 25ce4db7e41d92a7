package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewUUID generates a new UUID
func NewUUID() uuid.UUID {
	return uuid.New()
}

// ParseUUID parses a string into a UUID
func ParseUUID(s string) (uuid.UUID, error) {
	return uuid.Parse(s)
}

// GenerateReferenceNo builds a reference of the form {PREFIX}-{timestamp}-{random}.
// Sale and invoice numbers use this format and must stay unique per tenant.
func GenerateReferenceNo(prefix string) string {
	return fmt.Sprintf("%s-%d-%s", prefix, time.Now().UnixMilli(),
		strings.ToUpper(uuid.New().String()[:6]))
}

// GenerateSaleNo generates a unique sale number
func GenerateSaleNo() string {
	return GenerateReferenceNo("SAL")
}

// GenerateInvoiceNo generates a unique invoice number
func GenerateInvoiceNo() string {
	return GenerateReferenceNo("INV")
}

// GenerateReturnNo generates a unique return number
func GenerateReturnNo() string {
	return GenerateReferenceNo("RET")
}

// GenerateCreditNoteNo generates a unique credit note number
func GenerateCreditNoteNo() string {
	return GenerateReferenceNo("CN")
}

// GenerateBatchNo generates the default batch number used when goods are
// received without an explicit lot number.
func GenerateBatchNo() string {
	return fmt.Sprintf("BATCH-%d", time.Now().UnixMilli())
}
