package extract

import "strings"

// Format is a document-format label from the closed classification
// taxonomy. The classifier maps any external response onto this set.
type Format string

const (
	FormatInvoice             Format = "Invoice"
	FormatBankStatement       Format = "Bank Statement"
	FormatReceipt             Format = "Receipt"
	FormatPurchaseOrder       Format = "Purchase Order"
	FormatGeneralLedger       Format = "General Ledger"
	FormatCreditCardStatement Format = "Credit Card Statement"
	FormatTaxForm             Format = "Tax Form"
	FormatUnknown             Format = "Unknown"
)

// Formats lists every member of the classification taxonomy.
var Formats = []Format{
	FormatInvoice,
	FormatBankStatement,
	FormatReceipt,
	FormatPurchaseOrder,
	FormatGeneralLedger,
	FormatCreditCardStatement,
	FormatTaxForm,
	FormatUnknown,
}

// ParseFormat maps a raw classifier response onto the closed taxonomy.
// Matching ignores case and surrounding whitespace/punctuation; anything
// that does not match a known label becomes FormatUnknown.
func ParseFormat(label string) Format {
	cleaned := strings.ToLower(strings.Trim(strings.TrimSpace(label), `."'`))
	for _, f := range Formats {
		if cleaned == strings.ToLower(string(f)) {
			return f
		}
	}
	return FormatUnknown
}
