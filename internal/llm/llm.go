// Package llm provides the external model capabilities the pipeline
// consumes: text classification and vision transcription. Gemini and
// Ollama providers implement both.
package llm

import "strings"

// classifyPrompt constrains the classification response to the closed
// format taxonomy. The document text sample is appended to it.
const classifyPrompt = `You are classifying a financial document based on text extracted from it.

Choose exactly one of the following document types:
- Invoice
- Bank Statement
- Receipt
- Purchase Order
- General Ledger
- Credit Card Statement
- Tax Form

Respond with only the document type and nothing else. If none of the
types fit, respond with "Unknown". Do not use markdown.

Document text:
`

// transcribePrompt instructs the vision model to emit line-structured
// key-value pairs that the line structurer can consume directly.
const transcribePrompt = `You are reading a scanned financial document (receipt, invoice, or statement). Carefully read all text in the image and extract every financial fact you can find: merchant or institution name, dates, line items, subtotals, taxes, totals, account or invoice numbers, payment methods.

Return the facts as plain text, one per line, in exactly this format:

Field: Value

For example:
Merchant: CVS Pharmacy
Date: 2024-01-15
Total: 42.75

Rules:
- One "Field: Value" pair per line
- No markdown, no code blocks, no commentary before or after the pairs
- Skip anything you cannot read confidently`

// cleanResponse trims whitespace and strips markdown code fences that
// models sometimes wrap answers in despite instructions.
func cleanResponse(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```text")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}
