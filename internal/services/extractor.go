package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"

	"github.com/codeatpanorama/vision-flow/internal/models"
	"github.com/codeatpanorama/vision-flow/internal/validation"
)

// ExtractionSystemPrompt pins the model to bare JSON replies
const ExtractionSystemPrompt = "You are a precise check parser that returns ONLY raw JSON objects. " +
	"Never use markdown formatting or code blocks. " +
	"Your response must start with { and end with } with no other characters."

const extractionRules = `Extraction Rules:
1. payee_name
   - The payee is the person or business being paid.
   - Look for the line(s) right after "PAY TO THE ORDER OF" or "PAY to the order of".
   - When several lines follow, the payee is the last name or business before the address or the amount.
   - A numbered company (like "1894837 ONTARIO INC") followed by a differently named service or person (like "ERIKA DIAZ SERVICE") is superseded by that later name.
   - Ignore lines that look like addresses, phone numbers or company registration numbers.
   - Example:
     PAY to the order of
     1894837 ONTARIO INC
     523 GARDENVIEW SQUARE
     PICKERING ONTARIO L1V4R7
     T: 647 298 4145
     ERIKA DIAZ SERVICE
     payee_name: ERIKA DIAZ SERVICE
2. amount
   - Dollars and cents, e.g. "$1,234.56".
   - Prefer the numeric amount when both words and digits are printed.
   - Ignore numbers that are not the amount.
   - Example: "$550.00"
3. date
   - Always return DD/MM/YYYY.
   - Checks often print a format hint next to the date such as YYYYMMDD, DDMMYYYY or MMDDYYYY. When present, the hint decides how the printed digits are read.
   - Example: "20241031" under a YYYYMMDD hint is "31/10/2024".
4. check_number
   - From the MICR line, the digits between the first pair of ⑈ symbols.
   - Example: ⑈004921⑈ gives "004921"
5. check_transit_number
   - From the MICR line, the digits between ⑆ and ⑉.
   - Example: ⑆06222⑉003⑆ gives "06222"
6. check_institution_number
   - From the MICR line, the digits between ⑉ and the closing ⑆.
   - Example: ⑆06222⑉003⑆ gives "003"
7. check_bank_account_number
   - From the MICR line, the digits after the last ⑆. Any ⑉ inside the account number becomes "-".
   - Example: ⑆ 102⑉813⑉3⑈ gives "102-813-3"
8. bank
   - The complete bank name and branch details.
   - Example: "RBC ROYAL BANK 972 BLOOR STREET WEST TORONTO, ONTARIO M6H 1L6"
9. company_name_address
   - The full company name, address and contact details when printed, usually the block that follows the payee name.
   - Example: "523 GARDENVIEW SQUARE PICKERING ONTARIO L1V4R7 T: 647 298 4145"`

const extractionInstructions = `Special Instructions:
- If a field is missing, return "Not Found". Do not guess.
- Field values must not contain line breaks; replace them with spaces.
- Return ONLY the JSON object, with no markdown fences and no explanation.

Return Format:
{"payee_name": "ERIKA DIAZ SERVICE", "amount": "$550.00", "date": "31/10/2024", "check_number": "004921", "check_transit_number": "06222", "check_institution_number": "003", "check_bank_account_number": "102-813-3", "bank": "RBC ROYAL BANK 972 BLOOR STREET WEST TORONTO, ONTARIO M6H 1L6", "company_name_address": "523 GARDENVIEW SQUARE PICKERING ONTARIO L1V4R7 T: 647 298 4145"}`

// FieldExtractor turns the OCR text of one check into CheckDetails with a language model
type FieldExtractor struct {
	llm LanguageModel
}

// NewFieldExtractor creates an extractor backed by llm
func NewFieldExtractor(llm LanguageModel) *FieldExtractor {
	return &FieldExtractor{llm: llm}
}

// Extract asks the model for the check fields and validates its reply.
// A reply that is not JSON or misses a required key is an ExtractionParseError.
func (e *FieldExtractor) Extract(ctx context.Context, frontText, backText string) (*models.CheckDetails, error) {
	prompt := BuildExtractionPrompt(frontText, backText)

	reply, err := e.llm.Complete(ctx, ExtractionSystemPrompt, prompt)
	if err != nil {
		return nil, fmt.Errorf("language model request failed: %w", err)
	}

	var parsed map[string]interface{}
	if err := json.Unmarshal([]byte(stripCodeFences(reply)), &parsed); err != nil {
		log.Printf("[EXTRACT] JSON parsing error: %v", err)
		log.Printf("[EXTRACT] Raw response: %s", reply)
		return nil, &models.ExtractionParseError{RawResponse: reply, Err: err}
	}
	if err := validation.ValidateCheckDetails(parsed); err != nil {
		log.Printf("[EXTRACT] Reply failed schema validation: %v", err)
		log.Printf("[EXTRACT] Raw response: %s", reply)
		return nil, &models.ExtractionParseError{RawResponse: reply, Err: err}
	}

	details := detailsFromReply(parsed)
	details.RawText = combineText(frontText, backText)

	if micr, ok := ParseMICRLine(details.RawText); ok {
		fillMissingMICR(&details, micr)
	}
	details.BankAccountNumber = strings.ReplaceAll(details.BankAccountNumber, "⑉", "-")
	details.Normalize()

	if missing := details.MissingFields(); len(missing) > 0 {
		log.Printf("[EXTRACT] Fields not found: %s", strings.Join(missing, ", "))
	}
	return &details, nil
}

// BuildExtractionPrompt embeds the check text, the MICR grammar and the
// output contract into a single user prompt
func BuildExtractionPrompt(frontText, backText string) string {
	var b strings.Builder
	b.WriteString("Extract the following fields from the provided check text. ")
	b.WriteString("For each field, follow the extraction rules and return the result in a JSON object with these exact keys:\n\n")
	b.WriteString(`{"payee_name": "", "amount": "", "date": "", "check_number": "", "check_transit_number": "", "check_institution_number": "", "check_bank_account_number": "", "bank": "", "company_name_address": ""}`)
	b.WriteString("\n\nCheck Text:\n")
	b.WriteString(cleanPromptText(frontText))
	b.WriteString("\n")
	b.WriteString(cleanPromptText(backText))
	b.WriteString("\n\n")
	b.WriteString(extractionRules)
	b.WriteString("\n\n")
	b.WriteString(extractionInstructions)
	return b.String()
}

func cleanPromptText(text string) string {
	text = strings.ReplaceAll(text, "\n", " ")
	return strings.ReplaceAll(text, `"`, `\"`)
}

func combineText(frontText, backText string) string {
	if backText == "" {
		return frontText
	}
	return frontText + "\n" + backText
}

// stripCodeFences removes a ```json ... ``` wrapper around a reply
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 && !strings.Contains(s[:nl], "{") {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func detailsFromReply(reply map[string]interface{}) models.CheckDetails {
	return models.CheckDetails{
		PayeeName:          replyString(reply["payee_name"]),
		Amount:             replyString(reply["amount"]),
		Date:               replyString(reply["date"]),
		CheckNumber:        replyString(reply["check_number"]),
		TransitNumber:      replyString(reply["check_transit_number"]),
		InstitutionNumber:  replyString(reply["check_institution_number"]),
		BankAccountNumber:  replyString(reply["check_bank_account_number"]),
		Bank:               replyString(reply["bank"]),
		CompanyNameAddress: replyString(reply["company_name_address"]),
	}
}

// replyString converts a decoded JSON value to the string stored on the record
func replyString(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprint(val)
	}
}

// MICRFields are the numbers printed in magnetic ink along the bottom of a check
type MICRFields struct {
	CheckNumber       string
	TransitNumber     string
	InstitutionNumber string
	AccountNumber     string
}

// ⑈ on-us, ⑆ transit, ⑉ dash
var micrLine = regexp.MustCompile(`⑈\s*(\d+)\s*⑈\s*⑆\s*(\d+)\s*⑉\s*(\d+)\s*⑆\s*((?:\d+\s*⑉\s*)*\d+)`)

// ParseMICRLine finds the first well-formed Canadian MICR line in text.
// Dashes inside the account number are rendered as "-".
func ParseMICRLine(text string) (MICRFields, bool) {
	m := micrLine.FindStringSubmatch(text)
	if m == nil {
		return MICRFields{}, false
	}
	account := strings.Join(strings.Fields(m[4]), "")
	return MICRFields{
		CheckNumber:       m[1],
		TransitNumber:     m[2],
		InstitutionNumber: m[3],
		AccountNumber:     strings.ReplaceAll(account, "⑉", "-"),
	}, true
}

func fillMissingMICR(details *models.CheckDetails, micr MICRFields) {
	fill := func(field *string, value, name string) {
		if v := strings.TrimSpace(*field); v == "" || v == models.NotFound {
			log.Printf("[EXTRACT] Filled %s from MICR line", name)
			*field = value
		}
	}
	fill(&details.CheckNumber, micr.CheckNumber, "check_number")
	fill(&details.TransitNumber, micr.TransitNumber, "check_transit_number")
	fill(&details.InstitutionNumber, micr.InstitutionNumber, "check_institution_number")
	fill(&details.BankAccountNumber, micr.AccountNumber, "check_bank_account_number")
}
