package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/codeatpanorama/vision-flow/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleFront = `RBC ROYAL BANK
PAY TO THE ORDER OF
1894837 ONTARIO INC
ERIKA DIAZ SERVICE
$550.00
⑈004921⑈ ⑆06222⑉003⑆ 102⑉813⑉3⑈`

const completeReplyJSON = `{"payee_name": "ERIKA DIAZ SERVICE", "amount": "$550.00", "date": "31/10/2024", "check_number": "004921", "check_transit_number": "06222", "check_institution_number": "003", "check_bank_account_number": "102-813-3", "bank": "RBC ROYAL BANK", "company_name_address": "Not Found"}`

func TestParseMICRLineRoundTrip(t *testing.T) {
	micr, ok := ParseMICRLine("some text ⑈004921⑈ ⑆06222⑉003⑆ 102⑉813⑉3⑈ trailing")
	require.True(t, ok)
	assert.Equal(t, MICRFields{
		CheckNumber:       "004921",
		TransitNumber:     "06222",
		InstitutionNumber: "003",
		AccountNumber:     "102-813-3",
	}, micr)
}

func TestParseMICRLineVariants(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		ok      bool
		account string
	}{
		{"spaced symbols", "⑈ 000123 ⑈ ⑆ 12345 ⑉ 001 ⑆ 1234 ⑉ 567 ⑈", true, "1234-567"},
		{"plain account", "⑈9⑈⑆11111⑉222⑆33333333⑈", true, "33333333"},
		{"no micr", "PAY TO THE ORDER OF", false, ""},
		{"truncated", "⑈004921⑈ ⑆06222", false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			micr, ok := ParseMICRLine(tt.text)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.account, micr.AccountNumber)
		})
	}
}

func TestExtract(t *testing.T) {
	llm := &fakeLLM{replies: []string{completeReplyJSON}}
	extractor := NewFieldExtractor(llm)

	details, err := extractor.Extract(context.Background(), sampleFront, "ENDORSE HERE")
	require.NoError(t, err)

	assert.Equal(t, "ERIKA DIAZ SERVICE", details.PayeeName)
	assert.Equal(t, "$550.00", details.Amount)
	assert.Equal(t, "31/10/2024", details.Date)
	assert.Equal(t, "004921", details.CheckNumber)
	assert.Equal(t, "06222", details.TransitNumber)
	assert.Equal(t, "003", details.InstitutionNumber)
	assert.Equal(t, "102-813-3", details.BankAccountNumber)
	assert.Equal(t, models.NotFound, details.CompanyNameAddress)
	assert.Equal(t, sampleFront+"\nENDORSE HERE", details.RawText)

	assert.Equal(t, ExtractionSystemPrompt, llm.system)
	require.Len(t, llm.prompts, 1)
	assert.Contains(t, llm.prompts[0], "ERIKA DIAZ SERVICE")
	assert.NotContains(t, llm.prompts[0], "ONTARIO INC\nERIKA", "check text is flattened to one line")
}

func TestExtractFillsMICRFromText(t *testing.T) {
	reply := `{"payee_name": "ERIKA DIAZ SERVICE", "amount": "$550.00", "date": "31/10/2024", "check_number": "Not Found", "check_transit_number": "Not Found", "check_institution_number": "", "check_bank_account_number": "102⑉813⑉3", "bank": "RBC"}`
	extractor := NewFieldExtractor(&fakeLLM{replies: []string{reply}})

	details, err := extractor.Extract(context.Background(), sampleFront, "")
	require.NoError(t, err)
	assert.Equal(t, "004921", details.CheckNumber)
	assert.Equal(t, "06222", details.TransitNumber)
	assert.Equal(t, "003", details.InstitutionNumber)
	assert.Equal(t, "102-813-3", details.BankAccountNumber)
	assert.Equal(t, sampleFront, details.RawText)
}

func TestExtractStripsCodeFences(t *testing.T) {
	replies := []string{
		"```json\n" + completeReplyJSON + "\n```",
		"```\n" + completeReplyJSON + "\n```",
		"```json" + completeReplyJSON + "```",
	}
	for _, reply := range replies {
		details, err := NewFieldExtractor(&fakeLLM{replies: []string{reply}}).
			Extract(context.Background(), "front", "back")
		require.NoError(t, err, reply)
		assert.Equal(t, "ERIKA DIAZ SERVICE", details.PayeeName)
	}
}

func TestExtractNumericValues(t *testing.T) {
	reply := `{"payee_name": "A", "amount": 550.5, "date": "01/01/2024", "check_number": 4921, "check_transit_number": "06222", "check_institution_number": "003", "check_bank_account_number": "1", "bank": "B"}`
	details, err := NewFieldExtractor(&fakeLLM{replies: []string{reply}}).
		Extract(context.Background(), "front", "")
	require.NoError(t, err)
	assert.Equal(t, "550.5", details.Amount)
	assert.Equal(t, "4921", details.CheckNumber)
}

func TestExtractParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{"not json", "Sorry, I cannot read this check."},
		{"missing required key", `{"payee_name": "A", "amount": "$1.00"}`},
		{"array", `["a"]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewFieldExtractor(&fakeLLM{replies: []string{tt.reply}}).
				Extract(context.Background(), "front", "back")
			var parseErr *models.ExtractionParseError
			require.True(t, errors.As(err, &parseErr), "got %v", err)
			assert.Equal(t, tt.reply, parseErr.RawResponse)
		})
	}
}

func TestExtractModelError(t *testing.T) {
	_, err := NewFieldExtractor(&fakeLLM{err: errors.New("rate limited")}).
		Extract(context.Background(), "front", "back")
	require.Error(t, err)
	var parseErr *models.ExtractionParseError
	assert.False(t, errors.As(err, &parseErr))
	assert.Contains(t, err.Error(), "rate limited")
}

func TestBuildExtractionPrompt(t *testing.T) {
	prompt := BuildExtractionPrompt("PAY \"ERIKA\"\nDIAZ", "")
	assert.Contains(t, prompt, `PAY \"ERIKA\" DIAZ`)
	for _, key := range models.RequiredCheckFields {
		assert.Contains(t, prompt, `"`+key+`"`)
	}
	assert.Contains(t, prompt, "DD/MM/YYYY")
	assert.Contains(t, prompt, "YYYYMMDD")
	assert.Contains(t, prompt, "Not Found")
	assert.True(t, strings.Contains(prompt, "⑈004921⑈"))
}
