package models

import (
	"strings"
	"time"
)

// NotFound is the value used for any field the extractor could not read
const NotFound = "Not Found"

// CheckDetails holds the fields extracted from one check
type CheckDetails struct {
	PayeeName          string `bson:"payee_name" json:"payee_name"`
	Amount             string `bson:"amount" json:"amount"`
	Date               string `bson:"date" json:"date"`
	CheckNumber        string `bson:"check_number" json:"check_number"`
	TransitNumber      string `bson:"check_transit_number" json:"check_transit_number"`
	InstitutionNumber  string `bson:"check_institution_number" json:"check_institution_number"`
	BankAccountNumber  string `bson:"check_bank_account_number" json:"check_bank_account_number"`
	Bank               string `bson:"bank" json:"bank"`
	CompanyNameAddress string `bson:"company_name_address" json:"company_name_address"`
	RawText            string `bson:"raw_text" json:"raw_text"`
}

// RequiredCheckFields lists the keys the model reply must contain
var RequiredCheckFields = []string{
	"payee_name",
	"amount",
	"date",
	"check_number",
	"check_transit_number",
	"check_institution_number",
	"check_bank_account_number",
	"bank",
}

// Normalize trims every field and replaces blank values with NotFound so
// consumers never see an empty value. RawText is left untouched.
func (d *CheckDetails) Normalize() {
	for _, field := range d.fields() {
		*field = strings.TrimSpace(strings.Join(strings.Fields(*field), " "))
		if *field == "" {
			*field = NotFound
		}
	}
}

// MissingFields returns the names of fields that still hold the NotFound sentinel
func (d *CheckDetails) MissingFields() []string {
	names := append(append([]string{}, RequiredCheckFields...), "company_name_address")
	var missing []string
	for i, field := range d.fields() {
		if *field == NotFound {
			missing = append(missing, names[i])
		}
	}
	return missing
}

func (d *CheckDetails) fields() []*string {
	return []*string{
		&d.PayeeName,
		&d.Amount,
		&d.Date,
		&d.CheckNumber,
		&d.TransitNumber,
		&d.InstitutionNumber,
		&d.BankAccountNumber,
		&d.Bank,
		&d.CompanyNameAddress,
	}
}

// CheckRecord is one persisted check: the extracted details plus provenance
type CheckRecord struct {
	CheckID        string       `bson:"_id" json:"check_id"`
	DocumentID     string       `bson:"documentId" json:"document_id"`
	Details        CheckDetails `bson:",inline" json:"details"`
	FrontImagePath string       `bson:"frontImagePath" json:"front_image_path"`
	BackImagePath  string       `bson:"backImagePath,omitempty" json:"back_image_path,omitempty"`
	CreatedAt      time.Time    `bson:"createdAt" json:"created_at"`
	UpdatedAt      time.Time    `bson:"updatedAt" json:"updated_at"`
}
