// Package types holds the shared domain types and error taxonomy for
// the harvest pipeline.
package types

import "strings"

// Source identifies which extraction path produced a record.
type Source string

const (
	SourceAI        Source = "ai"
	SourceHeuristic Source = "heuristic"
)

// BusinessRecord is one harvested business listing. All fields are
// cleaned, display-ready strings; absent data is the empty string.
type BusinessRecord struct {
	Name         string `json:"name"          bson:"name"          csv:"Business Name"`
	BusinessType string `json:"business_type" bson:"business_type" csv:"Business Type"`
	Address      string `json:"address"       bson:"address"       csv:"Address"`
	Phone        string `json:"phone"         bson:"phone"         csv:"Phone Number"`
	Email        string `json:"email"         bson:"email"         csv:"Email"`
	Website      string `json:"website"       bson:"website"       csv:"Website"`
}

// Key returns the case-insensitive identity of the record. Two records
// with equal keys describe the same business and are deduplicated.
func (r BusinessRecord) Key() string {
	return strings.ToLower(strings.Join([]string{
		r.Name, r.BusinessType, r.Address, r.Phone, r.Email, r.Website,
	}, "\x1f"))
}

// IsEmpty reports whether every field is blank.
func (r BusinessRecord) IsEmpty() bool {
	return r.Name == "" && r.BusinessType == "" && r.Address == "" &&
		r.Phone == "" && r.Email == "" && r.Website == ""
}

// ExtractionResult pairs a record with the path that produced it.
type ExtractionResult struct {
	Record BusinessRecord
	Source Source
}
