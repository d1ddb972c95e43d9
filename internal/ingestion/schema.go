// Package ingestion implements the three offline data flows that populate
// the chatbot corpora: the initial coded-diagnosis load, the long-definition
// augmentation pass, and the landing-page document load. All flows are
// invoked from CLI commands, never from the serving path.
package ingestion

import (
	"strings"
)

// Sentinels written into record metadata in place of missing source values.
// Prompts render these verbatim, so downstream code never handles nulls.
const (
	// SentinelMissing marks a value absent from the initial coded load.
	SentinelMissing = "Na"
	// SentinelNotAvailable marks a long definition absent from the
	// augmentation source.
	SentinelNotAvailable = "Not Available"
)

// Columns of the coded-diagnosis CSV consumed by the initial load.
const (
	colICD11Code     = "ICD11_Code"
	colICD11Title    = "ICD11_Title"
	colAyurvedaCode  = "Ayurveda_NAMC_CODE"
	colSiddhaCode    = "Siddha_NAMC_CODE"
	colUnaniCode     = "Unani_NUMC_CODE"
)

// codedColumns lists every column the initial load carries into metadata.
var codedColumns = []string{
	colICD11Code,
	colICD11Title,
	colAyurvedaCode,
	colSiddhaCode,
	colUnaniCode,
}

// Columns of the augmentation CSV holding traditional-medicine definitions.
const (
	colAyurvedaDefinition = "Ayurveda_Long_Definition"
	colSiddhaDefinition   = "Siddha_Long_Definition"
	colUnaniDefinition    = "Unani_Long_Definition"
)

// definitionColumns lists the metadata fields written by the augmentation pass.
var definitionColumns = []string{
	colAyurvedaDefinition,
	colSiddhaDefinition,
	colUnaniDefinition,
}

// normalizeCoded replaces a missing initial-load value with SentinelMissing.
// Spreadsheet exports serialize empty cells as "nan", so that spelling (any
// case) counts as missing too.
func normalizeCoded(value string) string {
	if isMissing(value) {
		return SentinelMissing
	}
	return strings.TrimSpace(value)
}

// normalizeDefinition replaces a missing long definition with
// SentinelNotAvailable.
func normalizeDefinition(value string) string {
	if isMissing(value) {
		return SentinelNotAvailable
	}
	return strings.TrimSpace(value)
}

// isMissing reports whether a CSV cell represents an absent value.
func isMissing(value string) bool {
	trimmed := strings.TrimSpace(value)
	return trimmed == "" || strings.EqualFold(trimmed, "nan")
}
