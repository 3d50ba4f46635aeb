// Package csvrow maps raw uploaded list rows onto the fields the pipeline
// needs, using the list's stored header to locate them.
package csvrow

import (
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/openapparel/facility-registry/internal/domain"
)

// Parser extracts country, name, and address from a raw CSV row.
type Parser struct{}

// New creates a Parser.
func New() *Parser {
	return &Parser{}
}

// ParseLine locates the country, name, and address fields of one raw row
// using the header. The country value may be an alpha-2 code or an English
// country name; it is normalized to the code. An unresolvable country value
// is passed through verbatim so field validation can report it.
func (p *Parser) ParseLine(header, raw string) (domain.ParsedFields, error) {
	headerFields, err := splitLine(header)
	if err != nil {
		return domain.ParsedFields{}, fmt.Errorf("parse header: %w", err)
	}

	positions := make(map[string]int, len(headerFields))
	for i, field := range headerFields {
		positions[strings.ToLower(strings.TrimSpace(field))] = i
	}

	rowFields, err := splitLine(raw)
	if err != nil {
		return domain.ParsedFields{}, fmt.Errorf("parse row: %w", err)
	}

	country, err := fieldAt(rowFields, positions, "country")
	if err != nil {
		return domain.ParsedFields{}, err
	}
	name, err := fieldAt(rowFields, positions, "name")
	if err != nil {
		return domain.ParsedFields{}, err
	}
	address, err := fieldAt(rowFields, positions, "address")
	if err != nil {
		return domain.ParsedFields{}, err
	}

	code := domain.CountryCodeFromValue(country)
	if code == "" {
		code = strings.ToUpper(strings.TrimSpace(country))
	}

	return domain.ParsedFields{
		CountryCode: code,
		Name:        strings.TrimSpace(name),
		Address:     strings.TrimSpace(address),
	}, nil
}

func splitLine(line string) ([]string, error) {
	reader := csv.NewReader(strings.NewReader(line))
	reader.FieldsPerRecord = -1
	fields, err := reader.Read()
	if err != nil {
		return nil, err
	}
	return fields, nil
}

func fieldAt(row []string, positions map[string]int, name string) (string, error) {
	idx, ok := positions[name]
	if !ok {
		return "", fmt.Errorf("header has no %q field", name)
	}
	if idx >= len(row) {
		return "", fmt.Errorf("row has no value for %q field", name)
	}
	return row[idx], nil
}
