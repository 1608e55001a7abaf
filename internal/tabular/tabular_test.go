// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package tabular

import (
	"strings"
	"testing"
)

const enrollmentCSV = `Distrito,Modalidade,Matriculas
Sé,Creche,1200
Sé,Fundamental,3400
Pinheiros,Creche,800
Pinheiros,Fundamental,2100
Butantã,Creche,950
`

func parseEnrollment(t *testing.T) []Record {
	t.Helper()
	records, keys, err := ParseCSV(strings.NewReader(enrollmentCSV))
	if err != nil {
		t.Fatalf("ParseCSV() error = %v", err)
	}
	if got, want := len(records), 5; got != want {
		t.Fatalf("ParseCSV() returned %d records, want %d", got, want)
	}
	if got, want := len(keys), 3; got != want {
		t.Fatalf("ParseCSV() returned %d keys, want %d", got, want)
	}
	return records
}

func TestParseCSVClassifiesColumns(t *testing.T) {
	records := parseEnrollment(t)

	first := records[0]
	if got := first.Dimensions["distrito"]; got != "Sé" {
		t.Errorf("Dimensions[distrito] = %q, want %q", got, "Sé")
	}
	if got := first.Dimensions["modalidade"]; got != "Creche" {
		t.Errorf("Dimensions[modalidade] = %q, want %q", got, "Creche")
	}
	if got := first.Measures["matriculas"]; got != 1200 {
		t.Errorf("Measures[matriculas] = %v, want 1200", got)
	}
}

func TestParseCSVSnakeCasesHeaders(t *testing.T) {
	csv := "Ano Letivo,Total-Geral\n2024,10\n"
	records, keys, err := ParseCSV(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("ParseCSV() error = %v", err)
	}
	if keys[0] != "ano_letivo" || keys[1] != "total_geral" {
		t.Errorf("keys = %v, want [ano_letivo total_geral]", keys)
	}
	if got := records[0].Measures["total_geral"]; got != 10 {
		t.Errorf("Measures[total_geral] = %v, want 10", got)
	}
}

func TestParseCSVBrazilianDecimals(t *testing.T) {
	csv := "orgao,valor_liquidado\nSME,\"1.234,56\"\n"
	records, _, err := ParseCSV(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("ParseCSV() error = %v", err)
	}
	if got := records[0].Measures["valor_liquidado"]; got != 1234.56 {
		t.Errorf("Measures[valor_liquidado] = %v, want 1234.56", got)
	}
}

func TestParseCSVSkipsShortRows(t *testing.T) {
	csv := "a,b\n1,2\nonly-one-field-but-still-a-row\n3,4\n"
	records, _, err := ParseCSV(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("ParseCSV() error = %v", err)
	}
	// Short rows parse with the columns they have.
	if got, want := len(records), 3; got != want {
		t.Fatalf("ParseCSV() returned %d records, want %d", got, want)
	}
	if got := records[2].Measures["a"]; got != 3 {
		t.Errorf("Measures[a] = %v, want 3", got)
	}
}

func TestGroupAndAggregate(t *testing.T) {
	records := parseEnrollment(t)

	tests := []struct {
		name        string
		aggregation string
		limit       int
		wantKeys    []string
		wantValues  []float64
	}{
		{"sum", "sum", 0, []string{"Sé", "Pinheiros", "Butantã"}, []float64{4600, 2900, 950}},
		{"mean", "mean", 0, []string{"Sé", "Pinheiros", "Butantã"}, []float64{2300, 1450, 950}},
		{"count", "count", 0, []string{"Sé", "Pinheiros", "Butantã"}, []float64{2, 2, 1}},
		{"max", "max", 0, []string{"Sé", "Pinheiros", "Butantã"}, []float64{3400, 2100, 950}},
		{"min limited", "min", 2, []string{"Sé", "Butantã"}, []float64{1200, 950}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			groups, err := GroupAndAggregate(records, "distrito", "matriculas", tt.aggregation, tt.limit)
			if err != nil {
				t.Fatalf("GroupAndAggregate() error = %v", err)
			}
			if len(groups) != len(tt.wantKeys) {
				t.Fatalf("got %d groups, want %d", len(groups), len(tt.wantKeys))
			}
			for i, g := range groups {
				if g.Key != tt.wantKeys[i] {
					t.Errorf("group %d key = %q, want %q", i, g.Key, tt.wantKeys[i])
				}
				if g.Value != tt.wantValues[i] {
					t.Errorf("group %d value = %v, want %v", i, g.Value, tt.wantValues[i])
				}
			}
		})
	}
}

func TestGroupAndAggregateNumericGroupColumn(t *testing.T) {
	csv := "ano,valor\n2023,10\n2023,20\n2024,5\n"
	records, _, err := ParseCSV(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("ParseCSV() error = %v", err)
	}
	groups, err := GroupAndAggregate(records, "ano", "valor", "sum", 0)
	if err != nil {
		t.Fatalf("GroupAndAggregate() error = %v", err)
	}
	if len(groups) != 2 {
		t.Fatalf("got %d groups, want 2", len(groups))
	}
	if groups[0].Key != "2023" || groups[0].Value != 30 {
		t.Errorf("top group = %q/%v, want 2023/30", groups[0].Key, groups[0].Value)
	}
}

func TestGroupAndAggregateUnknownAggregation(t *testing.T) {
	records := parseEnrollment(t)
	if _, err := GroupAndAggregate(records, "distrito", "matriculas", "median", 0); err == nil {
		t.Fatal("GroupAndAggregate() expected error for unknown aggregation")
	}
}
