// Package ccar derives the names, titles and abstracts under which the tables
// of an EDGV 3.0 database are published, following the conventions of the
// IBGE cartographic publishing project (CCAR).
package ccar

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	EDGVVersion = "3.0"
	Provider    = "IBGE/Cartografia"
)

// Categories maps EDGV category codes, the prefix of each table name, to
// their names.
var Categories = map[string]string{
	"ENC":  "Energia e Comunicações",
	"ECO":  "Estrutura Econômica",
	"HID":  "Hidrografia",
	"LML":  "Limites e Localidades",
	"PTO":  "Pontos de Referência",
	"REL":  "Relevo",
	"SAB":  "Saneamento Básico",
	"TRA":  "Sistema de Transporte",
	"AER":  "Subsistema Aeroportuário",
	"DUT":  "Subsistema Dutos",
	"FER":  "Subsistema Ferroviário",
	"HDV":  "Subsistema Rodoviário",
	"ROD":  "Subsistema Rodoviário",
	"VEG":  "Vegetação",
	"VER":  "Área Verde",
	"CBGE": "Classes Base do Mapeamento Topográfico em Grandes Escalas",
	"LAZ":  "Cultura e Lazer",
	"EDF":  "Edificações",
	"EMU":  "Estrutura de Mobilidade Urbana",
}

// Geometries maps the geometry letter, the suffix of each table name, to the
// name of the geometric primitive.
var Geometries = map[string]string{
	"P": "Ponto",
	"L": "Linha",
	"A": "Área",
}

// Layer is the published form of a table.
type Layer struct {
	Table    string
	Name     string
	Title    string
	Abstract string
}

// ClassName derives the class name of a table, e.g. hid_trecho_drenagem_l
// becomes Trecho_Drenagem_L: the category prefix is dropped and each word is
// capitalized.
func ClassName(table string) string {
	_, rest, _ := strings.Cut(table, "_")
	words := strings.Split(rest, "_")
	title := cases.Title(language.BrazilianPortuguese, cases.NoLower)
	for i, w := range words {
		words[i] = title.String(strings.ToLower(w))
	}
	return strings.Join(words, "_")
}

// NewLayer derives the layer under which a table is published for the
// project with the given prefix, e.g. for table hid_trecho_drenagem_l and
// prefix bc250 the layer is named bc250_Trecho_Drenagem_L and titled
// bc250 Trecho Drenagem (Linha). An error is returned if the table name does
// not carry a known category and geometry.
func NewLayer(prefix, table string) (Layer, error) {
	code, _, found := strings.Cut(table, "_")
	if !found {
		return Layer{}, fmt.Errorf("%s: table name lacks a category prefix", table)
	}
	code = strings.ToUpper(code)
	category, ok := Categories[code]
	if !ok {
		return Layer{}, fmt.Errorf("%s: unknown category: %s", table, code)
	}
	class := ClassName(table)
	i := strings.LastIndex(class, "_")
	if i < 0 {
		return Layer{}, fmt.Errorf("%s: table name lacks a geometry suffix", table)
	}
	letter := class[i+1:]
	geometry, ok := Geometries[letter]
	if !ok {
		return Layer{}, fmt.Errorf("%s: unknown geometry: %s", table, letter)
	}
	return Layer{
		Table: table,
		Name:  prefix + "_" + class,
		Title: prefix + " " + strings.ReplaceAll(class[:i], "_", " ") + " (" + geometry + ")",
		Abstract: fmt.Sprintf(
			"Camada representando a classe [%s] de primitiva geométrica [%s:%s] da categoria [%s:%s] da EDGV versão [%s] para o projeto [%s] da instituição/provedor [%s].",
			class[:i], letter, geometry, code, category, EDGVVersion, prefix, Provider,
		),
	}, nil
}
