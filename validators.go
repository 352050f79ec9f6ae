package main

import (
	"strconv"
	"strings"
)

// As 27 unidades federativas brasileiras
var estadosValidos = map[string]bool{
	"AC": true, "AL": true, "AP": true, "AM": true, "BA": true, "CE": true,
	"DF": true, "ES": true, "GO": true, "MA": true, "MT": true, "MS": true,
	"MG": true, "PA": true, "PB": true, "PR": true, "PE": true, "PI": true,
	"RJ": true, "RN": true, "RS": true, "RO": true, "RR": true, "SC": true,
	"SP": true, "SE": true, "TO": true,
}

// validateCNPJ valida o CNPJ pelo algoritmo de dígito verificador: exige 14
// dígitos, rejeita sequências de dígitos iguais e confere os dois dígitos
// pelo módulo 11 com os pesos oficiais.
func validateCNPJ(cnpj string) bool {
	if len(cnpj) != 14 {
		return false
	}

	digits := make([]int, 14)
	allSame := true
	for i, r := range cnpj {
		if r < '0' || r > '9' {
			return false
		}
		digits[i] = int(r - '0')
		if digits[i] != digits[0] {
			allSame = false
		}
	}
	if allSame {
		return false
	}

	// Primeiro dígito verificador
	weights1 := []int{5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
	sum := 0
	for i := 0; i < 12; i++ {
		sum += digits[i] * weights1[i]
	}
	check := 0
	if r := sum % 11; r >= 2 {
		check = 11 - r
	}
	if digits[12] != check {
		return false
	}

	// Segundo dígito verificador, agora incluindo o primeiro
	weights2 := []int{6, 5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
	sum = 0
	for i := 0; i < 13; i++ {
		sum += digits[i] * weights2[i]
	}
	check = 0
	if r := sum % 11; r >= 2 {
		check = 11 - r
	}
	return digits[13] == check
}

// validateBrazilianState confere a sigla da UF, ignorando caixa e espaços.
func validateBrazilianState(uf string) bool {
	return estadosValidos[strings.ToUpper(strings.TrimSpace(uf))]
}

// validateYearRange confere se o valor é um ano inteiro dentro da faixa.
func validateYearRange(value string, minYear, maxYear int) bool {
	year, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return false
	}
	return year >= minYear && year <= maxYear
}

// validatePositiveNumber confere se o valor é um número estritamente positivo.
func validatePositiveNumber(value string) bool {
	v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return false
	}
	return v > 0
}

// RowValidation é o resultado da validação de uma linha: as flags de
// qualidade e o score agregado. Nunca altera os valores de negócio.
type RowValidation struct {
	QualityScore      float64
	HasValidCNPJ      bool
	HasValidState     bool
	HasValidYear      bool
	HasPositivePrices bool
}

// validateRow é uma função pura linha -> resultado, independente da
// estrutura colunar. Acumula um check por campo obrigatório, por campo CNPJ
// presente, pela UF e pelo ano quando presentes, e por campo de preço
// presente. O score é a razão sobre os checks tentados, não sobre um
// denominador fixo.
func validateRow(header []string, row []string, cfg *Config) RowValidation {
	idx := make(map[string]int, len(header))
	for i, col := range header {
		idx[col] = i
	}
	get := func(col string) (string, bool) {
		i, ok := idx[col]
		if !ok || i >= len(row) {
			return "", false
		}
		return row[i], true
	}

	var result RowValidation
	total := 0
	passed := 0

	// Campos obrigatórios: check tentado mesmo quando a coluna não existe
	for _, field := range cfg.RequiredFields {
		total++
		if val, ok := get(field); ok && !isMissing(val) {
			passed++
		}
	}

	// Cada campo CNPJ presente e preenchido
	for i, col := range header {
		if !strings.Contains(col, "cnpj") || i >= len(row) || isMissing(row[i]) {
			continue
		}
		total++
		if validateCNPJ(row[i]) {
			passed++
			result.HasValidCNPJ = true
		}
	}

	if val, ok := get("uf"); ok && !isMissing(val) {
		total++
		if validateBrazilianState(val) {
			passed++
			result.HasValidState = true
		}
	}

	if val, ok := get("ano"); ok && !isMissing(val) {
		total++
		if validateYearRange(val, cfg.MinYear, cfg.MaxYear) {
			passed++
			result.HasValidYear = true
		}
	}

	// Cada campo de preço presente e preenchido
	for i, col := range header {
		if !strings.Contains(col, "preco") || i >= len(row) || isMissing(row[i]) {
			continue
		}
		total++
		if validatePositiveNumber(row[i]) {
			passed++
			result.HasPositivePrices = true
		}
	}

	if total > 0 {
		result.QualityScore = float64(passed) / float64(total) * 100
	}
	return result
}
