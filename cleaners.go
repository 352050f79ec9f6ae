package main

import (
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// Mapeamento fixo de caracteres portugueses acentuados para a letra ASCII base
var acentosParaASCII = map[rune]rune{
	'ã': 'a', 'á': 'a', 'â': 'a', 'à': 'a',
	'é': 'e', 'ê': 'e', 'è': 'e',
	'í': 'i', 'î': 'i', 'ì': 'i',
	'ó': 'o', 'ô': 'o', 'õ': 'o', 'ò': 'o',
	'ú': 'u', 'û': 'u', 'ù': 'u',
	'ç': 'c', 'ñ': 'n',
}

func trimLower(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// padronizeColumnName normaliza um nome de coluna para o vocabulário
// [a-z0-9_]: minúsculas, acentos para ASCII, qualquer outro caractere vira
// underscore, underscores repetidos colapsam e os das pontas caem.
func padronizeColumnName(col string) string {
	clean := trimLower(col)

	var b strings.Builder
	for _, r := range clean {
		if ascii, ok := acentosParaASCII[r]; ok {
			r = ascii
		}
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}

	clean = b.String()
	for strings.Contains(clean, "__") {
		clean = strings.ReplaceAll(clean, "__", "_")
	}
	return strings.Trim(clean, "_")
}

// standardizeColumnNames padroniza todos os nomes de coluna da tabela.
// Quando dois nomes de entrada colidem no mesmo nome de saída, a última
// coluna vence: as anteriores são descartadas antes do rename.
func standardizeColumnNames(df dataframe.DataFrame) dataframe.DataFrame {
	recs := df.Records()
	if len(recs) == 0 {
		return df
	}

	header := make([]string, len(recs[0]))
	for i, col := range recs[0] {
		header[i] = padronizeColumnName(col)
	}

	// Última ocorrência de cada nome vence
	lastIdx := make(map[string]int, len(header))
	for i, name := range header {
		lastIdx[name] = i
	}

	keep := make([]int, 0, len(header))
	for i, name := range header {
		if lastIdx[name] == i {
			keep = append(keep, i)
		}
	}

	out := make([][]string, len(recs))
	for r, row := range recs {
		newRow := make([]string, len(keep))
		for c, idx := range keep {
			if r == 0 {
				newRow[c] = header[idx]
			} else if idx < len(row) {
				newRow[c] = row[idx]
			}
		}
		out[r] = newRow
	}

	return loadStringRecords(out)
}

// fixBrazilianEncoding aplica as correções de encoding na ordem da sequência
// corrompida mais longa para a mais curta.
func fixBrazilianEncoding(text string, fixes map[string]string) string {
	fixed := text
	for _, pair := range orderedFixes(fixes) {
		fixed = strings.ReplaceAll(fixed, pair[0], pair[1])
	}
	return fixed
}

// standardizeCNPJ remove tudo que não é dígito e devolve o CNPJ apenas se
// sobrarem exatamente 14 dígitos. Não valida o dígito verificador.
func standardizeCNPJ(value string) string {
	var digits strings.Builder
	for _, r := range value {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	if digits.Len() != 14 {
		return ""
	}
	return digits.String()
}

// cleanCurrencyValue converte moeda brasileira ("R$ 1.234,56") para float.
// Com ponto e vírgula presentes, os pontos são separadores de milhar e o
// grupo após a vírgula é a parte decimal; só com vírgula, ela é o decimal.
func cleanCurrencyValue(value string) (float64, bool) {
	clean := strings.Map(func(r rune) rune {
		switch {
		case r == 'R' || r == '$':
			return -1
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			return -1
		}
		return r
	}, value)

	if strings.Contains(clean, ",") {
		if strings.Contains(clean, ".") {
			parts := strings.Split(clean, ".")
			thousands := strings.Join(parts[:len(parts)-1], "")
			decimal := parts[len(parts)-1]
			if strings.Contains(decimal, ",") {
				ds := strings.Split(decimal, ",")
				if len(ds) == 2 {
					clean = thousands + ds[0] + "." + ds[1]
				}
			}
		} else {
			clean = strings.ReplaceAll(clean, ",", ".")
		}
	}

	// Descarta qualquer caractere restante que não seja dígito ou ponto
	clean = strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' {
			return r
		}
		return -1
	}, clean)

	v, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// columnRule associa um predicado sobre o nome padronizado da coluna a um
// tratamento de valor. O conjunto de regras é avaliado uma vez por tabela.
type columnRule struct {
	name    string
	matches func(col string) bool
	apply   func(val string) string
}

func containsAny(col string, keywords ...string) bool {
	for _, kw := range keywords {
		if strings.Contains(col, kw) {
			return true
		}
	}
	return false
}

func columnRules(cfg *Config) []columnRule {
	return []columnRule{
		{
			name: "texto",
			matches: func(col string) bool {
				return containsAny(col, "descricao", "fabricante", "fornecedor", "instituicao", "municipio")
			},
			apply: func(val string) string {
				if isMissing(val) {
					return val
				}
				return fixBrazilianEncoding(val, cfg.EncodingFixes)
			},
		},
		{
			name: "cnpj",
			matches: func(col string) bool {
				return strings.Contains(col, "cnpj")
			},
			apply: func(val string) string {
				if isMissing(val) {
					return ""
				}
				return standardizeCNPJ(val)
			},
		},
		{
			name: "preco",
			matches: func(col string) bool {
				return strings.Contains(col, "preco")
			},
			apply: func(val string) string {
				if isMissing(val) {
					return ""
				}
				v, ok := cleanCurrencyValue(val)
				if !ok {
					return ""
				}
				return strconv.FormatFloat(v, 'f', -1, 64)
			},
		},
	}
}

// cleanDataframe aplica a limpeza completa: padroniza os nomes de coluna e
// depois passa cada regra sobre as colunas que ela seleciona. A seleção é
// por substring de propósito, já que os arquivos variam de ano para ano.
func cleanDataframe(df dataframe.DataFrame, cfg *Config) dataframe.DataFrame {
	clean := standardizeColumnNames(df)

	recs := clean.Records()
	if len(recs) < 2 {
		return clean
	}
	header := recs[0]

	for _, rule := range columnRules(cfg) {
		for c, col := range header {
			if !rule.matches(col) {
				continue
			}
			for r := 1; r < len(recs); r++ {
				recs[r][c] = rule.apply(recs[r][c])
			}
		}
	}

	return loadStringRecords(recs)
}

// loadStringRecords carrega registros mantendo tudo como string, para não
// perder zeros à esquerda de CNPJ e códigos.
func loadStringRecords(recs [][]string) dataframe.DataFrame {
	return dataframe.LoadRecords(recs,
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
	)
}
