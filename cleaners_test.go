package main

import (
	"testing"
)

func TestPadronizeColumnName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Código BR", "codigo_br"},
		{" Descrição CATMAT ", "descricao_catmat"},
		{"Preço Unitário", "preco_unitario"},
		{"CNPJ  Fornecedor", "cnpj_fornecedor"},
		{"Município Instituição", "municipio_instituicao"},
		{"Qtd Itens Comprados", "qtd_itens_comprados"},
		{"uf", "uf"},
		{"__ano__", "ano"},
		{"Genérico/Similar", "generico_similar"},
		{"", ""},
	}

	for _, tt := range tests {
		got := padronizeColumnName(tt.in)
		if got != tt.want {
			t.Errorf("padronizeColumnName(%q) = %q, esperado %q", tt.in, got, tt.want)
		}
	}
}

func TestPadronizeColumnNameIdempotente(t *testing.T) {
	inputs := []string{"Código BR", "Preço Unitário", "já_limpo", "CNPJ Instituição"}
	for _, in := range inputs {
		once := padronizeColumnName(in)
		twice := padronizeColumnName(once)
		if once != twice {
			t.Errorf("padronizeColumnName não é idempotente para %q: %q != %q", in, once, twice)
		}
	}
}

func TestPadronizeColumnNameVocabulario(t *testing.T) {
	inputs := []string{"Código BR", "Preço (R$) Unitário!", "Descrição - CATMAT", "ÇÃO ñ"}
	for _, in := range inputs {
		got := padronizeColumnName(in)
		for _, r := range got {
			if !((r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_') {
				t.Errorf("padronizeColumnName(%q) = %q contém caractere fora de [a-z0-9_]: %q", in, got, r)
			}
		}
	}
}

func TestFixBrazilianEncoding(t *testing.T) {
	fixes := defaultEncodingFixes()
	tests := []struct {
		in   string
		want string
	}{
		{"SaÃºde", "Saúde"},
		{"FarmÃ¡cia BÃ¡sica", "Farmácia Básica"},
		{"pre�o", "preço"},
		{"institui��o", "instituição"},
		{"sem problema", "sem problema"},
		{"resto�", "resto"},
	}

	for _, tt := range tests {
		got := fixBrazilianEncoding(tt.in, fixes)
		if got != tt.want {
			t.Errorf("fixBrazilianEncoding(%q) = %q, esperado %q", tt.in, got, tt.want)
		}
	}
}

func TestOrderedFixesMaisLongaPrimeiro(t *testing.T) {
	fixes := defaultEncodingFixes()
	pairs := orderedFixes(fixes)
	for i := 1; i < len(pairs); i++ {
		if len(pairs[i-1][0]) < len(pairs[i][0]) {
			t.Fatalf("orderedFixes fora de ordem: %q (%d) antes de %q (%d)",
				pairs[i-1][0], len(pairs[i-1][0]), pairs[i][0], len(pairs[i][0]))
		}
	}
}

func TestStandardizeCNPJ(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"12.345.678/0001-90", "12345678000190"},
		{"12345678000190", "12345678000190"},
		{"123", ""},
		{"", ""},
		{"12.345.678/0001-9", ""},
		{"123456780001901", ""},
	}

	for _, tt := range tests {
		got := standardizeCNPJ(tt.in)
		if got != tt.want {
			t.Errorf("standardizeCNPJ(%q) = %q, esperado %q", tt.in, got, tt.want)
		}
	}
}

func TestCleanCurrencyValue(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"R$ 1.234,56", 1234.56, true},
		{"1234,56", 1234.56, true},
		{"1.234.567,89", 1234567.89, true},
		{"15.5", 15.5, true},
		{"R$ 40", 40, true},
		{"0,01", 0.01, true},
		{"invalid", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		got, ok := cleanCurrencyValue(tt.in)
		if ok != tt.ok {
			t.Errorf("cleanCurrencyValue(%q) ok = %v, esperado %v", tt.in, ok, tt.ok)
			continue
		}
		if ok && got != tt.want {
			t.Errorf("cleanCurrencyValue(%q) = %v, esperado %v", tt.in, got, tt.want)
		}
	}
}

func TestStandardizeColumnNamesColisao(t *testing.T) {
	// "Preço" e "preco" padronizam para o mesmo nome: a última coluna vence
	df := loadStringRecords([][]string{
		{"Preço", "preco", "UF"},
		{"1,5", "2,5", "SP"},
	})

	out := standardizeColumnNames(df)
	names := out.Names()
	if len(names) != 2 {
		t.Fatalf("esperadas 2 colunas após colisão, obtidas %d: %v", len(names), names)
	}
	if names[0] != "preco" || names[1] != "uf" {
		t.Fatalf("nomes inesperados após colisão: %v", names)
	}

	recs := out.Records()
	if recs[1][0] != "2,5" {
		t.Errorf("colisão deveria manter o valor da última coluna, obtido %q", recs[1][0])
	}
}

func TestCleanDataframe(t *testing.T) {
	cfg := NewConfig()
	df := loadStringRecords([][]string{
		{"Código BR", "CNPJ Fornecedor", "Preço Unitário", "Descrição CATMAT"},
		{"100", "12.345.678/0001-90", "R$ 1.234,56", "DIPIRONA 500MG"},
		{"200", "123", "invalid", "null"},
	})

	out := cleanDataframe(df, cfg)
	recs := out.Records()

	header := recs[0]
	want := []string{"codigo_br", "cnpj_fornecedor", "preco_unitario", "descricao_catmat"}
	for i, col := range want {
		if header[i] != col {
			t.Fatalf("coluna %d = %q, esperada %q", i, header[i], col)
		}
	}

	if recs[1][1] != "12345678000190" {
		t.Errorf("CNPJ formatado deveria virar só dígitos, obtido %q", recs[1][1])
	}
	if recs[1][2] != "1234.56" {
		t.Errorf("preço deveria virar decimal com ponto, obtido %q", recs[1][2])
	}
	if recs[2][1] != "" {
		t.Errorf("CNPJ curto deveria virar vazio, obtido %q", recs[2][1])
	}
	if recs[2][2] != "" {
		t.Errorf("preço inválido deveria virar vazio, obtido %q", recs[2][2])
	}
	if recs[2][3] != "null" {
		t.Errorf("valor nulo em coluna de texto não deveria ser alterado, obtido %q", recs[2][3])
	}
}

func TestIsMissing(t *testing.T) {
	missing := []string{"", "  ", "null", "NULL", "na", "NaN", "n/a"}
	for _, v := range missing {
		if !isMissing(v) {
			t.Errorf("isMissing(%q) deveria ser true", v)
		}
	}
	present := []string{"0", "abc", "nan mas não", "-"}
	for _, v := range present {
		if isMissing(v) {
			t.Errorf("isMissing(%q) deveria ser false", v)
		}
	}
}
