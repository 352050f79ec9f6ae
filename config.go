package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/joho/godotenv"
)

// Config concentra toda a configuração do pipeline. É construída uma vez
// no início do processo e passada para o processador e o consolidador.
type Config struct {
	RawDataDir       string
	ProcessedDataDir string
	OutputDataDir    string

	TargetYears []int

	// Esquema unificado de 21 colunas para os dados padronizados
	UnifiedSchema []string

	// Correções de encoding para texto brasileiro corrompido
	EncodingFixes map[string]string

	// Campos obrigatórios usados no score de qualidade
	RequiredFields []string

	MinYear int
	MaxYear int
}

func NewConfig() *Config {
	return &Config{
		RawDataDir:       "data/raw",
		ProcessedDataDir: "data/processed",
		OutputDataDir:    "data/output",
		TargetYears:      []int{2020, 2021, 2022, 2023, 2024},
		UnifiedSchema: []string{
			"ano",
			"codigo_br",
			"descricao_catmat",
			"unidade_fornecimento",
			"generico",
			"anvisa",
			"compra",
			"modalidade_compra",
			"insercao",
			"tipo_compra",
			"fabricante",
			"cnpj_fabricante",
			"fornecedor",
			"cnpj_fornecedor",
			"nome_instituicao",
			"cnpj_instituicao",
			"municipio_instituicao",
			"uf",
			"qtd_itens_comprados",
			"preco_unitario",
			"preco_total",
		},
		EncodingFixes:  defaultEncodingFixes(),
		RequiredFields: []string{"codigo_br", "descricao_catmat", "nome_instituicao"},
		MinYear:        2010,
		MaxYear:        2030,
	}
}

// defaultEncodingFixes mapeia sequências corrompidas (UTF-8 lido como
// latin-1 e artefatos de substituição) para o texto correto.
func defaultEncodingFixes() map[string]string {
	return map[string]string{
		// Minúsculas acentuadas
		"Ã¡": "á", "Ã©": "é", "Ã­": "í",
		"Ã³": "ó", "Ãº": "ú",
		"Ã£": "ã", "Ãµ": "õ", "Ã§": "ç",
		"Ã¢": "â", "Ãª": "ê", "Ã´": "ô",

		// Maiúsculas acentuadas
		"Ã‰": "É", "Ãƒ": "Ã", "Ã•": "Õ",
		"Ã‡": "Ç", "Ã‚": "Â", "ÃŠ": "Ê",

		// Palavras comuns com caractere de substituição
		"institui��o": "instituição",
		"descri��o":   "descrição",
		"munic�pio":        "município",
		"pre�o":            "preço",
		"gen�rico":         "genérico",
		"inser��o":    "inserção",
		"c�digo":           "código",
		"unit�rio":         "unitário",

		// Artefatos soltos
		"�": "",
		"Â": "",
	}
}

// orderedFixes devolve as correções ordenadas da sequência corrompida mais
// longa para a mais curta, para evitar reescritas parciais sobrepostas.
func orderedFixes(fixes map[string]string) [][2]string {
	pairs := make([][2]string, 0, len(fixes))
	for corrupted, correct := range fixes {
		pairs = append(pairs, [2]string{corrupted, correct})
	}
	sort.Slice(pairs, func(i, j int) bool {
		if len(pairs[i][0]) != len(pairs[j][0]) {
			return len(pairs[i][0]) > len(pairs[j][0])
		}
		return pairs[i][0] < pairs[j][0]
	})
	return pairs
}

// isMissing considera vazio e o vocabulário usual de nulos dos CSVs do BPS.
func isMissing(val string) bool {
	switch trimLower(val) {
	case "", "null", "na", "nan", "n/a":
		return true
	}
	return false
}

// Credenciais do Postgres, lidas do .env como no restante dos projetos
type DBCredentials struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
}

func loadDBCredentials() (DBCredentials, error) {
	err := godotenv.Load(".env")
	if err != nil {
		return DBCredentials{}, fmt.Errorf("erro ao carregar arquivo .env: %v", err)
	}

	return DBCredentials{
		Host:     os.Getenv("HOST"),
		Port:     os.Getenv("PORT"),
		User:     os.Getenv("USER"),
		Password: os.Getenv("PASSWORD"),
		Database: os.Getenv("DATABASE"),
	}, nil
}
