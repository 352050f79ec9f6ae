package main

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"fairprice/models"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// Combinações de encoding/separador tentadas em ordem no carregamento
type loadAttempt struct {
	encoding string
	sep      rune
}

var loadAttempts = []loadAttempt{
	{"latin-1", ';'},
	{"utf-8", ';'},
	{"latin-1", ','},
	{"utf-8", ','},
}

// StandardizationProcessor executa o pipeline de um arquivo:
// carregar -> limpar -> validar e pontuar -> emitir colunas de negócio.
type StandardizationProcessor struct {
	cfg *Config
}

func NewStandardizationProcessor(cfg *Config) *StandardizationProcessor {
	return &StandardizationProcessor{cfg: cfg}
}

// LoadRawCSV carrega um CSV bruto tentando cada combinação de encoding e
// separador. Só falha de vez quando todas as combinações falham. Linhas com
// número de campos diferente do cabeçalho são puladas com aviso.
func (p *StandardizationProcessor) LoadRawCSV(path string) (dataframe.DataFrame, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("erro ao abrir arquivo %s: %v", path, err)
	}

	for _, attempt := range loadAttempts {
		recs, err := parseCSVBytes(data, attempt)
		if err != nil {
			continue
		}
		fmt.Printf("Arquivo %s carregado com %s e separador %q (%d linhas)\n",
			filepath.Base(path), attempt.encoding, attempt.sep, len(recs)-1)
		return loadStringRecords(recs), nil
	}

	return dataframe.DataFrame{}, fmt.Errorf("todas as combinações de encoding/separador falharam para %s", path)
}

func parseCSVBytes(data []byte, attempt loadAttempt) ([][]string, error) {
	var text string
	switch attempt.encoding {
	case "latin-1":
		decoded, err := io.ReadAll(transform.NewReader(bytes.NewReader(data), charmap.ISO8859_1.NewDecoder()))
		if err != nil {
			return nil, err
		}
		text = string(decoded)
	default:
		if !utf8.Valid(data) {
			return nil, fmt.Errorf("bytes inválidos para utf-8")
		}
		text = string(data)
	}

	r := csv.NewReader(strings.NewReader(text))
	r.Comma = attempt.sep
	r.LazyQuotes = true
	r.FieldsPerRecord = -1

	rows, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("arquivo sem linhas de dados")
	}

	header := rows[0]
	// Separador errado costuma resultar em uma coluna única
	if len(header) < 2 {
		return nil, fmt.Errorf("cabeçalho com apenas %d coluna", len(header))
	}

	recs := [][]string{header}
	for i, row := range rows[1:] {
		if len(row) != len(header) {
			fmt.Printf("Linha %d tem %d campos, header tem %d campos - pulando\n", i+2, len(row), len(header))
			continue
		}
		recs = append(recs, row)
	}
	return recs, nil
}

// ValidateDataframe valida cada linha e anexa as anotações de qualidade
// como colunas extras: quality_score e as quatro flags has_valid_*.
func (p *StandardizationProcessor) ValidateDataframe(df dataframe.DataFrame) (dataframe.DataFrame, []RowValidation) {
	recs := df.Records()
	if len(recs) < 2 {
		return df, nil
	}
	header := recs[0]
	rows := recs[1:]

	validations := make([]RowValidation, len(rows))
	scores := make([]float64, len(rows))
	validCNPJ := make([]bool, len(rows))
	validState := make([]bool, len(rows))
	validYear := make([]bool, len(rows))
	positivePrices := make([]bool, len(rows))

	for i, row := range rows {
		v := validateRow(header, row, p.cfg)
		validations[i] = v
		scores[i] = v.QualityScore
		validCNPJ[i] = v.HasValidCNPJ
		validState[i] = v.HasValidState
		validYear[i] = v.HasValidYear
		positivePrices[i] = v.HasPositivePrices
	}

	df = df.Mutate(series.New(validCNPJ, series.Bool, "has_valid_cnpj"))
	df = df.Mutate(series.New(validState, series.Bool, "has_valid_state"))
	df = df.Mutate(series.New(validYear, series.Bool, "has_valid_year"))
	df = df.Mutate(series.New(positivePrices, series.Bool, "has_positive_prices"))
	df = df.Mutate(series.New(scores, series.Float, "quality_score"))

	return df, validations
}

// isQualityColumn identifica as colunas de anotação que nunca são persistidas
func isQualityColumn(col string) bool {
	return strings.HasPrefix(col, "quality_") || strings.HasPrefix(col, "has_valid_") ||
		col == "has_positive_prices"
}

// StandardizeFile roda o pipeline completo para um arquivo e devolve o
// relatório. O arquivo emitido contém apenas as colunas de negócio.
func (p *StandardizationProcessor) StandardizeFile(inputPath, outputPath string) (models.FileReport, error) {
	start := time.Now()
	fileName := filepath.Base(inputPath)

	fmt.Printf("Iniciando padronização de %s\n", fileName)

	dfRaw, err := p.LoadRawCSV(inputPath)
	if err != nil {
		return models.FileReport{}, err
	}
	rowsInput := dfRaw.Nrow()
	colsInput := dfRaw.Ncol()

	dfClean := cleanDataframe(dfRaw, p.cfg)
	dfValidated, validations := p.ValidateDataframe(dfClean)

	var sum float64
	highQuality := 0
	for _, v := range validations {
		sum += v.QualityScore
		if v.QualityScore >= 80 {
			highQuality++
		}
	}
	avgQuality := 0.0
	if len(validations) > 0 {
		avgQuality = sum / float64(len(validations))
	}

	// Remove as anotações de qualidade antes de gravar
	var dropCols []string
	for _, col := range dfValidated.Names() {
		if isQualityColumn(col) {
			dropCols = append(dropCols, col)
		}
	}
	dfOutput := dfValidated.Drop(dropCols)
	if dfOutput.Err != nil {
		return models.FileReport{}, fmt.Errorf("erro ao remover colunas de qualidade: %v", dfOutput.Err)
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), os.ModePerm); err != nil {
		return models.FileReport{}, fmt.Errorf("erro ao criar diretório de saída: %v", err)
	}
	outFile, err := os.Create(outputPath)
	if err != nil {
		return models.FileReport{}, fmt.Errorf("erro ao criar arquivo %s: %v", outputPath, err)
	}
	if err := dfOutput.WriteCSV(outFile); err != nil {
		outFile.Close()
		return models.FileReport{}, fmt.Errorf("erro ao escrever CSV em %s: %v", outputPath, err)
	}
	outFile.Close()

	elapsed := time.Since(start).Seconds()
	report := models.FileReport{
		FileName:              fileName,
		RowsInput:             rowsInput,
		RowsOutput:            dfOutput.Nrow(),
		ColumnsInput:          colsInput,
		ColumnsOutput:         dfOutput.Ncol(),
		AverageQualityScore:   avgQuality,
		HighQualityRows:       highQuality,
		ProcessingTimeSeconds: elapsed,
		InputFile:             inputPath,
		OutputFile:            outputPath,
	}

	fmt.Printf("Concluído %s: %.1f%% de qualidade média (%.2fs)\n", fileName, avgQuality, elapsed)
	return report, nil
}

// StandardizeAll processa todos os anos alvo. Falha em um arquivo é
// reportada e o lote continua com os demais.
func (p *StandardizationProcessor) StandardizeAll() []models.FileReport {
	var reports []models.FileReport
	for _, ano := range p.cfg.TargetYears {
		inputPath := filepath.Join(p.cfg.RawDataDir, fmt.Sprintf("%d.csv", ano))
		if _, err := os.Stat(inputPath); err != nil {
			fmt.Printf("Arquivo bruto de %d não encontrado, pulando\n", ano)
			continue
		}
		// A saída mantém o ano como stem para o consolidador reconhecer
		outputPath := filepath.Join(p.cfg.ProcessedDataDir, fmt.Sprintf("%d.csv", ano))

		report, err := p.StandardizeFile(inputPath, outputPath)
		if err != nil {
			fmt.Printf("Erro ao padronizar %s: %v\n", inputPath, err)
			continue
		}
		reports = append(reports, report)
	}
	return reports
}
