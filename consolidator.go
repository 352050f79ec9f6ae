package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"fairprice/models"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/parquet-go/parquet-go"
)

// Estratégias de resolução de duplicatas entre anos
const (
	StrategyKeepLatest = "keep_latest"
	StrategyKeepAll    = "keep_all"
	StrategyAggregate  = "aggregate"
)

// Consolidator junta as tabelas anuais padronizadas em um dataset único,
// com reconciliação de esquema e política explícita de duplicatas.
type Consolidator struct {
	cfg *Config
}

func NewConsolidator(cfg *Config) *Consolidator {
	return &Consolidator{cfg: cfg}
}

// yearTable é uma tabela anual carregada, com o ano extraído do nome do arquivo
type yearTable struct {
	year int
	df   dataframe.DataFrame
}

// LoadStandardizedFiles carrega todos os CSVs do diretório, chaveados pelo
// ano inteiro do nome do arquivo. Arquivo com stem não numérico ou ilegível
// é pulado com erro logado; diretório sem nenhum arquivo carregável é fatal.
func (c *Consolidator) LoadStandardizedFiles(inputDir string) ([]yearTable, error) {
	entries, err := os.ReadDir(inputDir)
	if err != nil {
		return nil, fmt.Errorf("erro ao ler diretório %s: %v", inputDir, err)
	}

	var tables []yearTable
	totalRows := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".csv") {
			continue
		}
		stem := strings.TrimSuffix(entry.Name(), ".csv")
		year, err := strconv.Atoi(stem)
		if err != nil {
			fmt.Printf("Erro: nome de arquivo %s não é um ano, pulando\n", entry.Name())
			continue
		}

		path := filepath.Join(inputDir, entry.Name())
		f, err := os.Open(path)
		if err != nil {
			fmt.Printf("Erro ao abrir arquivo %s: %v\n", path, err)
			continue
		}
		df := dataframe.ReadCSV(f,
			dataframe.DetectTypes(false),
			dataframe.DefaultType(series.String),
			dataframe.WithLazyQuotes(true),
		)
		f.Close()
		if df.Err != nil {
			fmt.Printf("Erro ao carregar %s: %v\n", path, df.Err)
			continue
		}

		tables = append(tables, yearTable{year: year, df: df})
		totalRows += df.Nrow()
		fmt.Printf("Carregado %d: %d linhas, %d colunas\n", year, df.Nrow(), df.Ncol())
	}

	if len(tables) == 0 {
		return nil, fmt.Errorf("nenhum arquivo carregável em %s", inputDir)
	}

	sort.Slice(tables, func(i, j int) bool { return tables[i].year < tables[j].year })
	fmt.Printf("Total carregado: %d arquivos, %d linhas\n", len(tables), totalRows)
	return tables, nil
}

// ValidateSchemaConsistency calcula o conjunto de colunas comum e a taxa de
// consistência entre todas as tabelas anuais.
func (c *Consolidator) ValidateSchemaConsistency(tables []yearTable) models.SchemaReport {
	union := map[string]bool{}
	columnsByYear := map[int]map[string]bool{}

	for _, t := range tables {
		cols := map[string]bool{}
		for _, name := range t.df.Names() {
			cols[name] = true
			union[name] = true
		}
		columnsByYear[t.year] = cols
	}

	common := map[string]bool{}
	for col := range union {
		inAll := true
		for _, cols := range columnsByYear {
			if !cols[col] {
				inAll = false
				break
			}
		}
		if inAll {
			common[col] = true
		}
	}

	report := models.SchemaReport{
		TotalUniqueColumns:   len(union),
		CommonColumns:        len(common),
		CommonColumnList:     sortedKeys(common),
		FileSpecificColumns:  map[int][]string{},
		MissingColumnsByFile: map[int][]string{},
	}
	if len(union) > 0 {
		report.ConsistencyRate = float64(len(common)) / float64(len(union)) * 100
	}

	for year, cols := range columnsByYear {
		var specific, missing []string
		for col := range cols {
			if !common[col] {
				specific = append(specific, col)
			}
		}
		for col := range common {
			if !cols[col] {
				missing = append(missing, col)
			}
		}
		if len(specific) > 0 {
			sort.Strings(specific)
			report.FileSpecificColumns[year] = specific
		}
		if len(missing) > 0 {
			sort.Strings(missing)
			report.MissingColumnsByFile[year] = missing
		}
	}

	fmt.Printf("Consistência de esquema: %.1f%% (%d/%d colunas comuns)\n",
		report.ConsistencyRate, len(common), len(union))
	return report
}

// StandardizeSchemas reindexa todas as tabelas para o esquema unificado,
// inserindo colunas ausentes inteiramente vazias e fixando a ordem.
func (c *Consolidator) StandardizeSchemas(tables []yearTable) []yearTable {
	target := c.cfg.UnifiedSchema

	out := make([]yearTable, 0, len(tables))
	for _, t := range tables {
		recs := t.df.Records()
		header := recs[0]
		idx := make(map[string]int, len(header))
		for i, col := range header {
			idx[col] = i
		}

		newRecs := make([][]string, len(recs))
		newRecs[0] = append([]string(nil), target...)
		for r := 1; r < len(recs); r++ {
			row := make([]string, len(target))
			for cIdx, col := range target {
				if i, ok := idx[col]; ok && i < len(recs[r]) {
					row[cIdx] = recs[r][i]
				}
			}
			newRecs[r] = row
		}

		out = append(out, yearTable{year: t.year, df: loadStringRecords(newRecs)})
		fmt.Printf("Esquema de %d reindexado para %d colunas\n", t.year, len(target))
	}
	return out
}

// duplicateKey monta a chave de comparação de uma linha: todos os campos
// exceto o ano e colunas de controle (prefixo "_"). Os pares coluna=valor
// são ordenados pelo nome, para que arquivos anuais com as mesmas colunas
// em ordens diferentes produzam a mesma chave.
func duplicateKey(header []string, row []string) string {
	pairs := make([]string, 0, len(row))
	for i, col := range header {
		if col == "ano" || strings.HasPrefix(col, "_") || i >= len(row) {
			continue
		}
		pairs = append(pairs, col+"="+row[i])
	}
	sort.Strings(pairs)
	return strings.Join(pairs, "\x1f")
}

// DetectDuplicates marca cada linha com o ano de origem, concatena tudo e
// conta os grupos de linhas idênticas fora das colunas de ano. Classifica
// os grupos em entre-anos e mesmo-ano.
func (c *Consolidator) DetectDuplicates(tables []yearTable) models.DuplicateReport {
	type group struct {
		count int
		years map[int]bool
	}
	groups := map[string]*group{}
	total := 0

	for _, t := range tables {
		recs := t.df.Records()
		header := recs[0]
		for _, row := range recs[1:] {
			total++
			key := duplicateKey(header, row)
			g, ok := groups[key]
			if !ok {
				g = &group{years: map[int]bool{}}
				groups[key] = g
			}
			g.count++
			g.years[t.year] = true
		}
	}

	report := models.DuplicateReport{TotalRecords: total}
	for _, g := range groups {
		if g.count < 2 {
			continue
		}
		report.TotalDuplicates += g.count
		report.UniqueDuplicateGroups++
		if len(g.years) > 1 {
			report.CrossYearDuplicates += g.count
		} else {
			report.SameYearDuplicates += g.count
		}
	}
	if total > 0 {
		report.DuplicatePercentage = float64(report.TotalDuplicates) / float64(total) * 100
	}

	fmt.Printf("Duplicatas: %d de %d linhas (%.1f%%), %d entre anos, %d no mesmo ano\n",
		report.TotalDuplicates, total, report.DuplicatePercentage,
		report.CrossYearDuplicates, report.SameYearDuplicates)
	return report
}

// ResolveDuplicates concatena as tabelas aplicando a estratégia escolhida.
// keep_latest percorre os anos do maior para o menor, mantendo a primeira
// ocorrência de cada chave (empates resolvidos pela ordem original das
// linhas). keep_all apenas concatena. aggregate ainda não é uma agregação
// de verdade: cai em keep_latest com aviso explícito.
func (c *Consolidator) ResolveDuplicates(tables []yearTable, strategy string) (dataframe.DataFrame, error) {
	switch strategy {
	case StrategyKeepLatest, StrategyKeepAll:
	case StrategyAggregate:
		fmt.Println("Aviso: estratégia 'aggregate' não implementada, usando keep_latest")
		strategy = StrategyKeepLatest
	default:
		return dataframe.DataFrame{}, fmt.Errorf("estratégia de duplicatas desconhecida: %s", strategy)
	}

	if len(tables) == 0 {
		return dataframe.DataFrame{}, fmt.Errorf("nenhuma tabela para consolidar")
	}

	// Do ano mais recente para o mais antigo
	ordered := append([]yearTable(nil), tables...)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].year > ordered[j].year })

	header := append([]string(nil), ordered[0].df.Names()...)
	out := [][]string{header}
	seen := map[string]bool{}
	inputCount := 0

	for _, t := range ordered {
		recs := t.df.Records()
		for _, row := range recs[1:] {
			inputCount++
			if strategy == StrategyKeepLatest {
				key := duplicateKey(recs[0], row)
				if seen[key] {
					continue
				}
				seen[key] = true
			}
			out = append(out, alignRow(header, recs[0], row))
		}
	}

	finalCount := len(out) - 1
	fmt.Printf("Consolidação: %d linhas de entrada, %d de saída\n", inputCount, finalCount)
	return loadStringRecords(out), nil
}

// alignRow reordena uma linha do cabeçalho de origem para o de destino.
// Depois da reconciliação os cabeçalhos coincidem e isso é um passthrough.
func alignRow(target, source []string, row []string) []string {
	if len(target) == len(source) {
		same := true
		for i := range target {
			if target[i] != source[i] {
				same = false
				break
			}
		}
		if same {
			return append([]string(nil), row...)
		}
	}

	idx := make(map[string]int, len(source))
	for i, col := range source {
		idx[col] = i
	}
	aligned := make([]string, len(target))
	for i, col := range target {
		if j, ok := idx[col]; ok && j < len(row) {
			aligned[i] = row[j]
		}
	}
	return aligned
}

// ValidateConsolidated roda a validação final: contagens, completude por
// coluna e geral, duplicatas restantes e distribuição por ano.
func (c *Consolidator) ValidateConsolidated(df dataframe.DataFrame) models.FinalReport {
	recs := df.Records()
	header := recs[0]
	rows := recs[1:]

	report := models.FinalReport{
		TotalRows:            len(rows),
		TotalColumns:         len(header),
		CompletenessByColumn: map[string]float64{},
		YearDistribution:     map[string]int{},
	}

	anoIdx := -1
	for i, col := range header {
		if col == "ano" {
			anoIdx = i
		}
		missing := 0
		for _, row := range rows {
			if i >= len(row) || isMissing(row[i]) {
				missing++
			}
		}
		completeness := 100.0
		if len(rows) > 0 {
			completeness = (1 - float64(missing)/float64(len(rows))) * 100
		}
		report.CompletenessByColumn[col] = completeness
		report.OverallCompleteness += completeness
	}
	if len(header) > 0 {
		report.OverallCompleteness /= float64(len(header))
	}

	// Duplicatas de linha inteira restantes (zero esperado após keep_latest)
	seen := map[string]bool{}
	for _, row := range rows {
		key := strings.Join(row, "\x1f")
		if seen[key] {
			report.DuplicateCount++
		}
		seen[key] = true
	}

	if anoIdx >= 0 {
		for _, row := range rows {
			if anoIdx < len(row) {
				report.YearDistribution[row[anoIdx]]++
			}
		}
	}

	fmt.Printf("Dataset final: %d linhas x %d colunas, completude geral %.1f%%\n",
		report.TotalRows, report.TotalColumns, report.OverallCompleteness)
	return report
}

// SaveConsolidated grava o dataset duas vezes sob o mesmo prefixo com
// timestamp: CSV (autoritativo) e snapshot colunar Parquet (melhor esforço).
func (c *Consolidator) SaveConsolidated(df dataframe.DataFrame, outputDir string) (string, string, error) {
	if err := os.MkdirAll(outputDir, os.ModePerm); err != nil {
		return "", "", fmt.Errorf("erro ao criar diretório de saída: %v", err)
	}

	timestamp := time.Now().Format("20060102_150405")
	stem := filepath.Join(outputDir, fmt.Sprintf("fair_price_consolidated_%s", timestamp))

	csvPath := stem + ".csv"
	outFile, err := os.Create(csvPath)
	if err != nil {
		return "", "", fmt.Errorf("erro ao criar arquivo %s: %v", csvPath, err)
	}
	if err := df.WriteCSV(outFile); err != nil {
		outFile.Close()
		return "", "", fmt.Errorf("erro ao escrever CSV em %s: %v", csvPath, err)
	}
	outFile.Close()
	fmt.Printf("Arquivo %s gerado com sucesso!\n", csvPath)

	parquetPath := stem + ".parquet"
	if err := writeParquet(df, parquetPath); err != nil {
		fmt.Printf("Aviso: não foi possível gravar o Parquet: %v\n", err)
		parquetPath = ""
	} else {
		fmt.Printf("Arquivo %s gerado com sucesso!\n", parquetPath)
	}

	return csvPath, parquetPath, nil
}

// writeParquet converte a tabela para os tipos semânticos declarados e
// grava o snapshot colunar. O writer entra em pânico em esquemas que ele
// não consegue mapear; isso vira erro para o chamador tratar como aviso.
func writeParquet(df dataframe.DataFrame, path string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			os.Remove(path)
			err = fmt.Errorf("falha no writer parquet: %v", r)
		}
	}()

	recs := df.Records()
	header := recs[0]

	registros := make([]models.RegistroPreco, 0, len(recs)-1)
	for _, row := range recs[1:] {
		registros = append(registros, buildRegistro(header, row))
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := parquet.NewGenericWriter[models.RegistroPreco](f)
	if _, err := w.Write(registros); err != nil {
		w.Close()
		f.Close()
		os.Remove(path)
		return err
	}
	if err := w.Close(); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}

func buildRegistro(header []string, row []string) models.RegistroPreco {
	get := func(col string) string {
		for i, name := range header {
			if name == col && i < len(row) {
				return row[i]
			}
		}
		return ""
	}
	str := func(col string) *string {
		v := get(col)
		if isMissing(v) {
			return nil
		}
		return &v
	}
	f64 := func(col string) *float64 {
		v := get(col)
		if isMissing(v) {
			return nil
		}
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil
		}
		return &parsed
	}

	var reg models.RegistroPreco
	if v := get("ano"); !isMissing(v) {
		// Faixa de ano cabe em 16 bits, mas o parquet só tem int32 físico
		if ano, err := strconv.ParseInt(strings.TrimSpace(v), 10, 16); err == nil {
			ano32 := int32(ano)
			reg.Ano = &ano32
		}
	}
	if v := get("qtd_itens_comprados"); !isMissing(v) {
		if qtd, err := strconv.ParseInt(strings.TrimSpace(v), 10, 32); err == nil {
			qtd32 := int32(qtd)
			reg.QtdItensComprados = &qtd32
		}
	}
	if v := get("generico"); !isMissing(v) {
		switch trimLower(v) {
		case "sim", "s", "true", "1", "verdadeiro":
			b := true
			reg.Generico = &b
		case "nao", "não", "n", "false", "0", "falso":
			b := false
			reg.Generico = &b
		}
	}

	reg.CodigoBR = str("codigo_br")
	reg.DescricaoCatmat = str("descricao_catmat")
	reg.UnidadeFornecimento = str("unidade_fornecimento")
	reg.Anvisa = str("anvisa")
	reg.Compra = str("compra")
	reg.ModalidadeCompra = str("modalidade_compra")
	reg.Insercao = str("insercao")
	reg.TipoCompra = str("tipo_compra")
	reg.Fabricante = str("fabricante")
	reg.CNPJFabricante = str("cnpj_fabricante")
	reg.Fornecedor = str("fornecedor")
	reg.CNPJFornecedor = str("cnpj_fornecedor")
	reg.NomeInstituicao = str("nome_instituicao")
	reg.CNPJInstituicao = str("cnpj_instituicao")
	reg.MunicipioInstituicao = str("municipio_instituicao")
	reg.UF = str("uf")
	reg.PrecoUnitario = f64("preco_unitario")
	reg.PrecoTotal = f64("preco_total")
	return reg
}

// ConsolidateAll executa o fluxo completo: carregar, validar esquemas,
// reconciliar se preciso, detectar e resolver duplicatas, validar o
// resultado e persistir nos dois formatos.
func (c *Consolidator) ConsolidateAll(inputDir, outputDir, strategy string) (models.ConsolidationReport, error) {
	start := time.Now()
	fmt.Println("Iniciando consolidação dos dados padronizados...")

	tables, err := c.LoadStandardizedFiles(inputDir)
	if err != nil {
		return models.ConsolidationReport{}, err
	}

	schemaReport := c.ValidateSchemaConsistency(tables)
	if schemaReport.ConsistencyRate < 100 {
		tables = c.StandardizeSchemas(tables)
	}

	duplicateReport := c.DetectDuplicates(tables)

	consolidated, err := c.ResolveDuplicates(tables, strategy)
	if err != nil {
		return models.ConsolidationReport{}, err
	}

	finalReport := c.ValidateConsolidated(consolidated)

	csvPath, parquetPath, err := c.SaveConsolidated(consolidated, outputDir)
	if err != nil {
		return models.ConsolidationReport{}, err
	}

	elapsed := time.Since(start).Seconds()
	report := models.ConsolidationReport{
		ConsolidationTimestamp: time.Now().Format(time.RFC3339),
		ProcessingTimeSeconds:  elapsed,
		SchemaValidation:       schemaReport,
		DuplicateDetection:     duplicateReport,
		FinalValidation:        finalReport,
		CSVFile:                csvPath,
		ParquetFile:            parquetPath,
	}

	fmt.Printf("Consolidação concluída em %.2fs: %d registros finais\n", elapsed, finalReport.TotalRows)
	return report, nil
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
