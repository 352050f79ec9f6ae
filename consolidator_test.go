package main

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeYearCSV(t *testing.T, dir, name string, rows [][]string) {
	t.Helper()
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		t.Fatal(err)
	}
}

func TestLoadStandardizedFiles(t *testing.T) {
	dir := t.TempDir()
	writeYearCSV(t, dir, "2024.csv", [][]string{
		{"ano", "codigo_br"},
		{"2024", "100"},
	})
	writeYearCSV(t, dir, "2023.csv", [][]string{
		{"ano", "codigo_br"},
		{"2023", "100"},
		{"2023", "200"},
	})
	writeYearCSV(t, dir, "notas.csv", [][]string{
		{"ano", "codigo_br"},
		{"0", "0"},
	})
	if err := os.WriteFile(filepath.Join(dir, "leia-me.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	c := NewConsolidator(NewConfig())
	tables, err := c.LoadStandardizedFiles(dir)
	if err != nil {
		t.Fatalf("LoadStandardizedFiles falhou: %v", err)
	}

	if len(tables) != 2 {
		t.Fatalf("esperadas 2 tabelas (stem não numérico pulado), obtidas %d", len(tables))
	}
	if tables[0].year != 2023 || tables[1].year != 2024 {
		t.Errorf("tabelas fora de ordem: %d, %d", tables[0].year, tables[1].year)
	}
	if tables[0].df.Nrow() != 2 {
		t.Errorf("2023 deveria ter 2 linhas, tem %d", tables[0].df.Nrow())
	}
}

func TestLoadStandardizedFilesDiretorioVazio(t *testing.T) {
	c := NewConsolidator(NewConfig())
	if _, err := c.LoadStandardizedFiles(t.TempDir()); err == nil {
		t.Fatal("diretório sem arquivos carregáveis deveria falhar")
	}
}

func TestValidateSchemaConsistency(t *testing.T) {
	c := NewConsolidator(NewConfig())

	iguais := []yearTable{
		{year: 2023, df: loadStringRecords([][]string{{"ano", "codigo_br"}, {"2023", "1"}})},
		{year: 2024, df: loadStringRecords([][]string{{"ano", "codigo_br"}, {"2024", "1"}})},
	}
	report := c.ValidateSchemaConsistency(iguais)
	if report.ConsistencyRate != 100 {
		t.Errorf("esquemas idênticos deveriam dar 100%%, obtido %v", report.ConsistencyRate)
	}

	diferentes := []yearTable{
		{year: 2023, df: loadStringRecords([][]string{{"ano", "codigo_br", "uf"}, {"2023", "1", "SP"}})},
		{year: 2024, df: loadStringRecords([][]string{{"ano", "codigo_br", "fornecedor"}, {"2024", "1", "ACME"}})},
	}
	report = c.ValidateSchemaConsistency(diferentes)
	// 2 comuns de 4 únicas
	if report.ConsistencyRate != 50 {
		t.Errorf("taxa = %v, esperado 50", report.ConsistencyRate)
	}
	if got := report.FileSpecificColumns[2023]; len(got) != 1 || got[0] != "uf" {
		t.Errorf("colunas específicas de 2023 = %v, esperado [uf]", got)
	}
	if got := report.MissingColumnsByFile[2024]; len(got) != 0 {
		t.Errorf("2024 não deveria ter colunas comuns ausentes: %v", got)
	}
}

func TestStandardizeSchemas(t *testing.T) {
	cfg := NewConfig()
	c := NewConsolidator(cfg)

	tables := []yearTable{
		{year: 2023, df: loadStringRecords([][]string{
			{"codigo_br", "ano", "coluna_estranha"},
			{"100", "2023", "x"},
		})},
	}

	out := c.StandardizeSchemas(tables)
	names := out[0].df.Names()
	if len(names) != len(cfg.UnifiedSchema) {
		t.Fatalf("esperadas %d colunas, obtidas %d", len(cfg.UnifiedSchema), len(names))
	}
	for i, col := range cfg.UnifiedSchema {
		if names[i] != col {
			t.Fatalf("coluna %d = %q, esperada %q", i, names[i], col)
		}
	}

	recs := out[0].df.Records()
	idx := map[string]int{}
	for i, col := range recs[0] {
		idx[col] = i
	}
	if recs[1][idx["codigo_br"]] != "100" || recs[1][idx["ano"]] != "2023" {
		t.Errorf("valores existentes deveriam ser preservados: %v", recs[1])
	}
	if recs[1][idx["uf"]] != "" {
		t.Errorf("coluna ausente deveria ficar vazia, obtido %q", recs[1][idx["uf"]])
	}
}

func TestDetectDuplicates(t *testing.T) {
	c := NewConsolidator(NewConfig())
	tables := []yearTable{
		{year: 2023, df: loadStringRecords([][]string{
			{"ano", "codigo_br", "preco_unitario"},
			{"2023", "100", "5"},
			{"2023", "200", "7"},
			{"2023", "200", "7"},
		})},
		{year: 2024, df: loadStringRecords([][]string{
			{"ano", "codigo_br", "preco_unitario"},
			{"2024", "100", "5"},
			{"2024", "300", "9"},
		})},
	}

	report := c.DetectDuplicates(tables)
	if report.TotalRecords != 5 {
		t.Errorf("total = %d, esperado 5", report.TotalRecords)
	}
	// codigo 100 repete entre anos (2 linhas), codigo 200 dentro de 2023 (2 linhas)
	if report.TotalDuplicates != 4 {
		t.Errorf("duplicatas = %d, esperado 4", report.TotalDuplicates)
	}
	if report.CrossYearDuplicates != 2 {
		t.Errorf("entre anos = %d, esperado 2", report.CrossYearDuplicates)
	}
	if report.SameYearDuplicates != 2 {
		t.Errorf("mesmo ano = %d, esperado 2", report.SameYearDuplicates)
	}
	if report.UniqueDuplicateGroups != 2 {
		t.Errorf("grupos = %d, esperado 2", report.UniqueDuplicateGroups)
	}
}

func TestResolveDuplicatesKeepLatest(t *testing.T) {
	c := NewConsolidator(NewConfig())
	tables := []yearTable{
		{year: 2023, df: loadStringRecords([][]string{
			{"ano", "codigo_br", "preco_unitario"},
			{"2023", "100", "5"},
			{"2023", "200", "7"},
		})},
		{year: 2024, df: loadStringRecords([][]string{
			{"ano", "codigo_br", "preco_unitario"},
			{"2024", "100", "5"},
		})},
	}

	df, err := c.ResolveDuplicates(tables, StrategyKeepLatest)
	if err != nil {
		t.Fatalf("ResolveDuplicates falhou: %v", err)
	}

	recs := df.Records()
	if len(recs)-1 != 2 {
		t.Fatalf("esperadas 2 linhas após keep_latest, obtidas %d", len(recs)-1)
	}

	// O registro duplicado sobrevive com o ano mais recente
	found := false
	for _, row := range recs[1:] {
		if row[1] == "100" {
			found = true
			if row[0] != "2024" {
				t.Errorf("sobrevivente do codigo 100 com ano %q, esperado 2024", row[0])
			}
		}
	}
	if !found {
		t.Error("registro do codigo 100 sumiu da consolidação")
	}
}

func TestDuplicatesComColunasEmOrdensDiferentes(t *testing.T) {
	// Mesmos campos, cabeçalhos em ordens diferentes entre os anos:
	// a chave de duplicata não pode depender da ordem das colunas
	c := NewConsolidator(NewConfig())
	tables := []yearTable{
		{year: 2023, df: loadStringRecords([][]string{
			{"ano", "codigo_br", "uf"},
			{"2023", "100", "SP"},
		})},
		{year: 2024, df: loadStringRecords([][]string{
			{"uf", "codigo_br", "ano"},
			{"SP", "100", "2024"},
		})},
	}

	report := c.DetectDuplicates(tables)
	if report.CrossYearDuplicates != 2 {
		t.Errorf("duplicatas entre anos = %d, esperado 2", report.CrossYearDuplicates)
	}

	df, err := c.ResolveDuplicates(tables, StrategyKeepLatest)
	if err != nil {
		t.Fatalf("ResolveDuplicates falhou: %v", err)
	}
	recs := df.Records()
	if len(recs)-1 != 1 {
		t.Fatalf("esperada 1 linha após keep_latest, obtidas %d", len(recs)-1)
	}

	idx := map[string]int{}
	for i, col := range recs[0] {
		idx[col] = i
	}
	if got := recs[1][idx["ano"]]; got != "2024" {
		t.Errorf("sobrevivente com ano %q, esperado 2024", got)
	}
	if got := recs[1][idx["uf"]]; got != "SP" {
		t.Errorf("sobrevivente com uf %q, esperado SP", got)
	}
}

func TestResolveDuplicatesKeepAll(t *testing.T) {
	c := NewConsolidator(NewConfig())
	tables := []yearTable{
		{year: 2023, df: loadStringRecords([][]string{
			{"ano", "codigo_br"},
			{"2023", "100"},
		})},
		{year: 2024, df: loadStringRecords([][]string{
			{"ano", "codigo_br"},
			{"2024", "100"},
		})},
	}

	df, err := c.ResolveDuplicates(tables, StrategyKeepAll)
	if err != nil {
		t.Fatalf("ResolveDuplicates falhou: %v", err)
	}
	if df.Nrow() != 2 {
		t.Errorf("keep_all deveria manter as 2 linhas, obtidas %d", df.Nrow())
	}
}

func TestResolveDuplicatesEstrategiaDesconhecida(t *testing.T) {
	c := NewConsolidator(NewConfig())
	tables := []yearTable{
		{year: 2023, df: loadStringRecords([][]string{{"ano", "codigo_br"}, {"2023", "100"}})},
	}
	if _, err := c.ResolveDuplicates(tables, "drop_all"); err == nil {
		t.Fatal("estratégia desconhecida deveria falhar")
	}
}

func TestValidateConsolidated(t *testing.T) {
	c := NewConsolidator(NewConfig())
	df := loadStringRecords([][]string{
		{"ano", "codigo_br", "uf"},
		{"2023", "100", "SP"},
		{"2023", "200", ""},
		{"2024", "300", "null"},
	})

	report := c.ValidateConsolidated(df)
	if report.TotalRows != 3 || report.TotalColumns != 3 {
		t.Fatalf("dimensões = %dx%d, esperado 3x3", report.TotalRows, report.TotalColumns)
	}
	if got := report.CompletenessByColumn["uf"]; got < 33.0 || got > 33.5 {
		t.Errorf("completude de uf = %v, esperado ~33.3", got)
	}
	if got := report.CompletenessByColumn["ano"]; got != 100 {
		t.Errorf("completude de ano = %v, esperado 100", got)
	}
	if report.DuplicateCount != 0 {
		t.Errorf("sem linhas idênticas, duplicatas = %d", report.DuplicateCount)
	}
	if report.YearDistribution["2023"] != 2 || report.YearDistribution["2024"] != 1 {
		t.Errorf("distribuição por ano inesperada: %v", report.YearDistribution)
	}
}

func TestWriteParquet(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "snapshot.parquet")

	df := loadStringRecords([][]string{
		{"ano", "codigo_br", "cnpj_fornecedor", "preco_unitario", "qtd_itens_comprados"},
		{"2023", "100", "11222333000181", "10.5", "3"},
		{"2024", "", "null", "", ""},
	})

	if err := writeParquet(df, path); err != nil {
		t.Fatalf("writeParquet falhou: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("snapshot não criado: %v", err)
	}
	if info.Size() == 0 {
		t.Error("snapshot criado vazio")
	}
}

func TestBuildRegistro(t *testing.T) {
	header := []string{"ano", "codigo_br", "preco_unitario", "qtd_itens_comprados", "generico"}
	row := []string{"2023", "100", "10.5", "3", "sim"}

	reg := buildRegistro(header, row)
	if reg.Ano == nil || *reg.Ano != 2023 {
		t.Errorf("ano = %v, esperado 2023", reg.Ano)
	}
	if reg.CodigoBR == nil || *reg.CodigoBR != "100" {
		t.Errorf("codigo_br = %v, esperado 100", reg.CodigoBR)
	}
	if reg.PrecoUnitario == nil || *reg.PrecoUnitario != 10.5 {
		t.Errorf("preco_unitario = %v, esperado 10.5", reg.PrecoUnitario)
	}
	if reg.QtdItensComprados == nil || *reg.QtdItensComprados != 3 {
		t.Errorf("qtd_itens_comprados = %v, esperado 3", reg.QtdItensComprados)
	}
	if reg.Generico == nil || !*reg.Generico {
		t.Errorf("generico = %v, esperado true", reg.Generico)
	}

	vazio := buildRegistro(header, []string{"nan", "null", "", "", "n/a"})
	if vazio.Ano != nil || vazio.CodigoBR != nil || vazio.PrecoUnitario != nil {
		t.Errorf("valores nulos deveriam virar ponteiros nulos: %+v", vazio)
	}
}

func TestConsolidateAll(t *testing.T) {
	inputDir := t.TempDir()
	outputDir := t.TempDir()

	writeYearCSV(t, inputDir, "2023.csv", [][]string{
		{"ano", "codigo_br", "preco_unitario"},
		{"2023", "100", "5"},
		{"2023", "200", "7"},
	})
	writeYearCSV(t, inputDir, "2024.csv", [][]string{
		{"ano", "codigo_br", "preco_unitario"},
		{"2024", "100", "5"},
		{"2024", "300", "9"},
	})

	c := NewConsolidator(NewConfig())
	report, err := c.ConsolidateAll(inputDir, outputDir, StrategyKeepLatest)
	if err != nil {
		t.Fatalf("ConsolidateAll falhou: %v", err)
	}

	if report.FinalValidation.TotalRows != 3 {
		t.Errorf("linhas finais = %d, esperado 3 (codigo 100 deduplicado)", report.FinalValidation.TotalRows)
	}
	if report.DuplicateDetection.CrossYearDuplicates != 2 {
		t.Errorf("duplicatas entre anos = %d, esperado 2", report.DuplicateDetection.CrossYearDuplicates)
	}
	if report.CSVFile == "" || !strings.HasPrefix(filepath.Base(report.CSVFile), "fair_price_consolidated_") {
		t.Errorf("nome do CSV consolidado inesperado: %q", report.CSVFile)
	}
	if _, err := os.Stat(report.CSVFile); err != nil {
		t.Errorf("CSV consolidado não encontrado: %v", err)
	}
	if report.ParquetFile == "" {
		t.Error("snapshot parquet deveria ter sido gravado")
	} else if _, err := os.Stat(report.ParquetFile); err != nil {
		t.Errorf("snapshot parquet anunciado mas ausente: %v", err)
	}
}
