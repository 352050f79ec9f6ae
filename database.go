package main

import (
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "github.com/lib/pq"
)

func conectaDB() (*sql.DB, error) {
	cred, err := loadDBCredentials()
	if err != nil {
		return nil, err
	}

	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cred.Host, cred.Port, cred.User, cred.Password, cred.Database)
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("erro ao abrir conexão com banco de dados: %v", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("erro ao conectar com banco de dados: %v", err)
	}

	return db, nil
}

// executarConsulta executa uma consulta SQL genérica a partir de um arquivo
func executarConsulta(db *sql.DB, arquivoSQL string) (*sql.Rows, error) {
	sqlBytes, err := os.ReadFile(arquivoSQL)
	if err != nil {
		return nil, fmt.Errorf("erro ao ler arquivo SQL: %v", err)
	}

	query := strings.TrimSpace(string(sqlBytes))

	rows, err := db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("erro ao executar consulta: %v", err)
	}

	return rows, nil
}

func executarConsultaWithParams(db *sql.DB, arquivoSQL string, params []interface{}) (*sql.Rows, error) {
	sqlBytes, err := os.ReadFile(arquivoSQL)
	if err != nil {
		return nil, fmt.Errorf("erro ao ler arquivo SQL: %v", err)
	}

	query := strings.TrimSpace(string(sqlBytes))

	rows, err := db.Query(query, params...)
	if err != nil {
		return nil, fmt.Errorf("erro ao executar consulta: %v", err)
	}

	return rows, nil
}

// importaConsolidado localiza o CSV consolidado mais recente e carrega tudo
// na tabela indicada do Postgres.
func importaConsolidado(cfg *Config, tableName string) error {
	csvFile, err := latestConsolidatedCSV(cfg.OutputDataDir)
	if err != nil {
		return err
	}
	fmt.Printf("Importando %s para a tabela %s...\n", csvFile, tableName)

	db, err := conectaDB()
	if err != nil {
		return err
	}
	defer db.Close()

	if err := createConsolidatedTable(db, csvFile, tableName); err != nil {
		return err
	}

	if err := importCSV(db, csvFile, tableName); err != nil {
		return err
	}

	fmt.Println("✓ Tabela e dados criados com sucesso!")
	return nil
}

// latestConsolidatedCSV devolve o consolidado mais novo do diretório de
// saída. O timestamp no nome ordena lexicograficamente.
func latestConsolidatedCSV(outputDir string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(outputDir, "fair_price_consolidated_*.csv"))
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("nenhum arquivo consolidado encontrado em %s", outputDir)
	}
	sort.Strings(matches)
	return matches[len(matches)-1], nil
}

// createConsolidatedTable cria a tabela com tipos derivados do nome de cada
// coluna. Colunas de CNPJ são sempre TEXT para preservar zeros à esquerda.
func createConsolidatedTable(db *sql.DB, csvFile, tableName string) error {
	f, err := os.Open(csvFile)
	if err != nil {
		return fmt.Errorf("erro ao abrir CSV: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return fmt.Errorf("erro ao ler cabeçalho: %w", err)
	}

	var columns []string
	for _, colName := range header {
		columns = append(columns, fmt.Sprintf("%s %s", colName, columnType(colName)))
	}

	createSQL := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s\n)",
		tableName,
		strings.Join(columns, ",\n  "))

	if _, err := db.Exec(createSQL); err != nil {
		return fmt.Errorf("erro ao criar tabela: %w", err)
	}

	fmt.Printf("✓ Tabela '%s' criada com %d colunas\n", tableName, len(header))
	return nil
}

// columnType mapeia o nome padronizado da coluna para o tipo SQL. Os nomes
// já passaram pela padronização, então o prefixo basta.
func columnType(name string) string {
	name = strings.ToLower(name)
	switch {
	case strings.Contains(name, "cnpj"):
		return "TEXT"
	case name == "ano":
		return "SMALLINT"
	case strings.Contains(name, "preco"):
		return "DOUBLE PRECISION"
	case name == "qtd_itens_comprados":
		return "INTEGER"
	default:
		return "TEXT"
	}
}

// importCSV importa os dados usando INSERT em lotes dentro de uma transação
func importCSV(db *sql.DB, csvFile, tableName string) error {
	f, err := os.Open(csvFile)
	if err != nil {
		return err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return err
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	batch := [][]string{}
	batchSize := 1000
	recordCount := 0

	for {
		record, err := reader.Read()
		if err == io.EOF {
			if len(batch) > 0 {
				if err := insertBatch(tx, tableName, header, batch); err != nil {
					return err
				}
				recordCount += len(batch)
			}
			break
		}
		if err != nil {
			return fmt.Errorf("erro ao ler registro: %w", err)
		}

		batch = append(batch, record)

		if len(batch) >= batchSize {
			if err := insertBatch(tx, tableName, header, batch); err != nil {
				return err
			}
			recordCount += len(batch)
			fmt.Printf("\r✓ Importados %d registros...", recordCount)
			batch = batch[:0]
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	fmt.Printf("\r✓ Importados %d registros no total\n", recordCount)
	return nil
}

func insertBatch(tx *sql.Tx, tableName string, header []string, batch [][]string) error {
	if len(batch) == 0 {
		return nil
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES ",
		tableName,
		strings.Join(header, ", "))

	var values []interface{}
	for i, record := range batch {
		if i > 0 {
			query += ", "
		}
		query += "("
		for j, val := range record {
			if j > 0 {
				query += ", "
			}
			query += fmt.Sprintf("$%d", len(values)+1)
			valTrimmed := strings.TrimSpace(val)
			// Valores vazios e nulos entram como NULL
			if isMissing(valTrimmed) {
				values = append(values, nil)
			} else {
				values = append(values, valTrimmed)
			}
		}
		query += ")"
	}

	_, err := tx.Exec(query, values...)
	return err
}
