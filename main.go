package main

import (
	"encoding/json"
	"fmt"
	"os"
)

const tabelaConsolidada = "registros_precos"

func menu() {
	fmt.Println("\nSelecione uma opção:")
	fmt.Println("1 - Baixar os CSVs anuais do banco de preços em saúde")
	fmt.Println("2 - Padronizar os CSVs brutos (limpeza + validação)")
	fmt.Println("3 - Consolidar os arquivos padronizados (keep_latest)")
	fmt.Println("4 - Importar o consolidado para o Postgres")
	fmt.Println("5 - Ligar servidor de consulta na porta 8080")
	fmt.Println("0 - Sair")
	fmt.Print("Digite 1, 2, 3, 4, 5 ou 0: ")
}

func main() {
	cfg := NewConfig()

	menu()
	var escolha int
	_, err := fmt.Scan(&escolha)
	if err != nil {
		fmt.Println("Erro ao ler opção:", err)
		return
	}

	for {
		switch escolha {
		case 1:
			runDownloads(cfg)
			fmt.Println("CSVs anuais baixados com sucesso.")
		case 2:
			processor := NewStandardizationProcessor(cfg)
			reports := processor.StandardizeAll()
			fmt.Printf("Padronização concluída: %d arquivos processados.\n", len(reports))
			if err := salvaRelatorio(reports, "standardization_report.json"); err != nil {
				fmt.Println("Erro ao salvar relatório:", err)
			}
		case 3:
			consolidator := NewConsolidator(cfg)
			report, err := consolidator.ConsolidateAll(cfg.ProcessedDataDir, cfg.OutputDataDir, StrategyKeepLatest)
			if err != nil {
				fmt.Println("Erro na consolidação:", err)
				break
			}
			if err := salvaRelatorio(report, "consolidation_report.json"); err != nil {
				fmt.Println("Erro ao salvar relatório:", err)
			}
		case 4:
			if err := importaConsolidado(cfg, tabelaConsolidada); err != nil {
				fmt.Println("Erro na importação:", err)
			}
		case 5:
			startServer()
		case 0:
			fmt.Println("Saindo...")
			return
		default:
			fmt.Println("Opção inválida.")
		}

		menu()
		_, err := fmt.Scan(&escolha)
		if err != nil {
			fmt.Println("Erro ao ler opção:", err)
			return
		}
	}
}

// salvaRelatorio grava o relatório de uma etapa como JSON indentado
func salvaRelatorio(report interface{}, file string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(file, data, 0644); err != nil {
		return err
	}
	fmt.Printf("Relatório salvo em %s\n", file)
	return nil
}
