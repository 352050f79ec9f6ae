package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"fairprice/models"
)

// corsMiddleware adiciona headers CORS para aceitar requisições de qualquer origem
func corsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next(w, r)
	}
}

func startServer() {
	http.HandleFunc("/registros", corsMiddleware(registrosHandler))
	http.HandleFunc("/dashboard/precos/totalPorAno", corsMiddleware(precoTotalPorAnoHandler))
	http.HandleFunc("/dashboard/precos/top10Fornecedores", corsMiddleware(top10FornecedoresHandler))
	http.HandleFunc("/dashboard/precos/top10Medicamentos", corsMiddleware(top10MedicamentosHandler))
	http.HandleFunc("/dashboard/precos/resumo", corsMiddleware(resumoHandler))
	fmt.Println("Servidor iniciado em :8080")
	fmt.Println("Acesse: http://localhost:8080/registros")
	http.ListenAndServe(":8080", nil)
}

// registrosHandler lista registros consolidados, com filtros opcionais por
// codigo_br, uf e ano via query string.
func registrosHandler(w http.ResponseWriter, r *http.Request) {
	db, err := conectaDB()
	if err != nil {
		http.Error(w, "Erro ao conectar ao banco de dados: "+err.Error(), http.StatusInternalServerError)
		return
	}
	defer db.Close()

	codigoBR := r.URL.Query().Get("codigo_br")
	uf := r.URL.Query().Get("uf")
	ano := 0
	if v := r.URL.Query().Get("ano"); v != "" {
		ano, err = strconv.Atoi(v)
		if err != nil {
			http.Error(w, "Parâmetro ano inválido: "+v, http.StatusBadRequest)
			return
		}
	}

	var rows *sql.Rows
	if codigoBR == "" && uf == "" && ano == 0 {
		rows, err = executarConsulta(db, "sql/registros_preco.sql")
	} else {
		rows, err = executarConsultaWithParams(db, "sql/registros_preco_filtro.sql",
			[]interface{}{codigoBR, uf, ano})
	}
	if err != nil {
		http.Error(w, "Erro ao executar consulta: "+err.Error(), http.StatusInternalServerError)
		return
	}
	defer rows.Close()

	var registros []models.RegistroPreco
	for rows.Next() {
		var reg models.RegistroPreco
		err = rows.Scan(
			&reg.Ano,
			&reg.CodigoBR,
			&reg.DescricaoCatmat,
			&reg.UnidadeFornecimento,
			&reg.Fabricante,
			&reg.CNPJFabricante,
			&reg.Fornecedor,
			&reg.CNPJFornecedor,
			&reg.NomeInstituicao,
			&reg.CNPJInstituicao,
			&reg.MunicipioInstituicao,
			&reg.UF,
			&reg.QtdItensComprados,
			&reg.PrecoUnitario,
			&reg.PrecoTotal,
		)
		if err != nil {
			http.Error(w, "Erro ao fazer scan dos dados: "+err.Error(), http.StatusInternalServerError)
			return
		}
		registros = append(registros, reg)
	}

	if err = rows.Err(); err != nil {
		http.Error(w, "Erro durante iteração das linhas: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(registros); err != nil {
		http.Error(w, "Erro ao codificar JSON: "+err.Error(), http.StatusInternalServerError)
		return
	}
}

func precoTotalPorAnoHandler(w http.ResponseWriter, r *http.Request) {
	db, err := conectaDB()
	if err != nil {
		http.Error(w, "Erro ao conectar ao banco de dados: "+err.Error(), http.StatusInternalServerError)
		return
	}
	defer db.Close()

	rows, err := executarConsulta(db, "sql/preco_total_por_ano.sql")
	if err != nil {
		http.Error(w, "Erro ao executar consulta: "+err.Error(), http.StatusInternalServerError)
		return
	}
	defer rows.Close()

	var totais []models.PrecoTotalAno
	for rows.Next() {
		var total models.PrecoTotalAno
		err = rows.Scan(
			&total.Ano,
			&total.Total,
		)
		if err != nil {
			http.Error(w, "Erro ao fazer scan dos dados: "+err.Error(), http.StatusInternalServerError)
			return
		}
		totais = append(totais, total)
	}

	if err = rows.Err(); err != nil {
		http.Error(w, "Erro durante iteração das linhas: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(totais); err != nil {
		http.Error(w, "Erro ao codificar JSON: "+err.Error(), http.StatusInternalServerError)
		return
	}
}

func top10FornecedoresHandler(w http.ResponseWriter, r *http.Request) {
	db, err := conectaDB()
	if err != nil {
		http.Error(w, "Erro ao conectar ao banco de dados: "+err.Error(), http.StatusInternalServerError)
		return
	}
	defer db.Close()

	rows, err := executarConsulta(db, "sql/top_10_fornecedores.sql")
	if err != nil {
		http.Error(w, "Erro ao executar consulta: "+err.Error(), http.StatusInternalServerError)
		return
	}
	defer rows.Close()

	var fornecedores []models.TopFornecedor
	for rows.Next() {
		var fornecedor models.TopFornecedor
		err = rows.Scan(
			&fornecedor.Fornecedor,
			&fornecedor.Total,
		)
		if err != nil {
			http.Error(w, "Erro ao fazer scan dos dados: "+err.Error(), http.StatusInternalServerError)
			return
		}
		fornecedores = append(fornecedores, fornecedor)
	}

	if err = rows.Err(); err != nil {
		http.Error(w, "Erro durante iteração das linhas: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(fornecedores); err != nil {
		http.Error(w, "Erro ao codificar JSON: "+err.Error(), http.StatusInternalServerError)
		return
	}
}

func top10MedicamentosHandler(w http.ResponseWriter, r *http.Request) {
	db, err := conectaDB()
	if err != nil {
		http.Error(w, "Erro ao conectar ao banco de dados: "+err.Error(), http.StatusInternalServerError)
		return
	}
	defer db.Close()

	rows, err := executarConsulta(db, "sql/top_10_medicamentos.sql")
	if err != nil {
		http.Error(w, "Erro ao executar consulta: "+err.Error(), http.StatusInternalServerError)
		return
	}
	defer rows.Close()

	var medicamentos []models.TopMedicamento
	for rows.Next() {
		var medicamento models.TopMedicamento
		err = rows.Scan(
			&medicamento.DescricaoCatmat,
			&medicamento.Quantidade,
			&medicamento.Total,
		)
		if err != nil {
			http.Error(w, "Erro ao fazer scan dos dados: "+err.Error(), http.StatusInternalServerError)
			return
		}
		medicamentos = append(medicamentos, medicamento)
	}

	if err = rows.Err(); err != nil {
		http.Error(w, "Erro durante iteração das linhas: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(medicamentos); err != nil {
		http.Error(w, "Erro ao codificar JSON: "+err.Error(), http.StatusInternalServerError)
		return
	}
}

func resumoHandler(w http.ResponseWriter, r *http.Request) {
	db, err := conectaDB()
	if err != nil {
		http.Error(w, "Erro ao conectar ao banco de dados: "+err.Error(), http.StatusInternalServerError)
		return
	}
	defer db.Close()

	rows, err := executarConsulta(db, "sql/resumo_consolidado.sql")
	if err != nil {
		http.Error(w, "Erro ao executar consulta: "+err.Error(), http.StatusInternalServerError)
		return
	}
	defer rows.Close()

	var resumo models.ResumoConsolidado
	if rows.Next() {
		err = rows.Scan(
			&resumo.TotalRegistros,
			&resumo.TotalFornecedores,
			&resumo.TotalInstituicoes,
			&resumo.PrecoUnitarioMedio,
			&resumo.ValorTotalComprado,
		)
		if err != nil {
			http.Error(w, "Erro ao fazer scan dos dados: "+err.Error(), http.StatusInternalServerError)
			return
		}
	}

	if err = rows.Err(); err != nil {
		http.Error(w, "Erro durante iteração das linhas: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(resumo); err != nil {
		http.Error(w, "Erro ao codificar JSON: "+err.Error(), http.StatusInternalServerError)
		return
	}
}
