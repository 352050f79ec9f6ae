package models

// Agregados servidos pelos endpoints de dashboard

type PrecoTotalAno struct {
	Ano   int     `json:"ano"`
	Total float64 `json:"total"`
}

type TopFornecedor struct {
	Fornecedor string  `json:"fornecedor"`
	Total      float64 `json:"total"`
}

type TopMedicamento struct {
	DescricaoCatmat string  `json:"descricao_catmat"`
	Quantidade      int64   `json:"quantidade"`
	Total           float64 `json:"total"`
}

type ResumoConsolidado struct {
	TotalRegistros     int64   `json:"total_registros"`
	TotalFornecedores  int64   `json:"total_fornecedores"`
	TotalInstituicoes  int64   `json:"total_instituicoes"`
	PrecoUnitarioMedio float64 `json:"preco_unitario_medio"`
	ValorTotalComprado float64 `json:"valor_total_comprado"`
}
