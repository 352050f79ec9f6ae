package models

// RegistroPreco é uma linha do dataset consolidado no esquema unificado,
// com os tipos semânticos declarados para o snapshot colunar. Os
// identificadores (CNPJ, ANVISA, código BR) ficam como string crua para
// preservar zeros à esquerda. Campos ausentes são ponteiros nulos.
type RegistroPreco struct {
	Ano                  *int32   `parquet:"ano,optional" json:"ano"`
	CodigoBR             *string  `parquet:"codigo_br,optional" json:"codigo_br"`
	DescricaoCatmat      *string  `parquet:"descricao_catmat,optional" json:"descricao_catmat"`
	UnidadeFornecimento  *string  `parquet:"unidade_fornecimento,optional" json:"unidade_fornecimento"`
	Generico             *bool    `parquet:"generico,optional" json:"generico"`
	Anvisa               *string  `parquet:"anvisa,optional" json:"anvisa"`
	Compra               *string  `parquet:"compra,optional" json:"compra"`
	ModalidadeCompra     *string  `parquet:"modalidade_compra,optional" json:"modalidade_compra"`
	Insercao             *string  `parquet:"insercao,optional" json:"insercao"`
	TipoCompra           *string  `parquet:"tipo_compra,optional" json:"tipo_compra"`
	Fabricante           *string  `parquet:"fabricante,optional" json:"fabricante"`
	CNPJFabricante       *string  `parquet:"cnpj_fabricante,optional" json:"cnpj_fabricante"`
	Fornecedor           *string  `parquet:"fornecedor,optional" json:"fornecedor"`
	CNPJFornecedor       *string  `parquet:"cnpj_fornecedor,optional" json:"cnpj_fornecedor"`
	NomeInstituicao      *string  `parquet:"nome_instituicao,optional" json:"nome_instituicao"`
	CNPJInstituicao      *string  `parquet:"cnpj_instituicao,optional" json:"cnpj_instituicao"`
	MunicipioInstituicao *string  `parquet:"municipio_instituicao,optional" json:"municipio_instituicao"`
	UF                   *string  `parquet:"uf,optional" json:"uf"`
	QtdItensComprados    *int32   `parquet:"qtd_itens_comprados,optional" json:"qtd_itens_comprados"`
	PrecoUnitario        *float64 `parquet:"preco_unitario,optional" json:"preco_unitario"`
	PrecoTotal           *float64 `parquet:"preco_total,optional" json:"preco_total"`
}
