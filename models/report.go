package models

// FileReport resume o processamento de um arquivo anual na padronização.
type FileReport struct {
	FileName              string  `json:"file_name"`
	RowsInput             int     `json:"rows_input"`
	RowsOutput            int     `json:"rows_output"`
	ColumnsInput          int     `json:"columns_input"`
	ColumnsOutput         int     `json:"columns_output"`
	AverageQualityScore   float64 `json:"average_quality_score"`
	HighQualityRows       int     `json:"high_quality_rows"`
	ProcessingTimeSeconds float64 `json:"processing_time_seconds"`
	InputFile             string  `json:"input_file"`
	OutputFile            string  `json:"output_file"`
}

// SchemaReport descreve a consistência de colunas entre os arquivos anuais.
type SchemaReport struct {
	TotalUniqueColumns   int              `json:"total_unique_columns"`
	CommonColumns        int              `json:"common_columns"`
	CommonColumnList     []string         `json:"common_column_list"`
	ConsistencyRate      float64          `json:"consistency_rate"`
	FileSpecificColumns  map[int][]string `json:"file_specific_columns"`
	MissingColumnsByFile map[int][]string `json:"missing_columns_by_file"`
}

// DuplicateReport descreve as duplicatas encontradas entre os anos.
type DuplicateReport struct {
	TotalRecords          int     `json:"total_records"`
	TotalDuplicates       int     `json:"total_duplicates"`
	DuplicatePercentage   float64 `json:"duplicate_percentage"`
	UniqueDuplicateGroups int     `json:"unique_duplicate_groups"`
	CrossYearDuplicates   int     `json:"cross_year_duplicates"`
	SameYearDuplicates    int     `json:"same_year_duplicates"`
}

// FinalReport valida o dataset consolidado final.
type FinalReport struct {
	TotalRows            int                `json:"total_rows"`
	TotalColumns         int                `json:"total_columns"`
	CompletenessByColumn map[string]float64 `json:"completeness_by_column"`
	OverallCompleteness  float64            `json:"overall_completeness"`
	DuplicateCount       int                `json:"duplicate_count"`
	YearDistribution     map[string]int     `json:"year_distribution"`
}

// ConsolidationReport agrega os relatórios de todas as etapas da consolidação.
type ConsolidationReport struct {
	ConsolidationTimestamp string          `json:"consolidation_timestamp"`
	ProcessingTimeSeconds  float64         `json:"processing_time_seconds"`
	SchemaValidation       SchemaReport    `json:"schema_validation"`
	DuplicateDetection     DuplicateReport `json:"duplicate_detection"`
	FinalValidation        FinalReport     `json:"final_validation"`
	CSVFile                string          `json:"csv_file"`
	ParquetFile            string          `json:"parquet_file"`
}
