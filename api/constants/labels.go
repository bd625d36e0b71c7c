package constants

// Report titles and header blocks shared by the Excel and PDF exporters.
// The two renderings must stay field-for-field identical, so every label
// lives here and nowhere else.
const (
	ReportCompanyName   = "ARTIST MANAGEMENT SYSTEM"
	ReportTitle         = "Estados de Cuenta - Financial Statements Report"
	ReportPDFTitle      = "Estados de Cuenta"
	SheetNameSummary    = "Resumen Ejecutivo"
	SheetNameStatements = "Estados de Cuenta"
	SheetNameDetail     = "Detalle Transacciones"
	SheetNameByArtist   = "Análisis por Artista"
	SheetNameByMonth    = "Análisis por Mes"
)

// Reserved workbook sheets that never hold artist ledgers.
var ReservedSheetNames = []string{"Base de datos", "MODELO"}

// Statement-level report columns, fixed order.
var StatementHeaders = []string{
	"Artista",
	"Nombre Legal",
	"Mes",
	"Inicio Periodo",
	"Fin Periodo",
	"Ingresos",
	"Gastos",
	"Avances",
	"Balance",
	"Transacciones",
}

// Transaction-level report columns, fixed order.
var TransactionHeaders = []string{
	"Fecha",
	"Número",
	"Tipo",
	"Método Pago",
	"Concepto",
	"Valor Factura",
	"Cargos Banc.",
	"80% País",
	"20% Comisión",
	"5% Legal",
	"Retención IVA",
	"Pagado MVPX",
	"Avance",
	"Balance Final",
}

// Per-artist rollup columns ("Análisis por Artista").
var ArtistAnalysisHeaders = []string{
	"Artista",
	"Estados",
	"Transacciones",
	"Ingresos",
	"Gastos",
	"Avances",
	"Balance",
	"Promedio/Estado",
}

// Per-month rollup columns ("Análisis por Mes").
var MonthAnalysisHeaders = []string{
	"Mes",
	"Estados",
	"Ingresos",
	"Gastos",
	"Avances",
	"Balance",
}
