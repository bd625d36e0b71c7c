package constants

// Common error messages
const (
	ErrInvalidSession     = "invalid user_id or session"
	ErrMissingUserID      = "Missing or invalid user_id in body"
	ErrUserIDRequired     = "user_id required"
	ErrDB                 = "DB error"
	ErrInvalidJSON        = "Invalid JSON"
	ErrInvalidRequestBody = "Invalid request body"
	ErrPleaseLogin        = "Please login to continue."
	ErrMethodNotAllowed   = "Method Not Allowed"
	ErrInvalidJSONBody    = "Invalid JSON body"
	ErrAdminOnly          = "admin role required"
)

// Request validation errors
const (
	ErrMissingStatementID   = "statement_id required"
	ErrMissingTransactionID = "transaction_id required"
	ErrMissingPeriods       = "period1 and period2 required"
	ErrInvalidPeriod        = "period must be YYYY-MM"
	ErrFileTooLarge         = "uploaded file exceeds the size limit"
)

// Import / file errors
const (
	ErrNoFileUploaded      = "No file uploaded"
	ErrUnsupportedFileType = "The file must be an Excel workbook (.xlsx or .xls)"
	ErrMultipartParse      = "Failed to parse multipart form"
	ErrNoHeaderRow         = "header row not found (expected a row containing 'fecha' and 'concepto')"
	ErrNoParseableRows     = "sheet contains no parseable transaction rows"
	ErrArtistNotOwned      = "you do not have access to this artist"
	ErrArtistNotFound      = "artist not found"
	ErrStatementNotFound   = "statement not found"
)

// DB / SQL error templates
const (
	ErrTxStartFailed  = "failed to start transaction: "
	ErrTxCommitFailed = "failed to commit transaction: "
	ErrQueryFailed    = "query failed: "
)

// Body keys
const (
	KeyUserID    = "user_id"
	ValueSuccess = "success"
	ValueError   = "error"
)

// Content Types
const (
	ContentTypeJSON      = "application/json"
	ContentTypeMultipart = "multipart/form-data"
	ContentTypeXLSX      = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ContentTypePDF       = "application/pdf"
	HeaderContentType    = "Content-Type"
)

// Date formats
const (
	DateTimeFormat = "2006-01-02 15:04:05"
	DateFormat     = "2006-01-02"
	DateFormatAlt  = "02-01-2006"
	DateFormatES   = "02/01/2006"
	MonthFormat    = "2006-01"
)

// Roles
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)
