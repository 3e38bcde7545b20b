package api

import "github.com/bpowers/tsview/dataset"

// Request and response bodies shared by Client and the backend service.

// WindowResponse is the body of GET /tsop/{id}.
type WindowResponse struct {
	Data []dataset.Point `json:"data"`
}

// ForecastResponse is the body of POST /forecast: [center, upper, lower].
type ForecastResponse struct {
	Forecast [][]dataset.Point `json:"forecast"`
}

// ErrorResponse is the body of every non-2xx backend answer.
type ErrorResponse struct {
	Error string `json:"error"`
}

// DeleteResponse acknowledges DELETE /datasets/{id}.
type DeleteResponse struct {
	Deleted string `json:"deleted"`
}

// Upload form field names of POST /files.
const (
	FormName       = "name"
	FormFile       = "file"
	FormUploadType = "upload_type"
)

// Upload types accepted by POST /files.
const (
	UploadImport = "import"
	UploadAdd    = "add"
)
