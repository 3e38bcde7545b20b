package tsview

import "github.com/bpowers/tsview/dataset"

// Completion messages. Each carries the counter value it was issued under so
// Update can drop answers that a later request has superseded.

type catalogMsg struct {
	id       uint64
	datasets []dataset.Dataset
	err      error
}

type uploadMsg struct {
	name    string
	dataset dataset.Dataset
	err     error
}

type deleteMsg struct {
	id  string
	err error
}

type opsetWrittenMsg struct {
	datasetID string
	rev       uint64
	create    bool
	opset     dataset.Opset
	err       error
}

type windowMsg struct {
	gen       uint64
	datasetID string
	opsetID   string
	points    []dataset.Point
	err       error
}

type forecastMsg struct {
	gen       uint64
	datasetID string
	forecast  dataset.Forecast
	err       error
}
