package server

import (
	"net/http"
	"slices"

	"github.com/bpowers/tsview/api"
	"github.com/bpowers/tsview/dataset"
	"github.com/bpowers/tsview/importer"
	"github.com/bpowers/tsview/persistence"
)

func (s *Server) handleListDatasets(w http.ResponseWriter, r *http.Request) {
	datasets, err := s.store.ListDatasets()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, datasets)
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		s.writeError(w, r, badRequest("parse upload: %v", err))
		return
	}
	name := r.FormValue(api.FormName)
	if name == "" {
		s.writeError(w, r, badRequest("dataset name is required"))
		return
	}
	switch uploadType := r.FormValue(api.FormUploadType); uploadType {
	case "", api.UploadImport, api.UploadAdd:
	default:
		s.writeError(w, r, badRequest("unknown upload type %q", uploadType))
		return
	}
	file, hdr, err := r.FormFile(api.FormFile)
	if err != nil {
		s.writeError(w, r, badRequest("file is required: %v", err))
		return
	}
	defer file.Close()

	res, err := importer.Import(name, hdr.Filename, file)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.Import(res); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, res.Dataset)
}

func (s *Server) handleDeleteDataset(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.store.DeleteDataset(id); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.Info("dataset deleted", "dataset", id)
	s.writeJSON(w, http.StatusOK, api.DeleteResponse{Deleted: id})
}

func (s *Server) handleCreateOpset(w http.ResponseWriter, r *http.Request) {
	var o dataset.Opset
	if err := decodeBody(r, &o); err != nil {
		s.writeError(w, r, err)
		return
	}
	ds, err := s.store.GetDataset(o.DatasetID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := validateOpset(ds, o); err != nil {
		s.writeError(w, r, err)
		return
	}
	o.ID = dataset.UnsetID
	created, err := s.store.CreateOpset(o)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, created)
}

func (s *Server) handleUpdateOpset(w http.ResponseWriter, r *http.Request) {
	var o dataset.Opset
	if err := decodeBody(r, &o); err != nil {
		s.writeError(w, r, err)
		return
	}
	o.ID = r.PathValue("id")
	prev, err := s.store.GetOpset(o.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if o.DatasetID != prev.DatasetID {
		s.writeError(w, r, badRequest("opset %s belongs to dataset %q, not %q", o.ID, prev.DatasetID, o.DatasetID))
		return
	}
	ds, err := s.store.GetDataset(o.DatasetID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := validateOpset(ds, o); err != nil {
		s.writeError(w, r, err)
		return
	}
	updated, err := s.store.UpdateOpset(o)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleWindow(w http.ResponseWriter, r *http.Request) {
	o, err := s.store.GetOpset(r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	rows, err := s.store.Rows(o.DatasetID, o.Offset, o.Limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.WindowResponse{Data: project(rows, o.Plot)})
}

// project keeps the plotted series of each row.
func project(rows []persistence.Row, plot []string) []dataset.Point {
	points := make([]dataset.Point, len(rows))
	for i, row := range rows {
		data := make(map[string]float64, len(plot))
		for _, id := range plot {
			if v, ok := row.Values[id]; ok {
				data[id] = v
			}
		}
		points[i] = dataset.Point{Timestamp: row.Timestamp, Data: data}
	}
	return points
}

func (s *Server) handleForecast(w http.ResponseWriter, r *http.Request) {
	var req dataset.ForecastRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Horizon <= 0 || req.Horizon > MaxHorizon {
		s.writeError(w, r, badRequest("horizon must be in [1, %d], got %d", MaxHorizon, req.Horizon))
		return
	}
	o, err := s.store.GetOpset(req.OpsetID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if !slices.Contains(o.Plot, req.SeriesID) {
		s.writeError(w, r, badRequest("series %q is not plotted by opset %s", req.SeriesID, o.ID))
		return
	}
	rows, err := s.store.Rows(o.DatasetID, o.Offset, o.Limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	f, err := s.forecaster.Forecast(rows, req.SeriesID, req.Horizon)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.ForecastResponse{Forecast: f.Sequences()})
}
