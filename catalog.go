package tsview

import (
	"fmt"
	"slices"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/bpowers/tsview/api"
	"github.com/bpowers/tsview/dataset"
)

// Refresh reloads the dataset catalog. Only the answer to the latest
// refresh is applied.
func (v *Viewer) Refresh() tea.Cmd {
	v.catalogReqID++
	id := v.catalogReqID
	v.catalogLoading = true
	backend, timeout := v.backend, v.timeout
	return func() tea.Msg {
		ctx, cancel := withTimeout(timeout)
		defer cancel()
		datasets, err := backend.ListDatasets(ctx)
		return catalogMsg{id: id, datasets: datasets, err: err}
	}
}

// CatalogErr returns the failure of the last catalog load, if any.
func (v *Viewer) CatalogErr() error {
	return v.catalogErr
}

func (v *Viewer) applyCatalog(msg catalogMsg) tea.Cmd {
	if msg.id != v.catalogReqID {
		v.logger.Debug("dropping stale catalog", "id", msg.id, "latest", v.catalogReqID)
		return nil
	}
	v.catalogLoading = false
	if msg.err != nil {
		v.logger.Warn("list datasets failed", "error", msg.err)
		v.catalogErr = msg.err
		return nil
	}
	v.catalogErr = nil

	datasets := make([]dataset.Dataset, len(msg.datasets))
	for i, ds := range msg.datasets {
		datasets[i] = v.mergeListed(ds).Clone()
	}
	v.datasets = datasets

	if v.current != "" && v.index(v.current) < 0 {
		v.logger.Info("open dataset left the catalog", "dataset", v.current)
		v.Close()
	}
	return nil
}

// mergeListed keeps the locally confirmed descriptor of ds. Writes from this
// engine are the only ones, so a confirmed local descriptor is at least as
// new as the listing's, which may have been served before the write landed.
// A listed descriptor under a different id means the dataset was replaced on
// the backend and the listing wins.
func (v *Viewer) mergeListed(ds dataset.Dataset) dataset.Dataset {
	local, ok := v.find(ds.ID)
	if !ok {
		return ds
	}
	o, ok := local.Opset()
	if !ok || !o.Confirmed() {
		return ds
	}
	if listed, has := ds.Opset(); has && listed.Confirmed() && listed.ID != o.ID {
		return ds
	}
	return ds.WithOpset(o)
}

// Upload sends a file for import. On success the new dataset joins the
// catalog; on failure Alert reports why.
func (v *Viewer) Upload(up api.Upload) tea.Cmd {
	backend, timeout := v.backend, v.timeout
	return func() tea.Msg {
		ctx, cancel := withTimeout(timeout)
		defer cancel()
		ds, err := backend.UploadDataset(ctx, up)
		return uploadMsg{name: up.Name, dataset: ds, err: err}
	}
}

func (v *Viewer) applyUpload(msg uploadMsg) tea.Cmd {
	if msg.err != nil {
		v.logger.Warn("upload failed", "name", msg.name, "error", msg.err)
		v.alert = fmt.Sprintf("upload of %q failed: %v", msg.name, msg.err)
		return nil
	}
	v.alert = ""
	if !v.replace(msg.dataset.Clone()) {
		v.datasets = append(slices.Clone(v.datasets), msg.dataset.Clone())
	}
	v.logger.Info("dataset uploaded", "dataset", msg.dataset.ID, "name", msg.dataset.Name)
	return nil
}

// Delete removes a dataset on the backend. Local state changes only once
// the backend confirms; a failure is recorded against the dataset.
func (v *Viewer) Delete(id string) tea.Cmd {
	backend, timeout := v.backend, v.timeout
	return func() tea.Msg {
		ctx, cancel := withTimeout(timeout)
		defer cancel()
		return deleteMsg{id: id, err: backend.DeleteDataset(ctx, id)}
	}
}

func (v *Viewer) applyDelete(msg deleteMsg) tea.Cmd {
	if msg.err != nil {
		v.logger.Warn("delete dataset failed", "dataset", msg.id, "error", msg.err)
		v.setErr(msg.id, msg.err)
		return nil
	}
	v.datasets = slices.DeleteFunc(slices.Clone(v.datasets), func(ds dataset.Dataset) bool {
		return ds.ID == msg.id
	})
	delete(v.syncs, msg.id)
	delete(v.errs, msg.id)
	if v.current == msg.id {
		v.Close()
	}
	return nil
}
