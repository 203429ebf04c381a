package handlers

import (
	"github.com/bharath-k9/Analytics-dashboard/internal/errors"
	"github.com/bharath-k9/Analytics-dashboard/internal/models"
	"github.com/bharath-k9/Analytics-dashboard/internal/services"
	"github.com/bharath-k9/Analytics-dashboard/internal/view"
)

// viewSource resolves the view model a request asks for.
type viewSource struct {
	analytics   *services.Analytics
	defaultYear string
}

// resolve returns the committed view model filtered to year. An empty year
// falls back to the configured default.
func (v viewSource) resolve(year string) (models.ViewModel, view.Selection, error) {
	snap := v.analytics.Snapshot()
	if snap.Err != nil {
		return models.ViewModel{}, view.All, errors.LoadFailed(snap.Err)
	}
	if !snap.Ready() {
		return models.ViewModel{}, view.All, errors.ServiceUnavailable("Dashboard data is still loading")
	}

	if year == "" {
		year = v.defaultYear
	}
	sel, err := view.ParseYear(year)
	if err != nil {
		return models.ViewModel{}, view.All, errors.ValidationWrap(err, "Invalid year selection")
	}
	return view.Compose(snap.View, sel), sel, nil
}
