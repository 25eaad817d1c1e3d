package api

import (
	"net/http"

	"github.com/ayusman/handbuilder/internal/catalog"
)

type modeResponse struct {
	Key   catalog.Mode `json:"key"`
	Title string       `json:"title"`
}

type catalogResponse struct {
	Modes  []modeResponse          `json:"modes"`
	Parts  []catalog.BuildingPart  `json:"parts"`
	Bodies []catalog.CelestialBody `json:"bodies"`
}

// HandleCatalog serves GET /api/catalog with the picker contents.
func HandleCatalog(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	resp := catalogResponse{
		Parts:  catalog.BuildingParts(),
		Bodies: catalog.CelestialBodies(),
	}
	for _, m := range catalog.Modes() {
		resp.Modes = append(resp.Modes, modeResponse{Key: m, Title: m.Title()})
	}

	writeJSON(w, http.StatusOK, resp)
}
