package dashboard

import (
	"bytes"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"housing-explorer/models"
	"housing-explorer/storage"
)

type glossaryEntry struct {
	Term string
	Text string
}

type pageData struct {
	Title     string
	Error     string
	Report    *models.DashboardReport
	ExportURL template.URL
	About     []string
	Glossary  []glossaryEntry
}

var aboutDataset = []string{
	"The spectrum of housing options in India is incredibly diverse, from palaces once inhabited by maharajas to contemporary high-rise apartment complexes in metropolitan areas and modest homes in remote villages. The growth of the housing sector has tracked the rise in income levels across the country.",
	"Renting, also known as hiring or letting, is an agreement where compensation is paid for the temporary use of a property owned by another party. Under a gross lease the tenant pays a fixed rent and the landlord covers the ongoing property expenses.",
	"This dataset collects 4700+ residential properties offered for rent: houses, apartments and flats, with the number of bedrooms (BHK), rent, size, floor, area type, locality, city, furnishing status, tenant preference, bathroom count and point of contact.",
}

var datasetGlossary = []glossaryEntry{
	{models.ColBHK, "Number of Bedrooms, Hall, Kitchen."},
	{models.ColRent, "Rent of the Houses/Apartments/Flats."},
	{models.ColSize, "Size of the Houses/Apartments/Flats in Square Feet."},
	{models.ColFloor, "Floor the property is on and the total number of floors (for example: Ground out of 2, 3 out of 5)."},
	{models.ColAreaType, "Whether the size is measured as Super Area, Carpet Area or Build Area."},
	{models.ColAreaLocality, "Locality of the Houses/Apartments/Flats."},
	{models.ColCity, "City where the Houses/Apartments/Flats are located."},
	{models.ColFurnishingStatus, "Furnished, Semi-Furnished or Unfurnished."},
	{models.ColTenantPreferred, "Type of tenant preferred by the owner or agent."},
	{models.ColBathroom, "Number of Bathrooms."},
	{models.ColPointOfContact, "Whom to contact for more information about the property."},
}

var templateFuncs = template.FuncMap{
	"contains": func(list []string, v string) bool {
		for _, item := range list {
			if item == v {
				return true
			}
		}
		return false
	},
	"maxCount": func(counts []models.ValueCount) int {
		max := 0
		for _, c := range counts {
			if c.Count > max {
				max = c.Count
			}
		}
		return max
	},
	"count": func(s models.Stat) string { return s.CountString() },
	"barWidth": func(count, max int) int {
		const fullWidth = 400
		if max <= 0 {
			return 0
		}
		return count * fullWidth / max
	},
}

// parseRequest reads the dashboard selections from the query string.
// Repeated city/furnishing parameters select several values.
func parseRequest(r *http.Request) models.DashboardRequest {
	q := r.URL.Query()
	return models.DashboardRequest{
		Cities:       nonEmpty(q["city"]),
		Furnishing:   nonEmpty(q["furnishing"]),
		SelectedCity: strings.TrimSpace(q.Get("selected_city")),
		ShowSummary:  truthy(q.Get("summary")),
		ShowCharts:   truthy(q.Get("charts")),
	}
}

func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

func truthy(v string) bool {
	if v == "on" {
		return true
	}
	b, err := strconv.ParseBool(v)
	return err == nil && b
}

func exportQuery(req models.DashboardRequest) string {
	q := url.Values{}
	for _, c := range req.Cities {
		q.Add("city", c)
	}
	for _, f := range req.Furnishing {
		q.Add("furnishing", f)
	}
	return q.Encode()
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	data := pageData{
		Title:    "Indian Housing Dataset Explorer",
		About:    aboutDataset,
		Glossary: datasetGlossary,
	}

	req := parseRequest(r)
	report, err := s.explorer.Explore(req)
	status := http.StatusOK
	if err != nil {
		s.logger.Error("[dashboard] %v", err)
		data.Error = err.Error()
		status = http.StatusInternalServerError
	} else {
		data.Report = report
		data.ExportURL = template.URL("/export.csv?" + exportQuery(req))
	}

	var buf bytes.Buffer
	if err := s.tmpl.ExecuteTemplate(&buf, "index.html", data); err != nil {
		s.logger.Error("[dashboard] render: %v", err)
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleAPIExplore(w http.ResponseWriter, r *http.Request) {
	report, err := s.explorer.Explore(parseRequest(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleAPISummary(w http.ResponseWriter, _ *http.Request) {
	summary, err := s.explorer.Summary()
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	view, err := s.explorer.Filtered(parseRequest(r))
	if err != nil {
		s.writeError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := storage.WriteCSV(&buf, view); err != nil {
		s.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="filtered_listings.csv"`)
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("[dashboard] encode response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	s.logger.Error("[dashboard] %v", err)
	status := http.StatusInternalServerError
	var loadErr *storage.LoadError
	if errors.As(err, &loadErr) {
		status = http.StatusServiceUnavailable
	}
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}
