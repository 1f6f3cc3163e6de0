package dashboard

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"housing-explorer/services"
	"housing-explorer/utils"
)

const testDataset = `BHK,Rent,Size,Floor,Area Type,Area Locality,City,Furnishing Status,Tenant Preferred,Bathroom,Point of Contact
2,10000,1100,Ground out of 2,Super Area,Bandel,Kolkata,Unfurnished,Bachelors/Family,2,Contact Owner
3,35000,1300,5 out of 10,Carpet Area,Bandra West,Mumbai,Furnished,Family,3,Contact Agent
1,12000,450,2 out of 4,Super Area,Laxmi Nagar,Delhi,Unfurnished,Bachelors,1,Contact Owner
2,55000,950,12 out of 20,Carpet Area,Powai,Mumbai,Unfurnished,Bachelors/Family,2,Contact Agent
`

func setupTestServer(t *testing.T, content string) *Server {
	t.Helper()

	path := filepath.Join(t.TempDir(), "housing_data.csv")
	if content != "" {
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}

	logger := utils.NewLoggerWithWriter(io.Discard, utils.LevelError)
	cache := services.NewDatasetCache(logger)
	srv, err := NewServer(Config{
		Explorer: services.NewExplorer(cache, path, 0, logger),
		Cache:    cache,
		Addr:     "127.0.0.1:0",
		Logger:   logger,
	})
	require.NoError(t, err)
	return srv
}

func get(t *testing.T, srv *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func parseHTML(t *testing.T, rec *httptest.ResponseRecorder) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(rec.Body)
	require.NoError(t, err)
	return doc
}

func TestIndexDefault(t *testing.T) {
	srv := setupTestServer(t, testDataset)

	rec := get(t, srv, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")

	doc := parseHTML(t, rec)
	assert.Equal(t, 3, doc.Find("#city option").Length())
	assert.Equal(t, 2, doc.Find("#furnishing option").Length())
	assert.Equal(t, 11, doc.Find("#glossary li").Length())
	assert.Equal(t, 4, doc.Find("#filtered tbody tr").Length())
	assert.Equal(t, 0, doc.Find("#summary").Length())
	assert.Equal(t, 0, doc.Find("#charts").Length())

	assert.Equal(t, 4, doc.Find("#overall table.numeric tbody tr").Length())
	assert.Equal(t, 7, doc.Find("#overall table.categorical tbody tr").Length())

	selected, ok := doc.Find("#selected_city option[selected]").Attr("value")
	assert.True(t, ok)
	assert.Equal(t, "Kolkata", selected)
	assert.Contains(t, doc.Find("h2").Text(), "Descriptive Statistics for Kolkata")
}

func TestIndexCategoricalCountsHaveNoDecimals(t *testing.T) {
	srv := setupTestServer(t, testDataset)

	doc := parseHTML(t, get(t, srv, "/"))
	var cells []string
	doc.Find("#overall table.categorical tbody tr").Each(func(_ int, row *goquery.Selection) {
		if row.Find("th").Text() != "Floor" {
			return
		}
		row.Find("td").Each(func(_ int, td *goquery.Selection) {
			cells = append(cells, td.Text())
		})
	})
	assert.Equal(t, []string{"4", "4", "Ground out of 2", "1"}, cells)
}

func TestIndexWithSelections(t *testing.T) {
	srv := setupTestServer(t, testDataset)

	rec := get(t, srv, "/?city=Mumbai&furnishing=Unfurnished&furnishing=Furnished&summary=1&charts=on&selected_city=Delhi")
	require.Equal(t, http.StatusOK, rec.Code)
	doc := parseHTML(t, rec)

	assert.Equal(t, 2, doc.Find("#filtered tbody tr").Length())
	assert.Equal(t, 1, doc.Find("#summary").Length())
	assert.Equal(t, 4, doc.Find("#summary table.numeric tbody tr").Length())
	assert.Equal(t, 1, doc.Find("#city-chart .bar-row").Length())
	assert.Equal(t, 2, doc.Find("#furnishing-chart .bar-row").Length())

	assert.Equal(t, "Mumbai", doc.Find("#city option[selected]").Text())
	assert.Equal(t, 2, doc.Find("#furnishing option[selected]").Length())

	// Delhi has one listing, so the count column reads 1 for every numeric row.
	doc.Find("#city-report table.numeric tbody tr").Each(func(_ int, row *goquery.Selection) {
		assert.Equal(t, "1", row.Find("td").First().Text())
	})

	href, _ := doc.Find("#export-link").Attr("href")
	assert.Equal(t, "/export.csv?city=Mumbai&furnishing=Unfurnished&furnishing=Furnished", href)
}

func TestIndexEmptySelection(t *testing.T) {
	srv := setupTestServer(t, testDataset)

	rec := get(t, srv, "/?city=Delhi&furnishing=Furnished&summary=1&charts=1")
	require.Equal(t, http.StatusOK, rec.Code)
	doc := parseHTML(t, rec)

	assert.Equal(t, 0, doc.Find("#filtered tbody tr").Length())
	assert.Contains(t, doc.Find("#city-chart").Text(), "No rows match")
	assert.Contains(t, doc.Find("#summary table.numeric tbody").Text(), "NaN")
}

func TestIndexLoadFailure(t *testing.T) {
	srv := setupTestServer(t, "")

	rec := get(t, srv, "/")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	doc := parseHTML(t, rec)
	assert.Contains(t, doc.Find("#load-error").Text(), "Failed to load dataset")
}

func TestAPIExplore(t *testing.T) {
	srv := setupTestServer(t, testDataset)

	rec := get(t, srv, "/api/explore?city=Mumbai&charts=1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	filtered := body["filtered"].(map[string]any)
	assert.Equal(t, 2.0, filtered["total"])
	counts := body["cityCounts"].([]any)
	require.Len(t, counts, 1)
	assert.Equal(t, "Mumbai", counts[0].(map[string]any)["value"])
	assert.NotContains(t, body, "filteredSummary")
}

func TestAPISummary(t *testing.T) {
	srv := setupTestServer(t, testDataset)

	rec := get(t, srv, "/api/summary")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Rows    int `json:"rows"`
		Numeric []struct {
			Column string   `json:"column"`
			Count  int      `json:"count"`
			Std    *float64 `json:"std"`
		} `json:"numeric"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 4, body.Rows)
	require.Len(t, body.Numeric, 4)
	assert.Equal(t, "BHK", body.Numeric[0].Column)
	assert.NotNil(t, body.Numeric[0].Std)
}

func TestAPILoadFailure(t *testing.T) {
	srv := setupTestServer(t, "")

	rec := get(t, srv, "/api/explore")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body["error"], "housing_data.csv")
}

func TestExportCSV(t *testing.T) {
	srv := setupTestServer(t, testDataset)

	rec := get(t, srv, "/export.csv?city=Mumbai")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")

	records, err := csv.NewReader(rec.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "BHK", records[0][0])
	assert.Equal(t, "Mumbai", records[1][6])
	assert.Equal(t, "Powai", records[2][5])
}

func TestHealth(t *testing.T) {
	srv := setupTestServer(t, testDataset)
	rec := get(t, srv, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestParseRequest(t *testing.T) {
	tests := []struct {
		name        string
		query       string
		wantCities  []string
		wantSummary bool
		wantCharts  bool
		wantCity    string
	}{
		{"empty", "", []string{}, false, false, ""},
		{"multi city", "city=Delhi&city=Pune&city=", []string{"Delhi", "Pune"}, false, false, ""},
		{"toggles", "summary=true&charts=on", []string{}, true, true, ""},
		{"bad toggle", "summary=maybe", []string{}, false, false, ""},
		{"selected city", "selected_city=+Chennai+", []string{}, false, false, "Chennai"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/?"+tt.query, nil)
			got := parseRequest(r)
			assert.Equal(t, tt.wantCities, got.Cities)
			assert.Equal(t, tt.wantSummary, got.ShowSummary)
			assert.Equal(t, tt.wantCharts, got.ShowCharts)
			assert.Equal(t, tt.wantCity, got.SelectedCity)
		})
	}
}

func TestIsDatasetEvent(t *testing.T) {
	target, err := filepath.Abs("data/housing_data.csv")
	require.NoError(t, err)

	tests := []struct {
		event fsnotify.Event
		want  bool
	}{
		{fsnotify.Event{Name: "data/housing_data.csv", Op: fsnotify.Write}, true},
		{fsnotify.Event{Name: "data/housing_data.csv", Op: fsnotify.Create}, true},
		{fsnotify.Event{Name: "data/housing_data.csv", Op: fsnotify.Chmod}, false},
		{fsnotify.Event{Name: "data/other.csv", Op: fsnotify.Write}, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, isDatasetEvent(tt.event, target), "event %v", tt.event)
	}
}

func TestServeStopsOnCancel(t *testing.T) {
	srv := setupTestServer(t, testDataset)
	srv.watch = true

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
