package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"housing-explorer/config"
	"housing-explorer/models"
	"housing-explorer/storage"
)

const listingsCSV = `BHK,Rent,Size,Floor,Area Type,Area Locality,City,Furnishing Status,Tenant Preferred,Bathroom,Point of Contact
2,30000,900,1 out of 3,Super Area,Andheri,Mumbai,Furnished,Family,2,Contact Owner
1,12000,500,Ground out of 2,Carpet Area,Saket,Delhi,Unfurnished,Bachelors,1,Contact Agent
3,25000,1200,4 out of 8,Super Area,Bandra,Mumbai,Semi-Furnished,Bachelors/Family,3,Contact Owner
`

func writeDataset(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "housing_data.csv")
	require.NoError(t, os.WriteFile(path, []byte(listingsCSV), 0o644))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	out := new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "housing-explorer v"+Version+"\n", out)
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	cmd := NewRootCmd()
	var names []string
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"serve", "describe", "export", "snapshot", "version"} {
		assert.Contains(t, names, want)
	}
	assert.NotNil(t, cmd.PersistentFlags().Lookup("dataset"))
	assert.NotNil(t, cmd.PersistentFlags().Lookup("log-level"))
}

func TestDescribeJSON(t *testing.T) {
	path := writeDataset(t)

	out, err := run(t, "--dataset", path, "describe", "--format", "json", "--city", "Mumbai", "--counts")
	require.NoError(t, err)

	var got struct {
		Source  string `json:"source"`
		Summary struct {
			Rows    int `json:"rows"`
			Numeric []struct {
				Column string   `json:"column"`
				Count  int      `json:"count"`
				Mean   *float64 `json:"mean"`
			} `json:"numeric"`
		} `json:"summary"`
		CityCounts []models.ValueCount `json:"cityCounts"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))

	assert.Equal(t, path, got.Source)
	assert.Equal(t, 2, got.Summary.Rows)
	require.NotEmpty(t, got.Summary.Numeric)

	var rentMean *float64
	for _, s := range got.Summary.Numeric {
		if s.Column == models.ColRent {
			rentMean = s.Mean
		}
	}
	require.NotNil(t, rentMean)
	assert.InDelta(t, 27500.0, *rentMean, 1e-9)
	assert.Equal(t, []models.ValueCount{{Value: "Mumbai", Count: 2}}, got.CityCounts)
}

func TestDescribeTextFormats(t *testing.T) {
	path := writeDataset(t)

	tests := []struct {
		format  string
		wantOut []string
	}{
		{format: "table", wantOut: []string{"Rent", "22333.33", "Mumbai"}},
		{format: "markdown", wantOut: []string{"### Numeric columns (3 rows)", "| Rent |"}},
		{format: "csv", wantOut: []string{"# Categorical columns", "City,3,2,Mumbai,2"}},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			out, err := run(t, "--dataset", path, "describe", "--format", tt.format)
			require.NoError(t, err)
			for _, want := range tt.wantOut {
				assert.Contains(t, out, want)
			}
		})
	}
}

func TestDescribeRejectsUnknownFormat(t *testing.T) {
	path := writeDataset(t)
	_, err := run(t, "--dataset", path, "describe", "--format", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown format")
}

func TestDescribeMissingDataset(t *testing.T) {
	_, err := run(t, "--dataset", filepath.Join(t.TempDir(), "nope.csv"), "describe")
	require.Error(t, err)

	var loadErr *storage.LoadError
	assert.True(t, errors.As(err, &loadErr))
}

func TestExportDryRun(t *testing.T) {
	path := writeDataset(t)

	out, err := run(t, "--dataset", path, "export", "--dry-run", "--city", "Delhi")
	require.NoError(t, err)
	assert.Equal(t, "1 of 1 rows would be exported\n", out)
}

func TestWriteListingsClosesWriter(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM listings").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO listings").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectClose()

	listings := []*models.Listing{{BHK: 1, Rent: 12000, Size: 500, City: "Delhi", Bathroom: 1}}
	require.NoError(t, writeListings(context.Background(), storage.NewPostgresStoreFromDB(db), listings))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDashboardURL(t *testing.T) {
	tests := []struct {
		name   string
		listen string
		flag   string
		want   string
	}{
		{name: "bare port", listen: ":8501", want: "http://localhost:8501"},
		{name: "host and port", listen: "0.0.0.0:9000", want: "http://0.0.0.0:9000"},
		{name: "flag wins", listen: ":8501", flag: "https://dash.example.com", want: "https://dash.example.com"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &app{cfg: &config.Config{ListenAddr: tt.listen}}
			assert.Equal(t, tt.want, dashboardURL(a, tt.flag))
		})
	}
}

func TestValidFormat(t *testing.T) {
	for _, f := range []string{"table", "markdown", "md", "csv", "json"} {
		assert.NoError(t, validFormat(f), f)
	}
	assert.Error(t, validFormat("JSON"))
}

func TestReadTableFromStore(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	rows := sqlmock.NewRows([]string{
		"id", "bhk", "rent", "size", "floor", "area_type", "area_locality", "city",
		"furnishing_status", "tenant_preferred", "bathroom", "point_of_contact", "created_at",
	}).AddRow(int64(1), int64(2), 30000.0, 900.0, "1 out of 3", "Super Area", "Andheri", "Mumbai",
		"Furnished", "Family", int64(2), "Contact Owner", time.Now())
	mock.ExpectQuery("SELECT id, bhk, rent").WillReturnRows(rows)
	mock.ExpectClose()

	table, err := readTable(context.Background(), storage.NewPostgresStoreFromDB(db))
	require.NoError(t, err)
	require.Equal(t, 1, table.Len())

	city, ok := models.ColumnValue(table, 0, models.ColCity)
	require.True(t, ok)
	assert.Equal(t, "Mumbai", city)
	assert.NoError(t, mock.ExpectationsWereMet())
}
