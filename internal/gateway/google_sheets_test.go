package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/k-negishi/form-submission-reviewer/internal/domain"
)

// fakeSheets はSheets APIの値取得・一括更新だけを再現するテスト用サーバー
type fakeSheets struct {
	mu      sync.Mutex
	sheets  map[string][][]string
	updates []*sheets.BatchUpdateValuesRequest
	fail    bool
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.fail {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	path := r.URL.Path
	switch {
	case strings.HasSuffix(path, "/values:batchGet"):
		resp := &sheets.BatchGetValuesResponse{}
		for _, rng := range r.URL.Query()["ranges"] {
			resp.ValueRanges = append(resp.ValueRanges, f.valueRange(rng))
		}
		_ = json.NewEncoder(w).Encode(resp)
	case strings.HasSuffix(path, "/values:batchUpdate"):
		var req sheets.BatchUpdateValuesRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		f.updates = append(f.updates, &req)
		_ = json.NewEncoder(w).Encode(&sheets.BatchUpdateValuesResponse{})
	case strings.Contains(path, "/values/"):
		rng := path[strings.Index(path, "/values/")+len("/values/"):]
		_ = json.NewEncoder(w).Encode(f.valueRange(rng))
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (f *fakeSheets) valueRange(rng string) *sheets.ValueRange {
	name, rows := rng, ""
	if i := strings.LastIndex(rng, "!"); i >= 0 {
		name, rows = rng[:i], rng[i+1:]
	}
	name = strings.ReplaceAll(strings.Trim(name, "'"), "''", "'")

	data := f.sheets[name]
	if rows != "" {
		n, _ := strconv.Atoi(strings.Split(rows, ":")[0])
		if n-1 < len(data) {
			data = data[n-1 : n]
		} else {
			data = nil
		}
	}

	vr := &sheets.ValueRange{Range: rng}
	for _, row := range data {
		cells := make([]interface{}, len(row))
		for i, v := range row {
			cells[i] = v
		}
		vr.Values = append(vr.Values, cells)
	}
	return vr
}

func newTestSheetsRepository(t *testing.T, fake *fakeSheets) *GoogleSheetsRepository {
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	svc, err := sheets.NewService(context.Background(),
		option.WithEndpoint(server.URL+"/"),
		option.WithHTTPClient(server.Client()),
		option.WithoutAuthentication(),
	)
	require.NoError(t, err)

	loc, err := time.LoadLocation("America/Chicago")
	require.NoError(t, err)

	return NewGoogleSheetsRepositoryWithService(svc, SheetsConfig{
		SpreadsheetID:        "sheet-id",
		SubmissionSheet:      "Form Responses 1",
		AuthorizedUsersSheet: "Authorized Users",
		Timezone:             loc,
	})
}

var formHeader = []string{"Timestamp", "Event Name", "Description", "Event Date", "Start Time", "End Time", "Location"}

func newFakeSheets() *fakeSheets {
	return &fakeSheets{
		sheets: map[string][][]string{
			"Form Responses 1": {
				formHeader,
				{"5/20/2024 14:03:11", "Picnic", "Bring a blanket", "6/1/2024", "10:00:00 AM", "12:00:00 PM", "Riverside Park"},
				{},
				{"5/21/2024 09:00:00", "Concert", "", "not a date"},
			},
			"Authorized Users": {
				{"Name", "Email"},
				{"Alice", "alice@example.com"},
				{"Nobody", ""},
				{"Bob", "Bob@Example.com"},
			},
		},
	}
}

func TestListSubmissions(t *testing.T) {
	repo := newTestSheetsRepository(t, newFakeSheets())

	result, err := repo.ListSubmissions(context.Background())
	require.NoError(t, err)
	require.Len(t, result, 2)

	assert.Equal(t, 2, result[0].Row)
	assert.Equal(t, "Picnic", result[0].Title)
	assert.True(t, result[0].Valid())

	// 空行は飛ばすが行番号はシート上の位置を保つ
	assert.Equal(t, 4, result[1].Row)
	assert.False(t, result[1].Valid())
}

func TestListSubmissions_APIError(t *testing.T) {
	fake := newFakeSheets()
	fake.fail = true
	repo := newTestSheetsRepository(t, fake)

	_, err := repo.ListSubmissions(context.Background())
	assert.True(t, errors.Is(err, domain.ErrStoreUnavailable))
}

func TestGetSubmission(t *testing.T) {
	repo := newTestSheetsRepository(t, newFakeSheets())

	s, err := repo.GetSubmission(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, "Picnic", s.Title)
	assert.Equal(t, domain.StatusPending, s.Status)

	_, err = repo.GetSubmission(context.Background(), 3)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = repo.GetSubmission(context.Background(), 50)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = repo.GetSubmission(context.Background(), 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdateSubmission_AddsMissingStatusColumns(t *testing.T) {
	fake := newFakeSheets()
	repo := newTestSheetsRepository(t, fake)

	err := repo.UpdateSubmission(context.Background(), 2, map[string]string{
		domain.ColumnStatus:        "Added to Calendar",
		domain.ColumnLastUpdatedBy: "Alice",
		domain.ColumnEventName:     "Picnic in the Park",
		domain.ColumnFee:           "Free",
	})
	require.NoError(t, err)

	require.Len(t, fake.updates, 1)
	req := fake.updates[0]
	assert.Equal(t, "RAW", req.ValueInputOption)

	written := map[string]interface{}{}
	for _, vr := range req.Data {
		written[vr.Range] = vr.Values[0][0]
	}
	assert.Equal(t, map[string]interface{}{
		"'Form Responses 1'!B2": "Picnic in the Park",
		"'Form Responses 1'!H1": "Last Updated By",
		"'Form Responses 1'!H2": "Alice",
		"'Form Responses 1'!I1": "Status",
		"'Form Responses 1'!I2": "Added to Calendar",
	}, written)
}

func TestUpdateSubmission_APIError(t *testing.T) {
	fake := newFakeSheets()
	fake.fail = true
	repo := newTestSheetsRepository(t, fake)

	err := repo.UpdateSubmission(context.Background(), 2, map[string]string{domain.ColumnStatus: "Ignored"})
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
}

func TestListAuthorizedUsers(t *testing.T) {
	repo := newTestSheetsRepository(t, newFakeSheets())

	users, err := repo.ListAuthorizedUsers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []domain.AuthorizedUser{
		{Name: "Alice", Email: "alice@example.com"},
		{Name: "Bob", Email: "Bob@Example.com"},
	}, users)
}

func TestListAuthorizedUsers_MissingEmailColumn(t *testing.T) {
	fake := newFakeSheets()
	fake.sheets["Authorized Users"] = [][]string{{"Name", "Address"}, {"Alice", "somewhere"}}
	repo := newTestSheetsRepository(t, fake)

	_, err := repo.ListAuthorizedUsers(context.Background())
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
}

func TestColumnName(t *testing.T) {
	tests := map[int]string{0: "A", 7: "H", 25: "Z", 26: "AA", 27: "AB", 51: "AZ", 52: "BA", 701: "ZZ", 702: "AAA"}
	for index, expected := range tests {
		assert.Equal(t, expected, columnName(index), "index=%d", index)
	}
}

func TestSheetRange(t *testing.T) {
	assert.Equal(t, "'Form Responses 1'", sheetRange("Form Responses 1", ""))
	assert.Equal(t, "'Bob''s Sheet'!A1", sheetRange("Bob's Sheet", "A1"))
}
