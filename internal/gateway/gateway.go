package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"healthsync/internal/misc"

	"github.com/pkg/errors"
)

const (
	TableUsers            = "users"
	TableHealthDataCache  = "health_data_cache"
	TableUserPreferences  = "user_preferences"
	TableSymptomLogs      = "symptom_logs"
	TableMedicationLogs   = "medication_logs"
	TableFoodLogsCache    = "food_logs_cache"
	TableTerraConnections = "terra_connections"
)

// ErrRowNotFound is returned when a single-row query matches nothing.
// Callers normalize it to defaults; it never reaches an error field.
var ErrRowNotFound = errors.New("row not found")

// Gateway is a thin query/command layer over the hosted database's REST
// surface. One HTTP round trip per call, no business logic.
type Gateway struct {
	*http.Client
	BaseURL string
	AnonKey string
	// Token returns the current session token, or "" when anonymous.
	// Anonymous calls fall back to the anon key, which is all the
	// signup duplicate pre-check needs.
	Token  func() string
	Logger logger
}

type logger interface {
	Debugf(format string, v ...any)
	Infof(format string, v ...any)
	Errorf(format string, v ...any)
}

func (g Gateway) newRequest(ctx context.Context, method string, table string, query string, body io.Reader) (*http.Request, error) {
	url := g.BaseURL + "/rest/v1/" + table
	if query != "" {
		url += "?" + query
	}
	r, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	token := ""
	if g.Token != nil {
		token = g.Token()
	}
	if token == "" {
		token = g.AnonKey
	}
	r.Header.Set("apikey", g.AnonKey)
	r.Header.Set("Authorization", "Bearer "+token)
	r.Header.Set("Accept", "application/json")
	return r, nil
}

// selectRows runs a GET against table and decodes the JSON array
// response into out, which must be a pointer to a slice.
func (g Gateway) selectRows(ctx context.Context, table string, query string, out any) error {
	req, err := g.newRequest(ctx, http.MethodGet, table, query, nil)
	if err != nil {
		return errors.Wrapf(err, "error creating request for table: %s, query: %s", table, query)
	}
	return g.do(req, out)
}

// writeRows runs an insert/upsert/update against table. prefer is the
// Prefer header controlling upsert resolution and representation.
func (g Gateway) writeRows(ctx context.Context, method string, table string, query string, prefer string, row any, out any) error {
	body, err := json.Marshal(row)
	if err != nil {
		return errors.Wrapf(err, "error marshalling row for table: %s, row: %+v", table, row)
	}
	req, err := g.newRequest(ctx, method, table, query, bytes.NewReader(body))
	if err != nil {
		return errors.Wrapf(err, "error creating request for table: %s, body: %s", table, body)
	}
	req.Header.Set("Content-Type", "application/json")
	if prefer != "" {
		req.Header.Set("Prefer", prefer)
	}
	return g.do(req, out)
}

func (g Gateway) do(req *http.Request, out any) error {
	resp, err := g.Client.Do(req)
	if err != nil {
		return errors.Wrapf(err, "error doing request to %s", req.URL)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			g.Logger.Errorf("error closing response body on request to url: %s, err: %v", req.URL, err)
		}
	}()

	body, err := io.ReadAll(http.MaxBytesReader(nil, resp.Body, 300*1024))
	if err != nil {
		return errors.Wrapf(err, "error reading response body from %s, status: %s", req.URL, resp.Status)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errors.Errorf("remote error from %s, status: %s, body: %s",
			req.URL, resp.Status, misc.BytesLimit(body, 2000))
	}
	if out == nil {
		return nil
	}
	if err = json.Unmarshal(body, out); err != nil {
		return errors.Wrapf(err, "error unmarshalling response body from %s, body: %s",
			req.URL, misc.BytesLimit(body, 2000))
	}
	return nil
}
