package relationships

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cdf-forge/cdfx/internal/cmd/base"
)

const prefix = "/api/v1/projects/test-project"

func newTestCommand(t *testing.T, serverURL string) (*QueryCommand, *cli.MockUi) {
	t.Helper()

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "test.hcl", []byte(fmt.Sprintf(`
retry_delay = "1ms"

client {
  base_url = %q
  project  = "test-project"
  api_key  = "test-key"
}
`, serverURL)), 0o600))

	ui := cli.NewMockUi()
	b := base.NewCommand(hclog.NewNullLogger(), ui)
	b.Fs = fs
	return &QueryCommand{Command: b}, ui
}

func TestQueryCommand(t *testing.T) {
	var listBody map[string]any
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case prefix + "/relationships/list":
			require.NoError(t, json.NewDecoder(r.Body).Decode(&listBody))
			_, _ = w.Write([]byte(`{"items": [
				{"externalId": "r1", "sourceType": "asset", "sourceExternalId": "a1", "targetType": "event", "targetExternalId": "e1"},
				{"externalId": "r2", "sourceType": "asset", "sourceExternalId": "a1", "targetType": "event", "targetExternalId": "gone"}
			]}`))
		case prefix + "/assets/byids":
			_, _ = w.Write([]byte(`{"items": [{"id": 1, "externalId": "a1", "name": "pump"}]}`))
		case prefix + "/events/byids":
			_, _ = w.Write([]byte(`{"items": [{"id": 2, "externalId": "e1", "type": "maintenance"}]}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer ts.Close()

	c, ui := newTestCommand(t, ts.URL)
	code := c.Run([]string{
		"-config=test.hcl",
		"-source-types=asset",
		"-target-ids=e1,gone",
		"-data-set-ids=7",
		"-labels=pump",
		"-created-after=2024-01-01",
		"-limit=-1",
	})
	require.Equal(t, 0, code, ui.ErrorWriter.String())

	filter := listBody["filter"].(map[string]any)
	assert.Equal(t, []any{"asset"}, filter["sourceTypes"])
	assert.Equal(t, []any{"e1", "gone"}, filter["targetExternalIds"])
	assert.Equal(t, []any{map[string]any{"id": float64(7)}}, filter["dataSetIds"])
	assert.Equal(t, map[string]any{"containsAny": []any{map[string]any{"externalId": "pump"}}}, filter["labels"])
	assert.Equal(t, map[string]any{"min": float64(1704067200000)}, filter["createdTime"])
	assert.Equal(t, float64(1000), listBody["limit"])

	var out []map[string]any
	require.NoError(t, json.Unmarshal(ui.OutputWriter.Bytes(), &out))
	require.Len(t, out, 1)
	assert.Equal(t, "r1", out[0]["relationship"].(map[string]any)["externalId"])
	assert.Equal(t, "pump", out[0]["source"].(map[string]any)["name"])
	assert.Equal(t, "maintenance", out[0]["target"].(map[string]any)["type"])
}

func TestQueryCommand_FetchError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case prefix + "/relationships/list":
			_, _ = w.Write([]byte(`{"items": [
				{"externalId": "r1", "sourceType": "file", "sourceExternalId": "f1", "targetType": "asset", "targetExternalId": "a1"}
			]}`))
		case prefix + "/files/byids":
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error": {"code": 400, "message": "ids not found", "missing": [{"externalId": "f1"}]}}`))
		default:
			_, _ = w.Write([]byte(`{"items": []}`))
		}
	}))
	defer ts.Close()

	c, ui := newTestCommand(t, ts.URL)
	code := c.Run([]string{"-config=test.hcl"})
	assert.Equal(t, 1, code)
	assert.Contains(t, ui.ErrorWriter.String(), "ids not found")
	assert.Empty(t, ui.OutputWriter.String())
}

func TestQueryCommand_InvalidFlags(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{name: "UnknownType", args: []string{"-source-types=widget"}, wantErr: `unknown resource type "widget"`},
		{name: "BadTime", args: []string{"-active-at=not a time"}, wantErr: "invalid active-at time"},
		{name: "BadDataSet", args: []string{"-data-set-ids=x"}, wantErr: "error parsing flags"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, ui := newTestCommand(t, "http://unused.invalid")
			code := c.Run(tt.args)
			assert.Equal(t, 1, code)
			assert.Contains(t, ui.ErrorWriter.String(), tt.wantErr)
		})
	}
}

func TestParseTime(t *testing.T) {
	ms, err := parseTime("active-at", "2024-03-01T12:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, int64(1709294400000), ms)

	ms, err = parseTime("active-at", "2024-03-01")
	require.NoError(t, err)
	assert.Equal(t, int64(1709251200000), ms)
}
