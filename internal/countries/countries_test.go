package countries

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"booksy/internal/model"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const chileJSON = `[{
	"name": {"common": "Chile", "official": "Republic of Chile"},
	"capital": ["Santiago"],
	"region": "Americas",
	"subregion": "South America",
	"currencies": {"CLP": {"name": "Chilean peso", "symbol": "$"}},
	"flag": "🇨🇱"
}]`

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    *model.Country
		wantErr error
	}{
		{
			name:  "array response uses first element",
			input: chileJSON,
			want: &model.Country{
				CommonName:   "Chile",
				OfficialName: "Republic of Chile",
				Capital:      []string{"Santiago"},
				Region:       "Americas",
				Subregion:    "South America",
				Flag:         "🇨🇱",
				Currencies:   []model.Currency{{Code: "CLP", Name: "Chilean peso", Symbol: "$"}},
			},
		},
		{
			name:  "currencies are sorted by code",
			input: `{"name":{"common":"Panama","official":"Republic of Panama"},"currencies":{"USD":{"name":"United States dollar","symbol":"$"},"PAB":{"name":"Panamanian balboa","symbol":"B/."}}}`,
			want: &model.Country{
				CommonName:   "Panama",
				OfficialName: "Republic of Panama",
				Currencies: []model.Currency{
					{Code: "PAB", Name: "Panamanian balboa", Symbol: "B/."},
					{Code: "USD", Name: "United States dollar", Symbol: "$"},
				},
			},
		},
		{
			name:    "empty array",
			input:   `[]`,
			wantErr: model.ErrCountryNotFound,
		},
		{
			name:    "missing name",
			input:   `[{"region":"Americas"}]`,
			wantErr: model.ErrCountryNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse([]byte(tt.input))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse_InvalidJSON(t *testing.T) {
	_, err := Parse([]byte(`{not json`))
	assert.Error(t, err)
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	r := chi.NewRouter()
	r.Get("/v3.1/name/{name}", func(w http.ResponseWriter, r *http.Request) {
		if chi.URLParam(r, "name") != "chile" {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"status":404,"message":"Not Found"}`))
			return
		}
		w.Write([]byte(chileJSON))
	})
	r.Get("/v3.1/alpha/{code}", func(w http.ResponseWriter, r *http.Request) {
		if chi.URLParam(r, "code") != "CL" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Write([]byte(chileJSON))
	})

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)
	return server
}

func TestClient_ByName(t *testing.T) {
	server := newTestServer(t)
	client := New(server.URL, 0, zerolog.Nop())

	country, err := client.ByName(context.Background(), "chile")
	require.NoError(t, err)
	assert.Equal(t, "Chile", country.CommonName)
	assert.Equal(t, []string{"Santiago"}, country.Capital)

	_, err = client.ByName(context.Background(), "atlantis")
	assert.ErrorIs(t, err, model.ErrCountryNotFound)
}

func TestClient_ByCode(t *testing.T) {
	server := newTestServer(t)
	client := New(server.URL+"/", 0, zerolog.Nop())

	country, err := client.ByCode(context.Background(), "CL")
	require.NoError(t, err)
	assert.Equal(t, "Republic of Chile", country.OfficialName)

	_, err = client.ByCode(context.Background(), "??")
	require.Error(t, err)
	assert.NotErrorIs(t, err, model.ErrCountryNotFound)
}
