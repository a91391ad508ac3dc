package source

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"skillpulse/internal/domain"
	"skillpulse/internal/domain/posting"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func testSettings(t *testing.T, srvURL string) (Settings, *[]time.Duration) {
	t.Helper()
	var slept []time.Duration
	return Settings{
		TheirstackAPIKey:  "secret",
		TheirstackBaseURL: srvURL,
		RemotiveBaseURL:   srvURL,
		ArbeitnowBaseURL:  srvURL,
		RetryAttempts:     3,
		RetryBaseDelay:    100 * time.Millisecond,
		Sleep: func(_ context.Context, d time.Duration) error {
			slept = append(slept, d)
			return nil
		},
		Now:    func() time.Time { return fixedNow },
		Logger: log.New(io.Discard, "", 0),
	}, &slept
}

func mustQuery(t *testing.T, loc string, role posting.RoleBucket, level posting.LevelBucket, days, max int) posting.IngestionQuery {
	t.Helper()
	q, err := posting.NewIngestionQuery(loc, role, level, days, max)
	require.NoError(t, err)
	return q
}

func jobsJSON(key string, n, offset int) []byte {
	jobs := make([]map[string]any, 0, n)
	for i := 0; i < n; i++ {
		jobs = append(jobs, map[string]any{"id": strconv.Itoa(offset + i)})
	}
	b, _ := json.Marshal(map[string]any{key: jobs})
	return b
}

func TestRegistry_UnknownSource(t *testing.T) {
	_, err := New("monster", Settings{})

	var unknown *domain.UnknownSourceError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "monster", unknown.Name)
	assert.Equal(t, []string{"arbeitnow", "remotive", "theirstack"}, unknown.Known)
}

func TestRegistry_DefaultIsTheirstack(t *testing.T) {
	a, err := New("", Settings{TheirstackAPIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, "theirstack", a.Name())
}

func TestRegistry_Remotive(t *testing.T) {
	a, err := New("remotive", Settings{})
	require.NoError(t, err)
	assert.IsType(t, &RemotiveAdapter{}, a)
}

func TestNewMany_ExpandsAllAndDedupes(t *testing.T) {
	adapters, err := NewMany([]string{"remotive", "all"}, Settings{TheirstackAPIKey: "k"})
	require.NoError(t, err)

	names := make([]string, 0, len(adapters))
	for _, a := range adapters {
		names = append(names, a.Name())
	}
	assert.Equal(t, []string{"remotive", "arbeitnow", "theirstack"}, names)
}

func TestTheirstack_MissingKeyIsConfigurationError(t *testing.T) {
	_, err := New("theirstack", Settings{TheirstackAPIKey: "  "})

	var cfgErr *domain.ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "THEIRSTACK_API_KEY", cfgErr.Key)
}

func TestTheirstack_FetchBuildsPayloadAndPaginates(t *testing.T) {
	var bodies []theirstackSearch
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/jobs/search", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var body theirstackSearch
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		bodies = append(bodies, body)

		_, _ = w.Write(jobsJSON("data", body.Limit, body.Page*50))
	}))
	defer srv.Close()

	s, _ := testSettings(t, srv.URL)
	a, err := NewTheirstackAdapter(s)
	require.NoError(t, err)

	got, err := a.Fetch(context.Background(), mustQuery(t, "Dallas, TX", posting.RoleBackend, posting.LevelEntry, 7, 70))
	require.NoError(t, err)
	assert.Len(t, got, 70)

	require.Len(t, bodies, 2)
	assert.Equal(t, 0, bodies[0].Page)
	assert.Equal(t, 50, bodies[0].Limit)
	assert.Equal(t, 1, bodies[1].Page)
	assert.Equal(t, 20, bodies[1].Limit)
	assert.Equal(t, 7, bodies[0].PostedAtMaxAgeDays)
	assert.Equal(t, []string{"backend"}, bodies[0].JobTitleOr)
	assert.Equal(t, []string{"intern", "entry", "junior"}, bodies[0].JobSeniorityOr)
	assert.Equal(t, []string{`Dallas, TX`}, bodies[0].JobLocationPatternOr)
}

func TestTheirstack_StopsOnShortPage(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write(jobsJSON("jobs", 3, 0))
	}))
	defer srv.Close()

	s, _ := testSettings(t, srv.URL)
	a, err := NewTheirstackAdapter(s)
	require.NoError(t, err)

	got, err := a.Fetch(context.Background(), mustQuery(t, "", posting.RoleAny, posting.LevelJuniorMid, 30, 250))
	require.NoError(t, err)
	assert.Len(t, got, 3)
	assert.Equal(t, int32(1), calls.Load())
}

func TestTheirstack_OmitsAnyFilters(t *testing.T) {
	var raw map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	s, _ := testSettings(t, srv.URL)
	a, err := NewTheirstackAdapter(s)
	require.NoError(t, err)

	got, err := a.Fetch(context.Background(), mustQuery(t, "", posting.RoleAny, posting.LevelAny, 30, 10))
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NotContains(t, raw, "job_title_or")
	assert.NotContains(t, raw, "job_seniority_or")
	assert.NotContains(t, raw, "job_location_pattern_or")
}

func TestRequester_RetriesTransientThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"jobs":[{"id":1}]}`))
	}))
	defer srv.Close()

	s, slept := testSettings(t, srv.URL)
	got, err := NewRemotiveAdapter(s).Fetch(context.Background(), mustQuery(t, "", posting.RoleAny, posting.LevelAny, 30, 10))
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, []time.Duration{100 * time.Millisecond, 200 * time.Millisecond}, *slept)
}

func TestRequester_GivesUpAfterRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	s, _ := testSettings(t, srv.URL)
	_, err := NewRemotiveAdapter(s).Fetch(context.Background(), mustQuery(t, "", posting.RoleAny, posting.LevelAny, 30, 10))

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusTooManyRequests, se.Code)
	assert.Equal(t, int32(4), calls.Load())
}

func TestRequester_NoRetryOnClientError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	s, slept := testSettings(t, srv.URL)
	a, err := NewTheirstackAdapter(s)
	require.NoError(t, err)

	_, err = a.Fetch(context.Background(), mustQuery(t, "", posting.RoleAny, posting.LevelAny, 30, 10))
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
	assert.Empty(t, *slept)
}

func TestRemotive_SearchAndRecency(t *testing.T) {
	var search string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/remote-jobs", r.URL.Path)
		search = r.URL.Query().Get("search")
		_, _ = w.Write([]byte(`{"jobs":[
			{"id":1,"publication_date":"2026-03-09T10:00:00"},
			{"id":2,"publication_date":"2025-01-01T10:00:00"},
			{"id":3,"publication_date":"not a date"},
			{"id":4}
		]}`))
	}))
	defer srv.Close()

	s, _ := testSettings(t, srv.URL)
	got, err := NewRemotiveAdapter(s).Fetch(context.Background(), mustQuery(t, "", posting.RoleFrontend, posting.LevelAny, 7, 10))
	require.NoError(t, err)

	assert.Equal(t, "frontend", search)
	require.Len(t, got, 3)
	assert.JSONEq(t, `{"id":1,"publication_date":"2026-03-09T10:00:00"}`, string(got[0]))
	assert.JSONEq(t, `{"id":3,"publication_date":"not a date"}`, string(got[1]))
}

func TestRemotive_Cap(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(jobsJSON("jobs", 10, 0))
	}))
	defer srv.Close()

	s, _ := testSettings(t, srv.URL)
	got, err := NewRemotiveAdapter(s).Fetch(context.Background(), mustQuery(t, "", posting.RoleAny, posting.LevelAny, 30, 4))
	require.NoError(t, err)
	assert.Len(t, got, 4)
}

func TestArbeitnow_FollowsNextLink(t *testing.T) {
	recent := fixedNow.Add(-24 * time.Hour).Unix()
	old := fixedNow.Add(-90 * 24 * time.Hour).Unix()

	var pages []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := r.URL.Query().Get("page")
		pages = append(pages, p)
		switch p {
		case "1":
			_, _ = w.Write([]byte(`{"data":[{"slug":"a","created_at":` + strconv.FormatInt(recent, 10) + `},{"slug":"b","created_at":` + strconv.FormatInt(old, 10) + `}],"links":{"next":"?page=2"}}`))
		case "2":
			_, _ = w.Write([]byte(`{"data":[{"slug":"c"}],"links":{"next":null}}`))
		default:
			_, _ = w.Write([]byte(`{"data":[]}`))
		}
	}))
	defer srv.Close()

	s, _ := testSettings(t, srv.URL)
	got, err := NewArbeitnowAdapter(s).Fetch(context.Background(), mustQuery(t, "", posting.RoleAny, posting.LevelAny, 30, 50))
	require.NoError(t, err)

	assert.Equal(t, []string{"1", "2"}, pages)
	require.Len(t, got, 2)
	assert.JSONEq(t, `{"slug":"c"}`, string(got[1]))
}

func TestArbeitnow_NullNextStopsAfterLaterPage(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Query().Get("page") == "1" {
			_, _ = w.Write([]byte(`{"data":[{"slug":"first"}],"links":{"next":"?page=2"}}`))
			return
		}
		// Past the end the board keeps serving its last page.
		_, _ = w.Write([]byte(`{"data":[{"slug":"last"}],"links":{"next":null}}`))
	}))
	defer srv.Close()

	s, _ := testSettings(t, srv.URL)
	got, err := NewArbeitnowAdapter(s).Fetch(context.Background(), mustQuery(t, "", posting.RoleAny, posting.LevelAny, 30, 50))
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, int32(2), calls.Load())
}

func TestArbeitnow_SinglePageWithoutLinks(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write(jobsJSON("data", 5, 0))
	}))
	defer srv.Close()

	s, _ := testSettings(t, srv.URL)
	got, err := NewArbeitnowAdapter(s).Fetch(context.Background(), mustQuery(t, "", posting.RoleAny, posting.LevelAny, 30, 50))
	require.NoError(t, err)
	assert.Len(t, got, 5)
	assert.Equal(t, int32(1), calls.Load())
}
