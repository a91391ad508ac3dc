package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"testing"
	"time"

	"skillpulse/internal/config"
	"skillpulse/internal/domain"
	"skillpulse/internal/domain/posting"
	"skillpulse/internal/pipeline"
	"skillpulse/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockStore struct{ mock.Mock }

func (m *mockStore) CountMatching(ctx context.Context, q posting.IngestionQuery) (int, error) {
	args := m.Called(ctx, q)
	return args.Int(0), args.Error(1)
}

func (m *mockStore) CountDistinctCompanies(ctx context.Context, q posting.IngestionQuery) (int, error) {
	args := m.Called(ctx, q)
	return args.Int(0), args.Error(1)
}

func (m *mockStore) SkillPostingCounts(ctx context.Context, q posting.IngestionQuery) ([]repository.SkillPostingCount, error) {
	args := m.Called(ctx, q)
	counts, _ := args.Get(0).([]repository.SkillPostingCount)
	return counts, args.Error(1)
}

type memCache struct {
	items map[string][]byte
	sets  int
}

func (c *memCache) GetJSON(ctx context.Context, key string, out any) (bool, error) {
	b, ok := c.items[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, out)
}

func (c *memCache) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if c.items == nil {
		c.items = map[string][]byte{}
	}
	c.items[key] = b
	c.sets++
	return nil
}

func discard() *log.Logger { return log.New(io.Discard, "", 0) }

func intPtr(v int) *int { return &v }

func TestInsightsUsecase_CacheAside(t *testing.T) {
	store := &mockStore{}
	store.On("CountMatching", mock.Anything, mock.Anything).Return(4, nil)
	store.On("CountDistinctCompanies", mock.Anything, mock.Anything).Return(2, nil)
	store.On("SkillPostingCounts", mock.Anything, mock.Anything).Return([]repository.SkillPostingCount{{Skill: "Python", Postings: 2}}, nil)

	c := &memCache{}
	uc := NewInsightsUsecase(store, c, discard())
	uc.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }

	params := InsightsParams{Location: "Dallas, TX", Role: "backend", Level: "entry"}
	first, err := uc.GetReport(context.Background(), params)
	require.NoError(t, err)
	require.Len(t, first.Skills, 1)
	assert.Equal(t, 50, first.Skills[0].Pct)
	assert.Equal(t, "Junior Backend Software Engineer", first.Title)
	assert.Equal(t, 1, c.sets)

	params.Location = "  dallas,   tx "
	second, err := uc.GetReport(context.Background(), params)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, c.sets)
	store.AssertNumberOfCalls(t, "CountDistinctCompanies", 1)
}

func TestInsightsUsecase_NilCacheAlwaysBuilds(t *testing.T) {
	store := &mockStore{}
	store.On("CountMatching", mock.Anything, mock.Anything).Return(0, nil)
	store.On("CountDistinctCompanies", mock.Anything, mock.Anything).Return(0, nil)

	uc := NewInsightsUsecase(store, nil, discard())
	for i := 0; i < 2; i++ {
		r, err := uc.GetReport(context.Background(), InsightsParams{})
		require.NoError(t, err)
		assert.Empty(t, r.Skills)
		assert.Equal(t, posting.DefaultLocation, r.Filters.Location)
		assert.Equal(t, posting.DefaultDays, r.Window.Days)
	}
	store.AssertNumberOfCalls(t, "CountDistinctCompanies", 2)
	store.AssertNotCalled(t, "SkillPostingCounts", mock.Anything, mock.Anything)
}

func TestInsightsUsecase_TopDefaultsWhenZero(t *testing.T) {
	counts := make([]repository.SkillPostingCount, 0, 7)
	for i, name := range []string{"Python", "Java", "Go", "AWS", "Redis", "MySQL", "Flask"} {
		counts = append(counts, repository.SkillPostingCount{Skill: name, Postings: 10 - i})
	}
	store := &mockStore{}
	store.On("CountMatching", mock.Anything, mock.Anything).Return(10, nil)
	store.On("CountDistinctCompanies", mock.Anything, mock.Anything).Return(3, nil)
	store.On("SkillPostingCounts", mock.Anything, mock.Anything).Return(counts, nil)

	uc := NewInsightsUsecase(store, nil, discard())

	r, err := uc.GetReport(context.Background(), InsightsParams{Top: 0})
	require.NoError(t, err)
	require.Len(t, r.Skills, DefaultTopSkills)
	assert.Equal(t, "Python", r.Skills[0].Name)

	r, err = uc.GetReport(context.Background(), InsightsParams{Top: 7})
	require.NoError(t, err)
	assert.Len(t, r.Skills, 7)
}

func TestInsightsUsecase_InvalidInput(t *testing.T) {
	uc := NewInsightsUsecase(&mockStore{}, nil, discard())
	cases := map[string]InsightsParams{
		"role":      {Role: "devops"},
		"level":     {Level: "senior_excluded"},
		"days":      {Days: intPtr(-1)},
		"top":       {Top: -2},
		"top_large": {Top: 26},
	}
	for name, p := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := uc.GetReport(context.Background(), p)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestInsightsUsecase_StoreErrorIsInternal(t *testing.T) {
	store := &mockStore{}
	store.On("CountMatching", mock.Anything, mock.Anything).Return(0, errors.New("conn refused"))

	var buf bytes.Buffer
	uc := NewInsightsUsecase(store, &memCache{}, log.New(&buf, "", 0))
	_, err := uc.GetReport(context.Background(), InsightsParams{})
	assert.ErrorIs(t, err, ErrInternal)
	assert.Contains(t, buf.String(), "status=build_failed")
}

func TestInsightsParams_LocationAnyClearsFilter(t *testing.T) {
	q, err := InsightsParams{Location: "ANY", Days: intPtr(0)}.Query()
	require.NoError(t, err)
	assert.Equal(t, "", q.Location())
	assert.Equal(t, 0, q.Days())
}

func TestInsightsCacheKey(t *testing.T) {
	a, _ := posting.NewIngestionQuery("Dallas, TX", posting.RoleBackend, posting.LevelEntry, 30, 250)
	b, _ := posting.NewIngestionQuery("dallas,  TX", posting.RoleBackend, posting.LevelEntry, 30, 250)
	c, _ := posting.NewIngestionQuery("Dallas, TX", posting.RoleFrontend, posting.LevelEntry, 30, 250)

	assert.Equal(t, InsightsCacheKey(a, 5), InsightsCacheKey(b, 5))
	assert.NotEqual(t, InsightsCacheKey(a, 5), InsightsCacheKey(a, 10))
	assert.NotEqual(t, InsightsCacheKey(a, 5), InsightsCacheKey(c, 5))
	assert.Regexp(t, `^insights:[0-9a-f]{64}$`, InsightsCacheKey(a, 5))
}

type fakeStats struct {
	total    int
	totalErr error
	rolesErr error
}

func (f fakeStats) TotalPostings(context.Context) (int, error) { return f.total, f.totalErr }
func (f fakeStats) PostingsToday(context.Context) (int, error) { return 3, nil }
func (f fakeStats) SkillRowCount(context.Context) (int, error) { return 40, nil }
func (f fakeStats) SourceStats(context.Context) ([]domain.SourceStat, error) {
	return []domain.SourceStat{{Source: "remotive", TotalPostings: f.total}}, nil
}
func (f fakeStats) CountBy(_ context.Context, column string) ([]domain.BucketStat, error) {
	if column == "role_bucket" {
		if f.rolesErr != nil {
			return nil, f.rolesErr
		}
		return []domain.BucketStat{{Key: "backend", Count: f.total}}, nil
	}
	return []domain.BucketStat{{Key: "entry", Count: f.total}}, nil
}
func (f fakeStats) Sample(context.Context, int) ([]repository.PostingSample, error) { return nil, nil }

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

func TestPipelineStatusUsecase_GetStatus(t *testing.T) {
	now := time.Date(2024, 5, 1, 8, 0, 0, 0, time.FixedZone("x", 3600))
	uc := NewPipelineStatusUsecase(fakeStats{total: 12}, pinger{}, pinger{err: errors.New("down")}, discard())
	uc.now = func() time.Time { return now }

	st, err := uc.GetStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 12, st.TotalPostings)
	assert.Equal(t, 3, st.PostingsToday)
	assert.Equal(t, 40, st.SkillRows)
	assert.Equal(t, []domain.BucketStat{{Key: "backend", Count: 12}}, st.Roles)
	assert.Equal(t, []domain.BucketStat{{Key: "entry", Count: 12}}, st.Levels)
	assert.True(t, st.DatabaseHealthy)
	assert.False(t, st.RedisHealthy)
	assert.Equal(t, now.UTC(), st.ServerTime)
}

func TestPipelineStatusUsecase_PartialFailure(t *testing.T) {
	var buf bytes.Buffer
	uc := NewPipelineStatusUsecase(fakeStats{total: 1, rolesErr: errors.New("boom")}, nil, nil, log.New(&buf, "", 0))

	st, err := uc.GetStatus(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, st.Roles)
	assert.Empty(t, st.Roles)
	assert.False(t, st.DatabaseHealthy)
	assert.Contains(t, buf.String(), "step=roles status=error")

	_, err = NewPipelineStatusUsecase(fakeStats{totalErr: errors.New("down")}, nil, nil, discard()).GetStatus(context.Background())
	assert.Error(t, err)
}

type recordingRunner struct {
	got pipeline.FullRunParams
	err error
}

func (r *recordingRunner) Run(ctx context.Context, p pipeline.FullRunParams) (pipeline.FullRunSummary, error) {
	r.got = p
	return pipeline.FullRunSummary{RunID: "run-1"}, r.err
}

var scheduleDefaults = config.ScheduleConfig{
	Sources:    []string{"all"},
	Location:   "Dallas, TX",
	Role:       "backend",
	Level:      "entry",
	Days:       14,
	MaxResults: 100,
}

func TestPipelineRunUsecase_Defaults(t *testing.T) {
	r := &recordingRunner{}
	uc := NewPipelineRunUsecase(r, scheduleDefaults, discard())

	sum, err := uc.Trigger(context.Background(), PipelineRunParams{})
	require.NoError(t, err)
	assert.Equal(t, "run-1", sum.RunID)
	assert.Equal(t, []string{"all"}, r.got.Sources)
	assert.Equal(t, "Dallas, TX", r.got.Query.Location())
	assert.Equal(t, posting.RoleBackend, r.got.Query.RoleBucket())
	assert.Equal(t, posting.LevelEntry, r.got.Query.LevelBucket())
	assert.Equal(t, 14, r.got.Query.Days())
	assert.Equal(t, 100, r.got.Query.MaxResults())
}

func TestPipelineRunUsecase_Overrides(t *testing.T) {
	r := &recordingRunner{}
	uc := NewPipelineRunUsecase(r, scheduleDefaults, discard())

	_, err := uc.Trigger(context.Background(), PipelineRunParams{
		Sources:         []string{"remotive"},
		Location:        "Austin",
		Role:            "any",
		Level:           "junior_mid",
		Days:            intPtr(0),
		MaxResults:      10,
		ExtractionLimit: 50,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"remotive"}, r.got.Sources)
	assert.Equal(t, "Austin", r.got.Query.Location())
	assert.Equal(t, posting.RoleAny, r.got.Query.RoleBucket())
	assert.Equal(t, posting.LevelJuniorMid, r.got.Query.LevelBucket())
	assert.Equal(t, 0, r.got.Query.Days())
	assert.Equal(t, 10, r.got.Query.MaxResults())
	assert.Equal(t, 50, r.got.ExtractionLimit)
}

func TestPipelineRunUsecase_Errors(t *testing.T) {
	uc := NewPipelineRunUsecase(&recordingRunner{}, scheduleDefaults, discard())
	_, err := uc.Trigger(context.Background(), PipelineRunParams{Role: "devops"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = uc.Trigger(context.Background(), PipelineRunParams{MaxResults: -1})
	assert.ErrorIs(t, err, ErrInvalidInput)

	uc = NewPipelineRunUsecase(&recordingRunner{err: &domain.UnknownSourceError{Name: "x"}}, scheduleDefaults, discard())
	_, err = uc.Trigger(context.Background(), PipelineRunParams{})
	assert.ErrorIs(t, err, ErrInvalidInput)

	uc = NewPipelineRunUsecase(&recordingRunner{err: pipeline.ErrRunInProgress}, scheduleDefaults, discard())
	_, err = uc.Trigger(context.Background(), PipelineRunParams{})
	assert.ErrorIs(t, err, pipeline.ErrRunInProgress)
}
