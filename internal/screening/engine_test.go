package screening

import (
	"context"
	"errors"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/banking/sanctions-screening/internal/domain"
	"github.com/banking/sanctions-screening/internal/watchlist"
)

type mockSource struct {
	mock.Mock
	name string
}

func (m *mockSource) Name() string { return m.name }

func (m *mockSource) Search(ctx context.Context, term string, threshold float64) ([]domain.MatchCandidate, error) {
	args := m.Called(ctx, term, threshold)
	candidates, _ := args.Get(0).([]domain.MatchCandidate)
	return candidates, args.Error(1)
}

func (m *mockSource) Refresh(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockSource) Stats() domain.SourceStats {
	return m.Called().Get(0).(domain.SourceStats)
}

// funcSource answers searches with a plain function
type funcSource struct {
	name   string
	search func(term string) ([]domain.MatchCandidate, error)
	calls  atomic.Int32
}

func (f *funcSource) Name() string { return f.name }

func (f *funcSource) Search(ctx context.Context, term string, threshold float64) ([]domain.MatchCandidate, error) {
	f.calls.Add(1)
	return f.search(term)
}

func (f *funcSource) Refresh(ctx context.Context) error { return nil }

func (f *funcSource) Stats() domain.SourceStats { return domain.SourceStats{Name: f.name} }

type fileFetcher struct {
	path string
	err  error
}

func (f fileFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	return os.ReadFile(f.path)
}

func candidate(uid, name string, confidence float64) domain.MatchCandidate {
	return domain.MatchCandidate{
		Entity:       domain.SanctionedEntity{UID: uid, PrimaryName: name},
		MatchedField: domain.MatchedFieldName,
		MatchedValue: name,
		Confidence:   confidence,
	}
}

func feedSources(t *testing.T, ofacErr error) (*watchlist.FeedSource, *watchlist.FeedSource) {
	t.Helper()
	cache := watchlist.NewSourceCache(time.Hour)
	ofac, err := watchlist.NewOFACSource("http://feeds.test/sdn.xml",
		fileFetcher{path: "../watchlist/testdata/sdn.xml", err: ofacErr}, cache, zap.NewNop())
	require.NoError(t, err)
	un, err := watchlist.NewUNSource("http://feeds.test/consolidated.xml",
		fileFetcher{path: "../watchlist/testdata/consolidated.xml"}, cache, zap.NewNop())
	require.NoError(t, err)
	return ofac, un
}

func TestScreenEntityJohnDoe(t *testing.T) {
	ofac, un := feedSources(t, nil)
	engine := NewEngine(zap.NewNop(), nil,
		Registration{Source: ofac, Weight: 1},
		Registration{Source: un, Weight: 1})

	result, err := engine.ScreenEntity(context.Background(),
		domain.ClientProfile{FirstName: "John", LastName: "Doe"}, ScreenOptions{})
	require.NoError(t, err)

	require.Len(t, result.Matches, 1)
	m := result.Matches[0]
	assert.Equal(t, domain.SourceUN, m.Source)
	assert.Equal(t, "6908600", m.Entity.UID)
	assert.Equal(t, "John Doe", m.SearchTerm)
	assert.Equal(t, 1.0, m.Confidence)
	assert.Equal(t, 1.0, m.WeightedConfidence)
	assert.Equal(t, domain.RiskLevelCritical, m.RiskLevel)

	assert.Equal(t, 1, result.Summary.TotalMatches)
	assert.Equal(t, 1, result.Summary.HighRiskMatches)
	assert.Equal(t, []string{domain.SourceUN}, result.Summary.Sources)
	assert.Equal(t, 100, result.Summary.RiskScore)
	assert.Equal(t, domain.RecommendationReject, result.Summary.Recommendation)
	assert.False(t, result.Timestamp.IsZero())
}

func TestScreenEntityKeepsMatchesOfHealthySource(t *testing.T) {
	ofac, un := feedSources(t, errors.New("connection refused"))
	engine := NewEngine(zap.NewNop(), nil, Registration{Source: ofac}, Registration{Source: un})

	result, err := engine.ScreenEntity(context.Background(),
		domain.ClientProfile{FullName: "Abdul Rahman Yasin"}, ScreenOptions{})
	require.NoError(t, err)

	require.NotEmpty(t, result.Matches)
	for _, m := range result.Matches {
		assert.Equal(t, domain.SourceUN, m.Source)
	}
	assert.Equal(t, "6908555", result.Matches[0].Entity.UID)
}

func TestScreenEntityWithoutTermsIsClear(t *testing.T) {
	src := &funcSource{name: "X", search: func(string) ([]domain.MatchCandidate, error) {
		return []domain.MatchCandidate{candidate("1", "Anyone", 1)}, nil
	}}
	engine := NewEngine(zap.NewNop(), nil, Registration{Source: src})

	result, err := engine.ScreenEntity(context.Background(), domain.ClientProfile{FirstName: "Al"}, ScreenOptions{})
	require.NoError(t, err)
	assert.Empty(t, result.Matches)
	assert.NotNil(t, result.Matches)
	assert.Equal(t, domain.RecommendationClear, result.Summary.Recommendation)
	assert.Zero(t, src.calls.Load())
}

func TestScreenEntityWeightsSortsAndTruncates(t *testing.T) {
	heavy := &funcSource{name: "HEAVY", search: func(term string) ([]domain.MatchCandidate, error) {
		return []domain.MatchCandidate{candidate("h1", term, 0.8)}, nil
	}}
	light := &funcSource{name: "LIGHT", search: func(term string) ([]domain.MatchCandidate, error) {
		return []domain.MatchCandidate{candidate("l1", term, 0.9), candidate("l2", term, 0.82)}, nil
	}}
	engine := NewEngine(zap.NewNop(), nil,
		Registration{Source: heavy, Weight: 1.5},
		Registration{Source: light, Weight: 0.5})

	result, err := engine.ScreenEntity(context.Background(),
		domain.ClientProfile{FullName: "Ivan Petrov"}, ScreenOptions{MaxResults: 2})
	require.NoError(t, err)

	require.Len(t, result.Matches, 2)
	// weighted confidence is capped at 1
	assert.Equal(t, 1.0, result.Matches[0].WeightedConfidence)
	assert.Equal(t, "HEAVY", result.Matches[0].Source)
	assert.InDelta(t, 0.45, result.Matches[1].WeightedConfidence, 1e-9)
	assert.Equal(t, "l1", result.Matches[1].Entity.UID)
	assert.Equal(t, domain.RiskLevelLow, result.Matches[1].RiskLevel)
}

func TestScreenEntityOrderIsDeterministic(t *testing.T) {
	slow := &funcSource{name: "SLOW", search: func(term string) ([]domain.MatchCandidate, error) {
		time.Sleep(10 * time.Millisecond)
		return []domain.MatchCandidate{candidate("s-"+term, term, 0.9)}, nil
	}}
	fast := &funcSource{name: "FAST", search: func(term string) ([]domain.MatchCandidate, error) {
		return []domain.MatchCandidate{candidate("f-"+term, term, 0.9)}, nil
	}}
	engine := NewEngine(zap.NewNop(), nil, Registration{Source: slow}, Registration{Source: fast})

	result, err := engine.ScreenEntity(context.Background(),
		domain.ClientProfile{FirstName: "Ivan", LastName: "Petrov"}, ScreenOptions{})
	require.NoError(t, err)

	var uids []string
	for _, m := range result.Matches {
		uids = append(uids, m.Entity.UID)
	}
	assert.Equal(t, []string{
		"s-Ivan Petrov", "f-Ivan Petrov",
		"s-Petrov, Ivan", "f-Petrov, Ivan",
		"s-Ivan", "f-Ivan",
		"s-Petrov", "f-Petrov",
	}, uids)
}

func TestScreenEntitySourcePanicKeepsOtherMatches(t *testing.T) {
	broken := &funcSource{name: domain.SourceOFAC, search: func(string) ([]domain.MatchCandidate, error) {
		panic("snapshot index corrupted")
	}}
	healthy := &funcSource{name: domain.SourceUN, search: func(term string) ([]domain.MatchCandidate, error) {
		if term != "John Doe" {
			return nil, nil
		}
		return []domain.MatchCandidate{candidate("6908600", "John Doe", 1)}, nil
	}}
	engine := NewEngine(zap.NewNop(), nil, Registration{Source: broken}, Registration{Source: healthy})

	result, err := engine.ScreenEntity(context.Background(),
		domain.ClientProfile{FirstName: "John", LastName: "Doe"}, ScreenOptions{})
	require.NoError(t, err)
	require.NotNil(t, result)

	require.Len(t, result.Matches, 1)
	assert.Equal(t, domain.SourceUN, result.Matches[0].Source)
	assert.Equal(t, "6908600", result.Matches[0].Entity.UID)
	assert.Equal(t, domain.RecommendationReject, result.Summary.Recommendation)
}

func TestScreenEntityTwoCharacterChineseNameIsClear(t *testing.T) {
	src := &funcSource{name: "X", search: func(string) ([]domain.MatchCandidate, error) {
		return []domain.MatchCandidate{candidate("1", "王伟", 1)}, nil
	}}
	engine := NewEngine(zap.NewNop(), nil, Registration{Source: src})

	result, err := engine.ScreenEntity(context.Background(), domain.ClientProfile{FullName: "王伟"}, ScreenOptions{})
	require.NoError(t, err)
	assert.Empty(t, result.Matches)
	assert.Equal(t, domain.RecommendationClear, result.Summary.Recommendation)
	assert.Zero(t, src.calls.Load())
}

func TestScreenEntityContextCancelled(t *testing.T) {
	src := &funcSource{name: "X", search: func(string) ([]domain.MatchCandidate, error) {
		return nil, context.Canceled
	}}
	engine := NewEngine(zap.NewNop(), nil, Registration{Source: src})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := engine.ScreenEntity(ctx, domain.ClientProfile{FullName: "Ivan Petrov"}, ScreenOptions{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBatchScreenSettlesEachItem(t *testing.T) {
	src := &funcSource{name: "X", search: func(term string) ([]domain.MatchCandidate, error) {
		if term == "Panic Person" {
			panic("corrupt snapshot")
		}
		return []domain.MatchCandidate{candidate(term, term, 0.9)}, nil
	}}
	engine := NewEngine(zap.NewNop(), nil, Registration{Source: src})

	profiles := []domain.ClientProfile{
		{FullName: "First Person"},
		{FullName: "Panic Person"},
		{FullName: "Third Person"},
	}
	items := engine.BatchScreen(context.Background(), profiles, BatchOptions{BatchSize: 3})

	require.Len(t, items, 3)
	require.NotNil(t, items[0].Result)
	assert.Equal(t, "First Person", items[0].Result.Matches[0].Entity.UID)

	// the panicking search leaves its item clear while its batch neighbours still finish
	require.NoError(t, items[1].Err)
	require.NotNil(t, items[1].Result)
	assert.Empty(t, items[1].Result.Matches)
	assert.Equal(t, domain.RecommendationClear, items[1].Result.Summary.Recommendation)

	require.NotNil(t, items[2].Result)
	assert.Equal(t, "Third Person", items[2].Result.Matches[0].Entity.UID)
}

func TestBatchScreenPreservesOrder(t *testing.T) {
	src := &funcSource{name: "X", search: func(term string) ([]domain.MatchCandidate, error) {
		if term == "Name 0" {
			time.Sleep(20 * time.Millisecond)
		}
		return []domain.MatchCandidate{candidate(term, term, 0.9)}, nil
	}}
	engine := NewEngine(zap.NewNop(), nil, Registration{Source: src})

	profiles := make([]domain.ClientProfile, 7)
	for i := range profiles {
		profiles[i] = domain.ClientProfile{FullName: "Name " + string(rune('0'+i))}
	}
	items := engine.BatchScreen(context.Background(), profiles, BatchOptions{BatchSize: 3})

	require.Len(t, items, 7)
	for i, item := range items {
		assert.Equal(t, i, item.Index)
		assert.Equal(t, profiles[i], item.Profile)
		require.NoError(t, item.Err)
		assert.Equal(t, profiles[i].FullName, item.Result.Matches[0].Entity.UID)
	}
}

func TestBatchScreenCancelledContext(t *testing.T) {
	src := &funcSource{name: "X", search: func(string) ([]domain.MatchCandidate, error) { return nil, nil }}
	engine := NewEngine(zap.NewNop(), nil, Registration{Source: src})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	items := engine.BatchScreen(ctx, []domain.ClientProfile{{FullName: "Ivan Petrov"}, {FullName: "Olga Petrova"}}, BatchOptions{})

	require.Len(t, items, 2)
	for _, item := range items {
		assert.ErrorIs(t, item.Err, context.Canceled)
	}
	assert.Zero(t, src.calls.Load())
}

func TestGetStats(t *testing.T) {
	older := time.Date(2024, 9, 30, 2, 0, 0, 0, time.UTC)
	newer := older.Add(time.Hour)

	ofac := &mockSource{name: domain.SourceOFAC}
	ofac.On("Stats").Return(domain.SourceStats{Name: domain.SourceOFAC, TotalEntries: 3, LastUpdate: &older})
	un := &mockSource{name: domain.SourceUN}
	un.On("Stats").Return(domain.SourceStats{Name: domain.SourceUN, TotalEntries: 4, LastUpdate: &newer})
	empty := &mockSource{name: "EU"}
	empty.On("Stats").Return(domain.SourceStats{Name: "EU"})

	stats := NewEngine(zap.NewNop(), nil,
		Registration{Source: ofac}, Registration{Source: un}, Registration{Source: empty}).GetStats()

	require.Len(t, stats.Services, 3)
	assert.Equal(t, 7, stats.TotalEntries)
	require.NotNil(t, stats.LastUpdate)
	assert.Equal(t, newer, *stats.LastUpdate)
	assert.Nil(t, stats.Services[2].LastUpdate)
}

func TestRefreshAllDataReportsEverySource(t *testing.T) {
	ctx := context.Background()
	ofac := &mockSource{name: domain.SourceOFAC}
	ofac.On("Refresh", ctx).Return(domain.NewFetchError(domain.SourceOFAC, "feed download failed", errors.New("timeout"))).Once()
	un := &mockSource{name: domain.SourceUN}
	un.On("Refresh", ctx).Return(nil).Once()

	statuses := NewEngine(zap.NewNop(), nil, Registration{Source: ofac}, Registration{Source: un}).RefreshAllData(ctx)

	require.Len(t, statuses, 2)
	assert.Equal(t, domain.SourceOFAC, statuses[0].Service)
	assert.Equal(t, domain.RefreshStatusError, statuses[0].Status)
	assert.Contains(t, statuses[0].Error, "timeout")
	assert.Equal(t, domain.RefreshStatus{Service: domain.SourceUN, Status: domain.RefreshStatusSuccess}, statuses[1])
	ofac.AssertExpectations(t)
	un.AssertExpectations(t)
}

func TestNewEngineSkipsNilSources(t *testing.T) {
	src := &funcSource{name: "X", search: func(string) ([]domain.MatchCandidate, error) { return nil, nil }}
	engine := NewEngine(zap.NewNop(), nil, Registration{}, Registration{Source: src, Weight: -1})
	assert.Equal(t, []string{"X"}, engine.Sources())
	assert.Equal(t, 1.0, engine.sources[0].Weight)
}
