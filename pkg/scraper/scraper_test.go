package scraper

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shouni/race-result-pipe-go/pkg/render"
	"github.com/shouni/race-result-pipe-go/pkg/types"
)

// ----------------------------------------------------------------
// フェイク Renderer（実ブラウザを起動しないテストの継ぎ目）
// ----------------------------------------------------------------

const cannedHTML = `
<div class="ant-card-meta-detail">
  <div class="ant-card-meta-title">홍길동</div>
  <div class="ant-card-meta-description">남자 | #1051</div>
</div>
<div class="table-row ant-row">
  <div class="ant-col ant-col-6">5K</div>
  <div class="ant-col ant-col-6">08:25:30</div>
  <div class="ant-col ant-col-6">25:30</div>
  <div class="ant-col ant-col-6">25:30</div>
</div>`

type fakeRenderer struct {
	mu          sync.Mutex
	errs        map[int]error // runner_id -> 返すエラー
	panics      map[int]bool  // runner_id -> パニックさせる
	closed      bool
	inFlight    int
	maxInFlight int
}

func (f *fakeRenderer) Render(ctx context.Context, raceID, runnerID int) (string, error) {
	f.mu.Lock()
	f.inFlight++
	if f.inFlight > f.maxInFlight {
		f.maxInFlight = f.inFlight
	}
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.inFlight--
		f.mu.Unlock()
	}()

	if f.panics[runnerID] {
		panic(fmt.Sprintf("simulated crash for %d", runnerID))
	}
	if err, ok := f.errs[runnerID]; ok {
		return "", err
	}
	return cannedHTML, nil
}

func (f *fakeRenderer) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func newFakeScraper(fake *fakeRenderer, concurrency int) *ParallelScraper {
	factory := func() (render.Renderer, error) { return fake, nil }
	return NewParallelScraper(factory, concurrency, WithLaunchDelay(0))
}

func runnerIDsOf(records []types.ParticipantRecord) []int {
	ids := make([]int, 0, len(records))
	for _, rec := range records {
		ids = append(ids, rec.RunnerID)
	}
	return ids
}

// ----------------------------------------------------------------
// テスト本体
// ----------------------------------------------------------------

func TestGetManyCardinalityAndIDs(t *testing.T) {
	fake := &fakeRenderer{}
	s := newFakeScraper(fake, 3)

	requested := []int{1051, 1342, 1139, 1198, 3073}
	results, err := s.GetMany(context.Background(), 132, requested)
	require.NoError(t, err)

	// 要求N件に対して必ずN件のレコードが返り、IDの多重集合が一致する
	require.Len(t, results, len(requested))
	assert.ElementsMatch(t, requested, runnerIDsOf(results))

	for _, rec := range results {
		assert.False(t, rec.Failed())
		assert.Equal(t, "홍길동", rec.Name)
		assert.Len(t, rec.Sections, 1)
	}
}

func TestGetManyRespectsConcurrencyCeiling(t *testing.T) {
	fake := &fakeRenderer{}
	s := newFakeScraper(fake, 2)

	ids := make([]int, 20)
	for i := range ids {
		ids[i] = i + 1
	}

	_, err := s.GetMany(context.Background(), 132, ids)
	require.NoError(t, err)
	assert.LessOrEqual(t, fake.maxInFlight, 2)
}

func TestGetManyPerItemFailureDoesNotAbortSiblings(t *testing.T) {
	fake := &fakeRenderer{
		errs: map[int]error{
			1342: &render.Error{Kind: render.KindTimeout, Err: context.DeadlineExceeded},
		},
	}
	s := newFakeScraper(fake, 4)

	results, err := s.GetMany(context.Background(), 132, []int{1051, 1342, 1139})
	require.NoError(t, err)
	require.Len(t, results, 3)

	byID := make(map[int]types.ParticipantRecord)
	for _, rec := range results {
		byID[rec.RunnerID] = rec
	}

	assert.Equal(t, "timeout", byID[1342].Error)
	assert.Nil(t, byID[1342].Sections)
	assert.False(t, byID[1051].Failed())
	assert.False(t, byID[1139].Failed())
}

func TestGetManyErrorKinds(t *testing.T) {
	fake := &fakeRenderer{
		errs: map[int]error{
			1: &render.Error{Kind: render.KindTargetClosed, Err: errors.New("target closed")},
			2: &render.Error{Kind: render.KindFetchFailed, Err: errors.New("net::ERR_CONNECTION_REFUSED")},
			3: &render.Error{Kind: render.KindInternal, Err: errors.New("予期しない応答形式")},
		},
	}
	s := newFakeScraper(fake, 2)

	results, err := s.GetMany(context.Background(), 132, []int{1, 2, 3})
	require.NoError(t, err)

	byID := make(map[int]string)
	for _, rec := range results {
		byID[rec.RunnerID] = rec.Error
	}

	// 既知の分類は分類名、internal は元のメッセージを保持する
	assert.Equal(t, "target_closed", byID[1])
	assert.Equal(t, "fetch_failed", byID[2])
	assert.Equal(t, "予期しない応答形式", byID[3])
}

func TestGetManyRecoversWorkerPanic(t *testing.T) {
	fake := &fakeRenderer{
		panics: map[int]bool{7: true},
	}
	s := newFakeScraper(fake, 4)

	results, err := s.GetMany(context.Background(), 132, []int{5, 6, 7, 8})
	require.NoError(t, err)
	require.Len(t, results, 4)

	byID := make(map[int]types.ParticipantRecord)
	for _, rec := range results {
		byID[rec.RunnerID] = rec
	}

	// パニックは合成エラーレコードへ変換され、兄弟タスクは完了する
	assert.Contains(t, byID[7].Error, "critical gather failure:")
	assert.False(t, byID[5].Failed())
	assert.False(t, byID[6].Failed())
	assert.False(t, byID[8].Failed())
}

func TestGetManyClosesRendererOnAllPaths(t *testing.T) {
	t.Run("全件成功", func(t *testing.T) {
		fake := &fakeRenderer{}
		s := newFakeScraper(fake, 2)
		_, err := s.GetMany(context.Background(), 132, []int{1, 2})
		require.NoError(t, err)
		assert.True(t, fake.closed)
	})

	t.Run("全件失敗", func(t *testing.T) {
		fake := &fakeRenderer{
			errs: map[int]error{
				1: &render.Error{Kind: render.KindTimeout, Err: context.DeadlineExceeded},
				2: &render.Error{Kind: render.KindTimeout, Err: context.DeadlineExceeded},
			},
		}
		s := newFakeScraper(fake, 2)
		_, err := s.GetMany(context.Background(), 132, []int{1, 2})
		require.NoError(t, err)
		assert.True(t, fake.closed)
	})

	t.Run("ゼロ件", func(t *testing.T) {
		fake := &fakeRenderer{}
		s := newFakeScraper(fake, 2)
		results, err := s.GetMany(context.Background(), 132, nil)
		require.NoError(t, err)
		assert.Empty(t, results)
		assert.True(t, fake.closed)
	})
}

func TestGetManyRendererFactoryFailure(t *testing.T) {
	factory := func() (render.Renderer, error) {
		return nil, errors.New("ブラウザの起動に失敗しました")
	}
	s := NewParallelScraper(factory, 2, WithLaunchDelay(0))

	_, err := s.GetMany(context.Background(), 132, []int{1})
	assert.Error(t, err)
}

func TestGetManyEmitsProgress(t *testing.T) {
	fake := &fakeRenderer{}

	var mu sync.Mutex
	var seen []Progress
	factory := func() (render.Renderer, error) { return fake, nil }
	s := NewParallelScraper(factory, 2, WithLaunchDelay(0), WithProgress(func(p Progress) {
		mu.Lock()
		seen = append(seen, p)
		mu.Unlock()
	}))

	_, err := s.GetMany(context.Background(), 132, []int{1, 2, 3})
	require.NoError(t, err)

	require.Len(t, seen, 3)
	for _, p := range seen {
		assert.Equal(t, 3, p.Total)
		assert.GreaterOrEqual(t, p.Completed, 1)
		assert.LessOrEqual(t, p.Completed, 3)
	}
}
