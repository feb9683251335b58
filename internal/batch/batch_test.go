package batch

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"testing/fstest"
	"time"

	"github.com/bstardust/piclabel/internal/fshelper"
	"github.com/bstardust/piclabel/internal/imageinfo"
	"github.com/bstardust/piclabel/internal/journal"
	"github.com/bstardust/piclabel/internal/labeler"
	"github.com/bstardust/piclabel/internal/render"
	"github.com/bstardust/piclabel/internal/share"
	"github.com/bstardust/piclabel/pkg/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockExtractor struct {
	mock.Mock
}

func (m *MockExtractor) ExtractFile(ctx context.Context, fsys fs.FS, path string) (*imageinfo.Info, error) {
	args := m.Called(ctx, fsys, path)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*imageinfo.Info), args.Error(1)
}

type MockLabeler struct {
	mock.Mock
}

func (m *MockLabeler) Process(ctx context.Context, req labeler.Request) (*labeler.Result, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*labeler.Result), args.Error(1)
}

type MockSharer struct {
	mock.Mock
}

func (m *MockSharer) Share(ctx context.Context, res *labeler.Result, caption render.Caption) (*share.Shared, error) {
	args := m.Called(ctx, res, caption)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*share.Shared), args.Error(1)
}

type namedFS struct {
	fstest.MapFS
	name string
}

func (n namedFS) Name() string { return n.name }

func testSource(paths ...string) *fshelper.Source {
	m := fstest.MapFS{}
	for _, p := range paths {
		m[p] = &fstest.MapFile{Data: []byte("x")}
	}
	return &fshelper.Source{FS: namedFS{MapFS: m, name: "/photos"}, Paths: paths}
}

func info(dt string) *imageinfo.Info {
	return &imageinfo.Info{DateTime: dt, Location: "Paris, France", Orientation: 1}
}

func saved(path string) *labeler.Result {
	return &labeler.Result{Source: path, OutputPath: "/out/" + path}
}

func requestFor(path string) interface{} {
	return mock.MatchedBy(func(r labeler.Request) bool { return r.Path == path })
}

type collector struct {
	mu       sync.Mutex
	outcomes []Outcome
}

func (c *collector) add(o Outcome) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.outcomes = append(c.outcomes, o)
}

func TestProcessor_Run(t *testing.T) {
	ext := new(MockExtractor)
	lbl := new(MockLabeler)
	ext.On("ExtractFile", mock.Anything, mock.Anything, "a.jpg").Return(info("Monday"), nil)
	ext.On("ExtractFile", mock.Anything, mock.Anything, "b.jpg").Return(info("Tuesday"), nil)
	ext.On("ExtractFile", mock.Anything, mock.Anything, "bad.jpg").Return(nil, common.NewDecodeError("bad.jpg", errors.New("eof")))
	lbl.On("Process", mock.Anything, requestFor("a.jpg")).Return(saved("a.jpg"), nil)
	lbl.On("Process", mock.Anything, requestFor("b.jpg")).Return(saved("b.jpg"), nil)

	jnl := journal.New(filepath.Join(t.TempDir(), "journal.json"))
	var got collector
	p := New(ext, lbl, WithConcurrency(2), WithJournal(jnl, true), OnOutcome(got.add))

	summary, err := p.Run(context.Background(), []*fshelper.Source{testSource("a.jpg", "b.jpg", "bad.jpg")})
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 2, summary.Completed)
	assert.Equal(t, 1, summary.Errors)
	assert.Len(t, got.outcomes, 3)
	assert.Equal(t, []string{"/photos!a.jpg", "/photos!b.jpg"}, jnl.ListCompleted())
	ext.AssertExpectations(t)
	lbl.AssertExpectations(t)

	// resumed run skips what the journal holds
	reloaded := journal.New(jnl.Path())
	require.NoError(t, reloaded.Load())
	ext2 := new(MockExtractor)
	ext2.On("ExtractFile", mock.Anything, mock.Anything, "bad.jpg").Return(nil, common.NewDecodeError("bad.jpg", errors.New("eof")))

	summary, err = New(ext2, new(MockLabeler), WithJournal(reloaded, true)).
		Run(context.Background(), []*fshelper.Source{testSource("a.jpg", "b.jpg", "bad.jpg")})
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Skipped)
	assert.Equal(t, 1, summary.Errors)
	ext2.AssertNumberOfCalls(t, "ExtractFile", 1)
}

func TestProcessor_Overrides(t *testing.T) {
	ext := new(MockExtractor)
	lbl := new(MockLabeler)
	ext.On("ExtractFile", mock.Anything, mock.Anything, "a.jpg").Return(info("Monday"), nil)
	lbl.On("Process", mock.Anything, mock.MatchedBy(func(r labeler.Request) bool {
		return r.Caption == render.Caption{DateTime: "Monday", Location: "Home"}
	})).Return(saved("a.jpg"), nil)

	home := "Home"
	src := testSource("a.jpg")
	out := New(ext, lbl, WithOverrides(Overrides{Location: &home})).ProcessOne(context.Background(), src.FS, "a.jpg", "k")

	require.NoError(t, out.Err)
	lbl.AssertExpectations(t)
}

func TestProcessor_Share(t *testing.T) {
	ext := new(MockExtractor)
	lbl := new(MockLabeler)
	sh := new(MockSharer)
	ext.On("ExtractFile", mock.Anything, mock.Anything, mock.Anything).Return(info("Monday"), nil)
	lbl.On("Process", mock.Anything, requestFor("a.jpg")).Return(saved("a.jpg"), nil)
	lbl.On("Process", mock.Anything, requestFor("b.jpg")).Return(saved("b.jpg"), nil)
	sh.On("Share", mock.Anything, saved("a.jpg"), mock.Anything).Return(&share.Shared{Key: "a", URL: "https://s3/a"}, nil)
	sh.On("Share", mock.Anything, saved("b.jpg"), mock.Anything).Return(nil, common.NewShareError("upload failed", errors.New("AccessDenied")))

	jnl := journal.New(filepath.Join(t.TempDir(), "journal.json"))
	p := New(ext, lbl, WithSharer(sh), WithJournal(jnl, false))
	src := testSource("a.jpg", "b.jpg")

	a := p.ProcessOne(context.Background(), src.FS, "a.jpg", "ka")
	require.NoError(t, a.Err)
	assert.Equal(t, "https://s3/a", a.Shared.URL)

	b := p.ProcessOne(context.Background(), src.FS, "b.jpg", "kb")
	var shareErr *common.ShareError
	assert.ErrorAs(t, b.Err, &shareErr)
	assert.NotNil(t, b.Result, "labeled output is kept when sharing fails")

	assert.Equal(t, "https://s3/a", jnl.Entries["ka"].URL)
	assert.True(t, jnl.IsLabeled("kb"))
}

func TestProcessor_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := New(new(MockExtractor), new(MockLabeler), WithConcurrency(1)).
		Run(ctx, []*fshelper.Source{testSource("a.jpg")})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, summary.Completed)
}

func TestProcessor_StartSubmitFinish(t *testing.T) {
	ext := new(MockExtractor)
	lbl := new(MockLabeler)
	ext.On("ExtractFile", mock.Anything, mock.Anything, mock.Anything).Return(info("Monday"), nil)
	lbl.On("Process", mock.Anything, mock.Anything).Return(saved("x.jpg"), nil)

	var got collector
	p := New(ext, lbl, OnOutcome(got.add))
	p.Start()
	src := testSource("x.jpg", "y.jpg")
	for _, path := range src.Paths {
		require.NoError(t, p.Submit(context.Background(), src.FS, path, src.Key(path)))
	}
	summary := p.Finish()

	assert.Equal(t, 2, summary.Completed)
	var sources []string
	for _, o := range got.outcomes {
		sources = append(sources, o.Source)
	}
	sort.Strings(sources)
	assert.Equal(t, []string{"x.jpg", "y.jpg"}, sources)
	assert.True(t, summary.Duration < time.Minute)
}
