package registry

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kailas-cloud/modelserve/internal/domain"
	domart "github.com/kailas-cloud/modelserve/internal/domain/artifact"
	"github.com/kailas-cloud/modelserve/internal/domain/features"
	"github.com/kailas-cloud/modelserve/internal/domain/forest"
	"github.com/kailas-cloud/modelserve/internal/domain/model/kind"
	"github.com/kailas-cloud/modelserve/internal/metrics"
)

const (
	logisticJSON = `{"weight":[0.5,-0.25],"bias":[0.1]}`
	treeJSON     = `{"feature":"Age","threshold":30,"left":{"value":[[10,0]]},"right":{"value":[[0,10]]}}`
	forestJSON   = `[{"feature":"x","threshold":1,"left":{"value":[[3,1]]},"right":{"value":[[0,4]]}},
		{"feature":"y","threshold":2,"left":{"value":[[2,2]]},"right":{"value":[[1,3]]}}]`
)

// --- Mocks ---

type mockRepo struct {
	mu      sync.Mutex
	items   map[string]domart.Artifact
	gets    int
	saveErr error
}

func newMockRepo() *mockRepo {
	return &mockRepo{items: make(map[string]domart.Artifact)}
}

func (m *mockRepo) Save(_ context.Context, a domart.Artifact) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.items[a.Name()] = a
	return nil
}

func (m *mockRepo) Get(_ context.Context, name string) (domart.Artifact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	a, ok := m.items[name]
	if !ok {
		return domart.Artifact{}, domain.ErrModelNotFound
	}
	return a, nil
}

func (m *mockRepo) List(_ context.Context) ([]domart.Artifact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domart.Artifact, 0, len(m.items))
	for _, a := range m.items {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out, nil
}

func (m *mockRepo) Delete(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[name]; !ok {
		return domain.ErrModelNotFound
	}
	delete(m.items, name)
	return nil
}

func (m *mockRepo) getCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gets
}

// pausingRepo holds the next Get after it has read the artifact, until
// release is closed.
type pausingRepo struct {
	*mockRepo
	once    sync.Once
	read    chan struct{}
	release chan struct{}
}

func newPausingRepo() *pausingRepo {
	return &pausingRepo{
		mockRepo: newMockRepo(),
		read:     make(chan struct{}),
		release:  make(chan struct{}),
	}
}

func (p *pausingRepo) Get(ctx context.Context, name string) (domart.Artifact, error) {
	a, err := p.mockRepo.Get(ctx, name)
	p.once.Do(func() {
		close(p.read)
		<-p.release
	})
	return a, err
}

func seedArtifact(t *testing.T, repo *mockRepo, name, data string) {
	t.Helper()
	a, err := domart.New(name, kind.Logistic, []byte(data), nil, "")
	if err != nil {
		t.Fatal(err)
	}
	if err := repo.Save(context.Background(), a); err != nil {
		t.Fatal(err)
	}
}

// --- Tests ---

func TestRegister_Logistic(t *testing.T) {
	repo := newMockRepo()
	svc := New(repo, 8, 0, nil)

	d, err := svc.Register(context.Background(), "titanic", []byte(logisticJSON), Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Kind != kind.Logistic || d.Classes != 2 || len(d.Weights) != 2 || d.Bias != 0.1 {
		t.Errorf("unexpected description: %+v", d)
	}
	if len(d.FeatureNames) != 2 || d.FeatureNames[0] != "f1" {
		t.Errorf("unexpected feature names: %v", d.FeatureNames)
	}
	if d.Checksum != domart.Checksum([]byte(logisticJSON)) {
		t.Errorf("unexpected checksum: %s", d.Checksum)
	}
	if _, ok := repo.items["titanic"]; !ok {
		t.Error("expected artifact to be persisted")
	}
}

func TestRegister_InvalidArtifactNotPersisted(t *testing.T) {
	repo := newMockRepo()
	svc := New(repo, 8, 0, nil)
	before := testutil.ToFloat64(metrics.ModelLoadsTotal.WithLabelValues("tree", "error"))

	_, err := svc.Register(context.Background(), "bad", []byte(`{"feature":"a"}`), Options{Kind: kind.Tree})
	var se *domain.SchemaError
	if !errors.As(err, &se) {
		t.Fatalf("expected SchemaError, got %v", err)
	}
	if len(repo.items) != 0 {
		t.Error("invalid artifact must not be stored")
	}
	if _, err := svc.Get(context.Background(), "bad"); !errors.Is(err, domain.ErrModelNotFound) {
		t.Errorf("expected ErrModelNotFound, got %v", err)
	}
	after := testutil.ToFloat64(metrics.ModelLoadsTotal.WithLabelValues("tree", "error"))
	if after-before != 1 {
		t.Errorf("expected one failed load recorded, got %f", after-before)
	}
}

func TestRegister_InvalidName(t *testing.T) {
	svc := New(newMockRepo(), 8, 0, nil)
	_, err := svc.Register(context.Background(), "a/b", []byte(logisticJSON), Options{})
	if !errors.Is(err, domain.ErrInvalidName) {
		t.Fatalf("expected ErrInvalidName, got %v", err)
	}
}

func TestRegister_SaveError(t *testing.T) {
	repo := newMockRepo()
	repo.saveErr = errors.New("connection lost")
	svc := New(repo, 8, 0, nil)

	if _, err := svc.Register(context.Background(), "m", []byte(logisticJSON), Options{}); err == nil {
		t.Fatal("expected error")
	}
	if _, err := svc.Get(context.Background(), "m"); !errors.Is(err, domain.ErrModelNotFound) {
		t.Errorf("model must not be published when save fails, got %v", err)
	}
}

func TestGet_CacheHitAndMiss(t *testing.T) {
	repo := newMockRepo()
	ctx := context.Background()

	// another replica stored the artifact
	a, err := domart.New("tree", kind.Tree, []byte(treeJSON), nil, "")
	if err != nil {
		t.Fatalf("domart.New: %v", err)
	}
	_ = repo.Save(ctx, a)

	svc := New(repo, 8, 0, nil)
	m1, err := svc.Get(ctx, "tree")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	m2, err := svc.Get(ctx, "tree")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if m1 != m2 {
		t.Error("expected the cached model to be shared")
	}
	if repo.getCount() != 1 {
		t.Errorf("expected one storage read, got %d", repo.getCount())
	}

	p, err := m1.Predict(features.NamedFloats(map[string]float64{"Age": 45}))
	if err != nil || p.Label() != 1 {
		t.Errorf("unexpected prediction: %v %v", p.Label(), err)
	}
}

func TestGet_EvictsLeastRecentlyUsed(t *testing.T) {
	repo := newMockRepo()
	svc := New(repo, 1, 0, nil)
	ctx := context.Background()

	for _, name := range []string{"a", "b"} {
		if _, err := svc.Register(ctx, name, []byte(logisticJSON), Options{}); err != nil {
			t.Fatalf("Register %s: %v", name, err)
		}
	}
	if _, err := svc.Get(ctx, "a"); err != nil {
		t.Fatalf("Get a: %v", err)
	}
	if repo.getCount() != 1 {
		t.Errorf("expected evicted model to be reloaded from storage, got %d reads", repo.getCount())
	}
	if v := testutil.ToFloat64(metrics.ModelsCached); v != 1 {
		t.Errorf("expected models_cached = 1, got %f", v)
	}
}

func TestDescribe_Forest(t *testing.T) {
	svc := New(newMockRepo(), 8, 0, nil)
	ctx := context.Background()
	if _, err := svc.Register(ctx, "rf", []byte(forestJSON), Options{Vote: forest.Hard}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	d, err := svc.Describe(ctx, "rf")
	if err != nil {
		t.Fatalf("Describe: %v", err)
	}
	if d.Kind != kind.Forest || d.Trees != 2 || d.Vote != forest.Hard || d.Leaves != 4 || d.Depth != 1 {
		t.Errorf("unexpected description: %+v", d)
	}
	if len(d.FeatureNames) != 2 || d.FeatureNames[0] != "x" || d.FeatureNames[1] != "y" {
		t.Errorf("expected sorted split features, got %v", d.FeatureNames)
	}
}

func TestList(t *testing.T) {
	repo := newMockRepo()
	svc := New(repo, 8, 0, nil)
	ctx := context.Background()

	_, _ = svc.Register(ctx, "b", []byte(treeJSON), Options{})
	_, _ = svc.Register(ctx, "a", []byte(logisticJSON), Options{})
	// corrupt artifact written behind the registry's back
	repo.items["c"] = domart.Reconstruct("c", kind.Tree, []byte(`{}`), nil, "", "", 1)

	list, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 || list[0].Name != "a" || list[1].Name != "b" {
		t.Errorf("unexpected list: %+v", list)
	}
}

func TestDelete(t *testing.T) {
	repo := newMockRepo()
	svc := New(repo, 8, 0, nil)
	ctx := context.Background()
	_, _ = svc.Register(ctx, "m", []byte(logisticJSON), Options{})

	if err := svc.Delete(ctx, "m"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := svc.Get(ctx, "m"); !errors.Is(err, domain.ErrModelNotFound) {
		t.Errorf("expected ErrModelNotFound after delete, got %v", err)
	}
	if err := svc.Delete(ctx, "m"); !errors.Is(err, domain.ErrModelNotFound) {
		t.Errorf("expected ErrModelNotFound on second delete, got %v", err)
	}
}

func TestPreload(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "titanic.json")
	if err := os.WriteFile(good, []byte(logisticJSON), 0o600); err != nil {
		t.Fatal(err)
	}

	svc := New(newMockRepo(), 8, 0, nil)
	err := svc.Preload(context.Background(), []PreloadEntry{
		{Name: "titanic", Path: good, Options: Options{FeatureNames: []string{"Age", "Fare"}}},
		{Name: "missing", Path: filepath.Join(dir, "nope.json")},
	})
	if err == nil {
		t.Fatal("expected error for missing file")
	}

	d, err := svc.Describe(context.Background(), "titanic")
	if err != nil {
		t.Fatalf("good entry should be registered: %v", err)
	}
	if d.FeatureNames[0] != "Age" {
		t.Errorf("expected declared names, got %v", d.FeatureNames)
	}
}

func TestRegisterFileUnregisterFile(t *testing.T) {
	svc := New(newMockRepo(), 8, 0, nil)
	ctx := context.Background()

	if err := svc.RegisterFile(ctx, "iris", kind.Tree, []byte(treeJSON)); err != nil {
		t.Fatalf("RegisterFile: %v", err)
	}
	if err := svc.RegisterFile(ctx, "wrong", kind.Logistic, []byte(treeJSON)); err == nil {
		t.Error("expected error when file kind does not match content")
	}
	if err := svc.UnregisterFile(ctx, "iris"); err != nil {
		t.Fatalf("UnregisterFile: %v", err)
	}
	if err := svc.UnregisterFile(ctx, "never-registered"); err != nil {
		t.Errorf("unregistering an unknown model must be a no-op, got %v", err)
	}
}

func TestGet_Concurrent(t *testing.T) {
	svc := New(newMockRepo(), 8, 0, nil)
	ctx := context.Background()
	if _, err := svc.Register(ctx, "m", []byte(forestJSON), Options{}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 32)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m, err := svc.Get(ctx, "m")
			if err != nil {
				errs <- err
				return
			}
			if _, err := m.Predict(features.NamedFloats(map[string]float64{"x": 2, "y": 1})); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("concurrent get: %v", err)
	}
}

const (
	negativeJSON = `{"weight":[0.0],"bias":[-100]}`
	positiveJSON = `{"weight":[0.0],"bias":[100]}`
)

// missDuringWrite starts a cache-miss Get, runs write while that Get holds a
// stale artifact, then lets the Get finish.
func missDuringWrite(t *testing.T, svc *Service, repo *pausingRepo, write func()) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = svc.Get(context.Background(), "m")
	}()
	<-repo.read
	write()
	close(repo.release)
	<-done
}

func TestGet_StaleMissDoesNotOverrideRegister(t *testing.T) {
	repo := newPausingRepo()
	seedArtifact(t, repo.mockRepo, "m", negativeJSON)
	svc := New(repo, 8, 0, nil)
	ctx := context.Background()

	missDuringWrite(t, svc, repo, func() {
		if _, err := svc.Register(ctx, "m", []byte(positiveJSON), Options{}); err != nil {
			t.Errorf("Register: %v", err)
		}
	})

	m, err := svc.Get(ctx, "m")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	p, err := m.Predict(features.Dense([]float64{0}))
	if err != nil {
		t.Fatal(err)
	}
	if p.Label() != 1 {
		t.Errorf("label = %d, want 1 from the re-registered model", p.Label())
	}
	d, err := svc.Describe(ctx, "m")
	if err != nil {
		t.Fatal(err)
	}
	if d.Checksum != domart.Checksum([]byte(positiveJSON)) {
		t.Errorf("cached checksum %s does not match stored artifact", d.Checksum)
	}
}

func TestGet_StaleMissDoesNotResurrectDeleted(t *testing.T) {
	repo := newPausingRepo()
	seedArtifact(t, repo.mockRepo, "m", negativeJSON)
	svc := New(repo, 8, 0, nil)
	ctx := context.Background()

	missDuringWrite(t, svc, repo, func() {
		if err := svc.Delete(ctx, "m"); err != nil {
			t.Errorf("Delete: %v", err)
		}
	})

	if _, err := svc.Get(ctx, "m"); !errors.Is(err, domain.ErrModelNotFound) {
		t.Errorf("expected ErrModelNotFound after delete, got %v", err)
	}
}

func TestGet_MissWithoutWritesIsCached(t *testing.T) {
	repo := newMockRepo()
	seedArtifact(t, repo, "m", negativeJSON)
	svc := New(repo, 8, 0, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := svc.Get(ctx, "m"); err != nil {
			t.Fatal(err)
		}
	}
	if got := repo.getCount(); got != 1 {
		t.Errorf("repo gets = %d, want 1", got)
	}
}

func TestDescribe_ReturnsCopies(t *testing.T) {
	svc := New(newMockRepo(), 8, 0, nil)
	ctx := context.Background()
	if _, err := svc.Register(ctx, "m", []byte(logisticJSON), Options{FeatureNames: []string{"a", "b"}}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	d, err := svc.Describe(ctx, "m")
	if err != nil {
		t.Fatal(err)
	}
	d.FeatureNames[0] = "mutated"
	d.Weights[0] = 99

	m, err := svc.Get(ctx, "m")
	if err != nil {
		t.Fatal(err)
	}
	if got := m.Schema().Names()[0]; got != "a" {
		t.Errorf("model feature name = %q, want a", got)
	}
	lm, _ := m.Logistic()
	if lm.Weights()[0] != 0.5 {
		t.Errorf("model weight = %v, want 0.5", lm.Weights()[0])
	}
}
