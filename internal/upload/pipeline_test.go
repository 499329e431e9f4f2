package upload

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"iiifhub/pkg/models"
)

type fakeStorage struct {
	mu       sync.Mutex
	fail     map[string]error
	order    []string
	received map[string][]byte

	inFlight    atomic.Int32
	maxInFlight atomic.Int32
	delay       time.Duration
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{fail: map[string]error{}, received: map[string][]byte{}}
}

func (s *fakeStorage) Upload(ctx context.Context, f File, progress func(int)) (Stored, error) {
	n := s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	for {
		m := s.maxInFlight.Load()
		if n <= m || s.maxInFlight.CompareAndSwap(m, n) {
			break
		}
	}

	progress(50)
	progress(30) // must be ignored
	time.Sleep(s.delay)
	progress(100)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.order = append(s.order, f.Name)
	if err := s.fail[f.Name]; err != nil {
		return Stored{}, err
	}
	s.received[f.Name] = f.Data
	return Stored{ResourceID: "res-" + f.Name, Path: f.Name + ".bin"}, nil
}

func (s *fakeStorage) setFail(name string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.fail, name)
		return
	}
	s.fail[name] = err
}

type failingCompressor struct{}

func (failingCompressor) Compress(f File) (File, error) {
	return File{Name: "garbage", Data: []byte("x")}, errors.New("decode failed")
}

func TestPipelineProcessesInOrder(t *testing.T) {
	st := newFakeStorage()
	p := NewPipeline(st, nil, nil)

	ids := []string{
		p.Enqueue(File{Name: "a", Data: []byte("aaa")}),
		p.Enqueue(File{Name: "b", Data: []byte("bbb")}),
		p.Enqueue(File{Name: "c", Data: []byte("ccc")}),
	}

	for _, id := range ids {
		task, ok := p.Task(id)
		require.True(t, ok)
		assert.Equal(t, models.TaskPending, task.Status)
		assert.Equal(t, 0, task.Progress)
	}

	p.Process(context.Background())

	assert.Equal(t, []string{"a", "b", "c"}, st.order)
	for i, task := range p.Tasks() {
		assert.Equal(t, ids[i], task.ID)
		assert.Equal(t, models.TaskUploaded, task.Status)
		assert.Equal(t, 100, task.Progress)
		assert.NotEmpty(t, task.ResourceID)
		assert.NotEmpty(t, task.Path)
	}
}

func TestPipelineSingleUploadInFlight(t *testing.T) {
	st := newFakeStorage()
	st.delay = 5 * time.Millisecond
	p := NewPipeline(st, nil, nil)

	for _, name := range []string{"1", "2", "3", "4", "5"} {
		p.Enqueue(File{Name: name, Data: []byte(name)})
	}

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.Process(context.Background())
		}()
	}
	wg.Wait()

	// any still-running drainer finishes only when the queue is empty
	require.Eventually(t, func() bool {
		for _, task := range p.Tasks() {
			if task.Status != models.TaskUploaded {
				return false
			}
		}
		return true
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, int32(1), st.maxInFlight.Load())
	assert.Equal(t, []string{"1", "2", "3", "4", "5"}, st.order)
}

func TestPipelineFailureDoesNotStopBatch(t *testing.T) {
	st := newFakeStorage()
	st.setFail("bad", errors.New("disk full"))
	p := NewPipeline(st, nil, nil)

	var completed []string
	p.OnComplete(func(task models.UploadTask) { completed = append(completed, task.Filename) })

	p.Enqueue(File{Name: "good1", ContentType: "image/jpeg", Data: []byte("1")})
	bad := p.Enqueue(File{Name: "bad", ContentType: "image/jpeg", Data: []byte("2")})
	p.Enqueue(File{Name: "good2", ContentType: "image/jpeg", Data: []byte("3")})

	p.Process(context.Background())

	task, _ := p.Task(bad)
	assert.Equal(t, models.TaskError, task.Status)
	assert.Contains(t, task.LastError, "disk full")
	assert.Empty(t, task.ResourceID)
	assert.Equal(t, []string{"good1", "good2"}, completed)

	res := p.Resources(nil)
	require.Len(t, res, 2)
	assert.Equal(t, "good1", res[0].Label)
	assert.Equal(t, "good2", res[1].Label)
	assert.Equal(t, models.OriginLocal, res[0].Origin)
}

func TestPipelineRetry(t *testing.T) {
	st := newFakeStorage()
	st.setFail("flaky", errors.New("timeout"))
	p := NewPipeline(st, nil, nil)

	id := p.Enqueue(File{Name: "flaky", Data: []byte("x")})
	p.Process(context.Background())

	task, _ := p.Task(id)
	require.Equal(t, models.TaskError, task.Status)

	st.setFail("flaky", nil)
	retried, err := p.Retry(id)
	require.NoError(t, err)
	assert.True(t, retried)

	task, _ = p.Task(id)
	assert.Equal(t, models.TaskPending, task.Status)
	assert.Empty(t, task.LastError)
	assert.Equal(t, 0, task.Progress)

	p.Process(context.Background())
	task, _ = p.Task(id)
	assert.Equal(t, models.TaskUploaded, task.Status)
	assert.Equal(t, "res-flaky", task.ResourceID)
}

func TestPipelineRetryIsNoOpOutsideError(t *testing.T) {
	st := newFakeStorage()
	p := NewPipeline(st, nil, nil)

	pending := p.Enqueue(File{Name: "p", Data: []byte("x")})
	retried, err := p.Retry(pending)
	require.NoError(t, err)
	assert.False(t, retried)

	p.Process(context.Background())
	retried, err = p.Retry(pending)
	require.NoError(t, err)
	assert.False(t, retried)

	task, _ := p.Task(pending)
	assert.Equal(t, models.TaskUploaded, task.Status)
	assert.Equal(t, []string{"p"}, st.order, "uploaded task must not be uploaded again")

	_, err = p.Retry("missing")
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestPipelineProgressIsMonotonic(t *testing.T) {
	st := newFakeStorage()
	p := NewPipeline(st, nil, nil)

	var mu sync.Mutex
	var seen []int
	p.OnChange(func(task models.UploadTask) {
		if task.Status == models.TaskUploading || task.Status == models.TaskUploaded {
			mu.Lock()
			seen = append(seen, task.Progress)
			mu.Unlock()
		}
	})

	p.Enqueue(File{Name: "a", Data: []byte("x")})
	p.Process(context.Background())

	require.NotEmpty(t, seen)
	for i := 1; i < len(seen); i++ {
		assert.GreaterOrEqual(t, seen[i], seen[i-1], "progress went backwards: %v", seen)
	}
	assert.Equal(t, []int{0, 10, 55, 100, 100}, seen)
}

func TestPipelineCompressionFailureUploadsOriginal(t *testing.T) {
	st := newFakeStorage()
	p := NewPipeline(st, failingCompressor{}, nil)

	id := p.Enqueue(File{Name: "photo.jpg", ContentType: "image/jpeg", Data: []byte("original bytes")})
	p.Process(context.Background())

	task, _ := p.Task(id)
	assert.Equal(t, models.TaskUploaded, task.Status)
	assert.Equal(t, []byte("original bytes"), st.received["photo.jpg"])
}

func TestPipelineUploadErrorsAreClassified(t *testing.T) {
	st := newFakeStorage()
	st.setFail("x", errors.New("boom"))
	p := NewPipeline(st, nil, nil)

	var failed models.UploadTask
	p.OnChange(func(task models.UploadTask) {
		if task.Status == models.TaskError {
			failed = task
		}
	})
	p.Enqueue(File{Name: "x", Data: []byte("1")})
	p.Process(context.Background())

	assert.Equal(t, "upload.process: storage upload failed: boom", failed.LastError)
}

func TestPipelineRemove(t *testing.T) {
	st := newFakeStorage()
	p := NewPipeline(st, nil, nil)

	keep := p.Enqueue(File{Name: "keep", Data: []byte("1")})
	drop := p.Enqueue(File{Name: "drop", Data: []byte("2")})

	removed, err := p.Remove(drop)
	require.NoError(t, err)
	assert.True(t, removed)

	p.Process(context.Background())
	assert.Equal(t, []string{"keep"}, st.order)

	tasks := p.Tasks()
	require.Len(t, tasks, 1)
	assert.Equal(t, keep, tasks[0].ID)

	_, err = p.Remove(drop)
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

type pngCompressor struct{}

func (pngCompressor) Compress(f File) (File, error) {
	if f.ContentType != "image/gif" {
		return f, nil
	}
	return File{Name: "pic.png", ContentType: "image/png", Data: []byte("png")}, nil
}

func TestPipelineRecordsCompressedEncoding(t *testing.T) {
	st := newFakeStorage()
	p := NewPipeline(st, pngCompressor{}, nil)

	id := p.Enqueue(File{Name: "pic.gif", ContentType: "image/gif", Data: []byte("gif89a bytes")})
	p.Process(context.Background())

	task, _ := p.Task(id)
	require.Equal(t, models.TaskUploaded, task.Status)
	assert.Equal(t, "pic.png", task.Filename)
	assert.Equal(t, "image/png", task.ContentType)
	assert.Equal(t, int64(3), task.Size)

	res := p.Resources(nil)
	require.Len(t, res, 1)
	assert.Equal(t, "image/png", res[0].MediaType)
	assert.Equal(t, "pic.png.bin", res[0].Path)
}

func TestPipelineResourcesSkipNonImages(t *testing.T) {
	st := newFakeStorage()
	p := NewPipeline(st, nil, nil)

	doc := p.Enqueue(File{Name: "doc.pdf", ContentType: "application/pdf", Data: []byte("%PDF")})
	p.Enqueue(File{Name: "page.jpg", ContentType: "image/jpeg", Data: []byte("jpg")})
	p.Process(context.Background())

	task, _ := p.Task(doc)
	assert.Equal(t, models.TaskUploaded, task.Status, "non-image files are still stored")

	res := p.Resources(nil)
	require.Len(t, res, 1)
	assert.Equal(t, "page.jpg", res[0].Label)
}
