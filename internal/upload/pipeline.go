// Package upload runs files through recompression and storage one at a time,
// tracking each as an UploadTask.
package upload

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"iiifhub/internal/apperr"
	"iiifhub/internal/logging"
	"iiifhub/pkg/models"
)

var ErrTaskNotFound = errors.New("upload task not found")

// progressAfterCompress is reported once recompression has been attempted;
// storage progress is scaled into the remaining range.
const progressAfterCompress = 10

// File is one pending upload.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Stored is what the storage collaborator hands back on success.
type Stored struct {
	ResourceID string
	Path       string
}

// Storage persists a file. progress must receive non-decreasing values in
// [0,100]; a stable public URL must exist for Path after success.
type Storage interface {
	Upload(ctx context.Context, f File, progress func(int)) (Stored, error)
}

// Compressor optionally shrinks a file before upload.
type Compressor interface {
	Compress(f File) (File, error)
}

type task struct {
	models.UploadTask
	file File
}

// Pipeline is the upload state machine:
//
//	pending -> uploading -> uploaded | error
//
// At most one task is uploading at any time and tasks are processed in
// submission order. Error tasks re-enter only through Retry.
type Pipeline struct {
	storage    Storage
	compressor Compressor
	logger     *log.Logger

	mu       sync.Mutex
	tasks    map[string]*task
	order    []string // submission order, for listing
	queue    []string // pending ids waiting for the drainer
	running  bool
	onChange []func(models.UploadTask)
	onDone   []func(models.UploadTask)

	now func() time.Time
}

func NewPipeline(storage Storage, compressor Compressor, logger *log.Logger) *Pipeline {
	return &Pipeline{
		storage:    storage,
		compressor: compressor,
		logger:     logging.Or(logger).WithPrefix("upload"),
		tasks:      make(map[string]*task),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// OnChange registers a hook fired after every state or progress change.
func (p *Pipeline) OnChange(fn func(models.UploadTask)) {
	p.mu.Lock()
	p.onChange = append(p.onChange, fn)
	p.mu.Unlock()
}

// OnComplete registers a hook fired once per successful upload.
func (p *Pipeline) OnComplete(fn func(models.UploadTask)) {
	p.mu.Lock()
	p.onDone = append(p.onDone, fn)
	p.mu.Unlock()
}

// Enqueue admits a file as a pending task and returns its id.
func (p *Pipeline) Enqueue(f File) string {
	now := p.now()
	t := &task{
		UploadTask: models.UploadTask{
			ID:          uuid.NewString(),
			Filename:    f.Name,
			ContentType: f.ContentType,
			Size:        int64(len(f.Data)),
			Status:      models.TaskPending,
			CreatedAt:   now,
			UpdatedAt:   now,
		},
		file: f,
	}

	p.mu.Lock()
	p.tasks[t.ID] = t
	p.order = append(p.order, t.ID)
	p.queue = append(p.queue, t.ID)
	snap := t.UploadTask
	hooks := p.onChange
	p.mu.Unlock()

	p.logger.Debug("enqueued", "task", snap.ID, "file", snap.Filename, "size", snap.Size)
	notify(hooks, snap)
	return snap.ID
}

// Process drains the queue on the calling goroutine until it is empty. If a
// drainer is already running it returns immediately; that drainer will pick
// up anything queued meanwhile.
func (p *Pipeline) Process(ctx context.Context) {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return
	}
	p.running = true
	p.mu.Unlock()

	for {
		p.mu.Lock()
		t := p.dequeueLocked()
		if t == nil {
			// clearing running under the same lock that observed the empty
			// queue keeps Enqueue+Process from stranding a task
			p.running = false
			p.mu.Unlock()
			return
		}
		file := t.file
		snap := p.transitionLocked(t, models.TaskUploading, func(u *models.UploadTask) {
			u.Progress = 0
			u.LastError = ""
		})
		hooks := p.onChange
		p.mu.Unlock()

		notify(hooks, snap)
		p.run(ctx, snap.ID, file)
	}
}

// Retry moves an error task back to pending at the back of the queue. It is
// a no-op (false, nil) for tasks in any other state.
func (p *Pipeline) Retry(id string) (bool, error) {
	p.mu.Lock()
	t, ok := p.tasks[id]
	if !ok {
		p.mu.Unlock()
		return false, ErrTaskNotFound
	}
	if t.Status != models.TaskError {
		p.mu.Unlock()
		return false, nil
	}
	snap := p.transitionLocked(t, models.TaskPending, func(u *models.UploadTask) {
		u.Progress = 0
		u.LastError = ""
	})
	p.queue = append(p.queue, id)
	hooks := p.onChange
	p.mu.Unlock()

	p.logger.Info("retry requested", "task", id, "file", snap.Filename)
	notify(hooks, snap)
	return true, nil
}

// Remove discards a task that is not uploading. It reports whether a task
// was removed.
func (p *Pipeline) Remove(id string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	t, ok := p.tasks[id]
	if !ok {
		return false, ErrTaskNotFound
	}
	if t.Status == models.TaskUploading {
		return false, nil
	}
	delete(p.tasks, id)
	p.order = without(p.order, id)
	p.queue = without(p.queue, id)
	return true, nil
}

// Task returns a copy of the task.
func (p *Pipeline) Task(id string) (models.UploadTask, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	t, ok := p.tasks[id]
	if !ok {
		return models.UploadTask{}, false
	}
	return t.UploadTask, true
}

// Tasks returns copies of all tasks in submission order.
func (p *Pipeline) Tasks() []models.UploadTask {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]models.UploadTask, 0, len(p.order))
	for _, id := range p.order {
		out = append(out, p.tasks[id].UploadTask)
	}
	return out
}

// Resources returns local resources for uploaded tasks in submission order.
// Tasks still in flight or failed never appear.
func (p *Pipeline) Resources(publicURL func(path string) string) []models.ImageResource {
	var out []models.ImageResource
	for _, t := range p.Tasks() {
		u := ""
		if publicURL != nil {
			u = publicURL(t.Path)
		}
		if r, ok := t.Resource(u); ok {
			out = append(out, r)
		}
	}
	return out
}

func (p *Pipeline) run(ctx context.Context, id string, f File) {
	f = p.compress(f)
	p.setProgress(id, progressAfterCompress)

	stored, err := p.storage.Upload(ctx, f, func(pct int) {
		p.setProgress(id, progressAfterCompress+clamp(pct)*(100-progressAfterCompress)/100)
	})

	p.mu.Lock()
	t, ok := p.tasks[id]
	if !ok {
		// removed while uploading is not allowed, but stay safe
		p.mu.Unlock()
		return
	}
	var snap models.UploadTask
	if err != nil {
		err = apperr.Wrap(apperr.KindUpload, "upload.process", "storage upload failed", err)
		snap = p.transitionLocked(t, models.TaskError, func(u *models.UploadTask) {
			u.LastError = err.Error()
		})
	} else {
		snap = p.transitionLocked(t, models.TaskUploaded, func(u *models.UploadTask) {
			u.Progress = 100
			u.ResourceID = stored.ResourceID
			u.Path = stored.Path
			// recompression may have changed the encoding
			u.Filename = f.Name
			u.ContentType = f.ContentType
			u.Size = int64(len(f.Data))
		})
		// the bytes are in storage now
		t.file = File{Name: f.Name, ContentType: f.ContentType}
	}
	changeHooks := p.onChange
	doneHooks := p.onDone
	p.mu.Unlock()

	notify(changeHooks, snap)
	if err != nil {
		p.logger.Error("upload failed", "task", id, "file", snap.Filename, "err", err)
		return
	}
	p.logger.Info("uploaded", "task", id, "file", snap.Filename, "path", snap.Path)
	notify(doneHooks, snap)
}

// compress never fails the task: on any error the original file is used.
func (p *Pipeline) compress(f File) File {
	if p.compressor == nil {
		return f
	}
	out, err := p.compressor.Compress(f)
	if err != nil {
		p.logger.Warn("image compression failed, using original file", "file", f.Name, "err", err)
		return f
	}
	return out
}

func (p *Pipeline) setProgress(id string, pct int) {
	p.mu.Lock()
	t, ok := p.tasks[id]
	if !ok || t.Status != models.TaskUploading {
		p.mu.Unlock()
		return
	}
	pct = clamp(pct)
	if pct <= t.Progress {
		p.mu.Unlock()
		return
	}
	t.Progress = pct
	t.UpdatedAt = p.now()
	snap := t.UploadTask
	hooks := p.onChange
	p.mu.Unlock()

	notify(hooks, snap)
}

func (p *Pipeline) dequeueLocked() *task {
	for len(p.queue) > 0 {
		id := p.queue[0]
		p.queue = p.queue[1:]
		if t, ok := p.tasks[id]; ok && t.Status == models.TaskPending {
			return t
		}
	}
	return nil
}

func (p *Pipeline) transitionLocked(t *task, to models.TaskStatus, mutate func(*models.UploadTask)) models.UploadTask {
	t.Status = to
	if mutate != nil {
		mutate(&t.UploadTask)
	}
	t.UpdatedAt = p.now()
	return t.UploadTask
}

func notify(hooks []func(models.UploadTask), t models.UploadTask) {
	for _, fn := range hooks {
		fn(t)
	}
}

func clamp(pct int) int {
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

func without(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
