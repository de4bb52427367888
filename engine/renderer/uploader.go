package renderer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Carmen-Shannon/oxy-tracker/engine/buffer"
	"github.com/cogentcore/webgpu/wgpu"
)

// minBufferSize is the smallest GPU allocation made for a frame buffer.
const minBufferSize = 256

// UploadStats summarizes the work done by the uploader since it was created.
type UploadStats struct {
	Frames   int
	Writes   int
	Bytes    int
	Skipped  int // static buffers left untouched because their version was current
	Reallocs int
}

// gpuSlot is the GPU side of one frame buffer.
type gpuSlot struct {
	buf     Buffer
	size    uint64
	count   int
	version uint64
}

// Uploader copies published frames into persistent GPU buffers, one per frame buffer.
// Buffers grow by doubling and are never shrunk. Static buffers are written only when
// their version changes. Uploader implements the engine's frame sink.
type Uploader struct {
	mu       sync.Mutex
	dev      Device
	slots    map[buffer.ID]*gpuSlot
	versions map[buffer.ID]uint64
	meshes   map[string]MeshBuffers
	stats    UploadStats
	log      *slog.Logger
}

// UploaderOption configures an Uploader.
type UploaderOption func(*Uploader)

// WithLogger sets the uploader logger.
func WithLogger(l *slog.Logger) UploaderOption {
	return func(u *Uploader) {
		if l != nil {
			u.log = l
		}
	}
}

// NewUploader creates an uploader writing to dev.
//
// Parameters:
//   - dev: the GPU device
//   - options: functional options
//
// Returns:
//   - *Uploader: the uploader
func NewUploader(dev Device, options ...UploaderOption) *Uploader {
	u := &Uploader{
		dev:      dev,
		slots:    make(map[buffer.ID]*gpuSlot),
		versions: make(map[buffer.ID]uint64),
		meshes:   make(map[string]MeshBuffers),
		log:      slog.Default(),
	}
	for _, opt := range options {
		opt(u)
	}
	return u
}

func usageOf(id buffer.ID) wgpu.BufferUsage {
	switch {
	case id == uniformsID:
		return wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst
	case id.Desc().Index:
		return wgpu.BufferUsageIndex | wgpu.BufferUsageCopyDst
	}
	return wgpu.BufferUsageVertex | wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst
}

func labelOf(id buffer.ID) string {
	if id == uniformsID {
		return "frame_uniforms"
	}
	return id.String()
}

// Consume uploads a frame. The frame must stay held by the caller until Consume returns.
//
// Parameters:
//   - ctx: checked before any write is issued
//   - f: the published frame
//
// Returns:
//   - error: if ctx is done or the device fails to allocate or write
func (u *Uploader) Consume(ctx context.Context, f *buffer.Frame) error {
	if f == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	writes := Plan(f, u.versions)
	u.stats.Skipped += len(buffer.IDs()) + 1 - len(writes)
	for _, w := range writes {
		if err := u.write(w); err != nil {
			return fmt.Errorf("uploading %s: %w", labelOf(w.ID), err)
		}
	}
	u.stats.Frames++
	return nil
}

// write applies one planned write, growing the GPU buffer first when needed.
func (u *Uploader) write(w BufferWrite) error {
	s := u.slots[w.ID]
	need := uint64(len(w.Data))
	if w.ID == uniformsID {
		need = max(need, uint64(uniformSize))
	}
	if s == nil || need > s.size {
		size := uint64(minBufferSize)
		if s != nil {
			size = max(s.size, size)
		}
		for size < need {
			size *= 2
		}
		buf, err := u.dev.CreateBuffer(labelOf(w.ID), size, usageOf(w.ID))
		if err != nil {
			return err
		}
		if s != nil {
			s.buf.Release()
			u.stats.Reallocs++
			u.log.Debug("gpu buffer grown", "buffer", labelOf(w.ID), "size", size)
		} else {
			s = &gpuSlot{}
			u.slots[w.ID] = s
		}
		s.buf, s.size = buf, size
	}

	if len(w.Data) > 0 {
		if err := u.dev.WriteBuffer(s.buf, 0, w.Data); err != nil {
			return err
		}
		u.stats.Writes++
		u.stats.Bytes += len(w.Data)
	}
	s.count = w.Count
	s.version = w.Version
	if w.ID != uniformsID && w.ID.Desc().Static {
		u.versions[w.ID] = w.Version
	}
	return nil
}

// Binding returns the GPU buffer of a frame buffer and the record count to draw.
//
// Parameters:
//   - id: the frame buffer
//
// Returns:
//   - Buffer: the GPU buffer, or nil if never uploaded
//   - int: the record (or index) count of the last upload
func (u *Uploader) Binding(id buffer.ID) (Buffer, int) {
	u.mu.Lock()
	defer u.mu.Unlock()
	s := u.slots[id]
	if s == nil {
		return nil, 0
	}
	return s.buf, s.count
}

// Uniforms returns the frame uniform buffer, or nil before the first upload.
func (u *Uploader) Uniforms() Buffer {
	b, _ := u.Binding(uniformsID)
	return b
}

// Stats returns the cumulative upload statistics.
func (u *Uploader) Stats() UploadStats {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.stats
}

// Close releases every GPU buffer.
func (u *Uploader) Close() {
	u.mu.Lock()
	defer u.mu.Unlock()
	for id, s := range u.slots {
		s.buf.Release()
		delete(u.slots, id)
	}
	clear(u.versions)
	for name, m := range u.meshes {
		m.Vertex.Release()
		m.Index.Release()
		delete(u.meshes, name)
	}
}
