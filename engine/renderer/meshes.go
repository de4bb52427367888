package renderer

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-tracker/engine/model"
	"github.com/cogentcore/webgpu/wgpu"
)

// MeshBuffers are the GPU buffers of one shared aircraft mesh.
type MeshBuffers struct {
	Vertex     Buffer
	Index      Buffer
	IndexCount int
}

// InitMeshBuffers uploads every mesh of the library once. Instanced batches look their
// mesh up by batch name with Mesh.
//
// Parameters:
//   - lib: the mesh library
//
// Returns:
//   - error: if a buffer cannot be created or written
func (u *Uploader) InitMeshBuffers(lib *model.Library) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	for _, name := range lib.Names() {
		m, _ := lib.Batch(name)
		if _, ok := u.meshes[name]; ok {
			continue
		}
		vb, err := u.createFilled(name+" Vertex Buffer", m.VertexData(), wgpu.BufferUsageVertex|wgpu.BufferUsageCopyDst)
		if err != nil {
			return fmt.Errorf("uploading mesh %s: %w", name, err)
		}
		ib, err := u.createFilled(name+" Index Buffer", m.IndexData(), wgpu.BufferUsageIndex|wgpu.BufferUsageCopyDst)
		if err != nil {
			vb.Release()
			return fmt.Errorf("uploading mesh %s: %w", name, err)
		}
		u.meshes[name] = MeshBuffers{Vertex: vb, Index: ib, IndexCount: m.IndexCount()}
	}
	return nil
}

func (u *Uploader) createFilled(label string, data []byte, usage wgpu.BufferUsage) (Buffer, error) {
	buf, err := u.dev.CreateBuffer(label, uint64(len(data)), usage)
	if err != nil {
		return nil, err
	}
	if err := u.dev.WriteBuffer(buf, 0, data); err != nil {
		buf.Release()
		return nil, err
	}
	u.stats.Writes++
	u.stats.Bytes += len(data)
	return buf, nil
}

// Mesh returns the buffers uploaded for a batch name.
func (u *Uploader) Mesh(name string) (MeshBuffers, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	m, ok := u.meshes[name]
	return m, ok
}
