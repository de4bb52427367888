// Package renderer moves published frames into GPU buffers.
package renderer

import (
	"fmt"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"
)

// Buffer is a GPU buffer owned by the uploader.
type Buffer interface {
	Release()
}

// Device is the slice of the GPU API the uploader needs.
type Device interface {
	// CreateBuffer allocates a buffer of the given size and usage.
	CreateBuffer(label string, size uint64, usage wgpu.BufferUsage) (Buffer, error)

	// WriteBuffer queues a write of data into buf at offset.
	WriteBuffer(buf Buffer, offset uint64, data []byte) error
}

// wgpuDevice implements Device over a wgpu device and its queue.
type wgpuDevice struct {
	mu     sync.Mutex
	device *wgpu.Device
	queue  *wgpu.Queue
}

var _ Device = &wgpuDevice{}

// NewWGPUDevice wraps an existing wgpu device, e.g. the one owned by the window's renderer.
//
// Parameters:
//   - device: the wgpu device
//   - queue: the device's queue
//
// Returns:
//   - Device: the device
func NewWGPUDevice(device *wgpu.Device, queue *wgpu.Queue) Device {
	return &wgpuDevice{device: device, queue: queue}
}

// RequestHeadlessDevice creates a wgpu device with no surface, for offscreen uploads.
//
// Parameters:
//   - forceFallbackAdapter: true to request a software adapter
//
// Returns:
//   - Device: the device
//   - error: if no adapter or device is available
func RequestHeadlessDevice(forceFallbackAdapter bool) (Device, error) {
	instance := wgpu.CreateInstance(nil)
	a, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: forceFallbackAdapter,
	})
	if err != nil {
		return nil, fmt.Errorf("requesting adapter: %w", err)
	}
	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Tracker Upload Device",
	})
	if err != nil {
		return nil, fmt.Errorf("requesting device: %w", err)
	}
	return NewWGPUDevice(d, d.GetQueue()), nil
}

func (d *wgpuDevice) CreateBuffer(label string, size uint64, usage wgpu.BufferUsage) (Buffer, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	buf, err := d.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label:            label,
		Size:             size,
		Usage:            usage,
		MappedAtCreation: false,
	})
	if err != nil {
		return nil, err
	}
	return buf, nil
}

func (d *wgpuDevice) WriteBuffer(buf Buffer, offset uint64, data []byte) error {
	b, ok := buf.(*wgpu.Buffer)
	if !ok {
		return fmt.Errorf("buffer %T was not created by this device", buf)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.queue.WriteBuffer(b, offset, data)
}
