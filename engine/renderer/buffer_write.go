package renderer

import (
	"github.com/Carmen-Shannon/oxy-tracker/common"
	"github.com/Carmen-Shannon/oxy-tracker/engine/buffer"
	"github.com/Carmen-Shannon/oxy-tracker/engine/layout"
)

// uniformsID addresses the frame uniform buffer in a write plan.
const uniformsID buffer.ID = -1

// BufferWrite describes a single GPU buffer write operation targeting one frame buffer.
type BufferWrite struct {
	ID      buffer.ID
	Data    []byte
	Count   int
	Version uint64
}

// Plan lists the writes needed to bring GPU buffers at the given versions up to a frame.
// Dynamic buffers are always written; static buffers only when their version differs from
// uploaded. Empty buffers are planned with nil data so their draw count drops to zero.
//
// Parameters:
//   - f: the published frame
//   - uploaded: the version last uploaded per buffer; missing IDs have never been uploaded
//
// Returns:
//   - []BufferWrite: the writes, frame uniforms first
func Plan(f *buffer.Frame, uploaded map[buffer.ID]uint64) []BufferWrite {
	u := f.Uniforms
	writes := []BufferWrite{{
		ID:      uniformsID,
		Data:    common.StructToBytes(&u),
		Count:   1,
		Version: f.Seq,
	}}
	for _, id := range buffer.IDs() {
		v := f.View(id)
		if id.Desc().Static {
			if last, ok := uploaded[id]; ok && last == v.Version {
				continue
			}
		}
		writes = append(writes, BufferWrite{ID: id, Data: v.Bytes, Count: v.Count, Version: v.Version})
	}
	return writes
}

// uniformSize is the byte size of the frame uniform buffer.
var uniformSize = layout.KindFrameUniforms.Size()
