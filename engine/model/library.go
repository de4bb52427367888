package model

import (
	"github.com/Carmen-Shannon/oxy-tracker/engine/track"
)

const (
	// RotorMesh and PropellerMesh name the spinning-part batches.
	RotorMesh     = "rotor"
	PropellerMesh = "propeller"

	defaultSegments = 8
)

// Library holds one body mesh per aircraft category plus the spinning parts.
// It is immutable after construction and safe for concurrent use.
type Library struct {
	meshes map[string]Mesh
}

// NewLibrary builds every aircraft mesh.
//
// Returns:
//   - *Library: the mesh library
func NewLibrary() *Library {
	l := &Library{meshes: make(map[string]Mesh)}
	for name, build := range map[string]func() Mesh{
		track.CategoryJet.String():        func() Mesh { return jet(track.CategoryJet.String(), 1) },
		track.CategoryRegional.String():   func() Mesh { return jet(track.CategoryRegional.String(), 0.8) },
		track.CategoryWidebody.String():   widebody,
		track.CategoryHelicopter.String(): helicopter,
		track.CategorySmall.String():      smallProp,
		track.CategoryMilitary.String():   military,
		RotorMesh:                         rotor,
		PropellerMesh:                     propeller,
	} {
		l.meshes[name] = build()
	}
	return l
}

// Category returns the body mesh of a category. Unknown categories use the jet mesh.
func (l *Library) Category(c track.Category) Mesh {
	if m, ok := l.meshes[c.String()]; ok {
		return m
	}
	return l.meshes[track.CategoryJet.String()]
}

// Batch returns the mesh drawn for a named draw range, as recorded by the aircraft
// generator: a category name or one of the spinning-part names.
//
// Parameters:
//   - name: the batch name
//
// Returns:
//   - Mesh: the mesh
//   - bool: false if no mesh has that name
func (l *Library) Batch(name string) (Mesh, bool) {
	m, ok := l.meshes[name]
	return m, ok
}

// Names returns the names of every mesh in the library.
func (l *Library) Names() []string {
	out := make([]string, 0, len(l.meshes))
	for name := range l.meshes {
		out = append(out, name)
	}
	return out
}

func jet(name string, s float32) Mesh {
	b := newMeshBuilder()
	b.scale = s
	b.cylinder(0.4, 4, defaultSegments, [3]float32{})
	b.cone(0.4, 1.2, defaultSegments, [3]float32{0, 0, 2})
	b.box([3]float32{5, 0.15, 1.5}, [3]float32{})
	b.box([3]float32{0.15, 1.2, 1}, [3]float32{0, 0.6, -1.5})
	b.box([3]float32{2, 0.1, 0.6}, [3]float32{0, 0.6, -1.8})
	b.cylinder(0.25, 0.8, defaultSegments, [3]float32{-1.5, -0.3, 0.5})
	b.cylinder(0.25, 0.8, defaultSegments, [3]float32{1.5, -0.3, 0.5})
	return b.build(name)
}

func widebody() Mesh {
	b := newMeshBuilder()
	b.cylinder(0.7, 5.5, defaultSegments, [3]float32{})
	b.cone(0.7, 1.5, defaultSegments, [3]float32{0, 0, 2.75})
	b.box([3]float32{8, 0.2, 2.2}, [3]float32{})
	b.box([3]float32{0.15, 1.5, 1.2}, [3]float32{0, 0.8, -2})
	b.box([3]float32{2.5, 0.12, 0.8}, [3]float32{0, 0.8, -2.3})
	for _, x := range []float32{-2.5, -1.2, 1.2, 2.5} {
		b.cylinder(0.3, 1, defaultSegments, [3]float32{x, -0.4, 0.5})
	}
	return b.build(track.CategoryWidebody.String())
}

func helicopter() Mesh {
	b := newMeshBuilder()
	b.sphere(0.6, defaultSegments, [3]float32{})
	b.cylinder(0.15, 2.5, defaultSegments, [3]float32{0, 0, -1.5})
	b.box([3]float32{0.08, 0.08, 2}, [3]float32{-0.5, -0.5, 0})
	b.box([3]float32{0.08, 0.08, 2}, [3]float32{0.5, -0.5, 0})
	return b.build(track.CategoryHelicopter.String())
}

func smallProp() Mesh {
	b := newMeshBuilder()
	b.cylinder(0.25, 2.5, defaultSegments, [3]float32{})
	b.cone(0.3, 0.6, defaultSegments, [3]float32{0, 0, 1.25})
	b.box([3]float32{4, 0.08, 0.8}, [3]float32{})
	b.box([3]float32{0.1, 0.8, 0.6}, [3]float32{0, 0.4, -1})
	b.box([3]float32{1.5, 0.06, 0.4}, [3]float32{0, 0.4, -1.1})
	return b.build(track.CategorySmall.String())
}

func military() Mesh {
	b := newMeshBuilder()
	b.box([3]float32{0.6, 0.4, 4.5}, [3]float32{})
	b.cone(0.35, 1.2, defaultSegments, [3]float32{0, 0, 2.25})
	b.box([3]float32{6, 0.1, 3}, [3]float32{})
	b.box([3]float32{0.1, 1, 0.8}, [3]float32{-0.5, 0.4, -1.8})
	b.box([3]float32{0.1, 1, 0.8}, [3]float32{0.5, 0.4, -1.8})
	return b.build(track.CategoryMilitary.String())
}

func rotor() Mesh {
	b := newMeshBuilder()
	b.box([3]float32{6, 0.05, 0.2}, [3]float32{0, 0.65, 0})
	b.box([3]float32{0.2, 0.05, 6}, [3]float32{0, 0.65, 0})
	b.box([3]float32{0.05, 1.2, 0.15}, [3]float32{0, 0.1, -2.75})
	return b.build(RotorMesh)
}

func propeller() Mesh {
	b := newMeshBuilder()
	b.box([3]float32{0.08, 1.2, 0.08}, [3]float32{0, 0, 1.55})
	return b.build(PropellerMesh)
}
