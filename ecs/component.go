package ecs

// componentInfo is the marker record carried by component entities.
type componentInfo struct {
	name string
	size uint32
}

// NewComponent registers a component entity storing size bytes per instance.
// A size of zero declares a tag: presence-only, no storage.
func (w *World) NewComponent(name string, size uint32) Entity {
	e := w.newHandle()
	w.components.Put(e, componentInfo{name: name, size: size})
	w.logger.Debug("component registered", "component", name, "id", uint64(e), "size", size)
	return e
}

// NewTag registers a presence-only component.
func (w *World) NewTag(name string) Entity {
	return w.NewComponent(name, 0)
}

// ComponentSize returns the per-instance size of c in bytes. Tags and
// entities that are not components report zero.
func (w *World) ComponentSize(c Entity) uint32 {
	info, ok := w.components.Get(c.Mask())
	if !ok {
		return 0
	}
	return info.size
}

// ComponentName returns the name c was registered under, or "".
func (w *World) ComponentName(c Entity) string {
	info, ok := w.components.Get(c.Mask())
	if !ok {
		return ""
	}
	return info.name
}

func (w *World) isComponent(c Entity) bool {
	_, ok := w.components.Get(c.Mask())
	return ok
}
