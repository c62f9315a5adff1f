package system

import (
	"image"
	"sync"
)

// ImagePool recycles *image.RGBA frame buffers per size, so streaming
// thousands of frames does not allocate one canvas per frame.
type ImagePool struct {
	sizes sync.Map // image.Rectangle -> *sync.Pool
}

var globalPool = NewImagePool()

func NewImagePool() *ImagePool {
	return &ImagePool{}
}

// GetImage returns a buffer of rect from the shared pool. Its contents
// are whatever the previous user left.
func GetImage(rect image.Rectangle) *image.RGBA {
	return globalPool.Get(rect)
}

// PutImage hands img back to the shared pool.
func PutImage(img *image.RGBA) {
	globalPool.Put(img)
}

func (p *ImagePool) Get(rect image.Rectangle) *image.RGBA {
	return p.forSize(rect, true).Get().(*image.RGBA)
}

// Put drops buffers of sizes the pool never handed out.
func (p *ImagePool) Put(img *image.RGBA) {
	if img == nil {
		return
	}
	if sp := p.forSize(img.Rect, false); sp != nil {
		sp.Put(img)
	}
}

func (p *ImagePool) forSize(rect image.Rectangle, create bool) *sync.Pool {
	if v, ok := p.sizes.Load(rect); ok {
		return v.(*sync.Pool)
	}
	if !create {
		return nil
	}
	v, _ := p.sizes.LoadOrStore(rect, &sync.Pool{
		New: func() any { return image.NewRGBA(rect) },
	})
	return v.(*sync.Pool)
}
