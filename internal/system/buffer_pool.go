package system

import (
	"image"
	"sync"
)

// FramePool переиспользует кадры *image.RGBA одного размера между рендерами,
// чтобы не гонять GC на 1080x1920x4 байтах на каждый слайд.
type FramePool struct {
	pools map[image.Point]*sync.Pool
	mu    sync.RWMutex
}

var globalPool = NewFramePool()

func NewFramePool() *FramePool {
	return &FramePool{pools: make(map[image.Point]*sync.Pool)}
}

// GetFrame возвращает очищенный кадр размером w x h из общего пула.
func GetFrame(w, h int) *image.RGBA {
	return globalPool.Get(w, h)
}

// PutFrame возвращает кадр в общий пул.
func PutFrame(img *image.RGBA) {
	globalPool.Put(img)
}

func (p *FramePool) Get(w, h int) *image.RGBA {
	size := image.Pt(w, h)
	p.mu.RLock()
	pool, exists := p.pools[size]
	p.mu.RUnlock()

	if !exists {
		p.mu.Lock()
		pool, exists = p.pools[size]
		if !exists {
			pool = &sync.Pool{
				New: func() interface{} {
					return image.NewRGBA(image.Rect(0, 0, size.X, size.Y))
				},
			}
			p.pools[size] = pool
		}
		p.mu.Unlock()
	}

	img := pool.Get().(*image.RGBA)
	clear(img.Pix)
	return img
}

func (p *FramePool) Put(img *image.RGBA) {
	if img == nil || img.Rect.Min != (image.Point{}) {
		return
	}
	size := img.Rect.Size()
	p.mu.RLock()
	pool, exists := p.pools[size]
	p.mu.RUnlock()

	if exists {
		pool.Put(img)
	}
}
