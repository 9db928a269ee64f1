package streamrec

import "sync"

var rowBytesPool = &sync.Pool{
	New: func() any {
		return make([]byte, 0, 4096)
	},
}

func releaseRowBytes(b []byte) {
	if cap(b) > 1<<20 {
		return // don't pin huge batches
	}
	rowBytesPool.Put(b[:0])
}
