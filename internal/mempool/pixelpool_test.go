package mempool

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSizeClass(t *testing.T) {
	tests := []struct {
		name     string
		input    int
		expected int
	}{
		{"small size gets minimum", 1, 1024},
		{"exactly 1024", 1024, 1024},
		{"just over 1024", 1025, 2048},
		{"exact multiple of 1024", 2048, 2048},
		{"odd number", 1500, 2048},
		{"VGA frame", 640 * 480 * 4, 640 * 480 * 4},
		{"zero size", 0, 1024},
		{"negative size", -1, 1024},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, sizeClass(tt.input))
		})
	}
}

func TestGetBytes(t *testing.T) {
	buf := GetBytes(3000)
	require.Len(t, buf, 3000)
	assert.Equal(t, 3072, cap(buf))
	PutBytes(buf)

	empty := GetBytes(-5)
	assert.Empty(t, empty)
	PutBytes(empty)
}

func TestPutBytes_NilAndForeignBuffers(t *testing.T) {
	assert.NotPanics(t, func() { PutBytes(nil) })
	assert.NotPanics(t, func() { PutBytes(make([]uint8, 10)) })

	buf := GetBytes(10)
	assert.Equal(t, 1024, cap(buf))
}

func TestGetBytes_ReturnsFullLengthAfterReuse(t *testing.T) {
	big := GetBytes(4000)
	PutBytes(big[:10])

	again := GetBytes(4000)
	assert.Len(t, again, 4000)
	PutBytes(again)
}

func TestPool_ConcurrentUse(t *testing.T) {
	const workers = 8
	const frame = 320 * 240 * 4

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for iter := 0; iter < 20; iter++ {
				buf := GetBytes(frame)
				for i := range buf {
					buf[i] = uint8(id)
				}
				for _, v := range buf {
					if v != uint8(id) {
						t.Errorf("buffer shared between goroutines")
						return
					}
				}
				PutBytes(buf)
			}
		}(w)
	}
	wg.Wait()
}
