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
		{"zero size", 0, 1024},
		{"small size gets minimum", 1, 1024},
		{"exactly 1024", 1024, 1024},
		{"just over 1024", 1025, 2048},
		{"odd number", 1500, 2048},
		{"large size", 10000, 10240},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, sizeClass(tt.input))
		})
	}
}

func TestGetReturnsZeroedBuffers(t *testing.T) {
	f := GetFloat32(3000)
	require.Len(t, f, 3000)
	for i := range f {
		f[i] = 7
	}
	PutFloat32(f)

	again := GetFloat32(2500)
	require.Len(t, again, 2500)
	for _, v := range again {
		require.Zero(t, v)
	}
	PutFloat32(again)

	b := GetBool(10)
	b[3] = true
	PutBool(b)
	assert.NotContains(t, GetBool(10), true)

	u := GetUint8(5)
	u[0] = 9
	PutUint8(u)
	assert.Equal(t, []uint8{0, 0, 0, 0, 0}, GetUint8(5))
}

func TestPutIgnoresNilAndForeignBuffers(t *testing.T) {
	assert.NotPanics(t, func() {
		PutFloat32(nil)
		PutBool(nil)
		PutUint8(nil)
		PutFloat32(make([]float32, 100))
	})
	assert.Len(t, GetFloat32(100), 100)
}

func TestConcurrentPageBuffers(t *testing.T) {
	const w, h = 640, 480
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 20 {
				mag := GetFloat32(w * h)
				dir := GetUint8(w * h)
				for i := range mag {
					mag[i] = float32(i % 255)
					dir[i] = uint8(i % 4)
				}
				PutFloat32(mag)
				PutUint8(dir)
			}
		}()
	}
	wg.Wait()
}
