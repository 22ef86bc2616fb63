package latches

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tinykms/tinykms/kms/resource"
)

func TestAcquireLatches(t *testing.T) {
	l := Latches{
		latchMap: make(map[string]*sync.WaitGroup),
	}

	// Acquiring new latches is ok.
	wg := l.AcquireLatches([]string{"surface/0", "surface/3", "output/0"})
	assert.Nil(t, wg)

	// Can only acquire once.
	wg = l.AcquireLatches([]string{"surface/0"})
	assert.NotNil(t, wg)
	wg = l.AcquireLatches([]string{"output/0"})
	assert.NotNil(t, wg)

	// Disjoint sets are fine.
	wg = l.AcquireLatches([]string{"output/1"})
	assert.Nil(t, wg)

	// Release then acquire is ok.
	l.ReleaseLatches([]string{"surface/0", "surface/3", "output/0"})
	wg = l.AcquireLatches([]string{"surface/3"})
	assert.Nil(t, wg)
}

func TestKeys(t *testing.T) {
	d := resource.NewDirectory(2, 1)
	keys := Keys([]resource.Object{d.Surface(1), d.Output(0)})
	assert.Equal(t, []string{"surface/1", "output/0"}, keys)
}
