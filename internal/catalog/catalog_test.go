package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServicesAreUniqueAndPriced(t *testing.T) {
	seen := map[int]bool{}
	for _, svc := range Services() {
		assert.False(t, seen[svc.ID], "duplicate service id %d", svc.ID)
		seen[svc.ID] = true
		assert.Greater(t, svc.Price, 0.0, svc.Name)
		assert.NotEmpty(t, svc.Duration, svc.Name)
	}
	assert.Len(t, seen, 4)
}

func TestServicesReturnsCopy(t *testing.T) {
	list := Services()
	list[0].Name = "changed"

	svc, ok := ServiceByID(1)
	require.True(t, ok)
	assert.Equal(t, "Classic Fade", svc.Name)
}

func TestServiceByID(t *testing.T) {
	svc, ok := ServiceByID(4)
	require.True(t, ok)
	assert.Equal(t, "The Full Works", svc.Name)
	assert.Equal(t, 70.0, svc.Price)

	_, ok = ServiceByID(99)
	assert.False(t, ok)
}

func TestBarberByName(t *testing.T) {
	name, ok := BarberByName("  andre ")
	require.True(t, ok)
	assert.Equal(t, "Andre", name)

	_, ok = BarberByName("Nobody")
	assert.False(t, ok)
	assert.Equal(t, []string{"Marcus", "Andre", "Tony"}, Barbers())
}
