package resource

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type item struct {
	ID   int
	Name string
}

func itemJSON(i item) Map {
	return When(Map{"id": i.ID}, i.Name != "", "name", i.Name)
}

func TestOneAndMany(t *testing.T) {
	assert.Equal(t, Map{"id": 1, "name": "a"}, One(item{1, "a"}, itemJSON))

	out := Many([]item{{1, "a"}, {2, ""}}, itemJSON)
	assert.Len(t, out, 2)
	assert.NotContains(t, out[1], "name")

	empty := Many[item](nil, itemJSON)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}
