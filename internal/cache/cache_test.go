package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyDeterministic(t *testing.T) {
	a := Key("videos", map[string]string{"country": "US", "limit": "50", "category": "music"})
	b := Key("videos", map[string]string{"limit": "50", "category": "music", "country": "US"})
	assert.Equal(t, a, b)
	assert.Equal(t, "board:videos:category=music:country=US:limit=50", a)
}

func TestKeyOmitsEmptyParams(t *testing.T) {
	withEmpty := Key("videos", map[string]string{"limit": "50", "category": ""})
	without := Key("videos", map[string]string{"limit": "50"})
	assert.Equal(t, without, withEmpty)
}

func TestKeyNoParams(t *testing.T) {
	assert.Equal(t, "board:creators", Key("creators", nil))
	assert.Equal(t, "board:creators", Key("creators", map[string]string{}))
}

func TestKeyDistinguishesRoutes(t *testing.T) {
	assert.NotEqual(t,
		Key("videos", map[string]string{"limit": "50"}),
		Key("shorts", map[string]string{"limit": "50"}))
}
