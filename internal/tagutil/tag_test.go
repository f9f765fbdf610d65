package tagutil_test

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reeflective/typedcli/internal/tagutil"
)

type sample struct {
	Field string `help:"a field" short:"f" default:"hi"`
}

func TestParse(t *testing.T) {
	sf, _ := reflect.TypeOf(sample{}).FieldByName("Field")

	tag, empty, err := tagutil.Parse(sf)
	require.NoError(t, err)
	assert.False(t, empty)

	v, ok := tag.Get("help")
	assert.True(t, ok)
	assert.Equal(t, "a field", v)

	v, ok = tag.Get("short")
	assert.True(t, ok)
	assert.Equal(t, "f", v)
}

func TestCamelToFlag(t *testing.T) {
	cases := map[string]string{
		"MaxRetryCount": "max-retry-count",
		"HTTPServer":    "http-server",
		"ID":            "id",
		"Port8080":      "port-8080",
		"simple":        "simple",
	}

	for in, want := range cases {
		assert.Equal(t, want, tagutil.CamelToFlag(in, "-"), in)
	}
}
