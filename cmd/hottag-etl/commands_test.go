package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, out *bytes.Buffer) []classification {
	t.Helper()
	var got []classification
	dec := json.NewDecoder(out)
	for dec.More() {
		var c classification
		require.NoError(t, dec.Decode(&c))
		got = append(got, c)
	}
	return got
}

func TestClassifyAll_Args(t *testing.T) {
	var out bytes.Buffer

	require.NoError(t, classifyAll(strings.NewReader(""), &out, []string{"Atlantic City, New Jersey, USA", "Tokyo, Japan"}))

	got := decodeLines(t, &out)
	require.Len(t, got, 2)
	assert.Equal(t, "NJ", *got[0].Location.State)
	assert.Equal(t, "Northeast", got[0].Region)
	assert.Equal(t, "Japan", *got[1].Location.Country)
	assert.Nil(t, got[1].Location.State)
}

func TestClassifyAll_Stdin(t *testing.T) {
	var out bytes.Buffer
	in := strings.NewReader("Philadelphia, PA\n\nSpringfield\n")

	require.NoError(t, classifyAll(in, &out, nil))

	got := decodeLines(t, &out)
	require.Len(t, got, 2, "blank lines are skipped")
	assert.Equal(t, "PA", *got[0].Location.State)
	assert.Equal(t, "Springfield", *got[1].Location.City)
	assert.Nil(t, got[1].Location.Country)
}

func TestClassifyAll_NullsSerialized(t *testing.T) {
	var out bytes.Buffer

	require.NoError(t, classifyAll(nil, &out, []string{"Springfield"}))

	assert.Contains(t, out.String(), `"state":null`)
	assert.NotContains(t, out.String(), "province")
}
