package tasks

import (
	"encoding/json"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrettyJSONLayout(t *testing.T) {
	out, err := PrettyJSON(map[string]any{
		"bs":           128,
		"just_train":   false,
		"augmentation": map[string]any{"crop_amount": 1},
	})
	require.NoError(t, err)

	lines := strings.Split(out, "\n")
	require.Equal(t, "{", lines[0])
	require.Equal(t, "}", lines[len(lines)-1])
	// One top-level key per line, sorted; nested values stay compact.
	require.Equal(t, `"augmentation":{"crop_amount":1},`, lines[1])
	require.Equal(t, `"bs":128,`, lines[2])
	require.Equal(t, `"just_train":false`, lines[3])
}

func TestPrettyJSONRejectsNonMappings(t *testing.T) {
	for _, v := range []any{42, "text", []int{1, 2}, 3.5, true, nil} {
		_, err := PrettyJSON(v)
		require.Error(t, err, "%v", v)
	}
}

func TestPrettyJSONRoundTrip(t *testing.T) {
	reg := NewRegistry(nil)
	for seed := int64(0); seed < 200; seed++ {
		rng := rand.New(rand.NewSource(seed))
		task := reg.SampleImage(rng)

		out, err := PrettyJSON(task)
		require.NoError(t, err)

		var decoded ImageTask
		require.NoError(t, json.Unmarshal([]byte(out), &decoded))
		require.Equal(t, task, decoded)

		// Serializing the parsed config again is stable.
		again, err := PrettyJSON(decoded)
		require.NoError(t, err)
		assert.Equal(t, out, again)
	}
}

func TestPrettyJSONStructInput(t *testing.T) {
	task := TextTask{Dataset: "imdb_reviews/bytes", Params: TextParams{BatchSize: 32, MaxToken: 8185, PatchLength: 16}}
	out, err := PrettyJSON(task)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out, "{\n"))
	require.True(t, strings.HasSuffix(out, "\n}"))

	var decoded TextTask
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	require.Equal(t, task, decoded)
}
