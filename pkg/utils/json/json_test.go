package json

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chatResponse struct {
	Response string   `json:"response"`
	Sources  []source `json:"sources"`
}

type source struct {
	Title string  `json:"title"`
	Score float64 `json:"score"`
}

func TestMarshalUnmarshal(t *testing.T) {
	in := chatResponse{
		Response: "Kafka is a distributed event log.",
		Sources: []source{
			{Title: "Kafka Overview", Score: 0.92},
			{Title: "Event Streaming", Score: 0.87},
		},
	}

	data, err := Marshal(in)
	require.NoError(t, err)

	var out chatResponse
	require.NoError(t, Unmarshal(data, &out))
	assert.Equal(t, in, out)
}

func TestMarshalIndentSortsKeys(t *testing.T) {
	doc := map[string]interface{}{
		"zeta":  1,
		"alpha": "first",
		"mid":   true,
	}

	data, err := MarshalIndent(doc, "", "  ")
	require.NoError(t, err)

	s := string(data)
	assert.Less(t, strings.Index(s, "alpha"), strings.Index(s, "mid"))
	assert.Less(t, strings.Index(s, "mid"), strings.Index(s, "zeta"))
	assert.Contains(t, s, "\n  \"alpha\"")

	// 重复序列化输出稳定
	again, err := MarshalIndent(doc, "", "  ")
	require.NoError(t, err)
	assert.Equal(t, data, again)
}

func TestEncoderDecoder(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewEncoder(&buf).Encode(map[string]int{"vectors_created": 7}))

	var out map[string]int
	require.NoError(t, NewDecoder(&buf).Decode(&out))
	assert.Equal(t, 7, out["vectors_created"])
}

func TestUnmarshalInvalid(t *testing.T) {
	var out chatResponse
	assert.Error(t, Unmarshal([]byte("{not json"), &out))
}
