package portfolio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJsonObjectWriter(t *testing.T) {
	testCases := []struct {
		name  string
		build func(w *jsonObjectWriter)
		want  string
	}{
		{
			name:  "empty object",
			build: func(w *jsonObjectWriter) {},
			want:  `{}`,
		},
		{
			name: "keeps order",
			build: func(w *jsonObjectWriter) {
				w.Append("b", 1).Append("a", "hello")
			},
			want: `{"b":1,"a":"hello"}`,
		},
		{
			name: "optional fields",
			build: func(w *jsonObjectWriter) {
				w.Append("a", 0) // a zero value is added by Append
				w.Optional("b", "").Optional("c", 0).Optional("d", "hello")
			},
			want: `{"a":0,"d":"hello"}`,
		},
		{
			name: "prefixed fields",
			build: func(w *jsonObjectWriter) {
				w.Append("record", "tx")
				w.PrefixFrom("fee", map[string]int{"asset": 1})
				w.PrefixFrom("sent", (*Leg)(nil))
			},
			want: `{"record":"tx","feeAsset":1}`,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var w jsonObjectWriter
			tc.build(&w)
			got, err := w.MarshalJSON()
			require.NoError(t, err)
			assert.Equal(t, tc.want, string(got))
		})
	}
}

func TestJsonObjectWriterPrefixNotAnObject(t *testing.T) {
	var w jsonObjectWriter
	w.PrefixFrom("x", []int{1, 2})
	_, err := w.MarshalJSON()
	assert.Error(t, err)
}
