package target

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeepLink_UnmarshalJSON(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want DeepLink
	}{
		{"bare string", `"https://x/a"`, DeepLink{URL: "https://x/a", Source: TextUnknown, Text: TextUnknown}},
		{"full object", `{"url":"https://x/b","source":"https://x/","text":"B"}`, DeepLink{URL: "https://x/b", Source: "https://x/", Text: "B"}},
		{"object without text", `{"url":" https://x/c ","source":"https://x/"}`, DeepLink{URL: "https://x/c", Source: "https://x/", Text: TextUnknown}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var got DeepLink
			require.NoError(t, json.Unmarshal([]byte(tc.in), &got))
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestDeepLink_Rejects(t *testing.T) {
	for _, in := range []string{`""`, `{"text":"x"}`, `12`, `[1]`} {
		var d DeepLink
		assert.Error(t, json.Unmarshal([]byte(in), &d), in)
	}
	var d DeepLink
	assert.ErrorIs(t, json.Unmarshal([]byte(`"  "`), &d), ErrEmptyDeepLink)
}
