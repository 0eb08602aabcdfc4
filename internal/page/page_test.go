package page

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		origin string
		path   string
		want   string
	}{
		{"relative", "https://www.genaw.com/lowcarb", "recipes.html", "https://www.genaw.com/lowcarb/recipes.html"},
		{"origin trailing slash", "https://www.genaw.com/lowcarb/", "recipes.html", "https://www.genaw.com/lowcarb/recipes.html"},
		{"absolute", "https://www.genaw.com/lowcarb", "https://other.example/x.html", "https://other.example/x.html"},
		{"trimmed", "http://127.0.0.1:8080", " soups.html ", "http://127.0.0.1:8080/soups.html"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := Resolve(tc.origin, tc.path)
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestResolveRejectsRelativeOrigin(t *testing.T) {
	t.Parallel()

	_, err := Resolve("lowcarb", "recipes.html")
	require.Error(t, err)
}

func TestNetworkErrorUnwrap(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection refused")
	err := error(&NetworkError{URL: "https://example.com/a.html", Cause: cause})
	require.ErrorIs(t, err, cause)
	require.Equal(t, "open https://example.com/a.html: connection refused", err.Error())

	var netErr *NetworkError
	require.ErrorAs(t, err, &netErr)
}
