package identity

import (
	"testing"

	"conduit/cmd/internal/apperr"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, "Jake", NormalizeUsername("  Jake "))
	assert.Equal(t, "jake@jake.jake", NormalizeEmail(" Jake@Jake.JAKE "))
}

func TestCheckInput(t *testing.T) {
	cases := []struct {
		username, email string
		want            map[string][]string
	}{
		{"jake", "jake@jake.jake", nil},
		{"", "", map[string][]string{"username": {"can't be blank"}, "email": {"can't be blank"}}},
		{"has space", "not-an-email", map[string][]string{"username": {"is invalid"}, "email": {"is invalid"}}},
		{"jake", "Jake <jake@jake.jake>", map[string][]string{"email": {"is invalid"}}},
	}
	for _, tc := range cases {
		v := &apperr.ValidationError{}
		CheckUsername(v, tc.username)
		CheckEmail(v, tc.email)
		if tc.want == nil {
			assert.True(t, v.Empty(), "%q/%q: %v", tc.username, tc.email, v.Fields)
			continue
		}
		assert.Equal(t, tc.want, v.Fields)
	}
}

func TestCheckProfile(t *testing.T) {
	long := make([]byte, maxImageLen+1)
	for i := range long {
		long[i] = 'a'
	}
	img := string(long)

	v := &apperr.ValidationError{}
	CheckProfile(v, nil, &img)
	assert.Equal(t, map[string][]string{"image": {"is too long"}}, v.Fields)
}
