package cidutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCIDv1RawSHA256(t *testing.T) {
	a, err := CIDv1RawSHA256([]byte(`{"ipor_name":"lamp"}`))
	require.NoError(t, err)
	b, err := CIDv1RawSHA256([]byte(`{"ipor_name":"lamp"}`))
	require.NoError(t, err)
	c, err := CIDv1RawSHA256([]byte(`{"ipor_name":"chair"}`))
	require.NoError(t, err)

	assert.Equal(t, a, b, "same bytes yield the same CID")
	assert.NotEqual(t, a, c)
	assert.Equal(t, "b", a[:1], "CIDv1 strings are base32 with the b prefix")
}

func TestValidate(t *testing.T) {
	valid, err := CIDv1RawSHA256([]byte("hello"))
	require.NoError(t, err)

	got, err := Validate(valid)
	require.NoError(t, err)
	assert.Equal(t, valid, got)

	_, err = Validate("QmYwAPJzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPbdG")
	assert.NoError(t, err, "CIDv0 is accepted")

	_, err = Validate("not-a-cid")
	assert.Error(t, err)

	_, err = Validate("")
	assert.Error(t, err)
}
