package cidutil

import (
	"fmt"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
)

// CIDv1RawSHA256 returns a CIDv1 string using the "raw" multicodec
// and a sha2-256 multihash.
func CIDv1RawSHA256(data []byte) (string, error) {
	id, err := CIDv1RawSHA256CID(data)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// CIDv1RawSHA256CID returns a CIDv1 (raw + sha2-256) derived from data.
func CIDv1RawSHA256CID(data []byte) (cid.Cid, error) {
	sum, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		return cid.Undef, err
	}
	return cid.NewCidV1(cid.Raw, sum), nil
}

// Validate checks that s parses as a CID (v0 or v1) and returns its canonical string.
func Validate(s string) (string, error) {
	id, err := cid.Decode(s)
	if err != nil {
		return "", fmt.Errorf("invalid cid %q: %w", s, err)
	}
	if !id.Defined() {
		return "", fmt.Errorf("invalid cid %q: undefined", s)
	}
	return id.String(), nil
}
