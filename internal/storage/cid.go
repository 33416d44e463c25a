package storage

import (
	"fmt"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
)

// ComputeCID returns the CIDv1 (raw codec, sha2-256) of content.
func ComputeCID(content []byte) (cid.Cid, error) {
	sum, err := multihash.Sum(content, multihash.SHA2_256, -1)
	if err != nil {
		return cid.Undef, fmt.Errorf("hash content: %w", err)
	}
	return cid.NewCidV1(cid.Raw, sum), nil
}

func ipfsURI(c string) string {
	return "ipfs://" + c
}

// ValidateCID reports whether s parses as a CID of any version.
func ValidateCID(s string) error {
	if _, err := cid.Decode(s); err != nil {
		return fmt.Errorf("invalid cid %q: %w", s, err)
	}
	return nil
}

// IPFSURI is the location recorded for content pinned on IPFS.
func IPFSURI(c string) string {
	return ipfsURI(c)
}
