package storage

import (
	"context"

	"github.com/signchain/signchain/internal/model"
)

// SimulatedCID is returned for every upload when no backend is configured.
const SimulatedCID = "bafybeigdyrzt5sfp7udm7hu76uh7y26nf3efuylqabf3oclgtqy55fbzdi"

type Simulated struct{}

func NewSimulated() *Simulated {
	return &Simulated{}
}

func (s *Simulated) Upload(ctx context.Context, _ []byte, _ string) (model.StoredObject, error) {
	if err := ctx.Err(); err != nil {
		return model.StoredObject{}, err
	}
	return model.StoredObject{CID: SimulatedCID, URI: ipfsURI(SimulatedCID)}, nil
}
