package types

import "fmt"

// BlockID identifies a confirmed block on the current best chain by its
// height and hash together, so a reader never has to reconcile the two
// separately.
type BlockID struct {
	Height uint64 `json:"height"`
	Hash   Hash   `json:"hash"`
}

// String returns "height:hash".
func (b BlockID) String() string {
	return fmt.Sprintf("%d:%s", b.Height, b.Hash)
}
