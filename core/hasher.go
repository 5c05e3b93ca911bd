package core

import (
	"crypto/sha256"

	"github.com/krehermann/stackvm/types"
)

type Hasher[T any] interface {
	Hash(T) types.Hash
}

type DefaultProgramHasher struct{}

func (dh DefaultProgramHasher) Hash(p *Program) types.Hash {
	hash := sha256.Sum256(p.Canonical())
	return types.Hash(hash)
}
