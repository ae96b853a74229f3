package utils

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"hash"
	"strings"

	"golang.org/x/crypto/sha3"
)

// transcriptDomain separates movement transcripts from any other use of the
// same hash.
const transcriptDomain = "movement-guard/v1"

// Channel is a Fiat-Shamir transcript. Both prover and verifier absorb the
// same messages in the same order and squeeze the same indices.
type Channel struct {
	hashFunc string
	newHash  func() hash.Hash
	state    []byte
	squeezed uint64
	log      []string
}

// NewChannel creates a channel over "sha3" (the default) or "sha256".
func NewChannel(hashFunc string) *Channel {
	c := &Channel{hashFunc: hashFunc, newHash: sha3.New256}
	switch hashFunc {
	case "sha256":
		c.newHash = sha256.New
	default:
		c.hashFunc = "sha3"
	}
	c.state = c.digest([]byte(transcriptDomain))
	return c
}

func (c *Channel) digest(parts ...[]byte) []byte {
	h := c.newHash()
	for _, p := range parts {
		h.Write(p)
	}
	return h.Sum(nil)
}

// Send absorbs a message. Squeezing restarts from the new state.
func (c *Channel) Send(data []byte) {
	c.log = append(c.log, "send:"+hex.EncodeToString(data))
	c.state = c.digest(c.state, data)
	c.squeezed = 0
}

// SendUint64s absorbs a sequence of words in little-endian order
func (c *Channel) SendUint64s(words []uint64) {
	buf := make([]byte, 0, 8*len(words))
	for _, w := range words {
		buf = binary.LittleEndian.AppendUint64(buf, w)
	}
	c.Send(buf)
}

// ReceiveIndex squeezes an index in [0, n). It returns -1 if n is not
// positive.
func (c *Channel) ReceiveIndex(n int) int {
	if n <= 0 {
		return -1
	}
	var ctr [8]byte
	binary.BigEndian.PutUint64(ctr[:], c.squeezed)
	c.squeezed++

	out := c.digest(c.state, ctr[:])
	idx := int(binary.BigEndian.Uint64(out[:8]) % uint64(n))
	c.log = append(c.log, fmt.Sprintf("receiveIndex:%d", idx))
	return idx
}

// ReceiveDistinctIndices squeezes min(count, n) distinct indices in [0, n),
// in the order they were drawn.
func (c *Channel) ReceiveDistinctIndices(count, n int) []int {
	count = min(count, n)
	if count <= 0 {
		return nil
	}
	seen := make(map[int]struct{}, count)
	indices := make([]int, 0, count)
	for len(indices) < count {
		idx := c.ReceiveIndex(n)
		if _, dup := seen[idx]; dup {
			continue
		}
		seen[idx] = struct{}{}
		indices = append(indices, idx)
	}
	return indices
}

// State returns a copy of the absorbed state
func (c *Channel) State() []byte {
	return append([]byte(nil), c.state...)
}

// Proof returns the transcript of operations so far
func (c *Channel) Proof() []string {
	return append([]string(nil), c.log...)
}

func (c *Channel) String() string {
	return strings.Join(c.log, " ")
}
