package storage

import (
	"math"
	"math/bits"
	"sync"

	"github.com/cespare/xxhash/v2"
)

// BloomFilter is a probabilistic set over payload hashes. False positives are
// possible, false negatives are not, so a miss proves a payload was never added.
type BloomFilter struct {
	mu         sync.RWMutex
	bits       []uint64
	size       uint64 // Number of bits
	hashFuncs  uint64
	expectedN  uint64
	insertions uint64
}

// NewBloomFilter creates a new Bloom filter for the given false positive rate
// and expected number of elements
func NewBloomFilter(falsePositiveRate float64, expectedElements uint64) *BloomFilter {
	if expectedElements == 0 {
		expectedElements = 1
	}
	if falsePositiveRate <= 0 || falsePositiveRate >= 1 {
		falsePositiveRate = 0.01
	}
	size := calculateOptimalSize(expectedElements, falsePositiveRate)
	return &BloomFilter{
		bits:      make([]uint64, (size+63)/64),
		size:      size,
		hashFuncs: calculateOptimalHashFuncs(size, expectedElements),
		expectedN: expectedElements,
	}
}

// Add inserts a key into the filter
func (bf *BloomFilter) Add(key []byte) {
	h1, h2 := splitHash(xxhash.Sum64(key))

	bf.mu.Lock()
	defer bf.mu.Unlock()
	for i := uint64(0); i < bf.hashFuncs; i++ {
		bf.setBit((h1 + i*h2) % bf.size)
	}
	bf.insertions++
}

// AddString inserts a string key without copying it
func (bf *BloomFilter) AddString(key string) {
	h1, h2 := splitHash(xxhash.Sum64String(key))

	bf.mu.Lock()
	defer bf.mu.Unlock()
	for i := uint64(0); i < bf.hashFuncs; i++ {
		bf.setBit((h1 + i*h2) % bf.size)
	}
	bf.insertions++
}

// Contains reports whether the key might have been added
func (bf *BloomFilter) Contains(key []byte) bool {
	h1, h2 := splitHash(xxhash.Sum64(key))
	return bf.test(h1, h2)
}

// ContainsString reports whether the string key might have been added
func (bf *BloomFilter) ContainsString(key string) bool {
	h1, h2 := splitHash(xxhash.Sum64String(key))
	return bf.test(h1, h2)
}

func (bf *BloomFilter) test(h1, h2 uint64) bool {
	bf.mu.RLock()
	defer bf.mu.RUnlock()
	for i := uint64(0); i < bf.hashFuncs; i++ {
		if !bf.testBit((h1 + i*h2) % bf.size) {
			return false
		}
	}
	return true
}

// Clear removes all elements from the filter
func (bf *BloomFilter) Clear() {
	bf.mu.Lock()
	defer bf.mu.Unlock()
	for i := range bf.bits {
		bf.bits[i] = 0
	}
	bf.insertions = 0
}

// EstimatedFalsePositiveRate returns the false positive rate implied by the
// current number of insertions
func (bf *BloomFilter) EstimatedFalsePositiveRate() float64 {
	bf.mu.RLock()
	defer bf.mu.RUnlock()

	// (1 - e^(-kn/m))^k
	k := float64(bf.hashFuncs)
	m := float64(bf.size)
	n := float64(bf.insertions)
	return math.Pow(1-math.Exp(-k*n/m), k)
}

// Size returns the size of the filter in bits
func (bf *BloomFilter) Size() uint64 {
	return bf.size
}

// HashFunctions returns the number of hash probes per key
func (bf *BloomFilter) HashFunctions() uint64 {
	return bf.hashFuncs
}

// Insertions returns the number of keys added
func (bf *BloomFilter) Insertions() uint64 {
	bf.mu.RLock()
	defer bf.mu.RUnlock()
	return bf.insertions
}

// splitHash derives the two base hashes for double hashing. h2 is forced odd
// so successive probes cycle through distinct positions.
func splitHash(h uint64) (uint64, uint64) {
	return h, bits.RotateLeft64(h, 32) | 1
}

func (bf *BloomFilter) setBit(position uint64) {
	bf.bits[position/64] |= 1 << (position % 64)
}

func (bf *BloomFilter) testBit(position uint64) bool {
	return bf.bits[position/64]&(1<<(position%64)) != 0
}

// calculateOptimalSize returns m = -n*ln(p) / ln(2)^2
func calculateOptimalSize(n uint64, p float64) uint64 {
	m := float64(n) * math.Log(p) / (math.Log(2) * math.Log(2) * -1)
	return uint64(math.Max(64, math.Ceil(m)))
}

// calculateOptimalHashFuncs returns k = (m/n) * ln(2)
func calculateOptimalHashFuncs(m, n uint64) uint64 {
	k := float64(m) / float64(n) * math.Log(2)
	return uint64(math.Max(1, math.Round(k)))
}
