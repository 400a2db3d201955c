package lossless

// colorCacheHashMul is the multiplicative hash constant VP8L uses to map a
// 32-bit ARGB value into a cache slot (libwebp/src/utils/color_cache_utils.h).
const colorCacheHashMul = 0x1e35a7bd

// ColorCache is VP8L's recently-seen-pixel cache: a small hash table that
// lets the decoder/encoder refer back to a prior ARGB value by a short
// index instead of re-emitting it.
type ColorCache struct {
	Colors    []uint32
	HashBits  int
	HashShift int
}

// NewColorCache allocates an empty cache with 2^hashBits slots. hashBits
// must be in [1, MaxCacheBits].
func NewColorCache(hashBits int) *ColorCache {
	c := &ColorCache{
		Colors:    make([]uint32, 1<<hashBits),
		HashBits:  hashBits,
		HashShift: 32 - hashBits,
	}
	return c
}

// ReuseColorCache resets and returns existing if it already has room for
// hashBits slots, otherwise it allocates a fresh cache.
func ReuseColorCache(existing *ColorCache, hashBits int) *ColorCache {
	size := 1 << hashBits
	if existing == nil || cap(existing.Colors) < size {
		return NewColorCache(hashBits)
	}
	existing.Colors = existing.Colors[:size]
	existing.HashBits = hashBits
	existing.HashShift = 32 - hashBits
	existing.Reset()
	return existing
}

// HashPix maps an ARGB value to its slot in the table.
func (c *ColorCache) HashPix(argb uint32) int {
	return int((argb * colorCacheHashMul) >> uint(c.HashShift))
}

// Contains reports whether argb currently occupies its hashed slot, and
// returns that slot either way (the caller typically needs it to Insert
// on a miss).
func (c *ColorCache) Contains(argb uint32) (key int, ok bool) {
	key = c.HashPix(argb)
	return key, c.Colors[key] == argb
}

// Insert stores argb at its hashed slot, evicting whatever was there.
func (c *ColorCache) Insert(argb uint32) {
	c.Colors[c.HashPix(argb)] = argb
}

// Lookup returns whatever is stored at key, valid or not — callers that
// already resolved a key via Contains/HashPix use this to fetch the value.
func (c *ColorCache) Lookup(key int) uint32 {
	return c.Colors[key]
}

// Set stores argb directly at key, bypassing the hash (used when the
// bitstream names the slot explicitly rather than by color value).
func (c *ColorCache) Set(key int, argb uint32) {
	c.Colors[key] = argb
}

// Reset zeroes every slot.
func (c *ColorCache) Reset() {
	for i := range c.Colors {
		c.Colors[i] = 0
	}
}

// Copy overwrites c's entries with src's. Both must share the same HashBits.
func (c *ColorCache) Copy(src *ColorCache) {
	copy(c.Colors, src.Colors)
}
