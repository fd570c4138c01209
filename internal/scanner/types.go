package scanner

import (
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
)

// FileEntry is a regular file observed during traversal.
type FileEntry struct {
	Path string
	Size int64
}

// SizeBuckets groups paths by byte size. Paths keep traversal order and sizes
// keep first-seen order.
type SizeBuckets struct {
	sizes   []int64
	buckets map[int64][]string
}

// NewSizeBuckets returns an empty bucket set.
func NewSizeBuckets() *SizeBuckets {
	return &SizeBuckets{buckets: make(map[int64][]string)}
}

// Add appends the entry to the bucket for its size.
func (b *SizeBuckets) Add(entry FileEntry) {
	if _, ok := b.buckets[entry.Size]; !ok {
		b.sizes = append(b.sizes, entry.Size)
	}
	b.buckets[entry.Size] = append(b.buckets[entry.Size], entry.Path)
}

// Sizes returns the distinct sizes in first-seen order.
func (b *SizeBuckets) Sizes() []int64 {
	out := make([]int64, len(b.sizes))
	copy(out, b.sizes)
	return out
}

// Paths returns the paths recorded for size.
func (b *SizeBuckets) Paths(size int64) []string {
	return b.buckets[size]
}

// Len returns the number of distinct sizes.
func (b *SizeBuckets) Len() int {
	return len(b.sizes)
}

// Files returns the total number of paths across all buckets.
func (b *SizeBuckets) Files() int {
	total := 0
	for _, paths := range b.buckets {
		total += len(paths)
	}
	return total
}

// Candidates returns the number of files and bytes that sit in buckets with
// more than one path, i.e. the hashing workload.
func (b *SizeBuckets) Candidates() (files int, bytes int64) {
	for _, size := range b.sizes {
		paths := b.buckets[size]
		if len(paths) < 2 {
			continue
		}
		files += len(paths)
		bytes += size * int64(len(paths))
	}
	return files, bytes
}

// Digest is the MD5 fingerprint of a file's content.
type Digest [16]byte

// String returns the lowercase hex form of the digest.
func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// ParseDigest decodes a hex digest produced by Digest.String.
func ParseDigest(s string) (Digest, error) {
	var d Digest
	raw, err := hex.DecodeString(s)
	if err != nil {
		return d, err
	}
	if len(raw) != len(d) {
		return d, fmt.Errorf("digest %q: want %d bytes, got %d", s, len(d), len(raw))
	}
	copy(d[:], raw)
	return d, nil
}

// DuplicateGroup is a set of two or more paths with identical content.
type DuplicateGroup struct {
	Digest Digest
	Size   int64
	Paths  []string

	// Variant is non-zero when verification split a digest group into
	// several content classes.
	Variant int
}

// Key identifies the group inside a Result mapping.
func (g DuplicateGroup) Key() string {
	if g.Variant == 0 {
		return g.Digest.String()
	}
	return g.Digest.String() + "-" + strconv.Itoa(g.Variant)
}

// RedundantCopies is the number of members beyond the first.
func (g DuplicateGroup) RedundantCopies() int {
	if len(g.Paths) == 0 {
		return 0
	}
	return len(g.Paths) - 1
}

// Stats counts the work a scan did.
type Stats struct {
	FilesSeen   int
	SizeBuckets int
	FilesHashed int
	BytesHashed int64
}

// Result is the outcome of a successful scan.
type Result struct {
	Root     string
	Groups   []DuplicateGroup
	Warnings []*AccessError
	Stats    Stats
}

// Keys returns one unique key per group, in group order. A key is the
// group's Key unless groups of different sizes share it, in which case each
// of those keys carries an "@size" suffix.
func (r *Result) Keys() []string {
	counts := make(map[string]int, len(r.Groups))
	for _, group := range r.Groups {
		counts[group.Key()]++
	}
	keys := make([]string, len(r.Groups))
	for i, group := range r.Groups {
		key := group.Key()
		if counts[key] > 1 {
			key += "@" + strconv.FormatInt(group.Size, 10)
		}
		keys[i] = key
	}
	return keys
}

// Mapping returns the groups keyed by Keys.
func (r *Result) Mapping() map[string][]string {
	keys := r.Keys()
	out := make(map[string][]string, len(r.Groups))
	for i, group := range r.Groups {
		paths := make([]string, len(group.Paths))
		copy(paths, group.Paths)
		out[keys[i]] = paths
	}
	return out
}

// sortGroups puts groups in canonical order: largest files first, then digest.
func sortGroups(groups []DuplicateGroup) {
	sort.SliceStable(groups, func(i, j int) bool {
		if groups[i].Size != groups[j].Size {
			return groups[i].Size > groups[j].Size
		}
		if groups[i].Digest != groups[j].Digest {
			return groups[i].Digest.String() < groups[j].Digest.String()
		}
		return groups[i].Variant < groups[j].Variant
	})
}
