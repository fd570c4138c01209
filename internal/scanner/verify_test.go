package scanner

import (
	"context"
	"io/fs"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type denyOpen struct {
	afero.Fs
	path string
}

func (d denyOpen) Open(name string) (afero.File, error) {
	if name == d.path {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrPermission}
	}
	return d.Fs.Open(name)
}

// failAfterFirstOpen lets path be opened once and denies every later open.
type failAfterFirstOpen struct {
	afero.Fs
	path   string
	opened int
}

func (f *failAfterFirstOpen) Open(name string) (afero.File, error) {
	if name == f.path {
		f.opened++
		if f.opened > 1 {
			return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrPermission}
		}
	}
	return f.Fs.Open(name)
}

func writeFiles(t *testing.T, fsys afero.Fs, files map[string]string) {
	t.Helper()
	for path, content := range files {
		require.NoError(t, afero.WriteFile(fsys, path, []byte(content), 0o644))
	}
}

func TestVerifyGroupsSplitsMismatchedContent(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeFiles(t, fsys, map[string]string{
		"/a": "aaaa-aaaa-1",
		"/b": "aaaa-aaaa-2",
		"/c": "aaaa-aaaa-1",
		"/d": "aaaa-aaaa-2",
		"/e": "aaaa-aaaa-3",
	})
	f := New(fsys, Options{ChunkSize: 4, Workers: 1})

	digest := Digest{0xab}
	groups, err := f.verifyGroups(context.Background(), []DuplicateGroup{
		{Digest: digest, Size: 11, Paths: []string{"/a", "/b", "/c", "/d", "/e"}},
	})
	require.NoError(t, err)

	require.Len(t, groups, 2)
	assert.Equal(t, []string{"/a", "/c"}, groups[0].Paths)
	assert.Equal(t, 0, groups[0].Variant)
	assert.Equal(t, digest.String(), groups[0].Key())
	assert.Equal(t, []string{"/b", "/d"}, groups[1].Paths)
	assert.Equal(t, 1, groups[1].Variant)
	assert.Equal(t, digest.String()+"-1", groups[1].Key())
}

func TestVerifyGroupsKeepsIdenticalGroups(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeFiles(t, fsys, map[string]string{"/x": "same bytes", "/y": "same bytes"})
	f := New(fsys, Options{ChunkSize: 3})

	in := []DuplicateGroup{{Digest: Digest{1}, Size: 10, Paths: []string{"/x", "/y"}}}
	groups, err := f.verifyGroups(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, in, groups)
}

func TestVerifyGroupsDropsUnreadableRepresentative(t *testing.T) {
	base := afero.NewMemMapFs()
	writeFiles(t, base, map[string]string{"/a": "same", "/b": "same", "/c": "same"})

	var warned []*AccessError
	f := New(denyOpen{Fs: base, path: "/a"}, Options{
		ChunkSize: 4,
		Warnings:  WarningFunc(func(err *AccessError) { warned = append(warned, err) }),
	})

	groups, err := f.verifyGroups(context.Background(), []DuplicateGroup{
		{Digest: Digest{2}, Size: 4, Paths: []string{"/a", "/b", "/c"}},
	})
	require.NoError(t, err)

	require.Len(t, groups, 1)
	assert.Equal(t, []string{"/b", "/c"}, groups[0].Paths)
	require.NotEmpty(t, warned)
	assert.Equal(t, "/a", warned[0].Path)
	assert.Equal(t, OpVerify, warned[0].Op)
}

func TestVerifyGroupsKeepsConfirmedMembersWhenRepresentativeFails(t *testing.T) {
	base := afero.NewMemMapFs()
	writeFiles(t, base, map[string]string{"/a": "same", "/b": "same", "/c": "same", "/d": "diff"})

	var warned []*AccessError
	f := New(&failAfterFirstOpen{Fs: base, path: "/a"}, Options{
		ChunkSize: 4,
		Warnings:  WarningFunc(func(err *AccessError) { warned = append(warned, err) }),
	})

	groups, err := f.verifyGroups(context.Background(), []DuplicateGroup{
		{Digest: Digest{3}, Size: 4, Paths: []string{"/a", "/b", "/c", "/d"}},
	})
	require.NoError(t, err)

	require.Len(t, groups, 1)
	assert.Equal(t, []string{"/b", "/c"}, groups[0].Paths)
	require.Len(t, warned, 1)
	assert.Equal(t, "/a", warned[0].Path)
	assert.Equal(t, OpVerify, warned[0].Op)
}

func TestFindDuplicatesWithVerifyMatchesDigestGrouping(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeFiles(t, fsys, map[string]string{
		"/r/a": "content", "/r/b": "content", "/r/c": "другой", "/r/d": "другой",
	})

	plain, err := New(fsys, Options{}).FindDuplicates(context.Background(), "/r")
	require.NoError(t, err)
	verified, err := New(fsys, Options{Verify: true, ChunkSize: 2}).FindDuplicates(context.Background(), "/r")
	require.NoError(t, err)

	assert.Equal(t, plain.Groups, verified.Groups)
	assert.Len(t, verified.Groups, 2)
}

func TestCompareFilesDifferentLengths(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeFiles(t, fsys, map[string]string{"/short": "abcd", "/long": "abcdabcd"})

	same, _, err := compareFiles(fsys, "/short", "/long", make([]byte, 4), make([]byte, 4))
	require.NoError(t, err)
	assert.False(t, same)
}

func TestSortGroupsCanonicalOrder(t *testing.T) {
	groups := []DuplicateGroup{
		{Digest: Digest{0x02}, Size: 10},
		{Digest: Digest{0x01}, Size: 10, Variant: 1},
		{Digest: Digest{0x01}, Size: 10},
		{Digest: Digest{0xff}, Size: 99},
	}
	sortGroups(groups)

	keys := make([]string, len(groups))
	for i, g := range groups {
		keys[i] = g.Key()
	}
	assert.Equal(t, []string{
		Digest{0xff}.String(),
		Digest{0x01}.String(),
		Digest{0x01}.String() + "-1",
		Digest{0x02}.String(),
	}, keys)
}

func TestResultKeysDisambiguateSharedDigest(t *testing.T) {
	digest := Digest{0xcd}
	result := &Result{Groups: []DuplicateGroup{
		{Digest: digest, Size: 20, Paths: []string{"/big1", "/big2"}},
		{Digest: digest, Size: 10, Paths: []string{"/small1", "/small2"}},
		{Digest: Digest{0xee}, Size: 5, Paths: []string{"/x", "/y"}},
	}}

	hex := digest.String()
	assert.Equal(t, []string{hex + "@20", hex + "@10", Digest{0xee}.String()}, result.Keys())

	mapping := result.Mapping()
	require.Len(t, mapping, 3)
	assert.Equal(t, []string{"/big1", "/big2"}, mapping[hex+"@20"])
	assert.Equal(t, []string{"/small1", "/small2"}, mapping[hex+"@10"])
}

func TestParseDigest(t *testing.T) {
	d, err := ParseDigest("5d41402abc4b2a76b9719d911017c592")
	require.NoError(t, err)
	assert.Equal(t, "5d41402abc4b2a76b9719d911017c592", d.String())

	_, err = ParseDigest("abcd")
	assert.Error(t, err)
	_, err = ParseDigest("zz")
	assert.Error(t, err)
}
