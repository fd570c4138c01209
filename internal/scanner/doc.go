// Package scanner finds files with identical content under a directory tree.
//
// A scan runs in two phases. The tree is walked once and every regular file is
// bucketed by byte size; files whose size is unique cannot have a duplicate and
// are never opened. The remaining candidates are streamed through MD5 on a
// bounded worker pool and grouped by digest. Groups with a single member are
// dropped, so every reported group holds at least two paths. An optional
// verification pass compares group members byte for byte.
//
// Per-entry failures (unreadable directories, broken links, files that vanish
// mid-scan) are reported as AccessError warnings through a WarningSink and never
// abort the run. Only a missing or non-directory root is fatal.
package scanner
