package report

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
)

const listingHeader = "--- Duplicate Files Found ---"

// NoDuplicatesMessage is printed when a scan finds nothing.
const NoDuplicatesMessage = "No duplicate files found based on content."

// WriteText writes the plain-text listing used for report files.
func WriteText(w io.Writer, rep *Report) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, listingHeader)
	if len(rep.Groups) == 0 {
		fmt.Fprintf(bw, "\n%s\n", NoDuplicatesMessage)
	}
	writeGroups(bw, rep.Groups)
	return bw.Flush()
}

// WriteJSON writes the report as indented JSON.
func WriteJSON(w io.Writer, rep *Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}

// WriteConsole writes the human-readable listing followed by the totals.
func WriteConsole(w io.Writer, rep *Report) error {
	bw := bufio.NewWriter(w)
	if len(rep.Groups) == 0 {
		fmt.Fprintln(bw, NoDuplicatesMessage)
		return bw.Flush()
	}

	fmt.Fprintf(bw, "\n%s\n", listingHeader)
	writeGroups(bw, rep.Groups)
	fmt.Fprintf(bw, "\nTotal unique duplicate sets: %d\n", rep.Summary.DuplicateSets)
	fmt.Fprintf(bw, "Total individual duplicate files (extra copies): %d\n", rep.Summary.RedundantCopies)
	return bw.Flush()
}

func writeGroups(w io.Writer, groups []Group) {
	for _, group := range groups {
		fmt.Fprintf(w, "\nHash: %s\n", group.Digest)
		for _, path := range group.Paths {
			fmt.Fprintf(w, "  - %s\n", path)
		}
	}
}

func shortDigest(digest string) string {
	if len(digest) <= 12 {
		return digest
	}
	return digest[:12]
}
