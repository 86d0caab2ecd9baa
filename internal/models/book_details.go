package models

import "strings"

// Format is a normalized tag of a downloadable book file.
type Format string

const (
	FormatEPUB    Format = "EPUB"
	FormatFB2     Format = "FB2"
	FormatMOBI    Format = "MOBI"
	FormatPDF     Format = "PDF"
	FormatTXT     Format = "TXT"
	FormatUnknown Format = "UNKNOWN"
)

// ParseFormat maps a raw token ("fb2", "fb2.zip", "Epub") to a known tag.
// Unrecognized tokens yield FormatUnknown.
func ParseFormat(token string) Format {
	token = strings.ToUpper(strings.TrimSpace(token))
	token = strings.TrimSuffix(token, ".ZIP")
	switch Format(token) {
	case FormatEPUB, FormatFB2, FormatMOBI, FormatPDF, FormatTXT:
		return Format(token)
	}
	return FormatUnknown
}

// DownloadLink is one downloadable file variant of a book.
type DownloadLink struct {
	Format Format

	// URL is absolute.
	URL string

	// Label is the link text extracted from the website, often includes size.
	Label string
}

// BookDetail is a best-effort view of a book page.
// Every optional field may stay empty if the markup changed.
type BookDetail struct {
	BookSummary

	Genres      []string
	Description string

	// DownloadLinks is populated only when the session was authenticated
	// at the time the page was fetched.
	DownloadLinks []DownloadLink
}
