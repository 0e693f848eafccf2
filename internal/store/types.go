package store

// Kind is the content type of a history entry.
type Kind string

const (
	KindText  Kind = "text"
	KindImage Kind = "image"
	KindGIF   Kind = "gif" // animated image or video frame
)

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindText, KindImage, KindGIF:
		return true
	}
	return false
}

// IsImage reports whether the entry carries a thumbnail payload.
func (k Kind) IsImage() bool {
	return k == KindImage || k == KindGIF
}

// Origin records how an entry entered the history.
type Origin string

const (
	// OriginAuto marks entries recorded from a detected copy event.
	OriginAuto Origin = "auto"

	// OriginManual marks entries added explicitly by the user.
	OriginManual Origin = "manual"
)

// HistoryEntry is one unit of clipboard history.
// The JSON field names are shared by the request surface and the backup
// snapshot.
type HistoryEntry struct {
	// ID is a uuid generated at creation. It never changes.
	ID string `json:"id"`

	// Kind selects which payload fields are meaningful.
	Kind Kind `json:"type"`

	// Content is the raw copied text for KindText entries.
	Content string `json:"content,omitempty"`

	// Thumbnail is a data URL of a bounded-size raster for image entries.
	Thumbnail string `json:"thumbnail,omitempty"`

	// OriginalURL is the source of an image entry, when known.
	OriginalURL string `json:"originalUrl,omitempty"`

	// Hash is the hex SHA-256 of the canonicalizing input: the text for
	// text entries, the original URL (or the thumbnail) for images.
	Hash string `json:"hash"`

	// CreatedAt is a unix millisecond stamp. Stamps issued by one engine
	// are strictly increasing, so they order entries and break eviction ties.
	CreatedAt int64 `json:"timestamp"`

	// Pinned entries are exempt from capacity eviction.
	Pinned bool `json:"pinned"`

	Origin Origin `json:"source"`
}

// Clone returns a copy of e that shares no state with it.
func (e *HistoryEntry) Clone() *HistoryEntry {
	c := *e
	return &c
}

// CloneAll copies every entry in entries.
func CloneAll(entries []*HistoryEntry) []*HistoryEntry {
	out := make([]*HistoryEntry, len(entries))
	for i, e := range entries {
		out[i] = e.Clone()
	}
	return out
}
