package businessapi

// SaveBusinessRequest carries a normalized field set plus the pending
// attachments of a create or update operation. Fields holds only the keys
// the caller supplied, so updates merge instead of clobbering. Gallery keeps
// the file parts in their original submission order.
type SaveBusinessRequest struct {
	Fields  Fields
	Image   *Attachment
	Gallery []Attachment
}
