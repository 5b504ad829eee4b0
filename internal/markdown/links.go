package markdown

type LinkKind string

const (
	LinkKindInline LinkKind = "inline"
	LinkKindImage  LinkKind = "image"
	LinkKindAuto   LinkKind = "auto"
)

// Link is a standard Markdown link occurrence found in a note body.
type Link struct {
	Kind        LinkKind
	Destination string
}
