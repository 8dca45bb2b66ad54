package workspace

// Mode selects how the body is shown.
type Mode int

const (
	ModeEdit Mode = iota
	ModePreview
)

func (m Mode) String() string {
	if m == ModePreview {
		return "preview"
	}
	return "edit"
}

// Focus names the pane that receives keys.
type Focus int

const (
	FocusList Focus = iota
	FocusTitle
	FocusBody
)

func (f Focus) String() string {
	switch f {
	case FocusList:
		return "list"
	case FocusTitle:
		return "title"
	case FocusBody:
		return "body"
	default:
		return "unknown"
	}
}

// Next returns the following pane in the ring list, title, body. Unknown
// values go back to the list.
func (f Focus) Next() Focus {
	switch f {
	case FocusList:
		return FocusTitle
	case FocusTitle:
		return FocusBody
	default:
		return FocusList
	}
}

// RenderPolicy decides when a save re-renders the body.
type RenderPolicy string

const (
	// RenderAlways shows the rendered note after every save.
	RenderAlways RenderPolicy = "always"
	// RenderPreview re-renders only while Preview is active.
	RenderPreview RenderPolicy = "preview"
)
