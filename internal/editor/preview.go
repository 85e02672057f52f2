package editor

const (
	DefaultFontSize = 18
	MinFontSize     = 12
	MaxFontSize     = 32
	FontStep        = 2

	previewOffset      = 4
	MinPreviewFontSize = 12
)

// FontSize is the editing font size in pixels.
type FontSize int

func (f FontSize) Larger() FontSize {
	if f+FontStep > MaxFontSize {
		return MaxFontSize
	}
	return f + FontStep
}

func (f FontSize) Smaller() FontSize {
	if f-FontStep < MinFontSize {
		return MinFontSize
	}
	return f - FontStep
}

// Preview is the device-frame font size derived from the editing size.
func (f FontSize) Preview() int {
	p := int(f) - previewOffset
	if p < MinPreviewFontSize {
		return MinPreviewFontSize
	}
	return p
}

// Preview is the rendered current page.
type Preview struct {
	Text       string `json:"text"`
	FontSize   int    `json:"font_size"`
	EditorFont int    `json:"editor_font"`
	Page       int    `json:"page"`
	PageCount  int    `json:"page_count"`
}
