package config

//go:generate go tool go-enum --marshal --names --values

// Specification of requested output type.
// ENUM(css, json)
type OutputFmt int

// Ext returns destination file extension for output type.
func (o OutputFmt) Ext() string {
	switch o {
	case OutputFmtCss:
		return ".css"
	case OutputFmtJson:
		return ".json"
	default:
		// this should never happen
		panic("unsupported format requested")
	}
}
