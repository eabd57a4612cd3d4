// Package prompt turns a reflection into the instruction text sent to the
// model, and holds the canned reply used when a reflection mentions
// self-harm.
package prompt

import (
	"bytes"
	"embed"
	"fmt"
	"text/template"
)

type Style string

const (
	StyleGentle     Style = "gentle"
	StyleVictorious Style = "victorious"
	StyleGratitude  Style = "gratitude"
	StyleNight      Style = "night"
	StyleMorning    Style = "morning"
)

var Styles = []Style{StyleGentle, StyleVictorious, StyleGratitude, StyleNight, StyleMorning}

type Length string

const (
	LengthShort  Length = "short"
	LengthMedium Length = "medium"
	LengthLong   Length = "long"
)

var Lengths = []Length{LengthShort, LengthMedium, LengthLong}

type Locale string

const (
	LocaleZH Locale = "zh"
	LocaleEN Locale = "en"
)

var Locales = []Locale{LocaleZH, LocaleEN}

type Tradition string

const (
	TraditionChristian Tradition = "christian"
	TraditionBuddhist  Tradition = "buddhist"
)

var Traditions = []Tradition{TraditionChristian, TraditionBuddhist}

// Options selects the template and fills it.
type Options struct {
	Reflection string
	Style      Style
	Length     Length
	Locale     Locale
	Tradition  Tradition
}

// Output is the JSON object the model is asked to produce.
type Output struct {
	Title            *string  `json:"title"`
	Reframe          string   `json:"reframe"`
	Prayer           string   `json:"prayer"`
	Tags             []string `json:"tags"`
	BlessingCard     string   `json:"blessingCard"`
	IsSafetyResponse bool     `json:"isSafetyResponse,omitempty"`
}

//go:embed templates/*.tmpl
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.tmpl"))

type templateData struct {
	Reflection string
	Style      string
	Length     string
}

// Build renders the prompt for o. Unknown enum values are an error; callers
// validate input first, so this only trips on programming mistakes.
func Build(o Options) (string, error) {
	styles, ok := styleInstructions[o.Locale]
	if !ok {
		return "", fmt.Errorf("prompt: unknown locale %q", o.Locale)
	}
	style, ok := styles[o.Tradition][o.Style]
	if !ok {
		return "", fmt.Errorf("prompt: unknown style %q for %s/%s", o.Style, o.Tradition, o.Locale)
	}
	length, ok := lengthInstructions[o.Locale][o.Length]
	if !ok {
		return "", fmt.Errorf("prompt: unknown length %q", o.Length)
	}

	name := fmt.Sprintf("%s_%s.tmpl", o.Tradition, o.Locale)
	var buf bytes.Buffer
	err := templates.ExecuteTemplate(&buf, name, templateData{
		Reflection: o.Reflection,
		Style:      style,
		Length:     length,
	})
	if err != nil {
		return "", fmt.Errorf("prompt: render %s: %w", name, err)
	}
	return buf.String(), nil
}
