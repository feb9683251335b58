package render

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomedium"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/gofont/gosmallcaps"
	"golang.org/x/image/font/opentype"
)

// DefaultFont is used when no font is configured
const DefaultFont = "goregular"

var builtinFonts = map[string][]byte{
	"goregular":   goregular.TTF,
	"gobold":      gobold.TTF,
	"goitalic":    goitalic.TTF,
	"gomedium":    gomedium.TTF,
	"gomono":      gomono.TTF,
	"gosmallcaps": gosmallcaps.TTF,
}

// FontNames lists the built-in font names
func FontNames() []string {
	names := make([]string, 0, len(builtinFonts))
	for name := range builtinFonts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LoadFont parses the TTF/OTF at file when set, else the built-in font name
func LoadFont(name, file string) (*opentype.Font, error) {
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read font file: %w", err)
		}
		f, err := opentype.Parse(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse font file %s: %w", file, err)
		}
		return f, nil
	}

	if name == "" {
		name = DefaultFont
	}
	data, ok := builtinFonts[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown font %q (available: %s)", name, strings.Join(FontNames(), ", "))
	}
	return opentype.Parse(data)
}
