package annotation

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/colornames"

	"github.com/kailas-cloud/annotator/internal/domain"
)

// NormalizeColor parses a hex color (#rgb or #rrggbb) and returns it as #rrggbb.
func NormalizeColor(s string) (string, error) {
	c, err := colorful.Hex(strings.TrimSpace(s))
	if err != nil {
		return "", fmt.Errorf("%q: %w", s, domain.ErrInvalidColor)
	}
	return c.Hex(), nil
}

// ResolveColor turns a stored color into RGB. Besides hex it understands CSS
// color names and rgb()/rgba() notation; the alpha component is ignored.
func ResolveColor(s string) (colorful.Color, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if c, err := colorful.Hex(s); err == nil {
		return c, true
	}
	if rgba, ok := colornames.Map[s]; ok {
		c, _ := colorful.MakeColor(rgba)
		return c, true
	}
	return parseRGBFunc(s)
}

func parseRGBFunc(s string) (colorful.Color, bool) {
	var body string
	switch {
	case strings.HasPrefix(s, "rgba(") && strings.HasSuffix(s, ")"):
		body = s[len("rgba(") : len(s)-1]
	case strings.HasPrefix(s, "rgb(") && strings.HasSuffix(s, ")"):
		body = s[len("rgb(") : len(s)-1]
	default:
		return colorful.Color{}, false
	}

	parts := strings.FieldsFunc(body, func(r rune) bool { return r == ',' || r == ' ' || r == '/' })
	if len(parts) < 3 {
		return colorful.Color{}, false
	}
	var ch [3]float64
	for i := range ch {
		v, err := strconv.ParseFloat(parts[i], 64)
		if err != nil || v < 0 || v > 255 {
			return colorful.Color{}, false
		}
		ch[i] = v / 255
	}
	return colorful.Color{R: ch[0], G: ch[1], B: ch[2]}, true
}
