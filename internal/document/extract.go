package document

import (
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
)

var (
	landAreaPattern = regexp.MustCompile(`(?i)Land Area:\s*(\d+(?:\.\d+)?)`)
	treesPattern    = regexp.MustCompile(`(?i)Trees Planted:\s*(\d+)`)
	cropPattern     = regexp.MustCompile(`(?i)Crop Type:\s*([a-zA-Z]+)`)
)

// FarmFields are the submission values recognised in an uploaded document.
// Empty strings mean the field was not found.
type FarmFields struct {
	Area     string `json:"area,omitempty"`
	Trees    string `json:"trees,omitempty"`
	CropType string `json:"cropType,omitempty"`
}

func ExtractFarmFields(text string) FarmFields {
	var f FarmFields
	if m := landAreaPattern.FindStringSubmatch(text); len(m) == 2 {
		f.Area = m[1]
	}
	if m := treesPattern.FindStringSubmatch(text); len(m) == 2 {
		f.Trees = m[1]
	}
	if m := cropPattern.FindStringSubmatch(text); len(m) == 2 {
		f.CropType = strings.ToLower(m[1])
	}
	return f
}

// ExtractPDFText returns the plain text of every page, one line per text object.
func ExtractPDFText(data []byte) (text string, err error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	// the content interpreter panics on malformed streams
	defer func() {
		if rec := recover(); rec != nil {
			text, err = "", fmt.Errorf("read pdf text: %v", rec)
		}
	}()

	var buf strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		writePageText(&buf, p)
	}
	return buf.String(), nil
}

type textDecoder func(pdf.Value) string

func writePageText(buf *strings.Builder, p pdf.Page) {
	fonts := make(map[string]textDecoder)
	for _, name := range p.Fonts() {
		fonts[name] = decoderFor(p.Font(name))
	}
	var decode textDecoder = func(v pdf.Value) string { return v.RawString() }

	pdf.Interpret(p.V.Key("Contents"), func(stk *pdf.Stack, op string) {
		args := make([]pdf.Value, stk.Len())
		for i := len(args) - 1; i >= 0; i-- {
			args[i] = stk.Pop()
		}
		switch op {
		case "Tf":
			if len(args) == 2 {
				if d, ok := fonts[args[0].Name()]; ok {
					decode = d
				}
			}
		case "ET", "T*":
			buf.WriteByte('\n')
		case "Tj", "'", "\"":
			if len(args) > 0 {
				buf.WriteString(decode(args[len(args)-1]))
			}
		case "TJ":
			if len(args) == 1 {
				for j := 0; j < args[0].Len(); j++ {
					if x := args[0].Index(j); x.Kind() == pdf.String {
						buf.WriteString(decode(x))
					}
				}
			}
		}
	})
}

// decoderFor reads two-byte Identity-H codes through an identity ToUnicode
// map as UTF-16BE. The library's range lookup only offsets the low byte and
// turns such text outside Latin-1 into the wrong runes.
func decoderFor(f pdf.Font) textDecoder {
	if f.V.Key("Encoding").Name() == "Identity-H" && identityToUnicode(f.V.Key("ToUnicode")) {
		return func(v pdf.Value) string { return v.TextFromUTF16() }
	}
	enc := f.Encoder()
	return func(v pdf.Value) string { return enc.Decode(v.RawString()) }
}

const identityRange = "1 beginbfrange <0000> <FFFF> <0000> endbfrange"

func identityToUnicode(v pdf.Value) bool {
	if v.Kind() != pdf.Stream {
		return false
	}
	rc := v.Reader()
	defer rc.Close()
	raw, err := io.ReadAll(io.LimitReader(rc, 4096))
	if err != nil {
		return false
	}
	cmap := strings.Join(strings.Fields(string(raw)), " ")
	return strings.Contains(cmap, identityRange) && !strings.Contains(cmap, "beginbfchar")
}
